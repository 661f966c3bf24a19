package tui

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/surveyops/surveyctl/internal/util/sanitize"
)

const detailTimeLayout = "January 2, 2006 3:04 PM"

// updateDetail handles the open detail panel. Only an explicit close clears
// the selection; page loads underneath leave it alone.
func (m Model) updateDetail(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "enter", "backspace":
		m.selection.Clear()
		m.mode = modeList
	case "r":
		m.ctrl.Refresh()
	case "q":
		m.quitting = true
		return m, tea.Quit
	}
	return m, nil
}

func (m Model) viewDetail() string {
	rec, ok := m.selection.Current()
	if !ok {
		return m.viewBrowser()
	}

	field := func(label, value string) string {
		value = sanitize.Cell(value)
		if value == "" {
			value = dimStyle.Render("-")
		}
		return labelStyle.Render(label) + value
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("Submission Details") + "\n\n")

	b.WriteString(sectionStyle.Render("Personal Information") + "\n")
	b.WriteString(field("Name", rec.Name) + "\n")
	b.WriteString(field("Gender", rec.Gender) + "\n")
	b.WriteString(field("Nationality", rec.Nationality) + "\n\n")

	b.WriteString(sectionStyle.Render("Contact Information") + "\n")
	b.WriteString(field("Email", rec.Email) + "\n")
	b.WriteString(field("Phone", rec.Phone) + "\n\n")

	b.WriteString(sectionStyle.Render("Address") + "\n")
	b.WriteString(field("Street", rec.StreetAddress) + "\n")
	b.WriteString(field("City", rec.City) + "\n")
	b.WriteString(field("State", rec.State) + "\n")
	b.WriteString(field("Pincode", rec.Pincode) + "\n\n")

	b.WriteString(sectionStyle.Render("Message") + "\n")
	width := min(72, max(20, m.width-12))
	msg := sanitize.Text(rec.Message)
	if msg == "" {
		msg = dimStyle.Render("No message provided")
	}
	b.WriteString(lipgloss.NewStyle().Width(width).Render(msg) + "\n\n")

	submitted := "-"
	if !rec.CreatedAt.IsZero() {
		submitted = rec.CreatedAt.Local().Format(detailTimeLayout) + dimStyle.Render(" ("+humanize.Time(rec.CreatedAt)+")")
	}
	b.WriteString(field("Submitted", submitted) + "\n")
	b.WriteString(dimStyle.Render("ID "+rec.ID) + "\n\n")
	b.WriteString(helpStyle.Render("Esc: close  r: refresh list  q: quit"))

	return panelStyle.Render(b.String())
}
