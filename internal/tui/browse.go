package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/surveyops/surveyctl/internal/browser"
	"github.com/surveyops/surveyctl/internal/constants"
	"github.com/surveyops/surveyctl/internal/events"
	"github.com/surveyops/surveyctl/internal/util/sanitize"
)

func (m Model) snapshot() browser.Snapshot {
	if m.ctrl == nil {
		return browser.Snapshot{}
	}
	return m.ctrl.Snapshot()
}

func (m Model) updateList(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	snap := m.snapshot()
	m.inlineErr = ""

	switch msg.String() {
	case "q":
		m.quitting = true
		return m, tea.Quit

	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
			m.clampOffset()
		}

	case "down", "j":
		if m.cursor < len(snap.Records)-1 {
			m.cursor++
			m.clampOffset()
		}

	case "left", "h", "pgup":
		if snap.HasPrev() {
			m.setInlineErr(m.ctrl.PrevPage())
		}

	case "right", "l", "pgdown":
		if snap.HasNext() {
			m.setInlineErr(m.ctrl.NextPage())
		}

	case "home":
		if snap.TotalPages > 0 {
			m.setInlineErr(m.ctrl.SetPage(1))
		}

	case "end":
		if snap.TotalPages > 0 {
			m.setInlineErr(m.ctrl.SetPage(snap.TotalPages))
		}

	case "s":
		m.setInlineErr(m.ctrl.SetPageSize(nextPageSize(snap.PageSize)))

	case "r":
		m.ctrl.Refresh()

	case "enter":
		if m.cursor < len(snap.Records) {
			m.selection.Select(snap.Records[m.cursor])
			m.mode = modeDetail
		}

	case "/":
		m.searchInput.SetValue(snap.Search)
		m.searchInput.CursorEnd()
		m.mode = modeSearch
		cmd := m.searchInput.Focus()
		return m, cmd

	case "g", ":":
		m.jumpInput.SetValue("")
		m.mode = modeJump
		cmd := m.jumpInput.Focus()
		return m, cmd

	case "L":
		cmd := m.logout()
		return m, cmd

	case "d":
		m.opts.Notices.DismissAll()
		m.toasts = nil
	}

	return m, nil
}

// updateSearch edits the search term. Keystrokes only change the input;
// the term is committed to the controller on enter.
func (m Model) updateSearch(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		m.searchInput.Blur()
		m.mode = modeList
		m.cursor, m.offset = 0, 0
		m.ctrl.SetSearch(strings.TrimSpace(m.searchInput.Value()))
		return m, nil

	case "esc":
		m.searchInput.Blur()
		m.searchInput.SetValue(m.snapshot().Search)
		m.mode = modeList
		return m, nil
	}

	var cmd tea.Cmd
	m.searchInput, cmd = m.searchInput.Update(msg)
	return m, cmd
}

func (m Model) updateJump(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		if err := m.ctrl.JumpTo(m.jumpInput.Value()); err != nil {
			m.inlineErr = err.Error()
			return m, nil
		}
		m.jumpInput.Blur()
		m.inlineErr = ""
		m.mode = modeList
		m.cursor, m.offset = 0, 0
		return m, nil

	case "esc":
		m.jumpInput.Blur()
		m.inlineErr = ""
		m.mode = modeList
		return m, nil
	}

	var cmd tea.Cmd
	m.jumpInput, cmd = m.jumpInput.Update(msg)
	return m, cmd
}

// loadErrHint words a failed load for the status line. Only transient
// failures invite a retry.
func loadErrHint(ev *events.ErrorEvent) string {
	if ev.Retryable {
		return "Last refresh failed; press r to retry"
	}
	return "Last refresh failed: " + sanitize.Text(ev.Error.Error())
}

func (m *Model) setInlineErr(err error) {
	if err != nil {
		m.inlineErr = err.Error()
	}
}

func nextPageSize(current int) int {
	sizes := constants.AllowedPageSizes
	for i, s := range sizes {
		if s == current {
			return sizes[(i+1)%len(sizes)]
		}
	}
	return constants.DefaultPageSize
}

func (m *Model) clampCursor() {
	n := len(m.snapshot().Records)
	if m.cursor >= n {
		m.cursor = max(0, n-1)
	}
	m.clampOffset()
}

func (m Model) visibleRows() int {
	// title, search line, header, blank, range, window, status bar, help
	v := m.height - 9 - len(m.toasts)
	if v < 1 {
		v = 1
	}
	return v
}

func (m *Model) clampOffset() {
	visible := m.visibleRows()
	if m.cursor < m.offset {
		m.offset = m.cursor
	}
	if m.cursor >= m.offset+visible {
		m.offset = m.cursor - visible + 1
	}
	if m.offset < 0 {
		m.offset = 0
	}
}

// Column layout: name, email, phone, city, nationality, submitted.
var columnWidths = []int{22, 28, 16, 14, 14, 16}

func (m Model) viewBrowser() string {
	var b strings.Builder
	snap := m.snapshot()

	title := titleStyle.Render("Survey Submissions")
	summary := dimStyle.Render(fmt.Sprintf("  Total submissions: %d", snap.Total))
	if snap.TotalPages > 0 {
		summary += dimStyle.Render(fmt.Sprintf("  Page %d of %d", snap.Page, snap.TotalPages))
	}
	if snap.Loading {
		summary += dimStyle.Render("  loading...")
	}
	b.WriteString(title + summary + "\n")

	switch m.mode {
	case modeSearch:
		b.WriteString(inputStyle.Render("Search: "+m.searchInput.View()) + "\n")
	case modeJump:
		b.WriteString(inputStyle.Render("Go to page: "+m.jumpInput.View()) + "\n")
	default:
		if snap.Search != "" {
			b.WriteString(dimStyle.Render(fmt.Sprintf(" Search: %q", snap.Search)) + "\n")
		} else {
			b.WriteString("\n")
		}
	}

	b.WriteString(headerStyle.Render(row([]string{"Name", "Email", "Phone", "City", "Nationality", "Submitted"})) + "\n")

	if len(snap.Records) == 0 {
		msg := "No survey submissions yet"
		if snap.Loading {
			msg = "Loading..."
		} else if snap.Search != "" {
			msg = "No submissions match your search"
		}
		b.WriteString(dimStyle.Render("  "+msg) + "\n")
	}

	visible := m.visibleRows()
	end := min(m.offset+visible, len(snap.Records))
	for i := m.offset; i < end; i++ {
		r := snap.Records[i]
		line := row([]string{r.Name, r.Email, r.Phone, r.City, r.Nationality, humanize.Time(r.CreatedAt)})
		if i == m.cursor {
			b.WriteString(selectedStyle.Render(line) + "\n")
		} else {
			b.WriteString(normalStyle.Render(line) + "\n")
		}
	}

	b.WriteString("\n")
	if from, to := snap.Range(); snap.Total > 0 {
		b.WriteString(dimStyle.Render(fmt.Sprintf(" Showing %d to %d of %d results", from, to, snap.Total)) + "\n")
	}
	b.WriteString(m.viewWindow(snap) + "\n")

	if m.inlineErr != "" {
		b.WriteString(errorStyle.Render(" "+m.inlineErr) + "\n")
	} else if m.loadErr != "" {
		b.WriteString(errorStyle.Render(" "+m.loadErr) + "\n")
	}

	status := statusBarStyle.Render(fmt.Sprintf("Rows per page: %d", snap.PageSize))
	help := helpStyle.Render("  ↑↓: move  ←→: page  Enter: details  /: search  g: go to page  s: page size  r: refresh  L: logout  q: quit")
	b.WriteString(status + help)

	return b.String()
}

func (m Model) viewWindow(snap browser.Snapshot) string {
	if m.ctrl == nil || snap.TotalPages == 0 {
		return ""
	}
	prev := pageStyle.Render("‹ Prev")
	if !snap.HasPrev() {
		prev = dimStyle.Render(" ‹ Prev ")
	}
	next := pageStyle.Render("Next ›")
	if !snap.HasNext() {
		next = dimStyle.Render(" Next › ")
	}

	parts := []string{prev}
	for _, mk := range m.ctrl.Window() {
		switch {
		case !mk.IsPage():
			parts = append(parts, dimStyle.Render(" "+mk.Label()+" "))
		case mk.Page == snap.Page:
			parts = append(parts, currentPageStyle.Render(mk.Label()))
		default:
			parts = append(parts, pageStyle.Render(mk.Label()))
		}
	}
	parts = append(parts, next)
	return lipgloss.JoinHorizontal(lipgloss.Top, parts...)
}

func (m Model) viewToasts() string {
	if len(m.toasts) == 0 {
		return ""
	}
	var lines []string
	for _, t := range m.toasts {
		st := toastStyles[0]
		if int(t.Level) < len(toastStyles) {
			st = toastStyles[t.Level]
		}
		text := t.Message
		if t.Title != "" {
			text = t.Title + ": " + t.Message
		}
		lines = append(lines, st.Render(text))
	}
	return "\n" + strings.Join(lines, "\n")
}

func row(cells []string) string {
	out := make([]string, len(cells))
	for i, c := range cells {
		out[i] = fit(sanitize.Cell(c), columnWidths[i])
	}
	return strings.Join(out, " ")
}

// fit truncates or pads s to exactly w cells.
func fit(s string, w int) string {
	runes := []rune(s)
	if len(runes) > w {
		return string(runes[:w-1]) + "…"
	}
	return s + strings.Repeat(" ", w-len(runes))
}
