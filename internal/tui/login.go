package tui

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/surveyops/surveyctl/internal/api"
)

// MsgInvalidLogin is shown under the form when the backend rejects the
// credentials.
const MsgInvalidLogin = "Invalid email or password"

const (
	fieldEmail = iota
	fieldPassword
	fieldCount
)

type loginForm struct {
	email      textinput.Model
	password   textinput.Model
	focused    int
	err        string
	submitting bool
}

func newLoginForm(email string) loginForm {
	ei := textinput.New()
	ei.Placeholder = "admin@example.com"
	ei.CharLimit = 254
	ei.SetValue(email)

	pi := textinput.New()
	pi.Placeholder = "password"
	pi.CharLimit = 128
	pi.EchoMode = textinput.EchoPassword
	pi.EchoCharacter = '•'

	f := loginForm{email: ei, password: pi}
	if email != "" {
		f.focused = fieldPassword
	}
	return f
}

func (f *loginForm) focus() tea.Cmd {
	f.email.Blur()
	f.password.Blur()
	if f.focused == fieldPassword {
		return f.password.Focus()
	}
	return f.email.Focus()
}

func (m Model) updateLogin(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	f := &m.login
	if f.submitting {
		return m, nil
	}

	switch msg.String() {
	case "esc":
		m.quitting = true
		return m, tea.Quit

	case "tab", "down", "shift+tab", "up":
		f.focused = (f.focused + 1) % fieldCount
		cmd := f.focus()
		return m, cmd

	case "enter":
		if f.focused == fieldEmail && f.password.Value() == "" {
			f.focused = fieldPassword
			cmd := f.focus()
			return m, cmd
		}
		email := strings.TrimSpace(f.email.Value())
		password := f.password.Value()
		if email == "" || password == "" {
			f.err = "Email and password are required"
			return m, nil
		}
		f.err = ""
		f.submitting = true
		backend, ctx := m.opts.Backend, m.ctx
		return m, tea.Batch(m.spinner.Tick, func() tea.Msg {
			_, err := backend.Login(ctx, email, password)
			return loginResultMsg{email: email, err: err}
		})
	}

	var cmd tea.Cmd
	if f.focused == fieldEmail {
		f.email, cmd = f.email.Update(msg)
	} else {
		f.password, cmd = f.password.Update(msg)
	}
	return m, cmd
}

func (m Model) handleLoginResult(msg loginResultMsg) (tea.Model, tea.Cmd) {
	f := &m.login
	f.submitting = false

	if msg.err != nil {
		m.logger.Debug().Err(msg.err).Str("email", msg.email).Msg("Login failed")
		f.password.SetValue("")
		f.focused = fieldPassword
		switch {
		case errors.Is(msg.err, api.ErrInvalidCredentials):
			f.err = MsgInvalidLogin
		case api.IsNetworkError(msg.err):
			f.err = "Could not reach the server"
		default:
			f.err = fmt.Sprintf("Login failed: %v", msg.err)
		}
		cmd := f.focus()
		return m, cmd
	}

	m.logger.Info().Str("email", msg.email).Msg("Logged in")
	f.err = ""
	f.password.SetValue("")
	cmd := m.remountGate()
	return m, cmd
}

func (m Model) viewLogin() string {
	f := m.login

	title := titleStyle.Render("Admin Login")

	label := func(s string, focused bool) string {
		st := lipgloss.NewStyle().Width(10)
		if focused {
			st = st.Bold(true).Foreground(lipgloss.Color("39"))
		}
		return st.Render(s)
	}

	var b strings.Builder
	b.WriteString(title + "\n\n")
	b.WriteString(label("Email", f.focused == fieldEmail) + f.email.View() + "\n\n")
	b.WriteString(label("Password", f.focused == fieldPassword) + f.password.View() + "\n")
	if f.err != "" {
		b.WriteString("\n" + errorStyle.Render(f.err) + "\n")
	}
	if f.submitting {
		b.WriteString("\n" + m.spinner.View() + " Signing in...\n")
	}
	b.WriteString("\n" + dimStyle.Render("Enter: sign in  Tab: next field  Esc: quit"))

	box := panelStyle.Width(56).Render(b.String())
	return lipgloss.Place(m.width, m.height-2, lipgloss.Center, lipgloss.Center, box)
}
