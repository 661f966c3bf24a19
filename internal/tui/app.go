// Package tui is the interactive record browser: a session gate with a wait
// spinner, a login form, and the paginated record table with a detail panel.
package tui

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/surveyops/surveyctl/internal/browser"
	"github.com/surveyops/surveyctl/internal/events"
	"github.com/surveyops/surveyctl/internal/logging"
	"github.com/surveyops/surveyctl/internal/notify"
	"github.com/surveyops/surveyctl/internal/session"
)

// Backend is everything the TUI needs from the remote data source.
// *api.Client implements it.
type Backend interface {
	session.Authenticator
	browser.Source
	Login(ctx context.Context, email, password string) (string, error)
	ClearSession() error
}

// MsgLoggedOut is the toast raised after logout.
const MsgLoggedOut = "Logged out successfully"

type screen int

const (
	screenWait screen = iota
	screenLogin
	screenBrowser
)

type mode int

const (
	modeList mode = iota
	modeSearch
	modeJump
	modeDetail
)

// Options configures the TUI.
type Options struct {
	Backend    Backend
	Bus        *events.EventBus
	Notices    *notify.Center
	Logger     *logging.Logger
	PageSize   int
	WindowSize int
	Email      string // prefilled on the login form
}

// Messages

type busMsg struct{ event events.Event }

type busClosedMsg struct{}

type loginResultMsg struct {
	email string
	err   error
}

type logoutDoneMsg struct{ err error }

type toastTickMsg struct{}

// Model is the root bubbletea model. Shared components are pointers, so
// copies of Model made by bubbletea all drive the same gate and controller.
type Model struct {
	opts   Options
	ctx    context.Context
	logger *logging.Logger
	sub    <-chan events.Event

	gate      *session.Gate
	ctrl      *browser.Controller
	selection *browser.Selection

	screen  screen
	mode    mode
	spinner spinner.Model
	login   loginForm

	cursor      int
	offset      int
	width       int
	height      int
	searchInput textinput.Model
	jumpInput   textinput.Model
	inlineErr   string
	loadErr     string
	toasts      []notify.Toast
	tickPending bool
	quitting    bool
}

// New builds the model. Nothing talks to the backend until Init.
func New(ctx context.Context, opts Options) Model {
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	if opts.Bus == nil {
		opts.Bus = events.NewEventBus(0)
	}
	if opts.Notices == nil {
		opts.Notices = notify.NewCenter(0, opts.Bus, nil)
	}

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = titleStyle

	si := textinput.New()
	si.Placeholder = "search name, email, phone, city..."
	si.CharLimit = 100

	ji := textinput.New()
	ji.Placeholder = "page"
	ji.CharLimit = 6

	m := Model{
		opts:        opts,
		ctx:         ctx,
		logger:      logger.Component("tui"),
		selection:   browser.NewSelection(opts.Bus),
		screen:      screenWait,
		spinner:     sp,
		login:       newLoginForm(opts.Email),
		searchInput: si,
		jumpInput:   ji,
		width:       120,
		height:      30,
	}
	m.gate = session.NewGate(opts.Backend, opts.Bus, m.logger)
	m.sub = opts.Bus.Subscribe(
		session.EventStatusChanged,
		session.EventRedirect,
		browser.EventChanged,
		browser.EventSelectionChanged,
		notify.EventNotification,
		events.EventError,
	)
	return m
}

// Run starts the TUI and blocks until the user quits or ctx is cancelled.
func Run(ctx context.Context, opts Options) error {
	m := New(ctx, opts)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	final, err := p.Run()
	if fm, ok := final.(Model); ok {
		fm.Shutdown()
	} else {
		m.Shutdown()
	}
	return err
}

// Shutdown stops the controller and gate and detaches from the bus.
func (m Model) Shutdown() {
	if m.ctrl != nil {
		m.ctrl.Stop()
	}
	if m.gate != nil {
		m.gate.Close()
	}
	m.opts.Bus.UnsubscribeAll(m.sub)
}

func (m Model) Init() tea.Cmd {
	m.gate.Mount(m.ctx)
	return tea.Batch(m.spinner.Tick, m.listen())
}

// remountGate replaces the gate with a fresh one and starts its check.
// A fresh mount is the only way status returns to Unknown.
func (m *Model) remountGate() tea.Cmd {
	old := m.gate
	m.gate = session.NewGate(m.opts.Backend, m.opts.Bus, m.logger)
	m.gate.Mount(m.ctx)
	m.screen = screenWait
	if old != nil {
		go old.Close()
	}
	return m.spinner.Tick
}

func (m Model) listen() tea.Cmd {
	sub := m.sub
	return func() tea.Msg {
		e, ok := <-sub
		if !ok {
			return busClosedMsg{}
		}
		return busMsg{event: e}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.clampOffset()
		return m, nil

	case spinner.TickMsg:
		if m.screen != screenWait && !m.login.submitting {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case busMsg:
		cmd := m.handleEvent(msg.event)
		return m, tea.Batch(cmd, m.listen())

	case busClosedMsg:
		return m, nil

	case loginResultMsg:
		return m.handleLoginResult(msg)

	case logoutDoneMsg:
		if err := m.opts.Backend.ClearSession(); err != nil {
			m.logger.Warn().Err(err).Msg("Failed to clear stored session")
		}
		if msg.err != nil {
			m.opts.Notices.Warn("", "Error logging out")
		}
		return m, nil

	case toastTickMsg:
		m.tickPending = false
		m.toasts = m.opts.Notices.Active()
		cmd := m.scheduleToastTick()
		return m, cmd

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			m.quitting = true
			return m, tea.Quit
		}
		switch m.screen {
		case screenLogin:
			return m.updateLogin(msg)
		case screenBrowser:
			switch m.mode {
			case modeList:
				return m.updateList(msg)
			case modeSearch:
				return m.updateSearch(msg)
			case modeJump:
				return m.updateJump(msg)
			case modeDetail:
				return m.updateDetail(msg)
			}
		case screenWait:
			if msg.String() == "q" {
				m.quitting = true
				return m, tea.Quit
			}
		}
	}
	return m, nil
}

// handleEvent reacts to bus events. Gate and controller state is read back
// from the components rather than trusted from the event, so reordered
// events cannot put the screen out of step.
func (m *Model) handleEvent(e events.Event) tea.Cmd {
	switch ev := e.(type) {
	case *session.StatusEvent, *session.RedirectEvent:
		return m.syncGate()

	case *browser.ChangedEvent:
		if ev.Snapshot.Err == nil {
			m.loadErr = ""
		}
		m.clampCursor()
		return nil

	case *events.ErrorEvent:
		if ev.Component == "browser" && m.ctrl != nil {
			m.loadErr = loadErrHint(ev)
		}
		return nil

	case *notify.Event:
		m.toasts = m.opts.Notices.Active()
		return m.scheduleToastTick()
	}
	return nil
}

func (m *Model) syncGate() tea.Cmd {
	if m.gate == nil {
		return nil
	}
	switch m.gate.View().Kind {
	case session.ViewProtected:
		if m.screen != screenBrowser {
			m.enterBrowser()
		}
	case session.ViewRedirect:
		if m.screen != screenLogin {
			m.leaveBrowser()
			m.screen = screenLogin
			return m.login.focus()
		}
	default:
		m.screen = screenWait
	}
	return nil
}

// enterBrowser mounts the query controller. It exists only while the gate
// is authenticated.
func (m *Model) enterBrowser() {
	m.ctrl = browser.NewController(m.opts.Backend, browser.Options{
		PageSize:   m.opts.PageSize,
		WindowSize: m.opts.WindowSize,
		Bus:        m.opts.Bus,
		Notices:    m.opts.Notices,
		Logger:     m.logger,
	})
	m.ctrl.Start()
	m.screen = screenBrowser
	m.mode = modeList
	m.cursor, m.offset = 0, 0
	m.inlineErr = ""
	m.loadErr = ""
	m.searchInput.SetValue("")
}

func (m *Model) leaveBrowser() {
	if m.ctrl != nil {
		ctrl := m.ctrl
		m.ctrl = nil
		go ctrl.Stop()
	}
	m.selection.Clear()
	m.mode = modeList
	m.loadErr = ""
}

func (m *Model) logout() tea.Cmd {
	done := m.gate.Logout(m.ctx)
	m.opts.Notices.Success("", MsgLoggedOut)
	cmd := m.syncGate()
	return tea.Batch(cmd, func() tea.Msg {
		return logoutDoneMsg{err: <-done}
	})
}

func (m *Model) scheduleToastTick() tea.Cmd {
	if len(m.toasts) == 0 || m.tickPending {
		return nil
	}
	m.tickPending = true
	return tea.Tick(time.Second, func(time.Time) tea.Msg { return toastTickMsg{} })
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}
	var body string
	switch m.screen {
	case screenLogin:
		body = m.viewLogin()
	case screenBrowser:
		if m.mode == modeDetail {
			body = m.viewDetail()
		} else {
			body = m.viewBrowser()
		}
	default:
		body = m.viewWait()
	}
	return body + m.viewToasts()
}

func (m Model) viewWait() string {
	return "\n  " + m.spinner.View() + " Checking session...\n\n" + helpStyle.Render("  q: quit")
}
