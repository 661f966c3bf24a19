package tui

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/surveyops/surveyctl/internal/api"
	"github.com/surveyops/surveyctl/internal/models"
)

type fakeBackend struct {
	mu       sync.Mutex
	authed   bool
	records  []models.SurveyRecord
	searches []string
	logouts  int
	clears   int
	listErr  error
}

func newFakeBackend(authed bool, n int) *fakeBackend {
	f := &fakeBackend{authed: authed}
	for i := 0; i < n; i++ {
		f.records = append(f.records, models.SurveyRecord{
			ID:        fmt.Sprintf("id-%02d", i),
			Name:      fmt.Sprintf("Person %02d", i),
			Email:     fmt.Sprintf("p%02d@example.com", i),
			CreatedAt: time.Now().Add(-time.Duration(i) * time.Hour),
		})
	}
	return f
}

func (f *fakeBackend) CheckAuth(ctx context.Context) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.authed, nil
}

func (f *fakeBackend) Login(ctx context.Context, email, password string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if email != "admin@example.com" || password != "secret" {
		return "", api.ErrInvalidCredentials
	}
	f.authed = true
	return "Login successful", nil
}

func (f *fakeBackend) Logout(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.authed = false
	f.logouts++
	return nil
}

func (f *fakeBackend) ClearSession() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.clears++
	return nil
}

func (f *fakeBackend) ListRecords(ctx context.Context, page, limit int, search string) (models.ListResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.searches = append(f.searches, search)
	if f.listErr != nil {
		return models.ListResult{}, f.listErr
	}

	var matched []models.SurveyRecord
	for _, r := range f.records {
		if search == "" || strings.Contains(r.Name, search) {
			matched = append(matched, r)
		}
	}
	start := min((page-1)*limit, len(matched))
	end := min(start+limit, len(matched))
	return models.ListResult{Records: matched[start:end], Total: len(matched)}, nil
}

func (f *fakeBackend) failLists(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listErr = err
}

func (f *fakeBackend) listCalls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.searches...)
}

func key(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func press(m Model, keys ...string) (Model, tea.Cmd) {
	var cmd tea.Cmd
	for _, k := range keys {
		var next tea.Model
		next, cmd = m.Update(key(k))
		m = next.(Model)
	}
	return m, cmd
}

// waitFor feeds bus events into the model until cond holds.
func waitFor(t *testing.T, m Model, what string, cond func(Model) bool) Model {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for !cond(m) {
		select {
		case e := <-m.sub:
			next, _ := m.Update(busMsg{event: e})
			m = next.(Model)
		case <-deadline:
			t.Fatalf("timed out waiting for %s", what)
		}
	}
	return m
}

// messages runs cmd and any batched commands, returning the produced messages.
func messages(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		var out []tea.Msg
		for _, c := range batch {
			out = append(out, messages(c)...)
		}
		return out
	}
	return []tea.Msg{msg}
}

func start(t *testing.T, backend *fakeBackend) Model {
	t.Helper()
	m := New(context.Background(), Options{Backend: backend})
	m.Init()
	return m
}

func loadedBrowser(m Model) bool {
	return m.screen == screenBrowser && m.ctrl != nil && !m.snapshot().Loading
}

func TestStartsInWaitScreen(t *testing.T) {
	m := New(context.Background(), Options{Backend: newFakeBackend(false, 0)})
	defer m.Shutdown()

	if m.screen != screenWait {
		t.Errorf("screen = %v, want wait", m.screen)
	}
	if !strings.Contains(m.View(), "Checking session") {
		t.Errorf("wait view = %q", m.View())
	}
}

func TestUnauthenticatedShowsLogin(t *testing.T) {
	backend := newFakeBackend(false, 3)
	m := start(t, backend)
	defer func() { m.Shutdown() }()

	m = waitFor(t, m, "login screen", func(m Model) bool { return m.screen == screenLogin })

	if m.ctrl != nil {
		t.Error("controller mounted while unauthenticated")
	}
	if n := len(backend.listCalls()); n != 0 {
		t.Errorf("%d list calls while unauthenticated", n)
	}
	if m.gate.Redirects() != 1 {
		t.Errorf("Redirects() = %d, want 1", m.gate.Redirects())
	}
}

func TestLoginFailureShowsFieldError(t *testing.T) {
	backend := newFakeBackend(false, 3)
	m := start(t, backend)
	defer func() { m.Shutdown() }()
	m = waitFor(t, m, "login screen", func(m Model) bool { return m.screen == screenLogin })

	m.login.email.SetValue("admin@example.com")
	m.login.password.SetValue("wrong")
	m.login.focused = fieldPassword
	m, cmd := press(m, "enter")
	if !m.login.submitting {
		t.Fatal("form should be submitting")
	}

	for _, msg := range messages(cmd) {
		if res, ok := msg.(loginResultMsg); ok {
			next, _ := m.Update(res)
			m = next.(Model)
		}
	}

	if m.login.err != MsgInvalidLogin {
		t.Errorf("login error = %q, want %q", m.login.err, MsgInvalidLogin)
	}
	if m.screen != screenLogin {
		t.Errorf("screen = %v, want login", m.screen)
	}
	if m.login.password.Value() != "" {
		t.Error("password should be cleared after a failed login")
	}
}

func TestLoginRequiresBothFields(t *testing.T) {
	m := start(t, newFakeBackend(false, 0))
	defer func() { m.Shutdown() }()
	m = waitFor(t, m, "login screen", func(m Model) bool { return m.screen == screenLogin })

	m.login.focused = fieldPassword
	m.login.password.SetValue("secret")
	m, cmd := press(m, "enter")
	if m.login.submitting || cmd != nil {
		t.Error("login submitted with an empty email")
	}
	if m.login.err == "" {
		t.Error("expected a field error")
	}
}

func TestLoginSuccessRemountsGateAndOpensBrowser(t *testing.T) {
	backend := newFakeBackend(false, 3)
	m := start(t, backend)
	defer func() { m.Shutdown() }()
	m = waitFor(t, m, "login screen", func(m Model) bool { return m.screen == screenLogin })
	first := m.gate

	m.login.email.SetValue("admin@example.com")
	m.login.password.SetValue("secret")
	m.login.focused = fieldPassword
	m, cmd := press(m, "enter")
	for _, msg := range messages(cmd) {
		if res, ok := msg.(loginResultMsg); ok {
			next, _ := m.Update(res)
			m = next.(Model)
		}
	}

	if m.gate == first {
		t.Fatal("gate should be replaced after login")
	}
	m = waitFor(t, m, "browser", loadedBrowser)

	if !strings.Contains(m.View(), "Showing 1 to 3 of 3 results") {
		t.Errorf("browser view missing range line:\n%s", m.View())
	}
}

func TestAuthenticatedOpensBrowser(t *testing.T) {
	backend := newFakeBackend(true, 30)
	m := start(t, backend)
	defer func() { m.Shutdown() }()

	m = waitFor(t, m, "browser", loadedBrowser)

	snap := m.snapshot()
	if snap.Total != 30 || snap.TotalPages != 3 || len(snap.Records) != 10 {
		t.Errorf("snapshot total=%d pages=%d records=%d", snap.Total, snap.TotalPages, len(snap.Records))
	}
	if m.gate.Redirects() != 0 {
		t.Errorf("Redirects() = %d, want 0", m.gate.Redirects())
	}
	view := m.View()
	for _, want := range []string{"Showing 1 to 10 of 30 results", "Person 00", "Total submissions: 30"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}
}

func TestFailedRefreshShowsHintUntilNextSuccess(t *testing.T) {
	backend := newFakeBackend(true, 30)
	m := start(t, backend)
	defer func() { m.Shutdown() }()
	m = waitFor(t, m, "browser", loadedBrowser)

	backend.failLists(api.ErrNetwork)
	m, _ = press(m, "r")
	m = waitFor(t, m, "load error hint", func(m Model) bool { return m.loadErr != "" })

	view := m.View()
	if !strings.Contains(view, "Last refresh failed; press r to retry") {
		t.Errorf("view missing retry hint:\n%s", view)
	}
	if !strings.Contains(view, "Person 00") {
		t.Errorf("failed refresh should keep the previous rows:\n%s", view)
	}

	backend.failLists(nil)
	m, _ = press(m, "r")
	m = waitFor(t, m, "hint cleared", func(m Model) bool { return m.loadErr == "" && loadedBrowser(m) })
	if strings.Contains(m.View(), "Last refresh failed") {
		t.Errorf("hint still shown after a successful refresh")
	}
}

func TestPermanentLoadFailureShowsReason(t *testing.T) {
	backend := newFakeBackend(true, 30)
	m := start(t, backend)
	defer func() { m.Shutdown() }()
	m = waitFor(t, m, "browser", loadedBrowser)

	backend.failLists(&api.StatusError{StatusCode: 400, Message: "bad search"})
	m, _ = press(m, "r")
	m = waitFor(t, m, "load error hint", func(m Model) bool { return m.loadErr != "" })

	if strings.Contains(m.loadErr, "press r") {
		t.Errorf("non-retryable failure offered a retry: %q", m.loadErr)
	}
	if !strings.HasPrefix(m.loadErr, "Last refresh failed: ") {
		t.Errorf("loadErr = %q", m.loadErr)
	}
}

func TestSearchCommitsOnlyOnEnter(t *testing.T) {
	backend := newFakeBackend(true, 30)
	m := start(t, backend)
	defer func() { m.Shutdown() }()
	m = waitFor(t, m, "browser", loadedBrowser)
	before := len(backend.listCalls())

	m, _ = press(m, "/", "0", "7")
	if m.mode != modeSearch {
		t.Fatalf("mode = %v, want search", m.mode)
	}
	if got := len(backend.listCalls()); got != before {
		t.Errorf("keystrokes issued %d fetches", got-before)
	}

	m, _ = press(m, "enter")
	m = waitFor(t, m, "search results", func(m Model) bool {
		s := m.snapshot()
		return s.Search == "07" && !s.Loading
	})

	calls := backend.listCalls()
	if len(calls) != before+1 || calls[len(calls)-1] != "07" {
		t.Errorf("list calls = %q, want one more with search \"07\"", calls)
	}
	if s := m.snapshot(); s.Total != 1 {
		t.Errorf("Total = %d, want 1", s.Total)
	}
}

func TestJumpRejectsOutOfRangeLocally(t *testing.T) {
	backend := newFakeBackend(true, 30)
	m := start(t, backend)
	defer func() { m.Shutdown() }()
	m = waitFor(t, m, "browser", loadedBrowser)
	before := len(backend.listCalls())

	m, _ = press(m, "g", "9", "enter")
	if m.mode != modeJump {
		t.Errorf("mode = %v, want jump to stay open", m.mode)
	}
	if m.inlineErr != "enter a page number between 1 and 3" {
		t.Errorf("inlineErr = %q", m.inlineErr)
	}
	if got := len(backend.listCalls()); got != before {
		t.Errorf("rejected jump issued %d fetches", got-before)
	}

	m, _ = press(m, "esc", "g", "3", "enter")
	m = waitFor(t, m, "page 3", func(m Model) bool {
		s := m.snapshot()
		return s.Page == 3 && !s.Loading
	})
	if m.mode != modeList {
		t.Errorf("mode = %v, want list", m.mode)
	}
}

func TestPageSizeCycles(t *testing.T) {
	backend := newFakeBackend(true, 30)
	m := start(t, backend)
	defer func() { m.Shutdown() }()
	m = waitFor(t, m, "browser", loadedBrowser)

	m, _ = press(m, "l")
	m = waitFor(t, m, "page 2", func(m Model) bool { return m.snapshot().Page == 2 && !m.snapshot().Loading })

	m, _ = press(m, "s")
	s := m.snapshot()
	if s.PageSize != 25 || s.Page != 1 {
		t.Errorf("after s: size=%d page=%d, want 25/1", s.PageSize, s.Page)
	}
}

func TestDetailPanelKeepsSelectionUntilClosed(t *testing.T) {
	backend := newFakeBackend(true, 30)
	m := start(t, backend)
	defer func() { m.Shutdown() }()
	m = waitFor(t, m, "browser", loadedBrowser)

	m, _ = press(m, "j", "enter")
	if m.mode != modeDetail {
		t.Fatalf("mode = %v, want detail", m.mode)
	}
	sel, ok := m.selection.Current()
	if !ok || sel.ID != "id-01" {
		t.Fatalf("selection = %+v (%v), want id-01", sel, ok)
	}
	if !strings.Contains(m.View(), "Submission Details") {
		t.Error("detail view not rendered")
	}

	m, _ = press(m, "r")
	m = waitFor(t, m, "refresh", func(m Model) bool { return !m.snapshot().Loading })
	if got, _ := m.selection.Current(); got.ID != "id-01" {
		t.Errorf("selection changed by refresh: %q", got.ID)
	}

	m, _ = press(m, "esc")
	if _, ok := m.selection.Current(); ok {
		t.Error("selection should be cleared on close")
	}
	if m.mode != modeList {
		t.Errorf("mode = %v, want list", m.mode)
	}
}

func TestLogoutSwitchesToLoginImmediately(t *testing.T) {
	backend := newFakeBackend(true, 5)
	m := start(t, backend)
	defer func() { m.Shutdown() }()
	m = waitFor(t, m, "browser", loadedBrowser)

	m, cmd := press(m, "L")
	if m.screen != screenLogin {
		t.Errorf("screen = %v, want login right after logout", m.screen)
	}
	if m.ctrl != nil {
		t.Error("controller should be unmounted after logout")
	}

	found := false
	for _, toast := range m.opts.Notices.Active() {
		if toast.Message == MsgLoggedOut {
			found = true
		}
	}
	if !found {
		t.Errorf("no %q toast", MsgLoggedOut)
	}

	for _, msg := range messages(cmd) {
		if done, ok := msg.(logoutDoneMsg); ok {
			next, _ := m.Update(done)
			m = next.(Model)
		}
	}
	backend.mu.Lock()
	logouts, clears := backend.logouts, backend.clears
	backend.mu.Unlock()
	if logouts != 1 || clears != 1 {
		t.Errorf("logouts=%d clears=%d, want 1/1", logouts, clears)
	}
}

func TestNextPageSize(t *testing.T) {
	tests := []struct{ in, want int }{
		{5, 10}, {10, 25}, {25, 50}, {50, 100}, {100, 5}, {7, 10},
	}
	for _, tt := range tests {
		if got := nextPageSize(tt.in); got != tt.want {
			t.Errorf("nextPageSize(%d) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestFit(t *testing.T) {
	if got := fit("abc", 5); got != "abc  " {
		t.Errorf("fit pad = %q", got)
	}
	if got := fit("abcdefgh", 5); got != "abcd…" {
		t.Errorf("fit truncate = %q", got)
	}
}
