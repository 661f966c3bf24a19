// Package session implements the authentication gate that guards the record
// browser. The gate owns one session check per mount and turns its outcome
// into a status, a view, and at most one redirect per transition to
// Unauthenticated.
package session

import (
	"context"
	"sync"

	"github.com/surveyops/surveyctl/internal/constants"
	"github.com/surveyops/surveyctl/internal/events"
	"github.com/surveyops/surveyctl/internal/logging"
)

// Status is the gate's view of the ambient session.
type Status int

const (
	// StatusUnknown is the state of a gate that has not started its check.
	StatusUnknown Status = iota
	// StatusVerifying means the check is in flight.
	StatusVerifying
	StatusAuthenticated
	StatusUnauthenticated
)

func (s Status) String() string {
	switch s {
	case StatusUnknown:
		return "unknown"
	case StatusVerifying:
		return "verifying"
	case StatusAuthenticated:
		return "authenticated"
	case StatusUnauthenticated:
		return "unauthenticated"
	default:
		return "invalid"
	}
}

// Resolved reports whether the check has produced an answer.
func (s Status) Resolved() bool {
	return s == StatusAuthenticated || s == StatusUnauthenticated
}

// Redirect is a navigation command emitted by the gate. The frontend decides
// how to follow it.
type Redirect struct {
	Destination string
}

// LoginRedirect is the only redirect the gate issues.
var LoginRedirect = Redirect{Destination: constants.LoginDestination}

// ViewKind says what the frontend should render for the gate.
type ViewKind int

const (
	// ViewWait: render a blocking wait indicator; protected content must not mount.
	ViewWait ViewKind = iota
	// ViewRedirect: follow View.Redirect.
	ViewRedirect
	// ViewProtected: render the protected subsystem.
	ViewProtected
)

// View is the gate's render decision.
type View struct {
	Kind     ViewKind
	Redirect Redirect // set when Kind == ViewRedirect
}

// Authenticator is the slice of the backend the gate needs.
type Authenticator interface {
	CheckAuth(ctx context.Context) (bool, error)
	Logout(ctx context.Context) error
}

// Event types published by the gate.
const (
	EventStatusChanged events.EventType = "session.status"
	EventRedirect      events.EventType = "session.redirect"
)

// StatusEvent reports a status transition.
type StatusEvent struct {
	events.BaseEvent
	From Status
	To   Status
}

// RedirectEvent carries the redirect command.
type RedirectEvent struct {
	events.BaseEvent
	Redirect Redirect
}

// Gate is the session state machine. The zero value is not usable; use NewGate.
type Gate struct {
	mu        sync.Mutex
	status    Status
	auth      Authenticator
	bus       *events.EventBus
	logger    *logging.Logger
	mounted   bool
	closed    bool
	epoch     uint64 // bumped by Logout and Close; a check from an older epoch is discarded
	cancel    context.CancelFunc
	redirects int
	done      chan struct{}
	doneOnce  sync.Once
	wg        sync.WaitGroup
}

// NewGate creates a gate in StatusUnknown. bus and logger may be nil.
func NewGate(auth Authenticator, bus *events.EventBus, logger *logging.Logger) *Gate {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Gate{
		status: StatusUnknown,
		auth:   auth,
		bus:    bus,
		logger: logger.Component("session"),
		done:   make(chan struct{}),
	}
}

// Status returns the current status.
func (g *Gate) Status() Status {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.status
}

// Redirects returns how many redirects the gate has issued.
func (g *Gate) Redirects() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.redirects
}

// View returns what the frontend should render.
func (g *Gate) View() View {
	g.mu.Lock()
	defer g.mu.Unlock()
	switch g.status {
	case StatusAuthenticated:
		return View{Kind: ViewProtected}
	case StatusUnauthenticated:
		return View{Kind: ViewRedirect, Redirect: LoginRedirect}
	default:
		return View{Kind: ViewWait}
	}
}

// Done is closed once the gate's status is resolved, or the gate is closed.
func (g *Gate) Done() <-chan struct{} {
	return g.done
}

// Mount starts the session check. Only the first call on a gate that has
// not yet resolved does anything; it reports whether a check was started.
// A gate that was logged out or closed stays that way, so a fresh login
// needs a fresh gate. The check runs in its own goroutine; Mount never
// blocks on the network.
func (g *Gate) Mount(ctx context.Context) bool {
	g.mu.Lock()
	if g.mounted || g.closed || g.status.Resolved() {
		g.mu.Unlock()
		return false
	}
	g.mounted = true
	checkCtx, cancel := context.WithCancel(ctx)
	g.cancel = cancel
	epoch := g.epoch
	from := g.status
	g.status = StatusVerifying
	g.mu.Unlock()

	g.publishStatus(from, StatusVerifying)

	g.wg.Add(1)
	go func() {
		defer g.wg.Done()
		defer cancel()
		ok, err := g.auth.CheckAuth(checkCtx)
		g.resolve(epoch, ok, err)
	}()
	return true
}

// resolve applies a check result unless the gate moved on since the check
// was issued.
func (g *Gate) resolve(epoch uint64, ok bool, err error) {
	g.mu.Lock()
	if g.closed || g.epoch != epoch {
		g.mu.Unlock()
		g.logger.Debug().Bool("ok", ok).Err(err).Msg("Discarding session check result for a superseded gate")
		return
	}

	if err != nil {
		g.logger.Debug().Err(err).Msg("Session check failed; treating as not authenticated")
	}

	to := StatusUnauthenticated
	if ok && err == nil {
		to = StatusAuthenticated
	}
	from := g.status
	g.status = to
	redirect := to == StatusUnauthenticated && from != StatusUnauthenticated
	if redirect {
		g.redirects++
	}
	g.mu.Unlock()

	g.publishStatus(from, to)
	if redirect {
		g.publishRedirect()
	}
	g.markDone()
}

// Logout forces StatusUnauthenticated immediately and invalidates the remote
// session in the background. A check still in flight can no longer change
// the status. The returned channel yields the remote result once.
func (g *Gate) Logout(ctx context.Context) <-chan error {
	result := make(chan error, 1)

	g.mu.Lock()
	g.epoch++
	if g.cancel != nil {
		g.cancel()
	}
	from := g.status
	g.status = StatusUnauthenticated
	redirect := from != StatusUnauthenticated
	if redirect {
		g.redirects++
	}
	g.mu.Unlock()

	if redirect {
		g.publishStatus(from, StatusUnauthenticated)
		g.publishRedirect()
	}
	g.markDone()

	g.wg.Add(1)
	go func() {
		defer g.wg.Done()
		err := g.auth.Logout(ctx)
		if err != nil {
			g.logger.Warn().Err(err).Msg("Remote logout failed; local session already cleared")
		}
		result <- err
	}()
	return result
}

// Close tears the gate down. Results arriving afterwards are discarded.
// Close waits for the gate's goroutines to return.
func (g *Gate) Close() {
	g.mu.Lock()
	if g.closed {
		g.mu.Unlock()
		return
	}
	g.closed = true
	g.epoch++
	if g.cancel != nil {
		g.cancel()
	}
	g.mu.Unlock()

	g.markDone()
	g.wg.Wait()
}

func (g *Gate) markDone() {
	g.doneOnce.Do(func() { close(g.done) })
}

func (g *Gate) publishStatus(from, to Status) {
	g.bus.Publish(&StatusEvent{BaseEvent: events.NewBase(EventStatusChanged), From: from, To: to})
}

func (g *Gate) publishRedirect() {
	g.bus.Publish(&RedirectEvent{BaseEvent: events.NewBase(EventRedirect), Redirect: LoginRedirect})
}
