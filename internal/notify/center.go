package notify

import (
	"sync"
	"time"

	"github.com/surveyops/surveyctl/internal/constants"
	"github.com/surveyops/surveyctl/internal/events"
)

// EventNotification is published whenever a toast is raised or dismissed.
const EventNotification events.EventType = "notification"

// Level is a toast's severity.
type Level int

const (
	LevelInfo Level = iota
	LevelSuccess
	LevelWarning
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelInfo:
		return "info"
	case LevelSuccess:
		return "success"
	case LevelWarning:
		return "warning"
	case LevelError:
		return "error"
	default:
		return "unknown"
	}
}

// Toast is one transient, dismissible notification.
type Toast struct {
	ID      uint64
	Level   Level
	Title   string
	Message string
	Created time.Time
	Expires time.Time
}

// Event carries a toast change to subscribers.
type Event struct {
	events.BaseEvent
	Toast     Toast
	Dismissed bool
}

// Center holds the live toasts. Toasts expire after a TTL or when dismissed;
// at most constants.MaxNotifications are kept, oldest dropped first.
type Center struct {
	mu      sync.Mutex
	toasts  []Toast
	nextID  uint64
	ttl     time.Duration
	bus     *events.EventBus
	desktop *Notifier
	now     func() time.Time
}

// NewCenter creates a notification center. bus and desktop may be nil.
func NewCenter(ttl time.Duration, bus *events.EventBus, desktop *Notifier) *Center {
	if ttl <= 0 {
		ttl = constants.DefaultNotificationTTL
	}
	return &Center{
		ttl:     ttl,
		bus:     bus,
		desktop: desktop,
		now:     time.Now,
	}
}

// Push raises a toast and returns it.
func (c *Center) Push(level Level, title, message string) Toast {
	c.mu.Lock()
	now := c.now()
	c.nextID++
	t := Toast{
		ID:      c.nextID,
		Level:   level,
		Title:   title,
		Message: message,
		Created: now,
		Expires: now.Add(c.ttl),
	}
	c.pruneLocked(now)
	c.toasts = append(c.toasts, t)
	if over := len(c.toasts) - constants.MaxNotifications; over > 0 {
		c.toasts = append([]Toast(nil), c.toasts[over:]...)
	}
	c.mu.Unlock()

	c.bus.Publish(&Event{BaseEvent: events.NewBase(EventNotification), Toast: t})
	if c.desktop != nil {
		go c.desktop.Notify(t)
	}
	return t
}

// Info raises an info toast.
func (c *Center) Info(title, message string) Toast { return c.Push(LevelInfo, title, message) }

// Success raises a success toast.
func (c *Center) Success(title, message string) Toast { return c.Push(LevelSuccess, title, message) }

// Warn raises a warning toast.
func (c *Center) Warn(title, message string) Toast { return c.Push(LevelWarning, title, message) }

// Error raises an error toast.
func (c *Center) Error(title, message string) Toast { return c.Push(LevelError, title, message) }

// Dismiss removes a toast before it expires. It reports whether the toast
// was still live.
func (c *Center) Dismiss(id uint64) bool {
	c.mu.Lock()
	var removed *Toast
	for i, t := range c.toasts {
		if t.ID == id {
			t := t
			removed = &t
			c.toasts = append(c.toasts[:i:i], c.toasts[i+1:]...)
			break
		}
	}
	c.mu.Unlock()

	if removed == nil {
		return false
	}
	c.bus.Publish(&Event{BaseEvent: events.NewBase(EventNotification), Toast: *removed, Dismissed: true})
	return true
}

// DismissAll clears every toast.
func (c *Center) DismissAll() {
	c.mu.Lock()
	c.toasts = nil
	c.mu.Unlock()
}

// Active returns the live toasts, oldest first.
func (c *Center) Active() []Toast {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pruneLocked(c.now())
	out := make([]Toast, len(c.toasts))
	copy(out, c.toasts)
	return out
}

func (c *Center) pruneLocked(now time.Time) {
	kept := c.toasts[:0]
	for _, t := range c.toasts {
		if now.Before(t.Expires) {
			kept = append(kept, t)
		}
	}
	c.toasts = kept
}
