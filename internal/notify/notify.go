// Package notify provides transient in-app notifications (toasts) with an
// optional desktop mirror. Desktop delivery uses github.com/gen2brain/beeep.
package notify

import (
	"sync"

	"github.com/gen2brain/beeep"

	"github.com/surveyops/surveyctl/internal/logging"
)

// sendFunc delivers one desktop notification. Replaced in tests.
type sendFunc func(title, message string, level Level) error

// Notifier handles desktop notifications.
type Notifier struct {
	logger  *logging.Logger
	enabled bool
	send    sendFunc
	mu      sync.RWMutex
}

// NewNotifier creates a desktop notifier. logger may be nil.
func NewNotifier(enabled bool, logger *logging.Logger) *Notifier {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Notifier{
		logger:  logger,
		enabled: enabled,
		send:    beeepSend,
	}
}

// SetEnabled enables or disables notifications.
func (n *Notifier) SetEnabled(enabled bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.enabled = enabled
}

// IsEnabled returns whether notifications are enabled.
func (n *Notifier) IsEnabled() bool {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.enabled
}

// Notify mirrors a toast to the desktop. Failures are logged, never returned:
// a missing notification daemon must not break the UI.
func (n *Notifier) Notify(t Toast) {
	if n == nil || !n.IsEnabled() {
		return
	}
	title := truncate(t.Title, 60)
	if title == "" {
		title = "surveyctl"
	}
	if err := n.send(title, truncate(t.Message, 200), t.Level); err != nil {
		n.logger.Warn().Err(err).Str("title", t.Title).Msg("Failed to send desktop notification")
	}
}

// beeepSend uses beeep.Alert for errors, which is more prominent on some
// platforms, and falls back to a plain notification.
func beeepSend(title, message string, level Level) error {
	if level == LevelError {
		if err := beeep.Alert(title, message, ""); err == nil {
			return nil
		}
	}
	return beeep.Notify(title, message, "")
}

// truncate shortens a string to maxLen, adding "..." if truncated.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
