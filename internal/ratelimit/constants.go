package ratelimit

import "time"

// The survey backend does not publish throttle limits, so pacing is
// configured per installation ([http] requests_per_second / burst). These
// constants only govern how waiting is reported.
const (
	// WaitNotifyThreshold is the minimum expected wait before the notify
	// callback fires.
	WaitNotifyThreshold = 2 * time.Second

	// WaitNotifyInterval throttles repeated wait notifications.
	WaitNotifyInterval = 10 * time.Second

	// MaxCooldown caps a server-requested cooldown (Retry-After).
	MaxCooldown = 5 * time.Minute
)
