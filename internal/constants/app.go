package constants

import (
	"time"
)

// Pagination
const (
	// DefaultPageSize is the page size used on first mount (matches the
	// dashboard's default of 10 rows).
	DefaultPageSize = 10

	// DefaultWindowSize is the number of consecutive numbered page markers
	// shown around the current page.
	DefaultWindowSize = 5

	// FirstPage is the lowest valid page number. Pages are 1-indexed on the wire.
	FirstPage = 1
)

// AllowedPageSizes are the only page sizes the browser accepts, in display order.
var AllowedPageSizes = []int{5, 10, 25, 50, 100}

// IsAllowedPageSize reports whether n is one of AllowedPageSizes.
func IsAllowedPageSize(n int) bool {
	for _, size := range AllowedPageSizes {
		if size == n {
			return true
		}
	}
	return false
}

// HTTP transport
const (
	// HTTPClientTimeout bounds a whole request/response exchange. Timeouts
	// surface to the browser as ordinary network failures.
	HTTPClientTimeout = 30 * time.Second

	HTTPDialTimeout           = 10 * time.Second
	HTTPDialKeepAlive         = 30 * time.Second
	HTTPIdleConnTimeout       = 90 * time.Second
	HTTPTLSHandshakeTimeout   = 10 * time.Second
	HTTPExpectContinueTimeout = 1 * time.Second

	// DefaultProxyPort is used when proxy_port is unset.
	DefaultProxyPort = 8080
)

// API defaults
const (
	// DefaultBaseURL matches the backend's development address.
	DefaultBaseURL = "http://localhost:5000/api"

	// DefaultRequestsPerSecond paces outgoing API calls. Bursts up to
	// DefaultBurst are allowed so rapid page clicks are not delayed.
	DefaultRequestsPerSecond = 10.0
	DefaultBurst             = 20.0

	// DefaultRetryMax is zero: list and auth failures are never retried
	// automatically; the user refreshes by hand.
	DefaultRetryMax = 0

	// MaxErrorBodyBytes caps how much of an error response body is kept.
	MaxErrorBodyBytes = 4 * 1024
)

// Event bus configuration
const (
	// EventBusDefaultBuffer is the default per-subscriber channel buffer.
	EventBusDefaultBuffer = 256

	// EventBusMaxBuffer caps per-subscriber buffers.
	EventBusMaxBuffer = 4096
)

// Notifications
const (
	// DefaultNotificationTTL is how long a toast stays visible unless dismissed.
	DefaultNotificationTTL = 4 * time.Second

	// MaxNotifications caps the toast queue; the oldest are dropped first.
	MaxNotifications = 5
)

// Bulk submission
const (
	DefaultSubmitConcurrency = 4
	MaxSubmitConcurrency     = 16
)

// Log file rotation
const (
	DefaultLogMaxSizeMB  = 10
	DefaultLogMaxBackups = 5
	DefaultLogMaxAgeDays = 30
)

// LoginDestination is the route a redirect command points to.
const LoginDestination = "login"
