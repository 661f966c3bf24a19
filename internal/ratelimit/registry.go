package ratelimit

import (
	"fmt"
	"net/http"
	"sort"
	"strings"
)

// Scope identifies a group of endpoints that share one token bucket.
type Scope string

const (
	// ScopeAdmin covers the authenticated admin endpoints (session checks,
	// listing, detail). It is the default.
	ScopeAdmin Scope = "admin"

	// ScopeSubmission covers POST /survey. Bulk submits run in their own
	// bucket so they cannot starve an open browser session.
	ScopeSubmission Scope = "submission"
)

// ScopeConfig holds the token bucket parameters for a single scope.
type ScopeConfig struct {
	Scope         Scope
	Rate          float64 // requests per second
	BurstCapacity float64
}

// EndpointRule maps an API endpoint pattern to its scope.
// Method-specific rules take precedence, then longer patterns.
type EndpointRule struct {
	// Pattern is matched with strings.Contains against the request path
	// (relative to the API base URL).
	Pattern string

	// Method is the HTTP method to match, or "" for any method.
	Method string

	Scope Scope
}

// specificity returns a score for rule precedence. Higher = more specific.
func (r EndpointRule) specificity() int {
	score := len(r.Pattern)
	if r.Method != "" {
		score += 1000
	}
	return score
}

// Registry maps endpoints to scopes and holds per-scope bucket settings.
type Registry struct {
	// rules sorted by specificity descending (most specific first)
	rules []EndpointRule

	scopeConfigs map[Scope]ScopeConfig

	defaultScope Scope
}

// NewRegistry creates the endpoint-scope registry. Every scope is paced at
// rate requests per second with the given burst; the configured values apply
// per scope, not in total.
func NewRegistry(rate, burst float64) *Registry {
	r := &Registry{
		defaultScope: ScopeAdmin,
		scopeConfigs: map[Scope]ScopeConfig{
			ScopeAdmin:      {Scope: ScopeAdmin, Rate: rate, BurstCapacity: burst},
			ScopeSubmission: {Scope: ScopeSubmission, Rate: rate, BurstCapacity: burst},
		},
	}

	r.rules = []EndpointRule{
		{Pattern: "/survey", Method: http.MethodPost, Scope: ScopeSubmission},

		// Listed for documentation; /admin/ already falls to the default.
		{Pattern: "/admin/", Method: "", Scope: ScopeAdmin},
	}

	sort.Slice(r.rules, func(i, j int) bool {
		return r.rules[i].specificity() > r.rules[j].specificity()
	})

	return r
}

// ResolveScope determines the scope for a given HTTP method and path.
// Returns the most specific matching scope, or ScopeAdmin if no rule
// matches.
func (r *Registry) ResolveScope(method, path string) Scope {
	for _, rule := range r.rules {
		if !strings.Contains(path, rule.Pattern) {
			continue
		}
		if rule.Method != "" && !strings.EqualFold(rule.Method, method) {
			continue
		}
		return rule.Scope
	}
	return r.defaultScope
}

// GetScopeConfig returns the configuration for a scope, falling back to the
// default scope's.
func (r *Registry) GetScopeConfig(scope Scope) ScopeConfig {
	if cfg, ok := r.scopeConfigs[scope]; ok {
		return cfg
	}
	return r.scopeConfigs[r.defaultScope]
}

// AllScopes returns all configured scope names in sorted order.
func (r *Registry) AllScopes() []Scope {
	scopes := make([]Scope, 0, len(r.scopeConfigs))
	for s := range r.scopeConfigs {
		scopes = append(scopes, s)
	}
	sort.Slice(scopes, func(i, j int) bool { return scopes[i] < scopes[j] })
	return scopes
}

// NewLimiters builds one limiter per scope.
func (r *Registry) NewLimiters() map[Scope]*RateLimiter {
	limiters := make(map[Scope]*RateLimiter, len(r.scopeConfigs))
	for s, cfg := range r.scopeConfigs {
		limiters[s] = NewRateLimiter(cfg.Rate, cfg.BurstCapacity)
	}
	return limiters
}

// ScopeDisplayString returns a human-readable description of the scope for logging.
// Example: "admin (5.00/sec, burst 10)"
func (r *Registry) ScopeDisplayString(scope Scope) string {
	cfg, ok := r.scopeConfigs[scope]
	if !ok {
		return string(scope) + " (unknown scope)"
	}
	return fmt.Sprintf("%s (%.2f/sec, burst %.0f)", scope, cfg.Rate, cfg.BurstCapacity)
}
