package webhook

import (
	"net/http"
	"strings"
)

// Reasons reported by ValidateHeaders, logged and never echoed to callers
const (
	ReasonInvalidContentType = "invalid content type"
	ReasonMissingUserAgent   = "missing user agent"
	ReasonInvalidUserAgent   = "invalid user agent"
)

// DefaultAllowedUserAgents are lower-case substrings matched against User-Agent
var DefaultAllowedUserAgents = []string{"typeform", "webhook", "bot", "api"}

// Result is the outcome of header validation
type Result struct {
	Valid  bool
	Reason string
}

/* ValidateHeaders rejects obviously malformed traffic before the body is read
 * Content-Type must include application/json and User-Agent must contain
 * one of the allowed substrings, compared case-insensitively
 */
func ValidateHeaders(h http.Header, allowed []string) Result {
	if !strings.Contains(strings.ToLower(h.Get("Content-Type")), "application/json") {
		return Result{Reason: ReasonInvalidContentType}
	}

	ua := strings.ToLower(strings.TrimSpace(h.Get("User-Agent")))
	if ua == "" {
		return Result{Reason: ReasonMissingUserAgent}
	}

	if len(allowed) == 0 {
		allowed = DefaultAllowedUserAgents
	}
	for _, a := range allowed {
		if a != "" && strings.Contains(ua, strings.ToLower(a)) {
			return Result{Valid: true}
		}
	}
	return Result{Reason: ReasonInvalidUserAgent}
}
