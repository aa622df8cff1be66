package ratelimit

import (
	"net"
	"net/http"
	"strings"
)

// Unknown is the key used when no usable client address is found
const Unknown = "unknown"

// ClientIP picks the caller identity from proxy headers in priority order:
// X-Forwarded-For (first hop), X-Real-IP, Remote-Addr, then the connection address.
// Anything that does not parse as an IP yields Unknown.
func ClientIP(h http.Header, remoteAddr string) string {
	candidate := ""
	if xff := h.Get("X-Forwarded-For"); xff != "" {
		candidate = strings.TrimSpace(strings.Split(xff, ",")[0])
	}
	if candidate == "" {
		candidate = strings.TrimSpace(h.Get("X-Real-IP"))
	}
	if candidate == "" {
		candidate = strings.TrimSpace(h.Get("Remote-Addr"))
	}
	if candidate == "" && remoteAddr != "" {
		candidate = remoteAddr
		if host, _, err := net.SplitHostPort(remoteAddr); err == nil {
			candidate = host
		}
	}

	ip := net.ParseIP(candidate)
	if ip == nil {
		return Unknown
	}
	return ip.String()
}

// Mask shortens an address for warning logs
func Mask(ip string) string {
	if len(ip) <= 8 {
		return ip + "..."
	}
	return ip[:8] + "..."
}
