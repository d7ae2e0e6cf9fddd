package middleware

import (
	"net"
	"net/http"
	"strings"
)

// proxyHeaders are consulted in order; the first valid address wins.
var proxyHeaders = []string{"X-Forwarded-For", "X-Real-IP"}

// GetClientIP identifies the caller for rate limiting and logs. Proxy headers
// take precedence over the socket address; only the leftmost X-Forwarded-For
// hop is considered.
func GetClientIP(r *http.Request) string {
	for _, header := range proxyHeaders {
		value := r.Header.Get(header)

		if first, _, _ := strings.Cut(value, ","); first != "" {
			if ip := net.ParseIP(strings.TrimSpace(first)); ip != nil {
				return ip.String()
			}
		}
	}

	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}

	return r.RemoteAddr
}
