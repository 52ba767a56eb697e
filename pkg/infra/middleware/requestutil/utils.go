// Package requestutil provides small helpers shared by HTTP middleware.
package requestutil

import (
	"net"
	"net/http"
	"strings"
)

// GetClientIP returns the client IP address from the request.
// It checks X-Forwarded-For, X-Real-IP, and RemoteAddr.
func GetClientIP(r *http.Request) string {
	if ip := r.Header.Get("X-Forwarded-For"); ip != "" {
		parts := strings.Split(ip, ",")
		return strings.TrimSpace(parts[0])
	}
	if ip := r.Header.Get("X-Real-IP"); ip != "" {
		return ip
	}
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

// PathSet matches request paths exactly.
type PathSet map[string]struct{}

// NewPathSet builds a PathSet from paths, ignoring empty entries.
func NewPathSet(paths []string) PathSet {
	s := make(PathSet, len(paths))
	for _, p := range paths {
		if p != "" {
			s[p] = struct{}{}
		}
	}
	return s
}

// Has reports whether path is in the set.
func (s PathSet) Has(path string) bool {
	_, ok := s[path]
	return ok
}
