package util

import (
	"net"
	"strings"
)

// ExtractIPAddress returns the client address: the first X-Forwarded-For entry when
// present, otherwise RemoteAddr. Ports are stripped.
func ExtractIPAddress(remoteAddr string, xForwardedFor string) string {
	if xForwardedFor != "" {
		first, _, _ := strings.Cut(xForwardedFor, ",")
		return stripPort(strings.TrimSpace(first))
	}
	return stripPort(remoteAddr)
}

func stripPort(addr string) string {
	if host, _, err := net.SplitHostPort(addr); err == nil {
		return host
	}
	return addr
}
