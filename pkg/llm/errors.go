package llm

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"syscall"
)

// ConfigError reports a missing or invalid provider configuration value.
// It is detected lazily, on the first call that needs the value.
type ConfigError struct {
	Reason string
}

func (e *ConfigError) Error() string {
	return "llm: " + e.Reason
}

// UpstreamError reports a non-success HTTP status from the upstream
// embedding or completion service. Body is truncated by the caller.
type UpstreamError struct {
	Status int
	Body   string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("upstream API error (%d): %s", e.Status, e.Body)
}

// IsNetworkError reports whether err looks like a connectivity failure:
// refused or unreachable connections, DNS failures, and timeouts. These
// are the failures a caller may retry over an alternate transport.
func IsNetworkError(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.EHOSTUNREACH) ||
		errors.Is(err, syscall.ENETUNREACH) {
		return true
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return true
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}

	// Wrapped transport errors lose their type across some client layers.
	msg := err.Error()
	return strings.Contains(msg, "connection refused") ||
		strings.Contains(msg, "no such host") ||
		strings.Contains(msg, "network is unreachable") ||
		strings.Contains(msg, "Client.Timeout")
}
