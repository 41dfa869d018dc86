package retry

import (
	"context"
	"errors"
	"net"
	"strings"
)

// Kind labels an upstream failure. Every kind is retried; the label only
// feeds logs and metrics.
type Kind string

const (
	KindTimeout     Kind = "timeout"
	KindCanceled    Kind = "canceled"
	KindRateLimited Kind = "rate_limited"
	KindServer      Kind = "http_5xx"
	KindClient      Kind = "http_4xx"
	KindNetwork     Kind = "network"
	KindDecode      Kind = "decode"
	KindUnknown     Kind = "unknown"
)

// ClassifyError determines the kind of a given upstream error.
func ClassifyError(err error) Kind {
	if err == nil {
		return KindUnknown
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return KindTimeout
	}
	if errors.Is(err, context.Canceled) {
		return KindCanceled
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return KindTimeout
		}
		return KindNetwork
	}

	s := strings.ToLower(err.Error())

	switch {
	case strings.Contains(s, "timeout") || strings.Contains(s, "timed out"):
		return KindTimeout
	case strings.Contains(s, "429") || strings.Contains(s, "rate limit") ||
		strings.Contains(s, "too many requests"):
		return KindRateLimited
	case strings.Contains(s, "http 5"):
		return KindServer
	case strings.Contains(s, "http 4"):
		return KindClient
	case strings.Contains(s, "parse response") || strings.Contains(s, "invalid character") ||
		strings.Contains(s, "unexpected end of json"):
		return KindDecode
	case strings.Contains(s, "connection refused") || strings.Contains(s, "connection reset") ||
		strings.Contains(s, "no such host") || strings.Contains(s, "eof"):
		return KindNetwork
	}

	return KindUnknown
}
