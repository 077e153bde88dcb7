package slogx

import (
	"log/slog"
	"net/http"
	"time"
)

// Transport wraps next so every outbound request is logged once it completes.
// The logger attached to the request context (see WithContext) wins over base.
// Headers are never logged; they carry bearer tokens and API keys.
func Transport(base *slog.Logger, next http.RoundTripper) http.RoundTripper {
	if next == nil {
		next = http.DefaultTransport
	}
	return &loggingTransport{base: base, next: next}
}

type loggingTransport struct {
	base *slog.Logger
	next http.RoundTripper
}

func (t *loggingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	start := time.Now()

	logger := t.base
	if l, ok := req.Context().Value(ctxKey{}).(*slog.Logger); ok {
		logger = l
	}
	logger = logger.With(
		"req_id", req.Header.Get("X-Request-ID"),
		"method", req.Method,
		"host", req.URL.Host,
		"path", req.URL.Path,
	)

	resp, err := t.next.RoundTrip(req)
	duration := time.Since(start).Milliseconds()
	if err != nil {
		logger.Warn("http_client_request_failed",
			"duration_ms", duration,
			"err", err,
		)
		return nil, err
	}

	logger.Debug("http_client_request",
		"status", resp.StatusCode,
		"duration_ms", duration,
	)
	return resp, nil
}
