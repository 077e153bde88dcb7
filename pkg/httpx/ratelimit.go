package httpx

import (
	"fmt"
	"net/http"

	"golang.org/x/time/rate"
)

// RateLimitConfig defines the outbound rate limiting parameters.
type RateLimitConfig struct {
	// RequestsPerSecond is the sustained request rate
	RequestsPerSecond float64
	// Burst allows for temporary bursts above the rate limit
	Burst int
}

// RateLimitTransport wraps next so requests leave no faster than cfg allows.
// A request waits for a token; if its context ends first, the wait error is
// returned and the request is never sent. A zero RequestsPerSecond returns
// next unchanged.
func RateLimitTransport(cfg RateLimitConfig, next http.RoundTripper) http.RoundTripper {
	if next == nil {
		next = http.DefaultTransport
	}
	if cfg.RequestsPerSecond <= 0 {
		return next
	}

	burst := max(cfg.Burst, 1)
	return &rateLimitTransport{
		limiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), burst),
		next:    next,
	}
}

type rateLimitTransport struct {
	limiter *rate.Limiter
	next    http.RoundTripper
}

func (t *rateLimitTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if err := t.limiter.Wait(req.Context()); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}
	return t.next.RoundTrip(req)
}
