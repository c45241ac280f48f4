package collector

import (
	"fmt"
	"io"
	"net/http"

	apperrors "github.com/kurihiro0119/github-ecosystem-snapshot/internal/errors"
)

// statusTransport records rate limit headers and turns HTTP failure statuses
// into classified errors before any client library sees the response.
type statusTransport struct {
	base        http.RoundTripper
	rateLimiter RateLimiter
}

func newStatusTransport(base http.RoundTripper, rl RateLimiter) *statusTransport {
	if base == nil {
		base = http.DefaultTransport
	}
	return &statusTransport{base: base, rateLimiter: rl}
}

func (t *statusTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	resp, err := t.base.RoundTrip(req)
	if err != nil {
		return nil, err
	}

	if t.rateLimiter != nil {
		updateFromHeader(t.rateLimiter, resp.Header)
	}

	if err := classifyStatus(resp); err != nil {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 1<<16))
		resp.Body.Close()
		return nil, err
	}
	return resp, nil
}

func classifyStatus(resp *http.Response) error {
	status := resp.StatusCode
	switch {
	case status == http.StatusUnauthorized:
		return apperrors.NewAuthFailure("credential rejected by GitHub", fmt.Errorf("%s %s: %s", resp.Request.Method, resp.Request.URL.Path, resp.Status))
	case status == http.StatusTooManyRequests,
		status == http.StatusForbidden && (resp.Header.Get("X-RateLimit-Remaining") == "0" || resp.Header.Get("Retry-After") != ""):
		return apperrors.NewRateLimitedError(fmt.Sprintf("GitHub rate limit exceeded (%s)", resp.Status))
	case status >= 500:
		return apperrors.NewRemoteAPIFailure("GitHub server error", fmt.Errorf("%s", resp.Status), true)
	}
	return nil
}
