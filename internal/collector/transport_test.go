package collector

import (
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/kurihiro0119/github-ecosystem-snapshot/internal/errors"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

func stubResponse(status int, header http.Header) roundTripFunc {
	return func(r *http.Request) (*http.Response, error) {
		if header == nil {
			header = http.Header{}
		}
		return &http.Response{
			StatusCode: status,
			Status:     http.StatusText(status),
			Header:     header,
			Body:       io.NopCloser(strings.NewReader("{}")),
			Request:    r,
		}, nil
	}
}

func TestStatusTransport_Classification(t *testing.T) {
	exhausted := http.Header{}
	exhausted.Set("X-RateLimit-Remaining", "0")
	exhausted.Set("X-RateLimit-Reset", "1700000000")

	tests := []struct {
		name      string
		status    int
		header    http.Header
		wantCode  apperrors.ErrCode
		retryable bool
	}{
		{"ok passes through", http.StatusOK, nil, "", false},
		{"unauthorized", http.StatusUnauthorized, nil, apperrors.ErrCodeAuthFailure, false},
		{"too many requests", http.StatusTooManyRequests, nil, apperrors.ErrCodeRateLimited, true},
		{"forbidden with exhausted limit", http.StatusForbidden, exhausted, apperrors.ErrCodeRateLimited, true},
		{"plain forbidden passes through", http.StatusForbidden, nil, "", false},
		{"bad gateway", http.StatusBadGateway, nil, apperrors.ErrCodeRemoteAPIFailure, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			transport := newStatusTransport(stubResponse(tt.status, tt.header), NewRateLimiter(0))
			req, _ := http.NewRequest(http.MethodPost, "https://api.github.com/graphql", nil)

			resp, err := transport.RoundTrip(req)
			if tt.wantCode == "" {
				require.NoError(t, err)
				assert.Equal(t, tt.status, resp.StatusCode)
				return
			}
			assert.Nil(t, resp)
			assert.Equal(t, tt.wantCode, apperrors.CodeOf(err))
			assert.Equal(t, tt.retryable, apperrors.IsRetryable(err))
		})
	}
}

func TestStatusTransport_FeedsRateLimiter(t *testing.T) {
	h := http.Header{}
	h.Set("X-RateLimit-Remaining", "4321")
	h.Set("X-RateLimit-Reset", "1700000000")

	rl := NewRateLimiter(0)
	transport := newStatusTransport(stubResponse(http.StatusOK, h), rl)
	req, _ := http.NewRequest(http.MethodGet, "https://api.github.com/user", nil)

	_, err := transport.RoundTrip(req)
	require.NoError(t, err)

	remaining, reset, _ := rl.CheckLimit()
	assert.Equal(t, 4321, remaining)
	assert.Equal(t, time.Unix(1700000000, 0), reset)
}
