package spotify

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	defaultMaxRetries = 3
	defaultBackoff    = 500 * time.Millisecond
	maxRetryAfter     = 30 * time.Second
)

// CallRecorder is told about every catalog API response.
type CallRecorder interface {
	RecordAPICall(endpoint string, status int)
}

// RetryTransport retries rate-limited, failed and 5xx requests with exponential backoff,
// honoring Retry-After. When retries run out the last response is returned as is.
type RetryTransport struct {
	Base       http.RoundTripper
	MaxRetries int
	Backoff    time.Duration
	Recorder   CallRecorder
	Logger     *zap.Logger
}

func NewRetryTransport(base http.RoundTripper, maxRetries int, recorder CallRecorder, logger *zap.Logger) *RetryTransport {
	if base == nil {
		base = http.DefaultTransport
	}
	if maxRetries <= 0 {
		maxRetries = defaultMaxRetries
	}
	return &RetryTransport{
		Base:       base,
		MaxRetries: maxRetries,
		Backoff:    defaultBackoff,
		Recorder:   recorder,
		Logger:     logger,
	}
}

func (t *RetryTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Body != nil && req.GetBody == nil {
		bodyBytes, err := io.ReadAll(req.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to read request body: %w", err)
		}
		_ = req.Body.Close()
		req.GetBody = func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(bodyBytes)), nil
		}
	}

	ctx := req.Context()
	endpoint := endpointLabel(req.URL.Path)

	for attempt := 0; ; attempt++ {
		attemptReq := req
		if req.GetBody != nil {
			body, err := req.GetBody()
			if err != nil {
				return nil, fmt.Errorf("failed to reset request body: %w", err)
			}
			attemptReq = req.Clone(ctx)
			attemptReq.Body = body
		}

		resp, err := t.Base.RoundTrip(attemptReq)
		if err == nil {
			t.record(endpoint, resp.StatusCode)
		}

		retryAfter, retry := shouldRetry(resp, err)
		if !retry || attempt >= t.MaxRetries-1 {
			return resp, err
		}

		if err != nil {
			t.Logger.Warn("Retrying catalog request after error",
				zap.String("endpoint", endpoint),
				zap.Int("attempt", attempt+1),
				zap.Error(err))
		} else {
			t.Logger.Warn("Retrying catalog request after status",
				zap.String("endpoint", endpoint),
				zap.Int("attempt", attempt+1),
				zap.Int("status", resp.StatusCode))
			_, _ = io.Copy(io.Discard, resp.Body)
			_ = resp.Body.Close()
		}

		backoff := t.Backoff * time.Duration(1<<attempt)
		if retryAfter > 0 {
			backoff = min(retryAfter, maxRetryAfter)
		}
		if err := sleepWithContext(ctx, backoff); err != nil {
			return nil, err
		}
	}
}

func (t *RetryTransport) record(endpoint string, status int) {
	if t.Recorder != nil {
		t.Recorder.RecordAPICall(endpoint, status)
	}
}

func shouldRetry(resp *http.Response, err error) (time.Duration, bool) {
	if err != nil {
		return 0, true
	}
	if resp == nil {
		return 0, false
	}
	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= http.StatusInternalServerError {
		return parseRetryAfter(resp), true
	}
	return 0, false
}

func parseRetryAfter(resp *http.Response) time.Duration {
	retryAfter := resp.Header.Get("Retry-After")
	if retryAfter == "" {
		return 0
	}
	if seconds, err := strconv.Atoi(retryAfter); err == nil && seconds > 0 {
		return time.Duration(seconds) * time.Second
	}
	if when, err := http.ParseTime(retryAfter); err == nil {
		if until := time.Until(when); until > 0 {
			return until
		}
	}
	return 0
}

func sleepWithContext(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return nil
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return fmt.Errorf("catalog request canceled: %w", ctx.Err())
	case <-timer.C:
		return nil
	}
}

// endpointLabel reduces an API path like /v1/playlists/{id} to "playlists".
func endpointLabel(path string) string {
	path = strings.TrimPrefix(path, "/")
	path = strings.TrimPrefix(path, "v1/")
	if i := strings.IndexByte(path, '/'); i >= 0 {
		path = path[:i]
	}
	if path == "" {
		return "root"
	}
	return path
}
