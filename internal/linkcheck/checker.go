// Package linkcheck verifies that external URLs referenced by lessons
// respond successfully.
package linkcheck

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"
)

// Result is the outcome of checking one URL.
type Result struct {
	URL        string `json:"url"`
	Status     int    `json:"status"`
	OK         bool   `json:"ok"`
	Error      string `json:"error,omitempty"`
	DurationMs int64  `json:"duration_ms"`
}

// RetryableError marks a failure worth retrying (network errors, 429, 5xx).
type RetryableError struct {
	Err error
}

func (e *RetryableError) Error() string { return e.Err.Error() }
func (e *RetryableError) Unwrap() error { return e.Err }

// Checker performs HTTP checks with bounded concurrency and a per-URL cache,
// so a URL repeated across a lesson set is fetched once.
type Checker struct {
	httpClient *http.Client
	sem        chan struct{}
	stats      *Stats

	mu    sync.Mutex
	cache map[string]Result
}

func NewChecker(timeout time.Duration, concurrency int) *Checker {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if concurrency <= 0 {
		concurrency = 8
	}
	return &Checker{
		httpClient: &http.Client{
			Timeout: timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 10 {
					return fmt.Errorf("too many redirects")
				}
				return nil
			},
		},
		sem:   make(chan struct{}, concurrency),
		stats: NewStats(time.Hour),
		cache: map[string]Result{},
	}
}

// Stats exposes the rolling latency window for the API.
func (c *Checker) Stats() *Stats {
	return c.stats
}

// Check verifies a single URL. It tries HEAD first and falls back to GET for
// servers that reject HEAD. A non-nil error means the failure is retryable;
// definitive failures (404 and friends) come back as a Result with OK=false.
func (c *Checker) Check(ctx context.Context, url string) (Result, error) {
	c.mu.Lock()
	if cached, ok := c.cache[url]; ok {
		c.mu.Unlock()
		return cached, nil
	}
	c.mu.Unlock()

	select {
	case c.sem <- struct{}{}:
		defer func() { <-c.sem }()
	case <-ctx.Done():
		return Result{URL: url}, &RetryableError{Err: ctx.Err()}
	}

	start := time.Now()
	status, err := c.request(ctx, http.MethodHead, url)
	if err == nil && (status == http.StatusMethodNotAllowed || status == http.StatusNotImplemented) {
		status, err = c.request(ctx, http.MethodGet, url)
	}
	elapsed := time.Since(start).Milliseconds()
	c.stats.Record(elapsed)

	if err != nil {
		return Result{URL: url, Error: err.Error(), DurationMs: elapsed},
			&RetryableError{Err: fmt.Errorf("check %s: %w", url, err)}
	}

	res := Result{
		URL:        url,
		Status:     status,
		OK:         status >= 200 && status < 400,
		DurationMs: elapsed,
	}
	if retryableStatus(status) {
		return res, &RetryableError{Err: fmt.Errorf("check %s: status %d", url, status)}
	}
	if !res.OK {
		res.Error = fmt.Sprintf("status %d", status)
	}

	c.mu.Lock()
	c.cache[url] = res
	c.mu.Unlock()
	return res, nil
}

// Remember stores a result reached after retries were exhausted, so later
// references to the same URL do not repeat the work.
func (c *Checker) Remember(res Result) {
	c.mu.Lock()
	c.cache[res.URL] = res
	c.mu.Unlock()
}

func (c *Checker) request(ctx context.Context, method, url string) (int, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, nil)
	if err != nil {
		return 0, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", "lessonlint/1.0 (+link checker)")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, err
	}
	resp.Body.Close()
	return resp.StatusCode, nil
}

func retryableStatus(status int) bool {
	return status == http.StatusTooManyRequests || status >= 500
}

// Close releases idle connections.
func (c *Checker) Close() {
	c.httpClient.CloseIdleConnections()
}
