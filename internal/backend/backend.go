package backend

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
)

const ewmaAlpha = 0.2

// DefaultTimeout is used when a backend is created without a timeout.
const DefaultTimeout = 5 * time.Second

// Backend represents one upstream endpoint with health status, in-flight
// request tracking and response time monitoring.
type Backend struct {
	name             string
	url              *url.URL
	client           *http.Client
	timeout          time.Duration
	mutex            sync.Mutex
	isHealthy        bool
	inFlight         int
	ewmaResponseTime time.Duration
	hasEWMA          bool
}

// Option customizes a Backend.
type Option func(*Backend)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(b *Backend) { b.client = client }
}

// New creates a new Backend for the given base URL.
// The backend starts in a healthy state.
func New(name string, baseURL *url.URL, timeout time.Duration, opts ...Option) *Backend {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	b := &Backend{
		name:      name,
		url:       baseURL,
		client:    &http.Client{},
		timeout:   timeout,
		isHealthy: true,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Name returns the upstream name.
func (b *Backend) Name() string {
	return b.name
}

// URL returns the upstream base URL.
func (b *Backend) URL() *url.URL {
	return b.url
}

// Timeout returns the per-request timeout budget.
func (b *Backend) Timeout() time.Duration {
	return b.timeout
}

// Endpoint joins path segments onto the base URL, keeping the base path.
// A trailing slash on the last segment is preserved.
func (b *Backend) Endpoint(segments ...string) string {
	joined := b.url.JoinPath(segments...)
	if n := len(segments); n > 0 && strings.HasSuffix(segments[n-1], "/") && !strings.HasSuffix(joined.Path, "/") {
		joined.Path += "/"
	}
	return joined.String()
}

// Get issues a GET against rawURL. The caller owns the response body and the
// context deadline; in-flight count and response time are tracked here.
func (b *Backend) Get(ctx context.Context, rawURL string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	b.incrementInFlight()
	defer b.decrementInFlight()

	start := time.Now()
	res, err := b.client.Do(req)
	if err == nil {
		b.RecordResponse(time.Since(start))
	}
	return res, err
}

func (b *Backend) incrementInFlight() {
	b.mutex.Lock()
	b.inFlight++
	b.mutex.Unlock()
}

func (b *Backend) decrementInFlight() {
	b.mutex.Lock()
	if b.inFlight > 0 {
		b.inFlight--
	}
	b.mutex.Unlock()
}

// InFlight returns the number of requests currently in progress.
func (b *Backend) InFlight() int {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	return b.inFlight
}

// IsHealthy returns true if the backend is currently healthy.
func (b *Backend) IsHealthy() bool {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	return b.isHealthy
}

// SetHealthy updates the backend's health status.
// Returns true if the status changed, false if it was already in that state.
func (b *Backend) SetHealthy(healthy bool) (changed bool) {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	if b.isHealthy == healthy {
		return false
	}

	b.isHealthy = healthy
	return true
}

// RecordResponse updates the exponentially weighted moving average (EWMA)
// response time using the latest request duration.
func (b *Backend) RecordResponse(duration time.Duration) {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	if !b.hasEWMA {
		b.ewmaResponseTime = duration
		b.hasEWMA = true
		return
	}
	//ewma = (1 - α) * ewma + α * latest
	b.ewmaResponseTime = time.Duration((1-ewmaAlpha)*float64(b.ewmaResponseTime) + ewmaAlpha*float64(duration))
}

// EWMATime returns the exponentially weighted moving average response time.
// Returns 0 if no responses have been recorded yet.
func (b *Backend) EWMATime() time.Duration {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	if !b.hasEWMA {
		return 0
	}

	return b.ewmaResponseTime
}
