package party

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"linkage/pkg/platform/circuit"
	"linkage/pkg/platform/sentinel"
)

// HTTPClient resolves parties against the registry service:
//
//	GET {base}/parties/{kind}/{id}  ->  200 {"exists": bool, "active": bool}
//	                                    404 when the party is unknown
//
// A circuit breaker stops hammering the registry while it is failing; an open
// breaker fails fast with sentinel.ErrUnavailable.
type HTTPClient struct {
	baseURL string
	client  *http.Client
	breaker *circuit.Breaker
	logger  *slog.Logger
	metrics *Metrics
}

// HTTPOption configures an HTTPClient.
type HTTPOption func(*HTTPClient)

func WithHTTPClient(c *http.Client) HTTPOption {
	return func(h *HTTPClient) { h.client = c }
}

func WithBreaker(b *circuit.Breaker) HTTPOption {
	return func(h *HTTPClient) { h.breaker = b }
}

func WithLogger(logger *slog.Logger) HTTPOption {
	return func(h *HTTPClient) { h.logger = logger }
}

func WithMetrics(m *Metrics) HTTPOption {
	return func(h *HTTPClient) { h.metrics = m }
}

// NewHTTPClient creates a registry client for baseURL.
func NewHTTPClient(baseURL string, timeout time.Duration, opts ...HTTPOption) *HTTPClient {
	h := &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
		breaker: circuit.New("party_registry"),
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *HTTPClient) Resolve(ctx context.Context, ref Ref) (Resolution, error) {
	if !h.breaker.Allow() {
		h.metrics.observeLookup(Resolution{}, sentinel.ErrUnavailable, 0)
		return Resolution{}, fmt.Errorf("party registry circuit open: %w", sentinel.ErrUnavailable)
	}

	start := time.Now()
	res, err := h.fetch(ctx, ref)
	h.metrics.observeLookup(res, err, time.Since(start).Seconds())

	var status *statusError
	switch {
	case err == nil:
		h.recordSuccess(ctx)
		return res, nil
	case errors.Is(err, context.Canceled):
		// Caller gone; says nothing about registry health.
		return Resolution{}, fmt.Errorf("resolve %s: %w", ref, err)
	case errors.As(err, &status) && status.code < http.StatusInternalServerError:
		// 4xx: the registry is up.
		h.recordSuccess(ctx)
		return Resolution{}, fmt.Errorf("resolve %s: %w", ref, err)
	}
	if _, change := h.breaker.RecordFailure(); change.Opened {
		h.logger.WarnContext(ctx, "party registry circuit opened", "breaker", h.breaker.Name())
	}
	return Resolution{}, fmt.Errorf("resolve %s: %w: %w", ref, sentinel.ErrUnavailable, err)
}

func (h *HTTPClient) recordSuccess(ctx context.Context) {
	if _, change := h.breaker.RecordSuccess(); change.Closed {
		h.logger.InfoContext(ctx, "party registry circuit closed", "breaker", h.breaker.Name())
	}
}

// statusError is a registry response other than 200 or 404.
type statusError struct {
	code int
}

func (e *statusError) Error() string {
	return fmt.Sprintf("unexpected status %d", e.code)
}

func (h *HTTPClient) fetch(ctx context.Context, ref Ref) (Resolution, error) {
	endpoint := h.baseURL + "/parties/" + url.PathEscape(string(ref.Kind)) + "/" + url.PathEscape(string(ref.ID))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return Resolution{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := h.client.Do(req)
	if err != nil {
		return Resolution{}, err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		_, _ = io.Copy(io.Discard, resp.Body)
		return Resolution{}, nil
	case resp.StatusCode != http.StatusOK:
		_, _ = io.Copy(io.Discard, resp.Body)
		return Resolution{}, &statusError{code: resp.StatusCode}
	}

	var res Resolution
	if err := json.NewDecoder(io.LimitReader(resp.Body, 64<<10)).Decode(&res); err != nil {
		return Resolution{}, fmt.Errorf("decode response: %w", err)
	}
	if !res.Exists {
		res.Active = false
	}
	return res, nil
}
