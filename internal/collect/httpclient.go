package collect

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"stockpicker/internal/metrics"
	"stockpicker/internal/util"
)

// HTTPClient is the shared HTTP plumbing for collectors: one rate limiter
// per provider, retry with exponential backoff, and Prometheus counters
// labelled with the collector name.
type HTTPClient struct {
	name    string
	client  *http.Client
	limiter *util.RateLimiter
	log     *slog.Logger
}

// NewHTTPClient creates an HTTPClient for the named collector, limited to
// perMinute requests per minute.
func NewHTTPClient(name string, perMinute int) *HTTPClient {
	return &HTTPClient{
		name:    name,
		client:  &http.Client{Timeout: 30 * time.Second},
		limiter: util.NewRateLimiter(perMinute),
		log:     slog.Default().With("collector", name),
	}
}

// GetJSON fetches url and decodes the JSON response into out. The call is
// rate limited and retried up to three times with exponential backoff.
func (h *HTTPClient) GetJSON(ctx context.Context, url string, headers map[string]string, out any) error {
	return h.doJSON(ctx, http.MethodGet, url, headers, nil, out)
}

// PostJSON sends body as JSON to url and decodes the JSON response into out.
func (h *HTTPClient) PostJSON(ctx context.Context, url string, headers map[string]string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encoding request body: %w", err)
	}
	return h.doJSON(ctx, http.MethodPost, url, headers, payload, out)
}

func (h *HTTPClient) doJSON(ctx context.Context, method, url string, headers map[string]string, body []byte, out any) error {
	if err := h.limiter.Wait(ctx); err != nil {
		return err
	}

	err := util.Retry(ctx, 3, 500*time.Millisecond, func() error {
		metrics.CollectorRequests.WithLabelValues(h.name).Inc()

		var reader io.Reader
		if body != nil {
			reader = bytes.NewReader(body)
		}
		req, err := http.NewRequestWithContext(ctx, method, url, reader)
		if err != nil {
			return err
		}
		req.Header.Set("Accept", "application/json")
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		for k, v := range headers {
			req.Header.Set(k, v)
		}

		resp, err := h.client.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			// Drain so the connection can be reused.
			io.Copy(io.Discard, resp.Body)
			return fmt.Errorf("%s %s: status %d", method, url, resp.StatusCode)
		}

		return json.NewDecoder(resp.Body).Decode(out)
	})
	if err != nil {
		metrics.CollectorFailures.WithLabelValues(h.name).Inc()
		h.log.Warn("request failed", "method", method, "url", url, "err", err)
	}
	return err
}
