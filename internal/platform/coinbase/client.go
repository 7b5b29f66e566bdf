// Package coinbase is the REST client for the Coinbase exchange-rates API,
// used as the native-currency/USD price oracle.
package coinbase

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/guildxyz/tokenbuyer/internal/metrics"
)

// Client queries the Coinbase exchange-rates endpoint.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New creates a Coinbase client. baseURL is the API root, e.g.
// "https://api.coinbase.com".
func New(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// apiRatesResponse is the exchange-rates envelope; rates are keyed by
// currency code with string values.
type apiRatesResponse struct {
	Data struct {
		Currency string            `json:"currency"`
		Rates    map[string]string `json:"rates"`
	} `json:"data"`
}

// USDRate returns the USD exchange rate for the given currency symbol.
func (c *Client) USDRate(ctx context.Context, symbol string) (float64, error) {
	reqURL := c.baseURL + "/v2/exchange-rates?currency=" + url.QueryEscape(symbol)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return 0, fmt.Errorf("coinbase: create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.UpstreamRequests.WithLabelValues("coinbase", "error").Inc()
		return 0, fmt.Errorf("coinbase: http request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, fmt.Errorf("coinbase: read response: %w", err)
	}
	metrics.UpstreamRequests.WithLabelValues("coinbase", fmt.Sprintf("%d", resp.StatusCode)).Inc()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("coinbase: HTTP %d: %s", resp.StatusCode, string(body))
	}

	var apiResp apiRatesResponse
	if err := json.Unmarshal(body, &apiResp); err != nil {
		return 0, fmt.Errorf("coinbase: decode rates: %w", err)
	}

	rateStr, ok := apiResp.Data.Rates["USD"]
	if !ok {
		return 0, fmt.Errorf("coinbase: no USD rate for %s", symbol)
	}
	rate, err := strconv.ParseFloat(rateStr, 64)
	if err != nil {
		return 0, fmt.Errorf("coinbase: parse USD rate %q: %w", rateStr, err)
	}
	return rate, nil
}
