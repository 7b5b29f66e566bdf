// Package zerox is the REST client for the 0x swap-quote aggregator.
package zerox

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/guildxyz/tokenbuyer/internal/domain"
	"github.com/guildxyz/tokenbuyer/internal/metrics"
)

// insufficientLiquidityMessage replaces the raw 0x validation error when the
// aggregator cannot source the requested token at all; the raw reason is not
// actionable for end users.
const insufficientLiquidityMessage = "We are not able to find this token on the market. Contact guild admins for further help."

// Client queries the 0x swap API. Each supported chain has its own API root.
type Client struct {
	urls       map[string]string
	httpClient *http.Client
}

// New creates a 0x client from the per-chain API roots, e.g.
// {"ETHEREUM": "https://api.0x.org"}.
func New(urls map[string]string) *Client {
	return &Client{
		urls: urls,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// SupportsChain reports whether the aggregator has an endpoint for the chain.
func (c *Client) SupportsChain(chain string) bool {
	return c.urls[chain] != ""
}

// SwapQuote fetches the minimal cost to acquire the requested buy amount.
// Non-2xx aggregator responses come back as *domain.UpstreamError carrying
// the upstream status and a user-facing message.
func (c *Client) SwapQuote(ctx context.Context, chain string, q domain.SwapQuoteRequest) (*domain.SwapQuote, error) {
	base := c.urls[chain]
	if base == "" {
		return nil, fmt.Errorf("zerox: %w: %s", domain.ErrUnsupportedChain, chain)
	}

	sources := make([]string, 0, len(q.IncludedSources))
	for _, s := range q.IncludedSources {
		sources = append(sources, string(s))
	}

	params := url.Values{}
	params.Set("sellToken", q.SellToken)
	params.Set("buyToken", q.BuyToken)
	params.Set("buyAmount", q.BuyAmountWei.String())
	params.Set("includedSources", strings.Join(sources, ","))

	reqURL := base + "/swap/v1/quote?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("zerox: create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.UpstreamRequests.WithLabelValues("zerox", "error").Inc()
		return nil, fmt.Errorf("zerox: http request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("zerox: read response: %w", err)
	}
	metrics.UpstreamRequests.WithLabelValues("zerox", fmt.Sprintf("%d", resp.StatusCode)).Inc()

	if resp.StatusCode != http.StatusOK {
		return nil, &domain.UpstreamError{
			StatusCode: resp.StatusCode,
			Message:    errorMessage(resp, body),
		}
	}

	var apiResp apiQuoteResponse
	if err := json.Unmarshal(body, &apiResp); err != nil {
		return nil, fmt.Errorf("zerox: decode quote: %w", err)
	}

	quote, err := apiResp.toDomain()
	if err != nil {
		return nil, fmt.Errorf("zerox: parse quote: %w", err)
	}
	return quote, nil
}

// errorMessage extracts the most useful message from a failed quote
// response: the first validation error's description, the human-friendly
// liquidity message for INSUFFICIENT_ASSET_LIQUIDITY, or the HTTP status
// text as a last resort.
func errorMessage(resp *http.Response, body []byte) string {
	var apiErr apiErrorResponse
	if err := json.Unmarshal(body, &apiErr); err == nil && len(apiErr.ValidationErrors) > 0 {
		ve := apiErr.ValidationErrors[0]
		if ve.Reason == "INSUFFICIENT_ASSET_LIQUIDITY" {
			return insufficientLiquidityMessage
		}
		return ve.Description
	}
	return http.StatusText(resp.StatusCode)
}
