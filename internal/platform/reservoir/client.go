// Package reservoir is the REST client for the Reservoir NFT marketplace
// aggregator, used to find the cheapest listed tokens of a collection.
package reservoir

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
	"unicode"

	"github.com/guildxyz/tokenbuyer/internal/domain"
	"github.com/guildxyz/tokenbuyer/internal/metrics"
)

// Client queries the Reservoir tokens API. Each supported chain has its own
// API root.
type Client struct {
	urls       map[string]string
	httpClient *http.Client
}

// New creates a Reservoir client from the per-chain API roots, e.g.
// {"ETHEREUM": "https://api.reservoir.tools"}.
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

// CheapestListings returns up to q.Limit listed tokens of the collection,
// cheapest first, narrowed by attribute filters or an explicit token ID.
// Non-2xx responses come back as *domain.UpstreamError.
func (c *Client) CheapestListings(ctx context.Context, chain string, q domain.ListingQuery) ([]domain.NFTListing, error) {
	base := c.urls[chain]
	if base == "" {
		return nil, fmt.Errorf("reservoir: %w: %s", domain.ErrUnsupportedChain, chain)
	}

	params := url.Values{}
	params.Set("limit", strconv.Itoa(q.Limit))

	switch {
	case len(q.Attributes) > 0:
		params.Set("collection", q.Collection)
		for _, attr := range q.Attributes {
			params.Set("attributes["+attr.TraitType+"]", capitalize(attr.Value))
		}
	case q.TokenID != "":
		// An explicit token ID replaces the collection-wide lookup.
		params.Set("tokens", q.Collection+":"+q.TokenID)
	default:
		params.Set("collection", q.Collection)
	}

	reqURL := base + "/tokens/v5?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("reservoir: create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.UpstreamRequests.WithLabelValues("reservoir", "error").Inc()
		return nil, fmt.Errorf("reservoir: http request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reservoir: read response: %w", err)
	}
	metrics.UpstreamRequests.WithLabelValues("reservoir", fmt.Sprintf("%d", resp.StatusCode)).Inc()

	if resp.StatusCode != http.StatusOK {
		return nil, &domain.UpstreamError{
			StatusCode: resp.StatusCode,
			Message:    http.StatusText(resp.StatusCode),
		}
	}

	var apiResp apiTokensResponse
	if err := json.Unmarshal(body, &apiResp); err != nil {
		return nil, fmt.Errorf("reservoir: decode tokens: %w", err)
	}

	listings := make([]domain.NFTListing, 0, len(apiResp.Tokens))
	for i := range apiResp.Tokens {
		listings = append(listings, apiResp.Tokens[i].toDomain())
	}
	return listings, nil
}

// capitalize uppercases the first rune; Reservoir trait values are stored
// capitalized.
func capitalize(s string) string {
	if s == "" {
		return s
	}
	runes := []rune(s)
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}
