package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/guildxyz/tokenbuyer/internal/domain"
)

type stubQuoteService struct {
	quote *domain.PriceQuote
	err   error
	last  domain.PriceQuoteRequest
}

func (s *stubQuoteService) GetQuote(_ context.Context, req domain.PriceQuoteRequest) (*domain.PriceQuote, error) {
	s.last = req
	return s.quote, s.err
}

func newPriceTest(svc QuoteService) *PriceHandler {
	return NewPriceHandler(svc, slog.New(slog.DiscardHandler))
}

func postPrice(t *testing.T, h *PriceHandler, method, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, "/api/fetchPrice", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.FetchPrice(rec, req)
	return rec
}

func errorBody(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var out map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out["error"]
}

func TestFetchPriceMethodNotAllowed(t *testing.T) {
	h := newPriceTest(&stubQuoteService{})

	rec := postPrice(t, h, http.MethodGet, "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Equal(t, http.MethodPost, rec.Header().Get("Allow"))
	assert.Equal(t, "Method GET is not allowed", errorBody(t, rec))
}

func TestFetchPriceEmptyBody(t *testing.T) {
	h := newPriceTest(&stubQuoteService{})

	rec := postPrice(t, h, http.MethodPost, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "You must provide a request body.", errorBody(t, rec))
}

func TestFetchPriceBadGuildIDType(t *testing.T) {
	h := newPriceTest(&stubQuoteService{})

	rec := postPrice(t, h, http.MethodPost, `{"guildId": "not-a-number"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Missing or invalid param: guildId", errorBody(t, rec))
}

func TestFetchPriceMalformedJSON(t *testing.T) {
	h := newPriceTest(&stubQuoteService{})

	rec := postPrice(t, h, http.MethodPost, `{"guildId":`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Invalid request body.", errorBody(t, rec))
}

func TestFetchPriceValidationError(t *testing.T) {
	svc := &stubQuoteService{
		err: domain.NewQuoteError(domain.ErrInvalidRequest, "Invalid requirement address."),
	}
	h := newPriceTest(svc)

	rec := postPrice(t, h, http.MethodPost, `{"guildId": 1985, "type": "ERC20"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Invalid requirement address.", errorBody(t, rec))
}

func TestFetchPriceQuoteFailure(t *testing.T) {
	svc := &stubQuoteService{
		err: domain.NewQuoteError(domain.ErrInsufficientInventory, "Couldn't find purchasable NFTs."),
	}
	h := newPriceTest(svc)

	rec := postPrice(t, h, http.MethodPost, `{"guildId": 1985, "type": "ERC721"}`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Couldn't find purchasable NFTs.", errorBody(t, rec))
}

func TestFetchPriceUpstreamStatusPassthrough(t *testing.T) {
	svc := &stubQuoteService{
		err: &domain.UpstreamError{StatusCode: http.StatusServiceUnavailable, Message: "Service Unavailable"},
	}
	h := newPriceTest(svc)

	rec := postPrice(t, h, http.MethodPost, `{"guildId": 1985, "type": "ERC20"}`)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "Service Unavailable", errorBody(t, rec))
}

func TestFetchPriceSuccess(t *testing.T) {
	svc := &stubQuoteService{
		quote: &domain.PriceQuote{
			BuyAmount:           3,
			BuyAmountInWei:      domain.NewWeiFromInt64(3000000),
			MaxPriceInSellToken: 6.3,
			MaxPriceInWei:       domain.NewWeiFromInt64(6200000),
			Source:              domain.SourceUniswapV3,
			TokenAddressPath:    []string{"0x1111111111111111111111111111111111111111"},
			Path:                "0xabc",
		},
	}
	h := newPriceTest(svc)

	body := `{
		"guildId": 1985,
		"type": "ERC20",
		"chain": "ETHEREUM",
		"sellToken": "0xa0b86991c6218b36c1d19d4a2e9eb0ce3606eb48",
		"address": "0x1111111111111111111111111111111111111111",
		"data": {"minAmount": "3"}
	}`
	rec := postPrice(t, h, http.MethodPost, body)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json; charset=utf-8", rec.Header().Get("Content-Type"))

	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	// Wei amounts cross the wire as strings.
	assert.Equal(t, "3000000", out["buyAmountInWei"])
	assert.Equal(t, "Uniswap_V3", out["source"])

	assert.Equal(t, int64(1985), svc.last.GuildID)
	assert.Equal(t, domain.RequirementERC20, svc.last.Type)
}
