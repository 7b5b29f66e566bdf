package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/guildxyz/tokenbuyer/internal/domain"
	"github.com/guildxyz/tokenbuyer/internal/metrics"
)

// QuoteService prices a purchase intent.
type QuoteService interface {
	GetQuote(ctx context.Context, req domain.PriceQuoteRequest) (*domain.PriceQuote, error)
}

// PriceHandler serves the price-quote endpoint.
type PriceHandler struct {
	svc    QuoteService
	logger *slog.Logger
}

// NewPriceHandler creates a PriceHandler.
func NewPriceHandler(svc QuoteService, logger *slog.Logger) *PriceHandler {
	return &PriceHandler{svc: svc, logger: logger}
}

// FetchPrice prices a purchase intent and returns the full quote.
// POST /api/fetchPrice
//
// The route is registered without a method pattern so non-POST requests get
// the documented error body instead of the mux's plain 405.
func (h *PriceHandler) FetchPrice(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		writeError(w, http.StatusMethodNotAllowed, fmt.Sprintf("Method %s is not allowed", r.Method))
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil || len(body) == 0 {
		writeError(w, http.StatusBadRequest, "You must provide a request body.")
		return
	}

	var req domain.PriceQuoteRequest
	if err := json.Unmarshal(body, &req); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) && typeErr.Field == "guildId" {
			writeError(w, http.StatusBadRequest, "Missing or invalid param: guildId")
			return
		}
		writeError(w, http.StatusBadRequest, "Invalid request body.")
		return
	}

	start := time.Now()
	quote, err := h.svc.GetQuote(r.Context(), req)
	if err != nil {
		h.writeQuoteError(w, r, req, err)
		return
	}

	metrics.QuoteRequests.WithLabelValues(string(req.Type), req.Chain, "ok").Inc()
	metrics.QuoteDuration.WithLabelValues(string(req.Type), req.Chain).Observe(time.Since(start).Seconds())
	writeJSON(w, http.StatusOK, quote)
}

// writeQuoteError maps service errors onto HTTP responses. Validation
// failures are the client's fault; aggregator errors pass their status
// through; everything else is a 500 with the quote error's message.
func (h *PriceHandler) writeQuoteError(w http.ResponseWriter, r *http.Request, req domain.PriceQuoteRequest, err error) {
	metrics.QuoteRequests.WithLabelValues(string(req.Type), req.Chain, "error").Inc()

	var upstream *domain.UpstreamError
	if errors.As(err, &upstream) {
		writeError(w, upstream.StatusCode, upstream.Message)
		return
	}

	var quoteErr *domain.QuoteError
	if errors.As(err, &quoteErr) {
		status := http.StatusInternalServerError
		if errors.Is(quoteErr.Kind, domain.ErrInvalidRequest) || errors.Is(quoteErr.Kind, domain.ErrUnsupportedChain) {
			status = http.StatusBadRequest
		}
		writeError(w, status, quoteErr.Msg)
		return
	}

	h.logger.ErrorContext(r.Context(), "handler: quote failed",
		slog.String("chain", req.Chain),
		slog.String("error", err.Error()),
	)
	writeError(w, http.StatusInternalServerError, "Internal server error.")
}
