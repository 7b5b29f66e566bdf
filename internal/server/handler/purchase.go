package handler

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/guildxyz/tokenbuyer/internal/checkout"
	"github.com/guildxyz/tokenbuyer/internal/config"
	"github.com/guildxyz/tokenbuyer/internal/domain"
)

// PurchaseHandler serves the purchase-parameter endpoint.
type PurchaseHandler struct {
	chains config.ChainSet
	logger *slog.Logger
}

// NewPurchaseHandler creates a PurchaseHandler over the chain registry.
func NewPurchaseHandler(chains config.ChainSet, logger *slog.Logger) *PurchaseHandler {
	return &PurchaseHandler{chains: chains, logger: logger}
}

// purchaseParamsRequest is the buyer context plus the quote they are acting
// on. The quote is echoed back from a previous fetchPrice response.
type purchaseParamsRequest struct {
	GuildID        int64              `json:"guildId"`
	Account        string             `json:"account"`
	Chain          string             `json:"chain"`
	PickedCurrency string             `json:"pickedCurrency"`
	Quote          *domain.PriceQuote `json:"priceToApply"`
}

// purchaseParamsResponse reports whether the purchase can go ahead and, if
// so, the exact contract-call parameters.
type purchaseParamsResponse struct {
	Purchasable bool                 `json:"purchasable"`
	Params      *checkout.CallParams `json:"params,omitempty"`
}

// PurchaseParams encodes the contract-call parameters for a quoted purchase.
// POST /api/purchaseParams
func (h *PurchaseHandler) PurchaseParams(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		writeError(w, http.StatusMethodNotAllowed, fmt.Sprintf("Method %s is not allowed", r.Method))
		return
	}

	var req purchaseParamsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "You must provide a request body.")
		return
	}

	params := checkout.BuildCallParams(req.GuildID, req.Account, req.Chain, req.PickedCurrency, req.Quote, h.chains)
	if params == nil {
		writeJSON(w, http.StatusOK, purchaseParamsResponse{Purchasable: false})
		return
	}

	writeJSON(w, http.StatusOK, purchaseParamsResponse{
		Purchasable: true,
		Params:      params,
	})
}
