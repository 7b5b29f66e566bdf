// Package domain holds the request, quote, and purchase types shared by the
// pricing service, the checkout encoder, and the HTTP layer, plus the error
// taxonomy and cache interfaces they depend on.
package domain

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// NFTAttribute is a single trait filter for NFT requirements.
type NFTAttribute struct {
	TraitType string `json:"trait_type"`
	Value     string `json:"value"`
}

// FlexNumber decodes a JSON number or a numeric string. The checkout UI sends
// requirement amounts in both forms.
type FlexNumber string

// UnmarshalJSON implements json.Unmarshaler.
func (n *FlexNumber) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "null" {
		*n = ""
		return nil
	}
	if strings.HasPrefix(s, `"`) {
		var str string
		if err := json.Unmarshal(b, &str); err != nil {
			return err
		}
		*n = FlexNumber(strings.TrimSpace(str))
		return nil
	}
	var num json.Number
	if err := json.Unmarshal(b, &num); err != nil {
		return err
	}
	*n = FlexNumber(num.String())
	return nil
}

// MarshalJSON implements json.Marshaler.
func (n FlexNumber) MarshalJSON() ([]byte, error) {
	if n == "" {
		return []byte("null"), nil
	}
	return json.Marshal(string(n))
}

// Decimal parses the value. Returns an error for non-numeric input; an empty
// value is not an error and yields (zero, false, nil).
func (n FlexNumber) Decimal() (decimal.Decimal, bool, error) {
	if n == "" {
		return decimal.Decimal{}, false, nil
	}
	d, err := decimal.NewFromString(string(n))
	if err != nil {
		return decimal.Decimal{}, false, fmt.Errorf("domain: invalid amount %q", string(n))
	}
	return d, true, nil
}

// RequirementData is the requirement-specific payload of a price request:
// the desired amount, and for NFTs either trait filters or an explicit
// token ID.
type RequirementData struct {
	MinAmount  FlexNumber     `json:"minAmount,omitempty"`
	Attributes []NFTAttribute `json:"attributes,omitempty"`
	ID         string         `json:"id,omitempty"`
}

// Amount returns the desired purchase amount, defaulting to 1 when the
// request omits it.
func (d RequirementData) Amount() (decimal.Decimal, error) {
	v, ok, err := d.MinAmount.Decimal()
	if err != nil {
		return decimal.Decimal{}, err
	}
	if !ok {
		return decimal.NewFromInt(1), nil
	}
	return v, nil
}

// PriceQuoteRequest is a purchase intent to be priced.
type PriceQuoteRequest struct {
	GuildID   int64           `json:"guildId"`
	Type      RequirementType `json:"type"`
	Chain     string          `json:"chain"`
	SellToken string          `json:"sellToken"`
	Address   string          `json:"address"`
	Data      RequirementData `json:"data"`
}

// Fingerprint identifies the logical quote a request resolves to. Requests
// with the same fingerprint are interchangeable while in flight.
func (r PriceQuoteRequest) Fingerprint() string {
	return strings.Join([]string{
		string(r.Type),
		r.Chain,
		strings.ToLower(r.SellToken),
		strings.ToLower(r.Address),
		string(r.Data.MinAmount),
		r.Data.ID,
		attrKey(r.Data.Attributes),
	}, "|")
}

func attrKey(attrs []NFTAttribute) string {
	if len(attrs) == 0 {
		return ""
	}
	parts := make([]string, 0, len(attrs))
	for _, a := range attrs {
		parts = append(parts, a.TraitType+"="+a.Value)
	}
	return strings.Join(parts, ",")
}

// PriceQuote is the full pricing result for a purchase intent. The float
// fields are display values; anything that feeds an on-chain amount is
// carried exactly in the *InWei fields.
type PriceQuote struct {
	BuyAmount                    float64         `json:"buyAmount"`
	BuyAmountInWei               *Wei            `json:"buyAmountInWei"`
	EstimatedPriceInSellToken    float64         `json:"estimatedPriceInSellToken"`
	EstimatedPriceInUSD          float64         `json:"estimatedPriceInUSD"`
	MaxPriceInSellToken          float64         `json:"maxPriceInSellToken"`
	MaxPriceInUSD                float64         `json:"maxPriceInUSD"`
	MaxPriceInWei                *Wei            `json:"maxPriceInWei"`
	GuildBaseFeeInSellToken      float64         `json:"guildBaseFeeInSellToken"`
	EstimatedGuildFeeInSellToken float64         `json:"estimatedGuildFeeInSellToken"`
	EstimatedGuildFeeInUSD       float64         `json:"estimatedGuildFeeInUSD"`
	EstimatedGuildFeeInWei       *Wei            `json:"estimatedGuildFeeInWei"`
	MaxGuildFeeInSellToken       float64         `json:"maxGuildFeeInSellToken"`
	MaxGuildFeeInUSD             float64         `json:"maxGuildFeeInUSD"`
	MaxGuildFeeInWei             *Wei            `json:"maxGuildFeeInWei"`
	Source                       LiquiditySource `json:"source"`
	TokenAddressPath             []string        `json:"tokenAddressPath"`
	Path                         string          `json:"path"`
}
