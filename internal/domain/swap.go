package domain

import (
	"math/big"

	"github.com/shopspring/decimal"
)

// SwapQuoteRequest asks a DEX aggregator for the minimal cost of acquiring
// BuyAmountWei of BuyToken paid in SellToken.
type SwapQuoteRequest struct {
	SellToken       string
	BuyToken        string
	BuyAmountWei    *big.Int
	IncludedSources []LiquiditySource
}

// SourceFill reports what proportion of a swap quote a liquidity source
// fills. Proportion is the aggregator's exact string ("1" means full fill).
type SourceFill struct {
	Name       string
	Proportion string
}

// FillData carries the routing information of a swap order. V3-style routes
// arrive as a packed hex path, V2-style routes as an ordered hop address
// list; either may be empty.
type FillData struct {
	Path             string
	UniswapPath      string
	TokenAddressPath []string
}

// SwapOrder is a single fill order inside a swap quote.
type SwapOrder struct {
	Source      string
	TakerAmount string
	FillData    FillData
}

// SwapQuote is a DEX aggregator's priced route. Price and GuaranteedPrice are
// per-unit sell-token prices; GuaranteedPrice is the slippage-bounded worst
// case.
type SwapQuote struct {
	Price              decimal.Decimal
	GuaranteedPrice    decimal.Decimal
	SellTokenToEthRate float64
	Sources            []SourceFill
	Orders             []SwapOrder
}

// NFTListing is one listed token returned by the NFT marketplace aggregator,
// with its floor ask.
type NFTListing struct {
	TokenID          string
	FloorPriceNative float64
	FloorPriceUSD    float64
	HasFloorPrice    bool
	Source           string
}

// ListingQuery asks the NFT aggregator for the cheapest listed tokens of a
// collection. Either Attributes or TokenID narrows the match; Attributes win
// when both are set.
type ListingQuery struct {
	Collection string
	Limit      int
	Attributes []NFTAttribute
	TokenID    string
}
