package domain

import "math/big"

// PurchaseAssetData is the buyer context a call-parameter encoder works from.
// It is derived from the latest PriceQuote at submit time and never persisted.
type PurchaseAssetData struct {
	ChainID          int64
	Account          string
	TokenAddress     string
	AmountIn         *big.Int // pre-fee ceiling (max price)
	AmountInWithFee  *big.Int // AmountIn + max guild fee
	AmountOut        *big.Int // expected tokens received
	Source           LiquiditySource
	Path             string
	TokenAddressPath []string
}
