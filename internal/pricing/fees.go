package pricing

import "github.com/shopspring/decimal"

// feeBreakdown is the platform fee applied to a quote: the contract's flat
// base fee plus a percentage of the quoted price, computed separately for
// the estimated and the worst-case (maximum) price.
type feeBreakdown struct {
	BaseFeeInSellToken      decimal.Decimal
	BaseFeeInUSD            float64
	EstimatedFeeInSellToken decimal.Decimal
	EstimatedFeeInUSD       float64
	MaxFeeInSellToken       decimal.Decimal
	MaxFeeInUSD             float64
}

// computeFees derives the fee breakdown. Sell-token amounts use exact
// decimal arithmetic because they feed the on-chain wei fields; the USD
// figures are display-only and stay in floating point.
func computeFees(
	feePct decimal.Decimal,
	baseFee decimal.Decimal,
	estimatedPrice, maxPrice decimal.Decimal,
	baseFeeUSD, estimatedPriceUSD, maxPriceUSD float64,
) feeBreakdown {
	pctFloat, _ := feePct.Float64()

	return feeBreakdown{
		BaseFeeInSellToken:      baseFee,
		BaseFeeInUSD:            baseFeeUSD,
		EstimatedFeeInSellToken: estimatedPrice.Mul(feePct).Add(baseFee),
		EstimatedFeeInUSD:       estimatedPriceUSD*pctFloat + baseFeeUSD,
		MaxFeeInSellToken:       maxPrice.Mul(feePct).Add(baseFee),
		MaxFeeInUSD:             maxPriceUSD*pctFloat + baseFeeUSD,
	}
}
