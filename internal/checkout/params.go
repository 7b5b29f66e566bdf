package checkout

import (
	"github.com/guildxyz/tokenbuyer/internal/config"
	"github.com/guildxyz/tokenbuyer/internal/domain"
)

// PaymentToken describes what the buyer pays with: the token contract (the
// null address for the native coin) and the total amount pulled from them.
type PaymentToken struct {
	TokenAddress string      `json:"tokenAddress"`
	Amount       *domain.Wei `json:"amount"`
}

// TxOptions carries transaction overrides. Value is set only for native-coin
// payments.
type TxOptions struct {
	Value *domain.Wei `json:"value,omitempty"`
}

// CallParams is everything the frontend needs to submit the purchase
// transaction: the fee-collector arguments plus transaction options. GuildID
// is omitted on universal-router chains, whose entry point does not take it.
type CallParams struct {
	GuildID       *int64       `json:"guildId,omitempty"`
	Payment       PaymentToken `json:"payment"`
	Commands      string       `json:"commands"`
	EncodedParams []string     `json:"encodedParams"`
	Options       TxOptions    `json:"options"`
}

// Args flattens the contract-call arguments in declaration order, the shape
// the frontend spreads into its contract write.
func (p *CallParams) Args() []any {
	args := make([]any, 0, 4)
	if p.GuildID != nil {
		args = append(args, *p.GuildID)
	}
	return append(args, p.Payment, p.Commands, p.EncodedParams)
}

// BuildCallParams assembles the purchase transaction parameters from the
// latest quote. Returns nil when the quote is absent or incomplete, or when
// the chain has no deployed fee collector; callers surface that as "not
// purchasable" rather than an error.
func BuildCallParams(
	guildID int64,
	account string,
	chain string,
	pickedCurrency string,
	quote *domain.PriceQuote,
	chains config.ChainSet,
) *CallParams {
	if quote == nil || guildID <= 0 || account == "" {
		return nil
	}
	cc, ok := chains.Get(chain)
	if !ok || cc.TokenBuyerAddress == "" {
		return nil
	}
	if quote.MaxPriceInWei == nil || quote.MaxGuildFeeInWei == nil || quote.BuyAmountInWei == nil {
		return nil
	}
	if quote.Source == "" {
		return nil
	}
	if quote.Path == "" && len(quote.TokenAddressPath) == 0 {
		return nil
	}

	isNative := chains.IsNativeSymbol(pickedCurrency)
	kind := KindERC20
	if isNative {
		kind = KindCoin
	}

	enc, ok := encoderFor(kind, quote.Source)
	if !ok {
		return nil
	}

	amountIn := quote.MaxPriceInWei.BigInt()
	amountInWithFee := quote.MaxPriceInWei.BigInt()
	amountInWithFee.Add(amountInWithFee, quote.MaxGuildFeeInWei.BigInt())

	tokenAddress := pickedCurrency
	if isNative {
		tokenAddress = config.NullAddress
	}

	encoded, err := enc.encode(domain.PurchaseAssetData{
		ChainID:          cc.ChainID,
		Account:          account,
		TokenAddress:     tokenAddress,
		AmountIn:         amountIn,
		AmountInWithFee:  amountInWithFee,
		AmountOut:        quote.BuyAmountInWei.BigInt(),
		Source:           quote.Source,
		Path:             quote.Path,
		TokenAddressPath: quote.TokenAddressPath,
	})
	if err != nil {
		return nil
	}

	params := &CallParams{
		Payment: PaymentToken{
			TokenAddress: tokenAddress,
			Amount:       domain.NewWei(amountInWithFee),
		},
		Commands:      "0x" + enc.commands,
		EncodedParams: encoded,
	}

	if isNative {
		// The native coin rides along as transaction value; the payment token
		// amount is zero so the contract does not also pull an ERC20.
		params.Payment.Amount = domain.NewWeiFromInt64(0)
		params.Options.Value = domain.NewWei(amountInWithFee)
	}

	if !cc.UniversalRouter {
		id := guildID
		params.GuildID = &id
	}

	return params
}
