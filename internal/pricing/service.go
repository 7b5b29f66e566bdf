// Package pricing implements the price-quote service: it combines a DEX or
// NFT aggregator quote with the on-chain platform fee and converts all
// amounts between token units, USD, and wei.
package pricing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/singleflight"

	"github.com/guildxyz/tokenbuyer/internal/checkout"
	"github.com/guildxyz/tokenbuyer/internal/config"
	"github.com/guildxyz/tokenbuyer/internal/domain"
)

// DexAggregator quotes fungible-token swaps.
type DexAggregator interface {
	SupportsChain(chain string) bool
	SwapQuote(ctx context.Context, chain string, q domain.SwapQuoteRequest) (*domain.SwapQuote, error)
}

// NFTAggregator finds the cheapest listed tokens of a collection.
type NFTAggregator interface {
	SupportsChain(chain string) bool
	CheapestListings(ctx context.Context, chain string, q domain.ListingQuery) ([]domain.NFTListing, error)
}

// RateOracle returns the USD exchange rate of a currency symbol.
type RateOracle interface {
	USDRate(ctx context.Context, symbol string) (float64, error)
}

// ChainReader performs the two on-chain reads quoting needs.
type ChainReader interface {
	TokenDecimals(ctx context.Context, chain, token string) (uint8, error)
	PurchaseBaseFee(ctx context.Context, chain string, guildID int64, payToken common.Address) (*big.Int, error)
}

// Service produces price quotes for purchase intents. It holds no mutable
// state beyond in-flight request coalescing, so concurrent use is safe and
// any call may be retried.
type Service struct {
	chains config.ChainSet
	pcfg   config.PricingConfig
	dex    DexAggregator
	nft    NFTAggregator
	oracle RateOracle
	reader ChainReader
	rates  domain.RateCache // optional; nil disables rate caching
	logger *slog.Logger

	inflight singleflight.Group
}

// New creates a pricing Service. rates may be nil, in which case every quote
// hits the oracle directly.
func New(
	chains config.ChainSet,
	pcfg config.PricingConfig,
	dex DexAggregator,
	nft NFTAggregator,
	oracle RateOracle,
	reader ChainReader,
	rates domain.RateCache,
	logger *slog.Logger,
) *Service {
	return &Service{
		chains: chains,
		pcfg:   pcfg,
		dex:    dex,
		nft:    nft,
		oracle: oracle,
		reader: reader,
		rates:  rates,
		logger: logger,
	}
}

// GetQuote validates the request and produces a complete PriceQuote, or a
// *domain.QuoteError / *domain.UpstreamError describing why it cannot.
// Identical requests issued while one is in flight share a single upstream
// round trip.
func (s *Service) GetQuote(ctx context.Context, req domain.PriceQuoteRequest) (*domain.PriceQuote, error) {
	if err := s.validate(req); err != nil {
		return nil, err
	}

	v, err, _ := s.inflight.Do(req.Fingerprint(), func() (any, error) {
		if req.Type.NFT() {
			return s.quoteNFT(ctx, req)
		}
		return s.quoteERC20(ctx, req)
	})
	if err != nil {
		return nil, err
	}
	return v.(*domain.PriceQuote), nil
}

// validate rejects malformed requests before any network call is made. The
// messages are returned verbatim to the client.
func (s *Service) validate(req domain.PriceQuoteRequest) error {
	if req.GuildID <= 0 {
		return domain.NewQuoteError(domain.ErrInvalidRequest, "Missing or invalid param: guildId")
	}
	if !req.Type.Purchasable() {
		return domain.NewQuoteError(domain.ErrInvalidRequest, fmt.Sprintf("Invalid requirement type: %s", req.Type))
	}
	cc, ok := s.chains.Get(req.Chain)
	if !ok {
		return domain.NewQuoteError(domain.ErrInvalidRequest, "Unsupported or invalid chain.")
	}
	if !config.IsAddress(req.SellToken) && req.SellToken != cc.NativeSymbol {
		return domain.NewQuoteError(domain.ErrInvalidRequest, "Invalid sell token address.")
	}
	if !config.IsAddress(req.Address) {
		return domain.NewQuoteError(domain.ErrInvalidRequest, "Invalid requirement address.")
	}
	amount, err := req.Data.Amount()
	if err != nil || !amount.IsPositive() {
		return domain.NewQuoteError(domain.ErrInvalidRequest, "Invalid requirement amount.")
	}
	return nil
}

// quoteERC20 prices a fungible-token requirement through the DEX aggregator.
func (s *Service) quoteERC20(ctx context.Context, req domain.PriceQuoteRequest) (*domain.PriceQuote, error) {
	cc, _ := s.chains.Get(req.Chain)

	if !s.dex.SupportsChain(req.Chain) {
		return nil, domain.NewQuoteError(domain.ErrUnsupportedChain, "Unsupported chain")
	}

	amount, err := req.Data.Amount()
	if err != nil {
		return nil, domain.NewQuoteError(domain.ErrInvalidRequest, "Invalid requirement amount.")
	}

	buyDecimals, err := s.reader.TokenDecimals(ctx, req.Chain, req.Address)
	if err != nil {
		s.logger.WarnContext(ctx, "pricing: buy token decimals lookup failed",
			slog.String("chain", req.Chain),
			slog.String("token", req.Address),
			slog.String("error", err.Error()),
		)
		return nil, domain.NewQuoteError(domain.ErrOnChainRead, "Couldn't fetch buyToken decimals")
	}
	buyAmountInWei := ParseUnits(amount, buyDecimals)

	nativeUSD, err := s.nativeUSDRate(ctx, cc.NativeSymbol)
	if err != nil {
		return nil, domain.NewQuoteError(domain.ErrPriceOracle,
			fmt.Sprintf("Couldn't fetch %s-USD rate.", cc.NativeSymbol))
	}

	swap, err := s.dex.SwapQuote(ctx, req.Chain, domain.SwapQuoteRequest{
		SellToken:       req.SellToken,
		BuyToken:        req.Address,
		BuyAmountWei:    buyAmountInWei,
		IncludedSources: s.supportedSources(),
	})
	if err != nil {
		var upstream *domain.UpstreamError
		if errors.As(err, &upstream) {
			return nil, err
		}
		s.logger.ErrorContext(ctx, "pricing: swap quote failed",
			slog.String("chain", req.Chain),
			slog.String("error", err.Error()),
		)
		return nil, domain.NewQuoteError(domain.ErrQuoteUnavailable, "Couldn't fetch swap quote.")
	}

	source, order, ok := s.matchFillOrder(swap)
	if !ok {
		return nil, domain.NewQuoteError(domain.ErrQuoteUnavailable, "Couldn't find tokens on Uniswap.")
	}

	rawPath := order.FillData.Path
	if rawPath == "" {
		rawPath = order.FillData.UniswapPath
	}
	path := checkout.FlipPath(rawPath)

	estimatedPrice := swap.Price.Mul(amount)
	maxPrice := swap.GuaranteedPrice.Mul(amount)
	usdPerSellToken := nativeUSD / swap.SellTokenToEthRate
	estimatedPriceUSD := usdPerSellToken * estimatedPrice.InexactFloat64()
	maxPriceUSD := usdPerSellToken * maxPrice.InexactFloat64()

	sellDecimals, err := s.reader.TokenDecimals(ctx, req.Chain, req.SellToken)
	if err != nil {
		return nil, domain.NewQuoteError(domain.ErrOnChainRead, "Couldn't fetch sellToken decimals")
	}

	baseFee, err := s.guildBaseFee(ctx, req, cc, sellDecimals)
	if err != nil {
		return nil, err
	}
	baseFeeUSD := usdPerSellToken * baseFee.InexactFloat64()

	fees := computeFees(
		decimal.NewFromFloat(s.pcfg.GuildFeePercent),
		baseFee,
		estimatedPrice, maxPrice,
		baseFeeUSD, estimatedPriceUSD, maxPriceUSD,
	)

	// The contract refunds unused input during the transaction, so the
	// ceiling sent on-chain is floored to the configured unit.
	maxPriceInWei := FloorToUnit(ParseUnits(maxPrice, sellDecimals), s.pcfg.WeiRoundingUnit)

	return &domain.PriceQuote{
		BuyAmount:                    amount.InexactFloat64(),
		BuyAmountInWei:               domain.NewWei(buyAmountInWei),
		EstimatedPriceInSellToken:    estimatedPrice.InexactFloat64(),
		EstimatedPriceInUSD:          estimatedPriceUSD,
		MaxPriceInSellToken:          maxPrice.InexactFloat64(),
		MaxPriceInUSD:                maxPriceUSD,
		MaxPriceInWei:                domain.NewWei(maxPriceInWei),
		GuildBaseFeeInSellToken:      baseFee.InexactFloat64(),
		EstimatedGuildFeeInSellToken: fees.EstimatedFeeInSellToken.InexactFloat64(),
		EstimatedGuildFeeInUSD:       fees.EstimatedFeeInUSD,
		EstimatedGuildFeeInWei:       domain.NewWei(ParseUnits(fees.EstimatedFeeInSellToken, sellDecimals)),
		MaxGuildFeeInSellToken:       fees.MaxFeeInSellToken.InexactFloat64(),
		MaxGuildFeeInUSD:             fees.MaxFeeInUSD,
		MaxGuildFeeInWei:             domain.NewWei(ParseUnits(fees.MaxFeeInSellToken, sellDecimals)),
		Source:                       domain.LiquiditySource(source.Name),
		TokenAddressPath:             order.FillData.TokenAddressPath,
		Path:                         path,
	}, nil
}

// quoteNFT prices an ERC721/ERC1155 requirement from marketplace floor
// listings. The sell token is the chain's native coin.
func (s *Service) quoteNFT(ctx context.Context, req domain.PriceQuoteRequest) (*domain.PriceQuote, error) {
	cc, _ := s.chains.Get(req.Chain)

	if !s.nft.SupportsChain(req.Chain) {
		return nil, domain.NewQuoteError(domain.ErrUnsupportedChain, "Unsupported chain")
	}

	amount, err := req.Data.Amount()
	if err != nil {
		return nil, domain.NewQuoteError(domain.ErrInvalidRequest, "Invalid requirement amount.")
	}
	count := int(amount.IntPart())
	if count < 1 {
		count = 1
	}

	query := domain.ListingQuery{
		Collection: req.Address,
		Limit:      count,
	}
	if len(req.Data.Attributes) > 0 {
		query.Attributes = req.Data.Attributes
	} else if req.Data.ID != "" {
		query.TokenID = req.Data.ID
	}

	listings, err := s.nft.CheapestListings(ctx, req.Chain, query)
	if err != nil {
		var upstream *domain.UpstreamError
		if errors.As(err, &upstream) {
			return nil, err
		}
		s.logger.ErrorContext(ctx, "pricing: listing lookup failed",
			slog.String("chain", req.Chain),
			slog.String("collection", req.Address),
			slog.String("error", err.Error()),
		)
		return nil, domain.NewQuoteError(domain.ErrQuoteUnavailable, "Couldn't fetch NFT listings.")
	}

	if len(listings) < count || !allListed(listings) {
		return nil, domain.NewQuoteError(domain.ErrInsufficientInventory, "Couldn't find purchasable NFTs.")
	}

	nativeUSD, err := s.nativeUSDRate(ctx, cc.NativeSymbol)
	if err != nil {
		return nil, domain.NewQuoteError(domain.ErrPriceOracle,
			fmt.Sprintf("Couldn't fetch %s-USD rate.", cc.NativeSymbol))
	}

	maxPrice := decimal.Zero
	var maxPriceUSD float64
	for _, l := range listings {
		maxPrice = maxPrice.Add(decimal.NewFromFloat(l.FloorPriceNative))
		maxPriceUSD += l.FloorPriceUSD
	}

	sellDecimals, err := s.reader.TokenDecimals(ctx, req.Chain, req.SellToken)
	if err != nil {
		return nil, domain.NewQuoteError(domain.ErrOnChainRead, "Couldn't fetch sellToken decimals")
	}

	baseFee, err := s.guildBaseFee(ctx, req, cc, sellDecimals)
	if err != nil {
		return nil, err
	}
	baseFeeUSD := nativeUSD * baseFee.InexactFloat64()

	fees := computeFees(
		decimal.NewFromFloat(s.pcfg.GuildFeePercent),
		baseFee,
		decimal.Zero, maxPrice,
		baseFeeUSD, 0, maxPriceUSD,
	)

	return &domain.PriceQuote{
		BuyAmount:                    amount.InexactFloat64(),
		BuyAmountInWei:               domain.NewWeiFromInt64(0),
		MaxPriceInSellToken:          maxPrice.InexactFloat64(),
		MaxPriceInUSD:                maxPriceUSD,
		MaxPriceInWei:                domain.NewWei(ParseUnits(maxPrice, cc.NativeDecimals)),
		GuildBaseFeeInSellToken:      baseFee.InexactFloat64(),
		EstimatedGuildFeeInSellToken: fees.EstimatedFeeInSellToken.InexactFloat64(),
		EstimatedGuildFeeInUSD:       fees.EstimatedFeeInUSD,
		EstimatedGuildFeeInWei:       domain.NewWei(ParseUnits(fees.EstimatedFeeInSellToken, sellDecimals)),
		MaxGuildFeeInSellToken:       fees.MaxFeeInSellToken.InexactFloat64(),
		MaxGuildFeeInUSD:             fees.MaxFeeInUSD,
		MaxGuildFeeInWei:             domain.NewWei(ParseUnits(fees.MaxFeeInSellToken, sellDecimals)),
		Source:                       domain.LiquiditySource(listings[0].Source),
		TokenAddressPath:             []string{},
	}, nil
}

// guildBaseFee reads the flat platform fee from the fee-collector contract
// and converts it to sell-token units.
func (s *Service) guildBaseFee(ctx context.Context, req domain.PriceQuoteRequest, cc config.ChainConfig, sellDecimals uint8) (decimal.Decimal, error) {
	payToken := common.HexToAddress(config.NullAddress)
	if req.SellToken != cc.NativeSymbol {
		payToken = common.HexToAddress(req.SellToken)
	}

	baseFeeWei, err := s.reader.PurchaseBaseFee(ctx, req.Chain, req.GuildID, payToken)
	if err != nil {
		if errors.Is(err, domain.ErrUnsupportedChain) {
			return decimal.Decimal{}, domain.NewQuoteError(domain.ErrUnsupportedChain, "Unsupported chain")
		}
		s.logger.ErrorContext(ctx, "pricing: base fee read failed",
			slog.String("chain", req.Chain),
			slog.Int64("guild_id", req.GuildID),
			slog.String("error", err.Error()),
		)
		return decimal.Decimal{}, domain.NewQuoteError(domain.ErrOnChainRead, "Couldn't fetch guild base fee.")
	}

	return FormatUnits(baseFeeWei, sellDecimals), nil
}

// nativeUSDRate resolves the native-currency/USD rate through the optional
// cache. Cache failures are logged and treated as misses; only oracle
// failures are fatal for the call.
func (s *Service) nativeUSDRate(ctx context.Context, symbol string) (float64, error) {
	if s.rates != nil {
		rate, err := s.rates.GetRate(ctx, symbol)
		if err == nil {
			return rate, nil
		}
		if !errors.Is(err, domain.ErrNotFound) {
			s.logger.WarnContext(ctx, "pricing: rate cache read failed",
				slog.String("symbol", symbol),
				slog.String("error", err.Error()),
			)
		}
	}

	rate, err := s.oracle.USDRate(ctx, symbol)
	if err != nil {
		return 0, err
	}

	if s.rates != nil {
		ttl := s.pcfg.OracleCacheTTL.Duration
		if ttl <= 0 {
			ttl = 30 * time.Second
		}
		if err := s.rates.SetRate(ctx, symbol, rate, ttl); err != nil {
			s.logger.WarnContext(ctx, "pricing: rate cache write failed",
				slog.String("symbol", symbol),
				slog.String("error", err.Error()),
			)
		}
	}
	return rate, nil
}

// matchFillOrder finds a supported liquidity source that fills the whole
// quote and its associated order.
func (s *Service) matchFillOrder(swap *domain.SwapQuote) (domain.SourceFill, domain.SwapOrder, bool) {
	for _, src := range swap.Sources {
		if src.Proportion != "1" || !s.sourceSupported(src.Name) {
			continue
		}
		for _, order := range swap.Orders {
			if order.Source == src.Name {
				return src, order, true
			}
		}
	}
	return domain.SourceFill{}, domain.SwapOrder{}, false
}

func (s *Service) sourceSupported(name string) bool {
	for _, src := range s.pcfg.SupportedSources {
		if src == name {
			return true
		}
	}
	return false
}

func (s *Service) supportedSources() []domain.LiquiditySource {
	out := make([]domain.LiquiditySource, 0, len(s.pcfg.SupportedSources))
	for _, src := range s.pcfg.SupportedSources {
		out = append(out, domain.LiquiditySource(src))
	}
	return out
}

func allListed(listings []domain.NFTListing) bool {
	for _, l := range listings {
		if !l.HasFloorPrice {
			return false
		}
	}
	return true
}
