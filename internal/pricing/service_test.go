package pricing

import (
	"context"
	"errors"
	"log/slog"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/guildxyz/tokenbuyer/internal/config"
	"github.com/guildxyz/tokenbuyer/internal/domain"
)

const (
	usdcAddr  = "0xa0b86991c6218b36c1d19d4a2e9eb0ce3606eb48"
	buyAddr   = "0x1111111111111111111111111111111111111111"
	buyerAddr = "0x2222222222222222222222222222222222222222"
)

type fakeDex struct {
	quote *domain.SwapQuote
	err   error
	chain bool
	last  domain.SwapQuoteRequest
}

func (f *fakeDex) SupportsChain(string) bool { return f.chain }

func (f *fakeDex) SwapQuote(_ context.Context, _ string, q domain.SwapQuoteRequest) (*domain.SwapQuote, error) {
	f.last = q
	return f.quote, f.err
}

type fakeNFT struct {
	listings []domain.NFTListing
	err      error
	chain    bool
	last     domain.ListingQuery
}

func (f *fakeNFT) SupportsChain(string) bool { return f.chain }

func (f *fakeNFT) CheapestListings(_ context.Context, _ string, q domain.ListingQuery) ([]domain.NFTListing, error) {
	f.last = q
	return f.listings, f.err
}

type fakeOracle struct {
	rate float64
	err  error
}

func (f *fakeOracle) USDRate(context.Context, string) (float64, error) { return f.rate, f.err }

type fakeReader struct {
	decimals map[string]uint8
	baseFee  *big.Int
	feeErr   error
	payToken common.Address
}

func (f *fakeReader) TokenDecimals(_ context.Context, _, token string) (uint8, error) {
	if token == "ETH" {
		return 18, nil
	}
	d, ok := f.decimals[token]
	if !ok {
		return 0, errors.New("no such token")
	}
	return d, nil
}

func (f *fakeReader) PurchaseBaseFee(_ context.Context, _ string, _ int64, payToken common.Address) (*big.Int, error) {
	f.payToken = payToken
	if f.feeErr != nil {
		return nil, f.feeErr
	}
	return f.baseFee, nil
}

func testChains() config.ChainSet {
	return config.ChainSet{
		"ETHEREUM": {
			ChainID:           1,
			RPCURL:            "http://localhost:8545",
			NativeSymbol:      "ETH",
			NativeDecimals:    18,
			TokenBuyerAddress: "0x4aff02d7aa6be3ef2b1df629e51dcc9109427a07",
		},
	}
}

func newTestService(dex *fakeDex, nft *fakeNFT, oracle *fakeOracle, reader *fakeReader) *Service {
	return New(
		testChains(),
		config.Defaults().Pricing,
		dex, nft, oracle, reader,
		nil,
		slog.New(slog.DiscardHandler),
	)
}

func erc20Request() domain.PriceQuoteRequest {
	return domain.PriceQuoteRequest{
		GuildID:   1985,
		Type:      domain.RequirementERC20,
		Chain:     "ETHEREUM",
		SellToken: usdcAddr,
		Address:   buyAddr,
		Data:      domain.RequirementData{MinAmount: "3"},
	}
}

func workingSwapQuote() *domain.SwapQuote {
	return &domain.SwapQuote{
		Price:              decimal.RequireFromString("2"),
		GuaranteedPrice:    decimal.RequireFromString("2.1"),
		SellTokenToEthRate: 1000,
		Sources: []domain.SourceFill{
			{Name: "Uniswap_V3", Proportion: "1"},
		},
		Orders: []domain.SwapOrder{
			{
				Source: "Uniswap_V3",
				FillData: domain.FillData{
					Path:             "0x" + "1111111111111111111111111111111111111111" + "000bb8" + "2222222222222222222222222222222222222222",
					TokenAddressPath: []string{buyAddr, usdcAddr},
				},
			},
		},
	}
}

func TestGetQuoteValidation(t *testing.T) {
	svc := newTestService(&fakeDex{}, &fakeNFT{}, &fakeOracle{}, &fakeReader{})

	tests := []struct {
		name    string
		mutate  func(*domain.PriceQuoteRequest)
		wantErr error
		wantMsg string
	}{
		{
			name:    "missing guild id",
			mutate:  func(r *domain.PriceQuoteRequest) { r.GuildID = 0 },
			wantErr: domain.ErrInvalidRequest,
			wantMsg: "Missing or invalid param: guildId",
		},
		{
			name:    "bad requirement type",
			mutate:  func(r *domain.PriceQuoteRequest) { r.Type = "ALLOWLIST" },
			wantErr: domain.ErrInvalidRequest,
			wantMsg: "Invalid requirement type: ALLOWLIST",
		},
		{
			name:    "unknown chain",
			mutate:  func(r *domain.PriceQuoteRequest) { r.Chain = "DOGECHAIN" },
			wantErr: domain.ErrInvalidRequest,
			wantMsg: "Unsupported or invalid chain.",
		},
		{
			name:    "bad sell token",
			mutate:  func(r *domain.PriceQuoteRequest) { r.SellToken = "not-an-address" },
			wantErr: domain.ErrInvalidRequest,
			wantMsg: "Invalid sell token address.",
		},
		{
			name:    "bad requirement address",
			mutate:  func(r *domain.PriceQuoteRequest) { r.Address = "0x123" },
			wantErr: domain.ErrInvalidRequest,
			wantMsg: "Invalid requirement address.",
		},
		{
			name:    "non numeric amount",
			mutate:  func(r *domain.PriceQuoteRequest) { r.Data.MinAmount = "many" },
			wantErr: domain.ErrInvalidRequest,
			wantMsg: "Invalid requirement amount.",
		},
		{
			name:    "negative amount",
			mutate:  func(r *domain.PriceQuoteRequest) { r.Data.MinAmount = "-1" },
			wantErr: domain.ErrInvalidRequest,
			wantMsg: "Invalid requirement amount.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := erc20Request()
			tt.mutate(&req)

			_, err := svc.GetQuote(context.Background(), req)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Equal(t, tt.wantMsg, err.Error())
		})
	}
}

func TestGetQuoteNativeSellTokenAllowed(t *testing.T) {
	dex := &fakeDex{chain: true, quote: workingSwapQuote()}
	reader := &fakeReader{
		decimals: map[string]uint8{buyAddr: 18},
		baseFee:  big.NewInt(0),
	}
	svc := newTestService(dex, &fakeNFT{}, &fakeOracle{rate: 2000}, reader)

	req := erc20Request()
	req.SellToken = "ETH"

	_, err := svc.GetQuote(context.Background(), req)
	require.NoError(t, err)
	// Native-coin payments read the base fee for the null address.
	assert.Equal(t, common.HexToAddress(config.NullAddress), reader.payToken)
}

func TestGetQuoteERC20(t *testing.T) {
	dex := &fakeDex{chain: true, quote: workingSwapQuote()}
	reader := &fakeReader{
		decimals: map[string]uint8{buyAddr: 18, usdcAddr: 6},
		baseFee:  big.NewInt(5000), // 0.005 USDC
	}
	svc := newTestService(dex, &fakeNFT{}, &fakeOracle{rate: 2000}, reader)

	quote, err := svc.GetQuote(context.Background(), erc20Request())
	require.NoError(t, err)

	assert.InDelta(t, 3.0, quote.BuyAmount, 1e-9)
	assert.Equal(t, "3000000000000000000", quote.BuyAmountInWei.Int.String())

	// price 2, guaranteed 2.1, amount 3.
	assert.InDelta(t, 6.0, quote.EstimatedPriceInSellToken, 1e-9)
	assert.InDelta(t, 6.3, quote.MaxPriceInSellToken, 1e-9)
	assert.LessOrEqual(t, quote.EstimatedPriceInSellToken, quote.MaxPriceInSellToken)

	// 1 sell token = 2000/1000 = 2 USD.
	assert.InDelta(t, 12.0, quote.EstimatedPriceInUSD, 1e-6)
	assert.InDelta(t, 12.6, quote.MaxPriceInUSD, 1e-6)

	// 6.3 USDC = 6300000, floored to the default 100000-wei unit after
	// stepping one unit down.
	assert.Equal(t, "6200000", quote.MaxPriceInWei.Int.String())

	// fee = price*1% + 0.005 base fee.
	assert.InDelta(t, 0.065, quote.EstimatedGuildFeeInSellToken, 1e-9)
	assert.InDelta(t, 0.068, quote.MaxGuildFeeInSellToken, 1e-9)
	assert.Equal(t, "65000", quote.EstimatedGuildFeeInWei.Int.String())
	assert.Equal(t, "68000", quote.MaxGuildFeeInWei.Int.String())

	assert.Equal(t, domain.SourceUniswapV3, quote.Source)
	assert.Equal(t, []string{buyAddr, usdcAddr}, quote.TokenAddressPath)

	// The route comes back flipped for on-chain execution.
	assert.Equal(t,
		"0x"+"2222222222222222222222222222222222222222"+"000bb8"+"1111111111111111111111111111111111111111",
		quote.Path,
	)

	// ERC20 payments read the base fee for the sell token itself.
	assert.Equal(t, common.HexToAddress(usdcAddr), reader.payToken)
}

func TestGetQuoteERC20ChainNotSupported(t *testing.T) {
	svc := newTestService(&fakeDex{chain: false}, &fakeNFT{}, &fakeOracle{rate: 2000}, &fakeReader{})

	_, err := svc.GetQuote(context.Background(), erc20Request())
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrUnsupportedChain)
	assert.Equal(t, "Unsupported chain", err.Error())
}

func TestGetQuoteERC20NoFullFill(t *testing.T) {
	q := workingSwapQuote()
	q.Sources = []domain.SourceFill{
		{Name: "Uniswap_V3", Proportion: "0.6"},
		{Name: "SushiSwap", Proportion: "1"},
	}
	dex := &fakeDex{chain: true, quote: q}
	reader := &fakeReader{decimals: map[string]uint8{buyAddr: 18, usdcAddr: 6}, baseFee: big.NewInt(0)}
	svc := newTestService(dex, &fakeNFT{}, &fakeOracle{rate: 2000}, reader)

	_, err := svc.GetQuote(context.Background(), erc20Request())
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrQuoteUnavailable)
	assert.Equal(t, "Couldn't find tokens on Uniswap.", err.Error())
}

func TestGetQuoteERC20UpstreamErrorPassthrough(t *testing.T) {
	dex := &fakeDex{chain: true, err: &domain.UpstreamError{StatusCode: 503, Message: "Service Unavailable"}}
	reader := &fakeReader{decimals: map[string]uint8{buyAddr: 18}, baseFee: big.NewInt(0)}
	svc := newTestService(dex, &fakeNFT{}, &fakeOracle{rate: 2000}, reader)

	_, err := svc.GetQuote(context.Background(), erc20Request())
	require.Error(t, err)

	var upstream *domain.UpstreamError
	require.ErrorAs(t, err, &upstream)
	assert.Equal(t, 503, upstream.StatusCode)
}

func TestGetQuoteOracleFailure(t *testing.T) {
	dex := &fakeDex{chain: true, quote: workingSwapQuote()}
	reader := &fakeReader{decimals: map[string]uint8{buyAddr: 18, usdcAddr: 6}, baseFee: big.NewInt(0)}
	svc := newTestService(dex, &fakeNFT{}, &fakeOracle{err: errors.New("down")}, reader)

	_, err := svc.GetQuote(context.Background(), erc20Request())
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrPriceOracle)
	assert.Equal(t, "Couldn't fetch ETH-USD rate.", err.Error())
}

func TestGetQuoteERC20IncludedSources(t *testing.T) {
	dex := &fakeDex{chain: true, quote: workingSwapQuote()}
	reader := &fakeReader{decimals: map[string]uint8{buyAddr: 18, usdcAddr: 6}, baseFee: big.NewInt(0)}
	svc := newTestService(dex, &fakeNFT{}, &fakeOracle{rate: 2000}, reader)

	_, err := svc.GetQuote(context.Background(), erc20Request())
	require.NoError(t, err)
	assert.Equal(t,
		[]domain.LiquiditySource{domain.SourceUniswapV2, domain.SourceUniswapV3},
		dex.last.IncludedSources,
	)
	assert.Equal(t, "3000000000000000000", dex.last.BuyAmountWei.String())
}

func nftRequest() domain.PriceQuoteRequest {
	return domain.PriceQuoteRequest{
		GuildID:   1985,
		Type:      domain.RequirementERC721,
		Chain:     "ETHEREUM",
		SellToken: "ETH",
		Address:   buyAddr,
		Data:      domain.RequirementData{MinAmount: "2"},
	}
}

func TestGetQuoteNFT(t *testing.T) {
	nft := &fakeNFT{
		chain: true,
		listings: []domain.NFTListing{
			{TokenID: "1", FloorPriceNative: 1.0, FloorPriceUSD: 2000, HasFloorPrice: true, Source: "opensea.io"},
			{TokenID: "7", FloorPriceNative: 1.5, FloorPriceUSD: 3000, HasFloorPrice: true, Source: "opensea.io"},
		},
	}
	reader := &fakeReader{decimals: map[string]uint8{}, baseFee: big.NewInt(0)}
	svc := newTestService(&fakeDex{}, nft, &fakeOracle{rate: 2000}, reader)

	quote, err := svc.GetQuote(context.Background(), nftRequest())
	require.NoError(t, err)

	assert.InDelta(t, 2.5, quote.MaxPriceInSellToken, 1e-9)
	assert.InDelta(t, 5000.0, quote.MaxPriceInUSD, 1e-6)
	assert.Equal(t, "2500000000000000000", quote.MaxPriceInWei.Int.String())
	assert.Equal(t, "0", quote.BuyAmountInWei.Int.String())
	assert.Equal(t, domain.LiquiditySource("opensea.io"), quote.Source)
	assert.Empty(t, quote.Path)
	assert.Empty(t, quote.TokenAddressPath)

	assert.Equal(t, 2, nft.last.Limit)
	assert.Equal(t, buyAddr, nft.last.Collection)
}

func TestGetQuoteNFTAttributesQuery(t *testing.T) {
	nft := &fakeNFT{
		chain: true,
		listings: []domain.NFTListing{
			{TokenID: "1", FloorPriceNative: 1.0, FloorPriceUSD: 2000, HasFloorPrice: true, Source: "opensea.io"},
		},
	}
	reader := &fakeReader{decimals: map[string]uint8{}, baseFee: big.NewInt(0)}
	svc := newTestService(&fakeDex{}, nft, &fakeOracle{rate: 2000}, reader)

	req := nftRequest()
	req.Data = domain.RequirementData{
		MinAmount:  "1",
		Attributes: []domain.NFTAttribute{{TraitType: "Background", Value: "red"}},
		ID:         "42",
	}

	_, err := svc.GetQuote(context.Background(), req)
	require.NoError(t, err)

	// Attribute filters win over an explicit token ID.
	assert.Len(t, nft.last.Attributes, 1)
	assert.Empty(t, nft.last.TokenID)
}

func TestGetQuoteNFTInsufficientInventory(t *testing.T) {
	tests := []struct {
		name     string
		listings []domain.NFTListing
	}{
		{
			name: "too few listings",
			listings: []domain.NFTListing{
				{TokenID: "1", FloorPriceNative: 1.0, HasFloorPrice: true},
			},
		},
		{
			name: "listing without floor price",
			listings: []domain.NFTListing{
				{TokenID: "1", FloorPriceNative: 1.0, HasFloorPrice: true},
				{TokenID: "2"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			nft := &fakeNFT{chain: true, listings: tt.listings}
			svc := newTestService(&fakeDex{}, nft, &fakeOracle{rate: 2000}, &fakeReader{baseFee: big.NewInt(0)})

			_, err := svc.GetQuote(context.Background(), nftRequest())
			require.Error(t, err)
			assert.ErrorIs(t, err, domain.ErrInsufficientInventory)
			assert.Equal(t, "Couldn't find purchasable NFTs.", err.Error())
		})
	}
}

func TestGetQuoteNFTChainNotSupported(t *testing.T) {
	svc := newTestService(&fakeDex{}, &fakeNFT{chain: false}, &fakeOracle{rate: 2000}, &fakeReader{})

	_, err := svc.GetQuote(context.Background(), nftRequest())
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrUnsupportedChain)
}

func TestGetQuoteAmountDefaultsToOne(t *testing.T) {
	dex := &fakeDex{chain: true, quote: workingSwapQuote()}
	reader := &fakeReader{decimals: map[string]uint8{buyAddr: 18, usdcAddr: 6}, baseFee: big.NewInt(0)}
	svc := newTestService(dex, &fakeNFT{}, &fakeOracle{rate: 2000}, reader)

	req := erc20Request()
	req.Data = domain.RequirementData{}

	quote, err := svc.GetQuote(context.Background(), req)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, quote.BuyAmount, 1e-9)
	assert.Equal(t, "1000000000000000000", quote.BuyAmountInWei.Int.String())
}
