package checkout

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/guildxyz/tokenbuyer/internal/domain"
)

// AssetKind distinguishes the two payment shapes a purchase can have.
type AssetKind int

const (
	// KindCoin pays in the chain's native coin, wrapped on the way in.
	KindCoin AssetKind = iota
	// KindERC20 pays in an ERC20 token pulled from the buyer.
	KindERC20
)

// routerAddressThis is the universal-router sentinel meaning "the router
// itself" as a swap recipient.
var routerAddressThis = common.HexToAddress("0x0000000000000000000000000000000000000002")

// paramsEncoder packs one (asset kind, liquidity source) variant into a
// universal-router command byte string plus its ABI-encoded inputs, one hex
// blob per command byte.
type paramsEncoder struct {
	commands string
	encode   func(d domain.PurchaseAssetData) ([]string, error)
}

// encoderFor selects the encoder for a payment shape and liquidity source.
// Returns false for sources no encoder exists for.
func encoderFor(kind AssetKind, source domain.LiquiditySource) (paramsEncoder, bool) {
	switch source {
	case domain.SourceUniswapV2:
		if kind == KindCoin {
			return paramsEncoder{commands: "0b090c", encode: encodeCoinV2}, true
		}
		return paramsEncoder{commands: "0904", encode: encodeERC20V2}, true
	case domain.SourceUniswapV3:
		if kind == KindCoin {
			return paramsEncoder{commands: "0b010c", encode: encodeCoinV3}, true
		}
		return paramsEncoder{commands: "0104", encode: encodeERC20V3}, true
	default:
		return paramsEncoder{}, false
	}
}

func mustType(t string) abi.Type {
	typ, err := abi.NewType(t, "", nil)
	if err != nil {
		panic(fmt.Sprintf("checkout: bad abi type %s: %v", t, err))
	}
	return typ
}

var (
	typeAddress      = mustType("address")
	typeUint256      = mustType("uint256")
	typeAddressArray = mustType("address[]")
	typeBytes        = mustType("bytes")
	typeBool         = mustType("bool")

	// WRAP_ETH(recipient, amount)
	wrapETHArgs = abi.Arguments{
		{Type: typeAddress},
		{Type: typeUint256},
	}
	// UNWRAP_WETH(recipient, amountMin)
	unwrapWETHArgs = abi.Arguments{
		{Type: typeAddress},
		{Type: typeUint256},
	}
	// V2_SWAP_EXACT_OUT(recipient, amountOut, amountInMax, path, payerIsUser)
	v2SwapArgs = abi.Arguments{
		{Type: typeAddress},
		{Type: typeUint256},
		{Type: typeUint256},
		{Type: typeAddressArray},
		{Type: typeBool},
	}
	// V3_SWAP_EXACT_OUT(recipient, amountOut, amountInMax, path, payerIsUser)
	v3SwapArgs = abi.Arguments{
		{Type: typeAddress},
		{Type: typeUint256},
		{Type: typeUint256},
		{Type: typeBytes},
		{Type: typeBool},
	}
	// SWEEP(token, recipient, amountMin)
	sweepTokenArgs = abi.Arguments{
		{Type: typeAddress},
		{Type: typeAddress},
		{Type: typeUint256},
	}
)

func packHex(args abi.Arguments, values ...any) (string, error) {
	packed, err := args.Pack(values...)
	if err != nil {
		return "", fmt.Errorf("checkout: pack: %w", err)
	}
	return hexutil.Encode(packed), nil
}

func v2PathAddresses(path []string) []common.Address {
	out := make([]common.Address, 0, len(path))
	for _, a := range path {
		out = append(out, common.HexToAddress(a))
	}
	return out
}

// encodeCoinV2 wraps the sent coin, swaps it for the exact output amount on a
// V2 route, then unwraps any refund back to the buyer.
func encodeCoinV2(d domain.PurchaseAssetData) ([]string, error) {
	account := common.HexToAddress(d.Account)

	wrap, err := packHex(wrapETHArgs, routerAddressThis, d.AmountIn)
	if err != nil {
		return nil, err
	}
	swap, err := packHex(v2SwapArgs, account, d.AmountOut, d.AmountIn, v2PathAddresses(d.TokenAddressPath), false)
	if err != nil {
		return nil, err
	}
	unwrap, err := packHex(unwrapWETHArgs, account, big.NewInt(0))
	if err != nil {
		return nil, err
	}
	return []string{wrap, swap, unwrap}, nil
}

func encodeCoinV3(d domain.PurchaseAssetData) ([]string, error) {
	account := common.HexToAddress(d.Account)

	route, err := hexutil.Decode(d.Path)
	if err != nil {
		return nil, fmt.Errorf("checkout: decode path: %w", err)
	}

	wrap, err := packHex(wrapETHArgs, routerAddressThis, d.AmountIn)
	if err != nil {
		return nil, err
	}
	swap, err := packHex(v3SwapArgs, account, d.AmountOut, d.AmountIn, route, false)
	if err != nil {
		return nil, err
	}
	unwrap, err := packHex(unwrapWETHArgs, account, big.NewInt(0))
	if err != nil {
		return nil, err
	}
	return []string{wrap, swap, unwrap}, nil
}

// encodeERC20V2 swaps buyer-held tokens on a V2 route and sweeps any refund
// of the input token back to the buyer.
func encodeERC20V2(d domain.PurchaseAssetData) ([]string, error) {
	account := common.HexToAddress(d.Account)

	swap, err := packHex(v2SwapArgs, account, d.AmountOut, d.AmountIn, v2PathAddresses(d.TokenAddressPath), true)
	if err != nil {
		return nil, err
	}
	sweep, err := packHex(sweepTokenArgs, common.HexToAddress(d.TokenAddress), account, big.NewInt(0))
	if err != nil {
		return nil, err
	}
	return []string{swap, sweep}, nil
}

func encodeERC20V3(d domain.PurchaseAssetData) ([]string, error) {
	account := common.HexToAddress(d.Account)

	route, err := hexutil.Decode(d.Path)
	if err != nil {
		return nil, fmt.Errorf("checkout: decode path: %w", err)
	}

	swap, err := packHex(v3SwapArgs, account, d.AmountOut, d.AmountIn, route, true)
	if err != nil {
		return nil, err
	}
	sweep, err := packHex(sweepTokenArgs, common.HexToAddress(d.TokenAddress), account, big.NewInt(0))
	if err != nil {
		return nil, err
	}
	return []string{swap, sweep}, nil
}
