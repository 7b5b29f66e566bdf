package domain

// RequirementType identifies the kind of asset a guild requirement gates on.
type RequirementType string

const (
	RequirementERC20   RequirementType = "ERC20"
	RequirementERC721  RequirementType = "ERC721"
	RequirementERC1155 RequirementType = "ERC1155"
)

// Purchasable reports whether checkout supports buying this requirement type.
func (t RequirementType) Purchasable() bool {
	switch t {
	case RequirementERC20, RequirementERC721, RequirementERC1155:
		return true
	default:
		return false
	}
}

// NFT reports whether the requirement is a non-fungible asset.
func (t RequirementType) NFT() bool {
	return t == RequirementERC721 || t == RequirementERC1155
}

// LiquiditySource names the venue that filled a quote. For fungible-token
// swaps only the Uniswap sources are recognized; NFT quotes carry the
// marketplace name reported by the listing aggregator.
type LiquiditySource string

const (
	SourceUniswapV2 LiquiditySource = "Uniswap_V2"
	SourceUniswapV3 LiquiditySource = "Uniswap_V3"
)
