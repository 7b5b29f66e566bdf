package onchain

import (
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

// Minimal ABI fragments for the two read-only calls this service makes.
// Hand-maintained rather than generated; the surface is two view functions.

const erc20ABIJSON = `[
	{
		"constant": true,
		"inputs": [],
		"name": "decimals",
		"outputs": [{"name": "", "type": "uint8"}],
		"stateMutability": "view",
		"type": "function"
	}
]`

const tokenBuyerABIJSON = `[
	{
		"inputs": [{"name": "token", "type": "address"}],
		"name": "baseFee",
		"outputs": [{"name": "", "type": "uint256"}],
		"stateMutability": "view",
		"type": "function"
	}
]`

var (
	erc20ABI      = mustABI(erc20ABIJSON)
	tokenBuyerABI = mustABI(tokenBuyerABIJSON)
)

func mustABI(raw string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(raw))
	if err != nil {
		panic(err)
	}
	return parsed
}
