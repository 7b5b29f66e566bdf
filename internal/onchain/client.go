// Package onchain reads token metadata and fee-collector state over
// JSON-RPC. It is the only package that talks to blockchain nodes.
package onchain

import (
	"context"
	"fmt"
	"log/slog"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/guildxyz/tokenbuyer/internal/config"
	"github.com/guildxyz/tokenbuyer/internal/domain"
	"github.com/guildxyz/tokenbuyer/internal/metrics"
)

// Client performs read-only contract calls against the configured chains.
// RPC connections are dialed lazily and reused.
type Client struct {
	chains config.ChainSet
	logger *slog.Logger

	mu    sync.Mutex
	conns map[string]*ethclient.Client
}

// New creates a Client over the given chain registry.
func New(chains config.ChainSet, logger *slog.Logger) *Client {
	return &Client{
		chains: chains,
		logger: logger,
		conns:  make(map[string]*ethclient.Client),
	}
}

// Close releases all RPC connections.
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, conn := range c.conns {
		conn.Close()
	}
	c.conns = make(map[string]*ethclient.Client)
}

// TokenDecimals returns the decimal count of a token on the given chain. The
// chain's native-currency symbol short-circuits to the registry's decimal
// count; everything else is an ERC20 decimals() call.
func (c *Client) TokenDecimals(ctx context.Context, chain, token string) (uint8, error) {
	cc, ok := c.chains.Get(chain)
	if !ok {
		return 0, fmt.Errorf("onchain: %w: %s", domain.ErrUnsupportedChain, chain)
	}
	if token == cc.NativeSymbol {
		return cc.NativeDecimals, nil
	}

	out, err := c.call(ctx, chain, common.HexToAddress(token), erc20ABI, "decimals")
	if err != nil {
		return 0, err
	}
	decimals, ok := out[0].(uint8)
	if !ok {
		return 0, fmt.Errorf("onchain: %w: unexpected decimals type %T", domain.ErrOnChainRead, out[0])
	}
	return decimals, nil
}

// PurchaseBaseFee reads the guild's base fee for the given payment token
// from the chain's fee-collector contract. payToken is the null address when
// paying in the native coin.
func (c *Client) PurchaseBaseFee(ctx context.Context, chain string, guildID int64, payToken common.Address) (*big.Int, error) {
	cc, ok := c.chains.Get(chain)
	if !ok || cc.TokenBuyerAddress == "" {
		return nil, fmt.Errorf("onchain: %w: no fee collector on %s", domain.ErrUnsupportedChain, chain)
	}

	out, err := c.call(ctx, chain, common.HexToAddress(cc.TokenBuyerAddress), tokenBuyerABI, "baseFee", payToken)
	if err != nil {
		return nil, err
	}
	fee, ok := out[0].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("onchain: %w: unexpected baseFee type %T", domain.ErrOnChainRead, out[0])
	}
	return fee, nil
}

// call packs and executes a single eth_call against the latest block.
func (c *Client) call(ctx context.Context, chain string, to common.Address, contractABI abi.ABI, method string, args ...any) ([]any, error) {
	conn, err := c.dial(chain)
	if err != nil {
		return nil, err
	}

	data, err := contractABI.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("onchain: pack %s: %w", method, err)
	}

	raw, err := conn.CallContract(ctx, ethereum.CallMsg{To: &to, Data: data}, nil)
	if err != nil {
		metrics.OnChainReads.WithLabelValues(chain, method, "error").Inc()
		return nil, fmt.Errorf("onchain: %w: call %s on %s: %v", domain.ErrOnChainRead, method, chain, err)
	}
	metrics.OnChainReads.WithLabelValues(chain, method, "ok").Inc()

	out, err := contractABI.Unpack(method, raw)
	if err != nil {
		return nil, fmt.Errorf("onchain: %w: unpack %s: %v", domain.ErrOnChainRead, method, err)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("onchain: %w: empty %s result", domain.ErrOnChainRead, method)
	}
	return out, nil
}

// dial returns a cached RPC connection for the chain, creating it on first
// use.
func (c *Client) dial(chain string) (*ethclient.Client, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if conn, ok := c.conns[chain]; ok {
		return conn, nil
	}

	cc, ok := c.chains.Get(chain)
	if !ok {
		return nil, fmt.Errorf("onchain: %w: %s", domain.ErrUnsupportedChain, chain)
	}

	conn, err := ethclient.Dial(cc.RPCURL)
	if err != nil {
		return nil, fmt.Errorf("onchain: %w: dial %s: %v", domain.ErrOnChainRead, chain, err)
	}

	c.logger.Info("onchain: connected",
		slog.String("chain", chain),
		slog.String("rpc_url", cc.RPCURL),
	)

	c.conns[chain] = conn
	return conn, nil
}
