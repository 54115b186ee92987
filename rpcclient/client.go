// Package rpcclient is the concrete JSON-RPC transport the forked blockchain overlay uses to talk
// to the remote chain. It is the one implementation, in this repository, of the
// blockchain.RemoteClient interface the overlay depends on; the overlay itself never imports this
// package, only the interface it satisfies.
package rpcclient

import (
	"context"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/log"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/holiman/uint256"

	"github.com/0xbeny/hardhat/eth"
)

// RPC is the narrow surface this package needs from an underlying go-ethereum RPC client. It
// exists so tests can substitute a fake, in the idiom of the teacher's
// cp-service/testutils.RPCErrFaker wrapping client.RPC.
type RPC interface {
	CallContext(ctx context.Context, result any, method string, args ...any) error
	Close()
}

// Option configures a Client at dial time, in the functional-options idiom of
// cp-node/node/client.go's client.RPCOption.
type Option func(*config)

type config struct {
	dialAttempts int
	callTimeout  time.Duration
}

// WithDialAttempts sets the total number of dial attempts (the first one included) before giving
// up.
func WithDialAttempts(n int) Option {
	return func(c *config) { c.dialAttempts = n }
}

// WithCallTimeout bounds every individual CallContext this client issues.
func WithCallTimeout(d time.Duration) Option {
	return func(c *config) { c.callTimeout = d }
}

// Client is a thin, typed wrapper around a JSON-RPC connection, exposing exactly the remote calls
// the forked blockchain overlay needs.
type Client struct {
	rpc     RPC
	log     log.Logger
	timeout time.Duration
}

// Dial connects to addr (HTTP, WS or IPC, per go-ethereum's rpc.DialContext) and wraps the result.
func Dial(ctx context.Context, logger log.Logger, addr string, opts ...Option) (*Client, error) {
	cfg := config{dialAttempts: 1}
	for _, opt := range opts {
		opt(&cfg)
	}

	var (
		underlying *rpc.Client
		err        error
	)
	for attempt := 1; attempt <= cfg.dialAttempts; attempt++ {
		underlying, err = rpc.DialContext(ctx, addr)
		if err == nil {
			break
		}
		logger.Warn("failed to dial RPC endpoint", "addr", addr, "attempt", attempt, "err", err)
	}
	if err != nil {
		return nil, fmt.Errorf("dialing %s after %d attempts: %w", addr, cfg.dialAttempts, err)
	}

	return New(underlying, logger, opts...), nil
}

// New wraps an already-dialed RPC (or a fake satisfying the RPC interface) without touching the
// network, for tests and in-process wiring.
func New(underlying RPC, logger log.Logger, opts ...Option) *Client {
	cfg := config{dialAttempts: 1}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Client{rpc: underlying, log: logger, timeout: cfg.callTimeout}
}

func (c *Client) Close() {
	c.rpc.Close()
}

func (c *Client) call(ctx context.Context, result any, method string, args ...any) error {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}
	return c.rpc.CallContext(ctx, result, method, args...)
}

// ChainID implements blockchain.RemoteClient.
func (c *Client) ChainID(ctx context.Context) (uint64, error) {
	var result hexutil.Uint64
	if err := c.call(ctx, &result, "eth_chainId"); err != nil {
		return 0, fmt.Errorf("eth_chainId: %w", err)
	}
	return uint64(result), nil
}

// NetworkID implements blockchain.RemoteClient. net_version replies with a decimal string rather
// than 0x-hex, per the JSON-RPC spec's historical quirk.
func (c *Client) NetworkID(ctx context.Context) (uint64, error) {
	var result string
	if err := c.call(ctx, &result, "net_version"); err != nil {
		return 0, fmt.Errorf("net_version: %w", err)
	}
	id, ok := new(uint256.Int).SetString(result)
	if !ok {
		return 0, fmt.Errorf("net_version: invalid network id %q", result)
	}
	return id.Uint64(), nil
}

// BlockNumber implements blockchain.RemoteClient.
func (c *Client) BlockNumber(ctx context.Context) (uint64, error) {
	var result hexutil.Uint64
	if err := c.call(ctx, &result, "eth_blockNumber"); err != nil {
		return 0, fmt.Errorf("eth_blockNumber: %w", err)
	}
	return uint64(result), nil
}

// BlockByNumberWithTransactionData implements blockchain.RemoteClient.
func (c *Client) BlockByNumberWithTransactionData(ctx context.Context, number uint64) (*eth.ExternalBlock[eth.ExternalTransaction], error) {
	var result *eth.ExternalBlock[eth.ExternalTransaction]
	if err := c.call(ctx, &result, "eth_getBlockByNumber", hexutil.Uint64(number), true); err != nil {
		return nil, fmt.Errorf("eth_getBlockByNumber(%d): %w", number, err)
	}
	return result, nil
}

// BlockByHashWithTransactionData implements blockchain.RemoteClient. A nil result (no error)
// means the remote reported no such block.
func (c *Client) BlockByHashWithTransactionData(ctx context.Context, hash common.Hash) (*eth.ExternalBlock[eth.ExternalTransaction], error) {
	var result *eth.ExternalBlock[eth.ExternalTransaction]
	if err := c.call(ctx, &result, "eth_getBlockByHash", hash, true); err != nil {
		return nil, fmt.Errorf("eth_getBlockByHash(%s): %w", hash, err)
	}
	return result, nil
}

// TransactionByHash implements blockchain.RemoteClient. A nil result (no error) means the remote
// reported no such transaction.
func (c *Client) TransactionByHash(ctx context.Context, hash common.Hash) (*eth.ExternalTransaction, error) {
	var result *eth.ExternalTransaction
	if err := c.call(ctx, &result, "eth_getTransactionByHash", hash); err != nil {
		return nil, fmt.Errorf("eth_getTransactionByHash(%s): %w", hash, err)
	}
	return result, nil
}
