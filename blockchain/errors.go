package blockchain

import (
	"context"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"github.com/0xbeny/hardhat/chainspec"
	"github.com/0xbeny/hardhat/eth"
)

// RemoteClient is the narrow surface the overlay needs from a remote JSON-RPC endpoint. It is
// satisfied concretely by *rpcclient.Client, and by a fake in tests; the overlay package never
// imports rpcclient so its test fakes stay free of any real transport dependency.
type RemoteClient interface {
	ChainID(ctx context.Context) (uint64, error)
	NetworkID(ctx context.Context) (uint64, error)
	BlockNumber(ctx context.Context) (uint64, error)
	BlockByNumberWithTransactionData(ctx context.Context, number uint64) (*eth.ExternalBlock[eth.ExternalTransaction], error)
	BlockByHashWithTransactionData(ctx context.Context, hash common.Hash) (*eth.ExternalBlock[eth.ExternalTransaction], error)
	TransactionByHash(ctx context.Context, hash common.Hash) (*eth.ExternalTransaction, error)
}

// ErrJSONRPC wraps any error returned by the remote endpoint, at both construction and read time.
var ErrJSONRPC = errors.New("json-rpc request failed")

// ErrInvalidParentHash is returned by InsertBlock when the appended block's parent hash does not
// match the current last block's hash.
var ErrInvalidParentHash = errors.New("parent hash does not match last block")

// ErrBlockNumberTooLarge is returned when a queried block number cannot be represented as a
// platform int (used to index the local store).
var ErrBlockNumberTooLarge = errors.New("block number too large")

// ErrUnknownBlockNumber is returned by BlockHash when the requested number is above the fork block
// and past the end of the local store (the cache path, for numbers at or below the fork block,
// never returns this: a cache miss always attempts an RPC fetch instead).
var ErrUnknownBlockNumber = errors.New("unknown block number")

// InvalidBlockNumberError reports a caller-supplied fork block number, or an appended block
// number, that does not fit the position it was asked to occupy. The same type serves both
// construction (Fork/Latest) and append (Actual/Expected) per SPEC_FULL.md §7; exactly one pair
// of fields is populated depending on which path produced it.
type InvalidBlockNumberError struct {
	// Construction-time: the requested fork block number exceeded the latest known block.
	Fork, Latest uint64
	// Append-time: the appended block's number did not equal the expected next number.
	Actual, Expected uint64
}

func (e *InvalidBlockNumberError) Error() string {
	if e.Latest != 0 || e.Fork != 0 {
		return fmt.Sprintf("fork block number %d exceeds latest block number %d", e.Fork, e.Latest)
	}
	return fmt.Sprintf("invalid block number %d, expected %d", e.Actual, e.Expected)
}

// InvalidHardforkError reports a fork block number whose classified hardfork predates the
// minimum this core requires (Spurious Dragon, for replay protection).
type InvalidHardforkError struct {
	Fork      uint64
	ChainName string
	Hardfork  chainspec.Hardfork
}

func (e *InvalidHardforkError) Error() string {
	return fmt.Sprintf("fork block number %d on chain %q is at hardfork %s, which predates the minimum supported hardfork %s",
		e.Fork, e.ChainName, e.Hardfork, chainspec.SpuriousDragon)
}

// UnsupportedChainError reports a chain id this core has no hardfork schedule for.
type UnsupportedChainError struct {
	ChainID uint64
}

func (e *UnsupportedChainError) Error() string {
	return fmt.Sprintf("unsupported chain id %d", e.ChainID)
}
