// Package eth holds the internal block and transaction representation used by the forked
// blockchain view, the external JSON-RPC wire shapes, and the conversion between the two.
package eth

import (
	"github.com/ethereum/go-ethereum/common"
	gethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/holiman/uint256"
)

// Primitive aliases. These are not re-derived: a block hash, an address, a 256-bit unsigned
// integer, a bloom filter and a block nonce already have well-tested wire-compatible
// representations in go-ethereum, and the wire format this package speaks (hex-prefixed,
// camelCase JSON) is exactly what those types already (de)serialize to.
type (
	// H256 is a 32-byte block or transaction hash.
	H256 = common.Hash
	// A160 is a 20-byte account address.
	A160 = common.Address
	// U256 is an unsigned 256-bit integer.
	U256 = *uint256.Int
	// Bloom is a 256-byte logs bloom filter.
	Bloom = gethtypes.Bloom
	// BlockNonce is the 8-byte header nonce.
	BlockNonce = gethtypes.BlockNonce
)
