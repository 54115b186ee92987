// Package chainspec holds the two small, pure, per-chain-id tables the forked blockchain overlay
// consults at construction time: the largest expected reorg depth, and which hardfork is active at
// a given block number.
package chainspec

// DefaultMaxReorg is substituted by callers when ReorgDepth reports no entry for a chain id.
const DefaultMaxReorg = 30

// reorgDepths is intentionally inlined at the decision site rather than injected as
// configuration, matching the design notes: promote to an injected table if and when chains are
// added.
var reorgDepths = map[uint64]uint64{
	1:   5,   // mainnet
	3:   100, // Ropsten
	4:   5,   // Rinkeby
	5:   5,   // Goerli
	42:  5,   // Kovan
	100: 38,  // xDai
}

// ReorgDepth returns the largest expected reorg depth for chainID, and whether an entry exists.
// Callers substitute DefaultMaxReorg on absence.
func ReorgDepth(chainID uint64) (depth uint64, ok bool) {
	depth, ok = reorgDepths[chainID]
	return depth, ok
}
