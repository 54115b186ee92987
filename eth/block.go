package eth

// Header is the internal block header. Its field names are the internal ones, not the wire names
// ExternalBlock uses (Beneficiary for miner, OmmersHash for sha3Uncles); ToInternalBlock maps one
// onto the other. BaseFeePerGas and WithdrawalsRoot are optional: nil when absent, not
// zero-valued.
type Header struct {
	ParentHash      H256
	OmmersHash      H256
	Beneficiary     A160
	StateRoot       H256
	TransactionsRoot H256
	ReceiptsRoot    H256
	LogsBloom       Bloom
	Difficulty      U256
	Number          uint64
	GasLimit        uint64
	GasUsed         uint64
	Timestamp       uint64
	ExtraData       []byte
	MixHash         H256
	Nonce           BlockNonce
	BaseFeePerGas   U256 // nil when absent
	WithdrawalsRoot *H256
}

// Block is the internal block: a header, its signed transactions, and its ommer headers (always
// empty in this core; see SPEC_FULL.md §9 for why uncles are dropped during conversion).
type Block struct {
	Header       Header
	Transactions []SignedTransaction
	Ommers       []Header

	// TransactionHashes holds the wire-supplied hash of each entry in Transactions, in the same
	// order, when the external transaction type carries one (see WireHash). It exists so a
	// SparseBlockchainStorage/ContiguousBlockchainStorage implementation can index
	// block-by-transaction-hash without recomputing an RLP+keccak hash, which this core treats as
	// an internal-indexing detail out of scope (§1).
	TransactionHashes []H256

	hash H256
}

// NewBlock constructs a Block carrying a caller-supplied hash: this core never computes block
// hashes itself, whether for remote data (trusted from the wire) or for locally produced blocks
// (computed upstream, by whatever assembles a block's header and transactions, which is out of
// this core's scope). hash becomes the value Hash returns and never changes afterwards.
func NewBlock(header Header, transactions []SignedTransaction, hash H256) *Block {
	return &Block{Header: header, Transactions: transactions, hash: hash}
}

// Hash returns the block's identifying hash. This core treats the hash carried on the wire (and
// propagated unchanged through conversion) as authoritative rather than recomputing an RLP header
// hash, since cryptographic validation of remote data is explicitly out of scope.
func (b *Block) Hash() H256 {
	return b.hash
}

// withHash attaches the wire-supplied hash to a converted block. It is unexported: the hash is
// fixed at conversion time and never recomputed afterwards.
func (b *Block) withHash(h H256) *Block {
	b.hash = h
	return b
}
