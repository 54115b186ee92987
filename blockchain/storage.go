package blockchain

import (
	"sync"

	"github.com/0xbeny/hardhat/eth"
)

// SparseBlockchainStorage is the remote cache: addressable by block number, block hash and
// transaction hash, holding at most one entry per number in [0, fork_block_number] and at most one
// entry per hash. Its internal indexing strategy is an implementation detail; the overlay only
// relies on the contract below.
type SparseBlockchainStorage interface {
	BlockByNumber(number uint64) (*eth.Block, bool)
	BlockByHash(hash eth.H256) (*eth.Block, bool)
	BlockByTransactionHash(txHash eth.H256) (*eth.Block, bool)
	TotalDifficultyByHash(hash eth.H256) (eth.U256, bool)
	// InsertBlockUnchecked admits block into the cache. Its precondition — that block's number and
	// hash are both absent — is established by the caller (the overlay, whose singleflight leader
	// re-checks presence before admitting; see DESIGN.md, open question 1) and is not re-checked
	// here.
	InsertBlockUnchecked(block *eth.Block, totalDifficulty eth.U256)
}

// ContiguousBlockchainStorage is the local store: a dense, append-only sequence of blocks whose
// numbers start at fork_block_number+1 and whose parent-hash chain is unbroken.
type ContiguousBlockchainStorage interface {
	// Blocks returns the locally-appended blocks in append order.
	Blocks() []*eth.Block
	BlockByHash(hash eth.H256) (*eth.Block, bool)
	BlockByTransactionHash(txHash eth.H256) (*eth.Block, bool)
	TotalDifficultyByHash(hash eth.H256) (eth.U256, bool)
	// InsertBlockUnchecked appends block. Its precondition — that block.Header.Number is exactly
	// one past the current last block — is validated by ForkedBlockchain.InsertBlock before this
	// is ever called.
	InsertBlockUnchecked(block *eth.Block, totalDifficulty eth.U256)
}

// memorySparseStorage is the reference in-memory SparseBlockchainStorage. It is the default the
// overlay constructs with; tests and alternative deployments may supply their own.
type memorySparseStorage struct {
	mu          sync.RWMutex
	byNumber    map[uint64]*eth.Block
	byHash      map[eth.H256]*eth.Block
	byTxHash    map[eth.H256]*eth.Block
	totalDiffs  map[eth.H256]eth.U256
}

// NewMemorySparseStorage constructs an empty in-memory remote cache.
func NewMemorySparseStorage() SparseBlockchainStorage {
	return &memorySparseStorage{
		byNumber:   make(map[uint64]*eth.Block),
		byHash:     make(map[eth.H256]*eth.Block),
		byTxHash:   make(map[eth.H256]*eth.Block),
		totalDiffs: make(map[eth.H256]eth.U256),
	}
}

func (s *memorySparseStorage) BlockByNumber(number uint64) (*eth.Block, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.byNumber[number]
	return b, ok
}

func (s *memorySparseStorage) BlockByHash(hash eth.H256) (*eth.Block, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.byHash[hash]
	return b, ok
}

func (s *memorySparseStorage) BlockByTransactionHash(txHash eth.H256) (*eth.Block, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.byTxHash[txHash]
	return b, ok
}

func (s *memorySparseStorage) TotalDifficultyByHash(hash eth.H256) (eth.U256, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	td, ok := s.totalDiffs[hash]
	return td, ok
}

func (s *memorySparseStorage) InsertBlockUnchecked(block *eth.Block, totalDifficulty eth.U256) {
	s.mu.Lock()
	defer s.mu.Unlock()
	hash := block.Hash()
	s.byNumber[block.Header.Number] = block
	s.byHash[hash] = block
	s.totalDiffs[hash] = totalDifficulty
	for _, txh := range block.TransactionHashes {
		s.byTxHash[txh] = block
	}
}

// memoryContiguousStorage is the reference in-memory ContiguousBlockchainStorage.
type memoryContiguousStorage struct {
	mu         sync.RWMutex
	blocks     []*eth.Block
	byHash     map[eth.H256]*eth.Block
	byTxHash   map[eth.H256]*eth.Block
	totalDiffs map[eth.H256]eth.U256
}

// NewMemoryContiguousStorage constructs an empty in-memory local store.
func NewMemoryContiguousStorage() ContiguousBlockchainStorage {
	return &memoryContiguousStorage{
		byHash:     make(map[eth.H256]*eth.Block),
		byTxHash:   make(map[eth.H256]*eth.Block),
		totalDiffs: make(map[eth.H256]eth.U256),
	}
}

func (s *memoryContiguousStorage) Blocks() []*eth.Block {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*eth.Block, len(s.blocks))
	copy(out, s.blocks)
	return out
}

func (s *memoryContiguousStorage) BlockByHash(hash eth.H256) (*eth.Block, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.byHash[hash]
	return b, ok
}

func (s *memoryContiguousStorage) BlockByTransactionHash(txHash eth.H256) (*eth.Block, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.byTxHash[txHash]
	return b, ok
}

func (s *memoryContiguousStorage) TotalDifficultyByHash(hash eth.H256) (eth.U256, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	td, ok := s.totalDiffs[hash]
	return td, ok
}

func (s *memoryContiguousStorage) InsertBlockUnchecked(block *eth.Block, totalDifficulty eth.U256) {
	s.mu.Lock()
	defer s.mu.Unlock()
	hash := block.Hash()
	s.blocks = append(s.blocks, block)
	s.byHash[hash] = block
	s.totalDiffs[hash] = totalDifficulty
	for _, txh := range block.TransactionHashes {
		s.byTxHash[txh] = block
	}
}
