package blockchain_test

import (
	"context"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	gethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"

	"github.com/0xbeny/hardhat/blockchain"
	"github.com/0xbeny/hardhat/chainspec"
	"github.com/0xbeny/hardhat/eth"
)

// fakeRemoteClient is a canned, in-memory blockchain.RemoteClient. It counts calls per method so
// tests can assert on admission idempotence, in the style of the teacher's RPCErrFaker.
type fakeRemoteClient struct {
	chainID   uint64
	networkID uint64
	latest    uint64

	byNumber map[uint64]*eth.ExternalBlock[eth.ExternalTransaction]
	byHash   map[eth.H256]*eth.ExternalBlock[eth.ExternalTransaction]
	byTxHash map[eth.H256]*eth.ExternalTransaction

	blockByNumberCalls map[uint64]int
	blockByHashCalls   map[eth.H256]int
}

func newFakeRemoteClient(chainID, networkID, latest uint64) *fakeRemoteClient {
	return &fakeRemoteClient{
		chainID:            chainID,
		networkID:          networkID,
		latest:             latest,
		byNumber:           make(map[uint64]*eth.ExternalBlock[eth.ExternalTransaction]),
		byHash:             make(map[eth.H256]*eth.ExternalBlock[eth.ExternalTransaction]),
		byTxHash:           make(map[eth.H256]*eth.ExternalTransaction),
		blockByNumberCalls: make(map[uint64]int),
		blockByHashCalls:   make(map[eth.H256]int),
	}
}

func (f *fakeRemoteClient) ChainID(context.Context) (uint64, error)   { return f.chainID, nil }
func (f *fakeRemoteClient) NetworkID(context.Context) (uint64, error) { return f.networkID, nil }
func (f *fakeRemoteClient) BlockNumber(context.Context) (uint64, error) {
	return f.latest, nil
}

func (f *fakeRemoteClient) BlockByNumberWithTransactionData(_ context.Context, number uint64) (*eth.ExternalBlock[eth.ExternalTransaction], error) {
	f.blockByNumberCalls[number]++
	return f.byNumber[number], nil
}

func (f *fakeRemoteClient) BlockByHashWithTransactionData(_ context.Context, hash common.Hash) (*eth.ExternalBlock[eth.ExternalTransaction], error) {
	f.blockByHashCalls[hash]++
	return f.byHash[hash], nil
}

func (f *fakeRemoteClient) TransactionByHash(_ context.Context, hash common.Hash) (*eth.ExternalTransaction, error) {
	return f.byTxHash[hash], nil
}

var _ blockchain.RemoteClient = (*fakeRemoteClient)(nil)

func bigPtr(v int64) *hexutil.Big {
	b := hexutil.Big(*big.NewInt(v))
	return &b
}

func bigVal(v int64) hexutil.Big {
	return hexutil.Big(*big.NewInt(v))
}

// addBlock registers a remote block numbered number, hashed hash, parented on parentHash, with
// the given total difficulty, on f.
func (f *fakeRemoteClient) addBlock(number uint64, hash, parentHash eth.H256, totalDifficulty int64) *eth.ExternalBlock[eth.ExternalTransaction] {
	miner := common.HexToAddress("0xaa000000000000000000000000000000000000")
	nonce := gethtypes.BlockNonce{}
	block := &eth.ExternalBlock[eth.ExternalTransaction]{
		Hash:            &hash,
		ParentHash:      parentHash,
		Number:          bigVal(int64(number)),
		GasUsed:         bigVal(0),
		GasLimit:        bigVal(30_000_000),
		Timestamp:       bigVal(0),
		Difficulty:      bigVal(10),
		TotalDifficulty: bigPtr(totalDifficulty),
		Size:            bigVal(0),
		Miner:           &miner,
		Nonce:           &nonce,
	}
	f.byNumber[number] = block
	f.byHash[hash] = block
	return block
}

func hashOf(b byte) eth.H256 {
	var h eth.H256
	h[31] = b
	return h
}

// permissiveClassifier accepts any chain id at chainspec.London, for scenarios that need a fork
// block number below any real chain's Spurious Dragon activation without exercising the hardfork
// floor check itself.
func permissiveClassifier(uint64, uint64) (chainspec.Hardfork, bool) {
	return chainspec.London, true
}

func TestNew_FreshOverlayUnsuppliedFork(t *testing.T) {
	client := newFakeRemoteClient(1, 1, 100)
	for n := uint64(0); n <= 95; n++ {
		client.addBlock(n, hashOf(byte(n)), hashOf(byte(n)-1), int64(n))
	}

	bc, err := blockchain.New(context.Background(), client, blockchain.WithHardforkClassifier(permissiveClassifier))
	require.NoError(t, err)
	require.Equal(t, uint64(95), bc.ForkBlockNumber())
	require.Equal(t, uint64(95), bc.LastBlockNumber())

	block, err := bc.BlockByNumber(context.Background(), 50)
	require.NoError(t, err)
	require.NotNil(t, block)
	require.Equal(t, 1, client.blockByNumberCalls[50])

	block2, err := bc.BlockByNumber(context.Background(), 50)
	require.NoError(t, err)
	require.Same(t, block, block2)
	require.Equal(t, 1, client.blockByNumberCalls[50], "second lookup must be served from cache")
}

func TestNew_ExplicitSafeFork(t *testing.T) {
	client := newFakeRemoteClient(100, 100, 1000)
	client.addBlock(900, hashOf(1), hashOf(0), 1)

	bc, err := blockchain.New(context.Background(), client, blockchain.WithForkBlockNumber(900))
	require.NoError(t, err)
	require.Equal(t, uint64(900), bc.ForkBlockNumber())
}

func TestNew_ExplicitUnsafeForkIsAcceptedWithWarning(t *testing.T) {
	client := newFakeRemoteClient(1, 1, 1000)
	client.addBlock(999, hashOf(1), hashOf(0), 1)

	bc, err := blockchain.New(context.Background(), client,
		blockchain.WithForkBlockNumber(999),
		blockchain.WithHardforkClassifier(permissiveClassifier),
	)
	require.NoError(t, err)
	require.Equal(t, uint64(999), bc.ForkBlockNumber())
}

func TestNew_ForkBeyondLatestIsRejected(t *testing.T) {
	client := newFakeRemoteClient(1, 1, 1000)

	_, err := blockchain.New(context.Background(), client, blockchain.WithForkBlockNumber(1001))
	var target *blockchain.InvalidBlockNumberError
	require.ErrorAs(t, err, &target)
	require.Equal(t, uint64(1001), target.Fork)
	require.Equal(t, uint64(1000), target.Latest)
}

func TestNew_UnsupportedChainIsRejected(t *testing.T) {
	client := newFakeRemoteClient(999999, 999999, 100)

	_, err := blockchain.New(context.Background(), client)
	var target *blockchain.UnsupportedChainError
	require.ErrorAs(t, err, &target)
}

func TestNew_PreSpuriousDragonForkIsRejected(t *testing.T) {
	client := newFakeRemoteClient(1, 1, 2_000_000)
	client.addBlock(1_000_000, hashOf(1), hashOf(0), 1)

	_, err := blockchain.New(context.Background(), client, blockchain.WithForkBlockNumber(1_000_000))
	var target *blockchain.InvalidHardforkError
	require.ErrorAs(t, err, &target)
}

func TestInsertBlock_AppendsAndAccumulatesTotalDifficulty(t *testing.T) {
	client := newFakeRemoteClient(1, 1, 100)
	for n := uint64(0); n <= 95; n++ {
		client.addBlock(n, hashOf(byte(n)), hashOf(byte(n)-1), int64(n))
	}

	bc, err := blockchain.New(context.Background(), client, blockchain.WithHardforkClassifier(permissiveClassifier))
	require.NoError(t, err)

	last, err := bc.LastBlock(context.Background())
	require.NoError(t, err)
	lastTD, err := bc.TotalDifficultyByHash(context.Background(), last.Hash())
	require.NoError(t, err)

	next := eth.NewBlock(eth.Header{
		Number:     96,
		ParentHash: last.Hash(),
		Difficulty: uint256.NewInt(10),
	}, nil, hashOf(200))

	require.NoError(t, bc.InsertBlock(context.Background(), next))
	require.Equal(t, uint64(96), bc.LastBlockNumber())

	wantTD := new(uint256.Int).Add(lastTD, uint256.NewInt(10))
	gotTD, err := bc.TotalDifficultyByHash(context.Background(), next.Hash())
	require.NoError(t, err)
	require.Equal(t, wantTD, gotTD)
}

func TestInsertBlock_RejectsWrongNumber(t *testing.T) {
	client := newFakeRemoteClient(1, 1, 100)
	for n := uint64(0); n <= 95; n++ {
		client.addBlock(n, hashOf(byte(n)), hashOf(byte(n)-1), int64(n))
	}

	bc, err := blockchain.New(context.Background(), client, blockchain.WithHardforkClassifier(permissiveClassifier))
	require.NoError(t, err)

	last, err := bc.LastBlock(context.Background())
	require.NoError(t, err)

	wrong := eth.NewBlock(eth.Header{
		Number:     97,
		ParentHash: last.Hash(),
		Difficulty: uint256.NewInt(10),
	}, nil, hashOf(201))

	err = bc.InsertBlock(context.Background(), wrong)
	var target *blockchain.InvalidBlockNumberError
	require.ErrorAs(t, err, &target)
	require.Equal(t, uint64(97), target.Actual)
	require.Equal(t, uint64(96), target.Expected)
	require.Equal(t, uint64(95), bc.LastBlockNumber(), "rejected append must not change state")
}

func TestInsertBlock_RejectsWrongParentHash(t *testing.T) {
	client := newFakeRemoteClient(1, 1, 100)
	for n := uint64(0); n <= 95; n++ {
		client.addBlock(n, hashOf(byte(n)), hashOf(byte(n)-1), int64(n))
	}

	bc, err := blockchain.New(context.Background(), client, blockchain.WithHardforkClassifier(permissiveClassifier))
	require.NoError(t, err)

	wrong := eth.NewBlock(eth.Header{
		Number:     96,
		ParentHash: hashOf(250),
		Difficulty: uint256.NewInt(10),
	}, nil, hashOf(202))

	err = bc.InsertBlock(context.Background(), wrong)
	require.ErrorIs(t, err, blockchain.ErrInvalidParentHash)
}

func TestBlockByNumber_AboveForkServesFromLocalStore(t *testing.T) {
	client := newFakeRemoteClient(1, 1, 100)
	for n := uint64(0); n <= 95; n++ {
		client.addBlock(n, hashOf(byte(n)), hashOf(byte(n)-1), int64(n))
	}

	bc, err := blockchain.New(context.Background(), client, blockchain.WithHardforkClassifier(permissiveClassifier))
	require.NoError(t, err)

	last, err := bc.LastBlock(context.Background())
	require.NoError(t, err)
	appended := eth.NewBlock(eth.Header{Number: 96, ParentHash: last.Hash(), Difficulty: uint256.NewInt(10)}, nil, hashOf(203))
	require.NoError(t, bc.InsertBlock(context.Background(), appended))

	got, err := bc.BlockByNumber(context.Background(), 96)
	require.NoError(t, err)
	require.Same(t, appended, got)

	missing, err := bc.BlockByNumber(context.Background(), 97)
	require.NoError(t, err)
	require.Nil(t, missing)
}
