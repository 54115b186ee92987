package eth

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"
)

var (
	zeroBloomHex   = strings.Repeat("0", 512)
	zeroHashHex    = strings.Repeat("0", 64)
	zeroAddressHex = strings.Repeat("0", 40)
)

func TestExternalTransaction_RoundTrip(t *testing.T) {
	to := common.HexToAddress("0xAA")
	original := ExternalTransaction{
		Hash:            common.HexToHash("0x01"),
		Nonce:           5,
		From:            common.HexToAddress("0xBB"),
		To:              &to,
		Value:           bigPtr(10),
		GasPrice:        bigPtr(7),
		Gas:             21000,
		Input:           []byte{},
		TransactionType: 0,
		V:               27,
		R:               bigPtr(1),
		S:               bigPtr(2),
	}

	data, err := json.Marshal(original)
	require.NoError(t, err)

	var decoded ExternalTransaction
	require.NoError(t, json.Unmarshal(data, &decoded))
	require.Equal(t, original, decoded)
}

func TestExternalTransaction_RejectsUnknownFields(t *testing.T) {
	raw := []byte(`{"hash":"0x` + zeroHashHex + `","nonce":"0x5","from":"0x` + zeroAddressHex + `","value":"0xa","gasPrice":"0x7","gas":"0x5208","type":"0x0","v":"0x1b","r":"0x1","s":"0x2","bogus":"0x1"}`)
	var decoded ExternalTransaction
	require.Error(t, json.Unmarshal(raw, &decoded))
}

func TestExternalBlock_RoundTrip(t *testing.T) {
	miner := common.HexToAddress("0xCC")
	nonce := BlockNonce{1, 2, 3, 4, 5, 6, 7, 8}
	original := ExternalBlock[ExternalTransaction]{
		ParentHash:       common.HexToHash("0x1"),
		UnclesHash:       common.HexToHash("0x2"),
		StateRoot:        common.HexToHash("0x3"),
		TransactionsRoot: common.HexToHash("0x4"),
		ReceiptsRoot:     common.HexToHash("0x5"),
		Number:           *bigPtr(1),
		GasUsed:          *bigPtr(21000),
		GasLimit:         *bigPtr(30_000_000),
		ExtraData:        []byte{},
		Timestamp:        *bigPtr(1_700_000_000),
		Difficulty:       *bigPtr(10),
		Size:             *bigPtr(512),
		Miner:            &miner,
		Nonce:            &nonce,
		TotalDifficulty:  bigPtr(100),
	}

	data, err := json.Marshal(original)
	require.NoError(t, err)

	var decoded ExternalBlock[ExternalTransaction]
	require.NoError(t, json.Unmarshal(data, &decoded))
	require.Equal(t, original, decoded)
}

func TestExternalBlock_RejectsUnknownFields(t *testing.T) {
	raw := []byte(`{"parentHash":"0x` + zeroHashHex + `","sha3Uncles":"0x` + zeroHashHex + `","stateRoot":"0x` + zeroHashHex + `","transactionsRoot":"0x` + zeroHashHex + `","receiptsRoot":"0x` + zeroHashHex + `","number":"0x0","gasUsed":"0x0","gasLimit":"0x0","extraData":"0x","logsBloom":"0x` + zeroBloomHex + `","timestamp":"0x0","difficulty":"0x0","size":"0x0","mixHash":"0x` + zeroHashHex + `","bogus":"0x1"}`)
	var decoded ExternalBlock[ExternalTransaction]
	require.Error(t, json.Unmarshal(raw, &decoded))
}
