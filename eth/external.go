package eth

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/ethereum/go-ethereum/common/hexutil"
)

// ExternalAccessListItem is the wire shape of one access-list entry.
type ExternalAccessListItem struct {
	Address     A160   `json:"address"`
	StorageKeys []H256 `json:"storageKeys"`
}

// ExternalTransaction is the JSON-RPC transaction representation this core converts from. It is a
// superset of all three envelope shapes plus positional metadata the RPC attaches once a
// transaction is included in a block.
//
// All integer fields are hex-prefixed lowercase strings on the wire; unknown fields are rejected.
type ExternalTransaction struct {
	Hash             H256                      `json:"hash"`
	Nonce            hexutil.Uint64            `json:"nonce"`
	BlockHash        *H256                     `json:"blockHash,omitempty"`
	BlockNumber      *hexutil.Big              `json:"blockNumber,omitempty"`
	TransactionIndex *hexutil.Uint64           `json:"transactionIndex,omitempty"`
	From             A160                      `json:"from"`
	To               *A160                     `json:"to,omitempty"`
	Value            *hexutil.Big              `json:"value"`
	GasPrice         *hexutil.Big              `json:"gasPrice"`
	Gas              hexutil.Uint64            `json:"gas"`
	Input            hexutil.Bytes             `json:"input"`
	V                hexutil.Uint64            `json:"v"`
	R                *hexutil.Big              `json:"r"`
	S                *hexutil.Big              `json:"s"`
	ChainID          *hexutil.Big              `json:"chainId,omitempty"`
	TransactionType  hexutil.Uint64            `json:"type"`
	AccessList       *[]ExternalAccessListItem `json:"accessList,omitempty"`
	MaxFeePerGas     *hexutil.Big              `json:"maxFeePerGas,omitempty"`
	MaxPriorityFeePerGas *hexutil.Big          `json:"maxPriorityFeePerGas,omitempty"`
}

// WireHash returns the transaction's own RPC-assigned hash, letting ToInternalBlock index
// converted blocks by transaction hash without recomputing one.
func (t ExternalTransaction) WireHash() H256 {
	return t.Hash
}

// externalTransactionAlias breaks the recursion a custom UnmarshalJSON on ExternalTransaction
// itself would otherwise cause.
type externalTransactionAlias ExternalTransaction

// UnmarshalJSON rejects unknown fields, per the wire-format contract in SPEC_FULL.md §4.1.
func (t *ExternalTransaction) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	var alias externalTransactionAlias
	if err := dec.Decode(&alias); err != nil {
		return fmt.Errorf("decoding external transaction: %w", err)
	}
	*t = ExternalTransaction(alias)
	return nil
}

// ExternalWithdrawal is the wire shape of one EIP-4895 withdrawal.
type ExternalWithdrawal struct {
	Index          hexutil.Uint64 `json:"index"`
	ValidatorIndex hexutil.Uint64 `json:"validatorIndex"`
	Address        A160           `json:"address"`
	Amount         hexutil.Uint64 `json:"amount"`
}

// ExternalBlock is the JSON-RPC block representation this core converts from, parametrized over
// the transaction shape TX (either ExternalTransaction for full-transaction responses, or H256
// for hash-only responses that this core never requests).
type ExternalBlock[TX any] struct {
	Hash            *H256                `json:"hash,omitempty"`
	ParentHash      H256                 `json:"parentHash"`
	UnclesHash      H256                 `json:"sha3Uncles"`
	StateRoot       H256                 `json:"stateRoot"`
	TransactionsRoot H256                `json:"transactionsRoot"`
	ReceiptsRoot    H256                 `json:"receiptsRoot"`
	Number          hexutil.Big          `json:"number"`
	GasUsed         hexutil.Big          `json:"gasUsed"`
	GasLimit        hexutil.Big          `json:"gasLimit"`
	ExtraData       hexutil.Bytes        `json:"extraData"`
	LogsBloom       Bloom                `json:"logsBloom"`
	Timestamp       hexutil.Big          `json:"timestamp"`
	Difficulty      hexutil.Big          `json:"difficulty"`
	TotalDifficulty *hexutil.Big         `json:"totalDifficulty,omitempty"`
	Uncles          []H256               `json:"uncles,omitempty"`
	Transactions    []TX                 `json:"transactions,omitempty"`
	Size            hexutil.Big          `json:"size"`
	MixHash         H256                 `json:"mixHash"`
	Nonce           *BlockNonce          `json:"nonce,omitempty"`
	BaseFeePerGas   *hexutil.Big         `json:"baseFeePerGas,omitempty"`
	Miner           *A160                `json:"miner,omitempty"`
	Withdrawals     []ExternalWithdrawal `json:"withdrawals,omitempty"`
	WithdrawalsRoot *H256                `json:"withdrawalsRoot,omitempty"`
}

type externalBlockAlias[TX any] ExternalBlock[TX]

// UnmarshalJSON rejects unknown fields, per the wire-format contract in SPEC_FULL.md §4.1.
func (b *ExternalBlock[TX]) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	var alias externalBlockAlias[TX]
	if err := dec.Decode(&alias); err != nil {
		return fmt.Errorf("decoding external block: %w", err)
	}
	*b = ExternalBlock[TX](alias)
	return nil
}
