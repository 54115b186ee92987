package eth

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/holiman/uint256"
)

// hexBig is a local shorthand for the wire's hex-prefixed big-integer type.
type hexBig = hexutil.Big

// Transaction conversion errors. Sentinel values for the argument-less cases, matching the
// teacher's own Err* convention; UnsupportedTypeError carries the offending type.
var (
	ErrMissingAccessList           = errors.New("missing access list")
	ErrMissingChainID              = errors.New("missing chain id")
	ErrMissingMaxFeePerGas         = errors.New("missing max fee per gas")
	ErrMissingMaxPriorityFeePerGas = errors.New("missing max priority fee per gas")

	// Block conversion errors.
	ErrMissingMiner = errors.New("missing miner")
	ErrMissingNonce = errors.New("missing nonce")
)

// UnsupportedTypeError reports a transaction_type value this core does not know how to convert.
type UnsupportedTypeError struct {
	Type uint64
}

func (e *UnsupportedTypeError) Error() string {
	return fmt.Sprintf("unsupported type %d", e.Type)
}

// ToInternalTransaction converts an ExternalTransaction into the internal tagged-variant
// SignedTransaction, discriminating on TransactionType per SPEC_FULL.md §4.1.
func ToInternalTransaction(tx ExternalTransaction) (SignedTransaction, error) {
	kind := destinationKind(tx.To)

	switch TransactionType(tx.TransactionType) {
	case LegacyTxType:
		return &LegacyTransaction{
			TxNonce:    uint64(tx.Nonce),
			GasPrice:   bigToU256(tx.GasPrice),
			TxGasLimit: uint64(tx.Gas),
			TxKind:     kind,
			Value:      bigToU256(tx.Value),
			Input:      []byte(tx.Input),
			Signature: Signature{
				R: bigToU256(tx.R),
				S: bigToU256(tx.S),
				V: uint64(tx.V),
			},
		}, nil

	case AccessListTxType:
		chainID, err := requireChainID(tx.ChainID)
		if err != nil {
			return nil, err
		}
		accessList, err := requireAccessList(tx.AccessList)
		if err != nil {
			return nil, err
		}
		return &AccessListTransaction{
			ChainID:      chainID,
			TxNonce:      uint64(tx.Nonce),
			GasPrice:     bigToU256(tx.GasPrice),
			TxGasLimit:   uint64(tx.Gas),
			TxKind:       kind,
			Value:        bigToU256(tx.Value),
			Input:        []byte(tx.Input),
			TxAccessList: accessList,
			Signature:    typedSignature(tx.R, tx.S, uint64(tx.V)),
		}, nil

	case DynamicFeeTxType:
		chainID, err := requireChainID(tx.ChainID)
		if err != nil {
			return nil, err
		}
		accessList, err := requireAccessList(tx.AccessList)
		if err != nil {
			return nil, err
		}
		if tx.MaxFeePerGas == nil {
			return nil, ErrMissingMaxFeePerGas
		}
		if tx.MaxPriorityFeePerGas == nil {
			return nil, ErrMissingMaxPriorityFeePerGas
		}
		return &DynamicFeeTransaction{
			ChainID:              chainID,
			TxNonce:              uint64(tx.Nonce),
			MaxPriorityFeePerGas: bigToU256(tx.MaxPriorityFeePerGas),
			MaxFeePerGas:         bigToU256(tx.MaxFeePerGas),
			TxGasLimit:           uint64(tx.Gas),
			TxKind:               kind,
			Value:                bigToU256(tx.Value),
			Input:                []byte(tx.Input),
			TxAccessList:         accessList,
			Signature:            typedSignature(tx.R, tx.S, uint64(tx.V)),
		}, nil

	default:
		return nil, &UnsupportedTypeError{Type: uint64(tx.TransactionType)}
	}
}

// ToInternalBlock converts an ExternalBlock into the internal Block, given a converter for its
// transaction element type. The first transaction conversion failure aborts the whole block and
// is forwarded, wrapped, to the caller.
func ToInternalBlock[TX any](b ExternalBlock[TX], convertTx func(TX) (SignedTransaction, error)) (*Block, error) {
	if b.Miner == nil {
		return nil, ErrMissingMiner
	}
	if b.Nonce == nil {
		return nil, ErrMissingNonce
	}

	txs := make([]SignedTransaction, 0, len(b.Transactions))
	hashes := make([]H256, 0, len(b.Transactions))
	for i, raw := range b.Transactions {
		converted, err := convertTx(raw)
		if err != nil {
			return nil, fmt.Errorf("converting transaction %d: %w", i, err)
		}
		txs = append(txs, converted)
		if hashed, ok := any(raw).(interface{ WireHash() H256 }); ok {
			hashes = append(hashes, hashed.WireHash())
		}
	}
	if len(hashes) != len(txs) {
		hashes = nil
	}

	block := &Block{
		Header: Header{
			ParentHash:       b.ParentHash,
			OmmersHash:       b.UnclesHash,
			Beneficiary:      *b.Miner,
			StateRoot:        b.StateRoot,
			TransactionsRoot: b.TransactionsRoot,
			ReceiptsRoot:     b.ReceiptsRoot,
			LogsBloom:        b.LogsBloom,
			Difficulty:       bigToU256(&b.Difficulty),
			Number:           bigToUint64((*big.Int)(&b.Number)),
			GasLimit:         bigToUint64((*big.Int)(&b.GasLimit)),
			GasUsed:          bigToUint64((*big.Int)(&b.GasUsed)),
			Timestamp:        bigToUint64((*big.Int)(&b.Timestamp)),
			ExtraData:        []byte(b.ExtraData),
			MixHash:          b.MixHash,
			Nonce:            *b.Nonce,
			BaseFeePerGas:    bigToU256(b.BaseFeePerGas),
			WithdrawalsRoot:  b.WithdrawalsRoot,
		},
		Transactions:      txs,
		TransactionHashes: hashes,
		// ommers are intentionally dropped regardless of the wire `uncles` list; see SPEC_FULL.md §9.
		Ommers: nil,
	}
	if b.Hash != nil {
		block.withHash(*b.Hash)
	}
	return block, nil
}

func destinationKind(to *A160) TransactionKind {
	if to != nil {
		return Call(*to)
	}
	return Create()
}

func requireChainID(v *hexBig) (U256, error) {
	if v == nil {
		return nil, ErrMissingChainID
	}
	return bigToU256(v), nil
}

func requireAccessList(v *[]ExternalAccessListItem) (AccessList, error) {
	if v == nil {
		return nil, ErrMissingAccessList
	}
	out := make(AccessList, len(*v))
	for i, item := range *v {
		out[i] = AccessListItem{Address: item.Address, StorageKeys: item.StorageKeys}
	}
	return out, nil
}

func typedSignature(r, s *hexBig, v uint64) TypedSignature {
	return TypedSignature{
		R:          bigToHash(r),
		S:          bigToHash(s),
		OddYParity: v != 0,
	}
}

// bigToU256 converts a wire hex-big value into a U256, treating a nil pointer as zero. Wire
// values are always well-formed 256-bit unsigned integers, so overflow cannot occur in practice;
// this core does not cryptographically validate remote data (out of scope) and trusts the RPC.
func bigToU256(v *hexBig) U256 {
	if v == nil {
		return new(uint256.Int)
	}
	u, _ := uint256.FromBig((*big.Int)(v))
	return u
}

// bigToHash reinterprets a 256-bit wire value as a 32-byte hash, as EIP-2930/EIP-1559 signatures
// do for r and s.
func bigToHash(v *hexBig) H256 {
	if v == nil {
		return H256{}
	}
	return common.BigToHash((*big.Int)(v))
}

// bigToUint64 narrows a wire hex-big value to a uint64. Block numbers, gas limits, gas used and
// timestamps fit in 64 bits for every chain this core targets.
func bigToUint64(v *big.Int) uint64 {
	if v == nil {
		return 0
	}
	return v.Uint64()
}
