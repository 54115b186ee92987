package eth

// TransactionKind is the destination of a transaction: a call into an existing account, or the
// creation of a new contract account.
type TransactionKind struct {
	// To is the callee. Zero (and meaningless) when IsCreate is true.
	To A160
	// IsCreate is true for a contract-creation transaction.
	IsCreate bool
}

// Call returns the Call(to) variant of TransactionKind.
func Call(to A160) TransactionKind {
	return TransactionKind{To: to}
}

// Create returns the Create variant of TransactionKind.
func Create() TransactionKind {
	return TransactionKind{IsCreate: true}
}

// TransactionType discriminates the three supported transaction envelopes.
type TransactionType uint64

const (
	LegacyTxType   TransactionType = 0
	AccessListTxType TransactionType = 1
	DynamicFeeTxType TransactionType = 2
)

// Signature is a Legacy-style ECDSA signature, where V carries the full recovery/chain-replay
// encoding rather than a bare parity bit.
type Signature struct {
	R U256
	S U256
	V uint64
}

// TypedSignature is the (r, s, odd_y_parity) signature shape shared by EIP-2930 and EIP-1559
// transactions: r and s are reinterpreted as 32-byte hashes rather than arbitrary-width integers,
// and v collapses to a single recovery-id bit.
type TypedSignature struct {
	R           H256
	S           H256
	OddYParity  bool
}

// AccessListItem is one (address, storage keys) pair of an EIP-2930 access list.
type AccessListItem struct {
	Address     A160
	StorageKeys []H256
}

// AccessList is an ordered set of access list entries. An absent access list and an empty one are
// distinct on the wire (absent vs. `[]`): for typed transactions an absent one fails conversion
// with ErrMissingAccessList, while `[]` converts to an empty AccessList.
type AccessList []AccessListItem

// SignedTransaction is the tagged-variant sum type over the three envelopes this core supports.
// It is modeled as an interface with three implementations rather than one field-optional struct,
// so the converter remains the single site that can construct an invalid combination of fields.
type SignedTransaction interface {
	// Type reports which wire envelope produced this transaction.
	Type() TransactionType
	// Kind reports the Call/Create destination.
	Kind() TransactionKind
	// Nonce is the sender-scoped transaction sequence number.
	Nonce() uint64
	// GasLimit is the maximum gas this transaction may consume.
	GasLimit() uint64
}

// LegacyTransaction is the pre-EIP-2718 envelope: a flat gas price, no chain id, no access list.
type LegacyTransaction struct {
	TxNonce    uint64
	GasPrice   U256
	TxGasLimit uint64
	TxKind     TransactionKind
	Value      U256
	Input      []byte
	Signature  Signature
}

func (t *LegacyTransaction) Type() TransactionType   { return LegacyTxType }
func (t *LegacyTransaction) Kind() TransactionKind   { return t.TxKind }
func (t *LegacyTransaction) Nonce() uint64           { return t.TxNonce }
func (t *LegacyTransaction) GasLimit() uint64        { return t.TxGasLimit }

// AccessListTransaction is the EIP-2930 envelope: adds a chain id and access list on top of the
// legacy fields, and narrows the signature to (r, s, odd_y_parity).
type AccessListTransaction struct {
	ChainID    U256
	TxNonce    uint64
	GasPrice   U256
	TxGasLimit uint64
	TxKind     TransactionKind
	Value      U256
	Input      []byte
	TxAccessList AccessList
	Signature  TypedSignature
}

func (t *AccessListTransaction) Type() TransactionType { return AccessListTxType }
func (t *AccessListTransaction) Kind() TransactionKind { return t.TxKind }
func (t *AccessListTransaction) Nonce() uint64         { return t.TxNonce }
func (t *AccessListTransaction) GasLimit() uint64      { return t.TxGasLimit }

// DynamicFeeTransaction is the EIP-1559 envelope: replaces the flat gas price with a priority-fee
// / max-fee pair, on top of the same chain id, access list and signature shape as AccessListTransaction.
type DynamicFeeTransaction struct {
	ChainID               U256
	TxNonce               uint64
	MaxPriorityFeePerGas  U256
	MaxFeePerGas          U256
	TxGasLimit            uint64
	TxKind                TransactionKind
	Value                 U256
	Input                 []byte
	TxAccessList          AccessList
	Signature             TypedSignature
}

func (t *DynamicFeeTransaction) Type() TransactionType { return DynamicFeeTxType }
func (t *DynamicFeeTransaction) Kind() TransactionKind { return t.TxKind }
func (t *DynamicFeeTransaction) Nonce() uint64         { return t.TxNonce }
func (t *DynamicFeeTransaction) GasLimit() uint64      { return t.TxGasLimit }

var (
	_ SignedTransaction = (*LegacyTransaction)(nil)
	_ SignedTransaction = (*AccessListTransaction)(nil)
	_ SignedTransaction = (*DynamicFeeTransaction)(nil)
)
