package externalapi

import (
	"bytes"
	"fmt"
)

// TransactionType is the kind of a transaction
type TransactionType uint8

// These are the supported transaction types
const (
	TransactionTypePayment TransactionType = iota
	TransactionTypeContract
	TransactionTypeBlockReward
	TransactionTypeStakeReward
	TransactionTypeDevReward
	TransactionTypeRegisterValidator
	TransactionTypeDeregisterValidator
)

var transactionTypeStrings = map[TransactionType]string{
	TransactionTypePayment:             "PAYMENT",
	TransactionTypeContract:            "CONTRACT",
	TransactionTypeBlockReward:         "BLOCK_REWARD",
	TransactionTypeStakeReward:         "STAKE_REWARD",
	TransactionTypeDevReward:           "DEV_REWARD",
	TransactionTypeRegisterValidator:   "REGISTER_VALIDATOR",
	TransactionTypeDeregisterValidator: "DEREGISTER_VALIDATOR",
}

func (transactionType TransactionType) String() string {
	if str, ok := transactionTypeStrings[transactionType]; ok {
		return str
	}
	return fmt.Sprintf("UNKNOWN(%d)", uint8(transactionType))
}

// IsReward returns whether transactions of this type are minted
// by the state machine rather than submitted by users
func (transactionType TransactionType) IsReward() bool {
	return transactionType == TransactionTypeBlockReward ||
		transactionType == TransactionTypeStakeReward ||
		transactionType == TransactionTypeDevReward
}

// ExecutionResult is the outcome of executing a transaction
type ExecutionResult uint8

// These are the possible execution results
const (
	ExecutionResultPending ExecutionResult = iota
	ExecutionResultSuccess
	ExecutionResultTooLowBalance
	ExecutionResultInvalidContract
	ExecutionResultInvalidValidator
	ExecutionResultInvalidToken
	ExecutionResultTooLowFee
)

var executionResultStrings = map[ExecutionResult]string{
	ExecutionResultPending:          "PENDING",
	ExecutionResultSuccess:          "SUCCESS",
	ExecutionResultTooLowBalance:    "TOO_LOW_BALANCE",
	ExecutionResultInvalidContract:  "INVALID_CONTRACT",
	ExecutionResultInvalidValidator: "INVALID_VALIDATOR",
	ExecutionResultInvalidToken:     "INVALID_TOKEN",
	ExecutionResultTooLowFee:        "TOO_LOW_FEE",
}

func (result ExecutionResult) String() string {
	if str, ok := executionResultStrings[result]; ok {
		return str
	}
	return fmt.Sprintf("UNKNOWN(%d)", uint8(result))
}

// Transaction is the only unit that moves ledger value
type Transaction struct {
	Type      TransactionType
	From      *Address
	To        *Address
	Value     uint64
	MaxFee    uint64
	SpentFee  uint64
	Timestamp int64
	Data      []byte
	PublicKey []byte
	Signature []byte

	Effects         []*Effect
	ExecutionResult ExecutionResult
}

// IsDue returns whether the transaction may be settled in a view
// with the given timestamp
func (tx *Transaction) IsDue(viewTimestamp int64) bool {
	return tx.Timestamp <= viewTimestamp
}

// Clone returns a clone of Transaction
func (tx *Transaction) Clone() *Transaction {
	if tx == nil {
		return nil
	}
	var effectsClone []*Effect
	if tx.Effects != nil {
		effectsClone = make([]*Effect, len(tx.Effects))
		for i, effect := range tx.Effects {
			effectsClone[i] = effect.Clone()
		}
	}

	return &Transaction{
		Type:            tx.Type,
		From:            tx.From,
		To:              tx.To,
		Value:           tx.Value,
		MaxFee:          tx.MaxFee,
		SpentFee:        tx.SpentFee,
		Timestamp:       tx.Timestamp,
		Data:            cloneBytes(tx.Data),
		PublicKey:       cloneBytes(tx.PublicKey),
		Signature:       cloneBytes(tx.Signature),
		Effects:         effectsClone,
		ExecutionResult: tx.ExecutionResult,
	}
}

// If this doesn't compile, it means the type definition has been changed, so it's
// an indication to update Equal and Clone accordingly.
var _ = Transaction{0, &Address{}, &Address{}, 0, 0, 0, 0, []byte{}, []byte{},
	[]byte{}, []*Effect{}, 0}

// Equal returns whether tx equals to other
func (tx *Transaction) Equal(other *Transaction) bool {
	if tx == nil || other == nil {
		return tx == other
	}
	if len(tx.Effects) != len(other.Effects) {
		return false
	}
	for i, effect := range tx.Effects {
		if !effect.Equal(other.Effects[i]) {
			return false
		}
	}
	return tx.Type == other.Type &&
		tx.From.Equal(other.From) &&
		tx.To.Equal(other.To) &&
		tx.Value == other.Value &&
		tx.MaxFee == other.MaxFee &&
		tx.SpentFee == other.SpentFee &&
		tx.Timestamp == other.Timestamp &&
		bytes.Equal(tx.Data, other.Data) &&
		bytes.Equal(tx.PublicKey, other.PublicKey) &&
		bytes.Equal(tx.Signature, other.Signature) &&
		tx.ExecutionResult == other.ExecutionResult
}

// Effect is a contract-generated sub-transfer attached to a transaction.
// Value moves from Contract to To. TokenID, if set, moves token
// ownership from From to To.
type Effect struct {
	From         *Address
	To           *Address
	Value        uint64
	Contract     *Address
	TokenID      *DomainHash
	ConsumeToken bool
}

// Clone returns a clone of Effect
func (effect *Effect) Clone() *Effect {
	if effect == nil {
		return nil
	}
	return &Effect{
		From:         effect.From,
		To:           effect.To,
		Value:        effect.Value,
		Contract:     effect.Contract,
		TokenID:      effect.TokenID,
		ConsumeToken: effect.ConsumeToken,
	}
}

// If this doesn't compile, it means the type definition has been changed, so it's
// an indication to update Equal and Clone accordingly.
var _ = Effect{&Address{}, &Address{}, 0, &Address{}, &DomainHash{}, false}

// Equal returns whether effect equals to other
func (effect *Effect) Equal(other *Effect) bool {
	if effect == nil || other == nil {
		return effect == other
	}
	return effect.From.Equal(other.From) &&
		effect.To.Equal(other.To) &&
		effect.Value == other.Value &&
		effect.Contract.Equal(other.Contract) &&
		effect.TokenID.Equal(other.TokenID) &&
		effect.ConsumeToken == other.ConsumeToken
}
