package serialization

import (
	"github.com/viewledger/viewd/domain/consensus/model/externalapi"
)

// DbEffect is the serializable form of externalapi.Effect
type DbEffect struct {
	_            struct{} `cbor:",toarray"`
	From         []byte
	To           []byte
	Value        uint64
	Contract     []byte
	TokenID      []byte
	ConsumeToken bool
}

// DbTransaction is the serializable form of externalapi.Transaction
type DbTransaction struct {
	_               struct{} `cbor:",toarray"`
	Type            uint8
	From            []byte
	To              []byte
	Value           uint64
	MaxFee          uint64
	SpentFee        uint64
	Timestamp       int64
	Data            []byte
	PublicKey       []byte
	Signature       []byte
	Effects         []*DbEffect
	ExecutionResult uint8
}

// DbTransactionPreimage holds the immutable fields of a transaction.
// Transaction hashes and signatures are calculated over it.
type DbTransactionPreimage struct {
	_         struct{} `cbor:",toarray"`
	Type      uint8
	From      []byte
	To        []byte
	Value     uint64
	MaxFee    uint64
	Timestamp int64
	Data      []byte
	PublicKey []byte
}

// TransactionToDbTransactionPreimage extracts the immutable part of tx
func TransactionToDbTransactionPreimage(tx *externalapi.Transaction) *DbTransactionPreimage {
	return &DbTransactionPreimage{
		Type:      uint8(tx.Type),
		From:      AddressToDbAddress(tx.From),
		To:        AddressToDbAddress(tx.To),
		Value:     tx.Value,
		MaxFee:    tx.MaxFee,
		Timestamp: tx.Timestamp,
		Data:      tx.Data,
		PublicKey: tx.PublicKey,
	}
}

// SerializeTransaction serializes the given transaction
func SerializeTransaction(tx *externalapi.Transaction) ([]byte, error) {
	dbEffects := make([]*DbEffect, len(tx.Effects))
	for i, effect := range tx.Effects {
		dbEffects[i] = &DbEffect{
			From:         AddressToDbAddress(effect.From),
			To:           AddressToDbAddress(effect.To),
			Value:        effect.Value,
			Contract:     AddressToDbAddress(effect.Contract),
			TokenID:      DomainHashToDbHash(effect.TokenID),
			ConsumeToken: effect.ConsumeToken,
		}
	}
	return Serialize(&DbTransaction{
		Type:            uint8(tx.Type),
		From:            AddressToDbAddress(tx.From),
		To:              AddressToDbAddress(tx.To),
		Value:           tx.Value,
		MaxFee:          tx.MaxFee,
		SpentFee:        tx.SpentFee,
		Timestamp:       tx.Timestamp,
		Data:            tx.Data,
		PublicKey:       tx.PublicKey,
		Signature:       tx.Signature,
		Effects:         dbEffects,
		ExecutionResult: uint8(tx.ExecutionResult),
	})
}

// DeserializeTransaction deserializes a transaction serialized with SerializeTransaction
func DeserializeTransaction(txBytes []byte) (*externalapi.Transaction, error) {
	dbTx := &DbTransaction{}
	err := Deserialize(txBytes, dbTx)
	if err != nil {
		return nil, err
	}
	from, err := DbAddressToAddress(dbTx.From)
	if err != nil {
		return nil, err
	}
	to, err := DbAddressToAddress(dbTx.To)
	if err != nil {
		return nil, err
	}
	var effects []*externalapi.Effect
	if len(dbTx.Effects) > 0 {
		effects = make([]*externalapi.Effect, len(dbTx.Effects))
		for i, dbEffect := range dbTx.Effects {
			effects[i], err = dbEffectToEffect(dbEffect)
			if err != nil {
				return nil, err
			}
		}
	}
	return &externalapi.Transaction{
		Type:            externalapi.TransactionType(dbTx.Type),
		From:            from,
		To:              to,
		Value:           dbTx.Value,
		MaxFee:          dbTx.MaxFee,
		SpentFee:        dbTx.SpentFee,
		Timestamp:       dbTx.Timestamp,
		Data:            dbTx.Data,
		PublicKey:       dbTx.PublicKey,
		Signature:       dbTx.Signature,
		Effects:         effects,
		ExecutionResult: externalapi.ExecutionResult(dbTx.ExecutionResult),
	}, nil
}

func dbEffectToEffect(dbEffect *DbEffect) (*externalapi.Effect, error) {
	from, err := DbAddressToAddress(dbEffect.From)
	if err != nil {
		return nil, err
	}
	to, err := DbAddressToAddress(dbEffect.To)
	if err != nil {
		return nil, err
	}
	contract, err := DbAddressToAddress(dbEffect.Contract)
	if err != nil {
		return nil, err
	}
	tokenID, err := DbHashToDomainHash(dbEffect.TokenID)
	if err != nil {
		return nil, err
	}
	return &externalapi.Effect{
		From:         from,
		To:           to,
		Value:        dbEffect.Value,
		Contract:     contract,
		TokenID:      tokenID,
		ConsumeToken: dbEffect.ConsumeToken,
	}, nil
}
