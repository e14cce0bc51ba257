package serialization

import (
	"bytes"
	"math/big"
	"testing"

	"github.com/davecgh/go-spew/spew"
	"github.com/viewledger/viewd/domain/consensus/model/externalapi"
)

func TestTransactionSerialization(t *testing.T) {
	contract := externalapi.NewAddress(externalapi.AddressTagContract, &[externalapi.AddressHashSize]byte{1})
	wallet := externalapi.NewAddress(externalapi.AddressTagWallet, &[externalapi.AddressHashSize]byte{2})
	tx := &externalapi.Transaction{
		Type:      externalapi.TransactionTypeContract,
		From:      wallet,
		To:        contract,
		Value:     10,
		MaxFee:    2,
		SpentFee:  1,
		Timestamp: 1000,
		Data:      []byte("call"),
		Effects: []*externalapi.Effect{{
			From:     contract,
			To:       wallet,
			Value:    3,
			Contract: contract,
			TokenID:  externalapi.NewDomainHashFromByteArray(&[externalapi.DomainHashSize]byte{9}),
		}},
		ExecutionResult: externalapi.ExecutionResultSuccess,
	}

	serialized, err := SerializeTransaction(tx)
	if err != nil {
		t.Fatalf("SerializeTransaction: %s", err)
	}
	deserialized, err := DeserializeTransaction(serialized)
	if err != nil {
		t.Fatalf("DeserializeTransaction: %s", err)
	}
	if !deserialized.Equal(tx) {
		t.Fatalf("TestTransactionSerialization: deserialized transaction is different "+
			"from the original.\nWant: %s\nGot: %s", spew.Sdump(tx), spew.Sdump(deserialized))
	}
}

func TestTransactionPreimageExcludesMutableFields(t *testing.T) {
	tx := &externalapi.Transaction{
		Type:  externalapi.TransactionTypePayment,
		From:  externalapi.NewAddress(externalapi.AddressTagWallet, &[externalapi.AddressHashSize]byte{1}),
		To:    externalapi.NewAddress(externalapi.AddressTagWallet, &[externalapi.AddressHashSize]byte{2}),
		Value: 5,
	}
	before, err := Serialize(TransactionToDbTransactionPreimage(tx))
	if err != nil {
		t.Fatalf("Serialize: %s", err)
	}

	tx.SpentFee = 1
	tx.Signature = []byte{1, 2, 3}
	tx.ExecutionResult = externalapi.ExecutionResultTooLowBalance
	after, err := Serialize(TransactionToDbTransactionPreimage(tx))
	if err != nil {
		t.Fatalf("Serialize: %s", err)
	}
	if !bytes.Equal(before, after) {
		t.Fatalf("TestTransactionPreimageExcludesMutableFields: preimage " +
			"changed after modifying mutable fields")
	}
}

func TestChainStateSerialization(t *testing.T) {
	state := &externalapi.ChainState{
		ID:                  7,
		ViewHash:            externalapi.NewDomainHashFromByteArray(&[externalapi.DomainHashSize]byte{7}),
		Weight:              new(big.Int).Lsh(big.NewInt(1), 200),
		CurrentDifficulty:   0x1d00ffff,
		TotalActiveStake:    300,
		TotalWork:           big.NewInt(0),
		CollectedFees:       4,
		BlockReward:         50,
		LastFinalizedHeight: 6,
		Timestamp:           12345,
	}
	serialized, err := SerializeChainState(state)
	if err != nil {
		t.Fatalf("SerializeChainState: %s", err)
	}
	deserialized, err := DeserializeChainState(serialized)
	if err != nil {
		t.Fatalf("DeserializeChainState: %s", err)
	}
	if !deserialized.Equal(state) {
		t.Fatalf("TestChainStateSerialization: deserialized chain state is different "+
			"from the original.\nWant: %s\nGot: %s", spew.Sdump(state), spew.Sdump(deserialized))
	}
}
