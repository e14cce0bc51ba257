package apimodel

import (
	"math/big"
	"testing"

	"github.com/davecgh/go-spew/spew"
	"github.com/viewledger/viewd/domain/consensus/model/externalapi"
	"github.com/viewledger/viewd/domain/consensus/utils/consensushashing"
	"github.com/viewledger/viewd/domain/consensus/utils/testutils"
)

func TestTransactionConversionKeepsHash(t *testing.T) {
	transaction := testutils.SignedTransaction(0, &externalapi.Transaction{
		Type:      externalapi.TransactionTypePayment,
		To:        testutils.Address(1),
		Value:     500,
		MaxFee:    10,
		Timestamp: 1767225600000,
		Data:      []byte{1, 2, 3},
	})

	apiTransaction := DomainTransactionToTransaction(transaction)
	converted, err := TransactionToDomainTransaction(apiTransaction)
	if err != nil {
		t.Fatalf("TransactionToDomainTransaction: %+v", err)
	}
	if !converted.Equal(transaction) {
		t.Fatalf("TestTransactionConversionKeepsHash: converted transaction differs.\nexpected: %s\ngot: %s",
			spew.Sdump(transaction), spew.Sdump(converted))
	}
	if consensushashing.TransactionHash(converted).String() != apiTransaction.Hash {
		t.Fatalf("TestTransactionConversionKeepsHash: expected hash %s but got %s",
			apiTransaction.Hash, consensushashing.TransactionHash(converted))
	}
}

func TestVoteConversionKeepsHash(t *testing.T) {
	viewHash := externalapi.NewDomainHashFromByteArray(&[externalapi.DomainHashSize]byte{7})
	vote := testutils.Vote(1, viewHash, 1000)

	apiVote := DomainVoteToVote(vote)
	converted, err := VoteToDomainVote(apiVote)
	if err != nil {
		t.Fatalf("VoteToDomainVote: %+v", err)
	}
	if !converted.Equal(vote) {
		t.Fatalf("TestVoteConversionKeepsHash: converted vote differs.\nexpected: %s\ngot: %s",
			spew.Sdump(vote), spew.Sdump(converted))
	}
	if consensushashing.VoteHash(converted).String() != apiVote.Hash {
		t.Fatalf("TestVoteConversionKeepsHash: expected hash %s but got %s",
			apiVote.Hash, consensushashing.VoteHash(converted))
	}
}

func TestConversionErrors(t *testing.T) {
	tests := []struct {
		name        string
		transaction *Transaction
	}{
		{
			name:        "unknown type",
			transaction: &Transaction{Type: "MINT", From: testutils.Address(0).String()},
		},
		{
			name:        "bad address",
			transaction: &Transaction{Type: "PAYMENT", From: "notanaddress"},
		},
		{
			name:        "bad data",
			transaction: &Transaction{Type: "PAYMENT", From: testutils.Address(0).String(), Data: "xyz"},
		},
	}
	for _, test := range tests {
		_, err := TransactionToDomainTransaction(test.transaction)
		if err == nil {
			t.Errorf("%s: expected an error", test.name)
		}
	}

	_, err := BlockToDomainBlock(&Block{To: testutils.Address(0).String(), LastHash: "abcd"})
	if err == nil {
		t.Fatalf("TestConversionErrors: expected an error for a short last hash")
	}
}

func TestDomainChainStateToChainState(t *testing.T) {
	chainState := &externalapi.ChainState{
		ID:        4,
		ViewHash:  externalapi.NewZeroHash(),
		Weight:    big.NewInt(123456),
		TotalWork: big.NewInt(42),
	}
	apiChainState := DomainChainStateToChainState(chainState)
	if apiChainState.Weight != "123456" || apiChainState.TotalWork != "42" {
		t.Fatalf("TestDomainChainStateToChainState: unexpected big integers: %s", spew.Sdump(apiChainState))
	}
	if apiChainState.ViewHash != externalapi.NewZeroHash().String() {
		t.Fatalf("TestDomainChainStateToChainState: unexpected view hash %s", apiChainState.ViewHash)
	}
}
