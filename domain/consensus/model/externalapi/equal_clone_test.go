package externalapi

import (
	"math/big"
	"testing"
)

func testAddress(b byte) *Address {
	return NewAddress(AddressTagWallet, &[AddressHashSize]byte{b})
}

func testHash(b byte) *DomainHash {
	return NewDomainHashFromByteArray(&[DomainHashSize]byte{b})
}

func TestLedger_EqualClone(t *testing.T) {
	base := &Ledger{Address: testAddress(1), Balance: 2, Pending: 3}
	tests := []struct {
		ledger         *Ledger
		expectedResult bool
	}{
		{&Ledger{Address: testAddress(1), Balance: 2, Pending: 3}, true},
		{&Ledger{Address: testAddress(2), Balance: 2, Pending: 3}, false},
		{&Ledger{Address: testAddress(1), Balance: 3, Pending: 3}, false},
		{&Ledger{Address: testAddress(1), Balance: 2, Pending: 4}, false},
		{nil, false},
	}
	for i, test := range tests {
		if result := base.Equal(test.ledger); result != test.expectedResult {
			t.Fatalf("Test #%d: Expected %t but got %t", i, test.expectedResult, result)
		}
	}
	if !base.Clone().Equal(base) {
		t.Fatalf("TestLedger_EqualClone: clone should be equal to the original")
	}
}

func TestValidator_EqualClone(t *testing.T) {
	base := &Validator{
		NodeAddress:      testAddress(1),
		RewardAddress:    testAddress(2),
		PublicKey:        []byte{3},
		Stake:            4,
		Active:           true,
		LastActiveHeight: 5,
	}
	clone := base.Clone()
	if !clone.Equal(base) {
		t.Fatalf("TestValidator_EqualClone: clone should be equal to the original")
	}
	clone.PublicKey[0] = 4
	if base.PublicKey[0] != 3 {
		t.Fatalf("TestValidator_EqualClone: modifying the clone changed the original")
	}
	if clone.Equal(base) {
		t.Fatalf("TestValidator_EqualClone: validators with different " +
			"public keys are unexpectedly equal")
	}
}

func TestChainState_EqualClone(t *testing.T) {
	base := &ChainState{
		ID:                1,
		ViewHash:          testHash(1),
		Weight:            big.NewInt(100),
		CurrentDifficulty: 0x207fffff,
		TotalWork:         big.NewInt(50),
		LedgerCommitment:  []byte{1, 2, 3},
	}
	clone := base.Clone()
	if !clone.Equal(base) {
		t.Fatalf("TestChainState_EqualClone: clone should be equal to the original")
	}
	clone.Weight.SetInt64(101)
	if base.Weight.Int64() != 100 {
		t.Fatalf("TestChainState_EqualClone: modifying the clone changed the original")
	}
	if clone.Equal(base) {
		t.Fatalf("TestChainState_EqualClone: states with different " +
			"weights are unexpectedly equal")
	}
}

func TestView_EqualClone(t *testing.T) {
	base := &View{
		ID:           3,
		Timestamp:    4,
		LastHash:     testHash(1),
		Blocks:       []*DomainHash{testHash(2)},
		Votes:        []*DomainHash{testHash(3)},
		Transactions: []*DomainHash{testHash(4), testHash(5)},
	}
	clone := base.Clone()
	if !clone.Equal(base) {
		t.Fatalf("TestView_EqualClone: clone should be equal to the original")
	}
	clone.Transactions[0] = testHash(6)
	if !base.Transactions[0].Equal(testHash(4)) {
		t.Fatalf("TestView_EqualClone: modifying the clone changed the original")
	}
	if clone.Equal(base) {
		t.Fatalf("TestView_EqualClone: views with different " +
			"transactions are unexpectedly equal")
	}
}

func TestTransaction_EqualClone(t *testing.T) {
	base := &Transaction{
		Type:      TransactionTypeContract,
		From:      testAddress(1),
		To:        testAddress(2),
		Value:     3,
		MaxFee:    4,
		Timestamp: 5,
		Data:      []byte{6},
		Effects: []*Effect{{
			From:     testAddress(2),
			To:       testAddress(1),
			Value:    1,
			Contract: testAddress(2),
			TokenID:  testHash(7),
		}},
		ExecutionResult: ExecutionResultSuccess,
	}
	clone := base.Clone()
	if !clone.Equal(base) {
		t.Fatalf("TestTransaction_EqualClone: clone should be equal to the original")
	}
	clone.Effects[0].ConsumeToken = true
	if base.Effects[0].ConsumeToken {
		t.Fatalf("TestTransaction_EqualClone: modifying the clone changed the original")
	}
	if clone.Equal(base) {
		t.Fatalf("TestTransaction_EqualClone: transactions with different " +
			"effects are unexpectedly equal")
	}
}
