package consensushashing

import (
	"testing"

	"github.com/viewledger/viewd/domain/consensus/model/externalapi"
)

func testAddress(b byte) *externalapi.Address {
	return externalapi.NewAddress(externalapi.AddressTagWallet, &[externalapi.AddressHashSize]byte{b})
}

func TestTransactionHashIgnoresMutableFields(t *testing.T) {
	transaction := &externalapi.Transaction{
		Type:      externalapi.TransactionTypePayment,
		From:      testAddress(1),
		To:        testAddress(2),
		Value:     10,
		MaxFee:    5,
		Timestamp: 1000,
		PublicKey: []byte{1, 2, 3},
	}
	hashBefore := TransactionHash(transaction)

	transaction.Signature = []byte{4, 5, 6}
	transaction.SpentFee = 3
	transaction.ExecutionResult = externalapi.ExecutionResultSuccess
	transaction.Effects = []*externalapi.Effect{{To: testAddress(3), Value: 1}}
	hashAfter := TransactionHash(transaction)
	if !hashBefore.Equal(hashAfter) {
		t.Fatalf("TestTransactionHashIgnoresMutableFields: hash changed from %s to %s", hashBefore, hashAfter)
	}

	transaction.Value = 11
	if TransactionHash(transaction).Equal(hashBefore) {
		t.Fatalf("TestTransactionHashIgnoresMutableFields: hash did not change when the value changed")
	}
}

func TestViewHashIgnoresRewards(t *testing.T) {
	view := &externalapi.View{
		ID:        3,
		Timestamp: 1000,
		LastHash:  externalapi.NewZeroHash(),
	}
	hashBefore := ViewHash(view)
	view.Rewards = []*externalapi.DomainHash{externalapi.NewZeroHash()}
	if !ViewHash(view).Equal(hashBefore) {
		t.Fatalf("TestViewHashIgnoresRewards: rewards changed the view hash")
	}
	view.Blocks = []*externalapi.DomainHash{externalapi.NewZeroHash()}
	if ViewHash(view).Equal(hashBefore) {
		t.Fatalf("TestViewHashIgnoresRewards: blocks did not change the view hash")
	}
}

func TestVoteSigningHashIgnoresSignature(t *testing.T) {
	vote := &externalapi.Vote{
		ViewHash:      externalapi.NewZeroHash(),
		PublicKey:     []byte{1, 2, 3},
		Stake:         100,
		RewardAddress: testAddress(9),
	}
	signingHash := VoteSigningHash(vote)
	identity := VoteHash(vote)

	vote.Signature = []byte{7, 7, 7}
	if !VoteSigningHash(vote).Equal(signingHash) {
		t.Fatalf("TestVoteSigningHashIgnoresSignature: the signature changed the signing hash")
	}
	if VoteHash(vote).Equal(identity) {
		t.Fatalf("TestVoteSigningHashIgnoresSignature: the signature did not change the vote hash")
	}
}

func TestAddresses(t *testing.T) {
	publicKey := []byte{1, 2, 3, 4}
	wallet := NewWalletAddress(publicKey)
	if wallet.IsContract() {
		t.Fatalf("TestAddresses: wallet address %s is tagged as a contract", wallet)
	}
	if !wallet.Equal(NewWalletAddress(publicKey)) {
		t.Fatalf("TestAddresses: wallet address derivation is not deterministic")
	}

	contract := NewContractAddress(externalapi.NewZeroHash())
	if !contract.IsContract() {
		t.Fatalf("TestAddresses: contract address %s is not tagged as a contract", contract)
	}
}
