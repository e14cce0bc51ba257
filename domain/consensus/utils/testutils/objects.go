package testutils

import (
	"github.com/viewledger/viewd/domain/consensus/model/externalapi"
	"github.com/viewledger/viewd/domain/consensus/utils/signing"
)

// SignedTransaction fills the sender and public key of transaction
// from KeyPair(keyIndex) and signs it
func SignedTransaction(keyIndex int, transaction *externalapi.Transaction) *externalapi.Transaction {
	transaction.From = Address(keyIndex)
	err := signing.SignTransaction(transaction, KeyPair(keyIndex))
	if err != nil {
		panic(err)
	}
	return transaction
}

// Payment returns a signed payment of value from key keyIndex to to,
// due at timestamp
func Payment(keyIndex int, to *externalapi.Address, value uint64, maxFee uint64,
	timestamp int64) *externalapi.Transaction {

	return SignedTransaction(keyIndex, &externalapi.Transaction{
		Type:      externalapi.TransactionTypePayment,
		To:        to,
		Value:     value,
		MaxFee:    maxFee,
		Timestamp: timestamp,
	})
}

// Vote returns the vote of key keyIndex for viewHash, signed
func Vote(keyIndex int, viewHash *externalapi.DomainHash, stake uint64) *externalapi.Vote {
	return VoteWithRewardAddress(keyIndex, viewHash, stake, Address(keyIndex))
}

// VoteWithRewardAddress returns a vote signed by the key at keyIndex
// that pays its rewards to rewardAddress
func VoteWithRewardAddress(keyIndex int, viewHash *externalapi.DomainHash, stake uint64,
	rewardAddress *externalapi.Address) *externalapi.Vote {

	vote := &externalapi.Vote{
		ViewHash:      viewHash,
		Stake:         stake,
		RewardAddress: rewardAddress,
	}
	err := signing.SignVote(vote, KeyPair(keyIndex))
	if err != nil {
		panic(err)
	}
	return vote
}
