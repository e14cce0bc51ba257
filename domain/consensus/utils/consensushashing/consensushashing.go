package consensushashing

import (
	"github.com/pkg/errors"
	"github.com/viewledger/viewd/domain/consensus/database/serialization"
	"github.com/viewledger/viewd/domain/consensus/model/externalapi"
	"github.com/viewledger/viewd/domain/consensus/utils/hashes"
)

func mustSerialize(dbObject interface{}) []byte {
	serialized, err := serialization.Serialize(dbObject)
	if err != nil {
		// Hashing preimages contain only byte strings and integers, which
		// always encode successfully
		panic(errors.Wrap(err, "this should never happen. hash preimages should always serialize"))
	}
	return serialized
}

// BlockHash returns the given block's hash. The nonce is part of the
// preimage, which makes the hash the block's proof-of-work.
func BlockHash(block *externalapi.Block) *externalapi.DomainHash {
	writer := hashes.NewBlockHashWriter()
	writer.InfallibleWrite(mustSerialize(serialization.BlockToDbBlock(block)))
	return writer.Finalize()
}

// VoteHash returns the identity hash of the given vote,
// signature included
func VoteHash(vote *externalapi.Vote) *externalapi.DomainHash {
	writer := hashes.NewVoteHashWriter()
	writer.InfallibleWrite(mustSerialize(serialization.VoteToDbVote(vote)))
	return writer.Finalize()
}

// VoteSigningHash returns the hash a validator signs when it casts the
// given vote
func VoteSigningHash(vote *externalapi.Vote) *externalapi.DomainHash {
	writer := hashes.NewVoteSigningHashWriter()
	writer.InfallibleWrite(mustSerialize(serialization.VoteToDbVotePreimage(vote)))
	return writer.Finalize()
}

// TransactionHash returns the identity hash of the given transaction.
// Only the fields set by the sender are hashed: the signature, the spent
// fee, the effects and the execution result are not part of it.
// The same hash is signed by the sender.
func TransactionHash(transaction *externalapi.Transaction) *externalapi.DomainHash {
	writer := hashes.NewTransactionHashWriter()
	writer.InfallibleWrite(mustSerialize(serialization.TransactionToDbTransactionPreimage(transaction)))
	return writer.Finalize()
}

// TransactionHashes returns the hashes of the given transactions
func TransactionHashes(transactions []*externalapi.Transaction) []*externalapi.DomainHash {
	transactionHashes := make([]*externalapi.DomainHash, len(transactions))
	for i, transaction := range transactions {
		transactionHashes[i] = TransactionHash(transaction)
	}
	return transactionHashes
}

// ViewHash returns the hash of the given view. Rewards are excluded
// since they are regenerated when the view commits.
func ViewHash(view *externalapi.View) *externalapi.DomainHash {
	writer := hashes.NewViewHashWriter()
	writer.InfallibleWrite(mustSerialize(serialization.ViewToDbViewPreimage(view)))
	return writer.Finalize()
}

// ContractCodeHash returns the hash of the given contract code
func ContractCodeHash(code []byte) *externalapi.DomainHash {
	writer := hashes.NewContractCodeHashWriter()
	writer.InfallibleWrite(code)
	return writer.Finalize()
}
