package serialization

import (
	"github.com/viewledger/viewd/domain/consensus/model/externalapi"
)

// DbVote is the serializable form of externalapi.Vote
type DbVote struct {
	_             struct{} `cbor:",toarray"`
	ViewHash      []byte
	PublicKey     []byte
	Stake         uint64
	RewardAddress []byte
	Signature     []byte
}

// VoteToDbVote converts a Vote to DbVote
func VoteToDbVote(vote *externalapi.Vote) *DbVote {
	return &DbVote{
		ViewHash:      DomainHashToDbHash(vote.ViewHash),
		PublicKey:     vote.PublicKey,
		Stake:         vote.Stake,
		RewardAddress: AddressToDbAddress(vote.RewardAddress),
		Signature:     vote.Signature,
	}
}

// VoteToDbVotePreimage converts a Vote to the DbVote its signature
// commits to.
func VoteToDbVotePreimage(vote *externalapi.Vote) *DbVote {
	dbVote := VoteToDbVote(vote)
	dbVote.Signature = nil
	return dbVote
}

// SerializeVote serializes the given vote
func SerializeVote(vote *externalapi.Vote) ([]byte, error) {
	return Serialize(VoteToDbVote(vote))
}

// DeserializeVote deserializes a vote serialized with SerializeVote
func DeserializeVote(voteBytes []byte) (*externalapi.Vote, error) {
	dbVote := &DbVote{}
	err := Deserialize(voteBytes, dbVote)
	if err != nil {
		return nil, err
	}
	viewHash, err := DbHashToDomainHash(dbVote.ViewHash)
	if err != nil {
		return nil, err
	}
	rewardAddress, err := DbAddressToAddress(dbVote.RewardAddress)
	if err != nil {
		return nil, err
	}
	return &externalapi.Vote{
		ViewHash:      viewHash,
		PublicKey:     dbVote.PublicKey,
		Stake:         dbVote.Stake,
		RewardAddress: rewardAddress,
		Signature:     dbVote.Signature,
	}, nil
}
