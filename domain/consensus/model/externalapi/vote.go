package externalapi

import "bytes"

// Vote is a stake attestation of a validator for a view
type Vote struct {
	ViewHash      *DomainHash
	PublicKey     []byte
	Stake         uint64
	RewardAddress *Address
	Signature     []byte
}

// Clone returns a clone of Vote
func (vote *Vote) Clone() *Vote {
	if vote == nil {
		return nil
	}
	return &Vote{
		ViewHash:      vote.ViewHash,
		PublicKey:     cloneBytes(vote.PublicKey),
		Stake:         vote.Stake,
		RewardAddress: vote.RewardAddress,
		Signature:     cloneBytes(vote.Signature),
	}
}

// If this doesn't compile, it means the type definition has been changed, so it's
// an indication to update Equal and Clone accordingly.
var _ = Vote{&DomainHash{}, []byte{}, 0, &Address{}, []byte{}}

// Equal returns whether vote equals to other
func (vote *Vote) Equal(other *Vote) bool {
	if vote == nil || other == nil {
		return vote == other
	}
	return vote.ViewHash.Equal(other.ViewHash) &&
		bytes.Equal(vote.PublicKey, other.PublicKey) &&
		vote.Stake == other.Stake &&
		vote.RewardAddress.Equal(other.RewardAddress) &&
		bytes.Equal(vote.Signature, other.Signature)
}

func cloneBytes(data []byte) []byte {
	if data == nil {
		return nil
	}
	clone := make([]byte, len(data))
	copy(clone, data)
	return clone
}
