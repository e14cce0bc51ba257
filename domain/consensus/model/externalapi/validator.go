package externalapi

import "bytes"

// Validator is a registered staking node
type Validator struct {
	NodeAddress      *Address
	RewardAddress    *Address
	PublicKey        []byte
	Stake            uint64
	Active           bool
	LastActiveHeight int64
}

// Clone returns a clone of Validator
func (validator *Validator) Clone() *Validator {
	if validator == nil {
		return nil
	}
	return &Validator{
		NodeAddress:      validator.NodeAddress,
		RewardAddress:    validator.RewardAddress,
		PublicKey:        cloneBytes(validator.PublicKey),
		Stake:            validator.Stake,
		Active:           validator.Active,
		LastActiveHeight: validator.LastActiveHeight,
	}
}

// If this doesn't compile, it means the type definition has been changed, so it's
// an indication to update Equal and Clone accordingly.
var _ = Validator{&Address{}, &Address{}, []byte{}, 0, false, 0}

// Equal returns whether validator equals to other
func (validator *Validator) Equal(other *Validator) bool {
	if validator == nil || other == nil {
		return validator == other
	}
	return validator.NodeAddress.Equal(other.NodeAddress) &&
		validator.RewardAddress.Equal(other.RewardAddress) &&
		bytes.Equal(validator.PublicKey, other.PublicKey) &&
		validator.Stake == other.Stake &&
		validator.Active == other.Active &&
		validator.LastActiveHeight == other.LastActiveHeight
}
