package serialization

import (
	"github.com/viewledger/viewd/domain/consensus/model/externalapi"
)

// DbValidator is the serializable form of externalapi.Validator
type DbValidator struct {
	_                struct{} `cbor:",toarray"`
	NodeAddress      []byte
	RewardAddress    []byte
	PublicKey        []byte
	Stake            uint64
	Active           bool
	LastActiveHeight int64
}

// SerializeValidator serializes the given validator
func SerializeValidator(validator *externalapi.Validator) ([]byte, error) {
	return Serialize(&DbValidator{
		NodeAddress:      AddressToDbAddress(validator.NodeAddress),
		RewardAddress:    AddressToDbAddress(validator.RewardAddress),
		PublicKey:        validator.PublicKey,
		Stake:            validator.Stake,
		Active:           validator.Active,
		LastActiveHeight: validator.LastActiveHeight,
	})
}

// DeserializeValidator deserializes a validator serialized with SerializeValidator
func DeserializeValidator(validatorBytes []byte) (*externalapi.Validator, error) {
	dbValidator := &DbValidator{}
	err := Deserialize(validatorBytes, dbValidator)
	if err != nil {
		return nil, err
	}
	nodeAddress, err := DbAddressToAddress(dbValidator.NodeAddress)
	if err != nil {
		return nil, err
	}
	rewardAddress, err := DbAddressToAddress(dbValidator.RewardAddress)
	if err != nil {
		return nil, err
	}
	return &externalapi.Validator{
		NodeAddress:      nodeAddress,
		RewardAddress:    rewardAddress,
		PublicKey:        dbValidator.PublicKey,
		Stake:            dbValidator.Stake,
		Active:           dbValidator.Active,
		LastActiveHeight: dbValidator.LastActiveHeight,
	}, nil
}
