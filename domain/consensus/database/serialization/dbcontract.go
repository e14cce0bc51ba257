package serialization

import (
	"github.com/viewledger/viewd/domain/consensus/model/externalapi"
)

// DbContract is the serializable form of externalapi.Contract
type DbContract struct {
	_        struct{} `cbor:",toarray"`
	Address  []byte
	Owner    []byte
	CodeHash []byte
	Height   uint64
}

// SerializeContract serializes the given contract
func SerializeContract(contract *externalapi.Contract) ([]byte, error) {
	return Serialize(&DbContract{
		Address:  AddressToDbAddress(contract.Address),
		Owner:    AddressToDbAddress(contract.Owner),
		CodeHash: DomainHashToDbHash(contract.CodeHash),
		Height:   contract.Height,
	})
}

// DeserializeContract deserializes a contract serialized with SerializeContract
func DeserializeContract(contractBytes []byte) (*externalapi.Contract, error) {
	dbContract := &DbContract{}
	err := Deserialize(contractBytes, dbContract)
	if err != nil {
		return nil, err
	}
	address, err := DbAddressToAddress(dbContract.Address)
	if err != nil {
		return nil, err
	}
	owner, err := DbAddressToAddress(dbContract.Owner)
	if err != nil {
		return nil, err
	}
	codeHash, err := DbHashToDomainHash(dbContract.CodeHash)
	if err != nil {
		return nil, err
	}
	return &externalapi.Contract{
		Address:  address,
		Owner:    owner,
		CodeHash: codeHash,
		Height:   dbContract.Height,
	}, nil
}

// DbContractSnapshot is the serializable form of externalapi.ContractSnapshot
type DbContractSnapshot struct {
	_        struct{} `cbor:",toarray"`
	Contract []byte
	Height   uint64
	State    []byte
}

// SerializeContractSnapshot serializes the given contract snapshot
func SerializeContractSnapshot(snapshot *externalapi.ContractSnapshot) ([]byte, error) {
	return Serialize(&DbContractSnapshot{
		Contract: AddressToDbAddress(snapshot.Contract),
		Height:   snapshot.Height,
		State:    snapshot.State,
	})
}

// DeserializeContractSnapshot deserializes a snapshot serialized with SerializeContractSnapshot
func DeserializeContractSnapshot(snapshotBytes []byte) (*externalapi.ContractSnapshot, error) {
	dbSnapshot := &DbContractSnapshot{}
	err := Deserialize(snapshotBytes, dbSnapshot)
	if err != nil {
		return nil, err
	}
	contract, err := DbAddressToAddress(dbSnapshot.Contract)
	if err != nil {
		return nil, err
	}
	return &externalapi.ContractSnapshot{
		Contract: contract,
		Height:   dbSnapshot.Height,
		State:    dbSnapshot.State,
	}, nil
}

// DbToken is the serializable form of externalapi.Token
type DbToken struct {
	_               struct{} `cbor:",toarray"`
	ID              []byte
	Contract        []byte
	Owner           []byte
	IsConsumed      bool
	MintTransaction []byte
}

// SerializeToken serializes the given token
func SerializeToken(token *externalapi.Token) ([]byte, error) {
	return Serialize(&DbToken{
		ID:              DomainHashToDbHash(token.ID),
		Contract:        AddressToDbAddress(token.Contract),
		Owner:           AddressToDbAddress(token.Owner),
		IsConsumed:      token.IsConsumed,
		MintTransaction: DomainHashToDbHash(token.MintTransaction),
	})
}

// DeserializeToken deserializes a token serialized with SerializeToken
func DeserializeToken(tokenBytes []byte) (*externalapi.Token, error) {
	dbToken := &DbToken{}
	err := Deserialize(tokenBytes, dbToken)
	if err != nil {
		return nil, err
	}
	id, err := DbHashToDomainHash(dbToken.ID)
	if err != nil {
		return nil, err
	}
	contract, err := DbAddressToAddress(dbToken.Contract)
	if err != nil {
		return nil, err
	}
	owner, err := DbAddressToAddress(dbToken.Owner)
	if err != nil {
		return nil, err
	}
	mintTransaction, err := DbHashToDomainHash(dbToken.MintTransaction)
	if err != nil {
		return nil, err
	}
	return &externalapi.Token{
		ID:              id,
		Contract:        contract,
		Owner:           owner,
		IsConsumed:      dbToken.IsConsumed,
		MintTransaction: mintTransaction,
	}, nil
}
