package serialization

import (
	"math/big"

	"github.com/viewledger/viewd/domain/consensus/model/externalapi"
)

// DomainHashToDbHash converts a DomainHash to its serializable form.
// A nil hash is serialized as nil.
func DomainHashToDbHash(domainHash *externalapi.DomainHash) []byte {
	if domainHash == nil {
		return nil
	}
	return domainHash.ByteSlice()
}

// DbHashToDomainHash converts a serialized hash back to a DomainHash
func DbHashToDomainHash(dbHash []byte) (*externalapi.DomainHash, error) {
	if dbHash == nil {
		return nil, nil
	}
	return externalapi.NewDomainHashFromByteSlice(dbHash)
}

// DomainHashesToDbHashes converts a slice of DomainHashes to its serializable form
func DomainHashesToDbHashes(domainHashes []*externalapi.DomainHash) [][]byte {
	dbHashes := make([][]byte, len(domainHashes))
	for i, domainHash := range domainHashes {
		dbHashes[i] = DomainHashToDbHash(domainHash)
	}
	return dbHashes
}

// DbHashesToDomainHashes converts serialized hashes back to DomainHashes
func DbHashesToDomainHashes(dbHashes [][]byte) ([]*externalapi.DomainHash, error) {
	domainHashes := make([]*externalapi.DomainHash, len(dbHashes))
	for i, dbHash := range dbHashes {
		var err error
		domainHashes[i], err = DbHashToDomainHash(dbHash)
		if err != nil {
			return nil, err
		}
	}
	return domainHashes, nil
}

// AddressToDbAddress converts an Address to its serializable form.
// A nil address is serialized as nil.
func AddressToDbAddress(address *externalapi.Address) []byte {
	if address == nil {
		return nil
	}
	return address.ByteSlice()
}

// DbAddressToAddress converts a serialized address back to an Address
func DbAddressToAddress(dbAddress []byte) (*externalapi.Address, error) {
	if dbAddress == nil {
		return nil, nil
	}
	return externalapi.NewAddressFromByteSlice(dbAddress)
}

func bigIntToDbBigInt(value *big.Int) []byte {
	if value == nil {
		return nil
	}
	return value.Bytes()
}

func dbBigIntToBigInt(dbValue []byte) *big.Int {
	return new(big.Int).SetBytes(dbValue)
}
