package externalapi

import (
	"bytes"

	"github.com/btcsuite/btcutil/bech32"
	"github.com/pkg/errors"
)

const (
	// AddressHashSize is the size of the hash part of an address
	AddressHashSize = 20

	// AddressSize is the size of a serialized address: one tag byte
	// followed by the address hash
	AddressSize = 1 + AddressHashSize

	// AddressPrefix is the human readable part of encoded addresses
	AddressPrefix = "view"
)

// AddressTag distinguishes wallet addresses from contract addresses
type AddressTag byte

const (
	// AddressTagWallet marks an address derived from a public key
	AddressTagWallet AddressTag = 0

	// AddressTagContract marks an address derived from the transaction
	// that deployed a contract
	AddressTagContract AddressTag = 1
)

func (tag AddressTag) String() string {
	switch tag {
	case AddressTagWallet:
		return "wallet"
	case AddressTagContract:
		return "contract"
	default:
		return "unknown"
	}
}

// Address identifies an account. It may denote a wallet or a
// deployed contract.
type Address struct {
	addressArray [AddressSize]byte
}

// NewAddress constructs a new address out of the given tag and hash
func NewAddress(tag AddressTag, hash *[AddressHashSize]byte) *Address {
	address := &Address{}
	address.addressArray[0] = byte(tag)
	copy(address.addressArray[1:], hash[:])
	return address
}

// NewAddressFromByteSlice constructs a new Address out of a serialized address.
func NewAddressFromByteSlice(addressBytes []byte) (*Address, error) {
	if len(addressBytes) != AddressSize {
		return nil, errors.Errorf("invalid address size. Want: %d, got: %d",
			AddressSize, len(addressBytes))
	}
	tag := AddressTag(addressBytes[0])
	if tag != AddressTagWallet && tag != AddressTagContract {
		return nil, errors.Errorf("invalid address tag %d", tag)
	}
	address := &Address{}
	copy(address.addressArray[:], addressBytes)
	return address, nil
}

// NewAddressFromString decodes a bech32 encoded address
func NewAddressFromString(addressString string) (*Address, error) {
	prefix, decoded, err := bech32.Decode(addressString)
	if err != nil {
		return nil, errors.Wrapf(err, "failed decoding address %s", addressString)
	}
	if prefix != AddressPrefix {
		return nil, errors.Errorf("address %s has prefix %s, expected %s",
			addressString, prefix, AddressPrefix)
	}
	addressBytes, err := bech32.ConvertBits(decoded, 5, 8, false)
	if err != nil {
		return nil, errors.Wrapf(err, "failed converting address %s", addressString)
	}
	return NewAddressFromByteSlice(addressBytes)
}

// Tag returns the address tag
func (address *Address) Tag() AddressTag {
	return AddressTag(address.addressArray[0])
}

// IsContract returns whether this address denotes a contract
func (address *Address) IsContract() bool {
	return address.Tag() == AddressTagContract
}

// ByteArray returns a copy of the serialized address
func (address *Address) ByteArray() *[AddressSize]byte {
	arrayClone := address.addressArray
	return &arrayClone
}

// ByteSlice returns a copy of the serialized address as a slice
func (address *Address) ByteSlice() []byte {
	return address.ByteArray()[:]
}

// String returns the bech32 encoding of the address
func (address Address) String() string {
	converted, err := bech32.ConvertBits(address.addressArray[:], 8, 5, true)
	if err != nil {
		panic(errors.Wrap(err, "failed converting address bits"))
	}
	encoded, err := bech32.Encode(AddressPrefix, converted)
	if err != nil {
		panic(errors.Wrap(err, "failed encoding address"))
	}
	return encoded
}

// If this doesn't compile, it means the type definition has been changed, so it's
// an indication to update Equal and Clone accordingly.
var _ Address = Address{addressArray: [AddressSize]byte{}}

// Equal returns whether address equals to other
func (address *Address) Equal(other *Address) bool {
	if address == nil || other == nil {
		return address == other
	}
	return address.addressArray == other.addressArray
}

// Less returns true if address is less than other
func (address *Address) Less(other *Address) bool {
	return bytes.Compare(address.addressArray[:], other.addressArray[:]) < 0
}
