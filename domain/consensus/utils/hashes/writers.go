package hashes

import (
	"hash"

	"github.com/pkg/errors"
	"github.com/viewledger/viewd/domain/consensus/model/externalapi"
	"golang.org/x/crypto/blake2b"
)

const (
	blockDomain       = "BlockHash"
	voteDomain        = "VoteHash"
	voteSigningDomain = "VoteSigningHash"
	transactionDomain = "TransactionHash"
	viewDomain        = "ViewHash"
	contractDomain    = "ContractCode"
	addressDomain     = "Address"
)

// HashWriter is used to incrementally hash data without concatenating all of the data to a single buffer
// it exposes an io.Writer api and a Finalize function to get the resulting hash.
// The used hash function is blake2b.
// This can only be created via one of the domain separated constructors
type HashWriter struct {
	hash.Hash
}

// InfallibleWrite is just like write but doesn't return anything
func (h HashWriter) InfallibleWrite(p []byte) {
	// This write can never return an error, this is part of the hash.Hash interface contract.
	_, err := h.Write(p)
	if err != nil {
		panic(errors.Wrap(err, "this should never happen. hash.Hash interface promises to not return errors."))
	}
}

// Finalize returns the resulting hash
func (h HashWriter) Finalize() *externalapi.DomainHash {
	var sum [externalapi.DomainHashSize]byte
	copy(sum[:], h.Sum(nil))
	return externalapi.NewDomainHashFromByteArray(&sum)
}

// AddressHashWriter is a HashWriter with a short output, used to derive
// addresses
type AddressHashWriter struct {
	hash.Hash
}

// InfallibleWrite is just like write but doesn't return anything
func (h AddressHashWriter) InfallibleWrite(p []byte) {
	_, err := h.Write(p)
	if err != nil {
		panic(errors.Wrap(err, "this should never happen. hash.Hash interface promises to not return errors."))
	}
}

// Finalize returns the resulting address hash
func (h AddressHashWriter) Finalize() *[externalapi.AddressHashSize]byte {
	var sum [externalapi.AddressHashSize]byte
	copy(sum[:], h.Sum(nil))
	return &sum
}

func newDomainWriter(domain string) HashWriter {
	blake, err := blake2b.New256([]byte(domain))
	if err != nil {
		panic(errors.Wrapf(err, "this should never happen. %s is less than 64 bytes", domain))
	}
	return HashWriter{blake}
}

// NewBlockHashWriter returns a new HashWriter used for block hashes
func NewBlockHashWriter() HashWriter {
	return newDomainWriter(blockDomain)
}

// NewVoteHashWriter returns a new HashWriter used for vote identity hashes
func NewVoteHashWriter() HashWriter {
	return newDomainWriter(voteDomain)
}

// NewVoteSigningHashWriter returns a new HashWriter used for the hash a
// validator signs when it votes
func NewVoteSigningHashWriter() HashWriter {
	return newDomainWriter(voteSigningDomain)
}

// NewTransactionHashWriter returns a new HashWriter used for transaction hashes
func NewTransactionHashWriter() HashWriter {
	return newDomainWriter(transactionDomain)
}

// NewViewHashWriter returns a new HashWriter used for view hashes
func NewViewHashWriter() HashWriter {
	return newDomainWriter(viewDomain)
}

// NewContractCodeHashWriter returns a new HashWriter used for contract code hashes
func NewContractCodeHashWriter() HashWriter {
	return newDomainWriter(contractDomain)
}

// NewAddressHashWriter returns a new AddressHashWriter
func NewAddressHashWriter() AddressHashWriter {
	blake, err := blake2b.New(externalapi.AddressHashSize, []byte(addressDomain))
	if err != nil {
		panic(errors.Wrapf(err, "this should never happen. %s is less than 64 bytes", addressDomain))
	}
	return AddressHashWriter{blake}
}
