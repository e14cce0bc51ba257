package hashes

import (
	"math/big"

	"github.com/viewledger/viewd/domain/consensus/model/externalapi"
)

// ToBig converts a DomainHash into a big.Int, treating the hash as a
// big-endian number
func ToBig(hash *externalapi.DomainHash) *big.Int {
	return new(big.Int).SetBytes(hash.ByteSlice())
}
