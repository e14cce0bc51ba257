package consensushashing

import (
	"github.com/viewledger/viewd/domain/consensus/model/externalapi"
	"github.com/viewledger/viewd/domain/consensus/utils/hashes"
)

// NewWalletAddress derives the wallet address that belongs to the given
// serialized Schnorr public key
func NewWalletAddress(publicKey []byte) *externalapi.Address {
	writer := hashes.NewAddressHashWriter()
	writer.InfallibleWrite([]byte{byte(externalapi.AddressTagWallet)})
	writer.InfallibleWrite(publicKey)
	return externalapi.NewAddress(externalapi.AddressTagWallet, writer.Finalize())
}

// NewContractAddress derives the address of the contract deployed by the
// transaction with the given hash
func NewContractAddress(deployTransactionHash *externalapi.DomainHash) *externalapi.Address {
	writer := hashes.NewAddressHashWriter()
	writer.InfallibleWrite([]byte{byte(externalapi.AddressTagContract)})
	writer.InfallibleWrite(deployTransactionHash.ByteSlice())
	return externalapi.NewAddress(externalapi.AddressTagContract, writer.Finalize())
}
