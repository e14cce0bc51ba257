package testutils

import (
	"github.com/kaspanet/go-secp256k1"
	"github.com/viewledger/viewd/domain/consensus/model/externalapi"
	"github.com/viewledger/viewd/domain/consensus/utils/consensushashing"
	"github.com/viewledger/viewd/domain/consensus/utils/signing"
)

// KeyPair returns the well known test key pair whose private key is
// index+1. Key pairs 0, 1 and 2 are the simnet seed validators.
func KeyPair(index int) *secp256k1.SchnorrKeyPair {
	var privateKey [32]byte
	privateKey[31] = byte(index + 1)
	keyPair, err := secp256k1.DeserializeSchnorrPrivateKeyFromSlice(privateKey[:])
	if err != nil {
		panic(err)
	}
	return keyPair
}

// PublicKey returns the serialized public key of KeyPair(index)
func PublicKey(index int) []byte {
	publicKey, err := signing.SerializedPublicKey(KeyPair(index))
	if err != nil {
		panic(err)
	}
	return publicKey
}

// Address returns the wallet address of KeyPair(index)
func Address(index int) *externalapi.Address {
	return consensushashing.NewWalletAddress(PublicKey(index))
}
