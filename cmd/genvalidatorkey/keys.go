package main

import (
	"strings"

	"github.com/kaspanet/go-secp256k1"
	"github.com/pkg/errors"
	"github.com/tyler-smith/go-bip39"
	"github.com/viewledger/viewd/domain/consensus/model/externalapi"
	"github.com/viewledger/viewd/domain/consensus/utils/consensushashing"
	"github.com/viewledger/viewd/domain/consensus/utils/signing"
	"golang.org/x/crypto/blake2b"
)

const mnemonicEntropyBits = 256

type validatorKey struct {
	privateKey []byte
	publicKey  []byte
	address    *externalapi.Address
}

func createMnemonic() (string, error) {
	entropy, err := bip39.NewEntropy(mnemonicEntropyBits)
	if err != nil {
		return "", errors.WithStack(err)
	}
	mnemonic, err := bip39.NewMnemonic(entropy)
	if err != nil {
		return "", errors.WithStack(err)
	}
	return mnemonic, nil
}

// keyFromMnemonic derives the validator key as the blake2b-256 digest
// of the BIP-39 seed of mnemonic and passphrase
func keyFromMnemonic(mnemonic string, passphrase string) (*validatorKey, error) {
	mnemonic = strings.Join(strings.Fields(mnemonic), " ")
	seed, err := bip39.NewSeedWithErrorChecking(mnemonic, passphrase)
	if err != nil {
		return nil, errors.Wrap(err, "invalid mnemonic")
	}
	privateKey := blake2b.Sum256(seed)

	keyPair, err := secp256k1.DeserializeSchnorrPrivateKeyFromSlice(privateKey[:])
	if err != nil {
		return nil, errors.Wrap(err, "the mnemonic does not yield a valid private key")
	}
	publicKey, err := signing.SerializedPublicKey(keyPair)
	if err != nil {
		return nil, err
	}
	return &validatorKey{
		privateKey: privateKey[:],
		publicKey:  publicKey,
		address:    consensushashing.NewWalletAddress(publicKey),
	}, nil
}
