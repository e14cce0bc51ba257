package signing

import (
	"github.com/kaspanet/go-secp256k1"
	"github.com/pkg/errors"
	"github.com/viewledger/viewd/domain/consensus/model/externalapi"
	"github.com/viewledger/viewd/domain/consensus/utils/consensushashing"
)

// SerializedPublicKey returns the 32-byte Schnorr public key of keyPair
func SerializedPublicKey(keyPair *secp256k1.SchnorrKeyPair) ([]byte, error) {
	publicKey, err := keyPair.SchnorrPublicKey()
	if err != nil {
		return nil, errors.WithStack(err)
	}
	serializedPublicKey, err := publicKey.Serialize()
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return serializedPublicKey[:], nil
}

func sign(keyPair *secp256k1.SchnorrKeyPair, hash *externalapi.DomainHash) ([]byte, error) {
	secpHash := secp256k1.Hash(*hash.ByteArray())
	signature, err := keyPair.SchnorrSign(&secpHash)
	if err != nil {
		return nil, errors.Errorf("cannot sign: %s", err)
	}
	return signature.Serialize()[:], nil
}

// SignVote sets the public key and the signature of vote
func SignVote(vote *externalapi.Vote, keyPair *secp256k1.SchnorrKeyPair) error {
	publicKey, err := SerializedPublicKey(keyPair)
	if err != nil {
		return err
	}
	vote.PublicKey = publicKey
	vote.Signature, err = sign(keyPair, consensushashing.VoteSigningHash(vote))
	return err
}

// SignTransaction sets the public key and the signature of transaction
func SignTransaction(transaction *externalapi.Transaction, keyPair *secp256k1.SchnorrKeyPair) error {
	publicKey, err := SerializedPublicKey(keyPair)
	if err != nil {
		return err
	}
	transaction.PublicKey = publicKey
	transaction.Signature, err = sign(keyPair, consensushashing.TransactionHash(transaction))
	return err
}

// VerifySignature returns whether signature is a valid Schnorr signature
// of hash by publicKey. Malformed keys and signatures are reported as
// invalid.
func VerifySignature(publicKey []byte, hash *externalapi.DomainHash, signature []byte) bool {
	schnorrPublicKey, err := secp256k1.DeserializeSchnorrPubKey(publicKey)
	if err != nil {
		return false
	}
	schnorrSignature, err := secp256k1.DeserializeSchnorrSignatureFromSlice(signature)
	if err != nil {
		return false
	}
	secpHash := secp256k1.Hash(*hash.ByteArray())
	return schnorrPublicKey.SchnorrVerify(&secpHash, schnorrSignature)
}
