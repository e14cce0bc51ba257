package main

import (
	"bytes"
	"encoding/hex"
	"testing"

	"github.com/viewledger/viewd/domain/consensus/utils/signing"
	"github.com/viewledger/viewd/infrastructure/config"
)

const testMnemonic = "abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon about"

func TestKeyFromMnemonic(t *testing.T) {
	key, err := keyFromMnemonic(testMnemonic, "")
	if err != nil {
		t.Fatalf("keyFromMnemonic: %+v", err)
	}

	// The same words with different spacing derive the same key
	sameKey, err := keyFromMnemonic("  "+testMnemonic+"\n", "")
	if err != nil {
		t.Fatalf("keyFromMnemonic: %+v", err)
	}
	if !key.address.Equal(sameKey.address) {
		t.Fatalf("TestKeyFromMnemonic: expected surrounding whitespace to be ignored")
	}

	otherKey, err := keyFromMnemonic(testMnemonic, "passphrase")
	if err != nil {
		t.Fatalf("keyFromMnemonic: %+v", err)
	}
	if key.address.Equal(otherKey.address) {
		t.Fatalf("TestKeyFromMnemonic: expected the passphrase to change the key")
	}

	// The printed private key is accepted by the node configuration
	keyPair, err := config.ParseValidatorKey(hex.EncodeToString(key.privateKey))
	if err != nil {
		t.Fatalf("ParseValidatorKey: %+v", err)
	}
	publicKey, err := signing.SerializedPublicKey(keyPair)
	if err != nil {
		t.Fatalf("SerializedPublicKey: %+v", err)
	}
	if !bytes.Equal(publicKey, key.publicKey) {
		t.Fatalf("TestKeyFromMnemonic: the parsed key pair differs from the derived one")
	}
}

func TestKeyFromInvalidMnemonic(t *testing.T) {
	_, err := keyFromMnemonic("abandon abandon abandon", "")
	if err == nil {
		t.Fatalf("TestKeyFromInvalidMnemonic: expected an error for an invalid mnemonic")
	}
}

func TestCreateMnemonic(t *testing.T) {
	mnemonic, err := createMnemonic()
	if err != nil {
		t.Fatalf("createMnemonic: %+v", err)
	}
	_, err = keyFromMnemonic(mnemonic, "")
	if err != nil {
		t.Fatalf("keyFromMnemonic: %+v", err)
	}
}
