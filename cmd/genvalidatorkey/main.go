package main

import (
	"bufio"
	"encoding/hex"
	"fmt"
	"os"

	"github.com/pkg/errors"
)

func main() {
	cfg, err := parseConfig()
	if err != nil {
		os.Exit(1)
	}

	err = run(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%+v\n", err)
		os.Exit(1)
	}
}

func run(cfg *configFlags) error {
	var mnemonic string
	if cfg.Import {
		fmt.Print("Enter the mnemonic: ")
		reader := bufio.NewReader(os.Stdin)
		line, err := reader.ReadString('\n')
		if err != nil {
			return errors.WithStack(err)
		}
		mnemonic = line
	} else {
		var err error
		mnemonic, err = createMnemonic()
		if err != nil {
			return err
		}
	}

	passphrase := ""
	if cfg.Passphrase {
		first, err := getPassword("Passphrase: ")
		if err != nil {
			return err
		}
		second, err := getPassword("Confirm passphrase: ")
		if err != nil {
			return err
		}
		if string(first) != string(second) {
			return errors.New("the passphrases do not match")
		}
		passphrase = string(first)
	}

	key, err := keyFromMnemonic(mnemonic, passphrase)
	if err != nil {
		return err
	}

	if !cfg.Import {
		fmt.Println("Write down the following mnemonic. It is the only way to recover the validator key:")
		fmt.Println()
		fmt.Println(mnemonic)
		fmt.Println()
	}
	fmt.Printf("Private key: %x\n", key.privateKey)
	fmt.Printf("Public key:  %s\n", hex.EncodeToString(key.publicKey))
	fmt.Printf("Address:     %s\n", key.address)
	fmt.Println()
	fmt.Println("Run viewd with --validatorkey=<private key> or set VIEWD_VALIDATORKEY to vote with this key.")
	return nil
}
