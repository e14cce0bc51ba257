package main

import (
	"github.com/jessevdk/go-flags"
)

type configFlags struct {
	Import     bool `short:"i" long:"import" description:"Derive the key from an existing mnemonic instead of generating a new one"`
	Passphrase bool `short:"p" long:"passphrase" description:"Prompt for a BIP-39 passphrase that is mixed into the key"`
}

func parseConfig() (*configFlags, error) {
	cfg := &configFlags{}
	parser := flags.NewParser(cfg, flags.PrintErrors|flags.HelpFlag)
	_, err := parser.Parse()
	if err != nil {
		return nil, err
	}
	return cfg, nil
}
