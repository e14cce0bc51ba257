package config

import (
	"fmt"
	"os"

	"github.com/jessevdk/go-flags"
	"github.com/pkg/errors"
	"github.com/viewledger/viewd/domain/chainconfig"
)

// NetworkFlags holds the network configuration, that is which network is selected.
type NetworkFlags struct {
	Testnet bool `long:"testnet" description:"Use the test network" env:"VIEWD_TESTNET"`
	Simnet  bool `long:"simnet" description:"Use the simulation test network" env:"VIEWD_SIMNET"`

	ActiveNetParams *chainconfig.Params
}

// ResolveNetwork parses the network command line argument and sets ActiveNetParams accordingly.
// It returns error if more than one network was selected, nil otherwise.
func (networkFlags *NetworkFlags) ResolveNetwork(parser *flags.Parser) error {
	// Default net is main net
	networkFlags.ActiveNetParams = &chainconfig.MainnetParams
	// Multiple networks can't be selected simultaneously.
	numNets := 0
	if networkFlags.Testnet {
		numNets++
		networkFlags.ActiveNetParams = &chainconfig.TestnetParams
	}
	if networkFlags.Simnet {
		numNets++
		networkFlags.ActiveNetParams = &chainconfig.SimnetParams
	}
	if numNets > 1 {
		message := "Multiple networks parameters (testnet, simnet) cannot be used " +
			"together. Please choose only one network"
		err := errors.New(message)
		fmt.Fprintln(os.Stderr, err)
		if parser != nil {
			parser.WriteHelp(os.Stderr)
		}
		return err
	}

	return nil
}

// NetParams returns the ActiveNetParams
func (networkFlags *NetworkFlags) NetParams() *chainconfig.Params {
	return networkFlags.ActiveNetParams
}
