package chainconfig

import (
	"sync"

	"github.com/pkg/errors"
)

// ErrDuplicateNet describes an error where the parameters for a network
// could not be set due to the network already being a standard network or
// previously-registered into this package.
var ErrDuplicateNet = errors.New("duplicate network")

// ErrUnknownNet describes an error where a network name was not
// registered into this package.
var ErrUnknownNet = errors.New("unknown network")

var (
	registeredNetsLock sync.Mutex
	registeredNets     = make(map[string]*Params)
)

// Register registers the network parameters for a network. This may
// error with ErrDuplicateNet if the network is already registered (either
// due to a previous Register call, or the network being one of the default
// networks).
func Register(params *Params) error {
	err := params.Validate()
	if err != nil {
		return err
	}

	registeredNetsLock.Lock()
	defer registeredNetsLock.Unlock()

	if _, ok := registeredNets[params.Name]; ok {
		return errors.Wrapf(ErrDuplicateNet, "network %s", params.Name)
	}
	registeredNets[params.Name] = params
	return nil
}

// ParamsByName returns the registered network parameters with the given name
func ParamsByName(name string) (*Params, error) {
	registeredNetsLock.Lock()
	defer registeredNetsLock.Unlock()

	params, ok := registeredNets[name]
	if !ok {
		return nil, errors.Wrapf(ErrUnknownNet, "network %s", name)
	}
	return params, nil
}

// mustRegister performs the same function as Register except it panics if
// there is an error. This should only be called from package init
// functions.
func mustRegister(params *Params) {
	if err := Register(params); err != nil {
		panic("failed to register network: " + err.Error())
	}
}

func init() {
	// Register all default networks when the package is initialized.
	mustRegister(&MainnetParams)
	mustRegister(&TestnetParams)
	mustRegister(&SimnetParams)
}
