package statecache

import (
	"sort"

	"github.com/viewledger/viewd/domain/consensus/model"
	"github.com/viewledger/viewd/domain/consensus/model/externalapi"
)

// ValidatorLoader loads the committed validator of a node address. It
// returns false if there is no such validator.
type ValidatorLoader func(nodeAddress *externalapi.Address) (*externalapi.Validator, bool, error)

// AllValidatorsLoader loads every committed validator
type AllValidatorsLoader func() ([]*externalapi.Validator, error)

type validatorEntry struct {
	original *externalapi.Validator
	current  *externalapi.Validator
}

type validatorWorkingSet struct {
	loader    ValidatorLoader
	allLoader AllValidatorsLoader
	entries   map[externalapi.Address]*validatorEntry
}

// NewValidatorWorkingSet creates a ValidatorWorkingSet that lazily
// loads validators with the given loaders
func NewValidatorWorkingSet(loader ValidatorLoader, allLoader AllValidatorsLoader) model.ValidatorWorkingSet {
	return &validatorWorkingSet{
		loader:    loader,
		allLoader: allLoader,
		entries:   make(map[externalapi.Address]*validatorEntry),
	}
}

func (vws *validatorWorkingSet) Validator(nodeAddress *externalapi.Address) (*externalapi.Validator, bool, error) {
	if entry, ok := vws.entries[*nodeAddress]; ok {
		if entry.current == nil {
			return nil, false, nil
		}
		return entry.current.Clone(), true, nil
	}

	validator, found, err := vws.loader(nodeAddress)
	if err != nil {
		return nil, false, err
	}
	if !found {
		return nil, false, nil
	}
	vws.entries[*nodeAddress] = &validatorEntry{
		original: validator.Clone(),
		current:  validator.Clone(),
	}
	return validator.Clone(), true, nil
}

func (vws *validatorWorkingSet) SetValidator(validator *externalapi.Validator) {
	entry, ok := vws.entries[*validator.NodeAddress]
	if !ok {
		entry = &validatorEntry{}
		original, found, err := vws.loader(validator.NodeAddress)
		if err == nil && found {
			entry.original = original
		}
		vws.entries[*validator.NodeAddress] = entry
	}
	entry.current = validator.Clone()
}

func (vws *validatorWorkingSet) RemoveValidator(nodeAddress *externalapi.Address) {
	entry, ok := vws.entries[*nodeAddress]
	if !ok {
		entry = &validatorEntry{}
		original, found, err := vws.loader(nodeAddress)
		if err == nil && found {
			entry.original = original
		}
		vws.entries[*nodeAddress] = entry
	}
	entry.current = nil
}

// Validators returns every validator, committed or not, sorted by
// node address
func (vws *validatorWorkingSet) Validators() ([]*externalapi.Validator, error) {
	committed, err := vws.allLoader()
	if err != nil {
		return nil, err
	}

	validators := make([]*externalapi.Validator, 0, len(committed)+len(vws.entries))
	for _, validator := range committed {
		if _, ok := vws.entries[*validator.NodeAddress]; ok {
			continue
		}
		validators = append(validators, validator)
	}
	for _, entry := range vws.entries {
		if entry.current != nil {
			validators = append(validators, entry.current.Clone())
		}
	}
	sort.Slice(validators, func(i, j int) bool {
		return validators[i].NodeAddress.Less(validators[j].NodeAddress)
	})
	return validators, nil
}

func (vws *validatorWorkingSet) DirtyValidators() []*externalapi.Validator {
	dirty := make([]*externalapi.Validator, 0)
	for _, entry := range vws.entries {
		if entry.current != nil && !entry.current.Equal(entry.original) {
			dirty = append(dirty, entry.current.Clone())
		}
	}
	sort.Slice(dirty, func(i, j int) bool {
		return dirty[i].NodeAddress.Less(dirty[j].NodeAddress)
	})
	return dirty
}

func (vws *validatorWorkingSet) MarkCommitted() {
	for address, entry := range vws.entries {
		if entry.current == nil {
			delete(vws.entries, address)
			continue
		}
		entry.original = entry.current.Clone()
	}
}

func (vws *validatorWorkingSet) Clear() {
	vws.entries = make(map[externalapi.Address]*validatorEntry)
}
