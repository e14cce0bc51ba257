package statecache

import (
	"sort"

	"github.com/viewledger/viewd/domain/consensus/model"
	"github.com/viewledger/viewd/domain/consensus/model/externalapi"
)

// LedgerLoader loads the committed ledger of an address. It returns
// false if the address has no ledger.
type LedgerLoader func(address *externalapi.Address) (*externalapi.Ledger, bool, error)

type ledgerEntry struct {
	original *externalapi.Ledger
	current  *externalapi.Ledger
}

func (entry *ledgerEntry) isDirty() bool {
	if entry.original == nil {
		return entry.current.Balance != 0 || entry.current.Pending != 0
	}
	return !entry.current.Equal(entry.original)
}

type ledgerWorkingSet struct {
	loader  LedgerLoader
	entries map[externalapi.Address]*ledgerEntry
}

// NewLedgerWorkingSet creates a LedgerWorkingSet that lazily loads
// ledgers with the given loader
func NewLedgerWorkingSet(loader LedgerLoader) model.LedgerWorkingSet {
	return &ledgerWorkingSet{
		loader:  loader,
		entries: make(map[externalapi.Address]*ledgerEntry),
	}
}

func (lws *ledgerWorkingSet) entry(address *externalapi.Address) (*ledgerEntry, error) {
	if entry, ok := lws.entries[*address]; ok {
		return entry, nil
	}

	ledger, found, err := lws.loader(address)
	if err != nil {
		return nil, err
	}
	entry := &ledgerEntry{}
	if found {
		entry.original = ledger.Clone()
		entry.current = ledger.Clone()
	} else {
		entry.current = externalapi.NewLedger(address)
	}
	lws.entries[*address] = entry
	return entry, nil
}

func (lws *ledgerWorkingSet) Ledger(address *externalapi.Address) (*externalapi.Ledger, error) {
	entry, err := lws.entry(address)
	if err != nil {
		return nil, err
	}
	return entry.current.Clone(), nil
}

func (lws *ledgerWorkingSet) SetLedger(ledger *externalapi.Ledger) {
	entry, ok := lws.entries[*ledger.Address]
	if !ok {
		entry = &ledgerEntry{}
		lws.entries[*ledger.Address] = entry
	}
	entry.current = ledger.Clone()
}

func (lws *ledgerWorkingSet) Original(address *externalapi.Address) (*externalapi.Ledger, bool) {
	entry, ok := lws.entries[*address]
	if !ok || entry.original == nil {
		return nil, false
	}
	return entry.original.Clone(), true
}

func (lws *ledgerWorkingSet) DirtyLedgers() []*externalapi.Ledger {
	dirty := make([]*externalapi.Ledger, 0)
	for _, entry := range lws.entries {
		if entry.isDirty() {
			dirty = append(dirty, entry.current.Clone())
		}
	}
	sort.Slice(dirty, func(i, j int) bool {
		return dirty[i].Address.Less(dirty[j].Address)
	})
	return dirty
}

func (lws *ledgerWorkingSet) MarkCommitted() {
	for _, entry := range lws.entries {
		if entry.isDirty() {
			entry.original = entry.current.Clone()
		}
	}
}

// EvictSettled drops the clean entries that have no pending value
func (lws *ledgerWorkingSet) EvictSettled() {
	for address, entry := range lws.entries {
		if entry.current.Pending == 0 && !entry.isDirty() {
			delete(lws.entries, address)
		}
	}
}

func (lws *ledgerWorkingSet) Clear() {
	lws.entries = make(map[externalapi.Address]*ledgerEntry)
}
