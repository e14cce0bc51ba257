package externalapi

import "fmt"

// EventType is the kind of an Event
type EventType uint8

// These are the supported event types
const (
	EventTypeValidatorEnable EventType = iota
	EventTypeValidatorDisable
	EventTypeContractDeployed
	EventTypeContractCalled
	EventTypeTokenMinted
	EventTypeTokenTransferred
	EventTypeChainStateChanged
	EventTypeLedgerChanged
	EventTypeValidatorChanged
)

var eventTypeStrings = map[EventType]string{
	EventTypeValidatorEnable:   "ValidatorEnable",
	EventTypeValidatorDisable:  "ValidatorDisable",
	EventTypeContractDeployed:  "ContractDeployed",
	EventTypeContractCalled:    "ContractCalled",
	EventTypeTokenMinted:       "TokenMinted",
	EventTypeTokenTransferred:  "TokenTransferred",
	EventTypeChainStateChanged: "ChainStateChanged",
	EventTypeLedgerChanged:     "LedgerChanged",
	EventTypeValidatorChanged:  "ValidatorChanged",
}

func (eventType EventType) String() string {
	if str, ok := eventTypeStrings[eventType]; ok {
		return str
	}
	return fmt.Sprintf("UNKNOWN(%d)", uint8(eventType))
}

// Event is a notification about a state change. Only the fields
// relevant to its Type are set.
type Event struct {
	Type        EventType
	Height      uint64
	Address     *Address
	Transaction *DomainHash
	TokenID     *DomainHash
	ChainState  *ChainState
	Ledger      *Ledger
	Validator   *Validator
}

func (event *Event) String() string {
	switch {
	case event.Address != nil:
		return fmt.Sprintf("%s(%s at %d)", event.Type, event.Address, event.Height)
	case event.ChainState != nil:
		return fmt.Sprintf("%s(%d)", event.Type, event.ChainState.ID)
	default:
		return fmt.Sprintf("%s(%d)", event.Type, event.Height)
	}
}
