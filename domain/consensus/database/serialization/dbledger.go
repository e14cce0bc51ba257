package serialization

import (
	"github.com/viewledger/viewd/domain/consensus/model/externalapi"
)

// DbLedger is the serializable form of externalapi.Ledger
type DbLedger struct {
	_       struct{} `cbor:",toarray"`
	Address []byte
	Balance uint64
	Pending uint64
}

// LedgerToDbLedger converts a Ledger to DbLedger
func LedgerToDbLedger(ledger *externalapi.Ledger) *DbLedger {
	return &DbLedger{
		Address: AddressToDbAddress(ledger.Address),
		Balance: ledger.Balance,
		Pending: ledger.Pending,
	}
}

// DbLedgerToLedger converts a DbLedger to Ledger
func DbLedgerToLedger(dbLedger *DbLedger) (*externalapi.Ledger, error) {
	address, err := DbAddressToAddress(dbLedger.Address)
	if err != nil {
		return nil, err
	}
	return &externalapi.Ledger{
		Address: address,
		Balance: dbLedger.Balance,
		Pending: dbLedger.Pending,
	}, nil
}

// SerializeLedger serializes the given ledger
func SerializeLedger(ledger *externalapi.Ledger) ([]byte, error) {
	return Serialize(LedgerToDbLedger(ledger))
}

// DeserializeLedger deserializes a ledger serialized with SerializeLedger
func DeserializeLedger(ledgerBytes []byte) (*externalapi.Ledger, error) {
	dbLedger := &DbLedger{}
	err := Deserialize(ledgerBytes, dbLedger)
	if err != nil {
		return nil, err
	}
	return DbLedgerToLedger(dbLedger)
}
