package externalapi

// Ledger is the account state of an address. Balance is spendable,
// Pending is earned or escrowed value that is not yet spendable.
type Ledger struct {
	Address *Address
	Balance uint64
	Pending uint64
}

// NewLedger returns an empty ledger for the given address
func NewLedger(address *Address) *Ledger {
	return &Ledger{Address: address}
}

// Clone returns a clone of Ledger
func (ledger *Ledger) Clone() *Ledger {
	if ledger == nil {
		return nil
	}
	return &Ledger{
		Address: ledger.Address,
		Balance: ledger.Balance,
		Pending: ledger.Pending,
	}
}

// If this doesn't compile, it means the type definition has been changed, so it's
// an indication to update Equal and Clone accordingly.
var _ = Ledger{&Address{}, 0, 0}

// Equal returns whether ledger equals to other
func (ledger *Ledger) Equal(other *Ledger) bool {
	if ledger == nil || other == nil {
		return ledger == other
	}
	return ledger.Address.Equal(other.Address) &&
		ledger.Balance == other.Balance &&
		ledger.Pending == other.Pending
}
