package transfer

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/viewledger/viewd/domain/consensus/model"
	"github.com/viewledger/viewd/domain/consensus/model/externalapi"
	"github.com/viewledger/viewd/domain/consensus/processes/statecache"
	"github.com/viewledger/viewd/util/math"
)

func address(b byte) *externalapi.Address {
	return externalapi.NewAddress(externalapi.AddressTagWallet, &[externalapi.AddressHashSize]byte{b})
}

func newTestTransfer(ledgers []*externalapi.Ledger, validators []*externalapi.Validator) (
	model.Transfer, model.LedgerWorkingSet) {

	ledgerWorkingSet := statecache.NewLedgerWorkingSet(func(a *externalapi.Address) (*externalapi.Ledger, bool, error) {
		for _, ledger := range ledgers {
			if ledger.Address.Equal(a) {
				return ledger.Clone(), true, nil
			}
		}
		return nil, false, nil
	})
	validatorWorkingSet := statecache.NewValidatorWorkingSet(
		func(a *externalapi.Address) (*externalapi.Validator, bool, error) {
			for _, validator := range validators {
				if validator.NodeAddress.Equal(a) {
					return validator.Clone(), true, nil
				}
			}
			return nil, false, nil
		},
		func() ([]*externalapi.Validator, error) { return validators, nil })
	return New(ledgerWorkingSet, validatorWorkingSet), ledgerWorkingSet
}

func TestFromAndTo(t *testing.T) {
	transfer, ledgers := newTestTransfer([]*externalapi.Ledger{{Address: address(1), Balance: 100}}, nil)

	ok, result, _, err := transfer.From(address(1), 101)
	if err != nil {
		t.Fatalf("From: %s", err)
	}
	if ok || result != externalapi.ExecutionResultTooLowBalance {
		t.Fatalf("From: expected %s but got %s", externalapi.ExecutionResultTooLowBalance, result)
	}

	ok, result, ledger, err := transfer.From(address(1), 60)
	if err != nil {
		t.Fatalf("From: %s", err)
	}
	if !ok || result != externalapi.ExecutionResultSuccess || ledger.Balance != 40 {
		t.Fatalf("From: unexpected outcome %t %s %d", ok, result, ledger.Balance)
	}

	_, err = transfer.To(address(1), 60)
	if err != nil {
		t.Fatalf("To: %s", err)
	}
	if len(ledgers.DirtyLedgers()) != 0 {
		t.Fatalf("From followed by To is expected to restore the ledger")
	}

	_, err = transfer.To(address(2), ^uint64(0))
	if err != nil {
		t.Fatalf("To: %s", err)
	}
	_, err = transfer.To(address(2), 1)
	if !errors.Is(err, math.ErrOverflow) {
		t.Fatalf("To: expected ErrOverflow but got: %v", err)
	}
}

func TestPendingAndSubtractPending(t *testing.T) {
	transfer, ledgers := newTestTransfer(nil, nil)

	ledger, err := transfer.Pending(address(1), 100)
	if err != nil {
		t.Fatalf("Pending: %s", err)
	}
	if ledger.Pending != 100 || ledger.Balance != 0 {
		t.Fatalf("Pending: unexpected ledger %d/%d", ledger.Balance, ledger.Pending)
	}

	_, err = transfer.SubtractPending(address(1), 101)
	if !errors.Is(err, math.ErrOverflow) {
		t.Fatalf("SubtractPending: expected ErrOverflow but got: %v", err)
	}

	_, err = transfer.SubtractPending(address(1), 100)
	if err != nil {
		t.Fatalf("SubtractPending: %s", err)
	}
	if len(ledgers.DirtyLedgers()) != 0 {
		t.Fatalf("SubtractPending is expected to undo Pending")
	}
}

func TestLockAndUnlock(t *testing.T) {
	node := address(1)
	validator := &externalapi.Validator{NodeAddress: node, RewardAddress: node, Stake: 70}
	transfer, ledgers := newTestTransfer([]*externalapi.Ledger{{Address: node, Balance: 100}},
		[]*externalapi.Validator{validator})

	ok, err := transfer.Lock(node)
	if err != nil {
		t.Fatalf("Lock: %s", err)
	}
	if !ok {
		t.Fatalf("Lock: expected the stake to be locked")
	}
	ledger, err := ledgers.Ledger(node)
	if err != nil {
		t.Fatalf("Ledger: %s", err)
	}
	if ledger.Balance != 30 || ledger.Pending != 70 {
		t.Fatalf("Lock: unexpected ledger %d/%d", ledger.Balance, ledger.Pending)
	}

	ok, err = transfer.Lock(node)
	if err != nil {
		t.Fatalf("Lock: %s", err)
	}
	if ok {
		t.Fatalf("Lock: expected a second lock to fail on insufficient balance")
	}

	ok, err = transfer.Unlock(node)
	if err != nil {
		t.Fatalf("Unlock: %s", err)
	}
	if !ok {
		t.Fatalf("Unlock: expected the stake to be unlocked")
	}
	if len(ledgers.DirtyLedgers()) != 0 {
		t.Fatalf("Unlock is expected to undo Lock")
	}

	ok, err = transfer.Lock(address(9))
	if err != nil {
		t.Fatalf("Lock: %s", err)
	}
	if ok {
		t.Fatalf("Lock: expected locking an unknown validator to fail")
	}
}
