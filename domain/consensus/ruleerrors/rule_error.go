package ruleerrors

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/viewledger/viewd/domain/consensus/model/externalapi"
)

// These constants are used to identify a specific RuleError.
var (
	// ErrUnknownBlock indicates a view references a block that was
	// never admitted.
	ErrUnknownBlock = newRuleError("ErrUnknownBlock")

	// ErrUnknownVote indicates a view references a vote that was
	// never admitted.
	ErrUnknownVote = newRuleError("ErrUnknownVote")

	// ErrUnknownTransaction indicates a view references a transaction
	// that was never admitted.
	ErrUnknownTransaction = newRuleError("ErrUnknownTransaction")

	// ErrUnknownScheduledTransaction indicates a view settles a scheduled
	// transaction that is not in the due index, or is not due yet.
	ErrUnknownScheduledTransaction = newRuleError("ErrUnknownScheduledTransaction")

	// ErrNotValidator indicates a vote or a deregistration was signed by
	// a key that does not belong to a registered validator.
	ErrNotValidator = newRuleError("ErrNotValidator")

	// ErrUnexpectedViewID indicates a view does not extend the chain
	// by exactly one height.
	ErrUnexpectedViewID = newRuleError("ErrUnexpectedViewID")

	// ErrUnexpectedLastHash indicates a view or a block does not point
	// at the hash of the latest committed view.
	ErrUnexpectedLastHash = newRuleError("ErrUnexpectedLastHash")

	// ErrUnexpectedViewHash indicates a vote attests to a view other
	// than the latest committed one.
	ErrUnexpectedViewHash = newRuleError("ErrUnexpectedViewHash")

	// ErrTimeTooOld indicates the timestamp is not after the timestamp
	// of the latest committed view.
	ErrTimeTooOld = newRuleError("ErrTimeTooOld")

	// ErrInvalidPoW indicates that the block proof-of-work is invalid.
	ErrInvalidPoW = newRuleError("ErrInvalidPoW")

	// ErrInvalidSignature indicates a vote or a transaction carries a
	// signature that does not verify against its public key.
	ErrInvalidSignature = newRuleError("ErrInvalidSignature")

	// ErrBadBlockDifficulty indicates a block was mined at a difficulty
	// other than the current one.
	ErrBadBlockDifficulty = newRuleError("ErrBadBlockDifficulty")

	// ErrBadBlockValue indicates a block claims more than the
	// accumulated block reward.
	ErrBadBlockValue = newRuleError("ErrBadBlockValue")

	// ErrStaleBlock indicates a block was mined on top of a view that
	// is no longer the latest.
	ErrStaleBlock = newRuleError("ErrStaleBlock")

	// ErrDuplicateObject indicates an object is referenced more than
	// once, or was already committed.
	ErrDuplicateObject = newRuleError("ErrDuplicateObject")

	// ErrMalformedObject indicates an object fails structural checks,
	// such as a missing address or an unsupported type.
	ErrMalformedObject = newRuleError("ErrMalformedObject")

	// ErrCacheNotLoaded indicates admission was attempted while the
	// state cache was cleared and not yet reloaded.
	ErrCacheNotLoaded = newRuleError("ErrCacheNotLoaded")

	// ErrMissingGenesis indicates an operation requires a committed
	// genesis view.
	ErrMissingGenesis = newRuleError("ErrMissingGenesis")

	// ErrGenesisExists indicates AddGenesis was called on a store
	// that already holds a chain.
	ErrGenesisExists = newRuleError("ErrGenesisExists")

	// ErrRollbackBelowFinality indicates a rollback target is below
	// the last finalized height.
	ErrRollbackBelowFinality = newRuleError("ErrRollbackBelowFinality")

	// ErrInsufficientBalance indicates an advisory admission check
	// found the sender unable to cover the transaction.
	ErrInsufficientBalance = newRuleError("ErrInsufficientBalance")

	// ErrRejectedTransaction indicates a transaction of a batch failed
	// its admission checks with a result other than
	// ErrInsufficientBalance.
	ErrRejectedTransaction = newRuleError("ErrRejectedTransaction")
)

// RuleError identifies a rule violation. It is used to indicate that
// processing of a view or one of its objects failed due to one of the
// many validation rules. The caller can use type assertions to determine
// if a failure was specifically due to a rule violation.
type RuleError struct {
	message string
	inner   error
}

// Error satisfies the error interface and prints human-readable errors.
func (e RuleError) Error() string {
	if e.inner != nil {
		return e.message + ": " + e.inner.Error()
	}
	return e.message
}

// Unwrap satisfies the errors.Unwrap interface
func (e RuleError) Unwrap() error {
	return e.inner
}

// Is matches any RuleError of the same kind, whatever it wraps
func (e RuleError) Is(target error) bool {
	targetRuleError, ok := target.(RuleError)
	return ok && targetRuleError.message == e.message
}

// Cause satisfies the github.com/pkg/errors.Cause interface
func (e RuleError) Cause() error {
	return e.inner
}

func newRuleError(message string) RuleError {
	return RuleError{message: message, inner: nil}
}

// IsRuleError returns whether err is or wraps a RuleError
func IsRuleError(err error) bool {
	return errors.As(err, &RuleError{})
}

// ErrMissingReferences indicates a view references objects that are
// not in the pending cache.
type ErrMissingReferences struct {
	MissingHashes []*externalapi.DomainHash
}

func (e ErrMissingReferences) Error() string {
	return fmt.Sprintf("missing the following references: %v", e.MissingHashes)
}

// NewErrMissingReferences creates a new ErrMissingReferences error wrapped in
// a RuleError with the given message
func NewErrMissingReferences(ruleError RuleError, missingHashes []*externalapi.DomainHash) error {
	return errors.WithStack(RuleError{
		message: ruleError.message,
		inner:   ErrMissingReferences{missingHashes},
	})
}
