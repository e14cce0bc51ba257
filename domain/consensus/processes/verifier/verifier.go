package verifier

import (
	"context"
	"runtime"

	"github.com/pkg/errors"
	"github.com/viewledger/viewd/domain/consensus/model"
	"github.com/viewledger/viewd/domain/consensus/model/externalapi"
	"github.com/viewledger/viewd/domain/consensus/ruleerrors"
	"github.com/viewledger/viewd/domain/consensus/utils/consensushashing"
	"github.com/viewledger/viewd/domain/consensus/utils/difficulty"
	"github.com/viewledger/viewd/domain/consensus/utils/signing"
	"golang.org/x/sync/errgroup"
)

// verifier runs every check that does not depend on the state of the
// chain
type verifier struct {
	skipPoW        bool
	maxParallelism int
	maxDataSize    int
}

const schnorrPublicKeySize = 32

// New instantiates a new Verifier
func New(skipPoW bool, maxDataSize int) model.Verifier {
	return &verifier{
		skipPoW:        skipPoW,
		maxParallelism: runtime.NumCPU(),
		maxDataSize:    maxDataSize,
	}
}

func (v *verifier) VerifyBlock(block *externalapi.Block) error {
	if block.To == nil {
		return errors.Wrapf(ruleerrors.ErrMalformedObject, "block has no recipient")
	}
	if block.LastHash == nil {
		return errors.Wrapf(ruleerrors.ErrMalformedObject, "block does not reference a view")
	}
	if block.To.IsContract() {
		return errors.Wrapf(ruleerrors.ErrMalformedObject, "block recipient %s is a contract", block.To)
	}
	return v.checkProofOfWork(block)
}

// checkProofOfWork ensures the block hash is less than the target
// encoded by the block difficulty
func (v *verifier) checkProofOfWork(block *externalapi.Block) error {
	if v.skipPoW {
		return nil
	}
	blockHash := consensushashing.BlockHash(block)
	if !difficulty.CheckProofOfWork(blockHash, block.Difficulty) {
		return errors.Wrapf(ruleerrors.ErrInvalidPoW, "block %s has invalid proof of work for bits %08x",
			blockHash, block.Difficulty)
	}
	return nil
}

func (v *verifier) VerifyVote(vote *externalapi.Vote) error {
	if vote.ViewHash == nil {
		return errors.Wrapf(ruleerrors.ErrMalformedObject, "vote does not reference a view")
	}
	if vote.RewardAddress == nil {
		return errors.Wrapf(ruleerrors.ErrMalformedObject, "vote has no reward address")
	}
	if len(vote.PublicKey) != schnorrPublicKeySize {
		return errors.Wrapf(ruleerrors.ErrMalformedObject, "vote public key is %d bytes", len(vote.PublicKey))
	}
	if !signing.VerifySignature(vote.PublicKey, consensushashing.VoteSigningHash(vote), vote.Signature) {
		return errors.Wrapf(ruleerrors.ErrInvalidSignature, "vote for view %s", vote.ViewHash)
	}
	return nil
}

func (v *verifier) VerifyTransaction(transaction *externalapi.Transaction) error {
	if transaction.Type.IsReward() {
		return errors.Wrapf(ruleerrors.ErrMalformedObject, "%s transactions are minted, not submitted",
			transaction.Type)
	}
	if transaction.From == nil {
		return errors.Wrapf(ruleerrors.ErrMalformedObject, "%s transaction has no sender", transaction.Type)
	}
	if len(transaction.Data) > v.maxDataSize {
		return errors.Wrapf(ruleerrors.ErrMalformedObject, "transaction data is %d bytes, above the "+
			"maximum of %d", len(transaction.Data), v.maxDataSize)
	}

	switch transaction.Type {
	case externalapi.TransactionTypePayment, externalapi.TransactionTypeRegisterValidator:
		if transaction.To == nil {
			return errors.Wrapf(ruleerrors.ErrMalformedObject, "%s transaction has no recipient", transaction.Type)
		}
	case externalapi.TransactionTypeContract:
		if transaction.To == nil && len(transaction.Data) == 0 {
			return errors.Wrapf(ruleerrors.ErrMalformedObject, "contract deployment without code")
		}
		if transaction.To != nil && !transaction.To.IsContract() {
			return errors.Wrapf(ruleerrors.ErrMalformedObject, "contract call to wallet %s", transaction.To)
		}
	case externalapi.TransactionTypeDeregisterValidator:
	default:
		return errors.Wrapf(ruleerrors.ErrMalformedObject, "unknown transaction type %s", transaction.Type)
	}

	if len(transaction.PublicKey) != schnorrPublicKeySize {
		return errors.Wrapf(ruleerrors.ErrMalformedObject, "transaction public key is %d bytes",
			len(transaction.PublicKey))
	}
	if !consensushashing.NewWalletAddress(transaction.PublicKey).Equal(transaction.From) {
		return errors.Wrapf(ruleerrors.ErrInvalidSignature, "public key does not belong to sender %s",
			transaction.From)
	}
	transactionHash := consensushashing.TransactionHash(transaction)
	if !signing.VerifySignature(transaction.PublicKey, transactionHash, transaction.Signature) {
		return errors.Wrapf(ruleerrors.ErrInvalidSignature, "transaction %s", transactionHash)
	}
	return nil
}

func (v *verifier) VerifyView(view *externalapi.View) error {
	if view.LastHash == nil {
		return errors.Wrapf(ruleerrors.ErrMalformedObject, "view %d does not reference its parent", view.ID)
	}
	lists := [][]*externalapi.DomainHash{view.Blocks, view.Votes, view.Transactions, view.ScheduledTransactions}
	seen := make(map[externalapi.DomainHash]struct{})
	for _, hashes := range lists {
		for _, hash := range hashes {
			if hash == nil {
				return errors.Wrapf(ruleerrors.ErrMalformedObject, "view %d has a nil reference", view.ID)
			}
			if _, ok := seen[*hash]; ok {
				return errors.Wrapf(ruleerrors.ErrDuplicateObject, "view %d references %s more than once",
					view.ID, hash)
			}
			seen[*hash] = struct{}{}
		}
	}
	return nil
}

// VerifyBatch verifies all the given objects in parallel. The first
// failure cancels the remaining work and is returned.
func (v *verifier) VerifyBatch(ctx context.Context, blocks []*externalapi.Block, votes []*externalapi.Vote,
	transactions []*externalapi.Transaction) error {

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(v.maxParallelism)

	spawn := func(verify func() error) {
		group.Go(func() error {
			select {
			case <-groupCtx.Done():
				return groupCtx.Err()
			default:
			}
			return verify()
		})
	}

	for _, block := range blocks {
		block := block
		spawn(func() error { return v.VerifyBlock(block) })
	}
	for _, vote := range votes {
		vote := vote
		spawn(func() error { return v.VerifyVote(vote) })
	}
	for _, transaction := range transactions {
		transaction := transaction
		spawn(func() error { return v.VerifyTransaction(transaction) })
	}
	return group.Wait()
}
