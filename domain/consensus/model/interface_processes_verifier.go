package model

import (
	"context"

	"github.com/viewledger/viewd/domain/consensus/model/externalapi"
)

// Verifier runs the context-free checks an object must pass before it
// is admitted: structure, proof-of-work and signatures
type Verifier interface {
	VerifyBlock(block *externalapi.Block) error
	VerifyVote(vote *externalapi.Vote) error
	VerifyTransaction(transaction *externalapi.Transaction) error
	VerifyView(view *externalapi.View) error
	VerifyBatch(ctx context.Context, blocks []*externalapi.Block, votes []*externalapi.Vote,
		transactions []*externalapi.Transaction) error
}
