package repository

import (
	"github.com/viewledger/viewd/domain/consensus/model"
	"github.com/viewledger/viewd/domain/consensus/model/externalapi"
	"github.com/viewledger/viewd/domain/consensus/utils/consensushashing"
)

func (r *repository) StageView(stagingArea *model.StagingArea, view *externalapi.View) error {
	r.viewStore.Stage(stagingArea, consensushashing.ViewHash(view), view)
	return nil
}

func (r *repository) View(stagingArea *model.StagingArea, height uint64) (*externalapi.View, error) {
	return r.viewStore.View(r.databaseContext, stagingArea, height)
}

func (r *repository) ViewByHash(stagingArea *model.StagingArea, viewHash *externalapi.DomainHash) (*externalapi.View, error) {
	return r.viewStore.ViewByHash(r.databaseContext, stagingArea, viewHash)
}

func (r *repository) HasView(stagingArea *model.StagingArea, height uint64) (bool, error) {
	return r.viewStore.HasView(r.databaseContext, stagingArea, height)
}

func (r *repository) DeleteView(stagingArea *model.StagingArea, view *externalapi.View) error {
	r.viewStore.Delete(stagingArea, consensushashing.ViewHash(view), view.ID)
	return nil
}

func (r *repository) StageBlock(stagingArea *model.StagingArea, block *externalapi.Block) error {
	r.blockStore.Stage(stagingArea, consensushashing.BlockHash(block), block)
	return nil
}

func (r *repository) Block(stagingArea *model.StagingArea, blockHash *externalapi.DomainHash) (*externalapi.Block, error) {
	return r.blockStore.Block(r.databaseContext, stagingArea, blockHash)
}

func (r *repository) Blocks(stagingArea *model.StagingArea, blockHashes []*externalapi.DomainHash) ([]*externalapi.Block, error) {
	return r.blockStore.Blocks(r.databaseContext, stagingArea, blockHashes)
}

func (r *repository) HasBlock(stagingArea *model.StagingArea, blockHash *externalapi.DomainHash) (bool, error) {
	return r.blockStore.HasBlock(r.databaseContext, stagingArea, blockHash)
}

func (r *repository) DeleteBlock(stagingArea *model.StagingArea, blockHash *externalapi.DomainHash) {
	r.blockStore.Delete(stagingArea, blockHash)
}

func (r *repository) StageVote(stagingArea *model.StagingArea, vote *externalapi.Vote) error {
	r.voteStore.Stage(stagingArea, consensushashing.VoteHash(vote), vote)
	return nil
}

func (r *repository) Vote(stagingArea *model.StagingArea, voteHash *externalapi.DomainHash) (*externalapi.Vote, error) {
	return r.voteStore.Vote(r.databaseContext, stagingArea, voteHash)
}

func (r *repository) Votes(stagingArea *model.StagingArea, voteHashes []*externalapi.DomainHash) ([]*externalapi.Vote, error) {
	return r.voteStore.Votes(r.databaseContext, stagingArea, voteHashes)
}

func (r *repository) HasVote(stagingArea *model.StagingArea, voteHash *externalapi.DomainHash) (bool, error) {
	return r.voteStore.HasVote(r.databaseContext, stagingArea, voteHash)
}

func (r *repository) DeleteVote(stagingArea *model.StagingArea, voteHash *externalapi.DomainHash) {
	r.voteStore.Delete(stagingArea, voteHash)
}

func (r *repository) StageTransaction(stagingArea *model.StagingArea, transaction *externalapi.Transaction) error {
	r.transactionStore.Stage(stagingArea, consensushashing.TransactionHash(transaction), transaction)
	return nil
}

func (r *repository) Transaction(stagingArea *model.StagingArea,
	transactionHash *externalapi.DomainHash) (*externalapi.Transaction, error) {

	return r.transactionStore.Transaction(r.databaseContext, stagingArea, transactionHash)
}

func (r *repository) Transactions(stagingArea *model.StagingArea,
	transactionHashes []*externalapi.DomainHash) ([]*externalapi.Transaction, error) {

	return r.transactionStore.Transactions(r.databaseContext, stagingArea, transactionHashes)
}

func (r *repository) HasTransaction(stagingArea *model.StagingArea, transactionHash *externalapi.DomainHash) (bool, error) {
	return r.transactionStore.HasTransaction(r.databaseContext, stagingArea, transactionHash)
}

func (r *repository) DeleteTransaction(stagingArea *model.StagingArea, transactionHash *externalapi.DomainHash) {
	r.transactionStore.Delete(stagingArea, transactionHash)
}

func (r *repository) StageChainState(stagingArea *model.StagingArea, chainState *externalapi.ChainState) {
	r.chainStateStore.Stage(stagingArea, chainState)
}

func (r *repository) ChainState(stagingArea *model.StagingArea) (*externalapi.ChainState, error) {
	return r.chainStateStore.ChainState(r.databaseContext, stagingArea)
}

func (r *repository) ChainStateAt(stagingArea *model.StagingArea, height uint64) (*externalapi.ChainState, error) {
	return r.chainStateStore.ChainStateAt(r.databaseContext, stagingArea, height)
}

func (r *repository) HasChainState(stagingArea *model.StagingArea) (bool, error) {
	return r.chainStateStore.HasChainState(r.databaseContext, stagingArea)
}

func (r *repository) DeleteChainStateSnapshot(stagingArea *model.StagingArea, height uint64) {
	r.chainStateStore.DeleteSnapshot(stagingArea, height)
}

func (r *repository) AddDueTransaction(stagingArea *model.StagingArea, transactionHash *externalapi.DomainHash, dueTimestamp int64) {
	r.dueTransactionStore.Stage(stagingArea, transactionHash, dueTimestamp)
}

func (r *repository) RemoveDueTransaction(stagingArea *model.StagingArea, transactionHash *externalapi.DomainHash) {
	r.dueTransactionStore.Delete(stagingArea, transactionHash)
}

func (r *repository) IsDueTransaction(stagingArea *model.StagingArea, transactionHash *externalapi.DomainHash) (bool, error) {
	return r.dueTransactionStore.Has(r.databaseContext, stagingArea, transactionHash)
}

func (r *repository) DueTransactions(stagingArea *model.StagingArea) ([]*externalapi.DomainHash, error) {
	return r.dueTransactionStore.All(r.databaseContext, stagingArea)
}
