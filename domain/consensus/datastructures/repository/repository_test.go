package repository

import (
	"math/big"
	"testing"

	"github.com/davecgh/go-spew/spew"
	"github.com/viewledger/viewd/domain/consensus/database"
	"github.com/viewledger/viewd/domain/consensus/model"
	"github.com/viewledger/viewd/domain/consensus/model/externalapi"
	"github.com/viewledger/viewd/domain/consensus/utils/consensushashing"
	"github.com/viewledger/viewd/infrastructure/db/database/ldb"
)

func prepareRepository(t *testing.T) (model.Repository, func()) {
	db, err := ldb.NewMemoryLevelDB()
	if err != nil {
		t.Fatalf("NewMemoryLevelDB: %s", err)
	}
	repository, err := New(database.New(db), DefaultCacheSizes)
	if err != nil {
		t.Fatalf("New: %s", err)
	}
	return repository, func() {
		err := db.Close()
		if err != nil {
			t.Fatalf("Close: %s", err)
		}
	}
}

func TestRepositoryRoundTrip(t *testing.T) {
	repository, teardown := prepareRepository(t)
	defer teardown()

	wallet := externalapi.NewAddress(externalapi.AddressTagWallet, &[externalapi.AddressHashSize]byte{1})
	block := &externalapi.Block{
		To:         wallet,
		Value:      10,
		Timestamp:  100,
		LastHash:   externalapi.NewZeroHash(),
		Difficulty: 0x207fffff,
	}
	blockHash := consensushashing.BlockHash(block)
	view := &externalapi.View{
		ID:        1,
		Timestamp: 200,
		LastHash:  externalapi.NewZeroHash(),
		Blocks:    []*externalapi.DomainHash{blockHash},
	}
	viewHash := consensushashing.ViewHash(view)
	chainState := &externalapi.ChainState{
		ID:        1,
		ViewHash:  viewHash,
		Weight:    big.NewInt(5),
		TotalWork: big.NewInt(2),
		Timestamp: 200,
	}

	stagingArea := model.NewStagingArea()
	err := repository.StageBlock(stagingArea, block)
	if err != nil {
		t.Fatalf("StageBlock: %s", err)
	}
	err = repository.StageView(stagingArea, view)
	if err != nil {
		t.Fatalf("StageView: %s", err)
	}
	repository.StageChainState(stagingArea, chainState)
	err = repository.StageLedger(stagingArea, 1, &externalapi.Ledger{Address: wallet, Balance: 10})
	if err != nil {
		t.Fatalf("StageLedger: %s", err)
	}
	repository.AddDueTransaction(stagingArea, blockHash, 300)

	err = repository.Commit(stagingArea)
	if err != nil {
		t.Fatalf("Commit: %s", err)
	}

	stagingArea = model.NewStagingArea()
	storedBlock, err := repository.Block(stagingArea, blockHash)
	if err != nil {
		t.Fatalf("Block: %s", err)
	}
	if !storedBlock.Equal(block) {
		t.Fatalf("Block: expected %s but got %s", spew.Sdump(block), spew.Sdump(storedBlock))
	}

	storedView, err := repository.ViewByHash(stagingArea, viewHash)
	if err != nil {
		t.Fatalf("ViewByHash: %s", err)
	}
	if !storedView.Equal(view) {
		t.Fatalf("ViewByHash: expected %s but got %s", spew.Sdump(view), spew.Sdump(storedView))
	}

	storedChainState, err := repository.ChainStateAt(stagingArea, 1)
	if err != nil {
		t.Fatalf("ChainStateAt: %s", err)
	}
	if !storedChainState.Equal(chainState) {
		t.Fatalf("ChainStateAt: expected %s but got %s", spew.Sdump(chainState), spew.Sdump(storedChainState))
	}

	ledgers, err := repository.AllLedgers(stagingArea)
	if err != nil {
		t.Fatalf("AllLedgers: %s", err)
	}
	if len(ledgers) != 1 || ledgers[0].Balance != 10 {
		t.Fatalf("AllLedgers: unexpected ledgers %s", spew.Sdump(ledgers))
	}

	isDue, err := repository.IsDueTransaction(stagingArea, blockHash)
	if err != nil {
		t.Fatalf("IsDueTransaction: %s", err)
	}
	if !isDue {
		t.Fatalf("IsDueTransaction: expected the transaction to be indexed")
	}
}

func TestRepositoryDeleteView(t *testing.T) {
	repository, teardown := prepareRepository(t)
	defer teardown()

	view := &externalapi.View{ID: 7, Timestamp: 1, LastHash: externalapi.NewZeroHash()}
	stagingArea := model.NewStagingArea()
	err := repository.StageView(stagingArea, view)
	if err != nil {
		t.Fatalf("StageView: %s", err)
	}
	err = repository.Commit(stagingArea)
	if err != nil {
		t.Fatalf("Commit: %s", err)
	}

	stagingArea = model.NewStagingArea()
	err = repository.DeleteView(stagingArea, view)
	if err != nil {
		t.Fatalf("DeleteView: %s", err)
	}
	err = repository.Commit(stagingArea)
	if err != nil {
		t.Fatalf("Commit: %s", err)
	}

	stagingArea = model.NewStagingArea()
	hasView, err := repository.HasView(stagingArea, 7)
	if err != nil {
		t.Fatalf("HasView: %s", err)
	}
	if hasView {
		t.Fatalf("HasView: expected the view to be deleted")
	}
	_, err = repository.ViewByHash(stagingArea, consensushashing.ViewHash(view))
	if !database.IsNotFoundError(err) {
		t.Fatalf("ViewByHash: expected a not found error but got: %v", err)
	}
}
