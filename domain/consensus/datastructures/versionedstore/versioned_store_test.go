package versionedstore

import (
	"bytes"
	"testing"

	"github.com/viewledger/viewd/domain/consensus/database"
	"github.com/viewledger/viewd/domain/consensus/model"
	"github.com/viewledger/viewd/infrastructure/db/database/ldb"
)

func prepareStore(t *testing.T) (model.DBManager, model.VersionedStore, func()) {
	db, err := ldb.NewMemoryLevelDB()
	if err != nil {
		t.Fatalf("NewMemoryLevelDB: %s", err)
	}
	store, err := New(database.MakeBucket([]byte("test")), model.VersionedIndexLedger, 10)
	if err != nil {
		t.Fatalf("New: %s", err)
	}
	teardown := func() {
		err := db.Close()
		if err != nil {
			t.Fatalf("Close: %s", err)
		}
	}
	return database.New(db), store, teardown
}

func commit(t *testing.T, dbManager model.DBManager, stagingArea *model.StagingArea) {
	dbTx, err := dbManager.Begin()
	if err != nil {
		t.Fatalf("Begin: %s", err)
	}
	defer dbTx.RollbackUnlessClosed()

	err = stagingArea.Commit(dbTx)
	if err != nil {
		t.Fatalf("Commit: %s", err)
	}
	err = dbTx.Commit()
	if err != nil {
		t.Fatalf("dbTx.Commit: %s", err)
	}
}

var (
	entityA = []byte{1, 1, 1}
	entityB = []byte{2, 2, 2}
)

func expectRecord(t *testing.T, testName string, record []byte, err error, expected string) {
	if err != nil {
		t.Fatalf("%s: unexpected error: %s", testName, err)
	}
	if !bytes.Equal(record, []byte(expected)) {
		t.Fatalf("%s: expected %q but got %q", testName, expected, record)
	}
}

func expectNotFound(t *testing.T, testName string, err error) {
	if !database.IsNotFoundError(err) {
		t.Fatalf("%s: expected a not found error but got: %v", testName, err)
	}
}

func TestVersionedStoreReads(t *testing.T) {
	dbManager, store, teardown := prepareStore(t)
	defer teardown()

	stagingArea := model.NewStagingArea()
	store.Stage(stagingArea, entityA, 1, []byte("a1"))
	store.Stage(stagingArea, entityA, 3, []byte("a3"))
	store.Stage(stagingArea, entityB, 2, []byte("b2"))

	record, err := store.Latest(dbManager, stagingArea, entityA)
	expectRecord(t, "staged Latest", record, err, "a3")

	commit(t, dbManager, stagingArea)

	stagingArea = model.NewStagingArea()
	record, err = store.Latest(dbManager, stagingArea, entityA)
	expectRecord(t, "Latest", record, err, "a3")
	record, err = store.AtHeight(dbManager, stagingArea, entityA, 2)
	expectRecord(t, "AtHeight(2)", record, err, "a1")
	record, err = store.AtHeight(dbManager, stagingArea, entityA, 3)
	expectRecord(t, "AtHeight(3)", record, err, "a3")
	_, err = store.AtHeight(dbManager, stagingArea, entityA, 0)
	expectNotFound(t, "AtHeight(0)", err)
	_, err = store.Latest(dbManager, stagingArea, []byte{3, 3, 3})
	expectNotFound(t, "Latest of unknown entity", err)

	store.Stage(stagingArea, entityB, 4, []byte("b4"))
	records, err := store.AllLatest(dbManager, stagingArea)
	if err != nil {
		t.Fatalf("AllLatest: %s", err)
	}
	if len(records) != 2 || string(records[0]) != "a3" || string(records[1]) != "b4" {
		t.Fatalf("AllLatest: unexpected records %q", records)
	}
}

func TestVersionedStoreDeleteVersionsAbove(t *testing.T) {
	dbManager, store, teardown := prepareStore(t)
	defer teardown()

	stagingArea := model.NewStagingArea()
	store.Stage(stagingArea, entityA, 1, []byte("a1"))
	store.Stage(stagingArea, entityA, 3, []byte("a3"))
	store.Stage(stagingArea, entityB, 2, []byte("b2"))
	commit(t, dbManager, stagingArea)

	// Warm up the cache so that deletion must invalidate it
	record, err := store.Latest(dbManager, model.NewStagingArea(), entityA)
	expectRecord(t, "Latest before deletion", record, err, "a3")

	stagingArea = model.NewStagingArea()
	store.DeleteVersionsAbove(stagingArea, 1)
	record, err = store.Latest(dbManager, stagingArea, entityA)
	expectRecord(t, "staged Latest after deletion", record, err, "a1")
	commit(t, dbManager, stagingArea)

	stagingArea = model.NewStagingArea()
	record, err = store.Latest(dbManager, stagingArea, entityA)
	expectRecord(t, "Latest after deletion", record, err, "a1")
	_, err = store.Latest(dbManager, stagingArea, entityB)
	expectNotFound(t, "Latest of deleted entity", err)

	records, err := store.AllLatest(dbManager, stagingArea)
	if err != nil {
		t.Fatalf("AllLatest: %s", err)
	}
	if len(records) != 1 || string(records[0]) != "a1" {
		t.Fatalf("AllLatest: unexpected records %q", records)
	}
}

func TestVersionedStoreDeleteNonLatestBeforeHeight(t *testing.T) {
	dbManager, store, teardown := prepareStore(t)
	defer teardown()

	stagingArea := model.NewStagingArea()
	store.Stage(stagingArea, entityA, 1, []byte("a1"))
	store.Stage(stagingArea, entityA, 4, []byte("a4"))
	store.Stage(stagingArea, entityA, 5, []byte("a5"))
	store.Stage(stagingArea, entityB, 2, []byte("b2"))
	commit(t, dbManager, stagingArea)

	stagingArea = model.NewStagingArea()
	store.DeleteNonLatestBeforeHeight(stagingArea, 4)
	commit(t, dbManager, stagingArea)

	stagingArea = model.NewStagingArea()
	_, err := store.AtHeight(dbManager, stagingArea, entityA, 3)
	expectNotFound(t, "AtHeight of a pruned version", err)
	record, err := store.AtHeight(dbManager, stagingArea, entityA, 4)
	expectRecord(t, "AtHeight(4)", record, err, "a4")
	record, err = store.Latest(dbManager, stagingArea, entityA)
	expectRecord(t, "Latest", record, err, "a5")
	record, err = store.Latest(dbManager, stagingArea, entityB)
	expectRecord(t, "Latest of an entity with a single version", record, err, "b2")
}

func TestVersionedStoreDeleteVersion(t *testing.T) {
	dbManager, store, teardown := prepareStore(t)
	defer teardown()

	stagingArea := model.NewStagingArea()
	store.Stage(stagingArea, entityA, 1, []byte("a1"))
	store.Stage(stagingArea, entityA, 2, []byte("a2"))
	commit(t, dbManager, stagingArea)

	stagingArea = model.NewStagingArea()
	store.DeleteVersion(stagingArea, entityA, 2)
	if !store.IsStaged(stagingArea) {
		t.Fatalf("IsStaged: expected the deletion to be staged")
	}
	commit(t, dbManager, stagingArea)

	record, err := store.Latest(dbManager, model.NewStagingArea(), entityA)
	expectRecord(t, "Latest after DeleteVersion", record, err, "a1")
}

func TestJournalEntriesStopAtHeight(t *testing.T) {
	dbManager, store, teardown := prepareStore(t)
	defer teardown()

	stagingArea := model.NewStagingArea()
	store.Stage(stagingArea, entityA, 1, []byte("a1"))
	store.Stage(stagingArea, entityB, 2, []byte("b2"))
	store.Stage(stagingArea, entityA, 3, []byte("a3"))
	store.Stage(stagingArea, entityA, 300, []byte("a300"))
	commit(t, dbManager, stagingArea)

	entries, err := store.(*versionedStore).journalEntries(dbManager, 3)
	if err != nil {
		t.Fatalf("journalEntries: %s", err)
	}
	expectedHeights := []uint64{1, 2, 3}
	if len(entries) != len(expectedHeights) {
		t.Fatalf("journalEntries: expected %d entries but got %d", len(expectedHeights), len(entries))
	}
	for i, entry := range entries {
		if entry.height != expectedHeights[i] {
			t.Fatalf("journalEntries: entry %d: expected height %d but got %d", i, expectedHeights[i], entry.height)
		}
	}

	stagingArea = model.NewStagingArea()
	store.DeleteNonLatestBeforeHeight(stagingArea, 3)
	commit(t, dbManager, stagingArea)

	stagingArea = model.NewStagingArea()
	record, err := store.AtHeight(dbManager, stagingArea, entityA, 299)
	expectRecord(t, "AtHeight(299) after pruning", record, err, "a3")
	record, err = store.Latest(dbManager, stagingArea, entityA)
	expectRecord(t, "Latest after pruning", record, err, "a300")
	_, err = store.AtHeight(dbManager, stagingArea, entityA, 2)
	expectNotFound(t, "AtHeight(2) after pruning", err)
}
