package database_test

import (
	"fmt"
	"os"
	"testing"

	"github.com/viewledger/viewd/infrastructure/db/database"
	"github.com/viewledger/viewd/infrastructure/db/database/badgerdb"
	"github.com/viewledger/viewd/infrastructure/db/database/ldb"
)

type databasePrepareFunc func(t *testing.T, testName string) (db database.Database, name string, teardownFunc func())

// databasePrepareFuncs is a set of functions, in which each function
// prepares a separate database type for testing.
// See testForAllDatabaseTypes for further details.
var databasePrepareFuncs = []databasePrepareFunc{
	prepareLDBForTest,
	prepareMemoryLDBForTest,
	prepareBadgerForTest,
}

func prepareLDBForTest(t *testing.T, testName string) (db database.Database, name string, teardownFunc func()) {
	// Create a temp db to run tests against
	path, err := os.MkdirTemp("", testName)
	if err != nil {
		t.Fatalf("%s: MkdirTemp unexpectedly "+
			"failed: %s", testName, err)
	}
	db, err = ldb.NewLevelDB(path, 8)
	if err != nil {
		t.Fatalf("%s: Open unexpectedly "+
			"failed: %s", testName, err)
	}
	teardownFunc = func() {
		err = db.Close()
		if err != nil {
			t.Fatalf("%s: Close unexpectedly "+
				"failed: %s", testName, err)
		}
		os.RemoveAll(path)
	}
	return db, "ldb", teardownFunc
}

func prepareMemoryLDBForTest(t *testing.T, testName string) (db database.Database, name string, teardownFunc func()) {
	db, err := ldb.NewMemoryLevelDB()
	if err != nil {
		t.Fatalf("%s: NewMemoryLevelDB unexpectedly "+
			"failed: %s", testName, err)
	}
	teardownFunc = func() {
		err = db.Close()
		if err != nil {
			t.Fatalf("%s: Close unexpectedly "+
				"failed: %s", testName, err)
		}
	}
	return db, "memldb", teardownFunc
}

func prepareBadgerForTest(t *testing.T, testName string) (db database.Database, name string, teardownFunc func()) {
	path, err := os.MkdirTemp("", testName)
	if err != nil {
		t.Fatalf("%s: MkdirTemp unexpectedly "+
			"failed: %s", testName, err)
	}
	db, err = badgerdb.NewBadgerDB(path)
	if err != nil {
		t.Fatalf("%s: Open unexpectedly "+
			"failed: %s", testName, err)
	}
	teardownFunc = func() {
		err = db.Close()
		if err != nil {
			t.Fatalf("%s: Close unexpectedly "+
				"failed: %s", testName, err)
		}
		os.RemoveAll(path)
	}
	return db, "badger", teardownFunc
}

// testForAllDatabaseTypes runs the given testFunc for every database
// type defined in databasePrepareFuncs. This is to make sure that
// all supported database types adhere to the assumptions defined in
// the interfaces in this package.
func testForAllDatabaseTypes(t *testing.T, testName string,
	testFunc func(t *testing.T, db database.Database, testName string)) {

	for _, prepareDatabase := range databasePrepareFuncs {
		func() {
			db, dbType, teardownFunc := prepareDatabase(t, testName)
			defer teardownFunc()

			testName := fmt.Sprintf("%s: %s", dbType, testName)
			testFunc(t, db, testName)
		}()
	}
}

type keyValuePair struct {
	key   *database.Key
	value []byte
}

func populateDatabaseForTest(t *testing.T, db database.Database, testName string) []keyValuePair {
	// Prepare a list of key/value pairs
	entries := make([]keyValuePair, 10)
	for i := 0; i < 10; i++ {
		key := database.MakeBucket([]byte("bucket")).Key([]byte(fmt.Sprintf("key%d", i)))
		value := []byte(fmt.Sprintf("value%d", i))
		entries[i] = keyValuePair{key: key, value: value}
	}

	// Put the pairs into the database
	for _, entry := range entries {
		err := db.Put(entry.key, entry.value)
		if err != nil {
			t.Fatalf("%s: Put unexpectedly "+
				"failed: %s", testName, err)
		}
	}

	return entries
}
