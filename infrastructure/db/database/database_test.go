package database_test

import (
	"bytes"
	"testing"

	"github.com/viewledger/viewd/infrastructure/db/database"
)

func TestDatabasePut(t *testing.T) {
	testForAllDatabaseTypes(t, "TestDatabasePut", testDatabasePut)
}

func testDatabasePut(t *testing.T, db database.Database, testName string) {
	// Put value1 into the database
	key := database.MakeBucket(nil).Key([]byte("key"))
	value1 := []byte("value1")
	err := db.Put(key, value1)
	if err != nil {
		t.Fatalf("%s: Put "+
			"unexpectedly failed: %s", testName, err)
	}

	// Make sure that the returned value is value1
	returnedValue, err := db.Get(key)
	if err != nil {
		t.Fatalf("%s: Get "+
			"unexpectedly failed: %s", testName, err)
	}
	if !bytes.Equal(returnedValue, value1) {
		t.Fatalf("%s: Get "+
			"returned wrong value. Want: %s, got: %s",
			testName, string(value1), string(returnedValue))
	}

	// Put value2 into the database with the same key
	value2 := []byte("value2")
	err = db.Put(key, value2)
	if err != nil {
		t.Fatalf("%s: Put "+
			"unexpectedly failed: %s", testName, err)
	}

	// Make sure that the returned value is value2
	returnedValue, err = db.Get(key)
	if err != nil {
		t.Fatalf("%s: Get "+
			"unexpectedly failed: %s", testName, err)
	}
	if !bytes.Equal(returnedValue, value2) {
		t.Fatalf("%s: Get "+
			"returned wrong value. Want: %s, got: %s",
			testName, string(value2), string(returnedValue))
	}
}

func TestDatabaseGetNotFound(t *testing.T) {
	testForAllDatabaseTypes(t, "TestDatabaseGetNotFound", testDatabaseGetNotFound)
}

func testDatabaseGetNotFound(t *testing.T, db database.Database, testName string) {
	nonExistingKey := database.MakeBucket(nil).Key([]byte("doesn't exist"))
	_, err := db.Get(nonExistingKey)
	if err == nil {
		t.Fatalf("%s: Get "+
			"unexpectedly succeeded", testName)
	}
	if !database.IsNotFoundError(err) {
		t.Fatalf("%s: Get "+
			"returned wrong error: %s", testName, err)
	}
}

func TestDatabaseHasAndDelete(t *testing.T) {
	testForAllDatabaseTypes(t, "TestDatabaseHasAndDelete", testDatabaseHasAndDelete)
}

func testDatabaseHasAndDelete(t *testing.T, db database.Database, testName string) {
	entries := populateDatabaseForTest(t, db, testName)

	for _, entry := range entries {
		exists, err := db.Has(entry.key)
		if err != nil {
			t.Fatalf("%s: Has "+
				"unexpectedly failed: %s", testName, err)
		}
		if !exists {
			t.Fatalf("%s: Has "+
				"unexpectedly returned that the value does not exist", testName)
		}
	}

	// Delete the first entry, and delete it again to make sure
	// that deleting a missing key is not an error
	for i := 0; i < 2; i++ {
		err := db.Delete(entries[0].key)
		if err != nil {
			t.Fatalf("%s: Delete "+
				"unexpectedly failed: %s", testName, err)
		}
	}

	exists, err := db.Has(entries[0].key)
	if err != nil {
		t.Fatalf("%s: Has "+
			"unexpectedly failed: %s", testName, err)
	}
	if exists {
		t.Fatalf("%s: Has "+
			"unexpectedly returned that the deleted value exists", testName)
	}
}
