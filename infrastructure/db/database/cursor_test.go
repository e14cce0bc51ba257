package database_test

import (
	"bytes"
	"fmt"
	"reflect"
	"strings"
	"testing"

	"github.com/viewledger/viewd/infrastructure/db/database"
)

func validateCurrentCursorKeyAndValue(t *testing.T, testName string, cursor database.Cursor,
	expectedKey *database.Key, expectedValue []byte) {

	cursorKey, err := cursor.Key()
	if err != nil {
		t.Fatalf("%s: Key "+
			"unexpectedly failed: %s", testName, err)
	}
	if !reflect.DeepEqual(cursorKey, expectedKey) {
		t.Fatalf("%s: Key "+
			"returned wrong key. Want: %s, got: %s",
			testName, string(expectedKey.Bytes()), string(cursorKey.Bytes()))
	}
	cursorValue, err := cursor.Value()
	if err != nil {
		t.Fatalf("%s: Value "+
			"unexpectedly failed for key %s: %s",
			testName, cursorKey, err)
	}
	if !bytes.Equal(cursorValue, expectedValue) {
		t.Fatalf("%s: Value "+
			"returned wrong value for key %s. Want: %s, got: %s",
			testName, cursorKey, string(expectedValue), string(cursorValue))
	}
}

func recoverFromClosedCursorPanic(t *testing.T, testName string) {
	panicErr := recover()
	if panicErr == nil {
		t.Fatalf("%s: cursor unexpectedly "+
			"didn't panic after being closed", testName)
	}
	expectedPanicErr := "closed cursor"
	if !strings.Contains(fmt.Sprintf("%v", panicErr), expectedPanicErr) {
		t.Fatalf("%s: cursor panicked "+
			"with wrong message. Want: %v, got: %s",
			testName, expectedPanicErr, panicErr)
	}
}

// TestCursorSanity validates typical cursor usage, including
// opening a cursor over some existing data, seeking back
// and forth over that data, and getting some keys/values out
// of the cursor.
func TestCursorSanity(t *testing.T) {
	testForAllDatabaseTypes(t, "TestCursorSanity", testCursorSanity)
}

func testCursorSanity(t *testing.T, db database.Database, testName string) {
	bucket := database.MakeBucket([]byte("bucket"))
	populateDatabaseForTest(t, db, testName)

	// Data outside the bucket must not be visible to the cursor
	err := db.Put(database.MakeBucket([]byte("other")).Key([]byte("key")), []byte("other"))
	if err != nil {
		t.Fatalf("%s: Put "+
			"unexpectedly failed: %s", testName, err)
	}

	cursor, err := db.Cursor(bucket)
	if err != nil {
		t.Fatalf("%s: Cursor "+
			"unexpectedly failed: %s", testName, err)
	}
	defer func() {
		err := cursor.Close()
		if err != nil {
			t.Fatalf("%s: Close "+
				"unexpectedly failed: %s", testName, err)
		}
	}()

	// Seek to first key and make sure its key and value are correct
	hasNext := cursor.First()
	if !hasNext {
		t.Fatalf("%s: First "+
			"unexpectedly returned non-existence", testName)
	}
	validateCurrentCursorKeyAndValue(t, testName, cursor, bucket.Key([]byte("key0")), []byte("value0"))

	// Seek to a non-existent key
	err = cursor.Seek(database.MakeBucket().Key([]byte("doesn't exist")))
	if err == nil {
		t.Fatalf("%s: Seek "+
			"unexpectedly succeeded", testName)
	}
	if !database.IsNotFoundError(err) {
		t.Fatalf("%s: Seek "+
			"returned wrong error: %s", testName, err)
	}

	// Seek to the last key
	err = cursor.Seek(bucket.Key([]byte("key9")))
	if err != nil {
		t.Fatalf("%s: Seek "+
			"unexpectedly failed: %s", testName, err)
	}
	validateCurrentCursorKeyAndValue(t, testName, cursor, bucket.Key([]byte("key9")), []byte("value9"))

	// Call Next to get to the end of the cursor. This should
	// return false to signify that there are no items after that.
	// Key and Value calls should return ErrNotFound.
	hasNext = cursor.Next()
	if hasNext {
		t.Fatalf("%s: Next "+
			"after last value is unexpectedly not done", testName)
	}
	_, err = cursor.Key()
	if !database.IsNotFoundError(err) {
		t.Fatalf("%s: Key "+
			"returned wrong error: %v", testName, err)
	}
	_, err = cursor.Value()
	if !database.IsNotFoundError(err) {
		t.Fatalf("%s: Value "+
			"returned wrong error: %v", testName, err)
	}
}

func TestCursorNext(t *testing.T) {
	testForAllDatabaseTypes(t, "TestCursorNext", testCursorNext)
}

func testCursorNext(t *testing.T, db database.Database, testName string) {
	entries := populateDatabaseForTest(t, db, testName)

	cursor, err := db.Cursor(database.MakeBucket([]byte("bucket")))
	if err != nil {
		t.Fatalf("%s: Cursor "+
			"unexpectedly failed: %s", testName, err)
	}
	defer cursor.Close()

	// A fresh cursor starts before the first entry
	for _, entry := range entries {
		if !cursor.Next() {
			t.Fatalf("%s: Next "+
				"unexpectedly returned false", testName)
		}
		validateCurrentCursorKeyAndValue(t, testName, cursor, entry.key, entry.value)
	}
	if cursor.Next() {
		t.Fatalf("%s: Next "+
			"unexpectedly returned true after the last entry", testName)
	}
}

func TestCursorCloseErrors(t *testing.T) {
	testForAllDatabaseTypes(t, "TestCursorCloseErrors", testCursorCloseErrors)
}

func testCursorCloseErrors(t *testing.T, db database.Database, testName string) {
	tests := []struct {
		name string

		// function is the Cursor function that we're
		// verifying returns an error after the cursor had
		// been closed.
		function func(cursor database.Cursor) error
	}{
		{
			name: "Seek",
			function: func(cursor database.Cursor) error {
				return cursor.Seek(database.MakeBucket().Key([]byte{}))
			},
		},
		{
			name: "Key",
			function: func(cursor database.Cursor) error {
				_, err := cursor.Key()
				return err
			},
		},
		{
			name: "Value",
			function: func(cursor database.Cursor) error {
				_, err := cursor.Value()
				return err
			},
		},
		{
			name: "Close",
			function: func(cursor database.Cursor) error {
				return cursor.Close()
			},
		},
	}

	for _, test := range tests {
		cursor, err := db.Cursor(database.MakeBucket())
		if err != nil {
			t.Fatalf("%s: Cursor "+
				"unexpectedly failed: %s", testName, err)
		}
		err = cursor.Close()
		if err != nil {
			t.Fatalf("%s: Close "+
				"unexpectedly failed: %s", testName, err)
		}

		err = test.function(cursor)
		if err == nil {
			t.Fatalf("%s: %s "+
				"unexpectedly succeeded", testName, test.name)
		}
		if !strings.Contains(err.Error(), "closed cursor") {
			t.Fatalf("%s: %s "+
				"returned wrong error. Want: %s, got: %s",
				testName, test.name, "closed cursor", err)
		}
	}
}

func TestCursorCloseFirstAndNext(t *testing.T) {
	testForAllDatabaseTypes(t, "TestCursorCloseFirstAndNext", testCursorCloseFirstAndNext)
}

func testCursorCloseFirstAndNext(t *testing.T, db database.Database, testName string) {
	populateDatabaseForTest(t, db, testName)

	cursor, err := db.Cursor(database.MakeBucket([]byte("bucket")))
	if err != nil {
		t.Fatalf("%s: Cursor "+
			"unexpectedly failed: %s", testName, err)
	}
	err = cursor.Close()
	if err != nil {
		t.Fatalf("%s: Close "+
			"unexpectedly failed: %s", testName, err)
	}

	// We expect First to panic
	func() {
		defer recoverFromClosedCursorPanic(t, testName)
		cursor.First()
	}()

	// We expect Next to panic
	func() {
		defer recoverFromClosedCursorPanic(t, testName)
		cursor.Next()
	}()
}
