package app

import (
	"os"
	"testing"
)

func TestDatabaseVersion(t *testing.T) {
	dbPath := t.TempDir()

	exists, err := checkDatabaseVersion(dbPath)
	if err != nil {
		t.Fatalf("checkDatabaseVersion: %s", err)
	}
	if exists {
		t.Fatalf("TestDatabaseVersion: expected no version file in a new database")
	}

	err = createDatabaseVersionFile(dbPath)
	if err != nil {
		t.Fatalf("createDatabaseVersionFile: %s", err)
	}
	exists, err = checkDatabaseVersion(dbPath)
	if err != nil {
		t.Fatalf("checkDatabaseVersion: %s", err)
	}
	if !exists {
		t.Fatalf("TestDatabaseVersion: expected the version file to exist")
	}

	err = os.WriteFile(versionFilePath(dbPath), []byte("7"), 0600)
	if err != nil {
		t.Fatalf("WriteFile: %s", err)
	}
	_, err = checkDatabaseVersion(dbPath)
	if err == nil {
		t.Fatalf("TestDatabaseVersion: expected an error for an unknown database version")
	}

	err = os.WriteFile(versionFilePath(dbPath), []byte("seven"), 0600)
	if err != nil {
		t.Fatalf("WriteFile: %s", err)
	}
	_, err = checkDatabaseVersion(dbPath)
	if err == nil {
		t.Fatalf("TestDatabaseVersion: expected an error for a malformed version file")
	}
}
