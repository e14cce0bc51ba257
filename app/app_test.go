package app

import (
	"os"
	"testing"

	"github.com/viewledger/viewd/infrastructure/config"
)

func TestOpenDB(t *testing.T) {
	for _, dbType := range []string{config.DbTypeLevelDB, config.DbTypeBadger} {
		cfg := testConfig()
		cfg.AppDir = t.TempDir()
		cfg.DbType = dbType
		cfg.DbCacheSizeMiB = 8

		db, err := openDB(cfg)
		if err != nil {
			t.Fatalf("%s: openDB: %+v", dbType, err)
		}
		_, err = os.Stat(versionFilePath(databasePath(cfg)))
		if err != nil {
			t.Fatalf("%s: expected a version file: %s", dbType, err)
		}
		err = db.Close()
		if err != nil {
			t.Fatalf("%s: Close: %s", dbType, err)
		}

		// Reopening an existing database keeps its version file
		db, err = openDB(cfg)
		if err != nil {
			t.Fatalf("%s: openDB: %+v", dbType, err)
		}
		db.Close()
	}
}

func TestOpenDBVersionMismatch(t *testing.T) {
	cfg := testConfig()
	cfg.AppDir = t.TempDir()

	err := os.MkdirAll(databasePath(cfg), 0700)
	if err != nil {
		t.Fatalf("MkdirAll: %s", err)
	}
	err = os.WriteFile(versionFilePath(databasePath(cfg)), []byte("2"), 0600)
	if err != nil {
		t.Fatalf("WriteFile: %s", err)
	}
	_, err = openDB(cfg)
	if err == nil {
		t.Fatalf("TestOpenDBVersionMismatch: expected an error for a database of another version")
	}
}
