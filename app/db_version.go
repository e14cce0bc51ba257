package app

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

const currentDatabaseVersion = 1

func checkDatabaseVersion(dbPath string) (doesVersionFileExist bool, err error) {
	dbVersionFileName := versionFilePath(dbPath)
	versionBytes, err := os.ReadFile(dbVersionFileName)
	if err != nil {
		if os.IsNotExist(err) { // If version file doesn't exist, we assume that the database is new
			return false, nil
		}
		return false, errors.WithStack(err)
	}

	databaseVersion, err := strconv.Atoi(strings.TrimSpace(string(versionBytes)))
	if err != nil {
		return true, errors.Wrapf(err, "malformed database version file %s", dbVersionFileName)
	}

	if databaseVersion != currentDatabaseVersion {
		return true, errors.Errorf("Invalid database version %d. Expected version: %d", databaseVersion, currentDatabaseVersion)
	}

	return true, nil
}

func createDatabaseVersionFile(dbPath string) error {
	dbVersionFileName := versionFilePath(dbPath)

	versionString := strconv.Itoa(currentDatabaseVersion)
	err := os.WriteFile(dbVersionFileName, []byte(versionString), 0600)
	return errors.WithStack(err)
}

func versionFilePath(dbPath string) string {
	return filepath.Join(dbPath, "version")
}
