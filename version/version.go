package version

import (
	"fmt"
	"strings"
	"sync"
)

// validCharacters is a list of characters valid in the appBuild string
const validCharacters = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz-"

// AppName is the name viewd reports itself under
const AppName = "viewd"

const (
	appMajor uint = 0
	appMinor uint = 3
	appPatch uint = 0
)

// appBuild is defined as a variable so it can be overridden during the build
// process with '-ldflags "-X github.com/viewledger/viewd/version.appBuild=foo"' if needed.
// It MUST only contain characters from validCharacters.
var appBuild string

var (
	version     string
	versionOnce sync.Once
)

// Version returns the application version as a properly formed string
func Version() string {
	versionOnce.Do(func() {
		version = formatVersion(appMajor, appMinor, appPatch, appBuild)
	})
	return version
}

// UserAgent returns the name and version of the application, as reported
// by the API server
func UserAgent() string {
	return fmt.Sprintf("%s/%s", AppName, Version())
}

func formatVersion(major, minor, patch uint, build string) string {
	formatted := fmt.Sprintf("%d.%d.%d", major, minor, patch)

	// The build metadata is dropped if it contains invalid characters.
	if isValidBuild(build) && build != "" {
		formatted = fmt.Sprintf("%s-%s", formatted, build)
	}
	return formatted
}

func isValidBuild(build string) bool {
	for _, r := range build {
		if !strings.ContainsRune(validCharacters, r) {
			return false
		}
	}
	return true
}
