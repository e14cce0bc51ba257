package execenv

import (
	"runtime"
	"runtime/debug"
)

// gcPercent keeps the heap close to the live set. The ledger caches are
// bounded, so frequent collections cost little.
const gcPercent = 20

// Initialize initializes the execution environment required to run viewd
func Initialize() {
	// Use all processor cores.
	runtime.GOMAXPROCS(runtime.NumCPU())

	debug.SetGCPercent(gcPercent)
}
