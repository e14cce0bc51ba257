package stagingcoordinator

import (
	"github.com/viewledger/viewd/infrastructure/logger"
)

var log = logger.RegisterSubSystem("STGC")
