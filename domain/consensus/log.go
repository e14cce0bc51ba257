package consensus

import (
	"github.com/viewledger/viewd/infrastructure/logger"
)

var log = logger.RegisterSubSystem("CONS")
