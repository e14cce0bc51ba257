package rollbackengine

import (
	"github.com/viewledger/viewd/infrastructure/logger"
)

var log = logger.RegisterSubSystem("RLBK")
