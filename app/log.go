package app

import (
	"github.com/viewledger/viewd/infrastructure/logger"
	"github.com/viewledger/viewd/util/panics"
)

var log = logger.RegisterSubSystem("VIWD")
var spawn = panics.GoroutineWrapperFunc(log)
