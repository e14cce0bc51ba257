package apiserver

import (
	"github.com/viewledger/viewd/infrastructure/logger"
	"github.com/viewledger/viewd/util/panics"
)

var log = logger.RegisterSubSystem("APIS")
var spawn = panics.GoroutineWrapperFunc(log)
