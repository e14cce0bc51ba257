// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package winservice

import (
	"github.com/viewledger/viewd/infrastructure/logger"
	"github.com/viewledger/viewd/util/panics"
)

var log = logger.RegisterSubSystem("SRVC")
var spawn = panics.GoroutineWrapperFunc(log)
