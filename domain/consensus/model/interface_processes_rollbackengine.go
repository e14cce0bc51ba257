package model

import "github.com/viewledger/viewd/domain/consensus/model/externalapi"

// RollbackEngine reverse-applies committed views down to a target height
type RollbackEngine interface {
	RollbackTo(targetHeight uint64) ([]*externalapi.Event, error)
}
