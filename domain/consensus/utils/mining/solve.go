package mining

import (
	"math"
	"math/rand"

	"github.com/pkg/errors"
	"github.com/viewledger/viewd/domain/consensus/model/externalapi"
	"github.com/viewledger/viewd/domain/consensus/utils/consensushashing"
	"github.com/viewledger/viewd/domain/consensus/utils/difficulty"
)

// SolveBlock increments the given block's nonce until it matches the
// difficulty requirements in its bits field
func SolveBlock(block *externalapi.Block, rd *rand.Rand) {
	for i := rd.Uint64(); i < math.MaxUint64; i++ {
		block.Nonce = i
		if difficulty.CheckProofOfWork(consensushashing.BlockHash(block), block.Difficulty) {
			return
		}
	}

	panic(errors.New("went over all the nonce space and couldn't find a single one that gives a valid block"))
}
