package difficultymanager

import (
	"math/big"
	"time"

	"github.com/viewledger/viewd/domain/consensus/model"
	"github.com/viewledger/viewd/domain/consensus/model/externalapi"
	"github.com/viewledger/viewd/domain/consensus/utils/difficulty"
)

// difficultyManager retargets the difficulty over a window of the
// latest views
type difficultyManager struct {
	repository                     model.Repository
	powMax                         *big.Int
	startingDifficulty             uint8
	targetTimePerBlock             time.Duration
	difficultyAdjustmentWindowSize uint64
}

// New instantiates a new DifficultyManager
func New(repository model.Repository, powMax *big.Int, startingDifficulty uint8,
	targetTimePerBlock time.Duration, difficultyAdjustmentWindowSize uint64) model.DifficultyManager {

	return &difficultyManager{
		repository:                     repository,
		powMax:                         powMax,
		startingDifficulty:             startingDifficulty,
		targetTimePerBlock:             targetTimePerBlock,
		difficultyAdjustmentWindowSize: difficultyAdjustmentWindowSize,
	}
}

// StartingDifficulty returns the compact target of the genesis view
func (dm *difficultyManager) StartingDifficulty() uint32 {
	return difficulty.BigToCompact(difficulty.StartingTarget(dm.startingDifficulty, dm.powMax))
}

// Scale returns the difficulty of the view that follows chainState.
// The view chainState describes must already be staged in stagingArea.
//
// The new target is averageBlockTarget * windowTimespan / (targetTimePerBlock * windowBlocks),
// with the timespan clamped to a factor of 4 around the expected one.
// The difficulty is kept while the window holds fewer than two views
// or no blocks.
func (dm *difficultyManager) Scale(stagingArea *model.StagingArea, chainState *externalapi.ChainState) (uint32, error) {
	windowStart := uint64(0)
	if chainState.ID > dm.difficultyAdjustmentWindowSize {
		windowStart = chainState.ID - dm.difficultyAdjustmentWindowSize
	}
	if chainState.ID-windowStart < 1 {
		return chainState.CurrentDifficulty, nil
	}

	firstView, err := dm.repository.View(stagingArea, windowStart)
	if err != nil {
		return 0, err
	}
	lastView, err := dm.repository.View(stagingArea, chainState.ID)
	if err != nil {
		return 0, err
	}

	targetSum := big.NewInt(0)
	blockCount := int64(0)
	for height := windowStart + 1; height <= chainState.ID; height++ {
		view, err := dm.repository.View(stagingArea, height)
		if err != nil {
			return 0, err
		}
		blocks, err := dm.repository.Blocks(stagingArea, view.Blocks)
		if err != nil {
			return 0, err
		}
		for _, block := range blocks {
			targetSum.Add(targetSum, difficulty.CompactToBig(block.Difficulty))
			blockCount++
		}
	}
	if blockCount == 0 {
		return chainState.CurrentDifficulty, nil
	}

	expectedTimespan := dm.targetTimePerBlock.Milliseconds() * blockCount
	actualTimespan := lastView.Timestamp - firstView.Timestamp
	if actualTimespan < expectedTimespan/4 {
		actualTimespan = expectedTimespan / 4
	}
	if actualTimespan > expectedTimespan*4 {
		actualTimespan = expectedTimespan * 4
	}

	newTarget := targetSum.Div(targetSum, big.NewInt(blockCount))
	newTarget.
		Mul(newTarget, big.NewInt(actualTimespan)).
		Div(newTarget, big.NewInt(dm.targetTimePerBlock.Milliseconds())).
		Div(newTarget, big.NewInt(blockCount))
	if newTarget.Cmp(dm.powMax) > 0 {
		newTarget = dm.powMax
	}
	if newTarget.Sign() == 0 {
		newTarget = big.NewInt(1)
	}
	return difficulty.BigToCompact(newTarget), nil
}
