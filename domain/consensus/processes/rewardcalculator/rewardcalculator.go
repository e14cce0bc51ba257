package rewardcalculator

import (
	"github.com/viewledger/viewd/domain/consensus/model"
)

// rewardCalculator computes the emission of a height. Emissions halve
// every halvingInterval views, and devFeePercent of every emission is
// set aside for the dev reward.
type rewardCalculator struct {
	baseBlockReward     uint64
	baseValidatorReward uint64
	halvingInterval     uint64
	devFeePercent       uint64
}

// New instantiates a new RewardCalculator
func New(baseBlockReward uint64, baseValidatorReward uint64, halvingInterval uint64,
	devFeePercent uint64) model.RewardCalculator {

	return &rewardCalculator{
		baseBlockReward:     baseBlockReward,
		baseValidatorReward: baseValidatorReward,
		halvingInterval:     halvingInterval,
		devFeePercent:       devFeePercent,
	}
}

// emission returns base / 2^(height/halvingInterval)
func (rc *rewardCalculator) emission(base uint64, height uint64) uint64 {
	if rc.halvingInterval == 0 {
		return base
	}
	halvings := height / rc.halvingInterval
	if halvings >= 64 {
		return 0
	}
	return base >> halvings
}

// devShare returns the dev fee part of an emission, rounded down.
// It is computed from the quotient and remainder by 100 so that the
// intermediate product cannot overflow.
func (rc *rewardCalculator) devShare(emission uint64) uint64 {
	return emission/100*rc.devFeePercent + emission%100*rc.devFeePercent/100
}

// BlockReward returns the block emission of the view at height, net of
// the dev fee
func (rc *rewardCalculator) BlockReward(height uint64) uint64 {
	emission := rc.emission(rc.baseBlockReward, height)
	return emission - rc.devShare(emission)
}

// ValidatorReward returns the per-milestone validator emission of the
// view at height, net of the dev fee
func (rc *rewardCalculator) ValidatorReward(height uint64) uint64 {
	emission := rc.emission(rc.baseValidatorReward, height)
	return emission - rc.devShare(emission)
}

func (rc *rewardCalculator) DevRewardForBlock(height uint64) uint64 {
	return rc.devShare(rc.emission(rc.baseBlockReward, height))
}

func (rc *rewardCalculator) DevRewardForValidator(height uint64) uint64 {
	return rc.devShare(rc.emission(rc.baseValidatorReward, height))
}
