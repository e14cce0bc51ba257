package model

// RewardCalculator computes the emission schedule
type RewardCalculator interface {
	BlockReward(height uint64) uint64
	ValidatorReward(height uint64) uint64
	DevRewardForBlock(height uint64) uint64
	DevRewardForValidator(height uint64) uint64
}
