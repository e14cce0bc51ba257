package rewardcalculator

import "testing"

func TestRewards(t *testing.T) {
	rc := New(100, 40, 1000, 10)

	tests := []struct {
		height                       uint64
		blockReward, validatorReward uint64
		devForBlock, devForValidator uint64
	}{
		{height: 0, blockReward: 90, validatorReward: 36, devForBlock: 10, devForValidator: 4},
		{height: 999, blockReward: 90, validatorReward: 36, devForBlock: 10, devForValidator: 4},
		{height: 1000, blockReward: 45, validatorReward: 18, devForBlock: 5, devForValidator: 2},
		{height: 2000, blockReward: 23, validatorReward: 9, devForBlock: 2, devForValidator: 1},
		{height: 64000, blockReward: 0, validatorReward: 0, devForBlock: 0, devForValidator: 0},
	}

	for _, test := range tests {
		if got := rc.BlockReward(test.height); got != test.blockReward {
			t.Errorf("BlockReward(%d): expected %d but got %d", test.height, test.blockReward, got)
		}
		if got := rc.ValidatorReward(test.height); got != test.validatorReward {
			t.Errorf("ValidatorReward(%d): expected %d but got %d", test.height, test.validatorReward, got)
		}
		if got := rc.DevRewardForBlock(test.height); got != test.devForBlock {
			t.Errorf("DevRewardForBlock(%d): expected %d but got %d", test.height, test.devForBlock, got)
		}
		if got := rc.DevRewardForValidator(test.height); got != test.devForValidator {
			t.Errorf("DevRewardForValidator(%d): expected %d but got %d", test.height, test.devForValidator, got)
		}
	}
}
