// Copyright (c) 2014-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package chainconfig

import (
	"encoding/hex"
	"math/big"
	"time"

	"github.com/pkg/errors"
	"github.com/viewledger/viewd/domain/consensus/model/externalapi"
	"github.com/viewledger/viewd/domain/consensus/utils/consensushashing"
)

// These variables are the proof-of-work limit parameters for each default
// network.
var (
	// bigOne is 1 represented as a big.Int. It is defined here to avoid
	// the overhead of creating it multiple times.
	bigOne = big.NewInt(1)

	// mainPowMax is the highest proof of work value a block can have for
	// the main network. It is the value 2^255 - 1.
	mainPowMax = new(big.Int).Sub(new(big.Int).Lsh(bigOne, 255), bigOne)

	// testnetPowMax is the highest proof of work value a block can have
	// for the test network. It is the value 2^239 - 1.
	testnetPowMax = new(big.Int).Sub(new(big.Int).Lsh(bigOne, 239), bigOne)

	// simnetPowMax is the highest proof of work value a block can have
	// for the simulation network. It is the value 2^255 - 1.
	simnetPowMax = new(big.Int).Sub(new(big.Int).Lsh(bigOne, 255), bigOne)
)

const (
	sompiPerCoin                   = 100_000_000
	targetTimePerBlock             = 1 * time.Second
	difficultyAdjustmentWindowSize = 60
	finalityThresholdPercent       = 66
)

// GenesisAllocation credits an address at genesis
type GenesisAllocation struct {
	Address *externalapi.Address
	Amount  uint64
}

// Params defines a network by its parameters. These parameters may be
// used by applications to differentiate networks.
type Params struct {
	// Name defines a human-readable identifier for the network.
	Name string

	// APIPort defines the default port of the API server
	APIPort string

	// GenesisTimestamp is the timestamp, in milliseconds, of the genesis view
	GenesisTimestamp int64

	// GenesisAllocations are credited to their addresses by the genesis view
	GenesisAllocations []*GenesisAllocation

	// SeedValidatorKeys are the serialized Schnorr public keys of the seed
	// validators. Seed validators always count as MinStake and never earn
	// epoch rewards.
	SeedValidatorKeys [][]byte

	// DevAddress receives the dev reward of every epoch
	DevAddress *externalapi.Address

	// PowMax defines the highest allowed proof of work value for a block
	// as a uint256.
	PowMax *big.Int

	// StartingDifficulty is the number of leading zero bits the genesis
	// target requires
	StartingDifficulty uint8

	// TargetTimePerBlock is the desired amount of time to generate each
	// block.
	TargetTimePerBlock time.Duration

	// DifficultyAdjustmentWindowSize is the number of views in the window
	// the difficulty is retargeted over
	DifficultyAdjustmentWindowSize uint64

	// MinStake is the stake a seed validator counts as, and the unit
	// vote stake is measured in when weighing views
	MinStake uint64

	// VoteInterval is the number of views between voting milestones
	VoteInterval uint64

	// EpochLength is the number of views in an epoch. It is a multiple
	// of VoteInterval.
	EpochLength uint64

	// FinalityThresholdPercent is the share of the active stake that
	// has to vote on a view to finalize its predecessor
	FinalityThresholdPercent uint64

	// BaseBlockReward is the block emission per view before any halving
	BaseBlockReward uint64

	// BaseValidatorReward is the validator emission per milestone before
	// any halving
	BaseValidatorReward uint64

	// RewardHalvingInterval is the number of views between halvings
	RewardHalvingInterval uint64

	// DevFeePercent is the share of every emission paid to DevAddress
	DevFeePercent uint64

	// BaseFee and FeePerByte define the fee a transaction has to pay
	BaseFee    uint64
	FeePerByte uint64

	// MaxTransactionDataSize is the largest data payload, in bytes, a
	// transaction may carry
	MaxTransactionDataSize int
}

// MilestonesPerEpoch returns the number of voting milestones in an epoch
func (p *Params) MilestonesPerEpoch() uint64 {
	return p.EpochLength / p.VoteInterval
}

// IsSeedValidator returns whether the given public key belongs to a seed
// validator
func (p *Params) IsSeedValidator(publicKey []byte) bool {
	for _, seedKey := range p.SeedValidatorKeys {
		if string(seedKey) == string(publicKey) {
			return true
		}
	}
	return false
}

// CountedStake returns the stake the given validator counts with when
// votes are weighed
func (p *Params) CountedStake(validator *externalapi.Validator) uint64 {
	if p.IsSeedValidator(validator.PublicKey) {
		return p.MinStake
	}
	return validator.Stake
}

// Validate checks the params for internal consistency
func (p *Params) Validate() error {
	if p.VoteInterval == 0 {
		return errors.Errorf("%s: VoteInterval must be positive", p.Name)
	}
	if p.EpochLength == 0 || p.EpochLength%p.VoteInterval != 0 {
		return errors.Errorf("%s: EpochLength %d must be a positive multiple of VoteInterval %d",
			p.Name, p.EpochLength, p.VoteInterval)
	}
	if p.MinStake == 0 {
		return errors.Errorf("%s: MinStake must be positive", p.Name)
	}
	if p.RewardHalvingInterval == 0 {
		return errors.Errorf("%s: RewardHalvingInterval must be positive", p.Name)
	}
	if p.DevFeePercent > 100 || p.FinalityThresholdPercent > 100 {
		return errors.Errorf("%s: percentages must not exceed 100", p.Name)
	}
	if p.DevAddress == nil {
		return errors.Errorf("%s: DevAddress is required", p.Name)
	}
	return nil
}

func mustDecodeKeys(hexKeys ...string) [][]byte {
	keys := make([][]byte, len(hexKeys))
	for i, hexKey := range hexKeys {
		key, err := hex.DecodeString(hexKey)
		if err != nil {
			panic(errors.Wrapf(err, "invalid seed validator key %s", hexKey))
		}
		keys[i] = key
	}
	return keys
}

var devAddress = externalapi.NewAddress(externalapi.AddressTagWallet, &[externalapi.AddressHashSize]byte{
	0x4e, 0x1c, 0x0b, 0x6f, 0x92, 0x33, 0xa7, 0x58, 0x0d, 0xe2,
	0x71, 0x90, 0xc4, 0x3b, 0x15, 0x8f, 0x26, 0xd9, 0xea, 0x04,
})

// MainnetParams defines the network parameters for the main network.
var MainnetParams = Params{
	Name:             "mainnet",
	APIPort:          "17110",
	GenesisTimestamp: 1767225600000, // 2026-01-01 UTC

	DevAddress:                     devAddress,
	PowMax:                         mainPowMax,
	StartingDifficulty:             20,
	TargetTimePerBlock:             targetTimePerBlock,
	DifficultyAdjustmentWindowSize: difficultyAdjustmentWindowSize,

	MinStake:                 100_000 * sompiPerCoin,
	VoteInterval:             10,
	EpochLength:              100,
	FinalityThresholdPercent: finalityThresholdPercent,

	BaseBlockReward:       50 * sompiPerCoin,
	BaseValidatorReward:   25 * sompiPerCoin,
	RewardHalvingInterval: 2_100_000,
	DevFeePercent:         5,

	BaseFee:                1000,
	FeePerByte:             10,
	MaxTransactionDataSize: 100_000,
}

// TestnetParams defines the network parameters for the test network.
var TestnetParams = Params{
	Name:             "testnet",
	APIPort:          "17210",
	GenesisTimestamp: 1767225600000,

	DevAddress:                     devAddress,
	PowMax:                         testnetPowMax,
	StartingDifficulty:             18,
	TargetTimePerBlock:             targetTimePerBlock,
	DifficultyAdjustmentWindowSize: difficultyAdjustmentWindowSize,

	MinStake:                 1000 * sompiPerCoin,
	VoteInterval:             10,
	EpochLength:              100,
	FinalityThresholdPercent: finalityThresholdPercent,

	BaseBlockReward:       50 * sompiPerCoin,
	BaseValidatorReward:   25 * sompiPerCoin,
	RewardHalvingInterval: 210_000,
	DevFeePercent:         5,

	BaseFee:                1000,
	FeePerByte:             10,
	MaxTransactionDataSize: 100_000,
}

// The simulation network seed validators are the well known keys
// 1, 2 and 3. Never use them outside of simnet.
var simnetSeedValidatorKeys = mustDecodeKeys(
	"79be667ef9dcbbac55a06295ce870b07029bfcdb2dce28d959f2815b16f81798",
	"c6047f9441ed7d6d3045406e95c07cd85c778e4b8cef3ca7abac09b95c709ee5",
	"f9308a019258c31049344f85f89d5229b531c845836f99b08601f113bce036f9",
)

// SimnetParams defines the network parameters for the simulation test
// network. It has trivial proof-of-work, short epochs and a genesis
// allocation to the first seed validator.
var SimnetParams = Params{
	Name:             "simnet",
	APIPort:          "17510",
	GenesisTimestamp: 1767225600000,
	GenesisAllocations: []*GenesisAllocation{
		{Address: consensushashing.NewWalletAddress(simnetSeedValidatorKeys[0]), Amount: 1_000_000},
	},
	SeedValidatorKeys: simnetSeedValidatorKeys,

	DevAddress:                     devAddress,
	PowMax:                         simnetPowMax,
	StartingDifficulty:             1,
	TargetTimePerBlock:             targetTimePerBlock,
	DifficultyAdjustmentWindowSize: 10,

	MinStake:                 1000,
	VoteInterval:             2,
	EpochLength:              4,
	FinalityThresholdPercent: finalityThresholdPercent,

	BaseBlockReward:       100,
	BaseValidatorReward:   40,
	RewardHalvingInterval: 1000,
	DevFeePercent:         10,

	BaseFee:                1,
	FeePerByte:             1,
	MaxTransactionDataSize: 100_000,
}
