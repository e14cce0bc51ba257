package consensus

import (
	"github.com/kaspanet/go-secp256k1"
	"github.com/pkg/errors"
	"github.com/viewledger/viewd/domain/chainconfig"
	consensusdatabase "github.com/viewledger/viewd/domain/consensus/database"
	"github.com/viewledger/viewd/domain/consensus/datastructures/repository"
	"github.com/viewledger/viewd/domain/consensus/model"
	"github.com/viewledger/viewd/domain/consensus/processes/consensusstatemachine"
	"github.com/viewledger/viewd/domain/consensus/processes/difficultymanager"
	"github.com/viewledger/viewd/domain/consensus/processes/effectsink"
	"github.com/viewledger/viewd/domain/consensus/processes/executor"
	"github.com/viewledger/viewd/domain/consensus/processes/rewardcalculator"
	"github.com/viewledger/viewd/domain/consensus/processes/rollbackengine"
	"github.com/viewledger/viewd/domain/consensus/processes/stagingcoordinator"
	"github.com/viewledger/viewd/domain/consensus/processes/statecache"
	"github.com/viewledger/viewd/domain/consensus/processes/verifier"
	infrastructuredatabase "github.com/viewledger/viewd/infrastructure/db/database"
	"github.com/viewledger/viewd/infrastructure/db/database/ldb"
)

// Config is the configuration of a Consensus
type Config struct {
	Params *chainconfig.Params

	// SkipProofOfWork disables the proof of work check of blocks
	SkipProofOfWork bool

	// ValidatorKey signs the votes of this node. A node without a key
	// does not vote.
	ValidatorKey *secp256k1.SchnorrKeyPair

	// ContractRuntime runs contract code. The NoopRuntime is used when
	// it is nil.
	ContractRuntime model.ContractRuntime

	CacheSizes *repository.CacheSizes
}

// Factory instantiates new Consensuses
type Factory interface {
	NewConsensus(config *Config, db infrastructuredatabase.Database, broadcaster model.Broadcaster,
		publisher model.EventPublisher) (Consensus, error)
	NewTestConsensus(config *Config, testName string) (tc TestConsensus, teardown func(), err error)
}

type factory struct{}

// NewFactory creates a new Consensus factory
func NewFactory() Factory {
	return &factory{}
}

// components are the parts of a consensus built over a single
// repository
type components struct {
	repository   model.Repository
	cache        model.StateCache
	verifier     model.Verifier
	stateMachine model.ConsensusStateMachine
}

// NewConsensus instantiates a new Consensus over db
func (f *factory) NewConsensus(config *Config, db infrastructuredatabase.Database, broadcaster model.Broadcaster,
	publisher model.EventPublisher) (Consensus, error) {

	c, err := f.newConsensus(config, db, effectsink.NewLive(broadcaster, publisher))
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (f *factory) newConsensus(config *Config, db infrastructuredatabase.Database,
	sink model.EffectSink) (*consensus, error) {

	err := config.Params.Validate()
	if err != nil {
		return nil, err
	}
	cacheSizes := config.CacheSizes
	if cacheSizes == nil {
		cacheSizes = repository.DefaultCacheSizes
	}

	canonicalRepository, err := repository.New(consensusdatabase.New(db), cacheSizes)
	if err != nil {
		return nil, err
	}
	canonical, err := buildComponents(config, canonicalRepository, statecache.New(), sink)
	if err != nil {
		return nil, err
	}

	buildStagingMachine := func(stagingRepository model.Repository, stagingCache model.StateCache,
		stagingSink model.EffectSink) (model.ConsensusStateMachine, error) {

		stagingConfig := *config
		stagingConfig.ValidatorKey = nil
		staging, err := buildComponents(&stagingConfig, stagingRepository, stagingCache, stagingSink)
		if err != nil {
			return nil, err
		}
		return staging.stateMachine, nil
	}
	stagingCoordinator := stagingcoordinator.New(
		canonical.stateMachine,
		canonical.repository,
		canonical.cache,
		canonical.verifier,
		sink,
		buildStagingMachine,
		cacheSizes)

	return &consensus{
		ConsensusStateMachine: canonical.stateMachine,
		repository:            canonical.repository,
		stagingCoordinator:    stagingCoordinator,
	}, nil
}

func buildComponents(config *Config, repository model.Repository, cache model.StateCache,
	sink model.EffectSink) (*components, error) {

	params := config.Params
	runtime := config.ContractRuntime
	if runtime == nil {
		runtime = executor.NoopRuntime{}
	}

	objectVerifier := verifier.New(config.SkipProofOfWork, params.MaxTransactionDataSize)
	transactionExecutor := executor.New(params, repository, runtime)
	difficultyManager := difficultymanager.New(
		repository,
		params.PowMax,
		params.StartingDifficulty,
		params.TargetTimePerBlock,
		params.DifficultyAdjustmentWindowSize)
	rewardCalculator := rewardcalculator.New(
		params.BaseBlockReward,
		params.BaseValidatorReward,
		params.RewardHalvingInterval,
		params.DevFeePercent)
	rollbackEngine := rollbackengine.New(repository)

	stateMachine, err := consensusstatemachine.New(
		params,
		repository,
		cache,
		objectVerifier,
		transactionExecutor,
		difficultyManager,
		rewardCalculator,
		rollbackEngine,
		sink,
		config.ValidatorKey)
	if err != nil {
		return nil, err
	}

	return &components{
		repository:   repository,
		cache:        cache,
		verifier:     objectVerifier,
		stateMachine: stateMachine,
	}, nil
}

// NewTestConsensus instantiates a Consensus over an in-memory database.
// Its effects are buffered and can be read with CollectEvents.
func (f *factory) NewTestConsensus(config *Config, testName string) (
	tc TestConsensus, teardown func(), err error) {

	db, err := ldb.NewMemoryLevelDB()
	if err != nil {
		return nil, nil, errors.Wrapf(err, "%s: could not open the test database", testName)
	}
	sink := effectsink.NewBuffered()
	c, err := f.newConsensus(config, db, sink)
	if err != nil {
		db.Close()
		return nil, nil, err
	}

	tc = &testConsensus{
		consensus: c,
		params:    config.Params,
		sink:      sink,
	}
	teardown = func() {
		err := db.Close()
		if err != nil {
			log.Warnf("%s: could not close the test database: %s", testName, err)
		}
	}
	return tc, teardown, nil
}
