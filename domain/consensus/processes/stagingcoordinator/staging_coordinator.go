package stagingcoordinator

import (
	"context"

	"github.com/pkg/errors"
	"github.com/viewledger/viewd/domain/consensus/database"
	"github.com/viewledger/viewd/domain/consensus/datastructures/repository"
	"github.com/viewledger/viewd/domain/consensus/model"
	"github.com/viewledger/viewd/domain/consensus/model/externalapi"
	"github.com/viewledger/viewd/domain/consensus/processes/effectsink"
	"github.com/viewledger/viewd/domain/consensus/processes/statecache"
	"github.com/viewledger/viewd/infrastructure/db/database/ldb"
	"github.com/viewledger/viewd/infrastructure/logger"
)

// MachineBuilder builds a ConsensusStateMachine over the given
// repository, state cache and effect sink
type MachineBuilder func(repository model.Repository, cache model.StateCache,
	sink model.EffectSink) (model.ConsensusStateMachine, error)

// stagingCoordinator replays candidate chains on an in-memory copy of
// the canonical store and swaps the copy in when it ends heavier
type stagingCoordinator struct {
	canonical           model.ConsensusStateMachine
	canonicalRepository model.Repository
	canonicalCache      model.StateCache
	verifier            model.Verifier
	liveSink            model.EffectSink
	buildMachine        MachineBuilder
	cacheSizes          *repository.CacheSizes
}

// New instantiates a new StagingCoordinator
func New(canonical model.ConsensusStateMachine,
	canonicalRepository model.Repository,
	canonicalCache model.StateCache,
	verifier model.Verifier,
	liveSink model.EffectSink,
	buildMachine MachineBuilder,
	cacheSizes *repository.CacheSizes) model.StagingCoordinator {

	return &stagingCoordinator{
		canonical:           canonical,
		canonicalRepository: canonicalRepository,
		canonicalCache:      canonicalCache,
		verifier:            verifier,
		liveSink:            liveSink,
		buildMachine:        buildMachine,
		cacheSizes:          cacheSizes,
	}
}

// LoadStagingChain rolls an isolated copy of the canonical chain back
// to forkHeight and replays candidate on top of it. The canonical chain
// is replaced only if the candidate chain ends with a strictly greater
// weight. It returns whether the canonical chain was replaced.
func (sc *stagingCoordinator) LoadStagingChain(ctx context.Context, forkHeight uint64,
	candidate []*externalapi.ViewBundle) (bool, error) {

	onEnd := logger.LogAndMeasureExecutionTime(log, "LoadStagingChain")
	defer onEnd()

	if len(candidate) == 0 {
		return false, nil
	}
	err := sc.verifyCandidate(ctx, forkHeight, candidate)
	if err != nil {
		return false, err
	}

	stagingDB, err := ldb.NewMemoryLevelDB()
	if err != nil {
		return false, err
	}
	defer func() {
		closeErr := stagingDB.Close()
		if closeErr != nil {
			log.Warnf("Could not close the staging database: %s", closeErr)
		}
	}()
	stagingDBManager := database.New(stagingDB)

	var canonicalState *externalapi.ChainState
	err = sc.canonical.ReadLocked(func() error {
		var err error
		canonicalState, err = sc.canonicalRepository.ChainState(model.NewStagingArea())
		if err != nil {
			return err
		}
		return copyKeySpace(sc.canonicalRepository.DatabaseContext(), stagingDBManager,
			sc.canonicalRepository.RootBucket())
	})
	if err != nil {
		return false, err
	}
	if forkHeight > canonicalState.ID {
		return false, errors.Errorf("fork height %d is above the canonical view %d", forkHeight, canonicalState.ID)
	}

	stagingRepository, err := repository.New(stagingDBManager, sc.cacheSizes)
	if err != nil {
		return false, err
	}
	stagingSink := effectsink.NewBuffered()
	stagingMachine, err := sc.buildMachine(stagingRepository, statecache.New(), stagingSink)
	if err != nil {
		return false, err
	}

	candidateState, err := sc.replay(ctx, stagingMachine, forkHeight, canonicalState.ID, candidate)
	if err != nil {
		return false, err
	}
	if candidateState.Weight.Cmp(canonicalState.Weight) <= 0 {
		log.Debugf("Discarding candidate chain ending at view %d with weight %s, the canonical chain "+
			"weighs %s", candidateState.ID, candidateState.Weight, canonicalState.Weight)
		return false, nil
	}

	replaced := false
	err = sc.canonical.WriteLocked(func() error {
		var err error
		replaced, err = sc.swap(stagingDBManager, candidateState)
		return err
	})
	if err != nil || !replaced {
		return false, err
	}

	log.Infof("Switched to a candidate chain forking at view %d, now at view %d with weight %s",
		forkHeight, candidateState.ID, candidateState.Weight)
	sc.liveSink.Publish(stagingSink.CollectEvents()...)
	return true, nil
}

// verifyCandidate runs the context-free checks of every bundle and
// checks that the bundles are consecutive views above forkHeight
func (sc *stagingCoordinator) verifyCandidate(ctx context.Context, forkHeight uint64,
	candidate []*externalapi.ViewBundle) error {

	for i, bundle := range candidate {
		if bundle.View == nil {
			return errors.Errorf("bundle %d of the candidate chain has no view", i)
		}
		expectedID := forkHeight + uint64(i) + 1
		if bundle.View.ID != expectedID {
			return errors.Errorf("bundle %d of the candidate chain holds view %d instead of %d",
				i, bundle.View.ID, expectedID)
		}
		err := sc.verifier.VerifyView(bundle.View)
		if err != nil {
			return err
		}
		err = sc.verifier.VerifyBatch(ctx, bundle.Blocks, bundle.Votes, bundle.Transactions)
		if err != nil {
			return err
		}
	}
	return nil
}

// replay rolls stagingMachine back to forkHeight and commits every
// bundle of candidate on top of it
func (sc *stagingCoordinator) replay(ctx context.Context, stagingMachine model.ConsensusStateMachine,
	forkHeight uint64, canonicalHeight uint64, candidate []*externalapi.ViewBundle) (*externalapi.ChainState, error) {

	if forkHeight < canonicalHeight {
		err := stagingMachine.Rollback(forkHeight)
		if err != nil {
			return nil, err
		}
	}
	for _, bundle := range candidate {
		err := ctx.Err()
		if err != nil {
			return nil, err
		}
		err = stagingMachine.ReplayBundle(bundle)
		if err != nil {
			return nil, errors.Wrapf(err, "replaying view %d of the candidate chain", bundle.View.ID)
		}
	}
	return stagingMachine.ChainState(), nil
}

// swap replaces the canonical key space with the staging one, unless
// the canonical chain gained weight in the meantime. It must be called
// with the canonical write lock held.
func (sc *stagingCoordinator) swap(stagingDBManager model.DBManager, candidateState *externalapi.ChainState) (bool, error) {
	canonicalState, err := sc.canonicalRepository.ChainState(model.NewStagingArea())
	if err != nil {
		return false, err
	}
	if candidateState.Weight.Cmp(canonicalState.Weight) <= 0 {
		log.Debugf("The canonical chain reached weight %s while the candidate chain was replayed",
			canonicalState.Weight)
		return false, nil
	}

	err = replaceKeySpace(sc.canonicalRepository.DatabaseContext(), stagingDBManager,
		sc.canonicalRepository.RootBucket())
	if err != nil {
		sc.canonicalRepository.ResetCaches()
		return false, err
	}

	sc.canonicalRepository.ResetCaches()
	sc.canonicalCache.Clear()
	err = sc.canonicalCache.Reload(sc.canonicalRepository)
	if err != nil {
		return false, err
	}
	return true, nil
}
