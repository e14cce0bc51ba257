package app

import (
	"fmt"
	"sync/atomic"

	"github.com/viewledger/viewd/app/apiserver"
	"github.com/viewledger/viewd/domain/consensus"
	"github.com/viewledger/viewd/infrastructure/config"
	infrastructuredatabase "github.com/viewledger/viewd/infrastructure/db/database"
	"github.com/viewledger/viewd/infrastructure/eventbus"
	"github.com/viewledger/viewd/util/panics"
)

// ComponentManager is a wrapper for all the viewd services
type ComponentManager struct {
	cfg       *config.Config
	consensus consensus.Consensus
	eventBus  *eventbus.EventBus
	apiServer *apiserver.Server

	started, shutdown int32
}

// Start launches all the viewd services.
func (a *ComponentManager) Start() {
	// Already started?
	if atomic.AddInt32(&a.started, 1) != 1 {
		return
	}

	log.Trace("Starting viewd")

	if a.apiServer != nil {
		err := a.apiServer.Start()
		if err != nil {
			panics.Exit(log, fmt.Sprintf("Error starting the API server: %+v", err))
		}
	}
}

// Stop gracefully shuts down all the viewd services.
func (a *ComponentManager) Stop() {
	// Make sure this only happens once.
	if atomic.AddInt32(&a.shutdown, 1) != 1 {
		log.Infof("Viewd is already in the process of shutting down")
		return
	}

	log.Warnf("Viewd shutting down")

	if a.apiServer != nil {
		err := a.apiServer.Stop()
		if err != nil {
			log.Errorf("Error stopping the API server: %+v", err)
		}
	}

	a.eventBus.Close()
}

// Consensus returns the consensus of this ComponentManager
func (a *ComponentManager) Consensus() consensus.Consensus {
	return a.consensus
}

// NewComponentManager returns a new ComponentManager instance.
// Use Start() to begin all services within this ComponentManager
func NewComponentManager(cfg *config.Config, db infrastructuredatabase.Database) (*ComponentManager, error) {
	consensusConfig := &consensus.Config{
		Params:          cfg.NetParams(),
		SkipProofOfWork: cfg.SkipPoW,
		ValidatorKey:    cfg.ValidatorKeyPair,
	}

	eventBus := eventbus.New()
	c, err := consensus.NewFactory().NewConsensus(consensusConfig, db, nil, eventBus)
	if err != nil {
		return nil, err
	}

	if c.ChainState() == nil {
		log.Infof("The database is empty. Committing the %s genesis view", cfg.NetParams().Name)
		err = c.AddGenesis()
		if err != nil {
			return nil, err
		}
	}
	chainState := c.ChainState()
	log.Infof("Loaded view %d (%s)", chainState.ID, chainState.ViewHash)

	var apiServer *apiserver.Server
	if !cfg.NoAPI {
		apiServer = apiserver.New(cfg.APIListen, cfg.NetParams(), c, eventBus)
	}

	return &ComponentManager{
		cfg:       cfg,
		consensus: c,
		eventBus:  eventBus,
		apiServer: apiServer,
	}, nil
}
