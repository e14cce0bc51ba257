package app

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/pkg/errors"
	"github.com/viewledger/viewd/infrastructure/config"
	infrastructuredatabase "github.com/viewledger/viewd/infrastructure/db/database"
	"github.com/viewledger/viewd/infrastructure/db/database/badgerdb"
	"github.com/viewledger/viewd/infrastructure/db/database/ldb"
	"github.com/viewledger/viewd/infrastructure/logger"
	"github.com/viewledger/viewd/infrastructure/os/execenv"
	"github.com/viewledger/viewd/infrastructure/os/signal"
	"github.com/viewledger/viewd/infrastructure/os/winservice"
	"github.com/viewledger/viewd/util/panics"
	"github.com/viewledger/viewd/util/profiling"
	"github.com/viewledger/viewd/version"
)

const shutdownTimeout = 2 * time.Minute

var serviceDescription = &winservice.ServiceDescription{
	Name:        "viewdsvc",
	DisplayName: "Viewd Service",
	Description: "Downloads and stays synchronized with the view ledger and " +
		"serves it over the API.",
}

type viewdApp struct {
	cfg *config.Config
}

// StartApp starts the viewd app, and blocks until it finishes running
func StartApp() error {
	execenv.Initialize()

	// Load configuration and parse command line. This function also
	// initializes logging and configures it accordingly.
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprint(os.Stderr, err)
		return err
	}
	defer logger.BackendLog.Close()
	logger.InitLog(cfg.LogFile, cfg.ErrLogFile)
	defer panics.HandlePanic(log, "MAIN", nil)

	app := &viewdApp{cfg: cfg}

	// Call serviceMain on Windows to handle running as a service. When
	// the return isService flag is true, exit now since we ran as a
	// service. Otherwise, just fall through to normal operation.
	if runtime.GOOS == "windows" {
		isService, err := winservice.WinServiceMain(app.main, serviceDescription, cfg)
		if err != nil {
			return err
		}
		if isService {
			return nil
		}
	}

	return app.main(nil)
}

func (app *viewdApp) main(startedChan chan<- struct{}) error {
	// Get a channel that will be closed when a shutdown signal has been
	// triggered either from an OS signal such as SIGINT (Ctrl+C) or from
	// another subsystem such as the Windows service control manager.
	interrupt := signal.InterruptListener()
	defer log.Info("Shutdown complete")

	// Show version at startup.
	log.Infof("Version %s", version.Version())
	log.Infof("Network %s", app.cfg.NetParams().Name)

	// Enable http profiling server if requested.
	if app.cfg.Profile != "" {
		profiling.Start(app.cfg.Profile, log)
	}

	// Return now if an interrupt signal was triggered.
	if signal.InterruptRequested(interrupt) {
		return nil
	}

	// Open the database
	db, err := openDB(app.cfg)
	if err != nil {
		log.Errorf("Loading database failed: %+v", err)
		return err
	}
	defer func() {
		log.Infof("Gracefully shutting down the database...")
		err := db.Close()
		if err != nil {
			log.Errorf("Failed to close the database: %s", err)
		}
	}()

	// Return now if an interrupt signal was triggered.
	if signal.InterruptRequested(interrupt) {
		return nil
	}

	// Create componentManager and start it.
	componentManager, err := NewComponentManager(app.cfg, db)
	if err != nil {
		log.Errorf("Unable to start viewd: %+v", err)
		return err
	}

	defer func() {
		log.Infof("Gracefully shutting down viewd...")

		shutdownDone := make(chan struct{})
		spawn("app.main-componentManager.Stop", func() {
			componentManager.Stop()
			shutdownDone <- struct{}{}
		})

		select {
		case <-shutdownDone:
		case <-time.After(shutdownTimeout):
			log.Criticalf("Graceful shutdown timed out %s. Terminating...", shutdownTimeout)
		}
		log.Infof("Viewd shutdown complete")
	}()

	componentManager.Start()

	if startedChan != nil {
		startedChan <- struct{}{}
	}

	// Wait until the interrupt signal is received from an OS signal or
	// shutdown is requested through one of the subsystems such as the
	// Windows service control manager.
	<-interrupt
	return nil
}

// databasePath returns the path to the database of the active network
func databasePath(cfg *config.Config) string {
	return filepath.Join(cfg.AppDir, "data")
}

func openDB(cfg *config.Config) (infrastructuredatabase.Database, error) {
	dbPath := databasePath(cfg)

	doesVersionFileExist, err := checkDatabaseVersion(dbPath)
	if err != nil {
		return nil, err
	}

	log.Infof("Loading %s database from '%s'", cfg.DbType, dbPath)
	var db infrastructuredatabase.Database
	switch cfg.DbType {
	case config.DbTypeLevelDB:
		db, err = ldb.NewLevelDB(dbPath, cfg.DbCacheSizeMiB)
	case config.DbTypeBadger:
		db, err = badgerdb.NewBadgerDB(dbPath)
	default:
		return nil, errors.Errorf("unknown database type %s", cfg.DbType)
	}
	if err != nil {
		return nil, err
	}

	if !doesVersionFileExist {
		err := createDatabaseVersionFile(dbPath)
		if err != nil {
			db.Close()
			return nil, err
		}
	}

	return db, nil
}
