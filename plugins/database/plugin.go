// Package database opens the key-value store of the indexer and manages its lifetime (health marker, garbage
// collection, closing).
package database

import (
	"context"
	"strconv"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/iotaledger/hive.go/daemon"
	"github.com/iotaledger/hive.go/generics/event"
	"github.com/iotaledger/hive.go/kvstore"
	"github.com/iotaledger/hive.go/logger"
	"github.com/iotaledger/hive.go/node"
	"github.com/spf13/viper"
	"go.uber.org/dig"

	"github.com/Granola-Team/mina-indexer-sub000/packages/database"
	"github.com/Granola-Team/mina-indexer-sub000/packages/shutdown"
	"github.com/Granola-Team/mina-indexer-sub000/packages/store"
)

// PluginName is the name of the database plugin.
const PluginName = "Database"

var (
	// Plugin is the plugin instance of the database plugin.
	Plugin *node.Plugin
	deps   = new(dependencies)
)

type dependencies struct {
	dig.In

	Database *Database
}

func init() {
	Plugin = node.NewPlugin(PluginName, deps, node.Enabled, run)

	Plugin.Events.Init.Hook(event.NewClosure(func(event *node.InitEvent) {
		if err := event.Container.Provide(func(config *viper.Viper) *Database {
			db, err := New(config, Plugin.Logger())
			if err != nil {
				Plugin.LogFatalf("Failed to open the database: %s", err)
			}

			return db
		}); err != nil {
			Plugin.Panic(err)
		}

		if err := event.Container.Provide(func(db *Database) *store.Store {
			blockStore, err := store.New(db.Store())
			if err != nil {
				Plugin.LogFatalf("Failed to open the block store: %s", err)
			}

			return blockStore
		}); err != nil {
			Plugin.Panic(err)
		}
	}))
}

func run(*node.Plugin) {
	if err := daemon.BackgroundWorker(PluginName, func(ctx context.Context) {
		if err := deps.Database.Run(ctx); err != nil {
			Plugin.LogErrorf("Failed to shut down the database: %s", err)
		}
	}, shutdown.PriorityDatabase); err != nil {
		Plugin.Panicf("Failed to start as daemon: %s", err)
	}
}

// ErrDatabaseUnhealthy is returned if the database was not shut down properly.
var ErrDatabaseUnhealthy = errors.New("the database is marked as not properly shutdown/corrupted, please delete the database folder and restart")

// Database is the opened database of the indexer.
type Database struct {
	db         database.DB
	store      kvstore.KVStore
	health     *database.Health
	gcInterval time.Duration
	log        *logger.Logger
}

// New opens the database that is configured by the database.* parameters.
func New(config *viper.Viper, log *logger.Logger) (new *Database, err error) {
	new = &Database{
		gcInterval: config.GetDuration(CfgDatabaseGCInterval),
		log:        log,
	}

	if new.db, err = database.Open(config.GetString(CfgDatabaseDir), config.GetBool(CfgDatabaseInMemory)); err != nil {
		return nil, errors.Errorf("unable to open the database, please delete the database folder: %w", err)
	}
	opened, openedLog := new.db, new.log
	defer func() {
		if err != nil {
			if closeErr := opened.Close(); closeErr != nil {
				openedLog.Errorf("Failed to close the database: %s", closeErr)
			}
		}
	}()

	new.store = new.db.NewStore()
	if new.health, err = database.NewHealth(new.store); err != nil {
		return nil, err
	}

	if err = database.CheckVersion(new.health.Store()); err != nil {
		return nil, errors.Errorf("failed to check database version: %w", err)
	}

	if dirty := config.GetString(CfgDatabaseDirty); dirty != "" {
		val, parseErr := strconv.ParseBool(dirty)
		if parseErr != nil {
			new.log.Warnf("Invalid %s flag: %s", CfgDatabaseDirty, parseErr)
		} else if val {
			err = new.health.MarkUnhealthy()
		} else {
			err = new.health.MarkHealthy()
		}
		if err != nil {
			return nil, err
		}
	}

	unhealthy, err := new.health.IsUnhealthy()
	if err != nil {
		return nil, err
	}
	if unhealthy {
		return nil, ErrDatabaseUnhealthy
	}

	// run GC up on startup
	new.runGC()

	return new, nil
}

// Store returns the KVStore of the database.
func (d *Database) Store() kvstore.KVStore {
	return d.store
}

// Run marks the database as dirty until the context is done. Afterwards it runs the GC, marks the database as healthy
// and closes it.
func (d *Database) Run(ctx context.Context) error {
	// the database is only marked as dirty once the indexer actually started up
	if err := d.health.MarkUnhealthy(); err != nil {
		return err
	}

	var gcTicker <-chan time.Time
	if d.gcInterval > 0 {
		ticker := time.NewTicker(d.gcInterval)
		defer ticker.Stop()
		gcTicker = ticker.C
	}

	for running := true; running; {
		select {
		case <-ctx.Done():
			running = false
		case <-gcTicker:
			d.runGC()
		}
	}

	d.runGC()
	if err := d.health.MarkHealthy(); err != nil {
		return err
	}

	d.log.Infof("Syncing database to disk...")
	if err := d.db.Close(); err != nil {
		return errors.Errorf("failed to flush the database: %w", err)
	}
	d.log.Infof("Syncing database to disk... done")

	return nil
}

func (d *Database) runGC() {
	if !d.db.RequiresGC() {
		return
	}

	d.log.Info("Running database garbage collection...")
	s := time.Now()
	if err := d.db.GC(); err != nil {
		d.log.Warnf("Database garbage collection failed: %s", err)
		return
	}
	d.log.Infof("Database garbage collection done, took %v...", time.Since(s))
}
