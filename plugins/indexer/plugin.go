// Package indexer runs the indexer together with the directory watcher that feeds it block reports.
package indexer

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/iotaledger/hive.go/daemon"
	"github.com/iotaledger/hive.go/generics/event"
	"github.com/iotaledger/hive.go/logger"
	"github.com/iotaledger/hive.go/node"
	"github.com/spf13/viper"
	"go.uber.org/atomic"
	"go.uber.org/dig"

	"github.com/Granola-Team/mina-indexer-sub000/packages/indexer"
	"github.com/Granola-Team/mina-indexer-sub000/packages/ledger"
	"github.com/Granola-Team/mina-indexer-sub000/packages/precomputed"
	"github.com/Granola-Team/mina-indexer-sub000/packages/shutdown"
	"github.com/Granola-Team/mina-indexer-sub000/packages/store"
	"github.com/Granola-Team/mina-indexer-sub000/packages/watcher"
	"github.com/Granola-Team/mina-indexer-sub000/packages/witnesstree"
)

// PluginName is the name of the indexer plugin.
const PluginName = "Indexer"

var (
	// Plugin is the plugin instance of the indexer plugin.
	Plugin *node.Plugin
	deps   = new(dependencies)

	failed = atomic.NewBool(false)
)

type dependencies struct {
	dig.In

	Indexer *indexer.Indexer
	Watcher *watcher.Watcher
}

// Components contains the components the indexer plugin provides to the others.
type Components struct {
	dig.Out

	Indexer *indexer.Indexer
	Watcher *watcher.Watcher
}

func init() {
	Plugin = node.NewPlugin(PluginName, deps, node.Enabled, configure, run)

	Plugin.Events.Init.Hook(event.NewClosure(func(event *node.InitEvent) {
		if err := event.Container.Provide(provide); err != nil {
			Plugin.Panic(err)
		}
	}))
}

func provide(config *viper.Viper, blockStore *store.Store) Components {
	components, err := newComponents(config, blockStore, Plugin.Logger())
	if err != nil {
		Plugin.LogFatalf("Failed to create the indexer: %s", err)
	}

	return components
}

func configure(plugin *node.Plugin) {
	configureLogging(deps.Indexer, deps.Watcher, plugin.Logger())
}

func run(plugin *node.Plugin) {
	if err := daemon.BackgroundWorker(PluginName, func(ctx context.Context) {
		runIndexer(ctx, deps.Indexer, plugin.Logger())
	}, shutdown.PriorityIndexer); err != nil {
		plugin.Panicf("Failed to start as daemon: %s", err)
	}

	if err := daemon.BackgroundWorker("Watcher", func(ctx context.Context) {
		runWatcher(ctx, deps.Watcher, plugin.Logger())
	}, shutdown.PriorityWatcher); err != nil {
		plugin.Panicf("Failed to start as daemon: %s", err)
	}
}

// Failed returns true if the indexer stopped because of an error instead of a shutdown request.
func Failed() bool {
	return failed.Load()
}

// newComponents creates the indexer and the watcher from the indexer.* parameters.
func newComponents(config *viper.Viper, blockStore *store.Store, log *logger.Logger) (components Components, err error) {
	genesisLedger := ledger.New()
	if genesisLedgerPath := config.GetString(CfgIndexerGenesisLedger); genesisLedgerPath != "" {
		if genesisLedger, err = ledger.LoadGenesisLedgerFile(genesisLedgerPath); err != nil {
			return components, errors.Errorf("failed to load genesis ledger: %w", err)
		}
	}

	if components.Indexer, err = indexer.New(blockStore, precomputed.MainnetGenesisBlock(), genesisLedger,
		indexer.WithCanonicalThreshold(uint32(config.GetUint(CfgIndexerCanonicalThreshold))),
		indexer.WithPruneMemory(uint32(config.GetUint(CfgIndexerPruneMemory))),
		indexer.WithLedgerCadence(uint32(config.GetUint(CfgIndexerLedgerCadence))),
		indexer.WithDoNotIngestOrphanBlocks(config.GetBool(CfgIndexerDoNotIngestOrphanBlocks)),
		indexer.WithQueueSize(config.GetInt(CfgIndexerQueueSize)),
		indexer.WithMaxMemoryBytes(config.GetUint64(CfgIndexerMaxMemoryBytes)),
		indexer.WithLogger(log),
	); err != nil {
		return components, errors.Errorf("failed to create indexer: %w", err)
	}

	if components.Watcher, err = watcher.New(config.GetString(CfgIndexerBlocksDir), Submitter(components.Indexer, log),
		watcher.WithWorkerCount(config.GetInt(CfgIndexerWatcherWorkers)),
		watcher.WithLogger(log.Named("Watcher")),
	); err != nil {
		return components, errors.Errorf("failed to create watcher: %w", err)
	}

	return components, nil
}

// Submitter returns a block handler that enqueues blocks for the given indexer.
func Submitter(idx *indexer.Indexer, log *logger.Logger) func(block *precomputed.Block) {
	return func(block *precomputed.Block) {
		if err := idx.Submit(block); err != nil {
			log.Debugf("dropped block %s at height %d: %s", block.StateHash, block.Height, err)
		}
	}
}

// runIndexer consumes the block queue until the context is done. An indexer that fails shuts the node down.
func runIndexer(ctx context.Context, idx *indexer.Indexer, log *logger.Logger) {
	if err := idx.Run(ctx); err != nil {
		log.Errorf("Indexer stopped: %s", err)
		failed.Store(true)
		daemon.Shutdown()
	}
}

// runWatcher submits the reports that are already in the directory and keeps watching it until the context is done.
func runWatcher(ctx context.Context, w *watcher.Watcher, log *logger.Logger) {
	defer w.Shutdown()

	if _, err := w.Scan(); err != nil {
		log.Errorf("Failed to scan the blocks directory: %s", err)
		daemon.Shutdown()
		return
	}

	if err := w.Run(ctx); err != nil {
		log.Errorf("Watcher stopped: %s", err)
		daemon.Shutdown()
	}
}

func configureLogging(idx *indexer.Indexer, w *watcher.Watcher, log *logger.Logger) {
	idx.Events.BlockIngested.Attach(event.NewClosure(func(result *witnesstree.ExtensionResult) {
		log.Debugf("ingested block %s at height %d: %s", result.Block.StateHash, result.Block.Height, result.Case)
	}))

	w.Events.ParseFailed.Attach(event.NewClosure(func(parseFailed *watcher.ParseFailedEvent) {
		log.Warnf("failed to parse %s: %s", parseFailed.Path, parseFailed.Error)
	}))
}
