// Package recovery retrieves the blocks the indexer is missing and polls for blocks above the best tip.
package recovery

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/iotaledger/hive.go/daemon"
	"github.com/iotaledger/hive.go/generics/event"
	"github.com/iotaledger/hive.go/logger"
	"github.com/iotaledger/hive.go/node"
	"github.com/spf13/viper"
	"go.uber.org/dig"

	"github.com/Granola-Team/mina-indexer-sub000/packages/indexer"
	"github.com/Granola-Team/mina-indexer-sub000/packages/precomputed"
	"github.com/Granola-Team/mina-indexer-sub000/packages/recovery"
	"github.com/Granola-Team/mina-indexer-sub000/packages/shutdown"
	"github.com/Granola-Team/mina-indexer-sub000/packages/witnesstree"
	indexerplugin "github.com/Granola-Team/mina-indexer-sub000/plugins/indexer"
)

// PluginName is the name of the recovery plugin.
const PluginName = "Recovery"

var (
	// Plugin is the plugin instance of the recovery plugin.
	Plugin *node.Plugin
	deps   = new(dependencies)
)

type dependencies struct {
	dig.In

	Node        *viper.Viper
	Indexer     *indexer.Indexer
	Coordinator *recovery.Coordinator `optional:"true"`
}

func init() {
	Plugin = node.NewPlugin(PluginName, deps, node.Enabled, configure, run)

	Plugin.Events.Init.Hook(event.NewClosure(func(event *node.InitEvent) {
		if err := event.Container.Provide(provide); err != nil {
			Plugin.Panic(err)
		}
	}))
}

func provide(config *viper.Viper, idx *indexer.Indexer) *recovery.Coordinator {
	coordinator, err := newCoordinator(config, idx, Plugin.Logger())
	if err != nil {
		Plugin.LogFatalf("Failed to create the recovery coordinator: %s", err)
	}

	return coordinator
}

func configure(plugin *node.Plugin) {
	if deps.Coordinator == nil {
		plugin.LogInfo("recovery of missing blocks is disabled")
		return
	}

	network := deps.Node.GetString(indexerplugin.CfgIndexerNetwork)
	deps.Indexer.Events.MissingParentsUpdated.Hook(event.NewClosure(func(missing []*witnesstree.MissingParent) {
		requestMissingBlocks(deps.Coordinator, network, missing)
	}))

	configureLogging(deps.Coordinator, plugin.Logger())
}

func run(plugin *node.Plugin) {
	if deps.Coordinator == nil {
		return
	}

	pollInterval := deps.Node.GetDuration(CfgRecoveryPollInterval)
	network := deps.Node.GetString(indexerplugin.CfgIndexerNetwork)

	if err := daemon.BackgroundWorker(PluginName, func(ctx context.Context) {
		runCoordinator(ctx, deps.Coordinator, deps.Indexer, network, pollInterval)
	}, shutdown.PriorityRecovery); err != nil {
		plugin.Panicf("Failed to start as daemon: %s", err)
	}
}

// newCoordinator creates the Coordinator if an executable or a base URL is configured. Recovered blocks are submitted to
// the indexer.
func newCoordinator(config *viper.Viper, idx *indexer.Indexer, log *logger.Logger) (coordinator *recovery.Coordinator, err error) {
	var fetcher recovery.Fetcher
	switch {
	case config.GetString(CfgRecoveryExecutable) != "":
		fetcher = recovery.NewExecFetcher(config.GetString(CfgRecoveryExecutable))
	case config.GetString(CfgRecoveryBaseURL) != "":
		fetcher = recovery.NewHTTPFetcher(config.GetString(CfgRecoveryBaseURL), config.GetDuration(CfgRecoveryTimeout))
	default:
		return nil, nil
	}

	if coordinator, err = recovery.NewCoordinator(fetcher, config.GetString(indexerplugin.CfgIndexerBlocksDir), indexerplugin.Submitter(idx, log),
		recovery.WithRetryInterval(config.GetDuration(CfgRecoveryRetryInterval)),
		recovery.WithMaxRequestCount(config.GetInt(CfgRecoveryMaxRequestCount)),
		recovery.WithLogger(log),
	); err != nil {
		return nil, errors.Errorf("failed to create recovery coordinator: %w", err)
	}

	return coordinator, nil
}

// runCoordinator polls for the block above the best tip until the context is done and stops all requests afterwards.
func runCoordinator(ctx context.Context, coordinator *recovery.Coordinator, idx *indexer.Indexer, network string, pollInterval time.Duration) {
	defer coordinator.Shutdown()

	if pollInterval <= 0 {
		<-ctx.Done()
		return
	}

	coordinator.PollNewBlocks(ctx, pollInterval, func() recovery.Request {
		return recovery.NewRequest(network, idx.BestTip().Height+1, "")
	})
}

// requestMissingBlocks replaces the scheduled requests by the parents of the dangling branches.
func requestMissingBlocks(coordinator *recovery.Coordinator, network string, missing []*witnesstree.MissingParent) {
	requests := make([]recovery.Request, 0, len(missing))
	for _, parent := range missing {
		requests = append(requests, recovery.NewRequest(network, parent.Height, parent.StateHash))
	}

	coordinator.Sync(requests)
}

func configureLogging(coordinator *recovery.Coordinator, log *logger.Logger) {
	coordinator.Events.RequestDropped.Attach(event.NewClosure(func(dropped *recovery.RequestEvent) {
		log.Warnf("gave up on %s after %d attempts", dropped.Request, dropped.Count)
	}))
	coordinator.Events.BlockRecovered.Attach(event.NewClosure(func(block *precomputed.Block) {
		log.Infof("recovered block %s at height %d", block.StateHash, block.Height)
	}))
}
