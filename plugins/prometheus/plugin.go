// Package prometheus exports the metrics of the indexer on a Prometheus endpoint.
package prometheus

import (
	"context"
	"net/http"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/iotaledger/hive.go/daemon"
	"github.com/iotaledger/hive.go/logger"
	"github.com/iotaledger/hive.go/node"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/viper"
	"go.uber.org/dig"

	"github.com/Granola-Team/mina-indexer-sub000/packages/indexer"
	"github.com/Granola-Team/mina-indexer-sub000/packages/recovery"
	"github.com/Granola-Team/mina-indexer-sub000/packages/shutdown"
	"github.com/Granola-Team/mina-indexer-sub000/packages/watcher"
)

// PluginName is the name of the prometheus plugin.
const PluginName = "Prometheus"

var (
	// Plugin is the plugin instance of the prometheus plugin.
	Plugin *node.Plugin
	deps   = new(dependencies)

	metrics *Metrics
)

type dependencies struct {
	dig.In

	Node        *viper.Viper
	Indexer     *indexer.Indexer
	Coordinator *recovery.Coordinator `optional:"true"`
	Watcher     *watcher.Watcher      `optional:"true"`
}

func init() {
	Plugin = node.NewPlugin(PluginName, deps, node.Enabled, configure, run)
}

func configure(plugin *node.Plugin) {
	metrics = New(Dependencies{
		Node:        deps.Node,
		Log:         plugin.Logger(),
		Indexer:     deps.Indexer,
		Coordinator: deps.Coordinator,
		Watcher:     deps.Watcher,
	})
}

func run(plugin *node.Plugin) {
	if err := daemon.BackgroundWorker(PluginName, func(ctx context.Context) {
		if err := metrics.Run(ctx); err != nil {
			plugin.LogErrorf("Stopped %s: %s", PluginName, err)
		}
	}, shutdown.PriorityPrometheus); err != nil {
		plugin.Panicf("Failed to start as daemon: %s", err)
	}
}

// Dependencies contains the components the metrics are collected from.
type Dependencies struct {
	Node        *viper.Viper
	Log         *logger.Logger
	Indexer     *indexer.Indexer
	Coordinator *recovery.Coordinator
	Watcher     *watcher.Watcher
}

// Metrics collects the metrics of the indexer into its own registry.
type Metrics struct {
	deps     Dependencies
	registry *prometheus.Registry
	collects []func()
	log      *logger.Logger

	bestTipHeight       prometheus.Gauge
	canonicalRootHeight prometheus.Gauge
	danglingBranches    prometheus.Gauge
	witnessTreeSize     prometheus.Gauge
	queuedBlocks        prometheus.Gauge
	pendingRequests     prometheus.Gauge
	workerpools         *prometheus.GaugeVec
	cpuUsage            prometheus.Gauge
	memUsageBytes       prometheus.Gauge
}

// New creates the Metrics and registers all collectors.
func New(deps Dependencies) (metrics *Metrics) {
	metrics = &Metrics{
		deps:     deps,
		registry: prometheus.NewRegistry(),
		log:      deps.Log,
	}

	metrics.registerIndexerMetrics()
	if deps.Coordinator != nil {
		metrics.registerRecoveryMetrics()
	}
	if deps.Watcher != nil {
		metrics.registerWorkerpoolMetrics()
	}
	if deps.Node.GetBool(CfgPrometheusProcessMetrics) {
		metrics.registerProcessMetrics()
	}
	if deps.Node.GetBool(CfgPrometheusGoMetrics) {
		metrics.registry.MustRegister(prometheus.NewGoCollector())
	}

	return metrics
}

// Registry returns the registry the metrics are registered with.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Collect updates all gauges.
func (m *Metrics) Collect() {
	for _, collect := range m.collects {
		collect()
	}
}

// Run serves the metrics until the context is done.
func (m *Metrics) Run(ctx context.Context) error {
	handler := promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{EnableOpenMetrics: true})

	mux := http.NewServeMux()
	mux.HandleFunc("/metrics", func(w http.ResponseWriter, r *http.Request) {
		m.Collect()
		handler.ServeHTTP(w, r)
	})

	bindAddress := m.deps.Node.GetString(CfgPrometheusBindAddress)
	server := &http.Server{Addr: bindAddress, Handler: mux}

	stopped := make(chan error, 1)
	go func() {
		m.log.Infof("%s started, bind-address=%s", PluginName, bindAddress)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			stopped <- errors.Errorf("failed to serve metrics: %w", err)
		}
		close(stopped)
	}()

	select {
	case <-ctx.Done():
	case err := <-stopped:
		return err
	}

	m.log.Infof("Stopping %s ...", PluginName)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		m.log.Errorf("failed to stop %s: %s", PluginName, err)
	}

	return nil
}

func (m *Metrics) addCollect(collect func()) {
	m.collects = append(m.collects, collect)
}
