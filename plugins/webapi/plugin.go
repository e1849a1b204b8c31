// Package webapi serves the read-only HTTP API of the indexer.
package webapi

import (
	"context"
	"net/http"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/iotaledger/hive.go/daemon"
	"github.com/iotaledger/hive.go/logger"
	"github.com/iotaledger/hive.go/node"
	"github.com/labstack/echo"
	"github.com/labstack/echo/middleware"
	"github.com/spf13/viper"
	"go.uber.org/atomic"
	"go.uber.org/dig"

	"github.com/Granola-Team/mina-indexer-sub000/packages/indexer"
	"github.com/Granola-Team/mina-indexer-sub000/packages/recovery"
	"github.com/Granola-Team/mina-indexer-sub000/packages/shutdown"
	"github.com/Granola-Team/mina-indexer-sub000/plugins/webapi/jsonmodels"
)

// PluginName is the name of the web API plugin.
const PluginName = "WebAPI"

// shutdownTimeout is the time the server waits for open requests before it is closed.
const shutdownTimeout = 5 * time.Second

var (
	// Plugin is the plugin instance of the web API plugin.
	Plugin *node.Plugin
	deps   = new(dependencies)

	server *Server
)

type dependencies struct {
	dig.In

	Node        *viper.Viper
	Indexer     *indexer.Indexer
	Coordinator *recovery.Coordinator `optional:"true"`
}

func init() {
	Plugin = node.NewPlugin(PluginName, deps, node.Enabled, configure, run)
}

func configure(plugin *node.Plugin) {
	server = New(Dependencies{
		Node:        deps.Node,
		Log:         plugin.Logger(),
		Indexer:     deps.Indexer,
		Coordinator: deps.Coordinator,
	})
}

func run(plugin *node.Plugin) {
	if err := daemon.BackgroundWorker(PluginName, func(ctx context.Context) {
		if err := server.Run(ctx); err != nil {
			plugin.LogErrorf("Stopped %s: %s", PluginName, err)
		}
	}, shutdown.PriorityWebAPI); err != nil {
		plugin.Panicf("Failed to start as daemon: %s", err)
	}
}

// Dependencies contains the components the web API answers queries from.
type Dependencies struct {
	Node        *viper.Viper
	Log         *logger.Logger
	Indexer     *indexer.Indexer
	Coordinator *recovery.Coordinator
}

// region Server ///////////////////////////////////////////////////////////////////////////////////////////////////////

// Server is the web API of the indexer.
type Server struct {
	echo        *echo.Echo
	indexer     *indexer.Indexer
	coordinator *recovery.Coordinator
	bindAddress string
	healthy     *atomic.Bool
	log         *logger.Logger
}

// New creates the Server and registers all routes.
func New(deps Dependencies) (server *Server) {
	server = &Server{
		echo:        echo.New(),
		indexer:     deps.Indexer,
		coordinator: deps.Coordinator,
		bindAddress: deps.Node.GetString(CfgBindAddress),
		healthy:     atomic.NewBool(false),
		log:         deps.Log,
	}

	server.echo.HideBanner = true
	server.echo.HidePort = true
	server.echo.Use(middleware.Recover())

	server.echo.GET("healthz", server.getHealthz)
	server.echo.GET("info", server.getInfo)
	server.echo.GET("blocks/bestTip", server.getBestTip)
	server.echo.GET("blocks/root", server.getCanonicalRoot)
	server.echo.GET("blocks/:stateHash", server.getBlock)
	server.echo.GET("blocks/:stateHash/path", server.getPath)
	server.echo.GET("accounts/:publicKey", server.getAccount)

	return server
}

// Handler returns the HTTP handler of the Server.
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Run serves the API until the context is done.
func (s *Server) Run(ctx context.Context) error {
	s.log.Infof("Started %s: listening on %s", PluginName, s.bindAddress)

	stopped := make(chan error, 1)
	go func() {
		if err := s.echo.Start(s.bindAddress); err != nil && !errors.Is(err, http.ErrServerClosed) {
			stopped <- errors.Errorf("failed to start %s: %w", PluginName, err)
		}
		close(stopped)
	}()

	s.healthy.Store(true)
	defer s.healthy.Store(false)

	select {
	case err := <-stopped:
		return err
	case <-ctx.Done():
	}

	s.log.Infof("Stopping %s ...", PluginName)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := s.echo.Shutdown(shutdownCtx); err != nil {
		s.log.Errorf("failed to stop %s: %s", PluginName, err)
	}

	s.log.Infof("Stopping %s ... done", PluginName)

	return nil
}

// endregion ///////////////////////////////////////////////////////////////////////////////////////////////////////////

// region healthz //////////////////////////////////////////////////////////////////////////////////////////////////////

func (s *Server) getHealthz(c echo.Context) error {
	if !s.healthy.Load() {
		return c.NoContent(http.StatusServiceUnavailable)
	}
	return c.NoContent(http.StatusOK)
}

// endregion ///////////////////////////////////////////////////////////////////////////////////////////////////////////

// region info /////////////////////////////////////////////////////////////////////////////////////////////////////////

func (s *Server) getInfo(c echo.Context) error {
	snapshot := s.indexer.Snapshot()
	stats := s.indexer.Stats()

	response := jsonmodels.InfoResponse{
		BestTip:          jsonmodels.NewBlockSummary(snapshot.BestTip),
		CanonicalRoot:    jsonmodels.NewBlockSummary(snapshot.Root),
		DanglingBranches: snapshot.NumDangling,
		WitnessTreeSize:  snapshot.Size,
		QueuedBlocks:     stats.Queued(),
		IngestedBlocks:   stats.Ingested(),
		RejectedBlocks:   stats.Rejected(),
	}
	if s.coordinator != nil {
		response.PendingRecoveries = s.coordinator.RequestQueueSize()
	}

	return c.JSON(http.StatusOK, response)
}

// endregion ///////////////////////////////////////////////////////////////////////////////////////////////////////////
