// Package gracefulshutdown stops all background workers on SIGINT or SIGTERM and kills the process if they do not
// terminate in time.
package gracefulshutdown

import (
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/iotaledger/hive.go/daemon"
	"github.com/iotaledger/hive.go/node"
)

// PluginName is the name of the graceful shutdown plugin.
const PluginName = "GracefulShutdown"

// WaitToKillTimeInSeconds is the maximum amount of time to wait for background processes to terminate.
// After that the process is killed.
const WaitToKillTimeInSeconds = 30

// Plugin is the plugin instance of the graceful shutdown plugin.
var Plugin *node.Plugin

func init() {
	Plugin = node.NewPlugin(PluginName, nil, node.Enabled, run)
}

func run(plugin *node.Plugin) {
	gracefulStop := make(chan os.Signal, 1)
	signal.Notify(gracefulStop, syscall.SIGTERM, syscall.SIGINT)

	go func() {
		<-gracefulStop

		plugin.LogWarnf("Received shutdown request - waiting (max %d seconds) to finish processing ...", WaitToKillTimeInSeconds)

		go func() {
			start := time.Now()
			for x := range time.Tick(1 * time.Second) {
				secondsSinceStart := x.Sub(start).Seconds()

				if secondsSinceStart > WaitToKillTimeInSeconds {
					plugin.LogError("Background processes did not terminate in time! Forcing shutdown ...")
					os.Exit(1)
				}

				processList := ""
				if runningBackgroundWorkers := daemon.GetRunningBackgroundWorkers(); len(runningBackgroundWorkers) >= 1 {
					processList = "(" + strings.Join(runningBackgroundWorkers, ", ") + ") "
				}
				plugin.LogWarnf("Received shutdown request - waiting (max %d seconds) to finish processing %s...", WaitToKillTimeInSeconds-int(secondsSinceStart), processList)
			}
		}()

		daemon.Shutdown()
	}()
}
