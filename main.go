package main

import (
	"os"

	"github.com/iotaledger/hive.go/node"

	"github.com/Granola-Team/mina-indexer-sub000/plugins/config"
	"github.com/Granola-Team/mina-indexer-sub000/plugins/database"
	"github.com/Granola-Team/mina-indexer-sub000/plugins/gracefulshutdown"
	"github.com/Granola-Team/mina-indexer-sub000/plugins/indexer"
	"github.com/Granola-Team/mina-indexer-sub000/plugins/logger"
	"github.com/Granola-Team/mina-indexer-sub000/plugins/prometheus"
	"github.com/Granola-Team/mina-indexer-sub000/plugins/recovery"
	"github.com/Granola-Team/mina-indexer-sub000/plugins/webapi"
)

func main() {
	node.Run(node.Plugins(
		config.Plugin,
		logger.Plugin,
		gracefulshutdown.Plugin,
		database.Plugin,
		indexer.Plugin,
		recovery.Plugin,
		prometheus.Plugin,
		webapi.Plugin,
	))

	if indexer.Failed() {
		os.Exit(1)
	}
}
