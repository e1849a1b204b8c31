// Package logger initializes the global logger from the logger.* parameters.
package logger

import (
	"github.com/iotaledger/hive.go/configuration"
	"github.com/iotaledger/hive.go/daemon"
	"github.com/iotaledger/hive.go/generics/event"
	"github.com/iotaledger/hive.go/logger"
	"github.com/iotaledger/hive.go/node"
	"github.com/spf13/viper"
)

// PluginName is the name of the logger plugin.
const PluginName = "Logger"

// Plugin is the plugin instance of the logger plugin.
var Plugin *node.Plugin

func init() {
	Plugin = node.NewPlugin(PluginName, nil, node.Enabled)

	Plugin.Events.Init.Hook(event.NewClosure(func(event *node.InitEvent) {
		if err := event.Container.Invoke(func(config *viper.Viper) error {
			return logger.InitGlobalLogger(newConfiguration(config))
		}); err != nil {
			panic(err)
		}

		// enable logging for the daemon
		daemon.DebugEnabled(true)
	}))
}

// newConfiguration copies the logger.* parameters into the configuration the root logger is built from.
func newConfiguration(config *viper.Viper) *configuration.Configuration {
	loggerConfig := configuration.New()
	for key, value := range map[string]interface{}{
		logger.ConfigurationKeyLevel:             config.GetString(CfgLoggerLevel),
		logger.ConfigurationKeyDisableCaller:     config.GetBool(CfgLoggerDisableCaller),
		logger.ConfigurationKeyDisableStacktrace: config.GetBool(CfgLoggerDisableStacktrace),
		logger.ConfigurationKeyEncoding:          config.GetString(CfgLoggerEncoding),
		logger.ConfigurationKeyOutputPaths:       config.GetStringSlice(CfgLoggerOutputPaths),
		logger.ConfigurationKeyDisableEvents:     true,
	} {
		// values of the confmap provider can not fail to load
		_ = loggerConfig.Set(key, value)
	}

	return loggerConfig
}
