// Package config merges the command line flags of all components, the environment and an optional config file into a
// single viper instance.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/iotaledger/hive.go/generics/event"
	"github.com/iotaledger/hive.go/node"
	flag "github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// PluginName is the name of the config plugin.
const PluginName = "Config"

var (
	// Plugin is the plugin instance of the config plugin.
	Plugin *node.Plugin

	// Node contains the loaded configuration.
	Node *viper.Viper
)

func init() {
	Plugin = node.NewPlugin(PluginName, nil, node.Enabled)

	Plugin.Events.Init.Hook(event.NewClosure(func(event *node.InitEvent) {
		var err error
		if Node, err = Load(); err != nil {
			// global logger instance is not initialized at this stage...
			fmt.Println(err.Error())
			os.Exit(1)
		}

		applyPluginStatus(Node)

		if err = event.Container.Provide(func() *viper.Viper { return Node }); err != nil {
			panic(err)
		}
	}))
}

// applyPluginStatus overrides the default status of the plugins named by the node.* parameters.
func applyPluginStatus(config *viper.Viper) {
	for _, pluginName := range config.GetStringSlice(CfgDisablePlugins) {
		node.DisabledPlugins[node.GetPluginIdentifier(pluginName)] = true
	}
	for _, pluginName := range config.GetStringSlice(CfgEnablePlugins) {
		node.EnabledPlugins[node.GetPluginIdentifier(pluginName)] = true
	}
}

// Load parses the command line and reads the config file. Values are resolved in the order flag, environment variable
// (dots replaced by underscores), config file, flag default.
func Load() (config *viper.Viper, err error) {
	return load(flag.CommandLine, os.Args[1:], commandLineFileFlags)
}

func load(flagSet *flag.FlagSet, args []string, files *fileFlags) (config *viper.Viper, err error) {
	if !flagSet.Parsed() {
		if err = flagSet.Parse(args); err != nil {
			return nil, errors.Errorf("failed to parse command line: %w", err)
		}
	}

	config = viper.New()

	// replace dots with underscores in env
	config.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	config.AutomaticEnv()

	if err = config.BindPFlags(flagSet); err != nil {
		return nil, errors.Errorf("failed to bind flags: %w", err)
	}

	config.SetConfigName(*files.name)
	config.AddConfigPath(*files.dir)
	if err = config.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) || !*files.skip {
			return nil, errors.Errorf("failed to read config file %s in %s: %w", *files.name, *files.dir, err)
		}
	}

	return config, nil
}
