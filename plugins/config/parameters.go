package config

import (
	flag "github.com/spf13/pflag"
)

const (
	// CfgConfigName contains the name of the flag that sets the file name of the config file without extension.
	CfgConfigName = "config"

	// CfgConfigDir contains the name of the flag that sets the directory of the config file.
	CfgConfigDir = "config-dir"

	// CfgSkipConfig contains the name of the flag that allows to start without a config file.
	CfgSkipConfig = "skip-config"

	// CfgDisablePlugins contains the names of the plugins that are disabled.
	CfgDisablePlugins = "node.disablePlugins"

	// CfgEnablePlugins contains the names of the plugins that are enabled.
	CfgEnablePlugins = "node.enablePlugins"
)

func init() {
	flag.StringSlice(CfgDisablePlugins, nil, "a list of plugins that shall be disabled")
	flag.StringSlice(CfgEnablePlugins, nil, "a list of plugins that shall be enabled")
}

// fileFlags contains the flags that locate the config file.
type fileFlags struct {
	name *string
	dir  *string
	skip *bool
}

func registerFileFlags(flagSet *flag.FlagSet) *fileFlags {
	return &fileFlags{
		name: flagSet.StringP(CfgConfigName, "c", "config", "Filename of the config file without the file extension"),
		dir:  flagSet.StringP(CfgConfigDir, "d", ".", "Path to the directory containing the config file"),
		skip: flagSet.Bool(CfgSkipConfig, false, "Skip config file availability check"),
	}
}

var commandLineFileFlags = registerFileFlags(flag.CommandLine)
