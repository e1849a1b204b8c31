package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/iotaledger/hive.go/node"
	flag "github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const cfgThreshold = "indexer.canonicalThreshold"

func newFlagSet() (*flag.FlagSet, *fileFlags) {
	flagSet := flag.NewFlagSet("test", flag.ContinueOnError)
	flagSet.Uint32(cfgThreshold, 10, "distance between best tip and canonical root")

	return flagSet, registerFileFlags(flagSet)
}

func TestLoad_ConfigFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.json"), []byte(`{"indexer":{"canonicalThreshold":5}}`), 0o600))

	flagSet, files := newFlagSet()
	loaded, err := load(flagSet, []string{"--config-dir", dir}, files)
	require.NoError(t, err)
	assert.EqualValues(t, 5, loaded.GetUint32(cfgThreshold))

	flagSet, files = newFlagSet()
	loaded, err = load(flagSet, []string{"--config-dir", dir, "--indexer.canonicalThreshold=7"}, files)
	require.NoError(t, err)
	assert.EqualValues(t, 7, loaded.GetUint32(cfgThreshold))
}

func TestLoad_MissingConfigFile(t *testing.T) {
	dir := t.TempDir()

	flagSet, files := newFlagSet()
	_, err := load(flagSet, []string{"--config-dir", dir}, files)
	assert.Error(t, err)

	flagSet, files = newFlagSet()
	loaded, err := load(flagSet, []string{"--config-dir", dir, "--skip-config"}, files)
	require.NoError(t, err)
	assert.EqualValues(t, 10, loaded.GetUint32(cfgThreshold))
}

func TestApplyPluginStatus(t *testing.T) {
	config := viper.New()
	config.Set(CfgDisablePlugins, []string{"WebAPI"})
	config.Set(CfgEnablePlugins, []string{"Graceful Shutdown"})

	applyPluginStatus(config)
	defer delete(node.DisabledPlugins, "webapi")
	defer delete(node.EnabledPlugins, "gracefulshutdown")

	assert.True(t, node.DisabledPlugins["webapi"])
	assert.True(t, node.EnabledPlugins["gracefulshutdown"])
}
