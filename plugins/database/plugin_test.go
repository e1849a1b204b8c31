package database

import (
	"context"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestDatabase_Lifetime(t *testing.T) {
	node := viper.New()
	node.Set(CfgDatabaseDir, t.TempDir())
	node.Set(CfgDatabaseGCInterval, 0)

	db, err := New(node, zap.NewNop().Sugar())
	require.NoError(t, err)
	require.NoError(t, db.Store().Set([]byte("key"), []byte("value")))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.NoError(t, db.Run(ctx))

	reopened, err := New(node, zap.NewNop().Sugar())
	require.NoError(t, err)

	value, err := reopened.Store().Get([]byte("key"))
	require.NoError(t, err)
	assert.Equal(t, []byte("value"), []byte(value))

	require.NoError(t, reopened.health.MarkUnhealthy())
	require.NoError(t, reopened.db.Close())

	_, err = New(node, zap.NewNop().Sugar())
	assert.ErrorIs(t, err, ErrDatabaseUnhealthy)

	node.Set(CfgDatabaseDirty, "false")
	recovered, err := New(node, zap.NewNop().Sugar())
	require.NoError(t, err)
	require.NoError(t, recovered.db.Close())
}
