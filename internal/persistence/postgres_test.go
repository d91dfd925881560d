package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/lexdesk/case-service/internal/config"
)

func TestNewPostgresWithoutDSN(t *testing.T) {
	pg, err := NewPostgres(context.Background(), config.PostgresConfig{}, zaptest.NewLogger(t))
	require.NoError(t, err)
	assert.Nil(t, pg)
	assert.Nil(t, pg.PoolHandle())
	assert.Error(t, pg.Ping(context.Background()))
	pg.Close()
}

func TestApplyPoolLimits(t *testing.T) {
	poolCfg, err := pgxpool.ParseConfig("postgres://u:p@localhost:5432/cases")
	require.NoError(t, err)

	applyPoolLimits(poolCfg, config.PostgresConfig{MaxConns: 8, MinConns: 20, ConnMaxIdleSec: 30})
	assert.Equal(t, int32(8), poolCfg.MaxConns)
	assert.NotEqual(t, int32(20), poolCfg.MinConns)
	assert.Equal(t, 30*time.Second, poolCfg.MaxConnIdleTime)
}
