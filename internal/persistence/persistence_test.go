package persistence

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/liveflow/donor-service/internal/config"
)

func TestNewRedis_DisabledWithoutAddr(t *testing.T) {
	r := NewRedis(context.Background(), config.RedisConfig{}, zap.NewNop())
	assert.Nil(t, r)
	assert.Error(t, r.Ping(context.Background()))
	r.Close()
}

func TestNewRedis_Ping(t *testing.T) {
	mr := miniredis.RunT(t)
	r := NewRedis(context.Background(), config.RedisConfig{Addr: mr.Addr()}, zap.NewNop())
	require.NotNil(t, r)
	defer r.Close()
	assert.NoError(t, r.Ping(context.Background()))
}

func TestConnectorsRequireAddress(t *testing.T) {
	_, err := NewPostgres(context.Background(), config.PostgresConfig{}, zap.NewNop())
	assert.Error(t, err)

	_, err = NewMongo(context.Background(), config.MongoConfig{}, zap.NewNop())
	assert.Error(t, err)

	var pg *Postgres
	assert.Error(t, pg.Ping(context.Background()))
	var mg *Mongo
	assert.Error(t, mg.Ping(context.Background()))
}

func TestRunMigrations_NoPool(t *testing.T) {
	assert.NoError(t, RunMigrations(context.Background(), nil, t.TempDir(), zap.NewNop()))
}
