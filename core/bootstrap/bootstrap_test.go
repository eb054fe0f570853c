package bootstrap

import (
	"context"
	"errors"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	coreconfig "github.com/m3rciful/routeweather/core/config"
	coredatabase "github.com/m3rciful/routeweather/core/database"
)

func noLogger(*coreconfig.Config) error { return nil }

func TestRunWithoutDatabase(t *testing.T) {
	res, err := Run(context.Background(), Options{
		Config:     &coreconfig.Config{},
		LoggerInit: noLogger,
		Connect: func(context.Context, coredatabase.Config) (*sqlx.DB, error) {
			t.Fatal("connect must not run without a database")
			return nil, nil
		},
	})
	require.NoError(t, err)
	assert.Nil(t, res.DB)
	assert.NoError(t, res.Close())
}

func TestRunMigratesBeforeConnect(t *testing.T) {
	var order []string
	_, err := Run(context.Background(), Options{
		Config:     &coreconfig.Config{},
		Database:   &coredatabase.Config{Name: "routeweather"},
		LoggerInit: noLogger,
		Migrate: func(_ context.Context, cfg coredatabase.Config) error {
			order = append(order, "migrate:"+cfg.Name)
			return nil
		},
		Connect: func(context.Context, coredatabase.Config) (*sqlx.DB, error) {
			order = append(order, "connect")
			return nil, errors.New("refused")
		},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "refused")
	assert.Equal(t, []string{"migrate:routeweather", "connect"}, order)
}

func TestRunStopsOnFailedMigration(t *testing.T) {
	_, err := Run(context.Background(), Options{
		Config:     &coreconfig.Config{},
		Database:   &coredatabase.Config{},
		LoggerInit: noLogger,
		Migrate:    func(context.Context, coredatabase.Config) error { return errors.New("dirty") },
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "migrations failed")
}

func TestRunNilConfig(t *testing.T) {
	_, err := Run(context.Background(), Options{})
	assert.Error(t, err)
}
