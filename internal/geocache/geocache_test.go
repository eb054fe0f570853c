package geocache

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	backend "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m3rciful/routeweather/internal/forecast"
)

// runContract exercises the behaviour every backend shares.
func runContract(t *testing.T, c forecast.KeyCache) {
	t.Helper()
	ctx := context.Background()

	_, ok, err := c.Lookup(ctx, "Moscow")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.Store(ctx, "Moscow", "294021"))
	key, ok, err := c.Lookup(ctx, "  moscow ")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "294021", key)

	require.NoError(t, c.Store(ctx, "MOSCOW", "1"))
	key, _, err = c.Lookup(ctx, "Moscow")
	require.NoError(t, err)
	assert.Equal(t, "1", key)

	require.NoError(t, c.Store(ctx, "New   York", "349727"))
	key, ok, err = c.Lookup(ctx, "new york")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "349727", key)
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "saint petersburg", Normalize("  Saint \t Petersburg "))
	assert.Equal(t, "", Normalize("   "))
}

func TestMemory(t *testing.T) {
	runContract(t, NewMemory(0))
}

func TestMemoryTTL(t *testing.T) {
	m := NewMemory(time.Hour)
	now := time.Date(2024, 6, 10, 12, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, m.Store(ctx, "Paris", "623"))
	_, ok, _ := m.Lookup(ctx, "Paris")
	assert.True(t, ok)

	now = now.Add(2 * time.Hour)
	_, ok, _ = m.Lookup(ctx, "Paris")
	assert.False(t, ok)
}

func TestRedis(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	client := backend.NewClient(&backend.Options{Addr: mr.Addr()})
	c := NewRedisFromClient(client, WithTTL(time.Hour))
	defer c.Close()

	require.NoError(t, c.Ping(context.Background()))
	runContract(t, c)

	assert.True(t, mr.Exists(DefaultRedisPrefix+"moscow"))
	assert.Equal(t, time.Hour, mr.TTL(DefaultRedisPrefix+"moscow"))

	mr.FastForward(2 * time.Hour)
	_, ok, err := c.Lookup(context.Background(), "Moscow")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedisPrefixAndFailure(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)

	c := NewRedis(mr.Addr(), "", 0, WithPrefix("test:"))
	defer c.Close()
	require.NoError(t, c.Store(context.Background(), "Oslo", "254946"))
	assert.True(t, mr.Exists("test:oslo"))

	mr.Close()
	_, _, err = c.Lookup(context.Background(), "Oslo")
	assert.Error(t, err)
}

// TestPostgres runs against a real database when ROUTEWEATHER_TEST_DSN is set.
func TestPostgres(t *testing.T) {
	dsn := os.Getenv("ROUTEWEATHER_TEST_DSN")
	if dsn == "" {
		t.Skip("ROUTEWEATHER_TEST_DSN not set")
	}
	db, err := sqlx.Connect("postgres", dsn)
	require.NoError(t, err)
	defer db.Close()

	schema, err := os.ReadFile("../../migrations/000001_city_locations.up.sql")
	require.NoError(t, err)
	_, err = db.Exec(string(schema))
	require.NoError(t, err)
	_, err = db.Exec(`TRUNCATE city_locations`)
	require.NoError(t, err)

	runContract(t, NewPostgres(db, 0))
}
