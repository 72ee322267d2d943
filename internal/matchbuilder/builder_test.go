package matchbuilder

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/park285/cheese-duel/internal/clock"
	"github.com/park285/cheese-duel/internal/config"
	"github.com/park285/cheese-duel/internal/prefs"
	"github.com/stretchr/testify/require"
)

func TestClockConfig(t *testing.T) {
	require.Nil(t, ClockConfig(&config.AppConfig{ClockBase: time.Minute}))

	got := ClockConfig(&config.AppConfig{
		ClockEnabled:        true,
		ClockBase:           5 * time.Minute,
		ClockIncrement:      3 * time.Second,
		ClockBlackBase:      time.Minute,
		ClockBlackIncrement: time.Second,
		ClockDifferential:   true,
	})
	require.Equal(t, &clock.Config{
		WhiteBase:      3000,
		WhiteIncrement: 30,
		BlackBase:      600,
		BlackIncrement: 10,
		Differential:   true,
	}, got)
}

func TestNewDefaultsToMemoryPrefs(t *testing.T) {
	d, err := New(context.Background(), &config.AppConfig{Event: "Casual"}, nil, nil)
	require.NoError(t, err)
	defer d.Close()
	require.IsType(t, &prefs.MemoryStore{}, d.Prefs)
	require.Nil(t, d.Archive)
	require.NotNil(t, d.Match)
	require.False(t, d.Match.ClockEnabled())
}

func TestNewWiresFileAndArchive(t *testing.T) {
	dir := t.TempDir()
	cfg := &config.AppConfig{
		PrefsFile:      filepath.Join(dir, "prefs.yaml"),
		DatabaseDriver: "sqlite3",
		DatabaseURL:    ":memory:",
	}
	d, err := New(context.Background(), cfg, nil, nil)
	require.NoError(t, err)
	defer d.Close()
	require.IsType(t, &prefs.FileStore{}, d.Prefs)
	require.NotNil(t, d.Archive)
}

func TestNewWiresRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	d, err := New(context.Background(), &config.AppConfig{RedisURL: "redis://" + mr.Addr() + "/0"}, nil, nil)
	require.NoError(t, err)
	defer d.Close()
	require.IsType(t, &prefs.RedisStore{}, d.Prefs)
}

func TestNewFailsOnBadRedis(t *testing.T) {
	_, err := New(context.Background(), &config.AppConfig{RedisURL: "http://nope"}, nil, nil)
	require.Error(t, err)
}
