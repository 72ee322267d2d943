package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/park285/cheese-duel/internal/position"
	"github.com/park285/cheese-duel/internal/rules"
)

type AppConfig struct {
	StartFEN string

	ClockEnabled        bool
	ClockBase           time.Duration
	ClockIncrement      time.Duration
	ClockDifferential   bool
	ClockBlackBase      time.Duration
	ClockBlackIncrement time.Duration

	PGNDir      string
	MessagesDir string
	PrefsFile   string

	RedisURL       string
	DatabaseDriver string
	DatabaseURL    string

	Event string
	Site  string
	White string
	Black string
}

func Load() (*AppConfig, error) {
	cfg := &AppConfig{
		StartFEN:       position.StandardStart,
		ClockBase:      5 * time.Minute,
		DatabaseDriver: "postgres",
	}

	if v := strings.TrimSpace(os.Getenv("DUEL_START_FEN")); v != "" {
		cfg.StartFEN = v
	}

	if v := strings.TrimSpace(os.Getenv("DUEL_CLOCK_ENABLED")); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			cfg.ClockEnabled = b
		}
	}
	if v := strings.TrimSpace(os.Getenv("DUEL_CLOCK_DIFFERENTIAL")); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			cfg.ClockDifferential = b
		}
	}
	var err error
	if cfg.ClockBase, err = durationEnv("DUEL_CLOCK_BASE", cfg.ClockBase); err != nil {
		return nil, err
	}
	if cfg.ClockIncrement, err = durationEnv("DUEL_CLOCK_INCREMENT", 0); err != nil {
		return nil, err
	}
	if cfg.ClockBlackBase, err = durationEnv("DUEL_CLOCK_BLACK_BASE", cfg.ClockBase); err != nil {
		return nil, err
	}
	if cfg.ClockBlackIncrement, err = durationEnv("DUEL_CLOCK_BLACK_INCREMENT", cfg.ClockIncrement); err != nil {
		return nil, err
	}

	cfg.PGNDir = strings.TrimSpace(os.Getenv("DUEL_PGN_DIR"))
	cfg.MessagesDir = strings.TrimSpace(os.Getenv("DUEL_MESSAGES_DIR"))
	cfg.PrefsFile = strings.TrimSpace(os.Getenv("DUEL_PREFS_FILE"))

	cfg.RedisURL = strings.TrimSpace(os.Getenv("REDIS_URL"))
	cfg.DatabaseURL = strings.TrimSpace(os.Getenv("DATABASE_URL"))
	if v := strings.TrimSpace(os.Getenv("DATABASE_DRIVER")); v != "" {
		cfg.DatabaseDriver = strings.ToLower(v)
	}

	cfg.Event = strings.TrimSpace(os.Getenv("DUEL_EVENT"))
	cfg.Site = strings.TrimSpace(os.Getenv("DUEL_SITE"))
	cfg.White = strings.TrimSpace(os.Getenv("DUEL_WHITE"))
	cfg.Black = strings.TrimSpace(os.Getenv("DUEL_BLACK"))

	if !position.IsWellFormed(cfg.StartFEN) {
		return nil, fmt.Errorf("DUEL_START_FEN is malformed: %q", cfg.StartFEN)
	}
	if err := position.ValidateLegalStart(cfg.StartFEN, rules.Inspect); err != nil {
		return nil, fmt.Errorf("DUEL_START_FEN cannot start a game: %w", err)
	}
	if cfg.ClockEnabled && cfg.ClockBase <= 0 {
		return nil, errors.New("DUEL_CLOCK_BASE must be positive when the clock is enabled")
	}
	if cfg.ClockEnabled && cfg.ClockDifferential && cfg.ClockBlackBase <= 0 {
		return nil, errors.New("DUEL_CLOCK_BLACK_BASE must be positive for a differential clock")
	}
	if cfg.DatabaseDriver != "postgres" && cfg.DatabaseDriver != "sqlite3" {
		return nil, fmt.Errorf("DATABASE_DRIVER must be postgres or sqlite3, got %q", cfg.DatabaseDriver)
	}

	return cfg, nil
}

// durationEnv accepts Go durations ("5m", "90s") or plain seconds ("300").
func durationEnv(key string, def time.Duration) (time.Duration, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	if n, err := strconv.Atoi(v); err == nil {
		if n < 0 {
			return 0, fmt.Errorf("%s must not be negative", key)
		}
		return time.Duration(n) * time.Second, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("%s must not be negative", key)
	}
	return d, nil
}
