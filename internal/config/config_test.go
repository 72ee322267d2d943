package config

import (
	"testing"
	"time"

	"github.com/park285/cheese-duel/internal/position"
)

func TestLoadDefaults(t *testing.T) {
	for _, k := range []string{
		"DUEL_START_FEN", "DUEL_CLOCK_ENABLED", "DUEL_CLOCK_BASE", "DUEL_CLOCK_INCREMENT",
		"DUEL_CLOCK_DIFFERENTIAL", "DUEL_CLOCK_BLACK_BASE", "DUEL_CLOCK_BLACK_INCREMENT",
		"DATABASE_DRIVER", "DATABASE_URL", "REDIS_URL",
	} {
		t.Setenv(k, "")
	}
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.StartFEN != position.StandardStart || cfg.ClockEnabled || cfg.ClockBase != 5*time.Minute {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.ClockBlackBase != cfg.ClockBase || cfg.DatabaseDriver != "postgres" {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
}

func TestLoadClock(t *testing.T) {
	t.Setenv("DUEL_CLOCK_ENABLED", "true")
	t.Setenv("DUEL_CLOCK_BASE", "180")
	t.Setenv("DUEL_CLOCK_INCREMENT", "2s")
	t.Setenv("DUEL_CLOCK_DIFFERENTIAL", "true")
	t.Setenv("DUEL_CLOCK_BLACK_BASE", "1m30s")
	t.Setenv("DUEL_CLOCK_BLACK_INCREMENT", "")
	t.Setenv("DATABASE_DRIVER", "SQLITE3")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !cfg.ClockEnabled || !cfg.ClockDifferential {
		t.Fatalf("clock flags not applied: %+v", cfg)
	}
	if cfg.ClockBase != 3*time.Minute || cfg.ClockIncrement != 2*time.Second {
		t.Fatalf("white clock = %v + %v", cfg.ClockBase, cfg.ClockIncrement)
	}
	if cfg.ClockBlackBase != 90*time.Second || cfg.ClockBlackIncrement != 2*time.Second {
		t.Fatalf("black clock = %v + %v", cfg.ClockBlackBase, cfg.ClockBlackIncrement)
	}
	if cfg.DatabaseDriver != "sqlite3" {
		t.Fatalf("driver = %q", cfg.DatabaseDriver)
	}
}

func TestLoadErrors(t *testing.T) {
	cases := map[string]map[string]string{
		"malformed fen":  {"DUEL_START_FEN": "8/8/8 w"},
		"illegal start":  {"DUEL_START_FEN": "4k3/8/8/8/8/8/8/4R1K1 w - - 0 1"},
		"bad duration":   {"DUEL_CLOCK_BASE": "soon"},
		"negative":       {"DUEL_CLOCK_INCREMENT": "-3"},
		"zero base":      {"DUEL_CLOCK_ENABLED": "1", "DUEL_CLOCK_BASE": "0"},
		"unknown driver": {"DATABASE_DRIVER": "mysql"},
	}
	for name, env := range cases {
		t.Run(name, func(t *testing.T) {
			for k, v := range env {
				t.Setenv(k, v)
			}
			if _, err := Load(); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}
