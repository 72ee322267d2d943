package matchbuilder

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/park285/cheese-duel/internal/archive"
	"github.com/park285/cheese-duel/internal/clock"
	"github.com/park285/cheese-duel/internal/config"
	"github.com/park285/cheese-duel/internal/match"
	"github.com/park285/cheese-duel/internal/msgcat"
	"github.com/park285/cheese-duel/internal/pgnexport"
	"github.com/park285/cheese-duel/internal/prefs"
	"go.uber.org/zap"
)

type Deps struct {
	Match   *match.Match
	Catalog *msgcat.Catalog
	Prefs   prefs.Store
	Archive *archive.Repository

	closers []func() error
}

// Close releases the Redis client and the database pool.
func (d *Deps) Close() error {
	if d == nil {
		return nil
	}
	var first error
	for i := len(d.closers) - 1; i >= 0; i-- {
		if err := d.closers[i](); err != nil && first == nil {
			first = err
		}
	}
	d.closers = nil
	return first
}

// New wires a match from cfg. onNotice receives rendered notices.
func New(ctx context.Context, cfg *config.AppConfig, logger *zap.Logger, onNotice func(match.Notice)) (*Deps, error) {
	if cfg == nil {
		return nil, fmt.Errorf("nil config")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	d := &Deps{}

	// Messages
	cat, err := msgcat.New(cfg.MessagesDir)
	if err != nil {
		return nil, fmt.Errorf("load messages: %w", err)
	}
	d.Catalog = cat

	// Preferences: Redis, then file, then memory
	switch {
	case strings.TrimSpace(cfg.RedisURL) != "":
		dialCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		store, err := prefs.DialRedis(dialCtx, cfg.RedisURL)
		cancel()
		if err != nil {
			return nil, fmt.Errorf("init prefs: %w", err)
		}
		d.Prefs = store
		d.closers = append(d.closers, store.Close)
	case strings.TrimSpace(cfg.PrefsFile) != "":
		d.Prefs = prefs.NewFileStore(cfg.PrefsFile)
	default:
		d.Prefs = prefs.NewMemoryStore()
	}

	// Archive (optional)
	var archiver match.Archiver
	if strings.TrimSpace(cfg.DatabaseURL) != "" {
		openCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		repo, err := archive.Open(openCtx, cfg.DatabaseDriver, cfg.DatabaseURL)
		cancel()
		if err != nil {
			_ = d.Close()
			return nil, fmt.Errorf("init archive: %w", err)
		}
		d.Archive = repo
		archiver = repo
		d.closers = append(d.closers, repo.Close)
	}

	d.Match = match.New(match.Deps{
		Catalog:  cat,
		Prefs:    d.Prefs,
		Archive:  archiver,
		Logger:   logger,
		Clock:    ClockConfig(cfg),
		Tags:     Tags(cfg),
		PGNDir:   cfg.PGNDir,
		OnNotice: onNotice,
	})

	logger.Info("duel_wiring",
		zap.Bool("clock", cfg.ClockEnabled),
		zap.Bool("archive", d.Archive != nil),
		zap.String("prefs", fmt.Sprintf("%T", d.Prefs)),
	)
	return d, nil
}

// ClockConfig maps the clock settings, or nil when the clock is disabled.
func ClockConfig(cfg *config.AppConfig) *clock.Config {
	if cfg == nil || !cfg.ClockEnabled {
		return nil
	}
	return &clock.Config{
		WhiteBase:      clock.FromDuration(cfg.ClockBase),
		WhiteIncrement: clock.FromDuration(cfg.ClockIncrement),
		BlackBase:      clock.FromDuration(cfg.ClockBlackBase),
		BlackIncrement: clock.FromDuration(cfg.ClockBlackIncrement),
		Differential:   cfg.ClockDifferential,
	}
}

// Tags maps the configured PGN header values.
func Tags(cfg *config.AppConfig) pgnexport.Tags {
	if cfg == nil {
		return pgnexport.Tags{}
	}
	return pgnexport.Tags{Event: cfg.Event, Site: cfg.Site, White: cfg.White, Black: cfg.Black}
}
