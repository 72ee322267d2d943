// Package clock implements the dual countdown clock with per-move increment.
package clock

import (
	"errors"
	"sync"
	"time"

	"github.com/park285/cheese-duel/internal/position"
	"go.uber.org/zap"
)

// DefaultInterval is one decisecond.
const DefaultInterval = 100 * time.Millisecond

var ErrRunning = errors.New("clock is running")

// Config is the time allocation for a game. When Differential is false the
// black fields are ignored and black mirrors white.
type Config struct {
	WhiteBase      Deciseconds
	WhiteIncrement Deciseconds
	BlackBase      Deciseconds
	BlackIncrement Deciseconds
	Differential   bool
}

// Normalized returns the config with black mirrored from white when not differential.
func (c Config) Normalized() Config {
	if !c.Differential {
		c.BlackBase = c.WhiteBase
		c.BlackIncrement = c.WhiteIncrement
	}
	return c
}

func (c Config) base(side position.Side) Deciseconds {
	if side == position.White {
		return c.WhiteBase
	}
	return c.BlackBase
}

func (c Config) increment(side position.Side) Deciseconds {
	if side == position.White {
		return c.WhiteIncrement
	}
	return c.BlackIncrement
}

// Snapshot is a point-in-time view of the engine.
type Snapshot struct {
	White   Deciseconds
	Black   Deciseconds
	Active  position.Side
	Running bool
	Flagged bool
}

// Option configures an Engine.
type Option func(*Engine)

// WithInterval overrides the tick period. Each tick still removes one decisecond.
func WithInterval(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.interval = d
		}
	}
}

// WithLogger sets the engine logger.
func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// Engine runs at most one ticking goroutine. All fields are guarded by mu.
type Engine struct {
	mu        sync.Mutex
	cfg       Config
	remaining [2]Deciseconds
	active    position.Side
	running   bool
	flagged   bool
	cancel    chan struct{}
	done      chan struct{}

	interval time.Duration
	logger   *zap.Logger
}

// New creates a stopped engine.
func New(cfg Config, opts ...Option) *Engine {
	e := &Engine{
		cfg:      cfg.Normalized(),
		interval: DefaultInterval,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.resetLocked()
	return e
}

// Configure replaces the allocation. It fails while the clock is running.
func (e *Engine) Configure(cfg Config) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.running {
		return ErrRunning
	}
	e.cfg = cfg.Normalized()
	e.resetLocked()
	return nil
}

// Config returns the normalized allocation.
func (e *Engine) Config() Config {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.cfg
}

// resetLocked sets each side to its allocation plus one increment, so the
// first move of each side is already credited.
func (e *Engine) resetLocked() {
	for _, side := range []position.Side{position.White, position.Black} {
		e.remaining[side] = e.cfg.base(side) + e.cfg.increment(side)
	}
	e.flagged = false
}

// Start stops any previous run, resets remaining time and begins ticking for
// initial. onFlag is called at most once, from the ticking goroutine, after
// that goroutine has finished, so it may call Stop.
func (e *Engine) Start(initial position.Side, onFlag func(position.Side)) {
	e.Stop()

	e.mu.Lock()
	e.resetLocked()
	e.active = initial
	e.running = true
	cancel := make(chan struct{})
	done := make(chan struct{})
	e.cancel = cancel
	e.done = done
	interval := e.interval
	e.mu.Unlock()

	go e.loop(interval, cancel, done, onFlag)
}

func (e *Engine) loop(interval time.Duration, cancel <-chan struct{}, done chan<- struct{}, onFlag func(position.Side)) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-cancel:
			close(done)
			return
		case <-ticker.C:
		}

		e.mu.Lock()
		if !e.running || e.flagged {
			e.mu.Unlock()
			continue
		}
		e.remaining[e.active]--
		if e.remaining[e.active] > 0 {
			e.mu.Unlock()
			continue
		}
		e.flagged = true
		side := e.active
		e.mu.Unlock()

		e.logger.Info("duel_clock_flag", zap.String("side", side.String()))
		close(done)
		if onFlag != nil {
			onFlag(side)
		}
		return
	}
}

// Stop cancels the ticking goroutine and waits for it. It is idempotent and
// safe to call from the flag callback.
func (e *Engine) Stop() {
	e.mu.Lock()
	e.running = false
	cancel, done := e.cancel, e.done
	e.cancel, e.done = nil, nil
	e.mu.Unlock()

	if cancel == nil {
		return
	}
	close(cancel)
	<-done
}

// OnMoveCommitted credits the mover's increment and hands the clock to the
// other side. It does nothing when the clock is stopped or has flagged.
func (e *Engine) OnMoveCommitted() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.running || e.flagged {
		return
	}
	mover := e.active
	e.remaining[mover] += e.cfg.increment(mover)
	e.active = mover.Other()
}

// Remaining returns side's time clamped at zero.
func (e *Engine) Remaining(side position.Side) Deciseconds {
	if r := e.RawRemaining(side); r > 0 {
		return r
	}
	return 0
}

// RawRemaining returns side's signed remaining time.
func (e *Engine) RawRemaining(side position.Side) Deciseconds {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.remaining[side]
}

// Active returns the side whose time is running and whether the clock runs.
func (e *Engine) Active() (position.Side, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.active, e.running && !e.flagged
}

// Running reports whether a run was started and not stopped.
func (e *Engine) Running() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.running
}

// Snapshot returns the current clock faces.
func (e *Engine) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	s := Snapshot{
		White:   e.remaining[position.White],
		Black:   e.remaining[position.Black],
		Active:  e.active,
		Running: e.running,
		Flagged: e.flagged,
	}
	if s.White < 0 {
		s.White = 0
	}
	if s.Black < 0 {
		s.Black = 0
	}
	return s
}
