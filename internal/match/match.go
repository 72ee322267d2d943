// Package match owns one session together with its clock. It turns clock
// events into timeout adjudication, renders user-facing notices, exports
// finished games and archives them.
package match

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/park285/cheese-duel/internal/clock"
	"github.com/park285/cheese-duel/internal/msgcat"
	"github.com/park285/cheese-duel/internal/pgnexport"
	"github.com/park285/cheese-duel/internal/position"
	"github.com/park285/cheese-duel/internal/prefs"
	"github.com/park285/cheese-duel/internal/session"
	"go.uber.org/zap"
)

var ErrNoFinishedGame = errors.New("no finished game")

// Archiver stores finished games.
type Archiver interface {
	SaveResult(ctx context.Context, rec *session.Record, pgn string) error
}

// Notice is a rendered user-facing message.
type Notice struct {
	Key  string
	Text string
}

// Deps are the collaborators of a Match. Only Catalog is expected; every
// other field has a usable zero value.
type Deps struct {
	Catalog *msgcat.Catalog
	Prefs   prefs.Store
	Archive Archiver
	Logger  *zap.Logger

	// Clock is the default allocation. Nil plays without a clock.
	Clock         *clock.Config
	ClockInterval time.Duration

	Tags   pgnexport.Tags
	PGNDir string

	// OnNotice is called with the match locked; it must not call back into
	// the match.
	OnNotice func(Notice)

	Loader session.Loader
}

// Match is safe for concurrent use. Lock order is match, session, clock.
type Match struct {
	mu sync.Mutex

	session *session.Session
	clock   *clock.Engine
	clockOn bool
	defCfg  *clock.Config

	catalog  *msgcat.Catalog
	prefs    prefs.Store
	archive  Archiver
	logger   *zap.Logger
	onNotice func(Notice)
	tags     pgnexport.Tags
	pgnDir   string
}

// New builds an idle match.
func New(d Deps) *Match {
	logger := d.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	store := d.Prefs
	if store == nil {
		store = prefs.NewMemoryStore()
	}
	m := &Match{
		catalog:  d.Catalog,
		prefs:    store,
		archive:  d.Archive,
		logger:   logger,
		onNotice: d.OnNotice,
		tags:     d.Tags,
		pgnDir:   d.PGNDir,
	}
	if d.Clock != nil {
		c := *d.Clock
		m.defCfg = &c
	}

	var cfg clock.Config
	if m.defCfg != nil {
		cfg = *m.defCfg
	}
	copts := []clock.Option{clock.WithLogger(logger)}
	if d.ClockInterval > 0 {
		copts = append(copts, clock.WithInterval(d.ClockInterval))
	}
	m.clock = clock.New(cfg, copts...)

	sopts := []session.Option{
		session.WithLogger(logger),
		session.WithListener(clockBridge{m: m}),
	}
	if d.Loader != nil {
		sopts = append(sopts, session.WithLoader(d.Loader))
	}
	m.session = session.New(sopts...)
	return m
}

// Session exposes the underlying session for read-only queries.
func (m *Match) Session() *session.Session { return m.session }

// Clock exposes the clock engine for read-only queries.
func (m *Match) Clock() *clock.Engine { return m.clock }

// ClockEnabled reports whether the current or last game is timed.
func (m *Match) ClockEnabled() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.clockOn
}

// NewGame starts a game from fen. cfg overrides the default allocation for
// this game; nil keeps the default, which may itself be no clock.
func (m *Match) NewGame(fen string, cfg *clock.Config) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.session.InProgress() {
		m.notify("notice.start.in_progress", nil)
		return session.ErrInvalidState
	}
	if cfg == nil {
		cfg = m.defCfg
	}
	m.clockOn = cfg != nil
	if cfg != nil {
		if err := m.clock.Configure(*cfg); err != nil {
			return err
		}
	}
	if err := m.session.Start(fen); err != nil {
		m.notify("notice.start.invalid", map[string]string{"Error": err.Error()})
		return err
	}
	m.notify("notice.game.started", map[string]string{"ToMove": sideName(sideToMove(m.session))})
	if rec, ok := m.session.Finished(); ok {
		m.announce(rec.Termination)
		m.persist(context.Background())
	}
	return nil
}

// Play submits a coordinate move. A committed move that ends the game is
// announced and archived.
func (m *Match) Play(ctx context.Context, c position.Coordinates) session.MoveResult {
	m.mu.Lock()
	defer m.mu.Unlock()

	res := m.session.SubmitMove(c)
	m.afterMove(ctx, c, res)
	return res
}

// Promote completes a pending promotion.
func (m *Match) Promote(ctx context.Context, kind position.PieceKind) session.MoveResult {
	m.mu.Lock()
	defer m.mu.Unlock()

	pending := m.session.Pending()
	if pending == nil {
		m.notify("notice.promotion.none", nil)
		return session.MoveResult{Kind: session.Rejected}
	}
	res := m.session.CommitPromotion(kind)
	m.afterMove(ctx, pending.Coordinates(), res)
	return res
}

func (m *Match) afterMove(ctx context.Context, c position.Coordinates, res session.MoveResult) {
	switch res.Kind {
	case session.Rejected:
		m.notify("notice.move.rejected", map[string]string{"Move": c.String()})
	case session.PromotionPending:
		m.notify("notice.promotion.pending", nil)
	case session.Committed:
		if res.Termination != nil {
			m.announce(*res.Termination)
			m.persist(ctx)
		}
	}
}

// CancelPromotion withdraws a pending promotion.
func (m *Match) CancelPromotion() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.session.CancelPromotion()
}

// Abort stops the game in progress.
func (m *Match) Abort(ctx context.Context, userRequested bool) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	term, ok := m.session.Abort(userRequested)
	if !ok {
		return false
	}
	m.announce(term)
	m.persist(ctx)
	return true
}

// onFlag returns the clock callback for one game. Flags from an earlier game
// are ignored.
func (m *Match) onFlag(gameID string) func(position.Side) {
	return func(side position.Side) {
		m.mu.Lock()
		defer m.mu.Unlock()

		if m.session.GameID() != gameID {
			return
		}
		term, ok := m.session.ResolveTimeoutAdjudication(side)
		if !ok {
			return
		}
		m.announce(term)
		m.persist(context.Background())
	}
}

func (m *Match) announce(term session.Termination) {
	if !term.Notify {
		return
	}
	key, data := noticeFor(term)
	if key != "" {
		m.notify(key, data)
	}
}

func noticeFor(term session.Termination) (string, any) {
	switch term.Cause {
	case session.Checkmate:
		if term.ResultTag() == "1-0" {
			return "notice.checkmate.white", nil
		}
		return "notice.checkmate.black", nil
	case session.Stalemate:
		return "notice.draw.stalemate", nil
	case session.ThreefoldRepetition:
		return "notice.draw.threefold_repetition", nil
	case session.InsufficientMaterial:
		return "notice.draw.insufficient_material", nil
	case session.FiftyMoveRule:
		return "notice.draw.fifty_move_rule", nil
	case session.Timeout:
		if term.Flagged == position.Black {
			return "notice.timeout.white_wins", nil
		}
		return "notice.timeout.black_wins", nil
	case session.TimeoutInsufficientMaterial:
		return "notice.timeout.draw_insufficient", map[string]string{
			"Flagged":  sideName(term.Flagged),
			"Opponent": sideName(term.Flagged.Other()),
		}
	case session.Aborted:
		return "notice.aborted", nil
	default:
		return "", nil
	}
}

func (m *Match) notify(key string, data any) {
	if m.onNotice == nil {
		return
	}
	text := m.catalog.RenderOr(key, data, key)
	m.onNotice(Notice{Key: key, Text: text})
}

// persist archives the finished game. Failures are logged only.
func (m *Match) persist(ctx context.Context) {
	if m.archive == nil {
		return
	}
	rec, ok := m.session.Finished()
	if !ok {
		return
	}
	doc := pgnexport.Assemble(rec, m.tags)
	if err := m.archive.SaveResult(ctx, rec, doc.Render()); err != nil {
		m.logger.Warn("duel_archive_failed", zap.String("game_id", rec.GameID), zap.Error(err))
	}
}

func sideToMove(s *session.Session) position.Side {
	if s.WhiteToMove() {
		return position.White
	}
	return position.Black
}

func sideName(s position.Side) string {
	if s == position.White {
		return "White"
	}
	return "Black"
}

// clockBridge forwards session lifecycle events to the clock. It runs with
// the session locked.
type clockBridge struct{ m *Match }

func (b clockBridge) GameStarted(gameID string, toMove position.Side) {
	if !b.m.clockOn {
		b.m.clock.Stop()
		return
	}
	b.m.clock.Start(toMove, b.m.onFlag(gameID))
}

func (b clockBridge) MoveCommitted(string, position.Side) {
	b.m.clock.OnMoveCommitted()
}

func (b clockBridge) GameStopped(string, session.Termination) {
	b.m.clock.Stop()
}
