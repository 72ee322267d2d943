// Package session implements the game session state machine: start
// validation, move submission with the pending-promotion protocol,
// termination and timeout adjudication, and post-game history navigation.
package session

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/park285/cheese-duel/internal/history"
	"github.com/park285/cheese-duel/internal/position"
	"github.com/park285/cheese-duel/internal/rules"
	"go.uber.org/zap"
)

// Option configures a Session.
type Option func(*Session)

// WithLoader replaces the rules loader.
func WithLoader(load Loader) Option {
	return func(s *Session) {
		if load != nil {
			s.load = load
		}
	}
}

// WithLogger sets the session logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Session) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithListener attaches a lifecycle listener.
func WithListener(l Listener) Option {
	return func(s *Session) {
		if l != nil {
			s.listener = l
		}
	}
}

// WithNow overrides the time source used for record timestamps.
func WithNow(now func() time.Time) Option {
	return func(s *Session) {
		if now != nil {
			s.now = now
		}
	}
}

// Session is one local two-player game. All methods are safe for concurrent
// use; the clock's flag path calls in from another goroutine.
type Session struct {
	mu sync.Mutex

	load     Loader
	logger   *zap.Logger
	listener Listener
	now      func() time.Time

	state      State
	gameID     string
	oracle     Oracle
	timeline   *history.Timeline
	startFEN   string
	displayed  string
	beforeLast string
	cursor     int
	arrow      *position.Coordinates
	pending    *PendingPromotion
	players    [2]Player
	resultTag  string
	startedAt  time.Time
	record     *Record
}

// New creates an idle session.
func New(opts ...Option) *Session {
	s := &Session{
		load:      RulesLoader,
		logger:    zap.NewNop(),
		listener:  nopListener{},
		now:       time.Now,
		displayed: position.EmptyStart,
		cursor:    -1,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Session) inspect(fen string) (position.Inspector, error) {
	o, err := s.load(fen)
	if err != nil {
		return nil, err
	}
	return o, nil
}

// Start validates fen and begins a fresh game, discarding any previous
// timeline. It fails with ErrInvalidState while a game is in progress.
func (s *Session) Start(fen string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == InProgress {
		return ErrInvalidState
	}
	if err := position.ValidateLegalStart(fen, s.inspect); err != nil {
		return err
	}
	oracle, err := s.load(fen)
	if err != nil {
		return err
	}
	fields, err := position.Parse(fen)
	if err != nil {
		return err
	}

	s.state = InProgress
	s.gameID = uuid.NewString()
	s.oracle = oracle
	s.timeline = history.New(fields.FullMove, fields.WhiteToMove())
	s.startFEN = oracle.FEN()
	s.displayed = s.startFEN
	s.beforeLast = s.startFEN
	s.cursor = -1
	s.arrow = nil
	s.pending = nil
	s.players = [2]Player{Human, Human}
	s.resultTag = ""
	s.startedAt = s.now()
	s.record = nil

	toMove := oracle.SideToMove()
	s.logger.Info("duel_game_start",
		zap.String("game_id", s.gameID),
		zap.String("fen", s.startFEN),
		zap.String("to_move", toMove.String()),
	)
	s.listener.GameStarted(s.gameID, toMove)
	// a start position with no legal moves or no mating material ends at once
	s.resolveTerminationLocked()
	return nil
}

// SubmitMove tries the plain move first, then the queen-promotion-shaped
// move. A promotion-shaped move only opens a pending choice.
func (s *Session) SubmitMove(c position.Coordinates) MoveResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != InProgress || s.pending != nil || !c.Valid() {
		return MoveResult{Kind: Rejected}
	}
	if s.oracle.IsLegal(c) {
		return s.commitLocked(c, 0)
	}
	if s.oracle.IsLegalPromotion(c, position.Queen) {
		s.pending = &PendingPromotion{Side: s.oracle.SideToMove(), Start: c.Start(), End: c.End()}
		return MoveResult{Kind: PromotionPending}
	}
	return MoveResult{Kind: Rejected}
}

// CancelPromotion drops a pending promotion.
func (s *Session) CancelPromotion() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pending == nil {
		return false
	}
	s.pending = nil
	return true
}

// CommitPromotion completes the pending promotion with kind. An illegal kind
// is rejected and leaves the promotion pending.
func (s *Session) CommitPromotion(kind position.PieceKind) MoveResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != InProgress || s.pending == nil {
		return MoveResult{Kind: Rejected}
	}
	c := s.pending.Coordinates()
	if !s.oracle.IsLegalPromotion(c, kind) {
		return MoveResult{Kind: Rejected}
	}
	s.pending = nil
	return s.commitLocked(c, kind)
}

func (s *Session) commitLocked(c position.Coordinates, promo position.PieceKind) MoveResult {
	mover := s.oracle.SideToMove()
	moveNumber := s.oracle.FullMoveNumber()
	before := s.oracle.FEN()

	san, fen, err := s.oracle.Apply(c, promo)
	if err != nil {
		s.logger.Warn("duel_move_rejected", zap.String("game_id", s.gameID), zap.String("move", c.String()), zap.Error(err))
		return MoveResult{Kind: Rejected}
	}
	entry := history.MoveEntry{SAN: san, FEN: fen, WhiteMove: mover == position.White, Coordinates: c}
	if err := s.timeline.RecordMove(entry, moveNumber); err != nil {
		s.logger.Error("duel_move_record_failed", zap.String("game_id", s.gameID), zap.Error(err))
		return MoveResult{Kind: Rejected}
	}
	s.beforeLast = before
	s.displayed = fen
	arrow := c
	s.arrow = &arrow

	s.logger.Debug("duel_move",
		zap.String("game_id", s.gameID),
		zap.String("side", mover.String()),
		zap.String("san", san),
		zap.String("fen", fen),
	)
	s.listener.MoveCommitted(s.gameID, mover)

	return MoveResult{Kind: Committed, SAN: san, Termination: s.resolveTerminationLocked()}
}

func (s *Session) resolveTerminationLocked() *Termination {
	v := s.oracle.Classify()
	if !v.Terminal() {
		return nil
	}
	term := Termination{Cause: causeOf(v.Reason), Notify: true}
	switch v.Outcome {
	case rules.WhiteWon:
		term.Kind = history.WhiteWin
	case rules.BlackWon:
		term.Kind = history.BlackWin
	default:
		term.Kind = history.Draw
	}
	s.stopLocked(term)
	return &term
}

// ResolveTimeoutAdjudication ends the game after flagged ran out of time.
// The other side wins unless it has no queen, rook or pawn and at most one
// minor piece, in which case the game is drawn.
func (s *Session) ResolveTimeoutAdjudication(flagged position.Side) (Termination, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != InProgress {
		return Termination{}, false
	}
	winner := flagged.Other()
	term := Termination{Flagged: flagged, Notify: true}
	if insufficientToMate(s.oracle, winner) {
		term.Kind = history.Draw
		term.Cause = TimeoutInsufficientMaterial
	} else {
		term.Kind = history.WhiteWin
		if winner == position.Black {
			term.Kind = history.BlackWin
		}
		term.Cause = Timeout
	}
	s.stopLocked(term)
	return term, true
}

func insufficientToMate(o position.Inspector, side position.Side) bool {
	heavy := o.CountPieces(position.Queen, side) + o.CountPieces(position.Rook, side) + o.CountPieces(position.Pawn, side)
	if heavy > 0 {
		return false
	}
	return o.CountPieces(position.Bishop, side)+o.CountPieces(position.Knight, side) <= 1
}

// Abort stops the game in progress. Without a result the game is recorded
// as unterminated ("*").
func (s *Session) Abort(userRequested bool) (Termination, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != InProgress {
		return Termination{}, false
	}
	term := Termination{Kind: history.KindForTag(s.resultTag), Cause: Aborted, Notify: userRequested}
	s.stopLocked(term)
	return term, true
}

func (s *Session) stopLocked(term Termination) {
	if s.state != InProgress {
		return
	}
	if s.resultTag == "" {
		s.resultTag = term.ResultTag()
	}
	s.timeline.AppendTermination(history.KindForTag(s.resultTag))
	s.state = Finished
	s.players = [2]Player{NoPlayer, NoPlayer}
	s.pending = nil

	if idx, ok := s.timeline.LastMoveIndex(); ok {
		s.selectLocked(idx)
	}

	finished := s.now()
	s.record = &Record{
		GameID:      s.gameID,
		StartFEN:    s.startFEN,
		FinalFEN:    s.oracle.FEN(),
		StartedAt:   s.startedAt,
		FinishedAt:  finished,
		Nodes:       s.timeline.Nodes(),
		Moves:       s.timeline.Moves(),
		Result:      s.resultTag,
		Termination: term,
	}

	s.logger.Info("duel_game_stop",
		zap.String("game_id", s.gameID),
		zap.String("result", s.resultTag),
		zap.String("cause", term.Cause.String()),
		zap.Int("moves", s.timeline.MoveCount()),
		zap.Duration("elapsed", finished.Sub(s.startedAt)),
	)
	s.listener.GameStopped(s.gameID, term)
}
