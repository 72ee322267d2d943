package session

import (
	"errors"
	"time"

	"github.com/park285/cheese-duel/internal/history"
	"github.com/park285/cheese-duel/internal/position"
	"github.com/park285/cheese-duel/internal/rules"
)

var ErrInvalidState = errors.New("operation not valid in current session state")

// State of the session lifecycle.
type State int

const (
	Idle State = iota
	InProgress
	Finished
)

func (s State) String() string {
	switch s {
	case InProgress:
		return "in_progress"
	case Finished:
		return "finished"
	default:
		return "idle"
	}
}

// Player is who controls a side.
type Player int

const (
	NoPlayer Player = iota
	Human
)

// Cause distinguishes how a game stopped, for user-facing messages.
type Cause int

const (
	CauseNone Cause = iota
	Checkmate
	Stalemate
	ThreefoldRepetition
	InsufficientMaterial
	FiftyMoveRule
	Timeout
	TimeoutInsufficientMaterial
	Aborted
)

func (c Cause) String() string {
	switch c {
	case Checkmate:
		return "checkmate"
	case Stalemate:
		return "stalemate"
	case ThreefoldRepetition:
		return "threefold_repetition"
	case InsufficientMaterial:
		return "insufficient_material"
	case FiftyMoveRule:
		return "fifty_move_rule"
	case Timeout:
		return "timeout"
	case TimeoutInsufficientMaterial:
		return "timeout_insufficient_material"
	case Aborted:
		return "aborted"
	default:
		return "none"
	}
}

func causeOf(r rules.Reason) Cause {
	switch r {
	case rules.Checkmate:
		return Checkmate
	case rules.Stalemate:
		return Stalemate
	case rules.ThreefoldRepetition:
		return ThreefoldRepetition
	case rules.InsufficientMaterial:
		return InsufficientMaterial
	case rules.FiftyMoveRule:
		return FiftyMoveRule
	default:
		return CauseNone
	}
}

// Termination describes a stop. Flagged is meaningful only for the timeout causes.
type Termination struct {
	Kind    history.TerminationKind
	Cause   Cause
	Flagged position.Side
	Notify  bool
}

// ResultTag is the export result for the termination.
func (t Termination) ResultTag() string { return t.Kind.ResultTag() }

// MoveKind is the outcome class of a move submission.
type MoveKind int

const (
	Rejected MoveKind = iota
	Committed
	PromotionPending
)

func (k MoveKind) String() string {
	switch k {
	case Committed:
		return "committed"
	case PromotionPending:
		return "promotion_pending"
	default:
		return "rejected"
	}
}

// MoveResult is returned by SubmitMove and CommitPromotion. Termination is
// set when the committed move ended the game.
type MoveResult struct {
	Kind        MoveKind
	SAN         string
	Termination *Termination
}

// PendingPromotion is a pawn move waiting for its piece choice.
type PendingPromotion struct {
	Side  position.Side
	Start position.Square
	End   position.Square
}

// Coordinates returns the pending move.
func (p PendingPromotion) Coordinates() position.Coordinates {
	return position.CoordinatesOf(p.Start, p.End)
}

// Record is the export-ready copy of a finished game.
type Record struct {
	GameID      string
	StartFEN    string
	FinalFEN    string
	StartedAt   time.Time
	FinishedAt  time.Time
	Nodes       []history.Node
	Moves       []history.MoveEntry
	Result      string
	Termination Termination
}

// Oracle is the rules surface the session consumes.
type Oracle interface {
	position.Inspector
	IsLegal(c position.Coordinates) bool
	IsLegalPromotion(c position.Coordinates, kind position.PieceKind) bool
	Apply(c position.Coordinates, promo position.PieceKind) (san, fen string, err error)
	Classify() rules.Verdict
	FEN() string
	FullMoveNumber() int
}

// Loader builds an Oracle for exchange text.
type Loader func(fen string) (Oracle, error)

// RulesLoader is the default Loader backed by rules.Load.
func RulesLoader(fen string) (Oracle, error) {
	o, err := rules.Load(fen)
	if err != nil {
		return nil, err
	}
	return o, nil
}

// Listener receives lifecycle events. Calls happen with the session locked;
// implementations must not call back into the session synchronously.
type Listener interface {
	GameStarted(gameID string, toMove position.Side)
	MoveCommitted(gameID string, mover position.Side)
	GameStopped(gameID string, term Termination)
}

type nopListener struct{}

func (nopListener) GameStarted(string, position.Side)   {}
func (nopListener) MoveCommitted(string, position.Side) {}
func (nopListener) GameStopped(string, Termination)     {}
