// Package rules adapts github.com/corentings/chess/v2 into the rules oracle
// consumed by the session: legality, application, notation, termination
// classification and material queries.
package rules

import (
	"errors"
	"fmt"
	"strings"

	nchess "github.com/corentings/chess/v2"
	"github.com/park285/cheese-duel/internal/position"
)

var ErrIllegalMove = errors.New("illegal chess move")

// Outcome is the coarse result of a classification.
type Outcome int

const (
	Ongoing Outcome = iota
	WhiteWon
	BlackWon
	Drawn
)

// Reason says how a terminal outcome was reached.
type Reason int

const (
	NoReason Reason = iota
	Checkmate
	Stalemate
	ThreefoldRepetition
	InsufficientMaterial
	FiftyMoveRule
)

func (r Reason) String() string {
	switch r {
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
	default:
		return "none"
	}
}

// Verdict is the oracle's termination classification.
type Verdict struct {
	Outcome Outcome
	Reason  Reason
}

// Terminal reports whether the verdict ends the game.
func (v Verdict) Terminal() bool { return v.Outcome != Ongoing }

// Oracle wraps one live corentings game. It is not safe for concurrent use.
type Oracle struct {
	game *nchess.Game
}

// Load builds an oracle from exchange text.
func Load(fen string) (*Oracle, error) {
	opt, err := nchess.FEN(strings.TrimSpace(fen))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", position.ErrMalformedExchangeText, err)
	}
	return &Oracle{game: nchess.NewGame(opt)}, nil
}

// Inspect is a position.LoadFunc backed by Load.
func Inspect(fen string) (position.Inspector, error) {
	o, err := Load(fen)
	if err != nil {
		return nil, err
	}
	return o, nil
}

// FEN returns the exchange text of the current position.
func (o *Oracle) FEN() string { return o.game.FEN() }

// SideToMove returns whose turn it is.
func (o *Oracle) SideToMove() position.Side {
	if o.game.Position().Turn() == nchess.White {
		return position.White
	}
	return position.Black
}

// FullMoveNumber is the full-move counter of the current position.
func (o *Oracle) FullMoveNumber() int {
	f, err := position.Parse(o.game.FEN())
	if err != nil || f.FullMove == 0 {
		return 1
	}
	return f.FullMove
}

// IsLegal reports whether the plain (non-promoting) move is legal.
func (o *Oracle) IsLegal(c position.Coordinates) bool {
	_, ok := o.find(c, 0)
	return ok
}

// IsLegalPromotion reports whether the move is legal when promoting to kind.
func (o *Oracle) IsLegalPromotion(c position.Coordinates, kind position.PieceKind) bool {
	if kind == 0 {
		return false
	}
	_, ok := o.find(c, kind)
	return ok
}

// Notate renders the SAN of a legal move without applying it.
func (o *Oracle) Notate(c position.Coordinates, promo position.PieceKind) (string, error) {
	mv, ok := o.find(c, promo)
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrIllegalMove, c)
	}
	return nchess.AlgebraicNotation{}.Encode(o.game.Position(), mv), nil
}

// Apply plays a legal move and returns its SAN and the resulting exchange text.
// promo is zero for non-promoting moves.
func (o *Oracle) Apply(c position.Coordinates, promo position.PieceKind) (string, string, error) {
	mv, ok := o.find(c, promo)
	if !ok {
		return "", "", fmt.Errorf("%w: %s", ErrIllegalMove, c)
	}
	san := nchess.AlgebraicNotation{}.Encode(o.game.Position(), mv)
	if err := o.game.Move(mv, nil); err != nil {
		return "", "", fmt.Errorf("%w: %v", ErrIllegalMove, err)
	}
	return san, o.game.FEN(), nil
}

// Classify reports whether the current position ends the game. Threefold
// repetition and the fifty-move rule are claimable in the library; they are
// claimed here so that they end the game automatically.
func (o *Oracle) Classify() Verdict {
	if v, ok := verdictFrom(o.game.Outcome(), o.game.Method()); ok {
		return v
	}
	for _, m := range o.game.EligibleDraws() {
		if m != nchess.ThreefoldRepetition {
			continue
		}
		if err := o.game.Draw(m); err == nil {
			return Verdict{Outcome: Drawn, Reason: ThreefoldRepetition}
		}
	}
	for _, m := range o.game.EligibleDraws() {
		if m != nchess.FiftyMoveRule {
			continue
		}
		if err := o.game.Draw(m); err == nil {
			return Verdict{Outcome: Drawn, Reason: FiftyMoveRule}
		}
	}
	return Verdict{Outcome: Ongoing}
}

func verdictFrom(outcome nchess.Outcome, method nchess.Method) (Verdict, bool) {
	switch outcome {
	case nchess.WhiteWon:
		return Verdict{Outcome: WhiteWon, Reason: Checkmate}, true
	case nchess.BlackWon:
		return Verdict{Outcome: BlackWon, Reason: Checkmate}, true
	case nchess.Draw:
		switch method {
		case nchess.Stalemate:
			return Verdict{Outcome: Drawn, Reason: Stalemate}, true
		case nchess.InsufficientMaterial:
			return Verdict{Outcome: Drawn, Reason: InsufficientMaterial}, true
		case nchess.ThreefoldRepetition, nchess.FivefoldRepetition:
			return Verdict{Outcome: Drawn, Reason: ThreefoldRepetition}, true
		case nchess.FiftyMoveRule, nchess.SeventyFiveMoveRule:
			return Verdict{Outcome: Drawn, Reason: FiftyMoveRule}, true
		}
		return Verdict{Outcome: Drawn, Reason: NoReason}, true
	}
	return Verdict{}, false
}

// CountPieces counts pieces of a kind and side on the current board.
func (o *Oracle) CountPieces(kind position.PieceKind, side position.Side) int {
	board := o.game.Position().Board()
	want := pieceType(kind)
	color := colorOf(side)
	n := 0
	for file := nchess.FileA; file <= nchess.FileH; file++ {
		for rank := nchess.Rank1; rank <= nchess.Rank8; rank++ {
			p := board.Piece(nchess.NewSquare(file, rank))
			if p == nchess.NoPiece {
				continue
			}
			if p.Type() == want && p.Color() == color {
				n++
			}
		}
	}
	return n
}

// InCheck reports whether side's king is attacked, regardless of whose turn it is.
func (o *Oracle) InCheck(side position.Side) bool {
	return kingAttacked(o.game.Position().Board(), colorOf(side))
}

func (o *Oracle) find(c position.Coordinates, promo position.PieceKind) (*nchess.Move, bool) {
	if !c.Valid() {
		return nil, false
	}
	s1 := squareOf(c.Start())
	s2 := squareOf(c.End())
	want := nchess.NoPieceType
	if promo != 0 {
		want = pieceType(promo)
	}
	moves := o.game.ValidMoves()
	for i := range moves {
		mv := moves[i]
		if mv.S1() == s1 && mv.S2() == s2 && mv.Promo() == want {
			return &mv, true
		}
	}
	return nil, false
}

func squareOf(sq position.Square) nchess.Square {
	return nchess.NewSquare(nchess.File(sq.File), nchess.Rank(sq.Rank))
}

func colorOf(side position.Side) nchess.Color {
	if side == position.White {
		return nchess.White
	}
	return nchess.Black
}

func pieceType(kind position.PieceKind) nchess.PieceType {
	switch kind {
	case position.King:
		return nchess.King
	case position.Queen:
		return nchess.Queen
	case position.Rook:
		return nchess.Rook
	case position.Bishop:
		return nchess.Bishop
	case position.Knight:
		return nchess.Knight
	case position.Pawn:
		return nchess.Pawn
	default:
		return nchess.NoPieceType
	}
}
