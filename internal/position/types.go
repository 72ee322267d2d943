package position

import (
	"fmt"
	"strings"
)

// Side identifies a chess side.
type Side int

const (
	White Side = iota
	Black
)

// Other returns the opposing side.
func (s Side) Other() Side {
	if s == White {
		return Black
	}
	return White
}

func (s Side) String() string {
	if s == White {
		return "white"
	}
	return "black"
}

// PieceKind is a piece type independent of side.
type PieceKind int

const (
	King PieceKind = iota + 1
	Queen
	Rook
	Bishop
	Knight
	Pawn
)

func (k PieceKind) String() string {
	switch k {
	case King:
		return "king"
	case Queen:
		return "queen"
	case Rook:
		return "rook"
	case Bishop:
		return "bishop"
	case Knight:
		return "knight"
	case Pawn:
		return "pawn"
	default:
		return "none"
	}
}

// PromotionKinds lists the piece kinds a pawn may promote to.
var PromotionKinds = []PieceKind{Queen, Rook, Bishop, Knight}

// ParsePromotionKind accepts "q", "queen", "N" and similar.
func ParsePromotionKind(s string) (PieceKind, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "q", "queen":
		return Queen, true
	case "r", "rook":
		return Rook, true
	case "b", "bishop":
		return Bishop, true
	case "n", "knight":
		return Knight, true
	default:
		return 0, false
	}
}

// Square is a board cell with zero-based file (a=0) and rank (1=0).
type Square struct {
	File int
	Rank int
}

// Valid reports whether the square lies on the board.
func (s Square) Valid() bool {
	return s.File >= 0 && s.File < 8 && s.Rank >= 0 && s.Rank < 8
}

func (s Square) String() string {
	if !s.Valid() {
		return "-"
	}
	return fmt.Sprintf("%c%c", 'a'+s.File, '1'+s.Rank)
}

// ParseSquare parses "e4" style square names.
func ParseSquare(s string) (Square, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if len(s) != 2 {
		return Square{}, fmt.Errorf("invalid square %q", s)
	}
	sq := Square{File: int(s[0] - 'a'), Rank: int(s[1] - '1')}
	if !sq.Valid() {
		return Square{}, fmt.Errorf("invalid square %q", s)
	}
	return sq, nil
}

// Coordinates describe a move request as start and end squares.
type Coordinates struct {
	StartFile int
	StartRank int
	EndFile   int
	EndRank   int
}

// Start returns the origin square.
func (c Coordinates) Start() Square { return Square{File: c.StartFile, Rank: c.StartRank} }

// End returns the target square.
func (c Coordinates) End() Square { return Square{File: c.EndFile, Rank: c.EndRank} }

// Valid reports whether both squares are on the board.
func (c Coordinates) Valid() bool { return c.Start().Valid() && c.End().Valid() }

// String renders the coordinates in UCI form without promotion suffix ("e2e4").
func (c Coordinates) String() string { return c.Start().String() + c.End().String() }

// CoordinatesOf builds Coordinates from two squares.
func CoordinatesOf(start, end Square) Coordinates {
	return Coordinates{StartFile: start.File, StartRank: start.Rank, EndFile: end.File, EndRank: end.Rank}
}

// ParseCoordinates parses UCI-style move text such as "e2e4" or "e7e8q".
// A trailing promotion letter is ignored; use ParsePromotionKind on it separately.
func ParseCoordinates(s string) (Coordinates, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if len(s) < 4 {
		return Coordinates{}, fmt.Errorf("not a coordinate move: %q", s)
	}
	start, err := ParseSquare(s[0:2])
	if err != nil {
		return Coordinates{}, err
	}
	end, err := ParseSquare(s[2:4])
	if err != nil {
		return Coordinates{}, err
	}
	return CoordinatesOf(start, end), nil
}
