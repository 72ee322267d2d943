// Package position parses and validates the board-state exchange text (FEN)
// used between the session, the rules oracle and the presentation layer.
package position

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

const (
	// StandardStart is the standard initial array.
	StandardStart = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"
	// EmptyStart holds only the two kings; it is shown while no game was ever started.
	EmptyStart = "4k3/8/8/8/8/8/8/4K3 w - - 0 1"

	fieldCount = 6
)

var (
	ErrMalformedExchangeText   = errors.New("malformed exchange text")
	ErrMalformedNumericField   = fmt.Errorf("%w: counters must be non-negative integers", ErrMalformedExchangeText)
	ErrIllegalStartingPosition = errors.New("illegal starting position")
	ErrOppositeKingInCheck     = fmt.Errorf("%w: side not to move is in check", ErrIllegalStartingPosition)
	ErrWrongKingsCount         = fmt.Errorf("%w: each side needs exactly one king", ErrIllegalStartingPosition)
)

// FieldCountError reports exchange text that does not split into six fields.
type FieldCountError struct {
	Count int
}

func (e *FieldCountError) Error() string {
	return fmt.Sprintf("%s: expected %d fields, got %d", ErrMalformedExchangeText, fieldCount, e.Count)
}

func (e *FieldCountError) Unwrap() error { return ErrMalformedExchangeText }

// Fields is the structural decomposition of exchange text.
type Fields struct {
	Placement string
	Side      string
	Castling  string
	EnPassant string
	HalfMove  int
	FullMove  int
}

// WhiteToMove reports whether the side-to-move field is "w".
func (f Fields) WhiteToMove() bool { return f.Side == "w" }

func (f Fields) String() string {
	return fmt.Sprintf("%s %s %s %s %d %d", f.Placement, f.Side, f.Castling, f.EnPassant, f.HalfMove, f.FullMove)
}

// Parse splits exchange text into its six fields.
func Parse(text string) (Fields, error) {
	parts := strings.Fields(strings.TrimSpace(text))
	if len(parts) != fieldCount {
		return Fields{}, &FieldCountError{Count: len(parts)}
	}
	half, err := strconv.Atoi(parts[4])
	if err != nil || half < 0 {
		return Fields{}, fmt.Errorf("half-move clock %q: %w", parts[4], ErrMalformedNumericField)
	}
	full, err := strconv.Atoi(parts[5])
	if err != nil || full < 0 {
		return Fields{}, fmt.Errorf("full-move number %q: %w", parts[5], ErrMalformedNumericField)
	}
	return Fields{
		Placement: parts[0],
		Side:      parts[1],
		Castling:  parts[2],
		EnPassant: parts[3],
		HalfMove:  half,
		FullMove:  full,
	}, nil
}

// IsWellFormed is the editor-side check used before accepting pasted text:
// six fields, eight ranks, a w|b side and numeric counters.
func IsWellFormed(text string) bool {
	f, err := Parse(text)
	if err != nil {
		return false
	}
	if len(strings.Split(f.Placement, "/")) != 8 {
		return false
	}
	return f.Side == "w" || f.Side == "b"
}

// Inspector answers the rule questions start validation needs about one position.
type Inspector interface {
	CountPieces(kind PieceKind, side Side) int
	InCheck(side Side) bool
	SideToMove() Side
}

// LoadFunc builds an Inspector for exchange text.
type LoadFunc func(text string) (Inspector, error)

// ValidateLegalStart checks that text can start a game: well-formed, the side
// not to move is not in check, and each side has exactly one king.
func ValidateLegalStart(text string, load LoadFunc) error {
	if _, err := Parse(text); err != nil {
		return err
	}
	if load == nil {
		return fmt.Errorf("%w: no rules loader", ErrMalformedExchangeText)
	}
	insp, err := load(text)
	if err != nil {
		if errors.Is(err, ErrMalformedExchangeText) {
			return err
		}
		return fmt.Errorf("%w: %v", ErrMalformedExchangeText, err)
	}
	if insp.InCheck(insp.SideToMove().Other()) {
		return ErrOppositeKingInCheck
	}
	if insp.CountPieces(King, White) != 1 || insp.CountPieces(King, Black) != 1 {
		return ErrWrongKingsCount
	}
	return nil
}

// EmptyCell marks an empty square in a Grid.
const EmptyCell = '.'

// Grid is an 8x8 rank-major board: row 0 is rank 8, column 0 is file a.
// Cells hold FEN piece letters or EmptyCell.
type Grid [8][8]byte

// At returns the cell for a square.
func (g Grid) At(sq Square) byte {
	if !sq.Valid() {
		return EmptyCell
	}
	return g[7-sq.Rank][sq.File]
}

// ToGrid expands the placement field of text into a Grid.
func ToGrid(text string) (Grid, error) {
	f, err := Parse(text)
	if err != nil {
		return Grid{}, err
	}
	var g Grid
	ranks := strings.Split(f.Placement, "/")
	if len(ranks) != 8 {
		return Grid{}, fmt.Errorf("%w: expected 8 ranks, got %d", ErrMalformedExchangeText, len(ranks))
	}
	for row, line := range ranks {
		col := 0
		for i := 0; i < len(line); i++ {
			c := line[i]
			if c >= '1' && c <= '8' {
				for n := 0; n < int(c-'0'); n++ {
					if col >= 8 {
						return Grid{}, fmt.Errorf("%w: rank %d overflows", ErrMalformedExchangeText, 8-row)
					}
					g[row][col] = EmptyCell
					col++
				}
				continue
			}
			if !strings.ContainsRune("kqrbnpKQRBNP", rune(c)) || col >= 8 {
				return Grid{}, fmt.Errorf("%w: bad placement at rank %d", ErrMalformedExchangeText, 8-row)
			}
			g[row][col] = c
			col++
		}
		if col != 8 {
			return Grid{}, fmt.Errorf("%w: rank %d has %d files", ErrMalformedExchangeText, 8-row, col)
		}
	}
	return g, nil
}

// PlacementFromGrid collapses a Grid back into a placement field.
func PlacementFromGrid(g Grid) string {
	var b strings.Builder
	for row := 0; row < 8; row++ {
		if row > 0 {
			b.WriteByte('/')
		}
		holes := 0
		for col := 0; col < 8; col++ {
			c := g[row][col]
			if c == EmptyCell || c == 0 {
				holes++
				continue
			}
			if holes > 0 {
				b.WriteByte(byte('0' + holes))
				holes = 0
			}
			b.WriteByte(c)
		}
		if holes > 0 {
			b.WriteByte(byte('0' + holes))
		}
	}
	return b.String()
}

// Castling holds the four castling rights toggled in the position editor.
type Castling struct {
	WhiteShort bool
	WhiteLong  bool
	BlackShort bool
	BlackLong  bool
}

func (c Castling) String() string {
	var s string
	if c.WhiteShort {
		s += "K"
	}
	if c.WhiteLong {
		s += "Q"
	}
	if c.BlackShort {
		s += "k"
	}
	if c.BlackLong {
		s += "q"
	}
	if s == "" {
		return "-"
	}
	return s
}

// Compose builds exchange text from position editor fields. enPassantFile is
// the zero-based file of the en-passant target, or -1 for none.
func Compose(g Grid, whiteToMove bool, castling Castling, enPassantFile, halfMove, fullMove int) string {
	side := "b"
	enPassantRank := 2
	if whiteToMove {
		side = "w"
		enPassantRank = 5
	}
	ep := "-"
	if enPassantFile >= 0 && enPassantFile < 8 {
		ep = Square{File: enPassantFile, Rank: enPassantRank}.String()
	}
	return Fields{
		Placement: PlacementFromGrid(g),
		Side:      side,
		Castling:  castling.String(),
		EnPassant: ep,
		HalfMove:  halfMove,
		FullMove:  fullMove,
	}.String()
}
