// Package duelview holds the plain data the presentation layer renders: the
// board grid, history items, clock faces and the pending promotion.
package duelview

type ClockView struct {
	White   string
	Black   string
	Active  string
	Running bool
	Flagged bool
}

// HistoryItem is one timeline node. Kind is "move_number", "move" or "termination".
type HistoryItem struct {
	Index    int
	Kind     string
	Text     string
	White    bool
	Selected bool
}

type PromotionView struct {
	Side string
	From string
	To   string
}

type MaterialScore struct {
	White int
	Black int
}

// Diff is white minus black.
func (m MaterialScore) Diff() int { return m.White - m.Black }

// View is a snapshot of the match for rendering. Board row 0 is rank 8 and
// holds FEN piece letters or '.'.
type View struct {
	GameID    string
	State     string
	FEN       string
	Board     [8]string
	ToMove    string
	Arrow     string
	History   []HistoryItem
	Cursor    int
	Pending   *PromotionView
	Clock     *ClockView
	Result    string
	Material  MaterialScore
	Navigable bool
}

var pieceValues = map[byte]int{'Q': 9, 'R': 5, 'B': 3, 'N': 3, 'P': 1}

// ComputeMaterial sums standard piece values per side from board rows.
func ComputeMaterial(board [8]string) MaterialScore {
	var m MaterialScore
	for _, row := range board {
		for i := 0; i < len(row); i++ {
			c := row[i]
			switch {
			case c >= 'A' && c <= 'Z':
				m.White += pieceValues[c]
			case c >= 'a' && c <= 'z':
				m.Black += pieceValues[c-'a'+'A']
			}
		}
	}
	return m
}
