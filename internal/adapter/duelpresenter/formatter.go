package duelpresenter

import (
	"fmt"
	"strings"
	"time"

	"github.com/park285/cheese-duel/internal/archive"
	"github.com/park285/cheese-duel/pkg/duelview"
)

const historyPerLine = 6

// Formatter renders duel views into terminal text blocks.
type Formatter struct {
	// Flip draws the board from black's side.
	Flip bool
}

func NewFormatter() *Formatter { return &Formatter{} }

// Board draws the grid with rank and file labels. The squares of the
// displayed move arrow are bracketed.
func (f *Formatter) Board(v duelview.View) string {
	from, to := arrowSquares(v.Arrow)
	var sb strings.Builder
	for i := 0; i < 8; i++ {
		row := i
		if f != nil && f.Flip {
			row = 7 - i
		}
		rank := 8 - row
		sb.WriteString(fmt.Sprintf("%d ", rank))
		line := v.Board[row]
		for j := 0; j < 8; j++ {
			col := j
			if f != nil && f.Flip {
				col = 7 - j
			}
			cell := byte('.')
			if col < len(line) {
				cell = line[col]
			}
			sq := fmt.Sprintf("%c%d", 'a'+col, rank)
			if sq == from || sq == to {
				sb.WriteString("[" + string(cell) + "]")
			} else {
				sb.WriteString(" " + string(cell) + " ")
			}
		}
		sb.WriteString("\n")
	}
	files := "abcdefgh"
	if f != nil && f.Flip {
		files = "hgfedcba"
	}
	sb.WriteString("  ")
	for _, c := range files {
		sb.WriteString(" " + string(c) + " ")
	}
	sb.WriteString("\n")
	return sb.String()
}

func arrowSquares(arrow string) (string, string) {
	if len(arrow) != 4 {
		return "", ""
	}
	return arrow[:2], arrow[2:]
}

// Status is the one-line summary under the board.
func (f *Formatter) Status(v duelview.View) string {
	var parts []string
	switch v.State {
	case "in_progress":
		parts = append(parts, fmt.Sprintf("%s to move", v.ToMove))
	case "finished":
		parts = append(parts, "result "+v.Result)
	default:
		parts = append(parts, "no game")
	}
	if diff := v.Material.Diff(); diff > 0 {
		parts = append(parts, fmt.Sprintf("material +%d white", diff))
	} else if diff < 0 {
		parts = append(parts, fmt.Sprintf("material +%d black", -diff))
	}
	if p := v.Pending; p != nil {
		parts = append(parts, fmt.Sprintf("promotion pending %s%s", p.From, p.To))
	}
	return strings.Join(parts, " | ")
}

// Clock renders both faces and marks the running side.
func (f *Formatter) Clock(c *duelview.ClockView) string {
	if c == nil {
		return ""
	}
	mark := func(side string) string {
		switch {
		case c.Running && c.Active == side:
			return "*"
		case c.Flagged && c.Active == side:
			return "!"
		default:
			return " "
		}
	}
	return fmt.Sprintf("white %s%s   black %s%s", c.White, mark("white"), c.Black, mark("black"))
}

// History lists the timeline, wrapping every few moves. The selected move
// is bracketed.
func (f *Formatter) History(items []duelview.HistoryItem) string {
	if len(items) == 0 {
		return ""
	}
	var sb strings.Builder
	moves := 0
	for _, it := range items {
		if it.Kind == "move_number" && it.White && moves >= historyPerLine {
			sb.WriteString("\n")
			moves = 0
		} else if sb.Len() > 0 {
			sb.WriteString(" ")
		}
		text := it.Text
		if it.Selected {
			text = "[" + text + "]"
		}
		if it.Kind == "move" {
			moves++
			text = fmt.Sprintf("%s(%d)", text, it.Index)
		}
		sb.WriteString(text)
	}
	return sb.String()
}

// Full combines board, status, clock and history.
func (f *Formatter) Full(v duelview.View) string {
	var sb strings.Builder
	sb.WriteString(f.Board(v))
	sb.WriteString(f.Status(v))
	sb.WriteString("\n")
	if c := f.Clock(v.Clock); c != "" {
		sb.WriteString(c)
		sb.WriteString("\n")
	}
	if h := f.History(v.History); h != "" {
		sb.WriteString(h)
		sb.WriteString("\n")
	}
	return sb.String()
}

// Recent lists archived games, newest first.
func (f *Formatter) Recent(games []archive.Game) string {
	if len(games) == 0 {
		return "no archived games"
	}
	var sb strings.Builder
	for i, g := range games {
		if i > 0 {
			sb.WriteString("\n")
		}
		id := g.GameID
		if len(id) > 8 {
			id = id[:8]
		}
		sb.WriteString(fmt.Sprintf("%s  %s  %-7s %-28s %d moves",
			g.EndedAt.Local().Format(time.DateTime), id, g.Result, g.Cause, len(g.MovesSAN)))
	}
	return sb.String()
}
