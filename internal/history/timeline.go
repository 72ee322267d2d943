// Package history keeps the ordered record of a game: move-number markers,
// committed moves and a final termination marker, with marker-skipping scans
// used for back/forward navigation.
package history

import (
	"errors"

	"github.com/park285/cheese-duel/internal/position"
)

var ErrFrozen = errors.New("timeline already terminated")

// TerminationKind is the coarse four-way result stored in the timeline.
type TerminationKind int

const (
	InProgress TerminationKind = iota
	WhiteWin
	BlackWin
	Draw
)

// ResultTag maps the termination kind to its export result tag.
func (k TerminationKind) ResultTag() string {
	switch k {
	case WhiteWin:
		return "1-0"
	case BlackWin:
		return "0-1"
	case Draw:
		return "1/2-1/2"
	default:
		return "*"
	}
}

func (k TerminationKind) String() string { return k.ResultTag() }

// KindForTag is the inverse of ResultTag; unknown tags map to InProgress.
func KindForTag(tag string) TerminationKind {
	switch tag {
	case "1-0":
		return WhiteWin
	case "0-1":
		return BlackWin
	case "1/2-1/2":
		return Draw
	default:
		return InProgress
	}
}

// Node is one timeline element.
type Node interface {
	isNode()
}

// MoveNumber marks the start of a full move.
type MoveNumber struct {
	Number      int
	WhiteToMove bool
}

// MoveEntry is one committed half-move.
type MoveEntry struct {
	SAN         string
	FEN         string
	WhiteMove   bool
	Coordinates position.Coordinates
}

// Termination closes the timeline.
type Termination struct {
	Kind TerminationKind
}

func (MoveNumber) isNode()  {}
func (MoveEntry) isNode()   {}
func (Termination) isNode() {}

// Direction of a navigation scan.
type Direction int

const (
	Backward Direction = -1
	Forward  Direction = 1
)

// Timeline is append-only. It is not safe for concurrent use; the session
// serializes access.
type Timeline struct {
	nodes      []Node
	moves      int
	terminated bool
}

// New creates a timeline holding the opening move-number marker.
func New(moveNumber int, whiteToMove bool) *Timeline {
	if moveNumber < 1 {
		moveNumber = 1
	}
	return &Timeline{
		nodes: []Node{MoveNumber{Number: moveNumber, WhiteToMove: whiteToMove}},
	}
}

// RecordMove appends a committed move. A white move that is not the first
// recorded move is preceded by a marker carrying moveNumber.
func (t *Timeline) RecordMove(entry MoveEntry, moveNumber int) error {
	if t.terminated {
		return ErrFrozen
	}
	if entry.WhiteMove && t.moves > 0 {
		t.nodes = append(t.nodes, MoveNumber{Number: moveNumber, WhiteToMove: true})
	}
	t.nodes = append(t.nodes, entry)
	t.moves++
	return nil
}

// AppendTermination closes the timeline. It reports false if it was already closed.
func (t *Timeline) AppendTermination(kind TerminationKind) bool {
	if t.terminated {
		return false
	}
	t.nodes = append(t.nodes, Termination{Kind: kind})
	t.terminated = true
	return true
}

// Nearest scans from `from` (exclusive) in dir and returns the first move
// entry index. A forward scan with from = -1 starts at index 0. The scan
// never wraps.
func (t *Timeline) Nearest(from int, dir Direction) (int, bool) {
	if dir != Backward && dir != Forward {
		return 0, false
	}
	for i := from + int(dir); i >= 0 && i < len(t.nodes); i += int(dir) {
		if _, ok := t.nodes[i].(MoveEntry); ok {
			return i, true
		}
	}
	return 0, false
}

// LastMoveIndex returns the index of the last move entry.
func (t *Timeline) LastMoveIndex() (int, bool) {
	return t.Nearest(len(t.nodes), Backward)
}

// MoveAt returns the move entry at index i.
func (t *Timeline) MoveAt(i int) (MoveEntry, bool) {
	if i < 0 || i >= len(t.nodes) {
		return MoveEntry{}, false
	}
	m, ok := t.nodes[i].(MoveEntry)
	return m, ok
}

// Len is the node count including markers.
func (t *Timeline) Len() int { return len(t.nodes) }

// MoveCount is the number of recorded move entries.
func (t *Timeline) MoveCount() int { return t.moves }

// Nodes returns a copy of all nodes.
func (t *Timeline) Nodes() []Node {
	out := make([]Node, len(t.nodes))
	copy(out, t.nodes)
	return out
}

// Moves returns the move entries in order.
func (t *Timeline) Moves() []MoveEntry {
	out := make([]MoveEntry, 0, t.moves)
	for _, n := range t.nodes {
		if m, ok := n.(MoveEntry); ok {
			out = append(out, m)
		}
	}
	return out
}
