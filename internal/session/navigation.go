package session

import (
	"github.com/park285/cheese-duel/internal/history"
	"github.com/park285/cheese-duel/internal/position"
)

func (s *Session) navigable() bool {
	return s.state != InProgress && s.timeline != nil
}

func (s *Session) selectLocked(idx int) {
	entry, ok := s.timeline.MoveAt(idx)
	if !ok {
		return
	}
	s.cursor = idx
	s.displayed = entry.FEN
	arrow := entry.Coordinates
	s.arrow = &arrow
}

func (s *Session) resetToStartLocked() {
	s.cursor = -1
	s.arrow = nil
	s.displayed = s.startFEN
}

// RequestPosition shows fen with an optional arrow at nodeIndex without
// touching the timeline. It is rejected while a game is in progress or when
// nodeIndex is not a move.
func (s *Session) RequestPosition(fen string, arrow *position.Coordinates, nodeIndex int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.navigable() {
		return false
	}
	if _, ok := s.timeline.MoveAt(nodeIndex); !ok {
		return false
	}
	s.cursor = nodeIndex
	s.displayed = fen
	s.arrow = nil
	if arrow != nil {
		a := *arrow
		s.arrow = &a
	}
	return true
}

// Select jumps to the move at nodeIndex using its recorded position and arrow.
func (s *Session) Select(nodeIndex int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.navigable() {
		return false
	}
	if _, ok := s.timeline.MoveAt(nodeIndex); !ok {
		return false
	}
	s.selectLocked(nodeIndex)
	return true
}

func (s *Session) stepBackLocked() bool {
	if !s.navigable() || s.cursor < 0 {
		return false
	}
	idx, ok := s.timeline.Nearest(s.cursor, history.Backward)
	if !ok {
		s.resetToStartLocked()
		return true
	}
	s.selectLocked(idx)
	return true
}

func (s *Session) stepForwardLocked() bool {
	if !s.navigable() {
		return false
	}
	idx, ok := s.timeline.Nearest(s.cursor, history.Forward)
	if !ok {
		return false
	}
	s.selectLocked(idx)
	return true
}

// StepBack moves the cursor to the previous move, or to the start position
// from the first move.
func (s *Session) StepBack() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stepBackLocked()
}

// StepForward moves the cursor to the next move.
func (s *Session) StepForward() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stepForwardLocked()
}

// GoToStart steps back until no earlier position exists.
func (s *Session) GoToStart() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	moved := false
	for s.stepBackLocked() {
		moved = true
	}
	return moved
}

// GoToEnd steps forward until the last move.
func (s *Session) GoToEnd() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	moved := false
	for s.stepForwardLocked() {
		moved = true
	}
	return moved
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) InProgress() bool { return s.State() == InProgress }

func (s *Session) GameID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gameID
}

// DisplayedFEN is the position currently shown, live or navigated.
func (s *Session) DisplayedFEN() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.displayed
}

// Pieces expands the displayed position into a grid.
func (s *Session) Pieces() position.Grid {
	g, err := position.ToGrid(s.DisplayedFEN())
	if err != nil {
		g, _ = position.ToGrid(position.EmptyStart)
	}
	return g
}

// WhiteToMove reports the side to move in the displayed position.
func (s *Session) WhiteToMove() bool {
	f, err := position.Parse(s.DisplayedFEN())
	return err == nil && f.WhiteToMove()
}

// LastMoveArrow is the arrow for the displayed move, if any.
func (s *Session) LastMoveArrow() (position.Coordinates, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.arrow == nil {
		return position.Coordinates{}, false
	}
	return *s.arrow, true
}

// Pending returns the pending promotion, or nil.
func (s *Session) Pending() *PendingPromotion {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pending == nil {
		return nil
	}
	p := *s.pending
	return &p
}

// History returns a copy of the timeline nodes.
func (s *Session) History() []history.Node {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.timeline == nil {
		return nil
	}
	return s.timeline.Nodes()
}

// Cursor is the selected node index, if any.
func (s *Session) Cursor() (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cursor, s.cursor >= 0
}

func (s *Session) Players() [2]Player {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.players
}

func (s *Session) StartFEN() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.startFEN
}

func (s *Session) PositionBeforeLastMove() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.beforeLast
}

func (s *Session) ResultTag() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.resultTag
}

// Finished returns the export-ready copy of the last finished game.
func (s *Session) Finished() (*Record, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.record == nil {
		return nil, false
	}
	rec := *s.record
	return &rec, true
}
