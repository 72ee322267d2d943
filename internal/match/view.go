package match

import (
	"errors"
	"strconv"

	"github.com/park285/cheese-duel/internal/history"
	"github.com/park285/cheese-duel/internal/pgnexport"
	"github.com/park285/cheese-duel/internal/position"
	"github.com/park285/cheese-duel/internal/rules"
	"github.com/park285/cheese-duel/internal/session"
	"github.com/park285/cheese-duel/pkg/duelview"
)

// View snapshots the match for rendering.
func (m *Match) View() duelview.View {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := m.session
	grid := s.Pieces()
	v := duelview.View{
		GameID:    s.GameID(),
		State:     s.State().String(),
		FEN:       s.DisplayedFEN(),
		ToMove:    sideToMove(s).String(),
		Result:    s.ResultTag(),
		Cursor:    -1,
		Navigable: !s.InProgress() && s.State() != session.Idle,
	}
	for row := 0; row < 8; row++ {
		v.Board[row] = string(grid[row][:])
	}
	v.Material = duelview.ComputeMaterial(v.Board)

	if a, ok := s.LastMoveArrow(); ok {
		v.Arrow = a.String()
	}
	cursor, hasCursor := s.Cursor()
	if hasCursor {
		v.Cursor = cursor
	}
	for i, n := range s.History() {
		item := duelview.HistoryItem{Index: i, Selected: hasCursor && i == cursor}
		switch node := n.(type) {
		case history.MoveNumber:
			item.Kind = "move_number"
			item.White = node.WhiteToMove
			item.Text = strconv.Itoa(node.Number) + "."
			if !node.WhiteToMove {
				item.Text = strconv.Itoa(node.Number) + "..."
			}
		case history.MoveEntry:
			item.Kind = "move"
			item.White = node.WhiteMove
			item.Text = node.SAN
		case history.Termination:
			item.Kind = "termination"
			item.Text = node.Kind.ResultTag()
		}
		v.History = append(v.History, item)
	}
	if p := s.Pending(); p != nil {
		v.Pending = &duelview.PromotionView{Side: p.Side.String(), From: p.Start.String(), To: p.End.String()}
	}
	if m.clockOn {
		snap := m.clock.Snapshot()
		v.Clock = &duelview.ClockView{
			White:   snap.White.String(),
			Black:   snap.Black.String(),
			Active:  snap.Active.String(),
			Running: snap.Running && !snap.Flagged,
			Flagged: snap.Flagged,
		}
	}
	return v
}

// DomainError maps an error from a match operation for the UI.
func (m *Match) DomainError(err error) duelview.DomainError {
	if err == nil {
		return duelview.DomainError{}
	}
	var code string
	switch {
	case errors.Is(err, position.ErrMalformedExchangeText):
		code = duelview.CodeMalformedPosition
	case errors.Is(err, position.ErrIllegalStartingPosition):
		code = duelview.CodeIllegalStart
	case errors.Is(err, rules.ErrIllegalMove):
		code = duelview.CodeIllegalMove
	case errors.Is(err, session.ErrInvalidState), errors.Is(err, ErrNoFinishedGame):
		code = duelview.CodeInvalidState
	case errors.Is(err, pgnexport.ErrExportFailure):
		code = duelview.CodeExportFailure
	default:
		code = duelview.CodeInternal
	}
	return duelview.DomainError{Code: code, Message: err.Error()}
}
