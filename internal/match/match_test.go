package match

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/park285/cheese-duel/internal/clock"
	"github.com/park285/cheese-duel/internal/msgcat"
	"github.com/park285/cheese-duel/internal/pgnexport"
	"github.com/park285/cheese-duel/internal/position"
	"github.com/park285/cheese-duel/internal/prefs"
	"github.com/park285/cheese-duel/internal/session"
	"github.com/park285/cheese-duel/pkg/duelview"
	"github.com/stretchr/testify/require"
)

type noticeLog struct {
	mu    sync.Mutex
	items []Notice
}

func (l *noticeLog) add(n Notice) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.items = append(l.items, n)
}

func (l *noticeLog) keys() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]string, 0, len(l.items))
	for _, n := range l.items {
		out = append(out, n.Key)
	}
	return out
}

func (l *noticeLog) last() Notice {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.items) == 0 {
		return Notice{}
	}
	return l.items[len(l.items)-1]
}

type archiveStub struct {
	mu    sync.Mutex
	saved map[string]string
}

func (a *archiveStub) SaveResult(_ context.Context, rec *session.Record, pgn string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.saved == nil {
		a.saved = make(map[string]string)
	}
	a.saved[rec.GameID] = pgn
	return nil
}

func (a *archiveStub) count() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.saved)
}

func newMatch(t *testing.T, d Deps) (*Match, *noticeLog) {
	t.Helper()
	cat, err := msgcat.New("")
	require.NoError(t, err)
	log := &noticeLog{}
	d.Catalog = cat
	d.OnNotice = log.add
	m := New(d)
	t.Cleanup(func() { m.Abort(context.Background(), false) })
	return m, log
}

func mv(t *testing.T, s string) position.Coordinates {
	t.Helper()
	c, err := position.ParseCoordinates(s)
	require.NoError(t, err)
	return c
}

func TestNewGameAndMoveCreditsIncrement(t *testing.T) {
	cfg := &clock.Config{WhiteBase: clock.FromHMS(0, 1, 0), WhiteIncrement: clock.FromHMS(0, 0, 2)}
	m, log := newMatch(t, Deps{Clock: cfg, ClockInterval: time.Hour})

	require.NoError(t, m.NewGame(position.StandardStart, nil))
	require.Equal(t, []string{"notice.game.started"}, log.keys())
	require.Equal(t, "New game started. White to move.", log.last().Text)

	res := m.Play(context.Background(), mv(t, "e2e4"))
	require.Equal(t, session.Committed, res.Kind)
	require.Equal(t, "e4", res.SAN)

	snap := m.Clock().Snapshot()
	require.Equal(t, clock.Deciseconds(640), snap.White)
	require.Equal(t, clock.Deciseconds(620), snap.Black)
	require.Equal(t, position.Black, snap.Active)

	v := m.View()
	require.Equal(t, "in_progress", v.State)
	require.Equal(t, "black", v.ToMove)
	require.Equal(t, "e2e4", v.Arrow)
	require.NotNil(t, v.Clock)
	require.Equal(t, "01:04.0", v.Clock.White)
	require.False(t, v.Navigable)
}

func TestNewGameRejectedWhileInProgress(t *testing.T) {
	m, log := newMatch(t, Deps{})
	require.NoError(t, m.NewGame(position.StandardStart, nil))
	err := m.NewGame(position.StandardStart, nil)
	require.ErrorIs(t, err, session.ErrInvalidState)
	require.Equal(t, "notice.start.in_progress", log.last().Key)
	require.Equal(t, duelview.CodeInvalidState, m.DomainError(err).Code)
}

func TestNewGameInvalidStart(t *testing.T) {
	m, log := newMatch(t, Deps{})
	err := m.NewGame("4k3/8/8/8/8/8/8/4R1K1 w - - 0 1", nil)
	require.ErrorIs(t, err, position.ErrIllegalStartingPosition)
	require.Equal(t, "notice.start.invalid", log.last().Key)
	require.Equal(t, duelview.CodeIllegalStart, m.DomainError(err).Code)

	err = m.NewGame("not a position", nil)
	require.Error(t, err)
	require.Equal(t, duelview.CodeMalformedPosition, m.DomainError(err).Code)
}

func TestRejectedMoveNotice(t *testing.T) {
	m, log := newMatch(t, Deps{})
	require.NoError(t, m.NewGame(position.StandardStart, nil))
	res := m.Play(context.Background(), mv(t, "e2e5"))
	require.Equal(t, session.Rejected, res.Kind)
	require.Equal(t, "Illegal move: e2e5", log.last().Text)
}

func TestPromotionFlow(t *testing.T) {
	m, log := newMatch(t, Deps{})
	require.NoError(t, m.NewGame("8/4P3/8/8/8/8/k7/4K3 w - - 0 1", nil))

	res := m.Play(context.Background(), mv(t, "e7e8"))
	require.Equal(t, session.PromotionPending, res.Kind)
	require.Equal(t, "notice.promotion.pending", log.last().Key)
	v := m.View()
	require.NotNil(t, v.Pending)
	require.Equal(t, "e7", v.Pending.From)

	require.True(t, m.CancelPromotion())
	require.Nil(t, m.View().Pending)

	m.Play(context.Background(), mv(t, "e7e8"))
	res = m.Promote(context.Background(), position.Rook)
	require.Equal(t, session.Committed, res.Kind)
	require.Equal(t, "e8=R", res.SAN)
}

func TestPromoteWithoutPendingPromotion(t *testing.T) {
	m, log := newMatch(t, Deps{})
	require.NoError(t, m.NewGame(position.StandardStart, nil))

	res := m.Promote(context.Background(), position.Queen)
	require.Equal(t, session.Rejected, res.Kind)
	n := log.last()
	require.Equal(t, "notice.promotion.none", n.Key)
	require.Equal(t, "There is no promotion to complete.", n.Text)
	require.True(t, m.Session().InProgress())
}

func TestStalemateStartFinishesAndArchives(t *testing.T) {
	store := &archiveStub{}
	m, log := newMatch(t, Deps{Archive: store})
	require.NoError(t, m.NewGame("k7/8/1Q6/8/8/8/8/7K b - - 0 1", nil))

	keys := log.keys()
	require.Equal(t, []string{"notice.game.started", "notice.draw.stalemate"}, keys[len(keys)-2:])
	require.Equal(t, 1, store.count())
	v := m.View()
	require.Equal(t, "finished", v.State)
	require.Equal(t, "1/2-1/2", v.Result)
	require.False(t, m.Clock().Running())
}

func playFoolsMate(t *testing.T, m *Match) session.MoveResult {
	t.Helper()
	var res session.MoveResult
	for _, s := range []string{"f2f3", "e7e5", "g2g4", "d8h4"} {
		res = m.Play(context.Background(), mv(t, s))
		require.Equal(t, session.Committed, res.Kind, s)
	}
	return res
}

func TestCheckmateAnnouncedAndArchived(t *testing.T) {
	store := &archiveStub{}
	m, log := newMatch(t, Deps{Archive: store})
	require.NoError(t, m.NewGame(position.StandardStart, nil))

	res := playFoolsMate(t, m)
	require.NotNil(t, res.Termination)
	require.Equal(t, "Checkmate! Black wins.", log.last().Text)
	require.Equal(t, 1, store.count())

	v := m.View()
	require.Equal(t, "finished", v.State)
	require.Equal(t, "0-1", v.Result)
	require.True(t, v.Navigable)
	last := v.History[len(v.History)-1]
	require.Equal(t, "termination", last.Kind)
	require.Equal(t, "0-1", last.Text)
}

func TestNavigation(t *testing.T) {
	m, log := newMatch(t, Deps{})
	require.NoError(t, m.NewGame(position.StandardStart, nil))
	m.Play(context.Background(), mv(t, "e2e4"))

	require.False(t, m.Back())
	require.Equal(t, "notice.navigation.in_progress", log.last().Key)

	require.True(t, m.Abort(context.Background(), true))
	require.Equal(t, "notice.aborted", log.last().Key)
	require.Equal(t, "*", m.View().Result)

	require.True(t, m.Back())
	require.Equal(t, position.StandardStart, m.View().FEN)
	require.False(t, m.Back())
	require.True(t, m.Last())
	require.Equal(t, "e2e4", m.View().Arrow)
	require.True(t, m.First())
	require.True(t, m.Forward())

	v := m.View()
	require.True(t, m.Jump(v.Cursor))
	require.False(t, m.Jump(0))
}

func TestFlagTimeoutWin(t *testing.T) {
	store := &archiveStub{}
	cfg := &clock.Config{WhiteBase: 3, BlackBase: 3}
	m, log := newMatch(t, Deps{Clock: cfg, ClockInterval: time.Millisecond, Archive: store})
	require.NoError(t, m.NewGame(position.StandardStart, nil))

	require.Eventually(t, func() bool { return log.last().Key == "notice.timeout.black_wins" }, 2*time.Second, 5*time.Millisecond)
	m.View() // waits for the flag handler to finish archiving
	require.Equal(t, "0-1", m.Session().ResultTag())
	require.Equal(t, 1, store.count())
	require.False(t, m.Clock().Running())
}

func TestFlagTimeoutDrawWithoutMatingMaterial(t *testing.T) {
	cfg := &clock.Config{WhiteBase: 3, BlackBase: 3}
	m, log := newMatch(t, Deps{Clock: cfg, ClockInterval: time.Millisecond})
	require.NoError(t, m.NewGame("4k3/8/8/8/8/8/P2n4/4K3 w - - 0 1", nil))

	require.Eventually(t, func() bool { return log.last().Key == "notice.timeout.draw_insufficient" }, 2*time.Second, 5*time.Millisecond)
	n := log.last()
	require.True(t, strings.HasPrefix(n.Text, "White ran out of time, but Black"))
	require.Equal(t, "1/2-1/2", m.Session().ResultTag())
}

func TestStaleFlagIgnored(t *testing.T) {
	m, _ := newMatch(t, Deps{})
	require.NoError(t, m.NewGame(position.StandardStart, nil))
	m.onFlag("some-other-game")(position.White)
	require.True(t, m.Session().InProgress())
}

func TestUntimedGameHasNoClock(t *testing.T) {
	m, _ := newMatch(t, Deps{})
	require.NoError(t, m.NewGame(position.StandardStart, nil))
	require.False(t, m.ClockEnabled())
	require.Nil(t, m.View().Clock)
	require.False(t, m.Clock().Running())
}

func TestExport(t *testing.T) {
	dir := t.TempDir()
	store := prefs.NewMemoryStore()
	arch := &archiveStub{}
	m, log := newMatch(t, Deps{Prefs: store, Archive: arch, Tags: pgnexport.Tags{Event: "Club night"}})

	_, err := m.Export(context.Background(), "", pgnexport.Tags{})
	require.ErrorIs(t, err, ErrNoFinishedGame)
	require.Equal(t, "notice.export.none", log.last().Key)

	require.NoError(t, m.NewGame(position.StandardStart, nil))
	_, err = m.Export(context.Background(), dir, pgnexport.Tags{})
	require.ErrorIs(t, err, session.ErrInvalidState)

	playFoolsMate(t, m)
	path, err := m.Export(context.Background(), dir, pgnexport.Tags{White: "Ana"})
	require.NoError(t, err)
	require.Equal(t, dir, filepath.Dir(path))
	require.Equal(t, "notice.export.done", log.last().Key)

	body, err := os.ReadFile(path)
	require.NoError(t, err)
	text := string(body)
	require.Contains(t, text, `[Event "Club night"]`)
	require.Contains(t, text, `[White "Ana"]`)
	require.Contains(t, text, "2. g4 Qh4# 0-1")

	remembered, err := store.PGNFolder(context.Background())
	require.NoError(t, err)
	require.Equal(t, dir, remembered)

	again, err := m.Export(context.Background(), "", pgnexport.Tags{})
	require.NoError(t, err)
	require.Equal(t, dir, filepath.Dir(again))
}

func TestExportRejectsBadTarget(t *testing.T) {
	m, log := newMatch(t, Deps{})
	require.NoError(t, m.NewGame(position.StandardStart, nil))
	m.Abort(context.Background(), false)

	_, err := m.Export(context.Background(), filepath.Join(t.TempDir(), "game.txt"), pgnexport.Tags{})
	require.ErrorIs(t, err, pgnexport.ErrExportFailure)
	require.Equal(t, "notice.export.failed", log.last().Key)
	require.Equal(t, duelview.CodeExportFailure, m.DomainError(err).Code)
}
