package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"syscall"

	"github.com/park285/cheese-duel/internal/adapter/duelpresenter"
	"github.com/park285/cheese-duel/internal/boardimage"
	appcfg "github.com/park285/cheese-duel/internal/config"
	"github.com/park285/cheese-duel/internal/match"
	"github.com/park285/cheese-duel/internal/matchbuilder"
	"github.com/park285/cheese-duel/internal/obslog"
	"github.com/park285/cheese-duel/internal/pgnexport"
	"github.com/park285/cheese-duel/internal/position"
	"github.com/park285/cheese-duel/internal/session"
	"go.uber.org/zap"
)

func main() {
	if err := obslog.InitFromEnv(); err != nil {
		log.Fatalf("logger init error: %v", err)
	}
	logger := obslog.L()
	defer func() { _ = logger.Sync() }()

	cfg, err := appcfg.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	out := &syncWriter{w: os.Stdout}
	presenter := duelpresenter.NewPresenter(out.line, duelpresenter.NewFormatter())

	deps, err := matchbuilder.New(ctx, cfg, logger, func(n match.Notice) { _ = presenter.Notice(n) })
	if err != nil {
		log.Fatalf("duel init error: %v", err)
	}
	defer func() { _ = deps.Close() }()

	sh := &shell{cfg: cfg, deps: deps, presenter: presenter, out: out, logger: logger}
	if err := sh.run(ctx, os.Stdin); err != nil {
		logger.Error("duel_shell_error", zap.Error(err))
	}
	deps.Match.Abort(context.Background(), false)
}

// syncWriter serializes output from the shell and the clock goroutine.
type syncWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (s *syncWriter) line(msg string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := fmt.Fprintln(s.w, msg)
	return err
}

func (s *syncWriter) raw(msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, _ = io.WriteString(s.w, msg)
}

type shell struct {
	cfg       *appcfg.AppConfig
	deps      *matchbuilder.Deps
	presenter *duelpresenter.Presenter
	out       *syncWriter
	logger    *zap.Logger
}

func (s *shell) prompt() {
	s.out.raw(s.deps.Catalog.RenderOr("shell.prompt", nil, "duel> "))
}

func (s *shell) run(ctx context.Context, in io.Reader) error {
	lines := make(chan string)
	errc := make(chan error, 1)
	go func() {
		sc := bufio.NewScanner(in)
		for sc.Scan() {
			lines <- sc.Text()
		}
		errc <- sc.Err()
		close(lines)
	}()

	s.prompt()
	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				return <-errc
			}
			if quit := s.handle(ctx, line); quit {
				return nil
			}
			s.prompt()
		}
	}
}

// handle runs one command line and reports whether the shell should exit.
func (s *shell) handle(ctx context.Context, raw string) bool {
	fields := strings.Fields(raw)
	if len(fields) == 0 {
		return false
	}
	m := s.deps.Match
	cmd, args := strings.ToLower(fields[0]), fields[1:]

	switch cmd {
	case "quit", "exit":
		return true
	case "help":
		_ = s.presenter.Message(s.deps.Catalog.RenderOr("shell.help", nil, "help unavailable"))
	case "new", "start":
		fen := s.cfg.StartFEN
		if len(args) > 0 {
			fen = strings.Join(args, " ")
		}
		if err := m.NewGame(fen, nil); err == nil {
			s.board()
		}
	case "move", "m":
		if len(args) != 1 {
			s.unknown(raw)
			return false
		}
		s.move(ctx, args[0])
	case "promote":
		if len(args) != 1 {
			s.unknown(raw)
			return false
		}
		kind, ok := position.ParsePromotionKind(args[0])
		if !ok {
			s.unknown(raw)
			return false
		}
		if res := m.Promote(ctx, kind); res.Kind == session.Committed {
			s.board()
		}
	case "cancel":
		if m.CancelPromotion() {
			s.board()
		}
	case "back":
		s.navigated(m.Back())
	case "fwd", "forward":
		s.navigated(m.Forward())
	case "first":
		s.navigated(m.First())
	case "last":
		s.navigated(m.Last())
	case "goto":
		if len(args) != 1 {
			s.unknown(raw)
			return false
		}
		n, err := strconv.Atoi(args[0])
		if err != nil {
			s.unknown(raw)
			return false
		}
		s.navigated(m.Jump(n))
	case "abort", "stop":
		if m.Abort(ctx, true) {
			s.board()
		}
	case "save", "export":
		path := ""
		if len(args) > 0 {
			path = strings.Join(args, " ")
		}
		_, _ = m.Export(ctx, path, pgnexport.Tags{})
	case "board", "show":
		s.board()
	case "flip":
		f := s.presenter.Formatter()
		f.Flip = !f.Flip
		s.board()
	case "recent":
		s.recent(ctx)
	case "snapshot", "png":
		path := ""
		if len(args) > 0 {
			path = strings.Join(args, " ")
		}
		s.snapshot(ctx, path)
	default:
		// bare coordinates are moves
		if _, err := position.ParseCoordinates(cmd); err == nil && len(args) == 0 {
			s.move(ctx, cmd)
			return false
		}
		s.unknown(raw)
	}
	return false
}

func (s *shell) move(ctx context.Context, text string) {
	m := s.deps.Match
	c, err := position.ParseCoordinates(text)
	if err != nil {
		s.unknown(text)
		return
	}
	res := m.Play(ctx, c)
	if res.Kind == session.PromotionPending && len(text) == 5 {
		if kind, ok := position.ParsePromotionKind(text[4:]); ok {
			res = m.Promote(ctx, kind)
		}
	}
	if res.Kind == session.Committed {
		s.board()
	}
}

func (s *shell) navigated(moved bool) {
	if moved {
		s.board()
	}
}

func (s *shell) board() {
	_ = s.presenter.Board(s.deps.Match.View())
}

func (s *shell) unknown(raw string) {
	_ = s.presenter.Message(s.deps.Catalog.RenderOr("shell.unknown",
		map[string]string{"Command": strings.TrimSpace(raw)}, "unknown command"))
}

func (s *shell) recent(ctx context.Context) {
	if s.deps.Archive == nil {
		_ = s.presenter.Message("archive disabled (set DATABASE_URL)")
		return
	}
	games, err := s.deps.Archive.Recent(ctx, 10)
	if err != nil {
		s.logger.Warn("duel_recent_failed", zap.Error(err))
		_ = s.presenter.Error(s.deps.Match.DomainError(err))
		return
	}
	_ = s.presenter.Message(s.presenter.Formatter().Recent(games))
}

func (s *shell) snapshot(ctx context.Context, path string) {
	v := s.deps.Match.View()
	if path == "" {
		name := "board.png"
		if id := v.GameID; len(id) >= 8 {
			name = fmt.Sprintf("board-%s-%d.png", id[:8], v.Cursor+1)
		}
		path = filepath.Join(s.cfg.PGNDir, name)
	}
	opts := boardimage.Options{Flip: s.presenter.Formatter().Flip}
	if err := boardimage.WriteFile(ctx, path, v, opts); err != nil {
		s.logger.Warn("duel_snapshot_failed", zap.String("path", path), zap.Error(err))
		_ = s.presenter.Message(s.deps.Catalog.RenderOr("notice.snapshot.failed", map[string]string{"Error": err.Error()}, err.Error()))
		return
	}
	_ = s.presenter.Message(s.deps.Catalog.RenderOr("notice.snapshot.done", map[string]string{"Path": path}, path))
}
