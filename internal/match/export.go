package match

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/park285/cheese-duel/internal/pgnexport"
	"github.com/park285/cheese-duel/internal/session"
	"go.uber.org/zap"
)

// Export writes the finished game as PGN and returns the file path. An empty
// path or a directory gets a generated file name inside the remembered
// folder, then the configured folder, then the working directory. The folder
// used is remembered for next time. Empty tag fields fall back to the
// configured tags.
func (m *Match) Export(ctx context.Context, path string, tags pgnexport.Tags) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.session.InProgress() {
		m.notify("notice.export.in_progress", nil)
		return "", session.ErrInvalidState
	}
	rec, ok := m.session.Finished()
	if !ok {
		m.notify("notice.export.none", nil)
		return "", ErrNoFinishedGame
	}

	target, err := m.resolveTarget(ctx, path, rec)
	if err != nil {
		m.notify("notice.export.failed", map[string]string{"Error": err.Error()})
		return "", err
	}
	doc := pgnexport.Assemble(rec, mergeTags(tags, m.tags))
	if err := pgnexport.WriteFile(target, doc); err != nil {
		m.logger.Warn("duel_export", zap.String("game_id", rec.GameID), zap.String("path", target), zap.Error(err))
		m.notify("notice.export.failed", map[string]string{"Error": err.Error()})
		return "", err
	}
	m.logger.Info("duel_export",
		zap.String("game_id", rec.GameID),
		zap.String("path", target),
		zap.String("result", doc.Result),
		zap.Int("moves", len(doc.Moves)),
	)

	if err := m.prefs.SetPGNFolder(ctx, filepath.Dir(target)); err != nil {
		m.logger.Warn("duel_prefs_failed", zap.Error(err))
	}
	if m.archive != nil {
		if err := m.archive.SaveResult(ctx, rec, doc.Render()); err != nil {
			m.logger.Warn("duel_archive_failed", zap.String("game_id", rec.GameID), zap.Error(err))
		}
	}
	m.notify("notice.export.done", map[string]string{"Path": target})
	return target, nil
}

func (m *Match) resolveTarget(ctx context.Context, path string, rec *session.Record) (string, error) {
	path = strings.TrimSpace(path)
	name := defaultFileName(rec)
	if path == "" {
		dir, err := m.prefs.PGNFolder(ctx)
		if err != nil {
			m.logger.Warn("duel_prefs_failed", zap.Error(err))
			dir = ""
		}
		if dir == "" {
			dir = m.pgnDir
		}
		if dir == "" {
			dir = "."
		}
		return filepath.Join(dir, name), nil
	}
	if fi, err := os.Stat(path); err == nil && fi.IsDir() {
		return filepath.Join(path, name), nil
	}
	if ext := strings.ToLower(filepath.Ext(path)); ext != ".pgn" {
		return "", fmt.Errorf("%w: %s is not a .pgn file", pgnexport.ErrExportFailure, path)
	}
	return path, nil
}

func defaultFileName(rec *session.Record) string {
	id := rec.GameID
	if len(id) > 8 {
		id = id[:8]
	}
	return fmt.Sprintf("duel-%s-%s.pgn", rec.FinishedAt.Format("20060102-150405"), id)
}

func mergeTags(t, def pgnexport.Tags) pgnexport.Tags {
	pick := func(v, d string) string {
		if strings.TrimSpace(v) != "" {
			return v
		}
		return d
	}
	return pgnexport.Tags{
		Event: pick(t.Event, def.Event),
		Site:  pick(t.Site, def.Site),
		Date:  pick(t.Date, def.Date),
		Round: pick(t.Round, def.Round),
		White: pick(t.White, def.White),
		Black: pick(t.Black, def.Black),
	}
}
