// Package archive stores finished games in SQL, on PostgreSQL (lib/pq) or
// SQLite (go-sqlite3).
package archive

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"github.com/park285/cheese-duel/internal/session"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite3"
)

var ErrNotFound = errors.New("archived game not found")

// Game is one archived row.
type Game struct {
	GameID    string
	StartFEN  string
	FinalFEN  string
	Result    string
	Cause     string
	MovesSAN  []string
	PGN       string
	StartedAt time.Time
	EndedAt   time.Time
}

type Repository struct {
	db     *sql.DB
	driver string
}

// Open connects, pings and migrates.
func Open(ctx context.Context, driver, dsn string) (*Repository, error) {
	driver = strings.TrimSpace(driver)
	if driver == "" {
		driver = DriverPostgres
	}
	if driver != DriverPostgres && driver != DriverSQLite {
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}
	if strings.TrimSpace(dsn) == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if driver == DriverSQLite && (dsn == ":memory:" || strings.Contains(dsn, "mode=memory")) {
		// each in-memory connection is a separate database
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
	} else {
		db.SetMaxOpenConns(4)
		db.SetMaxIdleConns(2)
		db.SetConnMaxLifetime(30 * time.Minute)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	r := &Repository{db: db, driver: driver}
	if err := r.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate database: %w", err)
	}
	return r, nil
}

func (r *Repository) Close() error {
	if r == nil || r.db == nil {
		return nil
	}
	return r.db.Close()
}

func (r *Repository) migrate(ctx context.Context) error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS duel_games (
			game_id TEXT PRIMARY KEY,
			start_fen TEXT NOT NULL,
			final_fen TEXT NOT NULL,
			result TEXT NOT NULL,
			cause TEXT NOT NULL,
			moves_san TEXT NOT NULL,
			pgn TEXT NOT NULL,
			started_at TIMESTAMP NOT NULL,
			ended_at TIMESTAMP NOT NULL,
			duration_ms BIGINT NOT NULL DEFAULT 0
		)`,
		`CREATE INDEX IF NOT EXISTS idx_duel_games_ended ON duel_games(ended_at)`,
	}
	for _, m := range migrations {
		if _, err := r.db.ExecContext(ctx, m); err != nil {
			return err
		}
	}
	return nil
}

// rebind rewrites ? placeholders to $n for postgres.
func (r *Repository) rebind(q string) string {
	if r.driver != DriverPostgres {
		return q
	}
	var b strings.Builder
	n := 0
	for _, c := range q {
		if c == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(c)
	}
	return b.String()
}

// SaveResult upserts a finished game with its PGN text.
func (r *Repository) SaveResult(ctx context.Context, rec *session.Record, pgn string) error {
	if r == nil || r.db == nil || rec == nil {
		return nil
	}
	sans := make([]string, 0, len(rec.Moves))
	for _, m := range rec.Moves {
		sans = append(sans, m.SAN)
	}
	movesRaw, err := json.Marshal(sans)
	if err != nil {
		return err
	}
	duration := rec.FinishedAt.Sub(rec.StartedAt).Milliseconds()
	if duration < 0 {
		duration = 0
	}

	q := r.rebind(`INSERT INTO duel_games (
		game_id, start_fen, final_fen, result, cause, moves_san, pgn,
		started_at, ended_at, duration_ms
	  ) VALUES (?,?,?,?,?,?,?,?,?,?)
	  ON CONFLICT (game_id) DO UPDATE SET
		start_fen=EXCLUDED.start_fen,
		final_fen=EXCLUDED.final_fen,
		result=EXCLUDED.result,
		cause=EXCLUDED.cause,
		moves_san=EXCLUDED.moves_san,
		pgn=EXCLUDED.pgn,
		started_at=EXCLUDED.started_at,
		ended_at=EXCLUDED.ended_at,
		duration_ms=EXCLUDED.duration_ms`)

	_, err = r.db.ExecContext(ctx, q,
		rec.GameID, rec.StartFEN, rec.FinalFEN,
		rec.Result, rec.Termination.Cause.String(), string(movesRaw), pgn,
		rec.StartedAt.UTC(), rec.FinishedAt.UTC(), duration,
	)
	return err
}

const selectColumns = `game_id, start_fen, final_fen, result, cause, moves_san, pgn, started_at, ended_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanGame(s scanner) (Game, error) {
	var g Game
	var moves string
	if err := s.Scan(&g.GameID, &g.StartFEN, &g.FinalFEN, &g.Result, &g.Cause, &moves, &g.PGN, &g.StartedAt, &g.EndedAt); err != nil {
		return Game{}, err
	}
	if err := json.Unmarshal([]byte(moves), &g.MovesSAN); err != nil {
		return Game{}, fmt.Errorf("decode moves of %s: %w", g.GameID, err)
	}
	return g, nil
}

// Get loads one archived game.
func (r *Repository) Get(ctx context.Context, gameID string) (Game, error) {
	if r == nil || r.db == nil {
		return Game{}, ErrNotFound
	}
	row := r.db.QueryRowContext(ctx, r.rebind(`SELECT `+selectColumns+` FROM duel_games WHERE game_id = ?`), gameID)
	g, err := scanGame(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Game{}, ErrNotFound
	}
	return g, err
}

// Recent lists the latest finished games, newest first.
func (r *Repository) Recent(ctx context.Context, limit int) ([]Game, error) {
	if r == nil || r.db == nil {
		return nil, nil
	}
	if limit <= 0 {
		limit = 10
	}
	rows, err := r.db.QueryContext(ctx, r.rebind(`SELECT `+selectColumns+` FROM duel_games ORDER BY ended_at DESC LIMIT ?`), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Game
	for rows.Next() {
		g, err := scanGame(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, rows.Err()
}
