package prefs

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func exercise(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	dir, err := s.PGNFolder(ctx)
	if err != nil || dir != "" {
		t.Fatalf("initial PGNFolder = %q, %v", dir, err)
	}
	if err := s.SetPGNFolder(ctx, "  /home/duel/games "); err != nil {
		t.Fatalf("SetPGNFolder: %v", err)
	}
	dir, err = s.PGNFolder(ctx)
	if err != nil || dir != "/home/duel/games" {
		t.Fatalf("PGNFolder = %q, %v", dir, err)
	}
}

func TestMemoryStore(t *testing.T) {
	exercise(t, NewMemoryStore())
}

func TestFileStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "prefs.yaml")
	exercise(t, NewFileStore(path))

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if !strings.Contains(string(raw), "pgn_folder: /home/duel/games") {
		t.Fatalf("unexpected file content: %q", raw)
	}
	// a fresh store reads what the first one wrote
	dir, err := NewFileStore(path).PGNFolder(context.Background())
	if err != nil || dir != "/home/duel/games" {
		t.Fatalf("reload = %q, %v", dir, err)
	}
}

func TestFileStoreRejectsGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prefs.yaml")
	if err := os.WriteFile(path, []byte("pgn_folder: [unterminated"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if _, err := NewFileStore(path).PGNFolder(context.Background()); err == nil {
		t.Fatalf("expected a parse error")
	}
}

func TestRedisStore(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	defer mr.Close()

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	s := NewRedisStore(rdb)
	defer s.Close()
	exercise(t, s)

	if !mr.Exists(redisKey) {
		t.Fatalf("expected key %s in redis", redisKey)
	}
	if ttl := mr.TTL(redisKey); ttl != 0 {
		t.Fatalf("preferences must not expire, ttl = %v", ttl)
	}
}

func TestDialRedis(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	defer mr.Close()

	s, err := DialRedis(context.Background(), "redis://"+mr.Addr()+"/0")
	if err != nil {
		t.Fatalf("DialRedis: %v", err)
	}
	defer s.Close()
	exercise(t, s)

	if _, err := DialRedis(context.Background(), "http://localhost"); err == nil {
		t.Fatalf("expected unsupported scheme error")
	}
}

func TestParseRedisURL(t *testing.T) {
	opts, err := ParseRedisURL("redis://:secret@cache:6380/3")
	if err != nil {
		t.Fatalf("ParseRedisURL: %v", err)
	}
	if opts.Addr != "cache:6380" || opts.Password != "secret" || opts.DB != 3 {
		t.Fatalf("opts = %+v", opts)
	}
}
