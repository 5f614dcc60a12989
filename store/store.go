// Package store keeps finished games in a SQLite database.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/edrefis/edrefis/replay"
)

var ErrNotFound = errors.New("game not found")

// Game is one finished game. Replay is only loaded by Store.Game.
type Game struct {
	ID         uuid.UUID
	Player     string
	Seed       uint32
	Level      uint32
	Lines      uint32
	Ticks      uint64
	FinishedAt time.Time
	Replay     *replay.Replay
}

type Store struct {
	db   *sql.DB
	path string
}

// Open creates or opens the database at path. ":memory:" keeps it in
// memory for the lifetime of the Store.
func Open(path string) (*Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create store dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	// one connection, so pragmas and an in-memory database are shared
	db.SetMaxOpenConns(1)

	s := &Store{db: db, path: path}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("init store schema: %w", err)
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) Path() string {
	return s.path
}

func (s *Store) initSchema() error {
	const schema = `
	PRAGMA busy_timeout = 5000;

	CREATE TABLE IF NOT EXISTS games (
		id TEXT PRIMARY KEY,
		player TEXT NOT NULL,
		seed INTEGER NOT NULL,
		level INTEGER NOT NULL,
		lines INTEGER NOT NULL,
		ticks INTEGER NOT NULL,
		finished_at INTEGER NOT NULL,
		replay BLOB
	);
	CREATE INDEX IF NOT EXISTS idx_games_rank ON games(level DESC, lines DESC, ticks ASC);
	CREATE INDEX IF NOT EXISTS idx_games_player ON games(player);
	`
	_, err := s.db.Exec(schema)
	return err
}

// SaveGame inserts g, or replaces the game with the same id. A nil ID is
// given a new one and a zero FinishedAt is set to now.
func (s *Store) SaveGame(ctx context.Context, g *Game) error {
	if g.ID == uuid.Nil {
		g.ID = uuid.New()
	}
	if g.FinishedAt.IsZero() {
		g.FinishedAt = time.Now()
	}
	var data []byte
	if g.Replay != nil {
		var err error
		data, err = replay.Marshal(g.Replay)
		if err != nil {
			return err
		}
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO games (id, player, seed, level, lines, ticks, finished_at, replay)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		g.ID.String(), g.Player, g.Seed, g.Level, g.Lines, int64(g.Ticks), g.FinishedAt.UnixMilli(), data,
	)
	if err != nil {
		return fmt.Errorf("save game %s: %w", g.ID, err)
	}
	return nil
}

// TopGames lists the best games: highest level, then most lines, then
// fastest.
func (s *Store) TopGames(ctx context.Context, limit int) ([]Game, error) {
	if limit <= 0 {
		return nil, nil
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, player, seed, level, lines, ticks, finished_at
		FROM games
		ORDER BY level DESC, lines DESC, ticks ASC, finished_at ASC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query top games: %w", err)
	}
	defer rows.Close()

	var games []Game
	for rows.Next() {
		g, err := scanGame(rows, false)
		if err != nil {
			return nil, err
		}
		games = append(games, g)
	}
	return games, rows.Err()
}

// Game loads one game together with its replay.
func (s *Store) Game(ctx context.Context, id uuid.UUID) (Game, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, player, seed, level, lines, ticks, finished_at, replay
		FROM games WHERE id = ?`, id.String())
	g, err := scanGame(row, true)
	if errors.Is(err, sql.ErrNoRows) {
		return Game{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return g, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanGame(row scanner, withReplay bool) (Game, error) {
	var (
		g          Game
		id         string
		ticks      int64
		finishedAt int64
		data       []byte
	)
	dest := []any{&id, &g.Player, &g.Seed, &g.Level, &g.Lines, &ticks, &finishedAt}
	if withReplay {
		dest = append(dest, &data)
	}
	if err := row.Scan(dest...); err != nil {
		return Game{}, err
	}
	var err error
	if g.ID, err = uuid.Parse(id); err != nil {
		return Game{}, fmt.Errorf("game id %q: %w", id, err)
	}
	g.Ticks = uint64(ticks)
	g.FinishedAt = time.UnixMilli(finishedAt).UTC()
	if len(data) > 0 {
		if g.Replay, err = replay.Unmarshal(data); err != nil {
			return Game{}, fmt.Errorf("game %s replay: %w", g.ID, err)
		}
	}
	return g, nil
}
