package scorecache

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"github.com/jypelle/vekiscore/internal/srv/model"
	"github.com/sirupsen/logrus"
	"time"

	_ "modernc.org/sqlite"
)

var ErrNotCached = errors.New("league not cached")

const schema = `CREATE TABLE IF NOT EXISTS games (
	league     TEXT PRIMARY KEY,
	payload    TEXT NOT NULL,
	fetched_at INTEGER NOT NULL
)`

// Store keeps the last fetched games of every league, so sport screens have something to
// show right after a restart.
type Store struct {
	db *sql.DB
}

func Open(filename string) (*Store, error) {
	db, err := sql.Open("sqlite", filename)
	if err != nil {
		return nil, fmt.Errorf("open score cache %s: %w", filename, err)
	}
	// sqlite serializes writers anyway
	db.SetMaxOpenConns(1)

	if _, err = db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create score cache schema: %w", err)
	}
	logrus.Debugf("Score cache opened: %s", filename)
	return &Store{db: db}, nil
}

func (s *Store) Save(ctx context.Context, league model.League, games []model.Game) error {
	payload, err := json.Marshal(games)
	if err != nil {
		return fmt.Errorf("serialize %s games: %w", league, err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO games (league, payload, fetched_at) VALUES (?, ?, ?)
		ON CONFLICT(league) DO UPDATE SET payload = excluded.payload, fetched_at = excluded.fetched_at`,
		string(league), string(payload), time.Now().Unix())
	if err != nil {
		return fmt.Errorf("save %s games: %w", league, err)
	}
	return nil
}

func (s *Store) Load(ctx context.Context, league model.League) ([]model.Game, time.Time, error) {
	var payload string
	var fetchedAt int64
	err := s.db.QueryRowContext(ctx, `SELECT payload, fetched_at FROM games WHERE league = ?`, string(league)).
		Scan(&payload, &fetchedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, time.Time{}, ErrNotCached
	}
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("load %s games: %w", league, err)
	}

	var games []model.Game
	if err = json.Unmarshal([]byte(payload), &games); err != nil {
		return nil, time.Time{}, fmt.Errorf("interpret cached %s games: %w", league, err)
	}
	return games, time.Unix(fetchedAt, 0), nil
}

func (s *Store) Close() error {
	return s.db.Close()
}
