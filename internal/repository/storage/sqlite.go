package storage

import (
	"context"
	"database/sql"
	"fmt"

	// import the SQLite driver to register it with the database/sql package.
	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
)

type Storage struct {
	Connection *sql.DB
}

func NewSQLiteStorage(path string) (*Storage, error) {
	conn, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("can't open database: %w", err)
	}

	if err = conn.Ping(); err != nil {
		return nil, fmt.Errorf("can't connect to database: %w", err)
	}

	return &Storage{Connection: conn}, nil
}

func (that *Storage) Init(ctx context.Context) error {
	query := `CREATE TABLE IF NOT EXISTS matches (
		player_id    TEXT    NOT NULL,
		match_number INTEGER NOT NULL,
		winner       TEXT    NOT NULL,
		human_mark   TEXT    NOT NULL,
		line         TEXT    NOT NULL DEFAULT '',
		difficulty   TEXT    NOT NULL,
		finished_at  INTEGER NOT NULL
	)`

	if _, err := that.Connection.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("can't create table: %w", err)
	}

	index := `CREATE INDEX IF NOT EXISTS matches_player_idx ON matches (player_id, finished_at)`
	if _, err := that.Connection.ExecContext(ctx, index); err != nil {
		return fmt.Errorf("can't create index: %w", err)
	}

	return nil
}

func (that *Storage) Close() error {
	if err := that.Connection.Close(); err != nil {
		return fmt.Errorf("can't close database: %w", err)
	}

	return nil
}
