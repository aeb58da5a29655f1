package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rocketscienceinc/gamelauncher/internal/entity"
)

type HistoryRepository interface {
	Save(ctx context.Context, record *entity.MatchRecord) error
	ListByPlayer(ctx context.Context, playerID string, limit int) ([]entity.MatchRecord, error)
	Stats(ctx context.Context, playerID string) (entity.Stats, error)
}

type historyRepository struct {
	conn *sql.DB
}

func NewHistoryRepository(conn *sql.DB) HistoryRepository {
	return &historyRepository{
		conn: conn,
	}
}

func (that *historyRepository) Save(ctx context.Context, record *entity.MatchRecord) error {
	query := `INSERT INTO matches (player_id, match_number, winner, human_mark, line, difficulty, finished_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`

	_, err := that.conn.ExecContext(ctx, query,
		record.PlayerID,
		record.MatchNumber,
		string(record.Winner),
		string(record.HumanMark),
		record.Line.String(),
		record.Difficulty.String(),
		record.FinishedAt.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("can't save match: %w", err)
	}

	return nil
}

// ListByPlayer returns the latest matches first.
func (that *historyRepository) ListByPlayer(ctx context.Context, playerID string, limit int) ([]entity.MatchRecord, error) {
	query := `SELECT player_id, match_number, winner, human_mark, line, difficulty, finished_at
		FROM matches WHERE player_id = ? ORDER BY finished_at DESC, rowid DESC LIMIT ?`

	rows, err := that.conn.QueryContext(ctx, query, playerID, limit)
	if err != nil {
		return nil, fmt.Errorf("can't list matches: %w", err)
	}
	defer rows.Close()

	var records []entity.MatchRecord

	for rows.Next() {
		var (
			record                  entity.MatchRecord
			winner, mark, line, lvl string
			finishedAt              int64
		)

		if err = rows.Scan(&record.PlayerID, &record.MatchNumber, &winner, &mark, &line, &lvl, &finishedAt); err != nil {
			return nil, fmt.Errorf("can't scan match: %w", err)
		}

		record.Winner = entity.Mark(winner)
		record.HumanMark = entity.Mark(mark)
		record.FinishedAt = time.UnixMilli(finishedAt).UTC()

		if err = record.Line.UnmarshalText([]byte(line)); err != nil {
			return nil, fmt.Errorf("can't decode match line: %w", err)
		}

		if err = record.Difficulty.UnmarshalText([]byte(lvl)); err != nil {
			return nil, fmt.Errorf("can't decode match difficulty: %w", err)
		}

		records = append(records, record)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("can't iterate matches: %w", err)
	}

	return records, nil
}

func (that *historyRepository) Stats(ctx context.Context, playerID string) (entity.Stats, error) {
	query := `SELECT
			COALESCE(SUM(CASE WHEN winner = human_mark THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN winner = ? THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN winner <> human_mark AND winner <> ? THEN 1 ELSE 0 END), 0)
		FROM matches WHERE player_id = ?`

	var stats entity.Stats

	tie := string(entity.Tie)
	err := that.conn.QueryRowContext(ctx, query, tie, tie, playerID).Scan(&stats.Wins, &stats.Draws, &stats.Losses)
	if err != nil {
		return entity.Stats{}, fmt.Errorf("can't compute stats: %w", err)
	}

	return stats, nil
}
