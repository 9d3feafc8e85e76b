package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/wfunc/flowerzone/models"
)

// sqlStore holds the queries shared by the database/sql backends. Queries
// are written with $n placeholders and rebound for drivers that want ?.
type sqlStore struct {
	db       *sql.DB
	question bool
}

func (s *sqlStore) rebind(query string) string {
	if !s.question {
		return query
	}
	var b strings.Builder
	for i := 0; i < len(query); i++ {
		if query[i] == '$' {
			b.WriteByte('?')
			for i+1 < len(query) && query[i+1] >= '0' && query[i+1] <= '9' {
				i++
			}
			continue
		}
		b.WriteByte(query[i])
	}
	return b.String()
}

func (s *sqlStore) insertRound(ctx context.Context, tx *sql.Tx, rec *models.RoundRecord) (int64, error) {
	if !s.question {
		var id int64
		err := tx.QueryRowContext(ctx, `
        INSERT INTO rounds (room_code, round, reason, started_at, ended_at)
        VALUES ($1, $2, $3, $4, $5)
        RETURNING id`,
			rec.RoomCode, rec.Round, rec.Reason, rec.StartedAt, rec.EndedAt).Scan(&id)
		return id, err
	}
	res, err := tx.ExecContext(ctx, `
        INSERT INTO rounds (room_code, round, reason, started_at, ended_at)
        VALUES (?, ?, ?, ?, ?)`,
		rec.RoomCode, rec.Round, rec.Reason, rec.StartedAt, rec.EndedAt)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (s *sqlStore) SaveRoundRecord(ctx context.Context, rec *models.RoundRecord) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	roundID, err := s.insertRound(ctx, tx, rec)
	if err != nil {
		return fmt.Errorf("insert round: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, s.rebind(`
        INSERT INTO round_players (round_id, player_id, name, color, score, alive, winner, placement)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`))
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, p := range rec.Players {
		if _, err := stmt.ExecContext(ctx, roundID, p.PlayerID, p.Name, p.Color, p.Score, p.Alive, p.Winner, p.Placement); err != nil {
			return fmt.Errorf("insert round player: %w", err)
		}
	}
	return tx.Commit()
}

func (s *sqlStore) GetPlayerStats(ctx context.Context, name string) (*models.PlayerStats, error) {
	stats := &models.PlayerStats{Name: name}
	err := s.db.QueryRowContext(ctx, s.rebind(`
        SELECT COUNT(*),
               COALESCE(SUM(CASE WHEN winner THEN 1 ELSE 0 END), 0),
               COALESCE(SUM(score), 0),
               COALESCE(MAX(score), 0)
        FROM round_players
        WHERE name = $1`), name).Scan(&stats.Rounds, &stats.Wins, &stats.TotalScore, &stats.BestScore)
	if err != nil {
		return nil, err
	}
	if stats.Rounds == 0 {
		return nil, ErrRecordNotFound
	}
	return stats, nil
}

func (s *sqlStore) Close() error {
	return s.db.Close()
}
