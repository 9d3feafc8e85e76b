package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq" // PostgreSQL driver
)

// PostgreSQL stores rounds through lib/pq.
type PostgreSQL struct {
	sqlStore
}

func NewPostgreSQL(host string, port int, user, password, dbname string) (*PostgreSQL, error) {
	connStr := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		host, port, user, password, dbname)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, err
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := initPostgresTables(ctx, db); err != nil {
		db.Close()
		return nil, err
	}

	return &PostgreSQL{sqlStore{db: db}}, nil
}

func initPostgresTables(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
        CREATE TABLE IF NOT EXISTS rounds (
            id SERIAL PRIMARY KEY,
            room_code VARCHAR(16) NOT NULL,
            round INTEGER NOT NULL,
            reason VARCHAR(32) NOT NULL,
            started_at TIMESTAMP NOT NULL,
            ended_at TIMESTAMP NOT NULL,
            created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
        )
    `)
	if err != nil {
		return err
	}

	_, err = db.ExecContext(ctx, `
        CREATE TABLE IF NOT EXISTS round_players (
            id SERIAL PRIMARY KEY,
            round_id INTEGER NOT NULL REFERENCES rounds(id) ON DELETE CASCADE,
            player_id VARCHAR(64) NOT NULL,
            name VARCHAR(64) NOT NULL,
            color VARCHAR(32) NOT NULL DEFAULT '',
            score INTEGER NOT NULL DEFAULT 0,
            alive BOOLEAN NOT NULL DEFAULT FALSE,
            winner BOOLEAN NOT NULL DEFAULT FALSE,
            placement INTEGER NOT NULL DEFAULT 0
        )
    `)
	if err != nil {
		return err
	}

	_, err = db.ExecContext(ctx, `
        CREATE INDEX IF NOT EXISTS idx_rounds_room_code ON rounds(room_code);
        CREATE INDEX IF NOT EXISTS idx_round_players_name ON round_players(name);
    `)
	return err
}
