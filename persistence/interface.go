package persistence

import (
	"context"
	"errors"
	"fmt"

	"github.com/wfunc/flowerzone/config"
	"github.com/wfunc/flowerzone/models"
)

// Database stores finished rounds.
type Database interface {
	SaveRoundRecord(ctx context.Context, rec *models.RoundRecord) error
	GetPlayerStats(ctx context.Context, name string) (*models.PlayerStats, error)
	Close() error
}

var (
	ErrRecordNotFound = errors.New("record not found")
	// ErrDisabled is returned by Open when history is switched off.
	ErrDisabled = errors.New("round history disabled")
)

// Open connects the backend selected by cfg.Driver.
func Open(cfg config.DatabaseConfig) (Database, error) {
	pg := cfg.Postgres
	switch cfg.Driver {
	case "", "none":
		return nil, ErrDisabled
	case "gorm":
		return NewGormPostgreSQL(pg.Host, pg.Port, pg.User, pg.Password, pg.DBName)
	case "postgres":
		return NewPostgreSQL(pg.Host, pg.Port, pg.User, pg.Password, pg.DBName)
	case "sqlite":
		return NewSQLite(cfg.SQLite.Path)
	}
	return nil, fmt.Errorf("unknown database driver %q", cfg.Driver)
}
