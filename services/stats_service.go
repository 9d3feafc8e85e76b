package services

import (
	"context"
	"errors"
	"strings"

	"github.com/wfunc/flowerzone/models"
	"github.com/wfunc/flowerzone/persistence"
)

var ErrHistoryDisabled = errors.New("round history is not enabled")

// StatsService answers history queries. A nil database disables it.
type StatsService struct {
	db persistence.Database
}

func NewStatsService(db persistence.Database) *StatsService {
	return &StatsService{db: db}
}

// PlayerStats aggregates every recorded round played under name.
func (s *StatsService) PlayerStats(ctx context.Context, name string) (*models.PlayerStats, error) {
	if s.db == nil {
		return nil, ErrHistoryDisabled
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, persistence.ErrRecordNotFound
	}
	return s.db.GetPlayerStats(ctx, name)
}
