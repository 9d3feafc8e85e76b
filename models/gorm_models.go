// models/gorm_models.go
package models

import (
	"time"

	"gorm.io/gorm"
)

// GormRound is one finished round.
type GormRound struct {
	gorm.Model
	RoomCode  string            `gorm:"index;not null"`
	Round     int               `gorm:"not null"`
	Reason    string            `gorm:"not null"`
	StartedAt time.Time         `gorm:"not null"`
	EndedAt   time.Time         `gorm:"not null"`
	Players   []GormRoundPlayer `gorm:"foreignKey:RoundID"`
}

func (GormRound) TableName() string { return "rounds" }

// GormRoundPlayer is one participant line of a round.
type GormRoundPlayer struct {
	ID        uint   `gorm:"primaryKey"`
	RoundID   uint   `gorm:"index;not null"`
	PlayerID  string `gorm:"not null"`
	Name      string `gorm:"index;not null"`
	Color     string
	Score     int  `gorm:"default:0"`
	Alive     bool `gorm:"default:false"`
	Winner    bool `gorm:"default:false"`
	Placement int  `gorm:"default:0"`
}

func (GormRoundPlayer) TableName() string { return "round_players" }

// NewGormRound converts a record into its gorm rows.
func NewGormRound(rec *RoundRecord) *GormRound {
	round := &GormRound{
		RoomCode:  rec.RoomCode,
		Round:     rec.Round,
		Reason:    rec.Reason,
		StartedAt: rec.StartedAt,
		EndedAt:   rec.EndedAt,
	}
	for _, p := range rec.Players {
		round.Players = append(round.Players, GormRoundPlayer{
			PlayerID:  p.PlayerID,
			Name:      p.Name,
			Color:     p.Color,
			Score:     p.Score,
			Alive:     p.Alive,
			Winner:    p.Winner,
			Placement: p.Placement,
		})
	}
	return round
}
