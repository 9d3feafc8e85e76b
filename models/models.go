// models/models.go
package models

import (
	"time"

	"github.com/wfunc/flowerzone/geometry"
)

// Player is one roster member. It only knows its connection by id.
type Player struct {
	ID     string  `json:"id"`
	ConnID string  `json:"-"`
	Name   string  `json:"name"`
	Color  string  `json:"color"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	VX     float64 `json:"vx"`
	VY     float64 `json:"vy"`
	Health int     `json:"health"`
	Score  int     `json:"score"`
	Alive  bool    `json:"alive"`
	Ready  bool    `json:"ready"`
}

func (p *Player) Pos() geometry.Vec { return geometry.Vec{X: p.X, Y: p.Y} }

func (p *Player) SetPos(v geometry.Vec) {
	p.X, p.Y = v.X, v.Y
}

// ResetForRound restores per-round stats at pos.
func (p *Player) ResetForRound(health int, pos geometry.Vec) {
	p.SetPos(pos)
	p.VX, p.VY = 0, 0
	p.Health = health
	p.Score = 0
	p.Alive = true
}

// Collectible is a pickup slot. ID stays fixed across respawns.
type Collectible struct {
	ID        int     `json:"id"`
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	Type      int     `json:"type"`
	Collected bool    `json:"-"`
}

func (c *Collectible) Pos() geometry.Vec { return geometry.Vec{X: c.X, Y: c.Y} }

type Obstacle struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Radius float64 `json:"radius"`
}

func (o Obstacle) Circle() geometry.Circle {
	return geometry.Circle{Center: geometry.Vec{X: o.X, Y: o.Y}, Radius: o.Radius}
}

// SafeZone is centered on the map; Radius only shrinks during a round.
type SafeZone struct {
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Radius     float64 `json:"radius"`
	NextRadius float64 `json:"nextRadius"`
}

func (z SafeZone) Circle() geometry.Circle {
	return geometry.Circle{Center: geometry.Vec{X: z.X, Y: z.Y}, Radius: z.Radius}
}

// RoundRecord summarises a finished round for history storage.
type RoundRecord struct {
	RoomCode  string        `json:"room_code"`
	Round     int           `json:"round"`
	Reason    string        `json:"reason"`
	StartedAt time.Time     `json:"started_at"`
	EndedAt   time.Time     `json:"ended_at"`
	Players   []RoundPlayer `json:"players"`
}

type RoundPlayer struct {
	PlayerID  string `json:"player_id"`
	Name      string `json:"name"`
	Color     string `json:"color"`
	Score     int    `json:"score"`
	Alive     bool   `json:"alive"`
	Winner    bool   `json:"winner"`
	Placement int    `json:"placement"` // 1-based among winners, 0 otherwise
}

// PlayerStats aggregates round history by display name.
type PlayerStats struct {
	Name       string `json:"name"`
	Rounds     int    `json:"rounds"`
	Wins       int    `json:"wins"`
	TotalScore int    `json:"total_score"`
	BestScore  int    `json:"best_score"`
}
