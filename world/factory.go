// Package world places collectibles, obstacles and spawn points.
package world

import (
	"math"
	"math/rand"

	"github.com/wfunc/flowerzone/config"
	"github.com/wfunc/flowerzone/geometry"
	"github.com/wfunc/flowerzone/models"
)

// innerFraction keeps generated collectibles away from the zone edge.
const innerFraction = 0.8

// Factory is a stateless generator apart from its random source.
type Factory struct {
	cfg config.GameConfig
	rng *rand.Rand
}

func NewFactory(cfg config.GameConfig, rng *rand.Rand) *Factory {
	return &Factory{cfg: cfg, rng: rng}
}

func (f *Factory) Center() geometry.Vec {
	return geometry.Vec{X: f.cfg.WorldWidth / 2, Y: f.cfg.WorldHeight / 2}
}

// InitialZone is the safe zone at the start of a round.
func (f *Factory) InitialZone() models.SafeZone {
	c := f.Center()
	return models.SafeZone{
		X:          c.X,
		Y:          c.Y,
		Radius:     f.cfg.WorldWidth * f.cfg.InitialRadiusRatio,
		NextRadius: f.cfg.WorldWidth * f.cfg.NextRadiusRatio,
	}
}

// Collectibles fills slots 0..n-1 inside the initial play area.
func (f *Factory) Collectibles() []*models.Collectible {
	c := f.Center()
	area := models.SafeZone{X: c.X, Y: c.Y, Radius: f.cfg.WorldWidth/2 - 100}
	out := make([]*models.Collectible, f.cfg.InitialCollectibles)
	for i := range out {
		out[i] = f.Collectible(i, area)
	}
	return out
}

// Collectible places slot id at a random point inside zone.
func (f *Factory) Collectible(id int, zone models.SafeZone) *models.Collectible {
	angle := f.rng.Float64() * 2 * math.Pi
	dist := f.rng.Float64() * zone.Radius * innerFraction
	p := geometry.PointOnCircle(geometry.Vec{X: zone.X, Y: zone.Y}, dist, angle)

	kind := 0
	if f.cfg.CollectibleTypes > 1 {
		kind = f.rng.Intn(f.cfg.CollectibleTypes)
	}
	return &models.Collectible{ID: id, X: p.X, Y: p.Y, Type: kind}
}

// Obstacles scatters rocks across the central half of the map.
func (f *Factory) Obstacles() []models.Obstacle {
	c := f.Center()
	w, h := f.cfg.WorldWidth, f.cfg.WorldHeight
	out := make([]models.Obstacle, f.cfg.InitialObstacles)
	for i := range out {
		out[i] = models.Obstacle{
			X:      c.X + f.rng.Float64()*w/2 - w/4,
			Y:      c.Y + f.rng.Float64()*h/2 - h/4,
			Radius: f.rng.Float64()*30 + 20,
		}
	}
	return out
}

// SpawnPoints spreads n players evenly on the spawn ring around the center.
func (f *Factory) SpawnPoints(n int) []geometry.Vec {
	out := make([]geometry.Vec, n)
	for i := range out {
		angle := float64(i) / float64(n) * 2 * math.Pi
		out[i] = geometry.PointOnCircle(f.Center(), f.cfg.SpawnRadius, angle)
	}
	return out
}
