package world

import (
	"math"
	"math/rand"
	"testing"

	"github.com/wfunc/flowerzone/config"
	"github.com/wfunc/flowerzone/geometry"
	"github.com/wfunc/flowerzone/models"
)

func newTestFactory() *Factory {
	return NewFactory(config.DefaultGameConfig(), rand.New(rand.NewSource(7)))
}

func TestFactory_InitialZone(t *testing.T) {
	zone := newTestFactory().InitialZone()
	if zone.X != 1000 || zone.Y != 1000 {
		t.Errorf("Expected zone centered at (1000,1000), got (%v,%v)", zone.X, zone.Y)
	}
	if zone.Radius != 1000 || zone.NextRadius != 800 {
		t.Errorf("Expected radius 1000 and next 800, got %v and %v", zone.Radius, zone.NextRadius)
	}
}

func TestFactory_CollectiblesHaveSequentialIDs(t *testing.T) {
	f := newTestFactory()
	items := f.Collectibles()
	if len(items) != 30 {
		t.Fatalf("Expected 30 collectibles, got %d", len(items))
	}
	for i, c := range items {
		if c.ID != i {
			t.Errorf("Expected slot id %d, got %d", i, c.ID)
		}
		if c.Type < 0 || c.Type >= 3 {
			t.Errorf("Collectible type %d out of range", c.Type)
		}
	}
}

func TestFactory_CollectibleInsideZone(t *testing.T) {
	f := newTestFactory()
	zone := models.SafeZone{X: 1000, Y: 1000, Radius: 150}
	for i := 0; i < 500; i++ {
		c := f.Collectible(3, zone)
		if !geometry.Contains(zone.Circle(), c.Pos()) {
			t.Fatalf("Collectible %+v placed outside zone", c)
		}
		if c.ID != 3 {
			t.Fatalf("Expected slot id preserved, got %d", c.ID)
		}
	}
}

func TestFactory_ObstaclesInCentralHalf(t *testing.T) {
	for _, o := range newTestFactory().Obstacles() {
		if o.X < 500 || o.X > 1500 || o.Y < 500 || o.Y > 1500 {
			t.Errorf("Obstacle outside central half: %+v", o)
		}
		if o.Radius < 20 || o.Radius > 50 {
			t.Errorf("Obstacle radius out of range: %v", o.Radius)
		}
	}
}

func TestFactory_SpawnPointsOnRing(t *testing.T) {
	f := newTestFactory()
	points := f.SpawnPoints(5)
	for _, p := range points {
		if d := geometry.Distance(f.Center(), p); math.Abs(d-200) > 1e-9 {
			t.Errorf("Spawn point %+v is %v from center, want 200", p, d)
		}
	}
	if geometry.Distance(points[0], points[1]) < 1 {
		t.Error("Spawn points should be spread out")
	}
}
