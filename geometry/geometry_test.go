package geometry

import (
	"math"
	"testing"
)

func TestCollide(t *testing.T) {
	tests := []struct {
		name string
		a, b Circle
		want bool
	}{
		{"overlap", Circle{Vec{0, 0}, 10}, Circle{Vec{15, 0}, 10}, true},
		{"touching", Circle{Vec{0, 0}, 10}, Circle{Vec{20, 0}, 10}, false},
		{"apart", Circle{Vec{0, 0}, 10}, Circle{Vec{30, 40}, 10}, false},
		{"same center", Circle{Vec{5, 5}, 1}, Circle{Vec{5, 5}, 1}, true},
	}
	for _, tt := range tests {
		if got := Collide(tt.a, tt.b); got != tt.want {
			t.Errorf("%s: Collide = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestContains(t *testing.T) {
	zone := Circle{Vec{1000, 1000}, 100}
	if !Contains(zone, Vec{1000, 1100}) {
		t.Error("A point on the edge should be inside")
	}
	if Contains(zone, Vec{1000, 1100.001}) {
		t.Error("A point just past the edge should be outside")
	}
	if !Contains(zone, zone.Center) {
		t.Error("The center should be inside")
	}
}

func TestPushOut(t *testing.T) {
	got := PushOut(Vec{3, 4}, Vec{0, 0}, 5)
	if math.Abs(got.X-6) > 1e-9 || math.Abs(got.Y-8) > 1e-9 {
		t.Errorf("Expected push along the normal to (6,8), got %+v", got)
	}

	got = PushOut(Vec{1, 1}, Vec{1, 1}, 2)
	if got != (Vec{3, 1}) {
		t.Errorf("Coincident points should push along +X, got %+v", got)
	}
}

func TestClamp(t *testing.T) {
	got := Clamp(Vec{-5, 2500}, 2000, 2000)
	if got != (Vec{0, 2000}) {
		t.Errorf("Expected (0,2000), got %+v", got)
	}
}

func TestVecIsFinite(t *testing.T) {
	if (Vec{math.NaN(), 0}).IsFinite() || (Vec{0, math.Inf(1)}).IsFinite() {
		t.Error("NaN and Inf should not be finite")
	}
	if !(Vec{1, 2}).IsFinite() {
		t.Error("Ordinary vector should be finite")
	}
}
