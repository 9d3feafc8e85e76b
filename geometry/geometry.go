// Package geometry holds the stateless circle math used by the simulation.
package geometry

import "math"

type Vec struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

func (v Vec) Add(o Vec) Vec { return Vec{v.X + o.X, v.Y + o.Y} }

func (v Vec) Sub(o Vec) Vec { return Vec{v.X - o.X, v.Y - o.Y} }

func (v Vec) Scale(f float64) Vec { return Vec{v.X * f, v.Y * f} }

func (v Vec) Len() float64 { return math.Hypot(v.X, v.Y) }

// IsFinite rejects NaN and infinite components.
func (v Vec) IsFinite() bool {
	return !math.IsNaN(v.X) && !math.IsInf(v.X, 0) && !math.IsNaN(v.Y) && !math.IsInf(v.Y, 0)
}

func Distance(a, b Vec) float64 { return b.Sub(a).Len() }

func PointOnCircle(c Vec, r, angle float64) Vec {
	return Vec{c.X + math.Cos(angle)*r, c.Y + math.Sin(angle)*r}
}

type Circle struct {
	Center Vec
	Radius float64
}

// Collide reports whether two circles overlap. Touching circles do not.
func Collide(a, b Circle) bool {
	return Distance(a.Center, b.Center) < a.Radius+b.Radius
}

// Contains reports whether p lies inside c or on its edge.
func Contains(c Circle, p Vec) bool {
	return Distance(c.Center, p) <= c.Radius
}

// PushOut moves p one step away from center along the line joining them.
// When the points coincide the push goes along +X.
func PushOut(p, center Vec, step float64) Vec {
	d := p.Sub(center)
	n := d.Len()
	if n == 0 {
		return Vec{p.X + step, p.Y}
	}
	return p.Add(d.Scale(step / n))
}

// Clamp limits p to the rectangle [0,w]x[0,h].
func Clamp(p Vec, w, h float64) Vec {
	return Vec{math.Max(0, math.Min(w, p.X)), math.Max(0, math.Min(h, p.Y))}
}
