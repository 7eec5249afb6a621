package trajopt

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats/scalar"
)

const (
	deg2rad = math.Pi / 180
)

// Vector2 is a planar vector. All dynamics in this package happen in the ecliptic plane.
type Vector2 struct {
	X, Y float64
}

// Add returns v+o.
func (v Vector2) Add(o Vector2) Vector2 {
	return Vector2{v.X + o.X, v.Y + o.Y}
}

// Sub returns v-o.
func (v Vector2) Sub(o Vector2) Vector2 {
	return Vector2{v.X - o.X, v.Y - o.Y}
}

// Scale returns s*v.
func (v Vector2) Scale(s float64) Vector2 {
	return Vector2{v.X * s, v.Y * s}
}

// Dot performs the inner product.
func (v Vector2) Dot(o Vector2) float64 {
	return v.X*o.X + v.Y*o.Y
}

// Norm returns the magnitude of the vector.
func (v Vector2) Norm() float64 {
	return math.Hypot(v.X, v.Y)
}

// Dist returns the distance between both vectors.
func (v Vector2) Dist(o Vector2) float64 {
	return v.Sub(o).Norm()
}

// Unit returns the unit vector, or the nil vector if v is (almost) nil.
func (v Vector2) Unit() Vector2 {
	n := v.Norm()
	if scalar.EqualWithinAbs(n, 0, 1e-12) {
		return Vector2{}
	}
	return Vector2{v.X / n, v.Y / n}
}

// Perp returns v rotated by +90 degrees, i.e. the prograde direction of a counter-clockwise orbit at v.
func (v Vector2) Perp() Vector2 {
	return Vector2{-v.Y, v.X}
}

// IsFinite returns whether neither component is NaN or infinite.
func (v Vector2) IsFinite() bool {
	return !math.IsNaN(v.X) && !math.IsNaN(v.Y) && !math.IsInf(v.X, 0) && !math.IsInf(v.Y, 0)
}

func (v Vector2) String() string {
	return fmt.Sprintf("(%.6g, %.6g)", v.X, v.Y)
}

// normalizeRadians returns the angle in [0, 2π).
func normalizeRadians(a float64) float64 {
	a = math.Mod(a, 2*math.Pi)
	if a < 0 {
		a += 2 * math.Pi
	}
	return a
}

// Deg2rad converts degrees to radians, and enforced only positive numbers.
func Deg2rad(a float64) float64 {
	return normalizeRadians(a * deg2rad)
}

// clamp bounds v to [lo, hi].
func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
