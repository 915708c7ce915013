package sim

import "math"

// minNormLen is the shortest vector Norm will scale; anything shorter
// normalises to the zero vector instead of blowing up to NaN.
const minNormLen = 1e-6

// Vec2 is a world-space point or direction.
type Vec2 struct{ X, Y float64 }

func (a Vec2) Add(b Vec2) Vec2      { return Vec2{a.X + b.X, a.Y + b.Y} }
func (a Vec2) Sub(b Vec2) Vec2      { return Vec2{a.X - b.X, a.Y - b.Y} }
func (a Vec2) Scale(s float64) Vec2 { return Vec2{a.X * s, a.Y * s} }
func (a Vec2) Dot(b Vec2) float64   { return a.X*b.X + a.Y*b.Y }
func (a Vec2) Len() float64         { return math.Hypot(a.X, a.Y) }
func (a Vec2) IsZero() bool         { return a.X == 0 && a.Y == 0 }

// Norm returns the unit vector in the direction of a, or the zero vector
// when a is too short to carry a direction.
func (a Vec2) Norm() Vec2 {
	l := a.Len()
	if l < minNormLen {
		return Vec2{}
	}
	return Vec2{a.X / l, a.Y / l}
}

// FromAngle returns the unit vector at angle rad.
func FromAngle(rad float64) Vec2 {
	return Vec2{math.Cos(rad), math.Sin(rad)}
}

// Distance returns the distance between two points
func Distance(a, b Vec2) float64 {
	return a.Sub(b).Len()
}

// Clamp restricts v to [min, max]
func Clamp(v, min, max float64) float64 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
