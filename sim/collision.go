package sim

import "math"

// CirclesOverlap checks if two circles overlap
func CirclesOverlap(a Vec2, ra float64, b Vec2, rb float64) bool {
	dx := b.X - a.X
	dy := b.Y - a.Y
	sum := ra + rb
	return dx*dx+dy*dy <= sum*sum
}

// DistToSegment returns the distance from p to the segment a-b. A
// zero-length segment degrades to the point distance |p-a|.
func DistToSegment(p, a, b Vec2) float64 {
	ab := b.Sub(a)
	l2 := ab.Dot(ab)
	if l2 == 0 {
		return Distance(p, a)
	}
	t := Clamp(p.Sub(a).Dot(ab)/l2, 0, 1)
	return Distance(p, a.Add(ab.Scale(t)))
}

// CapsuleHit checks a circle against a capsule (segment a-b with radius r).
func CapsuleHit(p Vec2, pr float64, a, b Vec2, r float64) bool {
	return DistToSegment(p, a, b) <= pr+r
}

// RingHit reports whether a point at dist from a ring's centre lies on the
// ring's leading edge: |dist - radius| <= band.
func RingHit(dist, radius, band float64) bool {
	return math.Abs(dist-radius) <= band
}

// BandHit checks a circle against an axis-aligned band of the given width
// centred on line.
func BandHit(p Vec2, pr float64, axis Axis, line, width float64) bool {
	c := p.X
	if axis == AxisHorizontal {
		c = p.Y
	}
	return math.Abs(c-line) <= width/2+pr
}
