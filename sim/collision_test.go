package sim

import (
	"math"
	"testing"
)

func TestCirclesOverlap(t *testing.T) {
	// Overlapping circles
	if !CirclesOverlap(Vec2{0, 0}, 10, Vec2{15, 0}, 10) {
		t.Error("circles should collide (overlapping)")
	}

	// Touching circles
	if !CirclesOverlap(Vec2{0, 0}, 10, Vec2{20, 0}, 10) {
		t.Error("circles should collide (touching)")
	}

	// Non-overlapping circles
	if CirclesOverlap(Vec2{0, 0}, 10, Vec2{25, 0}, 10) {
		t.Error("circles should not collide")
	}
}

func TestDistToSegment(t *testing.T) {
	a, b := Vec2{0, 0}, Vec2{10, 0}

	// Perpendicular to the middle
	if d := DistToSegment(Vec2{5, 3}, a, b); math.Abs(d-3) > 1e-12 {
		t.Errorf("expected 3, got %f", d)
	}

	// Past the end clamps to the endpoint
	if d := DistToSegment(Vec2{13, 4}, a, b); math.Abs(d-5) > 1e-12 {
		t.Errorf("expected 5, got %f", d)
	}

	// Zero-length segment falls back to point distance
	if d := DistToSegment(Vec2{3, 4}, a, a); math.Abs(d-5) > 1e-12 {
		t.Errorf("degenerate segment: expected 5, got %f", d)
	}
}

func TestCapsuleHit(t *testing.T) {
	a, b := Vec2{0, 0}, Vec2{30, 0}
	if !CapsuleHit(Vec2{15, 20}, 15, a, b, 6) {
		t.Error("circle beside the capsule body should hit")
	}
	if CapsuleHit(Vec2{15, 30}, 15, a, b, 6) {
		t.Error("circle clear of the capsule should miss")
	}
	// A point test at the head would miss what the capsule tail catches
	if Distance(Vec2{-5, 0}, b) <= 6 || !CapsuleHit(Vec2{-5, 0}, 0, a, b, 6) {
		t.Error("capsule tail should catch what a point test misses")
	}
}

func TestRingHit(t *testing.T) {
	if !RingHit(105, 100, 20) {
		t.Error("inside the band should hit")
	}
	if RingHit(50, 100, 20) {
		t.Error("inside the ring but off the edge should miss")
	}
	if RingHit(130, 100, 20) {
		t.Error("outside the band should miss")
	}
}

func TestBandHit(t *testing.T) {
	if !BandHit(Vec2{130, 999}, 0, AxisVertical, 100, 80) {
		t.Error("x within half-width of a vertical band should hit")
	}
	if BandHit(Vec2{150, 0}, 5, AxisVertical, 100, 80) {
		t.Error("x outside a vertical band should miss")
	}
	if !BandHit(Vec2{0, 60}, 25, AxisHorizontal, 100, 80) {
		t.Error("circle reaching into a horizontal band should hit")
	}
}

func TestVecNormGuardsZero(t *testing.T) {
	if n := (Vec2{}).Norm(); n != (Vec2{}) {
		t.Errorf("zero vector normalised to %+v", n)
	}
	if n := (Vec2{1e-9, 0}).Norm(); n != (Vec2{}) {
		t.Errorf("near-zero vector normalised to %+v", n)
	}
	if n := (Vec2{3, 4}).Norm(); math.Abs(n.Len()-1) > 1e-12 {
		t.Errorf("expected unit length, got %f", n.Len())
	}
}
