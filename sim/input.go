package sim

import "math"

// StepInput is the read-only input snapshot for one step. The zero value
// means no movement and no action.
type StepInput struct {
	Movement       Vec2            // joystick, each axis in [-1, 1]
	UseItemPressed bool            // activate the held consumable
	Keys           map[string]bool // raw key state, e.g. "w", "ArrowLeft"
}

var (
	keysUp    = []string{"w", "W", "ArrowUp"}
	keysDown  = []string{"s", "S", "ArrowDown"}
	keysLeft  = []string{"a", "A", "ArrowLeft"}
	keysRight = []string{"d", "D", "ArrowRight"}
)

func anyKey(keys map[string]bool, names []string) bool {
	for _, n := range names {
		if keys[n] {
			return true
		}
	}
	return false
}

// Direction resolves the snapshot to a unit movement direction, or the zero
// vector. A non-zero joystick wins over keys; keys resolve to one of eight
// directions. Non-finite joystick values count as zero.
func (in StepInput) Direction() Vec2 {
	j := in.Movement
	if !finite(j.X) || !finite(j.Y) {
		j = Vec2{}
	}
	j.X = Clamp(j.X, -1, 1)
	j.Y = Clamp(j.Y, -1, 1)
	if !j.IsZero() {
		return j.Norm()
	}

	var d Vec2
	if anyKey(in.Keys, keysUp) {
		d.Y--
	}
	if anyKey(in.Keys, keysDown) {
		d.Y++
	}
	if anyKey(in.Keys, keysLeft) {
		d.X--
	}
	if anyKey(in.Keys, keysRight) {
		d.X++
	}
	return d.Norm()
}

// angleOf returns the heading of v in radians.
func angleOf(v Vec2) float64 {
	return math.Atan2(v.Y, v.X)
}
