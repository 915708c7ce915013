package sim

import (
	"math"
	"testing"
)

func TestKeysResolveToEightDirections(t *testing.T) {
	tests := []struct {
		keys []string
		want Vec2
	}{
		{[]string{"w"}, Vec2{0, -1}},
		{[]string{"ArrowDown"}, Vec2{0, 1}},
		{[]string{"a", "ArrowLeft"}, Vec2{-1, 0}},
		{[]string{"w", "d"}, Vec2{math.Sqrt2 / 2, -math.Sqrt2 / 2}},
		{[]string{"a", "d"}, Vec2{}},
		{nil, Vec2{}},
	}
	for _, tt := range tests {
		keys := map[string]bool{}
		for _, k := range tt.keys {
			keys[k] = true
		}
		got := StepInput{Keys: keys}.Direction()
		if Distance(got, tt.want) > 1e-12 {
			t.Errorf("keys %v: got %+v, want %+v", tt.keys, got, tt.want)
		}
	}
}

func TestJoystickWinsOverKeys(t *testing.T) {
	in := StepInput{Movement: Vec2{0, 0.5}, Keys: map[string]bool{"a": true}}
	if got := in.Direction(); Distance(got, Vec2{0, 1}) > 1e-12 {
		t.Errorf("got %+v, want joystick direction", got)
	}
}

func TestInvalidJoystickIsIgnored(t *testing.T) {
	in := StepInput{Movement: Vec2{math.NaN(), 1}}
	if got := in.Direction(); got != (Vec2{}) {
		t.Errorf("NaN joystick produced %+v", got)
	}
	if got := (StepInput{}).Direction(); got != (Vec2{}) {
		t.Errorf("empty snapshot produced %+v", got)
	}
}

func TestFacingKeepsLastDirection(t *testing.T) {
	cfg := testConfig()
	s := playingRun(t, cfg)
	s = Step(s, 0.1, StepInput{Keys: map[string]bool{"s": true}}, DefaultViewport(), cfg)
	s = Step(s, 0.1, StepInput{}, DefaultViewport(), cfg)
	if s.Player.Facing != (Vec2{0, 1}) {
		t.Errorf("facing = %+v, want last movement direction", s.Player.Facing)
	}
}
