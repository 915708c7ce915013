package sim

import (
	"errors"
	"fmt"
)

var (
	ErrWrongStatus    = errors.New("sim: transition not allowed in this status")
	ErrInvalidUpgrade = errors.New("sim: upgrade not applicable")
)

// NewRun creates a run in NotStarted with the player centred in the world
// holding a level 1 missile.
func NewRun(cfg *Config, view Viewport, seed uint64) *WorldState {
	pc := &cfg.Player
	pos := Vec2{cfg.World.Width / 2, cfg.World.Height / 2}
	vw, vh := view.World()
	return &WorldState{
		Status:        StatusNotStarted,
		ResumeStatus:  StatusNotStarted,
		MarketCap:     cfg.Economy.Start,
		PeakMarketCap: cfg.Economy.Start,
		Camera:        Camera{Pos: pos.Sub(Vec2{vw / 2, vh / 2})},
		Player: Player{
			Pos:           pos,
			Width:         pc.Width,
			Height:        pc.Height,
			Health:        pc.Health,
			MaxHealth:     pc.Health,
			Level:         1,
			XPToNextLevel: cfg.Threshold(1),
			Weapons:       []Weapon{{Type: WeaponMissile, Level: 1}},
			Facing:        Vec2{1, 0},
		},
		Rng: seedRNG(seed),
	}
}

// Start begins a NotStarted run.
func Start(s *WorldState) (*WorldState, error) {
	if s.Status != StatusNotStarted {
		return s, fmt.Errorf("start from %s: %w", s.Status, ErrWrongStatus)
	}
	n := s.Clone()
	n.Status = StatusPlaying
	n.ResumeStatus = StatusPlaying
	return n, nil
}

// Pause suspends a Playing or BossFight run.
func Pause(s *WorldState) (*WorldState, error) {
	if !s.Status.Simulating() {
		return s, fmt.Errorf("pause from %s: %w", s.Status, ErrWrongStatus)
	}
	n := s.Clone()
	n.ResumeStatus = n.Status
	n.Status = StatusPaused
	return n, nil
}

// Resume returns a Paused run to the status it was paused from.
func Resume(s *WorldState) (*WorldState, error) {
	if s.Status != StatusPaused {
		return s, fmt.Errorf("resume from %s: %w", s.Status, ErrWrongStatus)
	}
	n := s.Clone()
	n.Status = n.ResumeStatus
	return n, nil
}

// ShowLeaderboard moves a finished run to the leaderboard screen.
func ShowLeaderboard(s *WorldState) (*WorldState, error) {
	if s.Status != StatusGameOver && s.Status != StatusVictory {
		return s, fmt.Errorf("leaderboard from %s: %w", s.Status, ErrWrongStatus)
	}
	n := s.Clone()
	n.Status = StatusShowingLeaderboard
	return n, nil
}

// ApplyUpgrade applies one chosen level-up option. When no level-ups remain
// pending the run returns to the status it left.
func ApplyUpgrade(s *WorldState, opt UpgradeOption, cfg *Config) (*WorldState, error) {
	if s.Status != StatusLevelingUp {
		return s, fmt.Errorf("upgrade from %s: %w", s.Status, ErrWrongStatus)
	}
	if !applicable(s, opt, cfg) {
		return s, fmt.Errorf("%s: %w", Describe(opt, cfg), ErrInvalidUpgrade)
	}
	n := s.Clone()
	p := &n.Player
	switch opt.Kind {
	case UpgradeLevel:
		p.Weapon(opt.Weapon).Level++
	case UpgradeNew:
		p.Weapons = append(p.Weapons, Weapon{Type: opt.Weapon, Level: 1})
	case UpgradeHeal:
		p.Health = p.MaxHealth
	}
	n.LastSkill = &Message{Text: Describe(opt, cfg), Life: cfg.Messages.SkillLife}
	n.emit(EventUpgradeSelected, Describe(opt, cfg), p.Pos)

	// the next pending level-up gets a fresh draw
	n.Rng = xorshift(n.Rng)
	n.PendingLevelUps--
	if n.PendingLevelUps <= 0 {
		n.PendingLevelUps = 0
		n.Status = n.ResumeStatus
	}
	return n, nil
}

// RunSummary is the end-of-run result handed to the leaderboard.
type RunSummary struct {
	Score        float64
	PeakBalance  float64
	Kills        int
	Level        int
	Duration     float64
	BossDefeated bool
	Victory      bool
}

// Summary reports the run's result. Meaningful once the run is terminal.
func Summary(s *WorldState) RunSummary {
	return RunSummary{
		Score:        s.MarketCap,
		PeakBalance:  s.PeakMarketCap,
		Kills:        s.Kills,
		Level:        s.Player.Level,
		Duration:     s.GameTime,
		BossDefeated: s.BossDefeated,
		Victory:      s.Status == StatusVictory || (s.Status == StatusShowingLeaderboard && s.ResumeStatus == StatusVictory),
	}
}
