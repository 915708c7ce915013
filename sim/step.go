// Package sim is the deterministic per-frame simulation of a trench
// survivors run. Step is a pure function of (state, delta, input, viewport,
// config); it does no I/O and keeps its randomness in the state.
package sim

import "math"

// stepper carries the per-call context through the phases of one Step.
type stepper struct {
	s    *WorldState
	cfg  *Config
	view Viewport
	in   StepInput
	dt   float64
	grid *SpatialGrid
	buf  []int
}

// Step advances a run by dt seconds and returns the next state. prev is
// never modified. Outside Playing and BossFight the state is returned
// unchanged apart from clearing last step's events.
func Step(prev *WorldState, dt float64, in StepInput, view Viewport, cfg *Config) *WorldState {
	s := prev.Clone()
	s.Events = s.Events[:0]
	if !s.Status.Simulating() {
		return s
	}
	if !finite(dt) || dt < 0 {
		dt = 0
	}

	st := &stepper{
		s:    s,
		cfg:  cfg,
		view: view,
		in:   in,
		dt:   dt,
		grid: NewSpatialGrid(cfg.World.Width, cfg.World.Height),
	}
	st.decay()
	st.movePlayer()
	st.economy()
	st.bossPhase()
	st.spawnEnemies()
	st.scriptedEvents()
	st.fireWeapons()
	st.moveEntities()
	st.resolveCollisions()
	st.pickups()
	st.finish()
	return s
}

// decay runs every countdown down by dt before anything reads it.
func (st *stepper) decay() {
	s, dt := st.s, st.dt
	s.GameTime += dt

	if s.LastSkill != nil {
		if s.LastSkill.Life -= dt; s.LastSkill.Life <= 0 {
			s.LastSkill = nil
		}
	}
	if s.Banner != nil {
		if s.Banner.Life -= dt; s.Banner.Life <= 0 {
			s.Banner = nil
		}
	}
	s.BerserkTimer = math.Max(0, s.BerserkTimer-dt)
	s.DevLockTimer = math.Max(0, s.DevLockTimer-dt)
	if s.Camera.Shake.Timer -= dt; s.Camera.Shake.Timer <= 0 {
		s.Camera.Shake = Shake{}
	}

	for i := range s.Texts {
		s.Texts[i].Life -= dt
	}
	for i := range s.Effects {
		s.Effects[i].Life -= dt
	}
	for i := range s.ActiveItems {
		s.ActiveItems[i].Life -= dt
	}
	for i := range s.Projectiles {
		s.Projectiles[i].Life -= dt
	}
	for i := range s.Enemies {
		e := &s.Enemies[i]
		e.StunTimer = math.Max(0, e.StunTimer-dt)
		if e.KnockbackTimer -= dt; e.KnockbackTimer <= 0 {
			e.KnockbackTimer = 0
			e.Knockback = Vec2{}
		}
		if e.Bubble != nil {
			if e.Bubble.Life -= dt; e.Bubble.Life <= 0 {
				e.Bubble = nil
			}
		}
	}
	if b := s.Boss; b != nil {
		b.ShockwaveTimer -= dt
		b.AddsTimer -= dt
		b.VolatilityTimer -= dt
		b.RangedTimer -= dt
		b.RedCandleTimer -= dt
	}
}

// finish applies the terminal check, leveling, and the end-of-step
// compaction of every transient collection.
func (st *stepper) finish() {
	s, cfg := st.s, st.cfg
	p := &s.Player

	p.Health = Clamp(p.Health, 0, p.MaxHealth)
	if s.MarketCap > s.PeakMarketCap {
		s.PeakMarketCap = s.MarketCap
	}
	st.compact()

	switch {
	case p.Health <= 0:
		st.endRun(StatusGameOver, EventGameOver, "liquidated")
		return
	case s.Status == StatusBossFight && s.MarketCap <= cfg.Economy.Start:
		st.endRun(StatusGameOver, EventGameOver, "rugged")
		return
	case s.Status == StatusPlaying && s.BossDefeated && s.MarketCap >= cfg.Economy.VictoryAt:
		st.endRun(StatusVictory, EventVictory, "market cap "+FormatMarketCap(s.MarketCap))
		return
	}

	gained := 0
	for p.XP >= p.XPToNextLevel {
		p.XP -= p.XPToNextLevel
		p.Level++
		p.XPToNextLevel = cfg.Threshold(p.Level)
		p.MaxHealth += cfg.Leveling.HealthPerLevel
		p.Health = math.Min(p.MaxHealth, p.Health+cfg.Leveling.HealPerLevel)
		gained++
	}
	if gained > 0 {
		s.PendingLevelUps += gained
		s.ResumeStatus = s.Status
		s.Status = StatusLevelingUp
		s.emit(EventLevelUp, levelText(p.Level), p.Pos)
	}
}

func (st *stepper) endRun(status Status, kind EventKind, text string) {
	s := st.s
	s.Status = status
	s.ResumeStatus = status
	s.Laser = LaserState{}
	s.emit(kind, text, s.Player.Pos)
}

func (st *stepper) compact() {
	s := st.s

	n := 0
	for _, e := range s.Enemies {
		if e.Health > 0 {
			s.Enemies[n] = e
			n++
		}
	}
	s.Enemies = s.Enemies[:n]

	n = 0
	for _, p := range s.Projectiles {
		if !p.Spent && p.Life > 0 && st.inWorld(p.Pos, 200) {
			s.Projectiles[n] = p
			n++
		}
	}
	s.Projectiles = s.Projectiles[:n]

	n = 0
	for _, a := range s.Airdrops {
		if !a.Landed {
			s.Airdrops[n] = a
			n++
		}
	}
	s.Airdrops = s.Airdrops[:n]

	n = 0
	for _, it := range s.Items {
		if !it.Collected {
			s.Items[n] = it
			n++
		}
	}
	s.Items = s.Items[:n]

	n = 0
	for _, a := range s.ActiveItems {
		if a.Life > 0 {
			s.ActiveItems[n] = a
			n++
		}
	}
	s.ActiveItems = s.ActiveItems[:n]

	n = 0
	for _, e := range s.Effects {
		if e.Life > 0 {
			s.Effects[n] = e
			n++
		}
	}
	s.Effects = s.Effects[:n]

	n = 0
	for _, t := range s.Texts {
		if t.Life > 0 {
			s.Texts[n] = t
			n++
		}
	}
	s.Texts = s.Texts[:n]
}

func (st *stepper) inWorld(p Vec2, margin float64) bool {
	w := st.cfg.World
	return p.X >= -margin && p.X <= w.Width+margin && p.Y >= -margin && p.Y <= w.Height+margin
}

func (st *stepper) addText(pos Vec2, text string) {
	st.s.Texts = append(st.s.Texts, FloatingText{Pos: pos, Text: text, Life: st.cfg.Messages.TextLife})
}

func (st *stepper) banner(text string) {
	st.s.Banner = &Message{Text: text, Life: st.cfg.Messages.BannerLife}
}

func (st *stepper) skill(text string) {
	st.s.LastSkill = &Message{Text: text, Life: st.cfg.Messages.SkillLife}
}

func (st *stepper) shake(duration, intensity float64) {
	sh := &st.s.Camera.Shake
	if duration >= sh.Timer {
		sh.Timer = duration
		sh.Duration = duration
	}
	sh.Intensity = math.Max(sh.Intensity, intensity)
}
