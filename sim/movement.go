package sim

import "math"

func (st *stepper) movePlayer() {
	s, cfg, dt := st.s, st.cfg, st.dt
	p := &s.Player

	dir := st.in.Direction()
	if !dir.IsZero() {
		p.Facing = dir
	}
	p.Pos = p.Pos.Add(dir.Scale(cfg.Player.Speed * dt))
	p.Pos = clampToWorld(p.Pos, p.Width/2, p.Height/2, cfg)

	// exponential smoothing keeps the camera frame-rate independent
	vw, vh := st.view.World()
	target := p.Pos.Sub(Vec2{vw / 2, vh / 2})
	k := 1 - math.Exp(-cfg.Player.CameraSmoothing*dt)
	s.Camera.Pos = s.Camera.Pos.Add(target.Sub(s.Camera.Pos).Scale(k))
}

func clampToWorld(p Vec2, halfW, halfH float64, cfg *Config) Vec2 {
	return Vec2{
		X: Clamp(p.X, halfW, cfg.World.Width-halfW),
		Y: Clamp(p.Y, halfH, cfg.World.Height-halfH),
	}
}

// moveEntities advances projectiles, enemies, airdrop countdowns and the
// rotating and expanding shapes. Nothing is hit-tested here.
func (st *stepper) moveEntities() {
	s, cfg, dt := st.s, st.cfg, st.dt
	player := s.Player.Pos

	for i := range s.Projectiles {
		pr := &s.Projectiles[i]
		if pr.TargetID != 0 {
			if t := s.enemyByID(pr.TargetID); t != nil && t.Health > 0 {
				if d := t.Pos.Sub(pr.Pos).Norm(); !d.IsZero() {
					pr.Dir = d
				}
			} else {
				// target gone: keep flying along the last heading
				pr.TargetID = 0
			}
		}
		pr.Pos = pr.Pos.Add(pr.Dir.Scale(pr.Speed * dt))
	}

	auraR := -1.0
	if w := s.Player.Weapon(WeaponAura); w != nil {
		auraR = auraRadius(cfg, st.effectiveLevel(w))
	}
	for i := range s.Enemies {
		e := &s.Enemies[i]
		if e.Health <= 0 {
			continue
		}
		if e.KnockbackTimer > 0 {
			e.Pos = e.Pos.Add(e.Knockback.Scale(dt))
		}
		if e.StunTimer > 0 {
			continue
		}
		speed := e.Speed
		if auraR >= 0 && Distance(e.Pos, player) <= auraR+e.Size/2 {
			speed *= cfg.Weapons.Aura.Slow
		}
		e.Pos = e.Pos.Add(player.Sub(e.Pos).Norm().Scale(speed * dt))
	}

	for i := range s.Airdrops {
		a := &s.Airdrops[i]
		if a.Timer -= dt; a.Timer <= 0 {
			a.Timer = 0
			a.Landed = true
		}
	}

	botSpeed := cfg.Weapons.Bots.AngularSpeed
	if s.Berserk() {
		botSpeed = cfg.Weapons.Bots.BerserkSpeed
	}
	s.OrbitAngle = math.Mod(s.OrbitAngle+botSpeed*dt, 2*math.Pi)

	for i := range s.ActiveItems {
		a := &s.ActiveItems[i]
		a.Angle = math.Mod(a.Angle+cfg.Items.Candle.AngularSpeed*dt, 2*math.Pi)
	}

	for i := range s.Effects {
		e := &s.Effects[i]
		if (e.Kind == EffectShockwave || e.Kind == EffectExplosion) && e.MaxLife > 0 {
			e.Radius = e.MaxRadius * Clamp(1-e.Life/e.MaxLife, 0, 1)
		}
	}

	for i := range s.Texts {
		s.Texts[i].Pos.Y -= cfg.Messages.TextRise * dt
	}
}
