package sim

import (
	"fmt"
	"math"
)

// levelScale is the diminishing cooldown divisor: cooldown / (L*0.75 + 0.25).
func levelScale(lvl int) float64 {
	return float64(lvl)*0.75 + 0.25
}

func missileCooldown(cfg *Config, lvl int) float64 {
	return cfg.Weapons.Missile.Cooldown / levelScale(lvl)
}

func missileRange(cfg *Config, lvl int) float64 {
	m := &cfg.Weapons.Missile
	return m.Range + m.RangePerLvl*float64(lvl)
}

func missileDamage(cfg *Config, lvl int) float64 {
	m := &cfg.Weapons.Missile
	return m.Damage + m.DamagePerLv*float64(lvl)
}

func auraRadius(cfg *Config, lvl int) float64 {
	a := &cfg.Weapons.Aura
	return a.Radius + a.RadiusPerLvl*float64(lvl)
}

func auraDPS(cfg *Config, lvl int) float64 {
	return cfg.Weapons.Aura.DPS * float64(lvl)
}

func botDamage(cfg *Config, lvl int) float64 {
	b := &cfg.Weapons.Bots
	return b.Damage + b.DamagePerLvl*float64(lvl)
}

func laserDamage(cfg *Config, lvl int) float64 {
	l := &cfg.Weapons.Laser
	return l.Damage + l.DamagePerLvl*float64(lvl)
}

func airdropCooldown(cfg *Config, lvl int) float64 {
	return cfg.Weapons.Airdrop.Cooldown / levelScale(lvl)
}

func airdropRadius(cfg *Config, lvl int) float64 {
	a := &cfg.Weapons.Airdrop
	return a.Radius + a.RadiusPerLvl*float64(lvl)
}

func airdropDamage(cfg *Config, lvl int) float64 {
	a := &cfg.Weapons.Airdrop
	return a.Damage + a.DamagePerLvl*float64(lvl)
}

// effectiveLevel is the weapon's level, or max+1 while berserk. Bots keep
// their level; berserk changes their count and speed instead.
func (st *stepper) effectiveLevel(w *Weapon) int {
	if st.s.Berserk() && w.Type != WeaponBots {
		return st.cfg.Weapons.MaxLevel + 1
	}
	return w.Level
}

func (st *stepper) botCount(w *Weapon) int {
	if st.s.Berserk() {
		return st.cfg.Weapons.Bots.BerserkCount
	}
	return w.Level
}

// nearestEnemy returns the closest live enemy within maxDist of p, or nil.
func (st *stepper) nearestEnemy(p Vec2, maxDist float64) *Enemy {
	var best *Enemy
	bestD := math.Inf(1)
	for i := range st.s.Enemies {
		e := &st.s.Enemies[i]
		if e.Health <= 0 {
			continue
		}
		if d := Distance(p, e.Pos); d <= maxDist && d < bestD {
			best, bestD = e, d
		}
	}
	return best
}

// fireWeapons advances every weapon timer and fires the ones that are due.
func (st *stepper) fireWeapons() {
	s, cfg, dt := st.s, st.cfg, st.dt
	p := &s.Player

	for i := range p.Weapons {
		w := &p.Weapons[i]
		w.Timer += dt
		lvl := st.effectiveLevel(w)

		switch w.Type {
		case WeaponMissile:
			if w.Timer < missileCooldown(cfg, lvl) {
				continue
			}
			target := st.nearestEnemy(p.Pos, missileRange(cfg, lvl))
			if target == nil {
				continue
			}
			m := &cfg.Weapons.Missile
			dir := target.Pos.Sub(p.Pos).Norm()
			if dir.IsZero() {
				dir = p.Facing
			}
			s.Projectiles = append(s.Projectiles, Projectile{
				ID:       s.newID(),
				Pos:      p.Pos,
				Size:     m.Size,
				Damage:   missileDamage(cfg, lvl),
				Speed:    m.Speed,
				Owner:    OwnerPlayer,
				TargetID: target.ID,
				Dir:      dir,
				Life:     m.Life,
			})
			w.Timer = 0

		case WeaponAura:
			// damage is continuous; the timer only paces the tick label
			if w.Timer >= cfg.Weapons.Aura.TextInterval {
				w.Timer = 0
				if st.nearestEnemy(p.Pos, auraRadius(cfg, lvl)) != nil {
					st.addText(p.Pos, fmt.Sprintf("-%.0f", auraDPS(cfg, lvl)*cfg.Weapons.Aura.TextInterval))
				}
			}

		case WeaponBots:
			// damage comes from orbit proximity in resolveCollisions

		case WeaponLaser:
			st.updateLaser(w, lvl)

		case WeaponAirdrop:
			if w.Timer < airdropCooldown(cfg, lvl) {
				continue
			}
			if s.Berserk() {
				if s.Barrage == nil {
					s.Barrage = &Barrage{Remaining: cfg.Weapons.Airdrop.BarrageCount}
					s.emit(EventBarrage, "airdrop barrage", p.Pos)
				}
				w.Timer = 0
				continue
			}
			target := st.randomEnemy()
			if target == nil {
				continue
			}
			st.dropAirdrop(target.Pos, lvl)
			w.Timer = 0
		}
	}
}

// updateLaser moves the channel through its cycle, rolls a critical on
// each fresh activation, and retargets the nearest enemy while active.
func (st *stepper) updateLaser(w *Weapon, lvl int) {
	s, lc := st.s, &st.cfg.Weapons.Laser
	if w.Timer >= lc.Cycle {
		w.Timer = math.Mod(w.Timer, lc.Cycle)
	}
	active := s.Berserk() || w.Timer < lc.Cycle*lc.ActiveShare
	if !active {
		s.Laser = LaserState{}
		return
	}
	if !s.Laser.Active {
		s.Laser.Active = true
		s.Laser.Critical = s.randFloat() < lc.CritChance
		if s.Laser.Critical {
			s.emit(EventLaserCritical, "critical laser", s.Player.Pos)
		}
	}
	s.Laser.TargetID = 0
	if t := st.nearestEnemy(s.Player.Pos, lc.Range); t != nil {
		s.Laser.TargetID = t.ID
	}
}

func (st *stepper) randomEnemy() *Enemy {
	s := st.s
	live := 0
	for i := range s.Enemies {
		if s.Enemies[i].Health > 0 {
			live++
		}
	}
	if live == 0 {
		return nil
	}
	n := s.randIntn(live)
	for i := range s.Enemies {
		if s.Enemies[i].Health <= 0 {
			continue
		}
		if n == 0 {
			return &s.Enemies[i]
		}
		n--
	}
	return nil
}

// dropAirdrop schedules an airdrop on target with a reticle marking it.
func (st *stepper) dropAirdrop(target Vec2, lvl int) {
	s, ac := st.s, &st.cfg.Weapons.Airdrop
	s.Airdrops = append(s.Airdrops, Airdrop{
		ID:       s.newID(),
		Start:    Vec2{target.X, target.Y - ac.FallHeight},
		Target:   target,
		Timer:    ac.FallTime,
		MaxTimer: ac.FallTime,
		Radius:   airdropRadius(st.cfg, lvl),
		Damage:   airdropDamage(st.cfg, lvl),
	})
	s.Effects = append(s.Effects, VisualEffect{
		ID:      s.newID(),
		Kind:    EffectReticle,
		Pos:     target,
		Radius:  airdropRadius(st.cfg, lvl),
		Life:    ac.FallTime,
		MaxLife: ac.FallTime,
	})
}
