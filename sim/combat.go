package sim

import (
	"fmt"
	"math"
)

// canHit reports whether a gated weapon may hit e again and, if so,
// stamps the hit time.
func canHit(e *Enemy, t WeaponType, now, cooldown float64) bool {
	if last, ok := e.LastHit[t]; ok && now-last < cooldown {
		return false
	}
	if e.LastHit == nil {
		e.LastHit = make(map[WeaponType]float64)
	}
	e.LastHit[t] = now
	return true
}

// queryEnemies returns indexes of live enemies whose body may touch the
// circle (p, r). The slice is reused between calls.
func (st *stepper) queryEnemies(p Vec2, r float64) []int {
	st.buf = st.grid.QueryBuf(p, r, st.buf[:0])
	return st.buf
}

// resolveCollisions judges everything against the post-movement snapshot
// and then converts dead enemies into gems and drops.
func (st *stepper) resolveCollisions() {
	s, cfg, dt := st.s, st.cfg, st.dt
	p := &s.Player
	pr := p.Radius()
	s.buildGrid(st.grid)

	if w := p.Weapon(WeaponAura); w != nil {
		lvl := st.effectiveLevel(w)
		r := auraRadius(cfg, lvl)
		dmg := auraDPS(cfg, lvl) * dt
		for _, i := range st.queryEnemies(p.Pos, r) {
			e := &s.Enemies[i]
			if e.Health > 0 && Distance(e.Pos, p.Pos) <= r+e.Size/2 {
				e.Health -= dmg
			}
		}
	}

	if w := p.Weapon(WeaponBots); w != nil {
		bc := &cfg.Weapons.Bots
		n := st.botCount(w)
		dmg := botDamage(cfg, w.Level)
		for k := 0; k < n; k++ {
			bot := st.botPos(k, n)
			for _, i := range st.queryEnemies(bot, bc.BotRadius) {
				e := &s.Enemies[i]
				if e.Health <= 0 || !CirclesOverlap(bot, bc.BotRadius, e.Pos, e.Size/2) {
					continue
				}
				if canHit(e, WeaponBots, s.GameTime, bc.HitCooldown) {
					e.Health -= dmg
				}
			}
		}
	}

	if w := p.Weapon(WeaponLaser); w != nil && s.Laser.Active {
		lc := &cfg.Weapons.Laser
		if e := s.enemyByID(s.Laser.TargetID); e != nil && e.Health > 0 && Distance(e.Pos, p.Pos) <= lc.Range+e.Size/2 {
			if canHit(e, WeaponLaser, s.GameTime, lc.Tick) {
				dmg := laserDamage(cfg, st.effectiveLevel(w))
				if s.Laser.Critical {
					dmg *= lc.CritMult
				}
				e.Health -= dmg
			}
		}
	}

	cc := &cfg.Items.Candle
	for ai := range s.ActiveItems {
		a := &s.ActiveItems[ai]
		if a.Item.Kind != ItemCandle || a.Life <= 0 {
			continue
		}
		tip := p.Pos.Add(FromAngle(a.Angle).Scale(cc.Length))
		mid := p.Pos.Add(tip).Scale(0.5)
		for _, i := range st.queryEnemies(mid, cc.Length/2+cc.HalfWidth) {
			e := &s.Enemies[i]
			if e.Health <= 0 || a.hit(e.ID) {
				continue
			}
			if CapsuleHit(e.Pos, e.Size/2, p.Pos, tip, cc.HalfWidth) {
				e.Health -= cc.Damage
				a.HitIDs = append(a.HitIDs, e.ID)
			}
		}
	}

	for pi := range s.Projectiles {
		proj := &s.Projectiles[pi]
		if proj.Owner != OwnerPlayer || proj.Spent || proj.Life <= 0 {
			continue
		}
		for _, i := range st.queryEnemies(proj.Pos, proj.Size/2) {
			e := &s.Enemies[i]
			if e.Health > 0 && CirclesOverlap(proj.Pos, proj.Size/2, e.Pos, e.Size/2) {
				e.Health -= proj.Damage
				proj.Spent = true
				break
			}
		}
	}

	for ai := range s.Airdrops {
		if a := &s.Airdrops[ai]; a.Landed {
			st.detonate(a)
		}
	}

	for pi := range s.Projectiles {
		proj := &s.Projectiles[pi]
		if proj.Owner != OwnerEnemy || proj.Spent || proj.Life <= 0 {
			continue
		}
		var hit bool
		if proj.Boss {
			tail := proj.Pos.Sub(proj.Dir.Scale(cfg.Boss.RangedCapsuleLength))
			hit = CapsuleHit(p.Pos, pr, tail, proj.Pos, proj.Size/2)
		} else {
			hit = Distance(proj.Pos, p.Pos) <= pr
		}
		if hit {
			p.Health -= proj.Damage
			proj.Spent = true
		}
	}

	// contact damage is deliberately not cooldown gated: every overlapping
	// enemy hits every step
	for i := range s.Enemies {
		e := &s.Enemies[i]
		if e.Health > 0 && CirclesOverlap(e.Pos, e.Size/2, p.Pos, pr) {
			p.Health -= e.Damage
		}
	}

	bc := &cfg.Boss
	for i := range s.Effects {
		fx := &s.Effects[i]
		if fx.Life <= 0 {
			continue
		}
		switch fx.Kind {
		case EffectShockwave:
			if !fx.HitPlayer && RingHit(Distance(p.Pos, fx.Pos), fx.Radius, bc.ShockwaveBand) {
				p.Health -= bc.ShockwaveDamage
				fx.HitPlayer = true
			}
		case EffectRedCandleStrike:
			line := fx.Pos.X
			if fx.Axis == AxisHorizontal {
				line = fx.Pos.Y
			}
			if BandHit(p.Pos, pr, fx.Axis, line, fx.Width) {
				p.Health -= bc.RedCandleDPS * dt
			}
		}
	}
	p.Health = math.Max(0, p.Health)

	st.resolveDeaths()
}

// botPos returns the world position of bot k of n.
func (st *stepper) botPos(k, n int) Vec2 {
	a := st.s.OrbitAngle + 2*math.Pi*float64(k)/float64(n)
	return st.s.Player.Pos.Add(FromAngle(a).Scale(st.cfg.Weapons.Bots.OrbitRadius))
}

// detonate resolves a landed airdrop against every enemy in its blast.
func (st *stepper) detonate(a *Airdrop) {
	s, cfg := st.s, st.cfg
	ac := &cfg.Weapons.Airdrop
	for _, i := range st.queryEnemies(a.Target, a.Radius) {
		e := &s.Enemies[i]
		if e.Health <= 0 || Distance(e.Pos, a.Target) > a.Radius+e.Size/2 {
			continue
		}
		e.Health -= a.Damage
		if e.Boss {
			continue
		}
		dir := e.Pos.Sub(a.Target).Norm()
		if dir.IsZero() {
			dir = Vec2{0, -1}
		}
		e.Knockback = dir.Scale(ac.Knockback)
		e.KnockbackTimer = ac.KnockbackTime
	}
	s.Effects = append(s.Effects, VisualEffect{
		ID:        s.newID(),
		Kind:      EffectExplosion,
		Pos:       a.Target,
		MaxRadius: a.Radius,
		Life:      ac.ExplosionLife,
		MaxLife:   ac.ExplosionLife,
	})
	if len(s.Items) < ac.BonusFieldCap && s.randFloat() < ac.BonusChance {
		st.dropItem(a.Target, Item{Kind: ItemCandle})
	}
	st.shake(ac.ShakeDuration, ac.ShakeIntensity)
}

// resolveDeaths turns every enemy at or below zero health into a gem and
// rolls its drops. Dead enemies are filtered out here so pickups and the
// terminal check see the survivors only.
func (st *stepper) resolveDeaths() {
	s, cfg := st.s, st.cfg
	n := 0
	for i := range s.Enemies {
		e := s.Enemies[i]
		if e.Health > 0 {
			s.Enemies[n] = e
			n++
			continue
		}
		s.Kills++
		s.Gems = append(s.Gems, ExperienceGem{
			ID:    s.newID(),
			Pos:   e.Pos,
			Value: e.XP,
			Large: e.XP >= cfg.Items.LargeGemValue,
		})
		if e.Boss {
			st.defeatBoss(&e)
			continue
		}
		st.rollDrops(e.Pos)
	}
	s.Enemies = s.Enemies[:n]
	if s.Laser.TargetID != 0 && s.enemyByID(s.Laser.TargetID) == nil {
		s.Laser.TargetID = 0
	}
}

// rollDrops applies the per-kill drop policy. The rare dev-lock drops at
// most once per run and, when it does, skips the candle roll.
func (st *stepper) rollDrops(pos Vec2) {
	s, ic := st.s, &st.cfg.Items
	if !s.RareDropped && s.MarketCap >= ic.RareMinMarketCap && s.randFloat() < ic.RareChance {
		s.RareDropped = true
		st.dropItem(pos, Item{Kind: ItemDevLock})
		s.emit(EventRareDrop, "DEV LOCK dropped", pos)
		return
	}
	if st.candlesOnField() < ic.MaxCandlesOnField && s.randFloat() < ic.CandleChance {
		st.dropItem(pos, Item{Kind: ItemCandle})
	}
}

func (st *stepper) candlesOnField() int {
	n := 0
	for _, it := range st.s.Items {
		if it.Item.Kind == ItemCandle && !it.Collected {
			n++
		}
	}
	return n
}

func (st *stepper) dropItem(pos Vec2, it Item) {
	s := st.s
	s.Items = append(s.Items, ItemDrop{ID: s.newID(), Pos: pos, Item: it})
}

func levelText(lvl int) string {
	return fmt.Sprintf("LEVEL %d", lvl)
}
