package sim

import "math"

// economy accrues market cap and fires the one-shot difficulty and boss
// thresholds. It only runs while Playing.
func (st *stepper) economy() {
	s, cfg := st.s, st.cfg
	if s.Status != StatusPlaying {
		return
	}
	s.MarketCap += cfg.Economy.Rate * st.dt

	if !s.HardMode && s.MarketCap >= cfg.Economy.HardModeAt {
		s.HardMode = true
		text := "HARD MODE: jeets are holding harder"
		st.banner(text)
		s.emit(EventHardMode, text, s.Player.Pos)
	}
	if !s.PaperHandsUpgraded && s.MarketCap >= cfg.Economy.PaperHandsAt {
		s.PaperHandsUpgraded = true
		text := "Paper hands got stronger"
		st.banner(text)
		s.emit(EventPaperHands, text, s.Player.Pos)
	}
	if !s.BossDefeated && s.MarketCap >= cfg.Economy.BossAt {
		st.startBoss()
	}
}

func (st *stepper) startBoss() {
	s, cfg := st.s, st.cfg
	bc := &cfg.Boss

	s.Status = StatusBossFight
	pos := clampToWorld(s.Player.Pos.Add(bc.Offset), bc.Size/2, bc.Size/2, cfg)
	boss := Enemy{
		ID:        s.newID(),
		Kind:      EnemyBoss,
		Pos:       pos,
		Size:      bc.Size,
		Health:    bc.Health,
		MaxHealth: bc.Health,
		Speed:     bc.Speed,
		Damage:    bc.Damage,
		XP:        bc.XP,
		Boss:      true,
		Bubble:    &Bubble{Text: st.pickPhrase("boss"), Life: cfg.Messages.BubbleLife},
	}
	s.Enemies = append(s.Enemies, boss)
	s.Boss = &BossPhaseState{
		ShockwaveTimer:  bc.ShockwaveStart,
		AddsTimer:       bc.AddsStart,
		VolatilityTimer: bc.VolatilityStart,
		RangedTimer:     bc.RangedStart,
		RedCandleTimer:  bc.RedCandleStart,
	}
	text := "WARNING: the whale dev has entered the chat"
	st.banner(text)
	s.emit(EventBossWarning, text, pos)
	st.shake(bc.WarningShake, bc.WarningShakeIntensity)
}

// bossPhase fires every boss attack whose countdown expired this step.
func (st *stepper) bossPhase() {
	s, cfg := st.s, st.cfg
	t := s.Boss
	if s.Status != StatusBossFight || t == nil {
		return
	}
	boss := s.bossEnemy()
	if boss == nil || boss.Health <= 0 {
		return
	}
	bc := &cfg.Boss
	player := s.Player.Pos

	if t.VolatilityTimer <= 0 {
		drop := s.randRange(0, bc.VolatilityMaxDrop)
		s.MarketCap = math.Max(0, s.MarketCap-drop)
		text := "-" + FormatMarketCap(drop)
		st.addText(boss.Pos, text)
		s.emit(EventVolatility, text, boss.Pos)
		t.VolatilityTimer = bc.VolatilityInterval
	}

	if t.RangedTimer <= 0 {
		dir := player.Sub(boss.Pos).Norm()
		if dir.IsZero() {
			dir = Vec2{0, 1}
		}
		s.Projectiles = append(s.Projectiles, Projectile{
			ID:     s.newID(),
			Pos:    boss.Pos,
			Size:   bc.RangedSize,
			Damage: bc.RangedDamage,
			Speed:  bc.RangedSpeed,
			Owner:  OwnerEnemy,
			Dir:    dir,
			Boss:   true,
			Life:   bc.RangedLife,
		})
		t.RangedTimer = bc.RangedInterval
	}

	if t.RedCandleTimer <= 0 {
		axis, line := AxisVertical, player.X
		if s.randFloat() < 0.5 {
			axis, line = AxisHorizontal, player.Y
		}
		s.Effects = append(s.Effects, lineEffect(s.newID(), EffectRedCandleWarning, axis, line, bc.RedCandleWidth, bc.RedCandleTelegraph))
		s.Strikes = append(s.Strikes, ScheduledStrike{At: s.GameTime + bc.RedCandleTelegraph, Axis: axis, Line: line})
		t.RedCandleTimer = bc.RedCandleInterval
	}

	if t.ShockwaveTimer <= 0 {
		s.Effects = append(s.Effects, VisualEffect{
			ID:        s.newID(),
			Kind:      EffectShockwave,
			Pos:       boss.Pos,
			MaxRadius: bc.ShockwaveRadius,
			Life:      bc.ShockwaveLife,
			MaxLife:   bc.ShockwaveLife,
		})
		t.ShockwaveTimer = bc.ShockwaveInterval
	}

	if t.AddsTimer <= 0 {
		origin := boss.Pos
		for i := 0; i < bc.AddsCount; i++ {
			off := Vec2{s.randRange(-bc.AddsSpread, bc.AddsSpread), s.randRange(-bc.AddsSpread, bc.AddsSpread)}
			s.Enemies = append(s.Enemies, st.newEnemy(EnemyJeet, origin.Add(off)))
		}
		t.AddsTimer = bc.AddsInterval
	}
}

// scriptedEvents turns due red candle telegraphs into strikes and drips
// out the berserk airdrop barrage.
func (st *stepper) scriptedEvents() {
	s, cfg := st.s, st.cfg
	bc := &cfg.Boss

	n := 0
	for _, sk := range s.Strikes {
		if sk.At <= s.GameTime {
			s.Effects = append(s.Effects, lineEffect(s.newID(), EffectRedCandleStrike, sk.Axis, sk.Line, bc.RedCandleWidth, bc.RedCandleDuration))
			continue
		}
		s.Strikes[n] = sk
		n++
	}
	s.Strikes = s.Strikes[:n]

	b := s.Barrage
	if b == nil {
		return
	}
	b.NextIn -= st.dt
	ac := &cfg.Weapons.Airdrop
	lvl := cfg.Weapons.MaxLevel + 1
	if w := s.Player.Weapon(WeaponAirdrop); w != nil {
		lvl = st.effectiveLevel(w)
	}
	vw, vh := st.view.World()
	for b.NextIn <= 0 && b.Remaining > 0 {
		target := Vec2{
			X: s.Camera.Pos.X + s.randFloat()*vw,
			Y: s.Camera.Pos.Y + s.randFloat()*vh,
		}
		target = clampToWorld(target, 0, 0, cfg)
		st.dropAirdrop(target, lvl)
		b.Remaining--
		b.NextIn += ac.BarrageInterval
	}
	if b.Remaining <= 0 {
		s.Barrage = nil
	}
}

// defeatBoss resolves the boss's death: back to Playing with the post-boss
// market cap and a guaranteed BONK drop where it fell.
func (st *stepper) defeatBoss(boss *Enemy) {
	s, cfg := st.s, st.cfg
	s.Status = StatusPlaying
	s.Boss = nil
	s.Strikes = nil
	s.MarketCap = cfg.Economy.PostBoss
	s.BossDefeated = true
	st.dropItem(boss.Pos, Item{Kind: ItemBonk})
	text := "BOSS DEFEATED: market cap " + FormatMarketCap(s.MarketCap)
	st.banner(text)
	s.emit(EventBossDefeated, text, boss.Pos)
	st.shake(cfg.Boss.WarningShake, cfg.Boss.WarningShakeIntensity)
}

func lineEffect(id int, kind EffectKind, axis Axis, line, width, life float64) VisualEffect {
	pos := Vec2{X: line}
	if axis == AxisHorizontal {
		pos = Vec2{Y: line}
	}
	return VisualEffect{ID: id, Kind: kind, Pos: pos, Axis: axis, Width: width, Life: life, MaxLife: life}
}
