package sim

// pickups collects gems and item drops in range of the player, then
// handles the use-item input.
func (st *stepper) pickups() {
	s, cfg := st.s, st.cfg
	p := &s.Player

	n := 0
	for _, g := range s.Gems {
		if Distance(g.Pos, p.Pos) <= cfg.Items.GemPickupRadius {
			p.XP += g.Value
			continue
		}
		s.Gems[n] = g
		n++
	}
	s.Gems = s.Gems[:n]

	// collect into a scratch list first: activation can append drops
	var got []Item
	for i := range s.Items {
		it := &s.Items[i]
		if !it.Collected && Distance(it.Pos, p.Pos) <= cfg.Items.PickupRadius {
			it.Collected = true
			got = append(got, it.Item)
		}
	}
	for _, it := range got {
		st.collect(it)
	}

	if st.in.UseItemPressed && p.Held != nil && !st.beamRunning() {
		it := *p.Held
		p.Held = nil
		st.activateCandle(it)
	}
}

func (st *stepper) beamRunning() bool {
	for _, a := range st.s.ActiveItems {
		if a.Item.Kind == ItemCandle && a.Life > 0 {
			return true
		}
	}
	return false
}

// collect applies an item's pickup effect.
func (st *stepper) collect(it Item) {
	s, cfg := st.s, st.cfg
	p := &s.Player
	switch it.Kind {
	case ItemDevLock:
		d := cfg.Items.DevLockDuration
		s.DevLockTimer = d
		for i := range s.Enemies {
			e := &s.Enemies[i]
			if e.StunTimer < d {
				e.StunTimer = d
			}
			e.Bubble = &Bubble{Text: st.pickPhrase("taunt"), Life: d}
		}
		st.skill("DEV LOCK: liquidity locked")
		s.emit(EventItemUsed, ItemDevLock.String(), p.Pos)

	case ItemBonk:
		s.BerserkTimer = cfg.Items.BonkDuration
		st.skill("BONK! berserk mode")
		s.emit(EventItemUsed, ItemBonk.String(), p.Pos)

	case ItemCandle:
		if st.beamRunning() && p.Held == nil {
			h := it
			p.Held = &h
			st.skill("candle stashed")
			return
		}
		st.activateCandle(it)
	}
}

// activateCandle starts a beam and applies the candle variant, rolling one
// when the drop did not carry it.
func (st *stepper) activateCandle(it Item) {
	s, cc := st.s, &st.cfg.Items.Candle
	p := &s.Player

	if it.Variant == CandleUnassigned {
		it.Variant = st.rollVariant()
	}
	s.ActiveItems = append(s.ActiveItems, ActiveItem{
		ID:    s.newID(),
		Item:  it,
		Life:  cc.Duration,
		Angle: angleOf(p.Facing),
	})

	switch it.Variant {
	case CandleDoubleMaxHealth:
		p.MaxHealth *= 2
		st.skill("GREEN CANDLE: max health x2")
	case CandlePlusMaxHealth:
		p.MaxHealth += cc.PlusMaxHealth
		p.Health += cc.PlusMaxHealth
		st.skill("GREEN CANDLE: max health up")
	case CandleStunAll:
		for i := range s.Enemies {
			if e := &s.Enemies[i]; e.StunTimer < cc.StunDuration {
				e.StunTimer = cc.StunDuration
			}
		}
		st.skill("GREEN CANDLE: everyone froze")
	}
	s.emit(EventItemUsed, ItemCandle.String()+":"+it.Variant.String(), p.Pos)
}

func (st *stepper) rollVariant() CandleVariant {
	cc := &st.cfg.Items.Candle
	total := cc.WeightDouble + cc.WeightPlus + cc.WeightStun
	if total <= 0 {
		return CandlePlusMaxHealth
	}
	roll := st.s.randFloat() * total
	switch {
	case roll < cc.WeightDouble:
		return CandleDoubleMaxHealth
	case roll < cc.WeightDouble+cc.WeightPlus:
		return CandlePlusMaxHealth
	default:
		return CandleStunAll
	}
}
