package sim

import "testing"

func placeItem(s *WorldState, pos Vec2, it Item) {
	s.Items = append(s.Items, ItemDrop{ID: s.newID(), Pos: pos, Item: it})
}

func TestGemsCollectedInRange(t *testing.T) {
	cfg := testConfig()
	s := playingRun(t, cfg)
	p := s.Player.Pos
	s.Gems = []ExperienceGem{
		{ID: s.newID(), Pos: p.Add(Vec2{30, 0}), Value: 2},
		{ID: s.newID(), Pos: p.Add(Vec2{300, 0}), Value: 3},
	}

	s = Step(s, 0.016, StepInput{}, DefaultViewport(), cfg)
	if s.Player.XP != 2 {
		t.Errorf("xp = %f, want 2", s.Player.XP)
	}
	if len(s.Gems) != 1 || s.Gems[0].Value != 3 {
		t.Errorf("expected only the far gem left, got %+v", s.Gems)
	}
}

func TestBonkGrantsBerserk(t *testing.T) {
	cfg := testConfig()
	s := playingRun(t, cfg)
	placeItem(s, s.Player.Pos, Item{Kind: ItemBonk})

	s = Step(s, 0.016, StepInput{}, DefaultViewport(), cfg)
	if s.BerserkTimer != cfg.Items.BonkDuration {
		t.Errorf("berserk timer = %f, want %f", s.BerserkTimer, cfg.Items.BonkDuration)
	}
	if len(s.Items) != 0 {
		t.Error("bonk not removed from the field")
	}
	if s.LastSkill == nil || !hasEvent(s, EventItemUsed) {
		t.Error("missing skill message or item event")
	}

	s = stepN(s, 110, 0.1, StepInput{}, cfg)
	if s.Berserk() {
		t.Error("berserk outlived its duration")
	}
}

func TestDevLockStunsAndTaunts(t *testing.T) {
	cfg := testConfig()
	s := playingRun(t, cfg)
	e := dummy(s, s.Player.Pos.Add(Vec2{400, 0}), 100)
	e.Speed = 100
	placeItem(s, s.Player.Pos, Item{Kind: ItemDevLock})

	s = Step(s, 0.016, StepInput{}, DefaultViewport(), cfg)
	en := s.Enemies[0]
	if en.StunTimer != cfg.Items.DevLockDuration || s.DevLockTimer != cfg.Items.DevLockDuration {
		t.Fatalf("stun %f dev lock %f, want %f", en.StunTimer, s.DevLockTimer, cfg.Items.DevLockDuration)
	}
	if en.Bubble == nil || en.Bubble.Text == "" {
		t.Error("stunned enemy should taunt")
	}

	pos := en.Pos
	s = stepN(s, 10, 0.1, StepInput{}, cfg)
	if s.Enemies[0].Pos != pos {
		t.Error("stunned enemy moved")
	}
	s = stepN(s, 40, 0.1, StepInput{}, cfg)
	if s.Enemies[0].Pos == pos {
		t.Error("enemy still frozen after the stun")
	}
}

func TestCandleVariantsApply(t *testing.T) {
	cfg := testConfig()

	s := playingRun(t, cfg)
	placeItem(s, s.Player.Pos, Item{Kind: ItemCandle, Variant: CandlePlusMaxHealth})
	s = Step(s, 0.016, StepInput{}, DefaultViewport(), cfg)
	if len(s.ActiveItems) != 1 {
		t.Fatalf("expected an active beam, got %d", len(s.ActiveItems))
	}
	if s.Player.MaxHealth != cfg.Player.Health+cfg.Items.Candle.PlusMaxHealth {
		t.Errorf("max health = %f after plus variant", s.Player.MaxHealth)
	}

	s = playingRun(t, cfg)
	placeItem(s, s.Player.Pos, Item{Kind: ItemCandle, Variant: CandleDoubleMaxHealth})
	s = Step(s, 0.016, StepInput{}, DefaultViewport(), cfg)
	if s.Player.MaxHealth != 2*cfg.Player.Health {
		t.Errorf("max health = %f after double variant", s.Player.MaxHealth)
	}

	s = playingRun(t, cfg)
	dummy(s, s.Player.Pos.Add(Vec2{500, 0}), 100)
	placeItem(s, s.Player.Pos, Item{Kind: ItemCandle, Variant: CandleStunAll})
	s = Step(s, 0.016, StepInput{}, DefaultViewport(), cfg)
	if s.Enemies[0].StunTimer != cfg.Items.Candle.StunDuration {
		t.Errorf("stun = %f after stun variant", s.Enemies[0].StunTimer)
	}
}

func TestUnassignedCandleRollsVariant(t *testing.T) {
	cfg := testConfig()
	s := playingRun(t, cfg)
	placeItem(s, s.Player.Pos, Item{Kind: ItemCandle})

	s = Step(s, 0.016, StepInput{}, DefaultViewport(), cfg)
	if len(s.ActiveItems) != 1 || s.ActiveItems[0].Item.Variant == CandleUnassigned {
		t.Errorf("active candle %+v should carry a rolled variant", s.ActiveItems)
	}
}

func TestBeamHitsOncePerActivation(t *testing.T) {
	cfg := testConfig()
	s := playingRun(t, cfg)
	s.Player.Weapons = nil
	dummy(s, s.Player.Pos.Add(Vec2{150, 0}), 1000)
	placeItem(s, s.Player.Pos, Item{Kind: ItemCandle, Variant: CandleDoubleMaxHealth})

	// the beam sweeps past the enemy several times over its life
	s = stepN(s, 130, 0.05, StepInput{}, cfg)
	if len(s.ActiveItems) != 0 {
		t.Fatal("beam outlived its duration")
	}
	if want := 1000 - cfg.Items.Candle.Damage; s.Enemies[0].Health != want {
		t.Errorf("health = %f, want %f (one hit)", s.Enemies[0].Health, want)
	}
}

func TestHeldCandle(t *testing.T) {
	cfg := testConfig()
	s := playingRun(t, cfg)
	s.Player.Weapons = nil
	placeItem(s, s.Player.Pos, Item{Kind: ItemCandle, Variant: CandlePlusMaxHealth})
	s = Step(s, 0.016, StepInput{}, DefaultViewport(), cfg)

	placeItem(s, s.Player.Pos, Item{Kind: ItemCandle, Variant: CandleStunAll})
	s = Step(s, 0.016, StepInput{}, DefaultViewport(), cfg)
	if s.Player.Held == nil || s.Player.Held.Variant != CandleStunAll {
		t.Fatalf("second candle should be held, got %+v", s.Player.Held)
	}
	if len(s.ActiveItems) != 1 {
		t.Errorf("expected one running beam, got %d", len(s.ActiveItems))
	}

	use := StepInput{UseItemPressed: true}
	s = Step(s, 0.016, use, DefaultViewport(), cfg)
	if s.Player.Held == nil {
		t.Fatal("held candle used while a beam is running")
	}

	s = stepN(s, 70, 0.1, StepInput{}, cfg)
	if len(s.ActiveItems) != 0 {
		t.Fatal("first beam should have expired")
	}
	s = Step(s, 0.016, use, DefaultViewport(), cfg)
	if s.Player.Held != nil || len(s.ActiveItems) != 1 {
		t.Errorf("held candle not activated: held=%+v active=%d", s.Player.Held, len(s.ActiveItems))
	}
}

func TestDropPolicy(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Items.RareChance = 0.5
	cfg.Items.CandleChance = 1
	cfg.Items.MaxCandlesOnField = 1 << 20
	s := playingRun(t, cfg)
	s.MarketCap = cfg.Items.RareMinMarketCap
	st := &stepper{s: s, cfg: cfg}

	rare := 0
	for i := 0; i < 1000; i++ {
		before := len(s.Items)
		st.rollDrops(Vec2{})
		added := s.Items[before:]
		gotRare := false
		for _, it := range added {
			if it.Item.Kind == ItemDevLock {
				gotRare = true
				rare++
			}
		}
		if gotRare && len(added) != 1 {
			t.Fatalf("kill %d: rare drop did not suppress the candle roll: %+v", i, added)
		}
		if !gotRare && len(added) != 1 {
			t.Fatalf("kill %d: expected a candle, got %+v", i, added)
		}
	}
	if rare != 1 {
		t.Errorf("rare item dropped %d times, want exactly 1", rare)
	}
	if !s.RareDropped {
		t.Error("rare flag not set")
	}
}

func TestRareDropGatedByMarketCap(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Items.RareChance = 1
	cfg.Items.CandleChance = 0
	s := playingRun(t, cfg)
	s.MarketCap = cfg.Items.RareMinMarketCap - 1
	st := &stepper{s: s, cfg: cfg}

	for i := 0; i < 100; i++ {
		st.rollDrops(Vec2{})
	}
	if len(s.Items) != 0 || s.RareDropped {
		t.Error("rare item dropped below the market cap gate")
	}
}

func TestCandleFieldCap(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Items.RareChance = 0
	cfg.Items.CandleChance = 1
	s := playingRun(t, cfg)
	st := &stepper{s: s, cfg: cfg}

	for i := 0; i < 50; i++ {
		st.rollDrops(Vec2{})
	}
	if got := st.candlesOnField(); got != cfg.Items.MaxCandlesOnField {
		t.Errorf("candles on field = %d, want cap %d", got, cfg.Items.MaxCandlesOnField)
	}
}
