package sim

const spawnPhraseChance = 0.1 // chance a fresh enemy says something

// Enemy chatter pools keyed by situation
var enemyPhrases = map[string][]string{
	"spawn": {
		"selling the top",
		"this is going to zero",
		"ngmi",
		"took profits lol",
		"rug incoming",
		"exit liquidity spotted",
	},
	"taunt": {
		"wait, the dev locked it?",
		"can't sell, send help",
		"my keys my... oh no",
		"liquidity is locked??",
		"i'm stuck in the trenches",
	},
	"boss": {
		"time to dump my bags",
		"your chart ends here",
		"i AM the liquidity",
	},
}

// pickPhrase selects a phrase without chance gate
func (st *stepper) pickPhrase(pool string) string {
	return st.pickPhraseChance(pool, 1)
}

// pickPhraseChance selects a phrase from a pool with a chance gate.
func (st *stepper) pickPhraseChance(pool string, chance float64) string {
	s := st.s
	if chance < 1 && s.randFloat() > chance {
		return ""
	}
	phrases := enemyPhrases[pool]
	if len(phrases) == 0 {
		return ""
	}
	return phrases[s.randIntn(len(phrases))]
}

var spawnKinds = [...]EnemyKind{EnemyJeet, EnemyPaperHands, EnemyBear, EnemyWhale}

// spawnEnemies rolls at most one spawn per step. The expected interval
// shrinks linearly with game time down to a floor.
func (st *stepper) spawnEnemies() {
	s, cfg, dt := st.s, st.cfg, st.dt
	sc := &cfg.Spawn
	if s.Status != StatusPlaying || dt <= 0 || len(s.Enemies) >= sc.MaxEnemies {
		return
	}
	interval := 1 - s.GameTime/sc.RampSeconds
	if interval < sc.MinInterval {
		interval = sc.MinInterval
	}
	if s.randFloat() >= dt/interval {
		return
	}
	kind, ok := st.pickKind()
	if !ok {
		return
	}
	e := st.newEnemy(kind, st.edgePoint())
	if text := st.pickPhraseChance("spawn", spawnPhraseChance); text != "" {
		e.Bubble = &Bubble{Text: text, Life: cfg.Messages.BubbleLife}
	}
	s.Enemies = append(s.Enemies, e)
}

// pickKind draws a weighted enemy kind from the pool unlocked so far.
func (st *stepper) pickKind() (EnemyKind, bool) {
	s, cfg := st.s, st.cfg
	total := 0.0
	for _, k := range spawnKinds {
		if t := cfg.tier(k); t.UnlockAt <= s.GameTime && t.Weight > 0 {
			total += t.Weight
		}
	}
	if total <= 0 {
		return 0, false
	}
	roll := s.randFloat() * total
	last := EnemyJeet
	for _, k := range spawnKinds {
		t := cfg.tier(k)
		if t.UnlockAt > s.GameTime || t.Weight <= 0 {
			continue
		}
		last = k
		if roll < t.Weight {
			return k, true
		}
		roll -= t.Weight
	}
	return last, true
}

// edgePoint returns a point just outside one of the four edges of the
// visible area.
func (st *stepper) edgePoint() Vec2 {
	s := st.s
	m := st.cfg.Spawn.EdgeMargin
	vw, vh := st.view.World()
	cam := s.Camera.Pos
	switch s.randIntn(4) {
	case 0: // top
		return Vec2{cam.X + s.randFloat()*vw, cam.Y - m}
	case 1: // bottom
		return Vec2{cam.X + s.randFloat()*vw, cam.Y + vh + m}
	case 2: // left
		return Vec2{cam.X - m, cam.Y + s.randFloat()*vh}
	default: // right
		return Vec2{cam.X + vw + m, cam.Y + s.randFloat()*vh}
	}
}

// newEnemy builds an enemy of kind at pos, using the upgraded stat line
// once the matching difficulty flag is set.
func (st *stepper) newEnemy(kind EnemyKind, pos Vec2) Enemy {
	s := st.s
	t := st.cfg.tier(kind)
	stats := t.EnemyStats
	upgraded := (kind == EnemyJeet && s.HardMode) || (kind == EnemyPaperHands && s.PaperHandsUpgraded)
	if upgraded && t.Upgraded != nil {
		stats = *t.Upgraded
	} else {
		upgraded = false
	}
	return Enemy{
		ID:        s.newID(),
		Kind:      kind,
		Pos:       pos,
		Size:      stats.Size,
		Health:    stats.Health,
		MaxHealth: stats.Health,
		Speed:     stats.Speed,
		Damage:    stats.Damage,
		XP:        stats.XP,
		Upgraded:  upgraded,
	}
}
