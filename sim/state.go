package sim

import "math"

// Status is the run-level state machine. Exactly one is active at a time.
type Status int

const (
	StatusNotStarted Status = iota
	StatusPlaying
	StatusPaused
	StatusLevelingUp
	StatusBossFight
	StatusGameOver
	StatusVictory
	StatusShowingLeaderboard
)

var statusNames = [...]string{
	StatusNotStarted:         "not_started",
	StatusPlaying:            "playing",
	StatusPaused:             "paused",
	StatusLevelingUp:         "leveling_up",
	StatusBossFight:          "boss_fight",
	StatusGameOver:           "game_over",
	StatusVictory:            "victory",
	StatusShowingLeaderboard: "showing_leaderboard",
}

func (s Status) String() string {
	if s < 0 || int(s) >= len(statusNames) {
		return "unknown"
	}
	return statusNames[s]
}

// Simulating reports whether Step runs its sub-phases in this status.
func (s Status) Simulating() bool {
	return s == StatusPlaying || s == StatusBossFight
}

// Terminal reports whether the run has ended.
func (s Status) Terminal() bool {
	return s == StatusGameOver || s == StatusVictory || s == StatusShowingLeaderboard
}

// WeaponType identifies a weapon
type WeaponType int

const (
	WeaponMissile WeaponType = iota // seeking projectile
	WeaponAura                      // damage + slow field around the player
	WeaponBots                      // orbiting bots
	WeaponLaser                     // channeled beam
	WeaponAirdrop                   // delayed area strike
	weaponTypeCount
)

var weaponNames = [...]string{
	WeaponMissile: "missile",
	WeaponAura:    "aura",
	WeaponBots:    "bots",
	WeaponLaser:   "laser",
	WeaponAirdrop: "airdrop",
}

func (w WeaponType) String() string {
	if w < 0 || int(w) >= len(weaponNames) {
		return "unknown"
	}
	return weaponNames[w]
}

// Weapon is one owned weapon instance.
type Weapon struct {
	Type  WeaponType
	Level int
	Timer float64 // accumulates delta; fires when it crosses the cooldown
}

// ItemKind is the discriminant of the Item tagged union.
type ItemKind int

const (
	ItemCandle  ItemKind = iota // activates a rotating beam; carries a CandleVariant
	ItemBonk                    // timed global berserk
	ItemDevLock                 // stun + taunt every enemy
)

func (k ItemKind) String() string {
	switch k {
	case ItemCandle:
		return "candle"
	case ItemBonk:
		return "bonk"
	case ItemDevLock:
		return "dev_lock"
	}
	return "unknown"
}

// CandleVariant is the sub-behaviour of a candle beam activation.
type CandleVariant int

const (
	CandleUnassigned CandleVariant = iota
	CandleDoubleMaxHealth
	CandlePlusMaxHealth
	CandleStunAll
)

func (v CandleVariant) String() string {
	switch v {
	case CandleDoubleMaxHealth:
		return "double_max_health"
	case CandlePlusMaxHealth:
		return "plus_max_health"
	case CandleStunAll:
		return "stun_all"
	}
	return "unassigned"
}

// Item is a pickup payload. Variant is only meaningful for ItemCandle.
type Item struct {
	Kind    ItemKind
	Variant CandleVariant
}

// Player is the single player entity
type Player struct {
	Pos           Vec2
	Width, Height float64
	Health        float64
	MaxHealth     float64
	Level         int
	XP            float64
	XPToNextLevel float64 // +Inf past the end of the level table
	Weapons       []Weapon
	Facing        Vec2  // last non-zero movement direction
	Held          *Item // held consumable, activated by the use-item input
}

// Radius is the circle used for circle tests against the player.
func (p *Player) Radius() float64 {
	return math.Min(p.Width, p.Height) / 2
}

// Weapon returns the owned weapon of the given type, or nil.
func (p *Player) Weapon(t WeaponType) *Weapon {
	for i := range p.Weapons {
		if p.Weapons[i].Type == t {
			return &p.Weapons[i]
		}
	}
	return nil
}

// EnemyKind identifies an enemy archetype
type EnemyKind int

const (
	EnemyJeet EnemyKind = iota
	EnemyPaperHands
	EnemyBear
	EnemyWhale
	EnemyBoss
)

func (k EnemyKind) String() string {
	switch k {
	case EnemyJeet:
		return "jeet"
	case EnemyPaperHands:
		return "paper_hands"
	case EnemyBear:
		return "bear"
	case EnemyWhale:
		return "whale"
	case EnemyBoss:
		return "boss"
	}
	return "unknown"
}

// Bubble is a transient speech bubble over an enemy.
type Bubble struct {
	Text string
	Life float64
}

// Enemy is a hostile entity
type Enemy struct {
	ID        int
	Kind      EnemyKind
	Pos       Vec2
	Size      float64
	Health    float64
	MaxHealth float64
	Speed     float64
	Damage    float64 // contact damage per step
	XP        float64
	Boss      bool
	Upgraded  bool

	// LastHit is the game time each continuous-damage weapon last hit this enemy.
	LastHit map[WeaponType]float64

	Knockback      Vec2
	KnockbackTimer float64
	StunTimer      float64
	Bubble         *Bubble
}

// Owner tells which side fired a projectile.
type Owner int

const (
	OwnerPlayer Owner = iota
	OwnerEnemy
)

// Projectile is either homing (TargetID != 0) or flies along Dir.
type Projectile struct {
	ID       int
	Pos      Vec2
	Size     float64
	Damage   float64
	Speed    float64
	Owner    Owner
	TargetID int
	Dir      Vec2 // fixed direction, or last implied direction while homing
	Boss     bool // capsule hit test instead of point-circle
	Life     float64
	Spent    bool
}

// ExperienceGem is dropped by dead enemies.
type ExperienceGem struct {
	ID    int
	Pos   Vec2
	Value float64
	Large bool
}

// Airdrop is a delayed-impact area attack. It never moves in world space;
// the fall from Start to Target is a rendering interpolation over Timer.
type Airdrop struct {
	ID       int
	Start    Vec2
	Target   Vec2
	Timer    float64
	MaxTimer float64
	Radius   float64
	Damage   float64
	Landed   bool
}

// ItemDrop is an item lying in the world.
type ItemDrop struct {
	ID        int
	Pos       Vec2
	Item      Item
	Collected bool
}

// ActiveItem is an activated, time-limited rotating beam.
type ActiveItem struct {
	ID     int
	Item   Item
	Life   float64
	Angle  float64
	HitIDs []int // enemies already hit this activation
}

func (a *ActiveItem) hit(id int) bool {
	for _, h := range a.HitIDs {
		if h == id {
			return true
		}
	}
	return false
}

// EffectKind identifies a timed shape
type EffectKind int

const (
	EffectExplosion EffectKind = iota
	EffectShockwave
	EffectReticle
	EffectRedCandleWarning
	EffectRedCandleStrike
)

// Axis is the screen axis of a line attack.
type Axis int

const (
	AxisVertical   Axis = iota // band around a fixed x
	AxisHorizontal             // band around a fixed y
)

// VisualEffect is a timed shape. Shockwaves and red candle strikes deal damage.
type VisualEffect struct {
	ID        int
	Kind      EffectKind
	Pos       Vec2 // centre; for line attacks only the axis coordinate matters
	Radius    float64
	MaxRadius float64
	Life      float64
	MaxLife   float64
	Axis      Axis
	Width     float64
	HitPlayer bool
}

// FloatingText is a short-lived label in world space.
type FloatingText struct {
	Pos  Vec2
	Text string
	Life float64
}

// BossPhaseState holds the independent boss attack countdowns.
type BossPhaseState struct {
	ShockwaveTimer  float64
	AddsTimer       float64
	VolatilityTimer float64
	RangedTimer     float64
	RedCandleTimer  float64
}

// ScheduledStrike is the execute half of a telegraphed red candle.
type ScheduledStrike struct {
	At   float64
	Axis Axis
	Line float64
}

// Barrage is the berserk airdrop sub-event.
type Barrage struct {
	Remaining int
	NextIn    float64
}

// LaserState is the channeled beam's activation state.
type LaserState struct {
	Active   bool
	Critical bool
	TargetID int
}

// Shake is a camera shake offset applied by the renderer.
type Shake struct {
	Timer     float64
	Duration  float64
	Intensity float64
}

// Camera is the top-left world position of the viewport.
type Camera struct {
	Pos   Vec2
	Shake Shake
}

// Message is a timed UI message.
type Message struct {
	Text string
	Life float64
}

// EventKind names a one-shot UI event.
type EventKind string

const (
	EventHardMode        EventKind = "hard_mode"
	EventPaperHands      EventKind = "paper_hands_upgrade"
	EventBossWarning     EventKind = "boss_warning"
	EventBossDefeated    EventKind = "boss_defeated"
	EventLevelUp         EventKind = "level_up"
	EventItemUsed        EventKind = "item_used"
	EventRareDrop        EventKind = "rare_drop"
	EventGameOver        EventKind = "game_over"
	EventVictory         EventKind = "victory"
	EventBarrage         EventKind = "barrage"
	EventLaserCritical   EventKind = "laser_critical"
	EventVolatility      EventKind = "volatility"
	EventUpgradeSelected EventKind = "upgrade_selected"
)

// Event is emitted during the step that produced it and cleared on the next.
type Event struct {
	Kind EventKind
	Text string
	Pos  Vec2
}

// WorldState is the complete state of one run.
type WorldState struct {
	Status       Status
	ResumeStatus Status // status to return to after Paused / LevelingUp

	GameTime      float64
	MarketCap     float64
	PeakMarketCap float64
	Kills         int

	Camera     Camera
	OrbitAngle float64
	Boss       *BossPhaseState

	HardMode           bool
	PaperHandsUpgraded bool
	BerserkTimer       float64
	DevLockTimer       float64
	BossDefeated       bool
	RareDropped        bool

	PendingLevelUps int

	Player      Player
	Enemies     []Enemy
	Projectiles []Projectile
	Gems        []ExperienceGem
	Airdrops    []Airdrop
	Items       []ItemDrop
	ActiveItems []ActiveItem
	Effects     []VisualEffect
	Texts       []FloatingText
	Strikes     []ScheduledStrike
	Barrage     *Barrage
	Laser       LaserState

	Banner    *Message
	LastSkill *Message
	Events    []Event

	NextID int
	Rng    uint64
}

// Berserk reports whether the timed berserk status is active.
func (s *WorldState) Berserk() bool { return s.BerserkTimer > 0 }

func (s *WorldState) newID() int {
	s.NextID++
	return s.NextID
}

func (s *WorldState) emit(kind EventKind, text string, pos Vec2) {
	s.Events = append(s.Events, Event{Kind: kind, Text: text, Pos: pos})
}

func (s *WorldState) enemyByID(id int) *Enemy {
	if id == 0 {
		return nil
	}
	for i := range s.Enemies {
		if s.Enemies[i].ID == id {
			return &s.Enemies[i]
		}
	}
	return nil
}

func (s *WorldState) bossEnemy() *Enemy {
	for i := range s.Enemies {
		if s.Enemies[i].Boss {
			return &s.Enemies[i]
		}
	}
	return nil
}

// Clone returns a deep copy, so a step never mutates a state the caller
// (renderer, host) may still be reading.
func (s *WorldState) Clone() *WorldState {
	c := *s

	c.Player.Weapons = cloneSlice(s.Player.Weapons)
	if s.Player.Held != nil {
		h := *s.Player.Held
		c.Player.Held = &h
	}

	if s.Boss != nil {
		b := *s.Boss
		c.Boss = &b
	}
	if s.Barrage != nil {
		b := *s.Barrage
		c.Barrage = &b
	}
	if s.Banner != nil {
		m := *s.Banner
		c.Banner = &m
	}
	if s.LastSkill != nil {
		m := *s.LastSkill
		c.LastSkill = &m
	}

	c.Enemies = nil
	if s.Enemies != nil {
		c.Enemies = make([]Enemy, len(s.Enemies))
	}
	for i, e := range s.Enemies {
		if e.LastHit != nil {
			lh := make(map[WeaponType]float64, len(e.LastHit))
			for k, v := range e.LastHit {
				lh[k] = v
			}
			e.LastHit = lh
		}
		if e.Bubble != nil {
			b := *e.Bubble
			e.Bubble = &b
		}
		c.Enemies[i] = e
	}

	c.ActiveItems = cloneSlice(s.ActiveItems)
	for i := range c.ActiveItems {
		c.ActiveItems[i].HitIDs = cloneSlice(c.ActiveItems[i].HitIDs)
	}

	c.Projectiles = cloneSlice(s.Projectiles)
	c.Gems = cloneSlice(s.Gems)
	c.Airdrops = cloneSlice(s.Airdrops)
	c.Items = cloneSlice(s.Items)
	c.Effects = cloneSlice(s.Effects)
	c.Texts = cloneSlice(s.Texts)
	c.Strikes = cloneSlice(s.Strikes)
	c.Events = cloneSlice(s.Events)
	return &c
}

// cloneSlice copies a slice, keeping nil as nil.
func cloneSlice[T any](in []T) []T {
	if in == nil {
		return nil
	}
	return append(make([]T, 0, len(in)), in...)
}
