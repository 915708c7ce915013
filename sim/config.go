package sim

import (
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"
)

// EnemyStats is one stat line of an enemy archetype.
type EnemyStats struct {
	Size   float64 `yaml:"size"`
	Health float64 `yaml:"health"`
	Speed  float64 `yaml:"speed"`
	Damage float64 `yaml:"damage"` // contact damage applied every overlapping step
	XP     float64 `yaml:"xp"`
}

// EnemyTier is a spawnable archetype with its weighted-pool entry and an
// optional upgraded stat line used once its difficulty flag is set.
type EnemyTier struct {
	EnemyStats `yaml:",inline"`
	Weight     float64     `yaml:"weight"`
	UnlockAt   float64     `yaml:"unlock_at"`
	Upgraded   *EnemyStats `yaml:"upgraded,omitempty"`
}

type WorldConfig struct {
	Width  float64 `yaml:"width"`
	Height float64 `yaml:"height"`
}

type PlayerConfig struct {
	Width           float64 `yaml:"width"`
	Height          float64 `yaml:"height"`
	Speed           float64 `yaml:"speed"`
	Health          float64 `yaml:"health"`
	CameraSmoothing float64 `yaml:"camera_smoothing"`
}

type EconomyConfig struct {
	Start        float64 `yaml:"start"`
	Rate         float64 `yaml:"rate"`
	HardModeAt   float64 `yaml:"hard_mode_at"`
	PaperHandsAt float64 `yaml:"paper_hands_at"`
	BossAt       float64 `yaml:"boss_at"`
	PostBoss     float64 `yaml:"post_boss"`
	VictoryAt    float64 `yaml:"victory_at"`
}

type BossConfig struct {
	EnemyStats `yaml:",inline"`
	Offset     Vec2 `yaml:"offset"`

	WarningShake          float64 `yaml:"warning_shake"`
	WarningShakeIntensity float64 `yaml:"warning_shake_intensity"`

	ShockwaveStart  float64 `yaml:"shockwave_start"`
	AddsStart       float64 `yaml:"adds_start"`
	VolatilityStart float64 `yaml:"volatility_start"`
	RangedStart     float64 `yaml:"ranged_start"`
	RedCandleStart  float64 `yaml:"red_candle_start"`

	ShockwaveInterval float64 `yaml:"shockwave_interval"`
	ShockwaveRadius   float64 `yaml:"shockwave_radius"`
	ShockwaveLife     float64 `yaml:"shockwave_life"`
	ShockwaveBand     float64 `yaml:"shockwave_band"`
	ShockwaveDamage   float64 `yaml:"shockwave_damage"`

	AddsInterval float64 `yaml:"adds_interval"`
	AddsCount    int     `yaml:"adds_count"`
	AddsSpread   float64 `yaml:"adds_spread"`

	VolatilityInterval float64 `yaml:"volatility_interval"`
	VolatilityMaxDrop  float64 `yaml:"volatility_max_drop"`

	RangedInterval      float64 `yaml:"ranged_interval"`
	RangedSpeed         float64 `yaml:"ranged_speed"`
	RangedDamage        float64 `yaml:"ranged_damage"`
	RangedSize          float64 `yaml:"ranged_size"`
	RangedCapsuleLength float64 `yaml:"ranged_capsule_length"`
	RangedLife          float64 `yaml:"ranged_life"`

	RedCandleInterval  float64 `yaml:"red_candle_interval"`
	RedCandleTelegraph float64 `yaml:"red_candle_telegraph"`
	RedCandleDuration  float64 `yaml:"red_candle_duration"`
	RedCandleWidth     float64 `yaml:"red_candle_width"`
	RedCandleDPS       float64 `yaml:"red_candle_dps"`
}

type EnemiesConfig struct {
	Jeet       EnemyTier `yaml:"jeet"`
	PaperHands EnemyTier `yaml:"paper_hands"`
	Bear       EnemyTier `yaml:"bear"`
	Whale      EnemyTier `yaml:"whale"`
}

type SpawnConfig struct {
	MinInterval float64 `yaml:"min_interval"`
	RampSeconds float64 `yaml:"ramp_seconds"`
	MaxEnemies  int     `yaml:"max_enemies"`
	EdgeMargin  float64 `yaml:"edge_margin"`
}

type MissileConfig struct {
	Cooldown    float64 `yaml:"cooldown"`
	Range       float64 `yaml:"range"`
	RangePerLvl float64 `yaml:"range_per_level"`
	Damage      float64 `yaml:"damage"`
	DamagePerLv float64 `yaml:"damage_per_level"`
	Speed       float64 `yaml:"speed"`
	Size        float64 `yaml:"size"`
	Life        float64 `yaml:"life"`
}

type AuraConfig struct {
	Radius       float64 `yaml:"radius"`
	RadiusPerLvl float64 `yaml:"radius_per_level"`
	DPS          float64 `yaml:"dps"` // multiplied by effective level
	Slow         float64 `yaml:"slow"`
	TextInterval float64 `yaml:"text_interval"`
}

type BotsConfig struct {
	BerserkCount int     `yaml:"berserk_count"`
	AngularSpeed float64 `yaml:"angular_speed"`
	BerserkSpeed float64 `yaml:"berserk_speed"`
	OrbitRadius  float64 `yaml:"orbit_radius"`
	BotRadius    float64 `yaml:"bot_radius"`
	Damage       float64 `yaml:"damage"`
	DamagePerLvl float64 `yaml:"damage_per_level"`
	HitCooldown  float64 `yaml:"hit_cooldown"`
}

type LaserConfig struct {
	Cycle        float64 `yaml:"cycle"`
	ActiveShare  float64 `yaml:"active_share"`
	Range        float64 `yaml:"range"`
	Tick         float64 `yaml:"tick"`
	Damage       float64 `yaml:"damage"`
	DamagePerLvl float64 `yaml:"damage_per_level"`
	CritChance   float64 `yaml:"crit_chance"`
	CritMult     float64 `yaml:"crit_mult"`
}

type AirdropConfig struct {
	Cooldown        float64 `yaml:"cooldown"`
	Radius          float64 `yaml:"radius"`
	RadiusPerLvl    float64 `yaml:"radius_per_level"`
	Damage          float64 `yaml:"damage"`
	DamagePerLvl    float64 `yaml:"damage_per_level"`
	FallTime        float64 `yaml:"fall_time"`
	FallHeight      float64 `yaml:"fall_height"`
	Knockback       float64 `yaml:"knockback"`
	KnockbackTime   float64 `yaml:"knockback_time"`
	BonusChance     float64 `yaml:"bonus_chance"`
	BonusFieldCap   int     `yaml:"bonus_field_cap"`
	ShakeDuration   float64 `yaml:"shake_duration"`
	ShakeIntensity  float64 `yaml:"shake_intensity"`
	BarrageCount    int     `yaml:"barrage_count"`
	BarrageInterval float64 `yaml:"barrage_interval"`
	ExplosionLife   float64 `yaml:"explosion_life"`
}

type WeaponsConfig struct {
	MaxLevel int           `yaml:"max_level"`
	MaxOwned int           `yaml:"max_owned"`
	Missile  MissileConfig `yaml:"missile"`
	Aura     AuraConfig    `yaml:"aura"`
	Bots     BotsConfig    `yaml:"bots"`
	Laser    LaserConfig   `yaml:"laser"`
	Airdrop  AirdropConfig `yaml:"airdrop"`
}

type CandleConfig struct {
	Duration      float64 `yaml:"duration"`
	AngularSpeed  float64 `yaml:"angular_speed"`
	Length        float64 `yaml:"length"`
	HalfWidth     float64 `yaml:"half_width"`
	Damage        float64 `yaml:"damage"`
	WeightDouble  float64 `yaml:"weight_double_max_health"`
	WeightPlus    float64 `yaml:"weight_plus_max_health"`
	WeightStun    float64 `yaml:"weight_stun_all"`
	PlusMaxHealth float64 `yaml:"plus_max_health"`
	StunDuration  float64 `yaml:"stun_duration"`
}

type ItemsConfig struct {
	PickupRadius      float64      `yaml:"pickup_radius"`
	GemPickupRadius   float64      `yaml:"gem_pickup_radius"`
	LargeGemValue     float64      `yaml:"large_gem_value"`
	Candle            CandleConfig `yaml:"candle"`
	BonkDuration      float64      `yaml:"bonk_duration"`
	DevLockDuration   float64      `yaml:"dev_lock_duration"`
	RareMinMarketCap  float64      `yaml:"rare_min_market_cap"`
	RareChance        float64      `yaml:"rare_chance"`
	CandleChance      float64      `yaml:"candle_chance"`
	MaxCandlesOnField int          `yaml:"max_candles_on_field"`
}

type LevelingConfig struct {
	Thresholds     []float64 `yaml:"thresholds"`
	HealthPerLevel float64   `yaml:"health_per_level"`
	HealPerLevel   float64   `yaml:"heal_per_level"`
}

type MessagesConfig struct {
	BannerLife float64 `yaml:"banner_life"`
	SkillLife  float64 `yaml:"skill_life"`
	TextLife   float64 `yaml:"text_life"`
	TextRise   float64 `yaml:"text_rise"`
	BubbleLife float64 `yaml:"bubble_life"`
}

// Config is the complete simulation tuning. Step reads it and never writes it.
type Config struct {
	World    WorldConfig    `yaml:"world"`
	Player   PlayerConfig   `yaml:"player"`
	Economy  EconomyConfig  `yaml:"economy"`
	Boss     BossConfig     `yaml:"boss"`
	Enemies  EnemiesConfig  `yaml:"enemies"`
	Spawn    SpawnConfig    `yaml:"spawn"`
	Weapons  WeaponsConfig  `yaml:"weapons"`
	Items    ItemsConfig    `yaml:"items"`
	Leveling LevelingConfig `yaml:"leveling"`
	Messages MessagesConfig `yaml:"messages"`
}

// Viewport is the visible screen area. Spawning and camera targeting depend
// on it, so the host passes it to every step instead of the core reading
// screen globals.
type Viewport struct {
	Width  float64 `yaml:"width"`
	Height float64 `yaml:"height"`
	Zoom   float64 `yaml:"zoom"`
}

// DefaultViewport is used when the host has not reported a screen size yet.
func DefaultViewport() Viewport {
	return Viewport{Width: 1280, Height: 720, Zoom: 1}
}

// World returns the visible world-space size accounting for zoom.
func (v Viewport) World() (w, h float64) {
	z := v.Zoom
	if z <= 0 || !finite(z) {
		z = 1
	}
	return v.Width / z, v.Height / z
}

// DefaultConfig returns the stock tuning.
func DefaultConfig() *Config {
	return &Config{
		World: WorldConfig{Width: 3000, Height: 3000},
		Player: PlayerConfig{
			Width: 40, Height: 40,
			Speed:           220,
			Health:          100,
			CameraSmoothing: 8,
		},
		Economy: EconomyConfig{
			Start:        5000,
			Rate:         1000,
			HardModeAt:   60000,
			PaperHandsAt: 120000,
			BossAt:       200000,
			PostBoss:     500000,
			VictoryAt:    1000000,
		},
		Boss: BossConfig{
			EnemyStats: EnemyStats{Size: 120, Health: 4000, Speed: 55, Damage: 2, XP: 100},
			Offset:     Vec2{0, -400},

			WarningShake:          1,
			WarningShakeIntensity: 12,

			ShockwaveStart:  4,
			AddsStart:       6,
			VolatilityStart: 2,
			RangedStart:     1.5,
			RedCandleStart:  5,

			ShockwaveInterval: 6,
			ShockwaveRadius:   600,
			ShockwaveLife:     2,
			ShockwaveBand:     20,
			ShockwaveDamage:   15,

			AddsInterval: 8,
			AddsCount:    4,
			AddsSpread:   80,

			VolatilityInterval: 2,
			VolatilityMaxDrop:  15000,

			RangedInterval:      2,
			RangedSpeed:         350,
			RangedDamage:        10,
			RangedSize:          12,
			RangedCapsuleLength: 30,
			RangedLife:          6,

			RedCandleInterval:  7,
			RedCandleTelegraph: 1.2,
			RedCandleDuration:  1.5,
			RedCandleWidth:     80,
			RedCandleDPS:       40,
		},
		Enemies: EnemiesConfig{
			Jeet: EnemyTier{
				EnemyStats: EnemyStats{Size: 28, Health: 20, Speed: 90, Damage: 0.3, XP: 1},
				Weight:     50,
				Upgraded:   &EnemyStats{Size: 28, Health: 40, Speed: 110, Damage: 0.5, XP: 2},
			},
			PaperHands: EnemyTier{
				EnemyStats: EnemyStats{Size: 24, Health: 12, Speed: 150, Damage: 0.2, XP: 1},
				Weight:     30,
				UnlockAt:   20,
				Upgraded:   &EnemyStats{Size: 24, Health: 30, Speed: 175, Damage: 0.35, XP: 2},
			},
			Bear: EnemyTier{
				EnemyStats: EnemyStats{Size: 40, Health: 80, Speed: 60, Damage: 0.8, XP: 4},
				Weight:     15,
				UnlockAt:   60,
			},
			Whale: EnemyTier{
				EnemyStats: EnemyStats{Size: 64, Health: 300, Speed: 45, Damage: 1.2, XP: 12},
				Weight:     5,
				UnlockAt:   150,
			},
		},
		Spawn: SpawnConfig{MinInterval: 0.15, RampSeconds: 300, MaxEnemies: 300, EdgeMargin: 50},
		Weapons: WeaponsConfig{
			MaxLevel: 5,
			MaxOwned: 4,
			Missile: MissileConfig{
				Cooldown: 1.2, Range: 350, RangePerLvl: 50,
				Damage: 10, DamagePerLv: 5, Speed: 500, Size: 10, Life: 3,
			},
			Aura: AuraConfig{Radius: 80, RadiusPerLvl: 15, DPS: 8, Slow: 0.5, TextInterval: 1},
			Bots: BotsConfig{
				BerserkCount: 8, AngularSpeed: 3, BerserkSpeed: 6,
				OrbitRadius: 90, BotRadius: 14, Damage: 6, DamagePerLvl: 3, HitCooldown: 0.5,
			},
			Laser: LaserConfig{
				Cycle: 3, ActiveShare: 0.4, Range: 400, Tick: 0.1,
				Damage: 4, DamagePerLvl: 2, CritChance: 0.1, CritMult: 2,
			},
			Airdrop: AirdropConfig{
				Cooldown: 5, Radius: 90, RadiusPerLvl: 10, Damage: 40, DamagePerLvl: 20,
				FallTime: 1, FallHeight: 600, Knockback: 300, KnockbackTime: 0.25,
				BonusChance: 0.1, BonusFieldCap: 3, ShakeDuration: 0.3, ShakeIntensity: 8,
				BarrageCount: 10, BarrageInterval: 0.5, ExplosionLife: 0.4,
			},
		},
		Items: ItemsConfig{
			PickupRadius:    40,
			GemPickupRadius: 60,
			LargeGemValue:   5,
			Candle: CandleConfig{
				Duration: 6, AngularSpeed: 2.5, Length: 300, HalfWidth: 10, Damage: 50,
				WeightDouble: 20, WeightPlus: 50, WeightStun: 30,
				PlusMaxHealth: 25, StunDuration: 3,
			},
			BonkDuration:      10,
			DevLockDuration:   4,
			RareMinMarketCap:  50000,
			RareChance:        0.02,
			CandleChance:      0.05,
			MaxCandlesOnField: 3,
		},
		Leveling: LevelingConfig{
			Thresholds:     []float64{5, 12, 20, 30, 45, 60, 80, 100, 125, 150, 180, 220, 260, 300, 350, 400, 460, 520, 600},
			HealthPerLevel: 10,
			HealPerLevel:   20,
		},
		Messages: MessagesConfig{BannerLife: 3, SkillLife: 2, TextLife: 1, TextRise: 30, BubbleLife: 2},
	}
}

// LoadConfig reads a YAML tuning file over DefaultConfig. Keys absent from
// the file keep their default values.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read tuning %s: %w", path, err)
	}
	if err := yaml.Unmarshal(b, cfg); err != nil {
		return nil, fmt.Errorf("parse tuning %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("tuning %s: %w", path, err)
	}
	return cfg, nil
}

// Validate rejects tuning the step cannot run with.
func (c *Config) Validate() error {
	switch {
	case c.World.Width <= c.Player.Width || c.World.Height <= c.Player.Height:
		return fmt.Errorf("world %gx%g smaller than player", c.World.Width, c.World.Height)
	case c.Weapons.MaxLevel < 1:
		return fmt.Errorf("weapons.max_level must be >= 1, got %d", c.Weapons.MaxLevel)
	case c.Weapons.MaxOwned < 1:
		return fmt.Errorf("weapons.max_owned must be >= 1, got %d", c.Weapons.MaxOwned)
	case c.Spawn.MinInterval <= 0:
		return fmt.Errorf("spawn.min_interval must be > 0")
	case c.Spawn.RampSeconds <= 0:
		return fmt.Errorf("spawn.ramp_seconds must be > 0")
	case c.Weapons.Laser.Cycle <= 0 || c.Weapons.Laser.Tick <= 0:
		return fmt.Errorf("laser cycle and tick must be > 0")
	}
	return nil
}

// Threshold returns the xp needed to leave level lvl; past the end of the
// table leveling stops.
func (c *Config) Threshold(lvl int) float64 {
	if lvl < 1 || lvl > len(c.Leveling.Thresholds) {
		return math.Inf(1)
	}
	return c.Leveling.Thresholds[lvl-1]
}

func (c *Config) tier(k EnemyKind) *EnemyTier {
	switch k {
	case EnemyJeet:
		return &c.Enemies.Jeet
	case EnemyPaperHands:
		return &c.Enemies.PaperHands
	case EnemyBear:
		return &c.Enemies.Bear
	case EnemyWhale:
		return &c.Enemies.Whale
	}
	return nil
}
