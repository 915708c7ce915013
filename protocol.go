package main

import (
	"encoding/json"

	"github.com/aryipc/trenchsurvivors-sub000/sim"
)

// Client -> Server message types
const (
	MsgStart       = "start"
	MsgInput       = "input"
	MsgPause       = "pause"
	MsgResume      = "resume"
	MsgUpgrade     = "upgrade"
	MsgLeaderboard = "leaderboard"
	MsgRegister    = "register"
	MsgLogin       = "login"
	MsgAuth        = "auth"
	MsgSettingsGet = "settings_get"
	MsgSettingsSet = "settings_set"
	MsgProfile     = "profile"
	MsgControl     = "control" // phone controller attach
)

// Server -> Client message types
const (
	MsgStarted     = "started"
	MsgUpgrades    = "upgrades"    // level-up choices
	MsgRunOver     = "run_over"    // results after GameOver or Victory
	MsgScores      = "scores"      // leaderboard rows
	MsgSettings    = "settings"    // settings_get reply
	MsgProfileData = "profile_data"
	MsgAuthOK      = "auth_ok"
	MsgControlOK   = "control_ok"
	MsgCtrlOn      = "ctrl_on"  // notify desktop: controller attached
	MsgCtrlOff     = "ctrl_off" // notify desktop: controller detached
	MsgError       = "error"
)

// Envelope wraps all outgoing JSON messages with a type field
type Envelope struct {
	T    string      `json:"t"`
	Data interface{} `json:"d,omitempty"`
}

// InEnvelope is used for incoming messages; D is decoded per type.
type InEnvelope struct {
	T string          `json:"t"`
	D json.RawMessage `json:"d,omitempty"`
}

// ViewportMsg is the client's canvas size.
type ViewportMsg struct {
	W    float64 `json:"w"`
	H    float64 `json:"h"`
	Zoom float64 `json:"zoom"`
}

// StartMsg begins a new run, replacing any current one.
type StartMsg struct {
	Viewport ViewportMsg `json:"view"`
	Seed     uint64      `json:"seed,omitempty"` // 0 = random
}

// StartedMsg confirms a new run.
type StartedMsg struct {
	RunID string `json:"run"`
	Seed  uint64 `json:"seed"`
}

// InputMsg is the client's input snapshot. Keys lists the held keys.
type InputMsg struct {
	MX   float64  `json:"mx"` // joystick, each axis in [-1, 1]
	MY   float64  `json:"my"`
	Keys []string `json:"keys,omitempty"`
	Use  bool     `json:"use,omitempty"` // use-item pressed since the last message
}

// UpgradeMsg picks one of the offered level-up choices.
type UpgradeMsg struct {
	Index int `json:"i"`
}

// UpgradeChoice is one level-up option as shown to the player.
type UpgradeChoice struct {
	Kind   string `json:"kind"`
	Weapon string `json:"weapon,omitempty"`
	Level  int    `json:"level,omitempty"`
	Label  string `json:"label"`
}

// UpgradesMsg lists the pending level-up choices.
type UpgradesMsg struct {
	Pending int             `json:"pending"`
	Options []UpgradeChoice `json:"options"`
}

// RunOverMsg reports the end-of-run results.
type RunOverMsg struct {
	Victory      bool             `json:"victory"`
	Score        float64          `json:"score"`
	ScoreText    string           `json:"score_text"`
	Peak         float64          `json:"peak"`
	Kills        int              `json:"kills"`
	Level        int              `json:"level"`
	Duration     float64          `json:"duration"`
	BossDefeated bool             `json:"boss"`
	NewHigh      bool             `json:"new_high"`
	Achievements []AchievementDef `json:"achievements,omitempty"`
}

type RegisterMsg struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginMsg struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type AuthMsg struct {
	Token string `json:"token"`
}

type AuthOKMsg struct {
	Token string `json:"token"`
	Identity
}

// SettingMsg is used by settings_get (Value ignored) and settings_set.
type SettingMsg struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// ScoresMsg carries the leaderboard.
type ScoresMsg struct {
	Entries []LeaderboardEntry `json:"entries"`
}

// ControlMsg is sent by a phone controller to attach to a run
type ControlMsg struct {
	RunID string `json:"run"`
}

// ErrorMsg sends error to client
type ErrorMsg struct {
	Msg string `json:"msg"`
}

// StateFrame is the msgpack-encoded snapshot sent every broadcast tick.
// Field names are kept short; the frame goes out many times per second.
type StateFrame struct {
	Tick        uint64            `msgpack:"tick"`
	Status      string            `msgpack:"st"`
	Time        float64           `msgpack:"t"`
	MarketCap   float64           `msgpack:"mc"`
	Peak        float64           `msgpack:"pk"`
	Kills       int               `msgpack:"k"`
	Camera      [2]float64        `msgpack:"cam"`
	Shake       float64           `msgpack:"sh"` // current shake intensity, 0 when still
	HardMode    bool              `msgpack:"hm,omitempty"`
	Berserk     float64           `msgpack:"bz,omitempty"`
	DevLock     float64           `msgpack:"dl,omitempty"`
	Player      PlayerFrame       `msgpack:"p"`
	Enemies     []EnemyFrame      `msgpack:"e"`
	Projectiles []ProjectileFrame `msgpack:"pr"`
	Gems        []GemFrame        `msgpack:"g"`
	Items       []ItemFrame       `msgpack:"it"`
	Airdrops    []AirdropFrame    `msgpack:"ad"`
	Beams       []BeamFrame       `msgpack:"bm"`
	Effects     []EffectFrame     `msgpack:"fx"`
	Texts       []TextFrame       `msgpack:"tx"`
	Orbit       float64           `msgpack:"ob"`
	Laser       *LaserFrame       `msgpack:"lz,omitempty"`
	Banner      string            `msgpack:"bn,omitempty"`
	Skill       string            `msgpack:"sk,omitempty"`
	Events      []EventFrame      `msgpack:"ev,omitempty"`
}

type PlayerFrame struct {
	X       float64       `msgpack:"x"`
	Y       float64       `msgpack:"y"`
	HP      float64       `msgpack:"hp"`
	MaxHP   float64       `msgpack:"mhp"`
	Level   int           `msgpack:"lv"`
	XP      float64       `msgpack:"xp"`
	NextXP  float64       `msgpack:"nx"` // -1 past the level table
	Facing  float64       `msgpack:"f"`  // radians
	Weapons []WeaponFrame `msgpack:"w"`
	Held    string        `msgpack:"hd,omitempty"`
}

type WeaponFrame struct {
	Type  string `msgpack:"t"`
	Level int    `msgpack:"l"`
}

type EnemyFrame struct {
	ID     int     `msgpack:"id"`
	Kind   string  `msgpack:"k"`
	X      float64 `msgpack:"x"`
	Y      float64 `msgpack:"y"`
	Size   float64 `msgpack:"s"`
	HP     float64 `msgpack:"hp"`
	MaxHP  float64 `msgpack:"mhp"`
	Up     bool    `msgpack:"up,omitempty"`
	Stun   bool    `msgpack:"sn,omitempty"`
	Bubble string  `msgpack:"b,omitempty"`
}

type ProjectileFrame struct {
	ID    int     `msgpack:"id"`
	X     float64 `msgpack:"x"`
	Y     float64 `msgpack:"y"`
	R     float64 `msgpack:"r"` // heading radians
	Size  float64 `msgpack:"s"`
	Enemy bool    `msgpack:"en,omitempty"`
	Boss  bool    `msgpack:"bo,omitempty"`
}

type GemFrame struct {
	X     float64 `msgpack:"x"`
	Y     float64 `msgpack:"y"`
	Large bool    `msgpack:"l,omitempty"`
}

type ItemFrame struct {
	ID   int     `msgpack:"id"`
	X    float64 `msgpack:"x"`
	Y    float64 `msgpack:"y"`
	Kind string  `msgpack:"k"`
}

type AirdropFrame struct {
	X        float64 `msgpack:"x"`
	Y        float64 `msgpack:"y"`
	Progress float64 `msgpack:"p"` // 0 at release, 1 on landing
	Radius   float64 `msgpack:"r"`
}

type BeamFrame struct {
	X       float64 `msgpack:"x"`
	Y       float64 `msgpack:"y"`
	Angle   float64 `msgpack:"a"`
	Variant string  `msgpack:"v"`
}

type EffectFrame struct {
	Kind   int     `msgpack:"k"`
	X      float64 `msgpack:"x"`
	Y      float64 `msgpack:"y"`
	Radius float64 `msgpack:"r"`
	Life   float64 `msgpack:"l"` // remaining share of the lifetime, 0..1
	Axis   int     `msgpack:"ax,omitempty"`
	Width  float64 `msgpack:"w,omitempty"`
}

type TextFrame struct {
	X    float64 `msgpack:"x"`
	Y    float64 `msgpack:"y"`
	Text string  `msgpack:"t"`
}

type LaserFrame struct {
	TX       float64 `msgpack:"x"`
	TY       float64 `msgpack:"y"`
	Critical bool    `msgpack:"c,omitempty"`
}

type EventFrame struct {
	Kind string `msgpack:"k"`
	Text string `msgpack:"t,omitempty"`
}

// NewStateFrame converts a world state into its wire form.
func NewStateFrame(s *sim.WorldState, tick uint64) StateFrame {
	p := &s.Player
	f := StateFrame{
		Tick:        tick,
		Status:      s.Status.String(),
		Time:        s.GameTime,
		MarketCap:   s.MarketCap,
		Peak:        s.PeakMarketCap,
		Kills:       s.Kills,
		Camera:      [2]float64{s.Camera.Pos.X, s.Camera.Pos.Y},
		HardMode:    s.HardMode,
		Berserk:     s.BerserkTimer,
		DevLock:     s.DevLockTimer,
		Orbit:       s.OrbitAngle,
		Enemies:     make([]EnemyFrame, 0, len(s.Enemies)),
		Projectiles: make([]ProjectileFrame, 0, len(s.Projectiles)),
		Gems:        make([]GemFrame, 0, len(s.Gems)),
		Items:       make([]ItemFrame, 0, len(s.Items)),
		Airdrops:    make([]AirdropFrame, 0, len(s.Airdrops)),
		Beams:       make([]BeamFrame, 0, len(s.ActiveItems)),
		Effects:     make([]EffectFrame, 0, len(s.Effects)),
		Texts:       make([]TextFrame, 0, len(s.Texts)),
	}
	if sh := s.Camera.Shake; sh.Timer > 0 && sh.Duration > 0 {
		f.Shake = sh.Intensity * sh.Timer / sh.Duration
	}

	f.Player = PlayerFrame{
		X: p.Pos.X, Y: p.Pos.Y,
		HP: p.Health, MaxHP: p.MaxHealth,
		Level: p.Level, XP: p.XP, NextXP: p.XPToNextLevel,
		Facing: angle(p.Facing),
	}
	if !finiteFloat(f.Player.NextXP) {
		f.Player.NextXP = -1
	}
	for _, w := range p.Weapons {
		f.Player.Weapons = append(f.Player.Weapons, WeaponFrame{Type: w.Type.String(), Level: w.Level})
	}
	if p.Held != nil {
		f.Player.Held = p.Held.Variant.String()
	}

	for i := range s.Enemies {
		e := &s.Enemies[i]
		ef := EnemyFrame{
			ID: e.ID, Kind: e.Kind.String(),
			X: e.Pos.X, Y: e.Pos.Y, Size: e.Size,
			HP: e.Health, MaxHP: e.MaxHealth,
			Up: e.Upgraded, Stun: e.StunTimer > 0,
		}
		if e.Bubble != nil {
			ef.Bubble = e.Bubble.Text
		}
		f.Enemies = append(f.Enemies, ef)
	}
	for _, pr := range s.Projectiles {
		f.Projectiles = append(f.Projectiles, ProjectileFrame{
			ID: pr.ID, X: pr.Pos.X, Y: pr.Pos.Y, R: angle(pr.Dir), Size: pr.Size,
			Enemy: pr.Owner == sim.OwnerEnemy, Boss: pr.Boss,
		})
	}
	for _, g := range s.Gems {
		f.Gems = append(f.Gems, GemFrame{X: g.Pos.X, Y: g.Pos.Y, Large: g.Large})
	}
	for _, it := range s.Items {
		f.Items = append(f.Items, ItemFrame{ID: it.ID, X: it.Pos.X, Y: it.Pos.Y, Kind: it.Item.Kind.String()})
	}
	for _, a := range s.Airdrops {
		progress := 1.0
		if a.MaxTimer > 0 {
			progress = 1 - a.Timer/a.MaxTimer
		}
		f.Airdrops = append(f.Airdrops, AirdropFrame{X: a.Target.X, Y: a.Target.Y, Progress: progress, Radius: a.Radius})
	}
	for _, b := range s.ActiveItems {
		f.Beams = append(f.Beams, BeamFrame{X: p.Pos.X, Y: p.Pos.Y, Angle: b.Angle, Variant: b.Item.Variant.String()})
	}
	for _, fx := range s.Effects {
		life := 0.0
		if fx.MaxLife > 0 {
			life = fx.Life / fx.MaxLife
		}
		f.Effects = append(f.Effects, EffectFrame{
			Kind: int(fx.Kind), X: fx.Pos.X, Y: fx.Pos.Y, Radius: fx.Radius,
			Life: life, Axis: int(fx.Axis), Width: fx.Width,
		})
	}
	for _, t := range s.Texts {
		f.Texts = append(f.Texts, TextFrame{X: t.Pos.X, Y: t.Pos.Y, Text: t.Text})
	}
	if s.Laser.Active {
		if t := findEnemy(s, s.Laser.TargetID); t != nil {
			f.Laser = &LaserFrame{TX: t.Pos.X, TY: t.Pos.Y, Critical: s.Laser.Critical}
		}
	}
	if s.Banner != nil {
		f.Banner = s.Banner.Text
	}
	if s.LastSkill != nil {
		f.Skill = s.LastSkill.Text
	}
	for _, ev := range s.Events {
		f.Events = append(f.Events, EventFrame{Kind: string(ev.Kind), Text: ev.Text})
	}
	return f
}

// NewUpgradeChoices labels the level-up options for display.
func NewUpgradeChoices(opts []sim.UpgradeOption, cfg *sim.Config) []UpgradeChoice {
	out := make([]UpgradeChoice, 0, len(opts))
	for _, o := range opts {
		c := UpgradeChoice{Label: sim.Describe(o, cfg)}
		switch o.Kind {
		case sim.UpgradeLevel:
			c.Kind, c.Weapon, c.Level = "level", o.Weapon.String(), o.Level
		case sim.UpgradeNew:
			c.Kind, c.Weapon, c.Level = "new", o.Weapon.String(), o.Level
		default:
			c.Kind = "heal"
		}
		out = append(out, c)
	}
	return out
}
