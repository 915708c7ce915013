package sim

import "fmt"

// UpgradeKind is what a level-up option does.
type UpgradeKind int

const (
	UpgradeLevel UpgradeKind = iota // raise an owned weapon one level
	UpgradeNew                      // add an unowned weapon at level 1
	UpgradeHeal                     // fallback when nothing can be upgraded
)

// UpgradeOption is one level-up candidate.
type UpgradeOption struct {
	Kind   UpgradeKind
	Weapon WeaponType
	Level  int // level the weapon will have after the upgrade
}

const (
	maxUpgradeOptions = 3
	ownedWeight       = 3.0
	unownedWeight     = 1.0
)

var allWeapons = [...]WeaponType{WeaponMissile, WeaponAura, WeaponBots, WeaponLaser, WeaponAirdrop}

// UpgradeOptions returns 1 to 3 level-up candidates. Owned weapons below max
// level are weighted over unowned ones, and unowned weapons are only offered
// while the owned-type cap has room. The result depends only on s, so
// repeated calls for the same state agree.
func UpgradeOptions(s *WorldState, cfg *Config) []UpgradeOption {
	type cand struct {
		opt UpgradeOption
		w   float64
	}
	p := &s.Player
	var pool []cand
	for _, w := range p.Weapons {
		if w.Level < cfg.Weapons.MaxLevel {
			pool = append(pool, cand{UpgradeOption{Kind: UpgradeLevel, Weapon: w.Type, Level: w.Level + 1}, ownedWeight})
		}
	}
	if len(p.Weapons) < cfg.Weapons.MaxOwned {
		for _, t := range allWeapons {
			if p.Weapon(t) == nil {
				pool = append(pool, cand{UpgradeOption{Kind: UpgradeNew, Weapon: t, Level: 1}, unownedWeight})
			}
		}
	}
	if len(pool) == 0 {
		return []UpgradeOption{{Kind: UpgradeHeal}}
	}

	rng := newLocalRNG(s.Rng ^ uint64(p.Level)<<32 ^ uint64(s.PendingLevelUps))
	var out []UpgradeOption
	for len(out) < maxUpgradeOptions && len(pool) > 0 {
		total := 0.0
		for _, c := range pool {
			total += c.w
		}
		roll := rng.Float64() * total
		pick := len(pool) - 1
		for i, c := range pool {
			if roll < c.w {
				pick = i
				break
			}
			roll -= c.w
		}
		out = append(out, pool[pick].opt)
		pool = append(pool[:pick], pool[pick+1:]...)
	}
	return out
}

func applicable(s *WorldState, opt UpgradeOption, cfg *Config) bool {
	p := &s.Player
	switch opt.Kind {
	case UpgradeLevel:
		w := p.Weapon(opt.Weapon)
		return w != nil && w.Level < cfg.Weapons.MaxLevel
	case UpgradeNew:
		return opt.Weapon >= 0 && opt.Weapon < weaponTypeCount &&
			p.Weapon(opt.Weapon) == nil && len(p.Weapons) < cfg.Weapons.MaxOwned
	case UpgradeHeal:
		return true
	}
	return false
}

var weaponTitles = map[WeaponType]string{
	WeaponMissile: "Sell Wall Missile",
	WeaponAura:    "Diamond Hands Aura",
	WeaponBots:    "Sniper Bots",
	WeaponLaser:   "Laser Eyes",
	WeaponAirdrop: "Airdrop",
}

// Describe returns the label for an option. Unknown weapons or levels fall
// back to a generic template.
func Describe(opt UpgradeOption, cfg *Config) string {
	if opt.Kind == UpgradeHeal {
		return "Refill: restore full health"
	}
	title, ok := weaponTitles[opt.Weapon]
	if !ok || opt.Level < 1 || opt.Level > cfg.Weapons.MaxLevel {
		return fmt.Sprintf("Upgrade %s to level %d", opt.Weapon, opt.Level)
	}
	lvl := opt.Level
	var detail string
	switch opt.Weapon {
	case WeaponMissile:
		detail = sprintf("%.0f dmg, every %.2fs, range %.0f",
			missileDamage(cfg, lvl), missileCooldown(cfg, lvl), missileRange(cfg, lvl))
	case WeaponAura:
		detail = sprintf("%.0f dmg/s in %.0f radius, slows", auraDPS(cfg, lvl), auraRadius(cfg, lvl))
	case WeaponBots:
		detail = sprintf("%d bots, %.0f dmg each", lvl, botDamage(cfg, lvl))
	case WeaponLaser:
		detail = sprintf("%.0f dmg per tick, range %.0f", laserDamage(cfg, lvl), cfg.Weapons.Laser.Range)
	case WeaponAirdrop:
		detail = sprintf("%.0f dmg in %.0f radius, every %.2fs",
			airdropDamage(cfg, lvl), airdropRadius(cfg, lvl), airdropCooldown(cfg, lvl))
	}
	if opt.Kind == UpgradeNew {
		return sprintf("NEW %s: %s", title, detail)
	}
	return sprintf("%s Lv.%d: %s", title, lvl, detail)
}
