package main

import (
	"context"
	"fmt"

	"github.com/aryipc/trenchsurvivors-sub000/sim"
)

// AchievementDef describes one unlockable achievement.
type AchievementDef struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"desc"`
}

var Achievements = []AchievementDef{
	{"first_run", "Fresh Wallet", "Finish your first run"},
	{"boss_slayer", "Bear Market Over", "Defeat the boss"},
	{"diamond_hands", "Diamond Hands", "Reach a peak market cap of $1,000,000"},
	{"exterminator", "Exterminator", "Get 500 kills in a single run"},
	{"veteran", "Veteran", "Reach level 15 in a single run"},
	{"to_the_moon", "To The Moon", "Win a run"},
}

// CheckAchievements unlocks every achievement the finished run earns and
// returns the newly unlocked ones. The run must already be recorded in the
// profile.
func CheckAchievements(ctx context.Context, db *DB, userID int64, sum sim.RunSummary) ([]AchievementDef, error) {
	if db == nil || userID == 0 {
		return nil, nil
	}
	profile, err := db.GetProfile(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load profile: %w", err)
	}
	existing, err := db.GetAchievements(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load achievements: %w", err)
	}
	has := make(map[string]bool, len(existing))
	for _, id := range existing {
		has[id] = true
	}

	earned := func(id string) bool {
		switch id {
		case "first_run":
			return profile.Runs >= 1
		case "boss_slayer":
			return sum.BossDefeated
		case "diamond_hands":
			return sum.PeakBalance >= 1_000_000
		case "exterminator":
			return sum.Kills >= 500
		case "veteran":
			return sum.Level >= 15
		case "to_the_moon":
			return sum.Victory
		}
		return false
	}

	var unlocked []AchievementDef
	for _, def := range Achievements {
		if has[def.ID] || !earned(def.ID) {
			continue
		}
		ok, err := db.UnlockAchievement(ctx, userID, def.ID)
		if err != nil {
			return unlocked, fmt.Errorf("unlock %s: %w", def.ID, err)
		}
		if ok {
			unlocked = append(unlocked, def)
		}
	}
	return unlocked, nil
}
