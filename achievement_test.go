package main

import (
	"context"
	"testing"

	"github.com/aryipc/trenchsurvivors-sub000/sim"
)

func achievementIDs(defs []AchievementDef) map[string]bool {
	ids := make(map[string]bool, len(defs))
	for _, d := range defs {
		ids[d.ID] = true
	}
	return ids
}

func TestCheckAchievementsVictoryRun(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	uid, _ := db.CreateUser(ctx, "erin", "h")

	sum := sim.RunSummary{Score: 1_100_000, PeakBalance: 1_200_000, Kills: 520, Level: 16, Duration: 600, BossDefeated: true, Victory: true}
	if err := db.RecordRun(ctx, "run-1", uid, sum); err != nil {
		t.Fatalf("RecordRun: %v", err)
	}
	got, err := CheckAchievements(ctx, db, uid, sum)
	if err != nil {
		t.Fatalf("CheckAchievements: %v", err)
	}
	ids := achievementIDs(got)
	if len(ids) != len(Achievements) {
		t.Errorf("unlocked %v, want all %d", ids, len(Achievements))
	}

	// Nothing is unlocked twice.
	if err := db.RecordRun(ctx, "run-2", uid, sum); err != nil {
		t.Fatalf("RecordRun: %v", err)
	}
	again, err := CheckAchievements(ctx, db, uid, sum)
	if err != nil {
		t.Fatalf("CheckAchievements: %v", err)
	}
	if len(again) != 0 {
		t.Errorf("re-unlocked %v", achievementIDs(again))
	}
}

func TestCheckAchievementsModestRun(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	uid, _ := db.CreateGuest(ctx, "Guest_feed01")

	sum := sim.RunSummary{Score: 4000, PeakBalance: 9000, Kills: 12, Level: 3, Duration: 45}
	db.RecordRun(ctx, "run-1", uid, sum)
	got, err := CheckAchievements(ctx, db, uid, sum)
	if err != nil {
		t.Fatalf("CheckAchievements: %v", err)
	}
	if len(got) != 1 || got[0].ID != "first_run" {
		t.Errorf("unlocked %v, want only first_run", achievementIDs(got))
	}
}

func TestCheckAchievementsNeedsStoredUser(t *testing.T) {
	got, err := CheckAchievements(context.Background(), nil, 5, sim.RunSummary{Victory: true})
	if got != nil || err != nil {
		t.Errorf("nil db = %v, %v", got, err)
	}
	db := openTestDB(t)
	got, err = CheckAchievements(context.Background(), db, 0, sim.RunSummary{Victory: true})
	if got != nil || err != nil {
		t.Errorf("user 0 = %v, %v", got, err)
	}
}

func TestAchievementIDsUnique(t *testing.T) {
	seen := make(map[string]bool)
	for _, a := range Achievements {
		if seen[a.ID] {
			t.Errorf("duplicate achievement %s", a.ID)
		}
		seen[a.ID] = true
	}
}
