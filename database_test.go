package main

import (
	"context"
	"path/filepath"
	"testing"

	"go.uber.org/zap"

	"github.com/aryipc/trenchsurvivors-sub000/sim"
)

// openTestDB opens a migrated SQLite database in a temp dir.
func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := OpenDB(context.Background(), DatabaseConfig{DSN: filepath.Join(t.TempDir(), "test.db")}, zap.NewNop())
	if err != nil {
		t.Fatalf("OpenDB: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func mustUser(t *testing.T, db *DB, name string) int64 {
	t.Helper()
	id, err := db.CreateUser(context.Background(), name, "h")
	if err != nil {
		t.Fatalf("CreateUser(%s): %v", name, err)
	}
	return id
}

func TestPlaceholderRebind(t *testing.T) {
	pg := &DB{dialect: "postgres"}
	got := pg.q("SELECT a FROM t WHERE b = ? AND c = ?")
	if want := "SELECT a FROM t WHERE b = $1 AND c = $2"; got != want {
		t.Errorf("postgres q = %q, want %q", got, want)
	}
	lite := &DB{dialect: "sqlite3"}
	if got := lite.q("x = ?"); got != "x = ?" {
		t.Errorf("sqlite q = %q, want unchanged", got)
	}
}

func TestSQLiteDSNPragmas(t *testing.T) {
	if got := sqliteDSN("a.db"); got[:5] != "a.db?" {
		t.Errorf("sqliteDSN(a.db) = %q", got)
	}
	if got := sqliteDSN("file:a.db?mode=rwc"); got[:19] != "file:a.db?mode=rwc&" {
		t.Errorf("sqliteDSN with query = %q", got)
	}
	if !isPostgres("postgres://u@h/db") || !isPostgres("postgresql://u@h/db") || isPostgres("trench.db") {
		t.Error("isPostgres misclassifies DSNs")
	}
}

func TestMigrationsAreIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "twice.db")
	for i := 0; i < 2; i++ {
		db, err := OpenDB(context.Background(), DatabaseConfig{DSN: path}, zap.NewNop())
		if err != nil {
			t.Fatalf("open %d: %v", i, err)
		}
		db.Close()
	}
}

// ---------- users ----------

func TestUsers(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	id, err := db.CreateUser(ctx, "alice", "hash")
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	if _, err := db.CreateUser(ctx, "alice", "other"); err == nil {
		t.Error("duplicate username should fail")
	}

	u, err := db.GetUserByUsername(ctx, "alice")
	if err != nil || u == nil {
		t.Fatalf("GetUserByUsername = %v, %v", u, err)
	}
	if u.ID != id || u.PassHash != "hash" || u.Guest {
		t.Errorf("user = %+v", u)
	}
	if byID, _ := db.GetUserByID(ctx, id); byID == nil || byID.Username != "alice" {
		t.Errorf("GetUserByID = %+v", byID)
	}
	if missing, err := db.GetUserByUsername(ctx, "bob"); missing != nil || err != nil {
		t.Errorf("missing user = %v, %v; want nil, nil", missing, err)
	}

	gid, err := db.CreateGuest(ctx, "Guest_000001")
	if err != nil {
		t.Fatalf("CreateGuest: %v", err)
	}
	g, _ := db.GetUserByID(ctx, gid)
	if g == nil || !g.Guest || g.PassHash != "" {
		t.Errorf("guest = %+v", g)
	}

	exists, err := db.UsernameExists(ctx, "Guest_000001")
	if err != nil || !exists {
		t.Errorf("UsernameExists = %v, %v", exists, err)
	}
	p, _ := db.GetProfile(ctx, gid)
	if p.DisplayName != "Guest_000001" {
		t.Errorf("guest profile name = %q", p.DisplayName)
	}
}

// ---------- settings and profiles ----------

func TestSettings(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	if v, err := db.GetSetting(ctx, 1, "volume"); v != "" || err != nil {
		t.Errorf("unset setting = %q, %v", v, err)
	}
	db.SetSetting(ctx, 1, "volume", "0.5")
	db.SetSetting(ctx, 1, "volume", "0.8")
	db.SetSetting(ctx, 2, "volume", "0.1")

	if v, _ := db.GetSetting(ctx, 1, "volume"); v != "0.8" {
		t.Errorf("volume for user 1 = %q, want 0.8", v)
	}
	if v, _ := db.GetSetting(ctx, 2, "volume"); v != "0.1" {
		t.Errorf("volume for user 2 = %q, want 0.1", v)
	}
}

func TestProfileMissingIsEmpty(t *testing.T) {
	db := openTestDB(t)
	p, err := db.GetProfile(context.Background(), 99)
	if err != nil {
		t.Fatalf("GetProfile: %v", err)
	}
	if p.UserID != 99 || p.Runs != 0 {
		t.Errorf("profile = %+v", p)
	}
}

func TestRecordRunFoldsIntoProfile(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	uid := mustUser(t, db, "carol")

	runs := []sim.RunSummary{
		{Score: 9000, PeakBalance: 12000, Kills: 40, Level: 6, Duration: 120},
		{Score: 1200000, PeakBalance: 1300000, Kills: 700, Level: 18, Duration: 900, BossDefeated: true, Victory: true},
		{Score: 3000, PeakBalance: 5000, Kills: 5, Level: 2, Duration: 30},
	}
	for i, sum := range runs {
		if err := db.RecordRun(ctx, GenerateUUID(), uid, sum); err != nil {
			t.Fatalf("RecordRun %d: %v", i, err)
		}
	}

	p, _ := db.GetProfile(ctx, uid)
	if p.Runs != 3 || p.Victories != 1 || p.TotalKills != 745 || p.BestLevel != 18 || p.Playtime != 1050 {
		t.Errorf("profile = %+v", p)
	}
}

// ---------- leaderboard ----------

func TestSubmitScoreKeepsBest(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	uid := mustUser(t, db, "dave")

	steps := []struct {
		score, peak float64
		newHigh     bool
	}{
		{10000, 20000, true}, // first score always counts
		{8000, 30000, false},
		{15000, 15000, true},
		{15000, 15000, false}, // ties are not new highs
	}
	for i, s := range steps {
		got, err := db.SubmitScore(ctx, uid, "dave", s.score, s.peak)
		if err != nil {
			t.Fatalf("SubmitScore %d: %v", i, err)
		}
		if got != s.newHigh {
			t.Errorf("SubmitScore %d newHigh = %v, want %v", i, got, s.newHigh)
		}
	}

	top, _ := db.TopScores(ctx, 10)
	if len(top) != 1 {
		t.Fatalf("entries = %d, want 1", len(top))
	}
	if top[0].BestScore != 15000 || top[0].BestPeak != 30000 {
		t.Errorf("entry = %+v, want best 15000 peak 30000", top[0])
	}
}

func TestTopScoresOrderAndLimit(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	for _, e := range []struct {
		name  string
		score float64
	}{{"low", 100}, {"high", 900}, {"mid", 500}} {
		if _, err := db.SubmitScore(ctx, mustUser(t, db, e.name), e.name, e.score, e.score); err != nil {
			t.Fatalf("SubmitScore(%s): %v", e.name, err)
		}
	}

	top, err := db.TopScores(ctx, 2)
	if err != nil {
		t.Fatalf("TopScores: %v", err)
	}
	if len(top) != 2 {
		t.Fatalf("entries = %d, want 2", len(top))
	}
	if top[0].Username != "high" || top[0].Rank != 1 || top[1].Username != "mid" || top[1].Rank != 2 {
		t.Errorf("top = %+v", top)
	}
}

// ---------- achievements ----------

func TestUnlockAchievementOnce(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	uid := mustUser(t, db, "jo")

	first, err := db.UnlockAchievement(ctx, uid, "first_run")
	if err != nil || !first {
		t.Fatalf("first unlock = %v, %v", first, err)
	}
	again, err := db.UnlockAchievement(ctx, uid, "first_run")
	if err != nil || again {
		t.Errorf("second unlock = %v, %v; want false", again, err)
	}
	ids, _ := db.GetAchievements(ctx, uid)
	if len(ids) != 1 || ids[0] != "first_run" {
		t.Errorf("achievements = %v", ids)
	}
}

func TestForeignKeysEnforced(t *testing.T) {
	db := openTestDB(t)
	if _, err := db.SubmitScore(context.Background(), 12345, "ghost", 1, 1); err == nil {
		t.Error("score for a missing user should violate the foreign key")
	}
}
