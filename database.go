package main

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/aryipc/trenchsurvivors-sub000/sim"
)

//go:embed migrations/*/*.sql
var migrations embed.FS

// DB is the persistence collaborator: accounts, per-user settings, profiles,
// the leaderboard, finished runs and run events. It runs on SQLite by default
// and on PostgreSQL when the DSN is a postgres URL.
type DB struct {
	conn    *sql.DB
	dialect string // goose dialect: "sqlite3" or "postgres"
	log     *zap.Logger
}

// UserRow is an account. Guests have no password.
type UserRow struct {
	ID        int64
	Username  string
	PassHash  string
	Guest     bool
	CreatedAt time.Time
}

// Profile holds cumulative per-user stats.
type Profile struct {
	UserID      int64   `json:"-"`
	DisplayName string  `json:"name"`
	Runs        int     `json:"runs"`
	Victories   int     `json:"victories"`
	TotalKills  int     `json:"kills"`
	BestLevel   int     `json:"best_level"`
	Playtime    float64 `json:"playtime"` // seconds of game time
}

// LeaderboardEntry is one row of the high-score table.
type LeaderboardEntry struct {
	Rank      int     `json:"rank"`
	Username  string  `json:"username"`
	BestScore float64 `json:"score"`
	BestPeak  float64 `json:"peak"`
}

func isPostgres(dsn string) bool {
	return strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://")
}

// sqliteDSN adds the pragmas every pooled connection needs. Pragmas set
// with Exec would only reach one connection.
func sqliteDSN(dsn string) string {
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + "_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)"
}

// OpenDB opens the database named by cfg.DSN and applies pending migrations.
func OpenDB(ctx context.Context, cfg DatabaseConfig, log *zap.Logger) (*DB, error) {
	driver, dialect := "sqlite", "sqlite3"
	if isPostgres(cfg.DSN) {
		driver, dialect = "pgx", "postgres"
	}
	dsn := cfg.DSN
	if dialect == "sqlite3" {
		dsn = sqliteDSN(dsn)
	}
	conn, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}
	if cfg.MaxOpenConns > 0 {
		conn.SetMaxOpenConns(cfg.MaxOpenConns)
	}

	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}

	db := &DB{conn: conn, dialect: dialect, log: log}
	if err := db.migrate(ctx); err != nil {
		conn.Close()
		return nil, err
	}
	log.Info("database ready", zap.String("driver", driver))
	return db, nil
}

// Close closes the database connection
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) migrate(ctx context.Context) error {
	goose.SetLogger(goose.NopLogger())
	goose.SetBaseFS(migrations)
	if err := goose.SetDialect(db.dialect); err != nil {
		return fmt.Errorf("set dialect: %w", err)
	}
	dir := "migrations/sqlite"
	if db.dialect == "postgres" {
		dir = "migrations/postgres"
	}
	if err := goose.UpContext(ctx, db.conn, dir); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	return nil
}

// q rewrites ? placeholders to $n for PostgreSQL.
func (db *DB) q(query string) string {
	if db.dialect != "postgres" {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// CreateUser creates a registered account and its empty profile.
func (db *DB) CreateUser(ctx context.Context, username, passHash string) (int64, error) {
	return db.insertUser(ctx, username, passHash, false)
}

// CreateGuest creates a guest account (no password).
func (db *DB) CreateGuest(ctx context.Context, username string) (int64, error) {
	return db.insertUser(ctx, username, "", true)
}

func (db *DB) insertUser(ctx context.Context, username, passHash string, guest bool) (int64, error) {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	var id int64
	err = tx.QueryRowContext(ctx,
		db.q("INSERT INTO users (username, pass_hash, is_guest, created_at) VALUES (?, ?, ?, ?) RETURNING id"),
		username, passHash, boolInt(guest), time.Now().Unix(),
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert user: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		db.q("INSERT INTO profiles (user_id, display_name) VALUES (?, ?)"), id, username,
	); err != nil {
		return 0, fmt.Errorf("insert profile: %w", err)
	}
	return id, tx.Commit()
}

// GetUserByUsername returns nil, nil when no such user exists.
func (db *DB) GetUserByUsername(ctx context.Context, username string) (*UserRow, error) {
	return db.scanUser(db.conn.QueryRowContext(ctx,
		db.q("SELECT id, username, pass_hash, is_guest, created_at FROM users WHERE username = ?"), username))
}

// GetUserByID returns nil, nil when no such user exists.
func (db *DB) GetUserByID(ctx context.Context, id int64) (*UserRow, error) {
	return db.scanUser(db.conn.QueryRowContext(ctx,
		db.q("SELECT id, username, pass_hash, is_guest, created_at FROM users WHERE id = ?"), id))
}

func (db *DB) scanUser(row *sql.Row) (*UserRow, error) {
	var (
		u       UserRow
		guest   int
		created int64
	)
	err := row.Scan(&u.ID, &u.Username, &u.PassHash, &guest, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	u.Guest = guest != 0
	u.CreatedAt = time.Unix(created, 0)
	return &u, nil
}

// UsernameExists checks if a username is taken
func (db *DB) UsernameExists(ctx context.Context, username string) (bool, error) {
	var count int
	err := db.conn.QueryRowContext(ctx, db.q("SELECT COUNT(*) FROM users WHERE username = ?"), username).Scan(&count)
	return count > 0, err
}

// GetSetting returns "" when the key is unset. userID 0 holds server-wide
// settings.
func (db *DB) GetSetting(ctx context.Context, userID int64, key string) (string, error) {
	var v string
	err := db.conn.QueryRowContext(ctx,
		db.q("SELECT value FROM settings WHERE user_id = ? AND name = ?"), userID, key).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	return v, err
}

// SetSetting stores a key-value pair, replacing any previous value.
func (db *DB) SetSetting(ctx context.Context, userID int64, key, value string) error {
	_, err := db.conn.ExecContext(ctx, db.q(`
		INSERT INTO settings (user_id, name, value) VALUES (?, ?, ?)
		ON CONFLICT (user_id, name) DO UPDATE SET value = excluded.value`),
		userID, key, value)
	return err
}

// GetProfile returns an empty profile for users that have none.
func (db *DB) GetProfile(ctx context.Context, userID int64) (*Profile, error) {
	p := &Profile{UserID: userID}
	err := db.conn.QueryRowContext(ctx, db.q(`
		SELECT display_name, runs, victories, total_kills, best_level, playtime
		FROM profiles WHERE user_id = ?`), userID,
	).Scan(&p.DisplayName, &p.Runs, &p.Victories, &p.TotalKills, &p.BestLevel, &p.Playtime)
	if errors.Is(err, sql.ErrNoRows) {
		return p, nil
	}
	return p, err
}

// SetProfile writes the whole profile.
func (db *DB) SetProfile(ctx context.Context, p *Profile) error {
	_, err := db.conn.ExecContext(ctx, db.q(`
		INSERT INTO profiles (user_id, display_name, runs, victories, total_kills, best_level, playtime)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (user_id) DO UPDATE SET
			display_name = excluded.display_name,
			runs = excluded.runs,
			victories = excluded.victories,
			total_kills = excluded.total_kills,
			best_level = excluded.best_level,
			playtime = excluded.playtime`),
		p.UserID, p.DisplayName, p.Runs, p.Victories, p.TotalKills, p.BestLevel, p.Playtime)
	return err
}

// SubmitScore records score and peak for the user and reports whether the
// score beats their previous best.
func (db *DB) SubmitScore(ctx context.Context, userID int64, username string, score, peak float64) (bool, error) {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer tx.Rollback()

	now := time.Now().Unix()
	var best, bestPeak float64
	err = tx.QueryRowContext(ctx,
		db.q("SELECT best_score, best_peak FROM leaderboard WHERE user_id = ?"), userID,
	).Scan(&best, &bestPeak)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		if _, err := tx.ExecContext(ctx, db.q(`
			INSERT INTO leaderboard (user_id, username, best_score, best_peak, updated_at)
			VALUES (?, ?, ?, ?, ?)`), userID, username, score, peak, now); err != nil {
			return false, fmt.Errorf("insert score: %w", err)
		}
		return true, tx.Commit()
	case err != nil:
		return false, fmt.Errorf("read score: %w", err)
	}

	newHigh := score > best
	if newHigh {
		best = score
	}
	if peak > bestPeak {
		bestPeak = peak
	}
	if _, err := tx.ExecContext(ctx, db.q(`
		UPDATE leaderboard SET username = ?, best_score = ?, best_peak = ?, updated_at = ?
		WHERE user_id = ?`), username, best, bestPeak, now, userID); err != nil {
		return false, fmt.Errorf("update score: %w", err)
	}
	return newHigh, tx.Commit()
}

// TopScores returns the best scores, highest first.
func (db *DB) TopScores(ctx context.Context, limit int) ([]LeaderboardEntry, error) {
	rows, err := db.conn.QueryContext(ctx, db.q(`
		SELECT username, best_score, best_peak FROM leaderboard
		ORDER BY best_score DESC, updated_at ASC LIMIT ?`), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []LeaderboardEntry
	for rows.Next() {
		e := LeaderboardEntry{Rank: len(result) + 1}
		if err := rows.Scan(&e.Username, &e.BestScore, &e.BestPeak); err != nil {
			return nil, err
		}
		result = append(result, e)
	}
	return result, rows.Err()
}

// RecordRun stores one finished run and folds it into the user's profile.
func (db *DB) RecordRun(ctx context.Context, runID string, userID int64, sum sim.RunSummary) error {
	if _, err := db.conn.ExecContext(ctx, db.q(`
		INSERT INTO runs (id, user_id, score, peak, kills, level, duration, boss_defeated, victory, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`),
		runID, userID, sum.Score, sum.PeakBalance, sum.Kills, sum.Level, sum.Duration,
		boolInt(sum.BossDefeated), boolInt(sum.Victory), time.Now().Unix(),
	); err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	p, err := db.GetProfile(ctx, userID)
	if err != nil {
		return fmt.Errorf("read profile: %w", err)
	}
	p.Runs++
	p.TotalKills += sum.Kills
	p.Playtime += sum.Duration
	if sum.Victory {
		p.Victories++
	}
	if sum.Level > p.BestLevel {
		p.BestLevel = sum.Level
	}
	return db.SetProfile(ctx, p)
}

// GetAchievements returns the IDs the user has unlocked.
func (db *DB) GetAchievements(ctx context.Context, userID int64) ([]string, error) {
	rows, err := db.conn.QueryContext(ctx,
		db.q("SELECT achievement_id FROM achievements WHERE user_id = ? ORDER BY unlocked_at"), userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// UnlockAchievement reports whether the achievement was newly unlocked.
func (db *DB) UnlockAchievement(ctx context.Context, userID int64, id string) (bool, error) {
	res, err := db.conn.ExecContext(ctx, db.q(`
		INSERT INTO achievements (user_id, achievement_id, unlocked_at) VALUES (?, ?, ?)
		ON CONFLICT (user_id, achievement_id) DO NOTHING`),
		userID, id, time.Now().Unix())
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}
