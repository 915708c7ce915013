package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const (
	bcryptCost       = 12
	minPasswordLen   = 4
	minUsernameLen   = 2
	maxUsernameLen   = 16
	loginRateWindow  = 60 * time.Second
	maxLoginAttempts = 10
	secretSetting    = "jwt_secret"
)

var (
	ErrBadCredentials = errors.New("invalid username or password")
	ErrUsernameTaken  = errors.New("username already taken")
	ErrRateLimited    = errors.New("too many login attempts, try again later")
	ErrInvalidToken   = errors.New("invalid token")
)

// Identity is who a run's results are recorded for.
type Identity struct {
	UserID   int64  `json:"id"`
	Username string `json:"username"`
	Guest    bool   `json:"guest"`
}

// Auth issues and checks HS256 tokens for registered users and guests.
type Auth struct {
	db        *DB
	jwtSecret []byte
	ttl       time.Duration
	log       *zap.Logger

	rateMu  sync.Mutex
	rateMap map[string]*rateEntry
}

type rateEntry struct {
	Count   int
	ResetAt time.Time
}

// NewAuth creates an Auth. db may be nil, in which case accounts are
// unavailable and only guest tokens are issued.
func NewAuth(ctx context.Context, db *DB, cfg AuthConfig, log *zap.Logger) (*Auth, error) {
	secret := []byte(cfg.JWTSecret)
	if len(secret) == 0 {
		var err error
		if secret, err = loadOrCreateSecret(ctx, db, log); err != nil {
			return nil, err
		}
	}
	return &Auth{
		db:        db,
		jwtSecret: secret,
		ttl:       cfg.TokenTTL,
		log:       log,
		rateMap:   make(map[string]*rateEntry),
	}, nil
}

// loadOrCreateSecret loads the signing secret from the settings store, or
// generates and persists a new one.
func loadOrCreateSecret(ctx context.Context, db *DB, log *zap.Logger) ([]byte, error) {
	if db != nil {
		h, err := db.GetSetting(ctx, 0, secretSetting)
		if err != nil {
			return nil, fmt.Errorf("load jwt secret: %w", err)
		}
		if b, err := hex.DecodeString(h); err == nil && len(b) == 32 {
			return b, nil
		}
	}
	secret := make([]byte, 32)
	if _, err := rand.Read(secret); err != nil {
		return nil, fmt.Errorf("generate jwt secret: %w", err)
	}
	if db != nil {
		if err := db.SetSetting(ctx, 0, secretSetting, hex.EncodeToString(secret)); err != nil {
			log.Warn("could not persist jwt secret", zap.Error(err))
		}
	}
	return secret, nil
}

// Register creates a new account
func (a *Auth) Register(ctx context.Context, username, password string) (Identity, string, error) {
	if a.db == nil {
		return Identity{}, "", errors.New("accounts are disabled")
	}
	username = strings.TrimSpace(username)
	if len(username) < minUsernameLen || len(username) > maxUsernameLen {
		return Identity{}, "", fmt.Errorf("username must be %d-%d characters", minUsernameLen, maxUsernameLen)
	}
	if strings.HasPrefix(username, guestPrefix) {
		return Identity{}, "", fmt.Errorf("username may not start with %q", guestPrefix)
	}
	if len(password) < minPasswordLen {
		return Identity{}, "", fmt.Errorf("password must be at least %d characters", minPasswordLen)
	}

	exists, err := a.db.UsernameExists(ctx, username)
	if err != nil {
		return Identity{}, "", fmt.Errorf("check username: %w", err)
	}
	if exists {
		return Identity{}, "", ErrUsernameTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return Identity{}, "", fmt.Errorf("hash password: %w", err)
	}
	id, err := a.db.CreateUser(ctx, username, string(hash))
	if err != nil {
		return Identity{}, "", fmt.Errorf("create account: %w", err)
	}
	return a.issue(Identity{UserID: id, Username: username})
}

// Login authenticates a user and returns a token
func (a *Auth) Login(ctx context.Context, username, password, ip string) (Identity, string, error) {
	if a.db == nil {
		return Identity{}, "", errors.New("accounts are disabled")
	}
	if !a.checkRate(ip) {
		return Identity{}, "", ErrRateLimited
	}

	u, err := a.db.GetUserByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		return Identity{}, "", fmt.Errorf("load user: %w", err)
	}
	if u == nil || u.PassHash == "" {
		return Identity{}, "", ErrBadCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PassHash), []byte(password)); err != nil {
		return Identity{}, "", ErrBadCredentials
	}
	return a.issue(Identity{UserID: u.ID, Username: u.Username})
}

// Guest creates a guest identity. Without a database the guest has no user
// row and its results are not stored.
func (a *Auth) Guest(ctx context.Context) (Identity, string, error) {
	name := GenerateGuestName()
	id := Identity{Username: name, Guest: true}
	if a.db != nil {
		uid, err := a.db.CreateGuest(ctx, name)
		if err != nil {
			return Identity{}, "", fmt.Errorf("create guest: %w", err)
		}
		id.UserID = uid
	}
	return a.issue(id)
}

// ValidateToken parses a token issued by this server.
func (a *Auth) ValidateToken(tokenStr string) (Identity, error) {
	token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return a.jwtSecret, nil
	})
	if err != nil {
		return Identity{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return Identity{}, ErrInvalidToken
	}
	pid, ok := claims["pid"].(float64)
	if !ok {
		return Identity{}, ErrInvalidToken
	}
	username, ok := claims["usr"].(string)
	if !ok {
		return Identity{}, ErrInvalidToken
	}
	guest, _ := claims["gst"].(bool)
	return Identity{UserID: int64(pid), Username: username, Guest: guest}, nil
}

func (a *Auth) issue(id Identity) (Identity, string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"pid": id.UserID,
		"usr": id.Username,
		"gst": id.Guest,
		"exp": now.Add(a.ttl).Unix(),
		"iat": now.Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.jwtSecret)
	if err != nil {
		return Identity{}, "", fmt.Errorf("sign token: %w", err)
	}
	return id, token, nil
}

func (a *Auth) checkRate(ip string) bool {
	a.rateMu.Lock()
	defer a.rateMu.Unlock()

	now := time.Now()
	entry, ok := a.rateMap[ip]
	if !ok || now.After(entry.ResetAt) {
		a.rateMap[ip] = &rateEntry{Count: 1, ResetAt: now.Add(loginRateWindow)}
		return true
	}
	entry.Count++
	return entry.Count <= maxLoginAttempts
}

const guestPrefix = "Guest_"

// GenerateGuestName creates a unique guest name like "Guest_a3f2c1"
func GenerateGuestName() string {
	b := make([]byte, 3)
	rand.Read(b)
	return guestPrefix + hex.EncodeToString(b)
}
