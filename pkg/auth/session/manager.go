// Package session keeps login sessions in redis so a signed access token can
// be revoked before it expires.
package session

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/aerogourmet-backend/pkg/config"
	"github.com/angelmondragon/aerogourmet-backend/pkg/redis"
)

var (
	ErrSessionIDRequired = errors.New("session id is required")
	ErrUserIDRequired    = errors.New("user id is required")
)

type store interface {
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	Del(ctx context.Context, keys ...string) error
	SessionKey(sessionID string) string
}

// AccessSessionChecker is what the auth middleware consults per request.
type AccessSessionChecker interface {
	HasSession(ctx context.Context, sessionID string) (bool, error)
}

// Manager maps session ids, which double as the JWT jti, to user ids.
type Manager struct {
	store store
	ttl   time.Duration
}

func NewManager(client *redis.Client, cfg config.JWTConfig) (*Manager, error) {
	if client == nil {
		return nil, errors.New("redis client is required")
	}
	return newManager(client, cfg)
}

// newManager refuses a session shorter than the access token it backs, which
// would log users out while their token still looks valid.
func newManager(s store, cfg config.JWTConfig) (*Manager, error) {
	ttl := cfg.SessionTTL()
	accessTTL := time.Duration(cfg.ExpirationMinutes) * time.Minute
	switch {
	case ttl <= 0:
		return nil, errors.New("session ttl must be positive")
	case ttl < accessTTL:
		return nil, fmt.Errorf("session ttl %s is shorter than access token ttl %s", ttl, accessTTL)
	}
	return &Manager{store: s, ttl: ttl}, nil
}

func (m *Manager) Create(ctx context.Context, userID uint) (string, error) {
	if userID == 0 {
		return "", ErrUserIDRequired
	}
	id := uuid.NewString()
	if err := m.store.Set(ctx, m.store.SessionKey(id), strconv.FormatUint(uint64(userID), 10), m.ttl); err != nil {
		return "", fmt.Errorf("store session: %w", err)
	}
	return id, nil
}

// UserID returns the owner of an active session, or 0 when it is gone.
func (m *Manager) UserID(ctx context.Context, sessionID string) (uint, error) {
	key, err := m.key(sessionID)
	if err != nil {
		return 0, err
	}
	raw, err := m.store.Get(ctx, key)
	switch {
	case errors.Is(err, redis.ErrNil):
		return 0, nil
	case err != nil:
		return 0, fmt.Errorf("load session: %w", err)
	}
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("corrupt session %s: %w", sessionID, err)
	}
	return uint(id), nil
}

func (m *Manager) HasSession(ctx context.Context, sessionID string) (bool, error) {
	userID, err := m.UserID(ctx, sessionID)
	return userID != 0, err
}

// Revoke ends the session; tokens minted for it stop authenticating.
func (m *Manager) Revoke(ctx context.Context, sessionID string) error {
	key, err := m.key(sessionID)
	if err != nil {
		return err
	}
	return m.store.Del(ctx, key)
}

func (m *Manager) key(sessionID string) (string, error) {
	if strings.TrimSpace(sessionID) == "" {
		return "", ErrSessionIDRequired
	}
	return m.store.SessionKey(sessionID), nil
}
