package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	pkgredis "github.com/angelmondragon/residence-portal/pkg/redis"
)

// ErrNotFound is returned when a session has no stored credential.
var ErrNotFound = errors.New("session not found")

type keyValueStore interface {
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error)
	Exists(ctx context.Context, key string) (bool, error)
	Append(ctx context.Context, key string, value any, ttl time.Duration) error
	Drain(ctx context.Context, key string) ([]string, error)
	Del(ctx context.Context, keys ...string) error
	DelIfValue(ctx context.Context, key, value string) (bool, error)
}

type keyer interface {
	SessionKey(sessionID string) string
	FlashKey(sessionID string) string
	CartSnapshotKey(sessionID string) string
	ViewLockKey(sessionID, view string) string
}

// Options tunes the lifetimes of stored session data.
type Options struct {
	TTL      time.Duration
	FlashTTL time.Duration
	LockTTL  time.Duration
}

// Store persists per-session portal state in Redis (or the in-memory Redis
// stand-in).
type Store struct {
	kv    keyValueStore
	keys  keyer
	opts  Options
	clock func() time.Time
}

// NewStore builds a Store over the provided redis client.
func NewStore(client *pkgredis.Client, opts Options) (*Store, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client is required")
	}
	if opts.TTL <= 0 {
		return nil, fmt.Errorf("session ttl must be positive")
	}
	if opts.FlashTTL <= 0 {
		opts.FlashTTL = 30 * time.Second
	}
	if opts.LockTTL <= 0 {
		opts.LockTTL = 30 * time.Second
	}
	return &Store{kv: client, keys: client, opts: opts, clock: time.Now}, nil
}

// Load returns the credential of sessionID or ErrNotFound.
func (s *Store) Load(ctx context.Context, sessionID string) (*Credential, error) {
	if strings.TrimSpace(sessionID) == "" {
		return nil, ErrNotFound
	}
	raw, err := s.kv.Get(ctx, s.keys.SessionKey(sessionID))
	if err != nil {
		if errors.Is(err, pkgredis.ErrNil) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("loading session: %w", err)
	}
	var cred Credential
	if err := json.Unmarshal([]byte(raw), &cred); err != nil {
		return nil, fmt.Errorf("decoding session: %w", err)
	}
	cred.SessionID = sessionID
	return &cred, nil
}

// Save stores the credential for the configured session TTL.
func (s *Store) Save(ctx context.Context, cred Credential) error {
	if strings.TrimSpace(cred.SessionID) == "" {
		return fmt.Errorf("session id is required")
	}
	if strings.TrimSpace(cred.Token) == "" {
		return fmt.Errorf("token is required")
	}
	if cred.IssuedAt.IsZero() {
		cred.IssuedAt = s.clock().UTC()
	}
	payload, err := json.Marshal(cred)
	if err != nil {
		return fmt.Errorf("encoding session: %w", err)
	}
	return s.kv.Set(ctx, s.keys.SessionKey(cred.SessionID), payload, s.opts.TTL)
}

// Clear removes the credential and cached cart of sessionID. Pending banner
// messages survive so the login page can explain why the user landed there.
func (s *Store) Clear(ctx context.Context, sessionID string) error {
	if strings.TrimSpace(sessionID) == "" {
		return nil
	}
	return s.kv.Del(ctx, s.keys.SessionKey(sessionID), s.keys.CartSnapshotKey(sessionID))
}

// PushFlash queues a banner for the next rendered page.
func (s *Store) PushFlash(ctx context.Context, sessionID string, flash Flash) error {
	if strings.TrimSpace(sessionID) == "" || strings.TrimSpace(flash.Message) == "" {
		return nil
	}
	payload, err := json.Marshal(flash)
	if err != nil {
		return fmt.Errorf("encoding flash: %w", err)
	}
	return s.kv.Append(ctx, s.keys.FlashKey(sessionID), payload, s.opts.FlashTTL)
}

// PopFlashes returns and clears pending banners.
func (s *Store) PopFlashes(ctx context.Context, sessionID string) ([]Flash, error) {
	if strings.TrimSpace(sessionID) == "" {
		return nil, nil
	}
	raws, err := s.kv.Drain(ctx, s.keys.FlashKey(sessionID))
	if err != nil {
		return nil, fmt.Errorf("draining flashes: %w", err)
	}
	flashes := make([]Flash, 0, len(raws))
	for _, raw := range raws {
		var flash Flash
		if err := json.Unmarshal([]byte(raw), &flash); err != nil {
			continue
		}
		flashes = append(flashes, flash)
	}
	return flashes, nil
}

// SaveCartSnapshot remembers the last cart payload fetched for sessionID.
func (s *Store) SaveCartSnapshot(ctx context.Context, sessionID string, snapshot []byte) error {
	if strings.TrimSpace(sessionID) == "" || len(snapshot) == 0 {
		return nil
	}
	return s.kv.Set(ctx, s.keys.CartSnapshotKey(sessionID), snapshot, s.opts.TTL)
}

// CartSnapshot returns the last cart payload, or nil when none is stored.
func (s *Store) CartSnapshot(ctx context.Context, sessionID string) ([]byte, error) {
	if strings.TrimSpace(sessionID) == "" {
		return nil, nil
	}
	raw, err := s.kv.Get(ctx, s.keys.CartSnapshotKey(sessionID))
	if err != nil {
		if errors.Is(err, pkgredis.ErrNil) {
			return nil, nil
		}
		return nil, fmt.Errorf("loading cart snapshot: %w", err)
	}
	return []byte(raw), nil
}

// TryLock raises the advisory updating flag of a view and returns the owner
// token Unlock needs. It reports false when the flag is already raised. The
// flag only guards this session.
func (s *Store) TryLock(ctx context.Context, sessionID, view string) (string, bool, error) {
	if strings.TrimSpace(sessionID) == "" {
		return "", true, nil
	}
	token, err := NewID()
	if err != nil {
		return "", false, err
	}
	ok, err := s.kv.SetNX(ctx, s.keys.ViewLockKey(sessionID, view), token, s.opts.LockTTL)
	if err != nil || !ok {
		return "", false, err
	}
	return token, true, nil
}

// Unlock lowers the updating flag of a view if token still owns it. A flag
// that lapsed and was raised again by another request is left alone.
func (s *Store) Unlock(ctx context.Context, sessionID, view, token string) error {
	if strings.TrimSpace(sessionID) == "" || token == "" {
		return nil
	}
	_, err := s.kv.DelIfValue(ctx, s.keys.ViewLockKey(sessionID, view), token)
	return err
}

// IsLocked reports whether the updating flag of a view is raised.
func (s *Store) IsLocked(ctx context.Context, sessionID, view string) (bool, error) {
	if strings.TrimSpace(sessionID) == "" {
		return false, nil
	}
	return s.kv.Exists(ctx, s.keys.ViewLockKey(sessionID, view))
}
