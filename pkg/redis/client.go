package redis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/angelmondragon/residence-portal/pkg/config"
	"github.com/angelmondragon/residence-portal/pkg/logger"
	"github.com/redis/go-redis/v9"
)

const (
	keyNamespace   = "rp"
	sessionPrefix  = "session"
	flashPrefix    = "flash"
	snapshotPrefix = "cart_snapshot"
	lockPrefix     = "view_lock"
	ratePrefix     = "rl"
)

// ErrNil is returned when a key does not exist.
var ErrNil = redis.Nil

// Client wraps the redis connection helpers used by the portal session store.
type Client struct {
	raw      *redis.Client
	embedded *miniredis.Miniredis
}

// Pinger exposes the health-check surface.
type Pinger interface {
	Ping(context.Context) error
}

// New bootstraps a Redis client with pooling/timeouts and verifies connectivity.
func New(ctx context.Context, cfg config.RedisConfig, logg *logger.Logger) (*Client, error) {
	opts, err := optionsFromConfig(cfg)
	if err != nil {
		return nil, err
	}
	raw := redis.NewClient(opts)
	if err := raw.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	if logg != nil {
		logg.Info(logg.WithField(ctx, "redis_addr", opts.Addr), "redis connection established")
	}
	return &Client{raw: raw}, nil
}

// NewInMemory starts an embedded miniredis server and connects to it. It
// backs the memory session driver and tests; Close stops the server.
func NewInMemory() (*Client, error) {
	srv, err := miniredis.Run()
	if err != nil {
		return nil, fmt.Errorf("starting embedded redis: %w", err)
	}
	return &Client{raw: redis.NewClient(&redis.Options{Addr: srv.Addr()}), embedded: srv}, nil
}

// optionsFromConfig prefers PORTAL_REDIS_URL. Pool and timeout settings
// fill whatever the URL left unset.
func optionsFromConfig(cfg config.RedisConfig) (*redis.Options, error) {
	opts := &redis.Options{Addr: cfg.Address, Password: cfg.Password, DB: cfg.DB}
	switch {
	case cfg.URL != "":
		parsed, err := redis.ParseURL(cfg.URL)
		if err != nil {
			return nil, fmt.Errorf("parsing redis url: %w", err)
		}
		opts = parsed
	case cfg.Address == "":
		return nil, errors.New("redis url or address is required")
	}
	fill(&opts.DB, cfg.DB)
	fill(&opts.PoolSize, cfg.PoolSize)
	fill(&opts.MinIdleConns, cfg.MinIdleConns)
	fill(&opts.DialTimeout, cfg.DialTimeout)
	fill(&opts.ReadTimeout, cfg.ReadTimeout)
	fill(&opts.WriteTimeout, cfg.WriteTimeout)
	return opts, nil
}

func fill[T comparable](dst *T, value T) {
	var zero T
	if *dst == zero {
		*dst = value
	}
}

var errNotInitialized = errors.New("redis client not initialized")

func (c *Client) cmd() (*redis.Client, error) {
	if c == nil || c.raw == nil {
		return nil, errNotInitialized
	}
	return c.raw, nil
}

// Set stores a string value with an optional TTL.
func (c *Client) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	cmd, err := c.cmd()
	if err != nil {
		return err
	}
	return cmd.Set(ctx, key, value, ttl).Err()
}

// Get returns the value at key, or ErrNil.
func (c *Client) Get(ctx context.Context, key string) (string, error) {
	cmd, err := c.cmd()
	if err != nil {
		return "", err
	}
	return cmd.Get(ctx, key).Result()
}

// SetNX sets a value only if the key does not exist yet.
func (c *Client) SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error) {
	cmd, err := c.cmd()
	if err != nil {
		return false, err
	}
	return cmd.SetNX(ctx, key, value, ttl).Result()
}

func (c *Client) Exists(ctx context.Context, key string) (bool, error) {
	cmd, err := c.cmd()
	if err != nil {
		return false, err
	}
	n, err := cmd.Exists(ctx, key).Result()
	return n > 0, err
}

// Append pushes a value onto the list at key and refreshes the list TTL.
func (c *Client) Append(ctx context.Context, key string, value any, ttl time.Duration) error {
	cmd, err := c.cmd()
	if err != nil {
		return err
	}
	if err := cmd.RPush(ctx, key, value).Err(); err != nil {
		return err
	}
	return c.expire(ctx, cmd, key, ttl)
}

// IncrWithTTL increments the counter at key. The TTL is only set when the
// counter is created, which makes the window fixed rather than sliding.
func (c *Client) IncrWithTTL(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	cmd, err := c.cmd()
	if err != nil {
		return 0, err
	}
	n, err := cmd.Incr(ctx, key).Result()
	if err != nil {
		return 0, err
	}
	if n == 1 {
		if err := c.expire(ctx, cmd, key, ttl); err != nil {
			return 0, err
		}
	}
	return n, nil
}

// Drain returns every value in the list at key and deletes it in one
// MULTI/EXEC, so a value appended concurrently is either returned or kept.
func (c *Client) Drain(ctx context.Context, key string) ([]string, error) {
	cmd, err := c.cmd()
	if err != nil {
		return nil, err
	}
	var values *redis.StringSliceCmd
	if _, err := cmd.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		values = pipe.LRange(ctx, key, 0, -1)
		pipe.Del(ctx, key)
		return nil
	}); err != nil {
		return nil, err
	}
	return values.Val(), nil
}

var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// DelIfValue deletes key only while it still holds value. It reports
// whether the key was deleted.
func (c *Client) DelIfValue(ctx context.Context, key, value string) (bool, error) {
	cmd, err := c.cmd()
	if err != nil {
		return false, err
	}
	n, err := releaseScript.Run(ctx, cmd, []string{key}, value).Int64()
	return n == 1, err
}

func (c *Client) expire(ctx context.Context, cmd *redis.Client, key string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	return cmd.Expire(ctx, key, ttl).Err()
}

// SessionKey returns the key holding a portal session credential.
func (c *Client) SessionKey(sessionID string) string {
	return c.buildKey(sessionPrefix, sessionID)
}

// FlashKey returns the key holding pending banner messages.
func (c *Client) FlashKey(sessionID string) string {
	return c.buildKey(flashPrefix, sessionID)
}

// CartSnapshotKey returns the key holding the last fetched cart.
func (c *Client) CartSnapshotKey(sessionID string) string {
	return c.buildKey(snapshotPrefix, sessionID)
}

// ViewLockKey returns the key of an advisory per-view updating flag.
func (c *Client) ViewLockKey(sessionID, view string) string {
	return c.buildKey(lockPrefix, sessionID, view)
}

// RateLimitKey returns the key of a login throttling counter.
func (c *Client) RateLimitKey(policy, scope, subject string) string {
	return c.buildKey(ratePrefix, policy, scope, subject)
}

func (c *Client) Del(ctx context.Context, keys ...string) error {
	cmd, err := c.cmd()
	if err != nil {
		return err
	}
	return cmd.Del(ctx, keys...).Err()
}

func (c *Client) Ping(ctx context.Context) error {
	cmd, err := c.cmd()
	if err != nil {
		return err
	}
	return cmd.Ping(ctx).Err()
}

// Close shuts down the network client and, for NewInMemory, the embedded
// server.
func (c *Client) Close() error {
	if c == nil || c.raw == nil {
		return nil
	}
	err := c.raw.Close()
	if c.embedded != nil {
		c.embedded.Close()
	}
	return err
}

// buildKey joins the non-empty parts under the "rp" namespace.
func (c *Client) buildKey(parts ...string) string {
	var b strings.Builder
	b.WriteString(keyNamespace)
	for _, part := range parts {
		if part = strings.TrimSpace(part); part != "" {
			b.WriteByte(':')
			b.WriteString(part)
		}
	}
	return b.String()
}
