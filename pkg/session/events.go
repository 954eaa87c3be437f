package session

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"
)

// ErrAlreadySubscribed is returned when a second subscriber registers.
var ErrAlreadySubscribed = errors.New("session bus already has a subscriber")

// Event announces that the backend rejected a session's credential.
type Event struct {
	SessionID string
	Path      string
	At        time.Time
}

// Handler reacts to session events.
type Handler func(context.Context, Event)

// Bus is the process-wide session event bus. It accepts exactly one
// subscriber, the router.
type Bus struct {
	mu      sync.RWMutex
	handler Handler
}

func NewBus() *Bus {
	return &Bus{}
}

// Subscribe registers the single handler.
func (b *Bus) Subscribe(h Handler) error {
	if h == nil {
		return errors.New("handler is required")
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.handler != nil {
		return ErrAlreadySubscribed
	}
	b.handler = h
	return nil
}

// Publish delivers the event synchronously. It reports false when nobody
// is subscribed.
func (b *Bus) Publish(ctx context.Context, evt Event) bool {
	if b == nil {
		return false
	}
	b.mu.RLock()
	h := b.handler
	b.mu.RUnlock()
	if h == nil {
		return false
	}
	if evt.At.IsZero() {
		evt.At = time.Now().UTC()
	}
	h(ctx, evt)
	return true
}

// Guard limits session-expired events to one per inbound request and
// suppresses them on the login route.
type Guard struct {
	once      sync.Once
	fired     bool
	mu        sync.Mutex
	sessionID string
	path      string
	loginPath string
}

// NewGuard builds the guard for one inbound request.
func NewGuard(sessionID, path, loginPath string) *Guard {
	return &Guard{sessionID: sessionID, path: path, loginPath: loginPath}
}

// OnLoginRoute reports whether the request targets the login route.
func (g *Guard) OnLoginRoute() bool {
	if g == nil || g.loginPath == "" {
		return false
	}
	return strings.TrimRight(g.path, "/") == strings.TrimRight(g.loginPath, "/")
}

// Expire publishes the expiry event at most once. It reports whether this
// call published.
func (g *Guard) Expire(ctx context.Context, bus *Bus) bool {
	if g == nil || bus == nil || g.OnLoginRoute() {
		return false
	}
	published := false
	g.once.Do(func() {
		published = bus.Publish(ctx, Event{SessionID: g.sessionID, Path: g.path})
		g.mu.Lock()
		g.fired = true
		g.mu.Unlock()
	})
	return published
}

// Fired reports whether the request already expired its session.
func (g *Guard) Fired() bool {
	if g == nil {
		return false
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.fired
}

// WithGuard stores the request guard in ctx.
func WithGuard(ctx context.Context, g *Guard) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxGuard, g)
}

// GuardFromContext returns the request guard, if any.
func GuardFromContext(ctx context.Context) *Guard {
	if ctx == nil {
		return nil
	}
	g, _ := ctx.Value(ctxGuard).(*Guard)
	return g
}
