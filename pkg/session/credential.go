// Package session holds the portal's per-browser state: the bearer
// credential and cached user, banner messages, the last fetched cart and the
// advisory "updating" flags. It also carries the session-expired event bus.
package session

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"time"

	"github.com/angelmondragon/residence-portal/pkg/enums"
)

const sessionIDBytes = 24

// User is the cached user object returned by the backend at login.
type User struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Email      string `json:"email"`
	Role       string `json:"role"`
	RoomNumber string `json:"roomNumber,omitempty"`
}

// Credential binds a portal session to a backend bearer token.
type Credential struct {
	SessionID string    `json:"sessionId"`
	Token     string    `json:"token"`
	User      User      `json:"user"`
	IssuedAt  time.Time `json:"issuedAt"`
	ExpiresAt time.Time `json:"expiresAt,omitempty"`
}

// Expired reports whether the token expiry, when known, has passed.
func (c Credential) Expired(now time.Time) bool {
	return !c.ExpiresAt.IsZero() && !now.Before(c.ExpiresAt)
}

// Flash is a banner message shown once on the next rendered page.
type Flash struct {
	Kind    enums.BannerKind `json:"kind"`
	Message string           `json:"message"`
}

// NewID returns a random, URL-safe session identifier.
func NewID() (string, error) {
	buf := make([]byte, sessionIDBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generating session id: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

type ctxKey int

const (
	ctxSessionID ctxKey = iota
	ctxCredential
	ctxGuard
)

// WithSessionID stores the browser session id in ctx.
func WithSessionID(ctx context.Context, sessionID string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxSessionID, sessionID)
}

// SessionIDFromContext returns the browser session id, if any.
func SessionIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxSessionID).(string); ok {
		return v
	}
	return ""
}

// WithCredential stores the credential in ctx.
func WithCredential(ctx context.Context, cred *Credential) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxCredential, cred)
}

// CredentialFromContext returns the credential of the current request.
func CredentialFromContext(ctx context.Context) (*Credential, bool) {
	if ctx == nil {
		return nil, false
	}
	cred, ok := ctx.Value(ctxCredential).(*Credential)
	return cred, ok && cred != nil
}

// TokenFromContext returns the bearer token of the current request.
func TokenFromContext(ctx context.Context) string {
	if cred, ok := CredentialFromContext(ctx); ok {
		return cred.Token
	}
	return ""
}
