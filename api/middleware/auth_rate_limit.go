package middleware

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/angelmondragon/residence-portal/api/responses"
	"github.com/angelmondragon/residence-portal/pkg/config"
	pkgerrors "github.com/angelmondragon/residence-portal/pkg/errors"
	"github.com/angelmondragon/residence-portal/pkg/logger"
)

type rateLimiterStore interface {
	IncrWithTTL(context.Context, string, time.Duration) (int64, error)
	RateLimitKey(policy, scope, subject string) string
}

// AuthRateLimitPolicy defines the throttling parameters for the sign-in form.
type AuthRateLimitPolicy struct {
	name       string
	window     time.Duration
	ipLimit    int
	emailLimit int
}

// NewAuthRateLimitPolicy builds a policy with the supplied window and limits.
func NewAuthRateLimitPolicy(name string, window time.Duration, ipLimit, emailLimit int) AuthRateLimitPolicy {
	return AuthRateLimitPolicy{
		name:       strings.ToLower(strings.TrimSpace(name)),
		window:     window,
		ipLimit:    ipLimit,
		emailLimit: emailLimit,
	}
}

// LoginPolicy builds the sign-in policy from config.
func LoginPolicy(cfg config.LoginLimitConfig) AuthRateLimitPolicy {
	return NewAuthRateLimitPolicy("login", cfg.Window, cfg.IPLimit, cfg.EmailLimit)
}

func (p AuthRateLimitPolicy) enabled() bool {
	return p.window > 0 && (p.ipLimit > 0 || p.emailLimit > 0)
}

func (p AuthRateLimitPolicy) normalizedName() string {
	if p.name == "" {
		return "auth"
	}
	return p.name
}

type rateCheck struct {
	scope   string
	subject string
	limit   int
}

// checks lists the counters a sign-in post increments. Emails are hashed so
// the counter keys never hold an address.
func (p AuthRateLimitPolicy) checks(r *http.Request) []rateCheck {
	var out []rateCheck
	if ip := clientIP(r); p.ipLimit > 0 && ip != "" {
		out = append(out, rateCheck{scope: "ip", subject: ip, limit: p.ipLimit})
	}
	if email := strings.ToLower(strings.TrimSpace(r.PostFormValue("email"))); p.emailLimit > 0 && email != "" {
		sum := sha256.Sum256([]byte(email))
		out = append(out, rateCheck{scope: "email", subject: hex.EncodeToString(sum[:]), limit: p.emailLimit})
	}
	return out
}

// AuthRateLimit counts sign-in posts per client IP and per submitted email.
// Blocked requests go to onLimited, or get a 429 envelope when it is nil.
// Counter failures fail open.
func AuthRateLimit(policy AuthRateLimitPolicy, store rateLimiterStore, onLimited http.Handler, logg *logger.Logger) func(http.Handler) http.Handler {
	if logg == nil {
		logg = logger.Nop()
	}
	return func(next http.Handler) http.Handler {
		if !policy.enabled() || store == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			for _, check := range policy.checks(r) {
				key := store.RateLimitKey(policy.normalizedName(), check.scope, check.subject)
				count, err := store.IncrWithTTL(ctx, key, policy.window)
				if err != nil {
					logg.Warn(logg.WithError(ctx, err), "auth.rate_limit.unavailable")
					break
				}
				if count <= int64(check.limit) {
					continue
				}
				logg.Warn(logg.WithFields(ctx, map[string]any{
					"scope":          check.scope,
					"policy":         policy.normalizedName(),
					"attempts":       count,
					"limit":          check.limit,
					"window_seconds": int(policy.window.Seconds()),
				}), "auth.rate_limit.blocked")
				if onLimited != nil {
					onLimited.ServeHTTP(w, r)
				} else {
					responses.WriteError(ctx, nil, w, pkgerrors.New(pkgerrors.CodeRateLimit, "rate limit exceeded"))
				}
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// clientIP prefers the first X-Forwarded-For hop, then X-Real-IP, then the
// peer address.
func clientIP(r *http.Request) string {
	if first, _, _ := strings.Cut(r.Header.Get("X-Forwarded-For"), ","); strings.TrimSpace(first) != "" {
		return strings.TrimSpace(first)
	}
	if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); ip != "" {
		return ip
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil && host != "" {
		return host
	}
	return r.RemoteAddr
}
