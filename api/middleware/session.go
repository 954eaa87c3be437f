package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/angelmondragon/residence-portal/pkg/config"
	"github.com/angelmondragon/residence-portal/pkg/logger"
	"github.com/angelmondragon/residence-portal/pkg/session"
)

// CredentialLoader reads and drops stored session credentials.
type CredentialLoader interface {
	Load(ctx context.Context, sessionID string) (*session.Credential, error)
	Clear(ctx context.Context, sessionID string) error
}

// Session resolves the browser session from its cookie, minting one when
// absent, and seeds the context with the session id, the stored credential
// and the per-request expiry guard.
func Session(cfg config.SessionConfig, store CredentialLoader, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			sid := ""
			if cookie, err := r.Cookie(cfg.CookieName); err == nil {
				sid = strings.TrimSpace(cookie.Value)
			}
			if sid == "" {
				fresh, err := session.NewID()
				if err != nil {
					if logg != nil {
						logg.Error(ctx, "session.id_failed", err)
					}
					http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
					return
				}
				sid = fresh
				SetSessionCookie(w, cfg, sid)
			}

			ctx = session.WithSessionID(ctx, sid)
			if logg != nil {
				ctx = logg.WithSessionID(ctx, sid)
			}

			cred, err := store.Load(ctx, sid)
			switch {
			case err == nil && cred.Expired(time.Now()):
				_ = store.Clear(ctx, sid)
			case err == nil:
				ctx = session.WithCredential(ctx, cred)
			case !errors.Is(err, session.ErrNotFound) && logg != nil:
				logg.Warn(logg.WithError(ctx, err), "session.load_failed")
			}

			ctx = session.WithGuard(ctx, session.NewGuard(sid, r.URL.Path, cfg.LoginPath))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// SetSessionCookie issues the session cookie.
func SetSessionCookie(w http.ResponseWriter, cfg config.SessionConfig, sessionID string) {
	http.SetCookie(w, &http.Cookie{
		Name:     cfg.CookieName,
		Value:    sessionID,
		Path:     "/",
		MaxAge:   int(cfg.TTL.Seconds()),
		HttpOnly: true,
		Secure:   cfg.SecureCookie,
		SameSite: http.SameSiteLaxMode,
	})
}
