package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/angelmondragon/residence-portal/api/responses"
	"github.com/angelmondragon/residence-portal/api/validators"
	"github.com/angelmondragon/residence-portal/pkg/auth"
	"github.com/angelmondragon/residence-portal/pkg/config"
	pkgerrors "github.com/angelmondragon/residence-portal/pkg/errors"
	"github.com/angelmondragon/residence-portal/pkg/logger"
)

// ErrorWriter answers a request that a middleware refused. A nil writer
// falls back to the portal's JSON error envelope.
type ErrorWriter func(ctx context.Context, w http.ResponseWriter, err error)

func (fn ErrorWriter) orDefault(logg *logger.Logger) ErrorWriter {
	if fn != nil {
		return fn
	}
	return func(ctx context.Context, w http.ResponseWriter, err error) {
		responses.WriteError(ctx, logg, w, err)
	}
}

type claimsKey struct{}

// ClaimsFromContext returns the access token claims stored by BearerAuth.
func ClaimsFromContext(ctx context.Context) (*auth.AccessTokenClaims, bool) {
	if ctx == nil {
		return nil, false
	}
	claims, ok := ctx.Value(claimsKey{}).(*auth.AccessTokenClaims)
	return claims, ok && claims != nil
}

// BearerAuth validates the Authorization bearer token and seeds the request
// context with its claims. An empty role admits any role.
func BearerAuth(cfg config.JWTConfig, role string, writeErr ErrorWriter, logg *logger.Logger) func(http.Handler) http.Handler {
	writeErr = writeErr.orDefault(logg)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := validators.BearerToken(r.Header.Get("Authorization"))
			if !ok {
				writeErr(r.Context(), w, pkgerrors.New(pkgerrors.CodeUnauthorized, "Authentication required"))
				return
			}
			claims, err := auth.ParseAccessToken(cfg, token)
			if err != nil {
				writeErr(r.Context(), w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "Session expired, please log in again"))
				return
			}
			if role != "" && !strings.EqualFold(claims.Role, role) {
				writeErr(r.Context(), w, pkgerrors.New(pkgerrors.CodeForbidden, "Rooftop ordering is only available to tenants"))
				return
			}

			ctx := context.WithValue(r.Context(), claimsKey{}, claims)
			if logg != nil {
				ctx = logg.WithTenantID(ctx, claims.TenantID.String())
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
