package middleware

import (
	"net/http"
	"strings"

	"github.com/angelmondragon/residence-portal/api/responses"
	pkgerrors "github.com/angelmondragon/residence-portal/pkg/errors"
	"github.com/angelmondragon/residence-portal/pkg/logger"
	"github.com/angelmondragon/residence-portal/pkg/session"
)

// RequireRole admits only users whose cached role matches. A user object
// without a role is admitted; the backend still enforces its own rules.
func RequireRole(role string, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cred, ok := session.CredentialFromContext(r.Context())
			if !ok || (cred.User.Role != "" && !strings.EqualFold(cred.User.Role, role)) {
				err := pkgerrors.New(pkgerrors.CodeForbidden, "The rooftop bar is only available to tenants")
				if isJSONRoute(r) {
					responses.WriteError(r.Context(), logg, w, err)
					return
				}
				http.Error(w, err.Message(), http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
