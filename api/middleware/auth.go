package middleware

import (
	"net/http"

	"github.com/angelmondragon/residence-portal/api/responses"
	pkgerrors "github.com/angelmondragon/residence-portal/pkg/errors"
	"github.com/angelmondragon/residence-portal/pkg/logger"
	"github.com/angelmondragon/residence-portal/pkg/session"
)

// RequireCredential sends requests without a session credential to the
// login route. JSON routes get a 401 envelope instead of a redirect.
func RequireCredential(loginPath string, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := session.CredentialFromContext(r.Context()); ok {
				next.ServeHTTP(w, r)
				return
			}
			if isJSONRoute(r) {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "sign in required"))
				return
			}
			http.Redirect(w, r, loginPath, http.StatusSeeOther)
		})
	}
}
