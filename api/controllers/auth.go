package controllers

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/angelmondragon/residence-portal/api/middleware"
	"github.com/angelmondragon/residence-portal/api/responses"
	"github.com/angelmondragon/residence-portal/api/validators"
	"github.com/angelmondragon/residence-portal/pkg/apiclient"
	pkgauth "github.com/angelmondragon/residence-portal/pkg/auth"
	"github.com/angelmondragon/residence-portal/pkg/config"
	pkgerrors "github.com/angelmondragon/residence-portal/pkg/errors"
	"github.com/angelmondragon/residence-portal/pkg/logger"
	"github.com/angelmondragon/residence-portal/pkg/session"
)

const (
	msgLoginFailed    = "Sign in failed. Please try again."
	msgLoginThrottled = "Too many sign-in attempts. Please wait a minute and try again."
	msgSignedOut      = "You have been signed out."

	maxEmailLen = 254
)

// Authenticator exchanges tenant credentials for a bearer token.
type Authenticator interface {
	Login(ctx context.Context, req apiclient.LoginRequest) (*apiclient.LoginResult, error)
}

// SessionWriter stores and drops session credentials.
type SessionWriter interface {
	Save(ctx context.Context, cred session.Credential) error
	Clear(ctx context.Context, sessionID string) error
}

type loginForm struct {
	Email    string `form:"email" validate:"required,email"`
	Password string `form:"password" validate:"required"`
}

type loginContent struct {
	Email string
}

// LoginPage renders the sign-in form. Signed-in tenants go to the catalog.
func LoginPage(render *responses.Renderer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := session.CredentialFromContext(r.Context()); ok {
			http.Redirect(w, r, PathCatalog, http.StatusSeeOther)
			return
		}
		render.Render(w, r, http.StatusOK, "login", responses.Page{
			Title:   "Sign in",
			Content: loginContent{Email: validators.FormString(r.URL.Query(), "email", maxEmailLen)},
		})
	}
}

// Login signs the tenant in and rotates the session id.
func Login(auth Authenticator, sessions SessionWriter, cfg config.SessionConfig, render *responses.Renderer, logg *logger.Logger) http.HandlerFunc {
	if logg == nil {
		logg = logger.Nop()
	}
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if err := r.ParseForm(); err != nil {
			render.Redirect(w, r, cfg.LoginPath, responses.FlashError(msgLoginFailed))
			return
		}
		form := loginForm{
			Email:    validators.FormString(r.PostForm, "email", maxEmailLen),
			Password: r.PostForm.Get("password"),
		}
		retry := cfg.LoginPath
		if form.Email != "" {
			retry += "?" + url.Values{"email": {form.Email}}.Encode()
		}
		if err := validators.Struct(form); err != nil {
			render.Redirect(w, r, retry, responses.FlashError(localMessage(err, msgLoginFailed)))
			return
		}

		result, err := auth.Login(ctx, apiclient.LoginRequest{Email: form.Email, Password: form.Password})
		if err != nil {
			if !pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized) && !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
				logg.Warn(logg.WithError(ctx, err), "login.failed")
			}
			render.Redirect(w, r, retry, responses.FlashError(pkgerrors.UserMessage(err, msgLoginFailed)))
			return
		}

		sid, err := session.NewID()
		if err != nil {
			logg.Error(ctx, "login.session_id_failed", err)
			render.Redirect(w, r, retry, responses.FlashError(msgLoginFailed))
			return
		}
		cred := session.Credential{
			SessionID: sid,
			Token:     result.Token,
			User:      result.User,
			ExpiresAt: pkgauth.PeekExpiry(result.Token),
		}
		if err := sessions.Save(ctx, cred); err != nil {
			logg.Error(ctx, "login.session_save_failed", err)
			render.Redirect(w, r, retry, responses.FlashError(msgLoginFailed))
			return
		}
		if previous := session.SessionIDFromContext(ctx); previous != "" {
			_ = sessions.Clear(ctx, previous)
		}
		middleware.SetSessionCookie(w, cfg, sid)

		ctx = session.WithCredential(session.WithSessionID(ctx, sid), &cred)
		logg.Info(logg.WithSessionID(ctx, sid), "login.succeeded")
		welcome := "Welcome back"
		if name := strings.TrimSpace(result.User.Name); name != "" {
			welcome += ", " + name
		}
		render.Redirect(w, r.WithContext(ctx), PathCatalog, responses.FlashSuccess(welcome+"."))
	}
}

// Logout drops the credential. The browser keeps its session cookie.
func Logout(sessions SessionWriter, loginPath string, render *responses.Renderer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_ = sessions.Clear(r.Context(), session.SessionIDFromContext(r.Context()))
		render.Redirect(w, r, loginPath, responses.FlashInfo(msgSignedOut))
	}
}

// LoginThrottled answers sign-in posts blocked by the rate limiter.
func LoginThrottled(loginPath string, render *responses.Renderer) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		render.Redirect(w, r, loginPath, responses.FlashError(msgLoginThrottled))
	})
}
