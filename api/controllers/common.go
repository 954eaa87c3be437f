package controllers

import (
	"net/http"
	"net/url"

	"github.com/angelmondragon/residence-portal/api/responses"
	"github.com/angelmondragon/residence-portal/api/validators"
	"github.com/angelmondragon/residence-portal/internal/consumption"
	pkgerrors "github.com/angelmondragon/residence-portal/pkg/errors"
	"github.com/angelmondragon/residence-portal/pkg/session"
)

const (
	PathLogin       = "/login"
	PathCatalog     = "/rooftop/beverages"
	PathCart        = "/rooftop/cart"
	PathConsumption = consumption.Path

	maxQuantity = 99

	MsgSessionExpired = "Your session has expired. Please sign in again."
)

// sessionExpired reports whether a backend call of this request already
// published the session-expired event.
func sessionExpired(r *http.Request) bool {
	return session.GuardFromContext(r.Context()).Fired()
}

// actionFailed routes a failed mutation: expired sessions go to the login
// route once, everything else becomes a banner on back.
func actionFailed(w http.ResponseWriter, r *http.Request, render *responses.Renderer, loginPath, back string, err error, message string) {
	if sessionExpired(r) || pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized) {
		http.Redirect(w, r, loginPath, http.StatusSeeOther)
		return
	}
	render.Redirect(w, r, back, responses.FlashError(message))
}

// formQuantity reads the quantity field of a posted form.
func formQuantity(r *http.Request, def, min int) (int, error) {
	if err := r.ParseForm(); err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid form")
	}
	return validators.FormInt(r.PostForm, validators.IntField{
		Name:    "quantity",
		Label:   "Quantity",
		Default: def,
		Min:     min,
		Max:     maxQuantity,
	})
}

// localMessage is the message of a portal-side validation error.
func localMessage(err error, fallback string) string {
	if typed := pkgerrors.As(err); typed != nil && typed.Code() == pkgerrors.CodeValidation && typed.Message() != "" {
		return typed.Message()
	}
	return fallback
}

func catalogURL(category string) string {
	if category == "" || category == "all" {
		return PathCatalog
	}
	return PathCatalog + "?" + url.Values{"category": {category}}.Encode()
}
