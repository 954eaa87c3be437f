package controllers

import (
	"net/http"

	"github.com/angelmondragon/residence-portal/api/responses"
	"github.com/angelmondragon/residence-portal/internal/consumption"
	pkgerrors "github.com/angelmondragon/residence-portal/pkg/errors"
	"github.com/angelmondragon/residence-portal/pkg/logger"
)

// ConsumptionPage renders the filtered history and its summary.
func ConsumptionPage(svc consumption.Service, render *responses.Renderer, loginPath string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		view := svc.List(r.Context(), consumption.ParseFilters(r.URL.Query()))
		if sessionExpired(r) {
			http.Redirect(w, r, loginPath, http.StatusSeeOther)
			return
		}
		render.Render(w, r, http.StatusOK, "consumption", responses.Page{
			Title:   "My Consumption",
			Active:  "consumption",
			Content: view,
		})
	}
}

func ConsumptionView(svc consumption.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		view := svc.List(r.Context(), consumption.ParseFilters(r.URL.Query()))
		if sessionExpired(r) {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, MsgSessionExpired))
			return
		}
		responses.WriteSuccess(w, view)
	}
}
