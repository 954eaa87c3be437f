package controllers

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/residence-portal/api/responses"
	"github.com/angelmondragon/residence-portal/internal/catalog"
	"github.com/angelmondragon/residence-portal/pkg/enums"
	pkgerrors "github.com/angelmondragon/residence-portal/pkg/errors"
	"github.com/angelmondragon/residence-portal/pkg/logger"
)

// CatalogPage renders the beverage catalog with the cart badge overlay.
func CatalogPage(svc catalog.Service, render *responses.Renderer, loginPath string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		view := svc.Load(r.Context(), enums.ParseCategoryFilter(r.URL.Query().Get("category")))
		if sessionExpired(r) {
			http.Redirect(w, r, loginPath, http.StatusSeeOther)
			return
		}
		render.Render(w, r, http.StatusOK, "catalog", responses.Page{
			Title:   "Rooftop Bar",
			Active:  "catalog",
			Content: view,
		})
	}
}

func CatalogAdd(svc catalog.Service, render *responses.Renderer, loginPath string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		beverageID := chi.URLParam(r, "id")
		quantity, err := formQuantity(r, 1, 1)
		back := catalogURL(r.PostForm.Get("category"))
		if err != nil {
			render.Redirect(w, r, back, responses.FlashError(localMessage(err, catalog.MsgAddFailed)))
			return
		}

		cart, err := svc.AddToCart(r.Context(), beverageID, quantity)
		if err != nil {
			actionFailed(w, r, render, loginPath, back, err, catalog.UserMessage(err, catalog.MsgAddFailed))
			return
		}
		name := "Item"
		for _, item := range cart.Items {
			if item.BeverageKey() == beverageID {
				name = item.DisplayName()
				break
			}
		}
		render.Redirect(w, r, back, responses.FlashSuccess(fmt.Sprintf("%s added to cart.", name)))
	}
}

// CatalogQuickOrder adds the beverage and checks out in one step.
func CatalogQuickOrder(svc catalog.Service, render *responses.Renderer, loginPath string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		quantity, err := formQuantity(r, 1, 1)
		back := catalogURL(r.PostForm.Get("category"))
		if err != nil {
			render.Redirect(w, r, back, responses.FlashError(localMessage(err, catalog.MsgOrderFailed)))
			return
		}

		outcome, err := svc.QuickOrder(r.Context(), chi.URLParam(r, "id"), quantity)
		if err != nil {
			actionFailed(w, r, render, loginPath, back, err, catalog.UserMessage(err, catalog.MsgOrderFailed))
			return
		}
		render.Redirect(w, r, back, responses.FlashSuccess(outcome.Message))
	}
}

// CatalogView serves the catalog view model as JSON.
func CatalogView(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		view := svc.Load(r.Context(), enums.ParseCategoryFilter(r.URL.Query().Get("category")))
		if sessionExpired(r) {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, MsgSessionExpired))
			return
		}
		responses.WriteSuccess(w, view)
	}
}
