package controllers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/residence-portal/api/responses"
	"github.com/angelmondragon/residence-portal/internal/cart"
	pkgerrors "github.com/angelmondragon/residence-portal/pkg/errors"
	"github.com/angelmondragon/residence-portal/pkg/logger"
)

const msgItemRemoved = "Item removed from cart."

func CartPage(svc cart.Service, render *responses.Renderer, loginPath string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		view := svc.Load(r.Context())
		if sessionExpired(r) {
			http.Redirect(w, r, loginPath, http.StatusSeeOther)
			return
		}
		render.Render(w, r, http.StatusOK, "cart", responses.Page{
			Title:   "Your Cart",
			Active:  "cart",
			Content: view,
		})
	}
}

// CartQuantity sets a line to the posted quantity. Values below one are
// refused before any backend call.
func CartQuantity(svc cart.Service, render *responses.Renderer, loginPath string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		quantity, err := formQuantity(r, 0, 1)
		if err != nil {
			render.Redirect(w, r, PathCart, responses.FlashError(localMessage(err, cart.MsgUpdateFailed)))
			return
		}
		if _, err := svc.UpdateQuantity(r.Context(), chi.URLParam(r, "id"), quantity); err != nil {
			actionFailed(w, r, render, loginPath, PathCart, err, cart.UserMessage(err, cart.MsgUpdateFailed))
			return
		}
		http.Redirect(w, r, PathCart, http.StatusSeeOther)
	}
}

// CartRemoveConfirm asks before a line is removed.
func CartRemoveConfirm(svc cart.Service, render *responses.Renderer, loginPath string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		confirmation, err := svc.ConfirmRemove(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			actionFailed(w, r, render, loginPath, PathCart, err, cart.UserMessage(err, cart.MsgRemoveFailed))
			return
		}
		render.Render(w, r, http.StatusOK, "cart_remove", responses.Page{
			Title:   "Remove item",
			Active:  "cart",
			Content: confirmation,
		})
	}
}

// CartRemove performs a confirmed removal.
func CartRemove(svc cart.Service, render *responses.Renderer, loginPath string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, err := svc.RemoveItem(r.Context(), chi.URLParam(r, "id")); err != nil {
			actionFailed(w, r, render, loginPath, PathCart, err, cart.UserMessage(err, cart.MsgRemoveFailed))
			return
		}
		render.Redirect(w, r, PathCart, responses.FlashSuccess(msgItemRemoved))
	}
}

// CheckoutConfirm shows the item count and total about to be billed.
func CheckoutConfirm(svc cart.Service, render *responses.Renderer, loginPath string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		confirmation, err := svc.ConfirmCheckout(r.Context())
		if err != nil {
			if errors.Is(err, cart.ErrEmptyCart) {
				render.Redirect(w, r, PathCart, responses.FlashInfo(cart.ErrEmptyCart.Message()))
				return
			}
			actionFailed(w, r, render, loginPath, PathCart, err, cart.UserMessage(err, cart.MsgLoadFailed))
			return
		}
		render.Render(w, r, http.StatusOK, "cart_checkout", responses.Page{
			Title:   "Confirm checkout",
			Active:  "cart",
			Content: confirmation,
		})
	}
}

// Checkout performs a confirmed checkout.
func Checkout(svc cart.Service, render *responses.Renderer, loginPath string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		outcome, err := svc.Checkout(r.Context())
		if err != nil {
			actionFailed(w, r, render, loginPath, PathCart, err, cart.UserMessage(err, cart.MsgCheckoutFailed))
			return
		}
		render.Redirect(w, r, PathCart, responses.FlashSuccess(outcome.Message))
	}
}

// CartView serves the cart view model as JSON.
func CartView(svc cart.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		view := svc.Load(r.Context())
		if sessionExpired(r) {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, MsgSessionExpired))
			return
		}
		responses.WriteSuccess(w, view)
	}
}
