package devbackend

import (
	"context"
	"fmt"
	"net/http"

	"github.com/angelmondragon/residence-portal/api/middleware"
	"github.com/angelmondragon/residence-portal/api/validators"
	"github.com/angelmondragon/residence-portal/pkg/auth"
	"github.com/angelmondragon/residence-portal/pkg/config"
	"github.com/angelmondragon/residence-portal/pkg/enums"
	pkgerrors "github.com/angelmondragon/residence-portal/pkg/errors"
	"github.com/angelmondragon/residence-portal/pkg/logger"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

func tenantFromContext(ctx context.Context) uuid.UUID {
	claims, ok := middleware.ClaimsFromContext(ctx)
	if !ok {
		return uuid.Nil
	}
	return claims.TenantID
}

// NewRouter wires the backend REST contract consumed by the portal.
func NewRouter(svc *Service, jwtCfg config.JWTConfig, logg *logger.Logger) http.Handler {
	h := &handlers{svc: svc, logg: logg}
	writeErr := func(ctx context.Context, w http.ResponseWriter, err error) {
		writeError(ctx, logg, w, err)
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID(logg))
	r.Use(middleware.Logging(logg))
	r.Use(middleware.Recoverer(logg, writeErr))

	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		writeData(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(api chi.Router) {
		api.Post("/auth/login", h.login)

		api.Group(func(authed chi.Router) {
			authed.Use(middleware.BearerAuth(jwtCfg, auth.RoleTenant, writeErr, logg))

			authed.Get("/rooftop/beverages", h.listBeverages)
			authed.Get("/rooftop/cart", h.getCart)
			authed.Post("/rooftop/cart/items", h.addItem)
			authed.Put("/rooftop/cart/items/{itemId}", h.updateItem)
			authed.Delete("/rooftop/cart/items/{itemId}", h.removeItem)
			authed.Post("/rooftop/cart/checkout", h.checkout)

			authed.Get("/rooftop/consumption/history", h.consumption(enums.ConsumptionSourceHistory))
			authed.Get("/rooftop/consumption", h.consumption(enums.ConsumptionSourceFlat))
			authed.Get("/tenant/beverage-consumption", h.consumption(enums.ConsumptionSourceLegacy))
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeNotFound, "Route not found"))
	})
	return r
}

type handlers struct {
	svc  *Service
	logg *logger.Logger
}

type loginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type addItemRequest struct {
	BeverageID string `json:"beverageId" validate:"required,uuid"`
	Quantity   int    `json:"quantity" validate:"min=1"`
}

type updateItemRequest struct {
	Quantity int `json:"quantity" validate:"min=1"`
}

func (h *handlers) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := validators.DecodeJSONBody(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	result, err := h.svc.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeData(w, http.StatusOK, result)
}

func (h *handlers) listBeverages(w http.ResponseWriter, r *http.Request) {
	beverages, err := h.svc.ListBeverages(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeData(w, http.StatusOK, beverages)
}

func (h *handlers) getCart(w http.ResponseWriter, r *http.Request) {
	cart, err := h.svc.GetCart(r.Context(), tenantFromContext(r.Context()))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeData(w, http.StatusOK, cart)
}

func (h *handlers) addItem(w http.ResponseWriter, r *http.Request) {
	var req addItemRequest
	if err := validators.DecodeJSONBody(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	beverageID, err := uuid.Parse(req.BeverageID)
	if err != nil {
		h.fail(w, r, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "beverageId must be a valid id"))
		return
	}
	cart, err := h.svc.AddItem(r.Context(), tenantFromContext(r.Context()), beverageID, req.Quantity)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeData(w, http.StatusCreated, cart)
}

func (h *handlers) updateItem(w http.ResponseWriter, r *http.Request) {
	itemID, err := itemIDParam(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	var req updateItemRequest
	if err := validators.DecodeJSONBody(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	cart, err := h.svc.UpdateItem(r.Context(), tenantFromContext(r.Context()), itemID, req.Quantity)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeData(w, http.StatusOK, cart)
}

func (h *handlers) removeItem(w http.ResponseWriter, r *http.Request) {
	itemID, err := itemIDParam(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	cart, err := h.svc.RemoveItem(r.Context(), tenantFromContext(r.Context()), itemID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeData(w, http.StatusOK, cart)
}

func (h *handlers) checkout(w http.ResponseWriter, r *http.Request) {
	result, err := h.svc.Checkout(r.Context(), tenantFromContext(r.Context()))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeData(w, http.StatusOK, result)
}

func (h *handlers) consumption(source enums.ConsumptionSource) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if h.svc.SourceDisabled(source) {
			h.fail(w, r, pkgerrors.New(pkgerrors.CodeInternal, fmt.Sprintf("Consumption %s endpoint is disabled", source)))
			return
		}
		records, err := h.svc.Consumption(r.Context(), tenantFromContext(r.Context()))
		if err != nil {
			h.fail(w, r, err)
			return
		}
		switch source {
		case enums.ConsumptionSourceHistory:
			writeData(w, http.StatusOK, newHistoryPayload(records))
		case enums.ConsumptionSourceFlat:
			writeData(w, http.StatusOK, newFlatPayload(records))
		default:
			writeData(w, http.StatusOK, newLegacyPayload(records))
		}
	}
}

func (h *handlers) fail(w http.ResponseWriter, r *http.Request, err error) {
	writeError(r.Context(), h.logg, w, err)
}

func itemIDParam(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, "itemId"))
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cart item id")
	}
	return id, nil
}
