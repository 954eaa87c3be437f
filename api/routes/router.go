package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/residence-portal/api/controllers"
	"github.com/angelmondragon/residence-portal/api/middleware"
	"github.com/angelmondragon/residence-portal/api/responses"
	"github.com/angelmondragon/residence-portal/internal/cart"
	"github.com/angelmondragon/residence-portal/internal/catalog"
	"github.com/angelmondragon/residence-portal/internal/consumption"
	"github.com/angelmondragon/residence-portal/pkg/config"
	"github.com/angelmondragon/residence-portal/pkg/logger"
	"github.com/angelmondragon/residence-portal/pkg/metrics"
	"github.com/angelmondragon/residence-portal/pkg/session"
)

const tenantRole = "tenant"

// SessionStore is the session state the router and its handlers need.
type SessionStore interface {
	middleware.CredentialLoader
	controllers.SessionWriter
	responses.FlashStore
}

// RateCounter backs the sign-in throttle.
type RateCounter interface {
	IncrWithTTL(ctx context.Context, key string, ttl time.Duration) (int64, error)
	RateLimitKey(policy, scope, subject string) string
}

// Services are the view services behind the portal pages.
type Services struct {
	Auth        controllers.Authenticator
	Catalog     catalog.Service
	Cart        cart.Service
	Consumption consumption.Service
}

// Observability carries the metrics surfaces. Both fields are optional.
type Observability struct {
	HTTP     *metrics.HTTPMetrics
	Gatherer prometheus.Gatherer
}

// NewRouter builds the portal router and subscribes it to session events.
// The router is the bus's only subscriber: it drops the rejected credential
// and queues the expiry banner for the login page.
func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	render *responses.Renderer,
	sessions SessionStore,
	counter RateCounter,
	bus *session.Bus,
	svcs Services,
	obs Observability,
	readiness ...controllers.ReadinessCheck,
) (http.Handler, error) {
	if logg == nil {
		logg = logger.Nop()
	}
	if err := bus.Subscribe(expireSession(sessions, logg)); err != nil {
		return nil, err
	}

	loginPath := cfg.Session.LoginPath

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg, nil),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.Metrics(obs.HTTP),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, readiness...))
	})
	if cfg.Metrics.Enabled && obs.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(obs.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Group(func(r chi.Router) {
		r.Use(middleware.Session(cfg.Session, sessions, logg))

		r.Get("/", func(w http.ResponseWriter, r *http.Request) {
			http.Redirect(w, r, controllers.PathCatalog, http.StatusSeeOther)
		})
		r.Get(loginPath, controllers.LoginPage(render))
		r.With(middleware.AuthRateLimit(
			middleware.LoginPolicy(cfg.Limits),
			counter,
			controllers.LoginThrottled(loginPath, render),
			logg,
		)).Post(loginPath, controllers.Login(svcs.Auth, sessions, cfg.Session, render, logg))
		r.Post("/logout", controllers.Logout(sessions, loginPath, render))

		r.Route("/rooftop", func(r chi.Router) {
			r.Use(middleware.RequireCredential(loginPath, logg))
			r.Use(middleware.RequireRole(tenantRole, logg))

			r.Get("/beverages", controllers.CatalogPage(svcs.Catalog, render, loginPath))
			r.Post("/beverages/{id}/add", controllers.CatalogAdd(svcs.Catalog, render, loginPath))
			r.Post("/beverages/{id}/quick-order", controllers.CatalogQuickOrder(svcs.Catalog, render, loginPath))

			r.Get("/cart", controllers.CartPage(svcs.Cart, render, loginPath))
			r.Post("/cart/items/{id}/quantity", controllers.CartQuantity(svcs.Cart, render, loginPath))
			r.Get("/cart/items/{id}/remove", controllers.CartRemoveConfirm(svcs.Cart, render, loginPath))
			r.Post("/cart/items/{id}/remove", controllers.CartRemove(svcs.Cart, render, loginPath))
			r.Get("/cart/checkout", controllers.CheckoutConfirm(svcs.Cart, render, loginPath))
			r.Post("/cart/checkout", controllers.Checkout(svcs.Cart, render, loginPath))

			r.Get("/consumption", controllers.ConsumptionPage(svcs.Consumption, render, loginPath))
		})

		r.Route("/api/views", func(r chi.Router) {
			r.Use(middleware.CORS(cfg.CORS.AllowedOrigins))
			r.Use(middleware.RequireCredential(loginPath, logg))
			r.Use(middleware.RequireRole(tenantRole, logg))

			r.Get("/catalog", controllers.CatalogView(svcs.Catalog, logg))
			r.Get("/cart", controllers.CartView(svcs.Cart, logg))
			r.Get("/consumption", controllers.ConsumptionView(svcs.Consumption, logg))
		})

		r.NotFound(func(w http.ResponseWriter, r *http.Request) {
			render.RenderError(w, r, http.StatusNotFound, "Page not found", "The page you were looking for does not exist.")
		})
	})

	return r, nil
}

func expireSession(sessions SessionStore, logg *logger.Logger) session.Handler {
	return func(ctx context.Context, evt session.Event) {
		ctx = logg.WithFields(context.WithoutCancel(ctx), map[string]any{
			"session_id": evt.SessionID,
			"path":       evt.Path,
		})
		if err := sessions.Clear(ctx, evt.SessionID); err != nil {
			logg.Error(ctx, "session.clear_failed", err)
		}
		if err := sessions.PushFlash(ctx, evt.SessionID, responses.FlashInfo(controllers.MsgSessionExpired)); err != nil {
			logg.Warn(logg.WithError(ctx, err), "session.flash_failed")
		}
		logg.Info(ctx, "session.expired")
	}
}
