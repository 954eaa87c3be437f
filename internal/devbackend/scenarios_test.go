package devbackend_test

import (
	"context"
	"errors"
	"fmt"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/angelmondragon/residence-portal/internal/cart"
	"github.com/angelmondragon/residence-portal/internal/catalog"
	"github.com/angelmondragon/residence-portal/internal/consumption"
	"github.com/angelmondragon/residence-portal/internal/devbackend"
	"github.com/angelmondragon/residence-portal/pkg/apiclient"
	"github.com/angelmondragon/residence-portal/pkg/config"
	"github.com/angelmondragon/residence-portal/pkg/enums"
	"github.com/angelmondragon/residence-portal/pkg/logger"
	pkgredis "github.com/angelmondragon/residence-portal/pkg/redis"
	"github.com/angelmondragon/residence-portal/pkg/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func embeddedRedis(t *testing.T) *pkgredis.Client {
	t.Helper()
	client, err := pkgredis.NewInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return client
}

// portal bundles the portal-side services talking to a live dev backend.
type portal struct {
	client      *apiclient.Client
	bus         *session.Bus
	catalog     catalog.Service
	cart        cart.Service
	consumption consumption.Service

	mu      sync.Mutex
	expired []session.Event
}

func startPortal(t *testing.T, mutate func(*config.DevBackendConfig)) *portal {
	t.Helper()
	cfg := config.DevBackendConfig{
		App: config.AppConfig{Env: "test"},
		DB: config.DBConfig{
			Driver:      config.DBDriverSQLite,
			DSN:         fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_")),
			AutoMigrate: true,
		},
		JWT:      config.JWTConfig{Secret: "scenario-secret", Issuer: "residence-devbackend", ExpirationMinutes: 30},
		Password: config.PasswordConfig{ArgonMemoryKB: 64, ArgonTime: 1, ArgonParallelism: 1, ArgonSaltLen: 16, ArgonKeyLen: 32},
		Seed: config.SeedConfig{
			TenantEmail:    "tenant@residence.local",
			TenantPassword: "rooftop",
			TenantName:     "Scenario Tenant",
			History:        true,
		},
	}
	if mutate != nil {
		mutate(&cfg)
	}
	app, err := devbackend.NewApp(context.Background(), cfg, logger.Nop())
	require.NoError(t, err)
	srv := httptest.NewServer(app.Handler)
	t.Cleanup(func() {
		srv.Close()
		_ = app.Close()
	})

	p := &portal{bus: session.NewBus()}
	require.NoError(t, p.bus.Subscribe(func(_ context.Context, evt session.Event) {
		p.mu.Lock()
		defer p.mu.Unlock()
		p.expired = append(p.expired, evt)
	}))

	p.client, err = apiclient.NewClient(srv.URL, apiclient.WithSessionBus(p.bus), apiclient.WithHTTPClient(srv.Client()))
	require.NoError(t, err)

	store, err := session.NewStore(embeddedRedis(t), session.Options{TTL: time.Hour})
	require.NoError(t, err)
	snapshots := cart.NewSnapshots(store)

	p.catalog, err = catalog.NewService(p.client, store, snapshots, nil)
	require.NoError(t, err)
	p.cart, err = cart.NewService(p.client, store, snapshots, nil)
	require.NoError(t, err)
	p.consumption, err = consumption.NewService(p.client, nil)
	require.NoError(t, err)
	return p
}

// login returns a request context carrying the tenant's credential and a fresh guard.
func (p *portal) login(t *testing.T, path string) context.Context {
	t.Helper()
	ctx := session.WithSessionID(context.Background(), "scenario-session")
	result, err := p.client.Login(ctx, apiclient.LoginRequest{Email: "tenant@residence.local", Password: "rooftop"})
	require.NoError(t, err)
	ctx = session.WithCredential(ctx, &session.Credential{
		SessionID: "scenario-session",
		Token:     result.Token,
		User:      result.User,
		IssuedAt:  time.Now(),
	})
	return session.WithGuard(ctx, session.NewGuard("scenario-session", path, "/login"))
}

func (p *portal) expiredCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.expired)
}

func beverageByName(t *testing.T, view *catalog.View, name string) catalog.Item {
	t.Helper()
	for _, item := range view.Items {
		if item.Name == name {
			return item
		}
	}
	t.Fatalf("beverage %q missing from catalog", name)
	return catalog.Item{}
}

func TestScenarioAddThenUpdateQuantity(t *testing.T) {
	p := startPortal(t, nil)
	ctx := p.login(t, "/rooftop/beverages")

	view := p.catalog.Load(ctx, enums.CategoryFilterAll)
	require.False(t, view.Beverages.Failed())
	cola := beverageByName(t, view, "Cola")
	assert.Equal(t, "Rs. 5.00", cola.Price)

	added, err := p.catalog.AddToCart(ctx, cola.ID, 1)
	require.NoError(t, err)
	require.Len(t, added.Items, 1)

	updated, err := p.cart.UpdateQuantity(ctx, added.Items[0].ID, 3)
	require.NoError(t, err)
	assert.Equal(t, "15", updated.TotalAmount.String())

	cartView := p.cart.Load(ctx)
	assert.Equal(t, "Rs. 15.00", cartView.Total)
	assert.Equal(t, 1, cartView.ItemCount)
	require.Len(t, cartView.Lines, 1)
	assert.True(t, cartView.Lines[0].CanDecrement)

	view = p.catalog.Load(ctx, enums.CategoryFilterAll)
	assert.Equal(t, 3, beverageByName(t, view, "Cola").InCart)
}

func TestScenarioConfirmAndCheckout(t *testing.T) {
	p := startPortal(t, nil)
	ctx := p.login(t, "/rooftop/cart")

	view := p.catalog.Load(ctx, enums.CategoryFilterAll)
	for _, name := range []string{"Cola", "Lemon Soda"} {
		_, err := p.catalog.AddToCart(ctx, beverageByName(t, view, name).ID, 1)
		require.NoError(t, err)
	}

	confirm, err := p.cart.ConfirmCheckout(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, confirm.ItemCount)
	assert.Equal(t, "Rs. 12.00", confirm.Total)
	assert.Contains(t, confirm.Text, "2 items")
	assert.Contains(t, confirm.Text, "Rs. 12.00")

	outcome, err := p.cart.Checkout(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Checkout successful. 2 items billed to your utility bill.", outcome.Message)
	assert.True(t, outcome.Cart.Empty())
	assert.Len(t, outcome.Result.ConsumptionIDs, 2)

	cartView := p.cart.Load(ctx)
	assert.Zero(t, cartView.ItemCount)
	assert.False(t, cartView.CheckoutEnabled)

	history := p.consumption.List(ctx, consumption.Filters{})
	require.False(t, history.State.Failed())
	assert.Equal(t, enums.ConsumptionSourceHistory, history.Source)
	assert.Equal(t, 4, history.Summary.Orders)
	assert.Equal(t, "Rs. 12.00", history.Summary.Pending)
}

func TestScenarioQuickOrderFailureKeepsCartLine(t *testing.T) {
	p := startPortal(t, func(cfg *config.DevBackendConfig) {
		cfg.Faults.FailCheckout = true
	})
	ctx := p.login(t, "/rooftop/beverages")

	view := p.catalog.Load(ctx, enums.CategoryFilterAll)
	lager := beverageByName(t, view, "House Lager")

	_, err := p.catalog.QuickOrder(ctx, lager.ID, 1)
	require.Error(t, err)
	assert.True(t, errors.Is(err, catalog.ErrOrderFailed))
	assert.Equal(t, "Failed to place order", catalog.UserMessage(err, catalog.MsgOrderFailed))

	cartView := p.cart.Load(ctx)
	require.Len(t, cartView.Lines, 1)
	assert.Equal(t, "House Lager", cartView.Lines[0].Name)

	_, err = p.cart.Checkout(ctx)
	require.Error(t, err)
	assert.Equal(t, "Checkout is temporarily unavailable", cart.UserMessage(err, cart.MsgCheckoutFailed))
}

func TestScenarioUnavailableBeverageCannotBeOrdered(t *testing.T) {
	p := startPortal(t, nil)
	ctx := p.login(t, "/rooftop/beverages")

	view := p.catalog.Load(ctx, enums.CategoryFilterAll)
	sunset := beverageByName(t, view, "Sunset Cocktail")
	assert.False(t, sunset.CanOrder)

	_, err := p.catalog.AddToCart(ctx, sunset.ID, 1)
	assert.True(t, errors.Is(err, catalog.ErrUnavailable))
}

func TestScenarioConsumptionFallsBackToLegacy(t *testing.T) {
	p := startPortal(t, func(cfg *config.DevBackendConfig) {
		cfg.Faults.DisabledConsumption = []string{"history", "flat"}
	})
	ctx := p.login(t, "/rooftop/consumption")

	view := p.consumption.List(ctx, consumption.Filters{})
	require.False(t, view.State.Failed())
	assert.Equal(t, enums.ConsumptionSourceLegacy, view.Source)
	require.Len(t, view.Rows, 2)

	categories := map[string]string{}
	for _, row := range view.Rows {
		categories[row.Name] = row.Category
	}
	assert.Equal(t, string(enums.BeverageCategoryAlcoholic), categories["House Lager"])
	assert.Equal(t, string(enums.BeverageCategoryNonAlcoholic), categories["Cola"])

	alcoholic := p.consumption.List(ctx, consumption.Filters{Category: enums.CategoryFilter(enums.BeverageCategoryAlcoholic)})
	require.Len(t, alcoholic.Rows, 1)
	assert.Equal(t, "Rs. 25.00", alcoholic.Summary.Total)
}

func TestScenarioFlatSourceKeepsBillStatus(t *testing.T) {
	p := startPortal(t, func(cfg *config.DevBackendConfig) {
		cfg.Faults.DisabledConsumption = []string{"history"}
	})
	ctx := p.login(t, "/rooftop/consumption")

	view := p.consumption.List(ctx, consumption.Filters{})
	require.False(t, view.State.Failed())
	assert.Equal(t, enums.ConsumptionSourceFlat, view.Source)
	for _, row := range view.Rows {
		assert.Equal(t, "Paid via Utility Bill", row.Status)
	}
	assert.Equal(t, "Rs. 35.00", view.Summary.Paid)
	assert.Equal(t, "Rs. 0.00", view.Summary.Pending)
}

func TestScenarioExpiredTokenPublishesOnce(t *testing.T) {
	p := startPortal(t, nil)
	ctx := session.WithSessionID(context.Background(), "stale-session")
	ctx = session.WithCredential(ctx, &session.Credential{SessionID: "stale-session", Token: "expired.token.value"})
	ctx = session.WithGuard(ctx, session.NewGuard("stale-session", "/rooftop/beverages", "/login"))

	view := p.catalog.Load(ctx, enums.CategoryFilterAll)
	assert.True(t, view.Beverages.Failed())
	assert.Equal(t, 1, p.expiredCount())
	assert.True(t, session.GuardFromContext(ctx).Fired())

	history := p.consumption.List(ctx, consumption.Filters{})
	assert.True(t, history.State.Failed())
	assert.Equal(t, 1, p.expiredCount())
}
