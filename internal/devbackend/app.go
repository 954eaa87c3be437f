package devbackend

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/angelmondragon/residence-portal/pkg/config"
	"github.com/angelmondragon/residence-portal/pkg/db"
	"github.com/angelmondragon/residence-portal/pkg/logger"
	"github.com/angelmondragon/residence-portal/pkg/migrate"
	"github.com/angelmondragon/residence-portal/pkg/security"
)

// App is a fully wired dev backend: database, schema, seed data and router.
type App struct {
	DB      *db.Client
	Service *Service
	Seed    *SeedResult
	Handler http.Handler
}

// NewApp opens the database, migrates and seeds it, and builds the router.
func NewApp(ctx context.Context, cfg config.DevBackendConfig, logg *logger.Logger) (*App, error) {
	if logg == nil {
		logg = logger.Nop()
	}

	client, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		return nil, err
	}
	if err := migrate.MaybeRun(ctx, cfg.DB, logg, client); err != nil {
		_ = client.Close()
		return nil, err
	}

	repo := NewRepository(client.DB())
	hasher := security.NewHasher(cfg.Password)

	seeded, err := Seed(ctx, repo, hasher, cfg.Seed, time.Now())
	if err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("seed: %w", err)
	}

	svc, err := NewService(ServiceParams{
		Repo:   repo,
		Tx:     client,
		Hasher: hasher,
		JWT:    cfg.JWT,
		Faults: cfg.Faults,
	})
	if err != nil {
		_ = client.Close()
		return nil, err
	}

	logg.Info(logg.WithFields(ctx, map[string]any{
		"beverages_created": seeded.BeveragesCreated,
		"tenant_created":    seeded.TenantCreated,
		"fail_checkout":     cfg.Faults.FailCheckout,
		"disabled_sources":  cfg.Faults.DisabledConsumption,
	}), "devbackend ready")

	return &App{
		DB:      client,
		Service: svc,
		Seed:    seeded,
		Handler: NewRouter(svc, cfg.JWT, logg),
	}, nil
}

func (a *App) Close() error {
	return a.DB.Close()
}
