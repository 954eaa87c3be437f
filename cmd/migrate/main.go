package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/angelmondragon/residence-portal/pkg/config"
	"github.com/angelmondragon/residence-portal/pkg/db"
	"github.com/angelmondragon/residence-portal/pkg/logger"
	"github.com/angelmondragon/residence-portal/pkg/migrate"
	"github.com/joho/godotenv"
)

type options struct {
	cmd     string
	dir     string
	name    string
	version string
}

func main() {
	_ = godotenv.Load()

	var opts options
	flag.StringVar(&opts.cmd, "cmd", "up", "migration command: up|down|status|version|create|validate")
	flag.StringVar(&opts.dir, "dir", migrate.DefaultDir, "migrations directory for create and validate")
	flag.StringVar(&opts.name, "name", "", "migration name (for create)")
	flag.StringVar(&opts.version, "version", "", "target version (YYYYMMDDHHMMSS) for -cmd=version")
	flag.Parse()

	if err := run(opts); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(opts options) error {
	switch opts.cmd {
	case "create":
		return create(opts)
	case "validate":
		return validate(opts)
	case "up", "down", "status", "version":
	default:
		return fmt.Errorf("unknown -cmd value: %s", opts.cmd)
	}

	cfg, err := config.LoadMigrate()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	logg := logger.New(logger.Options{
		ServiceName: "migrate",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		Format:      cfg.App.LogFormat,
		WarnStack:   cfg.App.LogWarnStack,
	})
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":    cfg.App.Env,
		"cmd":    opts.cmd,
		"driver": cfg.DB.Driver,
	})

	client, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		logg.Error(ctx, "database unavailable", err)
		return err
	}
	defer client.Close()

	sqlDB, err := client.SQL()
	if err != nil {
		return fmt.Errorf("sql handle: %w", err)
	}

	if opts.cmd == "version" {
		if opts.version == "" {
			return errors.New("missing -version for version command")
		}
		err = migrate.MigrateToVersion(ctx, sqlDB, client.Dialect(), opts.version)
	} else {
		err = migrate.Run(ctx, sqlDB, client.Dialect(), opts.cmd)
	}
	if err != nil {
		logg.Error(ctx, "migration failed", err)
		return err
	}
	logg.Info(ctx, "migration finished")
	return nil
}

func create(opts options) error {
	if opts.name == "" {
		return errors.New("missing -name for create")
	}
	path, err := migrate.CreateSQLMigration(opts.dir, opts.name, time.Now())
	if err != nil {
		return fmt.Errorf("creating migration: %w", err)
	}
	fmt.Println("created migration:", path)
	return nil
}

func validate(opts options) error {
	if err := migrate.ValidateDir(opts.dir); err != nil {
		return fmt.Errorf("migration validation failed: %w", err)
	}
	if err := migrate.ValidateEmbedded(); err != nil {
		return fmt.Errorf("embedded migrations are stale or invalid: %w", err)
	}
	fmt.Println("migration validation passed")
	return nil
}
