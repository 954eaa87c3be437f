// Package migrate applies the dev backend schema with goose.
package migrate

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"strconv"
	"sync"

	"github.com/pressly/goose/v3"
)

// DefaultDir is the on-disk location used by the create and validate commands.
const DefaultDir = "pkg/migrate/migrations"

const embeddedDir = "migrations"

//go:embed migrations/*.sql
var embedded embed.FS

// goose keeps its dialect and filesystem in package globals.
var gooseMu sync.Mutex

func withGoose(dialect string, fn func() error) error {
	gooseMu.Lock()
	defer gooseMu.Unlock()
	goose.SetBaseFS(embedded)
	if err := goose.SetDialect(dialect); err != nil {
		return fmt.Errorf("set goose dialect: %w", err)
	}
	return fn()
}

// Run executes a goose command (up, down, status...) against the embedded
// migrations.
func Run(ctx context.Context, db *sql.DB, dialect string, command string, args ...string) error {
	if db == nil {
		return errors.New("db is required")
	}
	return withGoose(dialect, func() error {
		if err := goose.RunContext(ctx, command, db, embeddedDir, args...); err != nil {
			return fmt.Errorf("goose %s: %w", command, err)
		}
		return nil
	})
}

func Version(ctx context.Context, db *sql.DB, dialect string) (version int64, err error) {
	err = withGoose(dialect, func() error {
		version, err = goose.GetDBVersionContext(ctx, db)
		return err
	})
	return version, err
}

// MigrateToVersion moves the schema up or down to target, a
// YYYYMMDDHHMMSS version string.
func MigrateToVersion(ctx context.Context, db *sql.DB, dialect string, target string) error {
	if target == "" {
		return errors.New("target version is required")
	}
	want, err := strconv.ParseInt(target, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid version %q (expected YYYYMMDDHHMMSS): %w", target, err)
	}

	return withGoose(dialect, func() error {
		current, err := goose.GetDBVersionContext(ctx, db)
		if err != nil {
			return fmt.Errorf("get db version: %w", err)
		}
		step, verb := goose.UpToContext, "up-to"
		switch {
		case current == want:
			return nil
		case current > want:
			step, verb = goose.DownToContext, "down-to"
		}
		if err := step(ctx, db, embeddedDir, want); err != nil {
			return fmt.Errorf("goose %s %d: %w", verb, want, err)
		}
		return nil
	})
}
