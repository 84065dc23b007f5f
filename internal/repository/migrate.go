package repository

import (
	"context"
	"fmt"
	"io/fs"

	"github.com/pressly/goose/v3"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"user-registry/internal/repository/migrations"
)

// Migrate applies every pending embedded migration for driver.
func Migrate(ctx context.Context, db *gorm.DB, driver string, log *zap.Logger) error {
	p, err := newProvider(db, driver)
	if err != nil {
		return err
	}

	results, err := p.Up(ctx)
	if err != nil {
		return fmt.Errorf("migrate up: %w", err)
	}
	for _, r := range results {
		log.Info("migration applied",
			zap.String("source", r.Source.Path),
			zap.Int64("version", r.Source.Version),
			zap.Duration("duration", r.Duration),
		)
	}

	version, err := p.GetDBVersion(ctx)
	if err != nil {
		return fmt.Errorf("migrate version: %w", err)
	}
	log.Info("schema ready", zap.Int64("version", version))
	return nil
}

// Rollback reverts the most recent migration.
func Rollback(ctx context.Context, db *gorm.DB, driver string, log *zap.Logger) error {
	p, err := newProvider(db, driver)
	if err != nil {
		return err
	}
	r, err := p.Down(ctx)
	if err != nil {
		return fmt.Errorf("migrate down: %w", err)
	}
	log.Info("migration rolled back", zap.String("source", r.Source.Path), zap.Int64("version", r.Source.Version))
	return nil
}

// SchemaVersion returns the latest applied migration version.
func SchemaVersion(ctx context.Context, db *gorm.DB, driver string) (int64, error) {
	p, err := newProvider(db, driver)
	if err != nil {
		return 0, err
	}
	return p.GetDBVersion(ctx)
}

func newProvider(db *gorm.DB, driver string) (*goose.Provider, error) {
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("sql db: %w", err)
	}

	var (
		dialect goose.Dialect
		dir     string
	)
	switch driver {
	case "", "sqlite":
		dialect, dir = goose.DialectSQLite3, "sqlite"
	case "postgres":
		dialect, dir = goose.DialectPostgres, "postgres"
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	fsys, err := fs.Sub(migrations.FS, dir)
	if err != nil {
		return nil, fmt.Errorf("migrations dir %s: %w", dir, err)
	}
	p, err := goose.NewProvider(dialect, sqlDB, fsys)
	if err != nil {
		return nil, fmt.Errorf("migration provider: %w", err)
	}
	return p, nil
}
