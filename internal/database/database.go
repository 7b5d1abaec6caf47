// Package database opens the configured store: in-memory, or a SQL database
// through bun with schema migrations applied.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/mysqldialect"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"

	"ms-reservation/internal/config"
	"ms-reservation/internal/database/migrations"
	"ms-reservation/internal/logger"
	"ms-reservation/internal/store"
	"ms-reservation/internal/store/db"
	"ms-reservation/internal/store/memory"
)

const maxRetries = 5

// Open returns the store selected by cfg.Driver.
func Open(ctx context.Context, cfg config.DatabaseConfig, log *logger.Logger) (store.Store, error) {
	if log == nil {
		log = logger.NewNopLogger()
	}

	switch cfg.Driver {
	case "", "memory":
		log.Info("DATABASE", "Using in-memory store")
		return memory.New(), nil
	case "postgres":
		if cfg.PostgresDSN == "" {
			return nil, fmt.Errorf("POSTGRES_DSN not set")
		}
		sqldb, err := connect(ctx, "postgres", cfg.PostgresDSN, cfg, log)
		if err != nil {
			return nil, err
		}
		return migrate(ctx, bun.NewDB(sqldb, pgdialect.New()), cfg, log)
	case "mysql":
		if cfg.MySQLDSN == "" {
			return nil, fmt.Errorf("MYSQL_DSN not set")
		}
		dsn, err := mysqlDSN(cfg.MySQLDSN)
		if err != nil {
			return nil, err
		}
		sqldb, err := connect(ctx, "mysql", dsn, cfg, log)
		if err != nil {
			return nil, err
		}
		return migrate(ctx, bun.NewDB(sqldb, mysqldialect.New()), cfg, log)
	case "sqlite":
		sqldb, err := connect(ctx, sqliteshim.ShimName, cfg.SQLiteDSN, cfg, log)
		if err != nil {
			return nil, err
		}
		// SQLite allows a single writer.
		sqldb.SetMaxOpenConns(1)
		d := db.New(bun.NewDB(sqldb, sqlitedialect.New()))
		if err := d.CreateSchema(ctx); err != nil {
			d.Close()
			return nil, err
		}
		log.Info("DATABASE", "SQLite schema ready")
		return d, nil
	default:
		return nil, fmt.Errorf("unknown DB_DRIVER %q", cfg.Driver)
	}
}

// mysqlDSN forces the options the store and the migrations depend on.
func mysqlDSN(raw string) (string, error) {
	parsed, err := mysql.ParseDSN(raw)
	if err != nil {
		return "", fmt.Errorf("invalid MYSQL_DSN: %w", err)
	}
	parsed.ParseTime = true
	parsed.MultiStatements = true
	return parsed.FormatDSN(), nil
}

func connect(ctx context.Context, driverName, dsn string, cfg config.DatabaseConfig, log *logger.Logger) (*sql.DB, error) {
	var sqldb *sql.DB
	var err error

	for i := 0; i < maxRetries; i++ {
		log.Info("DATABASE", fmt.Sprintf("Attempting to connect to %s (attempt %d/%d)", cfg.Driver, i+1, maxRetries))
		sqldb, err = sql.Open(driverName, dsn)
		if err != nil {
			log.Error("DATABASE", fmt.Sprintf("Failed to open %s: %v", cfg.Driver, err))
			time.Sleep(2 * time.Second)
			continue
		}

		err = sqldb.PingContext(ctx)
		if err == nil {
			break
		}

		log.Error("DATABASE", fmt.Sprintf("Failed to connect to %s: %v", cfg.Driver, err))
		sqldb.Close()
		if i < maxRetries-1 {
			time.Sleep(2 * time.Second)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s after %d attempts: %w", cfg.Driver, maxRetries, err)
	}

	if cfg.MaxOpenConns > 0 {
		sqldb.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		sqldb.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.MaxLifetime > 0 {
		sqldb.SetConnMaxLifetime(cfg.MaxLifetime)
	}

	log.Info("DATABASE", fmt.Sprintf("%s connection successful", cfg.Driver))
	return sqldb, nil
}

func migrate(ctx context.Context, bunDB *bun.DB, cfg config.DatabaseConfig, log *logger.Logger) (store.Store, error) {
	if cfg.AutoMigrate {
		runner := migrations.NewRunner(bunDB, migrations.MigrateOptions{
			Driver:        strings.ToLower(cfg.Driver),
			MigrationsDir: cfg.MigrationsDir,
			AutoMigrate:   cfg.AutoMigrate,
			SeedData:      cfg.SeedData,
		}, log)
		// Closing the runner would close the shared *sql.DB.
		if err := runner.RunMigrations(); err != nil {
			bunDB.Close()
			return nil, err
		}
	}
	return db.New(bunDB), nil
}

// Reset rolls every SQL migration back. Only postgres and mysql are
// migration-managed.
func Reset(ctx context.Context, cfg config.DatabaseConfig, log *logger.Logger) error {
	if log == nil {
		log = logger.NewNopLogger()
	}

	var bunDB *bun.DB
	switch cfg.Driver {
	case "postgres":
		sqldb, err := connect(ctx, "postgres", cfg.PostgresDSN, cfg, log)
		if err != nil {
			return err
		}
		bunDB = bun.NewDB(sqldb, pgdialect.New())
	case "mysql":
		dsn, err := mysqlDSN(cfg.MySQLDSN)
		if err != nil {
			return err
		}
		sqldb, err := connect(ctx, "mysql", dsn, cfg, log)
		if err != nil {
			return err
		}
		bunDB = bun.NewDB(sqldb, mysqldialect.New())
	default:
		return fmt.Errorf("driver %q has no migrations to reset", cfg.Driver)
	}

	runner := migrations.NewRunner(bunDB, migrations.MigrateOptions{
		Driver:        cfg.Driver,
		MigrationsDir: cfg.MigrationsDir,
	}, log)
	defer bunDB.Close()
	defer runner.Close()

	if err := runner.MigrateDown(); err != nil {
		return err
	}
	log.Info("DATABASE", "All migrations rolled back")
	return nil
}
