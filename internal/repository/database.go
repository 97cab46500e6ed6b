package repository

import (
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq" // PostgreSQL driver
	"go.uber.org/zap"
	_ "modernc.org/sqlite" // SQLite driver
)

//go:embed migrations/sqlite/*.sql migrations/postgres/*.sql
var migrationFiles embed.FS

// NewDB opens the store selected by dbType ("sqlite" or "postgres").
func NewDB(dbType, dataSourceName string, logger *zap.Logger) (*sqlx.DB, error) {
	switch dbType {
	case "sqlite":
		return NewSQLiteDB(dataSourceName, logger)
	case "postgres":
		return NewPostgresDB(dataSourceName, logger)
	default:
		return nil, fmt.Errorf("unsupported database type %q", dbType)
	}
}

// NewSQLiteDB opens (and creates if needed) a SQLite database file.
func NewSQLiteDB(path string, logger *zap.Logger) (*sqlx.DB, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sqlx.Open("sqlite", path+"?_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// SQLite allows a single writer.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logger.Info("Successfully connected to the database!", zap.String("type", "sqlite"), zap.String("path", path))
	return db, nil
}

// NewPostgresDB establishes a new connection to the PostgreSQL database.
func NewPostgresDB(dataSourceName string, logger *zap.Logger) (*sqlx.DB, error) {
	db, err := sqlx.Connect("postgres", dataSourceName)
	if err != nil {
		return nil, err
	}

	if err := db.Ping(); err != nil {
		return nil, err
	}

	logger.Info("Successfully connected to the database!", zap.String("type", "postgres"))
	return db, nil
}

// MigrateDB runs the embedded migrations for the driver db was opened with.
func MigrateDB(db *sqlx.DB, logger *zap.Logger) error {
	var (
		driver  database.Driver
		dirName string
		err     error
	)

	switch db.DriverName() {
	case "sqlite":
		dirName = "migrations/sqlite"
		driver, err = sqlite.WithInstance(db.DB, &sqlite.Config{})
	case "postgres":
		dirName = "migrations/postgres"
		driver, err = postgres.WithInstance(db.DB, &postgres.Config{})
	default:
		return fmt.Errorf("no migrations for driver %q", db.DriverName())
	}
	if err != nil {
		return fmt.Errorf("couldn't get database instance for running migrations: %w", err)
	}

	src, err := iofs.New(migrationFiles, dirName)
	if err != nil {
		return fmt.Errorf("couldn't read embedded migrations: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, "wellness", driver)
	if err != nil {
		return fmt.Errorf("couldn't create migrate instance: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("couldn't run database migration: %w", err)
	}

	logger.Info("Database migration was run successfully", zap.String("driver", db.DriverName()))
	return nil
}
