package database

import (
	"database/sql"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/lib/pq"
	"github.com/rs/zerolog"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"taskpilot/chat-api/internal/config"
)

// Connect opens the service database, creating it first if it does not
// exist yet.
func Connect(cfg *config.Config, logger zerolog.Logger) (*gorm.DB, error) {
	if err := ensureDatabaseExists(cfg.DatabaseURL, logger); err != nil {
		return nil, fmt.Errorf("ensure database exists: %w", err)
	}

	gormLevel := gormlogger.Warn
	if cfg.Environment == "development" {
		gormLevel = gormlogger.Info
	}

	db, err := gorm.Open(postgres.Open(cfg.DatabaseURL), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormLevel),
	})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("access connection pool: %w", err)
	}
	sqlDB.SetMaxIdleConns(cfg.DBMaxIdleConns)
	sqlDB.SetMaxOpenConns(cfg.DBMaxOpenConns)
	sqlDB.SetConnMaxLifetime(cfg.DBConnLifetime)

	logger.Info().
		Int("max_open_conns", cfg.DBMaxOpenConns).
		Dur("conn_max_lifetime", cfg.DBConnLifetime).
		Msg("database connected")
	return db, nil
}

// ensureDatabaseExists connects to the maintenance database and creates
// the target database when missing. Safe to run concurrently across
// replicas: duplicate creation errors are ignored.
func ensureDatabaseExists(databaseURL string, logger zerolog.Logger) error {
	parsed, err := url.Parse(databaseURL)
	if err != nil {
		return fmt.Errorf("parse database url: %w", err)
	}
	dbName := strings.TrimPrefix(parsed.Path, "/")
	if dbName == "" {
		return fmt.Errorf("database url has no database name")
	}

	adminURL := *parsed
	adminURL.Path = "/postgres"

	adminDB, err := sql.Open("postgres", adminURL.String())
	if err != nil {
		return fmt.Errorf("open maintenance connection: %w", err)
	}
	defer adminDB.Close()
	adminDB.SetConnMaxLifetime(time.Minute)

	var exists bool
	err = adminDB.QueryRow("SELECT EXISTS(SELECT 1 FROM pg_database WHERE datname = $1)", dbName).Scan(&exists)
	if err != nil {
		return fmt.Errorf("check database existence: %w", err)
	}
	if exists {
		return nil
	}

	_, err = adminDB.Exec(fmt.Sprintf("CREATE DATABASE %s", pq.QuoteIdentifier(dbName)))
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "42P04" {
			return nil
		}
		return fmt.Errorf("create database %s: %w", dbName, err)
	}
	logger.Info().Str("database", dbName).Msg("database created")
	return nil
}
