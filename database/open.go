package database

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/plugin/dbresolver"

	"github.com/rpupo63/portfolio-site-backend/config"
)

// DSN builds the connection string for the configured relational backend.
func DSN(cfg config.DatabaseConfig) (string, error) {
	switch cfg.Type {
	case config.DBPostgres:
		return cfg.URL, nil
	case config.DBSupabase:
		return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=require",
			cfg.SupabaseHost,
			cfg.SupabaseUser,
			cfg.SupabasePassword,
			cfg.SupabaseName,
			cfg.SupabasePort,
		), nil
	default:
		return "", fmt.Errorf("DB_TYPE %q is not a relational backend", cfg.Type)
	}
}

// Open connects to Postgres, registers the read replica when one is configured and checks
// the connection.
func Open(ctx context.Context, cfg config.DatabaseConfig) (*gorm.DB, error) {
	connStr, err := DSN(cfg)
	if err != nil {
		return nil, err
	}

	gormLog := log.With().Str("component", "gorm").Logger()
	newLogger := logger.New(
		&gormLog,
		logger.Config{
			SlowThreshold:             cfg.SlowQuery,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)

	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN:                  connStr,
		PreferSimpleProtocol: true,
	}), &gorm.Config{
		PrepareStmt:    false,
		Logger:         newLogger,
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	if cfg.ReplicaURL != "" {
		err := db.Use(dbresolver.Register(dbresolver.Config{
			Replicas: []gorm.Dialector{postgres.New(postgres.Config{
				DSN:                  cfg.ReplicaURL,
				PreferSimpleProtocol: true,
			})},
			Policy: dbresolver.RandomPolicy{},
		}))
		if err != nil {
			return nil, fmt.Errorf("register read replica: %w", err)
		}
		log.Info().Msg("read replica registered")
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLife)

	// Test database connection
	var result int
	if err := db.WithContext(ctx).Raw("SELECT 1").Scan(&result).Error; err != nil {
		return nil, fmt.Errorf("test database connection: %w", err)
	}

	return db, nil
}
