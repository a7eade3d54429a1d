package main

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/rpupo63/portfolio-site-backend/config"
	"github.com/rpupo63/portfolio-site-backend/database"
	"github.com/rpupo63/portfolio-site-backend/memstore"
	"github.com/rpupo63/portfolio-site-backend/models"
	"github.com/rpupo63/portfolio-site-backend/mongodb"
	"github.com/rpupo63/portfolio-site-backend/services"
)

var (
	migrateReport bool
	adminEmail    string
	adminPassword string
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the schema and normalise stored settings",
	Long: `Creates tables (or collections and indexes), inserts the default site settings
when none exist and rewrites a settings document that still uses the legacy
github/linkedin/twitter contact fields.

With --report, also prints the columns that differ between the SQL schema and
the models.`,
	RunE: runMigrate,
}

var adminCmd = &cobra.Command{
	Use:   "admin",
	Short: "Admin account management",
}

var adminCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create an admin account",
	Long: `Creates a locally authenticated admin, even when one already exists.

Example:
  portfolio-backend admin create --email me@example.com --password 'correct horse'`,
	RunE: runAdminCreate,
}

func init() {
	migrateCmd.Flags().BoolVar(&migrateReport, "report", false, "print a column mismatch report (SQL stores only)")

	adminCreateCmd.Flags().StringVar(&adminEmail, "email", "", "admin email (required)")
	adminCreateCmd.Flags().StringVar(&adminPassword, "password", "", "admin password (required)")
	_ = adminCreateCmd.MarkFlagRequired("email")
	_ = adminCreateCmd.MarkFlagRequired("password")
	adminCmd.AddCommand(adminCreateCmd)
}

// storeBackend is the store selected by DB_TYPE together with its schema hook.
type storeBackend struct {
	stores  services.Stores
	migrate func(ctx context.Context) error
	sql     *database.Database
}

func openBackend(ctx context.Context, cfg *config.Config) (*storeBackend, error) {
	switch cfg.Database.Type {
	case config.DBPostgres, config.DBSupabase:
		db, err := database.Open(ctx, cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("open database: %w", err)
		}
		sqlDB := database.New(db)
		return &storeBackend{
			stores: services.Stores{
				Projects: sqlDB.ProjectRepo(),
				Settings: sqlDB.SiteSettingsRepo(),
				Admins:   sqlDB.AdminRepo(),
				Ping:     sqlDB.Ping,
				Close:    sqlDB.Close,
			},
			migrate: func(ctx context.Context) error {
				if err := sqlDB.Migrate(ctx); err != nil {
					return err
				}
				return sqlDB.Seed(ctx)
			},
			sql: &sqlDB,
		}, nil

	case config.DBMongo:
		mongo, err := mongodb.Open(ctx, cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("open mongodb: %w", err)
		}
		return &storeBackend{
			stores: services.Stores{
				Projects: mongo.ProjectRepo(),
				Settings: mongo.SiteSettingsRepo(),
				Admins:   mongo.AdminRepo(),
				Ping:     mongo.Ping,
				Close:    mongo.Close,
			},
			migrate: func(ctx context.Context) error {
				if err := mongo.Initialize(ctx); err != nil {
					return err
				}
				migrated, err := mongo.ProjectRepo().MigrateLegacy(ctx)
				if err != nil {
					return fmt.Errorf("migrate legacy projects: %w", err)
				}
				log.Info().Int("projects", migrated).Msg("legacy projects rewritten")
				return mongo.SiteSettingsRepo().CreateIfAbsent(ctx, models.DefaultSiteSettings())
			},
		}, nil

	case config.DBMemory:
		log.Warn().Msg("DB_TYPE=memory: data is lost when the process exits")
		store := memstore.New()
		return &storeBackend{
			stores: services.Stores{
				Projects: store.ProjectRepo(),
				Settings: store.SiteSettingsRepo(),
				Admins:   store.AdminRepo(),
				Ping:     store.Ping,
				Close:    store.Close,
			},
			migrate: func(context.Context) error { return nil },
		}, nil

	default:
		return nil, fmt.Errorf("unsupported DB_TYPE %q", cfg.Database.Type)
	}
}

func closeBackend(b *storeBackend) {
	if err := b.stores.Close(context.Background()); err != nil {
		log.Error().Err(err).Msg("Error closing store")
	}
}

func runMigrate(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	cfg, err := loadConfig(ctx)
	if err != nil {
		return err
	}

	backend, err := openBackend(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeBackend(backend)

	if err := backend.migrate(ctx); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	log.Info().Msg("schema up to date")

	migrated, err := services.NewSettingsService(backend.stores.Settings).MigrateContact(ctx)
	if err != nil {
		return fmt.Errorf("migrate contact settings: %w", err)
	}
	if migrated {
		log.Info().Msg("legacy contact fields moved to socialLinks")
	}

	if migrateReport {
		if backend.sql == nil {
			return fmt.Errorf("--report is only available for SQL stores")
		}
		report, err := backend.sql.ColumnMismatchReport(ctx)
		if err != nil {
			return fmt.Errorf("column report: %w", err)
		}
		database.WriteColumnMismatchReport(os.Stdout, report)
	}
	return nil
}

func runAdminCreate(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	cfg, err := loadConfig(ctx)
	if err != nil {
		return err
	}

	backend, err := openBackend(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeBackend(backend)

	admin, err := services.NewAdminService(backend.stores.Admins, nil).Create(ctx, adminEmail, adminPassword)
	if err != nil {
		return err
	}

	fmt.Printf("Created admin %s (%s)\n", admin.Email, admin.ID)
	return nil
}
