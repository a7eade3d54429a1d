package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/rpupo63/portfolio-site-backend/api"
	"github.com/rpupo63/portfolio-site-backend/auth"
	"github.com/rpupo63/portfolio-site-backend/config"
	"github.com/rpupo63/portfolio-site-backend/services"
)

const shutdownTimeout = 30 * time.Second

var migrateOnStart bool

var rootCmd = &cobra.Command{
	Use:   "portfolio-backend",
	Short: "Portfolio site backend",
	Long: `Serves the portfolio site API: public reads of projects and site settings,
authenticated admin writes, image uploads and the contact form relay.

Running without a subcommand is the same as "serve".`,
	SilenceUsage: true,
	RunE:         runServe,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().BoolVar(&migrateOnStart, "migrate", false, "run schema migrations before serving")
	rootCmd.Flags().AddFlagSet(serveCmd.Flags())

	rootCmd.AddCommand(serveCmd, migrateCmd, adminCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := loadConfig(ctx)
	if err != nil {
		return err
	}

	backend, err := openBackend(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeBackend(backend)

	if migrateOnStart {
		if err := backend.migrate(ctx); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}

	deps, err := buildDependencies(ctx, cfg, backend.stores)
	if err != nil {
		return err
	}

	server, err := api.NewServer(cfg, deps)
	if err != nil {
		return fmt.Errorf("create server: %w", err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(server.Start)
	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("Closing server")
		return server.ShutdownGracefully(shutdownTimeout)
	})

	return g.Wait()
}

// loadConfig reads the configuration and configures the global logger from it.
func loadConfig(ctx context.Context) (*config.Config, error) {
	cfg, err := config.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	setupLogging(cfg)
	log.Info().Str("env", cfg.Env).Str("db", cfg.Database.Type).Str("auth", cfg.Auth.Provider).Msg("configuration loaded")
	return cfg, nil
}

func setupLogging(cfg *config.Config) {
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.LogLevel))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if cfg.LogFormat == "json" {
		log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
		return
	}
	log.Logger = log.Output(zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: time.RFC3339,
	})
}

// buildDependencies creates the identity provider and the outbound integrations.
func buildDependencies(ctx context.Context, cfg *config.Config, stores services.Stores) (api.Dependencies, error) {
	deps := api.Dependencies{
		Stores: stores,
		Mailer: services.NewMailer(cfg.Mail),
	}

	switch cfg.Auth.Provider {
	case config.AuthDescope:
		verifier, err := auth.NewDescopeVerifier(cfg.Auth.DescopeProjectID, cfg.Auth.DescopeManagementKey)
		if err != nil {
			return api.Dependencies{}, fmt.Errorf("create descope verifier: %w", err)
		}
		deps.Verifier = verifier
	default:
		issuer := auth.NewJWTIssuer(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
		deps.Verifier = issuer
		deps.Issuer = issuer
	}

	uploader, err := services.NewUploader(ctx, cfg.Upload)
	if err != nil {
		return api.Dependencies{}, fmt.Errorf("create uploader: %w", err)
	}
	deps.Uploader = uploader
	if uploader == nil {
		log.Warn().Msg("UPLOAD_PROVIDER not set, image uploads are disabled")
	}

	if sms := services.NewSMSNotifier(cfg.SMS); sms != nil {
		deps.SMS = sms
	}
	if !cfg.Mail.Enabled() {
		log.Warn().Msg("RESEND_API_KEY or CONTACT_RECIPIENT not set, the contact form is disabled")
	}

	return deps, nil
}
