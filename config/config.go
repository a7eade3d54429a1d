package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

const (
	DBPostgres = "postgres"
	DBSupabase = "supa"
	DBMongo    = "mongo"
	DBMemory   = "memory"

	AuthJWT     = "jwt"
	AuthDescope = "descope"

	UploadS3         = "s3"
	UploadCloudinary = "cloudinary"
)

// Config is built once at start and handed to every constructor that needs it.
type Config struct {
	Env            string        `env:"APP_ENV" envDefault:"development"`
	Port           string        `env:"PORT" envDefault:"8080"`
	APIPrefix      string        `env:"API_PREFIX" envDefault:"/api"`
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT" envDefault:"15s"`
	AllowedOrigins []string      `env:"ALLOWED_ORIGINS" envSeparator:"," envDefault:"http://localhost:5173,http://localhost:3000"`
	LogLevel       string        `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat      string        `env:"LOG_FORMAT" envDefault:"console"`

	// TrustProxyHeaders takes the client address from X-Forwarded-For / X-Real-IP.
	// Only enable it behind a proxy that overwrites those headers.
	TrustProxyHeaders bool `env:"TRUST_PROXY_HEADERS" envDefault:"false"`

	SSMParameterPath string `env:"SSM_PARAMETER_PATH"`

	Database  DatabaseConfig
	Auth      AuthConfig
	Upload    UploadConfig
	Mail      MailConfig
	SMS       SMSConfig
	RateLimit RateLimitConfig
	Metrics   MetricsConfig
}

type DatabaseConfig struct {
	Type       string `env:"DB_TYPE" envDefault:"postgres"`
	URL        string `env:"DATABASE_URL"`
	ReplicaURL string `env:"DATABASE_REPLICA_URL"`

	SupabaseHost     string `env:"SUPABASE_DB_HOST"`
	SupabaseUser     string `env:"SUPABASE_DB_USER"`
	SupabasePassword string `env:"SUPABASE_DB_PASSWORD"`
	SupabaseName     string `env:"SUPABASE_DB_NAME"`
	SupabasePort     string `env:"SUPABASE_DB_PORT" envDefault:"5432"`

	MongoURI      string `env:"MONGO_URI"`
	MongoDatabase string `env:"MONGO_DATABASE" envDefault:"portfolio"`

	MaxOpenConns int           `env:"DB_MAX_OPEN_CONNS" envDefault:"10"`
	MaxIdleConns int           `env:"DB_MAX_IDLE_CONNS" envDefault:"5"`
	ConnMaxLife  time.Duration `env:"DB_CONN_MAX_LIFETIME" envDefault:"30m"`
	SlowQuery    time.Duration `env:"DB_SLOW_QUERY" envDefault:"2s"`
}

type AuthConfig struct {
	Provider   string        `env:"AUTH_PROVIDER" envDefault:"jwt"`
	JWTSecret  string        `env:"JWT_SECRET"`
	TokenTTL   time.Duration `env:"JWT_TTL" envDefault:"168h"`
	AdminEmail string        `env:"ADMIN_EMAIL"`

	DescopeProjectID     string `env:"DESCOPE_PROJECT_ID"`
	DescopeManagementKey string `env:"DESCOPE_MANAGEMENT_KEY"`
}

type UploadConfig struct {
	Provider string `env:"UPLOAD_PROVIDER"`
	MaxBytes int64  `env:"UPLOAD_MAX_BYTES" envDefault:"5242880"`
	Folder   string `env:"UPLOAD_FOLDER" envDefault:"portfolio_hero"`

	S3Bucket        string `env:"S3_BUCKET"`
	S3Region        string `env:"AWS_REGION"`
	S3PublicBaseURL string `env:"S3_PUBLIC_BASE_URL"`

	CloudinaryCloudName string `env:"CLOUDINARY_CLOUD_NAME"`
	CloudinaryAPIKey    string `env:"CLOUDINARY_API_KEY"`
	CloudinaryAPISecret string `env:"CLOUDINARY_API_SECRET"`
}

type MailConfig struct {
	ResendAPIKey     string `env:"RESEND_API_KEY"`
	From             string `env:"MAIL_FROM" envDefault:"Portfolio <onboarding@resend.dev>"`
	ContactRecipient string `env:"CONTACT_RECIPIENT"`
	ErrorRecipient   string `env:"ERROR_NOTIFY_EMAIL"`
}

// Enabled reports whether outgoing email can be sent at all.
func (m MailConfig) Enabled() bool {
	return m.ResendAPIKey != "" && m.ContactRecipient != ""
}

type SMSConfig struct {
	TwilioAccountSID string `env:"TWILIO_ACCOUNT_SID"`
	TwilioAuthToken  string `env:"TWILIO_AUTH_TOKEN"`
	From             string `env:"TWILIO_FROM"`
	To               string `env:"TWILIO_TO"`
}

func (s SMSConfig) Enabled() bool {
	return s.TwilioAccountSID != "" && s.TwilioAuthToken != "" && s.From != "" && s.To != ""
}

type RateLimitConfig struct {
	PerSecond float64 `env:"RATE_LIMIT_RPS" envDefault:"0.2"`
	Burst     int     `env:"RATE_LIMIT_BURST" envDefault:"5"`
}

type MetricsConfig struct {
	Enabled bool   `env:"METRICS_ENABLED" envDefault:"true"`
	Path    string `env:"METRICS_PATH" envDefault:"/metrics"`
}

// Load reads .env (if any), overlays SSM parameters when SSM_PARAMETER_PATH is set, then
// parses and validates the environment.
func Load(ctx context.Context) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Debug().Err(err).Msg("no .env file loaded")
	}

	environ, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}

	if environ.SSMParameterPath != "" {
		params, err := LoadSSM(ctx, environ.SSMParameterPath)
		if err != nil {
			return nil, err
		}
		environ, err = Parse(params)
		if err != nil {
			return nil, err
		}
		log.Info().Int("parameters", len(params)).Str("path", environ.SSMParameterPath).Msg("loaded SSM parameters")
	}

	if err := environ.Validate(); err != nil {
		return nil, err
	}
	return &environ, nil
}

// Parse builds a Config from the process environment with overrides taking precedence.
func Parse(overrides map[string]string) (Config, error) {
	environ := Environ()
	for k, v := range overrides {
		environ[k] = v
	}
	cfg, err := env.ParseAsWithOptions[Config](env.Options{Environment: environ})
	if err != nil {
		return Config{}, fmt.Errorf("parse environment: %w", err)
	}
	return cfg, nil
}

// Validate checks the combinations that cannot be expressed as defaults.
func (c Config) Validate() error {
	var problems []error

	switch c.Database.Type {
	case DBPostgres:
		if c.Database.URL == "" {
			problems = append(problems, errors.New("DATABASE_URL is required when DB_TYPE=postgres"))
		}
	case DBSupabase:
		if c.Database.SupabaseHost == "" || c.Database.SupabaseUser == "" || c.Database.SupabaseName == "" {
			problems = append(problems, errors.New("SUPABASE_DB_HOST, SUPABASE_DB_USER and SUPABASE_DB_NAME are required when DB_TYPE=supa"))
		}
	case DBMongo:
		if c.Database.MongoURI == "" {
			problems = append(problems, errors.New("MONGO_URI is required when DB_TYPE=mongo"))
		}
	case DBMemory:
		if c.IsProduction() {
			problems = append(problems, errors.New("DB_TYPE=memory is not allowed when APP_ENV=production"))
		}
	default:
		problems = append(problems, fmt.Errorf("unsupported DB_TYPE %q", c.Database.Type))
	}

	switch c.Auth.Provider {
	case AuthJWT:
		if c.Auth.JWTSecret == "" {
			problems = append(problems, errors.New("JWT_SECRET is required when AUTH_PROVIDER=jwt"))
		}
	case AuthDescope:
		if c.Auth.DescopeProjectID == "" {
			problems = append(problems, errors.New("DESCOPE_PROJECT_ID is required when AUTH_PROVIDER=descope"))
		}
		// any Descope user in the project could write otherwise
		if c.Auth.AdminEmail == "" {
			problems = append(problems, errors.New("ADMIN_EMAIL is required when AUTH_PROVIDER=descope"))
		}
	default:
		problems = append(problems, fmt.Errorf("unsupported AUTH_PROVIDER %q", c.Auth.Provider))
	}

	switch c.Upload.Provider {
	case "":
	case UploadS3:
		if c.Upload.S3Bucket == "" {
			problems = append(problems, errors.New("S3_BUCKET is required when UPLOAD_PROVIDER=s3"))
		}
	case UploadCloudinary:
		if c.Upload.CloudinaryCloudName == "" || c.Upload.CloudinaryAPIKey == "" || c.Upload.CloudinaryAPISecret == "" {
			problems = append(problems, errors.New("CLOUDINARY_CLOUD_NAME, CLOUDINARY_API_KEY and CLOUDINARY_API_SECRET are required when UPLOAD_PROVIDER=cloudinary"))
		}
	default:
		problems = append(problems, fmt.Errorf("unsupported UPLOAD_PROVIDER %q", c.Upload.Provider))
	}

	if c.Upload.MaxBytes <= 0 {
		problems = append(problems, errors.New("UPLOAD_MAX_BYTES must be positive"))
	}
	if !strings.HasPrefix(c.APIPrefix, "/") {
		problems = append(problems, fmt.Errorf("API_PREFIX %q must start with /", c.APIPrefix))
	}

	return errors.Join(problems...)
}

// Addr is the listen address for the HTTP server.
func (c Config) Addr() string {
	return ":" + c.Port
}

// IsProduction reports whether APP_ENV is production.
func (c Config) IsProduction() bool {
	return strings.EqualFold(c.Env, "production")
}

// Environ returns the process environment as a map.
func Environ() map[string]string {
	environ := os.Environ()
	envAsMap := make(map[string]string, len(environ))
	for _, entry := range environ {
		if entry != "" {
			key, value := split(entry)
			envAsMap[key] = value
		}
	}
	return envAsMap
}

// assumes entry is not the empty string
func split(entry string) (key, value string) {
	parts := strings.SplitN(entry, "=", 2)
	if len(parts) < 2 {
		return parts[0], ""
	}
	return parts[0], parts[1]
}
