package config

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Store drivers.
const (
	StoreMongo    = "mongo"
	StorePostgres = "postgres"
	StoreMemory   = "memory"
)

// Identity providers.
const (
	IdentityFirebase = "firebase"
	IdentityLocal    = "local"
)

const defaultFirebaseCertURL = "https://www.googleapis.com/robot/v1/metadata/x509/securetoken@system.gserviceaccount.com"

// Config aggregates runtime configuration for the service.
type Config struct {
	App          AppConfig
	Logger       LoggerConfig
	Store        StoreConfig
	Mongo        MongoConfig
	Postgres     PostgresConfig
	Redis        RedisConfig
	Identity     IdentityConfig
	Payment      PaymentConfig
	CORS         CORSConfig
	Policy       PolicyConfig
	Notification NotificationConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string
	Env                   string
	Host                  string
	Port                  string
	Version               string
	RequestTimeoutSeconds int
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string
}

// StoreConfig selects the persistence backend.
type StoreConfig struct {
	Driver string
}

// MongoConfig holds document store connection values.
type MongoConfig struct {
	URI                   string
	Database              string
	ConnectTimeoutSeconds int
}

// PostgresConfig holds DB connection values.
type PostgresConfig struct {
	DSN            string
	MaxConns       int32
	MinConns       int32
	RunMigrations  bool
	MigrationsDir  string
	ConnMaxIdleSec int32
	ConnMaxLifeSec int32
}

// RedisConfig holds Redis connection values. An empty Addr disables Redis and
// events are dispatched in-process.
type RedisConfig struct {
	Addr          string
	Password      string
	DB            int
	EventsStream  string
	ConsumerGroup string
	// QueueSize bounds the in-process event queue used when Redis is off.
	QueueSize int
}

// Enabled reports whether a Redis address was configured.
func (r RedisConfig) Enabled() bool {
	return r.Addr != ""
}

// IdentityConfig selects and configures bearer credential verification.
type IdentityConfig struct {
	Provider       string
	ServiceAccount string
	ProjectID      string
	CertURL        string
	JWTSecret      string
	TokenTTLMinute int
}

// PaymentConfig configures hosted checkout.
type PaymentConfig struct {
	StripeSecretKey string
	Currency        string
	ClientDomain    string
	ItemName        string
}

// CORSConfig lists origins allowed to call the API with credentials.
type CORSConfig struct {
	AllowedOrigins []string
}

// PolicyConfig toggles authorization behavior per deployment.
type PolicyConfig struct {
	AllRequestsPublic bool
	EnforceRoles      bool
}

// NotificationConfig holds the outbound webhook for domain events.
type NotificationConfig struct {
	WebhookURL     string
	TimeoutSeconds int
}

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "liveflow-donor-service"),
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", getEnv("PORT", "3000")),
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Store: StoreConfig{
			Driver: strings.ToLower(getEnv("STORE_DRIVER", StoreMongo)),
		},
		Mongo: MongoConfig{
			URI:                   os.Getenv("MONGODB_URI"),
			Database:              getEnv("MONGODB_DATABASE", "Liveflow"),
			ConnectTimeoutSeconds: getEnvAsInt("MONGODB_CONNECT_TIMEOUT_SECONDS", 10),
		},
		Postgres: PostgresConfig{
			DSN:            os.Getenv("POSTGRES_DSN"),
			MaxConns:       int32(getEnvAsInt("POSTGRES_MAX_CONNS", 10)),
			MinConns:       int32(getEnvAsInt("POSTGRES_MIN_CONNS", 2)),
			RunMigrations:  getEnvAsBool("POSTGRES_RUN_MIGRATIONS", true),
			MigrationsDir:  getEnv("POSTGRES_MIGRATIONS_DIR", "migrations"),
			ConnMaxIdleSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_SECONDS", 30)),
			ConnMaxLifeSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_LIFE_SECONDS", 300)),
		},
		Redis: RedisConfig{
			Addr:          os.Getenv("REDIS_ADDR"),
			Password:      os.Getenv("REDIS_PASSWORD"),
			DB:            redisDB,
			EventsStream:  getEnv("EVENTS_STREAM", "liveflow:events"),
			ConsumerGroup: getEnv("EVENTS_CONSUMER_GROUP", "notifications"),
			QueueSize:     getEnvAsInt("EVENTS_QUEUE_SIZE", 256),
		},
		Identity: IdentityConfig{
			Provider:       strings.ToLower(getEnv("IDENTITY_PROVIDER", IdentityFirebase)),
			ServiceAccount: getEnv("FIREBASE_SERVICE_ACCOUNT", os.Getenv("Fb_Key")),
			ProjectID:      os.Getenv("FIREBASE_PROJECT_ID"),
			CertURL:        getEnv("FIREBASE_CERT_URL", defaultFirebaseCertURL),
			JWTSecret:      os.Getenv("AUTH_JWT_SECRET"),
			TokenTTLMinute: getEnvAsInt("AUTH_ACCESS_TOKEN_TTL_MINUTES", 60),
		},
		Payment: PaymentConfig{
			StripeSecretKey: os.Getenv("STRIPE_SECRET_KEY"),
			Currency:        getEnv("PAYMENT_CURRENCY", "usd"),
			ClientDomain:    strings.TrimRight(getEnv("CLIENT_DOMAIN", "http://localhost:5173"), "/"),
			ItemName:        getEnv("PAYMENT_ITEM_NAME", "Donation to Liveflow"),
		},
		CORS: CORSConfig{
			AllowedOrigins: getEnvAsList("CORS_ALLOWED_ORIGINS", []string{
				"http://localhost:5173",
				"http://localhost:5174",
				"https://b12-m11-session.web.app",
			}),
		},
		Policy: PolicyConfig{
			AllRequestsPublic: getEnvAsBool("POLICY_ALL_REQUESTS_PUBLIC", false),
			EnforceRoles:      getEnvAsBool("POLICY_ENFORCE_ROLES", false),
		},
		Notification: NotificationConfig{
			WebhookURL:     os.Getenv("NOTIFY_WEBHOOK_URL"),
			TimeoutSeconds: getEnvAsInt("NOTIFY_TIMEOUT_SECONDS", 5),
		},
	}

	if cfg.Identity.ServiceAccount != "" && cfg.Identity.ProjectID == "" {
		projectID, err := ProjectIDFromServiceAccount(cfg.Identity.ServiceAccount)
		if err != nil {
			return nil, err
		}
		cfg.Identity.ProjectID = projectID
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects configurations the service cannot start with.
func (c *Config) Validate() error {
	var errs []error
	switch c.Store.Driver {
	case StoreMongo:
		if c.Mongo.URI == "" {
			errs = append(errs, errors.New("MONGODB_URI is required for the mongo store"))
		}
	case StorePostgres:
		if c.Postgres.DSN == "" {
			errs = append(errs, errors.New("POSTGRES_DSN is required for the postgres store"))
		}
	case StoreMemory:
	default:
		errs = append(errs, fmt.Errorf("unknown STORE_DRIVER %q", c.Store.Driver))
	}

	switch c.Identity.Provider {
	case IdentityFirebase:
		if c.Identity.ProjectID == "" {
			errs = append(errs, errors.New("firebase identity requires FIREBASE_SERVICE_ACCOUNT or FIREBASE_PROJECT_ID"))
		}
	case IdentityLocal:
		if c.Identity.JWTSecret == "" {
			errs = append(errs, errors.New("local identity requires AUTH_JWT_SECRET"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown IDENTITY_PROVIDER %q", c.Identity.Provider))
	}
	return errors.Join(errs...)
}

// ProjectIDFromServiceAccount decodes a base64 service-account credential and
// returns its project_id.
func ProjectIDFromServiceAccount(encoded string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(strings.TrimSpace(encoded))
	if err != nil {
		return "", fmt.Errorf("decode service account: %w", err)
	}
	var account struct {
		ProjectID string `json:"project_id"`
	}
	if err := json.Unmarshal(raw, &account); err != nil {
		return "", fmt.Errorf("parse service account: %w", err)
	}
	if account.ProjectID == "" {
		return "", errors.New("service account has no project_id")
	}
	return account.ProjectID, nil
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

// TokenTTL returns the lifetime of locally issued tokens.
func (i IdentityConfig) TokenTTL() time.Duration {
	return time.Duration(i.TokenTTLMinute) * time.Minute
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsList(key string, fallback []string) []string {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(val, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
