package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"demandcast/pkg/errors"
)

type Config struct {
	App           AppConfig
	Postgres      PostgresConfig
	Model         ModelConfig
	Training      TrainingConfig
	Workers       WorkerConfig
	ErrorTracking ErrorTrackingConfig
}

type AppConfig struct {
	Name     string `envconfig:"APP_NAME" default:"demandcast"`
	Env      string `envconfig:"APP_ENV" default:"development"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
}

type PostgresConfig struct {
	Host     string `envconfig:"POSTGRES_HOST" required:"true"`
	Port     int    `envconfig:"POSTGRES_PORT" default:"5432"`
	User     string `envconfig:"POSTGRES_USER" required:"true"`
	Password string `envconfig:"POSTGRES_PASSWORD" required:"true"`
	Database string `envconfig:"POSTGRES_DB" required:"true"`
	SSLMode  string `envconfig:"POSTGRES_SSL_MODE" default:"disable"`
	MaxConns int    `envconfig:"POSTGRES_MAX_CONNS" default:"10"`
}

func (c PostgresConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

type ModelConfig struct {
	// ArtifactDir is the base directory holding per-scope model artifacts
	ArtifactDir string `envconfig:"MODEL_ARTIFACT_DIR" default:"./models"`

	// StoreID scopes loading and saving to one store; empty means the
	// global (cross-store) scope only
	StoreID string `envconfig:"MODEL_STORE_ID"`
}

// TrainingConfig carries the tunable training constants. The blend weight
// and per-group alphas carry production defaults; they are manually
// tuned, not cross-validated, and worth re-validating over time.
type TrainingConfig struct {
	LookbackDays       int     `envconfig:"TRAINING_LOOKBACK_DAYS" default:"60"`
	MinItemHistoryDays int     `envconfig:"TRAINING_MIN_ITEM_HISTORY_DAYS" default:"14"`
	MinSamplesPerGroup int     `envconfig:"TRAINING_MIN_SAMPLES_PER_GROUP" default:"50"`
	BlendWeight        float64 `envconfig:"TRAINING_BLEND_WEIGHT" default:"0.5"`
	Seed               int64   `envconfig:"TRAINING_SEED" default:"42"`

	AlphaFood       float64 `envconfig:"TRAINING_ALPHA_FOOD" default:"0.70"`
	AlphaPerishable float64 `envconfig:"TRAINING_ALPHA_PERISHABLE" default:"0.70"`
	AlphaAlcohol    float64 `envconfig:"TRAINING_ALPHA_ALCOHOL" default:"0.65"`
	AlphaTobacco    float64 `envconfig:"TRAINING_ALPHA_TOBACCO" default:"0.60"`
	AlphaGeneral    float64 `envconfig:"TRAINING_ALPHA_GENERAL" default:"0.40"`
}

type WorkerConfig struct {
	// TrainingInterval is how often the batch retrain runs
	TrainingInterval time.Duration `envconfig:"WORKER_TRAINING_INTERVAL" default:"168h"`
	TrainingEnabled  bool          `envconfig:"WORKER_TRAINING_ENABLED" default:"true"`
}

type ErrorTrackingConfig struct {
	Enabled     bool   `envconfig:"ERROR_TRACKING_ENABLED" default:"false"`
	SentryDSN   string `envconfig:"SENTRY_DSN"`
	Environment string `envconfig:"SENTRY_ENVIRONMENT" default:"production"`
}

// Load reads configuration from the environment, with .env as a fallback
// source for local development
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, errors.Wrap(err, "failed to process environment config")
	}
	return &cfg, nil
}
