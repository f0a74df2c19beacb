package utils

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/spf13/viper"
)

var (
	EnvPath string = "."
)

type Config struct {
	Env               string `mapstructure:"ENV"`
	ServerPort        int    `mapstructure:"SERVER_PORT"`
	SigningKey        string `mapstructure:"SIGNING_KEY"`
	DBUsername        string `mapstructure:"DB_USERNAME"`
	DBPassword        string `mapstructure:"DB_PASSWORD"`
	DBHost            string `mapstructure:"DB_HOST"`
	DBPort            string `mapstructure:"DB_PORT"`
	DBDriver          string `mapstructure:"DB_DRIVER"`
	DBName            string `mapstructure:"DB_NAME"`
	SSLMode           string `mapstructure:"SSLMODE"`
	MigrationsPath    string `mapstructure:"MIGRATIONS_PATH"`
	Papertrail        string `mapstructure:"PAPERTRAIL"`
	PapertrailAppName string `mapstructure:"PAPERTRAIL_APP_NAME"`
	RedisHost         string `mapstructure:"REDIS_HOST"`
	RedisPort         string `mapstructure:"REDIS_PORT"`
	RedisPassword     string `mapstructure:"REDIS_PASSWORD"`
	RedisDB           int    `mapstructure:"REDIS_DB"`

	// Protocol secrets. PEM values may carry literal "\n" sequences.
	EncryptionKey       string `mapstructure:"ENCRYPTION_KEY"`
	SignPrivateKey      string `mapstructure:"SIGN_PRIVATE_KEY"`
	SignPublicKey       string `mapstructure:"SIGN_PUBLIC_KEY"`
	ClientSignPublicKey string `mapstructure:"CLIENT_SIGN_PUBLIC_KEY"`
	HashidsSalt         string `mapstructure:"HASHIDS_SALT"`

	AnomalyServerURL      string `mapstructure:"ANOMALY_SERVER_URL"`
	NotificationServerURL string `mapstructure:"NOTIFICATION_SERVER_URL"`
	GeocodingBaseURL      string `mapstructure:"GEOCODING_BASE_URL"`
	GoogleMapsAPIKey      string `mapstructure:"GOOGLE_MAPS_API_KEY"`
	HouseAccountUsername  string `mapstructure:"HOUSE_ACCOUNT_USERNAME"`

	QueueWorkers           int           `mapstructure:"QUEUE_WORKERS"`
	QueueMaxAttempts       int           `mapstructure:"QUEUE_MAX_ATTEMPTS"`
	QueueBackoffUnit       time.Duration `mapstructure:"QUEUE_BACKOFF_UNIT"`
	QueueVisibilityTimeout time.Duration `mapstructure:"QUEUE_VISIBILITY_TIMEOUT"`
	QueuePollInterval      time.Duration `mapstructure:"QUEUE_POLL_INTERVAL"`
	QueueTimezone          string        `mapstructure:"QUEUE_TIMEZONE"`
	SettlementDelay        time.Duration `mapstructure:"SETTLEMENT_DELAY"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("DB_DRIVER", "postgres")
	v.SetDefault("SSLMODE", "disable")
	v.SetDefault("MIGRATIONS_PATH", "file://db/migrations")
	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", "6379")
	v.SetDefault("GEOCODING_BASE_URL", "https://maps.googleapis.com/maps/api/geocode/json")
	v.SetDefault("HOUSE_ACCOUNT_USERNAME", "$binomia")
	v.SetDefault("QUEUE_WORKERS", 4)
	v.SetDefault("QUEUE_MAX_ATTEMPTS", 5)
	v.SetDefault("QUEUE_BACKOFF_UNIT", "1s")
	v.SetDefault("QUEUE_VISIBILITY_TIMEOUT", "5m")
	v.SetDefault("QUEUE_POLL_INTERVAL", "500ms")
	v.SetDefault("QUEUE_TIMEZONE", "EST")
	v.SetDefault("SETTLEMENT_DELAY", "30m")
}

func LoadConfig(path string) (*Config, error) {
	// Validate that the path is not empty
	if path == "" {
		path = "."
	}

	// Create a new Viper instance to avoid global state
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("")
	v.AutomaticEnv()

	v.AddConfigPath(path)
	v.SetConfigName(".env")
	v.SetConfigType("env")

	if err := v.ReadInConfig(); err != nil {
		// Log the error, but don't fail entirely
		log.Printf("Warning: Unable to read config file: %v", err)
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}
	config.normalizeKeys()

	if err := validateConfig(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

func (c *Config) normalizeKeys() {
	c.SignPrivateKey = strings.ReplaceAll(c.SignPrivateKey, `\n`, "\n")
	c.SignPublicKey = strings.ReplaceAll(c.SignPublicKey, `\n`, "\n")
	c.ClientSignPublicKey = strings.ReplaceAll(c.ClientSignPublicKey, `\n`, "\n")
}

func validateConfig(config *Config) error {
	if config.ServerPort == 0 {
		return fmt.Errorf("server port must be specified")
	}

	if config.DBUsername == "" || config.DBPassword == "" {
		return fmt.Errorf("database credentials must be provided")
	}

	if config.EncryptionKey == "" {
		return fmt.Errorf("encryption key must be provided")
	}

	if config.SignPrivateKey == "" || config.SignPublicKey == "" || config.ClientSignPublicKey == "" {
		return fmt.Errorf("signing keys must be provided")
	}

	if config.QueueWorkers < 1 {
		return fmt.Errorf("at least one queue worker is required")
	}

	return nil
}

// Location resolves the timezone cron cadences fire in.
func (c *Config) Location() (*time.Location, error) {
	if c.QueueTimezone == "" {
		return time.UTC, nil
	}
	return time.LoadLocation(c.QueueTimezone)
}

// Masking sensitive information for logging
func (c *Config) Redact() Config {
	redacted := *c
	redacted.DBPassword = "****"
	redacted.RedisPassword = "****"
	redacted.SigningKey = "****"
	redacted.EncryptionKey = "****"
	redacted.SignPrivateKey = "****"
	redacted.GoogleMapsAPIKey = "****"
	redacted.HashidsSalt = "****"
	return redacted
}
