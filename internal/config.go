package internal

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Server        ServerConfig        `mapstructure:"http_server"`
	Database      DatabaseConfig      `mapstructure:"database"`
	Security      SecurityConfig      `mapstructure:"security" validate:"required"`
	Observability ObservabilityConfig `mapstructure:"observability"`
	Gateway       GatewayConfig       `mapstructure:"gateway"`
}

type ServerConfig struct {
	Port              int           `mapstructure:"port"`
	BaseURL           string        `mapstructure:"base_url"`
	FrontendURL       string        `mapstructure:"frontend_url"`
	AllowedOrigins    string        `mapstructure:"allowed_origins"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout"`
	ReadTimeout       time.Duration `mapstructure:"read_timeout"`
	IdleTimeout       time.Duration `mapstructure:"idle_timeout"`
	WriteTimeout      time.Duration `mapstructure:"write_timeout"`
}

type DatabaseConfig struct {
	MaxOpenConns    int           `mapstructure:"max_open_conns" validate:"required,min=1"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns" validate:"required,min=1"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime" validate:"required,min=1m"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time" validate:"required,min=1m"`
	Source          string        `mapstructure:"source"`
}

type SecurityConfig struct {
	AccessTokenSecret    string        `mapstructure:"access_token_secret" validate:"required"`
	RefreshTokenSecret   string        `mapstructure:"refresh_token_secret" validate:"required"`
	AccessTokenDuration  time.Duration `mapstructure:"access_token_duration"`
	RefreshTokenDuration time.Duration `mapstructure:"refresh_token_duration"`
	BCryptCost           int           `mapstructure:"bcrypt_cost"`
}

// GatewayConfig holds the credentials and endpoints for the school
// payment gateway (Edviron ERP API).
type GatewayConfig struct {
	BaseURL string `mapstructure:"base_url" validate:"required,url"`
	// PGKey signs the JWT payload attached to every gateway call.
	PGKey string `mapstructure:"pg_key" validate:"required"`
	// APIKey is the bearer credential for the create-collect-request endpoint.
	APIKey  string        `mapstructure:"api_key" validate:"required"`
	Timeout time.Duration `mapstructure:"timeout"`
	// VerifyWebhookSignature enables HMAC verification of inbound
	// webhooks. Off by default: the gateway does not sign deliveries
	// consistently yet.
	VerifyWebhookSignature bool   `mapstructure:"verify_webhook_signature"`
	WebhookSecret          string `mapstructure:"webhook_secret"`
}

type ObservabilityConfig struct {
	Logging LoggingConfig `mapstructure:"logging"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level" validate:"required,oneof=debug info warn error"`
	Format string `mapstructure:"format" validate:"required,oneof=json text"`
}

// ----------------- ENV LOADING -----------------

// LoadConfigFromEnv builds a Config entirely from environment variables,
// used for container deployments where no config file is mounted.
func LoadConfigFromEnv() *Config {
	return &Config{
		Server: ServerConfig{
			Port:              getEnvAsInt("PORT", 8080),
			BaseURL:           getEnv("BASE_URL", "http://localhost:8080"),
			FrontendURL:       getEnv("FRONTEND_URL", "http://localhost:3000"),
			AllowedOrigins:    getEnv("ALLOWED_ORIGINS", "*"),
			ReadHeaderTimeout: getEnvAsDuration("READ_HEADER_TIMEOUT", 5*time.Second),
			ReadTimeout:       getEnvAsDuration("READ_TIMEOUT", 15*time.Second),
			WriteTimeout:      getEnvAsDuration("WRITE_TIMEOUT", 30*time.Second),
			IdleTimeout:       getEnvAsDuration("IDLE_TIMEOUT", 60*time.Second),
		},
		Database: DatabaseConfig{
			Source:          getEnv("DATABASE_URL", ""),
			MaxOpenConns:    getEnvAsInt("DB_MAX_OPEN_CONNS", 20),
			MaxIdleConns:    getEnvAsInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getEnvAsDuration("DB_CONN_MAX_LIFETIME", 30*time.Minute),
			ConnMaxIdleTime: getEnvAsDuration("DB_CONN_MAX_IDLE_TIME", 5*time.Minute),
		},
		Security: SecurityConfig{
			AccessTokenSecret:    getEnv("JWT_SECRET", ""),
			RefreshTokenSecret:   getEnv("JWT_REFRESH_SECRET", getEnv("JWT_SECRET", "")),
			AccessTokenDuration:  getEnvAsDuration("ACCESS_TOKEN_DURATION", 15*time.Minute),
			RefreshTokenDuration: getEnvAsDuration("REFRESH_TOKEN_DURATION", 7*24*time.Hour),
			BCryptCost:           getEnvAsInt("BCRYPT_COST", 10),
		},
		Observability: ObservabilityConfig{
			Logging: LoggingConfig{
				Level:  getEnv("LOG_LEVEL", "info"),
				Format: getEnv("LOG_FORMAT", "json"),
			},
		},
		Gateway: GatewayConfig{
			BaseURL:                getEnv("PG_BASE_URL", "https://dev-vanilla.edviron.com/erp"),
			PGKey:                  getEnv("PG_KEY", ""),
			APIKey:                 getEnv("PG_API_KEY", ""),
			Timeout:                getEnvAsDuration("PG_TIMEOUT", 30*time.Second),
			VerifyWebhookSignature: getEnv("PG_VERIFY_WEBHOOK_SIGNATURE", "false") == "true",
			WebhookSecret:          getEnv("PG_WEBHOOK_SECRET", ""),
		},
	}
}

// ----------------- HELPERS -----------------

func getEnv(key, defaultVal string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultVal
}

func getEnvAsInt(key string, defaultVal int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultVal
}

func getEnvAsDuration(key string, defaultVal time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultVal
}

// ----------------- VALIDATION -----------------

func (c *Config) Validate() error {
	var errs []string

	if err := c.Server.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("server config: %v", err))
	}

	if err := c.Database.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("database config: %v", err))
	}

	if err := c.Security.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("security config: %v", err))
	}

	if err := c.Gateway.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("gateway config: %v", err))
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}

	return nil
}

func (c *ServerConfig) Validate() error {
	if c.AllowedOrigins != "" {
		origins := strings.Split(c.AllowedOrigins, ",")
		for _, origin := range origins {
			origin = strings.TrimSpace(origin)
			if origin == "*" {
				continue
			}
			if _, err := url.Parse(origin); err != nil {
				return fmt.Errorf("invalid allowed origin %s: %w", origin, err)
			}
		}
	}
	if c.FrontendURL == "" {
		return errors.New("frontend_url is required for payment callback construction")
	}
	if c.ReadTimeout < c.ReadHeaderTimeout {
		return errors.New("read_timeout must be >= read_header_timeout")
	}
	return nil
}

func (c *DatabaseConfig) Validate() error {
	if c.Source == "" {
		return errors.New("database source is required")
	}
	if c.MaxIdleConns > c.MaxOpenConns {
		return errors.New("max_idle_conns cannot be greater than max_open_conns")
	}
	return nil
}

func (c *DatabaseConfig) GetDSN() string {
	return c.Source
}

func (c *SecurityConfig) Validate() error {
	if c.AccessTokenSecret == "" {
		return errors.New("access_token_secret is required")
	}
	if c.RefreshTokenSecret == "" {
		return errors.New("refresh_token_secret is required")
	}
	return nil
}

func (c *GatewayConfig) Validate() error {
	if c.BaseURL == "" {
		return errors.New("gateway base_url is required")
	}
	if c.PGKey == "" {
		return errors.New("gateway pg_key is required")
	}
	if c.APIKey == "" {
		return errors.New("gateway api_key is required")
	}
	if c.VerifyWebhookSignature && c.WebhookSecret == "" {
		return errors.New("webhook_secret is required when verify_webhook_signature is enabled")
	}
	return nil
}
