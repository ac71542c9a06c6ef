package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/spf13/viper"
	"github.com/subosito/gotenv"

	"github.com/invoicetrust/trustdemo/internal/demo"
)

// Config holds all application configuration
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Logger   LoggerConfig   `mapstructure:"logger"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Demo     DemoConfig     `mapstructure:"demo"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	AllowedOrigins  []string      `mapstructure:"allowed_origins"`
}

// DatabaseConfig holds database configuration.
// An empty MigrationsDir uses the migrations embedded in the binary.
type DatabaseConfig struct {
	Path            string        `mapstructure:"path"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	MigrationsDir   string        `mapstructure:"migrations_dir"`
}

// LoggerConfig holds logger configuration
type LoggerConfig struct {
	Level      string `mapstructure:"level"`
	OutputPath string `mapstructure:"output_path"`
	Format     string `mapstructure:"format"`
}

// AuthConfig holds bearer token settings
type AuthConfig struct {
	JWTSecret string        `mapstructure:"jwt_secret"`
	Issuer    string        `mapstructure:"issuer"`
	TokenTTL  time.Duration `mapstructure:"token_ttl"`
}

// DemoConfig holds the demo engine data set and timings
type DemoConfig struct {
	Seed              int64         `mapstructure:"seed"`
	SupplierCount     int           `mapstructure:"supplier_count"`
	InvoiceCount      int           `mapstructure:"invoice_count"`
	RiskEventLimit    int           `mapstructure:"risk_event_limit"`
	UploadDelay       time.Duration `mapstructure:"upload_delay"`
	StaggerDelay      time.Duration `mapstructure:"stagger_delay"`
	RevealInterval    time.Duration `mapstructure:"reveal_interval"`
	AnalysisDelay     time.Duration `mapstructure:"analysis_delay"`
	ApprovalRate      float64       `mapstructure:"approval_rate"`
	AutoResetInterval time.Duration `mapstructure:"auto_reset_interval"`
}

// Load reads configuration from an optional .env file, the YAML file at
// configPath (skipped when empty) and environment variables
func Load(configPath string) (*Config, error) {
	if err := gotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	v := viper.New()
	v.SetConfigType("yaml")
	v.AutomaticEnv()

	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	if err := bindEnvVars(v); err != nil {
		return nil, fmt.Errorf("failed to bind environment variables: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	defaults := demo.DefaultConfig()

	// Server defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 30*time.Second)
	v.SetDefault("server.write_timeout", 0)
	v.SetDefault("server.shutdown_timeout", 5*time.Second)
	v.SetDefault("server.allowed_origins", []string{"*"})

	// Database defaults
	v.SetDefault("database.path", "data/trustdemo.db")
	v.SetDefault("database.max_open_conns", 25)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", 5*time.Minute)
	v.SetDefault("database.migrations_dir", "")

	// Logger defaults
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.output_path", "stdout")
	v.SetDefault("logger.format", "json")

	// Auth defaults
	v.SetDefault("auth.issuer", "trustdemo")
	v.SetDefault("auth.token_ttl", 12*time.Hour)

	// Demo defaults
	v.SetDefault("demo.seed", 0)
	v.SetDefault("demo.supplier_count", defaults.SupplierCount)
	v.SetDefault("demo.invoice_count", defaults.InvoiceCount)
	v.SetDefault("demo.risk_event_limit", defaults.RiskEventLimit)
	v.SetDefault("demo.upload_delay", defaults.UploadDelay)
	v.SetDefault("demo.stagger_delay", defaults.StaggerDelay)
	v.SetDefault("demo.reveal_interval", defaults.RevealInterval)
	v.SetDefault("demo.analysis_delay", defaults.AnalysisDelay)
	v.SetDefault("demo.approval_rate", defaults.ApprovalRate)
	v.SetDefault("demo.auto_reset_interval", 0)
}

// bindEnvVars binds environment variables to configuration
func bindEnvVars(v *viper.Viper) error {
	bindings := map[string]string{
		"auth.jwt_secret":          "JWT_SECRET",
		"server.port":              "PORT",
		"database.path":            "DATABASE_PATH",
		"logger.level":             "LOG_LEVEL",
		"demo.seed":                "DEMO_SEED",
		"demo.auto_reset_interval": "DEMO_AUTO_RESET_INTERVAL",
	}
	for key, env := range bindings {
		if err := v.BindEnv(key, env); err != nil {
			return err
		}
	}
	return nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535")
	}

	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}

	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("auth.jwt_secret is required")
	}
	if len(c.Auth.JWTSecret) < 16 {
		return fmt.Errorf("auth.jwt_secret must be at least 16 characters")
	}
	if c.Auth.TokenTTL <= 0 {
		return fmt.Errorf("auth.token_ttl must be positive")
	}

	if c.Demo.AutoResetInterval < 0 {
		return fmt.Errorf("demo.auto_reset_interval must not be negative")
	}
	if err := c.Demo.EngineConfig().Validate(); err != nil {
		return fmt.Errorf("demo: %w", err)
	}

	return nil
}

// EngineConfig converts the demo section to the engine's configuration
func (d DemoConfig) EngineConfig() demo.Config {
	cfg := demo.DefaultConfig()
	cfg.SupplierCount = d.SupplierCount
	cfg.InvoiceCount = d.InvoiceCount
	cfg.RiskEventLimit = d.RiskEventLimit
	cfg.UploadDelay = d.UploadDelay
	cfg.StaggerDelay = d.StaggerDelay
	cfg.RevealInterval = d.RevealInterval
	cfg.AnalysisDelay = d.AnalysisDelay
	cfg.ApprovalRate = d.ApprovalRate
	return cfg
}
