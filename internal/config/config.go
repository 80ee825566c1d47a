// Package config loads process configuration from the environment and an
// optional config file. A .env file in the working directory is honored
// for development parity with the deployment scripts.
package config

import (
	"fmt"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config is the full process configuration.
type Config struct {
	// Port the HTTP API listens on.
	Port int `mapstructure:"port"`

	// DatabaseURL is the primary datastore, where system_config lives.
	DatabaseURL string `mapstructure:"database_url"`

	// DataDir is where file-based databases are looked for by the
	// explorer endpoint.
	DataDir string `mapstructure:"data_dir"`

	// JWTSecret signs session tokens.
	JWTSecret string `mapstructure:"jwt_secret"`

	// QRCode is the payload a check-in/check-out submission must carry.
	QRCode string `mapstructure:"qr_code"`

	// AuditLogPath is the rotating attendance audit file.
	AuditLogPath string `mapstructure:"audit_log_path"`

	// SyncIntervalMinutes is the background push cadence when
	// sync_active is set.
	SyncIntervalMinutes int `mapstructure:"sync_interval_minutes"`
}

// Load reads configuration. Precedence: environment (ASISTENCIA_*) over
// config file over defaults. file may be empty, in which case
// ./asistencia.yaml is used if present.
func Load(file string) (*Config, error) {
	// Best effort; absence of .env is normal outside development.
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("ASISTENCIA")
	v.AutomaticEnv()

	v.SetDefault("port", 3001)
	v.SetDefault("database_url", "file:data/asistencia.db")
	v.SetDefault("data_dir", "data")
	v.SetDefault("jwt_secret", "")
	v.SetDefault("qr_code", "OFFICE_CHECK_2025")
	v.SetDefault("audit_log_path", "data/audit.log")
	v.SetDefault("sync_interval_minutes", 5)

	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	} else {
		v.SetConfigName("asistencia")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("jwt secret is required (set ASISTENCIA_JWT_SECRET)")
	}
	return &cfg, nil
}
