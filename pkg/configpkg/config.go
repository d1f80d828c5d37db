// Package configpkg provides parsing functionality for environment variables.
package configpkg

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Store backends.
const (
	StoreMemory = "memory"
	StoreBadger = "badger"
)

// Token kinds. An empty kind disables client authentication.
const (
	TokenNone   = ""
	TokenPaseto = "paseto"
	TokenJWT    = "jwt"
)

// Config stores all configuration of the application.
//
// The values are read by viper from a config file or environment variables.
type Config struct {
	ServerAddress       string        `mapstructure:"SERVER_ADDRESS"`
	Environment         string        `mapstructure:"GO_ENV"`
	ExecutionDuration   time.Duration `mapstructure:"EXECUTION_DURATION"`
	StoreBackend        string        `mapstructure:"STORE_BACKEND"`
	TokenKind           string        `mapstructure:"TOKEN_KIND"`
	TokenSymmetricKey   string        `mapstructure:"TOKEN_SYMMETRIC_KEY"`
	AccessTokenDuration time.Duration `mapstructure:"ACCESS_TOKEN_DURATION"`
	ShutdownTimeout     time.Duration `mapstructure:"SHUTDOWN_TIMEOUT"`
}

// ErrInvalidConfig indicates a configuration value outside its allowed set.
var ErrInvalidConfig = errors.New("invalid config")

var defaults = map[string]any{
	"SERVER_ADDRESS":        "0.0.0.0:8080",
	"GO_ENV":                "production",
	"EXECUTION_DURATION":    7 * time.Second,
	"STORE_BACKEND":         StoreMemory,
	"TOKEN_KIND":            TokenNone,
	"TOKEN_SYMMETRIC_KEY":   "",
	"ACCESS_TOKEN_DURATION": 15 * time.Minute,
	"SHUTDOWN_TIMEOUT":      10 * time.Second,
}

// Load read configuration from file or environment variables.
// A missing app.env file leaves the defaults and the environment in effect.
func Load(path string) (Config, error) {
	var c Config

	v := viper.New()

	v.AddConfigPath(path)
	v.SetConfigName("app")
	v.SetConfigType("env")

	for k, val := range defaults {
		v.SetDefault(k, val)
	}

	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return c, err
		}
	}

	if err := v.Unmarshal(&c); err != nil {
		return c, err
	}

	if err := c.validate(); err != nil {
		return c, err
	}

	return c, nil
}

func (c Config) validate() error {
	switch c.StoreBackend {
	case StoreMemory, StoreBadger:
	default:
		return fmt.Errorf("%w: STORE_BACKEND %q", ErrInvalidConfig, c.StoreBackend)
	}

	switch c.TokenKind {
	case TokenNone, TokenPaseto, TokenJWT:
	default:
		return fmt.Errorf("%w: TOKEN_KIND %q", ErrInvalidConfig, c.TokenKind)
	}

	if c.ExecutionDuration < 0 {
		return fmt.Errorf("%w: EXECUTION_DURATION must not be negative", ErrInvalidConfig)
	}

	return nil
}

// IsDevelopment reports whether the app runs in the development environment.
func (c Config) IsDevelopment() bool {
	return c.Environment == "development"
}
