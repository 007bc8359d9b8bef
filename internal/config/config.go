package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fiscalmx/cartaporte/internal/types"
	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

type Configuration struct {
	Deployment DeploymentConfig `validate:"required"`
	Server     ServerConfig     `validate:"required"`
	Logging    LoggingConfig    `validate:"required"`
	PAC        PACConfig        `validate:"required"`
}

type DeploymentConfig struct {
	Mode types.RunMode `validate:"required"`
}

type ServerConfig struct {
	Address string `validate:"required"`
}

type LoggingConfig struct {
	Level types.LogLevel `validate:"required"`
}

// PACConfig is the configuration surface for the stamping authority client.
// Endpoints, retry count and backoff bounds are externally supplied, never
// hard-coded.
type PACConfig struct {
	Environment    types.StampEnvironment `validate:"required"`
	SandboxURL     string                 `validate:"required"`
	ProductionURL  string
	MaxAttempts    int           // attempts per stamp submission, including the first
	InitialBackoff time.Duration // first retry delay
	MaxBackoff     time.Duration // cap on a single retry delay
	MaxElapsedTime time.Duration // overall wall-clock budget for one submission
	RequestTimeout time.Duration // per-attempt HTTP timeout
}

// BaseURL returns the authority endpoint for the given environment
func (c PACConfig) BaseURL(env types.StampEnvironment) string {
	if env == types.StampEnvironmentProduction {
		return c.ProductionURL
	}
	return c.SandboxURL
}

func NewConfig() (*Configuration, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./internal/config")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/cartaporte")

	// Set up environment variables support
	v.SetEnvPrefix("CARTAPORTE")
	v.SetEnvKeyReplacer(strings.NewReplacer(
		".", "_",
		"-", "_",
	))
	v.AutomaticEnv()

	// Read config file if exists
	if err := v.ReadInConfig(); err != nil {
		fmt.Printf("Error reading config file: %v\n", err)
		if !errors.As(err, &viper.ConfigFileNotFoundError{}) {
			return nil, err
		}
	}

	var config Configuration
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	config.PAC.applyDefaults()

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

func (c *PACConfig) applyDefaults() {
	if c.MaxAttempts == 0 {
		c.MaxAttempts = 5
	}
	if c.InitialBackoff == 0 {
		c.InitialBackoff = 1 * time.Second
	}
	if c.MaxBackoff == 0 {
		c.MaxBackoff = 30 * time.Second
	}
	if c.MaxElapsedTime == 0 {
		c.MaxElapsedTime = 2 * time.Minute
	}
	if c.RequestTimeout == 0 {
		c.RequestTimeout = 30 * time.Second
	}
}

func (c Configuration) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return err
	}
	return c.PAC.Environment.Validate()
}

// GetDefaultConfig returns a default configuration for local development
// This is useful for running scripts or other non-web applications
func GetDefaultConfig() *Configuration {
	cfg := &Configuration{
		Deployment: DeploymentConfig{Mode: types.ModeLocal},
		Logging:    LoggingConfig{Level: types.LogLevelDebug},
		PAC: PACConfig{
			Environment: types.StampEnvironmentSandbox,
			SandboxURL:  "http://localhost:8400",
		},
	}
	cfg.PAC.applyDefaults()
	return cfg
}
