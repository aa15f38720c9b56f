package main

import (
	"errors"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// cliConfig is read from the environment and an optional .env file.
type cliConfig struct {
	// AuthURL is the base of POST /login and POST /register. Empty starts an
	// in-process development endpoint.
	AuthURL string `mapstructure:"GOSESSION_AUTH_URL"`
	// APIURL is the base for `call`; defaults to AuthURL.
	APIURL string `mapstructure:"GOSESSION_API_URL"`
	// RedisAddr backs the stores. Empty uses an in-process miniredis, so the
	// session lasts only for one invocation.
	RedisAddr     string `mapstructure:"GOSESSION_REDIS_ADDR"`
	RedisPassword string `mapstructure:"GOSESSION_REDIS_PASSWORD"`
	Prefix        string `mapstructure:"GOSESSION_PREFIX"`
	DeviceID      string `mapstructure:"GOSESSION_DEVICE_ID"`
	CredentialTTL string `mapstructure:"GOSESSION_CREDENTIAL_TTL"`
	CrossAccount  bool   `mapstructure:"GOSESSION_CROSS_ACCOUNT_ENRICHMENT"`
	LogLevel      string `mapstructure:"GOSESSION_LOG_LEVEL"`
	Timeout       string `mapstructure:"GOSESSION_HTTP_TIMEOUT"`
}

func loadConfig(envFile string) (*cliConfig, error) {
	v := viper.New()

	v.SetConfigFile(envFile)
	v.SetConfigType("env")
	_ = v.ReadInConfig() // a missing .env is fine

	v.AutomaticEnv()

	v.SetDefault("GOSESSION_AUTH_URL", "")
	v.SetDefault("GOSESSION_API_URL", "")
	v.SetDefault("GOSESSION_REDIS_ADDR", "")
	v.SetDefault("GOSESSION_REDIS_PASSWORD", "")
	v.SetDefault("GOSESSION_PREFIX", "gosession")
	v.SetDefault("GOSESSION_DEVICE_ID", "sessionctl")
	v.SetDefault("GOSESSION_CREDENTIAL_TTL", "24h")
	v.SetDefault("GOSESSION_CROSS_ACCOUNT_ENRICHMENT", false)
	v.SetDefault("GOSESSION_LOG_LEVEL", "warn")
	v.SetDefault("GOSESSION_HTTP_TIMEOUT", "10s")

	var cfg cliConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if strings.ContainsAny(cfg.Prefix, " :") {
		return nil, errors.New("config: GOSESSION_PREFIX must not contain spaces or ':'")
	}
	if cfg.APIURL == "" {
		cfg.APIURL = cfg.AuthURL
	}
	return &cfg, nil
}

// credentialTTL returns 24h when unset or invalid.
func (c *cliConfig) credentialTTL() time.Duration {
	d, err := time.ParseDuration(c.CredentialTTL)
	if err != nil || d <= 0 {
		return 24 * time.Hour
	}
	return d
}

func (c *cliConfig) httpTimeout() time.Duration {
	d, err := time.ParseDuration(c.Timeout)
	if err != nil || d <= 0 {
		return 10 * time.Second
	}
	return d
}
