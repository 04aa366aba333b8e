package config

import (
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

const (
	StorageDriverFile     = "file"
	StorageDriverPostgres = "postgres"
	StorageDriverRedis    = "redis"
	StorageDriverInmem    = "inmem"

	IdentityProviderOIDC   = "oidc"
	IdentityProviderStatic = "static"

	redactedValue = "[redacted]"
)

// Config represents the application configuration structure
type Config struct {
	Environment string `default:"development"`

	ListenAddress string `default:"localhost:3000" split_words:"true"`
	BaseAddress   string `default:"http://localhost:3000" split_words:"true"`

	APIBaseURL   string        `default:"http://localhost:8080" envconfig:"API_BASE_URL"`
	FetchTimeout time.Duration `default:"0s" split_words:"true"`

	SessionKey string `default:"idTokenState" split_words:"true"`

	StorageDriver string `default:"file" split_words:"true"`
	StorageCache  bool   `default:"false" split_words:"true"`
	FilePath      string `split_words:"true"`
	PostgresDSN   string `envconfig:"POSTGRES_DSN"`

	RedisAddress   string `default:"localhost:6379" split_words:"true"`
	RedisPassword  string `split_words:"true"`
	RedisDB        int    `default:"0" envconfig:"REDIS_DB"`
	RedisKeyPrefix string `default:"metaview:" split_words:"true"`

	IdentityProvider string `default:"oidc" split_words:"true"`
	OIDCProviderURL  string `default:"https://accounts.google.com" envconfig:"OIDC_PROVIDER_URL"`
	OIDCClientID     string `default:"691474794551-sf5s8aprb3dnus95ic78048l2497ornp.apps.googleusercontent.com" envconfig:"OIDC_CLIENT_ID"`
	OIDCClientSecret string `envconfig:"OIDC_CLIENT_SECRET"`
	OIDCAutoSelect   bool   `default:"true" envconfig:"OIDC_AUTO_SELECT"`
	StaticCredential string `split_words:"true"`
}

// IsEnvProduction returns whether the application runs in production mode
func (config *Config) IsEnvProduction() bool {
	return strings.ToLower(config.Environment) == "production"
}

// IsBaseAddressSecure returns whether the web client is served over TLS (affects cookie flags)
func (config *Config) IsBaseAddressSecure() bool {
	return strings.HasPrefix(config.BaseAddress, "https://")
}

// MetaEndpoint returns the absolute URL of the metadata endpoint
func (config *Config) MetaEndpoint() string {
	return strings.TrimSuffix(config.APIBaseURL, "/") + "/api/meta"
}

// Redacted returns a copy of the configuration with all credentials masked, suitable for logging
func (config *Config) Redacted() Config {
	redacted := *config
	for _, field := range []*string{&redacted.OIDCClientSecret, &redacted.RedisPassword, &redacted.StaticCredential, &redacted.PostgresDSN} {
		if *field != "" {
			*field = redactedValue
		}
	}
	return redacted
}

// LoadFromEnv loads a new configuration structure using environment variables and an optional .env file
func LoadFromEnv() (*Config, error) {
	// Load a .env file if it exists
	_ = godotenv.Overload()

	// Load a new configuration structure using environment variables
	config := new(Config)
	if err := envconfig.Process("sb", config); err != nil {
		return nil, err
	}
	return config, nil
}
