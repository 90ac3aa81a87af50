package trigger

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds process-wide configuration for an endpoint.
type Config struct {
	// ID is the endpoint identifier reported to the backend on registration.
	ID string `mapstructure:"id"`

	// APIKey authorizes calls in both directions. Inbound requests must
	// carry it in the x-trigger-api-key header.
	APIKey string `mapstructure:"api_key"`

	// APIURL is the base URL of the backend registration API.
	APIURL string `mapstructure:"api_url"`

	// Endpoint describes how the backend reaches this process.
	Endpoint EndpointConfig `mapstructure:"endpoint"`

	// RequestTimeout bounds each call made to the backend.
	RequestTimeout time.Duration `mapstructure:"request_timeout"`

	// RateLimit is the maximum number of backend calls per second.
	RateLimit float64 `mapstructure:"rate_limit"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `mapstructure:"log_level"`
}

// EndpointConfig controls endpoint URL resolution.
type EndpointConfig struct {
	// URL is an explicit override. When set, Host and Path are ignored.
	URL string `mapstructure:"url"`

	// Host is the public host of this process, with or without scheme.
	Host string `mapstructure:"host"`

	// Path is appended to Host.
	Path string `mapstructure:"path"`
}

// hostEnvChain lists the environment variables consulted for the endpoint
// host, in order. The first non-empty value wins.
var hostEnvChain = []string{
	"TRIGGER_ENDPOINT_HOST",
	"VERCEL_URL",
	"RENDER_EXTERNAL_URL",
	"RAILWAY_STATIC_URL",
	"FLY_APP_HOSTNAME",
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		APIURL:         "https://api.trigger.dev",
		Endpoint:       EndpointConfig{Path: "/api/trigger"},
		RequestTimeout: 30 * time.Second,
		RateLimit:      20,
		LogLevel:       "info",
	}
}

// SetDefaults registers default values on v.
func SetDefaults(v *viper.Viper) {
	d := DefaultConfig()
	v.SetDefault("id", d.ID)
	v.SetDefault("api_url", d.APIURL)
	v.SetDefault("endpoint.path", d.Endpoint.Path)
	v.SetDefault("request_timeout", d.RequestTimeout)
	v.SetDefault("rate_limit", d.RateLimit)
	v.SetDefault("log_level", d.LogLevel)
}

// NewViper returns a viper instance bound to the TRIGGER_* environment and
// the endpoint host fallback chain.
func NewViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix("TRIGGER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// BindEnv only errors when called without a key.
	_ = v.BindEnv("api_key", "TRIGGER_API_KEY")
	_ = v.BindEnv("api_url", "TRIGGER_API_URL")
	_ = v.BindEnv("endpoint.url", "TRIGGER_ENDPOINT_URL")
	_ = v.BindEnv("endpoint.path", "TRIGGER_ENDPOINT_PATH")
	_ = v.BindEnv(append([]string{"endpoint.host"}, hostEnvChain...)...)

	SetDefaults(v)
	return v
}

// LoadConfig reads configuration from the environment and, when path is
// non-empty, from a config file.
func LoadConfig(path string) (Config, error) {
	v := NewViper()
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	}
	return LoadWithViper(v)
}

// LoadWithViper unmarshals configuration from an existing viper instance.
func LoadWithViper(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	return cfg, nil
}

// ResolveEndpoint returns the URL the backend should call. It is evaluated
// lazily at listen-time; a missing host is reported as ErrEndpointUnresolved.
func (c Config) ResolveEndpoint() (string, error) {
	if c.Endpoint.URL != "" {
		return c.Endpoint.URL, nil
	}

	host := strings.TrimSpace(c.Endpoint.Host)
	if host == "" {
		return "", ErrEndpointUnresolved
	}
	if !strings.Contains(host, "://") {
		host = "https://" + host
	}

	base, err := url.Parse(host)
	if err != nil || base.Host == "" {
		return "", fmt.Errorf("%w: bad host %q", ErrEndpointUnresolved, c.Endpoint.Host)
	}

	path := c.Endpoint.Path
	if path != "" && !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return strings.TrimSuffix(base.String(), "/") + path, nil
}
