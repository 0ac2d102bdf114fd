package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/jack23912/webscrapbook/internal/entity"
)

// Loader names accepted in LOADER.
const (
	LoaderChromedp = "chromedp"
	LoaderHTTP     = "http"
)

// Config stores all configuration for the application.
type Config struct {
	ServerPort string `mapstructure:"SERVER_PORT"`
	LogLevel   string `mapstructure:"LOG_LEVEL"`

	PostgresURL   string `mapstructure:"POSTGRES_URL"`
	RedisAddr     string `mapstructure:"REDIS_ADDR"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`
	RedisDB       int    `mapstructure:"REDIS_DB"`

	StoreDir string `mapstructure:"STORE_DIR"`
	Loader   string `mapstructure:"LOADER"`

	CaptureWorkers        int    `mapstructure:"CAPTURE_WORKERS"`
	FetchConcurrency      int    `mapstructure:"FETCH_CONCURRENCY"`
	FetchTimeout          int    `mapstructure:"FETCH_TIMEOUT"`     // in seconds
	PageLoadTimeout       int    `mapstructure:"PAGE_LOAD_TIMEOUT"` // in seconds
	MaxFrameDepth         int    `mapstructure:"MAX_FRAME_DEPTH"`
	CapturePolicies       string `mapstructure:"CAPTURE_POLICIES"`
	ResourceCacheTTLHours int    `mapstructure:"RESOURCE_CACHE_TTL_HOURS"`
	Proxies               string `mapstructure:"PROXIES"` // comma separated proxy URLs
}

// Load reads configuration from the .env file in the working directory, if
// any, and the environment.
func Load() (*Config, error) {
	return LoadFile(".env")
}

// LoadFile reads configuration from path and the environment. Environment
// variables win over the file.
func LoadFile(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("env")
	v.AutomaticEnv()

	// Attempt to read the file, but don't fail if it's not present
	// This allows configuration purely through environment variables in production
	_ = v.ReadInConfig()

	// Every key needs a default so Unmarshal sees its environment value
	v.SetDefault("SERVER_PORT", "8080")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("POSTGRES_URL", "")
	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("STORE_DIR", "./captures")
	v.SetDefault("LOADER", LoaderChromedp)
	v.SetDefault("CAPTURE_WORKERS", 4)
	v.SetDefault("FETCH_CONCURRENCY", 16)
	v.SetDefault("FETCH_TIMEOUT", 30)
	v.SetDefault("PAGE_LOAD_TIMEOUT", 60)
	v.SetDefault("MAX_FRAME_DEPTH", 5)
	v.SetDefault("CAPTURE_POLICIES", "")
	v.SetDefault("RESOURCE_CACHE_TTL_HOURS", 24)
	v.SetDefault("PROXIES", "")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	c.Loader = strings.ToLower(strings.TrimSpace(c.Loader))
	switch c.Loader {
	case LoaderChromedp, LoaderHTTP:
	default:
		return fmt.Errorf("unknown LOADER %q", c.Loader)
	}
	if c.CaptureWorkers < 1 {
		return fmt.Errorf("CAPTURE_WORKERS must be positive, got %d", c.CaptureWorkers)
	}
	if c.FetchConcurrency < 1 {
		return fmt.Errorf("FETCH_CONCURRENCY must be positive, got %d", c.FetchConcurrency)
	}
	if c.MaxFrameDepth < 0 {
		return fmt.Errorf("MAX_FRAME_DEPTH must not be negative, got %d", c.MaxFrameDepth)
	}
	if _, err := entity.ParsePolicies(c.CapturePolicies); err != nil {
		return fmt.Errorf("CAPTURE_POLICIES: %w", err)
	}
	return nil
}

// CaptureOptions returns the default options with CAPTURE_POLICIES applied.
func (c *Config) CaptureOptions() entity.CaptureOptions {
	opts := entity.DefaultOptions()
	policies, err := entity.ParsePolicies(c.CapturePolicies)
	if err == nil && len(policies) > 0 {
		opts.Policies = policies
	}
	return opts
}

func (c *Config) FetchTimeoutDuration() time.Duration {
	return time.Duration(c.FetchTimeout) * time.Second
}

func (c *Config) PageLoadTimeoutDuration() time.Duration {
	return time.Duration(c.PageLoadTimeout) * time.Second
}

func (c *Config) ResourceCacheTTL() time.Duration {
	return time.Duration(c.ResourceCacheTTLHours) * time.Hour
}

// ProxyList splits PROXIES.
func (c *Config) ProxyList() []string {
	var out []string
	for _, p := range strings.Split(c.Proxies, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
