// Package config loads client settings from a TOML or YAML file with
// environment overrides for the secrets.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

const (
	EnvToken    = "BOT_TOKEN"
	EnvEndpoint = "BOT_API_ENDPOINT"
)

const (
	defaultEndpoint    = "https://api.telegram.org"
	defaultTokenPrefix = "bot"
	defaultLogLevel    = "info"
	defaultService     = "botapi"
	defaultBalancer    = "round_robin"
)

// Config is the resolved client configuration. Zero durations and limits
// mean the feature is off.
type Config struct {
	Token       string
	APIEndpoint string
	TokenPrefix string
	Timeout     time.Duration
	LogLevel    string

	MaxIdleConns    int
	MaxConnsPerHost int

	RateLimit RateLimit
	Retry     Retry
	Metrics   Metrics
	Discovery Discovery
}

type RateLimit struct {
	PerSecond float64
	Burst     int
}

type Retry struct {
	MaxRetries int
	BaseDelay  time.Duration
}

type Metrics struct {
	Listen string // address for /metrics and /healthz, empty disables
}

// Discovery spreads requests over self-hosted API servers, found in etcd or
// listed statically in Servers.
type Discovery struct {
	EtcdEndpoints []string
	Servers       []string
	Service       string
	Balancer      string
}

func (d Discovery) Enabled() bool {
	return len(d.EtcdEndpoints) > 0 || len(d.Servers) > 0
}

// file is the on-disk layout shared by both formats.
type file struct {
	Token           string  `toml:"token" yaml:"token"`
	APIEndpoint     string  `toml:"api_endpoint" yaml:"api_endpoint"`
	TokenPrefix     *string `toml:"token_prefix" yaml:"token_prefix"`
	TimeoutSeconds  int     `toml:"timeout_seconds" yaml:"timeout_seconds"`
	LogLevel        string  `toml:"log_level" yaml:"log_level"`
	MaxIdleConns    int     `toml:"max_idle_conns" yaml:"max_idle_conns"`
	MaxConnsPerHost int     `toml:"max_conns_per_host" yaml:"max_conns_per_host"`

	RateLimit struct {
		PerSecond float64 `toml:"per_second" yaml:"per_second"`
		Burst     int     `toml:"burst" yaml:"burst"`
	} `toml:"rate_limit" yaml:"rate_limit"`

	Retry struct {
		MaxRetries  int `toml:"max_retries" yaml:"max_retries"`
		BaseDelayMS int `toml:"base_delay_ms" yaml:"base_delay_ms"`
	} `toml:"retry" yaml:"retry"`

	Metrics struct {
		Listen string `toml:"listen" yaml:"listen"`
	} `toml:"metrics" yaml:"metrics"`

	Discovery struct {
		EtcdEndpoints []string `toml:"etcd_endpoints" yaml:"etcd_endpoints"`
		Servers       []string `toml:"servers" yaml:"servers"`
		Service       string   `toml:"service" yaml:"service"`
		Balancer      string   `toml:"balancer" yaml:"balancer"`
	} `toml:"discovery" yaml:"discovery"`
}

func Default() Config {
	return Config{
		APIEndpoint: defaultEndpoint,
		TokenPrefix: defaultTokenPrefix,
		LogLevel:    defaultLogLevel,
		Discovery:   Discovery{Service: defaultService, Balancer: defaultBalancer},
	}
}

// Load parses the file at path, falling back to defaults when it does not
// exist. Files ending in .yaml or .yml are YAML, anything else TOML.
// BOT_TOKEN and BOT_API_ENDPOINT override the file.
func Load(path string) (Config, error) {
	var raw file
	if strings.TrimSpace(path) != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return Config{}, fmt.Errorf("read config: %w", err)
		default:
			if err := parse(path, data, &raw); err != nil {
				return Config{}, fmt.Errorf("parse config: %w", err)
			}
		}
	}

	cfg := resolve(raw)
	if v := strings.TrimSpace(os.Getenv(EnvToken)); v != "" {
		cfg.Token = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvEndpoint)); v != "" {
		cfg.APIEndpoint = strings.TrimRight(v, "/")
	}
	return cfg, nil
}

func parse(path string, data []byte, raw *file) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return yaml.Unmarshal(data, raw)
	default:
		return toml.Unmarshal(data, raw)
	}
}

func resolve(raw file) Config {
	cfg := Default()

	cfg.Token = strings.TrimSpace(raw.Token)
	if v := strings.TrimRight(strings.TrimSpace(raw.APIEndpoint), "/"); v != "" {
		cfg.APIEndpoint = v
	}
	// an explicit empty prefix is kept
	if raw.TokenPrefix != nil {
		cfg.TokenPrefix = strings.TrimSpace(*raw.TokenPrefix)
	}
	if raw.TimeoutSeconds > 0 {
		cfg.Timeout = time.Duration(raw.TimeoutSeconds) * time.Second
	}
	if v := strings.TrimSpace(raw.LogLevel); v != "" {
		cfg.LogLevel = strings.ToLower(v)
	}
	cfg.MaxIdleConns = max(raw.MaxIdleConns, 0)
	cfg.MaxConnsPerHost = max(raw.MaxConnsPerHost, 0)

	if raw.RateLimit.PerSecond > 0 {
		cfg.RateLimit.PerSecond = raw.RateLimit.PerSecond
		cfg.RateLimit.Burst = max(raw.RateLimit.Burst, 1)
	}
	if raw.Retry.MaxRetries > 0 {
		cfg.Retry.MaxRetries = raw.Retry.MaxRetries
		cfg.Retry.BaseDelay = time.Duration(max(raw.Retry.BaseDelayMS, 0)) * time.Millisecond
	}
	cfg.Metrics.Listen = strings.TrimSpace(raw.Metrics.Listen)

	cfg.Discovery.EtcdEndpoints = trimAll(raw.Discovery.EtcdEndpoints)
	cfg.Discovery.Servers = trimAll(raw.Discovery.Servers)
	if v := strings.TrimSpace(raw.Discovery.Service); v != "" {
		cfg.Discovery.Service = v
	}
	if v := strings.TrimSpace(raw.Discovery.Balancer); v != "" {
		cfg.Discovery.Balancer = v
	}
	return cfg
}

func trimAll(in []string) []string {
	var out []string
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
