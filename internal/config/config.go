// Package config handles application configuration from CLI flags and environment variables.
package config

import (
	"flag"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
)

// EnvPrefix is prepended to every environment variable name.
const EnvPrefix = "TRNG_"

// Config holds all application configuration.
type Config struct {
	// Endpoint is the random.org integer generator URL.
	Endpoint string

	// Timeout bounds each fetch from random.org.
	Timeout time.Duration

	// ListenPort is the port for the HTTP API and health endpoints.
	ListenPort int

	// DefaultMin and DefaultMax are used when a request omits a bound.
	DefaultMin int64
	DefaultMax int64

	// OTelEndpoint enables OTLP/HTTP trace export when set.
	OTelEndpoint string

	// Once performs a single draw of [Min, Max], prints it and exits.
	Once bool
	Min  int64
	Max  int64
}

// Default values.
const (
	DefaultEndpoint   = "https://www.random.org/integers/"
	DefaultTimeout    = 10 * time.Second
	DefaultListenPort = 8081
	DefaultMinValue   = 1
	DefaultMaxValue   = 100
)

// envOverrides mirrors the settable fields. Pointers distinguish unset
// variables from zero values.
type envOverrides struct {
	Endpoint     *string        `env:"ENDPOINT"`
	Timeout      *time.Duration `env:"TIMEOUT"`
	ListenPort   *int           `env:"LISTEN_PORT"`
	DefaultMin   *int64         `env:"DEFAULT_MIN"`
	DefaultMax   *int64         `env:"DEFAULT_MAX"`
	OTelEndpoint *string        `env:"OTEL_ENDPOINT"`
}

// Load parses configuration from flags and environment variables.
// Environment variables override CLI flag defaults.
func Load() *Config {
	cfg := &Config{}

	flag.StringVar(&cfg.Endpoint, "endpoint", DefaultEndpoint,
		"random.org integer generator URL (env: TRNG_ENDPOINT)")
	flag.DurationVar(&cfg.Timeout, "timeout", DefaultTimeout,
		"Timeout for each random.org fetch (env: TRNG_TIMEOUT)")
	flag.IntVar(&cfg.ListenPort, "listen-port", DefaultListenPort,
		"Port for the HTTP API and health endpoints (env: TRNG_LISTEN_PORT)")
	flag.Int64Var(&cfg.DefaultMin, "default-min", DefaultMinValue,
		"Minimum used when a request omits min (env: TRNG_DEFAULT_MIN)")
	flag.Int64Var(&cfg.DefaultMax, "default-max", DefaultMaxValue,
		"Maximum used when a request omits max (env: TRNG_DEFAULT_MAX)")
	flag.StringVar(&cfg.OTelEndpoint, "otel-endpoint", "",
		"OTLP/HTTP trace endpoint, empty disables tracing (env: TRNG_OTEL_ENDPOINT)")
	flag.BoolVar(&cfg.Once, "once", false,
		"Draw a single integer in [min, max], print it as JSON and exit")
	flag.Int64Var(&cfg.Min, "min", DefaultMinValue, "Minimum integer (inclusive) for -once")
	flag.Int64Var(&cfg.Max, "max", DefaultMaxValue, "Maximum integer (inclusive) for -once")

	flag.Parse()

	cfg.applyEnvOverrides()

	return cfg
}

// LoadWithDefaults returns a Config with default values without parsing flags.
// Useful for testing.
func LoadWithDefaults() *Config {
	cfg := &Config{
		Endpoint:   DefaultEndpoint,
		Timeout:    DefaultTimeout,
		ListenPort: DefaultListenPort,
		DefaultMin: DefaultMinValue,
		DefaultMax: DefaultMaxValue,
		Min:        DefaultMinValue,
		Max:        DefaultMaxValue,
	}
	cfg.applyEnvOverrides()
	return cfg
}

// applyEnvOverrides applies TRNG_* variables. Values that fail to parse or
// are out of range leave the current setting in place.
func (c *Config) applyEnvOverrides() {
	for _, field := range []string{
		"ENDPOINT", "TIMEOUT", "LISTEN_PORT", "DEFAULT_MIN", "DEFAULT_MAX", "OTEL_ENDPOINT",
	} {
		var o envOverrides
		err := env.ParseWithOptions(&o, env.Options{
			Prefix:      EnvPrefix,
			Environment: only(EnvPrefix + field),
		})
		if err != nil {
			continue
		}
		c.apply(&o)
	}
}

func (c *Config) apply(o *envOverrides) {
	if o.Endpoint != nil && *o.Endpoint != "" {
		c.Endpoint = *o.Endpoint
	}
	if o.Timeout != nil && *o.Timeout > 0 {
		c.Timeout = *o.Timeout
	}
	if o.ListenPort != nil && *o.ListenPort > 0 && *o.ListenPort < 65536 {
		c.ListenPort = *o.ListenPort
	}
	if o.DefaultMin != nil {
		c.DefaultMin = *o.DefaultMin
	}
	if o.DefaultMax != nil {
		c.DefaultMax = *o.DefaultMax
	}
	if o.OTelEndpoint != nil {
		c.OTelEndpoint = *o.OTelEndpoint
	}
}

// only returns the process environment restricted to key, so a bad value
// in one variable does not discard the others.
func only(key string) map[string]string {
	all := env.ToMap(os.Environ())
	if v, ok := all[key]; ok {
		return map[string]string{key: v}
	}
	return map[string]string{}
}
