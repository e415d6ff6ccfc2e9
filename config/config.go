// Copyright 2025 The OrthoInsight Authors
// SPDX-License-Identifier: Apache-2.0

// Package config loads the ortho settings from flags, ORTHO_* environment
// variables and an optional YAML file.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const envPrefix = "ORTHO"

// Keys shared with the command line flags.
const (
	KeyInferenceBaseURL = "inference.base_url"
	KeyClinicsAPIBase   = "clinics.api_base"
	KeyHTTPTimeout      = "http.timeout"
	KeyHTTPTrace        = "http.trace"
	KeyHTTPTraceBody    = "http.trace_body"
	KeyHTTPUserAgent    = "http.user_agent"
	KeyGeoProviderURL   = "geo.provider_url"
	KeyGeoIPAccuracy    = "geo.ip_accuracy_m"
	KeyServerAddr       = "server.addr"
	KeyLogVerbose       = "log.verbose"
)

type Config struct {
	Inference InferenceConfig `mapstructure:"inference"`
	Clinics   ClinicsConfig   `mapstructure:"clinics"`
	HTTP      HTTPConfig      `mapstructure:"http"`
	Geo       GeoConfig       `mapstructure:"geo"`
	Server    ServerConfig    `mapstructure:"server"`
	Log       LogConfig       `mapstructure:"log"`
}

type InferenceConfig struct {
	BaseURL string `mapstructure:"base_url"`
}

type ClinicsConfig struct {
	APIBase string `mapstructure:"api_base"`
}

type HTTPConfig struct {
	Timeout   time.Duration `mapstructure:"timeout"`
	Trace     bool          `mapstructure:"trace"`
	TraceBody bool          `mapstructure:"trace_body"`
	UserAgent string        `mapstructure:"user_agent"`
}

type GeoConfig struct {
	ProviderURL string  `mapstructure:"provider_url"`
	IPAccuracyM float64 `mapstructure:"ip_accuracy_m"`
}

type ServerConfig struct {
	Addr string `mapstructure:"addr"`
}

type LogConfig struct {
	Verbose bool `mapstructure:"verbose"`
}

// New returns a viper instance reading ORTHO_* variables, where
// ORTHO_HTTP_TIMEOUT maps to http.timeout, with every default registered.
func New(version string) *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	SetDefaults(v, version)

	return v
}

// SetDefaults registers the default of every key. Unmarshal only sees
// environment overrides for registered keys.
func SetDefaults(v *viper.Viper, version string) {
	if version == "" {
		version = "unknown"
	}

	v.SetDefault(KeyInferenceBaseURL, "https://tmp.kedi-mobile.com")
	v.SetDefault(KeyClinicsAPIBase, "http://localhost:8080/api/")
	v.SetDefault(KeyHTTPTimeout, 60*time.Second)
	v.SetDefault(KeyHTTPTrace, false)
	v.SetDefault(KeyHTTPTraceBody, false)
	v.SetDefault(KeyHTTPUserAgent, "ortho/"+version)
	v.SetDefault(KeyGeoProviderURL, "http://ip-api.com/json/")
	v.SetDefault(KeyGeoIPAccuracy, 5000)
	v.SetDefault(KeyServerAddr, "localhost:8081")
	v.SetDefault(KeyLogVerbose, false)
}

// ReadFile merges the YAML file at path. An empty path is a no-op.
func ReadFile(v *viper.Viper, path string) error {
	if path == "" {
		return nil
	}

	v.SetConfigFile(path)

	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("reading config file %q: %w", path, err)
	}

	return nil
}

// Load unmarshals and validates the settings held by v.
func Load(v *viper.Viper) (*Config, error) {
	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func checkURL(key, raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}

	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%s: %q is not an absolute http(s) url", key, raw)
	}

	return nil
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var errs []error

	for _, u := range []struct{ key, value string }{
		{KeyInferenceBaseURL, c.Inference.BaseURL},
		{KeyClinicsAPIBase, c.Clinics.APIBase},
		{KeyGeoProviderURL, c.Geo.ProviderURL},
	} {
		if err := checkURL(u.key, u.value); err != nil {
			errs = append(errs, err)
		}
	}

	if c.HTTP.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("%s: must be positive, got %v", KeyHTTPTimeout, c.HTTP.Timeout))
	}

	if c.Geo.IPAccuracyM <= 0 {
		errs = append(errs, fmt.Errorf("%s: must be positive, got %v", KeyGeoIPAccuracy, c.Geo.IPAccuracyM))
	}

	if c.Server.Addr == "" {
		errs = append(errs, fmt.Errorf("%s: must not be empty", KeyServerAddr))
	}

	return errors.Join(errs...)
}
