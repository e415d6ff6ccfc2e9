// Copyright 2025 The OrthoInsight Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(New("1.2.3"))
	require.NoError(t, err)

	assert.Equal(t, "https://tmp.kedi-mobile.com", cfg.Inference.BaseURL)
	assert.Equal(t, "http://localhost:8080/api/", cfg.Clinics.APIBase)
	assert.Equal(t, 60*time.Second, cfg.HTTP.Timeout)
	assert.False(t, cfg.HTTP.Trace)
	assert.Equal(t, "ortho/1.2.3", cfg.HTTP.UserAgent)
	assert.Equal(t, "http://ip-api.com/json/", cfg.Geo.ProviderURL)
	assert.Equal(t, 5000.0, cfg.Geo.IPAccuracyM)
	assert.Equal(t, "localhost:8081", cfg.Server.Addr)
	assert.False(t, cfg.Log.Verbose)
}

func TestLoadEnvironmentOverrides(t *testing.T) {
	t.Setenv("ORTHO_INFERENCE_BASE_URL", "http://inference.internal:9000")
	t.Setenv("ORTHO_HTTP_TIMEOUT", "5s")
	t.Setenv("ORTHO_HTTP_TRACE", "true")
	t.Setenv("ORTHO_GEO_IP_ACCURACY_M", "2500")

	cfg, err := Load(New(""))
	require.NoError(t, err)

	assert.Equal(t, "http://inference.internal:9000", cfg.Inference.BaseURL)
	assert.Equal(t, 5*time.Second, cfg.HTTP.Timeout)
	assert.True(t, cfg.HTTP.Trace)
	assert.Equal(t, 2500.0, cfg.Geo.IPAccuracyM)
	assert.Equal(t, "ortho/unknown", cfg.HTTP.UserAgent)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ortho.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
clinics:
  api_base: https://clinics.example.com/api/
server:
  addr: ":9090"
http:
  timeout: 15s
`), 0o600))

	v := New("dev")
	require.NoError(t, ReadFile(v, path))

	cfg, err := Load(v)
	require.NoError(t, err)

	assert.Equal(t, "https://clinics.example.com/api/", cfg.Clinics.APIBase)
	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, 15*time.Second, cfg.HTTP.Timeout)
	assert.Equal(t, "https://tmp.kedi-mobile.com", cfg.Inference.BaseURL, "unset keys keep their default")
}

func TestReadFileMissing(t *testing.T) {
	err := ReadFile(New("dev"), filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing.yaml")

	assert.NoError(t, ReadFile(New("dev"), ""))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr []string
	}{
		{"valid", func(*Config) {}, nil},
		{"relative inference url", func(c *Config) { c.Inference.BaseURL = "/kedi" }, []string{KeyInferenceBaseURL}},
		{"ftp clinics", func(c *Config) { c.Clinics.APIBase = "ftp://clinics/api/" }, []string{KeyClinicsAPIBase}},
		{"zero timeout", func(c *Config) { c.HTTP.Timeout = 0 }, []string{KeyHTTPTimeout}},
		{"several", func(c *Config) {
			c.Geo.ProviderURL = "ip-api.com"
			c.Geo.IPAccuracyM = -1
			c.Server.Addr = ""
		}, []string{KeyGeoProviderURL, KeyGeoIPAccuracy, KeyServerAddr}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load(New("dev"))
			require.NoError(t, err)

			tt.mutate(cfg)

			err = cfg.Validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)

				return
			}

			require.Error(t, err)

			for _, key := range tt.wantErr {
				assert.Contains(t, err.Error(), key)
			}
		})
	}
}
