// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestDefaultConfig_IsValid(t *testing.T) {
	require.NoError(t, Validate(DefaultConfig()))
}

// TestCreateDefault verifies default config creation on first load.
func TestCreateDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".churneval", "churneval.yaml")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var onDisk ChurnevalConfig
	require.NoError(t, yaml.Unmarshal(data, &onDisk))
	assert.Equal(t, "logistic", onDisk.Model.Kind)
	assert.Equal(t, 10, onDisk.CV.Folds)
}

func TestLoad_PartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "churneval.yaml")
	doc := `
data:
  path: /tmp/telco.csv
cv:
  folds: 5
model:
  kind: forest
  trees: 20
`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/telco.csv", cfg.Data.Path)
	assert.Equal(t, "Churn", cfg.Data.Outcome)
	assert.Equal(t, 5, cfg.CV.Folds)
	assert.Equal(t, uint64(1234), cfg.CV.Seed)
	assert.Equal(t, "forest", cfg.Model.Kind)
	assert.Equal(t, 20, cfg.Model.Trees)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*ChurnevalConfig)
		field  string
	}{
		{"one fold", func(c *ChurnevalConfig) { c.CV.Folds = 1 }, "Folds"},
		{"holdout", func(c *ChurnevalConfig) { c.CV.Holdout = 1 }, "Holdout"},
		{"model kind", func(c *ChurnevalConfig) { c.Model.Kind = "svm" }, "Kind"},
		{"step", func(c *ChurnevalConfig) { c.Preprocess.Steps = []string{"pca"} }, "Steps"},
		{"gcs bucket", func(c *ChurnevalConfig) { c.Output.GCS.Enabled = true }, "Bucket"},
		{"influx url", func(c *ChurnevalConfig) {
			c.Output.Influx = InfluxConfig{Enabled: true, Org: "o", Bucket: "b"}
		}, "URL"},
		{"log level", func(c *ChurnevalConfig) { c.Logging.Level = "loud" }, "Level"},
		{"trace exporter", func(c *ChurnevalConfig) { c.Tracing.Exporter = "jaeger" }, "Exporter"},
		{"otlp endpoint", func(c *ChurnevalConfig) {
			c.Tracing = TracingConfig{Exporter: "otlp"}
		}, "Endpoint"},
		{"missing path", func(c *ChurnevalConfig) { c.Data.Path = "" }, "Path"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			err := Validate(cfg)
			require.ErrorIs(t, err, ErrInvalid)
			assert.Contains(t, err.Error(), tt.field)
		})
	}
}

func TestLoad_LeavesValidationToCaller(t *testing.T) {
	path := filepath.Join(t.TempDir(), "churneval.yaml")
	require.NoError(t, os.WriteFile(path, []byte("cv:\n  folds: 1\n"), 0644))

	cfg, err := Load(path)
	require.NoError(t, err, "an out-of-range value may still be overridden by a flag")
	assert.Equal(t, 1, cfg.CV.Folds)
	assert.ErrorIs(t, Validate(cfg), ErrInvalid)

	cfg.CV.Folds = 5
	assert.NoError(t, Validate(cfg))
}

func TestLoad_BadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "churneval.yaml")
	require.NoError(t, os.WriteFile(path, []byte("cv: [unclosed"), 0644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestExpandHome(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(home, "runs"), ExpandHome("~/runs"))
	assert.Equal(t, "/abs/runs", ExpandHome("/abs/runs"))
	assert.Equal(t, "rel", ExpandHome("rel"))
}
