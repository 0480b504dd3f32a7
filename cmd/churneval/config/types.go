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
	"github.com/AleutianAI/churneval/services/classify"
)

// ChurnevalConfig is the churneval.yaml document.
type ChurnevalConfig struct {
	// Data: where the records come from and how to read them
	Data DataConfig `yaml:"data"`

	// CV: fold count, seed and scheduling
	CV CVConfig `yaml:"cv"`

	// Model: the classifier evaluated by cv and holdout
	Model classify.Config `yaml:"model"`

	// Baseline: the second classifier used by compare
	Baseline classify.Config `yaml:"baseline"`

	// Preprocess: ordered step names applied inside every fold
	Preprocess PreprocessConfig `yaml:"preprocess"`

	// Output: where reports go
	Output OutputConfig `yaml:"output"`

	Logging LoggingConfig `yaml:"logging"`

	// Tracing: span export for cv, holdout and compare runs
	Tracing TracingConfig `yaml:"tracing"`
}

type DataConfig struct {
	Path      string   `yaml:"path" validate:"required"`
	Outcome   string   `yaml:"outcome" validate:"required"`
	Positive  string   `yaml:"positive"`
	Drop      []string `yaml:"drop"`        // e.g. ["customerID"]
	Numeric   []string `yaml:"numeric"`     // forced numeric, e.g. TotalCharges with blanks
	Category  []string `yaml:"categorical"` // forced categorical, e.g. SeniorCitizen
	Delimiter string   `yaml:"delimiter" validate:"max=1"`
}

type CVConfig struct {
	Folds       int     `yaml:"folds" validate:"gte=2"`
	Seed        uint64  `yaml:"seed"`
	Parallelism int     `yaml:"parallelism" validate:"gte=0"`
	Holdout     float64 `yaml:"holdout" validate:"gt=0,lt=1"` // train proportion of the outer split
	Alpha       float64 `yaml:"alpha" validate:"gt=0,lt=1"`
}

type PreprocessConfig struct {
	Steps []string `yaml:"steps" validate:"dive,oneof=impute normalize dummy zero_variance zv"`
}

type OutputConfig struct {
	ReportDir   string       `yaml:"report_dir"`
	Charts      bool         `yaml:"charts"` // fold accuracy PNGs next to the JSON reports
	StoreDir    string       `yaml:"store_dir"`
	MetricsFile string       `yaml:"metrics_file"`
	GCS         GCSConfig    `yaml:"gcs"`
	Influx      InfluxConfig `yaml:"influx"`
}

type GCSConfig struct {
	Enabled         bool   `yaml:"enabled"`
	Bucket          string `yaml:"bucket" validate:"required_if=Enabled true"`
	Prefix          string `yaml:"prefix"`
	CredentialsFile string `yaml:"credentials_file"`
}

type InfluxConfig struct {
	Enabled bool   `yaml:"enabled"`
	URL     string `yaml:"url" validate:"required_if=Enabled true"`
	Token   string `yaml:"token"`
	Org     string `yaml:"org" validate:"required_if=Enabled true"`
	Bucket  string `yaml:"bucket" validate:"required_if=Enabled true"`
}

type LoggingConfig struct {
	Level string `yaml:"level" validate:"oneof=debug info warn warning error"`
	Dir   string `yaml:"dir"`
	JSON  bool   `yaml:"json"`
}

type TracingConfig struct {
	Exporter string `yaml:"exporter" validate:"oneof=none stdout otlp"`
	Endpoint string `yaml:"endpoint" validate:"required_if=Exporter otlp"` // host:port of an OTLP gRPC collector
	Insecure bool   `yaml:"insecure"`
}

// DefaultConfig returns the settings used for the telco churn workflow:
// drop the id column, 10 folds, a 3/4 outer split, logistic regression
// against a random forest baseline.
func DefaultConfig() ChurnevalConfig {
	return ChurnevalConfig{
		Data: DataConfig{
			Path:     "data/churn.csv",
			Outcome:  "Churn",
			Positive: "Yes",
			Drop:     []string{"customerID"},
			Numeric:  []string{"tenure", "MonthlyCharges", "TotalCharges"},
			Category: []string{"SeniorCitizen"},
		},
		CV: CVConfig{
			Folds:   10,
			Seed:    1234,
			Holdout: 0.75,
			Alpha:   0.05,
		},
		Model: classify.Config{
			Kind:    "logistic",
			Penalty: 1e-4,
		},
		Baseline: classify.Config{
			Kind:  "forest",
			Trees: 100,
		},
		Preprocess: PreprocessConfig{
			Steps: []string{"zero_variance", "normalize", "dummy"},
		},
		Output: OutputConfig{
			ReportDir: "reports",
			StoreDir:  "~/.churneval/runs",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
		Tracing: TracingConfig{
			Exporter: "none",
			Endpoint: "localhost:4317",
			Insecure: true,
		},
	}
}
