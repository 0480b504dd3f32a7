// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/AleutianAI/churneval/cmd/churneval/config"
	"github.com/AleutianAI/churneval/pkg/logging"
)

var version = "0.1.0"

// --- Global Command Variables ---
var (
	configPath  string
	logLevel    string
	jsonLogs    bool
	traceFlag   string
	metricsFile string

	folds           int
	seed            uint64
	modelKind       string
	parallelism     int
	keepPredictions bool
	noStore         bool
	runsLimit       int

	cfg             config.ChurnevalConfig
	logger          *logging.Logger
	shutdownTracing func(context.Context) error

	rootCmd = &cobra.Command{
		Use:   "churneval",
		Short: "Estimate churn classifier performance with k-fold cross-validation",
		Long: `churneval loads a customer churn table, fits a classifier inside every
fold of a seeded k-fold partition and reports pooled accuracy, precision,
recall and F1 computed from the out-of-fold predictions.`,
		Version:           version,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: setup,
	}

	// --- Evaluation ---
	cvCmd = &cobra.Command{
		Use:   "cv",
		Short: "Cross-validate the configured model",
		Args:  cobra.NoArgs,
		RunE:  runCV, // Defined in cmd_eval.go
	}
	holdoutCmd = &cobra.Command{
		Use:   "holdout",
		Short: "Fit on a stratified training split and score the held-out rows",
		Args:  cobra.NoArgs,
		RunE:  runHoldout, // Defined in cmd_eval.go
	}
	compareCmd = &cobra.Command{
		Use:   "compare",
		Short: "Cross-validate the model and the baseline on the same folds and test the difference",
		Args:  cobra.NoArgs,
		RunE:  runCompare, // Defined in cmd_eval.go
	}

	// --- Stored runs ---
	runsCmd = &cobra.Command{
		Use:   "runs",
		Short: "List stored reports, newest first",
		Args:  cobra.NoArgs,
		RunE:  runListRuns, // Defined in cmd_runs.go
	}
	runsShowCmd = &cobra.Command{
		Use:   "show [report_id]",
		Short: "Render a stored report",
		Args:  cobra.ExactArgs(1),
		RunE:  runShowRun, // Defined in cmd_runs.go
	}
	runsDeleteCmd = &cobra.Command{
		Use:   "delete [report_id]",
		Short: "Delete a stored report",
		Args:  cobra.ExactArgs(1),
		RunE:  runDeleteRun, // Defined in cmd_runs.go
	}
)

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&configPath, "config", "",
		"Config file (default ~/.churneval/churneval.yaml)")
	pf.StringVar(&logLevel, "log-level", "",
		"Log level: debug, info, warn, error")
	pf.BoolVar(&jsonLogs, "json-logs", false,
		"Write console logs as JSON")
	pf.StringVar(&traceFlag, "trace", "",
		"Trace exporter: none, stdout, otlp")
	pf.StringVar(&metricsFile, "metrics-file", "",
		"Write Prometheus metrics to this file on exit")

	for _, c := range []*cobra.Command{cvCmd, holdoutCmd, compareCmd} {
		c.Flags().Uint64Var(&seed, "seed", 0, "Partition seed (default from config)")
		c.Flags().StringVar(&modelKind, "model", "", "Classifier: logistic, forest, threshold, majority")
		c.Flags().BoolVar(&noStore, "no-store", false, "Do not save or publish the report")
	}
	for _, c := range []*cobra.Command{cvCmd, compareCmd} {
		c.Flags().IntVarP(&folds, "folds", "k", 0, "Number of folds (default from config)")
		c.Flags().IntVar(&parallelism, "parallelism", 0, "Folds evaluated concurrently (0 = GOMAXPROCS)")
	}
	cvCmd.Flags().BoolVar(&keepPredictions, "keep-predictions", false,
		"Store per-row out-of-fold predictions in the report")

	runsCmd.Flags().IntVar(&runsLimit, "limit", 20, "Maximum reports to list (0 = all)")

	rootCmd.AddCommand(cvCmd)
	rootCmd.AddCommand(holdoutCmd)
	rootCmd.AddCommand(compareCmd)
	rootCmd.AddCommand(runsCmd)
	runsCmd.AddCommand(runsShowCmd)
	runsCmd.AddCommand(runsDeleteCmd)
}

// setup loads the config, applies flag overrides, then starts logging and
// tracing.
func setup(cmd *cobra.Command, _ []string) error {
	path := configPath
	if path == "" {
		p, err := config.DefaultPath()
		if err != nil {
			return err
		}
		path = p
	}
	loaded, err := config.Load(path)
	if err != nil {
		return err
	}
	cfg = applyFlags(cmd, loaded)
	if err := config.Validate(cfg); err != nil {
		return err
	}

	level, err := logging.ParseLevel(cfg.Logging.Level)
	if err != nil {
		return err
	}
	logger = logging.New(logging.Config{
		Level:   level,
		LogDir:  cfg.Logging.Dir,
		Service: "churneval",
		JSON:    cfg.Logging.JSON,
	})
	logger.Debug("configuration loaded", "path", path)

	shutdownTracing, err = initTracing(cmd.Context(), cfg.Tracing)
	if err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}
	return nil
}

// applyFlags overlays explicitly set flags on the loaded config.
func applyFlags(cmd *cobra.Command, c config.ChurnevalConfig) config.ChurnevalConfig {
	flags := cmd.Flags()
	if flags.Changed("log-level") {
		c.Logging.Level = logLevel
	}
	if jsonLogs {
		c.Logging.JSON = true
	}
	if flags.Changed("trace") {
		c.Tracing.Exporter = traceFlag
	}
	if flags.Changed("metrics-file") {
		c.Output.MetricsFile = metricsFile
	}
	if flags.Changed("folds") {
		c.CV.Folds = folds
	}
	if flags.Changed("seed") {
		c.CV.Seed = seed
	}
	if flags.Changed("parallelism") {
		c.CV.Parallelism = parallelism
	}
	if flags.Changed("model") {
		c.Model.Kind = modelKind
	}
	return c
}

// teardown flushes spans, writes the metrics file and closes the log file.
// It runs after every command, including failed ones.
func teardown() error {
	var errs []error
	if shutdownTracing != nil {
		if err := shutdownTracing(context.Background()); err != nil {
			errs = append(errs, fmt.Errorf("shutdown tracing: %w", err))
		}
	}
	if cfg.Output.MetricsFile != "" {
		path := config.ExpandHome(cfg.Output.MetricsFile)
		if err := prometheus.WriteToTextfile(path, prometheus.DefaultGatherer); err != nil {
			errs = append(errs, fmt.Errorf("write metrics file: %w", err))
		}
	}
	if logger != nil {
		if err := logger.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// out is where reports are rendered.
var out = os.Stdout
