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
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/AleutianAI/churneval/cmd/churneval/config"
	"github.com/AleutianAI/churneval/cmd/churneval/internal/report"
	"github.com/AleutianAI/churneval/cmd/churneval/internal/runstore"
	"github.com/AleutianAI/churneval/cmd/churneval/internal/sink"
	"github.com/AleutianAI/churneval/pkg/dataset"
	"github.com/AleutianAI/churneval/services/classify"
	"github.com/AleutianAI/churneval/services/crossval"
	"github.com/AleutianAI/churneval/services/preprocess"
)

// session carries the resolved configuration through one command.
type session struct {
	cfg    config.ChurnevalConfig
	logger *slog.Logger
	render *report.Renderer
}

func newSession() *session {
	l := slog.Default()
	if logger != nil {
		l = logger.Slog()
	}
	return &session{cfg: cfg, logger: l, render: report.ForFile(out)}
}

// datasetName labels reports with the source file name.
func (s *session) datasetName() string {
	return filepath.Base(s.cfg.Data.Path)
}

// loadDataset reads the configured file, drops the configured columns and
// keeps complete cases only.
func loadDataset(dc config.DataConfig, logger *slog.Logger) (*dataset.Dataset, error) {
	f, err := os.Open(config.ExpandHome(dc.Path))
	if err != nil {
		return nil, fmt.Errorf("open data file: %w", err)
	}
	defer f.Close()

	schema := dataset.Schema{
		Outcome: dc.Outcome,
		Kinds:   make(map[string]dataset.Kind, len(dc.Numeric)+len(dc.Category)),
	}
	for _, name := range dc.Numeric {
		schema.Kinds[name] = dataset.Numeric
	}
	for _, name := range dc.Category {
		schema.Kinds[name] = dataset.Categorical
	}
	if dc.Delimiter != "" {
		schema.Delimiter = []rune(dc.Delimiter)[0]
	}

	ds, err := dataset.ReadCSV(f, schema)
	if err != nil {
		return nil, err
	}
	if len(dc.Drop) > 0 {
		if ds, err = ds.DropColumns(dc.Drop...); err != nil {
			return nil, err
		}
	}

	read := ds.Len()
	ds = ds.DropMissing()
	if dropped := read - ds.Len(); dropped > 0 {
		logger.Info("dropped incomplete records", "dropped", dropped, "kept", ds.Len())
	}
	if err := ds.Validate(); err != nil {
		return nil, err
	}
	return ds, nil
}

// evaluator builds an evaluator for one classifier with the configured
// preprocessing chain.
func (s *session) evaluator(cc classify.Config, keep bool) (*crossval.Evaluator, error) {
	step, err := preprocess.FromNames(s.cfg.Preprocess.Steps)
	if err != nil {
		return nil, err
	}
	classifier, err := classify.FromConfig(cc)
	if err != nil {
		return nil, err
	}
	return crossval.NewEvaluator(step, classifier, crossval.Options{
		Positive:        s.cfg.Data.Positive,
		Parallelism:     s.cfg.CV.Parallelism,
		KeepPredictions: keep,
	}, s.logger)
}

// crossValidate runs the configured model over k folds.
func (s *session) crossValidate(ctx context.Context, ds *dataset.Dataset, keep bool) (*report.Report, error) {
	ev, err := s.evaluator(s.cfg.Model, keep)
	if err != nil {
		return nil, err
	}
	res, err := ev.CrossValidate(ctx, ds, s.cfg.CV.Folds, s.cfg.CV.Seed)
	if err != nil {
		return nil, err
	}
	return report.NewCV(s.datasetName(), res), nil
}

// holdout fits the model on a stratified training share and scores the
// rest.
func (s *session) holdout(ctx context.Context, ds *dataset.Dataset) (*report.Report, error) {
	train, test, err := dataset.Split(ds, s.cfg.CV.Holdout, s.cfg.CV.Seed)
	if err != nil {
		return nil, err
	}
	ev, err := s.evaluator(s.cfg.Model, false)
	if err != nil {
		return nil, err
	}
	res, err := ev.Holdout(ctx, train, test)
	if err != nil {
		return nil, err
	}
	return report.NewHoldout(s.datasetName(), res), nil
}

// compare evaluates the model and the baseline on one partition and tests
// the difference in fold accuracy.
func (s *session) compare(ctx context.Context, ds *dataset.Dataset) (*report.Report, error) {
	a, err := crossval.Partition(ds.Len(), s.cfg.CV.Folds, s.cfg.CV.Seed)
	if err != nil {
		return nil, err
	}

	results := make([]*crossval.Result, 2)
	for i, cc := range []classify.Config{s.cfg.Model, s.cfg.Baseline} {
		ev, err := s.evaluator(cc, false)
		if err != nil {
			return nil, err
		}
		if results[i], err = ev.Run(ctx, ds, a); err != nil {
			return nil, err
		}
	}

	cmp, err := crossval.Compare(results[0], results[1], s.cfg.CV.Alpha)
	if err != nil {
		return nil, err
	}
	return report.NewCompare(s.datasetName(), results[0], results[1], cmp), nil
}

// openStore opens the configured run store.
func (s *session) openStore() (*runstore.Store, error) {
	if s.cfg.Output.StoreDir == "" {
		return nil, fmt.Errorf("output.store_dir is not configured")
	}
	sc := runstore.DefaultConfig(config.ExpandHome(s.cfg.Output.StoreDir))
	sc.Logger = s.logger
	return runstore.Open(sc)
}

// sinks builds the enabled publishers.
func (s *session) sinks(ctx context.Context) (sink.Multi, error) {
	var sinks sink.Multi
	oc := s.cfg.Output
	if oc.ReportDir != "" {
		sinks = append(sinks, &sink.File{Dir: config.ExpandHome(oc.ReportDir)})
		if oc.Charts {
			sinks = append(sinks, &sink.Chart{Dir: config.ExpandHome(oc.ReportDir)})
		}
	}
	if oc.GCS.Enabled {
		g, err := sink.NewGCS(ctx, oc.GCS.Bucket, oc.GCS.Prefix, config.ExpandHome(oc.GCS.CredentialsFile))
		if err != nil {
			_ = sinks.Close()
			return nil, err
		}
		sinks = append(sinks, g)
	}
	if oc.Influx.Enabled {
		sinks = append(sinks, sink.NewInflux(oc.Influx.URL, oc.Influx.Token, oc.Influx.Org, oc.Influx.Bucket))
	}
	return sinks, nil
}

// persist saves rep to the run store and publishes it. Publishing failures
// are logged; the report is already stored and rendered.
func (s *session) persist(ctx context.Context, rep *report.Report) error {
	store, err := s.openStore()
	if err != nil {
		return err
	}
	if err := store.Save(rep); err != nil {
		_ = store.Close()
		return err
	}
	if err := store.Close(); err != nil {
		return err
	}
	s.logger.Debug("report stored", "report_id", rep.ID, "kind", string(rep.Kind))

	sinks, err := s.sinks(ctx)
	if err != nil {
		s.logger.Warn("report not published", "report_id", rep.ID, "error", err)
		return nil
	}
	defer sinks.Close()
	if err := sinks.Publish(ctx, rep); err != nil {
		s.logger.Warn("report publishing failed", "report_id", rep.ID, "error", err)
	}
	return nil
}
