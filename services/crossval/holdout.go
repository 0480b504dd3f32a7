// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package crossval

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/AleutianAI/churneval/pkg/dataset"
)

// HoldoutResult is the outcome of a single train/test evaluation.
type HoldoutResult struct {
	RunID      string          `json:"run_id"`
	Model      string          `json:"model"`
	Preprocess string          `json:"preprocess"`
	TrainRows  int             `json:"train_rows"`
	TestRows   int             `json:"test_rows"`
	Positive   string          `json:"positive"`
	Accuracy   float64         `json:"accuracy"`
	Confusion  ConfusionMatrix `json:"confusion"`
	Metrics    Metrics         `json:"metrics"`
	Duration   time.Duration   `json:"duration"`
}

// Holdout fits the step and classifier on train and scores test. It uses
// the same fit/predict path and confusion logic as a cross-validation
// fold.
func (e *Evaluator) Holdout(ctx context.Context, train, test *dataset.Dataset) (*HoldoutResult, error) {
	if ctx == nil {
		return nil, fmt.Errorf("%w: nil context", ErrInvalidConfiguration)
	}
	positive, err := e.checkInput(train)
	if err != nil {
		return nil, err
	}
	if test == nil || test.Len() == 0 {
		return nil, fmt.Errorf("%w: empty test set", ErrInsufficientData)
	}

	model := e.classifier.Name()
	runID := uuid.NewString()
	start := time.Now()

	ctx, span := tracer.Start(ctx, "crossval.Holdout",
		trace.WithAttributes(
			attribute.String("crossval.run_id", runID),
			attribute.String("crossval.model", model),
			attribute.Int("crossval.train_rows", train.Len()),
			attribute.Int("crossval.test_rows", test.Len()),
		),
	)
	defer span.End()

	truth, predicted, stage, err := e.fitPredict(ctx, train, test)
	if err != nil {
		RecordRun(model, time.Since(start), err, 0)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		e.logger.Error("holdout evaluation failed",
			slog.String("run_id", runID),
			slog.String("stage", string(stage)),
			slog.String("error", err.Error()),
		)
		return nil, err
	}

	cm, err := ConfusionOf(truth, predicted, positive)
	if err != nil {
		return nil, err
	}
	res := &HoldoutResult{
		RunID:      runID,
		Model:      model,
		Preprocess: e.step.Name(),
		TrainRows:  train.Len(),
		TestRows:   test.Len(),
		Positive:   positive,
		Confusion:  cm,
		Metrics:    cm.Metrics(),
		Duration:   time.Since(start),
	}
	res.Accuracy = res.Metrics.Accuracy

	RecordRun(model, res.Duration, nil, res.Accuracy)
	span.SetStatus(codes.Ok, "")
	e.logger.Info("holdout evaluation completed",
		slog.String("run_id", runID),
		slog.Float64("accuracy", res.Accuracy),
		slog.Duration("duration", res.Duration),
	)
	return res, nil
}
