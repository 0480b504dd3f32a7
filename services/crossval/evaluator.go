// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package crossval evaluates a pluggable binary classifier with k-fold
// cross-validation.
//
// A run partitions the records into k folds, then for every fold fits the
// preprocessing step and a fresh model on the other k-1 folds and predicts
// the held-out fold. The held-out predictions of all folds are reduced to
// one confusion matrix and its metrics. Folds share no mutable state and
// run concurrently; any fold failure cancels the others and the run
// returns no metrics.
package crossval

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"slices"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/AleutianAI/churneval/pkg/dataset"
	"github.com/AleutianAI/churneval/services/classify"
	"github.com/AleutianAI/churneval/services/preprocess"
)

// Options tune an Evaluator.
type Options struct {
	// Positive is the outcome label counted as the positive class. Empty
	// means the lexically last outcome level.
	Positive string

	// Parallelism bounds concurrently running folds. Zero or negative
	// means GOMAXPROCS.
	Parallelism int

	// KeepPredictions retains the per-row predictions in the Result.
	KeepPredictions bool
}

// Evaluator runs cross-validation for one preprocessing step and one
// classifier.
//
// Thread Safety: safe for concurrent use; every Run allocates its own
// transforms and models.
type Evaluator struct {
	step       preprocess.Step
	classifier classify.Classifier
	opts       Options
	logger     *slog.Logger
}

// NewEvaluator creates an evaluator.
//
// Inputs:
//   - step: Preprocessing step. Nil means preprocess.Identity().
//   - classifier: Classifier factory. Must not be nil.
//   - opts: Run options.
//   - logger: Logger for run logs. If nil, uses slog.Default().
//
// Outputs:
//   - *Evaluator: The configured evaluator.
//   - error: ErrInvalidConfiguration if classifier is nil.
func NewEvaluator(step preprocess.Step, classifier classify.Classifier, opts Options, logger *slog.Logger) (*Evaluator, error) {
	if classifier == nil {
		return nil, fmt.Errorf("%w: nil classifier", ErrInvalidConfiguration)
	}
	if step == nil {
		step = preprocess.Identity()
	}
	if logger == nil {
		logger = slog.Default()
	}
	if opts.Parallelism <= 0 {
		opts.Parallelism = runtime.GOMAXPROCS(0)
	}
	return &Evaluator{step: step, classifier: classifier, opts: opts, logger: logger}, nil
}

// Result is the outcome of a cross-validation run.
type Result struct {
	RunID      string          `json:"run_id"`
	Model      string          `json:"model"`
	Preprocess string          `json:"preprocess"`
	K          int             `json:"k"`
	Seed       uint64          `json:"seed"`
	Rows       int             `json:"rows"`
	Positive   string          `json:"positive"`
	Confusion  ConfusionMatrix `json:"confusion"`
	Metrics    Metrics         `json:"metrics"`
	Folds      []FoldMetrics   `json:"folds"`
	StartedAt  time.Time       `json:"started_at"`
	Duration   time.Duration   `json:"duration"`

	// Predictions is populated when Options.KeepPredictions is set,
	// ordered by fold id and then by row.
	Predictions []Prediction `json:"predictions,omitempty"`
}

// FoldMetrics are the scores of one fold's held-out rows.
type FoldMetrics struct {
	Fold         int             `json:"fold"`
	AnalysisRows int             `json:"analysis_rows"`
	AssessedRows int             `json:"assessed_rows"`
	Confusion    ConfusionMatrix `json:"confusion"`
	Metrics      Metrics         `json:"metrics"`
	Duration     time.Duration   `json:"duration"`
}

// foldOutput is what one fold goroutine writes into its own slot.
type foldOutput struct {
	predictions []Prediction
	metrics     FoldMetrics
}

// Run cross-validates the classifier over ds using the given assignment.
//
// Description:
//
//	Configuration is checked before any fold starts: the dataset must hold
//	a binary outcome without missing values, the assignment must cover
//	exactly ds.Len() records, and the positive label must be one of the
//	outcome levels. Folds then run concurrently, at most
//	Options.Parallelism at a time. The first failing fold cancels its
//	siblings and Run returns its *FoldError.
//
// Inputs:
//   - ctx: Context for cancellation. Must not be nil.
//   - ds: The labeled dataset. Not modified.
//   - a: Fold assignment, usually from Partition.
//
// Outputs:
//   - *Result: Pooled and per-fold metrics. Nil on error.
//   - error: ErrInvalidConfiguration, a *FoldError, or the context error.
func (e *Evaluator) Run(ctx context.Context, ds *dataset.Dataset, a Assignment) (*Result, error) {
	if ctx == nil {
		return nil, fmt.Errorf("%w: nil context", ErrInvalidConfiguration)
	}
	positive, err := e.checkInput(ds)
	if err != nil {
		return nil, err
	}
	if a.Len() != ds.Len() {
		return nil, fmt.Errorf("%w: assignment covers %d records, dataset has %d", ErrInvalidConfiguration, a.Len(), ds.Len())
	}

	model := e.classifier.Name()
	runID := uuid.NewString()
	start := time.Now()

	ctx, span := tracer.Start(ctx, "crossval.Run",
		trace.WithAttributes(
			attribute.String("crossval.run_id", runID),
			attribute.String("crossval.model", model),
			attribute.Int("crossval.k", a.K()),
			attribute.Int("crossval.rows", ds.Len()),
		),
	)
	defer span.End()

	e.logger.Info("cross-validation started",
		slog.String("run_id", runID),
		slog.String("model", model),
		slog.String("preprocess", e.step.Name()),
		slog.Int("folds", a.K()),
		slog.Int("rows", ds.Len()),
		slog.Int("parallelism", e.opts.Parallelism),
	)

	slots := make([]foldOutput, a.K())
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.opts.Parallelism)
	for f := 0; f < a.K(); f++ {
		f := f
		g.Go(func() error {
			out, err := e.runFold(gctx, ds, a, f, positive)
			if err != nil {
				return err
			}
			slots[f] = out
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		duration := time.Since(start)
		RecordRun(model, duration, err, 0)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())

		attrs := []any{
			slog.String("run_id", runID),
			slog.Duration("duration", duration),
			slog.String("error", err.Error()),
		}
		var fe *FoldError
		if errors.As(err, &fe) {
			RecordFoldFailure(model, fe.Stage)
			attrs = append(attrs, slog.Int("fold", fe.Fold), slog.String("stage", string(fe.Stage)))
		}
		e.logger.Error("cross-validation failed", attrs...)
		return nil, err
	}

	result := &Result{
		RunID:      runID,
		Model:      model,
		Preprocess: e.step.Name(),
		K:          a.K(),
		Seed:       a.Seed(),
		Rows:       ds.Len(),
		Positive:   positive,
		Folds:      make([]FoldMetrics, a.K()),
		StartedAt:  start,
	}
	var all []Prediction
	for f, out := range slots {
		result.Folds[f] = out.metrics
		all = append(all, out.predictions...)
	}
	// The pooled matrix comes from the accumulated records, not fold sums.
	result.Confusion = Confusion(all, positive)
	result.Metrics = result.Confusion.Metrics()
	if e.opts.KeepPredictions {
		result.Predictions = all
	}
	result.Duration = time.Since(start)

	RecordRun(model, result.Duration, nil, result.Metrics.Accuracy)
	span.SetAttributes(attribute.Float64("crossval.accuracy", result.Metrics.Accuracy))
	span.SetStatus(codes.Ok, "")

	e.logger.Info("cross-validation completed",
		slog.String("run_id", runID),
		slog.Duration("duration", result.Duration),
		slog.Float64("accuracy", result.Metrics.Accuracy),
		slog.Float64("f1", result.Metrics.F1),
	)
	return result, nil
}

// CrossValidate partitions ds into k folds with seed and runs them.
func (e *Evaluator) CrossValidate(ctx context.Context, ds *dataset.Dataset, k int, seed uint64) (*Result, error) {
	if ds == nil {
		return nil, fmt.Errorf("%w: nil dataset", ErrInvalidConfiguration)
	}
	a, err := Partition(ds.Len(), k, seed)
	if err != nil {
		return nil, err
	}
	return e.Run(ctx, ds, a)
}

// runFold evaluates fold f. The transform and model it creates are local
// to this call.
func (e *Evaluator) runFold(ctx context.Context, ds *dataset.Dataset, a Assignment, f int, positive string) (foldOutput, error) {
	model := e.classifier.Name()
	analysisIdx, assessmentIdx := a.Split(f)

	ctx, span := tracer.Start(ctx, "crossval.Fold",
		trace.WithAttributes(
			attribute.Int("crossval.fold", f),
			attribute.Int("crossval.analysis_rows", len(analysisIdx)),
			attribute.Int("crossval.assessment_rows", len(assessmentIdx)),
		),
	)
	defer span.End()

	fail := func(stage Stage, err error) (foldOutput, error) {
		fe := &FoldError{Fold: f, Stage: stage, Err: err}
		span.RecordError(fe)
		span.SetStatus(codes.Error, fe.Error())
		return foldOutput{}, fe
	}

	if err := ctx.Err(); err != nil {
		return foldOutput{}, err
	}
	if len(analysisIdx) == 0 {
		return fail(StagePartition, fmt.Errorf("%w: analysis partition is empty", ErrInsufficientData))
	}

	start := time.Now()
	out := foldOutput{metrics: FoldMetrics{Fold: f, AnalysisRows: len(analysisIdx), AssessedRows: len(assessmentIdx)}}
	if len(assessmentIdx) > 0 {
		truth, predicted, stage, err := e.fitPredict(ctx, ds.Subset(analysisIdx), ds.Subset(assessmentIdx))
		if err != nil {
			return fail(stage, err)
		}
		out.predictions = make([]Prediction, len(assessmentIdx))
		for i, row := range assessmentIdx {
			out.predictions[i] = Prediction{Fold: f, Row: row, Truth: truth[i], Predicted: predicted[i]}
		}
	}
	out.metrics.Confusion = Confusion(out.predictions, positive)
	out.metrics.Metrics = out.metrics.Confusion.Metrics()
	out.metrics.Duration = time.Since(start)

	RecordFold(model, out.metrics.Duration, len(out.predictions))
	span.SetStatus(codes.Ok, "")
	e.logger.Debug("fold completed",
		slog.Int("fold", f),
		slog.Int("rows", len(assessmentIdx)),
		slog.Float64("accuracy", out.metrics.Metrics.Accuracy),
		slog.Duration("duration", out.metrics.Duration),
	)
	return out, nil
}

// fitPredict fits the step and a fresh model on analysis and predicts
// assessment. On failure it reports the stage and an error wrapping
// ErrPreprocess or ErrClassifierFit.
func (e *Evaluator) fitPredict(ctx context.Context, analysis, assessment *dataset.Dataset) (truth, predicted []string, stage Stage, err error) {
	tf, prepared, err := preprocess.Prepare(e.step, analysis)
	if err != nil {
		return nil, nil, StagePreprocess, fmt.Errorf("%w: %w", ErrPreprocess, err)
	}
	assessed, err := tf.Apply(assessment)
	if err != nil {
		return nil, nil, StagePreprocess, fmt.Errorf("%w: %w", ErrPreprocess, err)
	}
	xTrain, trainNames, err := preprocess.Matrix(prepared)
	if err != nil {
		return nil, nil, StagePreprocess, fmt.Errorf("%w: analysis matrix: %w", ErrPreprocess, err)
	}
	xTest, testNames, err := preprocess.Matrix(assessed)
	if err != nil {
		return nil, nil, StagePreprocess, fmt.Errorf("%w: assessment matrix: %w", ErrPreprocess, err)
	}
	if !slices.Equal(trainNames, testNames) {
		return nil, nil, StagePreprocess, fmt.Errorf("%w: feature columns differ between analysis and assessment", ErrPreprocess)
	}

	if err := ctx.Err(); err != nil {
		return nil, nil, StageFit, err
	}
	m, err := e.classifier.Fit(xTrain, prepared.Labels())
	if err != nil {
		return nil, nil, StageFit, fmt.Errorf("%w: %w", ErrClassifierFit, err)
	}
	predicted, err = m.Predict(xTest)
	if err != nil {
		return nil, nil, StagePredict, fmt.Errorf("%w: %w", ErrClassifierFit, err)
	}
	if len(predicted) != assessment.Len() {
		return nil, nil, StagePredict, fmt.Errorf("%w: %d predictions for %d rows", ErrClassifierFit, len(predicted), assessment.Len())
	}
	return assessed.Labels(), predicted, "", nil
}

// checkInput validates ds and resolves the positive label.
func (e *Evaluator) checkInput(ds *dataset.Dataset) (string, error) {
	if ds == nil {
		return "", fmt.Errorf("%w: nil dataset", ErrInvalidConfiguration)
	}
	if err := ds.Validate(); err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidConfiguration, err)
	}
	levels, err := ds.Levels(ds.Outcome())
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidConfiguration, err)
	}
	if e.opts.Positive == "" {
		return levels[len(levels)-1], nil
	}
	if !slices.Contains(levels, e.opts.Positive) {
		return "", fmt.Errorf("%w: positive label %q not in outcome levels %v", ErrInvalidConfiguration, e.opts.Positive, levels)
	}
	return e.opts.Positive, nil
}
