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
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel"
)

var tracer = otel.Tracer("churneval.crossval")

// =============================================================================
// Prometheus Metrics for Cross-Validation
// =============================================================================

var (
	// runDuration measures wall time of a whole evaluation run.
	// Labels: model, status (success, error)
	runDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "churneval",
		Subsystem: "crossval",
		Name:      "run_duration_seconds",
		Help:      "Cross-validation run duration in seconds",
		Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10, 30, 60, 120},
	}, []string{"model", "status"})

	// foldDuration measures one fold's preprocess, fit and predict time.
	// Labels: model
	foldDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "churneval",
		Subsystem: "crossval",
		Name:      "fold_duration_seconds",
		Help:      "Single fold duration in seconds",
		Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30},
	}, []string{"model"})

	// foldFailures counts aborted folds.
	// Labels: model, stage (partition, preprocess, fit, predict)
	foldFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "churneval",
		Subsystem: "crossval",
		Name:      "fold_failures_total",
		Help:      "Total folds that aborted a run, by stage",
	}, []string{"model", "stage"})

	// predictionsTotal counts held-out predictions.
	// Labels: model
	predictionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "churneval",
		Subsystem: "crossval",
		Name:      "predictions_total",
		Help:      "Total held-out predictions made",
	}, []string{"model"})

	// accuracy tracks the accuracy of the latest successful run.
	// Labels: model
	accuracy = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "churneval",
		Subsystem: "crossval",
		Name:      "accuracy",
		Help:      "Accuracy of the most recent run",
	}, []string{"model"})
)

// =============================================================================
// Recording Helpers
// =============================================================================

// RecordRun records a finished run.
func RecordRun(model string, d time.Duration, err error, acc float64) {
	status := "success"
	if err != nil {
		status = "error"
	}
	runDuration.WithLabelValues(model, status).Observe(d.Seconds())
	if err == nil {
		accuracy.WithLabelValues(model).Set(acc)
	}
}

// RecordFold records a completed fold.
func RecordFold(model string, d time.Duration, predictions int) {
	foldDuration.WithLabelValues(model).Observe(d.Seconds())
	predictionsTotal.WithLabelValues(model).Add(float64(predictions))
}

// RecordFoldFailure records a fold that aborted its run.
func RecordFoldFailure(model string, stage Stage) {
	foldFailures.WithLabelValues(model, string(stage)).Inc()
}
