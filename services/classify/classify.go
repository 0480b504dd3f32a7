// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package classify defines the trainable binary classifier contract used by
// the cross-validation evaluator, plus concrete classifiers.
//
// A Classifier is a factory: every call to Fit returns an independent
// Model, so one Classifier value can be shared by concurrently running
// folds. Labels are plain strings; each classifier maps them to its own
// internal encoding.
package classify

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"gonum.org/v1/gonum/mat"
)

// -----------------------------------------------------------------------------
// Errors
// -----------------------------------------------------------------------------

var (
	// ErrEmptyTraining is returned when Fit receives no rows.
	ErrEmptyTraining = errors.New("no training rows")

	// ErrLabelCount is returned when labels and rows disagree in length.
	ErrLabelCount = errors.New("label count does not match row count")

	// ErrTooManyClasses is returned when training labels hold more than two
	// distinct values.
	ErrTooManyClasses = errors.New("more than two classes")

	// ErrFeatureCount is returned when Predict receives a matrix whose
	// column count differs from the training matrix.
	ErrFeatureCount = errors.New("feature count mismatch")

	// ErrUnknownKind is returned by FromConfig for an unknown classifier.
	ErrUnknownKind = errors.New("unknown classifier kind")
)

// -----------------------------------------------------------------------------
// Core Interfaces
// -----------------------------------------------------------------------------

// Classifier trains binary models.
//
// Thread Safety: implementations must allow concurrent Fit calls.
type Classifier interface {
	// Name identifies the classifier in logs, metrics and reports.
	Name() string

	// Fit trains a new model on x (rows are records) and labels y.
	Fit(x *mat.Dense, y []string) (Model, error)
}

// Model is a fitted classifier.
type Model interface {
	// Predict returns one label per row of x.
	Predict(x *mat.Dense) ([]string, error)
}

// -----------------------------------------------------------------------------
// Configuration
// -----------------------------------------------------------------------------

// Config selects and parameterises a classifier.
type Config struct {
	// Kind is one of "logistic", "forest", "threshold", "majority".
	Kind string `yaml:"kind" validate:"required,oneof=logistic forest threshold majority"`

	// Penalty is the L2 penalty for logistic regression.
	Penalty float64 `yaml:"penalty" validate:"gte=0"`

	// MaxIterations bounds the logistic optimiser.
	MaxIterations int `yaml:"max_iterations" validate:"gte=0"`

	// Trees is the random forest size.
	Trees int `yaml:"trees" validate:"gte=0"`

	// Features is the number of features sampled per tree. Zero means
	// every feature.
	Features int `yaml:"features" validate:"gte=0"`

	// Feature is the column index used by the threshold classifier.
	Feature int `yaml:"feature" validate:"gte=0"`
}

// FromConfig builds the configured classifier. Zero-valued parameters take
// each classifier's defaults.
func FromConfig(cfg Config) (Classifier, error) {
	switch strings.ToLower(cfg.Kind) {
	case "logistic":
		return &Logistic{Penalty: cfg.Penalty, MaxIterations: cfg.MaxIterations}, nil
	case "forest":
		return &Forest{Trees: cfg.Trees, Features: cfg.Features}, nil
	case "threshold":
		return &Threshold{Feature: cfg.Feature}, nil
	case "majority":
		return Majority{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, cfg.Kind)
	}
}

// -----------------------------------------------------------------------------
// Helpers
// -----------------------------------------------------------------------------

// binaryLevels validates training input and returns the sorted distinct
// labels. A single-class training set returns one level.
func binaryLevels(x *mat.Dense, y []string) ([]string, error) {
	if x == nil || len(y) == 0 {
		return nil, ErrEmptyTraining
	}
	rows, _ := x.Dims()
	if rows != len(y) {
		return nil, fmt.Errorf("%w: %d rows, %d labels", ErrLabelCount, rows, len(y))
	}
	seen := make(map[string]struct{}, 2)
	for _, l := range y {
		seen[l] = struct{}{}
	}
	if len(seen) > 2 {
		return nil, fmt.Errorf("%w: %d", ErrTooManyClasses, len(seen))
	}
	levels := make([]string, 0, len(seen))
	for l := range seen {
		levels = append(levels, l)
	}
	sort.Strings(levels)
	return levels, nil
}

func checkColumns(x *mat.Dense, want int) error {
	_, c := x.Dims()
	if c != want {
		return fmt.Errorf("%w: got %d, want %d", ErrFeatureCount, c, want)
	}
	return nil
}

// constant predicts one label for every row.
type constant string

func (c constant) Predict(x *mat.Dense) ([]string, error) {
	rows, _ := x.Dims()
	out := make([]string, rows)
	for i := range out {
		out[i] = string(c)
	}
	return out, nil
}

// -----------------------------------------------------------------------------
// Majority
// -----------------------------------------------------------------------------

// Majority predicts the most frequent training label. Ties go to the
// lexically first label. It is the baseline every other model must beat.
type Majority struct{}

// Name returns "majority".
func (Majority) Name() string { return "majority" }

// Fit counts labels.
func (Majority) Fit(x *mat.Dense, y []string) (Model, error) {
	levels, err := binaryLevels(x, y)
	if err != nil {
		return nil, err
	}
	counts := make(map[string]int, 2)
	for _, l := range y {
		counts[l]++
	}
	best := levels[0]
	for _, l := range levels[1:] {
		if counts[l] > counts[best] {
			best = l
		}
	}
	return constant(best), nil
}
