// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package preprocess provides fit/apply transforms for predictor columns.
//
// Every Step learns its statistics from one dataset in Fit and returns a
// Transform holding that fitted state. Apply never re-derives statistics
// from the data it is given, so a transform fitted on an analysis set can
// be applied to the matching assessment set without leakage.
//
// Steps compose with Chain:
//
//	step := preprocess.Chain(
//	    preprocess.ZeroVariance(),
//	    preprocess.Normalize(),
//	    preprocess.Dummy(),
//	)
//	tf, prepared, err := preprocess.Prepare(step, analysis)
//	assessed, err := tf.Apply(assessment)
//
// The outcome column is never touched by any step.
package preprocess

import (
	"errors"
	"fmt"
	"strings"

	"github.com/AleutianAI/churneval/pkg/dataset"
)

// -----------------------------------------------------------------------------
// Errors
// -----------------------------------------------------------------------------

var (
	// ErrEmpty is returned when a step is fitted on, or a matrix is built
	// from, a dataset with no rows.
	ErrEmpty = errors.New("dataset has no rows")

	// ErrNotNumeric is returned by Matrix when a predictor is categorical.
	ErrNotNumeric = errors.New("predictor is not numeric")

	// ErrMissingValue is returned by Matrix when a predictor cell is missing.
	ErrMissingValue = errors.New("predictor has missing value")

	// ErrNoPredictors is returned by Matrix when only the outcome remains.
	ErrNoPredictors = errors.New("no predictor columns")

	// ErrColumnMismatch is returned when Apply receives a dataset lacking a
	// column the transform was fitted on.
	ErrColumnMismatch = errors.New("column missing at apply time")

	// ErrUnknownStep is returned by FromNames for an unrecognised name.
	ErrUnknownStep = errors.New("unknown preprocessing step")
)

// -----------------------------------------------------------------------------
// Core Interfaces
// -----------------------------------------------------------------------------

// Step is an unfitted preprocessing operation.
type Step interface {
	// Name identifies the step in logs and configuration.
	Name() string

	// Fit learns the step's statistics from ds and returns the fitted
	// transform. ds is not modified.
	Fit(ds *dataset.Dataset) (Transform, error)
}

// Transform applies fitted state to a dataset, returning a new one.
type Transform interface {
	Apply(ds *dataset.Dataset) (*dataset.Dataset, error)
}

// Prepare fits step on ds and applies the result to ds.
func Prepare(step Step, ds *dataset.Dataset) (Transform, *dataset.Dataset, error) {
	if ds.Len() == 0 {
		return nil, nil, fmt.Errorf("%s: %w", step.Name(), ErrEmpty)
	}
	tf, err := step.Fit(ds)
	if err != nil {
		return nil, nil, fmt.Errorf("fit %s: %w", step.Name(), err)
	}
	out, err := tf.Apply(ds)
	if err != nil {
		return nil, nil, fmt.Errorf("apply %s: %w", step.Name(), err)
	}
	return tf, out, nil
}

// -----------------------------------------------------------------------------
// Composition
// -----------------------------------------------------------------------------

type chain struct {
	steps []Step
}

// Chain composes steps left to right. Each step is fitted on the output
// of the previous step's fitted transform.
func Chain(steps ...Step) Step {
	return &chain{steps: steps}
}

func (c *chain) Name() string {
	names := make([]string, len(c.steps))
	for i, s := range c.steps {
		names[i] = s.Name()
	}
	return "chain(" + strings.Join(names, ",") + ")"
}

func (c *chain) Fit(ds *dataset.Dataset) (Transform, error) {
	tfs := make(chainTransform, 0, len(c.steps))
	cur := ds
	for _, s := range c.steps {
		tf, next, err := Prepare(s, cur)
		if err != nil {
			return nil, err
		}
		tfs = append(tfs, tf)
		cur = next
	}
	return tfs, nil
}

type chainTransform []Transform

func (c chainTransform) Apply(ds *dataset.Dataset) (*dataset.Dataset, error) {
	cur := ds
	for _, tf := range c {
		next, err := tf.Apply(cur)
		if err != nil {
			return nil, err
		}
		cur = next
	}
	return cur, nil
}

// -----------------------------------------------------------------------------
// Identity
// -----------------------------------------------------------------------------

type identity struct{}

// Identity returns a step whose transform returns its input unchanged.
func Identity() Step { return identity{} }

func (identity) Name() string { return "identity" }

func (identity) Fit(*dataset.Dataset) (Transform, error) { return identity{}, nil }

func (identity) Apply(ds *dataset.Dataset) (*dataset.Dataset, error) { return ds, nil }

// -----------------------------------------------------------------------------
// Configuration
// -----------------------------------------------------------------------------

// FromNames builds a chain from step names: "impute", "normalize",
// "dummy", "zero_variance". An empty list yields Identity.
func FromNames(names []string) (Step, error) {
	if len(names) == 0 {
		return Identity(), nil
	}
	steps := make([]Step, 0, len(names))
	for _, n := range names {
		switch strings.ToLower(n) {
		case "impute":
			steps = append(steps, Impute())
		case "normalize":
			steps = append(steps, Normalize())
		case "dummy":
			steps = append(steps, Dummy())
		case "zero_variance", "zv":
			steps = append(steps, ZeroVariance())
		default:
			return nil, fmt.Errorf("%w: %q", ErrUnknownStep, n)
		}
	}
	return Chain(steps...), nil
}

// rebuild creates a dataset with cols and one row per input row produced
// by fn.
func rebuild(src *dataset.Dataset, cols []dataset.Column, fn func(row []dataset.Value) []dataset.Value) (*dataset.Dataset, error) {
	out, err := dataset.New(cols, src.Outcome())
	if err != nil {
		return nil, err
	}
	for r := 0; r < src.Len(); r++ {
		if err := out.Append(fn(src.Row(r))); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// columnIndex maps column names to positions.
func columnIndex(cols []dataset.Column) map[string]int {
	idx := make(map[string]int, len(cols))
	for i, c := range cols {
		idx[c.Name] = i
	}
	return idx
}
