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
	"errors"
	"fmt"
)

// -----------------------------------------------------------------------------
// Errors
// -----------------------------------------------------------------------------

var (
	// ErrInvalidConfiguration is returned before any fold work starts when
	// the fold count, assignment, dataset or positive label is unusable.
	ErrInvalidConfiguration = errors.New("invalid configuration")

	// ErrInsufficientData is returned when a fold's analysis partition is
	// empty.
	ErrInsufficientData = errors.New("insufficient data")

	// ErrClassifierFit wraps failures reported by the classifier during
	// fitting or prediction.
	ErrClassifierFit = errors.New("classifier failure")

	// ErrPreprocess wraps failures of the preprocessing step or of design
	// matrix construction.
	ErrPreprocess = errors.New("preprocessing failure")

	// ErrInsufficientSamples is returned by Compare when either result has
	// fewer than two folds.
	ErrInsufficientSamples = errors.New("insufficient samples for statistical analysis")

	// ErrZeroVariance is returned by Compare when both per-fold accuracy
	// series are constant.
	ErrZeroVariance = errors.New("sample set has zero variance")
)

// Stage names the part of a fold iteration that failed.
type Stage string

const (
	StagePartition  Stage = "partition"
	StagePreprocess Stage = "preprocess"
	StageFit        Stage = "fit"
	StagePredict    Stage = "predict"
)

// FoldError reports the fold and stage at which a run aborted. It unwraps
// to one of the package sentinels.
type FoldError struct {
	Fold  int
	Stage Stage
	Err   error
}

func (e *FoldError) Error() string {
	return fmt.Sprintf("fold %d: %s: %v", e.Fold, e.Stage, e.Err)
}

func (e *FoldError) Unwrap() error { return e.Err }
