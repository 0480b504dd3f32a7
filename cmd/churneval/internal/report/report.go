// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package report holds the evaluation report persisted and published by
// churneval, and renders it for the terminal.
package report

import (
	"time"

	"github.com/google/uuid"

	"github.com/AleutianAI/churneval/services/crossval"
)

// Kind is the command that produced a report.
type Kind string

const (
	KindCV      Kind = "cv"
	KindHoldout Kind = "holdout"
	KindCompare Kind = "compare"
)

// Report is one churneval invocation's outcome. CreatedAt is always UTC.
type Report struct {
	ID        string    `json:"id"`
	Kind      Kind      `json:"kind"`
	CreatedAt time.Time `json:"created_at"`
	Dataset   string    `json:"dataset"`

	// Runs holds one result for cv and two for compare.
	Runs       []*crossval.Result      `json:"runs,omitempty"`
	Holdout    *crossval.HoldoutResult `json:"holdout,omitempty"`
	Comparison *crossval.Comparison    `json:"comparison,omitempty"`
}

// NewCV wraps a cross-validation result.
func NewCV(dataset string, r *crossval.Result) *Report {
	return &Report{ID: r.RunID, Kind: KindCV, CreatedAt: r.StartedAt.UTC(), Dataset: dataset, Runs: []*crossval.Result{r}}
}

// NewHoldout wraps a single-split result.
func NewHoldout(dataset string, h *crossval.HoldoutResult) *Report {
	return &Report{ID: h.RunID, Kind: KindHoldout, CreatedAt: time.Now().UTC(), Dataset: dataset, Holdout: h}
}

// NewCompare wraps two runs on the same folds and their t-test.
func NewCompare(dataset string, a, b *crossval.Result, c *crossval.Comparison) *Report {
	return &Report{
		ID:         uuid.NewString(),
		Kind:       KindCompare,
		CreatedAt:  a.StartedAt.UTC(),
		Dataset:    dataset,
		Runs:       []*crossval.Result{a, b},
		Comparison: c,
	}
}

// Headline returns the model and accuracy that summarise the report. For
// compare it is the first model.
func (r *Report) Headline() (model string, accuracy float64) {
	switch {
	case r.Holdout != nil:
		return r.Holdout.Model, r.Holdout.Accuracy
	case len(r.Runs) > 0:
		return r.Runs[0].Model, r.Runs[0].Metrics.Accuracy
	default:
		return "", 0
	}
}
