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
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func resultWith(model string, accs ...float64) *Result {
	r := &Result{Model: model, K: len(accs), Seed: 1, Rows: 100}
	for i, a := range accs {
		r.Folds = append(r.Folds, FoldMetrics{Fold: i, Metrics: Metrics{Accuracy: a, Precision: a / 2}})
	}
	return r
}

func TestSummarize(t *testing.T) {
	s := resultWith("m", 0.5, 1.0).Summarize()

	assert.InDelta(t, 0.75, s.Accuracy.Mean, 1e-12)
	assert.InDelta(t, math.Sqrt(0.125), s.Accuracy.StdDev, 1e-12)
	assert.InDelta(t, 0.375, s.Precision.Mean, 1e-12)
	assert.Equal(t, Spread{}, s.Recall)

	single := resultWith("m", 0.9).Summarize()
	assert.Equal(t, 0.0, single.Accuracy.StdDev)
	assert.InDelta(t, 0.9, single.Accuracy.Mean, 1e-12)
}

func TestCompare_DetectsDifference(t *testing.T) {
	a := resultWith("forest", 0.80, 0.82, 0.78, 0.81)
	b := resultWith("majority", 0.70, 0.72, 0.69, 0.71)

	c, err := Compare(a, b, 0.05)
	require.NoError(t, err)

	assert.Equal(t, "forest", c.ModelA)
	assert.Equal(t, "majority", c.ModelB)
	assert.InDelta(t, 0.8025, c.MeanA, 1e-12)
	assert.InDelta(t, 0.705, c.MeanB, 1e-12)
	assert.Greater(t, c.TStatistic, 0.0)
	assert.Less(t, c.PValue, 0.001)
	assert.True(t, c.Significant)
	assert.Greater(t, c.DegreesOfFreedom, 1.0)
}

func TestCompare_IdenticalRuns(t *testing.T) {
	a := resultWith("a", 0.7, 0.8, 0.75)
	b := resultWith("b", 0.7, 0.8, 0.75)

	c, err := Compare(a, b, 0.05)
	require.NoError(t, err)
	assert.InDelta(t, 0.0, c.TStatistic, 1e-12)
	assert.InDelta(t, 1.0, c.PValue, 1e-9)
	assert.False(t, c.Significant)
}

func TestCompare_Errors(t *testing.T) {
	a := resultWith("a", 0.7, 0.8)

	_, err := Compare(a, nil, 0.05)
	assert.ErrorIs(t, err, ErrInvalidConfiguration)

	_, err = Compare(a, a, 1.5)
	assert.ErrorIs(t, err, ErrInvalidConfiguration)

	other := resultWith("b", 0.7, 0.8)
	other.Seed = 2
	_, err = Compare(a, other, 0.05)
	assert.ErrorIs(t, err, ErrInvalidConfiguration)

	_, err = Compare(resultWith("a", 0.7), resultWith("b", 0.8), 0.05)
	assert.ErrorIs(t, err, ErrInsufficientSamples)

	_, err = Compare(resultWith("a", 0.7, 0.7), resultWith("b", 0.8, 0.8), 0.05)
	assert.ErrorIs(t, err, ErrZeroVariance)
}
