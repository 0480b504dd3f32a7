// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package classify

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// Threshold is a one-feature decision stump. Fit orders the two classes by
// their mean on the chosen feature and places the cut halfway between the
// largest value of the lower class and the smallest value of the upper
// class. Rows at or above the cut get the upper class.
type Threshold struct {
	// Feature is the column index to split on.
	Feature int
}

// Name returns "threshold".
func (t *Threshold) Name() string { return "threshold" }

// Fit learns the cut.
func (t *Threshold) Fit(x *mat.Dense, y []string) (Model, error) {
	levels, err := binaryLevels(x, y)
	if err != nil {
		return nil, err
	}
	_, p := x.Dims()
	if t.Feature < 0 || t.Feature >= p {
		return nil, fmt.Errorf("%w: feature %d of %d", ErrFeatureCount, t.Feature, p)
	}
	if len(levels) == 1 {
		return constant(levels[0]), nil
	}

	col := mat.Col(nil, t.Feature, x)
	var a, b []float64
	for i, v := range col {
		if y[i] == levels[0] {
			a = append(a, v)
		} else {
			b = append(b, v)
		}
	}

	lower, upper := levels[0], levels[1]
	low, high := a, b
	if stat.Mean(a, nil) > stat.Mean(b, nil) {
		lower, upper = upper, lower
		low, high = b, a
	}

	maxLow := math.Inf(-1)
	for _, v := range low {
		maxLow = math.Max(maxLow, v)
	}
	minHigh := math.Inf(1)
	for _, v := range high {
		minHigh = math.Min(minHigh, v)
	}

	return &thresholdModel{
		feature: t.Feature,
		width:   p,
		cut:     (maxLow + minHigh) / 2,
		lower:   lower,
		upper:   upper,
	}, nil
}

type thresholdModel struct {
	feature int
	width   int
	cut     float64
	lower   string
	upper   string
}

func (m *thresholdModel) Predict(x *mat.Dense) ([]string, error) {
	if err := checkColumns(x, m.width); err != nil {
		return nil, err
	}
	col := mat.Col(nil, m.feature, x)
	out := make([]string, len(col))
	for i, v := range col {
		if v >= m.cut {
			out[i] = m.upper
		} else {
			out[i] = m.lower
		}
	}
	return out, nil
}
