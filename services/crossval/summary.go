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
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// -----------------------------------------------------------------------------
// Per-fold Summary
// -----------------------------------------------------------------------------

// Spread is the mean and sample standard deviation of one metric across
// folds.
type Spread struct {
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"std_dev"`
}

// Summary spreads every metric across the folds of a run.
type Summary struct {
	Accuracy  Spread `json:"accuracy"`
	Precision Spread `json:"precision"`
	Recall    Spread `json:"recall"`
	F1        Spread `json:"f1"`
}

// Summarize returns the fold-to-fold spread of each metric. With a single
// fold the standard deviation is 0.
func (r *Result) Summarize() Summary {
	pick := func(get func(Metrics) float64) Spread {
		vals := make([]float64, len(r.Folds))
		for i, f := range r.Folds {
			vals[i] = get(f.Metrics)
		}
		return spread(vals)
	}
	return Summary{
		Accuracy:  pick(func(m Metrics) float64 { return m.Accuracy }),
		Precision: pick(func(m Metrics) float64 { return m.Precision }),
		Recall:    pick(func(m Metrics) float64 { return m.Recall }),
		F1:        pick(func(m Metrics) float64 { return m.F1 }),
	}
}

// FoldAccuracies returns the accuracy of each fold in fold order.
func (r *Result) FoldAccuracies() []float64 {
	out := make([]float64, len(r.Folds))
	for i, f := range r.Folds {
		out[i] = f.Metrics.Accuracy
	}
	return out
}

func spread(vals []float64) Spread {
	if len(vals) == 0 {
		return Spread{}
	}
	mean, variance := stat.MeanVariance(vals, nil)
	if len(vals) < 2 || math.IsNaN(variance) {
		variance = 0
	}
	return Spread{Mean: mean, StdDev: math.Sqrt(variance)}
}

// -----------------------------------------------------------------------------
// Model Comparison
// -----------------------------------------------------------------------------

// Comparison is Welch's t-test on the per-fold accuracy of two runs.
type Comparison struct {
	ModelA string  `json:"model_a"`
	ModelB string  `json:"model_b"`
	MeanA  float64 `json:"mean_a"`
	MeanB  float64 `json:"mean_b"`

	// TStatistic is (MeanA - MeanB) over the Welch standard error.
	TStatistic float64 `json:"t_statistic"`

	// PValue is the two-tailed p-value.
	PValue float64 `json:"p_value"`

	// DegreesOfFreedom is the Welch-Satterthwaite df.
	DegreesOfFreedom float64 `json:"degrees_of_freedom"`

	// Significant is true if PValue < Alpha.
	Significant bool    `json:"significant"`
	Alpha       float64 `json:"alpha"`
}

// Compare tests whether two runs differ in per-fold accuracy. Both runs
// must come from the same fold assignment: equal k, seed and row count.
//
// Inputs:
//   - a, b: Cross-validation results. Must not be nil.
//   - alpha: Significance level in (0, 1), e.g. 0.05.
//
// Outputs:
//   - *Comparison: Test result.
//   - error: ErrInvalidConfiguration for mismatched runs or alpha,
//     ErrInsufficientSamples for fewer than two folds, ErrZeroVariance when
//     the standard error is zero.
func Compare(a, b *Result, alpha float64) (*Comparison, error) {
	if a == nil || b == nil {
		return nil, fmt.Errorf("%w: nil result", ErrInvalidConfiguration)
	}
	if alpha <= 0 || alpha >= 1 {
		return nil, fmt.Errorf("%w: alpha %v outside (0,1)", ErrInvalidConfiguration, alpha)
	}
	if a.K != b.K || a.Seed != b.Seed || a.Rows != b.Rows {
		return nil, fmt.Errorf("%w: runs use different folds (k %d/%d, seed %d/%d, rows %d/%d)",
			ErrInvalidConfiguration, a.K, b.K, a.Seed, b.Seed, a.Rows, b.Rows)
	}

	xa, xb := a.FoldAccuracies(), b.FoldAccuracies()
	if len(xa) < 2 || len(xb) < 2 {
		return nil, ErrInsufficientSamples
	}

	meanA, varA := stat.MeanVariance(xa, nil)
	meanB, varB := stat.MeanVariance(xb, nil)
	na, nb := float64(len(xa)), float64(len(xb))

	se := math.Sqrt(varA/na + varB/nb)
	if se == 0 {
		return nil, ErrZeroVariance
	}
	t := (meanA - meanB) / se

	num := math.Pow(varA/na+varB/nb, 2)
	denom := math.Pow(varA/na, 2)/(na-1) + math.Pow(varB/nb, 2)/(nb-1)
	if denom == 0 {
		return nil, ErrZeroVariance
	}
	df := num / denom

	dist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: df}
	p := 2 * dist.Survival(math.Abs(t))

	return &Comparison{
		ModelA:           a.Model,
		ModelB:           b.Model,
		MeanA:            meanA,
		MeanB:            meanB,
		TStatistic:       t,
		PValue:           p,
		DegreesOfFreedom: df,
		Significant:      p < alpha,
		Alpha:            alpha,
	}, nil
}
