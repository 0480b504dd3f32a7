// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package preprocess

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/AleutianAI/churneval/pkg/dataset"
)

// -----------------------------------------------------------------------------
// Normalize
// -----------------------------------------------------------------------------

type normalize struct{}

// Normalize centres and scales every numeric predictor to zero mean and
// unit sample standard deviation, using statistics from the fit dataset.
// Columns with fewer than two observed values or zero spread are only
// centred.
func Normalize() Step { return normalize{} }

func (normalize) Name() string { return "normalize" }

func (normalize) Fit(ds *dataset.Dataset) (Transform, error) {
	fit := &NormalizeFit{
		Means: make(map[string]float64),
		SDs:   make(map[string]float64),
	}
	for _, c := range ds.Predictors() {
		if c.Kind != dataset.Numeric {
			continue
		}
		vals := observed(ds, c.Name)
		mean, sd := 0.0, 1.0
		if len(vals) > 0 {
			mean = stat.Mean(vals, nil)
		}
		if len(vals) > 1 {
			if s := stat.StdDev(vals, nil); s > 0 && !math.IsNaN(s) {
				sd = s
			}
		}
		fit.Means[c.Name] = mean
		fit.SDs[c.Name] = sd
	}
	return fit, nil
}

// NormalizeFit is the fitted state of Normalize.
type NormalizeFit struct {
	Means map[string]float64
	SDs   map[string]float64
}

// Apply rescales the fitted columns of ds.
func (f *NormalizeFit) Apply(ds *dataset.Dataset) (*dataset.Dataset, error) {
	cols := ds.Columns()
	idx := columnIndex(cols)
	for name := range f.Means {
		if _, ok := idx[name]; !ok {
			return nil, fmt.Errorf("normalize: %w: %s", ErrColumnMismatch, name)
		}
	}
	return rebuild(ds, cols, func(row []dataset.Value) []dataset.Value {
		for name, mean := range f.Means {
			i := idx[name]
			if row[i].Missing {
				continue
			}
			row[i].Num = (row[i].Num - mean) / f.SDs[name]
		}
		return row
	})
}

// -----------------------------------------------------------------------------
// Dummy
// -----------------------------------------------------------------------------

type dummy struct{}

// Dummy replaces each categorical predictor with one 0/1 indicator column
// per level, dropping the first (reference) level. Levels are learned at
// fit time; a level unseen at fit encodes as all zeros.
func Dummy() Step { return dummy{} }

func (dummy) Name() string { return "dummy" }

func (dummy) Fit(ds *dataset.Dataset) (Transform, error) {
	fit := &DummyFit{Levels: make(map[string][]string)}
	for _, c := range ds.Predictors() {
		if c.Kind != dataset.Categorical {
			continue
		}
		levels, err := ds.Levels(c.Name)
		if err != nil {
			return nil, err
		}
		fit.Levels[c.Name] = levels
	}
	return fit, nil
}

// DummyFit is the fitted state of Dummy.
type DummyFit struct {
	// Levels holds the sorted levels seen at fit time per column.
	Levels map[string][]string
}

// IndicatorName returns the name of the indicator column for a level.
func IndicatorName(column, level string) string {
	return column + "_" + level
}

// Apply expands the fitted categorical columns into indicators.
func (f *DummyFit) Apply(ds *dataset.Dataset) (*dataset.Dataset, error) {
	in := ds.Columns()
	idx := columnIndex(in)
	for name := range f.Levels {
		if _, ok := idx[name]; !ok {
			return nil, fmt.Errorf("dummy: %w: %s", ErrColumnMismatch, name)
		}
	}

	var out []dataset.Column
	for _, c := range in {
		levels, encoded := f.Levels[c.Name]
		if !encoded {
			out = append(out, c)
			continue
		}
		for _, l := range levels[min(1, len(levels)):] {
			out = append(out, dataset.Column{Name: IndicatorName(c.Name, l), Kind: dataset.Numeric})
		}
	}

	return rebuild(ds, out, func(row []dataset.Value) []dataset.Value {
		next := make([]dataset.Value, 0, len(out))
		for i, c := range in {
			levels, encoded := f.Levels[c.Name]
			if !encoded {
				next = append(next, row[i])
				continue
			}
			for _, l := range levels[min(1, len(levels)):] {
				switch {
				case row[i].Missing:
					next = append(next, dataset.NA())
				case row[i].Str == l:
					next = append(next, dataset.Num(1))
				default:
					next = append(next, dataset.Num(0))
				}
			}
		}
		return next
	})
}

// -----------------------------------------------------------------------------
// ZeroVariance
// -----------------------------------------------------------------------------

type zeroVariance struct{}

// ZeroVariance removes predictors that hold a single distinct observed
// value in the fit dataset.
func ZeroVariance() Step { return zeroVariance{} }

func (zeroVariance) Name() string { return "zero_variance" }

func (zeroVariance) Fit(ds *dataset.Dataset) (Transform, error) {
	fit := &ZeroVarianceFit{}
	for _, c := range ds.Predictors() {
		levels, err := ds.Levels(c.Name)
		if err != nil {
			return nil, err
		}
		if len(levels) <= 1 {
			fit.Drop = append(fit.Drop, c.Name)
		}
	}
	sort.Strings(fit.Drop)
	return fit, nil
}

// ZeroVarianceFit is the fitted state of ZeroVariance.
type ZeroVarianceFit struct {
	Drop []string
}

// Apply removes the fitted columns.
func (f *ZeroVarianceFit) Apply(ds *dataset.Dataset) (*dataset.Dataset, error) {
	if len(f.Drop) == 0 {
		return ds, nil
	}
	out, err := ds.DropColumns(f.Drop...)
	if err != nil {
		return nil, fmt.Errorf("zero_variance: %w: %v", ErrColumnMismatch, err)
	}
	return out, nil
}

// observed returns the non-missing values of a numeric column.
func observed(ds *dataset.Dataset, name string) []float64 {
	vals := make([]float64, 0, ds.Len())
	for r := 0; r < ds.Len(); r++ {
		v, _ := ds.Value(r, name)
		if !v.Missing {
			vals = append(vals, v.Num)
		}
	}
	return vals
}
