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
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/AleutianAI/churneval/pkg/dataset"
)

// -----------------------------------------------------------------------------
// DropColumns
// -----------------------------------------------------------------------------

type dropColumns struct {
	names []string
}

// DropColumns removes the named predictors. Naming a column the fit
// dataset does not have is a fit error.
func DropColumns(names ...string) Step {
	return dropColumns{names: append([]string(nil), names...)}
}

func (dropColumns) Name() string { return "drop_columns" }

func (d dropColumns) Fit(ds *dataset.Dataset) (Transform, error) {
	for _, n := range d.names {
		if n == ds.Outcome() {
			return nil, fmt.Errorf("drop_columns: %w: %s", dataset.ErrOutcome, n)
		}
		if _, ok := ds.Column(n); !ok {
			return nil, fmt.Errorf("drop_columns: %w: %s", ErrColumnMismatch, n)
		}
	}
	return &DropFit{Drop: d.names}, nil
}

// DropFit is the fitted state of DropColumns.
type DropFit struct {
	Drop []string
}

// Apply removes the named columns.
func (f *DropFit) Apply(ds *dataset.Dataset) (*dataset.Dataset, error) {
	if len(f.Drop) == 0 {
		return ds, nil
	}
	out, err := ds.DropColumns(f.Drop...)
	if err != nil {
		return nil, fmt.Errorf("drop_columns: %w: %v", ErrColumnMismatch, err)
	}
	return out, nil
}

// -----------------------------------------------------------------------------
// Impute
// -----------------------------------------------------------------------------

type impute struct{}

// Impute fills missing predictor cells. Numeric columns take the median of
// the fit dataset, categorical and boolean columns take the most frequent
// value (ties to the lexically first). A column with no observed values
// is left as is.
func Impute() Step { return impute{} }

func (impute) Name() string { return "impute" }

func (impute) Fit(ds *dataset.Dataset) (Transform, error) {
	fit := &ImputeFit{Fill: make(map[string]dataset.Value)}
	for _, c := range ds.Predictors() {
		switch c.Kind {
		case dataset.Numeric:
			vals := observed(ds, c.Name)
			if len(vals) == 0 {
				continue
			}
			sort.Float64s(vals)
			fit.Fill[c.Name] = dataset.Num(stat.Quantile(0.5, stat.Empirical, vals, nil))
		default:
			counts := make(map[string]int)
			values := make(map[string]dataset.Value)
			for r := 0; r < ds.Len(); r++ {
				v, _ := ds.Value(r, c.Name)
				if v.Missing {
					continue
				}
				key := v.Format(c.Kind)
				counts[key]++
				values[key] = v
			}
			if len(counts) == 0 {
				continue
			}
			keys := make([]string, 0, len(counts))
			for k := range counts {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			mode := keys[0]
			for _, k := range keys[1:] {
				if counts[k] > counts[mode] {
					mode = k
				}
			}
			fit.Fill[c.Name] = values[mode]
		}
	}
	return fit, nil
}

// ImputeFit is the fitted state of Impute.
type ImputeFit struct {
	Fill map[string]dataset.Value
}

// Apply replaces missing cells of the fitted columns.
func (f *ImputeFit) Apply(ds *dataset.Dataset) (*dataset.Dataset, error) {
	cols := ds.Columns()
	idx := columnIndex(cols)
	for name := range f.Fill {
		if _, ok := idx[name]; !ok {
			return nil, fmt.Errorf("impute: %w: %s", ErrColumnMismatch, name)
		}
	}
	return rebuild(ds, cols, func(row []dataset.Value) []dataset.Value {
		for name, v := range f.Fill {
			if i := idx[name]; row[i].Missing {
				row[i] = v
			}
		}
		return row
	})
}
