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

	"gonum.org/v1/gonum/mat"

	"github.com/AleutianAI/churneval/pkg/dataset"
)

// Matrix builds the design matrix of a prepared dataset: one row per
// record, one column per predictor in column order, booleans as 0/1.
// It also returns the predictor names.
//
// Categorical or missing predictors are an error; run Dummy and drop
// incomplete rows first.
func Matrix(ds *dataset.Dataset) (*mat.Dense, []string, error) {
	preds := ds.Predictors()
	if len(preds) == 0 {
		return nil, nil, ErrNoPredictors
	}
	if ds.Len() == 0 {
		return nil, nil, ErrEmpty
	}

	names := make([]string, len(preds))
	x := mat.NewDense(ds.Len(), len(preds), nil)
	for j, c := range preds {
		if c.Kind == dataset.Categorical {
			return nil, nil, fmt.Errorf("%w: %s", ErrNotNumeric, c.Name)
		}
		names[j] = c.Name
		for r := 0; r < ds.Len(); r++ {
			v, _ := ds.Value(r, c.Name)
			if v.Missing {
				return nil, nil, fmt.Errorf("%w: %s row %d", ErrMissingValue, c.Name, r)
			}
			if c.Kind == dataset.Boolean {
				if v.Bool {
					x.Set(r, j, 1)
				}
				continue
			}
			x.Set(r, j, v.Num)
		}
	}
	return x, names, nil
}
