// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package dataset

import (
	"errors"
	"fmt"
	"sort"

	"golang.org/x/exp/rand"
)

// ErrProportion is returned when a split proportion is outside (0, 1).
var ErrProportion = errors.New("split proportion must be in (0, 1)")

// Split divides the dataset into a training and a testing set, stratified
// by outcome level. Within each level, floor(prop*count) rows go to
// training after a seeded shuffle; the rest go to testing. Row order in
// both outputs follows the original order.
func Split(d *Dataset, prop float64, seed uint64) (train, test *Dataset, err error) {
	if prop <= 0 || prop >= 1 {
		return nil, nil, fmt.Errorf("%w: got %v", ErrProportion, prop)
	}

	strata := make(map[string][]int)
	for r, label := range d.Labels() {
		strata[label] = append(strata[label], r)
	}
	levels := make([]string, 0, len(strata))
	for l := range strata {
		levels = append(levels, l)
	}
	sort.Strings(levels)

	rng := rand.New(rand.NewSource(seed))
	var trainRows, testRows []int
	for _, l := range levels {
		rows := strata[l]
		rng.Shuffle(len(rows), func(i, j int) { rows[i], rows[j] = rows[j], rows[i] })
		cut := int(prop * float64(len(rows)))
		trainRows = append(trainRows, rows[:cut]...)
		testRows = append(testRows, rows[cut:]...)
	}
	sort.Ints(trainRows)
	sort.Ints(testRows)

	return d.Subset(trainRows), d.Subset(testRows), nil
}
