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

	"golang.org/x/exp/rand"
)

// Assignment maps each record index to a fold id in [0, K).
//
// Thread Safety: immutable after construction; safe for concurrent use.
type Assignment struct {
	ids  []int
	k    int
	seed uint64
}

// Partition assigns n records to k folds. The indices 0..n-1 are shuffled
// with a generator seeded by seed and then cut into k contiguous slices;
// the first n mod k folds hold one extra record. The same (n, k, seed)
// always yields the same assignment.
//
// Inputs:
//   - n: Record count.
//   - k: Fold count. Must satisfy 2 <= k <= n.
//   - seed: Shuffle seed.
//
// Outputs:
//   - Assignment: The fold ids, indexed by record.
//   - error: ErrInvalidConfiguration when k is out of range. No clamping.
func Partition(n, k int, seed uint64) (Assignment, error) {
	if k < 2 || k > n {
		return Assignment{}, fmt.Errorf("%w: need 2 <= k <= n, got k=%d n=%d", ErrInvalidConfiguration, k, n)
	}

	perm := rand.New(rand.NewSource(seed)).Perm(n)
	ids := make([]int, n)
	base, extra := n/k, n%k
	pos := 0
	for f := 0; f < k; f++ {
		size := base
		if f < extra {
			size++
		}
		for _, idx := range perm[pos : pos+size] {
			ids[idx] = f
		}
		pos += size
	}
	return Assignment{ids: ids, k: k, seed: seed}, nil
}

// NewAssignment wraps explicit fold ids. Every id must lie in [0, k) and
// k must be at least 2; folds may be empty.
func NewAssignment(ids []int, k int) (Assignment, error) {
	if k < 2 {
		return Assignment{}, fmt.Errorf("%w: need k >= 2, got %d", ErrInvalidConfiguration, k)
	}
	for i, f := range ids {
		if f < 0 || f >= k {
			return Assignment{}, fmt.Errorf("%w: record %d has fold %d outside [0,%d)", ErrInvalidConfiguration, i, f, k)
		}
	}
	return Assignment{ids: append([]int(nil), ids...), k: k}, nil
}

// K returns the fold count.
func (a Assignment) K() int { return a.k }

// Len returns the record count.
func (a Assignment) Len() int { return len(a.ids) }

// Seed returns the shuffle seed, zero for explicit assignments.
func (a Assignment) Seed() uint64 { return a.seed }

// Of returns the fold id of record i.
func (a Assignment) Of(i int) int { return a.ids[i] }

// IDs returns a copy of the fold ids.
func (a Assignment) IDs() []int { return append([]int(nil), a.ids...) }

// Sizes returns the number of records in each fold.
func (a Assignment) Sizes() []int {
	sizes := make([]int, a.k)
	for _, f := range a.ids {
		sizes[f]++
	}
	return sizes
}

// Fold returns the record indices of fold f in ascending order.
func (a Assignment) Fold(f int) []int {
	_, assessment := a.Split(f)
	return assessment
}

// Split returns the analysis (fold != f) and assessment (fold == f) record
// indices, each in ascending order. Together they cover every record once.
func (a Assignment) Split(f int) (analysis, assessment []int) {
	for i, id := range a.ids {
		if id == f {
			assessment = append(assessment, i)
		} else {
			analysis = append(analysis, i)
		}
	}
	return analysis, assessment
}
