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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPartition_Invariants(t *testing.T) {
	for n := 2; n <= 40; n++ {
		for k := 2; k <= n; k++ {
			a, err := Partition(n, k, uint64(n*100+k))
			require.NoError(t, err, "n=%d k=%d", n, k)
			require.Equal(t, n, a.Len())
			require.Equal(t, k, a.K())

			sizes := a.Sizes()
			lo, hi, sum := n, 0, 0
			for _, s := range sizes {
				lo, hi, sum = min(lo, s), max(hi, s), sum+s
			}
			assert.LessOrEqual(t, hi-lo, 1, "n=%d k=%d sizes=%v", n, k, sizes)
			assert.Equal(t, n, sum)
			assert.Positive(t, lo, "no fold may be empty")

			seen := make([]int, n)
			for f := 0; f < k; f++ {
				for _, i := range a.Fold(f) {
					seen[i]++
				}
			}
			for i, c := range seen {
				assert.Equal(t, 1, c, "n=%d k=%d index %d", n, k, i)
			}
		}
	}
}

func TestPartition_Deterministic(t *testing.T) {
	a, err := Partition(500, 7, 2024)
	require.NoError(t, err)
	b, err := Partition(500, 7, 2024)
	require.NoError(t, err)
	assert.Equal(t, a.IDs(), b.IDs())
	assert.Equal(t, uint64(2024), a.Seed())

	c, err := Partition(500, 7, 2025)
	require.NoError(t, err)
	assert.NotEqual(t, a.IDs(), c.IDs())
}

func TestPartition_Shuffles(t *testing.T) {
	a, err := Partition(100, 2, 1)
	require.NoError(t, err)

	// Contiguous slicing without a shuffle would put rows 0..49 in fold 0.
	inFirst := 0
	for _, i := range a.Fold(0) {
		if i < 50 {
			inFirst++
		}
	}
	assert.Less(t, inFirst, 50)
}

func TestPartition_InvalidFoldCount(t *testing.T) {
	tests := []struct{ n, k int }{
		{10, 1},
		{10, 0},
		{10, -3},
		{10, 11},
		{0, 2},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("n=%d,k=%d", tt.n, tt.k), func(t *testing.T) {
			_, err := Partition(tt.n, tt.k, 1)
			assert.ErrorIs(t, err, ErrInvalidConfiguration)
		})
	}
}

func TestPartition_TenFoldsOn5626Rows(t *testing.T) {
	a, err := Partition(5626, 10, 123)
	require.NoError(t, err)

	sum := 0
	for _, s := range a.Sizes() {
		assert.Contains(t, []int{562, 563}, s)
		sum += s
	}
	assert.Equal(t, 5626, sum)
}

func TestSplit_DisjointAndComplete(t *testing.T) {
	a, err := Partition(57, 5, 9)
	require.NoError(t, err)

	for f := 0; f < a.K(); f++ {
		analysis, assessment := a.Split(f)
		assert.Len(t, append(analysis, assessment...), 57)

		in := make(map[int]bool, len(assessment))
		for _, i := range assessment {
			in[i] = true
			assert.Equal(t, f, a.Of(i))
		}
		for _, i := range analysis {
			assert.False(t, in[i], "fold %d: row %d in both partitions", f, i)
			assert.NotEqual(t, f, a.Of(i))
		}
	}
}

func TestNewAssignment(t *testing.T) {
	a, err := NewAssignment([]int{0, 1, 1, 0}, 2)
	require.NoError(t, err)
	assert.Equal(t, []int{2, 2}, a.Sizes())
	assert.Equal(t, uint64(0), a.Seed())

	_, err = NewAssignment([]int{0, 2}, 2)
	assert.ErrorIs(t, err, ErrInvalidConfiguration)

	_, err = NewAssignment([]int{0, 0}, 1)
	assert.ErrorIs(t, err, ErrInvalidConfiguration)
}
