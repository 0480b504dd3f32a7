// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package runstore

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/churneval/cmd/churneval/internal/report"
	"github.com/AleutianAI/churneval/services/crossval"
)

func openMemory(t *testing.T) *Store {
	t.Helper()
	s, err := Open(InMemoryConfig())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func cvReport(id string, at time.Time, acc float64) *report.Report {
	return &report.Report{
		ID:        id,
		Kind:      report.KindCV,
		CreatedAt: at,
		Runs: []*crossval.Result{{
			RunID:   id,
			Model:   "logistic",
			K:       10,
			Metrics: crossval.Metrics{Accuracy: acc},
		}},
	}
}

func TestSaveGet(t *testing.T) {
	s := openMemory(t)
	at := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)

	require.NoError(t, s.Save(cvReport("a", at, 0.8)))

	got, err := s.Get("a")
	require.NoError(t, err)
	assert.Equal(t, "a", got.ID)
	assert.Equal(t, report.KindCV, got.Kind)
	assert.True(t, at.Equal(got.CreatedAt))
	require.Len(t, got.Runs, 1)
	assert.Equal(t, 10, got.Runs[0].K)
	assert.InDelta(t, 0.8, got.Runs[0].Metrics.Accuracy, 1e-12)

	_, err = s.Get("missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestList_NewestFirstWithLimit(t *testing.T) {
	s := openMemory(t)
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, s.Save(cvReport("old", base, 0.7)))
	require.NoError(t, s.Save(cvReport("new", base.Add(2*time.Hour), 0.9)))
	require.NoError(t, s.Save(cvReport("mid", base.Add(time.Hour), 0.8)))

	all, err := s.List(0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []string{"new", "mid", "old"}, []string{all[0].ID, all[1].ID, all[2].ID})

	two, err := s.List(2)
	require.NoError(t, err)
	assert.Len(t, two, 2)
}

func TestDelete(t *testing.T) {
	s := openMemory(t)
	require.NoError(t, s.Save(cvReport("a", time.Now(), 0.5)))
	require.NoError(t, s.Delete("a"))

	_, err := s.Get("a")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, s.Delete("a"))
}

func TestSave_RequiresID(t *testing.T) {
	s := openMemory(t)
	assert.Error(t, s.Save(&report.Report{}))
	assert.Error(t, s.Save(nil))
}

func TestOpen_Persistent(t *testing.T) {
	dir := t.TempDir()

	s, err := Open(DefaultConfig(dir))
	require.NoError(t, err)
	require.NoError(t, s.Save(cvReport("kept", time.Now(), 0.6)))
	require.NoError(t, s.Close())

	s, err = Open(DefaultConfig(dir))
	require.NoError(t, err)
	defer s.Close()
	got, err := s.Get("kept")
	require.NoError(t, err)
	assert.Equal(t, "kept", got.ID)

	_, err = Open(Config{})
	assert.ErrorIs(t, err, ErrNoPath)
}
