// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package sink

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/churneval/cmd/churneval/internal/report"
	"github.com/AleutianAI/churneval/services/crossval"
)

func sampleReport() *report.Report {
	cm := crossval.ConfusionMatrix{TP: 3, FP: 1, TN: 4, FN: 2}
	return report.NewCV("telco.csv", &crossval.Result{
		RunID:     "r1",
		Model:     "forest",
		K:         2,
		Rows:      10,
		Confusion: cm,
		Metrics:   cm.Metrics(),
		StartedAt: time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC),
		Folds: []crossval.FoldMetrics{
			{Fold: 0, AssessedRows: 5},
			{Fold: 1, AssessedRows: 5},
		},
	})
}

func TestFile_Publish(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "reports")
	f := &File{Dir: dir}
	rep := sampleReport()

	require.NoError(t, f.Publish(context.Background(), rep))
	assert.Equal(t, filepath.Join(dir, "cv-r1.json"), f.Path(rep))

	data, err := os.ReadFile(f.Path(rep))
	require.NoError(t, err)
	var back report.Report
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, "r1", back.ID)
	assert.Equal(t, "telco.csv", back.Dataset)
	require.Len(t, back.Runs, 1)
	assert.Equal(t, crossval.ConfusionMatrix{TP: 3, FP: 1, TN: 4, FN: 2}, back.Runs[0].Confusion)
}

type failing struct{ closed bool }

func (f *failing) Name() string { return "failing" }
func (f *failing) Publish(context.Context, *report.Report) error { return errors.New("boom") }
func (f *failing) Close() error { f.closed = true; return nil }

func TestMulti_ContinuesPastFailures(t *testing.T) {
	dir := t.TempDir()
	bad := &failing{}
	m := Multi{bad, &File{Dir: dir}}

	err := m.Publish(context.Background(), sampleReport())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failing: boom")

	_, statErr := os.Stat(filepath.Join(dir, "cv-r1.json"))
	assert.NoError(t, statErr, "file sink still runs after a failure")

	require.NoError(t, m.Close())
	assert.True(t, bad.closed)
}

func TestPoints(t *testing.T) {
	points := Points(sampleReport())
	require.Len(t, points, 3)

	assert.Equal(t, MeasurementRun, points[0].Name())
	assert.Equal(t, MeasurementFold, points[1].Name())
	assert.Equal(t, MeasurementFold, points[2].Name())
	assert.NotEqual(t, points[1].Time(), points[2].Time())

	line := write.PointToLineProtocol(points[0], time.Nanosecond)
	assert.True(t, strings.HasPrefix(line, MeasurementRun+","), line)
	assert.Contains(t, line, "model=forest")
	assert.Contains(t, line, "report_id=r1")
	assert.Contains(t, line, "accuracy=0.7")

	fold := write.PointToLineProtocol(points[2], time.Nanosecond)
	assert.Contains(t, fold, "fold=1")
}

func TestPoints_Holdout(t *testing.T) {
	rep := report.NewHoldout("x.csv", &crossval.HoldoutResult{RunID: "h", Model: "logistic", TrainRows: 3, TestRows: 1, Accuracy: 1})
	points := Points(rep)
	require.Len(t, points, 1)
	assert.Equal(t, MeasurementHoldout, points[0].Name())
}

type recordingWriter struct{ points []*write.Point }

func (w *recordingWriter) WritePoint(_ context.Context, p ...*write.Point) error {
	w.points = append(w.points, p...)
	return nil
}

func TestInflux_Publish(t *testing.T) {
	w := &recordingWriter{}
	sink := &Influx{writer: w}

	require.NoError(t, sink.Publish(context.Background(), sampleReport()))
	assert.Len(t, w.points, 3)
	assert.NoError(t, sink.Close())
}

func TestNewGCS_NonExistentSAKeyPath(t *testing.T) {
	_, err := NewGCS(context.Background(), "bucket", "runs", "/nonexistent/path/to/key.json")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "service account key not found")
	assert.Contains(t, err.Error(), "/nonexistent/path/to/key.json")
}

func TestGCS_ObjectPath(t *testing.T) {
	g := &GCS{BucketName: "b", Prefix: "churn/runs"}
	assert.Equal(t, "churn/runs/cv-r1.json", g.ObjectPath(sampleReport()))

	g.Prefix = ""
	assert.Equal(t, "cv-r1.json", g.ObjectPath(sampleReport()))
}

func TestChart_Publish(t *testing.T) {
	dir := t.TempDir()
	c := &Chart{Dir: dir}
	rep := sampleReport()
	rep.Runs[0].Folds[0].Metrics.Accuracy = 0.8
	rep.Runs[0].Folds[1].Metrics.Accuracy = 0.6

	require.NoError(t, c.Publish(context.Background(), rep))
	assert.Equal(t, filepath.Join(dir, "cv-r1.png"), c.Path(rep))

	data, err := os.ReadFile(c.Path(rep))
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("\x89PNG")))
}

func TestChart_SkipsHoldout(t *testing.T) {
	dir := t.TempDir()
	rep := report.NewHoldout("x.csv", &crossval.HoldoutResult{RunID: "h"})
	require.NoError(t, (&Chart{Dir: dir}).Publish(context.Background(), rep))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
