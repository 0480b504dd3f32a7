// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package report

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/churneval/services/crossval"
)

func sampleResult(model string) *crossval.Result {
	cm := crossval.ConfusionMatrix{TP: 50, FP: 10, TN: 100, FN: 40}
	return &crossval.Result{
		RunID:     "run-" + model,
		Model:     model,
		K:         2,
		Seed:      1,
		Rows:      200,
		Positive:  "Yes",
		Confusion: cm,
		Metrics:   cm.Metrics(),
		StartedAt: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC),
		Folds: []crossval.FoldMetrics{
			{Fold: 0, AssessedRows: 100, Metrics: crossval.Metrics{Accuracy: 0.7}},
			{Fold: 1, AssessedRows: 100, Metrics: crossval.Metrics{Accuracy: 0.8}},
		},
	}
}

func TestRender_PlainCV(t *testing.T) {
	var buf bytes.Buffer
	New(&buf, false).Report(NewCV("telco.csv", sampleResult("logistic")))

	out := buf.String()
	assert.Contains(t, out, "cv report run-logistic")
	assert.Contains(t, out, "dataset: telco.csv")
	assert.Contains(t, out, "logistic, 2 folds, 200 rows")
	assert.Contains(t, out, "75.0%")
	assert.Contains(t, out, "83.3%")
	assert.Contains(t, out, "mean 75.0%")
	assert.NotContains(t, out, "\x1b[", "plain output must not carry escape codes")
}

func TestNew_CreatedAtIsUTC(t *testing.T) {
	east := time.FixedZone("UTC+5", 5*3600)
	a, b := sampleResult("logistic"), sampleResult("majority")
	a.StartedAt = time.Date(2025, 3, 1, 17, 0, 0, 0, east)

	cv := NewCV("telco.csv", a)
	assert.Equal(t, time.UTC, cv.CreatedAt.Location())
	assert.True(t, cv.CreatedAt.Equal(a.StartedAt))

	cmp := NewCompare("telco.csv", a, b, &crossval.Comparison{})
	assert.Equal(t, time.UTC, cmp.CreatedAt.Location())

	h := NewHoldout("telco.csv", &crossval.HoldoutResult{RunID: "h"})
	assert.Equal(t, time.UTC, h.CreatedAt.Location())
}

func TestRender_Degenerate(t *testing.T) {
	res := sampleResult("majority")
	res.Confusion = crossval.ConfusionMatrix{TN: 5, FN: 3}
	res.Metrics = res.Confusion.Metrics()

	var buf bytes.Buffer
	New(&buf, false).CV(res)
	assert.Contains(t, buf.String(), "warning: defined as 0 (zero denominator): precision, f1")
}

func TestRender_Compare(t *testing.T) {
	a, b := sampleResult("forest"), sampleResult("majority")
	c := &crossval.Comparison{ModelA: "forest", ModelB: "majority", MeanA: 0.8, MeanB: 0.7, TStatistic: 3.2, PValue: 0.01, DegreesOfFreedom: 5.5, Significant: true, Alpha: 0.05}
	rep := NewCompare("telco.csv", a, b, c)

	var buf bytes.Buffer
	New(&buf, false).Report(rep)
	out := buf.String()
	assert.Contains(t, out, "compare report "+rep.ID)
	assert.Contains(t, out, "significant difference at alpha 0.05")
	assert.Contains(t, out, "80.0%")

	model, acc := rep.Headline()
	assert.Equal(t, "forest", model)
	assert.InDelta(t, 0.75, acc, 1e-12)
}

func TestRender_HoldoutAndList(t *testing.T) {
	h := &crossval.HoldoutResult{RunID: "h1", Model: "threshold", TrainRows: 75, TestRows: 25, Positive: "Yes", Accuracy: 1}
	rep := NewHoldout("x.csv", h)

	var buf bytes.Buffer
	r := New(&buf, false)
	r.Report(rep)
	r.List([]*Report{rep})
	out := buf.String()
	assert.Contains(t, out, "threshold, train 75, test 25")
	assert.Contains(t, out, "h1")
	assert.Contains(t, out, "100.0%")

	buf.Reset()
	r.List(nil)
	assert.Contains(t, buf.String(), "no stored runs")
}

func TestIsTerminal_RegularFile(t *testing.T) {
	f, err := os.Create(filepath.Join(t.TempDir(), "out.txt"))
	require.NoError(t, err)
	defer f.Close()

	assert.False(t, IsTerminal(f))
}
