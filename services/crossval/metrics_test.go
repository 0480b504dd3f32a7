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
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_ReferenceCounts(t *testing.T) {
	m := ConfusionMatrix{TP: 50, FP: 10, TN: 100, FN: 40}.Metrics()

	assert.InDelta(t, 0.75, m.Accuracy, 1e-12)
	assert.InDelta(t, 50.0/60.0, m.Precision, 1e-12)
	assert.InDelta(t, 50.0/90.0, m.Recall, 1e-12)
	assert.InDelta(t, 0.667, m.F1, 1e-3)
	assert.Empty(t, m.Degenerate)
}

func TestMetrics_NoPositivePredictions(t *testing.T) {
	m := ConfusionMatrix{TP: 0, FP: 0, TN: 5, FN: 3}.Metrics()

	assert.Equal(t, 0.0, m.Precision)
	assert.False(t, math.IsNaN(m.Precision))
	assert.Equal(t, 0.0, m.Recall)
	assert.Equal(t, 0.0, m.F1)
	assert.InDelta(t, 5.0/8.0, m.Accuracy, 1e-12)
	assert.Equal(t, []string{"precision", "f1"}, m.Degenerate)
}

func TestMetrics_Empty(t *testing.T) {
	m := ConfusionMatrix{}.Metrics()

	assert.Equal(t, Metrics{Degenerate: []string{"accuracy", "precision", "recall", "f1"}}, m)
}

func TestConfusion(t *testing.T) {
	preds := []Prediction{
		{Fold: 0, Row: 0, Truth: "Yes", Predicted: "Yes"},
		{Fold: 0, Row: 1, Truth: "No", Predicted: "Yes"},
		{Fold: 1, Row: 2, Truth: "No", Predicted: "No"},
		{Fold: 1, Row: 3, Truth: "Yes", Predicted: "No"},
		{Fold: 1, Row: 4, Truth: "Yes", Predicted: "Yes"},
	}

	assert.Equal(t, ConfusionMatrix{TP: 2, FP: 1, TN: 1, FN: 1}, Confusion(preds, "Yes"))
	assert.Equal(t, ConfusionMatrix{TP: 1, FP: 1, TN: 2, FN: 1}, Confusion(preds, "No"))
}

func TestConfusionMatrix_Add(t *testing.T) {
	a := ConfusionMatrix{TP: 1, FP: 2, TN: 3, FN: 4}
	assert.Equal(t, ConfusionMatrix{TP: 2, FP: 4, TN: 6, FN: 8}, a.Add(a))
	assert.Equal(t, 10, a.Total())
}

func TestAccuracy_SharesConfusionLogic(t *testing.T) {
	truth := []string{"Yes", "No", "No", "Yes"}
	predicted := []string{"Yes", "Yes", "No", "No"}

	acc, err := Accuracy(truth, predicted, "Yes")
	require.NoError(t, err)

	cm, err := ConfusionOf(truth, predicted, "Yes")
	require.NoError(t, err)
	assert.Equal(t, cm.Metrics().Accuracy, acc)
	assert.InDelta(t, 0.5, acc, 1e-12)

	_, err = Accuracy(truth, predicted[:2], "Yes")
	assert.ErrorIs(t, err, ErrInvalidConfiguration)
}
