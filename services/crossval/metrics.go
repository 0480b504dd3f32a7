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

import "fmt"

// Prediction is one held-out row's outcome.
type Prediction struct {
	Fold      int    `json:"fold"`
	Row       int    `json:"row"`
	Truth     string `json:"truth"`
	Predicted string `json:"predicted"`
}

// ConfusionMatrix holds binary confusion counts relative to a positive
// label.
type ConfusionMatrix struct {
	TP int `json:"tp"`
	FP int `json:"fp"`
	TN int `json:"tn"`
	FN int `json:"fn"`
}

// Total returns the number of tallied predictions.
func (c ConfusionMatrix) Total() int { return c.TP + c.FP + c.TN + c.FN }

// Add returns the element-wise sum of c and o.
func (c ConfusionMatrix) Add(o ConfusionMatrix) ConfusionMatrix {
	return ConfusionMatrix{TP: c.TP + o.TP, FP: c.FP + o.FP, TN: c.TN + o.TN, FN: c.FN + o.FN}
}

// Metrics are the classification scores derived from a confusion matrix.
type Metrics struct {
	Accuracy  float64 `json:"accuracy"`
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
	F1        float64 `json:"f1"`

	// Degenerate names the metrics whose denominator was zero and which
	// were therefore defined as 0.
	Degenerate []string `json:"degenerate,omitempty"`
}

// Metrics computes accuracy, precision, recall and F1. A zero denominator
// defines the metric as 0 and records its name in Degenerate; it is never
// an error and never NaN.
func (c ConfusionMatrix) Metrics() Metrics {
	var m Metrics
	ratio := func(name string, num, den float64) float64 {
		if den == 0 {
			m.Degenerate = append(m.Degenerate, name)
			return 0
		}
		return num / den
	}

	m.Accuracy = ratio("accuracy", float64(c.TP+c.TN), float64(c.Total()))
	m.Precision = ratio("precision", float64(c.TP), float64(c.TP+c.FP))
	m.Recall = ratio("recall", float64(c.TP), float64(c.TP+c.FN))
	m.F1 = ratio("f1", 2*m.Precision*m.Recall, m.Precision+m.Recall)
	return m
}

// Confusion tallies predictions in one pass.
func Confusion(preds []Prediction, positive string) ConfusionMatrix {
	var c ConfusionMatrix
	for _, p := range preds {
		c.tally(p.Truth, p.Predicted, positive)
	}
	return c
}

// ConfusionOf tallies parallel truth and prediction slices.
func ConfusionOf(truth, predicted []string, positive string) (ConfusionMatrix, error) {
	if len(truth) != len(predicted) {
		return ConfusionMatrix{}, fmt.Errorf("%w: %d truths, %d predictions", ErrInvalidConfiguration, len(truth), len(predicted))
	}
	var c ConfusionMatrix
	for i := range truth {
		c.tally(truth[i], predicted[i], positive)
	}
	return c, nil
}

// Accuracy is the single-split evaluation path. It shares the confusion
// logic used for cross-validated results.
func Accuracy(truth, predicted []string, positive string) (float64, error) {
	c, err := ConfusionOf(truth, predicted, positive)
	if err != nil {
		return 0, err
	}
	return c.Metrics().Accuracy, nil
}

func (c *ConfusionMatrix) tally(truth, predicted, positive string) {
	switch {
	case predicted == positive && truth == positive:
		c.TP++
	case predicted == positive:
		c.FP++
	case truth == positive:
		c.FN++
	default:
		c.TN++
	}
}
