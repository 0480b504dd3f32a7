// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package classify

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize"
)

const (
	defaultPenalty       = 1e-4
	defaultMaxIterations = 500
)

// Logistic is L2-penalised logistic regression with an unpenalised
// intercept. The mean negative log-likelihood is minimised with gonum's
// L-BFGS. The lexically second label is the modelled event; predictions
// use a 0.5 probability cut.
type Logistic struct {
	// Penalty is the L2 coefficient. Zero means 1e-4.
	Penalty float64

	// MaxIterations bounds the optimiser. Zero means 500.
	MaxIterations int
}

// Name returns "logistic".
func (l *Logistic) Name() string { return "logistic" }

// Fit estimates coefficients. A single-class training set yields a model
// that always predicts that class.
func (l *Logistic) Fit(x *mat.Dense, y []string) (Model, error) {
	levels, err := binaryLevels(x, y)
	if err != nil {
		return nil, err
	}
	if len(levels) == 1 {
		return constant(levels[0]), nil
	}

	n, p := x.Dims()
	target := mat.NewVecDense(n, nil)
	for i, label := range y {
		if label == levels[1] {
			target.SetVec(i, 1)
		}
	}

	penalty := l.Penalty
	if penalty == 0 {
		penalty = defaultPenalty
	}
	maxIter := l.MaxIterations
	if maxIter == 0 {
		maxIter = defaultMaxIterations
	}

	z := mat.NewVecDense(n, nil)
	resid := mat.NewVecDense(n, nil)
	linear := func(w []float64) {
		z.MulVec(x, mat.NewVecDense(p, w[:p]))
		for i := 0; i < n; i++ {
			z.SetVec(i, z.AtVec(i)+w[p])
		}
	}

	problem := optimize.Problem{
		Func: func(w []float64) float64 {
			linear(w)
			var loss float64
			for i := 0; i < n; i++ {
				zi := z.AtVec(i)
				loss += softplus(zi) - target.AtVec(i)*zi
			}
			var reg float64
			for _, wj := range w[:p] {
				reg += wj * wj
			}
			return loss/float64(n) + 0.5*penalty*reg
		},
		Grad: func(grad, w []float64) {
			linear(w)
			var bias float64
			for i := 0; i < n; i++ {
				r := sigmoid(z.AtVec(i)) - target.AtVec(i)
				resid.SetVec(i, r)
				bias += r
			}
			g := mat.NewVecDense(p, grad[:p])
			g.MulVec(x.T(), resid)
			for j := 0; j < p; j++ {
				grad[j] = grad[j]/float64(n) + penalty*w[j]
			}
			grad[p] = bias / float64(n)
		},
	}

	settings := &optimize.Settings{
		GradientThreshold: 1e-6,
		MajorIterations:   maxIter,
		Converger:         &optimize.FunctionConverge{Absolute: 1e-10, Iterations: 25},
	}
	res, err := optimize.Minimize(problem, make([]float64, p+1), settings, &optimize.LBFGS{})
	if err != nil && (res == nil || res.Status != optimize.IterationLimit) {
		return nil, fmt.Errorf("logistic: %w", err)
	}

	weights := make([]float64, p)
	copy(weights, res.X[:p])
	return &logisticModel{weights: weights, bias: res.X[p], levels: levels}, nil
}

type logisticModel struct {
	weights []float64
	bias    float64
	levels  []string
}

// Predict labels rows with fitted probability >= 0.5 as the event level.
func (m *logisticModel) Predict(x *mat.Dense) ([]string, error) {
	if err := checkColumns(x, len(m.weights)); err != nil {
		return nil, err
	}
	n, _ := x.Dims()
	out := make([]string, n)
	for i := 0; i < n; i++ {
		z := m.bias + mat.Dot(x.RowView(i), mat.NewVecDense(len(m.weights), m.weights))
		if sigmoid(z) >= 0.5 {
			out[i] = m.levels[1]
		} else {
			out[i] = m.levels[0]
		}
	}
	return out, nil
}

func sigmoid(z float64) float64 {
	if z >= 0 {
		return 1 / (1 + math.Exp(-z))
	}
	e := math.Exp(z)
	return e / (1 + e)
}

// softplus is log(1+exp(z)) without overflow.
func softplus(z float64) float64 {
	if z > 0 {
		return z + math.Log1p(math.Exp(-z))
	}
	return math.Log1p(math.Exp(z))
}
