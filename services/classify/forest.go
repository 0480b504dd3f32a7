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

	"github.com/sjwhitworth/golearn/base"
	"github.com/sjwhitworth/golearn/ensemble"
	"gonum.org/v1/gonum/mat"
)

const defaultTrees = 100

// Forest is a random forest delegated to golearn's ensemble package.
// Features are sent as float attributes and the label as a categorical
// class attribute.
//
// golearn draws bootstrap rows and feature subsets from the global
// math/rand source inside one goroutine per tree, so fitted forests are
// not reproducible for a fixed partition seed.
type Forest struct {
	// Trees is the forest size. Zero means 100.
	Trees int

	// Features is the number of features sampled per tree. Zero means all
	// p features: golearn's ID3 drops an attribute once it splits on it,
	// so a tree is at most Features levels deep and sqrt(p) trees are too
	// shallow to leave the majority class. Values above p are capped at p.
	Features int
}

// Name returns "forest".
func (f *Forest) Name() string { return "forest" }

// Fit grows the forest.
func (f *Forest) Fit(x *mat.Dense, y []string) (Model, error) {
	levels, err := binaryLevels(x, y)
	if err != nil {
		return nil, err
	}
	if len(levels) == 1 {
		return constant(levels[0]), nil
	}

	_, p := x.Dims()
	trees := f.Trees
	if trees == 0 {
		trees = defaultTrees
	}
	features := f.Features
	if features == 0 {
		features = p
	}
	features = max(1, min(features, p))

	schema := newForestSchema(p, levels)
	train, err := schema.grid(x, y)
	if err != nil {
		return nil, err
	}

	rf := ensemble.NewRandomForest(trees, features)
	if err := rf.Fit(train); err != nil {
		return nil, fmt.Errorf("forest: %w", err)
	}
	return &forestModel{rf: rf, schema: schema}, nil
}

// forestSchema holds the golearn attributes shared by the training and
// prediction grids of one model, so predictions resolve the same columns.
type forestSchema struct {
	features []base.Attribute
	class    *base.CategoricalAttribute
	levels   []string
}

func newForestSchema(p int, levels []string) *forestSchema {
	s := &forestSchema{
		features: make([]base.Attribute, p),
		class:    base.NewCategoricalAttribute(),
		levels:   levels,
	}
	for j := range s.features {
		s.features[j] = base.NewFloatAttribute(fmt.Sprintf("x%d", j))
	}
	s.class.SetName("label")
	for _, l := range levels {
		s.class.GetSysValFromString(l)
	}
	return s
}

// grid copies x (and y, when non-nil) into dense golearn instances. Rows
// without labels get the first level as a placeholder class.
func (s *forestSchema) grid(x *mat.Dense, y []string) (*base.DenseInstances, error) {
	n, p := x.Dims()
	inst := base.NewDenseInstances()
	specs := make([]base.AttributeSpec, p)
	for j, a := range s.features {
		specs[j] = inst.AddAttribute(a)
	}
	classSpec := inst.AddAttribute(s.class)
	if err := inst.AddClassAttribute(s.class); err != nil {
		return nil, fmt.Errorf("forest: %w", err)
	}
	if err := inst.Extend(n); err != nil {
		return nil, fmt.Errorf("forest: %w", err)
	}

	for i := 0; i < n; i++ {
		for j := 0; j < p; j++ {
			inst.Set(specs[j], i, base.PackFloatToBytes(x.At(i, j)))
		}
		label := s.levels[0]
		if y != nil {
			label = y[i]
		}
		inst.Set(classSpec, i, s.class.GetSysValFromString(label))
	}
	return inst, nil
}

type forestModel struct {
	rf     *ensemble.RandomForest
	schema *forestSchema
}

// Predict returns the forest's majority vote per row.
func (m *forestModel) Predict(x *mat.Dense) ([]string, error) {
	if err := checkColumns(x, len(m.schema.features)); err != nil {
		return nil, err
	}
	grid, err := m.schema.grid(x, nil)
	if err != nil {
		return nil, err
	}
	pred, err := m.rf.Predict(grid)
	if err != nil {
		return nil, fmt.Errorf("forest: %w", err)
	}
	n, _ := x.Dims()
	out := make([]string, n)
	for i := range out {
		out[i] = base.GetClass(pred, i)
	}
	return out, nil
}
