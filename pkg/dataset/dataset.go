// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package dataset holds the tabular records fed to the cross-validation
// evaluator.
//
// A Dataset is an ordered set of rows over a fixed, typed column set. One
// column is designated the outcome and must carry exactly two distinct
// values. Rows are stored by value, so Subset and Clone produce datasets
// that can be mutated without touching their source.
package dataset

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
)

// -----------------------------------------------------------------------------
// Errors
// -----------------------------------------------------------------------------

var (
	// ErrUnknownColumn is returned when a column name is not in the dataset.
	ErrUnknownColumn = errors.New("unknown column")

	// ErrDuplicateColumn is returned when a column name appears twice.
	ErrDuplicateColumn = errors.New("duplicate column")

	// ErrRowWidth is returned when a row does not match the column count.
	ErrRowWidth = errors.New("row width does not match column count")

	// ErrOutcome is returned when the outcome column is missing, mistyped
	// or does not have exactly two distinct values.
	ErrOutcome = errors.New("invalid outcome column")

	// ErrKind is returned when a value is read as the wrong kind.
	ErrKind = errors.New("column kind mismatch")
)

// -----------------------------------------------------------------------------
// Columns and values
// -----------------------------------------------------------------------------

// Kind is the type of a column.
type Kind int

const (
	// Numeric columns hold float64 values.
	Numeric Kind = iota
	// Categorical columns hold string levels.
	Categorical
	// Boolean columns hold true/false.
	Boolean
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case Numeric:
		return "numeric"
	case Categorical:
		return "categorical"
	case Boolean:
		return "boolean"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Column describes one dataset column.
type Column struct {
	Name string
	Kind Kind
}

// Value is a single cell. Only the field matching the column kind is set.
type Value struct {
	Num     float64
	Str     string
	Bool    bool
	Missing bool
}

// Num returns a numeric value.
func Num(f float64) Value { return Value{Num: f} }

// Cat returns a categorical value.
func Cat(s string) Value { return Value{Str: s} }

// Bool returns a boolean value.
func Bool(b bool) Value { return Value{Bool: b} }

// NA returns a missing value.
func NA() Value { return Value{Missing: true} }

// Format renders the value for the given kind. Missing values render as "NA".
func (v Value) Format(k Kind) string {
	if v.Missing {
		return "NA"
	}
	switch k {
	case Numeric:
		return strconv.FormatFloat(v.Num, 'g', -1, 64)
	case Boolean:
		return strconv.FormatBool(v.Bool)
	default:
		return v.Str
	}
}

// -----------------------------------------------------------------------------
// Dataset
// -----------------------------------------------------------------------------

// Dataset is an ordered sequence of records over a fixed column set.
//
// Thread Safety: concurrent reads are safe; mutation (Append, Set) is not.
type Dataset struct {
	columns []Column
	index   map[string]int
	rows    [][]Value
	outcome string
}

// New creates an empty dataset. The outcome column must be present in
// columns; its level check is deferred to Validate.
func New(columns []Column, outcome string) (*Dataset, error) {
	index := make(map[string]int, len(columns))
	for i, c := range columns {
		if _, dup := index[c.Name]; dup {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateColumn, c.Name)
		}
		index[c.Name] = i
	}
	if _, ok := index[outcome]; !ok {
		return nil, fmt.Errorf("%w: outcome %q not among columns", ErrOutcome, outcome)
	}
	cols := make([]Column, len(columns))
	copy(cols, columns)
	return &Dataset{columns: cols, index: index, outcome: outcome}, nil
}

// Append adds a row. The row is copied.
func (d *Dataset) Append(row []Value) error {
	if len(row) != len(d.columns) {
		return fmt.Errorf("%w: got %d, want %d", ErrRowWidth, len(row), len(d.columns))
	}
	r := make([]Value, len(row))
	copy(r, row)
	d.rows = append(d.rows, r)
	return nil
}

// Len returns the number of rows.
func (d *Dataset) Len() int { return len(d.rows) }

// Outcome returns the outcome column name.
func (d *Dataset) Outcome() string { return d.outcome }

// Columns returns a copy of the column definitions.
func (d *Dataset) Columns() []Column {
	out := make([]Column, len(d.columns))
	copy(out, d.columns)
	return out
}

// Predictors returns every column except the outcome, in order.
func (d *Dataset) Predictors() []Column {
	out := make([]Column, 0, len(d.columns)-1)
	for _, c := range d.columns {
		if c.Name != d.outcome {
			out = append(out, c)
		}
	}
	return out
}

// Column looks up a column by name.
func (d *Dataset) Column(name string) (Column, bool) {
	i, ok := d.index[name]
	if !ok {
		return Column{}, false
	}
	return d.columns[i], true
}

// Value returns the cell at row for the named column.
func (d *Dataset) Value(row int, name string) (Value, error) {
	i, ok := d.index[name]
	if !ok {
		return Value{}, fmt.Errorf("%w: %s", ErrUnknownColumn, name)
	}
	return d.rows[row][i], nil
}

// Row returns a copy of one row, in column order.
func (d *Dataset) Row(r int) []Value {
	out := make([]Value, len(d.columns))
	copy(out, d.rows[r])
	return out
}

// Set overwrites the cell at row for the named column.
func (d *Dataset) Set(row int, name string, v Value) error {
	i, ok := d.index[name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownColumn, name)
	}
	d.rows[row][i] = v
	return nil
}

// Floats returns the values of a numeric or boolean column, booleans as
// 0/1. Missing cells read as zero; drop or impute them first.
func (d *Dataset) Floats(name string) ([]float64, error) {
	i, ok := d.index[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownColumn, name)
	}
	kind := d.columns[i].Kind
	if kind == Categorical {
		return nil, fmt.Errorf("%w: %s is %s", ErrKind, name, kind)
	}
	out := make([]float64, len(d.rows))
	for r, row := range d.rows {
		v := row[i]
		switch {
		case v.Missing:
			out[r] = 0
		case kind == Boolean && v.Bool:
			out[r] = 1
		case kind == Boolean:
			out[r] = 0
		default:
			out[r] = v.Num
		}
	}
	return out, nil
}

// Strings returns the formatted values of any column.
func (d *Dataset) Strings(name string) ([]string, error) {
	i, ok := d.index[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownColumn, name)
	}
	kind := d.columns[i].Kind
	out := make([]string, len(d.rows))
	for r, row := range d.rows {
		out[r] = row[i].Format(kind)
	}
	return out, nil
}

// Labels returns the outcome column as strings.
func (d *Dataset) Labels() []string {
	labels, _ := d.Strings(d.outcome)
	return labels
}

// Levels returns the sorted distinct non-missing values of a column.
func (d *Dataset) Levels(name string) ([]string, error) {
	i, ok := d.index[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownColumn, name)
	}
	kind := d.columns[i].Kind
	seen := make(map[string]struct{})
	for _, row := range d.rows {
		if row[i].Missing {
			continue
		}
		seen[row[i].Format(kind)] = struct{}{}
	}
	levels := make([]string, 0, len(seen))
	for l := range seen {
		levels = append(levels, l)
	}
	sort.Strings(levels)
	return levels, nil
}

// Validate checks the dataset invariants: the outcome is categorical or
// boolean, has no missing values and has exactly two distinct levels.
func (d *Dataset) Validate() error {
	col, _ := d.Column(d.outcome)
	if col.Kind == Numeric {
		return fmt.Errorf("%w: %q is numeric", ErrOutcome, d.outcome)
	}
	i := d.index[d.outcome]
	for r, row := range d.rows {
		if row[i].Missing {
			return fmt.Errorf("%w: %q missing at row %d", ErrOutcome, d.outcome, r)
		}
	}
	levels, _ := d.Levels(d.outcome)
	if len(levels) != 2 {
		return fmt.Errorf("%w: %q has %d levels %v, want 2", ErrOutcome, d.outcome, len(levels), levels)
	}
	return nil
}

// Subset returns a new dataset holding copies of the given rows, in order.
func (d *Dataset) Subset(rows []int) *Dataset {
	out := d.empty(d.columns)
	out.rows = make([][]Value, len(rows))
	for j, r := range rows {
		row := make([]Value, len(d.columns))
		copy(row, d.rows[r])
		out.rows[j] = row
	}
	return out
}

// Clone returns a deep copy.
func (d *Dataset) Clone() *Dataset {
	all := make([]int, len(d.rows))
	for i := range all {
		all[i] = i
	}
	return d.Subset(all)
}

// DropColumns returns a copy without the named columns. Dropping the
// outcome or an unknown column is an error.
func (d *Dataset) DropColumns(names ...string) (*Dataset, error) {
	drop := make(map[string]bool, len(names))
	for _, n := range names {
		if _, ok := d.index[n]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownColumn, n)
		}
		if n == d.outcome {
			return nil, fmt.Errorf("%w: cannot drop outcome %q", ErrOutcome, n)
		}
		drop[n] = true
	}

	var keep []int
	var cols []Column
	for i, c := range d.columns {
		if !drop[c.Name] {
			keep = append(keep, i)
			cols = append(cols, c)
		}
	}

	out := d.empty(cols)
	out.rows = make([][]Value, len(d.rows))
	for r, row := range d.rows {
		nr := make([]Value, len(keep))
		for j, i := range keep {
			nr[j] = row[i]
		}
		out.rows[r] = nr
	}
	return out, nil
}

// DropMissing returns a copy without rows that have any missing cell.
func (d *Dataset) DropMissing() *Dataset {
	var keep []int
	for r, row := range d.rows {
		complete := true
		for _, v := range row {
			if v.Missing {
				complete = false
				break
			}
		}
		if complete {
			keep = append(keep, r)
		}
	}
	return d.Subset(keep)
}

// empty returns a dataset with the given columns, this outcome and no rows.
func (d *Dataset) empty(cols []Column) *Dataset {
	out, err := New(cols, d.outcome)
	if err != nil {
		// cols is always derived from d.columns, which already passed New.
		panic(err)
	}
	return out
}
