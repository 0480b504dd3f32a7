// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package dataset

import (
	"errors"
	"fmt"
	"io"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
)

// ErrLoad is returned when a delimited source cannot be read into a frame.
var ErrLoad = errors.New("load dataset")

// Schema tells ReadCSV how to type the columns of a delimited source.
//
// Columns not listed in Kinds are typed by detection: integers and floats
// become Numeric, true/false becomes Boolean, anything else Categorical.
// The outcome is always read as Categorical.
type Schema struct {
	// Outcome is the binary label column.
	Outcome string

	// Kinds forces the kind of individual columns. Forcing a column to
	// Numeric turns unparseable cells (e.g. blanks) into missing values.
	Kinds map[string]Kind

	// Delimiter defaults to ','.
	Delimiter rune

	// NAValues are the literal cells read as missing. Defaults to
	// "NA", "NaN", "" and " ".
	NAValues []string
}

var defaultNAValues = []string{"NA", "NaN", "<nil>", "", " "}

// ReadCSV loads a delimited source with a header row.
//
// Parsing is delegated to gota's dataframe loader; the frame is then
// copied into a Dataset column by column.
func ReadCSV(r io.Reader, schema Schema) (*Dataset, error) {
	types := map[string]series.Type{schema.Outcome: series.String}
	for name, k := range schema.Kinds {
		if name == schema.Outcome {
			continue
		}
		types[name] = seriesType(k)
	}

	na := schema.NAValues
	if len(na) == 0 {
		na = defaultNAValues
	}
	delim := schema.Delimiter
	if delim == 0 {
		delim = ','
	}

	df := dataframe.ReadCSV(r,
		dataframe.HasHeader(true),
		dataframe.DetectTypes(true),
		dataframe.WithTypes(types),
		dataframe.WithDelimiter(delim),
		dataframe.NaNValues(na),
	)
	if df.Err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLoad, df.Err)
	}
	return FromDataFrame(df, schema.Outcome)
}

// FromDataFrame converts a gota frame into a Dataset.
func FromDataFrame(df dataframe.DataFrame, outcome string) (*Dataset, error) {
	names := df.Names()
	kinds := df.Types()

	cols := make([]Column, len(names))
	for i, name := range names {
		cols[i] = Column{Name: name, Kind: kindOf(kinds[i])}
	}
	ds, err := New(cols, outcome)
	if err != nil {
		return nil, err
	}

	n := df.Nrow()
	ds.rows = make([][]Value, n)
	for r := range ds.rows {
		ds.rows[r] = make([]Value, len(cols))
	}

	for c, col := range cols {
		s := df.Col(col.Name)
		for r := 0; r < n; r++ {
			e := s.Elem(r)
			if e.IsNA() {
				ds.rows[r][c] = NA()
				continue
			}
			switch col.Kind {
			case Numeric:
				ds.rows[r][c] = Num(e.Float())
			case Boolean:
				b, err := e.Bool()
				if err != nil {
					return nil, fmt.Errorf("%w: column %q row %d: %v", ErrLoad, col.Name, r, err)
				}
				ds.rows[r][c] = Bool(b)
			default:
				ds.rows[r][c] = Cat(e.String())
			}
		}
	}
	return ds, nil
}

func seriesType(k Kind) series.Type {
	switch k {
	case Numeric:
		return series.Float
	case Boolean:
		return series.Bool
	default:
		return series.String
	}
}

func kindOf(t series.Type) Kind {
	switch t {
	case series.Int, series.Float:
		return Numeric
	case series.Bool:
		return Boolean
	default:
		return Categorical
	}
}
