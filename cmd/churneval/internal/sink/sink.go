// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package sink publishes churneval reports: JSON files, Google Cloud
// Storage objects and InfluxDB points.
package sink

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/AleutianAI/churneval/cmd/churneval/internal/report"
)

// Sink publishes one report.
type Sink interface {
	Name() string
	Publish(ctx context.Context, rep *report.Report) error
	Close() error
}

// Multi publishes to every sink and joins their errors. A failing sink
// does not stop the others.
type Multi []Sink

func (m Multi) Name() string { return "multi" }

func (m Multi) Publish(ctx context.Context, rep *report.Report) error {
	var errs []error
	for _, s := range m {
		if err := s.Publish(ctx, rep); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", s.Name(), err))
		}
	}
	return errors.Join(errs...)
}

func (m Multi) Close() error {
	var errs []error
	for _, s := range m {
		if err := s.Close(); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", s.Name(), err))
		}
	}
	return errors.Join(errs...)
}

// encode renders rep as indented JSON.
func encode(rep *report.Report) ([]byte, error) {
	data, err := json.MarshalIndent(rep, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode report %s: %w", rep.ID, err)
	}
	return append(data, '\n'), nil
}

// objectName is the file or object name of a report.
func objectName(rep *report.Report) string {
	return fmt.Sprintf("%s-%s.json", rep.Kind, rep.ID)
}

// -----------------------------------------------------------------------------
// File
// -----------------------------------------------------------------------------

// File writes each report to Dir as <kind>-<id>.json.
type File struct {
	Dir string
}

func (f *File) Name() string { return "file" }

// Publish writes the report, creating Dir if needed.
func (f *File) Publish(_ context.Context, rep *report.Report) error {
	if err := os.MkdirAll(f.Dir, 0755); err != nil {
		return fmt.Errorf("create report directory %s: %w", f.Dir, err)
	}
	data, err := encode(rep)
	if err != nil {
		return err
	}
	return os.WriteFile(f.Path(rep), data, 0644)
}

// Path returns where rep is written.
func (f *File) Path(rep *report.Report) string {
	return filepath.Join(f.Dir, objectName(rep))
}

func (f *File) Close() error { return nil }
