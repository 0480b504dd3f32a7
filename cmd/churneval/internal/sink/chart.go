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
	"context"
	"fmt"
	"image/color"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/AleutianAI/churneval/cmd/churneval/internal/report"
)

// barColors cycles per run: teal, then slate.
var barColors = []color.Color{
	color.RGBA{R: 0x00, G: 0x80, B: 0x80, A: 0xff},
	color.RGBA{R: 0x70, G: 0x80, B: 0x90, A: 0xff},
}

// Chart draws per-fold accuracy as a PNG bar chart, one bar group per
// fold and one series per run. Reports without runs are skipped.
type Chart struct {
	Dir string
}

func (c *Chart) Name() string { return "chart" }

// Path returns where rep's chart is written.
func (c *Chart) Path(rep *report.Report) string {
	return filepath.Join(c.Dir, strings.TrimSuffix(objectName(rep), ".json")+".png")
}

// Publish renders and saves the chart.
func (c *Chart) Publish(_ context.Context, rep *report.Report) error {
	if len(rep.Runs) == 0 {
		return nil
	}
	if err := os.MkdirAll(c.Dir, 0755); err != nil {
		return fmt.Errorf("create chart directory %s: %w", c.Dir, err)
	}

	p := plot.New()
	p.Title.Text = fmt.Sprintf("Fold accuracy, %s %s", rep.Kind, rep.ID)
	p.X.Label.Text = "fold"
	p.Y.Label.Text = "accuracy"
	p.Y.Min, p.Y.Max = 0, 1
	p.Add(plotter.NewGrid())

	width := vg.Points(20) / vg.Length(len(rep.Runs))
	folds := 0
	for i, run := range rep.Runs {
		vals := make(plotter.Values, len(run.Folds))
		for j, f := range run.Folds {
			vals[j] = f.Metrics.Accuracy
		}
		bars, err := plotter.NewBarChart(vals, width)
		if err != nil {
			return fmt.Errorf("bar chart for %s: %w", run.Model, err)
		}
		bars.LineStyle.Width = vg.Length(0)
		bars.Color = barColors[i%len(barColors)]
		bars.Offset = width * vg.Length(i-len(rep.Runs)/2)
		p.Add(bars)
		p.Legend.Add(run.Model, bars)
		folds = max(folds, len(run.Folds))
	}
	p.Legend.Top = true

	names := make([]string, folds)
	for i := range names {
		names[i] = strconv.Itoa(i)
	}
	p.NominalX(names...)

	w := vg.Length(max(4, folds/2+2)) * vg.Inch
	if err := p.Save(w, 3*vg.Inch, c.Path(rep)); err != nil {
		return fmt.Errorf("save chart: %w", err)
	}
	return nil
}

func (c *Chart) Close() error { return nil }
