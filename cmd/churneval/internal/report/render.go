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
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/mattn/go-isatty"

	"github.com/AleutianAI/churneval/services/crossval"
)

// Aleutian palette
var (
	colorTealBright = lipgloss.Color("#2CD7C7")
	colorTealDeep   = lipgloss.Color("#16858E")
	colorSlate      = lipgloss.Color("#2C4A54")
	colorWarning    = lipgloss.Color("#F4D03F")
)

var asciiBorder = lipgloss.Border{
	Top: "-", Bottom: "-", Left: "|", Right: "|",
	TopLeft: "+", TopRight: "+", BottomLeft: "+", BottomRight: "+",
	MiddleLeft: "+", MiddleRight: "+", Middle: "+", MiddleTop: "+", MiddleBottom: "+",
}

// Renderer writes reports as tables. Styled output uses colour and
// rounded borders; plain output is ASCII only.
type Renderer struct {
	w      io.Writer
	styled bool
}

// New returns a renderer writing to w.
func New(w io.Writer, styled bool) *Renderer {
	return &Renderer{w: w, styled: styled}
}

// ForFile styles output only when f is a terminal.
func ForFile(f *os.File) *Renderer {
	return New(f, IsTerminal(f))
}

// IsTerminal reports whether f is attached to a terminal.
func IsTerminal(f *os.File) bool {
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// Report renders any report kind.
func (r *Renderer) Report(rep *Report) {
	r.title(fmt.Sprintf("%s report %s", rep.Kind, rep.ID))
	if rep.Dataset != "" {
		r.muted("dataset: " + rep.Dataset)
	}
	switch rep.Kind {
	case KindHoldout:
		if rep.Holdout != nil {
			r.Holdout(rep.Holdout)
		}
	case KindCompare:
		for _, run := range rep.Runs {
			r.CV(run)
		}
		if rep.Comparison != nil {
			r.Comparison(rep.Comparison)
		}
	default:
		for _, run := range rep.Runs {
			r.CV(run)
		}
	}
}

// CV renders pooled metrics, the per-fold table and the fold spread.
func (r *Renderer) CV(res *crossval.Result) {
	r.title(fmt.Sprintf("%s, %d folds, %d rows, positive %q", res.Model, res.K, res.Rows, res.Positive))
	r.metricsTable("pooled", res.Confusion, res.Metrics)

	rows := make([][]string, 0, len(res.Folds))
	for _, f := range res.Folds {
		rows = append(rows, []string{
			strconv.Itoa(f.Fold),
			strconv.Itoa(f.AssessedRows),
			pct(f.Metrics.Accuracy),
			pct(f.Metrics.Precision),
			pct(f.Metrics.Recall),
			pct(f.Metrics.F1),
			f.Duration.Round(time.Millisecond).String(),
		})
	}
	r.table([]string{"fold", "rows", "accuracy", "precision", "recall", "f1", "time"}, rows)

	s := res.Summarize()
	r.muted(fmt.Sprintf("accuracy across folds: mean %s, sd %s", pct(s.Accuracy.Mean), pct(s.Accuracy.StdDev)))
	if len(res.Metrics.Degenerate) > 0 {
		r.warn("defined as 0 (zero denominator): " + strings.Join(res.Metrics.Degenerate, ", "))
	}
}

// Holdout renders a single-split result.
func (r *Renderer) Holdout(h *crossval.HoldoutResult) {
	r.title(fmt.Sprintf("%s, train %d, test %d, positive %q", h.Model, h.TrainRows, h.TestRows, h.Positive))
	r.metricsTable("test", h.Confusion, h.Metrics)
}

// Comparison renders a t-test.
func (r *Renderer) Comparison(c *crossval.Comparison) {
	verdict := "no significant difference"
	if c.Significant {
		verdict = "significant difference"
	}
	r.table([]string{"model", "mean accuracy"}, [][]string{
		{c.ModelA, pct(c.MeanA)},
		{c.ModelB, pct(c.MeanB)},
	})
	r.line(fmt.Sprintf("Welch t = %.3f, df = %.1f, p = %.4g: %s at alpha %.2g",
		c.TStatistic, c.DegreesOfFreedom, c.PValue, verdict, c.Alpha))
}

// List renders stored reports, newest first as given.
func (r *Renderer) List(reps []*Report) {
	if len(reps) == 0 {
		r.muted("no stored runs")
		return
	}
	rows := make([][]string, 0, len(reps))
	for _, rep := range reps {
		model, acc := rep.Headline()
		rows = append(rows, []string{
			rep.ID,
			string(rep.Kind),
			rep.CreatedAt.Local().Format("2006-01-02 15:04:05"),
			model,
			pct(acc),
		})
	}
	r.table([]string{"id", "kind", "created", "model", "accuracy"}, rows)
}

func (r *Renderer) metricsTable(label string, cm crossval.ConfusionMatrix, m crossval.Metrics) {
	r.table(
		[]string{label, "accuracy", "precision", "recall", "f1", "tp", "fp", "tn", "fn"},
		[][]string{{
			"",
			pct(m.Accuracy), pct(m.Precision), pct(m.Recall), pct(m.F1),
			strconv.Itoa(cm.TP), strconv.Itoa(cm.FP), strconv.Itoa(cm.TN), strconv.Itoa(cm.FN),
		}},
	)
}

func (r *Renderer) table(headers []string, rows [][]string) {
	t := table.New().Headers(headers...).Rows(rows...)
	if r.styled {
		header := lipgloss.NewStyle().Bold(true).Foreground(colorTealBright).Padding(0, 1)
		cell := lipgloss.NewStyle().Padding(0, 1)
		t = t.Border(lipgloss.RoundedBorder()).
			BorderStyle(lipgloss.NewStyle().Foreground(colorTealDeep)).
			StyleFunc(func(row, _ int) lipgloss.Style {
				if row == table.HeaderRow {
					return header
				}
				return cell
			})
	} else {
		cell := lipgloss.NewStyle().Padding(0, 1)
		t = t.Border(asciiBorder).StyleFunc(func(int, int) lipgloss.Style { return cell })
	}
	fmt.Fprintln(r.w, t.String())
}

func (r *Renderer) title(s string) {
	if r.styled {
		s = lipgloss.NewStyle().Bold(true).Foreground(colorTealBright).Render(s)
	}
	fmt.Fprintln(r.w, s)
}

func (r *Renderer) muted(s string) {
	if r.styled {
		s = lipgloss.NewStyle().Foreground(colorSlate).Render(s)
	}
	fmt.Fprintln(r.w, s)
}

func (r *Renderer) warn(s string) {
	if r.styled {
		s = lipgloss.NewStyle().Foreground(colorWarning).Render(s)
	} else {
		s = "warning: " + s
	}
	fmt.Fprintln(r.w, s)
}

func (r *Renderer) line(s string) { fmt.Fprintln(r.w, s) }

func pct(v float64) string { return strconv.FormatFloat(v*100, 'f', 1, 64) + "%" }
