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
	"strconv"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/AleutianAI/churneval/cmd/churneval/internal/report"
	"github.com/AleutianAI/churneval/services/crossval"
)

// Measurement names.
const (
	MeasurementRun     = "churneval_run"
	MeasurementFold    = "churneval_fold"
	MeasurementHoldout = "churneval_holdout"
)

// pointWriter is the subset of api.WriteAPIBlocking the sink uses.
type pointWriter interface {
	WritePoint(ctx context.Context, point ...*write.Point) error
}

// Influx writes one point per run and one per fold.
type Influx struct {
	client influxdb2.Client
	writer pointWriter
}

// NewInflux connects a blocking writer to org/bucket.
func NewInflux(url, token, org, bucket string) *Influx {
	client := influxdb2.NewClient(url, token)
	return &Influx{client: client, writer: client.WriteAPIBlocking(org, bucket)}
}

func (i *Influx) Name() string { return "influx" }

// Publish writes the report's points.
func (i *Influx) Publish(ctx context.Context, rep *report.Report) error {
	points := Points(rep)
	if len(points) == 0 {
		return nil
	}
	if err := i.writer.WritePoint(ctx, points...); err != nil {
		return fmt.Errorf("write %d points: %w", len(points), err)
	}
	return nil
}

func (i *Influx) Close() error {
	if i.client != nil {
		i.client.Close()
	}
	return nil
}

// Points converts a report to InfluxDB points. Every point is tagged with
// the report id, kind and model.
func Points(rep *report.Report) []*write.Point {
	var points []*write.Point
	if h := rep.Holdout; h != nil {
		fields := metricFields(h.Confusion, h.Metrics)
		fields["train_rows"] = h.TrainRows
		fields["test_rows"] = h.TestRows
		fields["duration_ms"] = h.Duration.Milliseconds()
		points = append(points, influxdb2.NewPoint(MeasurementHoldout, tags(rep, h.Model), fields, rep.CreatedAt))
	}

	for _, r := range rep.Runs {
		fields := metricFields(r.Confusion, r.Metrics)
		fields["k"] = r.K
		fields["rows"] = r.Rows
		fields["duration_ms"] = r.Duration.Milliseconds()
		ts := r.StartedAt
		if ts.IsZero() {
			ts = rep.CreatedAt
		}
		points = append(points, influxdb2.NewPoint(MeasurementRun, tags(rep, r.Model), fields, ts))

		for _, f := range r.Folds {
			ft := tags(rep, r.Model)
			ft["fold"] = strconv.Itoa(f.Fold)
			ff := metricFields(f.Confusion, f.Metrics)
			ff["rows"] = f.AssessedRows
			ff["duration_ms"] = f.Duration.Milliseconds()
			// Folds share the run timestamp; offset by fold id so they do not
			// overwrite each other in the series.
			points = append(points, influxdb2.NewPoint(MeasurementFold, ft, ff, ts.Add(time.Duration(f.Fold)*time.Microsecond)))
		}
	}
	return points
}

func tags(rep *report.Report, model string) map[string]string {
	return map[string]string{
		"report_id": rep.ID,
		"kind":      string(rep.Kind),
		"model":     model,
	}
}

func metricFields(cm crossval.ConfusionMatrix, m crossval.Metrics) map[string]interface{} {
	return map[string]interface{}{
		"accuracy":  m.Accuracy,
		"precision": m.Precision,
		"recall":    m.Recall,
		"f1":        m.F1,
		"tp":        cm.TP,
		"fp":        cm.FP,
		"tn":        cm.TN,
		"fn":        cm.FN,
	}
}
