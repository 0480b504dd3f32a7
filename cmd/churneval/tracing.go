// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"context"
	"fmt"
	"os"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/AleutianAI/churneval/cmd/churneval/config"
)

// initTracing installs the global tracer provider for the configured
// exporter. The "none" exporter leaves the no-op provider in place.
//
// Spans go to stderr for "stdout" so rendered reports on stdout stay
// machine readable.
func initTracing(ctx context.Context, tc config.TracingConfig) (shutdown func(context.Context) error, err error) {
	if ctx == nil {
		ctx = context.Background()
	}

	var exporter sdktrace.SpanExporter
	switch tc.Exporter {
	case "", "none":
		return func(context.Context) error { return nil }, nil

	case "stdout":
		exporter, err = stdouttrace.New(
			stdouttrace.WithWriter(os.Stderr),
			stdouttrace.WithPrettyPrint(),
		)

	case "otlp":
		opts := []otlptracegrpc.Option{
			otlptracegrpc.WithEndpoint(tc.Endpoint),
		}
		if tc.Insecure {
			opts = append(opts, otlptracegrpc.WithInsecure())
		}
		exporter, err = otlptracegrpc.New(ctx, opts...)

	default:
		return nil, fmt.Errorf("unknown trace exporter %q", tc.Exporter)
	}
	if err != nil {
		return nil, fmt.Errorf("create %s exporter: %w", tc.Exporter, err)
	}

	res := resource.NewWithAttributes(
		"",
		attribute.String("service.name", "churneval"),
		attribute.String("service.version", version),
	)

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
	)
	otel.SetTracerProvider(tp)
	return tp.Shutdown, nil
}
