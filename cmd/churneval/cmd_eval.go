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

	"github.com/spf13/cobra"

	"github.com/AleutianAI/churneval/cmd/churneval/internal/report"
	"github.com/AleutianAI/churneval/pkg/dataset"
)

// evaluate loads the data, runs fn, renders the report and stores it.
func evaluate(cmd *cobra.Command, fn func(*session, context.Context, *dataset.Dataset) (*report.Report, error)) error {
	ctx := cmd.Context()
	s := newSession()

	ds, err := loadDataset(s.cfg.Data, s.logger)
	if err != nil {
		return err
	}
	rep, err := fn(s, ctx, ds)
	if err != nil {
		return err
	}

	s.render.Report(rep)
	if noStore {
		return nil
	}
	return s.persist(ctx, rep)
}

func runCV(cmd *cobra.Command, _ []string) error {
	return evaluate(cmd, func(s *session, ctx context.Context, ds *dataset.Dataset) (*report.Report, error) {
		return s.crossValidate(ctx, ds, keepPredictions)
	})
}

func runHoldout(cmd *cobra.Command, _ []string) error {
	return evaluate(cmd, (*session).holdout)
}

func runCompare(cmd *cobra.Command, _ []string) error {
	return evaluate(cmd, (*session).compare)
}
