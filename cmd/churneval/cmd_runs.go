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
	"fmt"

	"github.com/spf13/cobra"
)

func runListRuns(_ *cobra.Command, _ []string) error {
	s := newSession()
	store, err := s.openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	reps, err := store.List(runsLimit)
	if err != nil {
		return err
	}
	s.render.List(reps)
	return nil
}

func runShowRun(_ *cobra.Command, args []string) error {
	s := newSession()
	store, err := s.openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	rep, err := store.Get(args[0])
	if err != nil {
		return err
	}
	s.render.Report(rep)
	return nil
}

func runDeleteRun(_ *cobra.Command, args []string) error {
	s := newSession()
	store, err := s.openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	if _, err := store.Get(args[0]); err != nil {
		return err
	}
	if err := store.Delete(args[0]); err != nil {
		return err
	}
	fmt.Fprintf(out, "Deleted %s\n", args[0])
	return nil
}
