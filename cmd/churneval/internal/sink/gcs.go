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
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"

	"github.com/AleutianAI/churneval/cmd/churneval/internal/report"
)

// GCS uploads each report as a JSON object.
type GCS struct {
	storageClient *storage.Client
	BucketName    string
	Prefix        string
}

// NewGCS creates a GCS sink. An empty saKeyPath uses application default
// credentials.
func NewGCS(ctx context.Context, bucketName, prefix, saKeyPath string) (*GCS, error) {
	var opts []option.ClientOption
	if saKeyPath != "" {
		if _, err := os.Stat(saKeyPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("service account key not found at path: %s. Please ensure you have the correct key and it is accessible", saKeyPath)
		}
		opts = append(opts, option.WithCredentialsFile(saKeyPath))
	}

	storageClient, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCS storage client: %w", err)
	}

	return &GCS{
		storageClient: storageClient,
		BucketName:    bucketName,
		Prefix:        prefix,
	}, nil
}

func (g *GCS) Name() string { return "gcs" }

// ObjectPath returns the object name rep is uploaded to.
func (g *GCS) ObjectPath(rep *report.Report) string {
	return path.Join(g.Prefix, objectName(rep))
}

// Publish uploads rep.
func (g *GCS) Publish(ctx context.Context, rep *report.Report) error {
	data, err := encode(rep)
	if err != nil {
		return err
	}
	gcsPath := g.ObjectPath(rep)

	writer := g.storageClient.Bucket(g.BucketName).Object(gcsPath).NewWriter(ctx)
	writer.ContentType = "application/json"
	writer.CacheControl = "no-cache, no-store, must-revalidate"

	if _, err := io.Copy(writer, bytes.NewReader(data)); err != nil {
		_ = writer.Close()
		return fmt.Errorf("failed to write GCS object %s: %w", gcsPath, err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to close GCS writer for %s: %w", gcsPath, err)
	}
	return nil
}

func (g *GCS) Close() error { return g.storageClient.Close() }
