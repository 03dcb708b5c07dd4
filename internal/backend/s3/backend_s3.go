// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

// Package s3 reads and writes the state object in an S3 bucket directly,
// for directories whose tooling is not installed locally. It does not take
// the DynamoDB/lockfile lock, so it is only safe when nothing else is
// running against the same state.
package s3

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"

	"github.com/apex/log"
	awsv2 "github.com/aws/aws-sdk-go-v2/aws"
	s3v2 "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	awsx "github.com/staranto/tfsplitgo/internal/aws"
)

type BackendS3 struct {
	rootDir string
	bucket  string
	key     string
	client  *s3v2.Client
}

// New builds a direct S3 backend from discovered settings. The object key
// follows terraform's layout: workspace_key_prefix/<env>/key for a named
// workspace, the bare key for the default workspace. env falls back to
// .terraform/environment when a prefix is configured.
func New(ctx context.Context, dir, env string, config map[string]string) (*BackendS3, error) {
	bucket, key := config["bucket"], config["key"]
	if bucket == "" || key == "" {
		return nil, fmt.Errorf("%s: s3 backend config is missing bucket or key", dir)
	}

	prefix := config["workspace_key_prefix"]
	if env == "" && prefix != "" {
		if data, err := os.ReadFile(filepath.Join(dir, ".terraform", "environment")); err == nil {
			env = string(bytes.TrimSpace(data))
		}
	}
	if env != "" && env != "default" {
		if prefix == "" {
			prefix = "env:"
		}
		key = path.Join(prefix, env, key)
	}

	cfg, err := awsx.LoadAWSConfig(ctx, awsx.WithRegion(config["region"]))
	if err != nil {
		return nil, fmt.Errorf("%s: load AWS config: %w", dir, err)
	}

	log.Debugf("s3 backend for %s: s3://%s/%s", dir, bucket, key)
	return &BackendS3{
		rootDir: dir,
		bucket:  bucket,
		key:     key,
		client:  awsx.NewS3(cfg),
	}, nil
}

func (be *BackendS3) Dir() string { return be.rootDir }

func (be *BackendS3) String() string {
	return fmt.Sprintf("s3://%s/%s", be.bucket, be.key)
}

// Pull fetches the state object. A missing key is an empty backend, not an
// error.
func (be *BackendS3) Pull(ctx context.Context) ([]byte, error) {
	out, err := be.client.GetObject(ctx, &s3v2.GetObjectInput{
		Bucket: awsv2.String(be.bucket),
		Key:    awsv2.String(be.key),
	})
	if err != nil {
		var noKey *types.NoSuchKey
		if errors.As(err, &noKey) {
			log.Debugf("no object at %s; empty backend", be)
			return nil, nil
		}
		return nil, fmt.Errorf("get %s: %w", be, err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", be, err)
	}
	return data, nil
}

func (be *BackendS3) Push(ctx context.Context, doc []byte) error {
	_, err := be.client.PutObject(ctx, &s3v2.PutObjectInput{
		Bucket:      awsv2.String(be.bucket),
		Key:         awsv2.String(be.key),
		Body:        bytes.NewReader(doc),
		ContentType: awsv2.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("put %s: %w", be, err)
	}
	return nil
}
