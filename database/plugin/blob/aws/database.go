// Copyright 2026 Blink Labs Software
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package aws

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/blinklabs-io/gavel/database/plugin"
	"github.com/blinklabs-io/gavel/database/plugin/blob"
	"github.com/blinklabs-io/gavel/database/types"
	"github.com/prometheus/client_golang/prometheus"
)

// BlobStoreS3 stores blobs as objects in an S3 bucket
var _ blob.BlobStore = (*BlobStoreS3)(nil)

type BlobStoreS3 struct {
	*blob.ObjectStore
	promRegistry prometheus.Registerer
	logger       *slog.Logger
	client       *s3.Client
	endpoint     string
	bucket       string
	prefix       string
	region       string
	timeout      time.Duration
	encrypt      bool
}

// New parses an s3://<bucket>[/prefix] location and returns an unstarted store
func New(
	location string,
	logger *slog.Logger,
	promRegistry prometheus.Registerer,
) (*BlobStoreS3, error) {
	path, ok := strings.CutPrefix(location, "s3://")
	if !ok {
		return nil, errors.New(
			"s3 blob: expected location 's3://<bucket>[/prefix]'",
		)
	}
	if path == "" {
		return nil, errors.New("s3 blob: bucket not set")
	}
	bucket, prefix, _ := strings.Cut(path, "/")
	if bucket == "" {
		return nil, errors.New("s3 blob: invalid S3 path (missing bucket)")
	}
	return NewWithOptions(
		WithBucket(bucket),
		WithPrefix(prefix),
		WithLogger(logger),
		WithPromRegistry(promRegistry),
	), nil
}

func NewWithOptions(opts ...BlobStoreS3OptionFunc) *BlobStoreS3 {
	d := &BlobStoreS3{}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Configure implements plugin.Configurable
func (d *BlobStoreS3) Configure(
	logger *slog.Logger,
	promRegistry prometheus.Registerer,
) {
	d.logger = logger
	d.promRegistry = promRegistry
}

func (d *BlobStoreS3) Start() error {
	if d.client != nil {
		return nil
	}
	if d.bucket == "" {
		return errors.New("s3 blob: bucket not set")
	}
	timeout := d.timeout
	if timeout == 0 {
		timeout = blob.DefaultObjectTimeout
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	awsCfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return fmt.Errorf("s3 blob: load default AWS config: %w", err)
	}
	if d.region != "" {
		awsCfg.Region = d.region
	}
	d.client = s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if d.endpoint != "" {
			// Custom endpoints are usually S3-compatible stores that
			// expect path-style addressing
			o.BaseEndpoint = aws.String(d.endpoint)
			o.UsePathStyle = true
		}
	})
	d.ObjectStore = blob.NewObjectStore(
		&s3Client{client: d.client, bucket: d.bucket, prefix: d.keyPrefix()},
		blob.ObjectStoreOptions{
			Logger:  d.logger,
			Metrics: blob.NewMetrics("s3", d.promRegistry),
			Timeout: timeout,
			Encrypt: d.encrypt,
		},
	)
	return nil
}

func (d *BlobStoreS3) Stop() error {
	return d.Close()
}

// Close releases the client. The S3 client holds no connections that need
// explicit closing.
func (d *BlobStoreS3) Close() error {
	d.client = nil
	return nil
}

func (d *BlobStoreS3) Client() *s3.Client {
	return d.client
}

func (d *BlobStoreS3) Bucket() string {
	return d.bucket
}

func (d *BlobStoreS3) keyPrefix() string {
	prefix := strings.Trim(d.prefix, "/")
	if prefix == "" {
		return ""
	}
	return prefix + "/"
}

type s3Client struct {
	client *s3.Client
	bucket string
	prefix string
}

func (c *s3Client) GetObject(ctx context.Context, key string) ([]byte, error) {
	out, err := c.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(c.prefix + key),
	})
	if err != nil {
		if isS3NotFound(err) {
			return nil, types.ErrBlobKeyNotFound
		}
		return nil, err
	}
	defer out.Body.Close()
	return io.ReadAll(out.Body)
}

func (c *s3Client) PutObject(ctx context.Context, key string, val []byte) error {
	_, err := c.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(c.prefix + key),
		Body:   bytes.NewReader(val),
	})
	return err
}

func (c *s3Client) DeleteObject(ctx context.Context, key string) error {
	_, err := c.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(c.prefix + key),
	})
	if err != nil && isS3NotFound(err) {
		return types.ErrBlobKeyNotFound
	}
	return err
}

func (c *s3Client) ListKeys(ctx context.Context, prefix string) ([]string, error) {
	input := &s3.ListObjectsV2Input{
		Bucket: aws.String(c.bucket),
	}
	if fullPrefix := c.prefix + prefix; fullPrefix != "" {
		input.Prefix = aws.String(fullPrefix)
	}
	paginator := s3.NewListObjectsV2Paginator(c.client, input)
	keys := []string{}
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		for _, obj := range page.Contents {
			keys = append(keys, strings.TrimPrefix(aws.ToString(obj.Key), c.prefix))
		}
	}
	slices.Sort(keys)
	return keys, nil
}

func isS3NotFound(err error) bool {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) && apiErr.ErrorCode() == "NoSuchKey" {
		return true
	}
	var noSuchKey *s3types.NoSuchKey
	return errors.As(err, &noSuchKey)
}

var (
	_ blob.BlobStore      = (*BlobStoreS3)(nil)
	_ blob.ObjectClient   = (*s3Client)(nil)
	_ plugin.Configurable = (*BlobStoreS3)(nil)
)
