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


package gcs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"github.com/blinklabs-io/gavel/database/plugin"
	"github.com/blinklabs-io/gavel/database/plugin/blob"
	"github.com/blinklabs-io/gavel/database/types"
	"github.com/prometheus/client_golang/prometheus"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
)

// BlobStoreGCS stores blobs as objects in a Google Cloud Storage bucket
var _ blob.BlobStore = (*BlobStoreGCS)(nil)

type BlobStoreGCS struct {
	*blob.ObjectStore
	promRegistry    prometheus.Registerer
	logger          *slog.Logger
	client          *storage.Client
	bucket          *storage.BucketHandle
	bucketName      string
	prefix          string
	credentialsFile string
	encrypt         bool
}

// New parses a gcs://<bucket>[/prefix] location and returns an unstarted store
func New(
	location string,
	logger *slog.Logger,
	promRegistry prometheus.Registerer,
) (*BlobStoreGCS, error) {
	path, ok := strings.CutPrefix(location, "gcs://")
	if !ok || path == "" {
		return nil, errors.New(
			"gcs blob: bucket not set (expected 'gcs://<bucket>[/prefix]')",
		)
	}
	bucketName, prefix, _ := strings.Cut(path, "/")
	if bucketName == "" {
		return nil, errors.New("gcs blob: invalid GCS path (missing bucket)")
	}
	return NewWithOptions(
		WithBucket(bucketName),
		WithPrefix(prefix),
		WithLogger(logger),
		WithPromRegistry(promRegistry),
	), nil
}

func NewWithOptions(opts ...BlobStoreGCSOptionFunc) *BlobStoreGCS {
	d := &BlobStoreGCS{}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Configure implements plugin.Configurable
func (d *BlobStoreGCS) Configure(
	logger *slog.Logger,
	promRegistry prometheus.Registerer,
) {
	d.logger = logger
	d.promRegistry = promRegistry
}

// ValidateCredentials checks that a credentials file exists and is readable
func ValidateCredentials(credentialsFile string) error {
	if credentialsFile == "" {
		return nil
	}
	f, err := os.Open(credentialsFile)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("GCS credentials file does not exist: %s", credentialsFile)
		}
		return fmt.Errorf("GCS credentials file is not readable: %w", err)
	}
	return f.Close()
}

func (d *BlobStoreGCS) Start() error {
	if d.client != nil {
		return nil
	}
	if d.bucketName == "" {
		return errors.New("gcs blob: bucket not set")
	}
	if err := ValidateCredentials(d.credentialsFile); err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	clientOpts := []option.ClientOption{
		storage.WithDisabledClientMetrics(),
	}
	if d.credentialsFile != "" {
		clientOpts = append(
			clientOpts,
			option.WithCredentialsFile(d.credentialsFile),
		)
	}
	client, err := storage.NewGRPCClient(ctx, clientOpts...)
	if err != nil {
		return fmt.Errorf(
			"gcs blob: failed in creating storage client: %w",
			err,
		)
	}
	d.client = client
	d.bucket = client.Bucket(d.bucketName)
	d.ObjectStore = blob.NewObjectStore(
		&gcsClient{bucket: d.bucket, prefix: d.keyPrefix()},
		blob.ObjectStoreOptions{
			Logger:  d.logger,
			Metrics: blob.NewMetrics("gcs", d.promRegistry),
			Encrypt: d.encrypt,
		},
	)
	return nil
}

func (d *BlobStoreGCS) Stop() error {
	return d.Close()
}

func (d *BlobStoreGCS) Close() error {
	if d.client == nil {
		return nil
	}
	err := d.client.Close()
	d.client = nil
	return err
}

func (d *BlobStoreGCS) Client() *storage.Client {
	return d.client
}

func (d *BlobStoreGCS) Bucket() *storage.BucketHandle {
	return d.bucket
}

func (d *BlobStoreGCS) keyPrefix() string {
	prefix := strings.Trim(d.prefix, "/")
	if prefix == "" {
		return ""
	}
	return prefix + "/"
}

type gcsClient struct {
	bucket *storage.BucketHandle
	prefix string
}

func (c *gcsClient) GetObject(ctx context.Context, key string) ([]byte, error) {
	r, err := c.bucket.Object(c.prefix + key).NewReader(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return nil, types.ErrBlobKeyNotFound
		}
		return nil, err
	}
	defer r.Close()
	return io.ReadAll(r)
}

func (c *gcsClient) PutObject(ctx context.Context, key string, val []byte) error {
	w := c.bucket.Object(c.prefix + key).NewWriter(ctx)
	if _, err := w.Write(val); err != nil {
		_ = w.Close()
		return err
	}
	return w.Close()
}

func (c *gcsClient) DeleteObject(ctx context.Context, key string) error {
	err := c.bucket.Object(c.prefix + key).Delete(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return types.ErrBlobKeyNotFound
	}
	return err
}

func (c *gcsClient) ListKeys(ctx context.Context, prefix string) ([]string, error) {
	it := c.bucket.Objects(ctx, &storage.Query{Prefix: c.prefix + prefix})
	keys := []string{}
	for {
		attrs, err := it.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, err
		}
		keys = append(keys, strings.TrimPrefix(attrs.Name, c.prefix))
	}
	slices.Sort(keys)
	return keys, nil
}

var (
	_ blob.BlobStore      = (*BlobStoreGCS)(nil)
	_ blob.ObjectClient   = (*gcsClient)(nil)
	_ plugin.Configurable = (*BlobStoreGCS)(nil)
)
