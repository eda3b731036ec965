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
	"log/slog"
	"sync"
	"time"

	"github.com/blinklabs-io/gavel/database/plugin"
	"github.com/prometheus/client_golang/prometheus"
)

var registered struct {
	sync.RWMutex
	endpoint string
	bucket   string
	region   string
	prefix   string
	encrypt  bool
}

func init() {
	plugin.Register(plugin.PluginEntry{
		Type:               plugin.PluginTypeBlob,
		Name:               "s3",
		Description:        "AWS S3 blob store",
		NewFromOptionsFunc: newFromRegistered,
		Options: []plugin.PluginOption{
			plugin.StringOption("endpoint", "S3 compatible endpoint URL", "", &registered.endpoint),
			plugin.StringOption("bucket", "bucket holding the journal", "", &registered.bucket),
			plugin.StringOption("region", "AWS region", "", &registered.region),
			plugin.StringOption("prefix", "object key prefix", "", &registered.prefix),
			plugin.BoolOption("encrypt", "encrypt journal objects with SOPS", false, &registered.encrypt),
		},
	})
}

func newFromRegistered() plugin.Plugin {
	registered.RLock()
	defer registered.RUnlock()
	return NewWithOptions(
		WithEndpoint(registered.endpoint),
		WithBucket(registered.bucket),
		WithRegion(registered.region),
		WithPrefix(registered.prefix),
		WithEncryption(registered.encrypt),
	)
}

type BlobStoreS3OptionFunc func(*BlobStoreS3)

func WithLogger(logger *slog.Logger) BlobStoreS3OptionFunc {
	return func(b *BlobStoreS3) {
		b.logger = logger
	}
}

func WithPromRegistry(registry prometheus.Registerer) BlobStoreS3OptionFunc {
	return func(b *BlobStoreS3) {
		b.promRegistry = registry
	}
}

// WithEndpoint selects an S3-compatible endpoint instead of AWS
func WithEndpoint(endpoint string) BlobStoreS3OptionFunc {
	return func(b *BlobStoreS3) {
		b.endpoint = endpoint
	}
}

func WithBucket(bucket string) BlobStoreS3OptionFunc {
	return func(b *BlobStoreS3) {
		b.bucket = bucket
	}
}

func WithRegion(region string) BlobStoreS3OptionFunc {
	return func(b *BlobStoreS3) {
		b.region = region
	}
}

func WithPrefix(prefix string) BlobStoreS3OptionFunc {
	return func(b *BlobStoreS3) {
		b.prefix = prefix
	}
}

func WithTimeout(timeout time.Duration) BlobStoreS3OptionFunc {
	return func(b *BlobStoreS3) {
		b.timeout = timeout
	}
}

// WithEncryption enables SOPS encryption of stored values
func WithEncryption(enabled bool) BlobStoreS3OptionFunc {
	return func(b *BlobStoreS3) {
		b.encrypt = enabled
	}
}
