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
	"log/slog"
	"sync"

	"github.com/blinklabs-io/gavel/database/plugin"
	"github.com/prometheus/client_golang/prometheus"
)

var registered struct {
	sync.RWMutex
	bucket          string
	prefix          string
	credentialsFile string
	encrypt         bool
}

func init() {
	plugin.Register(plugin.PluginEntry{
		Type:               plugin.PluginTypeBlob,
		Name:               "gcs",
		Description:        "Google Cloud Storage blob store",
		NewFromOptionsFunc: newFromRegistered,
		Options: []plugin.PluginOption{
			plugin.StringOption("bucket", "bucket holding the journal", "", &registered.bucket),
			plugin.StringOption("prefix", "object name prefix", "", &registered.prefix),
			plugin.StringOption("credentials-file", "service account credentials file", "", &registered.credentialsFile),
			plugin.BoolOption("encrypt", "encrypt journal objects with SOPS", false, &registered.encrypt),
		},
	})
}

func newFromRegistered() plugin.Plugin {
	registered.RLock()
	defer registered.RUnlock()
	return NewWithOptions(
		WithBucket(registered.bucket),
		WithPrefix(registered.prefix),
		WithCredentialsFile(registered.credentialsFile),
		WithEncryption(registered.encrypt),
	)
}

type BlobStoreGCSOptionFunc func(*BlobStoreGCS)

func WithLogger(logger *slog.Logger) BlobStoreGCSOptionFunc {
	return func(b *BlobStoreGCS) {
		b.logger = logger
	}
}

func WithPromRegistry(
	registry prometheus.Registerer,
) BlobStoreGCSOptionFunc {
	return func(b *BlobStoreGCS) {
		b.promRegistry = registry
	}
}

func WithBucket(bucket string) BlobStoreGCSOptionFunc {
	return func(b *BlobStoreGCS) {
		b.bucketName = bucket
	}
}

// WithPrefix places every object under the given key prefix
func WithPrefix(prefix string) BlobStoreGCSOptionFunc {
	return func(b *BlobStoreGCS) {
		b.prefix = prefix
	}
}

func WithCredentialsFile(path string) BlobStoreGCSOptionFunc {
	return func(b *BlobStoreGCS) {
		b.credentialsFile = path
	}
}

// WithEncryption enables SOPS encryption of stored values
func WithEncryption(enabled bool) BlobStoreGCSOptionFunc {
	return func(b *BlobStoreGCS) {
		b.encrypt = enabled
	}
}
