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

package badger

import (
	"log/slog"
	"sync"
	"time"

	"github.com/blinklabs-io/gavel/database/plugin"
	"github.com/prometheus/client_golang/prometheus"
)

const (
	DefaultBlockCacheSize = 805306368 // 768MB
	DefaultIndexCacheSize = 268435456 // 256MB
	DefaultDataDir        = ".gavel"
)

var registered struct {
	sync.RWMutex
	dataDir        string
	blockCacheSize uint64
	indexCacheSize uint64
	gc             bool
}

func init() {
	plugin.Register(plugin.PluginEntry{
		Type:               plugin.PluginTypeBlob,
		Name:               "badger",
		Description:        "BadgerDB local key-value store",
		NewFromOptionsFunc: newFromRegistered,
		Options: []plugin.PluginOption{
			plugin.StringOption("data-dir", "directory holding the journal, empty for in-memory", DefaultDataDir, &registered.dataDir),
			plugin.UintOption("block-cache-size", "block cache size in bytes", DefaultBlockCacheSize, &registered.blockCacheSize),
			plugin.UintOption("index-cache-size", "index cache size in bytes", DefaultIndexCacheSize, &registered.indexCacheSize),
			plugin.BoolOption("gc", "run value log garbage collection", true, &registered.gc),
		},
	})
}

// newFromRegistered returns an unopened store. The database is opened by
// Start().
func newFromRegistered() plugin.Plugin {
	registered.RLock()
	defer registered.RUnlock()
	return newBlobStoreBadger(
		WithDataDir(registered.dataDir),
		WithBlockCacheSize(registered.blockCacheSize),
		WithIndexCacheSize(registered.indexCacheSize),
		WithGc(registered.gc),
	)
}

type BlobStoreBadgerOptionFunc func(*BlobStoreBadger)

func WithLogger(logger *slog.Logger) BlobStoreBadgerOptionFunc {
	return func(b *BlobStoreBadger) {
		b.logger = logger
	}
}

func WithPromRegistry(
	registry prometheus.Registerer,
) BlobStoreBadgerOptionFunc {
	return func(b *BlobStoreBadger) {
		b.promRegistry = registry
	}
}

// WithDataDir sets the directory holding the blob store. An empty value
// selects an in-memory store.
func WithDataDir(dataDir string) BlobStoreBadgerOptionFunc {
	return func(b *BlobStoreBadger) {
		b.dataDir = dataDir
	}
}

func WithBlockCacheSize(size uint64) BlobStoreBadgerOptionFunc {
	return func(b *BlobStoreBadger) {
		b.blockCacheSize = size
	}
}

func WithIndexCacheSize(size uint64) BlobStoreBadgerOptionFunc {
	return func(b *BlobStoreBadger) {
		b.indexCacheSize = size
	}
}

func WithGc(enabled bool) BlobStoreBadgerOptionFunc {
	return func(b *BlobStoreBadger) {
		b.gcEnabled = enabled
	}
}

func WithGcInterval(interval time.Duration) BlobStoreBadgerOptionFunc {
	return func(b *BlobStoreBadger) {
		b.gcInterval = interval
	}
}
