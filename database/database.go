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

package database

import (
	"errors"
	"io"
	"log/slog"
	"sync"

	"github.com/blinklabs-io/gavel/database/plugin"
	"github.com/blinklabs-io/gavel/database/plugin/blob"
	"github.com/blinklabs-io/gavel/database/plugin/metadata"
	"github.com/prometheus/client_golang/prometheus"

	// Register storage plugins
	_ "github.com/blinklabs-io/gavel/database/plugin/blob/aws"
	_ "github.com/blinklabs-io/gavel/database/plugin/blob/badger"
	_ "github.com/blinklabs-io/gavel/database/plugin/blob/gcs"
	_ "github.com/blinklabs-io/gavel/database/plugin/metadata/mysql"
	_ "github.com/blinklabs-io/gavel/database/plugin/metadata/postgres"
	_ "github.com/blinklabs-io/gavel/database/plugin/metadata/sqlite"
)

const (
	DefaultBlobPlugin     = "badger"
	DefaultMetadataPlugin = "sqlite"
)

// Plugin options are package globals, so plugin setup is serialized
var pluginSetupMutex sync.Mutex

// Config describes the storage plugins backing a Database. An empty DataDir
// keeps the embedded plugins in memory.
type Config struct {
	Logger         *slog.Logger
	PromRegistry   prometheus.Registerer
	BlobPlugin     string
	MetadataPlugin string
	DataDir        string
}

type Database struct {
	logger   *slog.Logger
	blob     blob.BlobStore
	metadata metadata.MetadataStore
	dataDir  string

	// Last commit timestamp handed out to a read-write transaction
	commitTimestamp      int64
	commitTimestampMutex sync.Mutex
	// Serializes journal appends
	journalMutex sync.Mutex
}

// Blob returns the underling blob store instance
func (d *Database) Blob() blob.BlobStore {
	return d.blob
}

// DataDir returns the path to the data directory used for storage
func (d *Database) DataDir() string {
	return d.dataDir
}

// Logger returns the logger instance
func (d *Database) Logger() *slog.Logger {
	return d.logger
}

// Metadata returns the underlying metadata store instance
func (d *Database) Metadata() metadata.MetadataStore {
	return d.metadata
}

// Transaction starts a new database transaction and returns a handle to it
func (d *Database) Transaction(readWrite bool) *Txn {
	return NewTxn(d, readWrite)
}

// Close cleans up the database connections
func (d *Database) Close() error {
	var err error
	// Close metadata
	if d.metadata != nil {
		metadataErr := d.metadata.Close()
		err = errors.Join(err, metadataErr)
	}
	// Close blob
	if d.blob != nil {
		blobErr := d.blob.Close()
		err = errors.Join(err, blobErr)
	}
	return err
}

func (d *Database) init() error {
	if d.logger == nil {
		// Create logger to throw away logs
		// We do this so we don't have to add guards around every log operation
		d.logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	// Check commit timestamp
	if err := d.checkCommitTimestamp(); err != nil {
		return err
	}
	return d.loadCommitTimestamp()
}

// New opens the configured blob and metadata plugins. A database with a
// commit timestamp mismatch is returned along with the CommitTimestampError
// so that the caller can recover it.
func New(cfg *Config) (*Database, error) {
	if cfg == nil {
		cfg = &Config{}
	}
	blobPlugin := cfg.BlobPlugin
	if blobPlugin == "" {
		blobPlugin = DefaultBlobPlugin
	}
	metadataPlugin := cfg.MetadataPlugin
	if metadataPlugin == "" {
		metadataPlugin = DefaultMetadataPlugin
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	blobDb, metadataDb, err := openStores(
		blobPlugin,
		metadataPlugin,
		cfg.DataDir,
		logger,
		cfg.PromRegistry,
	)
	if err != nil {
		return nil, err
	}
	db := &Database{
		logger:   logger.With("component", "database"),
		blob:     blobDb,
		metadata: metadataDb,
		dataDir:  cfg.DataDir,
	}
	if err := db.init(); err != nil {
		// Database is available for recovery, so return it with error
		return db, err
	}
	return db, nil
}

func openStores(
	blobPlugin string,
	metadataPlugin string,
	dataDir string,
	logger *slog.Logger,
	promRegistry prometheus.Registerer,
) (blob.BlobStore, metadata.MetadataStore, error) {
	pluginSetupMutex.Lock()
	defer pluginSetupMutex.Unlock()
	if err := plugin.SetPluginOption(plugin.PluginTypeBlob, blobPlugin, "data-dir", dataDir); err != nil {
		return nil, nil, err
	}
	if err := plugin.SetPluginOption(plugin.PluginTypeMetadata, metadataPlugin, "data-dir", dataDir); err != nil {
		return nil, nil, err
	}
	metadataDb, err := metadata.New(metadataPlugin, logger, promRegistry)
	if err != nil {
		return nil, nil, err
	}
	blobDb, err := blob.New(blobPlugin, logger, promRegistry)
	if err != nil {
		_ = metadataDb.Close()
		return nil, nil, err
	}
	return blobDb, metadataDb, nil
}
