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


package sqlite

import (
	"log/slog"
	"sync"

	"github.com/blinklabs-io/gavel/database/plugin"
	"github.com/prometheus/client_golang/prometheus"
)

const DefaultDataDir = ".gavel"

var registered struct {
	sync.RWMutex
	dataDir string
}

func init() {
	plugin.Register(plugin.PluginEntry{
		Type:               plugin.PluginTypeMetadata,
		Name:               "sqlite",
		Description:        "SQLite relational database",
		NewFromOptionsFunc: newFromRegistered,
		Options: []plugin.PluginOption{
			plugin.StringOption(
				"data-dir",
				"directory holding metadata.sqlite, empty for in-memory",
				DefaultDataDir,
				&registered.dataDir,
			),
		},
	})
}

func newFromRegistered() plugin.Plugin {
	registered.RLock()
	defer registered.RUnlock()
	return NewWithOptions(WithDataDir(registered.dataDir))
}

type SqliteOptionFunc func(*MetadataStoreSqlite)

func WithLogger(logger *slog.Logger) SqliteOptionFunc {
	return func(m *MetadataStoreSqlite) {
		m.logger = logger
	}
}

func WithPromRegistry(
	registry prometheus.Registerer,
) SqliteOptionFunc {
	return func(m *MetadataStoreSqlite) {
		m.promRegistry = registry
	}
}

// WithDataDir sets the directory holding metadata.sqlite. An empty value
// selects an in-memory database.
func WithDataDir(dataDir string) SqliteOptionFunc {
	return func(m *MetadataStoreSqlite) {
		m.dataDir = dataDir
	}
}
