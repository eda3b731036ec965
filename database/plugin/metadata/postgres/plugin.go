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

package postgres

import (
	"log/slog"
	"sync"

	"github.com/blinklabs-io/gavel/database/plugin"
	"github.com/blinklabs-io/gavel/database/plugin/metadata/internal/gormstore"
	"github.com/prometheus/client_golang/prometheus"
)

var defaultConn = gormstore.Conn{
	Host:     "localhost",
	Port:     5432,
	User:     "postgres",
	Database: "postgres",
	SSLMode:  "disable",
	TimeZone: "UTC",
}

var registered struct {
	sync.RWMutex
	conn gormstore.Conn
}

func init() {
	plugin.Register(plugin.PluginEntry{
		Type:               plugin.PluginTypeMetadata,
		Name:               "postgres",
		Description:        "Postgres relational database",
		NewFromOptionsFunc: newFromRegistered,
		Options:            registered.conn.Options("Postgres", defaultConn),
	})
}

func newFromRegistered() plugin.Plugin {
	registered.RLock()
	defer registered.RUnlock()
	return NewWithOptions(WithConn(registered.conn))
}

type PostgresOptionFunc func(*MetadataStorePostgres)

func WithLogger(logger *slog.Logger) PostgresOptionFunc {
	return func(m *MetadataStorePostgres) {
		m.logger = logger
	}
}

func WithPromRegistry(registry prometheus.Registerer) PostgresOptionFunc {
	return func(m *MetadataStorePostgres) {
		m.promRegistry = registry
	}
}

// WithConn replaces every connection setting at once
func WithConn(conn gormstore.Conn) PostgresOptionFunc {
	return func(m *MetadataStorePostgres) {
		m.conn = conn
	}
}

func WithHost(host string) PostgresOptionFunc {
	return func(m *MetadataStorePostgres) { m.conn.Host = host }
}

func WithPort(port uint64) PostgresOptionFunc {
	return func(m *MetadataStorePostgres) { m.conn.Port = port }
}

func WithUser(user string) PostgresOptionFunc {
	return func(m *MetadataStorePostgres) { m.conn.User = user }
}

func WithPassword(password string) PostgresOptionFunc {
	return func(m *MetadataStorePostgres) { m.conn.Password = password }
}

func WithDatabase(database string) PostgresOptionFunc {
	return func(m *MetadataStorePostgres) { m.conn.Database = database }
}

func WithSSLMode(sslMode string) PostgresOptionFunc {
	return func(m *MetadataStorePostgres) { m.conn.SSLMode = sslMode }
}

func WithTimeZone(timeZone string) PostgresOptionFunc {
	return func(m *MetadataStorePostgres) { m.conn.TimeZone = timeZone }
}

func WithDSN(dsn string) PostgresOptionFunc {
	return func(m *MetadataStorePostgres) { m.conn.DSN = dsn }
}
