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

package mysql

import (
	"log/slog"
	"sync"

	"github.com/blinklabs-io/gavel/database/plugin"
	"github.com/blinklabs-io/gavel/database/plugin/metadata/internal/gormstore"
	"github.com/prometheus/client_golang/prometheus"
)

var defaultConn = gormstore.Conn{
	Host:     "localhost",
	Port:     3306,
	User:     "root",
	Database: "gavel",
	TimeZone: "UTC",
}

var registered struct {
	sync.RWMutex
	conn gormstore.Conn
}

func init() {
	plugin.Register(plugin.PluginEntry{
		Type:               plugin.PluginTypeMetadata,
		Name:               "mysql",
		Description:        "MySQL relational database",
		NewFromOptionsFunc: newFromRegistered,
		Options:            registered.conn.Options("MySQL", defaultConn),
	})
}

func newFromRegistered() plugin.Plugin {
	registered.RLock()
	defer registered.RUnlock()
	return NewWithOptions(WithConn(registered.conn))
}

type MysqlOptionFunc func(*MetadataStoreMysql)

func WithLogger(logger *slog.Logger) MysqlOptionFunc {
	return func(m *MetadataStoreMysql) {
		m.logger = logger
	}
}

func WithPromRegistry(registry prometheus.Registerer) MysqlOptionFunc {
	return func(m *MetadataStoreMysql) {
		m.promRegistry = registry
	}
}

// WithConn replaces every connection setting at once
func WithConn(conn gormstore.Conn) MysqlOptionFunc {
	return func(m *MetadataStoreMysql) {
		m.conn = conn
	}
}

func WithHost(host string) MysqlOptionFunc {
	return func(m *MetadataStoreMysql) { m.conn.Host = host }
}

func WithPort(port uint64) MysqlOptionFunc {
	return func(m *MetadataStoreMysql) { m.conn.Port = port }
}

func WithUser(user string) MysqlOptionFunc {
	return func(m *MetadataStoreMysql) { m.conn.User = user }
}

func WithPassword(password string) MysqlOptionFunc {
	return func(m *MetadataStoreMysql) { m.conn.Password = password }
}

func WithDatabase(database string) MysqlOptionFunc {
	return func(m *MetadataStoreMysql) { m.conn.Database = database }
}

// WithSSLMode sets the tls parameter of the driver, e.g. true or
// skip-verify
func WithSSLMode(sslMode string) MysqlOptionFunc {
	return func(m *MetadataStoreMysql) { m.conn.SSLMode = sslMode }
}

func WithTimeZone(timeZone string) MysqlOptionFunc {
	return func(m *MetadataStoreMysql) { m.conn.TimeZone = timeZone }
}

func WithDSN(dsn string) MysqlOptionFunc {
	return func(m *MetadataStoreMysql) { m.conn.DSN = dsn }
}
