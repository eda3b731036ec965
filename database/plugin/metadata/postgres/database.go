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
	"errors"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/blinklabs-io/gavel/database/plugin"
	"github.com/blinklabs-io/gavel/database/plugin/metadata/internal/gormstore"
	"github.com/prometheus/client_golang/prometheus"
	"gorm.io/driver/postgres"
)

// MetadataStorePostgres stores metadata in Postgres
type MetadataStorePostgres struct {
	*gormstore.Store
	promRegistry prometheus.Registerer
	logger       *slog.Logger

	conn gormstore.Conn
}

// NewWithOptions creates an unstarted store, filling defaults for any
// connection setting left empty
func NewWithOptions(opts ...PostgresOptionFunc) *MetadataStorePostgres {
	d := &MetadataStorePostgres{}
	for _, opt := range opts {
		opt(d)
	}
	d.conn.Fill(defaultConn)
	return d
}

// Configure implements plugin.Configurable
func (d *MetadataStorePostgres) Configure(
	logger *slog.Logger,
	promRegistry prometheus.Registerer,
) {
	d.logger = logger
	d.promRegistry = promRegistry
}

// DSN returns the connection string, built from the individual settings
// unless an explicit DSN was given
func (d *MetadataStorePostgres) DSN() string {
	c := d.conn
	if dsn := strings.TrimSpace(c.DSN); dsn != "" {
		return dsn
	}
	parts := []string{
		"host=" + c.Host,
		"user=" + c.User,
		"password=" + c.Password,
		"dbname=" + c.Database,
		"port=" + strconv.FormatUint(c.Port, 10),
		"sslmode=" + c.SSLMode,
	}
	if c.TimeZone != "" {
		parts = append(parts, "TimeZone="+c.TimeZone)
	}
	return strings.Join(parts, " ")
}

// Start implements the plugin.Plugin interface
func (d *MetadataStorePostgres) Start() error {
	if d.Store != nil {
		return nil
	}
	if d.logger == nil {
		d.logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	store, err := gormstore.Open(
		postgres.Open(d.DSN()),
		gormstore.Config{
			Logger:       d.logger,
			PromRegistry: d.promRegistry,
			Backend:      "postgres",
			PrepareStmt:  true,
		},
	)
	if err != nil {
		return err
	}
	if err := store.ConfigurePool(); err != nil {
		return errors.Join(err, store.Close())
	}
	d.logger.Info(
		"connected to postgres metadata store",
		append([]any{"component", "database"}, d.conn.LogAttrs()...)...,
	)
	d.Store = store
	return nil
}

// Stop implements the plugin.Plugin interface
func (d *MetadataStorePostgres) Stop() error {
	return d.Close()
}

func (d *MetadataStorePostgres) Close() error {
	// Guard against a store that was never started
	if d.Store == nil {
		return nil
	}
	err := d.Store.Close()
	d.Store = nil
	return err
}

var _ plugin.Configurable = (*MetadataStorePostgres)(nil)
