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
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/blinklabs-io/gavel/database/plugin"
	"github.com/blinklabs-io/gavel/database/plugin/metadata/internal/gormstore"
	"github.com/go-sql-driver/mysql"
	"github.com/prometheus/client_golang/prometheus"
	gormmysql "gorm.io/driver/mysql"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// mysqlErrUnknownDatabase is returned by the server for a missing schema
const mysqlErrUnknownDatabase = 1049

// MetadataStoreMysql stores metadata in MySQL
type MetadataStoreMysql struct {
	*gormstore.Store
	promRegistry prometheus.Registerer
	logger       *slog.Logger

	conn gormstore.Conn
}

// NewWithOptions creates an unstarted store, filling defaults for any
// connection setting left empty
func NewWithOptions(opts ...MysqlOptionFunc) *MetadataStoreMysql {
	d := &MetadataStoreMysql{}
	for _, opt := range opts {
		opt(d)
	}
	d.conn.Fill(defaultConn)
	return d
}

// Configure implements plugin.Configurable
func (d *MetadataStoreMysql) Configure(
	logger *slog.Logger,
	promRegistry prometheus.Registerer,
) {
	d.logger = logger
	d.promRegistry = promRegistry
}

// DSN returns the connection string and the database it selects
func (d *MetadataStoreMysql) DSN() (string, string) {
	c := d.conn
	if dsn := strings.TrimSpace(c.DSN); dsn != "" {
		if parsedDB, ok := parseMysqlDatabaseFromDSN(dsn); ok {
			return dsn, parsedDB
		}
		return dsn, ""
	}
	cfg := mysql.Config{
		User:                 c.User,
		Passwd:               c.Password,
		Net:                  "tcp",
		Addr:                 net.JoinHostPort(c.Host, strconv.FormatUint(c.Port, 10)),
		DBName:               c.Database,
		ParseTime:            true,
		AllowNativePasswords: true,
		Params:               map[string]string{},
	}
	if c.TimeZone != "" {
		loc, err := time.LoadLocation(c.TimeZone)
		if err != nil {
			loc = time.UTC
		}
		cfg.Loc = loc
	}
	if c.SSLMode != "" {
		cfg.Params["tls"] = c.SSLMode
	}
	return cfg.FormatDSN(), c.Database
}

func (d *MetadataStoreMysql) open(dsn string) (*gormstore.Store, error) {
	return gormstore.Open(
		gormmysql.Open(dsn),
		gormstore.Config{
			Logger:       d.logger,
			PromRegistry: d.promRegistry,
			Backend:      "mysql",
			PrepareStmt:  true,
		},
	)
}

func (d *MetadataStoreMysql) Start() error {
	if d.Store != nil {
		return nil
	}
	if d.logger == nil {
		d.logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	dsn, database := d.DSN()
	store, err := d.open(dsn)
	if err != nil {
		var mysqlErr *mysql.MySQLError
		if !errors.As(err, &mysqlErr) || mysqlErr.Number != mysqlErrUnknownDatabase {
			return err
		}
		created, createErr := ensureDatabaseExists(dsn, database)
		if createErr != nil {
			return fmt.Errorf("create database %q: %w", database, createErr)
		}
		if !created {
			return err
		}
		if store, err = d.open(dsn); err != nil {
			return err
		}
	}
	if err := store.ConfigurePool(); err != nil {
		return errors.Join(err, store.Close())
	}
	d.logger.Info(
		"connected to mysql metadata store",
		"component", "database",
		"host", d.conn.Host,
		"port", d.conn.Port,
		"database", database,
	)
	d.Store = store
	return nil
}

func ensureDatabaseExists(dsn string, dbName string) (bool, error) {
	if dbName == "" {
		return false, nil
	}
	adminDsn, ok := stripDatabaseFromDSN(dsn)
	if !ok {
		return false, nil
	}
	adminDb, err := gorm.Open(
		gormmysql.Open(adminDsn),
		&gorm.Config{
			Logger:                 gormlogger.Discard,
			SkipDefaultTransaction: true,
		},
	)
	if err != nil {
		return false, err
	}
	sqlAdminDb, err := adminDb.DB()
	if err != nil {
		return false, err
	}
	defer sqlAdminDb.Close()
	quoted := strings.ReplaceAll(dbName, "`", "``")
	if result := adminDb.Exec("CREATE DATABASE IF NOT EXISTS `" + quoted + "`"); result.Error != nil {
		return false, result.Error
	}
	return true, nil
}

func parseMysqlDatabaseFromDSN(dsn string) (string, bool) {
	base, _, _ := strings.Cut(dsn, "?")
	slash := strings.LastIndex(base, "/")
	if slash < 0 || slash == len(base)-1 {
		return "", false
	}
	return base[slash+1:], true
}

func stripDatabaseFromDSN(dsn string) (string, bool) {
	base, params, hasParams := strings.Cut(dsn, "?")
	slash := strings.LastIndex(base, "/")
	if slash < 0 {
		return "", false
	}
	base = base[:slash+1]
	if !hasParams || params == "" {
		return base, true
	}
	return base + "?" + params, true
}

func (d *MetadataStoreMysql) Stop() error {
	return d.Close()
}

func (d *MetadataStoreMysql) Close() error {
	// Guard against a store that was never started
	if d.Store == nil {
		return nil
	}
	err := d.Store.Close()
	d.Store = nil
	return err
}

var _ plugin.Configurable = (*MetadataStoreMysql)(nil)
