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


// Package gormstore holds the metadata store logic shared by the SQL
// backends. Each backend opens its own dialector and embeds a Store.
package gormstore

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/blinklabs-io/gavel/database/models"
	"github.com/blinklabs-io/gavel/database/types"
	"github.com/prometheus/client_golang/prometheus"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
	"gorm.io/plugin/opentelemetry/tracing"
)

// gormTxn wraps a gorm transaction and implements types.Txn
type gormTxn struct {
	db       *gorm.DB
	metrics  *metrics
	finished bool
	beginErr error
}

func newGormTxn(db *gorm.DB, m *metrics) *gormTxn {
	return &gormTxn{db: db, metrics: m}
}

func newFailedGormTxn(err error) *gormTxn {
	return &gormTxn{beginErr: err}
}

func (t *gormTxn) Commit() error {
	if t.beginErr != nil {
		return t.beginErr
	}
	if t.finished {
		return nil
	}
	if t.db == nil {
		t.finished = true
		return nil
	}
	if result := t.db.Commit(); result.Error != nil {
		t.metrics.observeTxn("commit_error")
		return result.Error
	}
	t.finished = true
	t.metrics.observeTxn("commit")
	return nil
}

func (t *gormTxn) Rollback() error {
	if t.beginErr != nil {
		return t.beginErr
	}
	if t.finished {
		return nil
	}
	if t.db != nil {
		if result := t.db.Rollback(); result.Error != nil {
			return result.Error
		}
	}
	t.finished = true
	t.metrics.observeTxn("rollback")
	return nil
}

type Config struct {
	Logger       *slog.Logger
	PromRegistry prometheus.Registerer
	// Backend labels the store metrics
	Backend     string
	PrepareStmt bool
}

// Store implements the governance metadata queries on a gorm handle
type Store struct {
	db      *gorm.DB
	logger  *slog.Logger
	metrics *metrics
}

// Open connects through the dialector, enables tracing and migrates the
// schema
func Open(dialector gorm.Dialector, cfg Config) (*Store, error) {
	logger := cfg.Logger
	if logger == nil {
		// Create logger to throw away logs
		// We do this so we don't have to add guards around every log operation
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	db, err := gorm.Open(
		dialector,
		&gorm.Config{
			Logger:                 gormlogger.Discard,
			SkipDefaultTransaction: true,
			PrepareStmt:            cfg.PrepareStmt,
		},
	)
	if err != nil {
		return nil, err
	}
	s := &Store{
		db:      db,
		logger:  logger,
		metrics: newMetrics(cfg.Backend, cfg.PromRegistry),
	}
	// Configure tracing for GORM
	if err := db.Use(tracing.NewPlugin(tracing.WithoutMetrics())); err != nil {
		_ = s.Close()
		return nil, err
	}
	if err := s.migrate(); err != nil {
		_ = s.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) migrate() error {
	for _, model := range models.MigrateModels {
		s.logger.Debug("migrating table", "model", fmt.Sprintf("%T", model))
		if err := s.db.AutoMigrate(model); err != nil {
			return fmt.Errorf("migrate %T: %w", model, err)
		}
	}
	return nil
}

// Close gets the database handle from gorm and closes it
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("get database handle: %w", err)
	}
	return sqlDB.Close()
}

// DB returns the database handle
func (s *Store) DB() *gorm.DB {
	return s.db
}

// Logger returns the store logger
func (s *Store) Logger() *slog.Logger {
	return s.logger
}

// Transaction begins a gorm transaction. A failure to begin is reported
// by every later use of the returned handle.
func (s *Store) Transaction() types.Txn {
	db := s.db.Begin()
	if db.Error != nil {
		s.logger.Error(
			"failed to begin transaction",
			"component", "database",
			"error", db.Error,
		)
		s.metrics.observeTxn("begin_error")
		return newFailedGormTxn(db.Error)
	}
	return newGormTxn(db, s.metrics)
}

// dbFromTxn returns the base handle for a nil txn, unwraps known txn types
// and returns nil for anything else
func (s *Store) dbFromTxn(txn types.Txn) *gorm.DB {
	if txn == nil {
		return s.db
	}
	if stx, ok := txn.(*gormTxn); ok && stx != nil {
		return stx.db
	}
	if provider, ok := txn.(interface{ MetadataTxn() types.Txn }); ok {
		if inner, ok := provider.MetadataTxn().(*gormTxn); ok && inner != nil {
			return inner.db
		}
	}
	return nil
}

// resolveDB returns the *gorm.DB for the given transaction, or the base
// handle if txn is nil
func (s *Store) resolveDB(txn types.Txn) (*gorm.DB, error) {
	if stx, ok := txn.(*gormTxn); ok && stx != nil {
		if stx.beginErr != nil {
			return nil, stx.beginErr
		}
		if stx.finished {
			return nil, types.ErrTxnFinished
		}
	}
	db := s.dbFromTxn(txn)
	if db == nil {
		return nil, types.ErrTxnWrongType
	}
	return db, nil
}

func isNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

// ConfigurePool applies the connection pool limits used for networked
// database servers
func (s *Store) ConfigurePool() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)
	return nil
}
