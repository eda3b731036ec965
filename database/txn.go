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
	"fmt"
	"sync"

	"github.com/blinklabs-io/gavel/database/types"
)

type txnScope uint8

const (
	scopeBlob txnScope = 1 << iota
	scopeMetadata
	scopeBoth = scopeBlob | scopeMetadata
)

// Txn spans the blob and metadata stores. On commit the blob side is
// written first, so a journal entry can exist without its state change but
// never the reverse.
type Txn struct {
	db              *Database
	blobTxn         types.Txn
	metadataTxn     types.Txn
	lock            sync.Mutex
	finished        bool
	readWrite       bool
	commitTimestamp int64
}

func newTxn(db *Database, scope txnScope, readWrite bool) *Txn {
	t := &Txn{db: db, readWrite: readWrite}
	if bs := db.Blob(); bs != nil && scope&scopeBlob != 0 {
		t.blobTxn = bs.NewTransaction(readWrite)
	}
	if ms := db.Metadata(); ms != nil && scope&scopeMetadata != 0 {
		t.metadataTxn = ms.Transaction()
	}
	return t
}

// NewTxn opens a transaction on both stores
func NewTxn(db *Database, readWrite bool) *Txn {
	return newTxn(db, scopeBoth, readWrite)
}

// NewBlobOnlyTxn opens a transaction on the journal store only
func NewBlobOnlyTxn(db *Database, readWrite bool) *Txn {
	return newTxn(db, scopeBlob, readWrite)
}

// NewMetadataOnlyTxn opens a transaction on the state store only
func NewMetadataOnlyTxn(db *Database, readWrite bool) *Txn {
	return newTxn(db, scopeMetadata, readWrite)
}

func (t *Txn) Metadata() types.Txn {
	return t.metadataTxn
}

// MetadataTxn lets metadata stores unwrap a *Txn passed in place of their
// own transaction type
func (t *Txn) MetadataTxn() types.Txn {
	return t.metadataTxn
}

func (t *Txn) Blob() types.Txn {
	return t.blobTxn
}

// CommitTimestamp returns the timestamp recorded when this transaction
// commits. It is reserved on first use.
func (t *Txn) CommitTimestamp() int64 {
	t.lock.Lock()
	defer t.lock.Unlock()
	return t.reserveCommitTimestamp()
}

func (t *Txn) reserveCommitTimestamp() int64 {
	if t.commitTimestamp == 0 {
		t.commitTimestamp = t.db.nextCommitTimestamp()
	}
	return t.commitTimestamp
}

// Do runs fn and commits, or rolls back if fn fails
func (t *Txn) Do(fn func(*Txn) error) error {
	if err := fn(t); err != nil {
		if rbErr := t.Rollback(); rbErr != nil {
			return errors.Join(err, fmt.Errorf("rollback: %w", rbErr))
		}
		return err
	}
	if err := t.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func (t *Txn) Commit() error {
	t.lock.Lock()
	defer t.lock.Unlock()
	if t.finished {
		return nil
	}
	if !t.readWrite {
		return t.rollback()
	}
	if t.blobTxn == nil && t.metadataTxn == nil {
		t.finished = true
		return types.ErrNoStoreAvailable
	}
	defer func() { t.finished = true }()
	if t.blobTxn != nil && t.metadataTxn != nil {
		ts := t.reserveCommitTimestamp()
		if err := t.db.updateCommitTimestamp(t, ts); err != nil {
			t.discard()
			return fmt.Errorf("record commit timestamp: %w", err)
		}
	}
	if t.blobTxn != nil {
		if err := t.blobTxn.Commit(); err != nil {
			t.discard()
			return fmt.Errorf("journal store commit: %w", err)
		}
	}
	if t.metadataTxn != nil {
		if err := t.metadataTxn.Commit(); err != nil {
			t.db.logger.Error(
				"state store commit failed after journal store commit",
				"error", err,
				"commit_timestamp", t.commitTimestamp,
			)
			_ = t.metadataTxn.Rollback()
			return fmt.Errorf("%w: %w", types.ErrPartialCommit, err)
		}
	}
	return nil
}

// discard rolls back whatever is still open, ignoring errors
func (t *Txn) discard() {
	if t.blobTxn != nil {
		_ = t.blobTxn.Rollback()
	}
	if t.metadataTxn != nil {
		_ = t.metadataTxn.Rollback()
	}
}

func (t *Txn) Rollback() error {
	t.lock.Lock()
	defer t.lock.Unlock()
	return t.rollback()
}

func (t *Txn) rollback() error {
	if t.finished {
		return nil
	}
	t.finished = true
	var errs []error
	if t.blobTxn != nil {
		if err := t.blobTxn.Rollback(); err != nil {
			errs = append(errs, fmt.Errorf("journal store rollback: %w", err))
		}
	}
	if t.metadataTxn != nil {
		if err := t.metadataTxn.Rollback(); err != nil {
			errs = append(errs, fmt.Errorf("state store rollback: %w", err))
		}
	}
	return errors.Join(errs...)
}

// Release rolls back the transaction and logs any error. It is meant for
// defer.
func (t *Txn) Release() {
	if err := t.Rollback(); err != nil {
		t.db.logger.Debug("transaction release failed", "error", err)
	}
}
