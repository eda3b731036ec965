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
	"time"

	"github.com/blinklabs-io/gavel/database/types"
)

type CommitTimestampError struct {
	MetadataTimestamp int64
	BlobTimestamp     int64
}

func (e CommitTimestampError) Error() string {
	return fmt.Sprintf(
		"commit timestamp mismatch: %d (metadata) != %d (blob)",
		e.MetadataTimestamp,
		e.BlobTimestamp,
	)
}

func (d *Database) blobCommitTimestamp() (int64, error) {
	ts, err := d.Blob().GetCommitTimestamp()
	if err != nil {
		// Nothing has been committed to the blob store yet
		if errors.Is(err, types.ErrBlobKeyNotFound) {
			return 0, nil
		}
		return 0, err
	}
	return ts, nil
}

func (d *Database) checkCommitTimestamp() error {
	// Get value from metadata
	metadataTimestamp, metadataErr := d.Metadata().GetCommitTimestamp()
	if metadataErr != nil {
		return fmt.Errorf(
			"failed to get metadata timestamp from plugin: %w",
			metadataErr,
		)
	}
	// Get value from blob
	blobTimestamp, blobErr := d.blobCommitTimestamp()
	if blobErr != nil {
		return fmt.Errorf(
			"failed to get blob timestamp from plugin: %w",
			blobErr,
		)
	}
	// No timestamp in either database
	if metadataTimestamp <= 0 && blobTimestamp <= 0 {
		return nil
	}
	// Compare values
	if blobTimestamp != metadataTimestamp {
		return CommitTimestampError{
			MetadataTimestamp: metadataTimestamp,
			BlobTimestamp:     blobTimestamp,
		}
	}
	return nil
}

func (d *Database) loadCommitTimestamp() error {
	ts, err := d.Metadata().GetCommitTimestamp()
	if err != nil {
		return fmt.Errorf("failed to get metadata timestamp from plugin: %w", err)
	}
	d.commitTimestampMutex.Lock()
	defer d.commitTimestampMutex.Unlock()
	d.commitTimestamp = max(d.commitTimestamp, ts)
	return nil
}

// nextCommitTimestamp returns the current time in milliseconds, bumped past
// the previously issued timestamp when the clock has not advanced
func (d *Database) nextCommitTimestamp() int64 {
	d.commitTimestampMutex.Lock()
	defer d.commitTimestampMutex.Unlock()
	ts := max(time.Now().UnixMilli(), d.commitTimestamp+1)
	d.commitTimestamp = ts
	return ts
}

func (d *Database) updateCommitTimestamp(txn *Txn, timestamp int64) error {
	// Update metadata
	if err := d.Metadata().SetCommitTimestamp(timestamp, txn.Metadata()); err != nil {
		return err
	}
	// Update blob
	if err := d.Blob().SetCommitTimestamp(timestamp, txn.Blob()); err != nil {
		return err
	}
	return nil
}

// RecoverCommitTimestampConflict repairs a blob store that is ahead of the
// metadata store after a partial commit. Journal entries written after the
// last metadata commit are removed and the blob commit timestamp is reset to
// match the metadata store.
func (d *Database) RecoverCommitTimestampConflict() error {
	metadataTimestamp, err := d.Metadata().GetCommitTimestamp()
	if err != nil {
		return fmt.Errorf("failed to get metadata timestamp from plugin: %w", err)
	}
	blobTimestamp, err := d.blobCommitTimestamp()
	if err != nil {
		return fmt.Errorf("failed to get blob timestamp from plugin: %w", err)
	}
	if blobTimestamp == metadataTimestamp {
		return nil
	}
	if blobTimestamp < metadataTimestamp {
		return fmt.Errorf(
			"cannot recover: blob store is behind metadata store: %w",
			CommitTimestampError{
				MetadataTimestamp: metadataTimestamp,
				BlobTimestamp:     blobTimestamp,
			},
		)
	}
	txn := NewBlobOnlyTxn(d, true)
	err = txn.Do(func(txn *Txn) error {
		removed, err := d.truncateJournal(txn, metadataTimestamp)
		if err != nil {
			return err
		}
		if err := d.Blob().SetCommitTimestamp(metadataTimestamp, txn.Blob()); err != nil {
			return err
		}
		d.logger.Warn(
			"recovered commit timestamp conflict",
			"metadata_timestamp", metadataTimestamp,
			"blob_timestamp", blobTimestamp,
			"journal_entries_removed", removed,
		)
		return nil
	})
	if err != nil {
		return fmt.Errorf("recover commit timestamp: %w", err)
	}
	return d.loadCommitTimestamp()
}
