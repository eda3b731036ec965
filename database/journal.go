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
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/blinklabs-io/gavel/database/types"
	"github.com/blinklabs-io/gouroboros/cbor"
)

const (
	journalEntryKeyPrefix = "journal_entry_"
	journalHeadKey        = "journal_head"
)

// JournalEntry records one committed governance operation in the blob store
type JournalEntry struct {
	cbor.StructAsArray
	Sequence    uint64
	Timestamp   int64
	Operation   string
	Caller      string
	Target      string
	Amount      uint64
	ProposalID  uint64
	Support     bool
	Block       uint64
	Description string
}

func journalEntryKey(seq uint64) []byte {
	return fmt.Appendf(nil, "%s%020d", journalEntryKeyPrefix, seq)
}

// Commit applies a state change to the metadata store and appends the
// journal entry to the blob store in a single transaction. It returns the
// sequence number assigned to the entry.
func (d *Database) Commit(change *StateChange, entry *JournalEntry) (uint64, error) {
	if entry == nil {
		return 0, errors.New("nil journal entry")
	}
	d.journalMutex.Lock()
	defer d.journalMutex.Unlock()
	var seq uint64
	txn := d.Transaction(true)
	err := txn.Do(func(txn *Txn) error {
		if err := d.applyStateChange(txn, change); err != nil {
			return err
		}
		head, err := d.journalHead(txn)
		if err != nil {
			return err
		}
		tmpEntry := *entry
		tmpEntry.Sequence = head + 1
		tmpEntry.Timestamp = txn.CommitTimestamp()
		if err := d.putJournalEntry(txn, &tmpEntry); err != nil {
			return err
		}
		seq = tmpEntry.Sequence
		return nil
	})
	if err != nil {
		return 0, err
	}
	return seq, nil
}

func (d *Database) putJournalEntry(txn *Txn, entry *JournalEntry) error {
	entryCbor, err := cbor.Encode(entry)
	if err != nil {
		return fmt.Errorf("encode journal entry: %w", err)
	}
	if err := d.Blob().Set(txn.Blob(), journalEntryKey(entry.Sequence), entryCbor); err != nil {
		return fmt.Errorf("write journal entry %d: %w", entry.Sequence, err)
	}
	return d.setJournalHead(txn, entry.Sequence)
}

func (d *Database) journalHead(txn *Txn) (uint64, error) {
	val, err := d.Blob().Get(txn.Blob(), []byte(journalHeadKey))
	if err != nil {
		if errors.Is(err, types.ErrBlobKeyNotFound) {
			return 0, nil
		}
		return 0, fmt.Errorf("read journal head: %w", err)
	}
	if len(val) != 8 {
		return 0, fmt.Errorf("invalid journal head length %d", len(val))
	}
	return binary.BigEndian.Uint64(val), nil
}

func (d *Database) setJournalHead(txn *Txn, seq uint64) error {
	if err := d.Blob().Set(txn.Blob(), []byte(journalHeadKey), binary.BigEndian.AppendUint64(nil, seq)); err != nil {
		return fmt.Errorf("write journal head: %w", err)
	}
	return nil
}

// JournalHead returns the sequence number of the last journal entry, or 0 if
// the journal is empty
func (d *Database) JournalHead() (uint64, error) {
	txn := NewBlobOnlyTxn(d, false)
	defer txn.Release()
	return d.journalHead(txn)
}

// Journal returns up to limit journal entries starting at sequence from. A
// limit of 0 returns every remaining entry.
func (d *Database) Journal(from uint64, limit int) ([]JournalEntry, error) {
	txn := NewBlobOnlyTxn(d, false)
	defer txn.Release()
	var ret []JournalEntry
	err := d.iterateJournal(txn, from, func(_ []byte, entry JournalEntry) (bool, error) {
		ret = append(ret, entry)
		return limit <= 0 || len(ret) < limit, nil
	})
	if err != nil {
		return nil, err
	}
	return ret, nil
}

// iterateJournal calls fn for each entry in sequence order starting at from
// until fn returns false or an error
func (d *Database) iterateJournal(
	txn *Txn,
	from uint64,
	fn func(key []byte, entry JournalEntry) (bool, error),
) error {
	prefix := []byte(journalEntryKeyPrefix)
	it := d.Blob().NewIterator(
		txn.Blob(),
		types.BlobIteratorOptions{Prefix: prefix},
	)
	defer it.Close()
	for it.Seek(journalEntryKey(from)); it.ValidForPrefix(prefix); it.Next() {
		item := it.Item()
		val, err := item.ValueCopy(nil)
		if err != nil {
			return fmt.Errorf("read journal entry: %w", err)
		}
		var entry JournalEntry
		if _, err := cbor.Decode(val, &entry); err != nil {
			return fmt.Errorf("decode journal entry %s: %w", item.Key(), err)
		}
		cont, err := fn(item.Key(), entry)
		if err != nil {
			return err
		}
		if !cont {
			break
		}
	}
	return it.Err()
}

// truncateJournal removes journal entries committed after timestamp and
// moves the head back to the last remaining entry
func (d *Database) truncateJournal(txn *Txn, timestamp int64) (int, error) {
	var staleKeys [][]byte
	var head uint64
	err := d.iterateJournal(txn, 0, func(key []byte, entry JournalEntry) (bool, error) {
		if entry.Timestamp > timestamp {
			staleKeys = append(staleKeys, append([]byte(nil), key...))
		} else {
			head = entry.Sequence
		}
		return true, nil
	})
	if err != nil {
		return 0, err
	}
	for _, key := range staleKeys {
		if err := d.Blob().Delete(txn.Blob(), key); err != nil {
			return 0, fmt.Errorf("delete journal entry %s: %w", key, err)
		}
	}
	if head == 0 {
		if err := d.Blob().Delete(txn.Blob(), []byte(journalHeadKey)); err != nil {
			return 0, fmt.Errorf("delete journal head: %w", err)
		}
		return len(staleKeys), nil
	}
	if err := d.setJournalHead(txn, head); err != nil {
		return 0, err
	}
	return len(staleKeys), nil
}
