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


package blob

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/blinklabs-io/gavel/database/sops"
	"github.com/blinklabs-io/gavel/database/types"
)

const DefaultObjectTimeout = 60 * time.Second

// ObjectClient is the minimal API of a remote object store. GetObject must
// return types.ErrBlobKeyNotFound for a missing key and ListKeys must return
// keys in ascending order.
type ObjectClient interface {
	GetObject(ctx context.Context, key string) ([]byte, error)
	PutObject(ctx context.Context, key string, val []byte) error
	DeleteObject(ctx context.Context, key string) error
	ListKeys(ctx context.Context, prefix string) ([]string, error)
}

// ObjectStore implements the transactional blob API on top of an object
// store. Writes are buffered in the transaction and uploaded on commit.
type ObjectStore struct {
	client  ObjectClient
	logger  *slog.Logger
	metrics *Metrics
	timeout time.Duration
	encrypt bool
}

type ObjectStoreOptions struct {
	Logger  *slog.Logger
	Metrics *Metrics
	Timeout time.Duration
	// Encrypt seals every value in a SOPS envelope before upload
	Encrypt bool
}

func NewObjectStore(client ObjectClient, opts ObjectStoreOptions) *ObjectStore {
	s := &ObjectStore{
		client:  client,
		logger:  opts.Logger,
		metrics: opts.Metrics,
		timeout: opts.Timeout,
		encrypt: opts.Encrypt,
	}
	if s.logger == nil {
		s.logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	if s.timeout == 0 {
		s.timeout = DefaultObjectTimeout
	}
	return s
}

type objectTxn struct {
	store     *ObjectStore
	writes    *WriteBuffer
	finished  bool
	readWrite bool
}

func (t *objectTxn) Commit() error {
	if t.finished {
		return nil
	}
	t.finished = true
	if !t.readWrite || t.writes.Len() == 0 {
		return nil
	}
	ctx, cancel := t.store.opContext()
	defer cancel()
	return t.writes.Apply(
		func(key string, val []byte) error {
			return t.store.put(ctx, key, val)
		},
		func(key string) error {
			return t.store.delete(ctx, key)
		},
	)
}

func (t *objectTxn) Rollback() error {
	if t.finished {
		return nil
	}
	t.finished = true
	t.writes.Reset()
	return nil
}

func (s *ObjectStore) opContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), s.timeout)
}

func (s *ObjectStore) NewTransaction(readWrite bool) types.Txn {
	return &objectTxn{
		store:     s,
		writes:    NewWriteBuffer(),
		readWrite: readWrite,
	}
}

func (s *ObjectStore) validateTxn(txn types.Txn) (*objectTxn, error) {
	if txn == nil {
		return nil, types.ErrNilTxn
	}
	t, ok := txn.(*objectTxn)
	if !ok || t.store != s {
		return nil, types.ErrTxnWrongType
	}
	if t.finished {
		return nil, types.ErrTxnFinished
	}
	if s.client == nil {
		return nil, types.ErrBlobStoreUnavailable
	}
	return t, nil
}

func (s *ObjectStore) Get(txn types.Txn, key []byte) ([]byte, error) {
	t, err := s.validateTxn(txn)
	if err != nil {
		return nil, err
	}
	if val, ok := t.writes.Get(string(key)); ok {
		if val == nil {
			return nil, types.ErrBlobKeyNotFound
		}
		return val, nil
	}
	ctx, cancel := s.opContext()
	defer cancel()
	return s.get(ctx, string(key))
}

func (s *ObjectStore) Set(txn types.Txn, key, val []byte) error {
	t, err := s.validateTxn(txn)
	if err != nil {
		return err
	}
	if !t.readWrite {
		return types.ErrTxnReadOnly
	}
	t.writes.Set(string(key), val)
	return nil
}

func (s *ObjectStore) Delete(txn types.Txn, key []byte) error {
	t, err := s.validateTxn(txn)
	if err != nil {
		return err
	}
	if !t.readWrite {
		return types.ErrTxnReadOnly
	}
	t.writes.Delete(string(key))
	return nil
}

func (s *ObjectStore) NewIterator(
	txn types.Txn,
	opts types.BlobIteratorOptions,
) types.BlobIterator {
	t, err := s.validateTxn(txn)
	if err != nil {
		return &ErrorIterator{Error: err}
	}
	ctx, cancel := s.opContext()
	defer cancel()
	keys, err := s.client.ListKeys(ctx, string(opts.Prefix))
	if err != nil {
		s.logger.Error(
			fmt.Sprintf("object list failed: %s", err),
			"component", "database",
		)
		return &ErrorIterator{Error: err}
	}
	s.metrics.Observe("list", 0)
	keys = t.writes.MergeKeys(keys, string(opts.Prefix))
	return NewKeyIterator(
		keys,
		opts.Reverse,
		func(key string) ([]byte, error) {
			return s.Get(t, []byte(key))
		},
	)
}

func (s *ObjectStore) GetCommitTimestamp() (int64, error) {
	return ReadCommitTimestamp(s)
}

func (s *ObjectStore) SetCommitTimestamp(timestamp int64, txn types.Txn) error {
	return WriteCommitTimestamp(s, timestamp, txn)
}

func (s *ObjectStore) get(ctx context.Context, key string) ([]byte, error) {
	data, err := s.client.GetObject(ctx, key)
	if err != nil {
		if !errors.Is(err, types.ErrBlobKeyNotFound) {
			s.logger.Error(
				fmt.Sprintf("object get %q failed: %s", key, err),
				"component", "database",
			)
		}
		return nil, err
	}
	s.metrics.Observe("get", len(data))
	// Values written before encryption was enabled are returned as stored
	if sops.IsEncrypted(data) {
		plaintext, err := sops.Decrypt(data)
		if err != nil {
			return nil, fmt.Errorf("object %q: %w", key, err)
		}
		return plaintext, nil
	}
	return data, nil
}

func (s *ObjectStore) put(ctx context.Context, key string, val []byte) error {
	if s.encrypt {
		ciphertext, err := sops.Encrypt(val)
		if err != nil {
			return fmt.Errorf("object %q: %w", key, err)
		}
		val = ciphertext
	}
	if err := s.client.PutObject(ctx, key, val); err != nil {
		s.logger.Error(
			fmt.Sprintf("object put %q failed: %s", key, err),
			"component", "database",
		)
		return err
	}
	s.metrics.Observe("set", len(val))
	s.logger.Debug(
		fmt.Sprintf("object put %q ok (%d bytes)", key, len(val)),
		"component", "database",
	)
	return nil
}

func (s *ObjectStore) delete(ctx context.Context, key string) error {
	err := s.client.DeleteObject(ctx, key)
	if err != nil && !errors.Is(err, types.ErrBlobKeyNotFound) {
		s.logger.Error(
			fmt.Sprintf("object delete %q failed: %s", key, err),
			"component", "database",
		)
		return err
	}
	s.metrics.Observe("delete", 0)
	return nil
}
