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

package types

import (
	"database/sql/driver"
	"errors"
	"fmt"
	"strconv"
)

// Uint64 stores a uint64 as a decimal string so that the full range survives
// databases without an unsigned 64-bit column type
type Uint64 uint64

func (Uint64) GormDataType() string {
	return "string"
}

func (u Uint64) Value() (driver.Value, error) {
	return strconv.FormatUint(uint64(u), 10), nil
}

func (u *Uint64) Scan(val any) error {
	var v string
	switch tmp := val.(type) {
	case string:
		v = tmp
	case []byte:
		v = string(tmp)
	case int64:
		if tmp < 0 {
			return fmt.Errorf("negative value for Uint64: %d", tmp)
		}
		*u = Uint64(tmp)
		return nil
	default:
		return fmt.Errorf(
			"value was not expected type, wanted string, got %T",
			val,
		)
	}
	tmpUint, err := strconv.ParseUint(v, 10, 64)
	if err != nil {
		return err
	}
	*u = Uint64(tmpUint)
	return nil
}

var (
	ErrBlobKeyNotFound      = errors.New("blob key not found")
	ErrTxnWrongType         = errors.New("invalid transaction type")
	ErrNilTxn               = errors.New("nil transaction")
	ErrNoStoreAvailable     = errors.New("no store available")
	ErrBlobStoreUnavailable = errors.New("blob store unavailable")
	ErrTxnFinished          = errors.New("transaction already finished")
	ErrTxnReadOnly          = errors.New("transaction is read-only")
	// ErrPartialCommit means the journal store committed but the state
	// store did not
	ErrPartialCommit = errors.New("partial commit")
)

type BlobItem interface {
	Key() []byte
	ValueCopy(dst []byte) ([]byte, error)
}

// BlobIterator walks keys in byte order. Items must only be accessed while
// the transaction used to create the iterator is active.
type BlobIterator interface {
	Rewind()
	Seek(prefix []byte)
	Valid() bool
	ValidForPrefix(prefix []byte) bool
	Next()
	Item() BlobItem
	Close()
	Err() error
}

type BlobIteratorOptions struct {
	Prefix  []byte
	Reverse bool
}

type Txn interface {
	Commit() error
	Rollback() error
}
