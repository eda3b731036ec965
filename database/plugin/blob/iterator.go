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
	"slices"
	"strings"

	"github.com/blinklabs-io/gavel/database/types"
)

// KeyIterator walks a listing of object keys fetched up front. Values are
// loaded lazily through get.
type KeyIterator struct {
	keys    []string
	idx     int
	reverse bool
	err     error
	get     func(key string) ([]byte, error)
}

// NewKeyIterator returns an iterator over keys, which must be sorted in
// ascending order
func NewKeyIterator(
	keys []string,
	reverse bool,
	get func(key string) ([]byte, error),
) *KeyIterator {
	if reverse {
		keys = slices.Clone(keys)
		slices.Reverse(keys)
	}
	return &KeyIterator{keys: keys, reverse: reverse, get: get}
}

func (it *KeyIterator) Rewind() {
	it.idx = 0
}

func (it *KeyIterator) Seek(prefix []byte) {
	target := string(prefix)
	it.idx = len(it.keys)
	for i, key := range it.keys {
		if (it.reverse && key <= target) || (!it.reverse && key >= target) {
			it.idx = i
			return
		}
	}
}

func (it *KeyIterator) Valid() bool {
	return it.err == nil && it.idx < len(it.keys)
}

func (it *KeyIterator) ValidForPrefix(prefix []byte) bool {
	if !it.Valid() {
		return false
	}
	return strings.HasPrefix(it.keys[it.idx], string(prefix))
}

func (it *KeyIterator) Next() {
	if it.idx < len(it.keys) {
		it.idx++
	}
}

func (it *KeyIterator) Item() types.BlobItem {
	if !it.Valid() {
		return nil
	}
	return &keyItem{key: it.keys[it.idx], get: it.get}
}

func (it *KeyIterator) Close() {}

func (it *KeyIterator) Err() error {
	return it.err
}

// ErrorIterator is returned when an iterator cannot be created
type ErrorIterator struct {
	Error error
}

func (it *ErrorIterator) Rewind()                      {}
func (it *ErrorIterator) Seek(prefix []byte)           {}
func (it *ErrorIterator) Valid() bool                  { return false }
func (it *ErrorIterator) ValidForPrefix(p []byte) bool { return false }
func (it *ErrorIterator) Next()                        {}
func (it *ErrorIterator) Item() types.BlobItem         { return nil }
func (it *ErrorIterator) Close()                       {}
func (it *ErrorIterator) Err() error                   { return it.Error }

type keyItem struct {
	key string
	get func(key string) ([]byte, error)
}

func (i *keyItem) Key() []byte {
	return []byte(i.key)
}

func (i *keyItem) ValueCopy(dst []byte) ([]byte, error) {
	data, err := i.get(i.key)
	if err != nil {
		return nil, err
	}
	if dst != nil {
		return append(dst[:0], data...), nil
	}
	return data, nil
}
