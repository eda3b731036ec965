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
)

// WriteBuffer holds the pending writes of an object store transaction until
// it is committed. A nil value marks a delete.
type WriteBuffer struct {
	pending map[string][]byte
}

func NewWriteBuffer() *WriteBuffer {
	return &WriteBuffer{pending: make(map[string][]byte)}
}

func (b *WriteBuffer) Set(key string, val []byte) {
	// Keep an empty value distinct from a delete
	if val == nil {
		val = []byte{}
	}
	b.pending[key] = slices.Clone(val)
}

func (b *WriteBuffer) Delete(key string) {
	b.pending[key] = nil
}

// Get returns the pending value for key. The second result reports whether
// the key has a pending write; a pending delete returns (nil, true).
func (b *WriteBuffer) Get(key string) ([]byte, bool) {
	val, ok := b.pending[key]
	if !ok {
		return nil, false
	}
	return slices.Clone(val), true
}

func (b *WriteBuffer) Len() int {
	return len(b.pending)
}

// Apply calls set or del for every pending write in key order
func (b *WriteBuffer) Apply(
	set func(key string, val []byte) error,
	del func(key string) error,
) error {
	keys := make([]string, 0, len(b.pending))
	for k := range b.pending {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		val := b.pending[k]
		var err error
		if val == nil {
			err = del(k)
		} else {
			err = set(k, val)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func (b *WriteBuffer) Reset() {
	clear(b.pending)
}

// MergeKeys overlays the pending writes under prefix onto a sorted listing of
// stored keys
func (b *WriteBuffer) MergeKeys(stored []string, prefix string) []string {
	if len(b.pending) == 0 {
		return stored
	}
	ret := make([]string, 0, len(stored)+len(b.pending))
	for _, k := range stored {
		if val, ok := b.pending[k]; ok && val == nil {
			continue
		}
		ret = append(ret, k)
	}
	for k, val := range b.pending {
		if val == nil || !strings.HasPrefix(k, prefix) {
			continue
		}
		if _, found := slices.BinarySearch(stored, k); found {
			continue
		}
		ret = append(ret, k)
	}
	slices.Sort(ret)
	return ret
}
