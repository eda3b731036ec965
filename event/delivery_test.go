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

package event

import (
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockSubscriber struct {
	fail   bool
	panic  bool
	got    atomic.Int32
	closed atomic.Bool
}

func (m *mockSubscriber) Deliver(Event) error {
	if m.panic {
		panic("deliver panic")
	}
	if m.fail {
		return errors.New("deliver failed")
	}
	m.got.Add(1)
	return nil
}

func (m *mockSubscriber) Close() {
	m.closed.Store(true)
}

func TestDeliverFailureUnregisters(t *testing.T) {
	for _, sub := range []*mockSubscriber{{fail: true}, {panic: true}} {
		eb := NewEventBus(nil, nil)
		subId := eb.RegisterSubscriber(sub, "test.fail")
		require.NotZero(t, subId)
		eb.Publish(NewEvent("test.fail", "x"))
		eb.mu.RLock()
		_, exists := eb.subs[subId]
		eb.mu.RUnlock()
		assert.False(t, exists, "subscriber should be removed after deliver failure")
		assert.True(t, sub.closed.Load())
		eb.Stop()
	}
}

func TestRegisterSubscriberMultipleTypes(t *testing.T) {
	eb := NewEventBus(nil, nil)
	sub := &mockSubscriber{}
	eb.RegisterSubscriber(sub, GovernanceEventTypes...)
	for _, typ := range GovernanceEventTypes {
		eb.Publish(NewEvent(typ, nil))
	}
	eb.Publish(NewEvent("other", nil))
	assert.Equal(t, int32(len(GovernanceEventTypes)), sub.got.Load())
	eb.Stop()
	assert.True(t, sub.closed.Load())
}

func TestChannelSubscriberDeliverNonBlocking(t *testing.T) {
	const bufferSize = 5
	sub := newChannelSubscriber(bufferSize, nil)
	for i := range bufferSize {
		require.NoError(t, sub.Deliver(NewEvent("test", i)))
	}
	done := make(chan error, 1)
	go func() {
		done <- sub.Deliver(NewEvent("test", "overflow"))
	}()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(1 * time.Second):
		t.Fatal("Deliver blocked on full channel buffer")
	}
	for i := range bufferSize {
		evt := <-sub.ch
		assert.Equal(t, i, evt.Data)
	}
	select {
	case evt := <-sub.ch:
		t.Fatalf("unexpected extra event in channel: %v", evt)
	default:
	}
}

func TestChannelSubscriberDeliverAfterClose(t *testing.T) {
	sub := newChannelSubscriber(5, nil)
	sub.Close()
	sub.Close()
	require.NoError(t, sub.Deliver(NewEvent("test", "after-close")))
}
