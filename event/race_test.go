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
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

// Run with -race
func TestPublishUnsubscribeStopRace(t *testing.T) {
	defer goleak.VerifyNone(t)
	typ := EventType("race.test")
	for range 200 {
		eb := NewEventBus(nil, nil)
		subId, ch := eb.Subscribe(typ)
		var wg sync.WaitGroup
		wg.Add(3)
		go func() {
			defer wg.Done()
			for j := range 10 {
				eb.Publish(NewEvent(typ, j))
				eb.PublishAsync(NewEvent(typ, j))
			}
		}()
		go func() {
			defer wg.Done()
			eb.Unsubscribe(subId)
			eb.Stop()
		}()
		go func() {
			defer wg.Done()
			for range ch {
			}
		}()
		wg.Wait()
	}
}

func TestSubscribeFuncStopRace(t *testing.T) {
	defer goleak.VerifyNone(t)
	typ := EventType("race.subscribefunc.stop")
	for range 200 {
		eb := NewEventBus(nil, nil)
		var wg sync.WaitGroup
		for range 5 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				eb.SubscribeFunc(func(Event) {}, typ)
			}()
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			eb.Stop()
		}()
		wg.Wait()
	}
}

func TestPublishDoesNotBlockOnFullChannel(t *testing.T) {
	eb := NewEventBus(nil, nil)
	defer eb.Stop()
	typ := EventType("deadlock.test")
	_, ch := eb.Subscribe(typ)
	for range SubscriberBufferSize {
		eb.Publish(NewEvent(typ, "fill"))
	}
	done := make(chan struct{})
	go func() {
		defer close(done)
		eb.Publish(NewEvent(typ, "overflow"))
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Publish blocked on a full subscriber channel")
	}
	require.Len(t, ch, SubscriberBufferSize)
}
