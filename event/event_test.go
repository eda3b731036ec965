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

package event_test

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/blinklabs-io/gavel/event"
)

func receive(t *testing.T, ch <-chan event.Event) event.Event {
	t.Helper()
	select {
	case evt, ok := <-ch:
		require.True(t, ok, "event channel closed unexpectedly")
		return evt
	case <-time.After(1 * time.Second):
		require.FailNow(t, "timeout waiting for event")
	}
	return event.Event{}
}

func TestEventBusSingleSubscriber(t *testing.T) {
	defer goleak.VerifyNone(t)
	eb := event.NewEventBus(nil, nil)
	defer eb.Stop()
	_, subCh := eb.Subscribe(event.MintEventType)
	eb.Publish(
		event.NewEvent(
			event.MintEventType,
			event.MintEvent{Sequence: 1, Amount: 100, Recipient: "X"},
		),
	)
	evt := receive(t, subCh)
	assert.Equal(t, event.MintEventType, evt.Type)
	data, ok := evt.Data.(event.MintEvent)
	require.True(t, ok, "unexpected event data type %T", evt.Data)
	assert.Equal(t, uint64(100), data.Amount)
}

func TestEventBusMultipleSubscribers(t *testing.T) {
	defer goleak.VerifyNone(t)
	eb := event.NewEventBus(nil, nil)
	defer eb.Stop()
	_, sub1Ch := eb.Subscribe(event.ProposalCreatedEventType)
	_, sub2Ch := eb.Subscribe(event.ProposalCreatedEventType)
	_, otherCh := eb.Subscribe(event.TransferEventType)
	eb.Publish(
		event.NewEvent(
			event.ProposalCreatedEventType,
			event.ProposalCreatedEvent{ProposalID: 1},
		),
	)
	for _, ch := range []<-chan event.Event{sub1Ch, sub2Ch} {
		evt := receive(t, ch)
		data, ok := evt.Data.(event.ProposalCreatedEvent)
		require.True(t, ok)
		assert.Equal(t, uint64(1), data.ProposalID)
	}
	select {
	case evt := <-otherCh:
		t.Fatalf("received unexpected event: %v", evt)
	default:
	}
}

func TestEventBusUnsubscribe(t *testing.T) {
	eb := event.NewEventBus(nil, nil)
	defer eb.Stop()
	subId, subCh := eb.Subscribe(event.TransferEventType)
	eb.Unsubscribe(subId)
	eb.Publish(
		event.NewEvent(event.TransferEventType, event.TransferEvent{}),
	)
	select {
	case _, ok := <-subCh:
		require.False(t, ok, "received unexpected event")
	case <-time.After(1 * time.Second):
		t.Fatal("subscriber channel was not closed after Unsubscribe")
	}
}

func TestEventBusStop(t *testing.T) {
	defer goleak.VerifyNone(t)
	eb := event.NewEventBus(nil, nil)
	_, subCh := eb.Subscribe(event.VoteCastEventType)
	var handled atomic.Int32
	eb.SubscribeFunc(func(event.Event) {
		handled.Add(1)
	}, event.VoteCastEventType)
	eb.Publish(
		event.NewEvent(event.VoteCastEventType, event.VoteCastEvent{}),
	)
	require.Eventually(t, func() bool {
		return handled.Load() == 1
	}, time.Second, 5*time.Millisecond)

	eb.Stop()
	// Buffered event is still readable, then the channel is closed
	_, ok := <-subCh
	require.True(t, ok)
	_, ok = <-subCh
	require.False(t, ok)

	assert.False(
		t,
		eb.PublishAsync(
			event.NewEvent(event.VoteCastEventType, event.VoteCastEvent{}),
		),
	)
	assert.Equal(
		t,
		event.EventSubscriberId(0),
		eb.SubscribeFunc(func(event.Event) {}, event.VoteCastEventType),
	)
	// Stop is idempotent
	eb.Stop()
}

func TestPublishAsync(t *testing.T) {
	defer goleak.VerifyNone(t)
	eb := event.NewEventBus(nil, nil)
	_, subCh := eb.Subscribe(event.ProposalExecutedEventType)
	require.True(
		t,
		eb.PublishAsync(
			event.NewEvent(
				event.ProposalExecutedEventType,
				event.ProposalExecutedEvent{ProposalID: 7},
			),
		),
	)
	evt := receive(t, subCh)
	data, ok := evt.Data.(event.ProposalExecutedEvent)
	require.True(t, ok)
	assert.Equal(t, uint64(7), data.ProposalID)
	eb.Stop()
}

func TestSubscribeFuncPanicRecovery(t *testing.T) {
	defer goleak.VerifyNone(t)
	eb := event.NewEventBus(nil, nil)
	defer eb.Stop()
	var received atomic.Int32
	eb.SubscribeFunc(func(event.Event) {
		if received.Add(1) == 1 {
			panic("intentional test panic")
		}
	}, event.MintEventType)
	eb.Publish(event.NewEvent(event.MintEventType, nil))
	eb.Publish(event.NewEvent(event.MintEventType, nil))
	require.Eventually(t, func() bool {
		return received.Load() >= 2
	}, 2*time.Second, 10*time.Millisecond,
		"handler should continue processing events after a panic",
	)
}

func TestEventBusMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	eb := event.NewEventBus(reg, nil)
	defer eb.Stop()
	subId, _ := eb.Subscribe(event.MintEventType)
	eb.Subscribe(event.MintEventType)
	eb.Publish(event.NewEvent(event.MintEventType, nil))
	eb.Unsubscribe(subId)
	count, err := testutil.GatherAndCount(reg, "gavel_event_published_total")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
	families, err := reg.Gather()
	require.NoError(t, err)
	for _, mf := range families {
		switch mf.GetName() {
		case "gavel_event_subscribers":
			require.Len(t, mf.GetMetric(), 1)
			assert.InDelta(t, 1, mf.GetMetric()[0].GetGauge().GetValue(), 0)
		case "gavel_event_published_total":
			require.Len(t, mf.GetMetric(), 1)
			assert.InDelta(t, 1, mf.GetMetric()[0].GetCounter().GetValue(), 0)
		}
	}
}

func TestSubscribeMultipleTypes(t *testing.T) {
	defer goleak.VerifyNone(t)
	eb := event.NewEventBus(nil, nil)
	defer eb.Stop()
	_, votesCh := eb.Subscribe(event.VoteCastEventType, event.ProposalExecutedEventType)
	_, allCh := eb.Subscribe()
	eb.Publish(event.NewEvent(event.MintEventType, event.MintEvent{Sequence: 1}))
	eb.Publish(event.NewEvent(event.VoteCastEventType, event.VoteCastEvent{Sequence: 2}))
	eb.Publish(event.NewEvent(event.ProposalExecutedEventType, event.ProposalExecutedEvent{Sequence: 3}))

	assert.Equal(t, event.VoteCastEventType, receive(t, votesCh).Type)
	assert.Equal(t, event.ProposalExecutedEventType, receive(t, votesCh).Type)
	assert.Empty(t, votesCh)
	for _, want := range []event.EventType{
		event.MintEventType,
		event.VoteCastEventType,
		event.ProposalExecutedEventType,
	} {
		assert.Equal(t, want, receive(t, allCh).Type)
	}
}

type sequenceRecorder struct {
	mu   sync.Mutex
	seqs []uint64
}

func (r *sequenceRecorder) Deliver(evt event.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seqs = append(r.seqs, evt.Data.(event.TransferEvent).Sequence)
	return nil
}

func (r *sequenceRecorder) Close() {}

func TestPublishAsyncPreservesOrder(t *testing.T) {
	defer goleak.VerifyNone(t)
	eb := event.NewEventBus(nil, nil)
	rec := &sequenceRecorder{}
	eb.RegisterSubscriber(rec, event.TransferEventType)
	const count = 500
	for i := range count {
		require.True(t, eb.PublishAsync(
			event.NewEvent(event.TransferEventType, event.TransferEvent{Sequence: uint64(i) + 1}),
		))
	}
	// Stop dispatches the queued events before returning
	eb.Stop()
	require.Len(t, rec.seqs, count)
	for i, seq := range rec.seqs {
		assert.Equal(t, uint64(i)+1, seq)
	}
}

func TestGovernanceEventTypes(t *testing.T) {
	seen := make(map[event.EventType]bool)
	for _, typ := range event.GovernanceEventTypes {
		assert.False(t, seen[typ], "duplicate event type %s", typ)
		seen[typ] = true
	}
	assert.Len(t, seen, 6)
}
