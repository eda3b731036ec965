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
	"cmp"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	// SubscriberBufferSize is the channel capacity of Subscribe
	SubscriberBufferSize = 64
	// QueueSize bounds the events waiting for PublishAsync dispatch
	QueueSize = 1024
)

type EventType string

type EventSubscriberId uint64

type EventHandlerFunc func(Event)

type Event struct {
	Timestamp time.Time
	Data      any
	Type      EventType
}

func NewEvent(eventType EventType, eventData any) Event {
	return Event{
		Type:      eventType,
		Timestamp: time.Now(),
		Data:      eventData,
	}
}

// Subscriber receives events from the bus. Close must be idempotent.
type Subscriber interface {
	Deliver(Event) error
	Close()
}

type subscription struct {
	sub   Subscriber
	kind  string
	types []EventType
}

func (s *subscription) matches(eventType EventType) bool {
	return len(s.types) == 0 || slices.Contains(s.types, eventType)
}

// EventBus fans events out to subscribers. Events published with
// PublishAsync are dispatched by a single goroutine in the order they were
// queued, so subscribers observe governance events in journal order.
type EventBus struct {
	logger  *slog.Logger
	metrics *eventMetrics

	mu     sync.RWMutex
	subs   map[EventSubscriberId]*subscription
	lastId EventSubscriberId

	queue        chan Event
	dispatchDone chan struct{}
	handlers     sync.WaitGroup
	stopMu       sync.RWMutex
	stopped      bool
	stopOnce     sync.Once
}

// NewEventBus creates an EventBus and starts its dispatcher
func NewEventBus(
	promRegistry prometheus.Registerer,
	logger *slog.Logger,
) *EventBus {
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	e := &EventBus{
		logger:       logger.With("component", "event"),
		subs:         make(map[EventSubscriberId]*subscription),
		queue:        make(chan Event, QueueSize),
		dispatchDone: make(chan struct{}),
	}
	if promRegistry != nil {
		e.metrics = &eventMetrics{}
		e.metrics.init(promRegistry)
	}
	go e.dispatch()
	return e
}

func (e *EventBus) dispatch() {
	defer close(e.dispatchDone)
	for evt := range e.queue {
		if e.metrics != nil {
			e.metrics.queueDepth.Set(float64(len(e.queue)))
		}
		e.Publish(evt)
	}
}

// channelSubscriber delivers events to a buffered channel. A full buffer
// drops the event rather than blocking the publisher.
type channelSubscriber struct {
	ch     chan Event
	logger *slog.Logger
	mu     sync.RWMutex
	closed bool
}

func newChannelSubscriber(buffer int, logger *slog.Logger) *channelSubscriber {
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	return &channelSubscriber{
		ch:     make(chan Event, buffer),
		logger: logger,
	}
}

func (c *channelSubscriber) Deliver(evt Event) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return nil
	}
	select {
	case c.ch <- evt:
	default:
		c.logger.Warn(
			"subscriber buffer full, dropping event",
			"type", evt.Type,
		)
	}
	return nil
}

func (c *channelSubscriber) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.ch)
}

// Subscribe returns a channel receiving events of the given types, or of
// every type when none are given. The channel is closed by Unsubscribe and
// Stop.
func (e *EventBus) Subscribe(
	eventTypes ...EventType,
) (EventSubscriberId, <-chan Event) {
	chSub := newChannelSubscriber(SubscriberBufferSize, e.logger)
	subId := e.addSubscriber(chSub, "channel", eventTypes)
	return subId, chSub.ch
}

// SubscribeFunc runs handlerFunc for each matching event on a dedicated
// goroutine. A panicking handler does not stop delivery of later events. It
// returns 0 once the bus is stopped.
func (e *EventBus) SubscribeFunc(
	handlerFunc EventHandlerFunc,
	eventTypes ...EventType,
) EventSubscriberId {
	// Holding stopMu keeps Stop from waiting before the goroutine is counted
	e.stopMu.RLock()
	defer e.stopMu.RUnlock()
	if e.stopped {
		return 0
	}
	chSub := newChannelSubscriber(SubscriberBufferSize, e.logger)
	subId := e.addSubscriber(chSub, "func", eventTypes)
	e.handlers.Add(1)
	go func() {
		defer e.handlers.Done()
		for evt := range chSub.ch {
			e.runHandler(handlerFunc, evt)
		}
	}()
	return subId
}

func (e *EventBus) runHandler(handlerFunc EventHandlerFunc, evt Event) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error(
				"event handler panic",
				"type", evt.Type,
				"panic", r,
			)
		}
	}()
	handlerFunc(evt)
}

// RegisterSubscriber adds an external subscriber for the given types, or
// for every type when none are given
func (e *EventBus) RegisterSubscriber(
	sub Subscriber,
	eventTypes ...EventType,
) EventSubscriberId {
	return e.addSubscriber(sub, "external", eventTypes)
}

func (e *EventBus) addSubscriber(
	sub Subscriber,
	kind string,
	eventTypes []EventType,
) EventSubscriberId {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.lastId++
	e.subs[e.lastId] = &subscription{
		sub:   sub,
		kind:  kind,
		types: slices.Clone(eventTypes),
	}
	if e.metrics != nil {
		e.metrics.subscribers.WithLabelValues(kind).Inc()
	}
	return e.lastId
}

// Unsubscribe removes a subscriber and closes it. Unknown ids are ignored.
func (e *EventBus) Unsubscribe(subId EventSubscriberId) {
	e.mu.Lock()
	s, ok := e.subs[subId]
	if ok {
		delete(e.subs, subId)
		if e.metrics != nil {
			e.metrics.subscribers.WithLabelValues(s.kind).Dec()
		}
	}
	e.mu.Unlock()
	if ok {
		s.sub.Close()
	}
}

// Publish delivers evt to every matching subscriber before returning. A
// subscriber whose Deliver fails or panics is unregistered.
func (e *EventBus) Publish(evt Event) {
	type target struct {
		id EventSubscriberId
		s  *subscription
	}
	e.mu.RLock()
	targets := make([]target, 0, len(e.subs))
	for id, s := range e.subs {
		if s.matches(evt.Type) {
			targets = append(targets, target{id: id, s: s})
		}
	}
	e.mu.RUnlock()
	slices.SortFunc(targets, func(a, b target) int {
		return cmp.Compare(a.id, b.id)
	})
	for _, t := range targets {
		if err := deliver(t.s.sub, evt); err != nil {
			e.Unsubscribe(t.id)
			if e.metrics != nil {
				e.metrics.deliveryErrors.WithLabelValues(string(evt.Type), t.s.kind).Inc()
			}
			e.logger.Debug(
				"event delivery error",
				"type", evt.Type,
				"subscriber", t.id,
				"error", err,
			)
		}
	}
	if e.metrics != nil {
		e.metrics.eventsTotal.WithLabelValues(string(evt.Type)).Inc()
	}
}

func deliver(sub Subscriber, evt Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("subscriber deliver panic: %v", r)
		}
	}()
	return sub.Deliver(evt)
}

// PublishAsync queues evt for ordered dispatch. It returns false if the bus
// is stopped or the queue is full.
func (e *EventBus) PublishAsync(evt Event) bool {
	e.stopMu.RLock()
	defer e.stopMu.RUnlock()
	if e.stopped {
		return false
	}
	select {
	case e.queue <- evt:
		return true
	default:
		e.logger.Warn(
			"event queue full, dropping event",
			"type", evt.Type,
		)
		if e.metrics != nil {
			e.metrics.deliveryErrors.WithLabelValues(string(evt.Type), "dropped").Inc()
		}
		return false
	}
}

// Stop dispatches what is already queued, closes every subscriber and waits
// for handler goroutines to exit. Stop is idempotent.
func (e *EventBus) Stop() {
	e.stopOnce.Do(func() {
		e.stopMu.Lock()
		e.stopped = true
		close(e.queue)
		e.stopMu.Unlock()
		<-e.dispatchDone

		e.mu.Lock()
		subs := e.subs
		e.subs = make(map[EventSubscriberId]*subscription)
		e.mu.Unlock()
		for _, s := range subs {
			s.sub.Close()
		}
		if e.metrics != nil {
			e.metrics.subscribers.Reset()
		}
		e.handlers.Wait()
	})
}
