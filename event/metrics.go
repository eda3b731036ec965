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
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type eventMetrics struct {
	subscribers    *prometheus.GaugeVec
	deliveryErrors *prometheus.CounterVec
	eventsTotal    *prometheus.CounterVec
	queueDepth     prometheus.Gauge
}

func (m *eventMetrics) init(promRegistry prometheus.Registerer) {
	promautoFactory := promauto.With(promRegistry)
	m.subscribers = promautoFactory.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "gavel_event_subscribers",
			Help: "number of event subscribers",
		},
		[]string{"kind"},
	)
	m.deliveryErrors = promautoFactory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gavel_event_delivery_errors_total",
			Help: "total number of failed or dropped event deliveries",
		},
		[]string{"type", "kind"},
	)
	m.eventsTotal = promautoFactory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gavel_event_published_total",
			Help: "total number of published events",
		},
		[]string{"type"},
	)
	m.queueDepth = promautoFactory.NewGauge(
		prometheus.GaugeOpts{
			Name: "gavel_event_queue_depth",
			Help: "events waiting for ordered dispatch",
		},
	)
}
