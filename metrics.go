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

package gavel

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type nodeMetrics struct {
	commitsTotal    *prometheus.CounterVec
	commitDuration  prometheus.Histogram
	journalSequence prometheus.Gauge
	reloadsTotal    prometheus.Counter
}

func (m *nodeMetrics) init(promRegistry prometheus.Registerer) {
	promautoFactory := promauto.With(promRegistry)
	m.commitsTotal = promautoFactory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gavel_node_commits_total",
			Help: "total number of operation commits by result",
		},
		[]string{"operation", "result"},
	)
	m.commitDuration = promautoFactory.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "gavel_node_commit_duration_seconds",
			Help:    "time spent persisting and journaling an operation",
			Buckets: prometheus.ExponentialBuckets(0.0001, 4, 10), // 100us to ~26s
		},
	)
	m.journalSequence = promautoFactory.NewGauge(prometheus.GaugeOpts{
		Name: "gavel_node_journal_sequence",
		Help: "sequence number of the last journaled operation",
	})
	m.reloadsTotal = promautoFactory.NewCounter(prometheus.CounterOpts{
		Name: "gavel_node_state_reloads_total",
		Help: "number of times the engine was reloaded after a failed commit",
	})
}
