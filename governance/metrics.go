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

package governance

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const metricNamePrefix = "gavel_governance_"

type engineMetrics struct {
	operationsTotal    *prometheus.CounterVec
	operationLatency   *prometheus.HistogramVec
	totalSupply        prometheus.Gauge
	members            prometheus.Gauge
	proposals          prometheus.Gauge
	proposalsExecuted  prometheus.Gauge
	votesCastTotal     *prometheus.CounterVec
	voteWeightTotal    *prometheus.CounterVec
	tokensMintedTotal  prometheus.Counter
	tokensTransferred  prometheus.Counter
	registrationsTotal prometheus.Counter
}

func (m *engineMetrics) init(promRegistry prometheus.Registerer) {
	promautoFactory := promauto.With(promRegistry)
	m.operationsTotal = promautoFactory.NewCounterVec(
		prometheus.CounterOpts{
			Name: metricNamePrefix + "operations_total",
			Help: "total number of governance operations by result",
		},
		[]string{"operation", "result"},
	)
	m.operationLatency = promautoFactory.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    metricNamePrefix + "operation_duration_seconds",
			Help:    "time spent applying governance operations",
			Buckets: prometheus.ExponentialBuckets(0.000001, 4, 10), // 1us to ~260ms
		},
		[]string{"operation"},
	)
	m.totalSupply = promautoFactory.NewGauge(prometheus.GaugeOpts{
		Name: metricNamePrefix + "total_supply",
		Help: "total minted token supply",
	})
	m.members = promautoFactory.NewGauge(prometheus.GaugeOpts{
		Name: metricNamePrefix + "members",
		Help: "number of registered members",
	})
	m.proposals = promautoFactory.NewGauge(prometheus.GaugeOpts{
		Name: metricNamePrefix + "proposals",
		Help: "number of proposals created",
	})
	m.proposalsExecuted = promautoFactory.NewGauge(prometheus.GaugeOpts{
		Name: metricNamePrefix + "proposals_executed",
		Help: "number of executed proposals",
	})
	m.votesCastTotal = promautoFactory.NewCounterVec(
		prometheus.CounterOpts{
			Name: metricNamePrefix + "votes_total",
			Help: "total number of votes recorded",
		},
		[]string{"support"},
	)
	m.voteWeightTotal = promautoFactory.NewCounterVec(
		prometheus.CounterOpts{
			Name: metricNamePrefix + "vote_weight_total",
			Help: "total vote weight recorded",
		},
		[]string{"support"},
	)
	m.tokensMintedTotal = promautoFactory.NewCounter(prometheus.CounterOpts{
		Name: metricNamePrefix + "tokens_minted_total",
		Help: "total tokens minted, including registration grants",
	})
	m.tokensTransferred = promautoFactory.NewCounter(prometheus.CounterOpts{
		Name: metricNamePrefix + "tokens_transferred_total",
		Help: "total tokens moved by transfers",
	})
	m.registrationsTotal = promautoFactory.NewCounter(prometheus.CounterOpts{
		Name: metricNamePrefix + "registrations_total",
		Help: "total member registrations",
	})
}
