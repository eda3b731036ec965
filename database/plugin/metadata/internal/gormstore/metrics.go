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


package gormstore

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const metricNamePrefix = "gavel_database_metadata_"

type metrics struct {
	txnTotal *prometheus.CounterVec
	backend  string
}

func newMetrics(backend string, promRegistry prometheus.Registerer) *metrics {
	if promRegistry == nil {
		return nil
	}
	return &metrics{
		backend: backend,
		txnTotal: promauto.With(promRegistry).NewCounterVec(
			prometheus.CounterOpts{
				Name: metricNamePrefix + "txn_total",
				Help: "Total number of finished metadata transactions by result",
			},
			[]string{"backend", "result"},
		),
	}
}

func (m *metrics) observeTxn(result string) {
	if m == nil {
		return
	}
	m.txnTotal.WithLabelValues(m.backend, result).Inc()
}
