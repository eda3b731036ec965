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
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const metricNamePrefix = "gavel_database_blob_"

// Metrics counts blob operations per backend. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	opsTotal   *prometheus.CounterVec
	bytesTotal *prometheus.CounterVec
	backend    string
}

func NewMetrics(backend string, promRegistry prometheus.Registerer) *Metrics {
	if promRegistry == nil {
		return nil
	}
	promautoFactory := promauto.With(promRegistry)
	return &Metrics{
		backend: backend,
		opsTotal: promautoFactory.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricNamePrefix + "ops_total",
				Help: "Total number of blob operations",
			},
			[]string{"backend", "op"},
		),
		bytesTotal: promautoFactory.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricNamePrefix + "bytes_total",
				Help: "Total bytes read/written for blob operations",
			},
			[]string{"backend", "op"},
		),
	}
}

func (m *Metrics) Observe(op string, size int) {
	if m == nil {
		return
	}
	m.opsTotal.WithLabelValues(m.backend, op).Inc()
	if size > 0 {
		m.bytesTotal.WithLabelValues(m.backend, op).Add(float64(size))
	}
}
