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
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
)

type EngineOptionFunc func(*Engine)

// WithLogger specifies the logger object to use for logging messages
func WithLogger(logger *slog.Logger) EngineOptionFunc {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithPromRegistry specifies the prometheus registry to use for metrics
func WithPromRegistry(registry prometheus.Registerer) EngineOptionFunc {
	return func(e *Engine) {
		e.promRegistry = registry
	}
}

// WithVotingWindow specifies the number of blocks after its start block that
// a proposal accepts votes
func WithVotingWindow(window uint64) EngineOptionFunc {
	return func(e *Engine) {
		e.votingWindow = window
	}
}

// WithMemberGrant specifies the balance credited on member registration
func WithMemberGrant(grant uint64) EngineOptionFunc {
	return func(e *Engine) {
		e.memberGrant = grant
	}
}

// WithVotingWindowEnforcement rejects CastVote calls made outside of the
// proposal voting window
func WithVotingWindowEnforcement(enforce bool) EngineOptionFunc {
	return func(e *Engine) {
		e.enforceWindow = enforce
	}
}

// WithState specifies previously persisted state to start from
func WithState(state State) EngineOptionFunc {
	return func(e *Engine) {
		e.initialState = &state
	}
}
