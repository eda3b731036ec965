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
	"testing"
	"time"

	"github.com/blinklabs-io/gavel/membership"
	"github.com/blinklabs-io/gavel/proposal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfigDefaults(t *testing.T) {
	cfg := NewConfig()
	require.NotNil(t, cfg.logger)
	assert.Equal(t, uint64(proposal.DefaultVotingWindow), cfg.votingWindow)
	assert.Equal(t, uint64(membership.DefaultGrant), cfg.memberGrant)
	assert.Equal(t, uint(DefaultApiPort), cfg.apiPort)
	assert.Equal(t, DefaultShutdownTimeout, cfg.shutdownTimeout)
	assert.False(t, cfg.apiDisabled)
	assert.False(t, cfg.enforceVotingWindow)
}

func TestWithApiPort(t *testing.T) {
	cfg := NewConfig(WithApiPort(0))
	assert.True(t, cfg.apiDisabled)

	cfg = NewConfig(WithApiPort(0), WithApiPort(8080))
	assert.False(t, cfg.apiDisabled)
	assert.Equal(t, uint(8080), cfg.apiPort)
}

func TestConfigOptions(t *testing.T) {
	cfg := NewConfig(
		WithOwner(testOwner),
		WithDatabasePath("/tmp/gavel"),
		WithBlobPlugin("gcs"),
		WithMetadataPlugin("postgres"),
		WithVotingWindow(20),
		WithMemberGrant(5),
		WithVotingWindowEnforcement(true),
		WithApiHost("127.0.0.1"),
		WithShutdownTimeout(time.Second),
		WithTracing(true),
		WithTracingStdout(true),
	)
	assert.Equal(t, testOwner, cfg.owner)
	assert.Equal(t, "/tmp/gavel", cfg.dataDir)
	assert.Equal(t, "gcs", cfg.blobPlugin)
	assert.Equal(t, "postgres", cfg.metadataPlugin)
	assert.Equal(t, uint64(20), cfg.votingWindow)
	assert.Equal(t, uint64(5), cfg.memberGrant)
	assert.True(t, cfg.enforceVotingWindow)
	assert.Equal(t, "127.0.0.1", cfg.apiHost)
	assert.Equal(t, time.Second, cfg.shutdownTimeout)
	assert.True(t, cfg.tracing)
	assert.True(t, cfg.tracingStdout)
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name  string
		opts  []ConfigOptionFunc
		valid bool
	}{
		{"valid", []ConfigOptionFunc{WithOwner(testOwner)}, true},
		{"missing owner", nil, false},
		{"zero window", []ConfigOptionFunc{WithOwner(testOwner), WithVotingWindow(0)}, false},
		{
			"tls cert without key",
			[]ConfigOptionFunc{WithOwner(testOwner), WithApiTlsCertFilePath("cert.pem")},
			false,
		},
		{
			"tls cert and key",
			[]ConfigOptionFunc{
				WithOwner(testOwner),
				WithApiTlsCertFilePath("cert.pem"),
				WithApiTlsKeyFilePath("key.pem"),
			},
			true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := &Node{config: NewConfig(tt.opts...)}
			err := n.configValidate()
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}
