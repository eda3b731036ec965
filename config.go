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
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"time"

	"github.com/blinklabs-io/gavel/membership"
	"github.com/blinklabs-io/gavel/proposal"
	"github.com/blinklabs-io/gavel/types"
	"github.com/prometheus/client_golang/prometheus"
)

const (
	DefaultShutdownTimeout = 30 * time.Second
	DefaultApiPort         = 9090
)

type Config struct {
	promRegistry        prometheus.Registerer
	logger              *slog.Logger
	apiListener         net.Listener
	owner               types.Principal
	dataDir             string
	blobPlugin          string
	metadataPlugin      string
	apiHost             string
	tlsCertFilePath     string
	tlsKeyFilePath      string
	votingWindow        uint64
	memberGrant         uint64
	apiPort             uint
	shutdownTimeout     time.Duration
	enforceVotingWindow bool
	apiDisabled         bool
	tracing             bool
	tracingStdout       bool
}

func (n *Node) configValidate() error {
	if n.config.owner == "" {
		return fmt.Errorf("owner: %w", types.ErrInvalidPrincipal)
	}
	if n.config.votingWindow == 0 {
		return errors.New("voting window must be at least 1 block")
	}
	if (n.config.tlsCertFilePath == "") != (n.config.tlsKeyFilePath == "") {
		return errors.New("TLS requires both a certificate and a key file")
	}
	return nil
}

// NewConfig creates a new gavel config with the specified options
func NewConfig(opts ...ConfigOptionFunc) Config {
	c := Config{
		// Default logger will throw away logs
		// We do this so we don't have to add guards around every log operation
		logger:          slog.New(slog.NewJSONHandler(io.Discard, nil)),
		votingWindow:    proposal.DefaultVotingWindow,
		memberGrant:     membership.DefaultGrant,
		apiPort:         DefaultApiPort,
		shutdownTimeout: DefaultShutdownTimeout,
	}
	// Apply options
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

// ConfigOptionFunc is a type that represents functions that modify the gavel config
type ConfigOptionFunc func(*Config)

// WithOwner specifies the principal allowed to mint and register members
func WithOwner(owner types.Principal) ConfigOptionFunc {
	return func(c *Config) {
		c.owner = owner
	}
}

// WithDatabasePath specifies the persistent data directory to use. The default is to store everything in memory
func WithDatabasePath(dataDir string) ConfigOptionFunc {
	return func(c *Config) {
		c.dataDir = dataDir
	}
}

// WithBlobPlugin specifies the blob storage plugin to use.
func WithBlobPlugin(plugin string) ConfigOptionFunc {
	return func(c *Config) {
		c.blobPlugin = plugin
	}
}

// WithMetadataPlugin specifies the metadata storage plugin to use.
func WithMetadataPlugin(plugin string) ConfigOptionFunc {
	return func(c *Config) {
		c.metadataPlugin = plugin
	}
}

// WithLogger specifies the logger to use. This defaults to discarding log output
func WithLogger(logger *slog.Logger) ConfigOptionFunc {
	return func(c *Config) {
		c.logger = logger
	}
}

// WithPrometheusRegistry specifies a prometheus.Registerer instance to add metrics to. In most cases, prometheus.DefaultRegistry would be
// a good choice to get metrics working
func WithPrometheusRegistry(registry prometheus.Registerer) ConfigOptionFunc {
	return func(c *Config) {
		c.promRegistry = registry
	}
}

// WithVotingWindow specifies the number of blocks after creation during which a proposal accepts votes
func WithVotingWindow(window uint64) ConfigOptionFunc {
	return func(c *Config) {
		c.votingWindow = window
	}
}

// WithMemberGrant specifies the balance credited to newly registered members
func WithMemberGrant(grant uint64) ConfigOptionFunc {
	return func(c *Config) {
		c.memberGrant = grant
	}
}

// WithVotingWindowEnforcement rejects votes cast outside the proposal voting window
func WithVotingWindowEnforcement(enforce bool) ConfigOptionFunc {
	return func(c *Config) {
		c.enforceVotingWindow = enforce
	}
}

// WithApiHost specifies the address the API server binds to
func WithApiHost(host string) ConfigOptionFunc {
	return func(c *Config) {
		c.apiHost = host
	}
}

// WithApiPort specifies the port to use for the API server. A port of 0 disables the API server
func WithApiPort(port uint) ConfigOptionFunc {
	return func(c *Config) {
		c.apiPort = port
		c.apiDisabled = port == 0
	}
}

// WithApiListener specifies an existing listener for the API server. It takes precedence over the host and port
func WithApiListener(listener net.Listener) ConfigOptionFunc {
	return func(c *Config) {
		c.apiListener = listener
		c.apiDisabled = false
	}
}

// WithApiTlsCertFilePath specifies the path to the TLS certificate for the API server
func WithApiTlsCertFilePath(path string) ConfigOptionFunc {
	return func(c *Config) {
		c.tlsCertFilePath = path
	}
}

// WithApiTlsKeyFilePath specifies the path to the TLS key for the API server
func WithApiTlsKeyFilePath(path string) ConfigOptionFunc {
	return func(c *Config) {
		c.tlsKeyFilePath = path
	}
}

// WithTracing enables tracing. By default, spans are submitted to a HTTP(s) endpoint using OTLP. This can be configured
// using the OTEL_EXPORTER_OTLP_* env vars documented in the README for [go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp]
func WithTracing(tracing bool) ConfigOptionFunc {
	return func(c *Config) {
		c.tracing = tracing
	}
}

// WithTracingStdout enables tracing output to stdout. This also requires tracing to enabled separately. This is mostly useful for debugging
func WithTracingStdout(stdout bool) ConfigOptionFunc {
	return func(c *Config) {
		c.tracingStdout = stdout
	}
}

// WithShutdownTimeout specifies the timeout for graceful shutdown. The default is 30 seconds
func WithShutdownTimeout(timeout time.Duration) ConfigOptionFunc {
	return func(c *Config) {
		c.shutdownTimeout = timeout
	}
}
