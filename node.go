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
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/blinklabs-io/gavel/api"
	"github.com/blinklabs-io/gavel/database"
	"github.com/blinklabs-io/gavel/event"
	"github.com/blinklabs-io/gavel/governance"
)

var ErrNodeNotStarted = errors.New("node not started")

type Node struct {
	logger        *slog.Logger
	eventBus      *event.EventBus
	db            *database.Database
	engine        *governance.Engine
	api           *api.Server
	metrics       *nodeMetrics
	shutdownFuncs []func(context.Context) error
	config        Config
	// Held for writing across apply, persist and journal so the journal
	// order matches the order operations were applied to the engine. Readers
	// hold it for reading and only see committed state.
	mu           sync.RWMutex
	done         chan struct{}
	startOnce    sync.Once
	startErr     error
	started      bool
	shutdownOnce sync.Once
}

func New(cfg Config) (*Node, error) {
	n := &Node{
		config: cfg,
		done:   make(chan struct{}),
	}
	if err := n.configValidate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	if n.config.logger == nil {
		n.config.logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	n.logger = n.config.logger.With("component", "node")
	engine, err := governance.NewEngine(
		n.config.owner,
		governance.WithLogger(n.config.logger),
		governance.WithPromRegistry(cfg.promRegistry),
		governance.WithVotingWindow(cfg.votingWindow),
		governance.WithMemberGrant(cfg.memberGrant),
		governance.WithVotingWindowEnforcement(cfg.enforceVotingWindow),
	)
	if err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	n.engine = engine
	n.eventBus = event.NewEventBus(cfg.promRegistry, n.config.logger)
	if cfg.promRegistry != nil {
		n.metrics = &nodeMetrics{}
		n.metrics.init(cfg.promRegistry)
	}
	return n, nil
}

// Start opens the database, restores the engine from it and starts the API
// server. It does not block.
func (n *Node) Start() error {
	n.startOnce.Do(func() {
		n.startErr = n.start()
	})
	return n.startErr
}

func (n *Node) start() (err error) {
	defer func() {
		if err != nil {
			n.abortStart()
		}
	}()
	// Configure tracing
	if n.config.tracing {
		if err := n.setupTracing(); err != nil {
			return err
		}
	}
	// Load database
	dbNeedsRecovery := false
	db, err := database.New(&database.Config{
		DataDir:        n.config.dataDir,
		BlobPlugin:     n.config.blobPlugin,
		MetadataPlugin: n.config.metadataPlugin,
		Logger:         n.config.logger,
		PromRegistry:   n.config.promRegistry,
	})
	if db == nil {
		if err == nil {
			err = errors.New("empty database returned")
		}
		n.logger.Error(
			"failed to create database",
			"error", err,
		)
		return fmt.Errorf("failed to open database: %w", err)
	}
	n.db = db
	if err != nil {
		var dbErr database.CommitTimestampError
		if !errors.As(err, &dbErr) {
			return fmt.Errorf("failed to open database: %w", err)
		}
		n.logger.Warn(
			"database initialization error, needs recovery",
			"error", err,
		)
		dbNeedsRecovery = true
	}
	// Run DB recovery if needed
	if dbNeedsRecovery {
		if err := n.db.RecoverCommitTimestampConflict(); err != nil {
			return fmt.Errorf("failed to recover database: %w", err)
		}
	}
	// Load state
	if err := n.reload(); err != nil {
		return fmt.Errorf("failed to load state: %w", err)
	}
	if n.metrics != nil {
		if head, err := n.db.JournalHead(); err == nil {
			n.metrics.journalSequence.Set(float64(head))
		}
	}
	n.mu.Lock()
	n.started = true
	n.mu.Unlock()
	// Configure API
	if !n.config.apiDisabled {
		n.api = api.NewServer(
			api.ServerConfig{
				Logger:          n.config.logger,
				Governance:      n,
				EventBus:        n.eventBus,
				Listener:        n.config.apiListener,
				Host:            n.config.apiHost,
				Port:            n.config.apiPort,
				TlsCertFilePath: n.config.tlsCertFilePath,
				TlsKeyFilePath:  n.config.tlsKeyFilePath,
			},
		)
		if err := n.api.Start(); err != nil {
			n.api = nil
			return fmt.Errorf("failed to start API server: %w", err)
		}
	}
	n.logger.Info(
		"node started",
		"owner", n.config.owner.String(),
		"voting_window", n.config.votingWindow,
		"member_grant", n.config.memberGrant,
	)
	return nil
}

// abortStart closes whatever a failed start opened so the data directory
// is released
func (n *Node) abortStart() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.started = false
	if n.db == nil {
		return
	}
	if err := n.db.Close(); err != nil {
		n.logger.Error(
			"failed to close database after failed start",
			"error", err,
		)
	}
	n.db = nil
}

// Run starts the node and blocks until ctx is done or Stop is called
func (n *Node) Run(ctx context.Context) error {
	if err := n.Start(); err != nil {
		return err
	}
	select {
	case <-ctx.Done():
	case <-n.done:
	}
	return nil
}

// EventBus returns the bus carrying governance events
func (n *Node) EventBus() *event.EventBus {
	return n.eventBus
}

// ApiServer returns the API server, or nil if it is disabled or the node has
// not been started
func (n *Node) ApiServer() *api.Server {
	return n.api
}

func (n *Node) Stop() error {
	var err error
	n.shutdownOnce.Do(func() {
		err = n.shutdown()
	})
	return err
}

func (n *Node) shutdown() error {
	shutdownTimeout := DefaultShutdownTimeout
	if n.config.shutdownTimeout > 0 {
		shutdownTimeout = n.config.shutdownTimeout
	}
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	var err error

	n.logger.Debug("starting graceful shutdown")

	// Phase 1: Stop accepting new work
	n.logger.Debug("shutdown phase 1: stopping new work")

	if n.api != nil {
		if stopErr := n.api.Stop(ctx); stopErr != nil {
			err = errors.Join(err, fmt.Errorf("api shutdown: %w", stopErr))
		}
	}

	// Phase 2: Wait for in-flight operations and close database
	n.logger.Debug("shutdown phase 2: closing database")

	n.mu.Lock()
	n.started = false
	if n.db != nil {
		if closeErr := n.db.Close(); closeErr != nil {
			err = errors.Join(err, fmt.Errorf("database close: %w", closeErr))
		}
	}
	n.mu.Unlock()

	// Phase 3: Cleanup resources
	n.logger.Debug("shutdown phase 3: cleanup resources")

	// Call registered shutdown functions
	for _, fn := range n.shutdownFuncs {
		if fnErr := fn(ctx); fnErr != nil {
			err = errors.Join(err, fmt.Errorf("shutdown function: %w", fnErr))
		}
	}
	n.shutdownFuncs = nil

	if n.eventBus != nil {
		n.eventBus.Stop()
	}

	n.logger.Debug("graceful shutdown complete")
	close(n.done)
	return err
}
