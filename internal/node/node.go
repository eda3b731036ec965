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

package node

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	_ "net/http/pprof" // #nosec G108
	"os/signal"
	"syscall"
	"time"

	"github.com/blinklabs-io/gavel"
	"github.com/blinklabs-io/gavel/database"
	"github.com/blinklabs-io/gavel/internal/config"
	"github.com/blinklabs-io/gavel/types"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Run starts a node from cfg and blocks until SIGINT or SIGTERM
func Run(cfg *config.Config, logger *slog.Logger) error {
	// Wait for interrupt/termination signal
	signalCtx, signalCtxStop := signal.NotifyContext(
		context.Background(),
		syscall.SIGINT,
		syscall.SIGTERM,
	)
	defer signalCtxStop()
	return run(
		signalCtx,
		cfg,
		logger,
		prometheus.DefaultRegisterer,
		prometheus.DefaultGatherer,
	)
}

func run(
	ctx context.Context,
	cfg *config.Config,
	logger *slog.Logger,
	promRegistry prometheus.Registerer,
	promGatherer prometheus.Gatherer,
) error {
	logger.Debug(fmt.Sprintf("config: %+v", cfg), "component", "node")
	shutdownTimeout, err := cfg.ShutdownTimeoutDuration()
	if err != nil {
		return err
	}
	nodeCfg, err := NodeConfig(
		cfg,
		logger,
		gavel.WithPrometheusRegistry(promRegistry),
		gavel.WithShutdownTimeout(shutdownTimeout),
	)
	if err != nil {
		return err
	}
	n, err := gavel.New(nodeCfg)
	if err != nil {
		return err
	}
	// Metrics and debug listener
	var metricsServer *http.Server
	if cfg.MetricsPort > 0 {
		metricsAddr := net.JoinHostPort(cfg.BindAddr, fmt.Sprintf("%d", cfg.MetricsPort))
		metricsListener, err := net.Listen("tcp", metricsAddr)
		if err != nil {
			return fmt.Errorf("failed to start metrics listener: %w", err)
		}
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(promGatherer, promhttp.HandlerOpts{}))
		mux.Handle("/debug/pprof/", http.DefaultServeMux)
		metricsServer = &http.Server{
			Handler:           mux,
			ReadHeaderTimeout: 60 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       120 * time.Second,
		}
		logger.Info(
			"serving prometheus metrics on "+metricsListener.Addr().String(),
			"component",
			"node",
		)
		go func() {
			if err := metricsServer.Serve(metricsListener); err != nil &&
				!errors.Is(err, http.ErrServerClosed) {
				logger.Error(
					fmt.Sprintf("metrics listener failed: %s", err),
					"component", "node",
				)
			}
		}()
	}
	shutdownMetrics := func() {
		if metricsServer == nil {
			return
		}
		shutdownCtx, cancel := context.WithTimeout(
			context.Background(),
			shutdownTimeout,
		)
		defer cancel()
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("metrics server shutdown error", "error", err)
		}
	}

	runErr := n.Run(ctx)
	if runErr != nil {
		logger.Error("node error", "error", runErr)
	} else {
		logger.Info("signal received, initiating graceful shutdown")
	}
	shutdownMetrics()
	if err := n.Stop(); err != nil {
		logger.Error("shutdown errors occurred", "error", err)
		return errors.Join(runErr, err)
	}
	if runErr != nil {
		return runErr
	}
	logger.Info("shutdown complete")
	return nil
}

// NodeConfig translates the loaded configuration into node options. Extra
// options are applied last.
func NodeConfig(
	cfg *config.Config,
	logger *slog.Logger,
	extraOpts ...gavel.ConfigOptionFunc,
) (gavel.Config, error) {
	owner, err := types.ParsePrincipal(cfg.Owner)
	if err != nil {
		return gavel.Config{}, fmt.Errorf("owner: %w", err)
	}
	opts := []gavel.ConfigOptionFunc{
		gavel.WithOwner(owner),
		gavel.WithLogger(logger),
		gavel.WithDatabasePath(cfg.DatabasePath),
		gavel.WithBlobPlugin(cfg.BlobPlugin),
		gavel.WithMetadataPlugin(cfg.MetadataPlugin),
		gavel.WithVotingWindow(cfg.VotingWindow),
		gavel.WithMemberGrant(cfg.MemberGrant),
		gavel.WithVotingWindowEnforcement(cfg.EnforceVotingWindow),
		gavel.WithApiHost(cfg.BindAddr),
		gavel.WithApiPort(cfg.ApiPort),
		gavel.WithApiTlsCertFilePath(cfg.TlsCertFilePath),
		gavel.WithApiTlsKeyFilePath(cfg.TlsKeyFilePath),
		gavel.WithTracing(cfg.Tracing),
		gavel.WithTracingStdout(cfg.TracingStdout),
	}
	opts = append(opts, extraOpts...)
	return gavel.NewConfig(opts...), nil
}

// offline opens the node database without serving the API and runs fn
func offline(
	cfg *config.Config,
	logger *slog.Logger,
	fn func(*gavel.Node) error,
) (err error) {
	nodeCfg, err := NodeConfig(cfg, logger, gavel.WithApiPort(0))
	if err != nil {
		return err
	}
	n, err := gavel.New(nodeCfg)
	if err != nil {
		return err
	}
	defer func() {
		err = errors.Join(err, n.Stop())
	}()
	if err := n.Start(); err != nil {
		return err
	}
	return fn(n)
}

// Journal returns up to limit journal entries starting at sequence from
func Journal(
	cfg *config.Config,
	logger *slog.Logger,
	from uint64,
	limit int,
) ([]database.JournalEntry, error) {
	var ret []database.JournalEntry
	err := offline(cfg, logger, func(n *gavel.Node) error {
		entries, err := n.Journal(from, limit)
		if err != nil {
			return err
		}
		ret = entries
		return nil
	})
	return ret, err
}

// Verify replays the journal and compares it with the stored state
func Verify(cfg *config.Config, logger *slog.Logger) (gavel.VerifyResult, error) {
	var ret gavel.VerifyResult
	err := offline(cfg, logger, func(n *gavel.Node) error {
		result, err := n.VerifyJournal()
		if err != nil {
			return err
		}
		ret = result
		return nil
	})
	return ret, err
}
