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

package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"connectrpc.com/connect"
	"connectrpc.com/grpchealth"
	"connectrpc.com/grpcreflect"
	"github.com/blinklabs-io/gavel/event"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"
)

const (
	DefaultHost = "0.0.0.0"
	DefaultPort = 9090
)

type ServerConfig struct {
	Logger          *slog.Logger
	Governance      Governance
	EventBus        *event.EventBus
	Listener        net.Listener
	Host            string
	TlsCertFilePath string
	TlsKeyFilePath  string
	Port            uint
}

type Server struct {
	config   ServerConfig
	server   *http.Server
	listener net.Listener
	done     chan struct{}
	doneOnce sync.Once
	serveWg  sync.WaitGroup
	mu       sync.Mutex
}

func NewServer(cfg ServerConfig) *Server {
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	cfg.Logger = cfg.Logger.With("component", "api")
	if cfg.Host == "" {
		cfg.Host = DefaultHost
	}
	if cfg.Port == 0 {
		cfg.Port = DefaultPort
	}
	return &Server{
		config: cfg,
		done:   make(chan struct{}),
	}
}

// Handler returns the HTTP handler serving the governance service, gRPC
// health checks and gRPC reflection
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	compress1KB := connect.WithCompressMinBytes(1024)
	opts := []connect.HandlerOption{
		compress1KB,
		connect.WithCodec(jsonCodec{}),
	}
	svc := &governanceServer{server: s}
	mux.Handle(MintProcedure, connect.NewUnaryHandler(MintProcedure, svc.Mint, opts...))
	mux.Handle(TransferProcedure, connect.NewUnaryHandler(TransferProcedure, svc.Transfer, opts...))
	mux.Handle(GetBalanceProcedure, connect.NewUnaryHandler(GetBalanceProcedure, svc.GetBalance, opts...))
	mux.Handle(RegisterMemberProcedure, connect.NewUnaryHandler(RegisterMemberProcedure, svc.RegisterMember, opts...))
	mux.Handle(IsMemberProcedure, connect.NewUnaryHandler(IsMemberProcedure, svc.IsMember, opts...))
	mux.Handle(CreateProposalProcedure, connect.NewUnaryHandler(CreateProposalProcedure, svc.CreateProposal, opts...))
	mux.Handle(CastVoteProcedure, connect.NewUnaryHandler(CastVoteProcedure, svc.CastVote, opts...))
	mux.Handle(ExecuteProposalProcedure, connect.NewUnaryHandler(ExecuteProposalProcedure, svc.ExecuteProposal, opts...))
	mux.Handle(IsProposalExecutedProcedure, connect.NewUnaryHandler(IsProposalExecutedProcedure, svc.IsProposalExecuted, opts...))
	mux.Handle(GetProposalProcedure, connect.NewUnaryHandler(GetProposalProcedure, svc.GetProposal, opts...))
	mux.Handle(ListProposalsProcedure, connect.NewUnaryHandler(ListProposalsProcedure, svc.ListProposals, opts...))
	mux.Handle(GetSupplyProcedure, connect.NewUnaryHandler(GetSupplyProcedure, svc.GetSupply, opts...))
	mux.Handle(WatchEventsProcedure, connect.NewServerStreamHandler(WatchEventsProcedure, svc.WatchEvents, opts...))
	mux.Handle(
		grpchealth.NewHandler(
			grpchealth.NewStaticChecker(ServiceName),
			compress1KB,
		),
	)
	mux.Handle(
		grpcreflect.NewHandlerV1(
			grpcreflect.NewStaticReflector(ServiceName),
			compress1KB,
		),
	)
	mux.Handle(
		grpcreflect.NewHandlerV1Alpha(
			grpcreflect.NewStaticReflector(ServiceName),
			compress1KB,
		),
	)
	return mux
}

// Start opens the listener and serves in the background
func (s *Server) Start() error {
	if s.config.Governance == nil {
		return errors.New("no governance service configured")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.server != nil {
		return errors.New("server already started")
	}
	listenerCfg := ListenerConfig{
		Listener:      s.config.Listener,
		ListenNetwork: "tcp",
		ListenAddress: fmt.Sprintf("%s:%d", s.config.Host, s.config.Port),
		ReuseAddress:  true,
	}
	listener, err := listenerCfg.listen(context.Background())
	if err != nil {
		return err
	}
	s.listener = listener
	useTls := s.config.TlsCertFilePath != "" && s.config.TlsKeyFilePath != ""
	handler := s.Handler()
	if !useTls {
		// Use h2c so we can serve HTTP/2 without TLS
		handler = h2c.NewHandler(handler, &http2.Server{})
	}
	s.server = &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: 60 * time.Second,
	}
	if useTls {
		s.config.Logger.Info(
			"starting gRPC TLS listener on " + listener.Addr().String(),
		)
	} else {
		s.config.Logger.Info(
			"starting gRPC listener on " + listener.Addr().String(),
		)
	}
	s.serveWg.Add(1)
	go func() {
		defer s.serveWg.Done()
		var err error
		if useTls {
			err = s.server.ServeTLS(
				listener,
				s.config.TlsCertFilePath,
				s.config.TlsKeyFilePath,
			)
		} else {
			err = s.server.Serve(listener)
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.config.Logger.Error(
				fmt.Sprintf("API server failed: %s", err),
			)
		}
	}()
	return nil
}

// Addr returns the address the server is listening on, or nil before Start
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Stop ends open event streams and shuts the server down gracefully
func (s *Server) Stop(ctx context.Context) error {
	s.doneOnce.Do(func() { close(s.done) })
	s.mu.Lock()
	server := s.server
	s.mu.Unlock()
	if server == nil {
		return nil
	}
	err := server.Shutdown(ctx)
	s.serveWg.Wait()
	return err
}
