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
	"fmt"
	"net"
	"runtime"
)

// ListenerConfig describes where the API server accepts connections. A
// provided Listener is used as is.
type ListenerConfig struct {
	Listener      net.Listener
	ListenNetwork string
	ListenAddress string
	ReuseAddress  bool
}

func (l ListenerConfig) listen(ctx context.Context) (net.Listener, error) {
	if l.Listener != nil {
		return l.Listener, nil
	}
	network := l.ListenNetwork
	if network == "" {
		network = "tcp"
	}
	// On Windows, the "unix" network type is repurposed to create named pipes
	if runtime.GOOS == "windows" && network == "unix" {
		listener, err := createPipeListener(network, l.ListenAddress)
		if err != nil {
			return nil, fmt.Errorf("failed to open listening pipe: %w", err)
		}
		return listener, nil
	}
	if network == "unix" {
		if err := removeStaleSocket(l.ListenAddress); err != nil {
			return nil, fmt.Errorf("failed to prepare socket path: %w", err)
		}
	}
	listenConfig := net.ListenConfig{}
	if l.ReuseAddress {
		listenConfig.Control = socketControl
	}
	listener, err := listenConfig.Listen(ctx, network, l.ListenAddress)
	if err != nil {
		return nil, fmt.Errorf("failed to open listening socket: %w", err)
	}
	return listener, nil
}
