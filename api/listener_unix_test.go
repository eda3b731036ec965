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

//go:build !windows

package api

import (
	"context"
	"net"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListenUnixReplacesStaleSocket(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gavel.sock")
	stale, err := net.Listen("unix", path)
	require.NoError(t, err)
	// Keep the file on disk after close, as a crashed process would
	stale.(*net.UnixListener).SetUnlinkOnClose(false)
	require.NoError(t, stale.Close())
	_, err = os.Stat(path)
	require.NoError(t, err)

	cfg := ListenerConfig{ListenNetwork: "unix", ListenAddress: path}
	l, err := cfg.listen(context.Background())
	require.NoError(t, err)
	defer l.Close()
	assert.Equal(t, path, l.Addr().String())
}

func TestListenUnixRefusesRegularFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "not-a-socket")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o600))
	cfg := ListenerConfig{ListenNetwork: "unix", ListenAddress: path}
	_, err := cfg.listen(context.Background())
	assert.Error(t, err)
}
