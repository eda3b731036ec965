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
	"fmt"
	"io"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/blinklabs-io/gavel"
	"github.com/blinklabs-io/gavel/internal/config"
	"github.com/blinklabs-io/gavel/internal/test/testutil"
	"github.com/blinklabs-io/gavel/types"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Owner = "owner"
	cfg.DatabasePath = t.TempDir()
	cfg.BindAddr = "127.0.0.1"
	cfg.ApiPort = 0
	cfg.MetricsPort = 0
	return cfg
}

func seed(t *testing.T, cfg *config.Config) {
	t.Helper()
	nodeCfg, err := NodeConfig(cfg, testutil.DiscardLogger())
	require.NoError(t, err)
	n, err := gavel.New(nodeCfg)
	require.NoError(t, err)
	require.NoError(t, n.Start())
	ctx := context.Background()
	_, err = n.Mint(ctx, 50, "alice", "owner")
	require.NoError(t, err)
	_, err = n.RegisterMember(ctx, "bob", "owner")
	require.NoError(t, err)
	_, _, err = n.CreateProposal(ctx, "first", "bob", 1)
	require.NoError(t, err)
	require.NoError(t, n.Stop())
}

func TestNodeConfigRequiresOwner(t *testing.T) {
	cfg := testConfig(t)
	cfg.Owner = ""
	_, err := NodeConfig(cfg, testutil.DiscardLogger())
	assert.ErrorIs(t, err, types.ErrInvalidPrincipal)
}

func TestJournalOffline(t *testing.T) {
	cfg := testConfig(t)
	seed(t, cfg)

	entries, err := Journal(cfg, testutil.DiscardLogger(), 2, 0)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, uint64(2), entries[0].Sequence)
	assert.Equal(t, "register_member", entries[0].Operation)
	assert.Equal(t, "first", entries[1].Description)

	entries, err = Journal(cfg, testutil.DiscardLogger(), 1, 1)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "mint", entries[0].Operation)
}

func TestVerifyOffline(t *testing.T) {
	cfg := testConfig(t)
	seed(t, cfg)

	result, err := Verify(cfg, testutil.DiscardLogger())
	require.NoError(t, err)
	assert.Equal(t, 3, result.Entries)
	assert.True(t, result.Ok(), "mismatches: %v", result.Mismatches)

	// A different member grant cannot reproduce the journal
	cfg.MemberGrant = 7
	_, err = Verify(cfg, testutil.DiscardLogger())
	assert.Error(t, err)
}

func freePort(t *testing.T) uint {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := l.Addr().(*net.TCPAddr).Port
	require.NoError(t, l.Close())
	return uint(port) // #nosec G115
}

func TestRunServesMetrics(t *testing.T) {
	cfg := testConfig(t)
	cfg.MetricsPort = freePort(t)
	reg := prometheus.NewRegistry()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	errCh := make(chan error, 1)
	go func() {
		errCh <- run(ctx, cfg, testutil.DiscardLogger(), reg, reg)
	}()

	url := fmt.Sprintf("http://127.0.0.1:%d/metrics", cfg.MetricsPort)
	var body []byte
	testutil.WaitForCondition(
		t,
		func() bool {
			resp, err := http.Get(url) // #nosec G107
			if err != nil {
				return false
			}
			defer resp.Body.Close()
			if resp.StatusCode != http.StatusOK {
				return false
			}
			body, err = io.ReadAll(resp.Body)
			return err == nil
		},
		5*time.Second,
		"metrics endpoint not ready",
	)
	assert.Contains(t, string(body), "gavel_")

	cancel()
	err := testutil.RequireReceive(t, errCh, 5*time.Second, "run did not return")
	require.NoError(t, err)
}

func TestRunInvalidShutdownTimeout(t *testing.T) {
	cfg := testConfig(t)
	cfg.ShutdownTimeout = "never"
	reg := prometheus.NewRegistry()
	err := run(context.Background(), cfg, testutil.DiscardLogger(), reg, reg)
	assert.Error(t, err)
}
