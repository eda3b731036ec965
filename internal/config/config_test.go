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

package config

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/blinklabs-io/gavel/database/plugin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type nopPlugin struct{}

func (nopPlugin) Start() error { return nil }
func (nopPlugin) Stop() error  { return nil }

// registerTestPlugin registers a blob plugin and returns its option
// destinations
func registerTestPlugin(t *testing.T, name string) (*string, *uint64) {
	t.Helper()
	var bucket string
	var size uint64
	plugin.Register(plugin.PluginEntry{
		Type:               plugin.PluginTypeBlob,
		Name:               name,
		Description:        "test blob plugin",
		NewFromOptionsFunc: func() plugin.Plugin { return nopPlugin{} },
		Options: []plugin.PluginOption{
			{Name: "bucket", Type: plugin.PluginOptionTypeString, Dest: &bucket},
			{Name: "cache-size", Type: plugin.PluginOptionTypeUint, Dest: &size},
		},
	})
	return &bucket, &size
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "gavel.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
	timeout, err := cfg.ShutdownTimeoutDuration()
	require.NoError(t, err)
	assert.Equal(t, 30*time.Second, timeout)
}

func TestLoadConfigFile(t *testing.T) {
	bucket, size := registerTestPlugin(t, "cfgtest")
	path := writeConfig(t, `
config:
  owner: treasury
  databasePath: /var/lib/gavel
  votingWindow: 20
  memberGrant: 5
  enforceVotingWindow: true
  apiPort: 8080
  shutdownTimeout: 5s
database:
  blob:
    plugin: cfgtest
    cfgtest:
      bucket: journal
      cache-size: 4096
`)
	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	expected := DefaultConfig()
	expected.Owner = "treasury"
	expected.DatabasePath = "/var/lib/gavel"
	expected.VotingWindow = 20
	expected.MemberGrant = 5
	expected.EnforceVotingWindow = true
	expected.ApiPort = 8080
	expected.ShutdownTimeout = "5s"
	expected.BlobPlugin = "cfgtest"
	assert.Equal(t, expected, cfg)
	assert.Equal(t, "journal", *bucket)
	assert.Equal(t, uint64(4096), *size)
}

func TestLoadConfigPartialSectionKeepsDefaults(t *testing.T) {
	path := writeConfig(t, `
config:
  owner: treasury
  metricsPort: 0
`)
	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "treasury", cfg.Owner)
	assert.Equal(t, DefaultMetadataPlugin, cfg.MetadataPlugin)
	assert.Equal(t, "0.0.0.0", cfg.BindAddr)
	assert.Equal(t, uint(9090), cfg.ApiPort)
	assert.Equal(t, uint64(DefaultVotingWindow), cfg.VotingWindow)
	// An explicit zero still overrides the default
	assert.Zero(t, cfg.MetricsPort)
}

func TestLoadConfigEnvOverridesFile(t *testing.T) {
	path := writeConfig(t, `
config:
  owner: treasury
  votingWindow: 20
`)
	t.Setenv("GAVEL_OWNER", "council")
	t.Setenv("GAVEL_VOTING_WINDOW", "3")
	t.Setenv("GAVEL_DATABASE_METADATA_PLUGIN", "postgres")
	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "council", cfg.Owner)
	assert.Equal(t, uint64(3), cfg.VotingWindow)
	assert.Equal(t, "postgres", cfg.MetadataPlugin)
}

func TestLoadConfigErrors(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)

	_, err = LoadConfig(writeConfig(t, "config: [not, a, map"))
	require.Error(t, err)

	_, err = LoadConfig(writeConfig(t, "config:\n  votingWindow: 0\n"))
	require.Error(t, err)

	_, err = LoadConfig(writeConfig(t, "config:\n  shutdownTimeout: soon\n"))
	require.Error(t, err)

	_, err = LoadConfig(writeConfig(t, "database:\n  blob:\n    no-such-plugin:\n      x: 1\n"))
	require.Error(t, err)
}

func TestListPlugins(t *testing.T) {
	registerTestPlugin(t, "listtest")
	var buf bytes.Buffer
	cfg := DefaultConfig()
	require.NoError(t, cfg.ListPlugins(&buf))
	assert.Empty(t, buf.String())

	cfg.BlobPlugin = "list"
	err := cfg.ListPlugins(&buf)
	require.ErrorIs(t, err, ErrPluginListRequested)
	assert.Contains(t, buf.String(), "Available blob plugins:")
	assert.Contains(t, buf.String(), "listtest: test blob plugin")
}

func TestContext(t *testing.T) {
	assert.Nil(t, FromContext(context.Background()))
	cfg := DefaultConfig()
	ctx := WithContext(context.Background(), cfg)
	assert.Same(t, cfg, FromContext(ctx))
}
