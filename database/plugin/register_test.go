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

package plugin_test

import (
	"errors"
	"log/slog"
	"testing"

	"github.com/blinklabs-io/gavel/database/plugin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockPlugin struct {
	startErr   error
	configured bool
	started    bool
}

func (m *mockPlugin) Start() error {
	m.started = true
	return m.startErr
}

func (m *mockPlugin) Stop() error { return nil }

func (m *mockPlugin) Configure(*slog.Logger, prometheus.Registerer) {
	m.configured = true
}

type testOptions struct {
	path    string
	enabled bool
	count   int
	size    uint64
}

func registerTestPlugin(t *testing.T, pluginType plugin.PluginType) (string, *testOptions) {
	t.Helper()
	name := "test-" + t.Name()
	opts := &testOptions{}
	plugin.Register(plugin.PluginEntry{
		Type:               pluginType,
		Name:               name,
		NewFromOptionsFunc: func() plugin.Plugin { return &mockPlugin{} },
		Options: []plugin.PluginOption{
			{Name: "path", Type: plugin.PluginOptionTypeString, DefaultValue: "/tmp", Dest: &opts.path},
			{Name: "enabled", Type: plugin.PluginOptionTypeBool, DefaultValue: true, Dest: &opts.enabled},
			{Name: "count", Type: plugin.PluginOptionTypeInt, DefaultValue: 3, Dest: &opts.count},
			{Name: "size", Type: plugin.PluginOptionTypeUint, DefaultValue: uint64(1024), Dest: &opts.size},
		},
	})
	return name, opts
}

func TestRegisterAndGet(t *testing.T) {
	name, _ := registerTestPlugin(t, plugin.PluginTypeBlob)
	p := plugin.GetPlugin(plugin.PluginTypeBlob, name)
	require.NotNil(t, p)
	assert.IsType(t, &mockPlugin{}, p)
	assert.Nil(t, plugin.GetPlugin(plugin.PluginTypeMetadata, name))
	assert.Nil(t, plugin.GetPlugin(plugin.PluginTypeBlob, "missing-"+t.Name()))

	found := false
	for _, entry := range plugin.GetPlugins(plugin.PluginTypeBlob) {
		if entry.Name == name {
			found = true
		}
	}
	assert.True(t, found)
}

func TestRegisterReplaces(t *testing.T) {
	name, _ := registerTestPlugin(t, plugin.PluginTypeMetadata)
	registerTestPlugin(t, plugin.PluginTypeMetadata)
	count := 0
	for _, entry := range plugin.GetPlugins(plugin.PluginTypeMetadata) {
		if entry.Name == name {
			count++
		}
	}
	assert.Equal(t, 1, count)
}

func TestPopulateCmdlineOptions(t *testing.T) {
	name, opts := registerTestPlugin(t, plugin.PluginTypeBlob)
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	require.NoError(t, plugin.PopulateCmdlineOptions(fs))
	assert.Equal(t, "/tmp", opts.path)
	assert.Equal(t, uint64(1024), opts.size)
	require.NoError(t, fs.Parse([]string{
		"--blob-" + name + "-path=/data",
		"--blob-" + name + "-count=7",
		"--blob-" + name + "-enabled=false",
	}))
	assert.Equal(t, "/data", opts.path)
	assert.Equal(t, 7, opts.count)
	assert.False(t, opts.enabled)
}

func TestProcessConfig(t *testing.T) {
	name, opts := registerTestPlugin(t, plugin.PluginTypeMetadata)
	err := plugin.ProcessConfig(map[string]map[string]map[string]any{
		"metadata": {
			name: {
				"path":    "/srv",
				"enabled": true,
				"count":   9,
				"size":    2048,
			},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "/srv", opts.path)
	assert.True(t, opts.enabled)
	assert.Equal(t, 9, opts.count)
	assert.Equal(t, uint64(2048), opts.size)

	err = plugin.ProcessConfig(map[string]map[string]map[string]any{
		"metadata": {name: {"bogus": "x"}},
	})
	assert.Error(t, err)
	err = plugin.ProcessConfig(map[string]map[string]map[string]any{
		"metadata": {name: {"count": "nine"}},
	})
	assert.Error(t, err)
	err = plugin.ProcessConfig(map[string]map[string]map[string]any{
		"metadata": {"missing-" + t.Name(): {}},
	})
	assert.Error(t, err)
}

func TestProcessEnvVars(t *testing.T) {
	var dataDir string
	var size uint64
	plugin.Register(plugin.PluginEntry{
		Type:               plugin.PluginTypeBlob,
		Name:               "envtest",
		NewFromOptionsFunc: func() plugin.Plugin { return &mockPlugin{} },
		Options: []plugin.PluginOption{
			{Name: "data-dir", Type: plugin.PluginOptionTypeString, Dest: &dataDir},
			{Name: "cache-size", Type: plugin.PluginOptionTypeUint, Dest: &size},
		},
	})
	t.Setenv("GAVEL_DATABASE_BLOB_ENVTEST_DATA_DIR", "/var/lib/gavel")
	t.Setenv("GAVEL_DATABASE_BLOB_ENVTEST_CACHE_SIZE", "4096")
	require.NoError(t, plugin.ProcessEnvVars())
	assert.Equal(t, "/var/lib/gavel", dataDir)
	assert.Equal(t, uint64(4096), size)

	t.Setenv("GAVEL_DATABASE_BLOB_ENVTEST_CACHE_SIZE", "-1")
	assert.Error(t, plugin.ProcessEnvVars())
}

func TestStartPlugin(t *testing.T) {
	name, _ := registerTestPlugin(t, plugin.PluginTypeBlob)
	p, err := plugin.StartPlugin(plugin.PluginTypeBlob, name, nil, nil)
	require.NoError(t, err)
	m := p.(*mockPlugin)
	assert.True(t, m.configured)
	assert.True(t, m.started)

	_, err = plugin.StartPlugin(plugin.PluginTypeBlob, "missing-"+t.Name(), nil, nil)
	assert.Error(t, err)

	failName := "fail-" + t.Name()
	startErr := errors.New("boom")
	plugin.Register(plugin.PluginEntry{
		Type: plugin.PluginTypeBlob,
		Name: failName,
		NewFromOptionsFunc: func() plugin.Plugin {
			return plugin.NewErrorPlugin(startErr)
		},
	})
	_, err = plugin.StartPlugin(plugin.PluginTypeBlob, failName, nil, nil)
	assert.ErrorIs(t, err, startErr)
}
