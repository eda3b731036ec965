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
	"context"
	"errors"
	"fmt"
	"io"
	"maps"
	"os"
	"path/filepath"
	"time"

	"github.com/blinklabs-io/gavel/database/plugin"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

type ctxKey string

const configContextKey ctxKey = "gavel.config"

const (
	DefaultShutdownTimeout = "30s"
	DefaultBlobPlugin      = "badger"
	DefaultMetadataPlugin  = "sqlite"
	DefaultVotingWindow    = 9
	DefaultMemberGrant     = 100
)

func WithContext(ctx context.Context, cfg *Config) context.Context {
	return context.WithValue(ctx, configContextKey, cfg)
}

func FromContext(ctx context.Context) *Config {
	cfg, ok := ctx.Value(configContextKey).(*Config)
	if !ok {
		return nil
	}
	return cfg
}

// ErrPluginListRequested is returned when the user requests to list available plugins
// This is not an error condition but a successful operation that displays plugin information
var ErrPluginListRequested = errors.New("plugin list requested")

type tempConfig struct {
	Config   yaml.Node                 `yaml:"config,omitempty"`
	Database *databaseConfig           `yaml:"database,omitempty"`
	Blob     map[string]map[string]any `yaml:"blob,omitempty"`
	Metadata map[string]map[string]any `yaml:"metadata,omitempty"`
}

type databaseConfig struct {
	Blob     map[string]any `yaml:"blob,omitempty"`
	Metadata map[string]any `yaml:"metadata,omitempty"`
}

type Config struct {
	Owner               string `yaml:"owner"`
	DatabasePath        string `yaml:"databasePath"        split_words:"true"`
	BlobPlugin          string `yaml:"blobPlugin"          envconfig:"DATABASE_BLOB_PLUGIN"`
	MetadataPlugin      string `yaml:"metadataPlugin"      envconfig:"DATABASE_METADATA_PLUGIN"`
	BindAddr            string `yaml:"bindAddr"            split_words:"true"`
	TlsCertFilePath     string `yaml:"tlsCertFilePath"     envconfig:"TLS_CERT_FILE_PATH"`
	TlsKeyFilePath      string `yaml:"tlsKeyFilePath"      envconfig:"TLS_KEY_FILE_PATH"`
	ShutdownTimeout     string `yaml:"shutdownTimeout"     split_words:"true"`
	VotingWindow        uint64 `yaml:"votingWindow"        split_words:"true"`
	MemberGrant         uint64 `yaml:"memberGrant"         split_words:"true"`
	ApiPort             uint   `yaml:"apiPort"             split_words:"true"`
	MetricsPort         uint   `yaml:"metricsPort"         split_words:"true"`
	EnforceVotingWindow bool   `yaml:"enforceVotingWindow" split_words:"true"`
	Tracing             bool   `yaml:"tracing"`
	TracingStdout       bool   `yaml:"tracingStdout"       split_words:"true"`
}

// DefaultConfig returns a config populated with the default values
func DefaultConfig() *Config {
	return &Config{
		DatabasePath:    ".gavel",
		BlobPlugin:      DefaultBlobPlugin,
		MetadataPlugin:  DefaultMetadataPlugin,
		BindAddr:        "0.0.0.0",
		ShutdownTimeout: DefaultShutdownTimeout,
		VotingWindow:    DefaultVotingWindow,
		MemberGrant:     DefaultMemberGrant,
		ApiPort:         9090,
		MetricsPort:     12798,
	}
}

// ShutdownTimeoutDuration parses the configured shutdown timeout
func (c *Config) ShutdownTimeoutDuration() (time.Duration, error) {
	if c.ShutdownTimeout == "" {
		return time.ParseDuration(DefaultShutdownTimeout)
	}
	d, err := time.ParseDuration(c.ShutdownTimeout)
	if err != nil {
		return 0, fmt.Errorf("invalid shutdownTimeout %q: %w", c.ShutdownTimeout, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("invalid shutdownTimeout %q: must be positive", c.ShutdownTimeout)
	}
	return d, nil
}

// ListPlugins writes the available plugins to w when "list" was given as
// the blob or metadata plugin name and returns ErrPluginListRequested
func (c *Config) ListPlugins(w io.Writer) error {
	var pluginType plugin.PluginType
	switch {
	case c.BlobPlugin == "list":
		pluginType = plugin.PluginTypeBlob
	case c.MetadataPlugin == "list":
		pluginType = plugin.PluginTypeMetadata
	default:
		return nil
	}
	fmt.Fprintf(w, "Available %s plugins:\n", plugin.PluginTypeName(pluginType))
	for _, p := range plugin.GetPlugins(pluginType) {
		fmt.Fprintf(w, "  %s: %s\n", p.Name, p.Description)
	}
	return ErrPluginListRequested
}

// LoadConfig builds the config from the defaults, the config file and the
// environment, in that order. An empty configFile searches
// ~/.gavel/gavel.yaml and then /etc/gavel/gavel.yaml.
func LoadConfig(configFile string) (*Config, error) {
	cfg := DefaultConfig()
	if configFile == "" {
		// Check for config file in this path: ~/.gavel/gavel.yaml
		if homeDir, err := os.UserHomeDir(); err == nil {
			userPath := filepath.Join(homeDir, ".gavel", "gavel.yaml")
			if _, err := os.Stat(userPath); err == nil {
				configFile = userPath
			}
		}

		// Try to check for /etc/gavel/gavel.yaml if still not found
		if configFile == "" {
			systemPath := "/etc/gavel/gavel.yaml"
			if _, err := os.Stat(systemPath); err == nil {
				configFile = systemPath
			}
		}
	}

	if configFile != "" {
		if err := cfg.loadFile(configFile); err != nil {
			return nil, err
		}
	}

	// Process environment variables
	if err := envconfig.Process("gavel", cfg); err != nil {
		return nil, fmt.Errorf("error processing environment: %w", err)
	}

	// Process plugin environment variables
	if err := plugin.ProcessEnvVars(); err != nil {
		return nil, fmt.Errorf(
			"error processing plugin environment variables: %w",
			err,
		)
	}

	if cfg.VotingWindow == 0 {
		return nil, errors.New("invalid votingWindow: must be at least 1 block")
	}
	if _, err := cfg.ShutdownTimeoutDuration(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadFile(configFile string) error {
	buf, err := os.ReadFile(configFile)
	if err != nil {
		return fmt.Errorf("error reading config file: %w", err)
	}

	// First unmarshal into temp config to handle plugin sections
	var tempCfg tempConfig
	if err := yaml.Unmarshal(buf, &tempCfg); err != nil {
		return fmt.Errorf("error parsing config file: %w", err)
	}

	// Decoding onto c keeps the defaults of keys the file omits
	if !tempCfg.Config.IsZero() {
		if err := tempCfg.Config.Decode(c); err != nil {
			return fmt.Errorf("error parsing config section: %w", err)
		}
	}

	// Process plugin configurations
	pluginConfig := make(map[string]map[string]map[string]any)
	if tempCfg.Blob != nil {
		pluginConfig["blob"] = tempCfg.Blob
	}
	if tempCfg.Metadata != nil {
		pluginConfig["metadata"] = tempCfg.Metadata
	}
	if tempCfg.Database != nil {
		if tempCfg.Database.Blob != nil {
			if name, ok := pluginName(tempCfg.Database.Blob); ok {
				c.BlobPlugin = name
			}
			mergePluginConfig(pluginConfig, "blob", tempCfg.Database.Blob)
		}
		if tempCfg.Database.Metadata != nil {
			if name, ok := pluginName(tempCfg.Database.Metadata); ok {
				c.MetadataPlugin = name
			}
			mergePluginConfig(pluginConfig, "metadata", tempCfg.Database.Metadata)
		}
	}
	if len(pluginConfig) > 0 {
		if err := plugin.ProcessConfig(pluginConfig); err != nil {
			return fmt.Errorf("error processing plugin config: %w", err)
		}
	}
	return nil
}

// pluginName extracts and removes the "plugin" key of a database section
func pluginName(section map[string]any) (string, bool) {
	val, exists := section["plugin"]
	if !exists {
		return "", false
	}
	name, ok := val.(string)
	if !ok {
		return "", false
	}
	delete(section, "plugin")
	return name, true
}

func mergePluginConfig(
	pluginConfig map[string]map[string]map[string]any,
	typeName string,
	section map[string]any,
) {
	typeConfig := make(map[string]map[string]any)
	for k, v := range section {
		switch val := v.(type) {
		case map[string]any:
			typeConfig[k] = val
		case map[any]any:
			stringAnyMap := make(map[string]any, len(val))
			for vk, vv := range val {
				if keyStr, ok := vk.(string); ok {
					stringAnyMap[keyStr] = vv
				}
			}
			typeConfig[k] = stringAnyMap
		default:
			fmt.Fprintf(os.Stderr, "warning: skipping %s config entry %q: expected map, got %T\n", typeName, k, v)
		}
	}
	// Merge with existing config instead of overwriting
	if pluginConfig[typeName] == nil {
		pluginConfig[typeName] = typeConfig
	} else {
		maps.Copy(pluginConfig[typeName], typeConfig)
	}
}
