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

package plugin

import (
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/spf13/pflag"
)

type PluginType int

const (
	PluginTypeBlob PluginType = iota + 1
	PluginTypeMetadata
)

const envVarPrefix = "GAVEL_DATABASE_"

func PluginTypeName(pluginType PluginType) string {
	switch pluginType {
	case PluginTypeBlob:
		return "blob"
	case PluginTypeMetadata:
		return "metadata"
	default:
		return ""
	}
}

type PluginEntry struct {
	Type               PluginType
	Name               string
	Description        string
	NewFromOptionsFunc func() Plugin
	Options            []PluginOption
}

var (
	pluginEntries      []PluginEntry
	pluginEntriesMutex sync.RWMutex
)

// Register adds a plugin to the registry. Registering the same type and name
// again replaces the earlier entry.
func Register(pluginEntry PluginEntry) {
	pluginEntriesMutex.Lock()
	defer pluginEntriesMutex.Unlock()
	for i, p := range pluginEntries {
		if p.Type == pluginEntry.Type && p.Name == pluginEntry.Name {
			pluginEntries[i] = pluginEntry
			return
		}
	}
	pluginEntries = append(pluginEntries, pluginEntry)
}

// GetPlugins returns the registered plugins of the given type
func GetPlugins(pluginType PluginType) []PluginEntry {
	pluginEntriesMutex.RLock()
	defer pluginEntriesMutex.RUnlock()
	ret := []PluginEntry{}
	for _, p := range pluginEntries {
		if p.Type == pluginType {
			ret = append(ret, p)
		}
	}
	return ret
}

// GetPlugin returns a new instance of the named plugin built from its
// current options, or nil if no such plugin is registered
func GetPlugin(pluginType PluginType, pluginName string) Plugin {
	entry, ok := getPluginEntry(pluginType, pluginName)
	if !ok || entry.NewFromOptionsFunc == nil {
		return nil
	}
	return entry.NewFromOptionsFunc()
}

func getPluginEntry(pluginType PluginType, pluginName string) (PluginEntry, bool) {
	pluginEntriesMutex.RLock()
	defer pluginEntriesMutex.RUnlock()
	for _, p := range pluginEntries {
		if p.Type == pluginType && p.Name == pluginName {
			return p, true
		}
	}
	return PluginEntry{}, false
}

// PopulateCmdlineOptions adds a flag for every plugin option, named
// <type>-<plugin>-<option>
func PopulateCmdlineOptions(fs *pflag.FlagSet) error {
	pluginEntriesMutex.RLock()
	defer pluginEntriesMutex.RUnlock()
	for _, p := range pluginEntries {
		for _, opt := range p.Options {
			if err := opt.AddToFlagSet(fs, PluginTypeName(p.Type), p.Name); err != nil {
				return err
			}
		}
	}
	return nil
}

// ProcessConfig applies plugin options from a config file. The map is keyed
// by plugin type name, then plugin name, then option name.
func ProcessConfig(pluginConfig map[string]map[string]map[string]any) error {
	pluginEntriesMutex.RLock()
	defer pluginEntriesMutex.RUnlock()
	for typeName, typeConfig := range pluginConfig {
		for pluginName, options := range typeConfig {
			var entry *PluginEntry
			for i := range pluginEntries {
				p := &pluginEntries[i]
				if PluginTypeName(p.Type) == typeName && p.Name == pluginName {
					entry = p
					break
				}
			}
			if entry == nil {
				return fmt.Errorf(
					"unknown %s plugin '%s' in config",
					typeName,
					pluginName,
				)
			}
			for optName, optValue := range options {
				opt, ok := entry.option(optName)
				if !ok {
					return fmt.Errorf(
						"unknown option '%s' for %s plugin '%s'",
						optName,
						typeName,
						pluginName,
					)
				}
				if err := opt.ProcessConfig(optValue); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

// ProcessEnvVars applies plugin options from environment variables named
// GAVEL_DATABASE_<TYPE>_<PLUGIN>_<OPTION>
func ProcessEnvVars() error {
	pluginEntriesMutex.RLock()
	defer pluginEntriesMutex.RUnlock()
	for _, p := range pluginEntries {
		for _, opt := range p.Options {
			envName := envVarName(PluginTypeName(p.Type), p.Name, opt.Name)
			value, ok := os.LookupEnv(envName)
			if !ok {
				continue
			}
			if err := opt.ProcessEnvVar(value); err != nil {
				return fmt.Errorf("%s: %w", envName, err)
			}
		}
	}
	return nil
}

func envVarName(typeName, pluginName, optionName string) string {
	name := strings.Join([]string{typeName, pluginName, optionName}, "_")
	name = strings.ReplaceAll(name, "-", "_")
	return envVarPrefix + strings.ToUpper(name)
}

func (p *PluginEntry) option(name string) (PluginOption, bool) {
	for _, opt := range p.Options {
		if opt.Name == name {
			return opt, true
		}
	}
	return PluginOption{}, false
}
