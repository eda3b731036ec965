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
	"strconv"

	"github.com/spf13/pflag"
)

type PluginOptionType int

const (
	PluginOptionTypeString PluginOptionType = iota + 1
	PluginOptionTypeBool
	PluginOptionTypeInt
	PluginOptionTypeUint
)

// PluginOption describes a single plugin setting. Dest must be a pointer
// matching Type: *string, *bool, *int or *uint64.
type PluginOption struct {
	Name         string
	Type         PluginOptionType
	Description  string
	DefaultValue any
	Dest         any
}

func (p PluginOption) flagName(typeName, pluginName string) string {
	return fmt.Sprintf("%s-%s-%s", typeName, pluginName, p.Name)
}

// AddToFlagSet registers the option as a command line flag bound to Dest
func (p PluginOption) AddToFlagSet(
	fs *pflag.FlagSet,
	typeName string,
	pluginName string,
) error {
	name := p.flagName(typeName, pluginName)
	switch p.Type {
	case PluginOptionTypeString:
		dest, ok := p.Dest.(*string)
		if !ok || dest == nil {
			return fmt.Errorf("invalid destination for option %s", name)
		}
		def, _ := p.DefaultValue.(string)
		fs.StringVar(dest, name, def, p.Description)
	case PluginOptionTypeBool:
		dest, ok := p.Dest.(*bool)
		if !ok || dest == nil {
			return fmt.Errorf("invalid destination for option %s", name)
		}
		def, _ := p.DefaultValue.(bool)
		fs.BoolVar(dest, name, def, p.Description)
	case PluginOptionTypeInt:
		dest, ok := p.Dest.(*int)
		if !ok || dest == nil {
			return fmt.Errorf("invalid destination for option %s", name)
		}
		def, _ := p.DefaultValue.(int)
		fs.IntVar(dest, name, def, p.Description)
	case PluginOptionTypeUint:
		dest, ok := p.Dest.(*uint64)
		if !ok || dest == nil {
			return fmt.Errorf("invalid destination for option %s", name)
		}
		def, _ := p.DefaultValue.(uint64)
		fs.Uint64Var(dest, name, def, p.Description)
	default:
		return fmt.Errorf("unknown plugin option type %d for option %s", p.Type, name)
	}
	return nil
}

// ProcessConfig sets Dest from a value decoded from a YAML config file
func (p PluginOption) ProcessConfig(value any) error {
	switch p.Type {
	case PluginOptionTypeString:
		v, ok := value.(string)
		if !ok {
			return fmt.Errorf("invalid value for option '%s': expected string and got %T", p.Name, value)
		}
		return p.set(v)
	case PluginOptionTypeBool:
		v, ok := value.(bool)
		if !ok {
			return fmt.Errorf("invalid value for option '%s': expected bool and got %T", p.Name, value)
		}
		return p.set(v)
	case PluginOptionTypeInt:
		switch v := value.(type) {
		case int:
			return p.set(v)
		case int64:
			return p.set(int(v))
		case uint64:
			return p.set(int(v)) // #nosec G115
		default:
			return fmt.Errorf("invalid value for option '%s': expected int and got %T", p.Name, value)
		}
	case PluginOptionTypeUint:
		switch v := value.(type) {
		case int:
			if v < 0 {
				return fmt.Errorf("invalid value for option '%s': negative value", p.Name)
			}
			return p.set(uint64(v))
		case int64:
			if v < 0 {
				return fmt.Errorf("invalid value for option '%s': negative value", p.Name)
			}
			return p.set(uint64(v))
		case uint64:
			return p.set(v)
		default:
			return fmt.Errorf("invalid value for option '%s': expected uint and got %T", p.Name, value)
		}
	default:
		return fmt.Errorf("unknown plugin option type %d for option %s", p.Type, p.Name)
	}
}

// ProcessEnvVar parses the raw value of an environment variable into Dest
func (p PluginOption) ProcessEnvVar(value string) error {
	switch p.Type {
	case PluginOptionTypeString:
		return p.set(value)
	case PluginOptionTypeBool:
		v, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid bool value for option '%s': %w", p.Name, err)
		}
		return p.set(v)
	case PluginOptionTypeInt:
		v, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid int value for option '%s': %w", p.Name, err)
		}
		return p.set(v)
	case PluginOptionTypeUint:
		v, err := strconv.ParseUint(value, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid uint value for option '%s': %w", p.Name, err)
		}
		return p.set(v)
	default:
		return fmt.Errorf("unknown plugin option type %d for option %s", p.Type, p.Name)
	}
}

func (p PluginOption) set(value any) error {
	if p.Dest == nil {
		return fmt.Errorf("nil destination for option %s", p.Name)
	}
	switch dest := p.Dest.(type) {
	case *string:
		v, ok := value.(string)
		if !ok || dest == nil {
			return fmt.Errorf("invalid type for option %s: expected string", p.Name)
		}
		*dest = v
	case *bool:
		v, ok := value.(bool)
		if !ok || dest == nil {
			return fmt.Errorf("invalid type for option %s: expected bool", p.Name)
		}
		*dest = v
	case *int:
		v, ok := value.(int)
		if !ok || dest == nil {
			return fmt.Errorf("invalid type for option %s: expected int", p.Name)
		}
		*dest = v
	case *uint64:
		v, ok := value.(uint64)
		if !ok || dest == nil {
			return fmt.Errorf("invalid type for option %s: expected uint64", p.Name)
		}
		*dest = v
	default:
		return fmt.Errorf("invalid destination type %T for option %s", p.Dest, p.Name)
	}
	return nil
}

// StringOption describes a string setting and stores def in dest
func StringOption(name, description, def string, dest *string) PluginOption {
	*dest = def
	return PluginOption{
		Name:         name,
		Type:         PluginOptionTypeString,
		Description:  description,
		DefaultValue: def,
		Dest:         dest,
	}
}

// BoolOption describes a bool setting and stores def in dest
func BoolOption(name, description string, def bool, dest *bool) PluginOption {
	*dest = def
	return PluginOption{
		Name:         name,
		Type:         PluginOptionTypeBool,
		Description:  description,
		DefaultValue: def,
		Dest:         dest,
	}
}

// UintOption describes a uint64 setting and stores def in dest
func UintOption(name, description string, def uint64, dest *uint64) PluginOption {
	*dest = def
	return PluginOption{
		Name:         name,
		Type:         PluginOptionTypeUint,
		Description:  description,
		DefaultValue: def,
		Dest:         dest,
	}
}
