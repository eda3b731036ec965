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

package gormstore

import "github.com/blinklabs-io/gavel/database/plugin"

// Conn holds the connection settings of a server backed metadata store
type Conn struct {
	Host     string
	Port     uint64
	User     string
	Password string
	Database string
	SSLMode  string
	TimeZone string
	// DSN replaces every other setting when non-empty
	DSN string
}

// Fill copies each empty field of c from def
func (c *Conn) Fill(def Conn) {
	fill := func(dst *string, src string) {
		if *dst == "" {
			*dst = src
		}
	}
	fill(&c.Host, def.Host)
	fill(&c.User, def.User)
	fill(&c.Database, def.Database)
	fill(&c.SSLMode, def.SSLMode)
	fill(&c.TimeZone, def.TimeZone)
	if c.Port == 0 {
		c.Port = def.Port
	}
}

// Options returns plugin options bound to the fields of c, seeded from def
func (c *Conn) Options(backend string, def Conn) []plugin.PluginOption {
	return []plugin.PluginOption{
		plugin.StringOption("host", backend+" host", def.Host, &c.Host),
		plugin.UintOption("port", backend+" port", def.Port, &c.Port),
		plugin.StringOption("user", backend+" user", def.User, &c.User),
		plugin.StringOption("password", backend+" password", def.Password, &c.Password),
		plugin.StringOption("database", backend+" database name", def.Database, &c.Database),
		plugin.StringOption("ssl-mode", backend+" TLS mode", def.SSLMode, &c.SSLMode),
		plugin.StringOption("timezone", backend+" session time zone", def.TimeZone, &c.TimeZone),
		plugin.StringOption("dsn", "full "+backend+" DSN, overrides the other connection options", "", &c.DSN),
	}
}

// LogAttrs identifies the connection target without credentials
func (c *Conn) LogAttrs() []any {
	return []any{"host", c.Host, "port", c.Port, "database", c.Database}
}
