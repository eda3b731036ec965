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


package mysql

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	d := NewWithOptions()
	assert.Equal(t, "localhost", d.conn.Host)
	assert.Equal(t, uint64(3306), d.conn.Port)
	assert.Equal(t, "root", d.conn.User)
	assert.Equal(t, "gavel", d.conn.Database)
	assert.Equal(t, "UTC", d.conn.TimeZone)
}

func TestDSNFromParts(t *testing.T) {
	d := NewWithOptions(
		WithHost("db.local"),
		WithPort(3307),
		WithUser("gavel"),
		WithPassword("secret"),
		WithDatabase("governance"),
		WithSSLMode("true"),
	)
	dsn, database := d.DSN()
	assert.Equal(t, "governance", database)
	assert.Contains(t, dsn, "gavel:secret@tcp(db.local:3307)/governance?")
	assert.Contains(t, dsn, "parseTime=true")
	assert.Contains(t, dsn, "tls=true")
}

func TestDSNOverride(t *testing.T) {
	d := NewWithOptions(WithDSN("u:p@tcp(h:3306)/votes?parseTime=true"))
	dsn, database := d.DSN()
	assert.Equal(t, "u:p@tcp(h:3306)/votes?parseTime=true", dsn)
	assert.Equal(t, "votes", database)
}

func TestParseMysqlDatabaseFromDSN(t *testing.T) {
	db, ok := parseMysqlDatabaseFromDSN("u:p@tcp(h:3306)/votes?x=y")
	require.True(t, ok)
	assert.Equal(t, "votes", db)
	_, ok = parseMysqlDatabaseFromDSN("u:p@tcp(h:3306)/")
	assert.False(t, ok)
	_, ok = parseMysqlDatabaseFromDSN("nodb")
	assert.False(t, ok)
}

func TestStripDatabaseFromDSN(t *testing.T) {
	dsn, ok := stripDatabaseFromDSN("u:p@tcp(h:3306)/votes?x=y")
	require.True(t, ok)
	assert.Equal(t, "u:p@tcp(h:3306)/?x=y", dsn)
	dsn, ok = stripDatabaseFromDSN("u:p@tcp(h:3306)/votes")
	require.True(t, ok)
	assert.Equal(t, "u:p@tcp(h:3306)/", dsn)
	_, ok = stripDatabaseFromDSN("nodb")
	assert.False(t, ok)
}

func TestEnsureDatabaseExistsSkipsEmptyName(t *testing.T) {
	created, err := ensureDatabaseExists("u:p@tcp(h:3306)/", "")
	require.NoError(t, err)
	assert.False(t, created)
}
