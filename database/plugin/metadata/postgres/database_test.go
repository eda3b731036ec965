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


package postgres

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaults(t *testing.T) {
	d := NewWithOptions()
	assert.Equal(t, "localhost", d.conn.Host)
	assert.Equal(t, uint64(5432), d.conn.Port)
	assert.Equal(t, "postgres", d.conn.User)
	assert.Equal(t, "postgres", d.conn.Database)
	assert.Equal(t, "disable", d.conn.SSLMode)
	assert.Equal(t, "UTC", d.conn.TimeZone)
}

func TestDSN(t *testing.T) {
	d := NewWithOptions(
		WithHost("db.local"),
		WithPort(6543),
		WithUser("gavel"),
		WithPassword("secret"),
		WithDatabase("governance"),
		WithSSLMode("require"),
		WithTimeZone("Europe/Berlin"),
	)
	assert.Equal(
		t,
		"host=db.local user=gavel password=secret dbname=governance port=6543 sslmode=require TimeZone=Europe/Berlin",
		d.DSN(),
	)

	d = NewWithOptions(WithDSN("  postgres://u:p@h:5432/db  "))
	assert.Equal(t, "postgres://u:p@h:5432/db", d.DSN())
}

func TestCloseUnstarted(t *testing.T) {
	assert.NoError(t, NewWithOptions().Close())
}
