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


package gcs_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/blinklabs-io/gavel/database/plugin"
	"github.com/blinklabs-io/gavel/database/plugin/blob/gcs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCredentialValidation(t *testing.T) {
	tempDir := t.TempDir()
	validFile := filepath.Join(tempDir, "credentials.json")
	require.NoError(t, os.WriteFile(validFile, []byte("{}"), 0o600))

	tests := []struct {
		name            string
		credentialsFile string
		errorMessage    string
	}{
		{
			name:            "valid credentials file",
			credentialsFile: validFile,
		},
		{
			name:            "nonexistent credentials file",
			credentialsFile: filepath.Join(tempDir, "nonexistent-credentials.json"),
			errorMessage:    "GCS credentials file does not exist",
		},
		{
			name:            "empty credentials file path",
			credentialsFile: "",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := gcs.ValidateCredentials(tt.credentialsFile)
			if tt.errorMessage != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errorMessage)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestNewLocation(t *testing.T) {
	tests := []struct {
		location string
		wantErr  bool
	}{
		{location: "gcs://bucket"},
		{location: "gcs://bucket/some/prefix"},
		{location: "gcs://", wantErr: true},
		{location: "s3://bucket", wantErr: true},
		{location: "gcs:///prefix", wantErr: true},
	}
	for _, tt := range tests {
		store, err := gcs.New(tt.location, nil, nil)
		if tt.wantErr {
			assert.Error(t, err, tt.location)
			continue
		}
		require.NoError(t, err, tt.location)
		assert.NotNil(t, store)
	}
}

func TestStartRequiresBucket(t *testing.T) {
	store := gcs.NewWithOptions()
	assert.ErrorContains(t, store.Start(), "bucket not set")
	assert.NoError(t, store.Close())
}

func TestStartRejectsMissingCredentials(t *testing.T) {
	store := gcs.NewWithOptions(
		gcs.WithBucket("bucket"),
		gcs.WithCredentialsFile(filepath.Join(t.TempDir(), "missing.json")),
	)
	assert.ErrorContains(t, store.Start(), "does not exist")
}

func TestPluginRegistered(t *testing.T) {
	found := false
	for _, entry := range plugin.GetPlugins(plugin.PluginTypeBlob) {
		if entry.Name == "gcs" {
			found = true
			assert.Len(t, entry.Options, 4)
		}
	}
	assert.True(t, found)
	_, err := plugin.StartPlugin(plugin.PluginTypeBlob, "gcs", nil, nil)
	assert.ErrorContains(t, err, "bucket not set")
}
