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


package sops_test

import (
	"testing"

	"github.com/blinklabs-io/gavel/database/sops"
	"github.com/stretchr/testify/assert"
)

func TestDecryptInvalid(t *testing.T) {
	_, err := sops.Decrypt([]byte("not an envelope"))
	assert.Error(t, err)
}

func TestEncryptWithoutKeys(t *testing.T) {
	_, err := sops.EncryptWithKeys([]byte("payload"), sops.KeyConfig{})
	assert.ErrorIs(t, err, sops.ErrNoMasterKeys)
}

func TestEncryptFromEnvWithoutKeys(t *testing.T) {
	t.Setenv(sops.EnvGcpKmsResourceID, "")
	t.Setenv(sops.EnvAwsKmsKeyArns, "")
	_, err := sops.Encrypt([]byte("payload"))
	assert.ErrorIs(t, err, sops.ErrNoMasterKeys)
}

func TestKeyConfigFromEnv(t *testing.T) {
	t.Setenv(sops.EnvGcpKmsResourceID, "projects/p/locations/global/keyRings/r/cryptoKeys/k")
	t.Setenv(sops.EnvAwsKmsKeyArns, "arn:aws:kms:us-east-1:123456789012:key/abc")
	t.Setenv(sops.EnvAwsKmsProfile, "default")
	cfg := sops.KeyConfigFromEnv()
	assert.Equal(t, "projects/p/locations/global/keyRings/r/cryptoKeys/k", cfg.GcpKmsResourceID)
	assert.Equal(t, "arn:aws:kms:us-east-1:123456789012:key/abc", cfg.AwsKmsKeyArns)
	assert.Equal(t, "default", cfg.AwsKmsProfile)
}

func TestIsEncrypted(t *testing.T) {
	assert.False(t, sops.IsEncrypted([]byte("plain")))
	assert.False(t, sops.IsEncrypted([]byte(`{"sops": "fake"}`)))
}
