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


// Package sops wraps blob values in SOPS envelopes encrypted with cloud KMS
// master keys
package sops

import (
	"errors"
	"fmt"
	"os"
	"strings"

	sopsapi "github.com/getsops/sops/v3"
	"github.com/getsops/sops/v3/aes"
	scommon "github.com/getsops/sops/v3/cmd/sops/common"
	"github.com/getsops/sops/v3/config"
	"github.com/getsops/sops/v3/decrypt"
	"github.com/getsops/sops/v3/gcpkms"
	skeys "github.com/getsops/sops/v3/keys"
	awskms "github.com/getsops/sops/v3/kms"
	jsonstore "github.com/getsops/sops/v3/stores/json"
	"github.com/getsops/sops/v3/version"
)

const (
	EnvGcpKmsResourceID = "GAVEL_GCP_KMS_RESOURCE_ID"
	EnvAwsKmsKeyArns    = "GAVEL_AWS_KMS_KEY_ARNS"
	EnvAwsKmsProfile    = "GAVEL_AWS_KMS_PROFILE"
)

var (
	ErrNoMasterKeys     = errors.New("SOPS requires at least one master key to encrypt: set " + EnvGcpKmsResourceID + " and/or " + EnvAwsKmsKeyArns)
	ErrAlreadyEncrypted = errors.New("already encrypted")
)

// KeyConfig names the KMS master keys used for encryption
type KeyConfig struct {
	GcpKmsResourceID string
	AwsKmsKeyArns    string
	AwsKmsProfile    string
}

// KeyConfigFromEnv reads the master key configuration from the environment
func KeyConfigFromEnv() KeyConfig {
	return KeyConfig{
		GcpKmsResourceID: os.Getenv(EnvGcpKmsResourceID),
		AwsKmsKeyArns:    os.Getenv(EnvAwsKmsKeyArns),
		AwsKmsProfile:    os.Getenv(EnvAwsKmsProfile),
	}
}

func (k KeyConfig) keyGroups() ([]sopsapi.KeyGroup, error) {
	keyGroups := []sopsapi.KeyGroup{}
	if k.GcpKmsResourceID != "" {
		keys := []skeys.MasterKey{}
		for _, mk := range gcpkms.MasterKeysFromResourceIDString(k.GcpKmsResourceID) {
			keys = append(keys, mk)
		}
		if len(keys) > 0 {
			keyGroups = append(keyGroups, keys)
		}
	}
	if k.AwsKmsKeyArns != "" {
		keys := []skeys.MasterKey{}
		for _, mk := range awskms.MasterKeysFromArnString(k.AwsKmsKeyArns, nil, k.AwsKmsProfile) {
			keys = append(keys, mk)
		}
		if len(keys) > 0 {
			keyGroups = append(keyGroups, keys)
		}
	}
	if len(keyGroups) == 0 {
		return nil, ErrNoMasterKeys
	}
	return keyGroups, nil
}

// Decrypt opens a SOPS envelope. Master key access is resolved from the
// envelope metadata.
func Decrypt(data []byte) ([]byte, error) {
	ret, err := decrypt.Data(data, "binary")
	if err != nil {
		return nil, fmt.Errorf("sops decrypt: %w", err)
	}
	return ret, nil
}

// Encrypt seals data with the master keys named in the environment
func Encrypt(data []byte) ([]byte, error) {
	return EncryptWithKeys(data, KeyConfigFromEnv())
}

func EncryptWithKeys(data []byte, keyConfig KeyConfig) ([]byte, error) {
	if IsEncrypted(data) {
		return nil, ErrAlreadyEncrypted
	}
	keyGroups, err := keyConfig.keyGroups()
	if err != nil {
		return nil, err
	}
	storeConfig := &config.JSONBinaryStoreConfig{}
	input := jsonstore.NewBinaryStore(storeConfig)
	output := jsonstore.NewBinaryStore(storeConfig)
	branches, err := input.LoadPlainFile(data)
	if err != nil {
		return nil, fmt.Errorf("error loading data: %w", err)
	}
	tree := sopsapi.Tree{
		Branches: branches,
		Metadata: sopsapi.Metadata{
			KeyGroups: keyGroups,
			Version:   version.Version,
		},
	}
	dataKey, errs := tree.GenerateDataKey()
	if len(errs) > 0 {
		return nil, fmt.Errorf("failed generating data key: %w", errors.Join(errs...))
	}
	if err := scommon.EncryptTree(scommon.EncryptTreeOpts{
		DataKey: dataKey,
		Tree:    &tree,
		Cipher:  aes.NewCipher(),
	}); err != nil {
		return nil, fmt.Errorf("failed encrypt: %w", err)
	}
	encrypted, err := output.EmitEncryptedFile(tree)
	if err != nil {
		return nil, fmt.Errorf("failed output: %w", err)
	}
	return encrypted, nil
}

// IsEncrypted reports whether data looks like a SOPS binary envelope
func IsEncrypted(data []byte) bool {
	storeConfig := &config.JSONBinaryStoreConfig{}
	store := jsonstore.NewBinaryStore(storeConfig)
	// Plain binary input always loads as a single "data" branch
	if !strings.Contains(string(data), `"sops"`) {
		return false
	}
	if _, err := store.LoadEncryptedFile(data); err != nil {
		return false
	}
	return true
}
