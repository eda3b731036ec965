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

package types_test

import (
	"errors"
	"fmt"
	"io"
	"testing"

	"github.com/blinklabs-io/gavel/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKindOf(t *testing.T) {
	testDefs := []struct {
		err  error
		kind types.ErrorKind
	}{
		{err: types.ErrNotAuthorized, kind: types.KindAuthorization},
		{err: types.ErrUnauthorized, kind: types.KindAuthorization},
		{err: types.ErrAlreadyMember, kind: types.KindState},
		{err: types.ErrProposalNotExist, kind: types.KindState},
		{err: types.ErrProposalNotActive, kind: types.KindState},
		{err: types.ErrInsufficientBalance, kind: types.KindValue},
		{err: types.ErrOverflow, kind: types.KindValue},
		{err: types.ErrInvalidAmount, kind: types.KindValue},
		{
			err:  fmt.Errorf("transfer 5: %w", types.ErrInsufficientBalance),
			kind: types.KindValue,
		},
		{err: io.EOF, kind: types.KindUnknown},
		{err: nil, kind: types.KindUnknown},
	}
	for _, testDef := range testDefs {
		assert.Equal(t, testDef.kind, types.KindOf(testDef.err), "%v", testDef.err)
	}
}

func TestErrorByCode(t *testing.T) {
	wrapped := fmt.Errorf("execute proposal 1: %w", types.ErrProposalNotActive)
	code := types.CodeOf(wrapped)
	require.Equal(t, "ERR_PROPOSAL_NOT_ACTIVE", code)
	sentinel := types.ErrorByCode(code)
	require.NotNil(t, sentinel)
	assert.True(t, errors.Is(wrapped, sentinel))
	assert.Nil(t, types.ErrorByCode("ERR_BOGUS"))
	assert.Empty(t, types.CodeOf(io.EOF))
}

func TestParsePrincipal(t *testing.T) {
	p, err := types.ParsePrincipal("  ST2CY5V39NHDPWSXMW9QDT3HC3GD6Q6XX4CFRK9AG ")
	require.NoError(t, err)
	assert.Equal(
		t,
		types.Principal("ST2CY5V39NHDPWSXMW9QDT3HC3GD6Q6XX4CFRK9AG"),
		p,
	)
	_, err = types.ParsePrincipal("   ")
	require.ErrorIs(t, err, types.ErrInvalidPrincipal)
}
