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

package api

import (
	"errors"

	"connectrpc.com/connect"
	"github.com/blinklabs-io/gavel/types"
)

const (
	// CallerHeader carries the identity of the caller on every request
	CallerHeader = "Gavel-Caller"
	// ErrorCodeKey carries the governance error code in error metadata
	ErrorCodeKey = "Gavel-Error-Code"
)

// connectError maps a governance error to a Connect error. Errors that are
// not governance errors are reported as internal errors.
func connectError(err error) error {
	if err == nil {
		return nil
	}
	var code connect.Code
	switch types.KindOf(err) {
	case types.KindAuthorization:
		code = connect.CodePermissionDenied
	case types.KindState:
		if errors.Is(err, types.ErrProposalNotExist) {
			code = connect.CodeNotFound
		} else {
			code = connect.CodeFailedPrecondition
		}
	case types.KindValue:
		code = connect.CodeInvalidArgument
	default:
		return connect.NewError(connect.CodeInternal, err)
	}
	connectErr := connect.NewError(code, err)
	connectErr.Meta().Set(ErrorCodeKey, types.CodeOf(err))
	return connectErr
}

// governanceError maps a Connect error back to the typed governance error
// named in its metadata. Other errors are returned unchanged.
func governanceError(err error) error {
	if err == nil {
		return nil
	}
	var connectErr *connect.Error
	if !errors.As(err, &connectErr) {
		return err
	}
	govErr := types.ErrorByCode(connectErr.Meta().Get(ErrorCodeKey))
	if govErr == nil {
		return err
	}
	return &remoteError{connectErr: connectErr, govErr: govErr}
}

// remoteError matches both the governance sentinel and the Connect error it
// was carried in
type remoteError struct {
	connectErr *connect.Error
	govErr     *types.Error
}

func (e *remoteError) Error() string {
	return e.connectErr.Message()
}

func (e *remoteError) Unwrap() []error {
	return []error{e.govErr, e.connectErr}
}
