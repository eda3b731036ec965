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

package types

import "errors"

// ErrorKind classifies a governance failure
type ErrorKind int

const (
	KindUnknown ErrorKind = iota
	KindAuthorization
	KindState
	KindValue
)

func (k ErrorKind) String() string {
	switch k {
	case KindAuthorization:
		return "authorization"
	case KindState:
		return "state"
	case KindValue:
		return "value"
	default:
		return "unknown"
	}
}

// Error is a typed governance failure. The exported sentinels below are the
// only instances; operations wrap them with fmt.Errorf and %w.
type Error struct {
	Code    string
	Message string
	Kind    ErrorKind
}

func (e *Error) Error() string {
	return e.Code + ": " + e.Message
}

var (
	// Authorization errors
	ErrNotAuthorized = &Error{
		Kind:    KindAuthorization,
		Code:    "ERR_NOT_AUTHORIZED",
		Message: "caller is not the owner",
	}
	ErrUnauthorized = &Error{
		Kind:    KindAuthorization,
		Code:    "ERR_UNAUTHORIZED",
		Message: "unauthorized",
	}

	// State errors
	ErrAlreadyMember = &Error{
		Kind:    KindState,
		Code:    "ERR_ALREADY_MEMBER",
		Message: "principal is already a member",
	}
	ErrProposalNotExist = &Error{
		Kind:    KindState,
		Code:    "ERR_PROPOSAL_NOT_EXIST",
		Message: "proposal does not exist",
	}
	ErrProposalNotActive = &Error{
		Kind:    KindState,
		Code:    "ERR_PROPOSAL_NOT_ACTIVE",
		Message: "proposal is not active",
	}

	// Value errors
	ErrInsufficientBalance = &Error{
		Kind:    KindValue,
		Code:    "ERR_INSUFFICIENT_BALANCE",
		Message: "insufficient balance",
	}
	ErrOverflow = &Error{
		Kind:    KindValue,
		Code:    "ERR_OVERFLOW",
		Message: "arithmetic overflow",
	}
	ErrInvalidAmount = &Error{
		Kind:    KindValue,
		Code:    "ERR_INVALID_AMOUNT",
		Message: "amount must be positive",
	}
	ErrInvalidPrincipal = &Error{
		Kind:    KindValue,
		Code:    "ERR_INVALID_PRINCIPAL",
		Message: "invalid principal",
	}
)

var knownErrors = []*Error{
	ErrNotAuthorized,
	ErrUnauthorized,
	ErrAlreadyMember,
	ErrProposalNotExist,
	ErrProposalNotActive,
	ErrInsufficientBalance,
	ErrOverflow,
	ErrInvalidAmount,
	ErrInvalidPrincipal,
}

// KindOf returns the kind of the first typed governance error in the chain,
// or KindUnknown for infrastructure errors
func KindOf(err error) ErrorKind {
	var govErr *Error
	if errors.As(err, &govErr) {
		return govErr.Kind
	}
	return KindUnknown
}

// CodeOf returns the error code of the first typed governance error in the
// chain, or an empty string
func CodeOf(err error) string {
	var govErr *Error
	if errors.As(err, &govErr) {
		return govErr.Code
	}
	return ""
}

// ErrorByCode returns the sentinel error with the given code, or nil
func ErrorByCode(code string) *Error {
	for _, e := range knownErrors {
		if e.Code == code {
			return e
		}
	}
	return nil
}
