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

package membership

import (
	"fmt"
	"slices"

	"github.com/blinklabs-io/gavel/types"
)

// DefaultGrant is the balance credited to a newly registered member
const DefaultGrant uint64 = 100

// Granter credits the registration grant. It must either credit the full
// amount or return an error without side effects.
type Granter interface {
	Mint(amount uint64, recipient types.Principal, caller types.Principal) error
}

// Registry is the set of registered members. Members are never removed.
//
// Registry is not safe for concurrent use; callers serialize access.
type Registry struct {
	granter Granter
	members map[types.Principal]struct{}
	owner   types.Principal
	grant   uint64
}

type RegistryOptionFunc func(*Registry)

// WithGrant overrides the registration grant. A zero grant disables it.
func WithGrant(grant uint64) RegistryOptionFunc {
	return func(r *Registry) {
		r.grant = grant
	}
}

// WithMembers preloads previously persisted members
func WithMembers(members ...types.Principal) RegistryOptionFunc {
	return func(r *Registry) {
		for _, member := range members {
			r.members[member] = struct{}{}
		}
	}
}

// NewRegistry returns a registry where only owner may register members
func NewRegistry(
	owner types.Principal,
	granter Granter,
	opts ...RegistryOptionFunc,
) *Registry {
	r := &Registry{
		owner:   owner,
		granter: granter,
		grant:   DefaultGrant,
		members: make(map[types.Principal]struct{}),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register marks recipient as a member and credits the registration grant.
// Both happen or neither does.
func (r *Registry) Register(recipient, caller types.Principal) error {
	if caller != r.owner {
		return fmt.Errorf(
			"register %s by %s: %w",
			recipient,
			caller,
			types.ErrUnauthorized,
		)
	}
	if r.IsMember(recipient) {
		return fmt.Errorf("register %s: %w", recipient, types.ErrAlreadyMember)
	}
	if r.grant > 0 {
		if err := r.granter.Mint(r.grant, recipient, caller); err != nil {
			return fmt.Errorf("register %s: grant: %w", recipient, err)
		}
	}
	r.members[recipient] = struct{}{}
	return nil
}

// IsMember reports whether address is registered
func (r *Registry) IsMember(address types.Principal) bool {
	_, ok := r.members[address]
	return ok
}

// Members returns all members in sorted order
func (r *Registry) Members() []types.Principal {
	ret := make([]types.Principal, 0, len(r.members))
	for member := range r.members {
		ret = append(ret, member)
	}
	slices.Sort(ret)
	return ret
}

// Count returns the number of members
func (r *Registry) Count() int {
	return len(r.members)
}

// Grant returns the configured registration grant
func (r *Registry) Grant() uint64 {
	return r.grant
}
