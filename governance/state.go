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

package governance

import (
	"fmt"

	"github.com/blinklabs-io/gavel/ledger"
	"github.com/blinklabs-io/gavel/membership"
	"github.com/blinklabs-io/gavel/proposal"
	"github.com/blinklabs-io/gavel/types"
)

// State is a point-in-time copy of everything the engine owns
type State struct {
	Balances       map[types.Principal]uint64
	Members        []types.Principal
	Proposals      []proposal.Proposal
	NextProposalID uint64
}

// Snapshot returns a copy of the current engine state
func (e *Engine) Snapshot() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return State{
		Balances:       e.ledger.Accounts(),
		Members:        e.members.Members(),
		Proposals:      e.proposals.List(),
		NextProposalID: e.proposals.NextID(),
	}
}

// Restore replaces the engine state. On error the current state is kept.
func (e *Engine) Restore(state State) error {
	l, members, proposals, err := e.build(state)
	if err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.ledger = l
	e.members = members
	e.proposals = proposals
	e.updateGauges()
	e.logger.Debug(
		"restored governance state",
		"accounts", len(state.Balances),
		"members", members.Count(),
		"proposals", proposals.Count(),
		"next_proposal_id", proposals.NextID(),
	)
	return nil
}

func (e *Engine) build(
	state State,
) (*ledger.Ledger, *membership.Registry, *proposal.Store, error) {
	l, err := ledger.NewFromBalances(e.owner, state.Balances)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("restore ledger: %w", err)
	}
	members := membership.NewRegistry(
		e.owner,
		l,
		membership.WithGrant(e.memberGrant),
		membership.WithMembers(state.Members...),
	)
	proposals, err := proposal.NewStoreFromProposals(
		e.votingWindow,
		state.NextProposalID,
		state.Proposals,
	)
	if err != nil {
		return nil, nil, nil, err
	}
	return l, members, proposals, nil
}
