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

package gavel

import (
	"fmt"

	"github.com/blinklabs-io/gavel/database"
	"github.com/blinklabs-io/gavel/database/models"
	dbtypes "github.com/blinklabs-io/gavel/database/types"
	"github.com/blinklabs-io/gavel/governance"
	"github.com/blinklabs-io/gavel/proposal"
	"github.com/blinklabs-io/gavel/types"
)

// reload replaces the engine state with the last committed state
func (n *Node) reload() error {
	state, err := n.db.LoadState()
	if err != nil {
		return err
	}
	govState, err := governanceState(state)
	if err != nil {
		return err
	}
	return n.engine.Restore(govState)
}

func governanceState(state *database.State) (governance.State, error) {
	ret := governance.State{
		Balances:       make(map[types.Principal]uint64, len(state.Accounts)),
		Members:        make([]types.Principal, 0, len(state.Members)),
		Proposals:      make([]proposal.Proposal, 0, len(state.Proposals)),
		NextProposalID: state.NextProposalID,
	}
	for _, account := range state.Accounts {
		addr, err := types.ParsePrincipal(account.Address)
		if err != nil {
			return governance.State{}, fmt.Errorf("account: %w", err)
		}
		ret.Balances[addr] = uint64(account.Balance)
	}
	for _, member := range state.Members {
		addr, err := types.ParsePrincipal(member.Address)
		if err != nil {
			return governance.State{}, fmt.Errorf("member: %w", err)
		}
		ret.Members = append(ret.Members, addr)
	}
	for _, p := range state.Proposals {
		ret.Proposals = append(ret.Proposals, proposal.Proposal{
			ID:           uint64(p.ID),
			Proposer:     types.Principal(p.Proposer),
			Description:  p.Description,
			ForVotes:     uint64(p.ForVotes),
			AgainstVotes: uint64(p.AgainstVotes),
			StartBlock:   uint64(p.StartBlock),
			EndBlock:     uint64(p.EndBlock),
			Executed:     p.Executed,
		})
	}
	return ret, nil
}

func proposalModel(p proposal.Proposal) models.Proposal {
	return models.Proposal{
		ID:           dbtypes.Uint64(p.ID),
		Proposer:     p.Proposer.String(),
		Description:  p.Description,
		ForVotes:     dbtypes.Uint64(p.ForVotes),
		AgainstVotes: dbtypes.Uint64(p.AgainstVotes),
		StartBlock:   dbtypes.Uint64(p.StartBlock),
		EndBlock:     dbtypes.Uint64(p.EndBlock),
		Executed:     p.Executed,
	}
}

// accountChange returns the current balances of the given principals
func (n *Node) accountChange(principals ...types.Principal) map[string]uint64 {
	ret := make(map[string]uint64, len(principals))
	for _, p := range principals {
		ret[p.String()] = n.engine.GetBalance(p)
	}
	return ret
}

// proposalChange returns the stored form of the given proposal
func (n *Node) proposalChange(proposalID uint64) ([]models.Proposal, error) {
	p, err := n.engine.GetProposal(proposalID)
	if err != nil {
		return nil, err
	}
	return []models.Proposal{proposalModel(p)}, nil
}
