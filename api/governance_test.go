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

package api_test

import (
	"context"
	"sync"

	"github.com/blinklabs-io/gavel/api"
	"github.com/blinklabs-io/gavel/event"
	"github.com/blinklabs-io/gavel/governance"
	"github.com/blinklabs-io/gavel/proposal"
	"github.com/blinklabs-io/gavel/types"
)

// engineGovernance serves an in-memory engine and publishes an event per
// successful operation
type engineGovernance struct {
	engine   *governance.Engine
	eventBus *event.EventBus
	mu       sync.Mutex
	seq      uint64
}

var _ api.Governance = (*engineGovernance)(nil)

func newEngineGovernance(owner types.Principal, eventBus *event.EventBus) *engineGovernance {
	engine, err := governance.NewEngine(owner)
	if err != nil {
		panic(err)
	}
	return &engineGovernance{engine: engine, eventBus: eventBus}
}

func (g *engineGovernance) next() uint64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.seq++
	return g.seq
}

func (g *engineGovernance) Mint(_ context.Context, amount uint64, recipient, caller types.Principal) (uint64, error) {
	if err := g.engine.Mint(amount, recipient, caller); err != nil {
		return 0, err
	}
	seq := g.next()
	if g.eventBus != nil {
		g.eventBus.Publish(
			event.NewEvent(event.MintEventType, event.MintEvent{
				Sequence:  seq,
				Amount:    amount,
				Recipient: recipient.String(),
				Caller:    caller.String(),
			}),
		)
	}
	return seq, nil
}

func (g *engineGovernance) Transfer(_ context.Context, amount uint64, sender, recipient types.Principal) (uint64, error) {
	if err := g.engine.Transfer(amount, sender, recipient); err != nil {
		return 0, err
	}
	return g.next(), nil
}

func (g *engineGovernance) RegisterMember(_ context.Context, recipient, caller types.Principal) (uint64, error) {
	if err := g.engine.RegisterMember(recipient, caller); err != nil {
		return 0, err
	}
	return g.next(), nil
}

func (g *engineGovernance) CreateProposal(_ context.Context, description string, proposer types.Principal, currentBlock uint64) (uint64, uint64, error) {
	id, err := g.engine.CreateProposal(description, proposer, currentBlock)
	if err != nil {
		return 0, 0, err
	}
	return id, g.next(), nil
}

func (g *engineGovernance) CastVote(_ context.Context, proposalID uint64, voter types.Principal, support bool, currentBlock uint64) (uint64, uint64, error) {
	weight, err := g.engine.CastVote(proposalID, voter, support, currentBlock)
	if err != nil {
		return 0, 0, err
	}
	return weight, g.next(), nil
}

func (g *engineGovernance) ExecuteProposal(_ context.Context, proposalID uint64) (uint64, error) {
	if err := g.engine.ExecuteProposal(proposalID); err != nil {
		return 0, err
	}
	return g.next(), nil
}

func (g *engineGovernance) GetBalance(address types.Principal) uint64 {
	return g.engine.GetBalance(address)
}

func (g *engineGovernance) TotalSupply() uint64 {
	return g.engine.TotalSupply()
}

func (g *engineGovernance) IsMember(address types.Principal) bool {
	return g.engine.IsMember(address)
}

func (g *engineGovernance) IsProposalExecuted(proposalID uint64) (bool, error) {
	return g.engine.IsProposalExecuted(proposalID)
}

func (g *engineGovernance) GetProposal(proposalID uint64) (proposal.Proposal, error) {
	return g.engine.GetProposal(proposalID)
}

func (g *engineGovernance) Proposals() []proposal.Proposal {
	return g.engine.Proposals()
}
