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
	"io"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/blinklabs-io/gavel/ledger"
	"github.com/blinklabs-io/gavel/membership"
	"github.com/blinklabs-io/gavel/proposal"
	"github.com/blinklabs-io/gavel/types"
	"github.com/prometheus/client_golang/prometheus"
)

const (
	OpMint            = "mint"
	OpTransfer        = "transfer"
	OpRegisterMember  = "register_member"
	OpCreateProposal  = "create_proposal"
	OpVoteProposal    = "vote_proposal"
	OpExecuteProposal = "execute_proposal"
)

// Engine orchestrates the ledger, the membership registry and the proposal
// store. Every method holds the engine lock for its whole duration.
type Engine struct {
	mu            sync.Mutex
	logger        *slog.Logger
	promRegistry  prometheus.Registerer
	metrics       *engineMetrics
	owner         types.Principal
	votingWindow  uint64
	memberGrant   uint64
	enforceWindow bool
	initialState  *State
	ledger        *ledger.Ledger
	members       *membership.Registry
	proposals     *proposal.Store
}

// NewEngine returns an engine owned by the given principal
func NewEngine(owner types.Principal, opts ...EngineOptionFunc) (*Engine, error) {
	if owner == "" {
		return nil, fmt.Errorf("engine owner: %w", types.ErrInvalidPrincipal)
	}
	e := &Engine{
		owner:        owner,
		votingWindow: proposal.DefaultVotingWindow,
		memberGrant:  membership.DefaultGrant,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	e.logger = e.logger.With("component", "governance")
	if e.promRegistry != nil {
		e.metrics = &engineMetrics{}
		e.metrics.init(e.promRegistry)
	}
	state := State{NextProposalID: 1}
	if e.initialState != nil {
		state = *e.initialState
		e.initialState = nil
	}
	l, members, proposals, err := e.build(state)
	if err != nil {
		return nil, err
	}
	e.ledger = l
	e.members = members
	e.proposals = proposals
	e.updateGauges()
	return e, nil
}

func (e *Engine) Owner() types.Principal {
	return e.owner
}

func (e *Engine) VotingWindow() uint64 {
	return e.votingWindow
}

func (e *Engine) MemberGrant() uint64 {
	return e.memberGrant
}

func (e *Engine) VotingWindowEnforced() bool {
	return e.enforceWindow
}

// Mint credits amount to recipient. Only the owner may mint.
func (e *Engine) Mint(amount uint64, recipient, caller types.Principal) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	start := time.Now()
	err := e.ledger.Mint(amount, recipient, caller)
	e.observe(OpMint, start, err)
	if err != nil {
		return err
	}
	if e.metrics != nil {
		e.metrics.tokensMintedTotal.Add(float64(amount))
	}
	e.updateGauges()
	e.logger.Debug(
		"minted tokens",
		"amount", amount,
		"recipient", recipient.String(),
	)
	return nil
}

// Transfer moves amount from sender to recipient
func (e *Engine) Transfer(amount uint64, sender, recipient types.Principal) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	start := time.Now()
	err := e.ledger.Transfer(amount, sender, recipient)
	e.observe(OpTransfer, start, err)
	if err != nil {
		return err
	}
	if e.metrics != nil {
		e.metrics.tokensTransferred.Add(float64(amount))
	}
	e.logger.Debug(
		"transferred tokens",
		"amount", amount,
		"sender", sender.String(),
		"recipient", recipient.String(),
	)
	return nil
}

// GetBalance returns the balance of address, or 0 if it has none
func (e *Engine) GetBalance(address types.Principal) uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.ledger.Balance(address)
}

func (e *Engine) TotalSupply() uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.ledger.TotalSupply()
}

// RegisterMember adds recipient to the member set and grants it the
// initial balance. Only the owner may register members.
func (e *Engine) RegisterMember(recipient, caller types.Principal) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	start := time.Now()
	err := e.members.Register(recipient, caller)
	e.observe(OpRegisterMember, start, err)
	if err != nil {
		return err
	}
	if e.metrics != nil {
		e.metrics.registrationsTotal.Inc()
		e.metrics.tokensMintedTotal.Add(float64(e.members.Grant()))
	}
	e.updateGauges()
	e.logger.Info(
		"registered member",
		"member", recipient.String(),
		"grant", e.members.Grant(),
	)
	return nil
}

func (e *Engine) IsMember(address types.Principal) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.members.IsMember(address)
}

// Members returns the registered members in sorted order
func (e *Engine) Members() []types.Principal {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.members.Members()
}

// CreateProposal opens a new proposal whose voting window starts at
// currentBlock
func (e *Engine) CreateProposal(
	description string,
	proposer types.Principal,
	currentBlock uint64,
) (uint64, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	start := time.Now()
	id, err := e.proposals.Create(description, proposer, currentBlock)
	e.observe(OpCreateProposal, start, err)
	if err != nil {
		return 0, err
	}
	e.updateGauges()
	e.logger.Info(
		"created proposal",
		"proposal_id", id,
		"proposer", proposer.String(),
		"start_block", currentBlock,
		"end_block", currentBlock+e.votingWindow,
	)
	return id, nil
}

// VoteProposal adds voterWeight to the for or against tally of a proposal
func (e *Engine) VoteProposal(proposalID uint64, support bool, voterWeight uint64) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.vote(proposalID, support, voterWeight)
}

// CastVote votes on behalf of voter using its current balance as weight. It
// returns the weight that was applied.
func (e *Engine) CastVote(
	proposalID uint64,
	voter types.Principal,
	support bool,
	currentBlock uint64,
) (uint64, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.enforceWindow {
		p, err := e.proposals.Get(proposalID)
		if err != nil {
			e.observe(OpVoteProposal, time.Now(), err)
			return 0, err
		}
		if !p.InWindow(currentBlock) {
			err := fmt.Errorf(
				"vote on proposal %d at block %d outside window %d-%d: %w",
				proposalID,
				currentBlock,
				p.StartBlock,
				p.EndBlock,
				types.ErrProposalNotActive,
			)
			e.observe(OpVoteProposal, time.Now(), err)
			return 0, err
		}
	}
	weight := e.ledger.Balance(voter)
	if err := e.vote(proposalID, support, weight); err != nil {
		return 0, err
	}
	return weight, nil
}

func (e *Engine) vote(proposalID uint64, support bool, weight uint64) error {
	start := time.Now()
	err := e.proposals.Vote(proposalID, support, weight)
	e.observe(OpVoteProposal, start, err)
	if err != nil {
		return err
	}
	if e.metrics != nil {
		label := strconv.FormatBool(support)
		e.metrics.votesCastTotal.WithLabelValues(label).Inc()
		e.metrics.voteWeightTotal.WithLabelValues(label).Add(float64(weight))
	}
	e.logger.Debug(
		"recorded vote",
		"proposal_id", proposalID,
		"support", support,
		"weight", weight,
	)
	return nil
}

// ExecuteProposal marks a proposal as executed if its for votes strictly
// exceed its against votes
func (e *Engine) ExecuteProposal(proposalID uint64) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	start := time.Now()
	err := e.proposals.Execute(proposalID)
	e.observe(OpExecuteProposal, start, err)
	if err != nil {
		return err
	}
	e.updateGauges()
	e.logger.Info("executed proposal", "proposal_id", proposalID)
	return nil
}

func (e *Engine) IsProposalExecuted(proposalID uint64) (bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.proposals.IsExecuted(proposalID)
}

func (e *Engine) GetProposal(proposalID uint64) (proposal.Proposal, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.proposals.Get(proposalID)
}

// Proposals returns every proposal ordered by id
func (e *Engine) Proposals() []proposal.Proposal {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.proposals.List()
}

func (e *Engine) NextProposalID() uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.proposals.NextID()
}

func (e *Engine) observe(op string, start time.Time, err error) {
	if e.metrics == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = types.CodeOf(err)
		if result == "" {
			result = "error"
		}
	}
	e.metrics.operationsTotal.WithLabelValues(op, result).Inc()
	e.metrics.operationLatency.WithLabelValues(op).Observe(
		time.Since(start).Seconds(),
	)
}

func (e *Engine) updateGauges() {
	if e.metrics == nil {
		return
	}
	e.metrics.totalSupply.Set(float64(e.ledger.TotalSupply()))
	e.metrics.members.Set(float64(e.members.Count()))
	e.metrics.proposals.Set(float64(e.proposals.Count()))
	var executed int
	for _, p := range e.proposals.List() {
		if p.Executed {
			executed++
		}
	}
	e.metrics.proposalsExecuted.Set(float64(executed))
}
