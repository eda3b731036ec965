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
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/blinklabs-io/gavel/api"
	"github.com/blinklabs-io/gavel/database"
	dbtypes "github.com/blinklabs-io/gavel/database/types"
	"github.com/blinklabs-io/gavel/event"
	"github.com/blinklabs-io/gavel/governance"
	"github.com/blinklabs-io/gavel/proposal"
	"github.com/blinklabs-io/gavel/types"
	"go.opentelemetry.io/otel/attribute"
)

var _ api.Governance = (*Node)(nil)

// Mint creates amount new tokens for recipient. Only the owner may mint.
// It returns the journal sequence of the operation.
func (n *Node) Mint(
	ctx context.Context,
	amount uint64,
	recipient types.Principal,
	caller types.Principal,
) (uint64, error) {
	_, span := n.startSpan(
		ctx,
		governance.OpMint,
		attribute.String("recipient", recipient.String()),
		attribute.Int64("amount", int64(amount)), // #nosec G115
	)
	defer span.End()
	seq, err := n.apply(
		governance.OpMint,
		func() (database.StateChange, error) {
			if err := n.engine.Mint(amount, recipient, caller); err != nil {
				return database.StateChange{}, err
			}
			return database.StateChange{
				Accounts: n.accountChange(recipient),
			}, nil
		},
		&database.JournalEntry{
			Operation: governance.OpMint,
			Caller:    caller.String(),
			Target:    recipient.String(),
			Amount:    amount,
		},
		func(seq uint64) event.Event {
			return event.NewEvent(event.MintEventType, event.MintEvent{
				Sequence:  seq,
				Amount:    amount,
				Recipient: recipient.String(),
				Caller:    caller.String(),
			})
		},
	)
	spanError(span, err)
	return seq, err
}

// Transfer moves amount tokens from sender to recipient
func (n *Node) Transfer(
	ctx context.Context,
	amount uint64,
	sender types.Principal,
	recipient types.Principal,
) (uint64, error) {
	_, span := n.startSpan(
		ctx,
		governance.OpTransfer,
		attribute.String("sender", sender.String()),
		attribute.String("recipient", recipient.String()),
		attribute.Int64("amount", int64(amount)), // #nosec G115
	)
	defer span.End()
	seq, err := n.apply(
		governance.OpTransfer,
		func() (database.StateChange, error) {
			if err := n.engine.Transfer(amount, sender, recipient); err != nil {
				return database.StateChange{}, err
			}
			return database.StateChange{
				Accounts: n.accountChange(sender, recipient),
			}, nil
		},
		&database.JournalEntry{
			Operation: governance.OpTransfer,
			Caller:    sender.String(),
			Target:    recipient.String(),
			Amount:    amount,
		},
		func(seq uint64) event.Event {
			return event.NewEvent(event.TransferEventType, event.TransferEvent{
				Sequence:  seq,
				Amount:    amount,
				Sender:    sender.String(),
				Recipient: recipient.String(),
			})
		},
	)
	spanError(span, err)
	return seq, err
}

// RegisterMember admits recipient as a member and mints the member grant to
// it. Only the owner may register members.
func (n *Node) RegisterMember(
	ctx context.Context,
	recipient types.Principal,
	caller types.Principal,
) (uint64, error) {
	_, span := n.startSpan(
		ctx,
		governance.OpRegisterMember,
		attribute.String("recipient", recipient.String()),
	)
	defer span.End()
	grant := n.engine.MemberGrant()
	seq, err := n.apply(
		governance.OpRegisterMember,
		func() (database.StateChange, error) {
			if err := n.engine.RegisterMember(recipient, caller); err != nil {
				return database.StateChange{}, err
			}
			return database.StateChange{
				Accounts: n.accountChange(recipient),
				Members:  []string{recipient.String()},
			}, nil
		},
		&database.JournalEntry{
			Operation: governance.OpRegisterMember,
			Caller:    caller.String(),
			Target:    recipient.String(),
			Amount:    grant,
		},
		func(seq uint64) event.Event {
			return event.NewEvent(event.MemberRegisteredEventType, event.MemberRegisteredEvent{
				Sequence: seq,
				Member:   recipient.String(),
				Grant:    grant,
			})
		},
	)
	spanError(span, err)
	return seq, err
}

// CreateProposal opens a proposal whose voting window starts at
// currentBlock. It returns the new proposal id and the journal sequence.
func (n *Node) CreateProposal(
	ctx context.Context,
	description string,
	proposer types.Principal,
	currentBlock uint64,
) (uint64, uint64, error) {
	_, span := n.startSpan(
		ctx,
		governance.OpCreateProposal,
		attribute.String("proposer", proposer.String()),
		attribute.Int64("block", int64(currentBlock)), // #nosec G115
	)
	defer span.End()
	var proposalID uint64
	entry := &database.JournalEntry{
		Operation:   governance.OpCreateProposal,
		Caller:      proposer.String(),
		Block:       currentBlock,
		Description: description,
	}
	seq, err := n.apply(
		governance.OpCreateProposal,
		func() (database.StateChange, error) {
			id, err := n.engine.CreateProposal(description, proposer, currentBlock)
			if err != nil {
				return database.StateChange{}, err
			}
			proposalID = id
			entry.ProposalID = id
			proposals, err := n.proposalChange(id)
			if err != nil {
				return database.StateChange{}, err
			}
			return database.StateChange{
				Proposals:      proposals,
				NextProposalID: n.engine.NextProposalID(),
			}, nil
		},
		entry,
		func(seq uint64) event.Event {
			return event.NewEvent(event.ProposalCreatedEventType, event.ProposalCreatedEvent{
				Sequence:    seq,
				ProposalID:  proposalID,
				Proposer:    proposer.String(),
				Description: description,
				StartBlock:  currentBlock,
				EndBlock:    currentBlock + n.engine.VotingWindow(),
			})
		},
	)
	spanError(span, err)
	if err != nil {
		return 0, 0, err
	}
	span.SetAttributes(attribute.Int64("proposal_id", int64(proposalID))) // #nosec G115
	return proposalID, seq, nil
}

// VoteProposal adds an explicit voterWeight to a proposal tally
func (n *Node) VoteProposal(
	ctx context.Context,
	proposalID uint64,
	support bool,
	voterWeight uint64,
) (uint64, error) {
	_, span := n.startSpan(
		ctx,
		governance.OpVoteProposal,
		attribute.Int64("proposal_id", int64(proposalID)), // #nosec G115
		attribute.Bool("support", support),
		attribute.Int64("weight", int64(voterWeight)), // #nosec G115
	)
	defer span.End()
	seq, err := n.apply(
		governance.OpVoteProposal,
		func() (database.StateChange, error) {
			if err := n.engine.VoteProposal(proposalID, support, voterWeight); err != nil {
				return database.StateChange{}, err
			}
			proposals, err := n.proposalChange(proposalID)
			if err != nil {
				return database.StateChange{}, err
			}
			return database.StateChange{Proposals: proposals}, nil
		},
		&database.JournalEntry{
			Operation:  governance.OpVoteProposal,
			ProposalID: proposalID,
			Support:    support,
			Amount:     voterWeight,
		},
		func(seq uint64) event.Event {
			return event.NewEvent(event.VoteCastEventType, event.VoteCastEvent{
				Sequence:   seq,
				ProposalID: proposalID,
				Support:    support,
				Weight:     voterWeight,
			})
		},
	)
	spanError(span, err)
	return seq, err
}

// CastVote votes on behalf of voter with its current balance as weight. It
// returns the applied weight and the journal sequence.
func (n *Node) CastVote(
	ctx context.Context,
	proposalID uint64,
	voter types.Principal,
	support bool,
	currentBlock uint64,
) (uint64, uint64, error) {
	_, span := n.startSpan(
		ctx,
		governance.OpVoteProposal,
		attribute.Int64("proposal_id", int64(proposalID)), // #nosec G115
		attribute.String("voter", voter.String()),
		attribute.Bool("support", support),
	)
	defer span.End()
	var weight uint64
	entry := &database.JournalEntry{
		Operation:  governance.OpVoteProposal,
		Caller:     voter.String(),
		ProposalID: proposalID,
		Support:    support,
		Block:      currentBlock,
	}
	seq, err := n.apply(
		governance.OpVoteProposal,
		func() (database.StateChange, error) {
			w, err := n.engine.CastVote(proposalID, voter, support, currentBlock)
			if err != nil {
				return database.StateChange{}, err
			}
			weight = w
			entry.Amount = w
			proposals, err := n.proposalChange(proposalID)
			if err != nil {
				return database.StateChange{}, err
			}
			return database.StateChange{Proposals: proposals}, nil
		},
		entry,
		func(seq uint64) event.Event {
			return event.NewEvent(event.VoteCastEventType, event.VoteCastEvent{
				Sequence:   seq,
				ProposalID: proposalID,
				Voter:      voter.String(),
				Support:    support,
				Weight:     weight,
			})
		},
	)
	spanError(span, err)
	if err != nil {
		return 0, 0, err
	}
	return weight, seq, nil
}

// ExecuteProposal marks a passing proposal as executed
func (n *Node) ExecuteProposal(
	ctx context.Context,
	proposalID uint64,
) (uint64, error) {
	_, span := n.startSpan(
		ctx,
		governance.OpExecuteProposal,
		attribute.Int64("proposal_id", int64(proposalID)), // #nosec G115
	)
	defer span.End()
	seq, err := n.apply(
		governance.OpExecuteProposal,
		func() (database.StateChange, error) {
			if err := n.engine.ExecuteProposal(proposalID); err != nil {
				return database.StateChange{}, err
			}
			proposals, err := n.proposalChange(proposalID)
			if err != nil {
				return database.StateChange{}, err
			}
			return database.StateChange{Proposals: proposals}, nil
		},
		&database.JournalEntry{
			Operation:  governance.OpExecuteProposal,
			ProposalID: proposalID,
		},
		func(seq uint64) event.Event {
			return event.NewEvent(event.ProposalExecutedEventType, event.ProposalExecutedEvent{
				Sequence:   seq,
				ProposalID: proposalID,
			})
		},
	)
	spanError(span, err)
	return seq, err
}

// apply runs fn against the engine and persists the resulting change along
// with its journal entry. A rejected operation leaves both untouched. If the
// commit fails the engine is reloaded from the database. On success the
// event built by announce is queued before the lock is released, so events
// are queued in journal order.
func (n *Node) apply(
	op string,
	fn func() (database.StateChange, error),
	entry *database.JournalEntry,
	announce func(seq uint64) event.Event,
) (uint64, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if !n.started {
		return 0, ErrNodeNotStarted
	}
	change, err := fn()
	if err != nil {
		return 0, err
	}
	start := time.Now()
	seq, err := n.db.Commit(&change, entry)
	if n.metrics != nil {
		result := "ok"
		if err != nil {
			result = "error"
		}
		n.metrics.commitsTotal.WithLabelValues(op, result).Inc()
		n.metrics.commitDuration.Observe(time.Since(start).Seconds())
	}
	if err != nil {
		n.logger.Error(
			"failed to commit operation, reloading state",
			"operation", op,
			"error", err,
		)
		commitErr := fmt.Errorf("commit %s: %w", op, err)
		if n.metrics != nil {
			n.metrics.reloadsTotal.Inc()
		}
		if errors.Is(err, dbtypes.ErrPartialCommit) {
			if recoverErr := n.db.RecoverCommitTimestampConflict(); recoverErr != nil {
				return 0, errors.Join(
					commitErr,
					fmt.Errorf("recover journal: %w", recoverErr),
				)
			}
		}
		if reloadErr := n.reload(); reloadErr != nil {
			return 0, errors.Join(
				commitErr,
				fmt.Errorf("reload state: %w", reloadErr),
			)
		}
		return 0, commitErr
	}
	if n.metrics != nil {
		n.metrics.journalSequence.Set(float64(seq))
	}
	n.logger.Debug(
		"committed operation",
		"operation", op,
		"sequence", seq,
	)
	if announce != nil && !n.eventBus.PublishAsync(announce(seq)) {
		n.logger.Warn(
			"event queue full, dropped event",
			"operation", op,
			"sequence", seq,
		)
	}
	return seq, nil
}

// GetBalance returns the committed balance of address. Like every reader it
// holds the node lock for reading, so an operation whose commit is still
// pending is never visible.
func (n *Node) GetBalance(address types.Principal) uint64 {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.engine.GetBalance(address)
}

func (n *Node) TotalSupply() uint64 {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.engine.TotalSupply()
}

func (n *Node) IsMember(address types.Principal) bool {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.engine.IsMember(address)
}

// Members returns every registered member in address order
func (n *Node) Members() []types.Principal {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.engine.Members()
}

func (n *Node) IsProposalExecuted(proposalID uint64) (bool, error) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.engine.IsProposalExecuted(proposalID)
}

func (n *Node) GetProposal(proposalID uint64) (proposal.Proposal, error) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.engine.GetProposal(proposalID)
}

func (n *Node) Proposals() []proposal.Proposal {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.engine.Proposals()
}

func (n *Node) NextProposalID() uint64 {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.engine.NextProposalID()
}

// Journal returns up to limit journal entries starting at sequence from. A
// limit of 0 returns every remaining entry.
func (n *Node) Journal(from uint64, limit int) ([]database.JournalEntry, error) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	if !n.started {
		return nil, ErrNodeNotStarted
	}
	return n.db.Journal(from, limit)
}
