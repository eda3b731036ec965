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
	"io"
	"log/slog"
	"maps"
	"slices"

	"github.com/blinklabs-io/gavel/database"
	"github.com/blinklabs-io/gavel/governance"
	"github.com/blinklabs-io/gavel/types"
)

// VerifyResult describes the outcome of replaying the journal
type VerifyResult struct {
	Mismatches []string
	Entries    int
}

// Ok reports whether the replayed journal matches the stored state
func (r VerifyResult) Ok() bool {
	return len(r.Mismatches) == 0
}

// VerifyJournal replays every journal entry into an empty engine built from
// the node configuration and compares the result with the current state
func (n *Node) VerifyJournal() (VerifyResult, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if !n.started {
		return VerifyResult{}, ErrNodeNotStarted
	}
	entries, err := n.db.Journal(1, 0)
	if err != nil {
		return VerifyResult{}, err
	}
	replay, err := governance.NewEngine(
		n.config.owner,
		governance.WithLogger(slog.New(slog.NewJSONHandler(io.Discard, nil))),
		governance.WithVotingWindow(n.config.votingWindow),
		governance.WithMemberGrant(n.config.memberGrant),
	)
	if err != nil {
		return VerifyResult{}, err
	}
	for _, entry := range entries {
		if err := replayEntry(replay, entry); err != nil {
			return VerifyResult{}, fmt.Errorf(
				"replay journal entry %d (%s): %w",
				entry.Sequence,
				entry.Operation,
				err,
			)
		}
	}
	ret := VerifyResult{
		Entries:    len(entries),
		Mismatches: compareState(n.engine.Snapshot(), replay.Snapshot()),
	}
	n.logger.Info(
		"verified journal",
		"entries", ret.Entries,
		"mismatches", len(ret.Mismatches),
	)
	return ret, nil
}

// replayEntry applies a journal entry to e. Votes are replayed with their
// recorded weight.
func replayEntry(e *governance.Engine, entry database.JournalEntry) error {
	caller := types.Principal(entry.Caller)
	target := types.Principal(entry.Target)
	switch entry.Operation {
	case governance.OpMint:
		return e.Mint(entry.Amount, target, caller)
	case governance.OpTransfer:
		return e.Transfer(entry.Amount, caller, target)
	case governance.OpRegisterMember:
		if entry.Amount != e.MemberGrant() {
			return fmt.Errorf(
				"member grant %d differs from configured grant %d",
				entry.Amount,
				e.MemberGrant(),
			)
		}
		return e.RegisterMember(target, caller)
	case governance.OpCreateProposal:
		id, err := e.CreateProposal(entry.Description, caller, entry.Block)
		if err != nil {
			return err
		}
		if id != entry.ProposalID {
			return fmt.Errorf("created proposal %d, journal has %d", id, entry.ProposalID)
		}
		return nil
	case governance.OpVoteProposal:
		return e.VoteProposal(entry.ProposalID, entry.Support, entry.Amount)
	case governance.OpExecuteProposal:
		return e.ExecuteProposal(entry.ProposalID)
	default:
		return fmt.Errorf("unknown operation %q", entry.Operation)
	}
}

func compareState(stored, replayed governance.State) []string {
	var ret []string
	all := maps.Clone(stored.Balances)
	maps.Copy(all, replayed.Balances)
	for _, addr := range slices.Sorted(maps.Keys(all)) {
		if stored.Balances[addr] != replayed.Balances[addr] {
			ret = append(ret, fmt.Sprintf(
				"balance of %s: stored %d, replayed %d",
				addr,
				stored.Balances[addr],
				replayed.Balances[addr],
			))
		}
	}
	if !slices.Equal(stored.Members, replayed.Members) {
		ret = append(ret, fmt.Sprintf(
			"members: stored %v, replayed %v",
			stored.Members,
			replayed.Members,
		))
	}
	if !slices.Equal(stored.Proposals, replayed.Proposals) {
		ret = append(ret, fmt.Sprintf(
			"proposals: stored %+v, replayed %+v",
			stored.Proposals,
			replayed.Proposals,
		))
	}
	if stored.NextProposalID != replayed.NextProposalID {
		ret = append(ret, fmt.Sprintf(
			"next proposal id: stored %d, replayed %d",
			stored.NextProposalID,
			replayed.NextProposalID,
		))
	}
	return ret
}
