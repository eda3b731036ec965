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

package database

import (
	"fmt"
	"maps"
	"slices"

	"github.com/blinklabs-io/gavel/database/models"
)

// State is the governance state held by the metadata store
type State struct {
	Accounts       []models.Account
	Members        []models.Member
	Proposals      []models.Proposal
	NextProposalID uint64
}

// StateChange is the set of rows touched by a single operation
type StateChange struct {
	// New balance per address. A zero balance removes the account.
	Accounts  map[string]uint64
	Members   []string
	Proposals []models.Proposal
	// Zero leaves the stored counter unchanged
	NextProposalID uint64
}

// LoadState reads the full governance state from the metadata store
func (d *Database) LoadState() (*State, error) {
	txn := NewMetadataOnlyTxn(d, false)
	defer txn.Release()
	ms := d.Metadata()
	accounts, err := ms.GetAccounts(txn.Metadata())
	if err != nil {
		return nil, fmt.Errorf("load accounts: %w", err)
	}
	members, err := ms.GetMembers(txn.Metadata())
	if err != nil {
		return nil, fmt.Errorf("load members: %w", err)
	}
	proposals, err := ms.GetProposals(txn.Metadata())
	if err != nil {
		return nil, fmt.Errorf("load proposals: %w", err)
	}
	nextID, err := ms.GetNextProposalID(txn.Metadata())
	if err != nil {
		return nil, fmt.Errorf("load proposal counter: %w", err)
	}
	return &State{
		Accounts:       accounts,
		Members:        members,
		Proposals:      proposals,
		NextProposalID: nextID,
	}, nil
}

func (d *Database) applyStateChange(txn *Txn, change *StateChange) error {
	if change == nil {
		return nil
	}
	ms := d.Metadata()
	for _, addr := range slices.Sorted(maps.Keys(change.Accounts)) {
		if err := ms.SetAccount(addr, change.Accounts[addr], txn.Metadata()); err != nil {
			return fmt.Errorf("set account %s: %w", addr, err)
		}
	}
	for _, addr := range change.Members {
		if err := ms.AddMember(addr, txn.Metadata()); err != nil {
			return fmt.Errorf("add member %s: %w", addr, err)
		}
	}
	for i := range change.Proposals {
		if err := ms.SetProposal(&change.Proposals[i], txn.Metadata()); err != nil {
			return fmt.Errorf("set proposal %d: %w", change.Proposals[i].ID, err)
		}
	}
	if change.NextProposalID > 0 {
		if err := ms.SetNextProposalID(change.NextProposalID, txn.Metadata()); err != nil {
			return fmt.Errorf("set proposal counter: %w", err)
		}
	}
	return nil
}
