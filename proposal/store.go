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

package proposal

import (
	"cmp"
	"errors"
	"fmt"
	"math"
	"slices"

	"github.com/blinklabs-io/gavel/types"
)

// DefaultVotingWindow is the number of blocks a proposal stays open after
// its start block
const DefaultVotingWindow uint64 = 9

// Store owns proposal records and the id counter. Ids start at 1 and are
// never reused.
//
// Store is not safe for concurrent use; callers serialize access.
type Store struct {
	proposals map[uint64]*Proposal
	nextID    uint64
	window    uint64
}

// NewStore returns an empty store using the given voting window
func NewStore(window uint64) *Store {
	return &Store{
		proposals: make(map[uint64]*Proposal),
		nextID:    1,
		window:    window,
	}
}

// NewStoreFromProposals rebuilds a store from persisted records. nextID is
// raised if needed so that it is above every restored id.
func NewStoreFromProposals(
	window uint64,
	nextID uint64,
	proposals []Proposal,
) (*Store, error) {
	s := NewStore(window)
	if nextID > s.nextID {
		s.nextID = nextID
	}
	for _, p := range proposals {
		if p.ID == 0 {
			return nil, errors.New("restore proposal: invalid id 0")
		}
		if _, ok := s.proposals[p.ID]; ok {
			return nil, fmt.Errorf("restore proposal: duplicate id %d", p.ID)
		}
		tmp := p
		s.proposals[p.ID] = &tmp
		if p.ID >= s.nextID {
			if p.ID == math.MaxUint64 {
				s.nextID = math.MaxUint64
			} else {
				s.nextID = p.ID + 1
			}
		}
	}
	return s, nil
}

// Window returns the voting window length
func (s *Store) Window() uint64 {
	return s.window
}

// NextID returns the id the next proposal will receive
func (s *Store) NextID() uint64 {
	return s.nextID
}

// Create allocates the next id and stores a new open proposal
func (s *Store) Create(
	description string,
	proposer types.Principal,
	currentBlock uint64,
) (uint64, error) {
	if s.nextID == math.MaxUint64 {
		return 0, fmt.Errorf("create proposal: id space: %w", types.ErrOverflow)
	}
	if currentBlock > math.MaxUint64-s.window {
		return 0, fmt.Errorf(
			"create proposal at block %d: end block: %w",
			currentBlock,
			types.ErrOverflow,
		)
	}
	id := s.nextID
	s.nextID++
	s.proposals[id] = &Proposal{
		ID:          id,
		Proposer:    proposer,
		Description: description,
		StartBlock:  currentBlock,
		EndBlock:    currentBlock + s.window,
	}
	return id, nil
}

// Vote adds weight to the for or against tally. Repeated votes accumulate.
func (s *Store) Vote(id uint64, support bool, weight uint64) error {
	p, ok := s.proposals[id]
	if !ok {
		return fmt.Errorf("vote on proposal %d: %w", id, types.ErrProposalNotExist)
	}
	tally := &p.AgainstVotes
	if support {
		tally = &p.ForVotes
	}
	if *tally > math.MaxUint64-weight {
		return fmt.Errorf("vote on proposal %d: %w", id, types.ErrOverflow)
	}
	*tally += weight
	return nil
}

// Execute marks a passing proposal as executed
func (s *Store) Execute(id uint64) error {
	p, ok := s.proposals[id]
	if !ok {
		return fmt.Errorf(
			"execute proposal %d: %w",
			id,
			types.ErrProposalNotExist,
		)
	}
	if p.Executed {
		return fmt.Errorf(
			"execute proposal %d: already executed: %w",
			id,
			types.ErrProposalNotActive,
		)
	}
	if !p.Passing() {
		return fmt.Errorf(
			"execute proposal %d: %d for, %d against: %w",
			id,
			p.ForVotes,
			p.AgainstVotes,
			types.ErrUnauthorized,
		)
	}
	p.Executed = true
	return nil
}

// IsExecuted reports the executed flag of a proposal
func (s *Store) IsExecuted(id uint64) (bool, error) {
	p, ok := s.proposals[id]
	if !ok {
		return false, fmt.Errorf("proposal %d: %w", id, types.ErrProposalNotExist)
	}
	return p.Executed, nil
}

// Get returns a copy of a proposal
func (s *Store) Get(id uint64) (Proposal, error) {
	p, ok := s.proposals[id]
	if !ok {
		return Proposal{}, fmt.Errorf(
			"proposal %d: %w",
			id,
			types.ErrProposalNotExist,
		)
	}
	return *p, nil
}

// List returns copies of all proposals ordered by id
func (s *Store) List() []Proposal {
	ret := make([]Proposal, 0, len(s.proposals))
	for _, p := range s.proposals {
		ret = append(ret, *p)
	}
	slices.SortFunc(ret, func(a, b Proposal) int {
		return cmp.Compare(a.ID, b.ID)
	})
	return ret
}

// Count returns the number of proposals
func (s *Store) Count() int {
	return len(s.proposals)
}
