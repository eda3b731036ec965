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

package proposal_test

import (
	"math"
	"testing"

	"github.com/blinklabs-io/gavel/proposal"
	"github.com/blinklabs-io/gavel/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testProposer = types.Principal("ST1PQHQKV0RJXZFY1DGX8MNSNYVE3VGZJSRTPGZGM")

func TestCreateSequentialIds(t *testing.T) {
	s := proposal.NewStore(proposal.DefaultVotingWindow)
	for i := uint64(1); i <= 5; i++ {
		id, err := s.Create("proposal", testProposer, 1)
		require.NoError(t, err)
		assert.Equal(t, i, id)
	}
	assert.Equal(t, uint64(6), s.NextID())
}

func TestCreateWindow(t *testing.T) {
	s := proposal.NewStore(proposal.DefaultVotingWindow)
	id, err := s.Create("Test Proposal", testProposer, 1)
	require.NoError(t, err)
	p, err := s.Get(id)
	require.NoError(t, err)
	assert.Equal(
		t,
		proposal.Proposal{
			ID:          1,
			Proposer:    testProposer,
			Description: "Test Proposal",
			StartBlock:  1,
			EndBlock:    10,
		},
		p,
	)
	assert.True(t, p.InWindow(1))
	assert.True(t, p.InWindow(10))
	assert.False(t, p.InWindow(11))
}

func TestCreateOverflow(t *testing.T) {
	s := proposal.NewStore(proposal.DefaultVotingWindow)
	_, err := s.Create("late", testProposer, math.MaxUint64-3)
	require.ErrorIs(t, err, types.ErrOverflow)
	// No id consumed by the failed creation
	assert.Equal(t, uint64(1), s.NextID())
	assert.Equal(t, 0, s.Count())
}

func TestVote(t *testing.T) {
	s := proposal.NewStore(proposal.DefaultVotingWindow)
	id, err := s.Create("p", testProposer, 1)
	require.NoError(t, err)
	require.NoError(t, s.Vote(id, true, 100))
	require.NoError(t, s.Vote(id, false, 30))
	require.NoError(t, s.Vote(id, true, 5))
	p, err := s.Get(id)
	require.NoError(t, err)
	assert.Equal(t, uint64(105), p.ForVotes)
	assert.Equal(t, uint64(30), p.AgainstVotes)
	require.ErrorIs(t, s.Vote(42, true, 1), types.ErrProposalNotExist)
}

func TestVoteOverflow(t *testing.T) {
	s := proposal.NewStore(proposal.DefaultVotingWindow)
	id, err := s.Create("p", testProposer, 1)
	require.NoError(t, err)
	require.NoError(t, s.Vote(id, true, math.MaxUint64))
	require.ErrorIs(t, s.Vote(id, true, 1), types.ErrOverflow)
	p, err := s.Get(id)
	require.NoError(t, err)
	assert.Equal(t, uint64(math.MaxUint64), p.ForVotes)
}

func TestExecute(t *testing.T) {
	testDefs := []struct {
		name    string
		forW    uint64
		against uint64
		err     error
	}{
		{name: "majority", forW: 100, against: 0},
		{name: "against", forW: 0, against: 100, err: types.ErrUnauthorized},
		{name: "tie", forW: 50, against: 50, err: types.ErrUnauthorized},
		{name: "no votes", err: types.ErrUnauthorized},
		{name: "narrow", forW: 51, against: 50},
	}
	for _, testDef := range testDefs {
		t.Run(testDef.name, func(t *testing.T) {
			s := proposal.NewStore(proposal.DefaultVotingWindow)
			id, err := s.Create("p", testProposer, 1)
			require.NoError(t, err)
			require.NoError(t, s.Vote(id, true, testDef.forW))
			require.NoError(t, s.Vote(id, false, testDef.against))
			err = s.Execute(id)
			executed, execErr := s.IsExecuted(id)
			require.NoError(t, execErr)
			if testDef.err != nil {
				require.ErrorIs(t, err, testDef.err)
				assert.False(t, executed)
				return
			}
			require.NoError(t, err)
			assert.True(t, executed)
		})
	}
}

func TestExecuteTerminal(t *testing.T) {
	s := proposal.NewStore(proposal.DefaultVotingWindow)
	id, err := s.Create("p", testProposer, 1)
	require.NoError(t, err)
	require.NoError(t, s.Vote(id, true, 100))
	require.NoError(t, s.Execute(id))
	require.ErrorIs(t, s.Execute(id), types.ErrProposalNotActive)
	// Later votes do not reopen an executed proposal
	require.NoError(t, s.Vote(id, false, 1000))
	require.ErrorIs(t, s.Execute(id), types.ErrProposalNotActive)
	executed, err := s.IsExecuted(id)
	require.NoError(t, err)
	assert.True(t, executed)
}

func TestExecuteRetry(t *testing.T) {
	s := proposal.NewStore(proposal.DefaultVotingWindow)
	id, err := s.Create("p", testProposer, 1)
	require.NoError(t, err)
	require.NoError(t, s.Vote(id, false, 10))
	require.ErrorIs(t, s.Execute(id), types.ErrUnauthorized)
	require.NoError(t, s.Vote(id, true, 11))
	require.NoError(t, s.Execute(id))
}

func TestUnknownProposal(t *testing.T) {
	s := proposal.NewStore(proposal.DefaultVotingWindow)
	_, err := s.IsExecuted(1)
	require.ErrorIs(t, err, types.ErrProposalNotExist)
	require.ErrorIs(t, s.Execute(1), types.ErrProposalNotExist)
	_, err = s.Get(1)
	require.ErrorIs(t, err, types.ErrProposalNotExist)
}

func TestNewStoreFromProposals(t *testing.T) {
	s, err := proposal.NewStoreFromProposals(
		proposal.DefaultVotingWindow,
		2,
		[]proposal.Proposal{
			{ID: 3, Proposer: testProposer, Description: "c"},
			{ID: 1, Proposer: testProposer, Description: "a", Executed: true},
		},
	)
	require.NoError(t, err)
	assert.Equal(t, uint64(4), s.NextID())
	list := s.List()
	require.Len(t, list, 2)
	assert.Equal(t, uint64(1), list[0].ID)
	assert.Equal(t, uint64(3), list[1].ID)
	id, err := s.Create("d", testProposer, 1)
	require.NoError(t, err)
	assert.Equal(t, uint64(4), id)

	_, err = proposal.NewStoreFromProposals(
		proposal.DefaultVotingWindow,
		1,
		[]proposal.Proposal{{ID: 1}, {ID: 1}},
	)
	require.Error(t, err)
}
