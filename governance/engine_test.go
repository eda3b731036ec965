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

package governance_test

import (
	"strings"
	"sync"
	"testing"

	"github.com/blinklabs-io/gavel/governance"
	"github.com/blinklabs-io/gavel/proposal"
	"github.com/blinklabs-io/gavel/types"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testOwner = types.Principal("ST1PQHQKV0RJXZFY1DGX8MNSNYVE3VGZJSRTPGZGM")
	testAddr1 = types.Principal("ST2CY5V39NHDPWSXMW9QDT3HC3GD6Q6XX4CFRK9AG")
	testAddr2 = types.Principal("ST2JHG361ZXG51QTKY2NQCVBPPRRE2KZB1HR05NNC")
)

func newTestEngine(t *testing.T, opts ...governance.EngineOptionFunc) *governance.Engine {
	t.Helper()
	e, err := governance.NewEngine(testOwner, opts...)
	require.NoError(t, err)
	return e
}

func TestNewEngineRequiresOwner(t *testing.T) {
	_, err := governance.NewEngine("")
	require.ErrorIs(t, err, types.ErrInvalidPrincipal)
}

func TestScenarioMint(t *testing.T) {
	e := newTestEngine(t)
	require.NoError(t, e.Mint(100, testAddr1, testOwner))
	assert.Equal(t, uint64(100), e.GetBalance(testAddr1))
}

func TestScenarioTransfer(t *testing.T) {
	e := newTestEngine(t)
	require.NoError(t, e.Mint(100, testAddr1, testOwner))
	require.NoError(t, e.Transfer(50, testAddr1, testAddr2))
	assert.Equal(t, uint64(50), e.GetBalance(testAddr1))
	assert.Equal(t, uint64(50), e.GetBalance(testAddr2))
}

func TestScenarioRegisterMember(t *testing.T) {
	e := newTestEngine(t)
	require.NoError(t, e.RegisterMember(testAddr1, testOwner))
	assert.True(t, e.IsMember(testAddr1))
	assert.Equal(t, uint64(100), e.GetBalance(testAddr1))
}

func TestScenarioExecutePassing(t *testing.T) {
	e := newTestEngine(t)
	id, err := e.CreateProposal("p", testOwner, 1)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), id)
	require.NoError(t, e.VoteProposal(1, true, 100))
	require.NoError(t, e.ExecuteProposal(1))
	executed, err := e.IsProposalExecuted(1)
	require.NoError(t, err)
	assert.True(t, executed)
}

func TestScenarioExecuteFailing(t *testing.T) {
	e := newTestEngine(t)
	id, err := e.CreateProposal("p", testOwner, 1)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), id)
	require.NoError(t, e.VoteProposal(1, false, 100))
	err = e.ExecuteProposal(1)
	require.ErrorIs(t, err, types.ErrUnauthorized)
	assert.Equal(t, types.KindAuthorization, types.KindOf(err))
}

func TestScenarioInsufficientBalance(t *testing.T) {
	e := newTestEngine(t)
	require.NoError(t, e.Mint(50, testAddr1, testOwner))
	err := e.Transfer(100, testAddr1, testAddr2)
	require.ErrorIs(t, err, types.ErrInsufficientBalance)
	assert.Equal(t, uint64(50), e.GetBalance(testAddr1))
	assert.Equal(t, uint64(0), e.GetBalance(testAddr2))
}

func TestMintNotOwner(t *testing.T) {
	e := newTestEngine(t)
	err := e.Mint(100, testAddr1, testAddr1)
	require.ErrorIs(t, err, types.ErrNotAuthorized)
	assert.Equal(t, uint64(0), e.GetBalance(testAddr1))
	assert.Equal(t, uint64(0), e.TotalSupply())
}

func TestRegisterTwiceNoSideEffects(t *testing.T) {
	e := newTestEngine(t)
	require.NoError(t, e.RegisterMember(testAddr1, testOwner))
	before := e.Snapshot()
	require.ErrorIs(
		t,
		e.RegisterMember(testAddr1, testOwner),
		types.ErrAlreadyMember,
	)
	require.ErrorIs(
		t,
		e.RegisterMember(testAddr2, testAddr1),
		types.ErrUnauthorized,
	)
	assert.Equal(t, before, e.Snapshot())
}

func TestCastVoteUsesBalance(t *testing.T) {
	e := newTestEngine(t)
	require.NoError(t, e.RegisterMember(testAddr1, testOwner))
	require.NoError(t, e.Mint(30, testAddr2, testOwner))
	id, err := e.CreateProposal("p", testAddr1, 1)
	require.NoError(t, err)
	weight, err := e.CastVote(id, testAddr1, true, 2)
	require.NoError(t, err)
	assert.Equal(t, uint64(100), weight)
	weight, err = e.CastVote(id, testAddr2, false, 2)
	require.NoError(t, err)
	assert.Equal(t, uint64(30), weight)
	// Re-voting applies the current balance again
	_, err = e.CastVote(id, testAddr2, false, 3)
	require.NoError(t, err)
	p, err := e.GetProposal(id)
	require.NoError(t, err)
	assert.Equal(t, uint64(100), p.ForVotes)
	assert.Equal(t, uint64(60), p.AgainstVotes)
	_, err = e.CastVote(99, testAddr1, true, 2)
	require.ErrorIs(t, err, types.ErrProposalNotExist)
}

func TestCastVoteWindow(t *testing.T) {
	testDefs := []struct {
		name    string
		enforce bool
		block   uint64
		err     error
	}{
		{name: "start", enforce: true, block: 1},
		{name: "end", enforce: true, block: 10},
		{name: "after end", enforce: true, block: 11, err: types.ErrProposalNotActive},
		{name: "not enforced", enforce: false, block: 11},
	}
	for _, testDef := range testDefs {
		t.Run(testDef.name, func(t *testing.T) {
			e := newTestEngine(
				t,
				governance.WithVotingWindowEnforcement(testDef.enforce),
			)
			require.NoError(t, e.Mint(10, testAddr1, testOwner))
			id, err := e.CreateProposal("p", testAddr1, 1)
			require.NoError(t, err)
			_, err = e.CastVote(id, testAddr1, true, testDef.block)
			if testDef.err != nil {
				require.ErrorIs(t, err, testDef.err)
				p, getErr := e.GetProposal(id)
				require.NoError(t, getErr)
				assert.Equal(t, uint64(0), p.ForVotes)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestCustomWindowAndGrant(t *testing.T) {
	e := newTestEngine(
		t,
		governance.WithVotingWindow(100),
		governance.WithMemberGrant(7),
	)
	require.NoError(t, e.RegisterMember(testAddr1, testOwner))
	assert.Equal(t, uint64(7), e.GetBalance(testAddr1))
	id, err := e.CreateProposal("p", testAddr1, 5)
	require.NoError(t, err)
	p, err := e.GetProposal(id)
	require.NoError(t, err)
	assert.Equal(t, uint64(105), p.EndBlock)
}

func TestExecuteTerminal(t *testing.T) {
	e := newTestEngine(t)
	id, err := e.CreateProposal("p", testOwner, 1)
	require.NoError(t, err)
	require.NoError(t, e.VoteProposal(id, true, 10))
	require.NoError(t, e.ExecuteProposal(id))
	require.NoError(t, e.VoteProposal(id, false, 1000))
	require.ErrorIs(t, e.ExecuteProposal(id), types.ErrProposalNotActive)
	executed, err := e.IsProposalExecuted(id)
	require.NoError(t, err)
	assert.True(t, executed)
}

func TestIsProposalExecutedUnknown(t *testing.T) {
	e := newTestEngine(t)
	_, err := e.IsProposalExecuted(1)
	require.ErrorIs(t, err, types.ErrProposalNotExist)
	assert.Equal(t, types.KindState, types.KindOf(err))
}

func TestSnapshotRestore(t *testing.T) {
	e := newTestEngine(t)
	require.NoError(t, e.RegisterMember(testAddr1, testOwner))
	require.NoError(t, e.Transfer(40, testAddr1, testAddr2))
	id, err := e.CreateProposal("p", testAddr1, 1)
	require.NoError(t, err)
	require.NoError(t, e.VoteProposal(id, true, 60))
	require.NoError(t, e.ExecuteProposal(id))
	snap := e.Snapshot()

	restored := newTestEngine(t, governance.WithState(snap))
	assert.Equal(t, snap, restored.Snapshot())
	assert.Equal(t, uint64(100), restored.TotalSupply())
	assert.True(t, restored.IsMember(testAddr1))
	nextID, err := restored.CreateProposal("q", testAddr2, 2)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), nextID)

	// A bad state leaves the engine untouched
	err = restored.Restore(governance.State{
		Proposals: []proposal.Proposal{{ID: 1}, {ID: 1}},
	})
	require.Error(t, err)
	assert.Equal(t, uint64(3), restored.NextProposalID())
	require.NoError(t, restored.Restore(governance.State{}))
	assert.Equal(t, uint64(0), restored.TotalSupply())
	assert.Empty(t, restored.Proposals())
	assert.Equal(t, uint64(1), restored.NextProposalID())
}

func TestConcurrentTransfersConserveSupply(t *testing.T) {
	e := newTestEngine(t)
	require.NoError(t, e.Mint(1000, testAddr1, testOwner))
	require.NoError(t, e.Mint(1000, testAddr2, testOwner))
	var wg sync.WaitGroup
	for i := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			from, to := testAddr1, testAddr2
			if i%2 == 1 {
				from, to = to, from
			}
			for range 100 {
				_ = e.Transfer(3, from, to)
			}
		}()
	}
	wg.Wait()
	assert.Equal(
		t,
		e.TotalSupply(),
		e.GetBalance(testAddr1)+e.GetBalance(testAddr2),
	)
	assert.Equal(t, uint64(2000), e.TotalSupply())
}

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	e := newTestEngine(t, governance.WithPromRegistry(reg))
	require.NoError(t, e.RegisterMember(testAddr1, testOwner))
	require.NoError(t, e.Mint(50, testAddr2, testOwner))
	require.ErrorIs(t, e.Mint(50, testAddr2, testAddr2), types.ErrNotAuthorized)
	id, err := e.CreateProposal("p", testAddr1, 1)
	require.NoError(t, err)
	_, err = e.CastVote(id, testAddr1, true, 1)
	require.NoError(t, err)
	require.NoError(t, e.ExecuteProposal(id))

	count, err := testutil.GatherAndCount(
		reg,
		"gavel_governance_operations_total",
	)
	require.NoError(t, err)
	assert.Equal(t, 6, count)
	expected := `
# HELP gavel_governance_total_supply total minted token supply
# TYPE gavel_governance_total_supply gauge
gavel_governance_total_supply 150
# HELP gavel_governance_proposals_executed number of executed proposals
# TYPE gavel_governance_proposals_executed gauge
gavel_governance_proposals_executed 1
`
	require.NoError(
		t,
		testutil.GatherAndCompare(
			reg,
			strings.NewReader(expected),
			"gavel_governance_total_supply",
			"gavel_governance_proposals_executed",
		),
	)
}
