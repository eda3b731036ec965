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

package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"sync"

	"connectrpc.com/connect"
	"github.com/blinklabs-io/gavel/event"
	"github.com/blinklabs-io/gavel/proposal"
	"github.com/blinklabs-io/gavel/types"
)

const (
	ServiceName = "gavel.v1.GovernanceService"

	MintProcedure               = "/" + ServiceName + "/Mint"
	TransferProcedure           = "/" + ServiceName + "/Transfer"
	GetBalanceProcedure         = "/" + ServiceName + "/GetBalance"
	RegisterMemberProcedure     = "/" + ServiceName + "/RegisterMember"
	IsMemberProcedure           = "/" + ServiceName + "/IsMember"
	CreateProposalProcedure     = "/" + ServiceName + "/CreateProposal"
	CastVoteProcedure           = "/" + ServiceName + "/CastVote"
	ExecuteProposalProcedure    = "/" + ServiceName + "/ExecuteProposal"
	IsProposalExecutedProcedure = "/" + ServiceName + "/IsProposalExecuted"
	GetProposalProcedure        = "/" + ServiceName + "/GetProposal"
	ListProposalsProcedure      = "/" + ServiceName + "/ListProposals"
	GetSupplyProcedure          = "/" + ServiceName + "/GetSupply"
	WatchEventsProcedure        = "/" + ServiceName + "/WatchEvents"
)

// watchBufferSize is the number of events buffered for a single watcher
const watchBufferSize = 64

var errWatchBufferFull = errors.New("event stream buffer full")

// Governance is the node surface served by the API
type Governance interface {
	Mint(ctx context.Context, amount uint64, recipient, caller types.Principal) (uint64, error)
	Transfer(ctx context.Context, amount uint64, sender, recipient types.Principal) (uint64, error)
	RegisterMember(ctx context.Context, recipient, caller types.Principal) (uint64, error)
	CreateProposal(ctx context.Context, description string, proposer types.Principal, currentBlock uint64) (uint64, uint64, error)
	CastVote(ctx context.Context, proposalID uint64, voter types.Principal, support bool, currentBlock uint64) (uint64, uint64, error)
	ExecuteProposal(ctx context.Context, proposalID uint64) (uint64, error)
	GetBalance(address types.Principal) uint64
	TotalSupply() uint64
	IsMember(address types.Principal) bool
	IsProposalExecuted(proposalID uint64) (bool, error)
	GetProposal(proposalID uint64) (proposal.Proposal, error)
	Proposals() []proposal.Proposal
}

type governanceServer struct {
	server *Server
}

func callerFromHeader(header interface{ Get(string) string }) (types.Principal, error) {
	caller, err := types.ParsePrincipal(header.Get(CallerHeader))
	if err != nil {
		return "", connectError(fmt.Errorf("caller header: %w", err))
	}
	return caller, nil
}

func parsePrincipal(field, value string) (types.Principal, error) {
	p, err := types.ParsePrincipal(value)
	if err != nil {
		return "", connectError(fmt.Errorf("%s: %w", field, err))
	}
	return p, nil
}

func (s *governanceServer) Mint(
	ctx context.Context,
	req *connect.Request[MintRequest],
) (*connect.Response[MintResponse], error) {
	caller, err := callerFromHeader(req.Header())
	if err != nil {
		return nil, err
	}
	recipient, err := parsePrincipal("recipient", req.Msg.Recipient)
	if err != nil {
		return nil, err
	}
	seq, err := s.server.config.Governance.Mint(ctx, req.Msg.Amount, recipient, caller)
	if err != nil {
		return nil, connectError(err)
	}
	return connect.NewResponse(&MintResponse{Sequence: seq}), nil
}

func (s *governanceServer) Transfer(
	ctx context.Context,
	req *connect.Request[TransferRequest],
) (*connect.Response[TransferResponse], error) {
	sender, err := callerFromHeader(req.Header())
	if err != nil {
		return nil, err
	}
	recipient, err := parsePrincipal("recipient", req.Msg.Recipient)
	if err != nil {
		return nil, err
	}
	seq, err := s.server.config.Governance.Transfer(ctx, req.Msg.Amount, sender, recipient)
	if err != nil {
		return nil, connectError(err)
	}
	return connect.NewResponse(&TransferResponse{Sequence: seq}), nil
}

func (s *governanceServer) GetBalance(
	_ context.Context,
	req *connect.Request[GetBalanceRequest],
) (*connect.Response[GetBalanceResponse], error) {
	address, err := parsePrincipal("address", req.Msg.Address)
	if err != nil {
		return nil, err
	}
	return connect.NewResponse(&GetBalanceResponse{
		Balance: s.server.config.Governance.GetBalance(address),
	}), nil
}

func (s *governanceServer) RegisterMember(
	ctx context.Context,
	req *connect.Request[RegisterMemberRequest],
) (*connect.Response[RegisterMemberResponse], error) {
	caller, err := callerFromHeader(req.Header())
	if err != nil {
		return nil, err
	}
	recipient, err := parsePrincipal("recipient", req.Msg.Recipient)
	if err != nil {
		return nil, err
	}
	seq, err := s.server.config.Governance.RegisterMember(ctx, recipient, caller)
	if err != nil {
		return nil, connectError(err)
	}
	return connect.NewResponse(&RegisterMemberResponse{Sequence: seq}), nil
}

func (s *governanceServer) IsMember(
	_ context.Context,
	req *connect.Request[IsMemberRequest],
) (*connect.Response[IsMemberResponse], error) {
	address, err := parsePrincipal("address", req.Msg.Address)
	if err != nil {
		return nil, err
	}
	return connect.NewResponse(&IsMemberResponse{
		Member: s.server.config.Governance.IsMember(address),
	}), nil
}

func (s *governanceServer) CreateProposal(
	ctx context.Context,
	req *connect.Request[CreateProposalRequest],
) (*connect.Response[CreateProposalResponse], error) {
	proposer, err := callerFromHeader(req.Header())
	if err != nil {
		return nil, err
	}
	id, seq, err := s.server.config.Governance.CreateProposal(
		ctx,
		req.Msg.Description,
		proposer,
		req.Msg.CurrentBlock,
	)
	if err != nil {
		return nil, connectError(err)
	}
	return connect.NewResponse(&CreateProposalResponse{
		ProposalID: id,
		Sequence:   seq,
	}), nil
}

func (s *governanceServer) CastVote(
	ctx context.Context,
	req *connect.Request[CastVoteRequest],
) (*connect.Response[CastVoteResponse], error) {
	voter, err := callerFromHeader(req.Header())
	if err != nil {
		return nil, err
	}
	weight, seq, err := s.server.config.Governance.CastVote(
		ctx,
		req.Msg.ProposalID,
		voter,
		req.Msg.Support,
		req.Msg.CurrentBlock,
	)
	if err != nil {
		return nil, connectError(err)
	}
	return connect.NewResponse(&CastVoteResponse{
		Weight:   weight,
		Sequence: seq,
	}), nil
}

func (s *governanceServer) ExecuteProposal(
	ctx context.Context,
	req *connect.Request[ExecuteProposalRequest],
) (*connect.Response[ExecuteProposalResponse], error) {
	seq, err := s.server.config.Governance.ExecuteProposal(ctx, req.Msg.ProposalID)
	if err != nil {
		return nil, connectError(err)
	}
	return connect.NewResponse(&ExecuteProposalResponse{Sequence: seq}), nil
}

func (s *governanceServer) IsProposalExecuted(
	_ context.Context,
	req *connect.Request[IsProposalExecutedRequest],
) (*connect.Response[IsProposalExecutedResponse], error) {
	executed, err := s.server.config.Governance.IsProposalExecuted(req.Msg.ProposalID)
	if err != nil {
		return nil, connectError(err)
	}
	return connect.NewResponse(&IsProposalExecutedResponse{Executed: executed}), nil
}

func (s *governanceServer) GetProposal(
	_ context.Context,
	req *connect.Request[GetProposalRequest],
) (*connect.Response[GetProposalResponse], error) {
	p, err := s.server.config.Governance.GetProposal(req.Msg.ProposalID)
	if err != nil {
		return nil, connectError(err)
	}
	return connect.NewResponse(&GetProposalResponse{Proposal: proposalMsg(p)}), nil
}

func (s *governanceServer) ListProposals(
	_ context.Context,
	_ *connect.Request[ListProposalsRequest],
) (*connect.Response[ListProposalsResponse], error) {
	proposals := s.server.config.Governance.Proposals()
	resp := &ListProposalsResponse{
		Proposals: make([]Proposal, 0, len(proposals)),
	}
	for _, p := range proposals {
		resp.Proposals = append(resp.Proposals, proposalMsg(p))
	}
	return connect.NewResponse(resp), nil
}

func (s *governanceServer) GetSupply(
	_ context.Context,
	_ *connect.Request[GetSupplyRequest],
) (*connect.Response[GetSupplyResponse], error) {
	return connect.NewResponse(&GetSupplyResponse{
		TotalSupply: s.server.config.Governance.TotalSupply(),
	}), nil
}

// streamSubscriber feeds bus events into a single watch stream
type streamSubscriber struct {
	ch           chan event.Event
	overflow     chan struct{}
	overflowOnce sync.Once
}

func (s *streamSubscriber) Deliver(evt event.Event) error {
	select {
	case s.ch <- evt:
		return nil
	default:
		s.overflowOnce.Do(func() { close(s.overflow) })
		return errWatchBufferFull
	}
}

func (s *streamSubscriber) Close() {}

func (s *governanceServer) WatchEvents(
	ctx context.Context,
	req *connect.Request[WatchEventsRequest],
	stream *connect.ServerStream[WatchEventsResponse],
) error {
	eventBus := s.server.config.EventBus
	if eventBus == nil {
		return connect.NewError(
			connect.CodeUnavailable,
			errors.New("event bus not configured"),
		)
	}
	eventTypes := event.GovernanceEventTypes
	if len(req.Msg.Types) > 0 {
		eventTypes = nil
		for _, name := range req.Msg.Types {
			evtType := event.EventType(name)
			if !slices.Contains(event.GovernanceEventTypes, evtType) {
				return connect.NewError(
					connect.CodeInvalidArgument,
					fmt.Errorf("unknown event type: %s", name),
				)
			}
			eventTypes = append(eventTypes, evtType)
		}
	}
	sub := &streamSubscriber{
		ch:       make(chan event.Event, watchBufferSize),
		overflow: make(chan struct{}),
	}
	subId := eventBus.RegisterSubscriber(sub, eventTypes...)
	defer eventBus.Unsubscribe(subId)
	s.server.config.Logger.Debug(
		"watch stream started",
		"types", len(eventTypes),
	)
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-s.server.done:
			return nil
		case <-sub.overflow:
			return connect.NewError(connect.CodeResourceExhausted, errWatchBufferFull)
		case evt := <-sub.ch:
			data, err := json.Marshal(evt.Data)
			if err != nil {
				return connect.NewError(connect.CodeInternal, err)
			}
			err = stream.Send(&WatchEventsResponse{
				Type:      string(evt.Type),
				Timestamp: evt.Timestamp,
				Data:      data,
			})
			if err != nil {
				return err
			}
		}
	}
}

func proposalMsg(p proposal.Proposal) Proposal {
	return Proposal{
		ID:           p.ID,
		Proposer:     p.Proposer.String(),
		Description:  p.Description,
		ForVotes:     p.ForVotes,
		AgainstVotes: p.AgainstVotes,
		StartBlock:   p.StartBlock,
		EndBlock:     p.EndBlock,
		Executed:     p.Executed,
	}
}
