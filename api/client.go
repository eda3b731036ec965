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
	"net/http"
	"strings"

	"connectrpc.com/connect"
	"github.com/blinklabs-io/gavel/types"
)

// Client calls the governance service. Typed governance errors returned by
// the server are mapped back so that callers can test them with errors.Is.
type Client struct {
	caller             types.Principal
	mint               *connect.Client[MintRequest, MintResponse]
	transfer           *connect.Client[TransferRequest, TransferResponse]
	getBalance         *connect.Client[GetBalanceRequest, GetBalanceResponse]
	registerMember     *connect.Client[RegisterMemberRequest, RegisterMemberResponse]
	isMember           *connect.Client[IsMemberRequest, IsMemberResponse]
	createProposal     *connect.Client[CreateProposalRequest, CreateProposalResponse]
	castVote           *connect.Client[CastVoteRequest, CastVoteResponse]
	executeProposal    *connect.Client[ExecuteProposalRequest, ExecuteProposalResponse]
	isProposalExecuted *connect.Client[IsProposalExecutedRequest, IsProposalExecutedResponse]
	getProposal        *connect.Client[GetProposalRequest, GetProposalResponse]
	listProposals      *connect.Client[ListProposalsRequest, ListProposalsResponse]
	getSupply          *connect.Client[GetSupplyRequest, GetSupplyResponse]
	watchEvents        *connect.Client[WatchEventsRequest, WatchEventsResponse]
}

type ClientOptionFunc func(*clientOptions)

type clientOptions struct {
	httpClient connect.HTTPClient
	caller     types.Principal
	opts       []connect.ClientOption
}

// WithCaller sets the identity sent with every request
func WithCaller(caller types.Principal) ClientOptionFunc {
	return func(o *clientOptions) {
		o.caller = caller
	}
}

// WithHTTPClient sets the HTTP client used for requests
func WithHTTPClient(httpClient connect.HTTPClient) ClientOptionFunc {
	return func(o *clientOptions) {
		o.httpClient = httpClient
	}
}

// WithGRPC switches the client to the gRPC protocol
func WithGRPC() ClientOptionFunc {
	return func(o *clientOptions) {
		o.opts = append(o.opts, connect.WithGRPC())
	}
}

// NewClient returns a client for the server at baseURL
func NewClient(baseURL string, opts ...ClientOptionFunc) *Client {
	o := &clientOptions{httpClient: http.DefaultClient}
	for _, opt := range opts {
		opt(o)
	}
	baseURL = strings.TrimRight(baseURL, "/")
	clientOpts := append([]connect.ClientOption{connect.WithCodec(jsonCodec{})}, o.opts...)
	return &Client{
		caller:             o.caller,
		mint:               connect.NewClient[MintRequest, MintResponse](o.httpClient, baseURL+MintProcedure, clientOpts...),
		transfer:           connect.NewClient[TransferRequest, TransferResponse](o.httpClient, baseURL+TransferProcedure, clientOpts...),
		getBalance:         connect.NewClient[GetBalanceRequest, GetBalanceResponse](o.httpClient, baseURL+GetBalanceProcedure, clientOpts...),
		registerMember:     connect.NewClient[RegisterMemberRequest, RegisterMemberResponse](o.httpClient, baseURL+RegisterMemberProcedure, clientOpts...),
		isMember:           connect.NewClient[IsMemberRequest, IsMemberResponse](o.httpClient, baseURL+IsMemberProcedure, clientOpts...),
		createProposal:     connect.NewClient[CreateProposalRequest, CreateProposalResponse](o.httpClient, baseURL+CreateProposalProcedure, clientOpts...),
		castVote:           connect.NewClient[CastVoteRequest, CastVoteResponse](o.httpClient, baseURL+CastVoteProcedure, clientOpts...),
		executeProposal:    connect.NewClient[ExecuteProposalRequest, ExecuteProposalResponse](o.httpClient, baseURL+ExecuteProposalProcedure, clientOpts...),
		isProposalExecuted: connect.NewClient[IsProposalExecutedRequest, IsProposalExecutedResponse](o.httpClient, baseURL+IsProposalExecutedProcedure, clientOpts...),
		getProposal:        connect.NewClient[GetProposalRequest, GetProposalResponse](o.httpClient, baseURL+GetProposalProcedure, clientOpts...),
		listProposals:      connect.NewClient[ListProposalsRequest, ListProposalsResponse](o.httpClient, baseURL+ListProposalsProcedure, clientOpts...),
		getSupply:          connect.NewClient[GetSupplyRequest, GetSupplyResponse](o.httpClient, baseURL+GetSupplyProcedure, clientOpts...),
		watchEvents:        connect.NewClient[WatchEventsRequest, WatchEventsResponse](o.httpClient, baseURL+WatchEventsProcedure, clientOpts...),
	}
}

func newRequest[T any](c *Client, msg *T) *connect.Request[T] {
	req := connect.NewRequest(msg)
	if c.caller != "" {
		req.Header().Set(CallerHeader, c.caller.String())
	}
	return req
}

func callUnary[Req, Res any](
	ctx context.Context,
	c *Client,
	client *connect.Client[Req, Res],
	msg *Req,
) (*Res, error) {
	resp, err := client.CallUnary(ctx, newRequest(c, msg))
	if err != nil {
		return nil, governanceError(err)
	}
	return resp.Msg, nil
}

func (c *Client) Mint(ctx context.Context, amount uint64, recipient types.Principal) (uint64, error) {
	resp, err := callUnary(ctx, c, c.mint, &MintRequest{Amount: amount, Recipient: recipient.String()})
	if err != nil {
		return 0, err
	}
	return resp.Sequence, nil
}

func (c *Client) Transfer(ctx context.Context, amount uint64, recipient types.Principal) (uint64, error) {
	resp, err := callUnary(ctx, c, c.transfer, &TransferRequest{Amount: amount, Recipient: recipient.String()})
	if err != nil {
		return 0, err
	}
	return resp.Sequence, nil
}

func (c *Client) GetBalance(ctx context.Context, address types.Principal) (uint64, error) {
	resp, err := callUnary(ctx, c, c.getBalance, &GetBalanceRequest{Address: address.String()})
	if err != nil {
		return 0, err
	}
	return resp.Balance, nil
}

func (c *Client) RegisterMember(ctx context.Context, recipient types.Principal) (uint64, error) {
	resp, err := callUnary(ctx, c, c.registerMember, &RegisterMemberRequest{Recipient: recipient.String()})
	if err != nil {
		return 0, err
	}
	return resp.Sequence, nil
}

func (c *Client) IsMember(ctx context.Context, address types.Principal) (bool, error) {
	resp, err := callUnary(ctx, c, c.isMember, &IsMemberRequest{Address: address.String()})
	if err != nil {
		return false, err
	}
	return resp.Member, nil
}

// CreateProposal returns the new proposal id
func (c *Client) CreateProposal(ctx context.Context, description string, currentBlock uint64) (uint64, error) {
	resp, err := callUnary(ctx, c, c.createProposal, &CreateProposalRequest{
		Description:  description,
		CurrentBlock: currentBlock,
	})
	if err != nil {
		return 0, err
	}
	return resp.ProposalID, nil
}

// CastVote returns the weight applied to the vote
func (c *Client) CastVote(ctx context.Context, proposalID uint64, support bool, currentBlock uint64) (uint64, error) {
	resp, err := callUnary(ctx, c, c.castVote, &CastVoteRequest{
		ProposalID:   proposalID,
		Support:      support,
		CurrentBlock: currentBlock,
	})
	if err != nil {
		return 0, err
	}
	return resp.Weight, nil
}

func (c *Client) ExecuteProposal(ctx context.Context, proposalID uint64) (uint64, error) {
	resp, err := callUnary(ctx, c, c.executeProposal, &ExecuteProposalRequest{ProposalID: proposalID})
	if err != nil {
		return 0, err
	}
	return resp.Sequence, nil
}

func (c *Client) IsProposalExecuted(ctx context.Context, proposalID uint64) (bool, error) {
	resp, err := callUnary(ctx, c, c.isProposalExecuted, &IsProposalExecutedRequest{ProposalID: proposalID})
	if err != nil {
		return false, err
	}
	return resp.Executed, nil
}

func (c *Client) GetProposal(ctx context.Context, proposalID uint64) (Proposal, error) {
	resp, err := callUnary(ctx, c, c.getProposal, &GetProposalRequest{ProposalID: proposalID})
	if err != nil {
		return Proposal{}, err
	}
	return resp.Proposal, nil
}

func (c *Client) ListProposals(ctx context.Context) ([]Proposal, error) {
	resp, err := callUnary(ctx, c, c.listProposals, &ListProposalsRequest{})
	if err != nil {
		return nil, err
	}
	return resp.Proposals, nil
}

func (c *Client) GetSupply(ctx context.Context) (uint64, error) {
	resp, err := callUnary(ctx, c, c.getSupply, &GetSupplyRequest{})
	if err != nil {
		return 0, err
	}
	return resp.TotalSupply, nil
}

// WatchEvents calls fn for each event until the stream ends, ctx is done or
// fn returns an error
func (c *Client) WatchEvents(
	ctx context.Context,
	eventTypes []string,
	fn func(*WatchEventsResponse) error,
) error {
	stream, err := c.watchEvents.CallServerStream(
		ctx,
		newRequest(c, &WatchEventsRequest{Types: eventTypes}),
	)
	if err != nil {
		return governanceError(err)
	}
	defer stream.Close()
	for stream.Receive() {
		if err := fn(stream.Msg()); err != nil {
			return err
		}
	}
	if err := stream.Err(); err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return governanceError(err)
	}
	return nil
}
