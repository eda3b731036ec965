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
	"encoding/json"
	"time"
)

// Message types of the gavel.v1.GovernanceService procedures. Mutating
// responses carry the journal sequence number of the committed operation.

type MintRequest struct {
	Recipient string `json:"recipient"`
	Amount    uint64 `json:"amount,string"`
}

type MintResponse struct {
	Sequence uint64 `json:"sequence,string"`
}

type TransferRequest struct {
	Recipient string `json:"recipient"`
	Amount    uint64 `json:"amount,string"`
}

type TransferResponse struct {
	Sequence uint64 `json:"sequence,string"`
}

type GetBalanceRequest struct {
	Address string `json:"address"`
}

type GetBalanceResponse struct {
	Balance uint64 `json:"balance,string"`
}

type RegisterMemberRequest struct {
	Recipient string `json:"recipient"`
}

type RegisterMemberResponse struct {
	Sequence uint64 `json:"sequence,string"`
}

type IsMemberRequest struct {
	Address string `json:"address"`
}

type IsMemberResponse struct {
	Member bool `json:"member"`
}

type CreateProposalRequest struct {
	Description  string `json:"description"`
	CurrentBlock uint64 `json:"currentBlock,string"`
}

type CreateProposalResponse struct {
	ProposalID uint64 `json:"proposalId,string"`
	Sequence   uint64 `json:"sequence,string"`
}

type CastVoteRequest struct {
	ProposalID   uint64 `json:"proposalId,string"`
	CurrentBlock uint64 `json:"currentBlock,string"`
	Support      bool   `json:"support"`
}

type CastVoteResponse struct {
	Weight   uint64 `json:"weight,string"`
	Sequence uint64 `json:"sequence,string"`
}

type ExecuteProposalRequest struct {
	ProposalID uint64 `json:"proposalId,string"`
}

type ExecuteProposalResponse struct {
	Sequence uint64 `json:"sequence,string"`
}

type IsProposalExecutedRequest struct {
	ProposalID uint64 `json:"proposalId,string"`
}

type IsProposalExecutedResponse struct {
	Executed bool `json:"executed"`
}

type GetProposalRequest struct {
	ProposalID uint64 `json:"proposalId,string"`
}

type GetProposalResponse struct {
	Proposal Proposal `json:"proposal"`
}

type ListProposalsRequest struct{}

type ListProposalsResponse struct {
	Proposals []Proposal `json:"proposals"`
}

type GetSupplyRequest struct{}

type GetSupplyResponse struct {
	TotalSupply uint64 `json:"totalSupply,string"`
}

type WatchEventsRequest struct {
	// Event types to watch. Empty watches every governance event.
	Types []string `json:"types,omitempty"`
}

type WatchEventsResponse struct {
	Timestamp time.Time       `json:"timestamp"`
	Type      string          `json:"type"`
	Data      json.RawMessage `json:"data"`
}

type Proposal struct {
	Proposer     string `json:"proposer"`
	Description  string `json:"description"`
	ID           uint64 `json:"id,string"`
	ForVotes     uint64 `json:"forVotes,string"`
	AgainstVotes uint64 `json:"againstVotes,string"`
	StartBlock   uint64 `json:"startBlock,string"`
	EndBlock     uint64 `json:"endBlock,string"`
	Executed     bool   `json:"executed"`
}
