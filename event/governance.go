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

package event

// Governance events are published after the operation has been committed to
// the database. Sequence is the journal sequence number of the operation.
const (
	MintEventType             = EventType("governance.mint")
	TransferEventType         = EventType("governance.transfer")
	MemberRegisteredEventType = EventType("governance.member_registered")
	ProposalCreatedEventType  = EventType("governance.proposal_created")
	VoteCastEventType         = EventType("governance.vote_cast")
	ProposalExecutedEventType = EventType("governance.proposal_executed")
)

// GovernanceEventTypes lists every governance event type
var GovernanceEventTypes = []EventType{
	MintEventType,
	TransferEventType,
	MemberRegisteredEventType,
	ProposalCreatedEventType,
	VoteCastEventType,
	ProposalExecutedEventType,
}

type MintEvent struct {
	Sequence  uint64
	Amount    uint64
	Recipient string
	Caller    string
}

type TransferEvent struct {
	Sequence  uint64
	Amount    uint64
	Sender    string
	Recipient string
}

type MemberRegisteredEvent struct {
	Sequence uint64
	Member   string
	Grant    uint64
}

type ProposalCreatedEvent struct {
	Sequence    uint64
	ProposalID  uint64
	Proposer    string
	Description string
	StartBlock  uint64
	EndBlock    uint64
}

// VoteCastEvent is emitted for every recorded vote. Voter is empty for votes
// applied with an explicit weight.
type VoteCastEvent struct {
	Sequence   uint64
	ProposalID uint64
	Voter      string
	Support    bool
	Weight     uint64
}

type ProposalExecutedEvent struct {
	Sequence   uint64
	ProposalID uint64
}
