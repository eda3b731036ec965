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

import "github.com/blinklabs-io/gavel/types"

// Proposal is a governance item with a weighted for/against tally.
// A proposal moves from created to executed exactly once.
type Proposal struct {
	Proposer     types.Principal
	Description  string
	ID           uint64
	ForVotes     uint64
	AgainstVotes uint64
	StartBlock   uint64
	EndBlock     uint64
	Executed     bool
}

// Passing reports whether the for votes are a strict majority
func (p Proposal) Passing() bool {
	return p.ForVotes > p.AgainstVotes
}

// InWindow reports whether block falls in [StartBlock, EndBlock]
func (p Proposal) InWindow(block uint64) bool {
	return block >= p.StartBlock && block <= p.EndBlock
}
