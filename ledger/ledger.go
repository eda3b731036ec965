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

package ledger

import (
	"fmt"
	"maps"
	"math"

	"github.com/blinklabs-io/gavel/types"
)

// Ledger tracks token balances. The sum of all balances always equals the
// total minted supply, and both fit in a uint64.
//
// Ledger is not safe for concurrent use; callers serialize access.
type Ledger struct {
	balances map[types.Principal]uint64
	owner    types.Principal
	supply   uint64
}

// New returns an empty ledger whose mint operation is restricted to owner
func New(owner types.Principal) *Ledger {
	return &Ledger{
		owner:    owner,
		balances: make(map[types.Principal]uint64),
	}
}

// NewFromBalances rebuilds a ledger from previously persisted balances
func NewFromBalances(
	owner types.Principal,
	balances map[types.Principal]uint64,
) (*Ledger, error) {
	l := New(owner)
	for principal, balance := range balances {
		if balance == 0 {
			continue
		}
		if l.supply > math.MaxUint64-balance {
			return nil, fmt.Errorf(
				"restore balance for %s: %w",
				principal,
				types.ErrOverflow,
			)
		}
		l.supply += balance
		l.balances[principal] = balance
	}
	return l, nil
}

// Owner returns the principal allowed to mint
func (l *Ledger) Owner() types.Principal {
	return l.owner
}

// Mint credits amount to recipient. Only the owner may mint.
func (l *Ledger) Mint(
	amount uint64,
	recipient types.Principal,
	caller types.Principal,
) error {
	if caller != l.owner {
		return fmt.Errorf("mint by %s: %w", caller, types.ErrNotAuthorized)
	}
	if amount == 0 {
		return fmt.Errorf("mint: %w", types.ErrInvalidAmount)
	}
	// The supply bounds every balance, but both are checked so the error
	// names the right condition if the invariant is ever broken
	if l.supply > math.MaxUint64-amount ||
		l.balances[recipient] > math.MaxUint64-amount {
		return fmt.Errorf(
			"mint %d to %s: %w",
			amount,
			recipient,
			types.ErrOverflow,
		)
	}
	l.supply += amount
	l.balances[recipient] += amount
	return nil
}

// Transfer moves amount from sender to recipient
func (l *Ledger) Transfer(
	amount uint64,
	sender types.Principal,
	recipient types.Principal,
) error {
	if amount == 0 {
		return fmt.Errorf("transfer: %w", types.ErrInvalidAmount)
	}
	senderBalance := l.balances[sender]
	if senderBalance < amount {
		return fmt.Errorf(
			"transfer %d from %s (balance %d): %w",
			amount,
			sender,
			senderBalance,
			types.ErrInsufficientBalance,
		)
	}
	if sender == recipient {
		return nil
	}
	// Cannot overflow: recipient balance + amount <= supply
	l.setBalance(sender, senderBalance-amount)
	l.balances[recipient] += amount
	return nil
}

// Balance returns the balance of address, which is zero for unknown principals
func (l *Ledger) Balance(address types.Principal) uint64 {
	return l.balances[address]
}

// TotalSupply returns the sum of all minted tokens
func (l *Ledger) TotalSupply() uint64 {
	return l.supply
}

// Accounts returns a copy of all non-zero balances
func (l *Ledger) Accounts() map[types.Principal]uint64 {
	return maps.Clone(l.balances)
}

func (l *Ledger) setBalance(principal types.Principal, balance uint64) {
	if balance == 0 {
		delete(l.balances, principal)
		return
	}
	l.balances[principal] = balance
}
