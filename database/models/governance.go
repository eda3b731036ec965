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

package models

import "github.com/blinklabs-io/gavel/database/types"

// Account holds the balance of a principal. Accounts with a zero balance
// are not stored.
type Account struct {
	Address string `gorm:"primaryKey;size:255"`
	Balance types.Uint64
}

func (Account) TableName() string {
	return "account"
}

type Member struct {
	Address string `gorm:"primaryKey;size:255"`
}

func (Member) TableName() string {
	return "member"
}

type Proposal struct {
	ID           types.Uint64 `gorm:"primaryKey;size:20"`
	Proposer     string       `gorm:"size:255;index"`
	Description  string
	ForVotes     types.Uint64
	AgainstVotes types.Uint64
	StartBlock   types.Uint64
	EndBlock     types.Uint64
	Executed     bool
}

func (Proposal) TableName() string {
	return "proposal"
}

// Counter is a named scalar. The store keeps the next proposal id and the
// last commit timestamp here.
type Counter struct {
	Name  string `gorm:"primaryKey;size:64"`
	Value int64
}

func (Counter) TableName() string {
	return "counter"
}
