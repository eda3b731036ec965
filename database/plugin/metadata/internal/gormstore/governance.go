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


package gormstore

import (
	"fmt"
	"math"
	"slices"

	"github.com/blinklabs-io/gavel/database/models"
	"github.com/blinklabs-io/gavel/database/types"
	"gorm.io/gorm/clause"
)

// GetAccounts returns every stored account ordered by address
func (s *Store) GetAccounts(txn types.Txn) ([]models.Account, error) {
	db, err := s.resolveDB(txn)
	if err != nil {
		return nil, err
	}
	var ret []models.Account
	if result := db.Order("address").Find(&ret); result.Error != nil {
		return nil, result.Error
	}
	return ret, nil
}

// SetAccount stores the balance of an address. A zero balance removes the
// account.
func (s *Store) SetAccount(address string, balance uint64, txn types.Txn) error {
	db, err := s.resolveDB(txn)
	if err != nil {
		return err
	}
	if balance == 0 {
		result := db.Where("address = ?", address).Delete(&models.Account{})
		return result.Error
	}
	tmpAccount := models.Account{
		Address: address,
		Balance: types.Uint64(balance),
	}
	result := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "address"}},
		DoUpdates: clause.AssignmentColumns([]string{"balance"}),
	}).Create(&tmpAccount)
	return result.Error
}

// GetMembers returns every registered member ordered by address
func (s *Store) GetMembers(txn types.Txn) ([]models.Member, error) {
	db, err := s.resolveDB(txn)
	if err != nil {
		return nil, err
	}
	var ret []models.Member
	if result := db.Order("address").Find(&ret); result.Error != nil {
		return nil, result.Error
	}
	return ret, nil
}

// AddMember records a member. Adding an existing member is a no-op.
func (s *Store) AddMember(address string, txn types.Txn) error {
	db, err := s.resolveDB(txn)
	if err != nil {
		return err
	}
	result := db.Clauses(clause.OnConflict{DoNothing: true}).
		Create(&models.Member{Address: address})
	return result.Error
}

// GetProposals returns every stored proposal ordered by id
func (s *Store) GetProposals(txn types.Txn) ([]models.Proposal, error) {
	db, err := s.resolveDB(txn)
	if err != nil {
		return nil, err
	}
	var ret []models.Proposal
	if result := db.Find(&ret); result.Error != nil {
		return nil, result.Error
	}
	// IDs are stored as strings, so the database order is lexical
	slices.SortFunc(ret, func(a, b models.Proposal) int {
		switch {
		case a.ID < b.ID:
			return -1
		case a.ID > b.ID:
			return 1
		default:
			return 0
		}
	})
	return ret, nil
}

// SetProposal inserts or replaces a proposal
func (s *Store) SetProposal(proposal *models.Proposal, txn types.Txn) error {
	db, err := s.resolveDB(txn)
	if err != nil {
		return err
	}
	result := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		UpdateAll: true,
	}).Create(proposal)
	return result.Error
}

const (
	counterNextProposalID  = "next_proposal_id"
	counterCommitTimestamp = "commit_timestamp"
)

func (s *Store) getCounter(txn types.Txn, name string) (int64, error) {
	db, err := s.resolveDB(txn)
	if err != nil {
		return 0, err
	}
	var counter models.Counter
	if result := db.Where("name = ?", name).First(&counter); result.Error != nil {
		if isNotFound(result.Error) {
			return 0, nil
		}
		return 0, result.Error
	}
	return counter.Value, nil
}

func (s *Store) setCounter(txn types.Txn, name string, value int64) error {
	db, err := s.resolveDB(txn)
	if err != nil {
		return err
	}
	result := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoUpdates: clause.AssignmentColumns([]string{"value"}),
	}).Create(&models.Counter{Name: name, Value: value})
	return result.Error
}

// GetNextProposalID returns the stored proposal counter, or 0 if none has
// been stored
func (s *Store) GetNextProposalID(txn types.Txn) (uint64, error) {
	v, err := s.getCounter(txn, counterNextProposalID)
	return uint64(v), err // #nosec G115
}

func (s *Store) SetNextProposalID(nextID uint64, txn types.Txn) error {
	if nextID > math.MaxInt64 {
		return fmt.Errorf("next proposal id %d out of range", nextID)
	}
	return s.setCounter(txn, counterNextProposalID, int64(nextID))
}

// GetCommitTimestamp returns the last commit timestamp, or 0 for an empty
// store. It reads outside any transaction.
func (s *Store) GetCommitTimestamp() (int64, error) {
	return s.getCounter(nil, counterCommitTimestamp)
}

// SetCommitTimestamp records timestamp as part of txn, or directly when txn
// is nil
func (s *Store) SetCommitTimestamp(timestamp int64, txn types.Txn) error {
	return s.setCounter(txn, counterCommitTimestamp, timestamp)
}
