// Copyright (C) 2020  Lukas Dietrich <lukas@lukasdietrich.com>
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

package database

import (
	"context"

	"github.com/lukasdietrich/rundbrief/internal/models"
)

// AccountDao is a data access object for registered accounts.
type AccountDao interface {
	// Insert inserts a new account.
	Insert(context.Context, Queryer, *models.AccountEntity) error
	// FindAll returns all accounts.
	FindAll(context.Context, Queryer) ([]models.AccountEntity, error)
	// FindByEmail returns the account with a case-insensitively matching email.
	FindByEmail(context.Context, Queryer, string) (*models.AccountEntity, error)
}

type accountDao struct{}

// NewAccountDao creates a new AccountDao.
func NewAccountDao() AccountDao {
	return accountDao{}
}

func (accountDao) Insert(ctx context.Context, q Queryer, account *models.AccountEntity) error {
	const query = `
		insert into "accounts" (
			"name" ,
			"email"
		) values (
			:name ,
			:email
		) ;
	`

	id, err := insertNamed(ctx, q, query, account)
	if err != nil {
		return err
	}

	account.ID = id
	return nil
}

func (accountDao) FindAll(ctx context.Context, q Queryer) ([]models.AccountEntity, error) {
	const query = `
		select *
		from "accounts"
		order by "email" ;
	`

	var accountSlice []models.AccountEntity

	if err := selectSlice(ctx, q, &accountSlice, query); err != nil {
		return nil, err
	}

	return accountSlice, nil
}

func (accountDao) FindByEmail(ctx context.Context, q Queryer, email string) (*models.AccountEntity, error) {
	const query = `
		select *
		from "accounts"
		where "email" = $1
		limit 1 ;
	`

	var account models.AccountEntity

	if err := selectOne(ctx, q, &account, query, email); err != nil {
		return nil, err
	}

	return &account, nil
}
