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

// BounceDao is a data access object for bounces. Bounces are never updated.
type BounceDao interface {
	// Insert inserts a new bounce.
	Insert(context.Context, Queryer, *models.BounceEntity) error
	// FindBySubscription returns all bounces of a subscription, newest first.
	FindBySubscription(context.Context, Queryer, int64) ([]models.BounceEntity, error)
	// FindRecent returns the newest bounces across all subscriptions.
	FindRecent(context.Context, Queryer, int) ([]models.BounceEntity, error)
}

type bounceDao struct{}

// NewBounceDao creates a new BounceDao.
func NewBounceDao() BounceDao {
	return bounceDao{}
}

func (bounceDao) Insert(ctx context.Context, q Queryer, bounce *models.BounceEntity) error {
	const query = `
		insert into "bounces" (
			"subscription_id" ,
			"created_at" ,
			"hard" ,
			"status_code" ,
			"content"
		) values (
			:subscription_id ,
			:created_at ,
			:hard ,
			:status_code ,
			:content
		) ;
	`

	id, err := insertNamed(ctx, q, query, bounce)
	if err != nil {
		return err
	}

	bounce.ID = id
	return nil
}

func (bounceDao) FindBySubscription(
	ctx context.Context,
	q Queryer,
	subscriptionID int64,
) ([]models.BounceEntity, error) {
	const query = `
		select *
		from "bounces"
		where "subscription_id" = $1
		order by "created_at" desc, "id" desc ;
	`

	var bounceSlice []models.BounceEntity

	if err := selectSlice(ctx, q, &bounceSlice, query, subscriptionID); err != nil {
		return nil, err
	}

	return bounceSlice, nil
}

func (bounceDao) FindRecent(ctx context.Context, q Queryer, limit int) ([]models.BounceEntity, error) {
	const query = `
		select *
		from "bounces"
		order by "created_at" desc, "id" desc
		limit $1 ;
	`

	var bounceSlice []models.BounceEntity

	if err := selectSlice(ctx, q, &bounceSlice, query, limit); err != nil {
		return nil, err
	}

	return bounceSlice, nil
}
