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

// SubmissionDao is a data access object for submissions and their subscriber subsets.
type SubmissionDao interface {
	// Insert inserts a new submission.
	Insert(context.Context, Queryer, *models.SubmissionEntity) error
	// Update updates an existing submission.
	Update(context.Context, Queryer, *models.SubmissionEntity) error
	// FindByID returns the submission with the given id.
	FindByID(context.Context, Queryer, int64) (*models.SubmissionEntity, error)
	// FindAll returns all submissions, newest publish date first.
	FindAll(context.Context, Queryer) ([]models.SubmissionEntity, error)
	// FindDue returns all submissions, that are prepared, neither sent nor sending and have a
	// publish date before the given unix time.
	FindDue(context.Context, Queryer, int64) ([]models.SubmissionEntity, error)
	// SetSubscriptions replaces the subscriber subset of a submission.
	SetSubscriptions(context.Context, Queryer, int64, []int64) error
	// CountSubscriptions returns the size of the subscriber subset of a submission.
	CountSubscriptions(context.Context, Queryer, int64) (int, error)
}

type submissionDao struct{}

// NewSubmissionDao creates a new SubmissionDao.
func NewSubmissionDao() SubmissionDao {
	return submissionDao{}
}

func (submissionDao) Insert(ctx context.Context, q Queryer, submission *models.SubmissionEntity) error {
	const query = `
		insert into "submissions" (
			"newsletter_id" ,
			"message_id" ,
			"publish_date" ,
			"publish" ,
			"prepared" ,
			"sent" ,
			"sending"
		) values (
			:newsletter_id ,
			:message_id ,
			:publish_date ,
			:publish ,
			:prepared ,
			:sent ,
			:sending
		) ;
	`

	id, err := insertNamed(ctx, q, query, submission)
	if err != nil {
		return err
	}

	submission.ID = id
	return nil
}

func (submissionDao) Update(ctx context.Context, q Queryer, submission *models.SubmissionEntity) error {
	const query = `
		update "submissions"
		set "newsletter_id" = :newsletter_id ,
		    "message_id"    = :message_id ,
		    "publish_date"  = :publish_date ,
		    "publish"       = :publish ,
		    "prepared"      = :prepared ,
		    "sent"          = :sent ,
		    "sending"       = :sending
		where "id" = :id ;
	`

	return updateNamed(ctx, q, query, submission)
}

func (submissionDao) FindByID(ctx context.Context, q Queryer, id int64) (*models.SubmissionEntity, error) {
	const query = `
		select *
		from "submissions"
		where "id" = $1 ;
	`

	var submission models.SubmissionEntity

	if err := selectOne(ctx, q, &submission, query, id); err != nil {
		return nil, err
	}

	return &submission, nil
}

func (submissionDao) FindAll(ctx context.Context, q Queryer) ([]models.SubmissionEntity, error) {
	const query = `
		select *
		from "submissions"
		order by "publish_date" desc, "id" desc ;
	`

	var submissionSlice []models.SubmissionEntity

	if err := selectSlice(ctx, q, &submissionSlice, query); err != nil {
		return nil, err
	}

	return submissionSlice, nil
}

func (submissionDao) FindDue(ctx context.Context, q Queryer, now int64) ([]models.SubmissionEntity, error) {
	const query = `
		select *
		from "submissions"
		where "prepared" = 1
		  and "sent" = 0
		  and "sending" = 0
		  and "publish_date" < $1
		order by "publish_date", "id" ;
	`

	var submissionSlice []models.SubmissionEntity

	if err := selectSlice(ctx, q, &submissionSlice, query, now); err != nil {
		return nil, err
	}

	return submissionSlice, nil
}

func (submissionDao) SetSubscriptions(
	ctx context.Context,
	q Queryer,
	submissionID int64,
	subscriptionIDs []int64,
) error {
	const deleteQuery = `
		delete from "submission_subscriptions"
		where "submission_id" = $1 ;
	`

	if _, err := execPositional(ctx, q, deleteQuery, submissionID); err != nil {
		return err
	}

	const insertQuery = `
		insert into "submission_subscriptions" (
			"submission_id" ,
			"subscription_id"
		) values (
			$1 ,
			$2
		) ;
	`

	for _, subscriptionID := range subscriptionIDs {
		if _, err := execPositional(ctx, q, insertQuery, submissionID, subscriptionID); err != nil {
			return err
		}
	}

	return nil
}

func (submissionDao) CountSubscriptions(ctx context.Context, q Queryer, submissionID int64) (int, error) {
	const query = `
		select count(*)
		from "submission_subscriptions"
		where "submission_id" = $1 ;
	`

	var count int

	if err := selectOne(ctx, q, &count, query, submissionID); err != nil {
		return 0, err
	}

	return count, nil
}
