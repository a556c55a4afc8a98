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
	"fmt"

	"github.com/lukasdietrich/rundbrief/internal/models"
)

// SubscriptionDao is a data access object for all subscription related queries.
type SubscriptionDao interface {
	// Insert validates and inserts a new subscription.
	Insert(context.Context, Queryer, *models.SubscriptionEntity) error
	// Update validates and updates an existing subscription.
	Update(context.Context, Queryer, *models.SubscriptionEntity) error
	// FindByID returns a single subscriber.
	FindByID(context.Context, Queryer, int64) (*models.Subscriber, error)
	// FindByIdentity returns the subscriber of a newsletter with the given identity.
	FindByIdentity(context.Context, Queryer, int64, models.Identity) (*models.Subscriber, error)
	// FindByNewsletter returns all subscribers of a newsletter regardless of their state.
	FindByNewsletter(context.Context, Queryer, int64) ([]models.Subscriber, error)
	// FindByEmail returns the subscribers of all newsletters with a case-insensitively matching
	// email of either identity kind.
	FindByEmail(context.Context, Queryer, string) ([]models.Subscriber, error)
	// FindActive returns the subscribers of a newsletter, that are subscribed and never hard
	// bounced.
	FindActive(context.Context, Queryer, int64) ([]models.Subscriber, error)
	// FindActiveBySubmission returns the subscribers attached to a submission, that are
	// subscribed and never hard bounced.
	FindActiveBySubmission(context.Context, Queryer, int64) ([]models.Subscriber, error)
}

type subscriptionDao struct{}

// NewSubscriptionDao creates a new SubscriptionDao.
func NewSubscriptionDao() SubscriptionDao {
	return subscriptionDao{}
}

const selectSubscribers = `
	select "subscriptions".* ,
	       "accounts"."name"  as "account_name" ,
	       "accounts"."email" as "account_email"
	from "subscriptions"
		left join "accounts" on "accounts"."id" = "subscriptions"."account_id"
`

const withoutHardBounces = `
	"subscriptions"."subscribed" = 1
	and not exists (
		select 1
		from "bounces"
		where "bounces"."subscription_id" = "subscriptions"."id"
		  and "bounces"."hard" = 1
	)
`

func (subscriptionDao) Insert(
	ctx context.Context,
	q Queryer,
	subscription *models.SubscriptionEntity,
) error {
	if err := subscription.Validate(); err != nil {
		return err
	}

	const query = `
		insert into "subscriptions" (
			"newsletter_id" ,
			"account_id" ,
			"name" ,
			"email" ,
			"ip" ,
			"created_at" ,
			"activation_code" ,
			"subscribed" ,
			"subscribed_at" ,
			"unsubscribed" ,
			"unsubscribed_at"
		) values (
			:newsletter_id ,
			:account_id ,
			:name ,
			:email ,
			:ip ,
			:created_at ,
			:activation_code ,
			:subscribed ,
			:subscribed_at ,
			:unsubscribed ,
			:unsubscribed_at
		) ;
	`

	id, err := insertNamed(ctx, q, query, subscription)
	if err != nil {
		return err
	}

	subscription.ID = id
	return nil
}

func (subscriptionDao) Update(
	ctx context.Context,
	q Queryer,
	subscription *models.SubscriptionEntity,
) error {
	if err := subscription.Validate(); err != nil {
		return err
	}

	const query = `
		update "subscriptions"
		set "account_id"      = :account_id ,
		    "name"            = :name ,
		    "email"           = :email ,
		    "ip"              = :ip ,
		    "activation_code" = :activation_code ,
		    "subscribed"      = :subscribed ,
		    "subscribed_at"   = :subscribed_at ,
		    "unsubscribed"    = :unsubscribed ,
		    "unsubscribed_at" = :unsubscribed_at
		where "id" = :id ;
	`

	return updateNamed(ctx, q, query, subscription)
}

func (subscriptionDao) FindByID(ctx context.Context, q Queryer, id int64) (*models.Subscriber, error) {
	const query = selectSubscribers + `
		where "subscriptions"."id" = $1 ;
	`

	var subscriber models.Subscriber

	if err := selectOne(ctx, q, &subscriber, query, id); err != nil {
		return nil, err
	}

	return &subscriber, nil
}

func (subscriptionDao) FindByIdentity(
	ctx context.Context,
	q Queryer,
	newsletterID int64,
	identity models.Identity,
) (*models.Subscriber, error) {
	var (
		subscriber models.Subscriber
		query      string
		arg        any
	)

	switch id := identity.(type) {
	case models.AccountIdentity:
		query = selectSubscribers + `
			where "subscriptions"."newsletter_id" = $1
			  and "subscriptions"."account_id" = $2 ;
		`
		arg = id.AccountID

	case models.StandaloneIdentity:
		query = selectSubscribers + `
			where "subscriptions"."newsletter_id" = $1
			  and "subscriptions"."email" = $2 ;
		`
		arg = id.Email.String()

	default:
		return nil, fmt.Errorf("unsupported identity %T", identity)
	}

	if err := selectOne(ctx, q, &subscriber, query, newsletterID, arg); err != nil {
		return nil, err
	}

	return &subscriber, nil
}

func (subscriptionDao) FindByNewsletter(
	ctx context.Context,
	q Queryer,
	newsletterID int64,
) ([]models.Subscriber, error) {
	const query = selectSubscribers + `
		where "subscriptions"."newsletter_id" = $1
		order by "subscriptions"."id" ;
	`

	return selectSubscriberSlice(ctx, q, query, newsletterID)
}

func (subscriptionDao) FindByEmail(ctx context.Context, q Queryer, email string) ([]models.Subscriber, error) {
	const query = selectSubscribers + `
		where "subscriptions"."email" = $1
		   or "accounts"."email" = $1
		order by "subscriptions"."id" ;
	`

	return selectSubscriberSlice(ctx, q, query, email)
}

func (subscriptionDao) FindActive(
	ctx context.Context,
	q Queryer,
	newsletterID int64,
) ([]models.Subscriber, error) {
	const query = selectSubscribers + `
		where "subscriptions"."newsletter_id" = $1
		  and ` + withoutHardBounces + `
		order by "subscriptions"."id" ;
	`

	return selectSubscriberSlice(ctx, q, query, newsletterID)
}

func (subscriptionDao) FindActiveBySubmission(
	ctx context.Context,
	q Queryer,
	submissionID int64,
) ([]models.Subscriber, error) {
	const query = selectSubscribers + `
		inner join "submission_subscriptions"
			on "submission_subscriptions"."subscription_id" = "subscriptions"."id"
		where "submission_subscriptions"."submission_id" = $1
		  and ` + withoutHardBounces + `
		order by "subscriptions"."id" ;
	`

	return selectSubscriberSlice(ctx, q, query, submissionID)
}

func selectSubscriberSlice(ctx context.Context, q Queryer, query string, args ...any) ([]models.Subscriber, error) {
	var subscriberSlice []models.Subscriber

	if err := selectSlice(ctx, q, &subscriberSlice, query, args...); err != nil {
		return nil, err
	}

	return subscriberSlice, nil
}
