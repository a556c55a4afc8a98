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
	"database/sql"
	"errors"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/lukasdietrich/rundbrief/internal/models"
)

func TestSubscriptionDaoTestSuite(t *testing.T) {
	suite.Run(t, new(SubscriptionDaoTestSuite))
}

type SubscriptionDaoTestSuite struct {
	baseDatabaseTestSuite

	subscriptionDao SubscriptionDao
}

func (s *SubscriptionDaoTestSuite) SetupSuite() {
	s.subscriptionDao = NewSubscriptionDao()
}

func (s *SubscriptionDaoTestSuite) SetupTest() {
	s.baseDatabaseTestSuite.SetupTest()
	s.seedNewsletters()
}

func (s *SubscriptionDaoTestSuite) seedSubscriptions() {
	s.requireExec(
		`
			insert into "subscriptions"
				( "id", "newsletter_id", "account_id", "name", "email", "created_at", "activation_code",
				  "subscribed", "unsubscribed" )
			values
				( 1, 1, null, 'Alice', 'alice@example.com', 100, 'code1', 1, 0 ) ,
				( 2, 1, null, null, 'bob@example.com', 100, 'code2', 1, 0 ) ,
				( 3, 1, null, null, 'carol@example.com', 100, 'code3', 1, 0 ) ,
				( 4, 1, null, null, 'dave@example.com', 100, 'code4', 0, 1 ) ,
				( 5, 1, 10, null, null, 100, 'code5', 1, 0 ) ,
				( 6, 2, null, null, 'ALICE@example.com', 100, 'code6', 1, 0 ) ,
				( 7, 1, null, null, 'erin@example.com', 100, 'code7', 0, 0 ) ;

			insert into "bounces"
				( "subscription_id", "created_at", "hard", "status_code", "content" )
			values
				( 2, 200, 1, '5.1.1', x'00' ) ,
				( 3, 200, 0, '5.2.2', x'00' ) ,
				( 3, 201, 0, '4.4.1', x'00' ) ;
		`)
}

func (s *SubscriptionDaoTestSuite) TestInsertStandalone() {
	subscription := models.SubscriptionEntity{
		NewsletterID:   1,
		CreatedAt:      123,
		ActivationCode: "abc",
	}
	subscription.SetIdentity(models.StandaloneIdentity{
		Name:  "Some One",
		Email: s.mustParseAddress("someone@example.com"),
	})

	s.Assert().NoError(s.subscriptionDao.Insert(s.ctx, s.conn, &subscription))
	s.Assert().NotZero(subscription.ID)

	s.assertQuery(
		`
			select "newsletter_id", "name", "email", "activation_code", "subscribed", "unsubscribed"
			from "subscriptions" ;
		`,
		[]string{"1", "Some One", "someone@example.com", "abc", "0", "0"})
}

func (s *SubscriptionDaoTestSuite) TestInsertConflictingIdentity() {
	subscription := models.SubscriptionEntity{
		NewsletterID: 1,
		AccountID:    sql.NullInt64{Int64: 10, Valid: true},
		Email:        sql.NullString{String: "someone@example.com", Valid: true},
	}

	err := s.subscriptionDao.Insert(s.ctx, s.conn, &subscription)
	s.Assert().True(errors.Is(err, models.ErrIdentityConflict))

	s.assertQuery(`select count(*) from "subscriptions" ;`, []string{"0"})
}

func (s *SubscriptionDaoTestSuite) TestInsertMissingIdentity() {
	subscription := models.SubscriptionEntity{NewsletterID: 1}

	err := s.subscriptionDao.Insert(s.ctx, s.conn, &subscription)
	s.Assert().True(errors.Is(err, models.ErrIdentityMissing))

	s.assertQuery(`select count(*) from "subscriptions" ;`, []string{"0"})
}

func (s *SubscriptionDaoTestSuite) TestInsertDuplicateEmailIgnoresCase() {
	s.seedSubscriptions()

	subscription := models.SubscriptionEntity{NewsletterID: 1, ActivationCode: "x"}
	subscription.SetIdentity(models.StandaloneIdentity{
		Email: s.mustParseAddress("Alice@EXAMPLE.com"),
	})

	err := s.subscriptionDao.Insert(s.ctx, s.conn, &subscription)
	s.Assert().True(IsErrUnique(err))
}

func (s *SubscriptionDaoTestSuite) TestUpdate() {
	s.seedSubscriptions()

	subscriber, err := s.subscriptionDao.FindByID(s.ctx, s.conn, 4)
	s.Require().NoError(err)

	subscription := subscriber.SubscriptionEntity
	subscription.Subscribed = true
	subscription.SubscribedAt = sql.NullInt64{Int64: 500, Valid: true}
	subscription.Unsubscribed = false

	s.Assert().NoError(s.subscriptionDao.Update(s.ctx, s.conn, &subscription))

	s.assertQuery(
		`
			select "subscribed", "subscribed_at", "unsubscribed"
			from "subscriptions"
			where "id" = 4 ;
		`,
		[]string{"1", "500", "0"})
}

func (s *SubscriptionDaoTestSuite) TestUpdateInvalidIdentity() {
	s.seedSubscriptions()

	subscription := models.SubscriptionEntity{ID: 1, NewsletterID: 1}

	err := s.subscriptionDao.Update(s.ctx, s.conn, &subscription)
	s.Assert().True(errors.Is(err, models.ErrIdentityMissing))

	s.assertQuery(`select "email" from "subscriptions" where "id" = 1 ;`, []string{"alice@example.com"})
}

func (s *SubscriptionDaoTestSuite) TestFindByIDWithAccount() {
	s.seedSubscriptions()

	subscriber, err := s.subscriptionDao.FindByID(s.ctx, s.conn, 5)
	s.Require().NoError(err)

	s.Assert().Equal("Holder@Example.com", subscriber.EmailAddress())
	s.Assert().Equal(`"Account Holder" <Holder@Example.com>`, subscriber.Recipient())
}

func (s *SubscriptionDaoTestSuite) TestFindByIdentity() {
	s.seedSubscriptions()

	byAccount, err := s.subscriptionDao.FindByIdentity(s.ctx, s.conn, 1, models.AccountIdentity{AccountID: 10})
	s.Require().NoError(err)
	s.Assert().EqualValues(5, byAccount.ID)

	byEmail, err := s.subscriptionDao.FindByIdentity(s.ctx, s.conn, 2,
		models.StandaloneIdentity{Email: s.mustParseAddress("alice@example.com")})
	s.Require().NoError(err)
	s.Assert().EqualValues(6, byEmail.ID)

	_, err = s.subscriptionDao.FindByIdentity(s.ctx, s.conn, 2, models.AccountIdentity{AccountID: 10})
	s.Assert().True(IsErrNoRows(err))
}

func (s *SubscriptionDaoTestSuite) TestFindByEmail() {
	s.seedSubscriptions()

	subscribers, err := s.subscriptionDao.FindByEmail(s.ctx, s.conn, "alice@EXAMPLE.COM")
	s.Require().NoError(err)
	s.Require().Len(subscribers, 2)
	s.Assert().EqualValues(1, subscribers[0].ID)
	s.Assert().EqualValues(6, subscribers[1].ID)

	subscribers, err = s.subscriptionDao.FindByEmail(s.ctx, s.conn, "holder@example.com")
	s.Require().NoError(err)
	s.Require().Len(subscribers, 1)
	s.Assert().EqualValues(5, subscribers[0].ID)

	subscribers, err = s.subscriptionDao.FindByEmail(s.ctx, s.conn, "nobody@example.com")
	s.Require().NoError(err)
	s.Assert().Empty(subscribers)
}

func (s *SubscriptionDaoTestSuite) TestFindByNewsletter() {
	s.seedSubscriptions()

	subscribers, err := s.subscriptionDao.FindByNewsletter(s.ctx, s.conn, 1)
	s.Require().NoError(err)
	s.Assert().Equal([]int64{1, 2, 3, 4, 5, 7}, subscriberIDs(subscribers))
}

func (s *SubscriptionDaoTestSuite) TestFindActive() {
	s.seedSubscriptions()

	// 2 hard bounced, 3 only soft bounced, 4 unsubscribed, 7 never subscribed
	subscribers, err := s.subscriptionDao.FindActive(s.ctx, s.conn, 1)
	s.Require().NoError(err)
	s.Assert().Equal([]int64{1, 3, 5}, subscriberIDs(subscribers))

	subscribers, err = s.subscriptionDao.FindActive(s.ctx, s.conn, 2)
	s.Require().NoError(err)
	s.Assert().Equal([]int64{6}, subscriberIDs(subscribers))
}

func (s *SubscriptionDaoTestSuite) TestFindActiveReflectsNewHardBounce() {
	s.seedSubscriptions()

	s.requireExec(
		`
			insert into "bounces"
				( "subscription_id", "created_at", "hard", "status_code", "content" )
			values
				( 1, 300, 1, '5.1.1', x'00' ) ;
		`)

	subscribers, err := s.subscriptionDao.FindActive(s.ctx, s.conn, 1)
	s.Require().NoError(err)
	s.Assert().Equal([]int64{3, 5}, subscriberIDs(subscribers))
}

func (s *SubscriptionDaoTestSuite) TestFindActiveBySubmission() {
	s.seedSubscriptions()

	s.requireExec(
		`
			insert into "messages"
				( "id", "newsletter_id", "title", "slug", "created_at", "modified_at" )
			values
				( 1, 1, 'Issue 1', 'issue-1', 100, 100 ) ;

			insert into "submissions"
				( "id", "newsletter_id", "message_id", "publish_date" )
			values
				( 1, 1, 1, 100 ) ;

			insert into "submission_subscriptions"
				( "submission_id", "subscription_id" )
			values
				( 1, 1 ) , ( 1, 2 ) , ( 1, 4 ) , ( 1, 5 ) ;
		`)

	subscribers, err := s.subscriptionDao.FindActiveBySubmission(s.ctx, s.conn, 1)
	s.Require().NoError(err)
	s.Assert().Equal([]int64{1, 5}, subscriberIDs(subscribers))
}

func subscriberIDs(subscribers []models.Subscriber) []int64 {
	ids := make([]int64, len(subscribers))
	for i, subscriber := range subscribers {
		ids[i] = subscriber.ID
	}

	return ids
}
