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
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/lukasdietrich/rundbrief/internal/models"
)

func TestBounceDaoTestSuite(t *testing.T) {
	suite.Run(t, new(BounceDaoTestSuite))
}

type BounceDaoTestSuite struct {
	baseDatabaseTestSuite

	bounceDao BounceDao
}

func (s *BounceDaoTestSuite) SetupSuite() {
	s.bounceDao = NewBounceDao()
}

func (s *BounceDaoTestSuite) SetupTest() {
	s.baseDatabaseTestSuite.SetupTest()
	s.seedNewsletters()
	s.requireExec(
		`
			insert into "subscriptions"
				( "id", "newsletter_id", "email", "created_at", "activation_code", "subscribed" )
			values
				( 1, 1, 'alice@example.com', 100, 'code1', 1 ) ,
				( 2, 1, 'bob@example.com', 100, 'code2', 1 ) ;
		`)
}

func (s *BounceDaoTestSuite) TestInsert() {
	bounce := models.BounceEntity{
		SubscriptionID: 1,
		CreatedAt:      300,
		Hard:           true,
		StatusCode:     "5.1.1",
		Content:        []byte("Status: 5.1.1"),
	}

	s.Assert().NoError(s.bounceDao.Insert(s.ctx, s.conn, &bounce))
	s.Assert().NotZero(bounce.ID)

	s.assertQuery(`select "subscription_id", "hard", "status_code" from "bounces" ;`,
		[]string{"1", "1", "5.1.1"})
}

func (s *BounceDaoTestSuite) TestInsertUnknownSubscription() {
	bounce := models.BounceEntity{SubscriptionID: 99, StatusCode: "5.1.1", Content: []byte{}}

	s.Assert().Error(s.bounceDao.Insert(s.ctx, s.conn, &bounce))
}

func (s *BounceDaoTestSuite) TestFindBySubscription() {
	s.requireExec(
		`
			insert into "bounces"
				( "id", "subscription_id", "created_at", "hard", "status_code", "content" )
			values
				( 1, 1, 100, 0, '4.4.1', x'01' ) ,
				( 2, 2, 200, 1, '5.1.1', x'02' ) ,
				( 3, 1, 300, 1, '5.1.1', x'03' ) ;
		`)

	bounces, err := s.bounceDao.FindBySubscription(s.ctx, s.conn, 1)
	s.Require().NoError(err)
	s.Require().Len(bounces, 2)

	s.Assert().Equal(models.BounceEntity{
		ID:             3,
		SubscriptionID: 1,
		CreatedAt:      300,
		Hard:           true,
		StatusCode:     "5.1.1",
		Content:        []byte{3},
	}, bounces[0])
	s.Assert().EqualValues(1, bounces[1].ID)
	s.Assert().False(bounces[1].Hard)
}

func (s *BounceDaoTestSuite) TestFindRecent() {
	s.requireExec(
		`
			insert into "bounces"
				( "id", "subscription_id", "created_at", "hard", "status_code", "content" )
			values
				( 1, 1, 100, 0, '4.4.1', x'01' ) ,
				( 2, 2, 200, 1, '5.1.1', x'02' ) ,
				( 3, 1, 300, 1, '5.1.1', x'03' ) ;
		`)

	bounces, err := s.bounceDao.FindRecent(s.ctx, s.conn, 2)
	s.Require().NoError(err)
	s.Require().Len(bounces, 2)
	s.Assert().EqualValues(3, bounces[0].ID)
	s.Assert().EqualValues(2, bounces[1].ID)
}
