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

package submission

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/osteele/liquid"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

	"github.com/lukasdietrich/rundbrief/internal/bounce"
	"github.com/lukasdietrich/rundbrief/internal/database"
	"github.com/lukasdietrich/rundbrief/internal/lock"
	"github.com/lukasdietrich/rundbrief/internal/mailer"
	"github.com/lukasdietrich/rundbrief/internal/metrics"
	"github.com/lukasdietrich/rundbrief/internal/models"
	"github.com/lukasdietrich/rundbrief/internal/templates"
)

func TestEngineTestSuite(t *testing.T) {
	suite.Run(t, new(EngineTestSuite))
}

type EngineTestSuite struct {
	suite.Suite

	conn            *database.MockConn
	tx              *database.MockTx
	newsletterDao   *database.MockNewsletterDao
	subscriptionDao *database.MockSubscriptionDao
	messageDao      *database.MockMessageDao
	articleDao      *database.MockArticleDao
	submissionDao   *database.MockSubmissionDao
	resolver        *templates.MockResolver
	transport       *mailer.MockTransport
	scanner         *bounce.MockScanner
	lock            *lock.MockLock

	bounceOpts bounce.Options
	newsletter *models.NewsletterEntity
	message    *models.MessageEntity
}

func (s *EngineTestSuite) SetupTest() {
	s.conn = new(database.MockConn)
	s.tx = new(database.MockTx)
	s.newsletterDao = new(database.MockNewsletterDao)
	s.subscriptionDao = new(database.MockSubscriptionDao)
	s.messageDao = new(database.MockMessageDao)
	s.articleDao = new(database.MockArticleDao)
	s.submissionDao = new(database.MockSubmissionDao)
	s.resolver = new(templates.MockResolver)
	s.transport = new(mailer.MockTransport)
	s.scanner = new(bounce.MockScanner)
	s.lock = new(lock.MockLock)

	s.bounceOpts = bounce.Options{}
	s.newsletter = &models.NewsletterEntity{
		ID:     1,
		Title:  "Weekly",
		Slug:   "weekly",
		Email:  "news@example.org",
		Sender: "Weekly News",
	}
	s.message = &models.MessageEntity{
		ID:           2,
		NewsletterID: 1,
		Title:        "Issue 42",
		Slug:         "issue-42",
	}
}

func (s *EngineTestSuite) TearDownTest() {
	mock.AssertExpectationsForObjects(s.T(),
		s.conn,
		s.tx,
		s.newsletterDao,
		s.subscriptionDao,
		s.messageDao,
		s.articleDao,
		s.submissionDao,
		s.resolver,
		s.transport,
		s.scanner,
		s.lock)
}

func (s *EngineTestSuite) engine() *engine {
	daos := NewDaos(s.newsletterDao, s.subscriptionDao, s.messageDao, s.articleDao, s.submissionDao)
	site := templates.Site{Name: "rundbrief", Domain: "example.org", Scheme: "https"}

	e := NewEngine(s.conn, daos, s.resolver, site, s.transport, s.scanner, s.bounceOpts, s.lock).(*engine)
	e.now = func() time.Time { return time.Unix(10000, 0) }

	return e
}

func (s *EngineTestSuite) templateSet() *templates.Set {
	engine := liquid.NewEngine()

	subject, err := engine.ParseString("{{ message.title }}")
	s.Require().NoError(err)

	text, err := engine.ParseString("{% for article in articles %}{{ article.title }};{% endfor %}")
	s.Require().NoError(err)

	return &templates.Set{Subject: subject, Text: text}
}

func (s *EngineTestSuite) expectLoad() {
	s.newsletterDao.On("FindByID", mock.Anything, s.conn, int64(1)).Return(s.newsletter, nil)
	s.messageDao.On("FindByID", mock.Anything, s.conn, int64(2)).Return(s.message, nil)
	s.articleDao.
		On("FindByMessage", mock.Anything, s.conn, int64(2)).
		Return([]models.ArticleEntity{{Title: "First"}, {Title: "Second"}}, nil)
	s.resolver.On("Resolve", s.newsletter, models.ActionMessage).Return(s.templateSet(), nil)
}

func subscriber(id int64, email string) models.Subscriber {
	return models.Subscriber{
		SubscriptionEntity: models.SubscriptionEntity{
			ID:           id,
			NewsletterID: 1,
			Email:        sql.NullString{String: email, Valid: true},
			Subscribed:   true,
		},
	}
}

func dueSubmission() *models.SubmissionEntity {
	return &models.SubmissionEntity{
		ID:           3,
		NewsletterID: 1,
		MessageID:    2,
		PublishDate:  9000,
		Prepared:     true,
	}
}

func (s *EngineTestSuite) TestSubmit_isolatesFailures() {
	submission := dueSubmission()

	s.expectLoad()
	s.subscriptionDao.
		On("FindActiveBySubmission", mock.Anything, s.conn, int64(3)).
		Return([]models.Subscriber{
			subscriber(11, "one@example.com"),
			subscriber(12, "two@example.com"),
			subscriber(13, "three@example.com"),
		}, nil)

	var updates []models.SubmissionEntity
	s.submissionDao.
		On("Update", mock.Anything, s.conn, submission).
		Run(func(args mock.Arguments) {
			updates = append(updates, *args.Get(2).(*models.SubmissionEntity))
		}).
		Return(nil)

	var recipients []string
	record := func(args mock.Arguments) {
		recipients = append(recipients, args.Get(1).(*mailer.Message).To[0])
	}

	s.transport.
		On("Send", mock.Anything, mock.MatchedBy(func(msg *mailer.Message) bool {
			return msg.To[0] == "two@example.com"
		})).
		Run(record).
		Return(errors.New("mailbox unavailable"))
	s.transport.
		On("Send", mock.Anything, mock.Anything).
		Run(record).
		Return(nil)

	failedBefore := testutil.ToFloat64(metrics.MessagesFailed.WithLabelValues("weekly"))
	sentBefore := testutil.ToFloat64(metrics.MessagesSent.WithLabelValues("weekly"))

	s.Require().NoError(s.engine().Submit(context.TODO(), submission))

	s.Assert().Equal([]string{"one@example.com", "two@example.com", "three@example.com"}, recipients)

	s.Require().Len(updates, 2)
	s.Assert().True(updates[0].Sending)
	s.Assert().False(updates[0].Sent)
	s.Assert().False(updates[1].Sending)
	s.Assert().True(updates[1].Sent)

	s.Assert().Equal(failedBefore+1, testutil.ToFloat64(metrics.MessagesFailed.WithLabelValues("weekly")))
	s.Assert().Equal(sentBefore+2, testutil.ToFloat64(metrics.MessagesSent.WithLabelValues("weekly")))
}

func (s *EngineTestSuite) TestSubmit_notDue() {
	submission := dueSubmission()
	submission.PublishDate = 20000

	err := s.engine().Submit(context.TODO(), submission)
	s.Assert().ErrorIs(err, ErrNotDue)
	s.Assert().False(submission.Sending)
	s.Assert().False(submission.Sent)

	s.submissionDao.AssertNotCalled(s.T(), "Update", mock.Anything, mock.Anything, mock.Anything)
	s.transport.AssertNotCalled(s.T(), "Send", mock.Anything, mock.Anything)
}

func (s *EngineTestSuite) TestSubmit_allSendsFail() {
	submission := dueSubmission()

	s.expectLoad()
	s.subscriptionDao.
		On("FindActiveBySubmission", mock.Anything, s.conn, int64(3)).
		Return([]models.Subscriber{subscriber(11, "one@example.com"), subscriber(12, "two@example.com")}, nil)
	s.submissionDao.On("Update", mock.Anything, s.conn, submission).Return(nil)
	s.transport.On("Send", mock.Anything, mock.Anything).Return(errors.New("connection refused"))

	s.Require().NoError(s.engine().Submit(context.TODO(), submission))
	s.Assert().False(submission.Sending)
	s.Assert().True(submission.Sent)
	s.transport.AssertNumberOfCalls(s.T(), "Send", 2)
}

func (s *EngineTestSuite) TestSubmit_resetErrorIsReturned() {
	submission := dueSubmission()

	s.expectLoad()
	s.subscriptionDao.
		On("FindActiveBySubmission", mock.Anything, s.conn, int64(3)).
		Return([]models.Subscriber{}, nil)
	s.submissionDao.On("Update", mock.Anything, s.conn, submission).Return(nil).Once()
	s.submissionDao.On("Update", mock.Anything, s.conn, submission).Return(errors.New("disk full")).Once()

	s.Assert().EqualError(s.engine().Submit(context.TODO(), submission), "disk full")
	s.Assert().False(submission.Sending)
}

func (s *EngineTestSuite) TestSubmit_newsletterMismatch() {
	submission := dueSubmission()
	message := *s.message
	message.NewsletterID = 5

	s.newsletterDao.On("FindByID", mock.Anything, s.conn, int64(1)).Return(s.newsletter, nil)
	s.messageDao.On("FindByID", mock.Anything, s.conn, int64(2)).Return(&message, nil)

	s.Assert().ErrorIs(s.engine().Submit(context.TODO(), submission), ErrNewsletterMismatch)
	s.submissionDao.AssertNotCalled(s.T(), "Update", mock.Anything, mock.Anything, mock.Anything)
}

func (s *EngineTestSuite) TestSendMessage_plainSender() {
	submission := dueSubmission()
	recipient := subscriber(11, "one@example.com")

	s.expectLoad()
	s.transport.
		On("Send", mock.Anything, &mailer.Message{
			From:    `"Weekly News" <news@example.org>`,
			To:      []string{"one@example.com"},
			Subject: "Issue 42",
			Text:    "First;Second;",
			Headers: []mailer.Header{
				{Key: "List-Unsubscribe", Value: "<https://example.org/newsletter/weekly/unsubscribe/>"},
			},
		}).
		Return(nil)

	s.Assert().NoError(s.engine().SendMessage(context.TODO(), submission, &recipient))
}

func (s *EngineTestSuite) TestSendMessage_verp() {
	s.bounceOpts = bounce.Options{
		Enable: true,
		Host:   "imap.example.org",
		Email:  "bounces@example.org",
	}

	submission := dueSubmission()
	recipient := subscriber(11, "one@example.com")

	s.expectLoad()
	s.transport.
		On("Send", mock.Anything, &mailer.Message{
			From:    "bounces+one=example.com@example.org",
			To:      []string{"one@example.com"},
			Subject: "Issue 42",
			Text:    "First;Second;",
			Headers: []mailer.Header{
				{Key: "List-Unsubscribe", Value: "<https://example.org/newsletter/weekly/unsubscribe/>"},
				{Key: "From", Value: `"Weekly News" <news@example.org>`},
			},
		}).
		Return(nil)

	s.Assert().NoError(s.engine().SendMessage(context.TODO(), submission, &recipient))
}

func (s *EngineTestSuite) TestSubmitQueue() {
	first := dueSubmission()
	second := dueSubmission()
	second.ID = 4

	s.lock.On("Acquire", mock.Anything).Return(nil)
	s.lock.On("Release", mock.Anything).Return(nil)
	s.submissionDao.
		On("FindDue", mock.Anything, s.conn, int64(10000)).
		Return([]models.SubmissionEntity{*first, *second}, nil)

	s.expectLoad()
	s.subscriptionDao.
		On("FindActiveBySubmission", mock.Anything, s.conn, int64(3)).
		Return(nil, errors.New("err1"))
	s.subscriptionDao.
		On("FindActiveBySubmission", mock.Anything, s.conn, int64(4)).
		Return([]models.Subscriber{subscriber(11, "one@example.com")}, nil)
	s.submissionDao.On("Update", mock.Anything, s.conn, mock.Anything).Return(nil)
	s.transport.On("Send", mock.Anything, mock.Anything).Return(nil)
	s.scanner.On("Scan", mock.Anything).Return(nil)

	s.Assert().EqualError(s.engine().SubmitQueue(context.TODO()), "err1")
	s.transport.AssertNumberOfCalls(s.T(), "Send", 1)
}

func (s *EngineTestSuite) TestSubmitQueue_locked() {
	s.lock.On("Acquire", mock.Anything).Return(lock.ErrHeld)

	s.Assert().NoError(s.engine().SubmitQueue(context.TODO()))
	s.submissionDao.AssertNotCalled(s.T(), "FindDue", mock.Anything, mock.Anything, mock.Anything)
}

func (s *EngineTestSuite) TestSubmitQueue_scanError() {
	s.lock.On("Acquire", mock.Anything).Return(nil)
	s.lock.On("Release", mock.Anything).Return(nil)
	s.submissionDao.
		On("FindDue", mock.Anything, s.conn, int64(10000)).
		Return([]models.SubmissionEntity{}, nil)
	s.scanner.On("Scan", mock.Anything).Return(errors.New("imap down"))

	s.Assert().EqualError(s.engine().SubmitQueue(context.TODO()), "imap down")
}

func (s *EngineTestSuite) TestFromMessage() {
	s.conn.On("Begin", mock.Anything).Return(s.tx, nil)
	s.tx.On("Rollback").Return(nil)
	s.tx.On("Commit").Return(nil)

	s.newsletterDao.On("FindByID", mock.Anything, s.tx, int64(1)).Return(s.newsletter, nil)
	s.submissionDao.
		On("Insert", mock.Anything, s.tx, mock.MatchedBy(func(submission *models.SubmissionEntity) bool {
			return submission.NewsletterID == 1 &&
				submission.MessageID == 2 &&
				submission.PublishDate == 12000 &&
				!submission.Prepared
		})).
		Run(func(args mock.Arguments) {
			args.Get(2).(*models.SubmissionEntity).ID = 5
		}).
		Return(nil)
	s.subscriptionDao.
		On("FindActive", mock.Anything, s.tx, int64(1)).
		Return([]models.Subscriber{subscriber(11, "one@example.com"), subscriber(13, "three@example.com")}, nil)
	s.submissionDao.On("SetSubscriptions", mock.Anything, s.tx, int64(5), []int64{11, 13}).Return(nil)

	submission, err := s.engine().FromMessage(context.TODO(), s.message, time.Unix(12000, 0))
	s.Require().NoError(err)
	s.Assert().EqualValues(5, submission.ID)
	s.Assert().True(submission.Publish)
}

func (s *EngineTestSuite) TestPrepare() {
	submission := dueSubmission()
	submission.Prepared = false

	s.submissionDao.On("FindByID", mock.Anything, s.conn, int64(3)).Return(submission, nil)
	s.messageDao.On("FindByID", mock.Anything, s.conn, int64(2)).Return(s.message, nil)
	s.submissionDao.
		On("Update", mock.Anything, s.conn, mock.MatchedBy(func(submission *models.SubmissionEntity) bool {
			return submission.Prepared
		})).
		Return(nil)

	prepared, err := s.engine().Prepare(context.TODO(), 3)
	s.Require().NoError(err)
	s.Assert().True(prepared.Prepared)
}

func (s *EngineTestSuite) TestSave_newsletterMismatch() {
	submission := dueSubmission()
	submission.NewsletterID = 9

	s.messageDao.On("FindByID", mock.Anything, s.conn, int64(2)).Return(s.message, nil)

	s.Assert().ErrorIs(s.engine().Save(context.TODO(), submission), ErrNewsletterMismatch)
}
