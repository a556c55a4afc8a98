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
	"database/sql"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/mock"

	"github.com/lukasdietrich/rundbrief/internal/models"
)

// MockQueryer is a mock implementation of Queryer. Services under test never issue raw queries,
// so the sqlx methods only record their calls.
type MockQueryer struct {
	mock.Mock
}

func (m *MockQueryer) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	called := m.Called(ctx, query, args)
	rows, _ := called.Get(0).(*sql.Rows)
	return rows, called.Error(1)
}

func (m *MockQueryer) QueryxContext(ctx context.Context, query string, args ...any) (*sqlx.Rows, error) {
	called := m.Called(ctx, query, args)
	rows, _ := called.Get(0).(*sqlx.Rows)
	return rows, called.Error(1)
}

func (m *MockQueryer) QueryRowxContext(ctx context.Context, query string, args ...any) *sqlx.Row {
	called := m.Called(ctx, query, args)
	row, _ := called.Get(0).(*sqlx.Row)
	return row
}

func (m *MockQueryer) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	called := m.Called(ctx, query, args)
	result, _ := called.Get(0).(sql.Result)
	return result, called.Error(1)
}

func (m *MockQueryer) DriverName() string {
	return driverName
}

func (m *MockQueryer) Rebind(query string) string {
	return query
}

func (m *MockQueryer) BindNamed(query string, arg any) (string, []any, error) {
	called := m.Called(query, arg)
	args, _ := called.Get(1).([]any)
	return called.String(0), args, called.Error(2)
}

// MockConn is a mock implementation of Conn.
type MockConn struct {
	MockQueryer
}

func (m *MockConn) Begin(ctx context.Context) (Tx, error) {
	args := m.Called(ctx)
	tx, _ := args.Get(0).(Tx)
	return tx, args.Error(1)
}

func (m *MockConn) PingContext(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *MockConn) Close() error {
	return m.Called().Error(0)
}

// MockTx is a mock implementation of Tx.
type MockTx struct {
	MockQueryer
}

func (m *MockTx) Commit() error {
	return m.Called().Error(0)
}

func (m *MockTx) Rollback() error {
	return m.Called().Error(0)
}

func (m *MockTx) RollbackWith(callback func()) error {
	err := m.Called(callback).Error(0)
	if err == nil {
		callback()
	}

	return err
}

// MockAccountDao is a mock implementation of AccountDao.
type MockAccountDao struct {
	mock.Mock
}

func (m *MockAccountDao) Insert(ctx context.Context, q Queryer, account *models.AccountEntity) error {
	return m.Called(ctx, q, account).Error(0)
}

func (m *MockAccountDao) FindAll(ctx context.Context, q Queryer) ([]models.AccountEntity, error) {
	args := m.Called(ctx, q)
	accounts, _ := args.Get(0).([]models.AccountEntity)
	return accounts, args.Error(1)
}

func (m *MockAccountDao) FindByEmail(ctx context.Context, q Queryer, email string) (*models.AccountEntity, error) {
	args := m.Called(ctx, q, email)
	account, _ := args.Get(0).(*models.AccountEntity)
	return account, args.Error(1)
}

// MockNewsletterDao is a mock implementation of NewsletterDao.
type MockNewsletterDao struct {
	mock.Mock
}

func (m *MockNewsletterDao) Insert(ctx context.Context, q Queryer, newsletter *models.NewsletterEntity) error {
	return m.Called(ctx, q, newsletter).Error(0)
}

func (m *MockNewsletterDao) Update(ctx context.Context, q Queryer, newsletter *models.NewsletterEntity) error {
	return m.Called(ctx, q, newsletter).Error(0)
}

func (m *MockNewsletterDao) FindAll(ctx context.Context, q Queryer) ([]models.NewsletterEntity, error) {
	args := m.Called(ctx, q)
	newsletters, _ := args.Get(0).([]models.NewsletterEntity)
	return newsletters, args.Error(1)
}

func (m *MockNewsletterDao) FindByID(ctx context.Context, q Queryer, id int64) (*models.NewsletterEntity, error) {
	args := m.Called(ctx, q, id)
	newsletter, _ := args.Get(0).(*models.NewsletterEntity)
	return newsletter, args.Error(1)
}

func (m *MockNewsletterDao) FindBySlug(ctx context.Context, q Queryer, slug string) (*models.NewsletterEntity, error) {
	args := m.Called(ctx, q, slug)
	newsletter, _ := args.Get(0).(*models.NewsletterEntity)
	return newsletter, args.Error(1)
}

// MockSubscriptionDao is a mock implementation of SubscriptionDao.
type MockSubscriptionDao struct {
	mock.Mock
}

func (m *MockSubscriptionDao) Insert(ctx context.Context, q Queryer, subscription *models.SubscriptionEntity) error {
	return m.Called(ctx, q, subscription).Error(0)
}

func (m *MockSubscriptionDao) Update(ctx context.Context, q Queryer, subscription *models.SubscriptionEntity) error {
	return m.Called(ctx, q, subscription).Error(0)
}

func (m *MockSubscriptionDao) FindByID(ctx context.Context, q Queryer, id int64) (*models.Subscriber, error) {
	args := m.Called(ctx, q, id)
	subscriber, _ := args.Get(0).(*models.Subscriber)
	return subscriber, args.Error(1)
}

func (m *MockSubscriptionDao) FindByIdentity(
	ctx context.Context,
	q Queryer,
	newsletterID int64,
	identity models.Identity,
) (*models.Subscriber, error) {
	args := m.Called(ctx, q, newsletterID, identity)
	subscriber, _ := args.Get(0).(*models.Subscriber)
	return subscriber, args.Error(1)
}

func (m *MockSubscriptionDao) FindByNewsletter(
	ctx context.Context,
	q Queryer,
	newsletterID int64,
) ([]models.Subscriber, error) {
	args := m.Called(ctx, q, newsletterID)
	subscribers, _ := args.Get(0).([]models.Subscriber)
	return subscribers, args.Error(1)
}

func (m *MockSubscriptionDao) FindByEmail(ctx context.Context, q Queryer, email string) ([]models.Subscriber, error) {
	args := m.Called(ctx, q, email)
	subscribers, _ := args.Get(0).([]models.Subscriber)
	return subscribers, args.Error(1)
}

func (m *MockSubscriptionDao) FindActive(ctx context.Context, q Queryer, newsletterID int64) ([]models.Subscriber, error) {
	args := m.Called(ctx, q, newsletterID)
	subscribers, _ := args.Get(0).([]models.Subscriber)
	return subscribers, args.Error(1)
}

func (m *MockSubscriptionDao) FindActiveBySubmission(
	ctx context.Context,
	q Queryer,
	submissionID int64,
) ([]models.Subscriber, error) {
	args := m.Called(ctx, q, submissionID)
	subscribers, _ := args.Get(0).([]models.Subscriber)
	return subscribers, args.Error(1)
}

// MockBounceDao is a mock implementation of BounceDao.
type MockBounceDao struct {
	mock.Mock
}

func (m *MockBounceDao) Insert(ctx context.Context, q Queryer, bounce *models.BounceEntity) error {
	return m.Called(ctx, q, bounce).Error(0)
}

func (m *MockBounceDao) FindBySubscription(
	ctx context.Context,
	q Queryer,
	subscriptionID int64,
) ([]models.BounceEntity, error) {
	args := m.Called(ctx, q, subscriptionID)
	bounces, _ := args.Get(0).([]models.BounceEntity)
	return bounces, args.Error(1)
}

func (m *MockBounceDao) FindRecent(ctx context.Context, q Queryer, limit int) ([]models.BounceEntity, error) {
	args := m.Called(ctx, q, limit)
	bounces, _ := args.Get(0).([]models.BounceEntity)
	return bounces, args.Error(1)
}

// MockMessageDao is a mock implementation of MessageDao.
type MockMessageDao struct {
	mock.Mock
}

func (m *MockMessageDao) Insert(ctx context.Context, q Queryer, message *models.MessageEntity) error {
	return m.Called(ctx, q, message).Error(0)
}

func (m *MockMessageDao) Update(ctx context.Context, q Queryer, message *models.MessageEntity) error {
	return m.Called(ctx, q, message).Error(0)
}

func (m *MockMessageDao) FindByID(ctx context.Context, q Queryer, id int64) (*models.MessageEntity, error) {
	args := m.Called(ctx, q, id)
	message, _ := args.Get(0).(*models.MessageEntity)
	return message, args.Error(1)
}

func (m *MockMessageDao) FindByNewsletter(
	ctx context.Context,
	q Queryer,
	newsletterID int64,
) ([]models.MessageEntity, error) {
	args := m.Called(ctx, q, newsletterID)
	messages, _ := args.Get(0).([]models.MessageEntity)
	return messages, args.Error(1)
}

// MockArticleDao is a mock implementation of ArticleDao.
type MockArticleDao struct {
	mock.Mock
}

func (m *MockArticleDao) Insert(ctx context.Context, q Queryer, article *models.ArticleEntity) error {
	return m.Called(ctx, q, article).Error(0)
}

func (m *MockArticleDao) FindByMessage(ctx context.Context, q Queryer, messageID int64) ([]models.ArticleEntity, error) {
	args := m.Called(ctx, q, messageID)
	articles, _ := args.Get(0).([]models.ArticleEntity)
	return articles, args.Error(1)
}

func (m *MockArticleDao) NextSortOrder(ctx context.Context, q Queryer, messageID int64) (int64, error) {
	args := m.Called(ctx, q, messageID)
	return args.Get(0).(int64), args.Error(1)
}

// MockSubmissionDao is a mock implementation of SubmissionDao.
type MockSubmissionDao struct {
	mock.Mock
}

func (m *MockSubmissionDao) Insert(ctx context.Context, q Queryer, submission *models.SubmissionEntity) error {
	return m.Called(ctx, q, submission).Error(0)
}

func (m *MockSubmissionDao) Update(ctx context.Context, q Queryer, submission *models.SubmissionEntity) error {
	return m.Called(ctx, q, submission).Error(0)
}

func (m *MockSubmissionDao) FindByID(ctx context.Context, q Queryer, id int64) (*models.SubmissionEntity, error) {
	args := m.Called(ctx, q, id)
	submission, _ := args.Get(0).(*models.SubmissionEntity)
	return submission, args.Error(1)
}

func (m *MockSubmissionDao) FindAll(ctx context.Context, q Queryer) ([]models.SubmissionEntity, error) {
	args := m.Called(ctx, q)
	submissions, _ := args.Get(0).([]models.SubmissionEntity)
	return submissions, args.Error(1)
}

func (m *MockSubmissionDao) FindDue(ctx context.Context, q Queryer, now int64) ([]models.SubmissionEntity, error) {
	args := m.Called(ctx, q, now)
	submissions, _ := args.Get(0).([]models.SubmissionEntity)
	return submissions, args.Error(1)
}

func (m *MockSubmissionDao) SetSubscriptions(
	ctx context.Context,
	q Queryer,
	submissionID int64,
	subscriptionIDs []int64,
) error {
	return m.Called(ctx, q, submissionID, subscriptionIDs).Error(0)
}

func (m *MockSubmissionDao) CountSubscriptions(ctx context.Context, q Queryer, submissionID int64) (int, error) {
	args := m.Called(ctx, q, submissionID)
	return args.Int(0), args.Error(1)
}
