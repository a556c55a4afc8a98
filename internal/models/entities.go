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

package models

import (
	"database/sql"
	"time"
)

type AccountEntity struct {
	ID    int64  `db:"id"`
	Name  string `db:"name"`
	Email string `db:"email"`
}

type NewsletterEntity struct {
	ID       int64  `db:"id"`
	Title    string `db:"title"`
	Slug     string `db:"slug"`
	Email    string `db:"email"`
	Sender   string `db:"sender"`
	Visible  bool   `db:"visible"`
	SendHTML bool   `db:"send_html"`
}

// FromAddress returns the formatted sender identity of the newsletter.
func (n *NewsletterEntity) FromAddress() string {
	return formatAddress(n.Sender, n.Email)
}

// SubscriptionEntity is a subscription row. The identity columns are only written through
// SetIdentity and read through Identity, which keeps account and standalone subscribers
// mutually exclusive.
type SubscriptionEntity struct {
	ID             int64          `db:"id"`
	NewsletterID   int64          `db:"newsletter_id"`
	AccountID      sql.NullInt64  `db:"account_id"`
	Name           sql.NullString `db:"name"`
	Email          sql.NullString `db:"email"`
	IP             sql.NullString `db:"ip"`
	CreatedAt      int64          `db:"created_at"`
	ActivationCode string         `db:"activation_code"`
	Subscribed     bool           `db:"subscribed"`
	SubscribedAt   sql.NullInt64  `db:"subscribed_at"`
	Unsubscribed   bool           `db:"unsubscribed"`
	UnsubscribedAt sql.NullInt64  `db:"unsubscribed_at"`
}

// Subscriber is a subscription joined with the account it may reference.
type Subscriber struct {
	SubscriptionEntity
	AccountName  sql.NullString `db:"account_name"`
	AccountEmail sql.NullString `db:"account_email"`
}

// EmailAddress returns the email of the subscriber regardless of its identity kind.
func (s *Subscriber) EmailAddress() string {
	if s.AccountID.Valid {
		return s.AccountEmail.String
	}

	return s.Email.String
}

// DisplayName returns the name of the subscriber regardless of its identity kind.
func (s *Subscriber) DisplayName() string {
	if s.AccountID.Valid {
		return s.AccountName.String
	}

	return s.Name.String
}

// Recipient returns `name <email>` if a name is known and the plain email otherwise.
func (s *Subscriber) Recipient() string {
	if name := s.DisplayName(); name != "" {
		return formatAddress(name, s.EmailAddress())
	}

	return s.EmailAddress()
}

type BounceEntity struct {
	ID             int64  `db:"id"`
	SubscriptionID int64  `db:"subscription_id"`
	CreatedAt      int64  `db:"created_at"`
	Hard           bool   `db:"hard"`
	StatusCode     string `db:"status_code"`
	Content        []byte `db:"content"`
}

// StatusDescription describes the status code of the bounce.
func (b *BounceEntity) StatusDescription() string {
	return StatusDescription(b.StatusCode)
}

type MessageEntity struct {
	ID           int64  `db:"id"`
	NewsletterID int64  `db:"newsletter_id"`
	Title        string `db:"title"`
	Slug         string `db:"slug"`
	CreatedAt    int64  `db:"created_at"`
	ModifiedAt   int64  `db:"modified_at"`
}

type ArticleEntity struct {
	ID        int64          `db:"id"`
	MessageID int64          `db:"message_id"`
	SortOrder int64          `db:"sort_order"`
	Title     string         `db:"title"`
	Text      string         `db:"text"`
	URL       sql.NullString `db:"url"`
	ImageURL  sql.NullString `db:"image_url"`
}

type SubmissionEntity struct {
	ID           int64 `db:"id"`
	NewsletterID int64 `db:"newsletter_id"`
	MessageID    int64 `db:"message_id"`
	PublishDate  int64 `db:"publish_date"`
	Publish      bool  `db:"publish"`
	Prepared     bool  `db:"prepared"`
	Sent         bool  `db:"sent"`
	Sending      bool  `db:"sending"`
}

// PublishTime returns the publish date as time.
func (s *SubmissionEntity) PublishTime() time.Time {
	return time.Unix(s.PublishDate, 0)
}

// IsDue checks if the publish date lies strictly before now.
func (s *SubmissionEntity) IsDue(now time.Time) bool {
	return s.PublishTime().Before(now)
}
