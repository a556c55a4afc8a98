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

// Package submission delivers the messages of due submissions to their subscribers.
package submission

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/wire"

	"github.com/lukasdietrich/rundbrief/internal/bounce"
	"github.com/lukasdietrich/rundbrief/internal/database"
	"github.com/lukasdietrich/rundbrief/internal/lock"
	"github.com/lukasdietrich/rundbrief/internal/log"
	"github.com/lukasdietrich/rundbrief/internal/mailer"
	"github.com/lukasdietrich/rundbrief/internal/metrics"
	"github.com/lukasdietrich/rundbrief/internal/models"
	"github.com/lukasdietrich/rundbrief/internal/templates"
	"github.com/lukasdietrich/rundbrief/internal/verp"
)

// WireSet contains the providers of this package.
var WireSet = wire.NewSet(
	NewDaos,
	NewEngine,
)

var (
	// ErrNotDue is returned if a submission is submitted before its publish date.
	ErrNotDue = errors.New("submission: publish date is not in the past")
	// ErrNewsletterMismatch is returned if the newsletter of a submission diverges from the
	// newsletter of its message.
	ErrNewsletterMismatch = errors.New("submission: newsletter does not match the message")
)

// Daos bundles the data access objects used by the engine.
type Daos struct {
	Newsletter   database.NewsletterDao
	Subscription database.SubscriptionDao
	Message      database.MessageDao
	Article      database.ArticleDao
	Submission   database.SubmissionDao
}

// NewDaos bundles the data access objects used by the engine.
func NewDaos(
	newsletterDao database.NewsletterDao,
	subscriptionDao database.SubscriptionDao,
	messageDao database.MessageDao,
	articleDao database.ArticleDao,
	submissionDao database.SubmissionDao,
) Daos {
	return Daos{
		Newsletter:   newsletterDao,
		Subscription: subscriptionDao,
		Message:      messageDao,
		Article:      articleDao,
		Submission:   submissionDao,
	}
}

// Engine creates submissions and delivers them.
type Engine interface {
	// SubmitQueue submits every due submission and scans the bounce mailbox afterwards.
	SubmitQueue(context.Context) error
	// Submit delivers a single submission to its active subscribers. Failed deliveries to single
	// subscribers are logged and do not stop the submission.
	Submit(context.Context, *models.SubmissionEntity) error
	// SendMessage delivers the message of a submission to a single subscriber.
	SendMessage(context.Context, *models.SubmissionEntity, *models.Subscriber) error
	// FromMessage creates a submission of the message. The active subscribers of the newsletter
	// at this moment become the recipients of the submission.
	FromMessage(ctx context.Context, message *models.MessageEntity, publishDate time.Time) (*models.SubmissionEntity, error)
	// Prepare marks a submission as prepared, which makes it eligible for the queue.
	Prepare(context.Context, int64) (*models.SubmissionEntity, error)
	// Save updates a submission after checking that its newsletter matches the message.
	Save(context.Context, *models.SubmissionEntity) error
}

type engine struct {
	conn       database.Conn
	daos       Daos
	resolver   templates.Resolver
	site       templates.Site
	transport  mailer.Transport
	scanner    bounce.Scanner
	bounceOpts bounce.Options
	lock       lock.Lock
	now        func() time.Time
}

// NewEngine creates a new Engine.
func NewEngine(
	conn database.Conn,
	daos Daos,
	resolver templates.Resolver,
	site templates.Site,
	transport mailer.Transport,
	scanner bounce.Scanner,
	bounceOpts bounce.Options,
	queueLock lock.Lock,
) Engine {
	return &engine{
		conn:       conn,
		daos:       daos,
		resolver:   resolver,
		site:       site,
		transport:  transport,
		scanner:    scanner,
		bounceOpts: bounceOpts,
		lock:       queueLock,
		now:        time.Now,
	}
}

func (e *engine) SubmitQueue(ctx context.Context) error {
	ctx = log.WithOrigin(ctx, "queue")

	if err := e.lock.Acquire(ctx); err != nil {
		if errors.Is(err, lock.ErrHeld) {
			log.InfoContext(ctx).Msg("queue is locked by another process, skipping pass")
			return nil
		}

		return err
	}

	defer func() {
		if err := e.lock.Release(context.WithoutCancel(ctx)); err != nil {
			log.WarnContext(ctx).Err(err).Msg("could not release queue lock")
		}
	}()

	submissions, err := e.daos.Submission.FindDue(ctx, e.conn, e.now().Unix())
	if err != nil {
		return err
	}

	log.InfoContext(ctx).
		Int("submissions", len(submissions)).
		Msg("submitting queue")

	var errs []error

	for i := range submissions {
		if err := e.Submit(ctx, &submissions[i]); err != nil {
			log.ErrorContext(ctx).
				Err(err).
				Int64("submission", submissions[i].ID).
				Msg("submission failed")

			errs = append(errs, err)
		}
	}

	if err := e.scanner.Scan(ctx); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

// batch is everything needed to render the message of a submission.
type batch struct {
	submission *models.SubmissionEntity
	newsletter *models.NewsletterEntity
	message    *models.MessageEntity
	articles   []models.ArticleEntity
	set        *templates.Set
}

func (e *engine) Submit(ctx context.Context, submission *models.SubmissionEntity) (err error) {
	ctx = log.WithSubmission(ctx, submission.ID)

	if !submission.IsDue(e.now()) {
		return fmt.Errorf("%w: submission %d is due at %s",
			ErrNotDue, submission.ID, submission.PublishTime().Format(time.RFC3339))
	}

	b, err := e.load(ctx, submission)
	if err != nil {
		return err
	}

	ctx = log.WithNewsletter(ctx, b.newsletter.Slug)

	subscribers, err := e.daos.Subscription.FindActiveBySubmission(ctx, e.conn, submission.ID)
	if err != nil {
		return err
	}

	submission.Sending = true
	if err := e.daos.Submission.Update(ctx, e.conn, submission); err != nil {
		return err
	}

	defer func() {
		submission.Sending = false

		if resetErr := e.daos.Submission.Update(context.WithoutCancel(ctx), e.conn, submission); resetErr != nil {
			log.ErrorContext(ctx).
				Err(resetErr).
				Msg("could not reset sending flag")

			err = errors.Join(err, resetErr)
		}
	}()

	log.InfoContext(ctx).
		Int("subscribers", len(subscribers)).
		Msg("submitting message")

	var failed int

	for i := range subscribers {
		subscriber := &subscribers[i]

		if err := e.send(ctx, b, subscriber); err != nil {
			failed++
			metrics.MessagesFailed.WithLabelValues(b.newsletter.Slug).Inc()

			log.ErrorContext(ctx).
				Err(err).
				Bool("temporary", mailer.IsTemporary(err)).
				Int64("subscription", subscriber.ID).
				Str("recipient", subscriber.EmailAddress()).
				Msg("could not send message")

			continue
		}

		metrics.MessagesSent.WithLabelValues(b.newsletter.Slug).Inc()
	}

	submission.Sent = true
	metrics.Submissions.Inc()

	log.InfoContext(ctx).
		Int("sent", len(subscribers)-failed).
		Int("failed", failed).
		Msg("submission sent")

	return nil
}

func (e *engine) SendMessage(
	ctx context.Context,
	submission *models.SubmissionEntity,
	subscriber *models.Subscriber,
) error {
	b, err := e.load(ctx, submission)
	if err != nil {
		return err
	}

	return e.send(ctx, b, subscriber)
}

func (e *engine) load(ctx context.Context, submission *models.SubmissionEntity) (*batch, error) {
	newsletter, err := e.daos.Newsletter.FindByID(ctx, e.conn, submission.NewsletterID)
	if err != nil {
		return nil, err
	}

	message, err := e.daos.Message.FindByID(ctx, e.conn, submission.MessageID)
	if err != nil {
		return nil, err
	}

	if message.NewsletterID != newsletter.ID {
		return nil, ErrNewsletterMismatch
	}

	articles, err := e.daos.Article.FindByMessage(ctx, e.conn, message.ID)
	if err != nil {
		return nil, err
	}

	set, err := e.resolver.Resolve(newsletter, models.ActionMessage)
	if err != nil {
		return nil, err
	}

	return &batch{
		submission: submission,
		newsletter: newsletter,
		message:    message,
		articles:   articles,
		set:        set,
	}, nil
}

// send renders and sends the message to one subscriber. If a bounce account is configured, the
// envelope sender carries the verp encoded recipient while the visible sender stays the
// newsletter.
func (e *engine) send(ctx context.Context, b *batch, subscriber *models.Subscriber) error {
	bindings := templates.NewBindings(e.site, b.newsletter, subscriber).
		WithMessage(b.submission, b.message, b.articles)

	rendered, err := b.set.Render(bindings)
	if err != nil {
		return err
	}

	msg := mailer.Message{
		From:    b.newsletter.FromAddress(),
		To:      []string{subscriber.Recipient()},
		Subject: rendered.Subject,
		Text:    rendered.Text,
		HTML:    rendered.HTML,
		Headers: []mailer.Header{
			{Key: "List-Unsubscribe", Value: "<" + e.site.UnsubscribeURL(b.newsletter.Slug) + ">"},
		},
	}

	if returnAddress, err := e.bounceOpts.ReturnAddress(); err == nil {
		msg.From = verp.Encode(returnAddress, subscriber.EmailAddress(), b.newsletter.Email)
		msg.Headers = append(msg.Headers, mailer.Header{Key: "From", Value: b.newsletter.FromAddress()})
	}

	log.DebugContext(ctx).
		Int64("subscription", subscriber.ID).
		Str("from", msg.From).
		Msg("sending message")

	return e.transport.Send(ctx, &msg)
}

func (e *engine) FromMessage(
	ctx context.Context,
	message *models.MessageEntity,
	publishDate time.Time,
) (*models.SubmissionEntity, error) {
	tx, err := e.conn.Begin(ctx)
	if err != nil {
		return nil, err
	}

	defer tx.Rollback()

	newsletter, err := e.daos.Newsletter.FindByID(ctx, tx, message.NewsletterID)
	if err != nil {
		return nil, err
	}

	submission := models.SubmissionEntity{
		NewsletterID: newsletter.ID,
		MessageID:    message.ID,
		PublishDate:  publishDate.Unix(),
		Publish:      true,
	}

	if err := e.daos.Submission.Insert(ctx, tx, &submission); err != nil {
		return nil, err
	}

	subscribers, err := e.daos.Subscription.FindActive(ctx, tx, newsletter.ID)
	if err != nil {
		return nil, err
	}

	subscriptionIDs := make([]int64, len(subscribers))
	for i, subscriber := range subscribers {
		subscriptionIDs[i] = subscriber.ID
	}

	if err := e.daos.Submission.SetSubscriptions(ctx, tx, submission.ID, subscriptionIDs); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	log.InfoContext(log.WithNewsletter(ctx, newsletter.Slug)).
		Int64("submission", submission.ID).
		Int64("message", message.ID).
		Int("subscribers", len(subscriptionIDs)).
		Msg("submission created")

	return &submission, nil
}

func (e *engine) Prepare(ctx context.Context, submissionID int64) (*models.SubmissionEntity, error) {
	submission, err := e.daos.Submission.FindByID(ctx, e.conn, submissionID)
	if err != nil {
		return nil, err
	}

	submission.Prepared = true

	if err := e.Save(ctx, submission); err != nil {
		return nil, err
	}

	return submission, nil
}

func (e *engine) Save(ctx context.Context, submission *models.SubmissionEntity) error {
	message, err := e.daos.Message.FindByID(ctx, e.conn, submission.MessageID)
	if err != nil {
		return err
	}

	if message.NewsletterID != submission.NewsletterID {
		return ErrNewsletterMismatch
	}

	return e.daos.Submission.Update(ctx, e.conn, submission)
}
