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

// Package subscription implements the subscription lifecycle and its activation emails.
package subscription

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/wire"

	"github.com/lukasdietrich/rundbrief/internal/crypto"
	"github.com/lukasdietrich/rundbrief/internal/database"
	"github.com/lukasdietrich/rundbrief/internal/log"
	"github.com/lukasdietrich/rundbrief/internal/mailer"
	"github.com/lukasdietrich/rundbrief/internal/models"
	"github.com/lukasdietrich/rundbrief/internal/templates"
)

// WireSet contains the providers of this package.
var WireSet = wire.NewSet(NewService)

var (
	// ErrInvalidActivationCode is returned if a change is confirmed with a wrong activation code.
	ErrInvalidActivationCode = errors.New("subscription: invalid activation code")
	// ErrAlreadySubscribed is returned if a subscribed identity subscribes again.
	ErrAlreadySubscribed = errors.New("subscription: already subscribed")
	// ErrNewsletterMismatch is returned if a subscription is used with another newsletter.
	ErrNewsletterMismatch = errors.New("subscription: subscription belongs to another newsletter")
)

// Service changes subscriptions. Changes requested by standalone identities have to be confirmed
// with the activation code sent to them by email.
type Service interface {
	// Create registers an identity with a newsletter. Accounts are subscribed immediately, while
	// standalone identities receive a subscribe activation email.
	Create(ctx context.Context, newsletter *models.NewsletterEntity, identity models.Identity, ip string) (*models.Subscriber, error)
	// RequestChange sends an activation email for action.
	RequestChange(ctx context.Context, newsletter *models.NewsletterEntity, subscriber *models.Subscriber, action models.Action) error
	// Confirm applies action after checking the activation code.
	Confirm(ctx context.Context, subscriptionID int64, code string, action models.Action) (*models.Subscriber, error)
	// Apply applies action without an activation code.
	Apply(ctx context.Context, subscriptionID int64, action models.Action) (*models.Subscriber, error)
}

type service struct {
	conn            database.Conn
	subscriptionDao database.SubscriptionDao
	codeGen         crypto.CodeGenerator
	resolver        templates.Resolver
	site            templates.Site
	transport       mailer.Transport
	now             func() time.Time
}

// NewService creates a new Service.
func NewService(
	conn database.Conn,
	subscriptionDao database.SubscriptionDao,
	codeGen crypto.CodeGenerator,
	resolver templates.Resolver,
	site templates.Site,
	transport mailer.Transport,
) Service {
	return &service{
		conn:            conn,
		subscriptionDao: subscriptionDao,
		codeGen:         codeGen,
		resolver:        resolver,
		site:            site,
		transport:       transport,
		now:             time.Now,
	}
}

func (s *service) Create(
	ctx context.Context,
	newsletter *models.NewsletterEntity,
	identity models.Identity,
	ip string,
) (*models.Subscriber, error) {
	ctx = log.WithNewsletter(log.WithOrigin(ctx, "subscriptions"), newsletter.Slug)

	subscriber, err := s.findOrInsert(ctx, newsletter, identity, ip)
	if err != nil {
		return nil, err
	}

	if CurrentState(&subscriber.SubscriptionEntity) == StateSubscribed {
		return subscriber, ErrAlreadySubscribed
	}

	if _, ok := identity.(models.AccountIdentity); ok {
		return s.change(ctx, subscriber.ID, models.ActionSubscribe, nil)
	}

	if err := s.sendActivation(ctx, newsletter, subscriber, models.ActionSubscribe); err != nil {
		return nil, err
	}

	return subscriber, nil
}

func (s *service) findOrInsert(
	ctx context.Context,
	newsletter *models.NewsletterEntity,
	identity models.Identity,
	ip string,
) (*models.Subscriber, error) {
	tx, err := s.conn.Begin(ctx)
	if err != nil {
		return nil, err
	}

	defer tx.Rollback()

	subscriber, err := s.subscriptionDao.FindByIdentity(ctx, tx, newsletter.ID, identity)
	if err == nil {
		return subscriber, nil
	}

	if !database.IsErrNoRows(err) {
		return nil, err
	}

	code, err := s.codeGen.GenerateCode()
	if err != nil {
		return nil, err
	}

	subscription := models.SubscriptionEntity{
		NewsletterID:   newsletter.ID,
		CreatedAt:      s.now().Unix(),
		ActivationCode: code,
	}

	subscription.SetIdentity(identity)

	if ip != "" {
		subscription.IP.String = ip
		subscription.IP.Valid = true
	}

	if err := s.subscriptionDao.Insert(ctx, tx, &subscription); err != nil {
		return nil, err
	}

	if subscriber, err = s.subscriptionDao.FindByID(ctx, tx, subscription.ID); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	log.InfoContext(ctx).
		Int64("subscription", subscriber.ID).
		Str("recipient", subscriber.EmailAddress()).
		Msg("subscription created")

	return subscriber, nil
}

func (s *service) RequestChange(
	ctx context.Context,
	newsletter *models.NewsletterEntity,
	subscriber *models.Subscriber,
	action models.Action,
) error {
	ctx = log.WithNewsletter(log.WithOrigin(ctx, "subscriptions"), newsletter.Slug)

	if _, err := Target(action); err != nil {
		return err
	}

	if subscriber.NewsletterID != newsletter.ID {
		return ErrNewsletterMismatch
	}

	return s.sendActivation(ctx, newsletter, subscriber, action)
}

func (s *service) Confirm(
	ctx context.Context,
	subscriptionID int64,
	code string,
	action models.Action,
) (*models.Subscriber, error) {
	ctx = log.WithOrigin(ctx, "subscriptions")

	return s.change(ctx, subscriptionID, action, func(subscriber *models.Subscriber) error {
		if !crypto.CodesEqual(subscriber.ActivationCode, code) {
			return ErrInvalidActivationCode
		}

		return nil
	})
}

func (s *service) Apply(ctx context.Context, subscriptionID int64, action models.Action) (*models.Subscriber, error) {
	return s.change(log.WithOrigin(ctx, "subscriptions"), subscriptionID, action, nil)
}

// change loads a subscription, lets authorize veto the change and persists the transition. The
// subscription is validated before anything is modified.
func (s *service) change(
	ctx context.Context,
	subscriptionID int64,
	action models.Action,
	authorize func(*models.Subscriber) error,
) (*models.Subscriber, error) {
	tx, err := s.conn.Begin(ctx)
	if err != nil {
		return nil, err
	}

	defer tx.Rollback()

	subscriber, err := s.subscriptionDao.FindByID(ctx, tx, subscriptionID)
	if err != nil {
		return nil, err
	}

	if err := subscriber.Validate(); err != nil {
		return nil, err
	}

	if authorize != nil {
		if err := authorize(subscriber); err != nil {
			return nil, err
		}
	}

	before := CurrentState(&subscriber.SubscriptionEntity)

	changed, err := Apply(&subscriber.SubscriptionEntity, action, s.now())
	if err != nil {
		return nil, err
	}

	if !changed {
		log.DebugContext(ctx).
			Int64("subscription", subscriber.ID).
			Stringer("state", before).
			Msg("subscription already in requested state")

		return subscriber, nil
	}

	if err := s.subscriptionDao.Update(ctx, tx, &subscriber.SubscriptionEntity); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	log.InfoContext(ctx).
		Int64("subscription", subscriber.ID).
		Stringer("from", before).
		Stringer("to", CurrentState(&subscriber.SubscriptionEntity)).
		Str("action", string(action)).
		Msg("subscription changed")

	return subscriber, nil
}

func (s *service) sendActivation(
	ctx context.Context,
	newsletter *models.NewsletterEntity,
	subscriber *models.Subscriber,
	action models.Action,
) error {
	set, err := s.resolver.Resolve(newsletter, action)
	if err != nil {
		return err
	}

	bindings := templates.NewBindings(s.site, newsletter, subscriber).
		WithActivation(s.site, newsletter, action, subscriber.ActivationCode)

	rendered, err := set.Render(bindings)
	if err != nil {
		return err
	}

	msg := mailer.Message{
		From:    newsletter.FromAddress(),
		To:      []string{subscriber.Recipient()},
		Subject: rendered.Subject,
		Text:    rendered.Text,
		HTML:    rendered.HTML,
	}

	if err := s.transport.Send(ctx, &msg); err != nil {
		return fmt.Errorf("could not send %s activation email: %w", action, err)
	}

	log.InfoContext(ctx).
		Int64("subscription", subscriber.ID).
		Str("action", string(action)).
		Str("recipient", subscriber.EmailAddress()).
		Msg("activation email sent")

	return nil
}
