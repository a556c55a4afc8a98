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

package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/abiosoft/ishell"

	"github.com/lukasdietrich/rundbrief/internal/database"
	"github.com/lukasdietrich/rundbrief/internal/feed"
	"github.com/lukasdietrich/rundbrief/internal/mailer"
	"github.com/lukasdietrich/rundbrief/internal/models"
	"github.com/lukasdietrich/rundbrief/internal/sender"
	"github.com/lukasdietrich/rundbrief/internal/submission"
	"github.com/lukasdietrich/rundbrief/internal/subscription"
)

type shellCommand struct {
	Conn            database.Conn
	AccountDao      database.AccountDao
	NewsletterDao   database.NewsletterDao
	SubscriptionDao database.SubscriptionDao
	BounceDao       database.BounceDao
	MessageDao      database.MessageDao
	ArticleDao      database.ArticleDao
	SubmissionDao   database.SubmissionDao
	Subscriptions   subscription.Service
	Engine          submission.Engine
	Importer        feed.Importer
	Checker         sender.Checker
	Mailer          mailer.Options
}

func (s *shellCommand) run(ctx context.Context) error {
	defer s.Conn.Close()

	shell := ishell.New()
	s.setupShell(ctx, shell)
	shell.Run()

	return nil
}

func (s *shellCommand) setupShell(ctx context.Context, shell *ishell.Shell) {
	wrap := func(fn func(shellContext) error) func(*ishell.Context) {
		return s.wrapShellFunc(ctx, fn)
	}

	shell.AddCmd(composeShellCmd(
		ishell.Cmd{
			Name: "newsletters",
			Help: "manage newsletters",
		},
		[]*ishell.Cmd{
			{
				Name: "list",
				Help: "list all newsletters",
				Func: wrap(s.newslettersList),
			},
			{
				Name: "add",
				Help: "add a new newsletter",
				Func: wrap(s.newslettersAdd),
			},
			{
				Name: "spf",
				Help: "check the spf policy of a newsletter sender against the smtp relay",
				Func: wrap(s.newslettersSPF),
			},
		},
	))

	shell.AddCmd(composeShellCmd(
		ishell.Cmd{
			Name: "accounts",
			Help: "manage accounts",
		},
		[]*ishell.Cmd{
			{
				Name: "list",
				Help: "list all accounts",
				Func: wrap(s.accountsList),
			},
			{
				Name: "add",
				Help: "add a new account",
				Func: wrap(s.accountsAdd),
			},
		},
	))

	shell.AddCmd(composeShellCmd(
		ishell.Cmd{
			Name: "subscriptions",
			Help: "manage subscriptions",
		},
		[]*ishell.Cmd{
			{
				Name: "list",
				Help: "list the subscriptions of a newsletter",
				Func: wrap(s.subscriptionsList),
			},
			{
				Name: "add",
				Help: "register an email or account and send the activation email",
				Func: wrap(s.subscriptionsAdd),
			},
			{
				Name: "request",
				Help: "send an activation email for subscribe, update or unsubscribe",
				Func: wrap(s.subscriptionsRequest),
			},
			{
				Name: "confirm",
				Help: "confirm an action with its activation code",
				Func: wrap(s.subscriptionsConfirm),
			},
			{
				Name: "apply",
				Help: "apply an action without activation code",
				Func: wrap(s.subscriptionsApply),
			},
			{
				Name: "bounces",
				Help: "list the bounces of a subscription",
				Func: wrap(s.subscriptionsBounces),
			},
		},
	))

	shell.AddCmd(composeShellCmd(
		ishell.Cmd{
			Name: "messages",
			Help: "manage messages and their articles",
		},
		[]*ishell.Cmd{
			{
				Name: "list",
				Help: "list the messages of a newsletter",
				Func: wrap(s.messagesList),
			},
			{
				Name: "add",
				Help: "add a new message",
				Func: wrap(s.messagesAdd),
			},
			{
				Name: "import",
				Help: "create a message from the newest entries of a feed",
				Func: wrap(s.messagesImport),
			},
			{
				Name: "articles",
				Help: "list the articles of a message",
				Func: wrap(s.articlesList),
			},
			{
				Name: "article",
				Help: "add an article to a message",
				Func: wrap(s.articlesAdd),
			},
		},
	))

	shell.AddCmd(composeShellCmd(
		ishell.Cmd{
			Name: "submissions",
			Help: "manage submissions",
		},
		[]*ishell.Cmd{
			{
				Name: "list",
				Help: "list all submissions",
				Func: wrap(s.submissionsList),
			},
			{
				Name: "create",
				Help: "create a submission of a message for the active subscribers",
				Func: wrap(s.submissionsCreate),
			},
			{
				Name: "prepare",
				Help: "mark a submission as ready for the queue",
				Func: wrap(s.submissionsPrepare),
			},
			{
				Name: "test",
				Help: "send the message of a submission to a single subscription",
				Func: wrap(s.submissionsTest),
			},
			{
				Name: "queue",
				Help: "submit all due submissions and scan for bounces",
				Func: wrap(s.submissionsQueue),
			},
		},
	))

	shell.AddCmd(&ishell.Cmd{
		Name: "bounces",
		Help: "list the most recent bounces",
		Func: wrap(s.bouncesList),
	})
}

func (s *shellCommand) newslettersList(ctx shellContext) error {
	if !ctx.checkArgs(0) {
		return errors.New("Usage: newsletters list")
	}

	newsletters, err := s.NewsletterDao.FindAll(ctx, s.Conn)
	if err != nil {
		return err
	}

	ctx.printf("\n(%d) Newsletters:\n", len(newsletters))
	for _, newsletter := range newsletters {
		ctx.printf("\t%-16s %q from %s (html: %v)\n",
			newsletter.Slug, newsletter.Title, newsletter.FromAddress(), newsletter.SendHTML)
	}
	ctx.printf("\n")

	return nil
}

func (s *shellCommand) newslettersAdd(ctx shellContext) error {
	if !ctx.checkArgs(0) {
		return errors.New("Usage: newsletters add")
	}

	title, err := ctx.ask("Title")
	if err != nil {
		return err
	}

	email, err := ctx.askAddress("Email")
	if err != nil {
		return err
	}

	senderName, err := ctx.ask("Sender")
	if err != nil {
		return err
	}

	html, err := ctx.ask("Send html [y/N]")
	if err != nil {
		return err
	}

	newsletter := models.NewsletterEntity{
		Title:    strings.TrimSpace(title),
		Slug:     models.Slugify(title),
		Email:    email.String(),
		Sender:   strings.TrimSpace(senderName),
		Visible:  true,
		SendHTML: strings.EqualFold(strings.TrimSpace(html), "y"),
	}

	if err := s.NewsletterDao.Insert(ctx, s.Conn, &newsletter); err != nil {
		return err
	}

	ctx.printf("\n\tNewsletter %q added (id=%d).\n\n", newsletter.Slug, newsletter.ID)
	return nil
}

func (s *shellCommand) newslettersSPF(ctx shellContext) error {
	if !ctx.checkArgs(1) {
		return errors.New("Usage: newsletters spf [SLUG]")
	}

	newsletter, err := s.NewsletterDao.FindBySlug(ctx, s.Conn, ctx.arg(0))
	if err != nil {
		return err
	}

	address, err := models.Parse(newsletter.Email)
	if err != nil {
		return err
	}

	ips, err := s.Checker.LookupRelay(ctx, s.Mailer.SMTP.Host)
	if err != nil {
		return err
	}

	ctx.printf("\n")
	for _, ip := range ips {
		report, err := s.Checker.Check(ctx, ip, address)
		if err != nil {
			return err
		}

		ctx.printf("\t%s\n", report.Header)
	}
	ctx.printf("\n")

	return nil
}

func (s *shellCommand) accountsList(ctx shellContext) error {
	if !ctx.checkArgs(0) {
		return errors.New("Usage: accounts list")
	}

	accounts, err := s.AccountDao.FindAll(ctx, s.Conn)
	if err != nil {
		return err
	}

	ctx.printf("\n(%d) Accounts:\n", len(accounts))
	for _, account := range accounts {
		ctx.printf("\t%4d  %s <%s>\n", account.ID, account.Name, account.Email)
	}
	ctx.printf("\n")

	return nil
}

func (s *shellCommand) accountsAdd(ctx shellContext) error {
	if !ctx.checkArgs(1) {
		return errors.New("Usage: accounts add [EMAIL]")
	}

	email, err := models.ParseUnicode(ctx.arg(0))
	if err != nil {
		return err
	}

	name, err := ctx.ask("Name")
	if err != nil {
		return err
	}

	account := models.AccountEntity{
		Name:  strings.TrimSpace(name),
		Email: email.String(),
	}

	if err := s.AccountDao.Insert(ctx, s.Conn, &account); err != nil {
		return err
	}

	ctx.printf("\n\tAccount %q added (id=%d).\n\n", account.Email, account.ID)
	return nil
}

func (s *shellCommand) subscriptionsList(ctx shellContext) error {
	if !ctx.checkArgs(1) {
		return errors.New("Usage: subscriptions list [SLUG]")
	}

	newsletter, err := s.NewsletterDao.FindBySlug(ctx, s.Conn, ctx.arg(0))
	if err != nil {
		return err
	}

	subscribers, err := s.SubscriptionDao.FindByNewsletter(ctx, s.Conn, newsletter.ID)
	if err != nil {
		return err
	}

	active, err := s.SubscriptionDao.FindActive(ctx, s.Conn, newsletter.ID)
	if err != nil {
		return err
	}

	ctx.printf("\n(%d) Subscriptions, %d active:\n", len(subscribers), len(active))
	for _, subscriber := range subscribers {
		ctx.printf("\t%4d  %-16s %s\n",
			subscriber.ID,
			subscription.CurrentState(&subscriber.SubscriptionEntity),
			subscriber.Recipient())
	}
	ctx.printf("\n")

	return nil
}

func (s *shellCommand) subscriptionsAdd(ctx shellContext) error {
	if !ctx.checkArgsBetween(2, 3) {
		return errors.New("Usage: subscriptions add [SLUG] [EMAIL|ACCOUNT-ID] [NAME]")
	}

	newsletter, err := s.NewsletterDao.FindBySlug(ctx, s.Conn, ctx.arg(0))
	if err != nil {
		return err
	}

	var identity models.Identity

	if accountID, err := strconv.ParseInt(ctx.arg(1), 10, 64); err == nil {
		identity = models.AccountIdentity{AccountID: accountID}
	} else {
		email, err := models.ParseUnicode(ctx.arg(1))
		if err != nil {
			return err
		}

		standalone := models.StandaloneIdentity{Email: email}
		if len(ctx.shell.Args) > 2 {
			standalone.Name = ctx.arg(2)
		}

		identity = standalone
	}

	subscriber, err := s.Subscriptions.Create(ctx, newsletter, identity, "")
	if err != nil {
		return err
	}

	ctx.printf("\n\tSubscription %d of %s is %s.\n\n",
		subscriber.ID,
		subscriber.Recipient(),
		subscription.CurrentState(&subscriber.SubscriptionEntity))

	return nil
}

func (s *shellCommand) subscriptionsRequest(ctx shellContext) error {
	if !ctx.checkArgs(2) {
		return errors.New("Usage: subscriptions request [ID] [ACTION]")
	}

	subscriber, action, err := s.subscriberAndAction(ctx)
	if err != nil {
		return err
	}

	newsletter, err := s.NewsletterDao.FindByID(ctx, s.Conn, subscriber.NewsletterID)
	if err != nil {
		return err
	}

	if err := s.Subscriptions.RequestChange(ctx, newsletter, subscriber, action); err != nil {
		return err
	}

	ctx.printf("\n\tActivation email for %s sent to %s.\n\n", action, subscriber.Recipient())
	return nil
}

func (s *shellCommand) subscriptionsConfirm(ctx shellContext) error {
	if !ctx.checkArgs(3) {
		return errors.New("Usage: subscriptions confirm [ID] [ACTION] [CODE]")
	}

	subscriber, action, err := s.subscriberAndAction(ctx)
	if err != nil {
		return err
	}

	subscriber, err = s.Subscriptions.Confirm(ctx, subscriber.ID, ctx.arg(2), action)
	if err != nil {
		return err
	}

	ctx.printf("\n\tSubscription %d is %s.\n\n",
		subscriber.ID, subscription.CurrentState(&subscriber.SubscriptionEntity))
	return nil
}

func (s *shellCommand) subscriptionsApply(ctx shellContext) error {
	if !ctx.checkArgs(2) {
		return errors.New("Usage: subscriptions apply [ID] [ACTION]")
	}

	subscriber, action, err := s.subscriberAndAction(ctx)
	if err != nil {
		return err
	}

	subscriber, err = s.Subscriptions.Apply(ctx, subscriber.ID, action)
	if err != nil {
		return err
	}

	ctx.printf("\n\tSubscription %d is %s.\n\n",
		subscriber.ID, subscription.CurrentState(&subscriber.SubscriptionEntity))
	return nil
}

func (s *shellCommand) subscriberAndAction(ctx shellContext) (*models.Subscriber, models.Action, error) {
	id, err := ctx.argInt(0)
	if err != nil {
		return nil, "", err
	}

	action, err := models.ParseAction(ctx.arg(1))
	if err != nil {
		return nil, "", err
	}

	subscriber, err := s.SubscriptionDao.FindByID(ctx, s.Conn, id)
	if err != nil {
		return nil, "", err
	}

	return subscriber, action, nil
}

func (s *shellCommand) subscriptionsBounces(ctx shellContext) error {
	if !ctx.checkArgs(1) {
		return errors.New("Usage: subscriptions bounces [ID]")
	}

	id, err := ctx.argInt(0)
	if err != nil {
		return err
	}

	bounces, err := s.BounceDao.FindBySubscription(ctx, s.Conn, id)
	if err != nil {
		return err
	}

	printBounces(ctx, bounces)
	return nil
}

func (s *shellCommand) bouncesList(ctx shellContext) error {
	if !ctx.checkArgsBetween(0, 1) {
		return errors.New("Usage: bounces [LIMIT]")
	}

	limit := 20

	if len(ctx.shell.Args) == 1 {
		n, err := ctx.argInt(0)
		if err != nil {
			return err
		}

		limit = int(n)
	}

	bounces, err := s.BounceDao.FindRecent(ctx, s.Conn, limit)
	if err != nil {
		return err
	}

	printBounces(ctx, bounces)
	return nil
}

func printBounces(ctx shellContext, bounces []models.BounceEntity) {
	ctx.printf("\n(%d) Bounces:\n", len(bounces))
	for _, bounce := range bounces {
		kind := "soft"
		if bounce.Hard {
			kind = "hard"
		}

		ctx.printf("\t%s  subscription=%d  %s %s  %s\n",
			time.Unix(bounce.CreatedAt, 0).Format(time.RFC3339),
			bounce.SubscriptionID,
			kind,
			bounce.StatusCode,
			bounce.StatusDescription())
	}
	ctx.printf("\n")
}

func (s *shellCommand) messagesList(ctx shellContext) error {
	if !ctx.checkArgs(1) {
		return errors.New("Usage: messages list [SLUG]")
	}

	newsletter, err := s.NewsletterDao.FindBySlug(ctx, s.Conn, ctx.arg(0))
	if err != nil {
		return err
	}

	messages, err := s.MessageDao.FindByNewsletter(ctx, s.Conn, newsletter.ID)
	if err != nil {
		return err
	}

	ctx.printf("\n(%d) Messages:\n", len(messages))
	for _, message := range messages {
		ctx.printf("\t%4d  %-32s %q\n", message.ID, message.Slug, message.Title)
	}
	ctx.printf("\n")

	return nil
}

func (s *shellCommand) messagesAdd(ctx shellContext) error {
	if len(ctx.shell.Args) < 2 {
		return errors.New("Usage: messages add [SLUG] [TITLE...]")
	}

	newsletter, err := s.NewsletterDao.FindBySlug(ctx, s.Conn, ctx.arg(0))
	if err != nil {
		return err
	}

	title := strings.Join(ctx.shell.Args[1:], " ")
	now := time.Now().Unix()

	message := models.MessageEntity{
		NewsletterID: newsletter.ID,
		Title:        title,
		Slug:         models.Slugify(title),
		CreatedAt:    now,
		ModifiedAt:   now,
	}

	if err := s.MessageDao.Insert(ctx, s.Conn, &message); err != nil {
		return err
	}

	ctx.printf("\n\tMessage %q added (id=%d).\n\n", message.Slug, message.ID)
	return nil
}

func (s *shellCommand) messagesImport(ctx shellContext) error {
	if !ctx.checkArgsBetween(2, 3) {
		return errors.New("Usage: messages import [SLUG] [URL] [LIMIT]")
	}

	newsletter, err := s.NewsletterDao.FindBySlug(ctx, s.Conn, ctx.arg(0))
	if err != nil {
		return err
	}

	limit := 10

	if len(ctx.shell.Args) == 3 {
		n, err := ctx.argInt(2)
		if err != nil {
			return err
		}

		limit = int(n)
	}

	message, err := s.Importer.Import(ctx, newsletter, ctx.arg(1), limit)
	if err != nil {
		return err
	}

	ctx.printf("\n\tMessage %q imported (id=%d).\n\n", message.Slug, message.ID)
	return nil
}

func (s *shellCommand) articlesList(ctx shellContext) error {
	if !ctx.checkArgs(1) {
		return errors.New("Usage: messages articles [MESSAGE-ID]")
	}

	messageID, err := ctx.argInt(0)
	if err != nil {
		return err
	}

	articles, err := s.ArticleDao.FindByMessage(ctx, s.Conn, messageID)
	if err != nil {
		return err
	}

	ctx.printf("\n(%d) Articles:\n", len(articles))
	for _, article := range articles {
		ctx.printf("\t%4d  %q %s\n", article.SortOrder, article.Title, article.URL.String)
	}
	ctx.printf("\n")

	return nil
}

func (s *shellCommand) articlesAdd(ctx shellContext) error {
	if !ctx.checkArgs(1) {
		return errors.New("Usage: messages article [MESSAGE-ID]")
	}

	messageID, err := ctx.argInt(0)
	if err != nil {
		return err
	}

	message, err := s.MessageDao.FindByID(ctx, s.Conn, messageID)
	if err != nil {
		return err
	}

	title, err := ctx.ask("Title")
	if err != nil {
		return err
	}

	text, err := ctx.ask("Text")
	if err != nil {
		return err
	}

	url, err := ctx.askOptional("Url")
	if err != nil {
		return err
	}

	article := models.ArticleEntity{
		MessageID: message.ID,
		Title:     strings.TrimSpace(title),
		Text:      strings.TrimSpace(text),
		URL:       sql.NullString{String: url, Valid: url != ""},
	}

	if err := s.ArticleDao.Insert(ctx, s.Conn, &article); err != nil {
		return err
	}

	message.ModifiedAt = time.Now().Unix()
	if err := s.MessageDao.Update(ctx, s.Conn, message); err != nil {
		return err
	}

	ctx.printf("\n\tArticle added to %q (sort order %d).\n\n", message.Slug, article.SortOrder)
	return nil
}

func (s *shellCommand) submissionsList(ctx shellContext) error {
	if !ctx.checkArgs(0) {
		return errors.New("Usage: submissions list")
	}

	submissions, err := s.SubmissionDao.FindAll(ctx, s.Conn)
	if err != nil {
		return err
	}

	ctx.printf("\n(%d) Submissions:\n", len(submissions))
	for _, entity := range submissions {
		count, err := s.SubmissionDao.CountSubscriptions(ctx, s.Conn, entity.ID)
		if err != nil {
			return err
		}

		ctx.printf("\t%4d  message=%d  %s  %-9s  %d recipients\n",
			entity.ID,
			entity.MessageID,
			entity.PublishTime().Format(time.RFC3339),
			submissionStatus(&entity),
			count)
	}
	ctx.printf("\n")

	return nil
}

func submissionStatus(entity *models.SubmissionEntity) string {
	switch {
	case entity.Sending:
		return "sending"
	case entity.Sent:
		return "sent"
	case entity.Prepared:
		return "prepared"
	default:
		return "draft"
	}
}

func (s *shellCommand) submissionsCreate(ctx shellContext) error {
	if len(ctx.shell.Args) < 1 {
		return errors.New("Usage: submissions create [MESSAGE-ID] [PUBLISH-DATE]")
	}

	messageID, err := ctx.argInt(0)
	if err != nil {
		return err
	}

	publishDate := time.Now()

	if len(ctx.shell.Args) > 1 {
		if publishDate, err = parsePublishDate(strings.Join(ctx.shell.Args[1:], " ")); err != nil {
			return err
		}
	}

	message, err := s.MessageDao.FindByID(ctx, s.Conn, messageID)
	if err != nil {
		return err
	}

	entity, err := s.Engine.FromMessage(ctx, message, publishDate)
	if err != nil {
		return err
	}

	ctx.printf("\n\tSubmission %d created for %s.\n\n",
		entity.ID, entity.PublishTime().Format(time.RFC3339))
	return nil
}

func parsePublishDate(value string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339, "2006-01-02 15:04", "2006-01-02"} {
		if t, err := time.ParseInLocation(layout, value, time.Local); err == nil {
			return t, nil
		}
	}

	return time.Time{}, fmt.Errorf("could not parse publish date %q", value)
}

func (s *shellCommand) submissionsPrepare(ctx shellContext) error {
	if !ctx.checkArgs(1) {
		return errors.New("Usage: submissions prepare [ID]")
	}

	id, err := ctx.argInt(0)
	if err != nil {
		return err
	}

	entity, err := s.Engine.Prepare(ctx, id)
	if err != nil {
		return err
	}

	ctx.printf("\n\tSubmission %d is prepared.\n\n", entity.ID)
	return nil
}

func (s *shellCommand) submissionsTest(ctx shellContext) error {
	if !ctx.checkArgs(2) {
		return errors.New("Usage: submissions test [ID] [SUBSCRIPTION-ID]")
	}

	id, err := ctx.argInt(0)
	if err != nil {
		return err
	}

	subscriptionID, err := ctx.argInt(1)
	if err != nil {
		return err
	}

	entity, err := s.SubmissionDao.FindByID(ctx, s.Conn, id)
	if err != nil {
		return err
	}

	subscriber, err := s.SubscriptionDao.FindByID(ctx, s.Conn, subscriptionID)
	if err != nil {
		return err
	}

	if err := s.Engine.SendMessage(ctx, entity, subscriber); err != nil {
		return err
	}

	ctx.printf("\n\tMessage sent to %s.\n\n", subscriber.Recipient())
	return nil
}

func (s *shellCommand) submissionsQueue(ctx shellContext) error {
	if !ctx.checkArgs(0) {
		return errors.New("Usage: submissions queue")
	}

	return s.Engine.SubmitQueue(ctx)
}

type shellContext struct {
	context.Context
	shell *ishell.Context
}

func (c *shellContext) checkArgs(n int) bool {
	return len(c.shell.Args) == n
}

func (c *shellContext) checkArgsBetween(min, max int) bool {
	n := len(c.shell.Args)
	return n >= min && n <= max
}

func (c *shellContext) arg(i int) string {
	return c.shell.Args[i]
}

func (c *shellContext) argInt(i int) (int64, error) {
	n, err := strconv.ParseInt(c.arg(i), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%q is not a number", c.arg(i))
	}

	return n, nil
}

func (c *shellContext) printf(format string, v ...interface{}) {
	c.shell.Printf(format, v...)
}

func (c *shellContext) ask(prompt string) (string, error) {
	for {
		answer, err := c.askOptional(prompt)
		if err != nil || answer != "" {
			return answer, err
		}
	}
}

func (c *shellContext) askOptional(prompt string) (string, error) {
	c.printf("%s: ", prompt)

	answer, err := c.shell.ReadLineErr()
	return strings.TrimSpace(answer), err
}

func (c *shellContext) askAddress(prompt string) (models.Address, error) {
	answer, err := c.ask(prompt)
	if err != nil {
		return models.ZeroAddress, err
	}

	return models.ParseUnicode(answer)
}

func composeShellCmd(cmd ishell.Cmd, children []*ishell.Cmd) *ishell.Cmd {
	for _, child := range children {
		cmd.AddCmd(child)
	}

	return &cmd
}

func (s *shellCommand) wrapShellFunc(ctx context.Context, fn func(shellContext) error) func(*ishell.Context) {
	return func(shell *ishell.Context) {
		cmdCtx := shellContext{
			Context: ctx,
			shell:   shell,
		}

		if err := fn(cmdCtx); err != nil {
			shell.Err(describeError(err))
		}
	}
}

// describeError explains constraint violations of the database in terms of the shell.
func describeError(err error) error {
	switch {
	case database.IsErrUnique(err):
		return fmt.Errorf("already exists: %w", err)
	case database.IsErrCheck(err):
		return fmt.Errorf("rejected by the database, a subscription needs either an account or an email: %w", err)
	default:
		return err
	}
}
