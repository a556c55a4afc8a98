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

// Package bounce scans the bounce mailbox for delivery status notifications and records them as
// bounces of the matching subscriptions.
package bounce

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/emersion/go-imap/v2"
	"github.com/google/wire"
	"github.com/spf13/viper"

	"github.com/lukasdietrich/rundbrief/internal/credentials"
	"github.com/lukasdietrich/rundbrief/internal/database"
	"github.com/lukasdietrich/rundbrief/internal/log"
	"github.com/lukasdietrich/rundbrief/internal/metrics"
	"github.com/lukasdietrich/rundbrief/internal/models"
)

// WireSet contains the providers of this package.
var WireSet = wire.NewSet(
	OptionsFromViper,
	NewScanner,
	NewDialer,
)

// ErrNoBounceAccount is returned if no bounce mailbox is configured.
var ErrNoBounceAccount = errors.New("bounce: no bounce account configured")

func init() {
	viper.SetDefault("bounce.enable", false)
	viper.SetDefault("bounce.port", 993)
	viper.SetDefault("bounce.ssl", true)
	viper.SetDefault("bounce.timeout", "5m")
}

// Options describe the bounce account.
type Options struct {
	Enable   bool
	Host     string
	Port     int
	Username string
	Password string
	// Keyring is the key of the password in the keyring, used if Password is empty.
	Keyring string
	SSL     bool
	// Email is the address bounces are sent to. It is the base of verp encoded return paths.
	Email   string
	Timeout time.Duration
}

// OptionsFromViper reads the bounce account options.
func OptionsFromViper() Options {
	return Options{
		Enable:   viper.GetBool("bounce.enable"),
		Host:     viper.GetString("bounce.host"),
		Port:     viper.GetInt("bounce.port"),
		Username: viper.GetString("bounce.username"),
		Password: viper.GetString("bounce.password"),
		Keyring:  viper.GetString("bounce.keyring"),
		SSL:      viper.GetBool("bounce.ssl"),
		Email:    viper.GetString("bounce.email"),
		Timeout:  viper.GetDuration("bounce.timeout"),
	}
}

// Configured reports if a bounce account is set up.
func (o Options) Configured() bool {
	return o.Enable && o.Host != "" && o.Email != ""
}

// Addr returns host and port joined.
func (o Options) Addr() string {
	return net.JoinHostPort(o.Host, strconv.Itoa(o.Port))
}

// ReturnAddress returns the address bounces are sent to or ErrNoBounceAccount.
func (o Options) ReturnAddress() (string, error) {
	if !o.Configured() {
		return "", ErrNoBounceAccount
	}

	return o.Email, nil
}

// Scanner records the bounces waiting in the bounce mailbox.
type Scanner interface {
	// Scan processes all messages of the bounce mailbox inbox. It does nothing if no bounce account
	// is configured.
	Scan(context.Context) error
}

type scanner struct {
	opts            Options
	dial            Dialer
	secrets         credentials.Store
	conn            database.Conn
	subscriptionDao database.SubscriptionDao
	bounceDao       database.BounceDao
	now             func() time.Time
}

// NewScanner creates a new Scanner.
func NewScanner(
	opts Options,
	dial Dialer,
	secrets credentials.Store,
	conn database.Conn,
	subscriptionDao database.SubscriptionDao,
	bounceDao database.BounceDao,
) Scanner {
	return &scanner{
		opts:            opts,
		dial:            dial,
		secrets:         secrets,
		conn:            conn,
		subscriptionDao: subscriptionDao,
		bounceDao:       bounceDao,
		now:             time.Now,
	}
}

func (s *scanner) Scan(ctx context.Context) error {
	ctx = log.WithOrigin(ctx, "bounces")

	if !s.opts.Configured() {
		log.DebugContext(ctx).Msg("no bounce account configured, skipping scan")
		return nil
	}

	if err := s.scan(ctx); err != nil {
		metrics.BounceScanErrors.Inc()

		log.ErrorContext(ctx).
			Err(err).
			Str("host", s.opts.Host).
			Msg("bounce scan aborted")

		return err
	}

	return nil
}

func (s *scanner) scan(ctx context.Context) error {
	opts := s.opts

	password, err := credentials.Resolve(s.secrets, opts.Password, opts.Keyring)
	if err != nil {
		return err
	}

	opts.Password = password

	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	mailbox, err := s.dial(ctx, opts)
	if err != nil {
		return err
	}

	defer func() {
		if err := mailbox.Close(); err != nil {
			log.WarnContext(ctx).Err(err).Msg("could not close bounce mailbox")
		}
	}()

	if err := mailbox.EnsureFolder(ArchiveFolder); err != nil {
		return fmt.Errorf("could not create %q: %w", ArchiveFolder, err)
	}

	uids, err := mailbox.List()
	if err != nil {
		return err
	}

	log.InfoContext(ctx).
		Int("messages", len(uids)).
		Msg("scanning bounce mailbox")

	for _, uid := range uids {
		if err := s.process(ctx, mailbox, uid); err != nil {
			return err
		}
	}

	return mailbox.Expunge()
}

// process records the bounce of a single message and archives it. Messages without a recoverable
// report are left in the inbox.
func (s *scanner) process(ctx context.Context, mailbox Mailbox, uid imap.UID) error {
	raw, err := mailbox.Fetch(uid)
	if err != nil {
		return err
	}

	report, err := ParseReport(raw)
	if err != nil {
		log.InfoContext(ctx).
			Uint32("uid", uint32(uid)).
			Err(err).
			Msg("skipping unrecognized message")

		return nil
	}

	if err := s.record(ctx, report, raw); err != nil {
		return err
	}

	return mailbox.Archive(uid, ArchiveFolder)
}

func (s *scanner) record(ctx context.Context, report *Report, raw []byte) error {
	tx, err := s.conn.Begin(ctx)
	if err != nil {
		return err
	}

	defer tx.Rollback()

	subscribers, err := s.subscriptionDao.FindByEmail(ctx, tx, report.Recipient)
	if err != nil {
		return err
	}

	hard := models.IsHardBounce(report.Status)

	log.InfoContext(ctx).
		Str("recipient", report.Recipient).
		Str("status", report.Status).
		Bool("hard", hard).
		Int("subscriptions", len(subscribers)).
		Msg("recording bounce")

	for _, subscriber := range subscribers {
		bounce := models.BounceEntity{
			SubscriptionID: subscriber.ID,
			CreatedAt:      s.now().Unix(),
			Hard:           hard,
			StatusCode:     report.Status,
			Content:        raw,
		}

		if err := s.bounceDao.Insert(ctx, tx, &bounce); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	metrics.Bounces.WithLabelValues(metrics.BounceKind(hard)).Add(float64(len(subscribers)))
	return nil
}
