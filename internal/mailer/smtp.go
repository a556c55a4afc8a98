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

package mailer

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/emersion/go-sasl"
	"github.com/emersion/go-smtp"
	"github.com/spf13/viper"

	"github.com/lukasdietrich/rundbrief/internal/log"
)

func init() {
	viper.SetDefault("mailer.smtp.host", "localhost")
	viper.SetDefault("mailer.smtp.port", 587)
	viper.SetDefault("mailer.smtp.security", "starttls")
	viper.SetDefault("mailer.smtp.helo", "localhost")
	viper.SetDefault("mailer.smtp.timeout", "1m")
}

// SMTPOptions configure the smtp relay messages are submitted to.
type SMTPOptions struct {
	Host string
	Port int
	// Security is one of `none`, `starttls` or `tls`.
	Security string
	Username string
	Password string
	Helo     string
	Timeout  time.Duration
}

// SMTPOptionsFromViper reads the smtp options.
func SMTPOptionsFromViper() SMTPOptions {
	return SMTPOptions{
		Host:     viper.GetString("mailer.smtp.host"),
		Port:     viper.GetInt("mailer.smtp.port"),
		Security: viper.GetString("mailer.smtp.security"),
		Username: viper.GetString("mailer.smtp.username"),
		Password: viper.GetString("mailer.smtp.password"),
		Helo:     viper.GetString("mailer.smtp.helo"),
		Timeout:  viper.GetDuration("mailer.smtp.timeout"),
	}
}

// Addr returns host and port joined.
func (o SMTPOptions) Addr() string {
	return net.JoinHostPort(o.Host, strconv.Itoa(o.Port))
}

type smtpTransport struct {
	opts SMTPOptions
}

// NewSMTPTransport creates a transport opening one smtp session per message.
func NewSMTPTransport(opts SMTPOptions) Transport {
	return &smtpTransport{opts: opts}
}

func (t *smtpTransport) Send(ctx context.Context, msg *Message) error {
	from, recipients, err := Envelope(msg)
	if err != nil {
		return err
	}

	data, err := Compose(msg)
	if err != nil {
		return err
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	c, err := t.dial()
	if err != nil {
		return fmt.Errorf("could not connect to %s: %w", t.opts.Addr(), err)
	}

	defer c.Close()

	c.CommandTimeout = t.opts.Timeout
	c.SubmissionTimeout = t.opts.Timeout

	if t.opts.Helo != "" {
		if err := c.Hello(t.opts.Helo); err != nil {
			return err
		}
	}

	if t.opts.Username != "" {
		if err := c.Auth(sasl.NewPlainClient("", t.opts.Username, t.opts.Password)); err != nil {
			return fmt.Errorf("could not authenticate: %w", err)
		}
	}

	if err := c.Mail(from, nil); err != nil {
		return err
	}

	for _, rcpt := range recipients {
		if err := c.Rcpt(rcpt, nil); err != nil {
			return err
		}
	}

	w, err := c.Data()
	if err != nil {
		return err
	}

	if _, err := w.Write(data); err != nil {
		w.Close()
		return err
	}

	if err := w.Close(); err != nil {
		return err
	}

	log.DebugContext(ctx).
		Str("from", from).
		Strs("to", recipients).
		Int("size", len(data)).
		Msg("message submitted")

	if err := c.Quit(); err != nil {
		log.WarnContext(ctx).Err(err).Msg("could not quit smtp session")
	}

	return nil
}

func (t *smtpTransport) dial() (*smtp.Client, error) {
	tlsConfig := &tls.Config{
		ServerName: t.opts.Host,
		MinVersion: tls.VersionTLS12,
	}

	switch strings.ToLower(t.opts.Security) {
	case "none":
		return smtp.Dial(t.opts.Addr())
	case "tls":
		return smtp.DialTLS(t.opts.Addr(), tlsConfig)
	case "starttls", "":
		return smtp.DialStartTLS(t.opts.Addr(), tlsConfig)
	default:
		return nil, fmt.Errorf("unknown smtp security %q", t.opts.Security)
	}
}

// IsTemporary reports if a send error is a transient smtp failure.
func IsTemporary(err error) bool {
	var smtpErr *smtp.SMTPError

	if errors.As(err, &smtpErr) {
		return smtpErr.Temporary()
	}

	return false
}
