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
	"errors"
	"io"
	"net"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/emersion/go-sasl"
	"github.com/emersion/go-smtp"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
)

func TestSMTPOptionsFromViper(t *testing.T) {
	viper.Set("mailer.smtp.host", "mail.example.com")
	viper.Set("mailer.smtp.port", 465)
	viper.Set("mailer.smtp.security", "tls")
	viper.Set("mailer.smtp.username", "user")
	viper.Set("mailer.smtp.password", "secret")
	viper.Set("mailer.smtp.helo", "news.example.com")
	viper.Set("mailer.smtp.timeout", "30s")

	opts := SMTPOptionsFromViper()

	assert.Equal(t, SMTPOptions{
		Host:     "mail.example.com",
		Port:     465,
		Security: "tls",
		Username: "user",
		Password: "secret",
		Helo:     "news.example.com",
		Timeout:  30 * time.Second,
	}, opts)
	assert.Equal(t, "mail.example.com:465", opts.Addr())
}

type receivedMessage struct {
	from string
	to   []string
	data string
}

type testBackend struct {
	mu       sync.Mutex
	messages []receivedMessage
	logins   []string
}

func (b *testBackend) NewSession(*smtp.Conn) (smtp.Session, error) {
	return &testSession{backend: b}, nil
}

type testSession struct {
	backend *testBackend
	from    string
	to      []string
}

func (s *testSession) AuthMechanisms() []string {
	return []string{sasl.Plain}
}

func (s *testSession) Auth(string) (sasl.Server, error) {
	return sasl.NewPlainServer(func(identity, username, password string) error {
		if password != "secret" {
			return errors.New("invalid credentials")
		}

		s.backend.mu.Lock()
		s.backend.logins = append(s.backend.logins, username)
		s.backend.mu.Unlock()

		return nil
	}), nil
}

func (s *testSession) Mail(from string, _ *smtp.MailOptions) error {
	s.from = from
	return nil
}

func (s *testSession) Rcpt(to string, _ *smtp.RcptOptions) error {
	if strings.HasPrefix(to, "unknown@") {
		return &smtp.SMTPError{
			Code:         550,
			EnhancedCode: smtp.EnhancedCode{5, 1, 1},
			Message:      "no such user",
		}
	}

	s.to = append(s.to, to)
	return nil
}

func (s *testSession) Data(r io.Reader) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}

	s.backend.mu.Lock()
	s.backend.messages = append(s.backend.messages, receivedMessage{
		from: s.from,
		to:   s.to,
		data: string(data),
	})
	s.backend.mu.Unlock()

	return nil
}

func (s *testSession) Reset() {
	s.from = ""
	s.to = nil
}

func (s *testSession) Logout() error {
	return nil
}

func TestSMTPTransportTestSuite(t *testing.T) {
	suite.Run(t, new(SMTPTransportTestSuite))
}

type SMTPTransportTestSuite struct {
	suite.Suite

	backend *testBackend
	server  *smtp.Server
	opts    SMTPOptions
}

func (s *SMTPTransportTestSuite) SetupTest() {
	s.backend = new(testBackend)

	s.server = smtp.NewServer(s.backend)
	s.server.Domain = "test.example.com"
	s.server.AllowInsecureAuth = true

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	s.Require().NoError(err)

	go s.server.Serve(listener)

	addr := listener.Addr().(*net.TCPAddr)
	s.opts = SMTPOptions{
		Host:     "127.0.0.1",
		Port:     addr.Port,
		Security: "none",
		Helo:     "client.example.com",
		Timeout:  5 * time.Second,
	}
}

func (s *SMTPTransportTestSuite) TearDownTest() {
	s.server.Close()
}

func (s *SMTPTransportTestSuite) message(to string) *Message {
	return &Message{
		From:    "news+alice=example.com@bounce.example.org",
		To:      []string{to},
		Subject: "Hello",
		Text:    "Hello there",
		Headers: []Header{{Key: "From", Value: "news@example.org"}},
	}
}

func (s *SMTPTransportTestSuite) TestSend() {
	transport := NewSMTPTransport(s.opts)

	err := transport.Send(context.Background(), s.message(`"Alice" <alice@example.com>`))
	s.Require().NoError(err)

	s.backend.mu.Lock()
	defer s.backend.mu.Unlock()

	s.Require().Len(s.backend.messages, 1)

	received := s.backend.messages[0]
	s.Assert().Equal("news+alice=example.com@bounce.example.org", received.from)
	s.Assert().Equal([]string{"alice@example.com"}, received.to)
	s.Assert().Contains(received.data, "From: news@example.org")
	s.Assert().Contains(received.data, "Hello there")
}

func (s *SMTPTransportTestSuite) TestSendWithAuth() {
	s.opts.Username = "relay-user"
	s.opts.Password = "secret"

	transport := NewSMTPTransport(s.opts)
	s.Require().NoError(transport.Send(context.Background(), s.message("alice@example.com")))

	s.backend.mu.Lock()
	defer s.backend.mu.Unlock()

	s.Assert().Equal([]string{"relay-user"}, s.backend.logins)
	s.Assert().Len(s.backend.messages, 1)
}

func (s *SMTPTransportTestSuite) TestSendWithInvalidAuth() {
	s.opts.Username = "relay-user"
	s.opts.Password = "wrong"

	transport := NewSMTPTransport(s.opts)
	s.Assert().Error(transport.Send(context.Background(), s.message("alice@example.com")))
	s.Assert().Empty(s.backend.messages)
}

func (s *SMTPTransportTestSuite) TestSendRejectedRecipient() {
	transport := NewSMTPTransport(s.opts)

	err := transport.Send(context.Background(), s.message("unknown@example.com"))
	s.Require().Error(err)
	s.Assert().False(IsTemporary(err))

	var smtpErr *smtp.SMTPError
	s.Require().True(errors.As(err, &smtpErr))
	s.Assert().Equal(550, smtpErr.Code)
}

func (s *SMTPTransportTestSuite) TestSendCanceled() {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	transport := NewSMTPTransport(s.opts)
	s.Assert().ErrorIs(transport.Send(ctx, s.message("alice@example.com")), context.Canceled)
}

func (s *SMTPTransportTestSuite) TestSendUnknownSecurity() {
	s.opts.Security = "carrier-pigeon"

	transport := NewSMTPTransport(s.opts)
	s.Assert().Error(transport.Send(context.Background(), s.message("alice@example.com")))
}

func TestIsTemporary(t *testing.T) {
	assert.True(t, IsTemporary(&smtp.SMTPError{Code: 451}))
	assert.False(t, IsTemporary(&smtp.SMTPError{Code: 550}))
	assert.False(t, IsTemporary(errors.New("connection reset")))
}
