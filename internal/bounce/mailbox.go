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

package bounce

import (
	"context"
	"crypto/tls"
	"fmt"

	"github.com/emersion/go-imap/v2"
	"github.com/emersion/go-imap/v2/imapclient"
)

const (
	inboxFolder = "INBOX"
	// ArchiveFolder receives every processed bounce.
	ArchiveFolder = "INBOX.Past bounces"
)

// Mailbox is an authenticated session of the bounce account.
type Mailbox interface {
	// EnsureFolder creates the folder if it does not exist.
	EnsureFolder(name string) error
	// List selects the inbox and returns the uids of all messages.
	List() ([]imap.UID, error)
	// Fetch returns the raw message.
	Fetch(imap.UID) ([]byte, error)
	// Archive copies the message to the folder and marks it as deleted.
	Archive(imap.UID, string) error
	// Expunge purges all deleted messages.
	Expunge() error
	// Close logs out and closes the connection.
	Close() error
}

// Dialer opens a Mailbox session.
type Dialer func(context.Context, Options) (Mailbox, error)

// NewDialer returns the imap Dialer.
func NewDialer() Dialer {
	return DialIMAP
}

type imapMailbox struct {
	client *imapclient.Client
	stop   func() bool
}

// DialIMAP connects and authenticates to the imap server of the bounce account. The connection
// is closed once ctx is done.
func DialIMAP(ctx context.Context, opts Options) (Mailbox, error) {
	var (
		client *imapclient.Client
		err    error
	)

	if opts.SSL {
		client, err = imapclient.DialTLS(opts.Addr(), &imapclient.Options{
			TLSConfig: &tls.Config{ServerName: opts.Host, MinVersion: tls.VersionTLS12},
		})
	} else {
		client, err = imapclient.DialInsecure(opts.Addr(), nil)
	}

	if err != nil {
		return nil, fmt.Errorf("could not connect to %s: %w", opts.Addr(), err)
	}

	stop := context.AfterFunc(ctx, func() { client.Close() })

	if err := client.Login(opts.Username, opts.Password).Wait(); err != nil {
		stop()
		client.Close()
		return nil, fmt.Errorf("could not login as %q: %w", opts.Username, err)
	}

	return &imapMailbox{client: client, stop: stop}, nil
}

func (m *imapMailbox) EnsureFolder(name string) error {
	mailboxes, err := m.client.List("", name, nil).Collect()
	if err != nil {
		return err
	}

	if len(mailboxes) > 0 {
		return nil
	}

	return m.client.Create(name, nil).Wait()
}

func (m *imapMailbox) List() ([]imap.UID, error) {
	if _, err := m.client.Select(inboxFolder, nil).Wait(); err != nil {
		return nil, err
	}

	data, err := m.client.UIDSearch(&imap.SearchCriteria{}, nil).Wait()
	if err != nil {
		return nil, err
	}

	return data.AllUIDs(), nil
}

func (m *imapMailbox) Fetch(uid imap.UID) ([]byte, error) {
	section := &imap.FetchItemBodySection{Peek: true}

	messages, err := m.client.Fetch(imap.UIDSetNum(uid), &imap.FetchOptions{
		UID:         true,
		BodySection: []*imap.FetchItemBodySection{section},
	}).Collect()
	if err != nil {
		return nil, err
	}

	if len(messages) == 0 {
		return nil, fmt.Errorf("message %d vanished", uid)
	}

	return messages[0].FindBodySection(section), nil
}

func (m *imapMailbox) Archive(uid imap.UID, folder string) error {
	uidSet := imap.UIDSetNum(uid)

	if _, err := m.client.Copy(uidSet, folder).Wait(); err != nil {
		return err
	}

	return m.client.Store(uidSet, &imap.StoreFlags{
		Op:     imap.StoreFlagsAdd,
		Silent: true,
		Flags:  []imap.Flag{imap.FlagDeleted},
	}, nil).Close()
}

func (m *imapMailbox) Expunge() error {
	return m.client.Expunge().Close()
}

func (m *imapMailbox) Close() error {
	m.stop()

	if err := m.client.Logout().Wait(); err != nil {
		m.client.Close()
		return err
	}

	return m.client.Close()
}
