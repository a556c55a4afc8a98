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

	"github.com/emersion/go-imap/v2"
	"github.com/stretchr/testify/mock"
)

// MockMailbox is a mock implementation of Mailbox.
type MockMailbox struct {
	mock.Mock
}

func (m *MockMailbox) EnsureFolder(name string) error {
	return m.Called(name).Error(0)
}

func (m *MockMailbox) List() ([]imap.UID, error) {
	args := m.Called()
	uids, _ := args.Get(0).([]imap.UID)
	return uids, args.Error(1)
}

func (m *MockMailbox) Fetch(uid imap.UID) ([]byte, error) {
	args := m.Called(uid)
	raw, _ := args.Get(0).([]byte)
	return raw, args.Error(1)
}

func (m *MockMailbox) Archive(uid imap.UID, folder string) error {
	return m.Called(uid, folder).Error(0)
}

func (m *MockMailbox) Expunge() error {
	return m.Called().Error(0)
}

func (m *MockMailbox) Close() error {
	return m.Called().Error(0)
}

// MockScanner is a mock implementation of Scanner.
type MockScanner struct {
	mock.Mock
}

func (m *MockScanner) Scan(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}
