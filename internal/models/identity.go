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
	"errors"
	"fmt"
	"strings"

	"github.com/emersion/go-message/mail"
)

var (
	// ErrIdentityConflict is returned if a subscription references an account and a standalone
	// email at the same time.
	ErrIdentityConflict = errors.New("identity: account and email are mutually exclusive")
	// ErrIdentityMissing is returned if a subscription neither references an account nor an email.
	ErrIdentityMissing = errors.New("identity: either an account or an email is required")
)

// ValidationError is returned for entities violating an invariant before they are written.
type ValidationError struct {
	Field string
	Err   error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation of %q failed: %v", e.Field, e.Err)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// Identity is the subscriber of a subscription. It is either an AccountIdentity or a
// StandaloneIdentity.
type Identity interface {
	isIdentity()
}

// AccountIdentity references a registered account.
type AccountIdentity struct {
	AccountID int64
}

// StandaloneIdentity is a subscriber without an account.
type StandaloneIdentity struct {
	Name  string
	Email Address
}

func (AccountIdentity) isIdentity()    {}
func (StandaloneIdentity) isIdentity() {}

// SetIdentity writes the identity columns of the subscription.
func (s *SubscriptionEntity) SetIdentity(identity Identity) {
	s.AccountID = sql.NullInt64{}
	s.Name = sql.NullString{}
	s.Email = sql.NullString{}

	switch id := identity.(type) {
	case AccountIdentity:
		s.AccountID = sql.NullInt64{Int64: id.AccountID, Valid: true}

	case StandaloneIdentity:
		s.Email = sql.NullString{String: id.Email.String(), Valid: true}

		if name := strings.TrimSpace(id.Name); name != "" {
			s.Name = sql.NullString{String: name, Valid: true}
		}
	}
}

// Identity reads the identity columns of the subscription.
func (s *SubscriptionEntity) Identity() (Identity, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}

	if s.AccountID.Valid {
		return AccountIdentity{AccountID: s.AccountID.Int64}, nil
	}

	email, err := Parse(s.Email.String)
	if err != nil {
		return nil, &ValidationError{Field: "email", Err: err}
	}

	return StandaloneIdentity{Name: s.Name.String, Email: email}, nil
}

// Validate checks that exactly one of account and standalone email is set.
func (s *SubscriptionEntity) Validate() error {
	hasAccount := s.AccountID.Valid
	hasEmail := s.Email.Valid && s.Email.String != ""

	switch {
	case hasAccount && (hasEmail || s.Name.Valid):
		return &ValidationError{Field: "identity", Err: ErrIdentityConflict}

	case !hasAccount && !hasEmail:
		return &ValidationError{Field: "identity", Err: ErrIdentityMissing}
	}

	return nil
}

func formatAddress(name, email string) string {
	address := mail.Address{
		Name:    name,
		Address: email,
	}

	return address.String()
}
