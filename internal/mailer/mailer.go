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

// Package mailer composes and sends newsletter emails.
package mailer

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/wire"
	"github.com/spf13/viper"
)

// WireSet contains providers for the configured transport.
var WireSet = wire.NewSet(
	OptionsFromViper,
	NewTransport,
)

func init() {
	viper.SetDefault("mailer.transport", "smtp")
}

// Header is an additional header field of a message.
type Header struct {
	Key   string
	Value string
}

// Message is a single email. From is used for the envelope and, unless overridden by a
// `From` entry in Headers, for the visible header as well.
type Message struct {
	From    string
	To      []string
	Subject string
	Text    string
	// HTML is an optional alternative to Text.
	HTML    string
	Headers []Header
}

// visibleFrom returns the sender shown to the recipient.
func (m *Message) visibleFrom() string {
	for _, header := range m.Headers {
		if strings.EqualFold(header.Key, "From") {
			return header.Value
		}
	}

	return m.From
}

// Transport sends messages.
type Transport interface {
	// Send delivers a message and returns an error if the transport did not accept it.
	Send(context.Context, *Message) error
}

// Options select and configure the transport.
type Options struct {
	Transport string
	SMTP      SMTPOptions
	SES       SESOptions
}

// OptionsFromViper reads the mailer options.
//
// `mailer.transport` is either `smtp` or `ses`.
func OptionsFromViper() Options {
	return Options{
		Transport: viper.GetString("mailer.transport"),
		SMTP:      SMTPOptionsFromViper(),
		SES:       SESOptionsFromViper(),
	}
}

// NewTransport creates the transport selected by the options.
func NewTransport(opts Options) (Transport, error) {
	switch strings.ToLower(opts.Transport) {
	case "smtp", "":
		return NewSMTPTransport(opts.SMTP), nil
	case "ses":
		return NewSESTransport(context.Background(), opts.SES)
	default:
		return nil, fmt.Errorf("unknown mail transport %q", opts.Transport)
	}
}
