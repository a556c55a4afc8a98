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
	"bytes"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/emersion/go-message/mail"
	"github.com/google/uuid"
)

// Envelope returns the bare addresses used for `MAIL FROM` and `RCPT TO`.
func Envelope(msg *Message) (string, []string, error) {
	from, err := mail.ParseAddress(msg.From)
	if err != nil {
		return "", nil, fmt.Errorf("invalid sender %q: %w", msg.From, err)
	}

	to, err := parseAddressList(msg.To)
	if err != nil {
		return "", nil, err
	}

	recipients := make([]string, len(to))
	for i, addr := range to {
		recipients[i] = addr.Address
	}

	return from.Address, recipients, nil
}

// Compose renders a message to its MIME representation. A message with html is sent as
// multipart/alternative.
func Compose(msg *Message) ([]byte, error) {
	from, err := mail.ParseAddress(msg.From)
	if err != nil {
		return nil, fmt.Errorf("invalid sender %q: %w", msg.From, err)
	}

	to, err := parseAddressList(msg.To)
	if err != nil {
		return nil, err
	}

	var h mail.Header
	h.SetDate(time.Now())
	h.SetSubject(msg.Subject)
	h.SetAddressList("From", []*mail.Address{from})
	h.SetAddressList("To", to)
	h.SetMessageID(fmt.Sprintf("%s@%s", uuid.NewString(), domainOf(from.Address)))

	for _, header := range msg.Headers {
		h.Set(header.Key, header.Value)
	}

	var buf bytes.Buffer

	if msg.HTML == "" {
		err = composeText(&buf, h, msg.Text)
	} else {
		err = composeAlternative(&buf, h, msg.Text, msg.HTML)
	}

	if err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

func composeText(w io.Writer, h mail.Header, text string) error {
	h.SetContentType("text/plain", map[string]string{"charset": "utf-8"})
	h.Set("Content-Transfer-Encoding", "quoted-printable")

	bw, err := mail.CreateSingleInlineWriter(w, h)
	if err != nil {
		return err
	}

	if _, err := io.WriteString(bw, text); err != nil {
		bw.Close()
		return err
	}

	return bw.Close()
}

func composeAlternative(w io.Writer, h mail.Header, text, html string) error {
	iw, err := mail.CreateInlineWriter(w, h)
	if err != nil {
		return err
	}

	for _, part := range []struct {
		contentType string
		body        string
	}{
		{"text/plain", text},
		{"text/html", html},
	} {
		var ph mail.InlineHeader
		ph.SetContentType(part.contentType, map[string]string{"charset": "utf-8"})
		ph.Set("Content-Transfer-Encoding", "quoted-printable")

		pw, err := iw.CreatePart(ph)
		if err != nil {
			return err
		}

		if _, err := io.WriteString(pw, part.body); err != nil {
			pw.Close()
			return err
		}

		if err := pw.Close(); err != nil {
			return err
		}
	}

	return iw.Close()
}

func parseAddressList(list []string) ([]*mail.Address, error) {
	if len(list) == 0 {
		return nil, fmt.Errorf("no recipients")
	}

	addrs := make([]*mail.Address, len(list))

	for i, raw := range list {
		addr, err := mail.ParseAddress(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid recipient %q: %w", raw, err)
		}

		addrs[i] = addr
	}

	return addrs, nil
}

func domainOf(address string) string {
	if at := strings.LastIndexByte(address, '@'); at >= 0 {
		return address[at+1:]
	}

	return "localhost"
}
