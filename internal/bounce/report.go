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
	"bufio"
	"bytes"
	"errors"
	"io"
	"strings"

	"github.com/emersion/go-message"
	_ "github.com/emersion/go-message/charset"
	"github.com/emersion/go-message/mail"
	"github.com/emersion/go-message/textproto"

	"github.com/lukasdietrich/rundbrief/internal/verp"
)

// ErrIncompleteReport is returned for messages without a recoverable recipient or status.
var ErrIncompleteReport = errors.New("bounce: recipient or status missing")

const deliveryStatusType = "message/delivery-status"

// Report is the information recovered from a delivery status notification.
type Report struct {
	// Recipient is the address the bounced message was originally sent to.
	Recipient string
	// Status is the enhanced status code (e.g. "5.1.1").
	Status string
}

// ParseReport recovers the original recipient and status of a bounce message. The recipient is
// taken from a verp encoded `To` header first and from the delivery status otherwise.
func ParseReport(raw []byte) (*Report, error) {
	entity, err := message.Read(bytes.NewReader(raw))
	if err != nil && !message.IsUnknownCharset(err) && !message.IsUnknownEncoding(err) {
		return nil, err
	}

	var report Report
	report.Recipient = recipientFromVerp(mail.Header{Header: entity.Header})

	err = entity.Walk(func(_ []int, part *message.Entity, err error) error {
		if err != nil && !message.IsUnknownCharset(err) && !message.IsUnknownEncoding(err) {
			return err
		}

		mediaType, _, _ := part.Header.ContentType()
		if mediaType != deliveryStatusType {
			return nil
		}

		if err := report.readDeliveryStatus(part.Body); err != nil {
			return err
		}

		// only the first delivery status is considered.
		return errStopWalk
	})

	if err != nil && !errors.Is(err, errStopWalk) {
		return nil, err
	}

	if report.Recipient == "" || report.Status == "" {
		return nil, ErrIncompleteReport
	}

	return &report, nil
}

var errStopWalk = errors.New("stop walk")

func recipientFromVerp(h mail.Header) string {
	if to, err := h.AddressList("To"); err == nil {
		for _, addr := range to {
			if recipient, ok := verp.Decode(addr.Address); ok {
				return recipient
			}
		}
	}

	if recipient, ok := verp.Decode(strings.TrimSpace(h.Get("To"))); ok {
		return recipient
	}

	return ""
}

// readDeliveryStatus reads the per-message and per-recipient field groups of a delivery status
// body until both recipient and status are known.
func (r *Report) readDeliveryStatus(body io.Reader) error {
	fields, err := readFieldGroups(body)
	if err != nil {
		return err
	}

	for _, group := range fields {
		if r.Recipient == "" {
			r.Recipient = recipientField(group)
		}

		if r.Status == "" {
			r.Status = strings.TrimSpace(group.Get("Status"))
		}

		if r.Recipient != "" && r.Status != "" {
			break
		}
	}

	return nil
}

func recipientField(group textproto.Header) string {
	for _, key := range []string{"Original-Recipient", "Final-Recipient"} {
		if value := strings.TrimSpace(group.Get(key)); value != "" {
			return stripAddressType(value)
		}
	}

	return ""
}

// stripAddressType removes the address type prefix of a recipient field, e.g. "rfc822;".
func stripAddressType(value string) string {
	if semicolon := strings.IndexByte(value, ';'); semicolon >= 0 {
		value = value[semicolon+1:]
	}

	return strings.Trim(strings.TrimSpace(value), "<>")
}

func readFieldGroups(body io.Reader) ([]textproto.Header, error) {
	content, err := io.ReadAll(body)
	if err != nil {
		return nil, err
	}

	// terminate the last group, which may lack a trailing blank line.
	content = append(content, "\r\n\r\n"...)
	br := bufio.NewReader(bytes.NewReader(content))

	var groups []textproto.Header

	for {
		if err := skipBlankLines(br); err != nil {
			if errors.Is(err, io.EOF) {
				return groups, nil
			}

			return groups, err
		}

		group, err := textproto.ReadHeader(br)
		if err != nil {
			return groups, err
		}

		groups = append(groups, group)
	}
}

func skipBlankLines(br *bufio.Reader) error {
	for {
		b, err := br.Peek(1)
		if err != nil {
			return err
		}

		if b[0] != '\r' && b[0] != '\n' {
			return nil
		}

		if _, err := br.ReadByte(); err != nil {
			return err
		}
	}
}
