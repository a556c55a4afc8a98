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

// Package verp implements variable envelope return paths. A bounce address
// "local@domain" and a recipient "user@host" are combined to
// "local+user=host@domain", so a bounce reaching the bounce mailbox names the
// recipient it was meant for.
package verp

import (
	"regexp"
	"strings"

	"github.com/lukasdietrich/rundbrief/internal/models"
)

var pattern = regexp.MustCompile(`^[^+]+\+(?P<user>[^=]+)=(?P<domain>[^@]+)@.+$`)

// Encode embeds the recipient into the bounce address. It returns the sender address, if no
// bounce address is configured.
func Encode(bounceAddress, recipient, sender string) string {
	if bounceAddress == "" {
		return sender
	}

	bounce, err := models.Parse(bounceAddress)
	if err != nil {
		return sender
	}

	to, err := models.Parse(recipient)
	if err != nil {
		return sender
	}

	var b strings.Builder
	b.WriteString(bounce.LocalPart())
	b.WriteByte('+')
	b.WriteString(to.LocalPart())
	b.WriteByte('=')
	b.WriteString(to.Domain())
	b.WriteByte('@')
	b.WriteString(bounce.Domain())

	return b.String()
}

// Decode extracts the original recipient from an encoded address. The second result is false,
// if the address is not encoded.
func Decode(address string) (string, bool) {
	match := pattern.FindStringSubmatch(strings.TrimSpace(address))
	if match == nil {
		return "", false
	}

	return match[1] + "@" + match[2], true
}
