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

package verp

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEncode(t *testing.T) {
	actual := Encode("bounces@lists.example.org", "someone@example.com", "news@example.org")
	assert.Equal(t, "bounces+someone=example.com@lists.example.org", actual)
}

func TestEncodeWithoutBounceAddress(t *testing.T) {
	actual := Encode("", "someone@example.com", "news@example.org")
	assert.Equal(t, "news@example.org", actual)
}

func TestEncodeInvalidRecipient(t *testing.T) {
	actual := Encode("bounces@lists.example.org", "not-an-address", "news@example.org")
	assert.Equal(t, "news@example.org", actual)
}

func TestDecode(t *testing.T) {
	for address, expected := range map[string]string{
		"bounces+someone=example.com@lists.example.org": "someone@example.com",
		"b+first.last=sub.example.com@host":             "first.last@sub.example.com",
		" bounces+x=y@z ":                               "x@y",
	} {
		actual, ok := Decode(address)
		assert.True(t, ok, address)
		assert.Equal(t, expected, actual)
	}
}

func TestDecodeNotEncoded(t *testing.T) {
	for _, address := range []string{
		"",
		"bounces@lists.example.org",
		"bounces+tag@lists.example.org",
		"+someone=example.com@lists.example.org",
		"bounces+someone=example.com",
	} {
		actual, ok := Decode(address)
		assert.False(t, ok, address)
		assert.Zero(t, actual)
	}
}

func TestRoundTrip(t *testing.T) {
	for _, recipient := range []string{
		"someone@example.com",
		"a.b-c_d@mail.example.co.uk",
		"x@y",
	} {
		encoded := Encode("bounce@example.org", recipient, "")
		decoded, ok := Decode(encoded)
		assert.True(t, ok)
		assert.Equal(t, recipient, decoded)
	}
}
