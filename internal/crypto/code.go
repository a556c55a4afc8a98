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

package crypto

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"io"

	"github.com/google/wire"
)

// WireSet contains the providers of this package.
var WireSet = wire.NewSet(NewCodeGenerator)

// CodeLength is the length of an activation code in hex characters.
const CodeLength = 40

// CodeGenerator generates activation codes, which authorize subscription changes without a login.
type CodeGenerator interface {
	// GenerateCode generates a new activation code.
	GenerateCode() (string, error)
}

// NewCodeGenerator creates a CodeGenerator reading from the system random source.
func NewCodeGenerator() CodeGenerator {
	return randomCodeGenerator{random: rand.Reader}
}

type randomCodeGenerator struct {
	random io.Reader
}

func (r randomCodeGenerator) GenerateCode() (string, error) {
	b, err := r.readRandomBytes(CodeLength / 2)
	if err != nil {
		return "", err
	}

	return hex.EncodeToString(b), nil
}

func (r randomCodeGenerator) readRandomBytes(n int) ([]byte, error) {
	b := make([]byte, n)
	_, err := io.ReadFull(r.random, b)
	return b, err
}

// CodesEqual compares two activation codes in constant time.
func CodesEqual(expected, actual string) bool {
	if len(expected) == 0 || len(expected) != len(actual) {
		return false
	}

	return subtle.ConstantTimeCompare([]byte(expected), []byte(actual)) == 1
}
