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
	"strings"
)

// StatusMailboxFull is the only permanent status code, that is considered transient.
const StatusMailboxFull = "5.2.2"

// IsHardBounce checks if a delivery status code denotes a permanent failure.
func IsHardBounce(statusCode string) bool {
	return strings.HasPrefix(statusCode, "5") && statusCode != StatusMailboxFull
}

var statusDescriptions = map[string]string{
	"5.0.0":   "Other undefined status",
	"5.1.0":   "Other address status",
	"5.1.1":   "Bad destination mailbox address",
	"5.1.2":   "Bad destination system address",
	"5.1.3":   "Bad destination mailbox address syntax",
	"5.1.4":   "Destination mailbox address ambiguous",
	"5.1.6":   "Destination mailbox has moved, no forwarding address",
	"5.1.7":   "Bad sender's mailbox address syntax",
	"5.1.8":   "Bad sender's system address",
	"5.2.0":   "Other or undefined mailbox status",
	"5.2.1":   "Mailbox disabled, not accepting messages",
	"5.2.2":   "Mailbox full",
	"5.2.3":   "Message length exceeds administrative limit",
	"5.2.4":   "Mailing list expansion problem",
	"5.3.0":   "Other or undefined mail system status",
	"5.3.1":   "Mail system full",
	"5.3.2":   "System not accepting network messages",
	"5.3.3":   "System not capable of selected features",
	"5.3.4":   "Message too big for system",
	"5.3.5":   "System incorrectly configured",
	"5.4.0":   "Other or undefined network or routing status",
	"5.4.1":   "No answer from host",
	"5.4.2":   "Bad connection",
	"5.4.3":   "Directory server failure",
	"5.4.4":   "Unable to route",
	"5.4.5":   "Mail system congestion",
	"5.4.6":   "Routing loop detected",
	"5.4.7":   "Delivery time expired",
	"5.5.0":   "Other or undefined protocol status",
	"5.5.1":   "Invalid command",
	"5.5.2":   "Syntax error",
	"5.5.3":   "Too many recipients",
	"5.5.4":   "Invalid command arguments",
	"5.5.5":   "Wrong protocol version",
	"5.6.0":   "Other or undefined media error",
	"5.6.1":   "Media not supported",
	"5.6.2":   "Conversion required and prohibited",
	"5.6.3":   "Conversion required but not supported",
	"5.6.4":   "Conversion with loss performed",
	"5.6.5":   "Conversion failed",
	"5.7.0":   "Other or undefined security status",
	"5.7.1":   "Delivery not authorized, message refused",
	"5.7.2":   "Mailing list expansion prohibited",
	"5.7.3":   "Security conversion required but not possible",
	"5.7.4":   "Security features not supported",
	"5.7.5":   "Cryptographic failure",
	"5.7.6":   "Cryptographic algorithm not supported",
	"5.7.7":   "Message integrity failure",
	"5.7.606": "Access denied, banned sending IP",
}

// StatusDescription returns a human readable description of an enhanced status code.
func StatusDescription(statusCode string) string {
	if description, ok := statusDescriptions[statusCode]; ok {
		return description
	}

	return "Unknown error code"
}
