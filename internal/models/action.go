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
	"errors"
	"fmt"
)

// ErrUnknownAction is returned when parsing an action name fails.
var ErrUnknownAction = errors.New("unknown action")

// Action is the purpose of an email sent for a newsletter. It also selects its templates.
type Action string

const (
	ActionSubscribe   Action = "subscribe"
	ActionUpdate      Action = "update"
	ActionUnsubscribe Action = "unsubscribe"
	ActionMessage     Action = "message"
)

// ParseAction parses the name of an action.
func ParseAction(name string) (Action, error) {
	switch action := Action(name); action {
	case ActionSubscribe, ActionUpdate, ActionUnsubscribe, ActionMessage:
		return action, nil
	}

	return "", fmt.Errorf("%w: %q", ErrUnknownAction, name)
}

// IsSubscriptionChange checks if the action changes the state of a subscription.
func (a Action) IsSubscriptionChange() bool {
	return a == ActionSubscribe || a == ActionUpdate || a == ActionUnsubscribe
}
