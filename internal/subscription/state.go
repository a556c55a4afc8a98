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

package subscription

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/lukasdietrich/rundbrief/internal/models"
)

// State is the lifecycle state of a subscription.
type State int

const (
	// StateNever is the state of a subscription, that was never confirmed.
	StateNever State = iota
	StateSubscribed
	StateUnsubscribed
)

func (s State) String() string {
	switch s {
	case StateSubscribed:
		return "subscribed"
	case StateUnsubscribed:
		return "unsubscribed"
	default:
		return "never-subscribed"
	}
}

// CurrentState derives the state from the persisted flags of a subscription.
func CurrentState(subscription *models.SubscriptionEntity) State {
	switch {
	case subscription.Unsubscribed:
		return StateUnsubscribed
	case subscription.Subscribed:
		return StateSubscribed
	default:
		return StateNever
	}
}

// Target returns the state an action leads to.
func Target(action models.Action) (State, error) {
	if !action.IsSubscriptionChange() {
		return StateNever, fmt.Errorf("%w: %q is not a subscription change", models.ErrUnknownAction, action)
	}

	if action == models.ActionUnsubscribe {
		return StateUnsubscribed, nil
	}

	return StateSubscribed, nil
}

// Transition returns the state following current after action and whether it differs from
// current.
func Transition(current State, action models.Action) (State, bool, error) {
	next, err := Target(action)
	if err != nil {
		return current, false, err
	}

	return next, next != current, nil
}

// Apply moves the subscription into the state requested by action. Entering a state stamps its
// date. Nothing is modified if the subscription already is in the requested state.
func Apply(subscription *models.SubscriptionEntity, action models.Action, now time.Time) (bool, error) {
	next, changed, err := Transition(CurrentState(subscription), action)
	if err != nil || !changed {
		return false, err
	}

	stamp := sql.NullInt64{Int64: now.Unix(), Valid: true}

	switch next {
	case StateSubscribed:
		subscription.Subscribed = true
		subscription.Unsubscribed = false
		subscription.SubscribedAt = stamp

	case StateUnsubscribed:
		subscription.Subscribed = false
		subscription.Unsubscribed = true
		subscription.UnsubscribedAt = stamp
	}

	return true, nil
}
