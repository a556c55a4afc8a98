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

package log

import (
	"context"

	"github.com/rs/zerolog"
)

type fieldRun struct{}
type fieldOrigin struct{}
type fieldNewsletter struct{}
type fieldSubmission struct{}

// WithRun attaches the correlation id of a queue pass.
func WithRun(ctx context.Context, run string) context.Context {
	return context.WithValue(ctx, fieldRun{}, run)
}

// WithOrigin attaches the name of the component producing log events.
func WithOrigin(ctx context.Context, origin string) context.Context {
	return context.WithValue(ctx, fieldOrigin{}, origin)
}

// WithNewsletter attaches the slug of the newsletter being worked on.
func WithNewsletter(ctx context.Context, slug string) context.Context {
	return context.WithValue(ctx, fieldNewsletter{}, slug)
}

// WithSubmission attaches the id of the submission being sent.
func WithSubmission(ctx context.Context, submission int64) context.Context {
	return context.WithValue(ctx, fieldSubmission{}, submission)
}

func appendContextFields(ctx context.Context, event *zerolog.Event) *zerolog.Event {
	if run, ok := ctx.Value(fieldRun{}).(string); ok {
		event.Str("run", run)
	}

	if origin, ok := ctx.Value(fieldOrigin{}).(string); ok {
		event.Str("origin", origin)
	}

	if newsletter, ok := ctx.Value(fieldNewsletter{}).(string); ok {
		event.Str("newsletter", newsletter)
	}

	if submission, ok := ctx.Value(fieldSubmission{}).(int64); ok {
		event.Int64("submission", submission)
	}

	return event
}
