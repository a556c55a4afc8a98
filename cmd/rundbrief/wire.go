//go:build wireinject
// +build wireinject

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

package main

import (
	"github.com/google/wire"

	"github.com/lukasdietrich/rundbrief/internal/bounce"
	"github.com/lukasdietrich/rundbrief/internal/credentials"
	"github.com/lukasdietrich/rundbrief/internal/crypto"
	"github.com/lukasdietrich/rundbrief/internal/database"
	"github.com/lukasdietrich/rundbrief/internal/feed"
	"github.com/lukasdietrich/rundbrief/internal/lock"
	"github.com/lukasdietrich/rundbrief/internal/mailer"
	"github.com/lukasdietrich/rundbrief/internal/sender"
	"github.com/lukasdietrich/rundbrief/internal/submission"
	"github.com/lukasdietrich/rundbrief/internal/subscription"
	"github.com/lukasdietrich/rundbrief/internal/templates"
)

var wireSet = wire.NewSet(
	serveOptionsFromViper,
	wire.Struct(new(runCommand), "*"),
	wire.Struct(new(serveCommand), "*"),
	wire.Struct(new(shellCommand), "*"),

	database.WireSet,
	crypto.WireSet,
	credentials.WireSet,
	templates.WireSet,
	mailer.WireSet,
	lock.WireSet,
	bounce.WireSet,
	subscription.WireSet,
	submission.WireSet,
	feed.WireSet,
	sender.WireSet,
)

func newRunCommand() (*runCommand, func(), error) {
	panic(wire.Build(wireSet))
}

func newServeCommand() (*serveCommand, func(), error) {
	panic(wire.Build(wireSet))
}

func newShellCommand() (*shellCommand, func(), error) {
	panic(wire.Build(wireSet))
}
