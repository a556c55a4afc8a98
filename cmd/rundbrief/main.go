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
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/lukasdietrich/rundbrief/internal/log"
)

const usageText = `
Usage:
  rundbrief [OPTIONS] COMMAND

  Send newsletters and keep track of their bounces.

Version:
  %s

Commands:
  run       Submit all due submissions once and scan for bounces
  serve     Submit the queue periodically and serve metrics
  shell     Start an interactive administration shell

Options:
%s
`

var (
	// Version is set at compile-time.
	Version string
)

func init() {
	viper.SetDefault("log.level", "info")
}

func main() {
	var configFilename string

	flags := pflag.NewFlagSet("rundbrief", pflag.ContinueOnError)
	flags.StringVarP(&configFilename, "config", "c", "", "Path to a configuration file")
	flags.Usage = printUsage(flags)

	if err := flags.Parse(os.Args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}

		log.Fatal().Err(err).Msg("could not parse flags")
	}

	switch commandName := flags.Arg(1); commandName {
	case "run", "serve", "shell":
		setupConfig(configFilename)
		setupLogger()
		printConfig()
		executeCommand(commandName)
	default:
		flags.Usage()
	}
}

type command interface {
	run(context.Context) error
}

func executeCommand(commandName string) {
	var (
		cmd     command
		cleanup func()
		err     error
	)

	switch commandName {
	case "run":
		cmd, cleanup, err = newRunCommand()
	case "serve":
		cmd, cleanup, err = newServeCommand()
	case "shell":
		cmd, cleanup, err = newShellCommand()
	}

	if err != nil {
		log.Fatal().Err(err).Msg("could not initialize the application")
	}

	defer cleanup()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cmd.run(ctx); err != nil {
		log.Error().Err(err).Str("command", commandName).Msg("command failed")

		stop()
		cleanup()
		os.Exit(1)
	}
}

func printUsage(flags *pflag.FlagSet) func() {
	return func() {
		fmt.Fprintf(os.Stderr, usageText,
			Version,
			flags.FlagUsages())
	}
}

func setupLogger() {
	level := viper.GetString("log.level")

	if err := log.SetLevel(level); err != nil {
		log.Fatal().Err(err).Str("level", level).Msg("unknown log level")
	}

	log.Info().Str("level", level).Msg("log level set")
}

func setupConfig(filename string) {
	viper.SetTypeByDefaultValue(true)
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.SetEnvPrefix("RUNDBRIEF")

	if filename != "" {
		readConfig(filename)
	} else {
		log.Info().Msg("no config file provided. using environment only")
	}
}

func readConfig(filename string) {
	log.Info().Str("filename", filename).Msg("loading configuration")
	viper.SetConfigFile(filename)

	if err := viper.ReadInConfig(); err != nil {
		if os.IsNotExist(err) {
			log.Warn().Err(err).Msg("configuration file missing")
		} else {
			log.Fatal().Err(err).Msg("could not load configuration")
		}
	}
}

func printConfig() {
	keys := viper.AllKeys()
	sort.Strings(keys)

	for _, key := range keys {
		if isSecretKey(key) {
			continue
		}

		log.Debug().
			Str("key", key).
			Interface("value", viper.Get(key)).
			Msg("configuration")
	}
}

func isSecretKey(key string) bool {
	return strings.HasSuffix(key, "password")
}
