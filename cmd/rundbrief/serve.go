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
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/spf13/viper"

	"github.com/lukasdietrich/rundbrief/internal/database"
	"github.com/lukasdietrich/rundbrief/internal/log"
	"github.com/lukasdietrich/rundbrief/internal/metrics"
	"github.com/lukasdietrich/rundbrief/internal/submission"
)

func init() {
	viper.SetDefault("queue.interval", "5m")
	viper.SetDefault("http.address", "127.0.0.1:8025")
}

type serveOptions struct {
	Interval time.Duration
	Address  string
}

// serveOptionsFromViper reads the options of the serve command.
//
// `queue.interval` is the pause between two queue passes.
// `http.address` is the listen address of the metrics endpoint. An empty address disables it.
func serveOptionsFromViper() serveOptions {
	return serveOptions{
		Interval: viper.GetDuration("queue.interval"),
		Address:  viper.GetString("http.address"),
	}
}

type serveCommand struct {
	Conn    database.Conn
	Engine  submission.Engine
	Options serveOptions
}

func (s *serveCommand) run(ctx context.Context) error {
	defer s.Conn.Close()

	if s.Options.Interval <= 0 {
		return errors.New("queue.interval has to be positive")
	}

	if s.Options.Address != "" {
		server := http.Server{
			Addr:              s.Options.Address,
			Handler:           s.router(),
			ReadHeaderTimeout: 10 * time.Second,
		}

		go s.listen(&server)

		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			if err := server.Shutdown(shutdownCtx); err != nil {
				log.Warn().Err(err).Msg("could not shut down http server")
			}
		}()
	}

	log.Info().
		Dur("interval", s.Options.Interval).
		Msg("starting queue")

	ticker := time.NewTicker(s.Options.Interval)
	defer ticker.Stop()

	for {
		s.pass(ctx)

		select {
		case <-ctx.Done():
			log.Info().Msg("stopping queue")
			return nil
		case <-ticker.C:
		}
	}
}

// pass submits the queue once. Errors are logged and retried with the next pass.
func (s *serveCommand) pass(ctx context.Context) {
	ctx = log.WithRun(ctx, uuid.NewString())

	if err := s.Engine.SubmitQueue(ctx); err != nil {
		log.ErrorContext(ctx).Err(err).Msg("queue pass failed")
	}
}

func (s *serveCommand) router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if err := s.Conn.PingContext(r.Context()); err != nil {
			http.Error(w, err.Error(), http.StatusServiceUnavailable)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	})

	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	return r
}

func (s *serveCommand) listen(server *http.Server) {
	log.Info().
		Str("address", server.Addr).
		Msg("serving metrics")

	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Error().Err(err).Msg("http server stopped")
	}
}
