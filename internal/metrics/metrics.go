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

// Package metrics contains the prometheus collectors of the queue and the bounce scan.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	MessagesSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rundbrief_messages_sent_total",
			Help: "Total number of messages handed to the mail transport",
		},
		[]string{"newsletter"},
	)

	MessagesFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rundbrief_messages_failed_total",
			Help: "Total number of messages the mail transport did not accept",
		},
		[]string{"newsletter"},
	)

	Submissions = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "rundbrief_submissions_total",
			Help: "Total number of submissions marked as sent",
		},
	)

	Bounces = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rundbrief_bounces_total",
			Help: "Total number of bounces recorded",
		},
		[]string{"kind"},
	)

	BounceScanErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "rundbrief_bounce_scan_errors_total",
			Help: "Total number of aborted bounce mailbox scans",
		},
	)
)

// BounceKind returns the label value of a bounce.
func BounceKind(hard bool) string {
	if hard {
		return "hard"
	}

	return "soft"
}

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
