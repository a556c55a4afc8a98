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

// Package sender verifies that the smtp relay is allowed to send on behalf of a newsletter.
package sender

import (
	"context"
	"fmt"
	"net"

	"github.com/google/wire"
	"github.com/zaccone/spf"

	"github.com/lukasdietrich/rundbrief/internal/log"
	"github.com/lukasdietrich/rundbrief/internal/models"
)

// WireSet contains the providers of this package.
var WireSet = wire.NewSet(NewChecker)

// Report is the outcome of an spf check.
type Report struct {
	Result spf.Result
	// Header is a `Received-SPF` value as a receiving server would prepend it.
	Header string
}

// Passed reports if the relay is explicitly allowed.
func (r *Report) Passed() bool {
	return r.Result == spf.Pass
}

// Failed reports if the relay is explicitly forbidden, so receivers will likely reject mail.
func (r *Report) Failed() bool {
	return r.Result == spf.Fail
}

// Checker performs spf checks of newsletter senders.
type Checker interface {
	// Check evaluates the spf policy of the sender domain for the relay ip.
	Check(ctx context.Context, ip net.IP, sender models.Address) (*Report, error)
	// LookupRelay resolves the ip addresses of the relay host.
	LookupRelay(ctx context.Context, host string) ([]net.IP, error)
}

type checkHostFunc func(net.IP, string, string) (spf.Result, string, error)

type checker struct {
	checkHost checkHostFunc
	resolver  *net.Resolver
}

// NewChecker creates a Checker using the system resolver.
func NewChecker() Checker {
	return &checker{
		checkHost: spf.CheckHost,
		resolver:  net.DefaultResolver,
	}
}

func (c *checker) Check(ctx context.Context, ip net.IP, sender models.Address) (*Report, error) {
	log.InfoContext(ctx).
		Stringer("sender", sender).
		Stringer("ip", ip).
		Msg("looking up spf")

	domain, err := models.DomainToASCII(sender.Domain())
	if err != nil {
		return nil, fmt.Errorf("invalid sender domain %q: %w", sender.Domain(), err)
	}

	result, _, err := c.checkHost(ip, domain, sender.LocalPart()+"@"+domain)
	if err != nil {
		log.InfoContext(ctx).
			Stringer("sender", sender).
			Err(err).
			Msg("could not check spf")

		return nil, err
	}

	log.InfoContext(ctx).
		Stringer("sender", sender).
		Stringer("result", result).
		Msg("spf result")

	return &Report{
		Result: result,
		Header: fmt.Sprintf(
			"%s (with domain=%s of sender=%s) client-ip=%s;",
			result, sender.Domain(), sender.String(), ip),
	}, nil
}

func (c *checker) LookupRelay(ctx context.Context, host string) ([]net.IP, error) {
	if ip := net.ParseIP(host); ip != nil {
		return []net.IP{ip}, nil
	}

	addrs, err := c.resolver.LookupIPAddr(ctx, host)
	if err != nil {
		return nil, err
	}

	ips := make([]net.IP, len(addrs))
	for i, addr := range addrs {
		ips[i] = addr.IP
	}

	return ips, nil
}
