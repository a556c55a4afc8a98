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

// Package lock guards the queue against concurrent passes of multiple schedulers.
package lock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/wire"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/viper"

	"github.com/lukasdietrich/rundbrief/internal/crypto"
	"github.com/lukasdietrich/rundbrief/internal/log"
)

// WireSet contains the providers of this package.
var WireSet = wire.NewSet(
	OptionsFromViper,
	NewLock,
)

// ErrHeld is returned if another process holds the lock.
var ErrHeld = errors.New("lock: held by another process")

const queueKey = "rundbrief:lock:queue"

func init() {
	viper.SetDefault("queue.lock.redis", "")
	viper.SetDefault("queue.lock.ttl", "30m")
}

// Options configure the queue lock.
type Options struct {
	// Redis is the address of the redis server. An empty address disables locking.
	Redis string
	TTL   time.Duration
}

// OptionsFromViper reads the lock options.
//
// `queue.lock.redis` is the `host:port` of a redis server.
// `queue.lock.ttl` is the duration after which a lock of a crashed process expires.
func OptionsFromViper() Options {
	return Options{
		Redis: viper.GetString("queue.lock.redis"),
		TTL:   viper.GetDuration("queue.lock.ttl"),
	}
}

// Lock is a mutual exclusion shared between processes.
type Lock interface {
	// Acquire takes the lock or returns ErrHeld.
	Acquire(context.Context) error
	// Release gives up the lock, if it is still owned by this process.
	Release(context.Context) error
}

// NewLock creates a redis backed lock, or a lock that always succeeds if no redis address is
// configured.
func NewLock(opts Options, codeGen crypto.CodeGenerator) (Lock, func(), error) {
	if opts.Redis == "" {
		return noopLock{}, func() {}, nil
	}

	client := redis.NewClient(&redis.Options{Addr: opts.Redis})
	lock, err := NewRedisLock(client, codeGen, opts.TTL)
	if err != nil {
		client.Close()
		return nil, nil, err
	}

	log.Info().
		Str("redis", opts.Redis).
		Dur("ttl", opts.TTL).
		Msg("using redis queue lock")

	return lock, func() { client.Close() }, nil
}

type noopLock struct{}

func (noopLock) Acquire(context.Context) error { return nil }
func (noopLock) Release(context.Context) error { return nil }

var releaseScript = redis.NewScript(`
	if redis.call("get", KEYS[1]) == ARGV[1] then
		return redis.call("del", KEYS[1])
	else
		return 0
	end
`)

type redisLock struct {
	client redis.Cmdable
	owner  string
	ttl    time.Duration
}

// NewRedisLock creates a lock on the queue key. The owner token is a random activation code.
func NewRedisLock(client redis.Cmdable, codeGen crypto.CodeGenerator, ttl time.Duration) (Lock, error) {
	owner, err := codeGen.GenerateCode()
	if err != nil {
		return nil, err
	}

	return &redisLock{
		client: client,
		owner:  owner,
		ttl:    ttl,
	}, nil
}

func (l *redisLock) Acquire(ctx context.Context) error {
	ok, err := l.client.SetNX(ctx, queueKey, l.owner, l.ttl).Result()
	if err != nil {
		return fmt.Errorf("could not acquire lock: %w", err)
	}

	if !ok {
		return ErrHeld
	}

	return nil
}

func (l *redisLock) Release(ctx context.Context) error {
	return releaseScript.Run(ctx, l.client, []string{queueKey}, l.owner).Err()
}
