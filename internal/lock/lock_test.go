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

package lock

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/lukasdietrich/rundbrief/internal/crypto"
)

func TestOptionsFromViper(t *testing.T) {
	viper.Set("queue.lock.redis", "redis:6379")
	viper.Set("queue.lock.ttl", "10m")

	assert.Equal(t, Options{Redis: "redis:6379", TTL: 10 * time.Minute}, OptionsFromViper())
}

func TestNewLockWithoutRedis(t *testing.T) {
	lock, cleanup, err := NewLock(Options{}, new(crypto.MockCodeGenerator))
	require.NoError(t, err)
	defer cleanup()

	assert.NoError(t, lock.Acquire(context.Background()))
	assert.NoError(t, lock.Acquire(context.Background()))
	assert.NoError(t, lock.Release(context.Background()))
}

func TestRedisLockTestSuite(t *testing.T) {
	suite.Run(t, new(RedisLockTestSuite))
}

type RedisLockTestSuite struct {
	suite.Suite

	ctx    context.Context
	server *miniredis.Miniredis
	client *redis.Client
}

func (s *RedisLockTestSuite) SetupTest() {
	s.ctx = context.Background()
	s.server = miniredis.RunT(s.T())
	s.client = redis.NewClient(&redis.Options{Addr: s.server.Addr()})
}

func (s *RedisLockTestSuite) TearDownTest() {
	s.client.Close()
}

func (s *RedisLockTestSuite) newLock(owner string) Lock {
	codeGen := new(crypto.MockCodeGenerator)
	codeGen.On("GenerateCode").Return(owner, nil)

	lock, err := NewRedisLock(s.client, codeGen, time.Minute)
	s.Require().NoError(err)

	return lock
}

func (s *RedisLockTestSuite) TestAcquireExclusive() {
	first := s.newLock("first")
	second := s.newLock("second")

	s.Require().NoError(first.Acquire(s.ctx))
	s.Assert().ErrorIs(second.Acquire(s.ctx), ErrHeld)

	s.Require().NoError(first.Release(s.ctx))
	s.Assert().NoError(second.Acquire(s.ctx))
}

func (s *RedisLockTestSuite) TestReleaseKeepsForeignLock() {
	first := s.newLock("first")
	second := s.newLock("second")

	s.Require().NoError(first.Acquire(s.ctx))
	s.Require().NoError(second.Release(s.ctx))

	owner, err := s.server.Get(queueKey)
	s.Require().NoError(err)
	s.Assert().Equal("first", owner)
}

func (s *RedisLockTestSuite) TestExpires() {
	first := s.newLock("first")
	second := s.newLock("second")

	s.Require().NoError(first.Acquire(s.ctx))
	s.server.FastForward(2 * time.Minute)

	s.Assert().NoError(second.Acquire(s.ctx))
}

func (s *RedisLockTestSuite) TestAcquireConnectionError() {
	lock := s.newLock("first")
	s.server.Close()

	err := lock.Acquire(s.ctx)
	s.Assert().Error(err)
	s.Assert().NotErrorIs(err, ErrHeld)
}
