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

// Package credentials looks up secrets from the system keyring, so they do not have to be stored
// in the configuration file.
package credentials

import (
	"fmt"
	"sync"

	"github.com/99designs/keyring"
	"github.com/google/wire"
	"github.com/spf13/viper"
)

// WireSet contains the providers of this package.
var WireSet = wire.NewSet(
	OptionsFromViper,
	NewStore,
)

const serviceName = "rundbrief"

func init() {
	viper.SetDefault("keyring.backend", "")
	viper.SetDefault("keyring.directory", "data/keyring")
}

// Options configure the keyring.
type Options struct {
	// Backend restricts the keyring to a single backend type (e.g. `file`, `secret-service`).
	Backend   string
	Directory string
	Password  string
}

// OptionsFromViper reads the keyring options.
//
// `keyring.backend` is the keyring backend to use, empty for the system default.
// `keyring.directory` is the folder of the encrypted file backend.
// `keyring.password` is the passphrase of the encrypted file backend.
func OptionsFromViper() Options {
	return Options{
		Backend:   viper.GetString("keyring.backend"),
		Directory: viper.GetString("keyring.directory"),
		Password:  viper.GetString("keyring.password"),
	}
}

// Store provides secrets by key.
type Store interface {
	// Get returns the secret stored at key.
	Get(key string) (string, error)
	// Set stores a secret at key.
	Set(key, value string) error
}

type keyringStore struct {
	open func() (keyring.Keyring, error)

	once sync.Once
	ring keyring.Keyring
	err  error
}

// NewStore creates a store, that opens the keyring on first use.
func NewStore(opts Options) Store {
	return &keyringStore{
		open: func() (keyring.Keyring, error) {
			return keyring.Open(keyringConfig(opts))
		},
	}
}

// NewStoreWithKeyring creates a store backed by an already opened keyring.
func NewStoreWithKeyring(ring keyring.Keyring) Store {
	return &keyringStore{
		open: func() (keyring.Keyring, error) {
			return ring, nil
		},
	}
}

func keyringConfig(opts Options) keyring.Config {
	config := keyring.Config{
		ServiceName:      serviceName,
		FileDir:          opts.Directory,
		FilePasswordFunc: keyring.FixedStringPrompt(opts.Password),
	}

	if opts.Backend != "" {
		config.AllowedBackends = []keyring.BackendType{keyring.BackendType(opts.Backend)}
	}

	return config
}

func (s *keyringStore) keyring() (keyring.Keyring, error) {
	s.once.Do(func() {
		s.ring, s.err = s.open()
		if s.err != nil {
			s.err = fmt.Errorf("could not open keyring: %w", s.err)
		}
	})

	return s.ring, s.err
}

func (s *keyringStore) Get(key string) (string, error) {
	ring, err := s.keyring()
	if err != nil {
		return "", err
	}

	item, err := ring.Get(key)
	if err != nil {
		return "", fmt.Errorf("could not get secret %q: %w", key, err)
	}

	return string(item.Data), nil
}

func (s *keyringStore) Set(key, value string) error {
	ring, err := s.keyring()
	if err != nil {
		return err
	}

	if err := ring.Set(keyring.Item{Key: key, Data: []byte(value)}); err != nil {
		return fmt.Errorf("could not set secret %q: %w", key, err)
	}

	return nil
}

// Resolve returns the plain value if it is set and looks up key otherwise. Both being empty
// resolves to an empty secret.
func Resolve(store Store, value, key string) (string, error) {
	if value != "" || key == "" {
		return value, nil
	}

	return store.Get(key)
}
