package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dgraph-io/badger/v4"

	"github.com/zpam/spam-nb/pkg/config"
	"github.com/zpam/spam-nb/pkg/learning"
)

const badgerKeyPrefix = "model:"

// BadgerStore keeps models in an embedded Badger database
type BadgerStore struct {
	db *badger.DB
}

// NewBadgerStore opens the database at cfg.Path, or in memory
func NewBadgerStore(cfg config.BadgerConfig) (*BadgerStore, error) {
	opts := badger.DefaultOptions(cfg.Path).WithLogger(nil)
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true).WithLogger(nil)
	}
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to open badger store: %w", learning.ErrIO, err)
	}
	return NewBadgerStoreFromDB(db), nil
}

// NewBadgerStoreFromDB wraps an open database. Close closes it.
func NewBadgerStoreFromDB(db *badger.DB) *BadgerStore {
	return &BadgerStore{db: db}
}

func badgerKey(name string) []byte {
	return []byte(badgerKeyPrefix + name)
}

// Save writes a model
func (s *BadgerStore) Save(_ context.Context, name string, model *learning.Model) error {
	if err := ValidateName(name); err != nil {
		return err
	}
	data, err := Encode(model)
	if err != nil {
		return err
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(badgerKey(name), data)
	})
	if err != nil {
		return fmt.Errorf("%w: failed to save model %s: %w", learning.ErrIO, name, err)
	}
	return nil
}

// Load reads a model
func (s *BadgerStore) Load(_ context.Context, name string) (*learning.Model, error) {
	if err := ValidateName(name); err != nil {
		return nil, err
	}

	var data []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(badgerKey(name))
		if err != nil {
			return err
		}
		data, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, notFound(name)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: failed to load model %s: %w", learning.ErrIO, name, err)
	}
	return Decode(data)
}

// Delete removes a model
func (s *BadgerStore) Delete(_ context.Context, name string) error {
	if err := ValidateName(name); err != nil {
		return err
	}

	err := s.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get(badgerKey(name)); err != nil {
			return err
		}
		return txn.Delete(badgerKey(name))
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return notFound(name)
	}
	if err != nil {
		return fmt.Errorf("%w: failed to delete model %s: %w", learning.ErrIO, name, err)
	}
	return nil
}

// List returns stored model names in key order
func (s *BadgerStore) List(_ context.Context) ([]string, error) {
	var names []string
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = []byte(badgerKeyPrefix)

		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			names = append(names, strings.TrimPrefix(string(it.Item().Key()), badgerKeyPrefix))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: failed to list models: %w", learning.ErrIO, err)
	}
	return names, nil
}

// Close closes the database
func (s *BadgerStore) Close() error {
	return s.db.Close()
}
