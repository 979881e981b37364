// Package sessionstore persists exported gateway sessions so a login
// survives process restarts. Losing the session tokens while connected
// means the account keeps burning time with no way to log out.
package sessionstore

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/dgraph-io/badger/v4"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("sessionstore")

var ErrSessionNotFound = errors.New("no stored session for account")

const keyPrefix = "session:"

type Store struct {
	db *badger.DB
}

func NewStore(db *badger.DB) Store {
	return Store{db: db}
}

// Open opens (or creates) a session store at path.
func Open(path string) (Store, error) {
	db, err := badger.Open(badger.DefaultOptions(path).WithLogger(nil))
	if err != nil {
		return Store{}, err
	}
	return NewStore(db), nil
}

func (s Store) Close() error {
	return s.db.Close()
}

func (s Store) Save(ctx context.Context, username string, session map[string]string) error {
	_, span := tracer.Start(ctx, "store:Save")
	defer span.End()
	span.SetAttributes(attribute.KeyValue{
		Key:   "custom.account",
		Value: attribute.StringValue(username),
	})

	serialized, err := json.Marshal(session)
	if err != nil {
		span.SetStatus(codes.Error, "failed to serialize session")
		return err
	}
	err = s.db.Update(func(tx *badger.Txn) error {
		return tx.Set([]byte(keyPrefix+username), serialized)
	})
	if err != nil {
		span.SetStatus(codes.Error, "failed to write session")
		return err
	}
	return nil
}

func (s Store) Load(ctx context.Context, username string) (map[string]string, error) {
	_, span := tracer.Start(ctx, "store:Load")
	defer span.End()

	var serialized []byte
	err := s.db.View(func(tx *badger.Txn) error {
		item, err := tx.Get([]byte(keyPrefix + username))
		if err != nil {
			return err
		}
		serialized, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		span.SetStatus(codes.Error, "failed to read session")
		return nil, err
	}

	var session map[string]string
	err = json.Unmarshal(serialized, &session)
	if err != nil {
		span.SetStatus(codes.Error, "failed to deserialize session")
		return nil, err
	}
	return session, nil
}

func (s Store) Delete(ctx context.Context, username string) error {
	_, span := tracer.Start(ctx, "store:Delete")
	defer span.End()

	err := s.db.Update(func(tx *badger.Txn) error {
		return tx.Delete([]byte(keyPrefix + username))
	})
	if err != nil {
		span.SetStatus(codes.Error, "failed to delete session")
		return err
	}
	return nil
}

// List returns the accounts that have a stored session.
func (s Store) List(ctx context.Context) ([]string, error) {
	_, span := tracer.Start(ctx, "store:List")
	defer span.End()

	var usernames []string
	err := s.db.View(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = []byte(keyPrefix)
		it := tx.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			key := string(it.Item().Key())
			usernames = append(usernames, key[len(keyPrefix):])
		}
		return nil
	})
	if err != nil {
		span.SetStatus(codes.Error, "failed to iterate sessions")
		return nil, err
	}
	return usernames, nil
}
