// Package badger implements the user registry on BadgerDB.
//
// Unlike the file backend, every registration is committed to the
// database immediately, so Save is a no-op and the registry survives
// crashes without an explicit flush.
//
// Key Namespace:
//
//	Data Type   Prefix   Key Format      Value Type
//	=================================================
//	User Data   "u:"     u:<username>    User (JSON)
package badger

import (
	"context"
	"encoding/json"
	"fmt"

	badger "github.com/dgraph-io/badger/v4"

	"github.com/bpetkov/bookmarkd/pkg/store/user"
)

// BadgerUserStore implements user.Store backed by BadgerDB.
//
// Thread safety is provided by BadgerDB's transactions; no additional
// locking is required.
type BadgerUserStore struct {
	db *badger.DB
}

// BadgerUserStoreConfig configures NewBadgerUserStore.
type BadgerUserStoreConfig struct {
	// DBPath is the directory holding the BadgerDB files (required)
	DBPath string
}

func keyUser(username string) []byte {
	return []byte("u:" + username)
}

// NewBadgerUserStore opens (or creates) the database at cfg.DBPath.
func NewBadgerUserStore(ctx context.Context, cfg BadgerUserStoreConfig) (*BadgerUserStore, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if cfg.DBPath == "" {
		return nil, fmt.Errorf("badger user store: db_path is required")
	}

	opts := badger.DefaultOptions(cfg.DBPath)
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger database: %w", err)
	}

	return &BadgerUserStore{db: db}, nil
}

func (s *BadgerUserStore) Register(ctx context.Context, username, password string) (*user.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	u := &user.User{
		Username:  username,
		Password:  password,
		GroupsKey: user.GroupsKeyFor(username),
	}

	err := s.db.Update(func(txn *badger.Txn) error {
		_, err := txn.Get(keyUser(username))
		if err == nil {
			return user.ErrAlreadyExists
		}
		if err != badger.ErrKeyNotFound {
			return fmt.Errorf("failed to check user %s: %w", username, err)
		}

		data, err := json.Marshal(u)
		if err != nil {
			return fmt.Errorf("failed to encode user %s: %w", username, err)
		}
		return txn.Set(keyUser(username), data)
	})
	if err != nil {
		return nil, err
	}

	return u, nil
}

func (s *BadgerUserStore) Get(ctx context.Context, username string) (*user.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var u user.User
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(keyUser(username))
		if err != nil {
			if err == badger.ErrKeyNotFound {
				return user.ErrNotFound
			}
			return fmt.Errorf("failed to read user %s: %w", username, err)
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &u)
		})
	})
	if err != nil {
		return nil, err
	}

	return &u, nil
}

// Save is a no-op; registrations are committed as they happen.
func (s *BadgerUserStore) Save(ctx context.Context) error {
	return ctx.Err()
}

func (s *BadgerUserStore) Close() error {
	return s.db.Close()
}
