// Package user defines the durable registry of registered users.
//
// A user owns exactly one bookmark-groups snapshot, referenced by the
// GroupsKey field; the key is assigned at registration and never changes.
package user

import (
	"context"
	"errors"
	"fmt"
)

// ErrNotFound is returned by Get when no user has the given name.
var ErrNotFound = errors.New("no such user")

// ErrAlreadyExists is returned by Register when the username is taken.
var ErrAlreadyExists = errors.New("user already exists")

// User is one registry record. Passwords are stored as given; the
// registry does not hash them.
type User struct {
	Username string `json:"username"`
	Password string `json:"password"`

	// GroupsKey is the snapshot key of this user's bookmark groups file
	GroupsKey string `json:"groups_key"`
}

// GroupsKeyFor derives the snapshot key owning a user's groups.
func GroupsKeyFor(username string) string {
	return fmt.Sprintf("groups/%s.json", username)
}

// Store is the durable user registry.
//
// Register enforces username uniqueness only; argument validation
// (blank names, password policy) is the facade's job.
type Store interface {
	// Register creates a user with a fresh groups key.
	// Returns ErrAlreadyExists if the username is taken.
	Register(ctx context.Context, username, password string) (*User, error)

	// Get looks up a user by name. Returns ErrNotFound if absent.
	Get(ctx context.Context, username string) (*User, error)

	// Save flushes the registry snapshot to durable storage. Backends
	// that persist on every mutation may treat this as a no-op.
	Save(ctx context.Context) error

	// Close releases backend resources.
	Close() error
}
