// Package session tracks which connection is logged in as which user.
//
// Sessions carry usernames only. Anything else about the account is
// looked up fresh from the user store when a command runs, so a record
// updated by one connection is immediately visible to the others.
package session

import "sync"

// Table maps connection IDs to logged-in usernames.
type Table struct {
	mu       sync.Mutex
	sessions map[string]string
}

// NewTable creates an empty session table.
func NewTable() *Table {
	return &Table{sessions: make(map[string]string)}
}

// Login binds the connection to the username, replacing any previous
// binding for that connection.
func (t *Table) Login(connID, username string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.sessions[connID] = username
}

// Logout removes the connection's binding. Safe to call when the
// connection is not logged in.
func (t *Table) Logout(connID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.sessions, connID)
}

// Username returns the username bound to the connection, if any.
func (t *Table) Username(connID string) (string, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	username, ok := t.sessions[connID]
	return username, ok
}

// Len returns the number of logged-in connections.
func (t *Table) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.sessions)
}
