// Package facade orchestrates the user registry, group stores, session
// table and search cache behind one operation per protocol verb.
//
// Every precondition check lives here: the protocol layer validates
// arity only, and the stores trust their callers. Operations return a
// success reply string or a tagged *Error so call sites handle every
// outcome explicitly.
package facade

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
	"unicode"

	"github.com/bpetkov/bookmarkd/internal/logger"
	"github.com/bpetkov/bookmarkd/pkg/bookmark"
	"github.com/bpetkov/bookmarkd/pkg/finder"
	"github.com/bpetkov/bookmarkd/pkg/session"
	"github.com/bpetkov/bookmarkd/pkg/shorten"
	"github.com/bpetkov/bookmarkd/pkg/store/group"
	"github.com/bpetkov/bookmarkd/pkg/store/user"
)

const minPasswordLength = 5

// defaultProbeTimeout bounds each URL health probe during cleanup so a
// hung site cannot stall the command indefinitely.
const defaultProbeTimeout = 5 * time.Second

// Tokenizer derives a title and keywords for a URL.
type Tokenizer interface {
	Title(ctx context.Context, url string) (string, error)
	Keywords(ctx context.Context, url string) ([]string, error)
}

// Shortener produces a shortened URL, falling back to the original on
// API failure. Returns shorten.ErrUnavailable when no key is
// configured.
type Shortener interface {
	Shorten(ctx context.Context, url string) (string, error)
}

// Importer loads bookmark groups from an external browser.
type Importer interface {
	Import(ctx context.Context) (map[string]*bookmark.Group, error)
}

// Manager is the command facade.
type Manager struct {
	users     user.Store
	groups    *group.Manager
	sessions  *session.Table
	finder    *finder.Finder
	tokenizer Tokenizer
	shortener Shortener
	importer  Importer

	probeClient  *http.Client
	probeTimeout time.Duration
}

// Options carries the optional collaborators and tuning knobs of a
// Manager.
type Options struct {
	Tokenizer Tokenizer
	Shortener Shortener
	Importer  Importer

	// ProbeClient issues the URL health probes of CleanUp.
	// Defaults to a dedicated client with ProbeTimeout.
	ProbeClient *http.Client

	// ProbeTimeout bounds each health probe. Default 5s.
	ProbeTimeout time.Duration
}

// New creates a Manager over the given stores.
func New(users user.Store, groups *group.Manager, sessions *session.Table, opts Options) *Manager {
	if opts.ProbeTimeout <= 0 {
		opts.ProbeTimeout = defaultProbeTimeout
	}
	if opts.ProbeClient == nil {
		opts.ProbeClient = &http.Client{Timeout: opts.ProbeTimeout}
	}

	m := &Manager{
		users:        users,
		groups:       groups,
		sessions:     sessions,
		tokenizer:    opts.Tokenizer,
		shortener:    opts.Shortener,
		importer:     opts.Importer,
		probeClient:  opts.ProbeClient,
		probeTimeout: opts.ProbeTimeout,
	}
	m.finder = finder.New(m.flattenUser)
	return m
}

// Sessions exposes the session table for connection teardown and
// metrics.
func (m *Manager) Sessions() *session.Table {
	return m.sessions
}

// Register creates a new user with an empty group store.
func (m *Manager) Register(ctx context.Context, username, password string) (string, error) {
	if strings.TrimSpace(username) == "" || strings.TrimSpace(password) == "" {
		return "", newError(ErrValidation, "Username/password must not be blank!")
	}
	if !validPassword(password) {
		return "", newError(ErrPasswordPolicy, "Password must consist of at least five characters and "+
			"contain at least one capital letter, one small letter and one digit.")
	}

	if _, err := m.users.Register(ctx, username, password); err != nil {
		if errors.Is(err, user.ErrAlreadyExists) {
			return "", newError(ErrUserExists, "User with username %s already exists!", username)
		}
		return "", m.internal("register", err)
	}

	return fmt.Sprintf("User %s has been successfully registered.", username), nil
}

// Login binds the connection to the user after checking credentials.
// NoSuchUser and InvalidCredentials share one reply so a probing client
// cannot tell registered usernames apart.
func (m *Manager) Login(ctx context.Context, connID, username, password string) (string, error) {
	if strings.TrimSpace(username) == "" || strings.TrimSpace(password) == "" {
		return "", newError(ErrValidation, "Username/password must not be blank!")
	}

	u, err := m.users.Get(ctx, username)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return "", newError(ErrNoSuchUser, "Invalid user's credentials (username or password)!")
		}
		return "", m.internal("login", err)
	}

	if _, loggedIn := m.sessions.Username(connID); loggedIn {
		return "", newError(ErrAlreadyLoggedIn, "User with username %s has already logged in!", username)
	}

	if u.Password != password {
		return "", newError(ErrInvalidCredentials, "Invalid user's credentials (username or password)!")
	}

	m.sessions.Login(connID, username)
	return fmt.Sprintf("User with name %s has successfully logged in.", username), nil
}

// CreateGroup inserts an empty bookmark group for the logged-in user.
func (m *Manager) CreateGroup(ctx context.Context, connID, name string) (string, error) {
	username, gs, err := m.authenticated(ctx, connID)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(name) == "" {
		return "", newError(ErrValidation, "Invalid command's parameters: group name must not be blank!")
	}

	if err := gs.Create(ctx, name); err != nil {
		if errors.Is(err, group.ErrGroupExists) {
			return "", newError(ErrGroupExists, "Such a group already exists. Please, try with another name.")
		}
		return "", m.internal("new-group", err)
	}

	return fmt.Sprintf("Successful creation of bookmarks group %s for user %s", name, username), nil
}

// AddBookmark builds a bookmark from the URL via the tokenizer and
// inserts it. Adding an identical bookmark twice is a silent success.
func (m *Manager) AddBookmark(ctx context.Context, connID, groupName, url string, shortenURL bool) (string, error) {
	username, gs, err := m.authenticated(ctx, connID)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(groupName) == "" || strings.TrimSpace(url) == "" {
		return "", newError(ErrValidation, "Invalid command's parameters: group name and bookmark must not be blank!")
	}
	if !gs.Contains(groupName) {
		return "", newError(ErrNoSuchGroup, "User does not have such a group/bookmark!")
	}

	storedURL := url
	if shortenURL {
		if m.shortener == nil {
			return "", newError(ErrShortenUnavailable, "Could not shorten link! Original url returned!")
		}
		storedURL, err = m.shortener.Shorten(ctx, url)
		if err != nil {
			if errors.Is(err, shorten.ErrUnavailable) {
				return "", newError(ErrShortenUnavailable, "Could not shorten link! Original url returned!")
			}
			return "", m.internal("add-to", err)
		}
	}

	b := m.buildBookmark(ctx, groupName, url, storedURL)
	if _, err := gs.Add(ctx, groupName, b); err != nil {
		if errors.Is(err, group.ErrNoSuchGroup) {
			return "", newError(ErrNoSuchGroup, "User does not have such a group/bookmark!")
		}
		return "", m.internal("add-to", err)
	}
	m.finder.Invalidate(username)

	return fmt.Sprintf("Successful add of bookmark %s to group %s of user %s",
		storedURL, groupName, username), nil
}

// RemoveBookmark removes the bookmark whose title matches the given one
// case-insensitively.
func (m *Manager) RemoveBookmark(ctx context.Context, connID, groupName, title string) (string, error) {
	username, gs, err := m.authenticated(ctx, connID)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(groupName) == "" || strings.TrimSpace(title) == "" {
		return "", newError(ErrValidation, "Invalid command's parameters: group name and bookmark must not be blank!")
	}

	if err := gs.Remove(ctx, groupName, title); err != nil {
		switch {
		case errors.Is(err, group.ErrNoSuchGroup):
			return "", newError(ErrNoSuchGroup, "User does not have such a group/bookmark!")
		case errors.Is(err, group.ErrNoSuchBookmark):
			return "", newError(ErrNoSuchBookmark, "User does not have such a group/bookmark!")
		default:
			return "", m.internal("remove-from", err)
		}
	}
	m.finder.Invalidate(username)

	return fmt.Sprintf("Successful remove of bookmark %s from group %s of user %s",
		title, groupName, username), nil
}

// CleanUp probes every bookmark URL of the user and removes the dead
// ones. The snapshot is rewritten only when something was removed.
func (m *Manager) CleanUp(ctx context.Context, connID string) (string, error) {
	username, gs, err := m.authenticated(ctx, connID)
	if err != nil {
		return "", err
	}

	bad := make(map[string]bool)
	for _, b := range gs.Flatten() {
		if bad[b.URL] {
			continue
		}
		if !m.probe(ctx, b.URL) {
			bad[b.URL] = true
		}
	}

	removed, err := gs.PruneURLs(ctx, bad)
	if err != nil {
		return "", m.internal("cleanup", err)
	}
	if removed > 0 {
		m.finder.Invalidate(username)
	}
	logger.Debug("Cleanup for user %s removed %d bookmarks", username, removed)

	return fmt.Sprintf("Successful removal of user's %s invalid bookmarks (if there were such)",
		username), nil
}

// ListAll returns every bookmark of the logged-in user.
func (m *Manager) ListAll(ctx context.Context, connID string) ([]bookmark.Bookmark, error) {
	username, err := m.loggedInUser(connID)
	if err != nil {
		return nil, err
	}
	list, err := m.finder.ByUser(ctx, username)
	if err != nil {
		return nil, m.internal("list", err)
	}
	return list, nil
}

// ListByGroup returns the bookmarks of one group, matched exactly.
func (m *Manager) ListByGroup(ctx context.Context, connID, groupName string) ([]bookmark.Bookmark, error) {
	username, err := m.loggedInUser(connID)
	if err != nil {
		return nil, err
	}
	list, err := m.finder.ByGroup(ctx, username, groupName)
	if err != nil {
		return nil, m.internal("list", err)
	}
	return list, nil
}

// SearchByTags returns the bookmarks whose keywords contain every tag.
func (m *Manager) SearchByTags(ctx context.Context, connID string, tags []string) ([]bookmark.Bookmark, error) {
	username, err := m.loggedInUser(connID)
	if err != nil {
		return nil, err
	}
	list, err := m.finder.ByTags(ctx, username, tags)
	if err != nil {
		return nil, m.internal("search", err)
	}
	return list, nil
}

// SearchByTitle returns the bookmarks whose title contains the query,
// ignoring case.
func (m *Manager) SearchByTitle(ctx context.Context, connID, title string) ([]bookmark.Bookmark, error) {
	username, err := m.loggedInUser(connID)
	if err != nil {
		return nil, err
	}
	list, err := m.finder.ByTitle(ctx, username, title)
	if err != nil {
		return nil, m.internal("search", err)
	}
	return list, nil
}

// ImportFromChrome merges the browser's bookmark groups into the user's
// store. Same-named existing groups are never overwritten. Returns the
// newly imported bookmarks.
func (m *Manager) ImportFromChrome(ctx context.Context, connID string) ([]bookmark.Bookmark, error) {
	username, gs, err := m.authenticated(ctx, connID)
	if err != nil {
		return nil, err
	}
	if m.importer == nil {
		return nil, nil
	}

	imported, err := m.importer.Import(ctx)
	if err != nil {
		logger.Warn("Chrome import failed for user %s: %v", username, err)
		return nil, nil
	}

	added, err := gs.Merge(ctx, imported)
	if err != nil {
		return nil, m.internal("import-from-chrome", err)
	}
	if len(added) > 0 {
		m.finder.Invalidate(username)
	}
	return added, nil
}

// Teardown drops the connection's session without flushing any
// snapshot. Mutators are write-through, so a peer that vanishes
// mid-session loses nothing; only the explicit disconnect verb
// triggers the final flush.
func (m *Manager) Teardown(connID string) {
	m.sessions.Logout(connID)
}

// Disconnect flushes the user's groups and the user registry, then
// drops the session. Disconnecting a connection with no session only
// flushes the registry.
func (m *Manager) Disconnect(ctx context.Context, connID string) error {
	if username, ok := m.sessions.Username(connID); ok {
		if u, err := m.users.Get(ctx, username); err == nil {
			gs, err := m.groups.For(ctx, u.GroupsKey)
			if err == nil {
				err = gs.Flush(ctx)
			}
			if err != nil {
				logger.Error("Failed to flush groups of user %s on disconnect: %v", username, err)
			}
		}
		m.sessions.Logout(connID)
	}

	if err := m.users.Save(ctx); err != nil {
		logger.Error("Failed to flush user registry on disconnect: %v", err)
		return m.internal("disconnect", err)
	}
	return nil
}

// authenticated resolves the connection to a username and its group
// store, looking the user up fresh so concurrent updates are observed.
func (m *Manager) authenticated(ctx context.Context, connID string) (string, *group.Store, error) {
	username, err := m.loggedInUser(connID)
	if err != nil {
		return "", nil, err
	}

	u, err := m.users.Get(ctx, username)
	if err != nil {
		return "", nil, m.internal("session", err)
	}
	gs, err := m.groups.For(ctx, u.GroupsKey)
	if err != nil {
		return "", nil, m.internal("session", err)
	}
	return username, gs, nil
}

func (m *Manager) loggedInUser(connID string) (string, error) {
	username, ok := m.sessions.Username(connID)
	if !ok {
		return "", newError(ErrNotLoggedIn, "User must have logged in before using the app's commands!")
	}
	return username, nil
}

func (m *Manager) flattenUser(ctx context.Context, username string) ([]bookmark.Bookmark, error) {
	u, err := m.users.Get(ctx, username)
	if err != nil {
		return nil, err
	}
	gs, err := m.groups.For(ctx, u.GroupsKey)
	if err != nil {
		return nil, err
	}
	return gs.Flatten(), nil
}

// buildBookmark derives the bookmark's title and keywords from the
// page. Tokenizer failures are tolerated: the bookmark is stored with
// an empty title and no keywords.
func (m *Manager) buildBookmark(ctx context.Context, groupName, fetchURL, storedURL string) bookmark.Bookmark {
	var title string
	var keywords []string
	if m.tokenizer != nil {
		var err error
		title, err = m.tokenizer.Title(ctx, fetchURL)
		if err != nil {
			logger.Warn("Failed to derive title for %s: %v", fetchURL, err)
			title = ""
		}
		keywords, err = m.tokenizer.Keywords(ctx, fetchURL)
		if err != nil {
			logger.Warn("Failed to derive keywords for %s: %v", fetchURL, err)
			keywords = nil
		}
	}

	return bookmark.Bookmark{
		Title:    title,
		URL:      storedURL,
		Keywords: keywords,
		Group:    groupName,
	}
}

// probe reports whether the URL answers an HTTP GET with a status
// below 400 within the probe timeout.
func (m *Manager) probe(ctx context.Context, url string) bool {
	probeCtx, cancel := context.WithTimeout(ctx, m.probeTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(probeCtx, http.MethodGet, url, nil)
	if err != nil {
		return false
	}
	resp, err := m.probeClient.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode < 400
}

func (m *Manager) internal(op string, err error) *Error {
	logger.Error("Operation %s failed: %v", op, err)
	return &Error{Code: ErrInternal, Message: "Internal server error. Please, try again later."}
}

func validPassword(password string) bool {
	if len(password) < minPasswordLength {
		return false
	}
	var upper, lower, digit bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		}
	}
	return upper && lower && digit
}
