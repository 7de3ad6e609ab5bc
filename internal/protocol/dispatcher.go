package protocol

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/bpetkov/bookmarkd/pkg/bookmark"
	"github.com/bpetkov/bookmarkd/pkg/facade"
	"github.com/bpetkov/bookmarkd/pkg/metrics"
)

// Command verbs.
const (
	VerbRegister   = "register"
	VerbLogin      = "login"
	VerbNewGroup   = "new-group"
	VerbAdd        = "add-to"
	VerbRemove     = "remove-from"
	VerbList       = "list"
	VerbSearch     = "search"
	VerbCleanup    = "cleanup"
	VerbImport     = "import-from-chrome"
	VerbDisconnect = "disconnect"
	VerbHelp       = "?"
)

const (
	shortenFlag   = "--shorten"
	groupNameFlag = "--group-name"
	tagsFlag      = "--tags"
	titleFlag     = "--title"
)

const (
	invalidFormatMessage = "Command format expected: %s. Provided: %s."
	unknownCommandMessage = "There is no such command. " +
		"Please, type '?' to see the possible commands and use this app wholesomely."
	notLoggedWarning = "User must have logged in before using the app's commands!"
)

// usage holds the static per-verb command templates shown in arity
// error replies and the help listing.
var usage = map[string]string{
	VerbRegister:   "register <username> <password>",
	VerbLogin:      "login <username> <password>",
	VerbNewGroup:   "new-group <group-name>",
	VerbAdd:        "add-to <group-name> <bookmark> {--shorten}",
	VerbRemove:     "remove-from <group-name> <bookmark>",
	VerbList:       "list",
	VerbSearch:     "search --tags <tag>... or search --title <title>",
	VerbCleanup:    "cleanup",
	VerbImport:     "import-from-chrome",
	VerbDisconnect: "disconnect",
	VerbHelp:       "?",
}

const listGroupUsage = "list --group-name <group-name>"

// Dispatcher validates command arity and translates facade results
// into reply strings. Domain errors never cross this boundary: every
// outcome becomes one line of text.
type Dispatcher struct {
	manager *facade.Manager
	metrics metrics.CommandMetrics
}

// NewDispatcher creates a Dispatcher over the facade.
func NewDispatcher(manager *facade.Manager, cmdMetrics metrics.CommandMetrics) *Dispatcher {
	if cmdMetrics == nil {
		cmdMetrics = metrics.NewCommandMetrics()
	}
	return &Dispatcher{manager: manager, metrics: cmdMetrics}
}

// Execute parses one request line, runs the selected operation for the
// given connection and returns the reply to send back.
func (d *Dispatcher) Execute(ctx context.Context, connID, line string) string {
	cmd := Parse(line)

	start := time.Now()
	reply, err := d.dispatch(ctx, connID, cmd)
	d.metrics.RecordCommand(cmd.Verb, time.Since(start), err)
	d.metrics.SetActiveSessions(d.manager.Sessions().Len())

	if err != nil {
		if facade.IsNotLoggedIn(err) {
			return notLoggedWarning
		}
		return err.Error()
	}
	return reply
}

func (d *Dispatcher) dispatch(ctx context.Context, connID string, cmd Command) (string, error) {
	switch cmd.Verb {
	case VerbRegister:
		if len(cmd.Args) != 2 {
			return d.usageError(cmd), nil
		}
		return d.manager.Register(ctx, cmd.Args[0], cmd.Args[1])

	case VerbLogin:
		if len(cmd.Args) != 2 {
			return d.usageError(cmd), nil
		}
		return d.manager.Login(ctx, connID, cmd.Args[0], cmd.Args[1])

	case VerbNewGroup:
		if len(cmd.Args) != 1 {
			return d.usageError(cmd), nil
		}
		return d.manager.CreateGroup(ctx, connID, cmd.Args[0])

	case VerbAdd:
		return d.addBookmark(ctx, connID, cmd)

	case VerbRemove:
		if len(cmd.Args) != 2 {
			return d.usageError(cmd), nil
		}
		return d.manager.RemoveBookmark(ctx, connID, cmd.Args[0], cmd.Args[1])

	case VerbList:
		return d.list(ctx, connID, cmd)

	case VerbSearch:
		return d.search(ctx, connID, cmd)

	case VerbCleanup:
		if len(cmd.Args) != 0 {
			return d.usageError(cmd), nil
		}
		return d.manager.CleanUp(ctx, connID)

	case VerbImport:
		return d.importFromChrome(ctx, connID, cmd)

	case VerbDisconnect:
		if len(cmd.Args) != 0 {
			return d.usageError(cmd), nil
		}
		if err := d.manager.Disconnect(ctx, connID); err != nil {
			return "", err
		}
		return "Client has been successfully disconnected from server.", nil

	case VerbHelp:
		return helpText(), nil

	default:
		return unknownCommandMessage, nil
	}
}

func (d *Dispatcher) addBookmark(ctx context.Context, connID string, cmd Command) (string, error) {
	switch {
	case len(cmd.Args) == 2:
		return d.manager.AddBookmark(ctx, connID, cmd.Args[0], cmd.Args[1], false)
	case len(cmd.Args) == 3 && cmd.Args[2] == shortenFlag:
		return d.manager.AddBookmark(ctx, connID, cmd.Args[0], cmd.Args[1], true)
	default:
		return d.usageError(cmd), nil
	}
}

func (d *Dispatcher) list(ctx context.Context, connID string, cmd Command) (string, error) {
	switch {
	case len(cmd.Args) == 0:
		bookmarks, err := d.manager.ListAll(ctx, connID)
		if err != nil {
			return "", err
		}
		return "List of all bookmarks: " + renderBookmarks(bookmarks), nil

	case len(cmd.Args) == 2 && cmd.Args[0] == groupNameFlag:
		bookmarks, err := d.manager.ListByGroup(ctx, connID, cmd.Args[1])
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("Bookmarks of group %s: %s", cmd.Args[1], renderBookmarks(bookmarks)), nil

	default:
		return fmt.Sprintf(invalidFormatMessage,
			usage[VerbList]+" or "+listGroupUsage, cmd.String()), nil
	}
}

func (d *Dispatcher) search(ctx context.Context, connID string, cmd Command) (string, error) {
	switch {
	case len(cmd.Args) >= 2 && cmd.Args[0] == tagsFlag:
		bookmarks, err := d.manager.SearchByTags(ctx, connID, cmd.Args[1:])
		if err != nil {
			return "", err
		}
		return renderBookmarks(bookmarks), nil

	case len(cmd.Args) == 2 && cmd.Args[0] == titleFlag:
		bookmarks, err := d.manager.SearchByTitle(ctx, connID, cmd.Args[1])
		if err != nil {
			return "", err
		}
		return renderBookmarks(bookmarks), nil

	default:
		return d.usageError(cmd), nil
	}
}

func (d *Dispatcher) importFromChrome(ctx context.Context, connID string, cmd Command) (string, error) {
	if len(cmd.Args) != 0 {
		return d.usageError(cmd), nil
	}

	imported, err := d.manager.ImportFromChrome(ctx, connID)
	if err != nil {
		return "", err
	}
	if len(imported) == 0 {
		return "No Chrome bookmarks to be imported", nil
	}
	return "List of Chrome bookmarks imported: " + renderBookmarks(imported), nil
}

func (d *Dispatcher) usageError(cmd Command) string {
	return fmt.Sprintf(invalidFormatMessage, usage[cmd.Verb], cmd.String())
}

func renderBookmarks(bookmarks []bookmark.Bookmark) string {
	rendered := make([]string, len(bookmarks))
	for i, b := range bookmarks {
		rendered[i] = b.String()
	}
	return "[" + strings.Join(rendered, ", ") + "]"
}

func helpText() string {
	templates := make([]string, 0, len(usage)+1)
	for verb, template := range usage {
		if verb == VerbList {
			template += " or " + listGroupUsage
		}
		templates = append(templates, template)
	}
	sort.Strings(templates)
	return "Available commands: " + strings.Join(templates, "; ")
}
