package protocol

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bpetkov/bookmarkd/pkg/facade"
	"github.com/bpetkov/bookmarkd/pkg/session"
	"github.com/bpetkov/bookmarkd/pkg/store/group"
	"github.com/bpetkov/bookmarkd/pkg/store/snapshot/memory"
	"github.com/bpetkov/bookmarkd/pkg/store/user/file"
)

type staticTokenizer struct{}

func (staticTokenizer) Title(ctx context.Context, url string) (string, error) {
	return "Some-Title", nil
}

func (staticTokenizer) Keywords(ctx context.Context, url string) ([]string, error) {
	return []string{"go"}, nil
}

func newTestDispatcher(t *testing.T) *Dispatcher {
	t.Helper()
	blobs := memory.NewMemorySnapshotStore()
	users, err := file.NewFileUserStore(context.Background(), blobs)
	require.NoError(t, err)
	manager := facade.New(users, group.NewManager(blobs), session.NewTable(), facade.Options{
		Tokenizer: staticTokenizer{},
	})
	return NewDispatcher(manager, nil)
}

func TestParse(t *testing.T) {
	cmd := Parse("  add-to   dev    http://x.test \n")
	assert.Equal(t, "add-to", cmd.Verb)
	assert.Equal(t, []string{"dev", "http://x.test"}, cmd.Args)

	blank := Parse("   \t  ")
	assert.Equal(t, "", blank.Verb)
	assert.Empty(t, blank.Args)
}

func TestUnknownCommand(t *testing.T) {
	d := newTestDispatcher(t)
	reply := d.Execute(context.Background(), "conn-1", "frobnicate now")
	assert.Equal(t, unknownCommandMessage, reply)

	// A blank line is reported the same way.
	reply = d.Execute(context.Background(), "conn-1", "  ")
	assert.Equal(t, unknownCommandMessage, reply)
}

func TestArityMismatchShowsUsage(t *testing.T) {
	d := newTestDispatcher(t)
	reply := d.Execute(context.Background(), "conn-1", "register alice")
	assert.Equal(t, "Command format expected: register <username> <password>. Provided: register alice.", reply)
}

func TestDisconnectWithArgsShowsUsage(t *testing.T) {
	d := newTestDispatcher(t)
	ctx := context.Background()

	d.Execute(ctx, "conn-1", "register alice Passw0rd1")
	d.Execute(ctx, "conn-1", "login alice Passw0rd1")

	reply := d.Execute(ctx, "conn-1", "disconnect now")
	assert.Equal(t, "Command format expected: disconnect. Provided: disconnect now.", reply)

	// The session survives the malformed line.
	reply = d.Execute(ctx, "conn-1", "list")
	assert.NotEqual(t, notLoggedWarning, reply)
}

func TestReadVerbsWarnWhenNotLoggedIn(t *testing.T) {
	d := newTestDispatcher(t)
	ctx := context.Background()

	for _, line := range []string{"list", "list --group-name dev", "search --tags go", "search --title x", "import-from-chrome"} {
		assert.Equal(t, notLoggedWarning, d.Execute(ctx, "conn-1", line), "line %q", line)
	}
}

func TestFullScenario(t *testing.T) {
	d := newTestDispatcher(t)
	ctx := context.Background()

	reply := d.Execute(ctx, "conn-1", "register alice Passw0rd1")
	assert.Equal(t, "User alice has been successfully registered.", reply)

	reply = d.Execute(ctx, "conn-1", "login alice Passw0rd1")
	assert.Equal(t, "User with name alice has successfully logged in.", reply)

	reply = d.Execute(ctx, "conn-1", "new-group Dev")
	assert.Equal(t, "Successful creation of bookmarks group Dev for user alice", reply)

	reply = d.Execute(ctx, "conn-1", "add-to Dev http://x.test")
	assert.Equal(t, "Successful add of bookmark http://x.test to group Dev of user alice", reply)

	// Adding the identical bookmark again succeeds without growing the group.
	reply = d.Execute(ctx, "conn-1", "add-to Dev http://x.test")
	assert.Equal(t, "Successful add of bookmark http://x.test to group Dev of user alice", reply)

	reply = d.Execute(ctx, "conn-1", "list")
	assert.Equal(t, 1, strings.Count(reply, "http://x.test"))

	reply = d.Execute(ctx, "conn-1", "remove-from Dev some-title")
	assert.Equal(t, "Successful remove of bookmark some-title from group Dev of user alice", reply)

	reply = d.Execute(ctx, "conn-1", "remove-from Dev some-title")
	assert.Equal(t, "User does not have such a group/bookmark!", reply)

	reply = d.Execute(ctx, "conn-1", "disconnect")
	assert.Equal(t, "Client has been successfully disconnected from server.", reply)
}

func TestSearchReplies(t *testing.T) {
	d := newTestDispatcher(t)
	ctx := context.Background()

	d.Execute(ctx, "conn-1", "register alice Passw0rd1")
	d.Execute(ctx, "conn-1", "login alice Passw0rd1")
	d.Execute(ctx, "conn-1", "new-group dev")
	d.Execute(ctx, "conn-1", "add-to dev http://x.test")

	reply := d.Execute(ctx, "conn-1", "search --tags go")
	assert.Contains(t, reply, "http://x.test")

	reply = d.Execute(ctx, "conn-1", "search --tags go rust")
	assert.NotContains(t, reply, "http://x.test")

	reply = d.Execute(ctx, "conn-1", "search --title some")
	assert.Contains(t, reply, "Some-Title")

	reply = d.Execute(ctx, "conn-1", "search")
	assert.Contains(t, reply, "Command format expected:")
}

func TestHelpListsAllVerbs(t *testing.T) {
	d := newTestDispatcher(t)
	reply := d.Execute(context.Background(), "conn-1", "?")

	for verb := range usage {
		assert.Contains(t, reply, usage[verb])
	}
}
