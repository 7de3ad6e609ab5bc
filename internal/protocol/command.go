// Package protocol turns raw request lines into commands and routes
// them to the facade.
package protocol

import "strings"

// Command is one parsed request line: a verb plus its ordered
// arguments.
type Command struct {
	Verb string
	Args []string
}

// Parse trims the line, collapses whitespace runs and splits it into
// verb and arguments. A blank line parses to an empty verb, which the
// dispatcher reports as unknown.
func Parse(line string) Command {
	tokens := strings.Fields(line)
	if len(tokens) == 0 {
		return Command{}
	}
	return Command{Verb: tokens[0], Args: tokens[1:]}
}

// String reassembles the command the way the client sent it, used in
// usage error replies.
func (c Command) String() string {
	if len(c.Args) == 0 {
		return c.Verb
	}
	return c.Verb + " " + strings.Join(c.Args, " ")
}
