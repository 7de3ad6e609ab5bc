// Package server provides the TCP front end of the bookmark service.
//
// Each accepted connection gets its own goroutine and a stable
// connection ID that the session table keys on. Request lines are
// newline-delimited UTF-8; the server accumulates bytes until a
// terminator is seen, so a command split across TCP segments is still
// parsed whole. One reply line is written per command.
package server
