package server

import (
	"bufio"
	"context"
	"errors"
	"io"
	"net"

	"github.com/google/uuid"

	"github.com/bpetkov/bookmarkd/internal/logger"
	"github.com/bpetkov/bookmarkd/internal/ratelimiter"
)

// maxLineBytes bounds one request line so a client cannot grow the
// read buffer without limit.
const maxLineBytes = 64 * 1024

type conn struct {
	server *BookmarkServer
	conn   net.Conn

	// id identifies this connection in the session table for its
	// whole lifetime.
	id string

	limiter *ratelimiter.RateLimiter
}

func (s *BookmarkServer) newConn(tcpConn net.Conn) *conn {
	return &conn{
		server:  s,
		conn:    tcpConn,
		id:      uuid.NewString(),
		limiter: ratelimiter.New(s.rateLimit, s.rateBurst),
	}
}

// serve reads newline-delimited commands until the peer closes or the
// context is cancelled. Commands from one connection run strictly in
// arrival order.
func (c *conn) serve(ctx context.Context) {
	defer c.conn.Close()
	logger.Debug("New connection %s from %s", c.id, c.conn.RemoteAddr())

	c.server.metrics.RecordConnectionAccepted()
	c.server.metrics.SetActiveConnections(int(c.server.connCount.Add(1)))
	defer func() {
		c.server.metrics.RecordConnectionClosed()
		c.server.metrics.SetActiveConnections(int(c.server.connCount.Add(-1)))
	}()

	// A peer that drops without sending disconnect still gets its
	// session torn down. No flush happens here; the disconnect verb
	// is the only path that persists on the way out.
	defer c.server.manager.Teardown(c.id)

	scanner := bufio.NewScanner(c.conn)
	scanner.Buffer(make([]byte, 0, 4096), maxLineBytes)

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		if !scanner.Scan() {
			if err := scanner.Err(); err != nil && !errors.Is(err, net.ErrClosed) {
				logger.Debug("Connection %s read error: %v", c.id, err)
			}
			return
		}

		if err := c.limiter.Wait(ctx); err != nil {
			return
		}

		reply := c.server.dispatcher.Execute(ctx, c.id, scanner.Text())
		if err := c.write(reply); err != nil {
			logger.Debug("Connection %s write error: %v", c.id, err)
			return
		}
	}
}

func (c *conn) write(reply string) error {
	_, err := io.WriteString(c.conn, reply+"\n")
	return err
}
