package server

import (
	"context"
	"fmt"
	"net"
	"sync/atomic"

	"github.com/bpetkov/bookmarkd/internal/logger"
	"github.com/bpetkov/bookmarkd/internal/protocol"
	"github.com/bpetkov/bookmarkd/pkg/facade"
	"github.com/bpetkov/bookmarkd/pkg/metrics"
)

// BookmarkServer accepts TCP connections and serves the line-based
// bookmark protocol, one goroutine per connection.
type BookmarkServer struct {
	port       int
	listener   net.Listener
	dispatcher *protocol.Dispatcher
	manager    *facade.Manager
	metrics    metrics.CommandMetrics
	connCount  atomic.Int64

	rateLimit uint
	rateBurst uint
}

// New creates a BookmarkServer routing commands through the given
// facade.
func New(port int, manager *facade.Manager, cmdMetrics metrics.CommandMetrics) *BookmarkServer {
	if cmdMetrics == nil {
		cmdMetrics = metrics.NewCommandMetrics()
	}
	return &BookmarkServer{
		port:       port,
		dispatcher: protocol.NewDispatcher(manager, cmdMetrics),
		manager:    manager,
		metrics:    cmdMetrics,
	}
}

// SetRateLimit throttles each connection to commandsPerSecond with
// the given burst. Zero disables limiting. Call before Serve.
func (s *BookmarkServer) SetRateLimit(commandsPerSecond, burst uint) {
	s.rateLimit = commandsPerSecond
	s.rateBurst = burst
}

// Serve listens and accepts connections until the context is
// cancelled.
func (s *BookmarkServer) Serve(ctx context.Context) error {
	listener, err := net.Listen("tcp", fmt.Sprintf(":%d", s.port))
	if err != nil {
		return fmt.Errorf("failed to start listener: %w", err)
	}

	s.listener = listener
	logger.Info("Bookmark server started on port %d", s.port)

	go func() {
		<-ctx.Done()
		s.listener.Close()
	}()

	for {
		tcpConn, err := s.listener.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				return nil
			default:
				logger.Debug("Error accepting connection: %v", err)
				continue
			}
		}

		conn := s.newConn(tcpConn)
		go conn.serve(ctx)
	}
}

// Addr returns the listener address once Serve has bound it. Used by
// tests that listen on an ephemeral port.
func (s *BookmarkServer) Addr() net.Addr {
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Stop closes the listener. In-flight connections finish their current
// command and exit on context cancellation.
func (s *BookmarkServer) Stop() error {
	if s.listener != nil {
		return s.listener.Close()
	}
	return nil
}
