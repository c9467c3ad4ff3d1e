// Package control implements the line-oriented control-port protocol: a
// small text command set served over a Unix domain socket that lets an
// operator (or the CLI's neighbors/routes subcommands) inspect and manage
// a running router without restarting it.
package control

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"net"
	"os"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// DataSource is everything the control port needs from the running
// router. Implemented by engine's controlAdapter, which forwards each call
// into the event loop that owns engine.AppState; kept as an interface so this
// package has no dependency on engine and can be tested standalone.
type DataSource interface {
	NeighborLines() []string
	RoutingTableLines() []string
	SetEnabled(bool)
	Enabled() bool
}

// Server accepts control connections and dispatches each line as a
// command. One client connection is handled at a time per-connection by
// its own goroutine, but all commands resolve against DataSource by
// dispatching into the single-writer event loop (see engine), so
// DataSource implementations need not be safe for concurrent use on their
// own.
type Server struct {
	socketPath string
	ds         DataSource
	log        *slog.Logger

	mu       sync.Mutex
	listener net.Listener
}

func NewServer(socketPath string, ds DataSource, log *slog.Logger) *Server {
	return &Server{socketPath: socketPath, ds: ds, log: log}
}

// ListenAndServe binds the control socket and serves connections until ctx
// is cancelled. A stale socket file left behind by a previous unclean exit
// is removed before binding.
func (s *Server) ListenAndServe(ctx context.Context) error {
	_ = os.Remove(s.socketPath)
	lc := net.ListenConfig{}
	ln, err := lc.Listen(ctx, "unix", s.socketPath)
	if err != nil {
		return fmt.Errorf("control: listen %s: %w", s.socketPath, err)
	}
	s.mu.Lock()
	s.listener = ln
	s.mu.Unlock()

	go func() {
		<-ctx.Done()
		ln.Close()
	}()

	s.log.Info("control port listening", "path", s.socketPath)
	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			s.log.Warn("control port accept failed", "err", err)
			continue
		}
		go s.handleConn(conn)
	}
}

func (s *Server) handleConn(conn net.Conn) {
	defer conn.Close()
	connId := uuid.New()
	log := s.log.With("conn_id", connId)
	scanner := bufio.NewScanner(conn)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		log.Debug("control command", "line", line)
		resp, closeAfter := s.dispatch(line)
		if _, err := conn.Write([]byte(resp)); err != nil {
			log.Warn("control write failed", "err", err)
			return
		}
		if closeAfter {
			return
		}
	}
}

// dispatch runs one command and returns its response text (every response,
// single- or multi-line, ends with a blank terminator line, which is what
// Client.Send reads up to) and whether the connection should close
// afterward.
func (s *Server) dispatch(line string) (string, bool) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return "ERR empty command\n\n", false
	}
	switch strings.ToLower(fields[0]) {
	case "neighbors":
		return renderLines(s.ds.NeighborLines()), false
	case "routing-table":
		return renderLines(s.ds.RoutingTableLines()), false
	case "enable":
		s.ds.SetEnabled(true)
		return "OK enabled\n\n", false
	case "disenable":
		s.ds.SetEnabled(false)
		return "OK disenabled\n\n", false
	case "exit":
		return "OK bye\n\n", true
	default:
		return fmt.Sprintf("ERR unknown command %q\n\n", fields[0]), false
	}
}

func renderLines(lines []string) string {
	var b strings.Builder
	for _, l := range lines {
		b.WriteString(l)
		b.WriteByte('\n')
	}
	b.WriteByte('\n')
	return b.String()
}
