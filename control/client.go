package control

import (
	"bufio"
	"fmt"
	"net"
	"strings"
	"time"
)

// Client is a thin helper for cmd/neighbors.go and cmd/routes.go: dial the
// control socket, send one command, read its (possibly multi-line)
// response, and disconnect.
type Client struct {
	socketPath string
	timeout    time.Duration
}

func NewClient(socketPath string) *Client {
	return &Client{socketPath: socketPath, timeout: 5 * time.Second}
}

// Send issues one command and returns its response lines, excluding the
// blank terminator line.
func (c *Client) Send(command string) ([]string, error) {
	conn, err := net.DialTimeout("unix", c.socketPath, c.timeout)
	if err != nil {
		return nil, fmt.Errorf("control: dial %s: %w", c.socketPath, err)
	}
	defer conn.Close()

	if _, err := fmt.Fprintf(conn, "%s\n", command); err != nil {
		return nil, fmt.Errorf("control: send %q: %w", command, err)
	}

	var lines []string
	scanner := bufio.NewScanner(conn)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			break
		}
		lines = append(lines, line)
	}
	if err := scanner.Err(); err != nil {
		return lines, fmt.Errorf("control: read response: %w", err)
	}
	return lines, nil
}
