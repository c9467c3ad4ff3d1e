package control

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeDataSource struct {
	neighbors []string
	routes    []string
	enabled   bool
}

func (f *fakeDataSource) NeighborLines() []string     { return f.neighbors }
func (f *fakeDataSource) RoutingTableLines() []string { return f.routes }
func (f *fakeDataSource) SetEnabled(v bool)           { f.enabled = v }
func (f *fakeDataSource) Enabled() bool               { return f.enabled }

func startTestServer(t *testing.T, ds DataSource) (*Client, func()) {
	t.Helper()
	sockPath := filepath.Join(t.TempDir(), "pospf.sock")
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	srv := NewServer(sockPath, ds, log)
	ctx, cancel := context.WithCancel(context.Background())

	ready := make(chan struct{})
	go func() {
		close(ready)
		_ = srv.ListenAndServe(ctx)
	}()
	<-ready
	time.Sleep(20 * time.Millisecond) // give Accept loop a moment to bind

	return NewClient(sockPath), cancel
}

func TestNeighbors_ReturnsConfiguredLines(t *testing.T) {
	ds := &fakeDataSource{neighbors: []string{"R2 10.0.0.2 eth0 TWO_WAY"}}
	client, cancel := startTestServer(t, ds)
	defer cancel()

	lines, err := client.Send("neighbors")
	require.NoError(t, err)
	assert.Equal(t, []string{"R2 10.0.0.2 eth0 TWO_WAY"}, lines)
}

func TestEnableDisenable_TogglesDataSource(t *testing.T) {
	ds := &fakeDataSource{enabled: true}
	client, cancel := startTestServer(t, ds)
	defer cancel()

	lines, err := client.Send("disenable")
	require.NoError(t, err)
	assert.Equal(t, []string{"OK disenabled"}, lines)
	assert.False(t, ds.enabled)

	lines, err = client.Send("enable")
	require.NoError(t, err)
	assert.Equal(t, []string{"OK enabled"}, lines)
	assert.True(t, ds.enabled)
}

func TestUnknownCommand_ReturnsErr(t *testing.T) {
	ds := &fakeDataSource{}
	client, cancel := startTestServer(t, ds)
	defer cancel()

	lines, err := client.Send("frobnicate")
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.Contains(t, lines[0], "ERR")
}

func TestRoutingTable_EmptyIsBlankResponse(t *testing.T) {
	ds := &fakeDataSource{}
	client, cancel := startTestServer(t, ds)
	defer cancel()

	lines, err := client.Send("routing-table")
	require.NoError(t, err)
	assert.Empty(t, lines)
}
