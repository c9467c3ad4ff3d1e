package rib

import (
	"io"
	"log/slog"
	"testing"

	"github.com/go-pospf/pospf/spf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBackend struct {
	added   []Entry
	deleted []Entry
}

func (f *fakeBackend) AddOrReplace(e Entry) error {
	f.added = append(f.added, e)
	return nil
}

func (f *fakeBackend) Delete(e Entry) error {
	f.deleted = append(f.deleted, e)
	return nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestSync_InstallsNewRoutes(t *testing.T) {
	fb := &fakeBackend{}
	syncer := NewSyncer(fb, testLogger())

	syncer.Sync([]spf.RoutingDecision{
		{DestPrefix: "10.0.2.0/24", NextHopIPv4: "10.0.0.2", EgressInterface: "eth0", Cost: 1},
	})
	require.Len(t, fb.added, 1)
	assert.Equal(t, "10.0.2.0/24", fb.added[0].Prefix.String())
}

func TestSync_UnchangedRouteIsNotReinstalled(t *testing.T) {
	fb := &fakeBackend{}
	syncer := NewSyncer(fb, testLogger())
	decisions := []spf.RoutingDecision{
		{DestPrefix: "10.0.2.0/24", NextHopIPv4: "10.0.0.2", EgressInterface: "eth0", Cost: 1},
	}
	syncer.Sync(decisions)
	syncer.Sync(decisions)
	assert.Len(t, fb.added, 1, "identical decision on the next SPF run must not reprogram the kernel")
}

func TestSync_ChangedNextHopReplacesRoute(t *testing.T) {
	fb := &fakeBackend{}
	syncer := NewSyncer(fb, testLogger())
	syncer.Sync([]spf.RoutingDecision{
		{DestPrefix: "10.0.2.0/24", NextHopIPv4: "10.0.0.2", EgressInterface: "eth0", Cost: 1},
	})
	syncer.Sync([]spf.RoutingDecision{
		{DestPrefix: "10.0.2.0/24", NextHopIPv4: "10.0.0.3", EgressInterface: "eth1", Cost: 2},
	})
	require.Len(t, fb.added, 2)
	assert.Equal(t, "10.0.0.3", fb.added[1].NextHopIPv4.String())
}

func TestSync_RemovesRouteNoLongerWanted(t *testing.T) {
	fb := &fakeBackend{}
	syncer := NewSyncer(fb, testLogger())
	syncer.Sync([]spf.RoutingDecision{
		{DestPrefix: "10.0.2.0/24", NextHopIPv4: "10.0.0.2", EgressInterface: "eth0", Cost: 1},
	})
	syncer.Sync(nil)
	require.Len(t, fb.deleted, 1)
	assert.Equal(t, "10.0.2.0/24", fb.deleted[0].Prefix.String())
	assert.Empty(t, syncer.Snapshot())
}

func TestSetEnabled_FalsePurgesAllOwnedRoutes(t *testing.T) {
	fb := &fakeBackend{}
	syncer := NewSyncer(fb, testLogger())
	syncer.Sync([]spf.RoutingDecision{
		{DestPrefix: "10.0.2.0/24", NextHopIPv4: "10.0.0.2", EgressInterface: "eth0", Cost: 1},
		{DestPrefix: "10.0.3.0/24", NextHopIPv4: "10.0.0.2", EgressInterface: "eth0", Cost: 2},
	})
	require.Len(t, fb.added, 2)

	syncer.SetEnabled(false)
	assert.Len(t, fb.deleted, 2)
	assert.Empty(t, syncer.Snapshot())
}

func TestSync_DisabledSyncerInstallsNothing(t *testing.T) {
	fb := &fakeBackend{}
	syncer := NewSyncer(fb, testLogger())
	syncer.SetEnabled(false)
	syncer.Sync([]spf.RoutingDecision{
		{DestPrefix: "10.0.2.0/24", NextHopIPv4: "10.0.0.2", EgressInterface: "eth0", Cost: 1},
	})
	assert.Empty(t, fb.added)
}

func TestSync_SkipsUnparseableDecisionWithoutPanicking(t *testing.T) {
	fb := &fakeBackend{}
	syncer := NewSyncer(fb, testLogger())
	syncer.Sync([]spf.RoutingDecision{
		{DestPrefix: "not-a-prefix", NextHopIPv4: "10.0.0.2", EgressInterface: "eth0", Cost: 1},
	})
	assert.Empty(t, fb.added)
}
