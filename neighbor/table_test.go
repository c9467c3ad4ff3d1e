package neighbor

import (
	"net/netip"
	"testing"
	"time"

	"github.com/go-pospf/pospf/wire"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func helloFrom(routerId string, capacityMbps uint32, knownNeighbors ...string) *wire.Hello {
	return &wire.Hello{
		Kind:           wire.KindHello,
		RouterId:       routerId,
		CapacityMbps:   capacityMbps,
		KnownNeighbors: knownNeighbors,
	}
}

func TestObserveHello_NewEntryStartsAtInit(t *testing.T) {
	tbl := NewTable("R1", 20*time.Second)
	peer := netip.MustParseAddr("10.0.0.2")

	ev := tbl.ObserveHello("eth0", peer, helloFrom("R2", 1000))
	require.NotNil(t, ev)
	assert.True(t, ev.Discovered)
	assert.Equal(t, Init, ev.ToState)

	snap := tbl.Snapshot()
	require.Len(t, snap, 1)
	assert.Equal(t, Init, snap[0].State)
}

func TestObserveHello_PromotesToTwoWayWhenWeAreKnown(t *testing.T) {
	tbl := NewTable("R1", 20*time.Second)
	peer := netip.MustParseAddr("10.0.0.2")

	tbl.ObserveHello("eth0", peer, helloFrom("R2", 1000))
	ev := tbl.ObserveHello("eth0", peer, helloFrom("R2", 1000, "R1"))
	require.NotNil(t, ev)
	assert.Equal(t, Init, ev.FromState)
	assert.Equal(t, TwoWay, ev.ToState)

	twoWay := tbl.SnapshotTwoWay(map[string]uint32{"eth0": 1000})
	require.Len(t, twoWay, 1)
	assert.Equal(t, "R2", twoWay[0].RouterId)
}

func TestObserveHello_MonotonicStateNeverRegressesOnRepeatHello(t *testing.T) {
	// Repeated identical HELLOs that keep listing us (spec invariant 1) leave
	// a TWO_WAY neighbor TWO_WAY and emit no further topology event.
	tbl := NewTable("R1", 20*time.Second)
	peer := netip.MustParseAddr("10.0.0.2")

	tbl.ObserveHello("eth0", peer, helloFrom("R2", 1000))
	tbl.ObserveHello("eth0", peer, helloFrom("R2", 1000, "R1"))
	for i := 0; i < 5; i++ {
		ev := tbl.ObserveHello("eth0", peer, helloFrom("R2", 1000, "R1"))
		assert.Nil(t, ev, "steady-state HELLO should not re-emit a topology event")
	}
	snap := tbl.Snapshot()
	require.Len(t, snap, 1)
	assert.Equal(t, TwoWay, snap[0].State)
}

func TestEffectiveLinkCost_UsesMinimumOfLocalAndPeerCapacity(t *testing.T) {
	tbl := NewTable("R1", 20*time.Second)
	peer := netip.MustParseAddr("10.0.0.2")

	tbl.ObserveHello("eth0", peer, helloFrom("R2", 1000))
	tbl.ObserveHello("eth0", peer, helloFrom("R2", 1000, "R1"))

	twoWay := tbl.SnapshotTwoWay(map[string]uint32{"eth0": 10})
	require.Len(t, twoWay, 1)
	assert.Equal(t, Cost(10), twoWay[0].Cost)
}

func TestSweep_TwoPhaseRemoval(t *testing.T) {
	tbl := NewTable("R1", 1*time.Second)
	peer := netip.MustParseAddr("10.0.0.2")
	base := time.Now()

	tbl.ObserveHello("eth0", peer, helloFrom("R2", 1000, "R1"))

	// not yet stale
	events := tbl.Sweep(base.Add(500 * time.Millisecond))
	assert.Empty(t, events)
	assert.Len(t, tbl.Snapshot(), 1)

	// now stale: first sweep transitions to DOWN, entry still present
	events = tbl.Sweep(base.Add(5 * time.Second))
	require.Len(t, events, 1)
	assert.Equal(t, TwoWay, events[0].FromState)
	assert.Equal(t, Down, events[0].ToState)
	assert.False(t, events[0].Removed)
	assert.Len(t, tbl.Snapshot(), 1)

	// second sweep actually removes it, exactly once
	events = tbl.Sweep(base.Add(6 * time.Second))
	require.Len(t, events, 1)
	assert.True(t, events[0].Removed)
	assert.Empty(t, tbl.Snapshot())
}

func TestObserveHello_RefreshesResetsPendingRemoval(t *testing.T) {
	tbl := NewTable("R1", 1*time.Second)
	peer := netip.MustParseAddr("10.0.0.2")
	base := time.Now()

	tbl.ObserveHello("eth0", peer, helloFrom("R2", 1000, "R1"))
	tbl.Sweep(base.Add(5 * time.Second)) // demotes to DOWN, pending removal

	// a fresh HELLO arrives before the next sweep: entry must survive
	tbl.ObserveHello("eth0", peer, helloFrom("R2", 1000, "R1"))
	events := tbl.Sweep(base.Add(5100 * time.Millisecond))
	assert.Empty(t, events)
	assert.Len(t, tbl.Snapshot(), 1)
}

func TestSnapshotTwoWay_ExcludesInitAndDown(t *testing.T) {
	tbl := NewTable("R1", 20*time.Second)
	a := netip.MustParseAddr("10.0.0.2")
	b := netip.MustParseAddr("10.0.0.3")

	tbl.ObserveHello("eth0", a, helloFrom("R2", 1000)) // stays INIT
	tbl.ObserveHello("eth0", b, helloFrom("R3", 1000, "R1"))

	twoWay := tbl.SnapshotTwoWay(map[string]uint32{"eth0": 1000})
	require.Len(t, twoWay, 1)
	assert.Equal(t, "R3", twoWay[0].RouterId)
}
