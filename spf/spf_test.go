package spf

import (
	"net/netip"
	"testing"

	"github.com/go-pospf/pospf/lsdb"
	"github.com/go-pospf/pospf/neighbor"
	"github.com/go-pospf/pospf/wire"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildLinearTopology wires R1 - R2 - R3, each link cost 1, each router
// advertising one stub prefix, and returns the LSDB as seen from R1.
func buildLinearTopology(t *testing.T) *lsdb.LSDB {
	t.Helper()
	db := lsdb.New("R1")
	db.InstallLocal(lsdb.Record{
		Origin:     "R1",
		Seq:        1,
		Links:      []wire.Link{{Peer: "R2", Cost: 1, Up: true}},
		StubPrefix: []string{"10.0.1.0/24"},
	})
	require.Equal(t, lsdb.Installed, db.Offer(lsdb.Record{
		Origin:     "R2",
		Seq:        1,
		Links:      []wire.Link{{Peer: "R1", Cost: 1, Up: true}, {Peer: "R3", Cost: 1, Up: true}},
		StubPrefix: []string{"10.0.2.0/24"},
	}))
	require.Equal(t, lsdb.Installed, db.Offer(lsdb.Record{
		Origin:     "R3",
		Seq:        1,
		Links:      []wire.Link{{Peer: "R2", Cost: 1, Up: true}},
		StubPrefix: []string{"10.0.3.0/24"},
	}))
	return db
}

func TestCompute_LinearTopologyResolvesMultiHop(t *testing.T) {
	db := buildLinearTopology(t)
	direct := []neighbor.TwoWayNeighbor{
		{RouterId: "R2", OnInterface: "eth0", PeerIPv4: netip.MustParseAddr("10.0.0.2"), Cost: 1},
	}
	decisions := Compute("R1", db, direct)

	var toR3 *RoutingDecision
	for i := range decisions {
		if decisions[i].DestPrefix == "10.0.3.0/24" {
			toR3 = &decisions[i]
		}
	}
	require.NotNil(t, toR3, "R3's stub prefix must be reachable via R2")
	assert.Equal(t, "10.0.0.2", toR3.NextHopIPv4)
	assert.Equal(t, "eth0", toR3.EgressInterface)
	assert.Equal(t, uint32(2), toR3.Cost)
}

func TestCompute_ExcludesLocalRouterOwnPrefixes(t *testing.T) {
	db := buildLinearTopology(t)
	direct := []neighbor.TwoWayNeighbor{
		{RouterId: "R2", OnInterface: "eth0", PeerIPv4: netip.MustParseAddr("10.0.0.2"), Cost: 1},
	}
	decisions := Compute("R1", db, direct)
	for _, d := range decisions {
		assert.NotEqual(t, "10.0.1.0/24", d.DestPrefix)
	}
}

func TestCompute_PrefersCheaperPath(t *testing.T) {
	// R1 has two paths to R3: directly at cost 10, or via R2 at cost 1+1=2.
	db := lsdb.New("R1")
	db.InstallLocal(lsdb.Record{
		Origin: "R1",
		Seq:    1,
		Links: []wire.Link{
			{Peer: "R2", Cost: 1, Up: true},
			{Peer: "R3", Cost: 10, Up: true},
		},
	})
	db.Offer(lsdb.Record{
		Origin: "R2",
		Seq:    1,
		Links:  []wire.Link{{Peer: "R1", Cost: 1, Up: true}, {Peer: "R3", Cost: 1, Up: true}},
	})
	db.Offer(lsdb.Record{
		Origin:     "R3",
		Seq:        1,
		Links:      []wire.Link{{Peer: "R1", Cost: 10, Up: true}, {Peer: "R2", Cost: 1, Up: true}},
		StubPrefix: []string{"10.0.3.0/24"},
	})
	direct := []neighbor.TwoWayNeighbor{
		{RouterId: "R2", OnInterface: "eth0", PeerIPv4: netip.MustParseAddr("10.0.0.2"), Cost: 1},
		{RouterId: "R3", OnInterface: "eth1", PeerIPv4: netip.MustParseAddr("10.0.1.3"), Cost: 10},
	}
	decisions := Compute("R1", db, direct)
	require.Len(t, decisions, 1)
	assert.Equal(t, "10.0.0.2", decisions[0].NextHopIPv4, "cheaper 2-hop path via R2 must win over the direct cost-10 link")
	assert.Equal(t, uint32(2), decisions[0].Cost)
}

func TestCompute_UnreachableRouterProducesNoDecision(t *testing.T) {
	db := lsdb.New("R1")
	db.InstallLocal(lsdb.Record{Origin: "R1", Seq: 1})
	// R4 and R5 are bidirectionally linked but disconnected from R1 entirely
	db.Offer(lsdb.Record{Origin: "R4", Seq: 1, Links: []wire.Link{{Peer: "R5", Cost: 1, Up: true}}, StubPrefix: []string{"10.0.9.0/24"}})
	db.Offer(lsdb.Record{Origin: "R5", Seq: 1, Links: []wire.Link{{Peer: "R4", Cost: 1, Up: true}}})

	decisions := Compute("R1", db, nil)
	assert.Empty(t, decisions)
}
