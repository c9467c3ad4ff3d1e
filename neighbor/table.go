// Package neighbor tracks per-interface peer adjacencies discovered via
// HELLO exchange: the INIT -> TWO_WAY -> DOWN lifecycle and the
// capacity-weighted link cost derived from it.
package neighbor

import (
	"net/netip"
	"sort"
	"time"

	"github.com/go-pospf/pospf/wire"
)

// State is a neighbor's position in the discovery lifecycle.
type State int

const (
	Init State = iota
	TwoWay
	Down
)

func (s State) String() string {
	switch s {
	case Init:
		return "INIT"
	case TwoWay:
		return "TWO_WAY"
	case Down:
		return "DOWN"
	default:
		return "UNKNOWN"
	}
}

// Neighbor is one discovered peer on one local interface.
type Neighbor struct {
	RouterId             string
	PeerIPv4             netip.Addr
	OnInterface          string
	LastHelloAt          time.Time
	State                State
	AdvertisedCapacity   uint32
	pendingRemoval       bool // two-phase removal: DOWN is observed once, then swept away
	LastRejectedFrameErr string
}

// Event is a topology event: any neighbor state change whose resolution may
// alter routing output (spec's "topology event").
type Event struct {
	Neighbor   string // router id, if known
	PeerIPv4   netip.Addr
	Interface  string
	FromState  State
	ToState    State
	Discovered bool
	Removed    bool
}

// key identifies a neighbor entry: (interface, peer_ipv4) has at most one
// entry, per the data model invariant.
type key struct {
	iface string
	peer  netip.Addr
}

// Table is the per-interface neighbor map for the whole router.
type Table struct {
	localRouterId string
	entries       map[key]*Neighbor
	deadInterval  time.Duration
}

func NewTable(localRouterId string, deadInterval time.Duration) *Table {
	return &Table{
		localRouterId: localRouterId,
		entries:       make(map[key]*Neighbor),
		deadInterval:  deadInterval,
	}
}

// ObserveHello upserts the neighbor entry for (iface, peerIPv4) and returns
// any topology event produced. New entries start at INIT; a HELLO whose
// known-neighbors list contains the local router id promotes INIT->TWO_WAY.
func (t *Table) ObserveHello(iface string, peerIPv4 netip.Addr, h *wire.Hello) *Event {
	k := key{iface, peerIPv4}
	n, exists := t.entries[k]
	var ev *Event
	if !exists {
		n = &Neighbor{
			RouterId:    h.RouterId,
			PeerIPv4:    peerIPv4,
			OnInterface: iface,
			State:       Init,
		}
		t.entries[k] = n
		ev = &Event{Neighbor: h.RouterId, PeerIPv4: peerIPv4, Interface: iface, ToState: Init, Discovered: true}
	}
	n.RouterId = h.RouterId
	n.AdvertisedCapacity = h.CapacityMbps
	n.LastHelloAt = time.Now()
	n.pendingRemoval = false

	sawUs := false
	for _, id := range h.KnownNeighbors {
		if id == t.localRouterId {
			sawUs = true
			break
		}
	}

	if sawUs && n.State == Init {
		from := n.State
		n.State = TwoWay
		ev = &Event{Neighbor: n.RouterId, PeerIPv4: peerIPv4, Interface: iface, FromState: from, ToState: TwoWay}
	} else if !sawUs && n.State == TwoWay {
		// peer stopped listing us: demote, this is also a topology event
		from := n.State
		n.State = Init
		ev = &Event{Neighbor: n.RouterId, PeerIPv4: peerIPv4, Interface: iface, FromState: from, ToState: Init}
	}
	return ev
}

// MarkDecodeFailure records the most recent decode/validation failure seen
// from a peer address, for operator diagnostics on the control port
// (useful for diagnosing a key mismatch, scenario S4). It does not affect
// neighbor state — an attacker or misconfigured peer sending bad frames is
// not itself a topology event.
func (t *Table) MarkDecodeFailure(iface string, peerIPv4 netip.Addr, errText string) {
	k := key{iface, peerIPv4}
	if n, ok := t.entries[k]; ok {
		n.LastRejectedFrameErr = errText
	}
}

// Sweep demotes neighbors whose HELLO has gone stale to DOWN, and removes
// entries already marked DOWN from a previous sweep (two-phase removal so
// consumers observe the DOWN transition exactly once before the entry
// disappears).
func (t *Table) Sweep(now time.Time) []Event {
	var events []Event
	for k, n := range t.entries {
		if n.pendingRemoval {
			delete(t.entries, k)
			events = append(events, Event{Neighbor: n.RouterId, PeerIPv4: n.PeerIPv4, Interface: n.OnInterface, Removed: true})
			continue
		}
		if n.State != Down && now.Sub(n.LastHelloAt) > t.deadInterval {
			from := n.State
			n.State = Down
			n.pendingRemoval = true
			events = append(events, Event{Neighbor: n.RouterId, PeerIPv4: n.PeerIPv4, Interface: n.OnInterface, FromState: from, ToState: Down})
		}
	}
	return events
}

// TwoWayNeighbor is one currently-adjacent peer with its effective link
// cost, derived from the min of local and peer advertised capacity.
type TwoWayNeighbor struct {
	RouterId    string
	PeerIPv4    netip.Addr
	OnInterface string
	Cost        uint32
}

// SnapshotTwoWay returns the list of currently TWO_WAY neighbors, ordered
// by interface name, then peer address.
// localCapacity maps interface name to this router's configured capacity,
// used together with the peer's advertised capacity to compute the
// effective (minimum-bandwidth) link cost.
func (t *Table) SnapshotTwoWay(localCapacity map[string]uint32) []TwoWayNeighbor {
	var out []TwoWayNeighbor
	for _, n := range t.entries {
		if n.State != TwoWay {
			continue
		}
		capMbps := n.AdvertisedCapacity
		if lc, ok := localCapacity[n.OnInterface]; ok && lc < capMbps {
			capMbps = lc
		}
		out = append(out, TwoWayNeighbor{
			RouterId:    n.RouterId,
			PeerIPv4:    n.PeerIPv4,
			OnInterface: n.OnInterface,
			Cost:        Cost(capMbps),
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].OnInterface != out[j].OnInterface {
			return out[i].OnInterface < out[j].OnInterface
		}
		return out[i].PeerIPv4.Less(out[j].PeerIPv4)
	})
	return out
}

// Snapshot returns every neighbor entry (any state), for ControlPort's
// `neighbors` command.
func (t *Table) Snapshot() []Neighbor {
	out := make([]Neighbor, 0, len(t.entries))
	for _, n := range t.entries {
		out = append(out, *n)
	}
	return out
}
