package engine

import (
	"fmt"
	"time"

	"github.com/go-pospf/pospf/config"
	"github.com/go-pospf/pospf/flood"
	"github.com/go-pospf/pospf/iface"
	"github.com/go-pospf/pospf/lsdb"
	"github.com/go-pospf/pospf/metrics"
	"github.com/go-pospf/pospf/neighbor"
	"github.com/go-pospf/pospf/rib"
	"github.com/go-pospf/pospf/spf"
	"github.com/go-pospf/pospf/wire"
)

// AppState holds every piece of mutable router state. It must only ever
// be touched on the event-loop goroutine — everything else reaches it by
// dispatching a function through Env.
type AppState struct {
	*Env

	Cfg      *config.RouterConfig
	Key      []byte
	Ifaces   *iface.Table
	Neighbors *neighbor.Table
	Lsdb     *lsdb.LSDB
	Flooder  *flood.Flooder
	Rib      *rib.Syncer
	Metrics  *metrics.Registry

	sockets map[string]*udpSocket // by interface name, set up once at startup

	// recomputePending guards requestRecompute's debounce; only ever read
	// or written on the event-loop goroutine.
	recomputePending bool
}

func NewAppState(env *Env, cfg *config.RouterConfig, key []byte, ifaces *iface.Table, reg *metrics.Registry, backend rib.Backend) *AppState {
	db := lsdb.New(cfg.RouterId)
	return &AppState{
		Env:       env,
		Cfg:       cfg,
		Key:       key,
		Ifaces:    ifaces,
		Neighbors: neighbor.NewTable(cfg.RouterId, cfg.DeadInterval()),
		Lsdb:      db,
		Flooder:   flood.New(cfg.RouterId, db, 500*time.Millisecond),
		Rib:       rib.NewSyncer(backend, env.Log),
		Metrics:   reg,
		sockets:   make(map[string]*udpSocket),
	}
}

func (s *AppState) localCapacities() map[string]uint32 {
	caps := make(map[string]uint32)
	for _, ifc := range s.Ifaces.Active() {
		caps[ifc.Name] = ifc.CapacityMbps
	}
	return caps
}

// recomputeAndSync runs SPF against the current LSDB+neighbor state and
// reconciles the result into the kernel routing table. Called from
// requestRecompute's debounce timer and from the periodic RIB-sync timer
// as a safety net against drift.
func (s *AppState) recomputeAndSync() {
	twoWay := s.Neighbors.SnapshotTwoWay(s.localCapacities())
	decisions := spf.Compute(s.Cfg.RouterId, s.Lsdb, twoWay)
	s.Rib.Sync(decisions)
}

// recomputeDebounce coalesces bursts of topology events (several LSAs
// arriving nearly simultaneously during initial flood, or a HELLO flood
// plus a neighbor sweep landing together) into one SPF+RIB pass, per
// spec §4.6's 200ms-1s debounce window.
const recomputeDebounce = 300 * time.Millisecond

// requestRecompute schedules exactly one recomputeAndSync after
// recomputeDebounce, collapsing any further requests that arrive before
// the timer fires. Only ever called on the event-loop goroutine, so
// recomputePending needs no locking.
func (s *AppState) requestRecompute() {
	if s.recomputePending {
		return
	}
	s.recomputePending = true
	s.ScheduleTask(func(s *AppState) error {
		s.recomputePending = false
		s.recomputeAndSync()
		return nil
	}, recomputeDebounce)
}

// originateAndFlood builds a fresh self-LSA from the current adjacency set
// and stub prefixes, installs it, and sends it out to every TWO_WAY
// neighbor.
func (s *AppState) originateAndFlood(now time.Time) {
	twoWay := s.Neighbors.SnapshotTwoWay(s.localCapacities())
	stubs := flood.LocalStubPrefixes(s.Ifaces)
	rec := s.Flooder.Originate(twoWay, stubs, now)

	msg := wire.Message{Kind: wire.KindLsa, Lsa: &wire.Lsa{
		Kind:         wire.KindLsa,
		Origin:       rec.Origin,
		Seq:          rec.Seq,
		Links:        rec.Links,
		StubPrefixes: rec.StubPrefix,
	}}
	outbound, err := flood.BuildOutboundFrames(s.Key, msg, twoWay)
	if err != nil {
		s.Log.Error("failed to encode self LSA", "err", err)
		return
	}
	for _, o := range outbound {
		s.send(o)
	}
}

func (s *AppState) send(o flood.Outbound) {
	sock, ok := s.sockets[o.Interface]
	if !ok {
		return
	}
	if err := sock.send(o.DestIPv4, s.Cfg.UdpPort, o.Frame); err != nil {
		s.Log.Warn("failed to send frame", "interface", o.Interface, "dest", o.DestIPv4, "err", err)
	}
}

// neighborLines, routingTableLines, setEnabled and enabled back
// control.DataSource, via controlAdapter (control_adapter.go). They touch
// Neighbors/Rib directly with no locking of their own, so they must only
// ever run on the event-loop goroutine — never call these from a control
// connection's own goroutine.
func (s *AppState) neighborLines() []string {
	out := make([]string, 0)
	for _, n := range s.Neighbors.Snapshot() {
		line := fmt.Sprintf("%s %s %s %s cap=%d", n.RouterId, n.PeerIPv4, n.OnInterface, n.State, n.AdvertisedCapacity)
		if n.LastRejectedFrameErr != "" {
			line += fmt.Sprintf(" last_error=%q", n.LastRejectedFrameErr)
		}
		out = append(out, line)
	}
	return out
}

func (s *AppState) routingTableLines() []string {
	out := make([]string, 0)
	for _, e := range s.Rib.Snapshot() {
		out = append(out, fmt.Sprintf("%s via %s dev %s cost=%d", e.Prefix, e.NextHopIPv4, e.Interface, e.Cost))
	}
	return out
}

func (s *AppState) setEnabled(enabled bool) { s.Rib.SetEnabled(enabled) }
func (s *AppState) enabled() bool           { return s.Rib.Enabled() }
