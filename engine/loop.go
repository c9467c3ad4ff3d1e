package engine

import (
	"context"
	"fmt"
	"net/netip"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-pospf/pospf/config"
	"github.com/go-pospf/pospf/control"
	"github.com/go-pospf/pospf/flood"
	"github.com/go-pospf/pospf/iface"
	"github.com/go-pospf/pospf/lsdb"
	"github.com/go-pospf/pospf/metrics"
	"github.com/go-pospf/pospf/neighbor"
	"github.com/go-pospf/pospf/rib"
	"github.com/go-pospf/pospf/wire"
	"log/slog"
)

// Run builds the full router from a loaded config and runs its event loop
// until a shutdown signal is received or the context is cancelled. It
// returns once shutdown is complete, after the RIB has been purged.
func Run(ctx context.Context, cfg *config.RouterConfig, key []byte, ifaces *iface.Table, backend rib.Backend, log *slog.Logger) error {
	loopCtx, cancel := context.WithCancelCause(ctx)
	dispatch := make(chan func(*AppState) error, 128)

	env := &Env{DispatchChannel: dispatch, Context: loopCtx, Cancel: cancel, Log: log}
	reg := metrics.New()
	state := NewAppState(env, cfg, key, ifaces, reg, backend)

	for _, ifc := range ifaces.Active() {
		sock, err := bindUDPSocket(ifc.Name, cfg.UdpPort)
		if err != nil {
			return err
		}
		state.sockets[ifc.Name] = sock
		go sock.readLoop(env, key, handleMessage)
	}

	// install an initial empty self-LSA before the first flood, so the
	// first real topology event has a seqno-1 baseline to diff against
	// rather than originating from nothing.
	state.Flooder.Originate(nil, flood.LocalStubPrefixes(ifaces), time.Now())

	ctlServer := control.NewServer(cfg.ControlSocketPath, &controlAdapter{env: env}, log)
	go func() {
		if err := ctlServer.ListenAndServe(loopCtx); err != nil {
			log.Error("control port stopped", "err", err)
		}
	}()

	if cfg.MetricsAddr != "" {
		go func() {
			if err := metrics.Serve(loopCtx, cfg.MetricsAddr, reg, log); err != nil {
				log.Error("metrics listener stopped", "err", err)
			}
		}()
	}

	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case <-sigc:
			cancel(fmt.Errorf("received shutdown signal"))
		case <-loopCtx.Done():
		}
	}()

	// timer cadence is read from cfg directly (not dispatched) since the
	// event loop hasn't started accepting work yet at this point.
	env.RepeatTask(func(s *AppState) error { emitHellos(s); return nil }, cfg.HelloInterval())
	env.RepeatTask(func(s *AppState) error { sweepNeighbors(s); return nil }, cfg.HelloInterval())
	env.RepeatTask(func(s *AppState) error { refreshSelfLsa(s); return nil }, cfg.LsaInterval())
	env.RepeatTask(func(s *AppState) error { expireLsdb(s); return nil }, cfg.LsaInterval())
	env.RepeatTask(func(s *AppState) error { s.recomputeAndSync(); return nil }, 1*time.Second)

	// emit HELLO immediately on startup, then fall into the periodic
	// hello timer for every interval after.
	env.Dispatch(func(s *AppState) error { emitHellos(s); return nil })

	log.Info("router started", "router_id", cfg.RouterId, "interfaces", len(state.sockets))
	runLoop(state, dispatch)

	log.Info("shutting down, purging owned routes")
	state.Rib.Purge()
	for _, sock := range state.sockets {
		_ = sock.Close()
	}
	return nil
}

func runLoop(s *AppState, dispatch <-chan func(*AppState) error) {
	for {
		select {
		case fun, ok := <-dispatch:
			if !ok {
				return
			}
			if err := fun(s); err != nil {
				s.Log.Error("error during dispatch", "err", err)
			}
		case <-s.Context.Done():
			return
		}
	}
}

func emitHellos(s *AppState) {
	known := make([]string, 0)
	for _, n := range s.Neighbors.SnapshotTwoWay(s.localCapacities()) {
		known = append(known, n.RouterId)
	}
	for _, ifc := range s.Ifaces.Active() {
		hello := &wire.Hello{
			Kind:           wire.KindHello,
			RouterId:       s.Cfg.RouterId,
			SenderIPv4:     ifc.IPv4.String(),
			InterfaceHint:  ifc.Name,
			KnownNeighbors: known,
			CapacityMbps:   ifc.CapacityMbps,
			AdminActive:    ifc.AdminActive,
		}
		msg := wire.Message{Kind: wire.KindHello, Hello: hello}
		frame, err := wire.Encode(s.Key, msg)
		if err != nil {
			s.Log.Error("failed to encode hello", "interface", ifc.Name, "err", err)
			continue
		}
		if ifc.BroadcastIPv4.IsValid() {
			s.send(flood.Outbound{Interface: ifc.Name, DestIPv4: ifc.BroadcastIPv4.String(), Frame: frame})
		}
	}
}

func sweepNeighbors(s *AppState) {
	events := s.Neighbors.Sweep(time.Now())
	if len(events) == 0 {
		return
	}
	for _, ev := range events {
		if ev.Removed {
			continue
		}
		s.Metrics.NeighborTransitions.WithLabelValues(ev.FromState.String(), ev.ToState.String()).Inc()
	}
	s.originateAndFlood(time.Now())
	s.requestRecompute()
}

func refreshSelfLsa(s *AppState) {
	s.originateAndFlood(time.Now())
}

func expireLsdb(s *AppState) {
	removed := s.Lsdb.Expire(time.Now(), s.Cfg.LsdbMaxAge())
	if len(removed) > 0 {
		s.Log.Debug("expired stale LSDB entries", "origins", removed)
		s.requestRecompute()
	}
}

// handleMessage is the single entry point for every decoded wire message,
// regardless of which interface it arrived on.
func handleMessage(s *AppState, fromAddr string, msg wire.Message) {
	peerIP, err := netip.ParseAddr(fromAddr)
	if err != nil {
		return
	}
	switch msg.Kind {
	case wire.KindHello:
		handleHello(s, peerIP, msg.Hello)
	case wire.KindLsa:
		handleLsa(s, peerIP, msg.Lsa)
	}
}

func handleHello(s *AppState, peerIP netip.Addr, h *wire.Hello) {
	ev := s.Neighbors.ObserveHello(h.InterfaceHint, peerIP, h)
	if ev != nil {
		s.originateAndFlood(time.Now())
		s.requestRecompute()
	}
}

// arrivalInterfaceFor resolves which local interface an LSA was received
// on by matching the sender address against the known neighbor set, so
// handleLsa can apply split horizon correctly.
func arrivalInterfaceFor(s *AppState, peerIP netip.Addr) string {
	for _, n := range s.Neighbors.Snapshot() {
		if n.PeerIPv4 == peerIP {
			return n.OnInterface
		}
	}
	return ""
}

func handleLsa(s *AppState, peerIP netip.Addr, l *wire.Lsa) {
	arrivalIface := arrivalInterfaceFor(s, peerIP)
	outcome, _ := s.Flooder.HandleReceived(arrivalIface, l.Origin, l, time.Now())
	if outcome != lsdb.Installed && outcome != lsdb.Updated {
		return
	}

	twoWay := s.Neighbors.SnapshotTwoWay(s.localCapacities())
	targets := flood.FloodTargets(twoWay, arrivalIface)
	msg := wire.Message{Kind: wire.KindLsa, Lsa: l}
	for _, t := range targets {
		if !s.Flooder.ShouldSend(l.Origin, l.Seq, t.RouterId) {
			continue
		}
		outbound, err := flood.BuildOutboundFrames(s.Key, msg, []neighbor.TwoWayNeighbor{t})
		if err != nil {
			s.Log.Error("failed to re-encode flooded lsa", "dest", t.RouterId, "err", err)
			continue
		}
		for _, o := range outbound {
			s.send(o)
		}
	}
	s.requestRecompute()
}
