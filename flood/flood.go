// Package flood implements LSA origination and reliable, loop-free
// flooding across TWO_WAY neighbors.
package flood

import (
	"fmt"
	"time"

	"github.com/go-pospf/pospf/iface"
	"github.com/go-pospf/pospf/lsdb"
	"github.com/go-pospf/pospf/neighbor"
	"github.com/go-pospf/pospf/wire"
	"github.com/jellydator/ttlcache/v3"
)

// Outbound is one wire frame this router must send to one neighbor.
type Outbound struct {
	Interface string
	DestIPv4  string
	Frame     []byte
}

// Flooder owns LSA sequence numbering and the anti-storm bookkeeping for
// this router. The actual UDP send happens in the caller (the packet
// loop); Flooder only decides what to send and to whom.
type Flooder struct {
	localRouterId string
	seq           uint64
	lsdb          *lsdb.LSDB

	// recentlyForwarded suppresses re-sending the identical (origin, seq)
	// frame to the same neighbor more than once within a short window,
	// bounding work when a burst of duplicates arrives from several
	// interfaces nearly simultaneously. It never affects correctness —
	// LSDB.Offer's sequence-number rule is the sole source of truth for
	// what is stale or duplicate.
	recentlyForwarded *ttlcache.Cache[string, struct{}]
}

func New(localRouterId string, db *lsdb.LSDB, suppressWindow time.Duration) *Flooder {
	cache := ttlcache.New[string, struct{}](
		ttlcache.WithTTL[string, struct{}](suppressWindow),
	)
	go cache.Start()
	return &Flooder{localRouterId: localRouterId, lsdb: db, recentlyForwarded: cache}
}

func (f *Flooder) Close() {
	f.recentlyForwarded.Stop()
}

// Originate builds this router's self-LSA from its current TWO_WAY
// neighbors and advertised stub prefixes. It always bumps the sequence
// number and installs the record, since it is called only when a topology
// event fired or the periodic refresh interval elapsed (both already rare
// enough that strict dedup here would add nothing).
func (f *Flooder) Originate(neighbors []neighbor.TwoWayNeighbor, stubs []string, now time.Time) lsdb.Record {
	links := make([]wire.Link, 0, len(neighbors))
	for _, n := range neighbors {
		links = append(links, wire.Link{Peer: n.RouterId, Cost: n.Cost, Up: true})
	}
	f.seq++
	rec := lsdb.Record{
		Origin:     f.localRouterId,
		Seq:        f.seq,
		Links:      links,
		StubPrefix: stubs,
		ReceivedAt: now,
	}
	f.lsdb.InstallLocal(rec)
	return rec
}

// HandleReceived offers a decoded LSA to the LSDB and returns the outcome.
// The returned target list is always nil: the caller picks reflood targets
// itself with FloodTargets (which excludes the arrival interface) when the
// outcome is Installed or Updated. Duplicate and Stale outcomes are where
// flooding terminates (spec invariant 3).
func (f *Flooder) HandleReceived(receivedOnIface string, receivedFrom string, l *wire.Lsa, now time.Time) (lsdb.Outcome, []neighbor.TwoWayNeighbor) {
	rec := lsdb.Record{
		Origin:     l.Origin,
		Seq:        l.Seq,
		Links:      l.Links,
		StubPrefix: l.StubPrefixes,
		ReceivedAt: now,
	}
	outcome := f.lsdb.Offer(rec)
	if outcome != lsdb.Installed && outcome != lsdb.Updated {
		return outcome, nil
	}
	return outcome, nil // targets are filled in by FloodTargets, split by caller's neighbor table
}

// FloodTargets filters the full TWO_WAY neighbor set down to the ones a
// just-accepted LSA should be re-sent to, applying split horizon: never
// send it back out the interface it just arrived on.
func FloodTargets(all []neighbor.TwoWayNeighbor, excludeInterface string) []neighbor.TwoWayNeighbor {
	out := make([]neighbor.TwoWayNeighbor, 0, len(all))
	for _, n := range all {
		if n.OnInterface == excludeInterface {
			continue
		}
		out = append(out, n)
	}
	return out
}

// dedupKey identifies one (origin, seq, destination) forwarding decision.
func dedupKey(origin string, seq uint64, destRouterId string) string {
	return fmt.Sprintf("%s/%d->%s", origin, seq, destRouterId)
}

// ShouldSend reports whether (origin, seq) should actually be transmitted
// to destRouterId right now, and records that it was sent if so.
func (f *Flooder) ShouldSend(origin string, seq uint64, destRouterId string) bool {
	key := dedupKey(origin, seq, destRouterId)
	if f.recentlyForwarded.Has(key) {
		return false
	}
	f.recentlyForwarded.Set(key, struct{}{}, ttlcache.DefaultTTL)
	return true
}

// BuildOutboundFrames encodes one frame per destination neighbor. Encoding
// once per destination (rather than reusing a single shared ciphertext) is
// deliberate: each AES-CBC frame uses a fresh random IV, per spec's wire
// framing rules.
func BuildOutboundFrames(key []byte, msg wire.Message, targets []neighbor.TwoWayNeighbor) ([]Outbound, error) {
	out := make([]Outbound, 0, len(targets))
	for _, t := range targets {
		frame, err := wire.Encode(key, msg)
		if err != nil {
			return nil, fmt.Errorf("flood: encode for %s: %w", t.RouterId, err)
		}
		out = append(out, Outbound{Interface: t.OnInterface, DestIPv4: t.PeerIPv4.String(), Frame: frame})
	}
	return out, nil
}

// LocalStubPrefixes is a small convenience so callers don't need to know
// about iface.Table's internal representation when building a Hello or Lsa.
func LocalStubPrefixes(ifaces *iface.Table) []string {
	prefixes := ifaces.StubPrefixes()
	out := make([]string, 0, len(prefixes))
	for _, p := range prefixes {
		out = append(out, p.String())
	}
	return out
}
