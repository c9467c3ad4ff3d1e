// Package lsdb is the link-state database: the set of most-recent LSAs
// received from every known origin, including this router's own.
package lsdb

import (
	"time"

	"github.com/go-pospf/pospf/wire"
)

// Record is one stored LSA together with the bookkeeping needed to age it
// out.
type Record struct {
	Origin      string
	Seq         uint64
	Links       []wire.Link
	StubPrefix  []string
	ReceivedAt  time.Time
	RawEncoded  []byte // slot for the received wire frame; no caller sets it, and re-flooding re-encodes the LSA with a fresh IV
}

// Outcome classifies what offering a record to the database actually did,
// so callers (the flooder) know whether to re-flood, drop, or log.
type Outcome int

const (
	Installed Outcome = iota
	Updated
	Duplicate
	Stale
	Rejected
)

func (o Outcome) String() string {
	switch o {
	case Installed:
		return "installed"
	case Updated:
		return "updated"
	case Duplicate:
		return "duplicate"
	case Stale:
		return "stale"
	case Rejected:
		return "rejected"
	default:
		return "unknown"
	}
}

// LSDB holds one Record per known origin router. It never holds more than
// one record per origin; a new record with a higher sequence number
// replaces the old, strictly-lower or equal sequence numbers are rejected.
type LSDB struct {
	localRouterId string
	byOrigin      map[string]*Record
}

func New(localRouterId string) *LSDB {
	return &LSDB{localRouterId: localRouterId, byOrigin: make(map[string]*Record)}
}

// Offer applies the LSDB acceptance rule (spec invariant 2, the database's
// monotonicity guarantee): a record from this router's own origin is never
// accepted via Offer (use InstallLocal), a record with no prior entry is
// Installed, a strictly higher sequence number is Updated (the new content
// replaces the old), an equal sequence number is a Duplicate whatever its
// content (the stored record is kept), and a lower sequence number is Stale.
func (l *LSDB) Offer(rec Record) Outcome {
	if rec.Origin == l.localRouterId {
		return Rejected
	}
	existing, ok := l.byOrigin[rec.Origin]
	if !ok {
		l.byOrigin[rec.Origin] = &rec
		return Installed
	}
	switch {
	case rec.Seq > existing.Seq:
		l.byOrigin[rec.Origin] = &rec
		return Updated
	case rec.Seq == existing.Seq:
		return Duplicate
	default:
		return Stale
	}
}

// InstallLocal installs this router's own self-originated LSA directly,
// bypassing the Offer acceptance rule (a router always trusts its own
// freshly-built view of its adjacencies).
func (l *LSDB) InstallLocal(rec Record) {
	l.byOrigin[rec.Origin] = &rec
}

// Get returns the current record for an origin, if any.
func (l *LSDB) Get(origin string) (Record, bool) {
	r, ok := l.byOrigin[origin]
	if !ok {
		return Record{}, false
	}
	return *r, true
}

// Expire drops records older than maxAge, except the local router's own
// record (which is refreshed by origination, not the passage of time).
// Returns the origins removed, for logging/metrics.
func (l *LSDB) Expire(now time.Time, maxAge time.Duration) []string {
	var removed []string
	for origin, rec := range l.byOrigin {
		if origin == l.localRouterId {
			continue
		}
		if now.Sub(rec.ReceivedAt) > maxAge {
			delete(l.byOrigin, origin)
			removed = append(removed, origin)
		}
	}
	return removed
}

// GraphEdge is one directed adjacency as seen from a single LSA's Links.
type GraphEdge struct {
	From, To string
	Cost     uint32
}

// SnapshotGraph returns the bidirectional-only adjacency graph: an edge
// A->B is included only if A's LSA lists B as up AND B's LSA lists A as up
// (spec invariant 4). Asymmetric or one-sided adjacencies - a stale LSA on
// one side, or a link that just went down - are excluded rather than
// treated as directed.
func (l *LSDB) SnapshotGraph() []GraphEdge {
	var edges []GraphEdge
	for origin, rec := range l.byOrigin {
		for _, link := range rec.Links {
			if !link.Up {
				continue
			}
			peer, ok := l.byOrigin[link.Peer]
			if !ok {
				continue
			}
			if !hasUpLinkTo(peer.Links, origin) {
				continue
			}
			edges = append(edges, GraphEdge{From: origin, To: link.Peer, Cost: link.Cost})
		}
	}
	return edges
}

func hasUpLinkTo(links []wire.Link, target string) bool {
	for _, l := range links {
		if l.Peer == target && l.Up {
			return true
		}
	}
	return false
}

// Origins returns every origin currently stored, for the control port and
// for SPF's reachability walk.
func (l *LSDB) Origins() []string {
	out := make([]string, 0, len(l.byOrigin))
	for origin := range l.byOrigin {
		out = append(out, origin)
	}
	return out
}

// StubPrefixesOf returns the stub prefixes a given origin advertised.
func (l *LSDB) StubPrefixesOf(origin string) ([]string, bool) {
	rec, ok := l.byOrigin[origin]
	if !ok {
		return nil, false
	}
	return rec.StubPrefix, true
}
