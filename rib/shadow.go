// Package rib reconciles SPF's routing decisions against the kernel
// routing table, tracking only the routes this process itself installed.
package rib

import (
	"net/netip"

	"github.com/gaissmai/bart"
)

// Entry is one route this router owns in the kernel routing table.
type Entry struct {
	Prefix      netip.Prefix
	NextHopIPv4 netip.Addr
	Interface   string
	Cost        uint32
	OriginRouterId string
}

// Shadow mirrors the subset of the kernel routing table this process owns.
// It is never used to answer lookups for forwarding (the kernel does
// that); it exists purely so RIBSyncer can diff "what SPF wants now"
// against "what the kernel currently has from us" without ever touching a
// route some other process or protocol installed.
type Shadow struct {
	table bart.Table[Entry]
}

func NewShadow() *Shadow {
	return &Shadow{}
}

func (s *Shadow) Get(prefix netip.Prefix) (Entry, bool) {
	return s.table.Get(prefix)
}

func (s *Shadow) Insert(e Entry) {
	s.table.Insert(e.Prefix, e)
}

func (s *Shadow) Delete(prefix netip.Prefix) {
	s.table.Delete(prefix)
}

// All returns every currently-owned route, for the control port's
// `routing-table` command and for Purge.
func (s *Shadow) All() []Entry {
	var out []Entry
	for _, e := range s.table.All() {
		out = append(out, e)
	}
	return out
}
