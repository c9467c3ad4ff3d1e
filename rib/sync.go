package rib

import (
	"log/slog"
	"net/netip"

	"github.com/go-pospf/pospf/spf"
)

// Syncer reconciles SPF's routing decisions against the kernel routing
// table, touching only routes it itself owns (tracked in Shadow). It never
// deletes a route it did not add.
type Syncer struct {
	backend Backend
	shadow  *Shadow
	log     *slog.Logger
	enabled bool
}

func NewSyncer(backend Backend, log *slog.Logger) *Syncer {
	return &Syncer{backend: backend, shadow: NewShadow(), log: log, enabled: true}
}

// SetEnabled toggles route installation. Disabling purges every
// currently-owned route from the kernel immediately (spec's disenable
// semantics), matching the graceful-shutdown purge this daemon also
// performs on SIGINT/SIGTERM.
func (s *Syncer) SetEnabled(enabled bool) {
	if s.enabled == enabled {
		return
	}
	s.enabled = enabled
	if !enabled {
		s.Purge()
	}
}

func (s *Syncer) Enabled() bool { return s.enabled }

// Sync applies one SPF result: entries no longer present are deleted,
// entries with a changed next hop or interface are replaced, unchanged
// entries are left alone, and brand-new entries are added. SPF emits one
// decision per advertising router, so a prefix advertised by more than one
// origin can appear several times; such a conflict is logged and the route
// already installed for that prefix is kept (or, if none is installed, the
// first decision listed), rather than flapping between origins.
func (s *Syncer) Sync(decisions []spf.RoutingDecision) {
	if !s.enabled {
		return
	}
	wanted := make(map[netip.Prefix]Entry, len(decisions))
	for _, d := range decisions {
		prefix, err := netip.ParsePrefix(d.DestPrefix)
		if err != nil {
			s.log.Warn("rib: skipping unparseable destination prefix", "prefix", d.DestPrefix, "err", err)
			continue
		}
		nextHop, err := netip.ParseAddr(d.NextHopIPv4)
		if err != nil {
			s.log.Warn("rib: skipping unparseable next hop", "next_hop", d.NextHopIPv4, "err", err)
			continue
		}
		entry := Entry{
			Prefix:      prefix,
			NextHopIPv4: nextHop,
			Interface:   d.EgressInterface,
			Cost:        d.Cost,
		}
		if _, dup := wanted[prefix]; dup {
			s.log.Warn("rib: prefix advertised by more than one router, keeping first-installed route", "prefix", prefix)
			cur, installed := s.shadow.Get(prefix)
			if !installed || cur.NextHopIPv4 != entry.NextHopIPv4 || cur.Interface != entry.Interface {
				continue
			}
		}
		wanted[prefix] = entry
	}

	for _, existing := range s.shadow.All() {
		if _, stillWanted := wanted[existing.Prefix]; !stillWanted {
			s.remove(existing)
		}
	}

	for prefix, entry := range wanted {
		current, exists := s.shadow.Get(prefix)
		if exists && current == entry {
			continue
		}
		if err := s.backend.AddOrReplace(entry); err != nil {
			s.log.Error("rib: failed to install route", "prefix", prefix, "err", err)
			continue
		}
		s.shadow.Insert(entry)
	}
}

func (s *Syncer) remove(e Entry) {
	if err := s.backend.Delete(e); err != nil {
		s.log.Error("rib: failed to remove route", "prefix", e.Prefix, "err", err)
		return
	}
	s.shadow.Delete(e.Prefix)
}

// Purge removes every owned route, used on disable and on graceful
// shutdown so a dead or disabled router never leaves stale routes pointing
// at a next hop that's no longer being maintained.
func (s *Syncer) Purge() {
	for _, e := range s.shadow.All() {
		s.remove(e)
	}
}

// Snapshot returns every currently-owned route, for the control port.
func (s *Syncer) Snapshot() []Entry {
	return s.shadow.All()
}
