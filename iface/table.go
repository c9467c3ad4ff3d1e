// Package iface builds the immutable, per-run InterfaceTable from a
// RouterConfig plus whatever the host OS actually exposes.
package iface

import (
	"fmt"
	"log/slog"
	"net"
	"net/netip"

	"github.com/go-pospf/pospf/config"
)

// Interface is one configured, resolved network interface.
type Interface struct {
	Name          string
	IPv4          netip.Addr
	BroadcastIPv4 netip.Addr
	PrefixLen     int // subnet prefix length observed on the host, 0 if unresolved
	CapacityMbps  uint32
	AdminActive   bool
}

// Table is the read-only set of interfaces resolved at startup. It never
// changes for the lifetime of the process (runtime reload is out of scope).
type Table struct {
	byName map[string]Interface
	order  []string // insertion order, for deterministic iteration
}

// osInterfaceAddrs abstracts net.InterfaceByName + Addrs so tests can stub
// the host without real NICs.
type osInterfaceAddrs func(name string) (broadcast netip.Addr, addr netip.Addr, prefixLen int, err error)

// Build resolves each configured interface against the host. An interface
// named in config but absent (or addressless) on the host is logged and
// marked AdminActive=false rather than rejected, per the link-down handling
// a real router needs when a NIC is temporarily missing.
func Build(cfgs []config.InterfaceConfig, log *slog.Logger) (*Table, error) {
	return build(cfgs, log, lookupHostInterface)
}

func build(cfgs []config.InterfaceConfig, log *slog.Logger, lookup osInterfaceAddrs) (*Table, error) {
	t := &Table{byName: make(map[string]Interface, len(cfgs))}
	for _, c := range cfgs {
		ifc := Interface{
			Name:         c.Name,
			CapacityMbps: c.CapacityMbps,
			AdminActive:  c.LinkActive,
		}
		bcast, addr, plen, err := lookup(c.Name)
		if err != nil {
			if log != nil {
				log.Warn("interface absent on host, marking inactive", "interface", c.Name, "err", err)
			}
			ifc.AdminActive = false
		} else {
			ifc.IPv4 = addr
			ifc.BroadcastIPv4 = bcast
			ifc.PrefixLen = plen
		}
		t.byName[c.Name] = ifc
		t.order = append(t.order, c.Name)
	}
	if len(t.order) == 0 {
		return nil, fmt.Errorf("iface: no interfaces configured")
	}
	return t, nil
}

func lookupHostInterface(name string) (broadcast netip.Addr, addr netip.Addr, prefixLen int, err error) {
	nic, err := net.InterfaceByName(name)
	if err != nil {
		return netip.Addr{}, netip.Addr{}, 0, err
	}
	addrs, err := nic.Addrs()
	if err != nil {
		return netip.Addr{}, netip.Addr{}, 0, err
	}
	for _, a := range addrs {
		ipNet, ok := a.(*net.IPNet)
		if !ok {
			continue
		}
		ip4 := ipNet.IP.To4()
		if ip4 == nil {
			continue
		}
		addr, _ = netip.AddrFromSlice(ip4)
		bcastBytes := make(net.IP, len(ip4))
		mask := ipNet.Mask
		for i := range ip4 {
			bcastBytes[i] = ip4[i] | ^mask[i]
		}
		broadcast, _ = netip.AddrFromSlice(bcastBytes)
		ones, _ := ipNet.Mask.Size()
		return broadcast, addr, ones, nil
	}
	return netip.Addr{}, netip.Addr{}, 0, fmt.Errorf("no IPv4 address on %s", name)
}

// Get returns the interface by name and whether it exists at all.
func (t *Table) Get(name string) (Interface, bool) {
	ifc, ok := t.byName[name]
	return ifc, ok
}

// Active returns all admin-active interfaces in config order.
func (t *Table) Active() []Interface {
	out := make([]Interface, 0, len(t.order))
	for _, name := range t.order {
		ifc := t.byName[name]
		if ifc.AdminActive {
			out = append(out, ifc)
		}
	}
	return out
}

// All returns every configured interface, active or not, in config order.
func (t *Table) All() []Interface {
	out := make([]Interface, 0, len(t.order))
	for _, name := range t.order {
		out = append(out, t.byName[name])
	}
	return out
}

// StubPrefixes returns the directly-attached subnet for each admin-active,
// address-resolved interface. These are the stub_prefixes a router's LSA
// advertises so other routers can reach hosts on this router's local links.
func (t *Table) StubPrefixes() []netip.Prefix {
	var out []netip.Prefix
	for _, name := range t.order {
		ifc := t.byName[name]
		if !ifc.AdminActive || !ifc.IPv4.IsValid() {
			continue
		}
		plen := ifc.PrefixLen
		if plen == 0 {
			plen = 32
		}
		p := netip.PrefixFrom(ifc.IPv4, plen).Masked()
		out = append(out, p)
	}
	return out
}
