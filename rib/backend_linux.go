//go:build linux

package rib

import (
	"net"

	"github.com/vishvananda/netlink"
)

// netlinkBackend programs the kernel routing table via rtnetlink, in the
// same shape as a classic route daemon's netlink integration: resolve the
// egress link by name, build a netlink.Route{LinkIndex, Dst, Gw}, and use
// RouteReplace so a re-announced route with a changed next hop overwrites
// cleanly instead of accumulating duplicates.
type netlinkBackend struct{}

func NewNetlinkBackend() Backend {
	return &netlinkBackend{}
}

func (*netlinkBackend) AddOrReplace(e Entry) error {
	link, err := netlink.LinkByName(e.Interface)
	if err != nil {
		return &Error{Op: "resolve-link", Entry: e, Err: err}
	}
	route := &netlink.Route{
		LinkIndex: link.Attrs().Index,
		Dst:       prefixToIPNet(e),
		Gw:        net.ParseIP(e.NextHopIPv4.String()),
	}
	if err := netlink.RouteReplace(route); err != nil {
		return &Error{Op: "route-replace", Entry: e, Err: err}
	}
	return nil
}

func (*netlinkBackend) Delete(e Entry) error {
	link, err := netlink.LinkByName(e.Interface)
	if err != nil {
		return &Error{Op: "resolve-link", Entry: e, Err: err}
	}
	route := &netlink.Route{
		LinkIndex: link.Attrs().Index,
		Dst:       prefixToIPNet(e),
		Gw:        net.ParseIP(e.NextHopIPv4.String()),
	}
	if err := netlink.RouteDel(route); err != nil {
		return &Error{Op: "route-del", Entry: e, Err: err}
	}
	return nil
}

func prefixToIPNet(e Entry) *net.IPNet {
	addr := e.Prefix.Addr().As4()
	return &net.IPNet{
		IP:   net.IP(addr[:]),
		Mask: net.CIDRMask(e.Prefix.Bits(), 32),
	}
}
