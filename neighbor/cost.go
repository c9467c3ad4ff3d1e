package neighbor

// InfiniteCost is the sentinel cost for a DOWN or admin-inactive link.
const InfiniteCost = ^uint32(0)

// Cost implements the shared OSPF cost rule (used identically by the
// neighbor table when computing effective link cost, and by SPF when
// weighting LSA links): cost = max(1, referenceBandwidth / actualBandwidth).
// referenceBandwidth is fixed at 100 Mbit (100_000_000), matching OSPF's
// classic default so that a 1000 Mbps link costs 1 and a 10 Mbps link
// costs 10.
func Cost(capacityMbps uint32) uint32 {
	if capacityMbps == 0 {
		return InfiniteCost
	}
	const referenceBps = uint64(100_000_000)
	actualBps := uint64(capacityMbps) * 1_000_000
	c := referenceBps / actualBps
	if c < 1 {
		c = 1
	}
	return uint32(c)
}

// AddCost saturates at InfiniteCost instead of overflowing, so that a path
// through an already-infinite-cost link stays infinite.
func AddCost(a, b uint32) uint32 {
	if a == InfiniteCost || b == InfiniteCost {
		return InfiniteCost
	}
	sum := uint64(a) + uint64(b)
	if sum >= uint64(InfiniteCost) {
		return InfiniteCost
	}
	return uint32(sum)
}
