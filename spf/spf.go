// Package spf computes the shortest-path tree over the link-state database
// using Dijkstra's algorithm, and resolves it into per-destination next-hop
// routing decisions.
package spf

import (
	"container/heap"
	"math"
	"sort"

	"github.com/go-pospf/pospf/lsdb"
	"github.com/go-pospf/pospf/neighbor"
)

// RoutingDecision is one resolved route: reach destPrefix via nextHop out
// egressInterface, at the given total path cost.
type RoutingDecision struct {
	DestPrefix      string
	NextHopIPv4     string
	EgressInterface string
	Cost            uint32
}

// node is one router in the Dijkstra working set.
type node struct {
	routerId string
	dist     uint32
	// nextHopIPv4 and egressInterface are the first hop at the root of the
	// shortest path found so far to this router, resolved directly from the
	// root's own TWO_WAY neighbor set. Interior hops inherit them from their
	// predecessor, and they are replaced whenever a cheaper path is found.
	nextHopIPv4     string
	egressInterface string
	index           int
	visited         bool
}

type priorityQueue []*node

func (pq priorityQueue) Len() int { return len(pq) }
func (pq priorityQueue) Less(i, j int) bool {
	if pq[i].dist != pq[j].dist {
		return pq[i].dist < pq[j].dist
	}
	return pq[i].routerId < pq[j].routerId
}
func (pq priorityQueue) Swap(i, j int) {
	pq[i], pq[j] = pq[j], pq[i]
	pq[i].index = i
	pq[j].index = j
}
func (pq *priorityQueue) Push(x any) {
	n := x.(*node)
	n.index = len(*pq)
	*pq = append(*pq, n)
}
func (pq *priorityQueue) Pop() any {
	old := *pq
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	*pq = old[:n-1]
	return item
}

func (pq *priorityQueue) update(n *node, dist uint32, nextHopIPv4, egressInterface string) {
	n.dist = dist
	n.nextHopIPv4 = nextHopIPv4
	n.egressInterface = egressInterface
	heap.Fix(pq, n.index)
}

// Compute runs Dijkstra rooted at localRouterId over the LSDB's
// bidirectional adjacency graph, then resolves the resulting shortest-path
// tree into one RoutingDecision per stub prefix of every other reachable
// router. Prefixes the root itself advertises are excluded — a router
// never installs a route to its own directly-attached subnet.
func Compute(localRouterId string, db *lsdb.LSDB, directNeighbors []neighbor.TwoWayNeighbor) []RoutingDecision {
	edges := db.SnapshotGraph()
	adjacency := make(map[string][]lsdb.GraphEdge)
	routers := map[string]struct{}{localRouterId: {}}
	for _, e := range edges {
		adjacency[e.From] = append(adjacency[e.From], e)
		routers[e.From] = struct{}{}
		routers[e.To] = struct{}{}
	}
	for _, n := range directNeighbors {
		routers[n.RouterId] = struct{}{}
	}

	nodes := make(map[string]*node, len(routers))
	pq := make(priorityQueue, 0, len(routers))
	for routerId := range routers {
		n := &node{routerId: routerId, dist: math.MaxUint32}
		if routerId == localRouterId {
			n.dist = 0
		}
		nodes[routerId] = n
		pq = append(pq, n)
	}

	// direct neighbors seed their own first hop directly, so a neighbor
	// that's not yet in the LSDB (just discovered, no LSA exchanged yet)
	// is still reachable as a one-hop route (mirrors the teacher's
	// "add neighbors we don't have in the LSDB yet" handling).
	for _, dn := range directNeighbors {
		n := nodes[dn.RouterId]
		if n == nil {
			continue
		}
		if dn.Cost < n.dist {
			n.dist = dn.Cost
			n.nextHopIPv4 = dn.PeerIPv4.String()
			n.egressInterface = dn.OnInterface
		}
	}

	heap.Init(&pq)

	for pq.Len() > 0 {
		current := heap.Pop(&pq).(*node)
		if current.dist == math.MaxUint32 {
			break // remainder is unreachable
		}
		current.visited = true

		for _, edge := range adjacency[current.routerId] {
			neighborNode := nodes[edge.To]
			if neighborNode == nil || neighborNode.visited {
				continue
			}
			candidate := neighbor.AddCost(current.dist, edge.Cost)
			if candidate < neighborNode.dist {
				nextHopIPv4 := current.nextHopIPv4
				egress := current.egressInterface
				if current.routerId == localRouterId {
					// current is the root: this is a direct neighbor edge,
					// its own nextHop/egress was already seeded above.
					nextHopIPv4 = neighborNode.nextHopIPv4
					egress = neighborNode.egressInterface
				}
				pq.update(neighborNode, candidate, nextHopIPv4, egress)
			}
		}
	}

	var decisions []RoutingDecision
	for routerId, n := range nodes {
		if routerId == localRouterId || !n.visited || n.nextHopIPv4 == "" {
			continue
		}
		prefixes, _ := db.StubPrefixesOf(routerId)
		for _, prefix := range prefixes {
			decisions = append(decisions, RoutingDecision{
				DestPrefix:      prefix,
				NextHopIPv4:     n.nextHopIPv4,
				EgressInterface: n.egressInterface,
				Cost:            n.dist,
			})
		}
	}
	sort.Slice(decisions, func(i, j int) bool { return decisions[i].DestPrefix < decisions[j].DestPrefix })
	return decisions
}
