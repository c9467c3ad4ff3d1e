// Package wire implements the on-the-wire HELLO/LSA message framing:
// JSON payloads encrypted with a pre-shared AES-256-CBC key.
package wire

// Kind discriminates the two message payloads carried over UDP.
type Kind string

const (
	KindHello Kind = "HELLO"
	KindLsa   Kind = "LSA"
)

// Hello announces presence, capacity and known peers on one interface.
type Hello struct {
	Kind           Kind     `json:"kind"`
	RouterId       string   `json:"router_id"`
	SenderIPv4     string   `json:"sender_ipv4"`
	InterfaceHint  string   `json:"interface_hint"`
	KnownNeighbors []string `json:"known_neighbors"`
	CapacityMbps   uint32   `json:"capacity_mbps"`
	AdminActive    bool     `json:"admin_active"`
}

// Link describes one directed neighbor relationship in an LSA.
type Link struct {
	Peer string `json:"peer"`
	Cost uint32 `json:"cost"`
	Up   bool   `json:"up"`
}

// Lsa describes one router's local connectivity and directly-attached
// subnets, identified by (Origin, Seq).
type Lsa struct {
	Kind         Kind     `json:"kind"`
	Origin       string   `json:"origin"`
	Seq          uint64   `json:"seq"`
	Links        []Link   `json:"links"`
	StubPrefixes []string `json:"stub_prefixes,omitempty"`
}

// Message is the decoded union of the two payload kinds. Exactly one of
// Hello/Lsa is non-nil, selected by Kind.
type Message struct {
	Kind  Kind
	Hello *Hello
	Lsa   *Lsa
}
