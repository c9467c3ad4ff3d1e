package rib

// Backend is the kernel route programming interface. It is abstracted
// behind an interface so RIBSyncer can be tested without root privileges
// or a real netlink socket; the real implementation lives in
// backend_linux.go.
type Backend interface {
	AddOrReplace(e Entry) error
	Delete(e Entry) error
}

// Error wraps a kernel route operation failure (spec's KernelRouteError
// category): the route itself, the attempted operation, and the
// underlying OS error.
type Error struct {
	Op    string
	Entry Entry
	Err   error
}

func (e *Error) Error() string {
	return "rib: " + e.Op + " " + e.Entry.Prefix.String() + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error { return e.Err }
