//go:build !linux

package rib

import "errors"

// netlinkBackend is only implemented for Linux, where rtnetlink exists.
// On other platforms route installation is unsupported; the router still
// runs its full protocol (LSDB, flooding, SPF) and simply reports every
// kernel route operation as failed; the Syncer logs each failure and keeps
// the route out of its shadow table.
type netlinkBackend struct{}

func NewNetlinkBackend() Backend {
	return &netlinkBackend{}
}

func (*netlinkBackend) AddOrReplace(e Entry) error {
	return &Error{Op: "add", Entry: e, Err: errors.New("rib: kernel route installation is only supported on linux")}
}

func (*netlinkBackend) Delete(e Entry) error {
	return &Error{Op: "delete", Entry: e, Err: errors.New("rib: kernel route installation is only supported on linux")}
}
