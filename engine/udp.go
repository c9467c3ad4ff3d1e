package engine

import (
	"errors"
	"net"
	"net/netip"

	"github.com/go-pospf/pospf/wire"
)

// udpSocket owns one interface's UDP socket. Reads happen on their own
// goroutine and are handed to the event loop via Env.Dispatch; writes are
// issued directly from the event-loop goroutine since net.UDPConn.WriteTo
// is safe to call concurrently with a read on the same connection.
type udpSocket struct {
	iface string
	conn  *net.UDPConn
}

func bindUDPSocket(iface string, port uint16) (*udpSocket, error) {
	conn, err := net.ListenUDP("udp4", &net.UDPAddr{Port: int(port)})
	if err != nil {
		return nil, &SocketError{Interface: iface, Port: port, Err: err}
	}
	return &udpSocket{iface: iface, conn: conn}, nil
}

func (u *udpSocket) send(destIPv4 string, port uint16, frame []byte) error {
	addr := &net.UDPAddr{IP: net.ParseIP(destIPv4), Port: int(port)}
	_, err := u.conn.WriteToUDP(frame, addr)
	return err
}

func (u *udpSocket) Close() error {
	return u.conn.Close()
}

// readLoop runs until the socket is closed, decoding every inbound frame
// and dispatching the decoded message into the event loop. Decode failures
// never reach the event loop as errors — they're recorded against the
// sender and counted, per the error-handling design's "routine flow, not
// panics" rule.
func (u *udpSocket) readLoop(env *Env, key []byte, onMessage func(s *AppState, fromAddr string, msg wire.Message)) {
	buf := make([]byte, 4096)
	for {
		n, addr, err := u.conn.ReadFromUDP(buf)
		if err != nil {
			if env.Context.Err() != nil {
				return
			}
			env.Log.Warn("udp read error", "interface", u.iface, "err", err)
			continue
		}
		frame := append([]byte(nil), buf[:n]...)
		peerIP := addr.IP.String()

		msg, decodeErr := wire.Decode(key, frame)
		env.Dispatch(func(s *AppState) error {
			if decodeErr != nil {
				s.Metrics.DecodeRejects.WithLabelValues(decodeKindLabel(decodeErr)).Inc()
				s.Log.Debug("dropping undecodable frame", "interface", u.iface, "from", peerIP, "err", decodeErr)
				recordDecodeFailure(s, u.iface, peerIP, decodeErr)
				return nil
			}
			onMessage(s, peerIP, msg)
			return nil
		})
	}
}

func decodeKindLabel(err error) string {
	var de *wire.DecodeError
	if errors.As(err, &de) {
		return de.Kind.String()
	}
	return "unknown"
}

func recordDecodeFailure(s *AppState, iface, peerIP string, err error) {
	addr, parseErr := netip.ParseAddr(peerIP)
	if parseErr != nil {
		return
	}
	s.Neighbors.MarkDecodeFailure(iface, addr, err.Error())
}
