// Package port finds free TCP ports.
package port

import (
	"errors"
	"net"

	"github.com/zircuit-labs/zkr-go-taskbridge/xerrors/stacktrace"
)

var errNotTCP = errors.New("listener address is not a TCP address")

// AvailablePort returns a port that was free on localhost at the time of the call.
func AvailablePort() (int, error) {
	return AvailablePortOn("localhost")
}

// AvailablePortOn returns a port that was free on host at the time of the call.
// Another process may take it before the caller binds it.
func AvailablePortOn(host string) (int, error) {
	l, err := net.Listen("tcp", net.JoinHostPort(host, "0"))
	if err != nil {
		return 0, stacktrace.Wrap(err)
	}
	defer l.Close()

	addr, ok := l.Addr().(*net.TCPAddr)
	if !ok {
		return 0, stacktrace.Wrap(errNotTCP)
	}
	return addr.Port, nil
}
