// Package remote runs the remote-exec and remote-copy subprocesses behind the mirror: ssh for
// listings, sizes and deletes, rsync for streaming-progress transfers. Credentials reach the
// subprocess through a one-shot askpass script, never through argument lists.
package remote

import (
	"net"
	"strconv"
)

// DefaultPort is the SSH port used when none is recorded.
const DefaultPort = 22

// Endpoint identifies one remote account.
type Endpoint struct {
	Host     string
	Port     int
	Username string
	// Password is optional; key and agent authentication are used when it is empty.
	Password string
}

// Target returns user@host as used on ssh and rsync command lines.
func (e Endpoint) Target() string {
	host := e.Host
	if net.ParseIP(host) != nil && net.ParseIP(host).To4() == nil {
		host = "[" + host + "]"
	}

	if e.Username == "" {
		return host
	}

	return e.Username + "@" + host
}

// PortOrDefault returns the endpoint port, or 22 when unset.
func (e Endpoint) PortOrDefault() int {
	if e.Port <= 0 {
		return DefaultPort
	}

	return e.Port
}

// String renders the endpoint without its password.
func (e Endpoint) String() string {
	return e.Username + "@" + net.JoinHostPort(e.Host, strconv.Itoa(e.PortOrDefault()))
}

// Direction is the direction of one transfer leg.
type Direction int

// Direction values.
const (
	Upload Direction = iota
	Download
)

func (d Direction) String() string {
	if d == Download {
		return "download"
	}

	return "upload"
}

// ProgressFunc receives the bytes transferred so far within one call and the current speed
// in bytes per second as reported by the transfer tool.
type ProgressFunc func(bytes int64, speed float64)
