// pkg/ftp/errors.go
package ftp

import (
	"errors"
	"fmt"
)

var (
	// ErrNotConnected means a command was issued without a live session.
	ErrNotConnected = errors.New("ftp: not connected")
	// ErrAlreadyConnected means Connect was called on a live session.
	ErrAlreadyConnected = errors.New("ftp: already connected")
	// ErrTransferInProgress rejects a second upload before the first has
	// resolved. One client owns one control socket; overlapping transfers
	// would corrupt response correlation.
	ErrTransferInProgress = errors.New("ftp: transfer already in progress")
	// ErrNoSharedSubnet means no local interface shares a subnet with the
	// control connection's peer, so no PORT address can be advertised.
	ErrNoSharedSubnet = errors.New("ftp: no local interface on the peer's subnet")
	// ErrConnectionClosed completes pending commands when the session is
	// torn down underneath them.
	ErrConnectionClosed = errors.New("ftp: connection closed")
	// ErrGreetingTimeout means the server sent no greeting line within the
	// connect timeout.
	ErrGreetingTimeout = errors.New("ftp: timed out waiting for server greeting")
)

// ProtocolError is a 4xx/5xx reply to a command. It carries the command and
// the full status line so failures are diagnosable without wire traffic.
type ProtocolError struct {
	Command string
	Code    int
	Message string
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("ftp: %s failed with %d %s", e.Command, e.Code, e.Message)
}

// Temporary reports whether the reply was a 4xx transient negative, which a
// caller may choose to retry. 5xx permanent failures are not temporary.
func (e *ProtocolError) Temporary() bool {
	return e.Code >= 400 && e.Code < 500
}

// AsProtocolError unwraps err into a *ProtocolError when it is one.
func AsProtocolError(err error) (*ProtocolError, bool) {
	var pe *ProtocolError
	if errors.As(err, &pe) {
		return pe, true
	}
	return nil, false
}
