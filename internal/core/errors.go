package core

import "errors"

var (
	// ErrUnknownSession is returned when an event refers to a connection the hub does not track.
	ErrUnknownSession = errors.New("unknown session")
	// ErrHubClosed is returned by Connect after Shutdown.
	ErrHubClosed = errors.New("hub closed")
)
