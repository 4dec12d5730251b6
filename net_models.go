package libemit

import (
	"context"
)

type (
	CloseChan chan struct{}

	// Connection is a bidirectional transport for event frames.
	Connection interface {
		// Write sends a frame to the remote peer
		Write(f Frame) error
		// Open establishes the transport. Inbound frames are delivered to the
		// receive channel the connection was built with
		Open(ctx context.Context) error
		// Close terminates the transport and releases its resources
		Close()
		// CloseErr explains why the connection closed, nil on a normal close
		CloseErr() error
		// CloseChan returns a channel that is closed when the connection closes
		CloseChan() CloseChan
	}

	// ConnectionFactory builds a Connection that delivers inbound frames to
	// recvChan.
	ConnectionFactory func(ctx context.Context, recvChan chan<- Frame) Connection
)
