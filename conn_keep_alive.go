package libemit

import (
	"context"
	"sync"
	"time"
)

// KeepAliveFrameFactory generates the heartbeat frame to be sent.
type KeepAliveFrameFactory func() Frame

// keepAliveConnection is a Connection decorator that periodically writes a
// heartbeat frame to keep the transport alive across idle periods.
// It embeds the Connection interface to inherit its methods.
type keepAliveConnection struct {
	Connection
	interval     time.Duration
	frameFactory KeepAliveFrameFactory
	logger       Logger

	openOnce  sync.Once
	closeOnce sync.Once
	closeC    chan struct{}
}

// Open establishes the inner connection and starts the heartbeat routine.
// It only executes once, subsequent calls have no effect.
func (c *keepAliveConnection) Open(ctx context.Context) (err error) {
	c.openOnce.Do(func() {
		err = c.Connection.Open(ctx)
		if err != nil {
			return
		}

		go c.run(ctx)
	})

	return
}

// Close terminates the inner connection and stops the heartbeat routine.
// It only executes once, subsequent calls have no effect.
func (c *keepAliveConnection) Close() {
	c.closeOnce.Do(func() {
		c.Connection.Close()
		close(c.closeC)
	})
}

func (c *keepAliveConnection) run(ctx context.Context) {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-c.closeC:
			return
		case <-c.Connection.CloseChan():
			return
		case <-ticker.C:
			if err := c.Connection.Write(c.frameFactory()); err != nil {
				c.logger.Warnf("heartbeat write failed: %s", err)
			}
		}
	}
}

func newKeepAliveConnection(
	logger Logger,
	inner Connection,
	interval time.Duration,
	frameFactory KeepAliveFrameFactory,
) *keepAliveConnection {
	return &keepAliveConnection{
		Connection:   inner,
		logger:       logger,
		interval:     interval,
		frameFactory: frameFactory,
		closeC:       make(chan struct{}),
	}
}

// NewKeepAliveFactory decorates a ConnectionFactory so that every connection
// it builds sends a heartbeat frame at the given interval.
func NewKeepAliveFactory(
	logger Logger,
	factory ConnectionFactory,
	interval time.Duration,
	frameFactory KeepAliveFrameFactory,
) ConnectionFactory {
	return func(ctx context.Context, recvChan chan<- Frame) Connection {
		return newKeepAliveConnection(
			logger.WithField("conn", "keep_alive"),
			factory(ctx, recvChan),
			interval,
			frameFactory,
		)
	}
}
