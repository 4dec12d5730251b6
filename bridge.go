package libemit

import (
	"context"
	"sync"
)

// Bridge mirrors events between a local Emitter and a remote peer over a
// Connection. Frames received from the peer are dispatched to local
// listeners; event types marked with Forward are published to the peer when
// they are emitted locally.
//
// The bridge serializes all access to its emitter, so its methods are safe
// to call from multiple goroutines. Listeners still run synchronously, one
// at a time, and may use the reentrant emitter operations (RemoveCurrentListener,
// Subscription.Remove and so on) but must go through the emitter, not the
// bridge, to avoid self-deadlock.
type Bridge struct {
	logger      Logger
	emitter     *Emitter
	connFactory ConnectionFactory

	mu      sync.Mutex
	conn    Connection
	inbound bool

	recv      chan Frame
	closeC    CloseChan
	closeOnce sync.Once
}

func NewBridge(logger Logger, emitter *Emitter, connFactory ConnectionFactory) *Bridge {
	return &Bridge{
		logger:      logger.WithField("component", "bridge"),
		emitter:     emitter,
		connFactory: connFactory,
		recv:        make(chan Frame),
		closeC:      make(CloseChan),
	}
}

// Open dials the remote peer and starts pumping inbound frames into the
// local emitter. It returns once the transport is established.
func (b *Bridge) Open(ctx context.Context) error {
	conn := b.connFactory(ctx, b.recv)

	if err := conn.Open(ctx); err != nil {
		return err
	}

	b.mu.Lock()
	b.conn = conn
	b.mu.Unlock()

	go b.run(ctx, conn)

	return nil
}

// AddListener registers a listener on the local emitter.
func (b *Bridge) AddListener(eventType string, listener Listener, context any) *Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.emitter.AddListener(eventType, listener, context)
}

// Emit dispatches a local event. Forwarded event types are also published to
// the remote peer.
func (b *Bridge) Emit(eventType string, args ...any) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.emitter.Emit(eventType, args...)
}

// Forward marks event types for publication: whenever one of them is emitted
// locally it is written to the remote peer as a frame. Events that arrived
// from the peer are not forwarded back, so a type may be safely mirrored in
// both directions.
func (b *Bridge) Forward(eventTypes ...string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, eventType := range eventTypes {
		eventType := eventType
		b.emitter.AddListener(eventType, func(_ any, args ...any) {
			if b.inbound {
				return
			}
			b.publish(NewFrame(eventType, args...))
		}, nil)
	}
}

// CloseChan returns a channel that signals when the bridge has shut down.
func (b *Bridge) CloseChan() CloseChan {
	return b.closeC
}

// Close shuts the bridge down and closes the underlying connection. It is
// idempotent.
func (b *Bridge) Close() {
	b.closeOnce.Do(func() {
		b.mu.Lock()
		conn := b.conn
		b.mu.Unlock()

		if conn != nil {
			conn.Close()
		}

		close(b.closeC)
	})
}

// publish is called from Forward listeners with b.mu held.
func (b *Bridge) publish(f Frame) {
	if b.conn == nil {
		b.logger.Warnf("dropping outbound frame, bridge not open: %s", f)
		return
	}
	if err := b.conn.Write(f); err != nil {
		b.logger.Errorf("cannot publish frame %s: %s", f, err)
	}
}

func (b *Bridge) run(ctx context.Context, conn Connection) {
	connClosed := conn.CloseChan()

	for {
		select {
		case <-ctx.Done():
			b.Close()
			return
		case <-b.closeC:
			return
		case <-connClosed:
			b.logger.Infof("connection closed: %s", conn.CloseErr())
			b.Close()
			return
		case f := <-b.recv:
			b.dispatch(f)
		}
	}
}

func (b *Bridge) dispatch(f Frame) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.inbound = true
	defer func() {
		b.inbound = false
	}()

	b.emitter.Emit(f.Event, f.Args...)
}
