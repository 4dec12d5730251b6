package libemit

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/pkg/errors"
)

// BackoffCalculator yields how long to wait before dial attempt number
// attempts.
type BackoffCalculator func(attempts int) time.Duration

// ExponentialBackoff doubles the base delay on every attempt, capped at max.
func ExponentialBackoff(base, max time.Duration) BackoffCalculator {
	return func(attempts int) time.Duration {
		if attempts < 1 {
			attempts = 1
		}
		d := time.Duration(float64(base) * math.Pow(2, float64(attempts-1)))
		if d > max {
			return max
		}
		return d
	}
}

// backoffReconnectConnection decorates a ConnectionFactory so that a dropped
// transport is redialed with backoff instead of surfacing as a close. Close
// and context cancellation are terminal; everything else triggers a redial.
type backoffReconnectConnection struct {
	factory         ConnectionFactory
	calculator      BackoffCalculator
	logger          Logger
	recv            chan<- Frame
	mu              sync.Mutex // guards inner across redials
	inner           Connection
	closeC          CloseChan
	closeOnce       sync.Once
	closeReason     error
	closeReasonOnce sync.Once
}

func NewBackoffReconnectFactory(
	logger Logger,
	factory ConnectionFactory,
	calculator BackoffCalculator,
) ConnectionFactory {
	return func(ctx context.Context, recvChan chan<- Frame) Connection {
		return &backoffReconnectConnection{
			factory:    factory,
			calculator: calculator,
			recv:       recvChan,
			closeC:     make(CloseChan),
			logger:     logger.WithField("conn", "backoff_reconnect"),
		}
	}
}

// Open dials until a connection is established, then watches it and redials
// whenever it drops. It blocks until the first dial succeeds or the context
// is cancelled.
func (b *backoffReconnectConnection) Open(ctx context.Context) error {
	inner, err := b.dial(ctx)
	if err != nil {
		return err
	}

	b.setInner(inner)

	go b.run(ctx)

	return nil
}

func (b *backoffReconnectConnection) Write(f Frame) error {
	b.mu.Lock()
	inner := b.inner
	b.mu.Unlock()

	if inner == nil {
		return ErrConnectionClosed
	}
	return inner.Write(f)
}

func (b *backoffReconnectConnection) Close() {
	b.closeOnce.Do(func() {
		b.setCloseReason(ErrTerminated)
		close(b.closeC)

		b.mu.Lock()
		inner := b.inner
		b.mu.Unlock()

		if inner != nil {
			inner.Close()
		}
	})
}

func (b *backoffReconnectConnection) CloseChan() CloseChan { return b.closeC }

func (b *backoffReconnectConnection) CloseErr() error { return b.closeReason }

func (b *backoffReconnectConnection) setInner(inner Connection) {
	b.mu.Lock()
	b.inner = inner
	b.mu.Unlock()
}

func (b *backoffReconnectConnection) setCloseReason(err error) {
	b.closeReasonOnce.Do(func() {
		b.closeReason = err
	})
}

// dial keeps attempting to open a fresh inner connection until it succeeds,
// waiting calculator-determined delays between attempts.
func (b *backoffReconnectConnection) dial(ctx context.Context) (Connection, error) {
	attempts := 0

	for {
		select {
		case <-ctx.Done():
			return nil, errors.Wrap(ErrCannotConnect, ctx.Err().Error())
		case <-b.closeC:
			return nil, ErrTerminated
		default:
		}

		attempts++

		inner := b.factory(ctx, b.recv)

		err := inner.Open(ctx)
		if err == nil {
			return inner, nil
		}

		ttw := b.calculator(attempts)
		b.logger.Infof("cannot connect due to %s, waiting %s", err, ttw)

		select {
		case <-time.After(ttw):
		case <-ctx.Done():
			return nil, errors.Wrap(ErrCannotConnect, ctx.Err().Error())
		case <-b.closeC:
			return nil, ErrTerminated
		}
	}
}

func (b *backoffReconnectConnection) run(ctx context.Context) {
	for {
		b.mu.Lock()
		inner := b.inner
		b.mu.Unlock()

		select {
		case <-ctx.Done():
			b.Close()
			return
		case <-b.closeC:
			inner.Close()
			return
		case <-inner.CloseChan():
			b.logger.Infof("connection lost due to %s, reconnecting", inner.CloseErr())
		}

		next, err := b.dial(ctx)
		if err != nil {
			b.logger.Errorf("giving up reconnecting: %s", err)
			b.closeOnce.Do(func() {
				b.setCloseReason(err)
				close(b.closeC)
			})
			return
		}

		b.setInner(next)
	}
}
