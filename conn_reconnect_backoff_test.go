package libemit

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubConn struct {
	openErr   error
	writes    chan Frame
	closeC    CloseChan
	closeOnce sync.Once
}

func newStubConn(openErr error) *stubConn {
	return &stubConn{
		openErr: openErr,
		writes:  make(chan Frame, 8),
		closeC:  make(CloseChan),
	}
}

func (s *stubConn) Open(context.Context) error { return s.openErr }

func (s *stubConn) Write(f Frame) error {
	s.writes <- f
	return nil
}

func (s *stubConn) Close() {
	s.closeOnce.Do(func() { close(s.closeC) })
}

func (s *stubConn) CloseErr() error { return nil }

func (s *stubConn) CloseChan() CloseChan { return s.closeC }

func (s *stubConn) closed() bool {
	select {
	case <-s.closeC:
		return true
	default:
		return false
	}
}

func noBackoff(int) time.Duration { return 0 }

func reconnectFixture(t *testing.T, stubs ...*stubConn) (Connection, chan *stubConn) {
	t.Helper()

	next := make(chan *stubConn, len(stubs))
	for _, s := range stubs {
		next <- s
	}

	dialed := make(chan *stubConn, len(stubs))
	factory := func(ctx context.Context, recvChan chan<- Frame) Connection {
		s := <-next
		dialed <- s
		return s
	}

	return NewBackoffReconnectFactory(noopLogger{}, factory, noBackoff)(
		context.Background(), make(chan Frame),
	), dialed
}

func TestBackoffReconnectRedialsOnConnectionLoss(t *testing.T) {
	c1 := newStubConn(nil)
	c2 := newStubConn(nil)
	conn, dialed := reconnectFixture(t, c1, c2)

	require.NoError(t, conn.Open(context.Background()))
	require.Same(t, c1, <-dialed)

	// Simulate a remote drop.
	c1.Close()

	select {
	case s := <-dialed:
		require.Same(t, c2, s)
	case <-time.After(time.Second):
		t.Fatal("connection was never redialed")
	}

	conn.Close()

	require.Eventually(t, c2.closed, time.Second, 5*time.Millisecond)
}

func TestBackoffReconnectRetriesFailedDials(t *testing.T) {
	c1 := newStubConn(errors.New("refused"))
	c2 := newStubConn(nil)
	conn, dialed := reconnectFixture(t, c1, c2)

	require.NoError(t, conn.Open(context.Background()))

	assert.Same(t, c1, <-dialed)
	assert.Same(t, c2, <-dialed)

	conn.Close()
}

func TestBackoffReconnectHonorsCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	conn, _ := reconnectFixture(t, newStubConn(nil))

	err := conn.Open(ctx)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrCannotConnect))
}

func TestBackoffReconnectWriteGoesToCurrentInner(t *testing.T) {
	c1 := newStubConn(nil)
	conn, dialed := reconnectFixture(t, c1)

	require.NoError(t, conn.Open(context.Background()))
	<-dialed

	require.NoError(t, conn.Write(NewFrame("tick")))

	select {
	case f := <-c1.writes:
		assert.Equal(t, "tick", f.Event)
	default:
		t.Fatal("frame was not written to the active connection")
	}

	conn.Close()
}

func TestExponentialBackoff(t *testing.T) {
	calc := ExponentialBackoff(time.Second, 10*time.Second)

	assert.Equal(t, time.Second, calc(1))
	assert.Equal(t, 2*time.Second, calc(2))
	assert.Equal(t, 4*time.Second, calc(3))
	assert.Equal(t, 10*time.Second, calc(10))
	assert.Equal(t, time.Second, calc(0))
}
