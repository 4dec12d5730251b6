package libemit

import (
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"context"

	"github.com/pkg/errors"

	"github.com/fasthttp/websocket"
)

type (
	dialParamsRepo interface {
		Get(ctx context.Context) (DialParams, error)
	}

	DialParams struct {
		URL    url.URL
		Header http.Header
	}

	ErrAdapter func(*websocket.Conn, *http.Response, error) error

	ErrorAdapters struct {
		OnDial ErrAdapter
	}

	// WsConnection carries event frames over a websocket, one JSON-encoded
	// frame per text message. It implements the Connection interface.
	WsConnection struct {
		errAdapters     ErrorAdapters
		dialParamsRepo  dialParamsRepo
		logger          Logger
		dialer          *websocket.Dialer
		conn            *websocket.Conn
		closeChan       CloseChan
		closeOnce       sync.Once
		closeReason     error
		closeReasonOnce sync.Once
		recv            chan<- Frame // recv frames received over the wire
		send            chan Frame   // send frames to be sent over the wire
	}
)

func NewWebsocketConnection(
	dialer *websocket.Dialer,
	dialParamsRepo DialParamsRepo,
	logger Logger,
	recvChan chan<- Frame,
	errorAdapters ErrorAdapters,
) *WsConnection {
	return &WsConnection{
		errAdapters:    errorAdapters,
		dialer:         dialer,
		dialParamsRepo: dialParamsRepo,
		recv:           recvChan,
		send:           make(chan Frame),
		closeChan:      make(CloseChan),
		logger:         logger.WithField("net", "ws_connection"),
	}
}

func NewWebsocketFactory(
	logger Logger,
	dialer *websocket.Dialer,
	dialParamsRepo DialParamsRepo,
	errorAdapters ErrorAdapters,
) ConnectionFactory {
	return func(ctx context.Context, recvChan chan<- Frame) Connection {
		return NewWebsocketConnection(
			dialer,
			dialParamsRepo,
			logger,
			recvChan,
			errorAdapters,
		)
	}
}

// Write queues a frame to be sent to the remote peer.
func (w *WsConnection) Write(f Frame) error {
	w.send <- f
	return nil
}

// Close terminates the websocket connection.
// It ensures that all resources related to the connection are cleaned up.
func (w *WsConnection) Close() {
	w.safeClose()
}

// Open dials the remote peer and starts the read and write pumps.
// It returns when the connection is established or the dial fails.
func (w *WsConnection) Open(ctx context.Context) error {
	return w.start(ctx)
}

// CloseChan returns a channel that will be closed when the connection is
// closed. This can be used to monitor the connection's closing event.
func (w *WsConnection) CloseChan() CloseChan {
	return w.closeChan
}

// CloseErr returns an error that explains why the connection was closed.
// If the connection closed normally, CloseErr returns nil.
func (w *WsConnection) CloseErr() error {
	return w.closeReason
}

func (w *WsConnection) start(ctx context.Context) error {
	p, err := w.dialParamsRepo.Get(ctx)

	if err != nil {
		w.logger.Errorf("cannot get dial params due to %s: ", err)
		return err
	}

	conn, resp, err := w.dialer.Dial(p.URL.String(), p.Header)

	if err = w.handleDialError(conn, resp, err); err != nil {
		w.logger.Errorf("connection err to %s: %s, %+v", p.URL.String(), err, resp)
		return err
	}

	w.logger.Debugf("success opening connection to %s", p.URL.String())

	w.conn = conn

	go w.read(ctx)
	go w.write(ctx)

	return nil
}

func (w *WsConnection) read(ctx context.Context) {
	defer w.safeClose()

	for {
		select {
		case <-w.closeChan:
			w.setCloseReason(ErrTerminated)
			return
		case <-ctx.Done():
			w.setCloseReason(ErrTerminated)
			return
		default:
			messageType, bts, err := w.conn.ReadMessage()
			if err != nil {
				w.logger.Errorf("error occurred on websocket read: %s", err)

				w.setCloseReason(errors.Wrap(
					ErrConnectionClosed,
					"error occurred on websocket read: "+err.Error(),
				))
				return
			}

			if messageType != websocket.TextMessage {
				w.logger.Debugf("<= [SKIP] non-text message type %d", messageType)
				continue
			}

			frame, err := DecodeFrame(bts)
			if err != nil {
				// A broken frame poisons only itself, not the feed
				w.logger.Warnf("dropping frame: %s", err)
				continue
			}

			w.logger.Debugf("<= [FRAME] %s", frame)
			w.recv <- frame
		}
	}
}

func (w *WsConnection) write(ctx context.Context) {
	defer w.safeClose()

	for {
		select {
		case <-w.closeChan:
			w.setCloseReason(ErrTerminated)
			return
		case <-ctx.Done():
			w.setCloseReason(ErrTerminated)
			return
		case frame, ok := <-w.send:
			if !ok {
				w.logger.Infoln("closing connection from our side")
				_ = w.conn.WriteMessage(websocket.CloseMessage, []byte{})
				w.setCloseReason(ErrTerminated)
				return
			}

			bts, err := EncodeFrame(frame)
			if err != nil {
				w.logger.Errorf("dropping outbound frame: %s", err)
				continue
			}

			deadline := time.Now().Add(time.Second)
			_ = w.conn.SetWriteDeadline(deadline)

			w.logger.Debugf("=> [FRAME] %s", frame)

			if err := w.conn.WriteMessage(websocket.TextMessage, bts); err != nil {
				if websocket.IsCloseError(err,
					websocket.CloseGoingAway,
					websocket.CloseAbnormalClosure,
				) {
					w.setCloseReason(ErrConnectionClosed)
				} else {
					w.setCloseReason(errors.Wrap(ErrConnectionClosed, err.Error()))
				}
			}
		}
	}
}

func (w *WsConnection) safeClose() {
	w.closeOnce.Do(w.close)
}

func (w *WsConnection) close() {
	if w.conn != nil {
		_ = w.conn.Close()
	}
	close(w.closeChan)
}

func (w *WsConnection) setCloseReason(err error) {
	w.closeReasonOnce.Do(func() {
		w.closeReason = err
	})
}

func (w *WsConnection) handleDialError(conn *websocket.Conn, resp *http.Response, err error) error {
	if w.errAdapters.OnDial != nil {
		return w.errAdapters.OnDial(conn, resp, err)
	}

	// 1. Check HTTP errors first
	var msg string

	if resp != nil {
		if resp.Body != nil {
			bts, err := io.ReadAll(resp.Body)
			if err == nil {
				msg = string(bts)
			}
		}
		if resp.StatusCode == http.StatusTooManyRequests {
			return errors.Wrap(ErrRateLimit, msg)
		}
	}

	// 2. Network errors
	if err != nil {
		return errors.Wrap(ErrCannotConnect, err.Error())
	}

	return nil
}
