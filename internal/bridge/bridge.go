package bridge

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"ibgw/internal/chaos"
	"ibgw/internal/gateway"
	"ibgw/pkg/exception"

	"github.com/yanun0323/errors"
	"github.com/yanun0323/logs"
	"github.com/yanun0323/pkg/sys"
	"github.com/yanun0323/pkg/ws"
)

// Frame is an inbound callback: {"event": "tickPrice", "args": {...}}.
type Frame struct {
	Event string          `json:"event"`
	Args  json.RawMessage `json:"args"`
}

// Request is an outbound call: {"method": "reqMktData", "args": [...]}.
type Request struct {
	Method string `json:"method"`
	Args   []any  `json:"args"`
}

const defaultDisconnectWait = time.Second

type jsonWriter interface {
	WriteJSON(v any) error
}

// Bridge connects a gateway router to a JSON websocket bridge in front of
// the trading gateway. It implements gateway.Client.
type Bridge struct {
	wss    *ws.WebSocket
	router *gateway.Router
	chaos  *chaos.Engine[Frame]

	// disconnectWait bounds how long the disconnect event waits for queue room.
	disconnectWait time.Duration

	mu     sync.Mutex
	w      jsonWriter
	closed bool
}

// Option configures a Bridge.
type Option func(*Bridge)

// WithChaos runs inbound frames through a fault injection engine before
// they are decoded. Used for soak runs against a paper account.
func WithChaos(e *chaos.Engine[Frame]) Option {
	return func(b *Bridge) {
		b.chaos = e
	}
}

func New(ctx context.Context, url string, router *gateway.Router, opts ...Option) *Bridge {
	wss := ws.New(ctx, url)
	b := &Bridge{
		wss:    wss,
		router: router,
		w:      wss,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Start connects and forwards inbound frames to the router until ctx is
// done, the process shuts down or the connection drops.
func (b *Bridge) Start(ctx context.Context) error {
	if err := b.wss.Start(ctx); err != nil {
		return errors.Wrap(err, "start wss")
	}

	ch, cancel := b.wss.Subscribe()
	if err := b.router.Publish(ctx, gateway.Connected{}); err != nil {
		cancel()
		return errors.Wrap(err, "publish connected")
	}
	logs.Info("bridge connected")

	go func() {
		defer cancel()
		defer b.disconnected()
		defer b.flush(ctx)
		for {
			select {
			case <-sys.Shutdown():
				return
			case <-ctx.Done():
				return
			case m, ok := <-ch:
				if !ok {
					return
				}

				frame, ok := ws.ReadMessage[Frame](m)
				if !ok {
					logs.Warnf("bridge: unreadable frame")
					continue
				}
				b.forward(ctx, b.chaos.Process(frame))
			}
		}
	}()

	return nil
}

// Call writes an outbound call.
func (b *Bridge) Call(method string, args ...any) error {
	if args == nil {
		args = []any{}
	}
	req := Request{Method: method, Args: args}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return exception.ErrConnectionClose
	}
	if err := b.w.WriteJSON(req); err != nil {
		return errors.Wrap(err, "write call").With("method", method)
	}
	return nil
}

// Close closes the connection.
func (b *Bridge) Close() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.closed = true
	b.mu.Unlock()

	if b.wss != nil {
		b.wss.Close()
	}
}

func (b *Bridge) forward(ctx context.Context, frames []Frame) {
	for _, frame := range frames {
		if err := b.handle(ctx, frame); err != nil {
			logs.Warnf("bridge: %+v", err)
		}
	}
}

// flush forwards frames still held back by the chaos engine.
func (b *Bridge) flush(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	b.forward(ctx, b.chaos.Flush())
}

func (b *Bridge) handle(ctx context.Context, frame Frame) error {
	if frame.Event == "" {
		return exception.ErrWebSocketProtocol
	}
	ev, err := gateway.Decode(frame.Event, frame.Args)
	if err != nil {
		return err
	}
	return b.router.Publish(ctx, ev)
}

func (b *Bridge) disconnected() {
	b.mu.Lock()
	b.closed = true
	b.mu.Unlock()

	wait := b.disconnectWait
	if wait <= 0 {
		wait = defaultDisconnectWait
	}
	ctx, cancel := context.WithTimeout(context.Background(), wait)
	defer cancel()

	// The sweep must happen even when the router is full or closed.
	if err := b.router.Publish(ctx, gateway.Disconnected{}); err != nil {
		logs.Warnf("bridge: queue disconnected, sweeping directly, err: %+v", err)
		b.router.Handle(gateway.Disconnected{})
	}
	logs.Info("bridge disconnected")
}
