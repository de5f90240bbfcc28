package gateway

import (
	"context"
	"errors"

	"ibgw/internal/bus"
	"ibgw/internal/dispatch"
	"ibgw/pkg/exception"

	"github.com/yanun0323/logs"
	"github.com/yanun0323/pkg/sys"
)

const defaultQueueSize = 4096

// QueueMetrics counts rejected publishes.
type QueueMetrics interface {
	IncQueueDrop()
	IncQueueClosed()
}

// Router resolves inbound events to their requests. Adapters publish events
// from their reader goroutine; Run applies them in arrival order.
type Router struct {
	d       *dispatch.Dispatch
	queue   *bus.Queue[Event]
	metrics QueueMetrics
}

// RouterOption configures a Router.
type RouterOption func(*Router)

// WithQueueSize sets the capacity of the event queue.
func WithQueueSize(size int) RouterOption {
	return func(r *Router) {
		r.queue = bus.NewQueue[Event](size)
	}
}

// WithQueueMetrics counts dropped and late events.
func WithQueueMetrics(m QueueMetrics) RouterOption {
	return func(r *Router) {
		r.metrics = m
	}
}

func NewRouter(d *dispatch.Dispatch, opts ...RouterOption) *Router {
	r := &Router{
		d:     d,
		queue: bus.NewQueue[Event](defaultQueueSize),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Publish queues ev, waiting for room until ctx is done.
func (r *Router) Publish(ctx context.Context, ev Event) error {
	if ev == nil {
		return nil
	}
	err := r.queue.Publish(ctx, ev)
	r.count(err)
	return err
}

// TryPublish queues ev without blocking.
func (r *Router) TryPublish(ev Event) error {
	if ev == nil {
		return nil
	}
	err := r.queue.TryPublish(ev)
	r.count(err)
	return err
}

// Run applies queued events until ctx is done, the process shuts down or
// the router is closed and drained.
func (r *Router) Run(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go func() {
		select {
		case <-sys.Shutdown():
			cancel()
		case <-ctx.Done():
		}
	}()

	r.queue.Run(ctx, r.Handle)
}

// Close stops accepting events. Run returns once the queue is drained.
func (r *Router) Close() {
	r.queue.Close()
}

// Pending returns the number of queued events.
func (r *Router) Pending() int {
	return r.queue.Len()
}

// Handle routes ev synchronously.
func (r *Router) Handle(ev Event) {
	if ev == nil {
		return
	}
	route := ev.Route()
	switch route.Signal {
	case SignalConnected:
		r.d.Connected()
	case SignalDisconnected:
		r.d.Disconnected()
	case SignalData:
		if route.SeedID > 0 {
			r.d.SeedIDs(route.SeedID)
		}
		r.d.Data(route.Key, route.Payload)
	case SignalEnd:
		r.d.End(route.Key)
	case SignalError:
		r.d.Error(route.Key, route.Err)
	default:
		logs.Debugf("gateway: unrouted event %T", ev)
	}
}

func (r *Router) count(err error) {
	if err == nil || r.metrics == nil {
		return
	}
	switch {
	case errors.Is(err, exception.ErrQueueFull):
		r.metrics.IncQueueDrop()
	case errors.Is(err, exception.ErrQueueClosed):
		r.metrics.IncQueueClosed()
	}
}
