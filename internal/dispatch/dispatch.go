package dispatch

import (
	"context"
	"sync"
	"time"

	"ibgw/pkg/exception"

	"github.com/yanun0323/logs"
)

// Dispatch multiplexes one gateway connection into addressable requests.
// A single mutex guards the id allocator, the signature registry and the
// request table; handlers always run outside of it.
type Dispatch struct {
	mu        sync.Mutex
	reg       *registry
	ids       *Allocator
	connected bool
	ready     chan struct{}
	observers []Observer
	now       func() time.Time
}

// Option configures a Dispatch.
type Option func(*Dispatch)

// WithObserver adds a lifecycle observer.
func WithObserver(o Observer) Option {
	return func(d *Dispatch) {
		if o != nil {
			d.observers = append(d.observers, o)
		}
	}
}

// WithFirstID sets the first correlation id handed to instance requests.
func WithFirstID(id uint64) Option {
	return func(d *Dispatch) {
		d.ids = NewAllocator(id)
	}
}

// WithConnected sets whether sends are accepted before the first connected event.
func WithConnected(connected bool) Option {
	return func(d *Dispatch) {
		d.connected = connected
	}
}

// New creates a dispatch for an already connected adapter.
func New(opts ...Option) *Dispatch {
	d := &Dispatch{
		reg:       newRegistry(),
		ids:       NewAllocator(1),
		connected: true,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(d)
	}
	d.ready = make(chan struct{})
	if d.connected {
		close(d.ready)
	}
	return d
}

// Singleton returns the live request for call.Signature, attaching h as a new
// subscriber, or creates one addressed by call.Key. Coalescing depends only on
// the signature being registered, not on whether it was sent yet.
func (d *Dispatch) Singleton(call Call, h Handlers) *Subscription {
	if call.Signature == "" {
		call.Signature, _ = call.Key.Name()
	}

	d.mu.Lock()
	if req, ok := d.reg.pending(call.Signature); ok {
		sub := req.subscribeLocked(h)
		drain := false
		if h.Replay && len(req.history) > 0 {
			drain = req.post(notice{
				kind:    noticeReplay,
				history: append([]any(nil), req.history...),
				subs:    []*Subscription{sub},
			})
		}
		ev := req.eventLocked(EventCoalesced)
		d.mu.Unlock()
		if drain {
			req.drain()
		}
		d.observe(ev)
		return sub
	}

	req := d.newRequestLocked(KindSingleton, call.Key, call)
	sub := req.subscribeLocked(h)
	if !call.Key.IsSymbolic() || call.Key.IsZero() || call.Send == nil {
		d.failLocked(req, exception.ErrInvalidCall)
		return sub
	}

	// The key belongs to another signature: the newer call wins.
	var (
		prev      *Request
		prevDrain bool
		prevEv    Event
	)
	if cur, ok := d.reg.lookup(call.Key); ok {
		prev = cur
		d.finishLocked(prev, StateFailed, exception.ErrKeySuperseded)
		prevDrain = prev.post(notice{kind: noticeError, err: exception.ErrKeySuperseded, subs: prev.subs})
		prevEv = prev.eventLocked(EventTerminal)
	}
	if !d.reg.add(req) {
		logs.Errorf("dispatch: %+v, signature %q", exception.ErrDuplicateSignature, call.Signature)
	}
	ev := req.eventLocked(EventCreated)
	d.mu.Unlock()

	if prev != nil {
		logs.Warnf("dispatch: %s superseded, old %q, new %q", call.Key, prev.signature, call.Signature)
		if prevDrain {
			prev.drain()
		}
		d.observe(prevEv)
	}
	d.observe(ev)
	return sub
}

// Instance creates a request addressed by a fresh correlation id. Instances
// are never coalesced.
func (d *Dispatch) Instance(call Call, h Handlers) *Subscription {
	d.mu.Lock()
	key := Numeric(d.ids.Next())
	req := d.newRequestLocked(KindInstance, key, call)
	sub := req.subscribeLocked(h)
	if call.Send == nil {
		d.failLocked(req, exception.ErrInvalidCall)
		return sub
	}
	d.reg.add(req)
	ev := req.eventLocked(EventCreated)
	d.mu.Unlock()
	d.observe(ev)
	return sub
}

// Data forwards a payload to the request addressed by key. Payloads for
// unknown or finished keys are dropped.
func (d *Dispatch) Data(key Key, payload any) {
	d.mu.Lock()
	r, ok := d.reg.lookup(key)
	if !ok || r.state.IsTerminal() {
		d.mu.Unlock()
		d.dropped(key, "data")
		return
	}
	now := d.now()
	if r.state == StateCreated || r.state == StateSent {
		r.state = StateActive
		r.first = now
	}
	r.payloads++
	r.retainLocked(payload)
	drain := r.post(notice{kind: noticeData, payload: payload, subs: r.subs})
	ev := r.eventLocked(EventData)
	d.mu.Unlock()

	if drain {
		r.drain()
	}
	d.observe(ev)
}

// End delivers a natural end. Keep-alive requests stay addressable until the
// end is released; all others are completed and freed immediately.
func (d *Dispatch) End(key Key) {
	d.mu.Lock()
	r, ok := d.reg.lookup(key)
	if !ok || r.state.IsTerminal() {
		d.mu.Unlock()
		d.dropped(key, "end")
		return
	}
	r.stopTimerLocked()

	var (
		drain bool
		ev    Event
	)
	if r.call.KeepAlive {
		r.ended = true
		drain = r.post(notice{
			kind: noticeEnd,
			end:  End{Key: r.key, release: r.release},
			subs: r.subs,
		})
		ev = r.eventLocked(EventEnd)
	} else {
		d.finishLocked(r, StateCompleted, nil)
		drain = r.post(notice{
			kind: noticeEnd,
			end:  End{Key: r.key},
			subs: r.subs,
		})
		ev = r.eventLocked(EventTerminal)
	}
	d.mu.Unlock()

	if drain {
		r.drain()
	}
	d.observe(ev)
}

// Error fails the request addressed by key.
func (d *Dispatch) Error(key Key, err error) {
	d.mu.Lock()
	r, ok := d.reg.lookup(key)
	if !ok || r.state.IsTerminal() {
		d.mu.Unlock()
		d.dropped(key, "error")
		return
	}
	d.failLocked(r, err)
}

// Connected accepts sends again. Live requests are not touched.
func (d *Dispatch) Connected() {
	d.mu.Lock()
	if !d.connected {
		d.connected = true
		close(d.ready)
	}
	d.mu.Unlock()
	logs.Infof("dispatch: connected")
}

// Disconnected fails every live request with exception.ErrDisconnected and
// clears both tables before any later send can be accepted.
func (d *Dispatch) Disconnected() {
	d.mu.Lock()
	if d.connected {
		d.connected = false
		d.ready = make(chan struct{})
	}
	live := d.reg.drain()
	events := make([]Event, 0, len(live))
	pending := make([]*Request, 0, len(live))
	for _, r := range live {
		if r.state.IsTerminal() {
			continue
		}
		d.finishLocked(r, StateFailed, exception.ErrDisconnected)
		if r.post(notice{kind: noticeError, err: exception.ErrDisconnected, subs: r.subs}) {
			pending = append(pending, r)
		}
		events = append(events, r.eventLocked(EventTerminal))
	}
	d.mu.Unlock()

	logs.Infof("dispatch: disconnected, failed %d live requests", len(events))
	for _, r := range pending {
		r.drain()
	}
	for _, ev := range events {
		d.observe(ev)
	}
	d.observe(Event{Type: EventDisconnect, Swept: len(events), At: d.now()})
}

// SeedIDs makes sure the next correlation id is at least next.
func (d *Dispatch) SeedIDs(next uint64) {
	d.ids.Seed(next)
}

// IsConnected reports whether sends are accepted.
func (d *Dispatch) IsConnected() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.connected
}

// WaitConnected blocks until sends are accepted or ctx is done.
func (d *Dispatch) WaitConnected(ctx context.Context) error {
	d.mu.Lock()
	ready := d.ready
	d.mu.Unlock()

	select {
	case <-ready:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Live returns the number of requests in the request table.
func (d *Dispatch) Live() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.reg.len()
}

// Signatures returns the number of registered singleton signatures.
func (d *Dispatch) Signatures() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.reg.bySignature)
}

// Lookup returns the live request addressed by key.
func (d *Dispatch) Lookup(key Key) (*Request, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.reg.lookup(key)
}

// Pending returns the live singleton registered for signature.
func (d *Dispatch) Pending(signature string) (*Request, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.reg.pending(signature)
}

func (d *Dispatch) newRequestLocked(kind Kind, key Key, call Call) *Request {
	return &Request{
		d:         d,
		key:       key,
		signature: call.Signature,
		kind:      kind,
		call:      call,
		state:     StateCreated,
		created:   d.now(),
	}
}

// finishLocked moves r to a terminal state and frees its table entries.
func (d *Dispatch) finishLocked(r *Request, state State, err error) {
	r.state = state
	r.err = err
	r.stopTimerLocked()
	d.reg.remove(r)
}

// failLocked fails r and notifies its error handlers. It releases d.mu.
func (d *Dispatch) failLocked(r *Request, err error) {
	d.finishLocked(r, StateFailed, err)
	drain := r.post(notice{kind: noticeError, err: err, subs: r.subs})
	ev := r.eventLocked(EventTerminal)
	d.mu.Unlock()

	if drain {
		r.drain()
	}
	d.observe(ev)
}

// closeLocked ends r on behalf of a caller, runs the cancel action if the
// call was sent and discards undelivered payloads. Subscribers in notify get
// exception.ErrRequestCancelled. It releases d.mu.
func (d *Dispatch) closeLocked(r *Request, state State, notify []*Subscription) {
	d.finishLocked(r, state, nil)
	r.purgeLocked()
	var cancel func(*Request) error
	if r.sent {
		cancel = r.call.Cancel
	}
	drain := false
	if len(notify) > 0 {
		drain = r.post(notice{kind: noticeError, err: exception.ErrRequestCancelled, subs: notify})
	}
	ev := r.eventLocked(EventTerminal)
	d.mu.Unlock()

	runCancel(r, cancel)
	if drain {
		r.drain()
	}
	d.observe(ev)
}

func (d *Dispatch) dropped(key Key, signal string) {
	logs.Debugf("dispatch: drop %s for stale key %s", signal, key)
	d.observe(Event{Type: EventDropped, Key: key, Signal: signal, At: d.now()})
}

func (d *Dispatch) observe(ev Event) {
	for _, o := range d.observers {
		o.Observe(ev)
	}
}
