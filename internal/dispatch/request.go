package dispatch

import (
	"sync/atomic"
	"time"

	"ibgw/pkg/exception"

	"github.com/yanun0323/logs"
)

// Call describes one logical gateway call.
type Call struct {
	// Signature identifies the logical call. Identical singleton signatures
	// share one transmission. Singletons default to the key name.
	Signature string
	// Key is the symbolic stream a singleton is addressed by. Instances
	// ignore it and get a fresh numeric key.
	Key Key
	// Send triggers the underlying call. It runs at most once per request.
	Send func(*Request) error
	// Cancel asks the gateway to stop the call. Optional and best-effort.
	Cancel func(*Request) error
	// Timeout bounds the time from Send to the first end signal. Zero runs
	// until an explicit end, cancellation or disconnect.
	Timeout time.Duration
	// KeepAlive keeps the request addressable after a natural end until the
	// end's Release, Cancel, a timeout or a disconnect.
	KeepAlive bool
	// History is the number of payloads retained for replay to late subscribers.
	History int
}

// Handlers is the immutable set of callbacks of one subscriber.
type Handlers struct {
	Data  func(payload any)
	End   func(End)
	Error func(err error)
	// Replay delivers the retained history first when joining a running singleton.
	Replay bool
}

// End is the terminal notification of a natural or synthesized end.
type End struct {
	Key      Key
	TimedOut bool
	release  func()
}

// Release frees the request slot now. For keep-alive requests it cancels the
// stream and removes it from the tables; otherwise the slot is already free
// and Release does nothing. It is safe to call more than once.
func (e End) Release() {
	if e.release != nil {
		e.release()
	}
}

// Request is a live gateway call shared by one or more subscribers.
type Request struct {
	d         *Dispatch
	key       Key
	signature string
	kind      Kind
	call      Call

	// guarded by d.mu
	state    State
	err      error
	sent     bool
	ended    bool
	timedOut bool
	subs     []*Subscription
	history  []any
	payloads int
	timer    *time.Timer
	timerGen uint64
	created  time.Time
	sentAt   time.Time
	first    time.Time

	mailbox  []notice
	draining bool
}

// Subscription is one caller's view of a request.
type Subscription struct {
	*Request
	handlers Handlers
	closed   atomic.Bool
}

// Close detaches the subscriber. The request is cancelled when its last
// subscriber leaves.
func (s *Subscription) Close() {
	if s == nil || !s.closed.CompareAndSwap(false, true) {
		return
	}
	r := s.Request
	d := r.d
	d.mu.Lock()
	subs := make([]*Subscription, 0, len(r.subs))
	for _, sub := range r.subs {
		if sub != s {
			subs = append(subs, sub)
		}
	}
	r.subs = subs
	if len(subs) > 0 || r.state.IsTerminal() {
		d.mu.Unlock()
		return
	}
	d.closeLocked(r, StateCancelled, nil)
}

// Cancel stops the shared request. Every other subscriber receives
// exception.ErrRequestCancelled; use Close to leave without affecting them.
func (s *Subscription) Cancel() {
	s.Request.cancel(s)
}

// Key returns the addressing key.
func (r *Request) Key() Key {
	return r.key
}

// ID returns the numeric correlation id, or 0 for symbolic requests.
func (r *Request) ID() uint64 {
	id, _ := r.key.ID()
	return id
}

// Signature returns the logical call identity.
func (r *Request) Signature() string {
	return r.signature
}

// Kind returns how the request was allocated.
func (r *Request) Kind() Kind {
	return r.kind
}

// State returns the current lifecycle state.
func (r *Request) State() State {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	return r.state
}

// Err returns the error that failed the request, if any.
func (r *Request) Err() error {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	return r.err
}

// Subscribers returns the number of attached subscribers.
func (r *Request) Subscribers() int {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	return len(r.subs)
}

// History returns a copy of the retained payloads.
func (r *Request) History() []any {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	return append([]any(nil), r.history...)
}

// Send triggers the call once. Later calls, including those from other
// subscribers of a coalesced singleton, return nil without sending again.
// A failed send fails the request and notifies its error handlers.
func (r *Request) Send() error {
	d := r.d
	d.mu.Lock()
	if r.state.IsTerminal() {
		err := r.err
		d.mu.Unlock()
		if err == nil {
			err = exception.ErrRequestClosed
		}
		return err
	}
	if r.sent {
		d.mu.Unlock()
		return nil
	}
	if !d.connected {
		d.failLocked(r, exception.ErrNotConnected)
		return exception.ErrNotConnected
	}
	r.sent = true
	r.sentAt = d.now()
	if r.state == StateCreated {
		r.state = StateSent
	}
	if r.call.Timeout > 0 {
		r.startTimerLocked()
	}
	ev := r.eventLocked(EventSent)
	d.mu.Unlock()
	d.observe(ev)

	if err := r.call.Send(r); err != nil {
		d.mu.Lock()
		if r.state.IsTerminal() {
			d.mu.Unlock()
			return err
		}
		d.failLocked(r, err)
		return err
	}
	return nil
}

// Cancel stops the request for every subscriber, runs the cancel action and
// frees its key and signature. Undelivered payloads are discarded and each
// subscriber receives exception.ErrRequestCancelled.
func (r *Request) Cancel() {
	r.cancel(nil)
}

func (r *Request) cancel(by *Subscription) {
	r.d.mu.Lock()
	if r.state.IsTerminal() {
		r.d.mu.Unlock()
		return
	}
	notify := make([]*Subscription, 0, len(r.subs))
	for _, sub := range r.subs {
		if sub != by {
			notify = append(notify, sub)
		}
	}
	r.d.closeLocked(r, StateCancelled, notify)
}

func (r *Request) release() {
	r.d.mu.Lock()
	if r.state.IsTerminal() {
		r.d.mu.Unlock()
		return
	}
	r.d.closeLocked(r, StateCompleted, nil)
}

func (r *Request) subscribeLocked(h Handlers) *Subscription {
	sub := &Subscription{Request: r, handlers: h}
	subs := make([]*Subscription, len(r.subs), len(r.subs)+1)
	copy(subs, r.subs)
	r.subs = append(subs, sub)
	return sub
}

func (r *Request) retainLocked(payload any) {
	if r.call.History <= 0 {
		return
	}
	r.history = append(r.history, payload)
	if over := len(r.history) - r.call.History; over > 0 {
		r.history = append(r.history[:0:0], r.history[over:]...)
	}
}

func (r *Request) eventLocked(t EventType) Event {
	return Event{
		Type:      t,
		Key:       r.key,
		Signature: r.signature,
		Kind:      r.kind,
		State:     r.state,
		Payloads:  r.payloads,
		TimedOut:  r.timedOut,
		Err:       r.err,
		Created:   r.created,
		Sent:      r.sentAt,
		First:     r.first,
		At:        r.d.now(),
	}
}

type noticeKind uint8

const (
	noticeData noticeKind = iota
	noticeReplay
	noticeEnd
	noticeError
)

type notice struct {
	kind    noticeKind
	payload any
	history []any
	end     End
	err     error
	subs    []*Subscription
}

// post queues a notice and reports whether the caller must drain the mailbox
// once it has released the lock.
func (r *Request) post(n notice) bool {
	r.mailbox = append(r.mailbox, n)
	if r.draining {
		return false
	}
	r.draining = true
	return true
}

// purgeLocked discards undelivered payloads.
func (r *Request) purgeLocked() {
	kept := r.mailbox[:0]
	for _, n := range r.mailbox {
		if n.kind == noticeData || n.kind == noticeReplay {
			continue
		}
		kept = append(kept, n)
	}
	r.mailbox = kept
}

// drain delivers queued notices in order. Only one goroutine drains a request
// at a time, so handlers of one request never run concurrently.
func (r *Request) drain() {
	for {
		r.d.mu.Lock()
		if len(r.mailbox) == 0 {
			r.draining = false
			r.mailbox = nil
			r.d.mu.Unlock()
			return
		}
		n := r.mailbox[0]
		r.mailbox[0] = notice{}
		r.mailbox = r.mailbox[1:]
		skip := n.kind == noticeData && r.state == StateCancelled
		r.d.mu.Unlock()
		if !skip {
			r.deliver(n)
		}
	}
}

func (r *Request) deliver(n notice) {
	for _, sub := range n.subs {
		if sub.closed.Load() {
			continue
		}
		r.invoke(sub.handlers, n)
	}
}

func (r *Request) invoke(h Handlers, n notice) {
	defer func() {
		if p := recover(); p != nil {
			logs.Errorf("dispatch: handler panic on %s (%s): %v", r.key, r.signature, p)
		}
	}()
	switch n.kind {
	case noticeData:
		if h.Data != nil {
			h.Data(n.payload)
		}
	case noticeReplay:
		if h.Data != nil {
			for _, p := range n.history {
				h.Data(p)
			}
		}
	case noticeEnd:
		if h.End != nil {
			h.End(n.end)
		}
	case noticeError:
		if h.Error != nil {
			h.Error(n.err)
		}
	}
}
