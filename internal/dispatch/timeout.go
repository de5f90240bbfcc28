package dispatch

import (
	"time"

	"github.com/yanun0323/logs"
)

// startTimerLocked arms the request deadline. Each timer carries a generation
// so a callback that lost the race against a terminal signal is ignored.
func (r *Request) startTimerLocked() {
	r.timerGen++
	gen := r.timerGen
	r.timer = time.AfterFunc(r.call.Timeout, func() {
		r.d.expire(r, gen)
	})
}

func (r *Request) stopTimerLocked() {
	if r.timer == nil {
		return
	}
	r.timer.Stop()
	r.timer = nil
}

// expire synthesizes an end for a request whose gateway never terminated it,
// then runs the cancel action best-effort.
func (d *Dispatch) expire(r *Request, gen uint64) {
	d.mu.Lock()
	if r.timer == nil || r.timerGen != gen || r.state.IsTerminal() {
		d.mu.Unlock()
		return
	}
	r.timer = nil
	r.timedOut = true
	d.finishLocked(r, StateCompleted, nil)
	drain := r.post(notice{
		kind: noticeEnd,
		end:  End{Key: r.key, TimedOut: true},
		subs: r.subs,
	})
	ev := r.eventLocked(EventTerminal)
	cancel := r.call.Cancel
	d.mu.Unlock()

	logs.Debugf("dispatch: %s (%s) timed out after %s", r.key, r.signature, r.call.Timeout)
	runCancel(r, cancel)
	if drain {
		r.drain()
	}
	d.observe(ev)
}

// runCancel invokes a cancel action and swallows its failure.
func runCancel(r *Request, cancel func(*Request) error) {
	if cancel == nil {
		return
	}
	defer func() {
		if p := recover(); p != nil {
			logs.Warnf("dispatch: cancel %s (%s) panicked: %v", r.key, r.signature, p)
		}
	}()
	if err := cancel(r); err != nil {
		logs.Warnf("dispatch: cancel %s (%s), err: %+v", r.key, r.signature, err)
	}
}
