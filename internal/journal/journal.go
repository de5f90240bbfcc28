package journal

import (
	"context"
	"strconv"
	"sync"
	"time"

	"ibgw/internal/bus"
	"ibgw/internal/dispatch"

	"github.com/yanun0323/errors"
	"github.com/yanun0323/logs"
)

const (
	defaultQueueSize = 1024
	defaultBatchSize = 64
)

// Journal is a dispatch.Observer that writes one record per finished
// request. Records are queued and written by Run, so Observe never blocks
// the dispatch.
type Journal struct {
	store     Store
	session   string
	queue     *bus.Queue[Record]
	batchSize int

	mu      sync.Mutex
	batch   []Record
	dropped uint64
	written uint64
}

// Option configures a Journal.
type Option func(*Journal)

func WithQueueSize(size int) Option {
	return func(j *Journal) {
		j.queue = bus.NewQueue[Record](size)
	}
}

func WithBatchSize(size int) Option {
	return func(j *Journal) {
		if size > 0 {
			j.batchSize = size
		}
	}
}

// WithSession tags every record with session instead of the start time.
func WithSession(session string) Option {
	return func(j *Journal) {
		j.session = session
	}
}

func New(store Store, opts ...Option) *Journal {
	j := &Journal{
		store:     store,
		session:   strconv.FormatInt(time.Now().UTC().UnixNano(), 36),
		queue:     bus.NewQueue[Record](defaultQueueSize),
		batchSize: defaultBatchSize,
	}
	for _, opt := range opts {
		opt(j)
	}
	return j
}

// Observe queues a record for every terminal event.
func (j *Journal) Observe(ev dispatch.Event) {
	if ev.Type != dispatch.EventTerminal {
		return
	}
	if err := j.queue.TryPublish(NewRecord(j.session, ev)); err != nil {
		j.mu.Lock()
		j.dropped++
		j.mu.Unlock()
		logs.Warnf("journal: drop record of %s, err: %+v", ev.Key, err)
	}
}

// Run writes queued records until ctx is done or the journal is closed.
// Records are flushed when a batch is full and once more before returning.
func (j *Journal) Run(ctx context.Context) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	done := make(chan struct{})
	go func() {
		defer close(done)
		j.queue.Run(ctx, func(r Record) {
			j.mu.Lock()
			j.batch = append(j.batch, r)
			full := len(j.batch) >= j.batchSize
			j.mu.Unlock()
			if full {
				j.flush(ctx)
			}
		})
	}()

	for {
		select {
		case <-done:
			j.flush(context.WithoutCancel(ctx))
			return
		case <-ticker.C:
			j.flush(ctx)
		}
	}
}

// Close stops accepting records. Run flushes what is queued and returns.
func (j *Journal) Close() {
	j.queue.Close()
}

// Stats returns the number of written and dropped records.
func (j *Journal) Stats() (written, dropped uint64) {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.written, j.dropped
}

func (j *Journal) flush(ctx context.Context) {
	j.mu.Lock()
	batch := j.batch
	j.batch = nil
	j.mu.Unlock()
	if len(batch) == 0 {
		return
	}

	if err := j.store.Save(ctx, batch); err != nil {
		logs.Errorf("journal: %+v", errors.Wrapf(err, "save %d records", len(batch)))
		j.mu.Lock()
		j.dropped += uint64(len(batch))
		j.mu.Unlock()
		return
	}
	j.mu.Lock()
	j.written += uint64(len(batch))
	j.mu.Unlock()
}
