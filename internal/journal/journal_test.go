package journal

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"ibgw/internal/dispatch"
	"ibgw/pkg/exception"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type memStore struct {
	mu      sync.Mutex
	records []Record
	fail    error
}

func (s *memStore) Save(_ context.Context, records []Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail != nil {
		return s.fail
	}
	s.records = append(s.records, records...)
	return nil
}

func (s *memStore) snapshot() []Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Record(nil), s.records...)
}

func TestNewRecord(t *testing.T) {
	created := time.Date(2024, 1, 2, 9, 30, 0, 0, time.UTC)
	ev := dispatch.Event{
		Type:      dispatch.EventTerminal,
		Key:       dispatch.Numeric(42),
		Signature: `reqContractDetails({"symbol":"AAPL"})`,
		Kind:      dispatch.KindInstance,
		State:     dispatch.StateFailed,
		Payloads:  3,
		Err:       exception.ErrDisconnected,
		Created:   created,
		Sent:      created.Add(time.Millisecond),
		At:        created.Add(time.Second),
	}

	r := NewRecord("s1", ev)
	assert.Equal(t, "s1", r.Session)
	assert.Equal(t, "#42", r.Key)
	assert.Equal(t, "instance", r.Kind)
	assert.Equal(t, "failed", r.State)
	assert.Equal(t, 3, r.Payloads)
	assert.Equal(t, exception.ErrDisconnected.Error(), r.Error)
	require.NotNil(t, r.SentAt)
	assert.Equal(t, created.Add(time.Millisecond), *r.SentAt)
	assert.Nil(t, r.FirstAt)
	assert.Equal(t, created.Add(time.Second), r.EndedAt)
	assert.Equal(t, "dispatch_requests", Record{}.TableName())
}

func TestJournalWritesTerminalRecords(t *testing.T) {
	store := &memStore{}
	j := New(store, WithSession("test"), WithBatchSize(2))
	d := dispatch.New(dispatch.WithObserver(j))
	send := func(*dispatch.Request) error { return nil }

	done := make(chan struct{})
	go func() {
		j.Run(context.Background())
		close(done)
	}()

	pos := d.Singleton(dispatch.Call{Key: dispatch.Symbolic("positions"), Send: send}, dispatch.Handlers{})
	require.NoError(t, pos.Send())
	d.Data(pos.Key(), "row")
	d.End(pos.Key())

	md := d.Instance(dispatch.Call{Send: send}, dispatch.Handlers{})
	require.NoError(t, md.Send())
	md.Cancel()

	failed := d.Instance(dispatch.Call{Send: send}, dispatch.Handlers{})
	require.NoError(t, failed.Send())
	d.Error(failed.Key(), errors.New("rejected"))

	j.Close()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("journal did not stop")
	}

	records := store.snapshot()
	require.Len(t, records, 3)
	states := map[string]string{}
	for _, r := range records {
		assert.Equal(t, "test", r.Session)
		states[r.Key] = r.State
	}
	assert.Equal(t, map[string]string{
		"positions":           "completed",
		md.Key().String():     "cancelled",
		failed.Key().String(): "failed",
	}, states)

	written, dropped := j.Stats()
	assert.Equal(t, uint64(3), written)
	assert.Zero(t, dropped)
}

func TestJournalCountsFailures(t *testing.T) {
	store := &memStore{fail: errors.New("db down")}
	j := New(store, WithQueueSize(1))

	j.Observe(dispatch.Event{Type: dispatch.EventData, Key: dispatch.Numeric(1)})
	j.Observe(dispatch.Event{Type: dispatch.EventTerminal, Key: dispatch.Numeric(1), State: dispatch.StateCompleted})
	j.Observe(dispatch.Event{Type: dispatch.EventTerminal, Key: dispatch.Numeric(2), State: dispatch.StateCompleted})

	j.Close()
	j.Run(context.Background())

	written, dropped := j.Stats()
	assert.Zero(t, written)
	assert.Equal(t, uint64(2), dropped)
}

func TestGormStoreDryRun(t *testing.T) {
	db, err := gorm.Open(postgres.Open("host=localhost user=ibgw dbname=ibgw sslmode=disable"), &gorm.Config{
		DryRun:                 true,
		DisableAutomaticPing:   true,
		SkipDefaultTransaction: true,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	var statements []string
	require.NoError(t, db.Callback().Create().After("gorm:create").Register("test:capture", func(tx *gorm.DB) {
		statements = append(statements, tx.Statement.SQL.String())
	}))

	store := NewGormStore(db)
	require.NoError(t, store.Save(context.Background(), nil))
	assert.Empty(t, statements)

	records := []Record{
		NewRecord("s", dispatch.Event{Key: dispatch.Symbolic("orders"), State: dispatch.StateCompleted, At: time.Now()}),
		NewRecord("s", dispatch.Event{Key: dispatch.Numeric(7), State: dispatch.StateCancelled, At: time.Now()}),
	}
	require.NoError(t, store.Save(context.Background(), records))
	require.Len(t, statements, 1)
	assert.Contains(t, statements[0], `INSERT INTO "dispatch_requests"`)
}
