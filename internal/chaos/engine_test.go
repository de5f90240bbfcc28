package chaos

import (
	"sync"
	"testing"

	"ibgw/internal/dispatch"
	"ibgw/internal/gateway"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigValidate(t *testing.T) {
	_, err := NewEngine[int](Config{DropRate: 2})
	require.Error(t, err)
	_, err = NewEngine[int](Config{DuplicateRate: -1})
	require.Error(t, err)

	e, err := NewEngine[int](Config{Seed: 1})
	require.NoError(t, err)
	assert.Equal(t, []int{7}, e.Process(7))
	assert.Nil(t, e.Flush())

	var nilEngine *Engine[int]
	assert.Equal(t, []int{1}, nilEngine.Process(1))
}

func TestReorderKeepsEveryEvent(t *testing.T) {
	e, err := NewEngine[int](Config{Seed: 42, ReorderWindow: 4})
	require.NoError(t, err)

	var out []int
	for i := range 10 {
		out = append(out, e.Process(i)...)
	}
	out = append(out, e.Flush()...)
	assert.ElementsMatch(t, []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}, out)
}

// A hostile stream of duplicated, dropped and reordered callbacks must
// still end every request at most once and leave no live entries after a
// disconnect.
func TestDispatchUnderChaos(t *testing.T) {
	d := dispatch.New()
	router := gateway.NewRouter(d)
	engine, err := NewEngine[gateway.Event](Config{Seed: 7, DropRate: 0.1, DuplicateRate: 0.3, ReorderWindow: 5})
	require.NoError(t, err)

	var (
		mu        sync.Mutex
		terminals = map[dispatch.Key]int{}
	)
	terminal := func(key dispatch.Key) {
		mu.Lock()
		terminals[key]++
		mu.Unlock()
	}

	var subs []*dispatch.Subscription
	for range 20 {
		var key dispatch.Key
		sub := d.Instance(dispatch.Call{Send: func(r *dispatch.Request) error { return nil }}, dispatch.Handlers{
			End:   func(e dispatch.End) { terminal(e.Key) },
			Error: func(error) { terminal(key) },
		})
		key = sub.Key()
		require.NoError(t, sub.Send())
		subs = append(subs, sub)
	}

	var stream []gateway.Event
	for _, sub := range subs {
		id := int64(sub.ID())
		stream = append(stream,
			gateway.ExecDetails{ReqID: id},
			gateway.ExecDetails{ReqID: id},
			gateway.ExecDetailsEnd{ReqID: id},
			gateway.Error{ID: id, Code: 1, Message: "late"},
		)
	}
	for _, ev := range stream {
		for _, out := range engine.Process(ev) {
			router.Handle(out)
		}
	}
	for _, out := range engine.Flush() {
		router.Handle(out)
	}
	router.Handle(gateway.Disconnected{})

	assert.Equal(t, 0, d.Live())
	mu.Lock()
	defer mu.Unlock()
	for _, sub := range subs {
		assert.Equal(t, 1, terminals[sub.Key()], sub.Key().String())
	}
}
