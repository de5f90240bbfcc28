package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"ibgw/internal/chaos"
	"ibgw/internal/dispatch"
	"ibgw/internal/gateway"
	"ibgw/pkg/exception"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type captureWriter struct {
	frames [][]byte
	fail   error
}

func (w *captureWriter) WriteJSON(v any) error {
	if w.fail != nil {
		return w.fail
	}
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	w.frames = append(w.frames, b)
	return nil
}

func newTestBridge(router *gateway.Router) (*Bridge, *captureWriter) {
	w := &captureWriter{}
	return &Bridge{router: router, w: w}, w
}

func TestBridgeCall(t *testing.T) {
	b, w := newTestBridge(gateway.NewRouter(dispatch.New()))

	require.NoError(t, b.Call(gateway.MethodReqMktData, uint64(3), gateway.Contract{Symbol: "AAPL"}, "", false))
	require.NoError(t, b.Call(gateway.MethodReqCurrentTime))
	require.Len(t, w.frames, 2)
	assert.JSONEq(t, `{"method":"reqMktData","args":[3,{"symbol":"AAPL"},"",false]}`, string(w.frames[0]))
	assert.JSONEq(t, `{"method":"reqCurrentTime","args":[]}`, string(w.frames[1]))

	w.fail = errors.New("broken pipe")
	require.Error(t, b.Call(gateway.MethodReqPositions))

	b.Close()
	require.ErrorIs(t, b.Call(gateway.MethodReqPositions), exception.ErrConnectionClose)
}

func TestBridgeHandle(t *testing.T) {
	d := dispatch.New()
	router := gateway.NewRouter(d)
	b, _ := newTestBridge(router)

	var ticks []gateway.Tick
	sub := d.Instance(dispatch.Call{Send: func(*dispatch.Request) error { return nil }}, dispatch.Handlers{
		Data: func(p any) { ticks = append(ticks, p.(gateway.Tick)) },
	})
	require.NoError(t, sub.Send())

	var frame Frame
	require.NoError(t, json.Unmarshal([]byte(`{"event":"tickPrice","args":{"tickerId":1,"tickType":1,"price":99.5}}`), &frame))
	ctx := context.Background()
	require.NoError(t, b.handle(ctx, frame))
	require.ErrorIs(t, b.handle(ctx, Frame{}), exception.ErrWebSocketProtocol)
	require.ErrorIs(t, b.handle(ctx, Frame{Event: "bogus"}), exception.ErrUnknownEvent)
	assert.Equal(t, 1, router.Pending())

	router.Close()
	router.Run(ctx)
	require.Len(t, ticks, 1)
	assert.Equal(t, "bidPrice", ticks[0].Name)
	assert.Equal(t, 99.5, ticks[0].Value)
}

func TestBridgeDisconnected(t *testing.T) {
	d := dispatch.New()
	router := gateway.NewRouter(d)
	b, _ := newTestBridge(router)

	var got error
	sub := d.Instance(dispatch.Call{Send: func(*dispatch.Request) error { return nil }}, dispatch.Handlers{
		Error: func(err error) { got = err },
	})
	require.NoError(t, sub.Send())

	b.disconnected()
	router.Close()
	router.Run(context.Background())

	require.ErrorIs(t, got, exception.ErrDisconnected)
	assert.False(t, d.IsConnected())
	require.ErrorIs(t, b.Call(gateway.MethodReqPositions), exception.ErrConnectionClose)
}

func TestBridgeChaosDuplicates(t *testing.T) {
	d := dispatch.New()
	router := gateway.NewRouter(d)
	engine, err := chaos.NewEngine[Frame](chaos.Config{Seed: 1, DuplicateRate: 1})
	require.NoError(t, err)
	b, _ := newTestBridge(router)
	WithChaos(engine)(b)

	var ticks int
	sub := d.Instance(dispatch.Call{Send: func(*dispatch.Request) error { return nil }}, dispatch.Handlers{
		Data: func(any) { ticks++ },
	})
	require.NoError(t, sub.Send())

	ctx := context.Background()
	frame := Frame{Event: "tickSize", Args: json.RawMessage(`{"tickerId":1,"tickType":0,"size":100}`)}
	b.forward(ctx, b.chaos.Process(frame))
	b.flush(ctx)
	assert.Equal(t, 2, router.Pending())

	router.Close()
	router.Run(ctx)
	assert.Equal(t, 2, ticks)
}

func TestBridgeDisconnectedWithFullQueue(t *testing.T) {
	d := dispatch.New()
	router := gateway.NewRouter(d, gateway.WithQueueSize(1))
	b, _ := newTestBridge(router)
	b.disconnectWait = 10 * time.Millisecond

	rec := make(chan error, 1)
	sub := d.Instance(dispatch.Call{Send: func(*dispatch.Request) error { return nil }}, dispatch.Handlers{
		Error: func(err error) { rec <- err },
	})
	require.NoError(t, sub.Send())
	require.NoError(t, router.TryPublish(gateway.TickSize{TickerID: int64(sub.ID()), Size: 1}))

	b.disconnected()

	select {
	case err := <-rec:
		require.ErrorIs(t, err, exception.ErrDisconnected)
	default:
		t.Fatal("live request was not swept")
	}
	assert.Equal(t, 0, d.Live())
	assert.False(t, d.IsConnected())
}
