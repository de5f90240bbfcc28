package main

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"
	"time"

	"ibgw/internal/dispatch"
	"ibgw/internal/gateway"
	"ibgw/internal/obs"
	"ibgw/internal/ops"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommands(t *testing.T) {
	names := map[string]bool{}
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	assert.True(t, names["run"])
	assert.True(t, names["accounts"])
}

func TestRunRejectsMissingConfig(t *testing.T) {
	rootCmd.SetArgs([]string{"run", "--config", filepath.Join(t.TempDir(), "missing.json")})
	rootCmd.SetOut(&bytes.Buffer{})
	rootCmd.SetErr(&bytes.Buffer{})
	require.Error(t, rootCmd.Execute())
}

func TestPrintSnapshot(t *testing.T) {
	a := &app{metrics: obs.NewMetrics()}
	a.metrics.Observe(dispatch.Event{Type: dispatch.EventCreated})
	a.metrics.IncQueueDrop()

	var out bytes.Buffer
	runCmd.SetOut(&out)
	printSnapshot(runCmd, a)

	assert.Contains(t, out.String(), "created=1")
	assert.Contains(t, out.String(), "queue_drops=1")
}

func TestWaitConnectedBeforeSend(t *testing.T) {
	cfg := ops.Default()
	a := &app{cfg: cfg, d: dispatch.New(dispatch.WithConnected(false))}
	a.router = gateway.NewRouter(a.d)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go a.router.Run(ctx)
	require.NoError(t, a.router.Publish(ctx, gateway.Connected{}))

	require.NoError(t, a.waitConnected(ctx))
	sub := a.d.Singleton(dispatch.Call{
		Key:  dispatch.Symbolic(gateway.StreamSystem),
		Send: func(*dispatch.Request) error { return nil },
	}, dispatch.Handlers{})
	require.NoError(t, sub.Send())
}

func TestWaitConnectedTimesOut(t *testing.T) {
	cfg := ops.Default()
	cfg.Gateway.ConnectTimeout = 20
	a := &app{cfg: cfg, d: dispatch.New(dispatch.WithConnected(false))}

	start := time.Now()
	require.ErrorIs(t, a.waitConnected(context.Background()), context.DeadlineExceeded)
	assert.Less(t, time.Since(start), time.Second)
}
