package main

import (
	"context"
	"sync"

	"ibgw/internal/bridge"
	"ibgw/internal/chaos"
	"ibgw/internal/dispatch"
	"ibgw/internal/gateway"
	"ibgw/internal/journal"
	"ibgw/internal/obs"
	"ibgw/internal/ops"
	"ibgw/internal/service"
	"ibgw/pkg/conn"

	"github.com/grafana/pyroscope-go"
	"github.com/yanun0323/errors"
	"github.com/yanun0323/logs"
	"github.com/yanun0323/pkg/sys"
)

type app struct {
	cfg      ops.Config
	metrics  *obs.Metrics
	d        *dispatch.Dispatch
	router   *gateway.Router
	bridge   *bridge.Bridge
	svc      *service.Service
	db       *conn.Client
	journal  *journal.Journal
	profiler *pyroscope.Profiler

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func newApp(ctx context.Context, cfg ops.Config) (*app, error) {
	a := &app{
		cfg:     cfg,
		metrics: obs.NewMetrics(),
	}

	if cfg.Profiling.Enabled {
		profiler, err := pyroscope.Start(pyroscope.Config{
			ApplicationName: cfg.Profiling.ApplicationName,
			ServerAddress:   cfg.Profiling.ServerAddress,
			Tags:            cfg.Profiling.Tags,
			Logger:          profilerLogger{},
			ProfileTypes: []pyroscope.ProfileType{
				pyroscope.ProfileCPU,
				pyroscope.ProfileAllocObjects,
				pyroscope.ProfileAllocSpace,
				pyroscope.ProfileInuseObjects,
				pyroscope.ProfileInuseSpace,
			},
		})
		if err != nil {
			return nil, errors.Wrap(err, "start pyroscope")
		}
		a.profiler = profiler
	}

	opts := []dispatch.Option{
		dispatch.WithObserver(a.metrics),
		dispatch.WithFirstID(cfg.Gateway.FirstID),
		dispatch.WithConnected(false),
	}
	if cfg.Journal.Enabled {
		db, err := conn.New(cfg.Journal.Option())
		if err != nil {
			a.close()
			return nil, errors.Wrap(err, "open journal db")
		}
		store := journal.NewGormStore(db.DB())
		if err := store.Migrate(); err != nil {
			_ = db.Close()
			a.close()
			return nil, errors.Wrap(err, "migrate journal")
		}
		a.db = db
		a.journal = journal.New(store, journal.WithQueueSize(cfg.Journal.QueueSize))
		opts = append(opts, dispatch.WithObserver(a.journal))
	}

	a.d = dispatch.New(opts...)
	a.router = gateway.NewRouter(a.d,
		gateway.WithQueueSize(cfg.Gateway.QueueSize),
		gateway.WithQueueMetrics(a.metrics),
	)
	var bridgeOpts []bridge.Option
	if cfg.Chaos.Enabled {
		engine, err := chaos.NewEngine[bridge.Frame](cfg.Chaos.Config())
		if err != nil {
			a.close()
			return nil, errors.Wrap(err, "chaos engine")
		}
		logs.Warnf("chaos enabled, drop %.2f, duplicate %.2f, reorder window %d",
			cfg.Chaos.DropRate, cfg.Chaos.DuplicateRate, cfg.Chaos.ReorderWindow)
		bridgeOpts = append(bridgeOpts, bridge.WithChaos(engine))
	}
	a.bridge = bridge.New(ctx, cfg.Gateway.URL, a.router, bridgeOpts...)
	a.svc = service.New(a.d, a.bridge, cfg.Timeouts.Service())
	return a, nil
}

// start runs the router and journal loops and connects the bridge.
func (a *app) start(ctx context.Context) error {
	ctx, a.cancel = context.WithCancel(ctx)

	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		a.router.Run(ctx)
	}()
	if a.journal != nil {
		a.wg.Add(1)
		go func() {
			defer a.wg.Done()
			a.journal.Run(ctx)
		}()
	}

	if err := a.bridge.Start(ctx); err != nil {
		return errors.Wrap(err, "start bridge")
	}
	if err := a.waitConnected(ctx); err != nil {
		return errors.Wrap(err, "wait for gateway")
	}
	logs.Infof("ibgw attached to %s", a.cfg.Gateway.URL)
	return nil
}

// waitConnected returns once the router applied the connected event, so
// commands may send right after start.
func (a *app) waitConnected(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, a.cfg.Gateway.ConnectWait())
	defer cancel()

	go func() {
		select {
		case <-sys.Shutdown():
			cancel()
		case <-ctx.Done():
		}
	}()

	return a.d.WaitConnected(ctx)
}

func (a *app) wait(ctx context.Context) {
	select {
	case <-sys.Shutdown():
	case <-ctx.Done():
	}
}

func (a *app) close() {
	if a.bridge != nil {
		a.bridge.Close()
	}
	if a.router != nil {
		a.router.Close()
	}
	if a.journal != nil {
		a.journal.Close()
	}
	a.wg.Wait()
	if a.cancel != nil {
		a.cancel()
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			logs.Errorf("close journal db, err: %+v", err)
		}
	}
	if a.profiler != nil {
		_ = a.profiler.Stop()
	}
}

type profilerLogger struct{}

func (profilerLogger) Infof(format string, args ...any)  { logs.Debugf(format, args...) }
func (profilerLogger) Debugf(format string, args ...any) { logs.Debugf(format, args...) }
func (profilerLogger) Errorf(format string, args ...any) { logs.Errorf(format, args...) }
