// Package app wires the pollers, the flow pipeline, the sinks and the HTTP
// API into one long-running service.
package app

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/kilianp07/energyflow/api"
	"github.com/kilianp07/energyflow/config"
	"github.com/kilianp07/energyflow/core/flow"
	coremetrics "github.com/kilianp07/energyflow/core/metrics"
	"github.com/kilianp07/energyflow/core/model"
	"github.com/kilianp07/energyflow/core/monitoring"
	"github.com/kilianp07/energyflow/core/poller"
	"github.com/kilianp07/energyflow/core/source"
	"github.com/kilianp07/energyflow/infra/backend"
	"github.com/kilianp07/energyflow/infra/logger"
	inframetrics "github.com/kilianp07/energyflow/infra/metrics"
	"github.com/kilianp07/energyflow/infra/mqtt"
	"github.com/kilianp07/energyflow/internal/eventbus"
)

type runner interface {
	Start(ctx context.Context) *poller.Handle
}

// Service polls the backend and publishes the presented flow view.
type Service struct {
	cfg       *config.Config
	client    *backend.Client
	registry  *source.Registry
	presenter *flow.Presenter
	flows     *eventbus.Bus[coremetrics.FlowEvent]
	fetches   *eventbus.Bus[coremetrics.FetchEvent]
	sink      coremetrics.MetricsSink
	server    *api.Server
	pollers   []runner
	log       logger.Logger
	now       func() time.Time

	mu      sync.RWMutex
	view    model.FlowView
	wallbox *model.WallboxStatus
}

// New creates a Service from the configuration.
func New(cfg *config.Config) (*Service, error) {
	client, err := backend.NewClient(cfg.Backend.Options())
	if err != nil {
		return nil, fmt.Errorf("backend client: %w", err)
	}
	presenter, err := cfg.Flow.Presenter()
	if err != nil {
		return nil, fmt.Errorf("flow presenter: %w", err)
	}
	sink, err := coremetrics.NewMetricsSink(cfg.Metrics.Sinks)
	if err != nil {
		return nil, fmt.Errorf("metrics sinks: %w", err)
	}
	if cfg.MQTT.Enabled {
		pub, err := mqtt.NewPublisher(cfg.MQTT)
		if err != nil {
			return nil, fmt.Errorf("mqtt publisher: %w", err)
		}
		sink = coremetrics.NewMultiSink(sink, pub)
	}

	s := &Service{
		cfg:       cfg,
		client:    client,
		registry:  source.NewRegistry(),
		presenter: presenter,
		flows:     eventbus.New[coremetrics.FlowEvent](16),
		fetches:   eventbus.New[coremetrics.FetchEvent](32),
		sink:      sink,
		log:       logger.New("service"),
		now:       time.Now,
	}
	if err := s.registerSources(); err != nil {
		return nil, err
	}
	busMetrics := prometheus.NewRegistry()
	if err := busMetrics.Register(inframetrics.NewBusCollector(map[string]inframetrics.BusStats{
		"flow":  s.flows,
		"fetch": s.fetches,
	})); err != nil {
		return nil, fmt.Errorf("bus metrics: %w", err)
	}
	s.server = api.NewServer(api.Options{
		Address:  cfg.HTTP.Address,
		Gzip:     cfg.HTTP.GzipEnabled(),
		Flow:     s,
		Sources:  s.registry,
		Gatherer: prometheus.Gatherers{prometheus.DefaultGatherer, busMetrics},
	})
	return s, nil
}

func (s *Service) registerSources() error {
	src := s.cfg.Sources
	c := s.client
	steps := []func() error{
		func() error {
			return watch(s, source.InverterSummary, src.InverterSummary, c.InverterSummary, s.onSnapshot, s.onSnapshotError)
		},
		func() error {
			return watch(s, source.InverterHistory, src.InverterHistory, historyFetch(src.InverterHistory, c.InverterHistory), nil, nil)
		},
		func() error {
			return watch(s, source.WallboxStatus, src.WallboxStatus, c.WallboxStatus, s.onWallbox, nil)
		},
		func() error {
			return watch(s, source.WallboxHistory, src.WallboxHistory, historyFetch(src.WallboxHistory, c.WallboxHistory), nil, nil)
		},
		func() error {
			return watch(s, source.HeatingSummary, src.HeatingSummary, c.HeatingSummary, nil, nil)
		},
		func() error {
			return watch(s, source.HeatingHistory, src.HeatingHistory, historyFetch(src.HeatingHistory, c.HeatingHistory), nil, nil)
		},
	}
	for _, step := range steps {
		if err := step(); err != nil {
			return err
		}
	}
	return nil
}

func historyFetch[T any](sc config.SourceConfig, f func(context.Context, string) (T, error)) poller.FetchFunc[T] {
	return func(ctx context.Context) (T, error) { return f(ctx, sc.HistoryInterval) }
}

// watch registers the slot of a source and the poller feeding it.
func watch[T any](s *Service, name string, sc config.SourceConfig, fetch poller.FetchFunc[T], onValue func(T), onErr func(error)) error {
	if !sc.IsEnabled() {
		s.log.Infof("source %s disabled", name)
		return nil
	}
	slot := source.Register[T](s.registry, name, sc.Interval())
	var started time.Time
	p, err := poller.New(poller.Config[T]{
		Name:     name,
		Interval: sc.Interval(),
		Fetch: func(ctx context.Context) (T, error) {
			started = s.now()
			return fetch(ctx)
		},
		OnSuccess: func(v T) {
			slot.Replace(v)
			s.publishFetch(name, started, nil)
			if onValue != nil {
				onValue(v)
			}
		},
		OnError: func(err error) {
			slot.Fail(err)
			s.publishFetch(name, started, err)
			if onErr != nil {
				onErr(err)
			}
		},
	}, logger.New("poller"))
	if err != nil {
		return err
	}
	s.pollers = append(s.pollers, p)
	return nil
}

func (s *Service) publishFetch(name string, started time.Time, err error) {
	now := s.now()
	ev := coremetrics.FetchEvent{Source: name, OK: err == nil, Latency: now.Sub(started), Time: now}
	if err != nil {
		ev.Error = err.Error()
		s.log.Warnf("fetch %s failed: %v", name, err)
		monitoring.CaptureException(err, map[string]string{"source": name, "module": "poller"})
	}
	s.fetches.Publish(ev)
}

func (s *Service) onWallbox(w model.WallboxStatus) {
	s.mu.Lock()
	s.wallbox = &w
	s.mu.Unlock()
}

// carPowerW prefers the inverter reading and falls back to the wallbox
// energy meter.
func (s *Service) carPowerW(snap model.Snapshot) model.Number {
	if snap.CarPowerW > 0 {
		return snap.CarPowerW
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.wallbox == nil {
		return snap.CarPowerW
	}
	return model.Number(s.wallbox.CarPowerW())
}

func (s *Service) onSnapshot(snap model.Snapshot) {
	snap.CarPowerW = s.carPowerW(snap)
	view := s.presenter.Present(flow.Derive(snap))
	view.SnapshotTime = snap.Time()
	s.setView(view)
}

func (s *Service) onSnapshotError(err error) {
	s.mu.RLock()
	view := s.view
	s.mu.RUnlock()
	view.Stale = view.HasData
	view.Error = "data unavailable: " + err.Error()
	view.UpdatedAt = s.now()
	s.setView(view)
}

func (s *Service) setView(v model.FlowView) {
	s.mu.Lock()
	s.view = v
	s.mu.Unlock()
	s.flows.Publish(coremetrics.FlowEvent{View: v, Time: v.UpdatedAt})
}

// Flow returns the latest presented view.
func (s *Service) Flow() model.FlowView {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.view
}

// Registry exposes the per-source state.
func (s *Service) Registry() *source.Registry { return s.registry }

// Run starts the pollers, the metrics collector and the HTTP API and blocks
// until ctx is canceled or the API fails.
func (s *Service) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	collected := inframetrics.StartCollector(ctx, s.flows, s.fetches, s.sink)
	handles := make([]*poller.Handle, 0, len(s.pollers))
	for _, p := range s.pollers {
		handles = append(handles, p.Start(ctx))
	}
	s.log.Infof("polling %d sources from %s", len(handles), s.cfg.Backend.BaseURL)

	err := s.server.Run(ctx)
	if err != nil {
		s.log.Errorf("http api: %v", err)
	}
	cancel()
	for _, h := range handles {
		h.Stop()
	}
	s.flows.Close()
	s.fetches.Close()
	<-collected
	return err
}

// Close releases resources held by the sinks and flushes the monitor.
func (s *Service) Close() error {
	var err error
	if c, ok := s.sink.(io.Closer); ok {
		err = c.Close()
	}
	monitoring.Flush(s.cfg.Sentry.FlushTimeout())
	return err
}
