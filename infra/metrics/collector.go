package metrics

import (
	"context"

	coremetrics "github.com/kilianp07/energyflow/core/metrics"
	"github.com/kilianp07/energyflow/core/monitoring"
	"github.com/kilianp07/energyflow/infra/logger"
	"github.com/kilianp07/energyflow/internal/eventbus"
)

// StartCollector subscribes to the flow and fetch buses and forwards their
// events to sink until ctx is canceled or both buses are closed. The
// returned channel is closed once the collector has stopped.
func StartCollector(ctx context.Context, flows *eventbus.Bus[coremetrics.FlowEvent], fetches *eventbus.Bus[coremetrics.FetchEvent], sink coremetrics.MetricsSink) <-chan struct{} {
	done := make(chan struct{})
	if sink == nil || flows == nil || fetches == nil {
		close(done)
		return done
	}
	log := logger.New("metrics-collector")
	flowSub := flows.Subscribe()
	fetchSub := fetches.Subscribe()
	rec, _ := sink.(coremetrics.FetchRecorder)

	go func() {
		defer close(done)
		defer monitoring.Recover("metrics-collector")
		defer flows.Unsubscribe(flowSub)
		defer fetches.Unsubscribe(fetchSub)
		for flowSub != nil || fetchSub != nil {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-flowSub:
				if !ok {
					flowSub = nil
					continue
				}
				if err := sink.RecordFlow(ev); err != nil {
					log.Warnf("record flow: %v", err)
				}
			case ev, ok := <-fetchSub:
				if !ok {
					fetchSub = nil
					continue
				}
				if rec == nil {
					continue
				}
				if err := rec.RecordFetch(ev); err != nil {
					log.Warnf("record fetch %s: %v", ev.Source, err)
				}
			}
		}
	}()
	return done
}
