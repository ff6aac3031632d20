package metrics

import (
	"context"
	"sync"
	"testing"
	"time"

	coremetrics "github.com/kilianp07/energyflow/core/metrics"
	"github.com/kilianp07/energyflow/core/model"
	"github.com/kilianp07/energyflow/internal/eventbus"
)

type recordingSink struct {
	mu      sync.Mutex
	flows   int
	fetches []string
}

func (r *recordingSink) RecordFlow(coremetrics.FlowEvent) error {
	r.mu.Lock()
	r.flows++
	r.mu.Unlock()
	return nil
}

func (r *recordingSink) RecordFetch(ev coremetrics.FetchEvent) error {
	r.mu.Lock()
	r.fetches = append(r.fetches, ev.Source)
	r.mu.Unlock()
	return nil
}

func (r *recordingSink) counts() (int, int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.flows, len(r.fetches)
}

func TestStartCollectorForwardsEvents(t *testing.T) {
	flows := eventbus.New[coremetrics.FlowEvent](0)
	fetches := eventbus.New[coremetrics.FetchEvent](0)
	sink := &recordingSink{}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := StartCollector(ctx, flows, fetches, sink)

	flows.Publish(coremetrics.FlowEvent{View: model.FlowView{HasData: true}})
	fetches.Publish(coremetrics.FetchEvent{Source: "inverter_summary", OK: true})

	deadline := time.After(time.Second)
	for {
		f, n := sink.counts()
		if f == 1 && n == 1 {
			break
		}
		select {
		case <-deadline:
			t.Fatalf("events not forwarded: flows=%d fetches=%d", f, n)
		case <-time.After(5 * time.Millisecond):
		}
	}

	flows.Close()
	fetches.Close()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("collector did not stop after buses closed")
	}
}

func TestStartCollectorStopsOnCancel(t *testing.T) {
	flows := eventbus.New[coremetrics.FlowEvent](0)
	fetches := eventbus.New[coremetrics.FetchEvent](0)
	ctx, cancel := context.WithCancel(context.Background())
	done := StartCollector(ctx, flows, fetches, coremetrics.NopSink{})
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("collector did not stop on cancel")
	}
	if flows.Subscribers() != 0 || fetches.Subscribers() != 0 {
		t.Fatalf("expected subscriptions released")
	}
}

func TestStartCollectorNilSink(t *testing.T) {
	done := StartCollector(context.Background(), nil, nil, nil)
	select {
	case <-done:
	default:
		t.Fatalf("expected closed channel for nil inputs")
	}
}
