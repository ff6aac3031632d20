package metrics

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"
	"github.com/influxdata/influxdb-client-go/v2/domain"

	coremetrics "github.com/kilianp07/energyflow/core/metrics"
	"github.com/kilianp07/energyflow/infra/logger"
)

const influxTimeout = 5 * time.Second

// InfluxSink writes flow views and fetch outcomes to InfluxDB v2 with the
// blocking write API, one point per event.
type InfluxSink struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
	log      logger.Logger
}

// NewInfluxSink targets the server at url. A url copied from a write endpoint
// (ending in /api/v2/write) is accepted as well.
func NewInfluxSink(url, token, org, bucket string) *InfluxSink {
	opts := influxdb2.DefaultOptions().SetHTTPClient(&http.Client{Timeout: influxTimeout})
	client := influxdb2.NewClientWithOptions(strings.TrimSuffix(url, "/api/v2/write"), token, opts)
	return &InfluxSink{
		client:   client,
		writeAPI: client.WriteAPIBlocking(org, bucket),
		log:      logger.New("influx-sink"),
	}
}

// NewInfluxSinkWithFallback is NewInfluxSink plus a health check. An
// unreachable or unhealthy server yields a NopSink so the service still
// starts.
func NewInfluxSinkWithFallback(url, token, org, bucket string) coremetrics.MetricsSink {
	sink := NewInfluxSink(url, token, org, bucket)
	if err := sink.ping(); err != nil {
		sink.log.Errorf("influx disabled: %v", err)
		sink.client.Close()
		return coremetrics.NopSink{}
	}
	return sink
}

func (s *InfluxSink) ping() error {
	ctx, cancel := context.WithTimeout(context.Background(), influxTimeout)
	defer cancel()
	h, err := s.client.Health(ctx)
	switch {
	case err != nil:
		return fmt.Errorf("health check: %w", err)
	case h.Status != domain.HealthCheckStatusPass:
		return fmt.Errorf("health status %s", h.Status)
	}
	return nil
}

// FlowPoint maps a flow event to an energy_flow point tagged with the grid
// direction.
func FlowPoint(ev coremetrics.FlowEvent) *write.Point {
	st := ev.View.State
	fields := map[string]any{
		"production_w":        round3(st.ProductionW),
		"consumption_w":       round3(st.ConsumptionW),
		"grid_w":              round3(st.GridW),
		"battery_charge_w":    round3(st.BatteryChargeW),
		"battery_discharge_w": round3(st.BatteryDischargeW),
		"battery_soc_pct":     round3(st.BatterySoCPct),
		"car_w":               round3(st.CarW),
		"stale":               ev.View.Stale,
	}
	tags := map[string]string{
		"component":      "flow",
		"grid_direction": string(ev.View.Direction),
	}
	return write.NewPoint("energy_flow", tags, fields, eventTime(ev.Time, ev.View.UpdatedAt))
}

// FetchPoint maps a fetch outcome to a source_fetch point.
func FetchPoint(ev coremetrics.FetchEvent) *write.Point {
	return write.NewPoint("source_fetch",
		map[string]string{"source": ev.Source, "ok": strconv.FormatBool(ev.OK)},
		map[string]any{"latency_ms": round3(float64(ev.Latency) / float64(time.Millisecond)), "error": ev.Error},
		eventTime(ev.Time, time.Time{}))
}

func (s *InfluxSink) write(p *write.Point) error {
	ctx, cancel := context.WithTimeout(context.Background(), influxTimeout)
	defer cancel()
	if err := s.writeAPI.WritePoint(ctx, p); err != nil {
		return fmt.Errorf("influx write %s: %w", p.Name(), err)
	}
	return nil
}

// RecordFlow writes views that carry data; empty views are skipped.
func (s *InfluxSink) RecordFlow(ev coremetrics.FlowEvent) error {
	if !ev.View.HasData {
		return nil
	}
	return s.write(FlowPoint(ev))
}

func (s *InfluxSink) RecordFetch(ev coremetrics.FetchEvent) error {
	return s.write(FetchPoint(ev))
}

// Close releases the client.
func (s *InfluxSink) Close() error {
	s.client.Close()
	return nil
}

// eventTime picks the first non-zero of t and fallback, else now.
func eventTime(t, fallback time.Time) time.Time {
	switch {
	case !t.IsZero():
		return t
	case !fallback.IsZero():
		return fallback
	}
	return time.Now()
}

func round3(f float64) float64 { return math.Round(f*1000) / 1000 }
