package mqtt

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	coremetrics "github.com/kilianp07/energyflow/core/metrics"
	coremon "github.com/kilianp07/energyflow/core/monitoring"
	"github.com/kilianp07/energyflow/core/model"
)

func testConfig() Config {
	return Config{Enabled: true, Broker: "tcp://localhost:1883", ClientID: "id", BaseTopic: "home/", BackoffMS: 1}
}

func TestNewPublisherAnnouncesOnline(t *testing.T) {
	fc := &fakeClient{}
	useFake(t, fc)

	p, err := NewPublisher(testConfig())
	require.NoError(t, err)
	require.True(t, fc.opts.WillEnabled)
	assert.Equal(t, "home/status", fc.opts.WillTopic)
	assert.Equal(t, PayloadOffline, string(fc.opts.WillPayload))
	assert.True(t, fc.opts.WillRetained)

	msgs := fc.messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, published{"home/status", 0, true, PayloadOnline}, msgs[0])

	require.NoError(t, p.Close())
	msgs = fc.messages()
	assert.Equal(t, PayloadOffline, msgs[len(msgs)-1].payload)
	assert.Equal(t, 1, fc.disconnects)
	require.NoError(t, p.Close())
	assert.Equal(t, 1, fc.disconnects)
}

func TestNewPublisherConnectError(t *testing.T) {
	fc := &fakeClient{connectErr: errors.New("refused")}
	useFake(t, fc)
	_, err := NewPublisher(testConfig())
	assert.ErrorContains(t, err, "refused")
}

func TestRecordFlowPublishesRetainedView(t *testing.T) {
	fc := &fakeClient{}
	useFake(t, fc)
	p, err := NewPublisher(testConfig())
	require.NoError(t, err)

	view := model.FlowView{HasData: true, Direction: model.GridImport, State: model.FlowState{GridW: -300}}
	require.NoError(t, p.RecordFlow(coremetrics.FlowEvent{View: view}))

	msgs := fc.messages()
	last := msgs[len(msgs)-1]
	assert.Equal(t, "home/flow", last.topic)
	assert.True(t, last.retained)
	var got model.FlowView
	require.NoError(t, json.Unmarshal([]byte(last.payload), &got))
	assert.Equal(t, model.GridImport, got.Direction)
	assert.Equal(t, -300.0, got.State.GridW)
}

func TestRecordFetchPublishesSourceStatus(t *testing.T) {
	fc := &fakeClient{}
	useFake(t, fc)
	p, err := NewPublisher(testConfig())
	require.NoError(t, err)

	ev := coremetrics.FetchEvent{Source: "wallbox_status", OK: false, Error: "data unavailable: timeout", Latency: 40 * time.Millisecond}
	require.NoError(t, p.RecordFetch(ev))

	msgs := fc.messages()
	last := msgs[len(msgs)-1]
	assert.Equal(t, "home/source/wallbox_status", last.topic)
	assert.False(t, last.retained)
	var got SourceMessage
	require.NoError(t, json.Unmarshal([]byte(last.payload), &got))
	assert.False(t, got.Available)
	assert.Equal(t, int64(40), got.LatencyMS)
	assert.Equal(t, "data unavailable: timeout", got.Error)
}

func TestPublishRetriesWithBackoff(t *testing.T) {
	fc := &fakeClient{}
	useFake(t, fc)
	cfg := testConfig()
	retries := 2
	cfg.MaxRetries = &retries
	p, err := NewPublisher(cfg)
	require.NoError(t, err)
	var waits []time.Duration
	p.sleep = func(d time.Duration) { waits = append(waits, d) }

	fc.mu.Lock()
	fc.publishErrs = []error{errors.New("net fail"), nil}
	fc.mu.Unlock()
	require.NoError(t, p.RecordFlow(coremetrics.FlowEvent{}))
	assert.Equal(t, []time.Duration{time.Millisecond}, waits)
	assert.Len(t, fc.messages(), 3)
}

func TestPublishWithoutRetries(t *testing.T) {
	fc := &fakeClient{}
	useFake(t, fc)
	cfg := testConfig()
	none := 0
	cfg.MaxRetries = &none
	p, err := NewPublisher(cfg)
	require.NoError(t, err)
	slept := false
	p.sleep = func(time.Duration) { slept = true }

	before := len(fc.messages())
	fc.mu.Lock()
	fc.publishErrs = []error{errors.New("net fail")}
	fc.mu.Unlock()
	require.Error(t, p.RecordFlow(coremetrics.FlowEvent{}))
	assert.False(t, slept)
	assert.Len(t, fc.messages(), before+1)
}

type recordMonitor struct {
	coremon.NopMonitor
	err  error
	tags map[string]string
}

func (r *recordMonitor) CaptureException(err error, tags map[string]string) {
	r.err = err
	r.tags = tags
}

func TestPublishFailureCaptured(t *testing.T) {
	fc := &fakeClient{}
	useFake(t, fc)
	cfg := testConfig()
	retries := 1
	cfg.MaxRetries = &retries
	p, err := NewPublisher(cfg)
	require.NoError(t, err)
	p.sleep = func(time.Duration) {}

	mon := &recordMonitor{}
	coremon.Init(mon)
	defer coremon.Init(nil)

	fc.mu.Lock()
	fc.publishErrs = []error{errors.New("net fail"), errors.New("net fail")}
	fc.mu.Unlock()
	err = p.RecordFlow(coremetrics.FlowEvent{})
	require.Error(t, err)
	require.Error(t, mon.err)
	assert.Equal(t, "mqtt", mon.tags["module"])
	assert.Equal(t, "home/flow", mon.tags["topic"])
}

func TestPublishAfterClose(t *testing.T) {
	fc := &fakeClient{}
	useFake(t, fc)
	p, err := NewPublisher(testConfig())
	require.NoError(t, err)
	require.NoError(t, p.Close())
	assert.Error(t, p.RecordFlow(coremetrics.FlowEvent{}))
}
