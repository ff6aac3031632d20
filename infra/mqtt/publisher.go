package mqtt

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	coremetrics "github.com/kilianp07/energyflow/core/metrics"
	"github.com/kilianp07/energyflow/core/monitoring"
	"github.com/kilianp07/energyflow/infra/logger"
)

// Availability payloads of the status topic.
const (
	PayloadOnline  = "online"
	PayloadOffline = "offline"
)

type pahoClient interface {
	IsConnected() bool
	Connect() paho.Token
	Disconnect(quiesce uint)
	Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token
}

var newMQTTClient = func(opts *paho.ClientOptions) pahoClient {
	return paho.NewClient(opts)
}

// SourceMessage is published on the per-source topic after every poll.
type SourceMessage struct {
	Source    string    `json:"source"`
	Available bool      `json:"available"`
	Error     string    `json:"error,omitempty"`
	LatencyMS int64     `json:"latency_ms"`
	Time      time.Time `json:"time"`
}

// Publisher mirrors flow views and poll outcomes to an MQTT broker. It
// implements the metrics sink interfaces so it can join a MultiSink.
type Publisher struct {
	cfg    Config
	cli    pahoClient
	log    logger.Logger
	sleep  func(time.Duration)
	mu     sync.Mutex
	closed bool
}

// NewPublisher connects to the broker and announces the publisher online.
func NewPublisher(cfg Config) (*Publisher, error) {
	cfg.SetDefaults()
	opts, err := NewClientOptions(cfg)
	if err != nil {
		return nil, err
	}
	log := logger.New("mqtt_publisher")
	p := &Publisher{cfg: cfg, log: log, sleep: time.Sleep}

	opts.OnConnect = func(c paho.Client) {
		log.Infof("MQTT connected to %s", cfg.Broker)
		if token := c.Publish(cfg.StatusTopic(), cfg.QoS, true, PayloadOnline); token.Wait() && token.Error() != nil {
			log.Errorf("publish availability: %v", token.Error())
		}
	}
	opts.OnConnectionLost = func(_ paho.Client, err error) {
		log.Errorf("connection lost: %v", err)
	}
	opts.OnReconnecting = func(_ paho.Client, _ *paho.ClientOptions) {
		log.Warnf("reconnecting to MQTT broker")
	}
	c := newMQTTClient(opts)
	if token := c.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("connect %s: %w", cfg.Broker, token.Error())
	}
	p.cli = c
	return p, nil
}

// RecordFlow publishes the view as retained JSON on the flow topic.
func (p *Publisher) RecordFlow(ev coremetrics.FlowEvent) error {
	payload, err := json.Marshal(ev.View)
	if err != nil {
		return err
	}
	return p.publish(p.cfg.FlowTopic(), true, payload)
}

// RecordFetch publishes the outcome of a poll on the source topic.
func (p *Publisher) RecordFetch(ev coremetrics.FetchEvent) error {
	payload, err := json.Marshal(SourceMessage{
		Source:    ev.Source,
		Available: ev.OK,
		Error:     ev.Error,
		LatencyMS: ev.Latency.Milliseconds(),
		Time:      ev.Time,
	})
	if err != nil {
		return err
	}
	return p.publish(p.cfg.SourceTopic(ev.Source), p.cfg.Retain, payload)
}

func (p *Publisher) publish(topic string, retained bool, payload []byte) error {
	p.mu.Lock()
	closed := p.closed
	p.mu.Unlock()
	if closed {
		return fmt.Errorf("publisher closed")
	}
	var publishErr error
	retries := p.cfg.Retries()
	for attempt := 0; attempt <= retries; attempt++ {
		token := p.cli.Publish(topic, p.cfg.QoS, retained, payload)
		token.Wait()
		publishErr = token.Error()
		if publishErr == nil {
			p.log.Debugf("published %d bytes to %s", len(payload), topic)
			return nil
		}
		p.log.Warnf("publish attempt %d to %s failed: %v", attempt+1, topic, publishErr)
		if attempt < retries {
			p.sleep(p.cfg.Backoff() * time.Duration(1<<attempt))
		}
	}
	err := fmt.Errorf("publish %s: %w", topic, publishErr)
	monitoring.CaptureException(err, map[string]string{"module": "mqtt", "topic": topic})
	return err
}

// Close marks the publisher offline and disconnects.
func (p *Publisher) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	p.mu.Unlock()
	if p.cli == nil || !p.cli.IsConnected() {
		return nil
	}
	token := p.cli.Publish(p.cfg.StatusTopic(), p.cfg.QoS, true, PayloadOffline)
	token.WaitTimeout(time.Second)
	p.cli.Disconnect(250)
	return token.Error()
}
