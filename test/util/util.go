// Package util holds helpers for integration tests: readiness probes for
// HTTP endpoints and throwaway Mosquitto and InfluxDB containers.
package util

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/docker/go-connections/nat"
	paho "github.com/eclipse/paho.mqtt.golang"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

const (
	HTTPReadyTimeout      = 5 * time.Second
	MosquittoReadyTimeout = 5 * time.Second
	MetricTimeout         = 5 * time.Second

	pollInterval = 50 * time.Millisecond
)

// retry calls probe until it reports true or ctx ends. The last probe error
// is folded into the returned error.
func retry(ctx context.Context, what string, probe func(context.Context) (bool, error)) error {
	var last error
	for {
		ok, err := probe(ctx)
		if ok {
			return nil
		}
		if err != nil {
			last = err
		}
		select {
		case <-ctx.Done():
			if last != nil {
				return fmt.Errorf("%s: %w (last error: %v)", what, ctx.Err(), last)
			}
			return fmt.Errorf("%s: %w", what, ctx.Err())
		case <-time.After(pollInterval):
		}
	}
}

func get(ctx context.Context, url string) (int, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, nil, err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	return resp.StatusCode, body, err
}

// WaitForHTTP blocks until url answers 200.
func WaitForHTTP(ctx context.Context, url string) error {
	return retry(ctx, url+" not ready", func(ctx context.Context) (bool, error) {
		code, _, err := get(ctx, url)
		return err == nil && code == http.StatusOK, err
	})
}

// WaitForMetric blocks until the exposition at metricsURL contains substr.
func WaitForMetric(ctx context.Context, metricsURL, substr string) error {
	return retry(ctx, fmt.Sprintf("metric %q not found", substr), func(ctx context.Context) (bool, error) {
		_, body, err := get(ctx, metricsURL)
		return err == nil && bytes.Contains(body, []byte(substr)), err
	})
}

// startContainer runs req and returns host:port of the given exposed port.
func startContainer(ctx context.Context, req tc.ContainerRequest, port nat.Port) (string, func(), error) {
	cont, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{ContainerRequest: req, Started: true})
	if err != nil {
		return "", nil, fmt.Errorf("start %s: %w", req.Image, err)
	}
	cleanup := func() { _ = cont.Terminate(context.Background()) }
	endpoint, err := cont.PortEndpoint(ctx, port, "")
	if err != nil {
		cleanup()
		return "", nil, fmt.Errorf("endpoint %s: %w", req.Image, err)
	}
	return endpoint, cleanup, nil
}

// StartMosquitto runs an anonymous Mosquitto 2 broker and waits until an MQTT
// client can connect. It returns the tcp:// broker URL and a cleanup func.
func StartMosquitto(ctx context.Context) (string, func(), error) {
	endpoint, cleanup, err := startContainer(ctx, tc.ContainerRequest{
		Image:        "eclipse-mosquitto:2.0",
		Cmd:          []string{"mosquitto", "-c", "/mosquitto-no-auth.conf"},
		ExposedPorts: []string{"1883/tcp"},
		WaitingFor:   wait.ForListeningPort("1883/tcp"),
	}, "1883/tcp")
	if err != nil {
		return "", nil, err
	}
	broker := "tcp://" + endpoint

	waitCtx, cancel := context.WithTimeout(ctx, MosquittoReadyTimeout)
	defer cancel()
	opts := paho.NewClientOptions().AddBroker(broker).SetClientID("energyflow-probe")
	err = retry(waitCtx, "mosquitto not ready", func(context.Context) (bool, error) {
		cli := paho.NewClient(opts)
		tok := cli.Connect()
		tok.Wait()
		if err := tok.Error(); err != nil {
			return false, err
		}
		cli.Disconnect(100)
		return true, nil
	})
	if err != nil {
		cleanup()
		return "", nil, err
	}
	return broker, cleanup, nil
}

// Influx holds the coordinates of a disposable InfluxDB instance.
type Influx struct {
	URL    string
	Org    string
	Bucket string
	Token  string
}

// StartInflux runs InfluxDB 2.7 in setup mode with a fixed org, bucket and
// admin token.
func StartInflux(ctx context.Context) (Influx, func(), error) {
	inf := Influx{Org: "energyflow", Bucket: "energyflow", Token: "energyflow-test-token"}
	endpoint, cleanup, err := startContainer(ctx, tc.ContainerRequest{
		Image:        "influxdb:2.7",
		ExposedPorts: []string{"8086/tcp"},
		Env: map[string]string{
			"DOCKER_INFLUXDB_INIT_MODE":        "setup",
			"DOCKER_INFLUXDB_INIT_USERNAME":    "admin",
			"DOCKER_INFLUXDB_INIT_PASSWORD":    "energyflow-admin",
			"DOCKER_INFLUXDB_INIT_ORG":         inf.Org,
			"DOCKER_INFLUXDB_INIT_BUCKET":      inf.Bucket,
			"DOCKER_INFLUXDB_INIT_ADMIN_TOKEN": inf.Token,
		},
		WaitingFor: wait.ForHTTP("/health").WithPort("8086/tcp").WithStartupTimeout(time.Minute),
	}, "8086/tcp")
	if err != nil {
		return inf, nil, err
	}
	inf.URL = "http://" + endpoint
	return inf, cleanup, nil
}
