// Package backend is the HTTP client of the dashboard backend. Every call
// returns errors wrapping ErrTransport or ErrParse so callers can collapse
// them into a single unavailable state.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/kilianp07/energyflow/core/model"
	"github.com/kilianp07/energyflow/infra/logger"
)

const (
	PathInverterSummary = "/api/inverter/summary"
	PathInverterHistory = "/api/inverter/history"
	PathWallboxStatus   = "/api/wallbox/status"
	PathWallboxHistory  = "/api/wallbox/history"
	PathWallboxSet      = "/api/wallbox/set"
	PathHeatingSummary  = "/api/heating/summary"
	PathHeatingHistory  = "/api/heating/history"
	PathSystemUpdate    = "/api/system/update"
)

// DefaultUserAgent is sent when Options.UserAgent is empty.
const DefaultUserAgent = "energyflow"

// Options configures a Client.
type Options struct {
	BaseURL   string
	Timeout   time.Duration
	UserAgent string
	// HTTPClient overrides the underlying client. Its transport is wrapped to
	// set the User-Agent header.
	HTTPClient *http.Client
}

// Client talks to the backend REST API.
type Client struct {
	base *url.URL
	http *http.Client
	log  logger.Logger
}

// NewClient validates opts and returns a Client.
func NewClient(opts Options) (*Client, error) {
	if opts.BaseURL == "" {
		return nil, fmt.Errorf("backend base url is required")
	}
	base, err := url.Parse(strings.TrimRight(opts.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse backend url: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("backend url must be http or https, got %q", opts.BaseURL)
	}
	ua := opts.UserAgent
	if ua == "" {
		ua = DefaultUserAgent
	}
	hc := &http.Client{Timeout: opts.Timeout}
	if opts.HTTPClient != nil {
		cp := *opts.HTTPClient
		hc = &cp
	}
	transport := hc.Transport
	if transport == nil {
		transport = http.DefaultTransport
	}
	hc.Transport = &userAgentTransport{transport: transport, userAgent: ua}
	return &Client{base: base, http: hc, log: logger.New("backend-client")}, nil
}

type userAgentTransport struct {
	transport http.RoundTripper
	userAgent string
}

// RoundTrip implements http.RoundTripper.
func (t *userAgentTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	req.Header.Set("User-Agent", t.userAgent)
	return t.transport.RoundTrip(req)
}

// URL returns the absolute URL of path.
func (c *Client) URL(path string, query url.Values) string {
	u := *c.base
	u.Path = strings.TrimRight(u.Path, "/") + path
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}
	return u.String()
}

// InverterSummary fetches the current energy snapshot.
func (c *Client) InverterSummary(ctx context.Context) (model.Snapshot, error) {
	var s model.Snapshot
	err := c.do(ctx, http.MethodGet, PathInverterSummary, nil, nil, &s)
	return s, err
}

// InverterHistory fetches the inverter series for interval, e.g. "5m".
func (c *Client) InverterHistory(ctx context.Context, interval string) (model.InverterHistory, error) {
	var h model.InverterHistory
	err := c.do(ctx, http.MethodGet, PathInverterHistory, intervalQuery(interval), nil, &h)
	return h, err
}

// WallboxStatus fetches the wallbox state.
func (c *Client) WallboxStatus(ctx context.Context) (model.WallboxStatus, error) {
	var w model.WallboxStatus
	err := c.do(ctx, http.MethodGet, PathWallboxStatus, nil, nil, &w)
	return w, err
}

// WallboxHistory fetches the wallbox series for interval.
func (c *Client) WallboxHistory(ctx context.Context, interval string) (model.WallboxHistory, error) {
	var h model.WallboxHistory
	err := c.do(ctx, http.MethodGet, PathWallboxHistory, intervalQuery(interval), nil, &h)
	return h, err
}

// HeatingSummary fetches the heating values.
func (c *Client) HeatingSummary(ctx context.Context) (model.HeatingSummary, error) {
	var h model.HeatingSummary
	err := c.do(ctx, http.MethodGet, PathHeatingSummary, nil, nil, &h)
	return h, err
}

// HeatingHistory fetches the heating series for interval.
func (c *Client) HeatingHistory(ctx context.Context, interval string) (model.HeatingHistory, error) {
	var h model.HeatingHistory
	err := c.do(ctx, http.MethodGet, PathHeatingHistory, intervalQuery(interval), nil, &h)
	return h, err
}

// SetWallbox writes one wallbox setting. A well-formed answer with ok=false
// is returned together with an error wrapping ErrRejected.
func (c *Client) SetWallbox(ctx context.Context, key string, value any) (model.WallboxSetResult, error) {
	var res model.WallboxSetResult
	if err := c.do(ctx, http.MethodPut, PathWallboxSet, nil, model.WallboxSetRequest{Key: key, Value: value}, &res); err != nil {
		return res, err
	}
	if !res.OK {
		return res, fmt.Errorf("%w: set %s: %s", ErrRejected, key, res.Error)
	}
	c.log.Infof("wallbox %s set to %v", key, value)
	return res, nil
}

// SystemUpdate triggers the backend update. Step failures are reported in
// the result and wrap ErrRejected.
func (c *Client) SystemUpdate(ctx context.Context) (model.UpdateResult, error) {
	var res model.UpdateResult
	if err := c.do(ctx, http.MethodPost, PathSystemUpdate, nil, nil, &res); err != nil {
		return res, err
	}
	if !res.OK {
		failed := res.Failed()
		names := make([]string, len(failed))
		for i, s := range failed {
			names[i] = s.Step
		}
		return res, fmt.Errorf("%w: update failed at %s", ErrRejected, strings.Join(names, ", "))
	}
	return res, nil
}

func intervalQuery(interval string) url.Values {
	if interval == "" {
		return nil
	}
	return url.Values{"interval": []string{interval}}
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	target := c.URL(path, query)
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request for %s: %w", target, err)
		}
		rd = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, rd)
	if err != nil {
		return fmt.Errorf("failed to create request for %s: %w", target, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: failed to fetch %s: %w", ErrTransport, target, err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%w: unexpected status code %d from %s", ErrTransport, resp.StatusCode, target)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: failed to decode JSON from %s: %w", ErrParse, target, err)
	}
	return nil
}
