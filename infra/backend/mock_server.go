package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/kilianp07/energyflow/core/model"
	"github.com/kilianp07/energyflow/infra/logger"
)

// MockTopicPrefix is the MQTT prefix reported by the mock wallbox writes.
const MockTopicPrefix = "go-eCharger/mock"

const mockSeriesStep = 5 * time.Minute

// MockServer serves deterministic synthetic data on every backend endpoint.
// It is meant for local development and tests.
type MockServer struct {
	addr     string
	log      logger.Logger
	srv      *http.Server
	requests *prometheus.CounterVec
	now      func() time.Time

	// PeakPVW is the midday PV production.
	PeakPVW float64

	mu         sync.Mutex
	settings   map[string]float64
	faults     map[string]int
	failUpdate bool
}

// NewMockServer creates a mock server listening on addr once started. A nil
// registerer uses the default Prometheus registerer.
func NewMockServer(addr string, reg prometheus.Registerer) *MockServer {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	log := logger.New("mock-backend")

	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "energyflow_mock_requests_total",
		Help: "Requests served by the mock backend",
	}, []string{"path", "code"})
	if err := reg.Register(requests); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if exist, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
				requests = exist
			} else {
				log.Errorf("existing collector for energyflow_mock_requests_total has wrong type %T", are.ExistingCollector)
			}
		}
	}

	return &MockServer{
		addr:     addr,
		log:      log,
		requests: requests,
		now:      time.Now,
		PeakPVW:  6000,
		settings: map[string]float64{"amp": 16, "frc": 0, "psm": 1, "dwo": 0, "alw": 1},
		faults:   map[string]int{},
	}
}

// SetClock replaces the time source.
func (s *MockServer) SetClock(now func() time.Time) { s.now = now }

// SetFault makes path answer with status. A status of 0 clears the fault.
func (s *MockServer) SetFault(path string, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if status == 0 {
		delete(s.faults, path)
		return
	}
	s.faults[path] = status
}

// SetUpdateFailure makes the system update report a failed step.
func (s *MockServer) SetUpdateFailure(fail bool) {
	s.mu.Lock()
	s.failUpdate = fail
	s.mu.Unlock()
}

// Setting returns the current value of a wallbox setting.
func (s *MockServer) Setting(key string) float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.settings[key]
}

// Handler returns the HTTP routes of the mock backend.
func (s *MockServer) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc(PathInverterSummary, s.get(s.inverterSummary))
	mux.HandleFunc(PathInverterHistory, s.get(s.inverterHistory))
	mux.HandleFunc(PathWallboxStatus, s.get(s.wallboxStatus))
	mux.HandleFunc(PathWallboxHistory, s.get(s.wallboxHistory))
	mux.HandleFunc(PathHeatingSummary, s.get(s.heatingSummary))
	mux.HandleFunc(PathHeatingHistory, s.get(s.heatingHistory))
	mux.HandleFunc(PathWallboxSet, s.method(http.MethodPut, s.handleWallboxSet))
	mux.HandleFunc(PathSystemUpdate, s.method(http.MethodPost, s.handleSystemUpdate))
	return mux
}

func (s *MockServer) get(build func(r *http.Request) any) http.HandlerFunc {
	return s.method(http.MethodGet, func(w http.ResponseWriter, r *http.Request) {
		s.writeJSON(w, r, http.StatusOK, build(r))
	})
}

func (s *MockServer) method(m string, h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != m {
			s.count(r, http.StatusMethodNotAllowed)
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		s.mu.Lock()
		code := s.faults[r.URL.Path]
		s.mu.Unlock()
		if code != 0 {
			s.count(r, code)
			http.Error(w, "injected fault", code)
			return
		}
		h(w, r)
	}
}

func (s *MockServer) count(r *http.Request, code int) {
	s.requests.WithLabelValues(r.URL.Path, strconv.Itoa(code)).Inc()
}

func (s *MockServer) writeJSON(w http.ResponseWriter, r *http.Request, code int, v any) {
	s.count(r, code)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Errorf("encode %s: %v", r.URL.Path, err)
	}
}

func timestamp(t time.Time) string { return t.UTC().Format(time.RFC3339) }

// sample computes the synthetic plant values at t.
func (s *MockServer) sample(t time.Time) (pv, house, battery, soc, car float64) {
	hour := float64(t.Hour()) + float64(t.Minute())/60
	pv = math.Max(0, s.PeakPVW*math.Sin(math.Pi*(hour-6)/12))
	house = 450 + 150*math.Sin(2*math.Pi*float64(t.Minute())/60)
	soc = 55 + 35*math.Sin(math.Pi*(hour-9)/12)

	s.mu.Lock()
	amp, frc, alw := s.settings["amp"], s.settings["frc"], s.settings["alw"]
	s.mu.Unlock()
	if alw == 1 && frc != 1 {
		car = amp * 230 * 3
	}

	surplus := pv - house - car
	switch {
	case surplus > 0 && soc < 100:
		battery = -math.Min(surplus, 2500)
	case surplus < 0 && soc > 10:
		battery = math.Min(-surplus, 2500)
	}
	return math.Round(pv), math.Round(house), math.Round(battery), math.Round(soc), math.Round(car)
}

func (s *MockServer) inverterSummary(*http.Request) any {
	now := s.now()
	pv, house, battery, soc, car := s.sample(now)
	return map[string]any{
		"timestamp":         timestamp(now),
		"ppv":               pv,
		"house_consumption": house,
		"battery_soc":       soc,
		"pbattery":          battery,
		"car_power":         car,
	}
}

func (s *MockServer) series(r *http.Request, span time.Duration, point func(t time.Time) map[string]any) any {
	interval := r.URL.Query().Get("interval")
	if interval == "" {
		interval = "5m"
	}
	step := mockSeriesStep
	if d, err := time.ParseDuration(interval); err == nil && d >= time.Minute {
		step = d
	}
	end := s.now().UTC().Truncate(step)
	points := []map[string]any{}
	for t := end.Add(-span); !t.After(end); t = t.Add(step) {
		p := point(t)
		p["t"] = t.Format("2006-01-02T15:04:05.000Z")
		points = append(points, p)
	}
	return map[string]any{"series": points, "interval": interval}
}

func (s *MockServer) inverterHistory(r *http.Request) any {
	return s.series(r, 12*time.Hour, func(t time.Time) map[string]any {
		pv, house, _, soc, _ := s.sample(t)
		return map[string]any{"ppv": pv, "house": house, "battery_soc": soc}
	})
}

func (s *MockServer) wallboxStatus(*http.Request) any {
	now := s.now()
	_, _, _, _, car := s.sample(now)
	s.mu.Lock()
	amp, frc, psm := s.settings["amp"], s.settings["frc"], s.settings["psm"]
	s.mu.Unlock()
	state := 2
	if car == 0 {
		state = 3
	}
	nrg := make([]float64, 16)
	nrg[0], nrg[1], nrg[2] = 230, 231, 229
	if car > 0 {
		nrg[4], nrg[5], nrg[6] = amp, amp, amp
	}
	nrg[11] = car
	return map[string]any{
		"timestamp":   timestamp(now),
		"amp":         amp,
		"frc":         frc,
		"psm":         psm,
		"car":         state,
		"nrg":         nrg,
		"modelStatus": 0,
	}
}

func (s *MockServer) wallboxHistory(r *http.Request) any {
	return s.series(r, 2*time.Hour, func(t time.Time) map[string]any {
		return map[string]any{
			"amp":           6 + ((t.Minute() % 5) - 2),
			"currentEnergy": 1000 + t.Minute()*3,
		}
	})
}

func (s *MockServer) heatingSummary(*http.Request) any {
	return map[string]any{
		"timestamp":     timestamp(s.now()),
		"boiler_temp":   72.5,
		"buffer_top":    68.3,
		"buffer_bottom": 45.8,
		"return_temp":   52.1,
		"outside_temp":  3.4,
		"feed_rate":     35,
		"burner_status": "on",
	}
}

func (s *MockServer) heatingHistory(r *http.Request) any {
	return s.series(r, 12*time.Hour, func(t time.Time) map[string]any {
		m := t.Minute()
		return map[string]any{
			"boiler_temp":   70.0 + float64(m%10)*0.4,
			"buffer_top":    66.0 + float64(m%8)*0.3,
			"buffer_bottom": 44.0 + float64(m%6)*0.25,
			"return_temp":   50.0 + float64(m%12)*0.2,
			"outside_temp":  2.0 + float64(m%4)*0.5,
			"feed_rate":     30 + (m%5)*3,
		}
	})
}

func (s *MockServer) handleWallboxSet(w http.ResponseWriter, r *http.Request) {
	var req model.WallboxSetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeJSON(w, r, http.StatusBadRequest, model.WallboxSetResult{Error: "invalid JSON body"})
		return
	}
	v, err := numeric(req.Value)
	if err == nil {
		err = model.ValidateWallboxSetting(req.Key, v)
	}
	if err != nil {
		s.writeJSON(w, r, http.StatusOK, model.WallboxSetResult{Error: err.Error()})
		return
	}
	s.mu.Lock()
	s.settings[req.Key] = v
	s.mu.Unlock()
	s.log.Infof("wallbox %s set to %v", req.Key, v)
	s.writeJSON(w, r, http.StatusOK, model.WallboxSetResult{
		OK:    true,
		Topic: fmt.Sprintf("%s/%s/set", MockTopicPrefix, req.Key),
		Key:   req.Key,
		Value: req.Value,
	})
}

func numeric(v any) (float64, error) {
	switch x := v.(type) {
	case float64:
		return x, nil
	case bool:
		if x {
			return 1, nil
		}
		return 0, nil
	case string:
		return strconv.ParseFloat(x, 64)
	default:
		return 0, fmt.Errorf("value must be a number, got %T", v)
	}
}

func (s *MockServer) handleSystemUpdate(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	fail := s.failUpdate
	s.mu.Unlock()
	res := model.UpdateResult{OK: true, Results: []model.UpdateStep{
		{Step: "git pull", OK: true, Stdout: "Already up to date."},
	}}
	if fail {
		res.OK = false
		res.Results = append(res.Results, model.UpdateStep{Step: "docker compose up --build -d", Stderr: "mock build failure"})
	} else {
		res.Results = append(res.Results, model.UpdateStep{Step: "docker compose up --build -d", OK: true, Stdout: "Container webui Started"})
	}
	s.writeJSON(w, r, http.StatusOK, res)
}

// Addr returns the listening address once Start has been called.
func (s *MockServer) Addr() string { return s.addr }

// Start runs the HTTP server until the context is canceled.
func (s *MockServer) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}
	s.addr = ln.Addr().String()
	s.srv = &http.Server{Handler: s.Handler(), ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := s.srv.Shutdown(shutdownCtx); err != nil {
			s.log.Errorf("shutdown mock backend: %v", err)
		}
		cancel()
	}()
	s.log.Infof("mock backend listening on %s", s.addr)
	err = s.srv.Serve(ln)
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}
