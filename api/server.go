// Package api exposes the dashboard state over HTTP.
package api

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/NYTimes/gziphandler"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kilianp07/energyflow/api/flow"
	"github.com/kilianp07/energyflow/api/history"
	"github.com/kilianp07/energyflow/api/sources"
	"github.com/kilianp07/energyflow/core/source"
	"github.com/kilianp07/energyflow/infra/logger"
)

// Options configures the HTTP server.
type Options struct {
	Address  string
	Gzip     bool
	Flow     flow.Reader
	Sources  *source.Registry
	Gatherer prometheus.Gatherer
}

// Server serves the JSON API, charts and metrics.
type Server struct {
	srv *http.Server
	log logger.Logger
}

// NewHandler builds the route table.
func NewHandler(opts Options) http.Handler {
	gatherer := opts.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	mux := http.NewServeMux()
	mux.Handle("/api/flow", flow.NewHandler(opts.Flow))
	mux.Handle("/api/sources", sources.NewListHandler(opts.Sources))
	mux.Handle("/api/sources/{name}", sources.NewDetailHandler(opts.Sources))
	mux.Handle("/api/history/{kind}/summary", history.NewSummaryHandler(opts.Sources))
	mux.Handle("/charts/{kind}", history.NewChartHandler(opts.Sources))
	mux.Handle("/metrics", getOnly(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
	mux.Handle("/healthz", getOnly(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})))
	if !opts.Gzip {
		return mux
	}
	return gziphandler.GzipHandler(mux)
}

func getOnly(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		h.ServeHTTP(w, r)
	})
}

// NewServer returns a server listening on opts.Address once Run is called.
func NewServer(opts Options) *Server {
	return &Server{
		srv: &http.Server{
			Addr:              opts.Address,
			Handler:           NewHandler(opts),
			ReadHeaderTimeout: 5 * time.Second,
		},
		log: logger.New("api"),
	}
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler { return s.srv.Handler }

// Run serves until ctx is canceled and then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.srv.Addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve is Run on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	errCh := make(chan error, 1)
	go func() {
		s.log.Infof("http api listening on %s", ln.Addr())
		errCh <- s.srv.Serve(ln)
	}()
	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.srv.Shutdown(shutdownCtx); err != nil {
		s.log.Errorf("http api shutdown: %v", err)
		return err
	}
	return nil
}
