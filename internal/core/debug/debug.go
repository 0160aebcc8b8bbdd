// Package debug runs the HTTP service used to inspect a running server:
// Prometheus metrics, the rooms the lobby knows about and, optionally, pprof.
package debug

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"net/http/pprof"
	"sync"
	"time"

	"github.com/julienschmidt/httprouter"
	"github.com/sirupsen/logrus"

	"github.com/dcrodman/roulette/internal/core/metrics"
	"github.com/dcrodman/roulette/internal/game"
)

const timeout = 10 * time.Second

// Rooms is the read-only view of the lobby's rooms served under /rooms.
type Rooms interface {
	List() []game.Snapshot
	Get(id string) (game.Snapshot, bool)
}

// Server is the debug HTTP service.
type Server struct {
	Address string
	Logger  logrus.FieldLogger
	Metrics *metrics.Metrics
	Rooms   Rooms
	// Pprof enables the runtime profiling endpoints under /debug/pprof.
	Pprof bool
}

// Handler builds the router for every debug endpoint.
func (s *Server) Handler() http.Handler {
	mux := httprouter.New()
	mux.PanicHandler = func(w http.ResponseWriter, r *http.Request, i interface{}) {
		s.Logger.Errorf("panic serving %s: %v", r.URL.Path, i)
		http.Error(w, "internal server error", http.StatusInternalServerError)
	}

	mux.GET("/healthz", serveHealthCheck)
	mux.Handler("GET", "/metrics", s.Metrics.Handler())
	mux.GET("/rooms", s.serveRooms)
	mux.GET("/rooms/:id", s.serveRoom)

	if s.Pprof {
		registerProfileHandlers(mux)
	}
	return mux
}

// Start listens on Address and serves until ctx is cancelled.
func (s *Server) Start(ctx context.Context, wg *sync.WaitGroup) error {
	listener, err := net.Listen("tcp", s.Address)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Handler:           s.Handler(),
		ReadTimeout:       timeout,
		ReadHeaderTimeout: timeout,
		WriteTimeout:      time.Minute,
	}

	s.Logger.Infof("starting debug server on %s", listener.Addr())

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := srv.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.Logger.Errorf("error running debug server: %s", err)
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	return nil
}

func serveHealthCheck(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("Ok\n"))
}

func (s *Server) serveRooms(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	s.writeJSON(w, s.Rooms.List())
}

func (s *Server) serveRoom(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
	room, ok := s.Rooms.Get(p.ByName("id"))
	if !ok {
		http.NotFound(w, r)
		return
	}
	s.writeJSON(w, room)
}

func (s *Server) writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.Logger.Warnf("error writing debug response: %s", err)
	}
}

func registerProfileHandlers(mux *httprouter.Router) {
	mux.HandlerFunc("GET", "/debug/pprof/", pprof.Index)
	mux.Handler("GET", "/debug/pprof/allocs", pprof.Handler("allocs"))
	mux.Handler("GET", "/debug/pprof/block", pprof.Handler("block"))
	mux.Handler("GET", "/debug/pprof/goroutine", pprof.Handler("goroutine"))
	mux.Handler("GET", "/debug/pprof/heap", pprof.Handler("heap"))
	mux.Handler("GET", "/debug/pprof/mutex", pprof.Handler("mutex"))
	mux.Handler("GET", "/debug/pprof/threadcreate", pprof.Handler("threadcreate"))
	mux.HandlerFunc("GET", "/debug/pprof/cmdline", pprof.Cmdline)
	mux.HandlerFunc("GET", "/debug/pprof/profile", pprof.Profile)
	mux.HandlerFunc("GET", "/debug/pprof/symbol", pprof.Symbol)
	mux.HandlerFunc("GET", "/debug/pprof/trace", pprof.Trace)
}
