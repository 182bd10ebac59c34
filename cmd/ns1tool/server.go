package main

import (
	"context"
	"errors"
	"flag"
	"io"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/banshee-data/ns1kit/internal/db"
	"github.com/banshee-data/ns1kit/internal/httputil"
	"github.com/banshee-data/ns1kit/internal/render"
	"github.com/banshee-data/ns1kit/internal/timeutil"
)

// Server exposes stored captures as JSON and HTML charts.
type Server struct {
	db         *db.DB
	assetsHost string
}

// ServeMux mounts the API routes on a new mux.
func (s *Server) ServeMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/captures", httputil.GetOnly(s.listCaptures))
	mux.HandleFunc("/api/networks", httputil.GetOnly(s.listNetworks))
	mux.HandleFunc("/api/samples", httputil.GetOnly(s.listSamples))
	mux.HandleFunc("/charts/signal", httputil.GetOnly(s.signalChart))
	return mux
}

func (s *Server) listCaptures(w http.ResponseWriter, r *http.Request) {
	captures, err := s.db.Captures(r.Context())
	if err != nil {
		httputil.InternalServerError(w, err.Error())
		return
	}
	if captures == nil {
		captures = []db.CaptureRecord{}
	}
	httputil.WriteJSONOK(w, captures)
}

func (s *Server) listNetworks(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("capture_id")
	if id == "" {
		httputil.BadRequest(w, "capture_id is required")
		return
	}
	networks, err := s.db.Networks(r.Context(), id)
	if err != nil {
		httputil.InternalServerError(w, err.Error())
		return
	}
	if networks == nil {
		networks = []db.NetworkRecord{}
	}
	httputil.WriteJSONOK(w, networks)
}

func (s *Server) listSamples(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.URL.Query().Get("network_id"), 10, 64)
	if err != nil {
		httputil.BadRequest(w, "network_id must be an integer")
		return
	}
	samples, err := s.db.Samples(r.Context(), id)
	if err != nil {
		httputil.InternalServerError(w, err.Error())
		return
	}
	if samples == nil {
		samples = []db.SampleRecord{}
	}
	httputil.WriteJSONOK(w, samples)
}

func (s *Server) signalChart(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	id := q.Get("capture_id")
	if id == "" {
		httputil.BadRequest(w, "capture_id is required")
		return
	}
	opts := render.ChartOptions{Title: id, AssetsHost: s.assetsHost}
	if v := q.Get("max"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			httputil.BadRequest(w, "max must be a positive integer")
			return
		}
		opts.MaxNetworks = n
	}

	c, err := s.db.LoadCapture(r.Context(), id)
	if errors.Is(err, db.ErrCaptureNotFound) {
		httputil.NotFound(w, err.Error())
		return
	}
	if err != nil {
		httputil.InternalServerError(w, err.Error())
		return
	}
	httputil.WriteHTML(w, func(out io.Writer) error {
		return render.WriteSignalChart(out, c, opts)
	})
}

func (e *env) runServe(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	dbPath := fs.String("db", e.cfg.GetDBPath(), "SQLite database path")
	listen := fs.String("listen", e.cfg.GetListen(), "Listen address")
	if err := fs.Parse(args); err != nil {
		return err
	}

	database, err := db.NewDB(*dbPath)
	if err != nil {
		return err
	}
	defer database.Close()

	mux := (&Server{db: database, assetsHost: e.cfg.GetChartAssetsHost()}).ServeMux()
	if err := database.AttachAdminRoutes(mux); err != nil {
		return err
	}

	server := &http.Server{
		Addr:    *listen,
		Handler: httputil.LogRequests(timeutil.RealClock{}, mux),
	}

	errc := make(chan error, 1)
	go func() {
		log.Printf("listening on %s", *listen)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errc <- err
		}
		close(errc)
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	log.Println("shutting down HTTP server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 1*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP server shutdown error: %v", err)
		if err := server.Close(); err != nil {
			log.Printf("HTTP server force close error: %v", err)
		}
	}
	log.Printf("HTTP server stopped")
	return nil
}
