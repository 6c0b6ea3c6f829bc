package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"slices"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/pauljones0/pl-jobs-scraper/internal/metrics"
	"github.com/pauljones0/pl-jobs-scraper/internal/processor"
)

const runTimeout = 30 * time.Minute

type Server struct {
	processor processor.Processor
	metrics   *metrics.Metrics
	logger    *slog.Logger

	// baseCtx is cancelled on shutdown; wg tracks runs started by triggers or cron.
	baseCtx context.Context
	wg      sync.WaitGroup
}

func NewServer(ctx context.Context, p processor.Processor, m *metrics.Metrics, logger *slog.Logger) *Server {
	return &Server{processor: p, metrics: m, logger: logger, baseCtx: ctx}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		fmt.Fprintln(w, `{"status":"ok"}`)
	})
	if s.metrics != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.metrics.Registry, promhttp.HandlerOpts{}))
	}
	r.Post("/run", s.RunAllHandler)
	r.Post("/run/{portal}", s.RunPortalHandler)
	return r
}

// RunAllHandler starts a run of every portal and returns immediately.
func (s *Server) RunAllHandler(w http.ResponseWriter, r *http.Request) {
	s.RunAll()
	w.WriteHeader(http.StatusAccepted)
	fmt.Fprintln(w, "Scrape started.")
}

func (s *Server) RunPortalHandler(w http.ResponseWriter, r *http.Request) {
	portal := chi.URLParam(r, "portal")
	if !slices.Contains(s.processor.Portals(), portal) {
		http.Error(w, fmt.Sprintf("unknown portal %q", portal), http.StatusNotFound)
		return
	}

	s.goRun(func(ctx context.Context) {
		if _, err := s.processor.Run(ctx, portal); err != nil {
			s.logger.Error("Error running portal", "portal", portal, "error", err)
		}
	})
	w.WriteHeader(http.StatusAccepted)
	fmt.Fprintf(w, "Scrape of %s started.\n", portal)
}

// RunAll runs every portal in the background. It is also the cron job.
func (s *Server) RunAll() {
	s.goRun(func(ctx context.Context) {
		if _, err := processor.RunAll(ctx, s.processor, s.logger); err != nil {
			s.logger.Error("Error running portals", "error", err)
		}
	})
}

// goRun runs fn asynchronously so the HTTP response isn't blocked by the crawl.
func (s *Server) goRun(fn func(ctx context.Context)) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				s.logger.Error("Panic in run", "panic", r)
			}
		}()
		ctx, cancel := context.WithTimeout(s.baseCtx, runTimeout)
		defer cancel()
		fn(ctx)
	}()
}

// Wait blocks until all started runs have returned.
func (s *Server) Wait() {
	s.wg.Wait()
}
