package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-pkgz/lgr"
	"github.com/go-pkgz/rest"
	"github.com/go-pkgz/rest/logger"
	"github.com/go-pkgz/routegroup"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

//go:generate moq -out mocks/config.go -pkg mocks -skip-ensure -fmt goimports . ConfigProvider
//go:generate moq -out mocks/refresher.go -pkg mocks -skip-ensure -fmt goimports . Refresher

// Server represents HTTP server instance
type Server struct {
	config    ConfigProvider
	snapshots Snapshotter
	refresher Refresher
	gatherer  prometheus.Gatherer
	version   string
	debug     bool

	lock       sync.Mutex
	httpServer *http.Server
	router     *routegroup.Bundle
}

// Snapshotter gives access to the displayed feed state
type Snapshotter interface {
	Snapshot() Snapshot
}

// Refresher requests a feed refresh
type Refresher interface {
	Refresh()
}

// ConfigProvider provides server configuration
type ConfigProvider interface {
	GetServerConfig() (listen string, timeout time.Duration)
}

// Params for New
type Params struct {
	Config    ConfigProvider
	Snapshots Snapshotter
	Refresher Refresher
	Gatherer  prometheus.Gatherer // metrics source, /metrics disabled if nil
	Version   string
	Debug     bool
}

// New initializes a new server instance
func New(params Params) *Server {
	s := &Server{
		config:    params.Config,
		snapshots: params.Snapshots,
		refresher: params.Refresher,
		gatherer:  params.Gatherer,
		version:   params.Version,
		debug:     params.Debug,
		router:    routegroup.New(http.NewServeMux()),
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

// Run starts the HTTP server and handles graceful shutdown
func (s *Server) Run(ctx context.Context) error {
	listen, timeout := s.config.GetServerConfig()
	lgr.Printf("[INFO] starting server on %s", listen)

	s.lock.Lock()
	s.httpServer = &http.Server{
		Addr:              listen,
		Handler:           s.router,
		ReadHeaderTimeout: timeout,
		ReadTimeout:       timeout,
		WriteTimeout:      timeout,
	}
	httpServer := s.httpServer
	s.lock.Unlock()

	go func() {
		<-ctx.Done()
		lgr.Printf("[INFO] shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			lgr.Printf("[WARN] server shutdown error: %v", err)
		}
	}()

	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server error: %w", err)
	}

	return nil
}

// setupMiddleware configures standard middleware for the server
func (s *Server) setupMiddleware() {
	s.router.Use(rest.AppInfo("newsfeed", "umputun", s.version))
	s.router.Use(rest.Ping)

	if s.debug {
		s.router.Use(logger.New(logger.Log(lgr.Default()), logger.Prefix("[DEBUG]")).Handler)
	}

	s.router.Use(rest.Recoverer(lgr.Default()))
	s.router.Use(rest.Throttle(100))
	s.router.Use(rest.SizeLimit(1024 * 1024)) // 1MB
}

// setupRoutes configures application routes
func (s *Server) setupRoutes() {
	s.router.Mount("/api/v1").Route(func(r *routegroup.Bundle) {
		r.HandleFunc("GET /status", s.statusHandler)
		r.HandleFunc("GET /news", s.newsHandler)
		r.HandleFunc("POST /refresh", s.refreshHandler)
	})

	if s.gatherer != nil {
		s.router.Handle("GET /metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}
}

// statusHandler returns server status
func (s *Server) statusHandler(w http.ResponseWriter, r *http.Request) {
	status := map[string]any{
		"status":  "ok",
		"version": s.version,
		"time":    time.Now().UTC(),
	}
	renderJSON(w, r, http.StatusOK, status)
}

// newsHandler returns the feed display state, limit query param caps the number of items
func (s *Server) newsHandler(w http.ResponseWriter, r *http.Request) {
	snapshot := s.snapshots.Snapshot()

	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		limit, err := strconv.Atoi(limitStr)
		if err != nil || limit < 1 {
			rest.SendErrorJSON(w, r, lgr.Default(), http.StatusBadRequest, fmt.Errorf("invalid limit %q", limitStr), "invalid limit")
			return
		}
		if len(snapshot.Items) > limit {
			snapshot.Items = snapshot.Items[:limit]
		}
	}

	renderJSON(w, r, http.StatusOK, snapshot)
}

// refreshHandler requests a feed refresh, the result is observed via /news
func (s *Server) refreshHandler(w http.ResponseWriter, r *http.Request) {
	s.refresher.Refresh()
	renderJSON(w, r, http.StatusAccepted, map[string]string{"status": "refresh requested"})
}

// renderJSON sends JSON response
func renderJSON(w http.ResponseWriter, _ *http.Request, code int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			lgr.Printf("[ERROR] can't encode response to JSON: %v", err)
		}
	}
}
