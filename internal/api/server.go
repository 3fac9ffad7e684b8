package api

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"runtime"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/crypto/bcrypt"

	"github.com/wlconsole/wlconsole/internal/config"
	"github.com/wlconsole/wlconsole/internal/console"
	"github.com/wlconsole/wlconsole/internal/form"
	"github.com/wlconsole/wlconsole/internal/listview"
	"github.com/wlconsole/wlconsole/internal/metrics"
	"github.com/wlconsole/wlconsole/internal/router"
	"github.com/wlconsole/wlconsole/internal/stats"
)

const maxRequestBodySize = 1 << 20 // 1 MB

// Server is the console HTTP API, dashboard and metrics server.
type Server struct {
	clients    *console.ClientManager
	whitelist  *console.WhitelistManager
	poller     *stats.Poller
	notifier   *console.Notifier
	metrics    *metrics.Collector
	httpServer *http.Server
	startTime  time.Time

	cfgMu     sync.RWMutex
	listenCfg config.ListenConfig
}

// NewServer creates a new API server.
func NewServer(cm *console.ClientManager, wm *console.WhitelistManager, p *stats.Poller, n *console.Notifier, m *metrics.Collector, lc config.ListenConfig) *Server {
	return &Server{
		clients:   cm,
		whitelist: wm,
		poller:    p,
		notifier:  n,
		metrics:   m,
		startTime: time.Now(),
		listenCfg: lc,
	}
}

// SetListenConfig swaps the API key settings. The listen address only
// changes on restart.
func (s *Server) SetListenConfig(lc config.ListenConfig) {
	s.cfgMu.Lock()
	defer s.cfgMu.Unlock()
	s.listenCfg = lc
}

func (s *Server) listenConfig() config.ListenConfig {
	s.cfgMu.RLock()
	defer s.cfgMu.RUnlock()
	return s.listenCfg
}

// authMiddleware returns a middleware that checks for a valid API key.
// Probes, metrics and the dashboard page itself are excluded; the
// dashboard sends the key on its API calls.
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/health", "/metrics", "/", "/dashboard":
			next.ServeHTTP(w, r)
			return
		}

		lc := s.listenConfig()
		if !lc.AuthEnabled() {
			next.ServeHTTP(w, r)
			return
		}

		auth := r.Header.Get("Authorization")
		if !strings.HasPrefix(auth, "Bearer ") || !keyMatches(lc, strings.TrimPrefix(auth, "Bearer ")) {
			writeError(w, http.StatusUnauthorized, "unauthorized: invalid or missing API key")
			return
		}

		next.ServeHTTP(w, r)
	})
}

func keyMatches(lc config.ListenConfig, presented string) bool {
	if presented == "" {
		return false
	}
	if lc.APIKeyHash != "" {
		return bcrypt.CompareHashAndPassword([]byte(lc.APIKeyHash), []byte(presented)) == nil
	}
	return subtle.ConstantTimeCompare([]byte(lc.APIKey), []byte(presented)) == 1
}

// Handler builds the routed handler wrapped in the security and auth
// middleware.
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()

	api := r.PathPrefix("/api").Subrouter()
	s.clientRoutes(api)
	s.whitelistRoutes(api)

	// Stats, notifications and server status
	api.HandleFunc("/stats", s.statsHandler).Methods("GET")
	api.HandleFunc("/notifications", s.listNotifications).Methods("GET")
	api.HandleFunc("/notifications/{id:[0-9]+}", s.dismissNotification).Methods("DELETE")
	api.HandleFunc("/status", s.statusHandler).Methods("GET")

	r.HandleFunc("/health", s.healthHandler).Methods("GET")

	if s.metrics != nil && s.metrics.Registry != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.metrics.Registry, promhttp.HandlerOpts{}))
	} else {
		r.Handle("/metrics", promhttp.Handler())
	}

	r.HandleFunc("/", s.dashboardHandler).Methods("GET")
	r.HandleFunc("/dashboard", s.dashboardHandler).Methods("GET")

	return s.securityHeaders(s.authMiddleware(r))
}

// Start starts the HTTP API server.
func (s *Server) Start(port int) error {
	lc := s.listenConfig()
	bind := lc.APIBind
	if bind == "" {
		bind = "127.0.0.1"
	}
	addr := fmt.Sprintf("%s:%d", bind, port)
	s.httpServer = &http.Server{
		Addr:    addr,
		Handler: s.Handler(),
		// Exports stream from the backend, so writes get more room than reads.
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 60 * time.Second,
	}

	if !lc.AuthEnabled() {
		slog.Warn("API key not configured, console endpoints are unauthenticated")
	}
	slog.Info("console API listening", "addr", addr)

	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("API server error", "err", err)
		}
	}()

	return nil
}

// Stop gracefully shuts down the API server.
func (s *Server) Stop() error {
	if s.httpServer == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return s.httpServer.Shutdown(ctx)
}

// --- Health, Stats & Status Handlers ---

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	reading := s.poller.Latest()
	healthy := s.poller.Healthy()

	status := http.StatusOK
	if !healthy {
		status = http.StatusServiceUnavailable
	}

	writeJSON(w, status, map[string]interface{}{
		"status":  boolToStatus(healthy),
		"backend": reading.Status,
	})
}

func (s *Server) statsHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.poller.Latest())
}

func (s *Server) statusHandler(w http.ResponseWriter, r *http.Request) {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	lc := s.listenConfig()
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"uptime_seconds": int(time.Since(s.startTime).Seconds()),
		"go_version":     runtime.Version(),
		"goroutines":     runtime.NumGoroutine(),
		"memory_mb":      float64(mem.Alloc) / 1024 / 1024,
		"whitelist_tab":  s.whitelist.Tab(),
		"auth_enabled":   lc.AuthEnabled(),
		"listen": map[string]interface{}{
			"api_bind": lc.APIBind,
			"api_port": lc.APIPort,
		},
	})
}

// --- Notification Handlers ---

func (s *Server) listNotifications(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.notifier.List())
}

func (s *Server) dismissNotification(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUint(w, r, "id")
	if !ok {
		return
	}
	if !s.notifier.Dismiss(id) {
		writeError(w, http.StatusNotFound, "notification not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"status": "dismissed", "id": id})
}

// securityHeaders adds security-related HTTP headers to all responses.
func (s *Server) securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("X-XSS-Protection", "1; mode=block")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		next.ServeHTTP(w, r)
	})
}

// --- Helpers ---

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// writeConsoleError maps console errors to HTTP responses. Anything not
// recognised is a backend failure.
func writeConsoleError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, listview.ErrEmptySelection):
		writeError(w, http.StatusBadRequest, "Please select at least one item.")
	case errors.Is(err, console.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, form.ErrNotOpen):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, form.ErrUnknownMode), errors.Is(err, router.ErrUnknownRoute):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		writeError(w, http.StatusBadGateway, console.FailureMessage)
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return false
	}
	return true
}

func pathUint(w http.ResponseWriter, r *http.Request, key string) (uint64, bool) {
	id, err := strconv.ParseUint(mux.Vars(r)[key], 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid "+key)
		return 0, false
	}
	return id, true
}

func boolToStatus(b bool) string {
	if b {
		return "healthy"
	}
	return "unhealthy"
}
