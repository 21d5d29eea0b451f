package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/hubconsole/hubconsole-go/cmd/hubconsole-web/api"
	"github.com/hubconsole/hubconsole-go/pkg/discovery"
	"github.com/hubconsole/hubconsole-go/pkg/persistence"
)

// ServerConfig holds configuration for the HTTP server.
type ServerConfig struct {
	Port    int
	Version string

	// HubURL is reported by the health endpoint.
	HubURL string

	// Timeout bounds hub reads.
	Timeout time.Duration

	// Name is the instance name announced over mDNS.
	Name string
}

// Server is the HTTP server of the console web API.
type Server struct {
	config     ServerConfig
	router     *mux.Router
	server     *http.Server
	store      *persistence.Store
	logger     *slog.Logger
	devicesAPI *api.DevicesAPI
	clientsAPI *api.ClientsAPI
	ttlAPI     *api.TTLAPI

	advertiser discovery.Advertiser
}

// NewServer creates a new server for hub, keeping state in store.
func NewServer(cfg ServerConfig, hub api.Hub, store *persistence.Store, logger *slog.Logger) *Server {
	s := &Server{
		config:     cfg,
		router:     mux.NewRouter(),
		store:      store,
		logger:     logger,
		devicesAPI: api.NewDevicesAPI(hub, cfg.Timeout),
		clientsAPI: api.NewClientsAPI(store),
		ttlAPI:     api.NewTTLAPI(store, logger),
	}

	s.registerRoutes()

	s.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return s
}

// registerRoutes sets up all HTTP routes.
func (s *Server) registerRoutes() {
	s.router.Use(s.logRequests)

	r := s.router.PathPrefix("/api/v1").Subrouter()
	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)

	// Devices
	r.HandleFunc("/devices", s.devicesAPI.HandleList).Methods(http.MethodGet)
	r.HandleFunc("/devices/{deviceId}/tree", s.devicesAPI.HandleTree).Methods(http.MethodGet)
	r.HandleFunc("/devices/{deviceId}/resources/{href:.*}", s.devicesAPI.HandleGetResource).Methods(http.MethodGet)
	r.HandleFunc("/devices/{deviceId}/resources/{href:.*}", s.devicesAPI.HandleUpdateResource).Methods(http.MethodPut)

	// Remote clients
	r.HandleFunc("/clients", s.clientsAPI.HandleList).Methods(http.MethodGet)
	r.HandleFunc("/clients", s.clientsAPI.HandleCreate).Methods(http.MethodPost)
	r.HandleFunc("/clients/{id}", s.clientsAPI.HandleDelete).Methods(http.MethodDelete)

	r.HandleFunc("/ttl", s.ttlAPI.HandleConvert).Methods(http.MethodGet)

	// The subrouter answers mismatches below /api/v1 itself; the parent
	// would otherwise turn a method mismatch into not found.
	for _, router := range []*mux.Router{s.router, r} {
		router.MethodNotAllowedHandler = http.HandlerFunc(methodNotAllowed)
		router.NotFoundHandler = http.HandlerFunc(notFound)
	}
}

func methodNotAllowed(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusMethodNotAllowed, api.ErrorResponse{Error: "Method not allowed"})
}

func notFound(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusNotFound, api.ErrorResponse{Error: "Not found", Details: r.URL.Path})
}

// statusRecorder captures the response status for request logging.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", time.Since(start))
	})
}

// handleHealth returns the server health status.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	version := s.config.Version
	if version == "" {
		version = "dev"
	}

	resp := map[string]string{
		"status":  "ok",
		"version": version,
	}
	if s.config.HubURL != "" {
		resp["hub"] = s.config.HubURL
	}

	writeJSON(w, http.StatusOK, resp)
}

// Announce advertises the server as a remote client instance until
// Shutdown. The instance id is kept in the store across restarts.
func (s *Server) Announce(ctx context.Context, adv discovery.Advertiser) error {
	id, err := s.store.InstanceID()
	if err != nil {
		return fmt.Errorf("instance id: %w", err)
	}
	info := &discovery.ClientInfo{
		ID:      id,
		Name:    s.config.Name,
		Version: s.config.Version,
		Port:    uint16(s.config.Port),
	}
	if err := adv.Advertise(ctx, info); err != nil {
		return err
	}
	s.advertiser = adv
	s.logger.Info("announcing", "service", discovery.ServiceType, "id", id, "port", s.config.Port)
	return nil
}

// ListenAndServe starts the HTTP server.
func (s *Server) ListenAndServe() error {
	return s.server.ListenAndServe()
}

// Shutdown withdraws the announcement and stops the server gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.advertiser != nil {
		if err := s.advertiser.Stop(); err != nil {
			s.logger.Warn("stop announcement", "error", err)
		}
		s.advertiser = nil
	}
	return s.server.Shutdown(ctx)
}

// Close closes the store.
func (s *Server) Close() error {
	if s.store != nil {
		return s.store.Close()
	}
	return nil
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
