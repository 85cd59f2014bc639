package engine

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/braidhq/braid/pkg/ledger"
)

// HealthServer exposes the daemon's HTTP surface: a /healthz liveness
// check backed by a Redis ping, and /metrics serving prometheus counters.
type HealthServer struct {
	store    *ledger.Store
	gatherer prometheus.Gatherer
	addr     string
	log      zerolog.Logger
	server   *http.Server
}

// HealthResponse is the JSON body returned by /healthz.
type HealthResponse struct {
	Status string `json:"status"`
	Redis  string `json:"redis,omitempty"`
	Error  string `json:"error,omitempty"`
}

// NewHealthServer creates a health server listening on addr.
func NewHealthServer(store *ledger.Store, gatherer prometheus.Gatherer, addr string, log zerolog.Logger) *HealthServer {
	return &HealthServer{
		store:    store,
		gatherer: gatherer,
		addr:     addr,
		log:      log.With().Str("component", "health").Logger(),
	}
}

// Start starts the HTTP server in the background.
func (h *HealthServer) Start() {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", h.healthCheckHandler)
	mux.Handle("/metrics", promhttp.HandlerFor(h.gatherer, promhttp.HandlerOpts{}))

	h.server = &http.Server{
		Addr:         h.addr,
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
	}

	go func() {
		if err := h.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			h.log.Error().Err(err).Msg("health server stopped")
		}
	}()
}

// Shutdown gracefully shuts down the server.
func (h *HealthServer) Shutdown(ctx context.Context) error {
	if h.server == nil {
		return nil
	}
	return h.server.Shutdown(ctx)
}

// healthCheckHandler handles GET /healthz. Returns 200 if Redis is
// reachable, 503 otherwise.
func (h *HealthServer) healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	response := HealthResponse{Status: "healthy", Redis: "connected"}
	code := http.StatusOK
	if err := h.store.Ping(ctx); err != nil {
		response.Status = "unhealthy"
		response.Redis = "disconnected"
		response.Error = err.Error()
		code = http.StatusServiceUnavailable
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(response); err != nil {
		h.log.Error().Err(err).Msg("failed to encode health response")
	}
}
