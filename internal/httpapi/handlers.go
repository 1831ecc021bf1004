package httpapi

import (
	"context"
	"net/http"
	"sort"
	"strconv"

	"github.com/rmacdonaldsmith/aomesh/internal/active"
	"github.com/rmacdonaldsmith/aomesh/internal/evtpool"
	activepkg "github.com/rmacdonaldsmith/aomesh/pkg/active"
	"github.com/rmacdonaldsmith/aomesh/pkg/event"
	"github.com/rmacdonaldsmith/aomesh/pkg/framework"
)

// Backend is the runtime view served by the API
type Backend interface {
	Health(ctx context.Context) (framework.HealthStatus, error)
	Snapshot() map[event.Signal][]activepkg.Priority
	PoolStats() []evtpool.Stats
	ObjectStats() []active.Stats
}

// Handlers contains HTTP handlers for the API endpoints
type Handlers struct {
	backend    Backend
	signalName func(event.Signal) string
	version    string
}

// NewHandlers creates a new handlers instance
func NewHandlers(backend Backend, signalName func(event.Signal) string, version string) *Handlers {
	if signalName == nil {
		signalName = func(sig event.Signal) string { return strconv.Itoa(int(sig)) }
	}
	return &Handlers{
		backend:    backend,
		signalName: signalName,
		version:    version,
	}
}

// Root handles GET /
func (h *Handlers) Root(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		writeError(w, "Not found", http.StatusNotFound)
		return
	}
	writeJSON(w, APIInfoResponse{
		Name:    "aomesh",
		Version: h.version,
		Endpoints: []string{
			"GET /api/v1/health",
			"GET /api/v1/admin/subscriptions",
			"GET /api/v1/admin/pools",
			"GET /api/v1/admin/objects",
			"GET /metrics",
		},
	}, http.StatusOK)
}

// Health handles GET /api/v1/health
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	health, err := h.backend.Health(r.Context())
	if err != nil {
		writeError(w, "Failed to get health status", http.StatusInternalServerError)
		return
	}

	statusCode := http.StatusOK
	if !health.Healthy {
		statusCode = http.StatusServiceUnavailable
	}
	writeJSON(w, HealthResponse{HealthStatus: health}, statusCode)
}

// AdminListSubscriptions handles GET /api/v1/admin/subscriptions
func (h *Handlers) AdminListSubscriptions(w http.ResponseWriter, r *http.Request) {
	snapshot := h.backend.Snapshot()

	resp := AdminSubscriptionsResponse{Signals: make([]SignalSubscribers, 0, len(snapshot))}
	for sig, priorities := range snapshot {
		entry := SignalSubscribers{
			Signal:     int(sig),
			Name:       h.signalName(sig),
			Priorities: make([]int, len(priorities)),
		}
		for i, p := range priorities {
			entry.Priorities[i] = int(p)
		}
		resp.Signals = append(resp.Signals, entry)
		resp.Total += len(priorities)
	}
	sort.Slice(resp.Signals, func(i, j int) bool {
		return resp.Signals[i].Signal < resp.Signals[j].Signal
	})

	writeJSON(w, resp, http.StatusOK)
}

// AdminListPools handles GET /api/v1/admin/pools
func (h *Handlers) AdminListPools(w http.ResponseWriter, r *http.Request) {
	pools := h.backend.PoolStats()
	if pools == nil {
		pools = []evtpool.Stats{}
	}
	writeJSON(w, AdminPoolsResponse{Pools: pools}, http.StatusOK)
}

// AdminListObjects handles GET /api/v1/admin/objects
func (h *Handlers) AdminListObjects(w http.ResponseWriter, r *http.Request) {
	objects := h.backend.ObjectStats()
	if objects == nil {
		objects = []active.Stats{}
	}
	writeJSON(w, AdminObjectsResponse{Objects: objects}, http.StatusOK)
}
