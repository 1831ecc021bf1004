package httpapi

import (
	"github.com/rmacdonaldsmith/aomesh/internal/active"
	"github.com/rmacdonaldsmith/aomesh/internal/evtpool"
	"github.com/rmacdonaldsmith/aomesh/pkg/framework"
)

// Request/Response types for the HTTP API

// APIInfoResponse is returned by the root endpoint
type APIInfoResponse struct {
	Name      string   `json:"name"`
	Version   string   `json:"version"`
	Endpoints []string `json:"endpoints"`
}

// HealthResponse represents health check response
type HealthResponse struct {
	framework.HealthStatus
}

// SignalSubscribers lists the subscribers of one signal, highest priority first
type SignalSubscribers struct {
	Signal     int    `json:"signal"`
	Name       string `json:"name"`
	Priorities []int  `json:"priorities"`
}

// AdminSubscriptionsResponse represents admin view of the subscription registry
type AdminSubscriptionsResponse struct {
	Signals []SignalSubscribers `json:"signals"`
	Total   int                 `json:"total"`
}

// AdminPoolsResponse represents admin view of the event pools
type AdminPoolsResponse struct {
	Pools []evtpool.Stats `json:"pools"`
}

// AdminObjectsResponse represents admin view of the active objects
type AdminObjectsResponse struct {
	Objects []active.Stats `json:"objects"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}
