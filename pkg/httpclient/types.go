package httpclient

import "time"

// Config holds client configuration
type Config struct {
	// ServerURL is the base URL of the aomesh HTTP API (e.g., "http://localhost:8080")
	ServerURL string

	// Token is the admin JWT sent to the /api/v1/admin endpoints (optional)
	Token string

	// Timeout for HTTP requests
	Timeout time.Duration
}

// SetDefaults sets reasonable default values for the config
func (c *Config) SetDefaults() {
	if c.Timeout == 0 {
		c.Timeout = 30 * time.Second
	}
}

// APIInfoResponse describes the server
type APIInfoResponse struct {
	Name      string   `json:"name"`
	Version   string   `json:"version"`
	Endpoints []string `json:"endpoints"`
}

// HealthResponse represents the runtime health
type HealthResponse struct {
	Healthy       bool   `json:"healthy"`
	Running       bool   `json:"running"`
	ActiveObjects int    `json:"activeObjects"`
	Subscriptions int    `json:"subscriptions"`
	FreeBlocks    int    `json:"freeBlocks"`
	TotalBlocks   int    `json:"totalBlocks"`
	HandlerPanics uint64 `json:"handlerPanics"`
	Message       string `json:"message"`
}

// SignalSubscribers lists the subscribers of one signal, highest priority first
type SignalSubscribers struct {
	Signal     int    `json:"signal"`
	Name       string `json:"name"`
	Priorities []int  `json:"priorities"`
}

// AdminSubscriptionsResponse is the subscription registry
type AdminSubscriptionsResponse struct {
	Signals []SignalSubscribers `json:"signals"`
	Total   int                 `json:"total"`
}

// PoolStats describes one event pool
type PoolStats struct {
	ID        int `json:"id"`
	BlockSize int `json:"blockSize"`
	Blocks    int `json:"blocks"`
	Free      int `json:"free"`
	MinFree   int `json:"minFree"`
}

// AdminPoolsResponse lists the event pools
type AdminPoolsResponse struct {
	Pools []PoolStats `json:"pools"`
}

// ObjectStats describes one active object
type ObjectStats struct {
	Name         string `json:"name"`
	Priority     int    `json:"priority"`
	Queued       int    `json:"queued"`
	QueueMinFree int    `json:"queueMinFree"`
	Processed    uint64 `json:"processed"`
	Panics       uint64 `json:"panics"`
}

// AdminObjectsResponse lists the active objects
type AdminObjectsResponse struct {
	Objects []ObjectStats `json:"objects"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}
