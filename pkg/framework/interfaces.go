package framework

import (
	"context"
	"io"

	"github.com/rmacdonaldsmith/aomesh/pkg/pubsub"
)

// Framework hosts active objects and the publish-subscribe core.
type Framework interface {
	io.Closer

	// Start runs every registered active object on its own goroutine.
	Start(ctx context.Context) error

	// Stop cancels the active objects and waits for them to finish, or for
	// ctx to be done.
	Stop(ctx context.Context) error

	// PubSub returns the publish-subscribe core of this runtime.
	PubSub() pubsub.PubSub

	// Health returns the overall health status of this runtime.
	Health(ctx context.Context) (HealthStatus, error)
}

// HealthStatus represents the overall health of a runtime
type HealthStatus struct {
	// Healthy indicates the runtime is started and no object has failed
	Healthy bool `json:"healthy"`

	// Running indicates Start has been called and Stop has not
	Running bool `json:"running"`

	// ActiveObjects is the number of registered active objects
	ActiveObjects int `json:"activeObjects"`

	// Subscriptions is the number of (signal, object) subscriptions
	Subscriptions int `json:"subscriptions"`

	// FreeBlocks is the number of free event blocks across all pools
	FreeBlocks int `json:"freeBlocks"`

	// TotalBlocks is the number of event blocks across all pools
	TotalBlocks int `json:"totalBlocks"`

	// HandlerPanics is the number of recovered event handler panics
	HandlerPanics uint64 `json:"handlerPanics"`

	// Message provides additional health information
	Message string `json:"message"`
}
