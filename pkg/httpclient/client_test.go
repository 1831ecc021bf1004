package httpclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rmacdonaldsmith/aomesh/internal/framework"
	"github.com/rmacdonaldsmith/aomesh/internal/httpapi"
	"github.com/rmacdonaldsmith/aomesh/internal/logging"
	"github.com/rmacdonaldsmith/aomesh/pkg/event"
)

func TestNewClient(t *testing.T) {
	t.Run("valid_config", func(t *testing.T) {
		client, err := NewClient(Config{ServerURL: "http://localhost:8080"})
		require.NoError(t, err)
		assert.NotNil(t, client)
		assert.Equal(t, 30*time.Second, client.config.Timeout)
		assert.False(t, client.IsAuthenticated())
	})

	t.Run("token_from_config", func(t *testing.T) {
		client, err := NewClient(Config{ServerURL: "http://localhost:8080", Token: "abc"})
		require.NoError(t, err)
		assert.True(t, client.IsAuthenticated())
	})

	t.Run("missing_server_url", func(t *testing.T) {
		client, err := NewClient(Config{})
		assert.Error(t, err)
		assert.Nil(t, client)
		assert.Contains(t, err.Error(), "ServerURL is required")
	})

	t.Run("invalid_server_url", func(t *testing.T) {
		client, err := NewClient(Config{ServerURL: "://invalid-url"})
		assert.Error(t, err)
		assert.Nil(t, client)
		assert.Contains(t, err.Error(), "invalid ServerURL")
	})
}

func TestClient_GetHealth(t *testing.T) {
	t.Run("healthy", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/api/v1/health", r.URL.Path)
			assert.Empty(t, r.Header.Get("Authorization"))
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(HealthResponse{Healthy: true, ActiveObjects: 3, Message: "ok"})
		}))
		defer server.Close()

		client, err := NewClient(Config{ServerURL: server.URL})
		require.NoError(t, err)

		health, err := client.GetHealth(context.Background())
		require.NoError(t, err)
		assert.True(t, health.Healthy)
		assert.Equal(t, 3, health.ActiveObjects)
	})

	t.Run("unhealthy_status_is_not_an_error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			_ = json.NewEncoder(w).Encode(HealthResponse{Message: "runtime is not started"})
		}))
		defer server.Close()

		client, err := NewClient(Config{ServerURL: server.URL})
		require.NoError(t, err)

		health, err := client.GetHealth(context.Background())
		require.NoError(t, err)
		assert.False(t, health.Healthy)
		assert.Equal(t, "runtime is not started", health.Message)
	})

	t.Run("server_error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
			_ = json.NewEncoder(w).Encode(ErrorResponse{Error: "Internal Server Error", Message: "boom", Code: 500})
		}))
		defer server.Close()

		client, err := NewClient(Config{ServerURL: server.URL})
		require.NoError(t, err)

		_, err = client.GetHealth(context.Background())
		require.Error(t, err)
		var apiErr *APIError
		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, http.StatusInternalServerError, apiErr.StatusCode)
		assert.Contains(t, err.Error(), "boom")
	})
}

func TestClient_AdminRequiresToken(t *testing.T) {
	client, err := NewClient(Config{ServerURL: "http://localhost:1"})
	require.NoError(t, err)

	_, err = client.AdminListSubscriptions(context.Background())
	assert.ErrorIs(t, err, ErrNotAuthenticated)
	_, err = client.AdminListPools(context.Background())
	assert.ErrorIs(t, err, ErrNotAuthenticated)
	_, err = client.AdminListObjects(context.Background())
	assert.ErrorIs(t, err, ErrNotAuthenticated)
}

func TestClient_AdminSendsBearerToken(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
		assert.Equal(t, "/api/v1/admin/pools", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(AdminPoolsResponse{Pools: []PoolStats{{ID: 1, BlockSize: 16, Blocks: 4, Free: 4, MinFree: 4}}})
	}))
	defer server.Close()

	client, err := NewClient(Config{ServerURL: server.URL})
	require.NoError(t, err)
	client.SetToken("test-token")

	pools, err := client.AdminListPools(context.Background())
	require.NoError(t, err)
	require.Len(t, pools.Pools, 1)
	assert.Equal(t, 16, pools.Pools[0].BlockSize)
}

// TestClient_AgainstServer runs the client against the real HTTP API.
func TestClient_AgainstServer(t *testing.T) {
	const sigTick = event.UserSignal

	rt, err := framework.New(framework.NewConfig(8).WithPool(16, 4).WithLogger(logging.Discard()))
	require.NoError(t, err)
	defer rt.Close()

	o, err := rt.NewObject("counter", 2, func(context.Context, *event.Event) {})
	require.NoError(t, err)
	rt.PubSub().Subscribe(o, sigTick)

	api := httpapi.NewServer(rt, httpapi.Config{SecretKey: "secret", Version: "test", Logger: logging.Discard()})
	server := httptest.NewServer(api.Handler())
	defer server.Close()

	token, _, err := api.Auth().GenerateToken("tester", true, time.Minute)
	require.NoError(t, err)

	client, err := NewClient(Config{ServerURL: server.URL, Token: token})
	require.NoError(t, err)
	ctx := context.Background()

	info, err := client.Info(ctx)
	require.NoError(t, err)
	assert.Equal(t, "test", info.Version)

	health, err := client.GetHealth(ctx)
	require.NoError(t, err)
	assert.False(t, health.Healthy)
	assert.Equal(t, 1, health.ActiveObjects)

	subs, err := client.AdminListSubscriptions(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, subs.Total)
	require.Len(t, subs.Signals, 1)
	assert.Equal(t, int(sigTick), subs.Signals[0].Signal)
	assert.Equal(t, []int{2}, subs.Signals[0].Priorities)

	pools, err := client.AdminListPools(ctx)
	require.NoError(t, err)
	require.Len(t, pools.Pools, 1)
	assert.Equal(t, 4, pools.Pools[0].Free)

	objects, err := client.AdminListObjects(ctx)
	require.NoError(t, err)
	require.Len(t, objects.Objects, 1)
	assert.Equal(t, "counter", objects.Objects[0].Name)
	assert.Equal(t, 2, objects.Objects[0].Priority)

	client.SetToken("not-a-token")
	_, err = client.AdminListObjects(ctx)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
}
