package main

import (
	"bytes"
	"context"
	"io"
	"net"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rmacdonaldsmith/aomesh/internal/config"
	"github.com/rmacdonaldsmith/aomesh/internal/demo"
	"github.com/rmacdonaldsmith/aomesh/internal/framework"
	"github.com/rmacdonaldsmith/aomesh/internal/health"
	"github.com/rmacdonaldsmith/aomesh/internal/httpapi"
	"github.com/rmacdonaldsmith/aomesh/internal/logging"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "aomesh v"+appVersion+"\n", out)
}

func TestTokenCommand(t *testing.T) {
	t.Setenv("AOMESH_HTTP_SECRET", "test-secret")

	out, err := execute(t, "token", "--subject", "ops")
	require.NoError(t, err)

	claims, err := httpapi.NewJWTAuth("test-secret").ValidateToken(strings.TrimSpace(out))
	require.NoError(t, err)
	assert.Equal(t, "ops", claims.Subject)
	assert.True(t, claims.IsAdmin)
}

func TestTokenCommand_NonAdmin(t *testing.T) {
	t.Setenv("AOMESH_HTTP_SECRET", "test-secret")

	out, err := execute(t, "token", "--admin=false")
	require.NoError(t, err)

	claims, err := httpapi.NewJWTAuth("test-secret").ValidateToken(strings.TrimSpace(out))
	require.NoError(t, err)
	assert.False(t, claims.IsAdmin)
}

func TestTokenCommand_NoSecret(t *testing.T) {
	_, err := execute(t, "token")
	assert.Error(t, err)
}

func TestLoad_InvalidLogLevelFlag(t *testing.T) {
	t.Setenv("AOMESH_HTTP_SECRET", "test-secret")

	_, err := execute(t, "--log-level", "verbose", "token")
	assert.Error(t, err)
}

func TestLoad_MissingConfigFile(t *testing.T) {
	_, err := execute(t, "--config", "/nonexistent/aomesh.yaml", "token")
	assert.Error(t, err)
}

func TestHealthCommand(t *testing.T) {
	lis, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	hs := health.NewServer(logging.Discard())
	go func() { _ = hs.Serve(lis) }()
	t.Cleanup(hs.Stop)

	addr := lis.Addr().String()

	_, err = execute(t, "health", "--addr", addr)
	assert.Error(t, err, "a fresh server reports NOT_SERVING")

	hs.SetServing(true)
	out, err := execute(t, "health", "--addr", addr)
	require.NoError(t, err)
	assert.Contains(t, out, "SERVING")
}

func TestRun(t *testing.T) {
	cfg := config.Default()
	cfg.HTTP.Listen = "127.0.0.1:0"
	cfg.Health.Listen = "127.0.0.1:0"
	cfg.Demo.TickInterval = time.Millisecond

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	assert.NoError(t, run(ctx, cfg, io.Discard))
}

func TestRun_InvalidLogFormat(t *testing.T) {
	cfg := config.Default()
	cfg.Logging.Format = "xml"

	assert.Error(t, run(context.Background(), cfg, io.Discard))
}

func startAPI(t *testing.T, secret string) string {
	t.Helper()
	rt, err := framework.New(framework.NewConfig(demo.MaxSignal).WithPool(8, 8).WithPool(32, 8).WithLogger(logging.Discard()))
	require.NoError(t, err)
	t.Cleanup(func() { _ = rt.Close() })

	_, err = demo.New(rt, demo.Config{TickInterval: time.Second, Workers: 2, ReportEvery: 1, Logger: logging.Discard()})
	require.NoError(t, err)

	api := httpapi.NewServer(rt, httpapi.Config{SecretKey: secret, SignalName: demo.SignalName, Logger: logging.Discard()})
	server := httptest.NewServer(api.Handler())
	t.Cleanup(server.Close)
	return server.URL
}

func TestAdminCommands(t *testing.T) {
	t.Setenv("AOMESH_HTTP_SECRET", "test-secret")
	url := startAPI(t, "test-secret")

	out, err := execute(t, "admin", "subscriptions", "--server", url)
	require.NoError(t, err)
	assert.Contains(t, out, "TICK")
	assert.Contains(t, out, "3,2")
	assert.Contains(t, out, "6 subscription(s)")

	out, err = execute(t, "admin", "pools", "--server", url)
	require.NoError(t, err)
	assert.Contains(t, out, "BLOCK SIZE")

	out, err = execute(t, "admin", "objects", "--server", url)
	require.NoError(t, err)
	assert.Contains(t, out, "reporter")
	assert.Contains(t, out, "worker-2")
}

func TestAdminCommands_ExplicitToken(t *testing.T) {
	url := startAPI(t, "other-secret")

	tok, _, err := httpapi.NewJWTAuth("other-secret").GenerateToken("ops", true, time.Minute)
	require.NoError(t, err)

	_, err = execute(t, "admin", "pools", "--server", url, "--token", tok)
	assert.NoError(t, err)

	_, err = execute(t, "admin", "pools", "--server", url, "--token", "garbage")
	assert.Error(t, err)
}

func TestAdminCommands_NoToken(t *testing.T) {
	_, err := execute(t, "admin", "pools", "--server", "http://127.0.0.1:1")
	assert.Error(t, err)
}
