package health

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/proto"

	"github.com/rmacdonaldsmith/aomesh/internal/logging"
	"github.com/rmacdonaldsmith/aomesh/pkg/framework"
	"github.com/rmacdonaldsmith/aomesh/pkg/pubsub"
)

func startServer(t *testing.T) (*Server, healthpb.HealthClient) {
	t.Helper()
	lis := bufconn.Listen(1 << 20)
	s := NewServer(logging.Discard())
	go func() { _ = s.Serve(lis) }()
	t.Cleanup(s.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()))
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	return s, healthpb.NewHealthClient(conn)
}

func check(t *testing.T, client healthpb.HealthClient, service string) *healthpb.HealthCheckResponse {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	resp, err := client.Check(ctx, &healthpb.HealthCheckRequest{Service: service})
	require.NoError(t, err)
	return resp
}

func TestServer_SetServing(t *testing.T) {
	s, client := startServer(t)

	notServing := &healthpb.HealthCheckResponse{Status: healthpb.HealthCheckResponse_NOT_SERVING}
	serving := &healthpb.HealthCheckResponse{Status: healthpb.HealthCheckResponse_SERVING}

	assert.True(t, proto.Equal(notServing, check(t, client, ServiceName)))
	assert.True(t, proto.Equal(notServing, check(t, client, "")))

	s.SetServing(true)
	assert.True(t, proto.Equal(serving, check(t, client, ServiceName)))
	assert.True(t, proto.Equal(serving, check(t, client, "")))
}

func TestServer_UnknownService(t *testing.T) {
	_, client := startServer(t)

	_, err := client.Check(context.Background(), &healthpb.HealthCheckRequest{Service: "other"})
	assert.Equal(t, codes.NotFound, status.Code(err))
}

type fakeFramework struct {
	healthy chan bool
	current bool
}

func (f *fakeFramework) Close() error                { return nil }
func (f *fakeFramework) Start(context.Context) error { return nil }
func (f *fakeFramework) Stop(context.Context) error  { return nil }
func (f *fakeFramework) PubSub() pubsub.PubSub       { return nil }
func (f *fakeFramework) Health(context.Context) (framework.HealthStatus, error) {
	select {
	case h := <-f.healthy:
		f.current = h
	default:
	}
	return framework.HealthStatus{Healthy: f.current}, nil
}

func TestServer_Watch(t *testing.T) {
	s, client := startServer(t)
	fw := &fakeFramework{healthy: make(chan bool, 1)}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		s.Watch(ctx, fw, 5*time.Millisecond)
	}()

	statusIs := func(want healthpb.HealthCheckResponse_ServingStatus) func() bool {
		return func() bool {
			resp, err := client.Check(context.Background(), &healthpb.HealthCheckRequest{Service: ServiceName})
			return err == nil && resp.GetStatus() == want
		}
	}

	fw.healthy <- true
	require.Eventually(t, statusIs(healthpb.HealthCheckResponse_SERVING), 2*time.Second, 5*time.Millisecond)

	fw.healthy <- false
	require.Eventually(t, statusIs(healthpb.HealthCheckResponse_NOT_SERVING), 2*time.Second, 5*time.Millisecond)

	cancel()
	<-done
}
