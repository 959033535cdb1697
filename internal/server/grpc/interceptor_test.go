package grpc

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/dmitrijs2005/userkeeper/internal/logging"
)

// recordingLogger keeps the key-value args of every Info call.
type recordingLogger struct {
	logging.Nop
	mu    sync.Mutex
	calls [][]any
}

func (r *recordingLogger) Info(_ context.Context, _ string, args ...any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, args)
}

func (r *recordingLogger) With(...any) logging.Logger { return r }

func TestLoggingInterceptor_PassesThroughAndLogs(t *testing.T) {
	rec := &recordingLogger{}
	s := NewServer("unused", rec, nil)

	info := &grpc.UnaryServerInfo{FullMethod: "/grpc.health.v1.Health/Check"}
	resp, err := s.loggingInterceptor(context.Background(), nil, info, func(ctx context.Context, req any) (any, error) {
		return "ok", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "ok", resp)

	require.Len(t, rec.calls, 1)
	assert.Contains(t, rec.calls[0], "/grpc.health.v1.Health/Check")
	assert.Contains(t, rec.calls[0], codes.OK.String())
}

func TestLoggingInterceptor_LogsErrorCode(t *testing.T) {
	rec := &recordingLogger{}
	s := NewServer("unused", rec, nil)

	info := &grpc.UnaryServerInfo{FullMethod: "/svc/Method"}
	_, err := s.loggingInterceptor(context.Background(), nil, info, func(ctx context.Context, req any) (any, error) {
		return nil, status.Error(codes.Unavailable, "nope")
	})
	assert.Equal(t, codes.Unavailable, status.Code(err))

	require.Len(t, rec.calls, 1)
	assert.Contains(t, rec.calls[0], codes.Unavailable.String())
}
