package camunda

import (
	"context"
	stderrors "errors"
	"testing"
	"time"

	"mintslip-workers/internal/common/errors"

	"github.com/camunda/zeebe/clients/go/v8/pkg/commands"
	"github.com/camunda/zeebe/clients/go/v8/pkg/pb"
	"github.com/camunda/zeebe/clients/go/v8/pkg/zbc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type recordingGateway struct {
	pb.GatewayClient
	requests []*pb.PublishMessageRequest
	err      error
}

func (g *recordingGateway) PublishMessage(ctx context.Context, in *pb.PublishMessageRequest, opts ...grpc.CallOption) (*pb.PublishMessageResponse, error) {
	g.requests = append(g.requests, in)
	if g.err != nil {
		return nil, g.err
	}
	return &pb.PublishMessageResponse{Key: 1}, nil
}

type gatewayClient struct {
	zbc.Client
	gateway *recordingGateway
}

func (c gatewayClient) NewPublishMessageCommand() commands.PublishMessageCommandStep1 {
	return commands.NewPublishMessageCommand(c.gateway, func(context.Context, error) bool { return false })
}

func TestPublishMessage_BuffersWithTTLAndID(t *testing.T) {
	gw := &recordingGateway{}
	c := Wrap(gatewayClient{gateway: gw}, &ClientConfig{MessageTTL: 30 * time.Minute})

	err := c.PublishMessage(context.Background(), "payment-confirmed", "cs_test_1", map[string]interface{}{"paymentStatus": "paid"})
	require.NoError(t, err)

	require.Len(t, gw.requests, 1)
	req := gw.requests[0]
	assert.Equal(t, "payment-confirmed", req.Name)
	assert.Equal(t, "cs_test_1", req.CorrelationKey)
	assert.Equal(t, int64(30*time.Minute/time.Millisecond), req.TimeToLive)
	assert.Equal(t, "payment-confirmed:cs_test_1", req.MessageId)
	assert.JSONEq(t, `{"paymentStatus":"paid"}`, req.Variables)
}

func TestPublishMessage_DefaultTTL(t *testing.T) {
	gw := &recordingGateway{}
	c := Wrap(gatewayClient{gateway: gw}, nil)

	require.NoError(t, c.PublishMessage(context.Background(), "payment-confirmed", "PP-1", nil))
	require.Len(t, gw.requests, 1)
	assert.Equal(t, DefaultMessageTTL.Milliseconds(), gw.requests[0].TimeToLive)
}

func TestPublishMessage_DuplicateIsSuccess(t *testing.T) {
	gw := &recordingGateway{err: status.Error(codes.AlreadyExists, "message with id already published")}
	c := Wrap(gatewayClient{gateway: gw}, nil)

	require.NoError(t, c.PublishMessage(context.Background(), "payment-confirmed", "cs_test_1", nil))
	assert.Len(t, gw.requests, 1)
}

func newTestClient(maxRetries int) *Client {
	return &Client{config: &ClientConfig{
		ConnectionTimeout: time.Second,
		RetryConfig: &RetryConfig{
			MaxRetries: maxRetries,
			BaseDelay:  time.Millisecond,
			MaxDelay:   5 * time.Millisecond,
		},
	}}
}

func TestIsRetryableZeebeError(t *testing.T) {
	tests := []struct {
		err  string
		want bool
	}{
		{"rpc error: code = Unavailable desc = connection refused", true},
		{"context deadline exceeded", true},
		{"broken pipe", true},
		{"rpc error: code = NotFound desc = process not found", false},
		{"invalid argument", false},
	}
	for _, tt := range tests {
		t.Run(tt.err, func(t *testing.T) {
			assert.Equal(t, tt.want, isRetryableZeebeError(stderrors.New(tt.err)))
		})
	}
}

func TestMapZeebeError(t *testing.T) {
	c := newTestClient(0)

	tests := []struct {
		err  string
		code errors.ErrorCode
	}{
		{"connection reset by peer", errors.ErrCodeExternalServiceFailed},
		{"deadline exceeded", errors.ErrCodeTimeout},
		{"process definition not found", errors.ErrorCode("RESOURCE_NOT_FOUND")},
		{"permission denied", errors.ErrCodeAuthenticationFailed},
		{"something odd", errors.ErrCodeExternalServiceFailed},
	}
	for _, tt := range tests {
		t.Run(tt.err, func(t *testing.T) {
			mapped := c.mapZeebeError(stderrors.New(tt.err), "create-instance", 0)
			stdErr, ok := errors.AsStandardError(mapped)
			require.True(t, ok)
			assert.Equal(t, tt.code, stdErr.Code)
		})
	}
}

func TestExecuteWithRetry_RetriesTransientErrors(t *testing.T) {
	c := newTestClient(3)
	calls := 0

	result, err := c.ExecuteWithRetry(context.Background(), func(ctx context.Context) (interface{}, error) {
		calls++
		if calls < 3 {
			return nil, stderrors.New("unavailable")
		}
		return "ok", nil
	}, "publish-message")

	require.NoError(t, err)
	assert.Equal(t, "ok", result)
	assert.Equal(t, 3, calls)
}

func TestExecuteWithRetry_StopsOnPermanentError(t *testing.T) {
	c := newTestClient(3)
	calls := 0

	_, err := c.ExecuteWithRetry(context.Background(), func(ctx context.Context) (interface{}, error) {
		calls++
		return nil, stderrors.New("process not found")
	}, "create-instance")

	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestExecuteWithRetry_GivesUp(t *testing.T) {
	c := newTestClient(2)
	calls := 0

	_, err := c.ExecuteWithRetry(context.Background(), func(ctx context.Context) (interface{}, error) {
		calls++
		return nil, stderrors.New("connection refused")
	}, "publish-message")

	require.Error(t, err)
	assert.Equal(t, 3, calls)
}

func TestExecuteWithRetry_ContextCancelled(t *testing.T) {
	c := newTestClient(5)
	c.config.RetryConfig.BaseDelay = time.Second
	c.config.RetryConfig.MaxDelay = time.Second

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.ExecuteWithRetry(ctx, func(ctx context.Context) (interface{}, error) {
		return nil, stderrors.New("timeout")
	}, "publish-message")
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}
