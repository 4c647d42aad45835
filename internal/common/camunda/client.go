// internal/common/camunda/client.go
package camunda

import (
	"context"
	"fmt"
	"strings"
	"time"

	"mintslip-workers/internal/common/errors"

	"github.com/camunda/zeebe/clients/go/v8/pkg/pb"
	"github.com/camunda/zeebe/clients/go/v8/pkg/zbc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Client wraps the Zeebe gRPC client with error mapping and retry logic.
type Client struct {
	client zbc.Client
	config *ClientConfig
}

type ClientConfig struct {
	GatewayAddress         string
	UsePlaintextConnection bool
	ConnectionTimeout      time.Duration
	RequestTimeout         time.Duration
	// MessageTTL keeps a published message buffered until an instance
	// reaches the matching catch event.
	MessageTTL  time.Duration
	RetryConfig *RetryConfig
}

// RetryConfig defines retry behavior for transient failures.
type RetryConfig struct {
	MaxRetries int
	BaseDelay  time.Duration
	MaxDelay   time.Duration
}

const DefaultMessageTTL = time.Hour

var DefaultRetryConfig = &RetryConfig{
	MaxRetries: 3,
	BaseDelay:  1 * time.Second,
	MaxDelay:   10 * time.Second,
}

// ProcessInstance identifies a started process instance.
type ProcessInstance struct {
	ProcessInstanceKey   int64  `json:"processInstanceKey"`
	BpmnProcessID        string `json:"bpmnProcessId"`
	ProcessDefinitionKey int64  `json:"processDefinitionKey"`
	Version              int32  `json:"version"`
}

// NewClient creates a plaintext client with default timeouts.
func NewClient(address string) (*Client, error) {
	return NewClientWithConfig(&ClientConfig{
		GatewayAddress:         address,
		UsePlaintextConnection: true,
		ConnectionTimeout:      10 * time.Second,
		RequestTimeout:         30 * time.Second,
		MessageTTL:             DefaultMessageTTL,
		RetryConfig:            DefaultRetryConfig,
	})
}

// NewClientWithConfig creates a client and checks the broker topology.
func NewClientWithConfig(config *ClientConfig) (*Client, error) {
	if config.RetryConfig == nil {
		config.RetryConfig = DefaultRetryConfig
	}

	zeebeClient, err := zbc.NewClient(&zbc.ClientConfig{
		GatewayAddress:         config.GatewayAddress,
		UsePlaintextConnection: config.UsePlaintextConnection,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Zeebe client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), config.ConnectionTimeout)
	defer cancel()

	if _, err := zeebeClient.NewTopologyCommand().Send(ctx); err != nil {
		zeebeClient.Close()
		return nil, fmt.Errorf("failed to connect to Zeebe broker at %s: %w", config.GatewayAddress, err)
	}

	return &Client{
		client: zeebeClient,
		config: config,
	}, nil
}

// Wrap builds a Client around an existing Zeebe connection.
func Wrap(zeebeClient zbc.Client, config *ClientConfig) *Client {
	if config == nil {
		config = &ClientConfig{ConnectionTimeout: 10 * time.Second, RequestTimeout: 30 * time.Second}
	}
	if config.RetryConfig == nil {
		config.RetryConfig = DefaultRetryConfig
	}
	return &Client{client: zeebeClient, config: config}
}

func (c *Client) GetClient() zbc.Client {
	return c.client
}

func (c *Client) Close() error {
	return c.client.Close()
}

// StartProcess creates an instance of the latest deployed version of processID.
func (c *Client) StartProcess(ctx context.Context, processID string, variables interface{}) (*ProcessInstance, error) {
	result, err := c.ExecuteWithRetry(ctx, func(ctx context.Context) (interface{}, error) {
		cmd, err := c.client.NewCreateInstanceCommand().
			BPMNProcessId(processID).
			LatestVersion().
			VariablesFromObject(variables)
		if err != nil {
			return nil, fmt.Errorf("encode variables: %w", err)
		}
		return cmd.Send(ctx)
	}, "create-instance")
	if err != nil {
		return nil, err
	}

	resp := result.(*pb.CreateProcessInstanceResponse)
	return &ProcessInstance{
		ProcessInstanceKey:   resp.GetProcessInstanceKey(),
		BpmnProcessID:        resp.GetBpmnProcessId(),
		ProcessDefinitionKey: resp.GetProcessDefinitionKey(),
		Version:              resp.GetVersion(),
	}, nil
}

// PublishMessage publishes name correlated by correlationKey. The message is
// buffered for the configured TTL, and a second publish with the same name and
// key inside that window is dropped by the broker and reported as success.
func (c *Client) PublishMessage(ctx context.Context, name, correlationKey string, variables map[string]interface{}) error {
	ttl := c.config.MessageTTL
	if ttl <= 0 {
		ttl = DefaultMessageTTL
	}
	_, err := c.ExecuteWithRetry(ctx, func(ctx context.Context) (interface{}, error) {
		cmd := c.client.NewPublishMessageCommand().
			MessageName(name).
			CorrelationKey(correlationKey).
			MessageId(MessageID(name, correlationKey)).
			TimeToLive(ttl)
		if len(variables) > 0 {
			withVars, err := cmd.VariablesFromMap(variables)
			if err != nil {
				return nil, fmt.Errorf("encode variables: %w", err)
			}
			cmd = withVars
		}
		resp, err := cmd.Send(ctx)
		if status.Code(err) == codes.AlreadyExists {
			return resp, nil
		}
		return resp, err
	}, "publish-message")
	return err
}

// MessageID names a message by what it confirms so redeliveries collapse.
func MessageID(name, correlationKey string) string {
	return name + ":" + correlationKey
}

// ExecuteWithRetry runs commandFunc with exponential backoff. Only transient
// errors (timeouts, connection issues) are retried.
func (c *Client) ExecuteWithRetry(
	ctx context.Context,
	commandFunc func(context.Context) (interface{}, error),
	operationName string,
) (interface{}, error) {
	var lastErr error

	for attempt := 0; attempt <= c.config.RetryConfig.MaxRetries; attempt++ {
		result, err := commandFunc(ctx)
		if err == nil {
			return result, nil
		}

		lastErr = err

		if !isRetryableZeebeError(err) || attempt == c.config.RetryConfig.MaxRetries {
			return nil, c.mapZeebeError(err, operationName, attempt)
		}

		delay := c.config.RetryConfig.BaseDelay * time.Duration(1<<attempt)
		if delay > c.config.RetryConfig.MaxDelay {
			delay = c.config.RetryConfig.MaxDelay
		}

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, fmt.Errorf("operation %s cancelled after %d attempts: %w", operationName, attempt, ctx.Err())
		}
	}

	return nil, fmt.Errorf("operation %s failed after %d retries: %w", operationName, c.config.RetryConfig.MaxRetries, lastErr)
}

func isRetryableZeebeError(err error) bool {
	msg := strings.ToLower(err.Error())
	retryablePhrases := []string{
		"connection refused",
		"connection reset",
		"timeout",
		"deadline exceeded",
		"unavailable",
		"unreachable",
		"broken pipe",
	}
	for _, phrase := range retryablePhrases {
		if strings.Contains(msg, phrase) {
			return true
		}
	}
	return false
}

// mapZeebeError converts Zeebe errors into standardized application errors.
func (c *Client) mapZeebeError(err error, operation string, attempt int) error {
	msg := err.Error()
	lowerMsg := strings.ToLower(msg)

	enhancedMsg := fmt.Sprintf("Zeebe operation '%s' failed", operation)
	if attempt > 0 {
		enhancedMsg += fmt.Sprintf(" after %d attempts", attempt)
	}

	switch {
	case strings.Contains(lowerMsg, "connection refused") ||
		strings.Contains(lowerMsg, "connection reset") ||
		strings.Contains(lowerMsg, "unavailable") ||
		strings.Contains(lowerMsg, "unreachable"):
		return errors.NewExternalServiceError("zeebe", fmt.Errorf("%s: %s", enhancedMsg, msg))

	case strings.Contains(lowerMsg, "timeout") ||
		strings.Contains(lowerMsg, "deadline exceeded"):
		return errors.NewTimeoutError("zeebe", fmt.Errorf("%s: %s", enhancedMsg, msg))

	case strings.Contains(lowerMsg, "not found"):
		return errors.NewResourceNotFoundError("zeebe", fmt.Sprintf("%s: %s", enhancedMsg, msg))

	case strings.Contains(lowerMsg, "already exists"):
		return errors.NewBusinessRuleError(
			fmt.Sprintf("%s: %s", enhancedMsg, msg),
			"Resource already exists",
		)

	case strings.Contains(lowerMsg, "permission denied") ||
		strings.Contains(lowerMsg, "unauthorized"):
		return errors.NewAuthenticationFailedError(fmt.Sprintf("%s: %s", enhancedMsg, msg))

	default:
		return errors.NewExternalServiceError("zeebe", fmt.Errorf("%s: %s", enhancedMsg, msg))
	}
}

// HealthCheck performs a basic health check against the Zeebe broker.
func (c *Client) HealthCheck(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, c.config.ConnectionTimeout)
	defer cancel()

	_, err := c.client.NewTopologyCommand().Send(ctx)
	if err != nil {
		return fmt.Errorf("zeebe health check failed: %w", err)
	}
	return nil
}
