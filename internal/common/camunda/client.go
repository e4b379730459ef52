// Package camunda wraps the Zeebe client used to activate and answer jobs.
package camunda

import (
	"context"
	"fmt"
	"strings"
	"time"

	"studyabroad-workers/internal/common/errors"
	"studyabroad-workers/internal/common/logger"

	"github.com/camunda/zeebe/clients/go/v8/pkg/zbc"
)

// Client wraps the Zeebe gRPC client.
type Client struct {
	client zbc.Client
	config *ClientConfig
	logger logger.Logger
}

type ClientConfig struct {
	GatewayAddress         string
	UsePlaintextConnection bool
	ConnectionTimeout      time.Duration
	RetryConfig            *RetryConfig
}

// RetryConfig governs the broker connection attempts at startup.
type RetryConfig struct {
	MaxRetries int
	BaseDelay  time.Duration
	MaxDelay   time.Duration
}

var DefaultRetryConfig = &RetryConfig{
	MaxRetries: 10,
	BaseDelay:  2 * time.Second,
	MaxDelay:   30 * time.Second,
}

// NewClient connects to a plaintext gateway with default settings.
func NewClient(ctx context.Context, address string, log logger.Logger) (*Client, error) {
	return NewClientWithConfig(ctx, &ClientConfig{
		GatewayAddress:         address,
		UsePlaintextConnection: true,
		ConnectionTimeout:      10 * time.Second,
	}, log)
}

// NewClientWithConfig creates the Zeebe client and waits until the broker
// answers a topology request.
func NewClientWithConfig(ctx context.Context, config *ClientConfig, log logger.Logger) (*Client, error) {
	if config.RetryConfig == nil {
		config.RetryConfig = DefaultRetryConfig
	}
	if config.ConnectionTimeout <= 0 {
		config.ConnectionTimeout = 10 * time.Second
	}
	if log == nil {
		log = logger.NewNoOpLogger()
	}

	zeebeClient, err := zbc.NewClient(&zbc.ClientConfig{
		GatewayAddress:         config.GatewayAddress,
		UsePlaintextConnection: config.UsePlaintextConnection,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Zeebe client: %w", err)
	}

	c := &Client{client: zeebeClient, config: config, logger: log.Named("camunda")}
	if err := c.ExecuteWithRetry(ctx, c.HealthCheck, "topology"); err != nil {
		zeebeClient.Close()
		return nil, err
	}
	return c, nil
}

// GetClient returns the raw Zeebe client.
func (c *Client) GetClient() zbc.Client {
	return c.client
}

func (c *Client) Close() error {
	return c.client.Close()
}

// ExecuteWithRetry runs fn with exponential backoff. Only transient broker
// errors are retried.
func (c *Client) ExecuteWithRetry(ctx context.Context, fn func(context.Context) error, operation string) error {
	rc := c.config.RetryConfig
	var lastErr error
	for attempt := 0; attempt <= rc.MaxRetries; attempt++ {
		lastErr = fn(ctx)
		if lastErr == nil {
			return nil
		}
		if !isRetryableZeebeError(lastErr) || attempt == rc.MaxRetries {
			return mapZeebeError(lastErr, operation, attempt)
		}

		delay := rc.BaseDelay * time.Duration(1<<attempt)
		if delay > rc.MaxDelay {
			delay = rc.MaxDelay
		}
		c.logger.Warn("zeebe operation failed, retrying", map[string]interface{}{
			"operation":   operation,
			"attempt":     attempt + 1,
			"nextRetryIn": delay.String(),
			"error":       lastErr.Error(),
		})

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return fmt.Errorf("operation %s cancelled after %d attempts: %w", operation, attempt+1, ctx.Err())
		}
	}
	return mapZeebeError(lastErr, operation, rc.MaxRetries)
}

func isRetryableZeebeError(err error) bool {
	msg := strings.ToLower(err.Error())
	for _, phrase := range []string{
		"connection refused",
		"connection reset",
		"timeout",
		"deadline exceeded",
		"unavailable",
		"unreachable",
		"broken pipe",
	} {
		if strings.Contains(msg, phrase) {
			return true
		}
	}
	return false
}

// mapZeebeError converts a broker failure into a StandardError.
func mapZeebeError(err error, operation string, attempt int) error {
	msg := fmt.Sprintf("zeebe operation '%s' failed", operation)
	if attempt > 0 {
		msg += fmt.Sprintf(" after %d attempts", attempt+1)
	}
	wrapped := fmt.Errorf("%s: %w", msg, err)

	lower := strings.ToLower(err.Error())
	switch {
	case strings.Contains(lower, "permission denied"), strings.Contains(lower, "unauthenticated"), strings.Contains(lower, "unauthorized"):
		return errors.NewUnauthorizedError("zeebe/" + operation)
	case isRetryableZeebeError(err):
		return errors.NewNetworkUnreachableError("zeebe/"+operation, wrapped)
	default:
		return errors.NewInternalError(wrapped)
	}
}

// HealthCheck sends a topology request bounded by the connection timeout.
func (c *Client) HealthCheck(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, c.config.ConnectionTimeout)
	defer cancel()

	if _, err := c.client.NewTopologyCommand().Send(ctx); err != nil {
		return fmt.Errorf("zeebe health check failed: %w", err)
	}
	return nil
}
