package camunda

import (
	"context"
	"fmt"
	"time"

	"incubator-portal/internal/common/logger"
	"incubator-portal/internal/models"

	"github.com/camunda/zeebe/clients/go/v8/pkg/zbc"
)

type Client struct {
	client zbc.Client
	config *ClientConfig
	logger logger.Logger
}

type ClientConfig struct {
	GatewayAddress         string
	UsePlaintextConnection bool
	ConnectionTimeout      time.Duration
	RequestTimeout         time.Duration
	MessageTTL             time.Duration
}

func NewClientWithConfig(config *ClientConfig, log logger.Logger) (*Client, error) {
	if config.ConnectionTimeout == 0 {
		config.ConnectionTimeout = 10 * time.Second
	}
	if config.RequestTimeout == 0 {
		config.RequestTimeout = 30 * time.Second
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
		logger: log.WithFields(map[string]interface{}{"component": "camunda"}),
	}, nil
}

func (c *Client) Close() error {
	return c.client.Close()
}

// Publish sends a lifecycle event as a Zeebe message correlated by applicationId,
// so a running review process for that application can react to it.
func (c *Client) Publish(ctx context.Context, event models.LifecycleEvent) error {
	ctx, cancel := context.WithTimeout(ctx, c.config.RequestTimeout)
	defer cancel()

	name, key, vars := messageFor(event)

	cmd, err := c.client.NewPublishMessageCommand().
		MessageName(name).
		CorrelationKey(key).
		TimeToLive(c.config.MessageTTL).
		VariablesFromMap(vars)
	if err != nil {
		return fmt.Errorf("failed to encode message variables: %w", err)
	}

	if _, err := cmd.Send(ctx); err != nil {
		return fmt.Errorf("failed to publish %s for %s: %w", name, key, err)
	}

	c.logger.Debug("lifecycle message published", map[string]interface{}{
		"messageName":   name,
		"applicationId": key,
	})
	return nil
}

func messageFor(event models.LifecycleEvent) (string, string, map[string]interface{}) {
	vars := map[string]interface{}{
		"applicationId":     event.ApplicationID,
		"applicationStatus": string(event.Status),
		"occurredAt":        event.OccurredAt.UTC().Format(time.RFC3339Nano),
	}
	if event.PreviousStatus != "" {
		vars["previousStatus"] = string(event.PreviousStatus)
	}
	if event.Actor != "" {
		vars["actor"] = event.Actor
	}
	return string(event.Type), event.ApplicationID, vars
}
