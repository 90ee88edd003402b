package redis

import (
	"context"
	"encoding/json"
	"time"
)

// SetJSON sets a key with JSON-encoded value
func (c *Client) SetJSON(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return c.Set(ctx, key, data, expiration)
}

// GetJSON gets a key and decodes JSON value
func (c *Client) GetJSON(ctx context.Context, key string, dest interface{}) error {
	data, err := c.Get(ctx, key)
	if err != nil {
		return err
	}
	return json.Unmarshal([]byte(data), dest)
}

// PublishJSON publishes a JSON-encoded message to a channel
func (c *Client) PublishJSON(ctx context.Context, channel string, value interface{}) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return c.Publish(ctx, channel, data)
}
