package transport

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/coder/websocket"
)

// Default reconnect parameters, matching the downstream service's
// expectations: a few quick attempts, then give up and keep the pipeline
// running locally.
const (
	DefaultMaxRetries = 3
	DefaultRetryDelay = 2 * time.Second
)

// Compile-time assertion that WSChannel implements Channel.
var _ Channel = (*WSChannel)(nil)

// WSChannel is a reconnecting websocket Channel. All sends are serialised
// through an internal mutex, so a single WSChannel may be shared by every
// event-emission point in the pipeline.
type WSChannel struct {
	url        string
	maxRetries int
	retryDelay time.Duration

	mu     sync.Mutex
	conn   *websocket.Conn
	closed bool
}

// WSOption is a functional option for configuring a WSChannel.
type WSOption func(*WSChannel)

// WithMaxRetries sets the number of connection attempts per reconnect
// sequence. Defaults to DefaultMaxRetries.
func WithMaxRetries(n int) WSOption {
	return func(c *WSChannel) { c.maxRetries = n }
}

// WithRetryDelay sets the fixed delay between connection attempts.
// Defaults to DefaultRetryDelay.
func WithRetryDelay(d time.Duration) WSOption {
	return func(c *WSChannel) { c.retryDelay = d }
}

// NewWSChannel creates a WSChannel for the given websocket URL. No
// connection is made until Connect or the first Send.
func NewWSChannel(url string, opts ...WSOption) *WSChannel {
	c := &WSChannel{
		url:        url,
		maxRetries: DefaultMaxRetries,
		retryDelay: DefaultRetryDelay,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Connect dials the downstream service, retrying up to the configured
// attempt count with a fixed delay. On exhaustion it returns the last
// error and marks the channel as disconnected; Send then becomes a no-op
// until Connect is called again.
func (c *WSChannel) Connect(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connectLocked(ctx)
}

// connectLocked dials with bounded retries. Must be called with c.mu held.
func (c *WSChannel) connectLocked(ctx context.Context) error {
	var lastErr error
	for attempt := 1; attempt <= c.maxRetries; attempt++ {
		conn, _, err := websocket.Dial(ctx, c.url, nil)
		if err == nil {
			c.conn = conn
			slog.Info("connected to downstream service", "url", c.url)
			return nil
		}
		lastErr = err
		if attempt < c.maxRetries {
			slog.Warn("downstream connection attempt failed, retrying",
				"attempt", attempt, "max", c.maxRetries, "delay", c.retryDelay, "error", err)
			select {
			case <-time.After(c.retryDelay):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
	slog.Warn("could not connect to downstream service, continuing without transport",
		"url", c.url, "attempts", c.maxRetries, "error", lastErr)
	return fmt.Errorf("transport: connect %q: %w", c.url, lastErr)
}

// Send marshals ev and writes it to the websocket. A write failure tears
// down the connection and runs one bounded reconnect sequence; the failed
// event itself is dropped either way. When the channel has given up, Send
// is a silent no-op.
func (c *WSChannel) Send(ctx context.Context, ev Event) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed || c.conn == nil {
		// Disconnected: events are dropped.
		return nil
	}

	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("transport: marshal event: %w", err)
	}

	if err := c.conn.Write(ctx, websocket.MessageText, data); err != nil {
		slog.Warn("downstream send failed, reconnecting", "type", ev.Type, "error", err)
		c.conn.Close(websocket.StatusInternalError, "send failed")
		c.conn = nil
		if rerr := c.connectLocked(ctx); rerr != nil {
			return nil // degraded, pipeline continues
		}
		return nil
	}
	return nil
}

// Connected reports whether the channel currently holds a live websocket
// connection.
func (c *WSChannel) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn != nil && !c.closed
}

// Close shuts the websocket down cleanly. Subsequent sends are no-ops.
func (c *WSChannel) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	if c.conn == nil {
		return nil
	}
	err := c.conn.Close(websocket.StatusNormalClosure, "shutdown")
	c.conn = nil
	return err
}
