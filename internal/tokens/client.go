package tokens

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// messageBuffer bounds how many undelivered messages the reader holds
// before dropping the oldest; the sim drains the channel every tick so
// the buffer only matters across a stall.
const messageBuffer = 16

// Client talks to the option service over a websocket. Inbound frames
// are decoded and validated on a reader goroutine and delivered on
// Messages; outbound requests go through RequestOptions. The client
// never retries on its own unless reconnection was enabled.
type Client struct {
	url         string
	log         *zap.SugaredLogger
	dialer      *websocket.Dialer
	temperature float64
	reconnect   bool
	retryEvery  time.Duration

	mu   sync.Mutex
	conn *websocket.Conn

	msgs      chan Message
	done      chan struct{}
	closeOnce sync.Once
}

// ClientOption customizes client construction.
type ClientOption func(*Client)

// WithTemperature sets the sampling temperature forwarded in requests.
func WithTemperature(t float64) ClientOption {
	return func(c *Client) { c.temperature = t }
}

// WithReconnect enables automatic redial after a read failure. Off by
// default: the core treats reconnection as an external policy.
func WithReconnect(every time.Duration) ClientOption {
	return func(c *Client) {
		if every > 0 {
			c.reconnect = true
			c.retryEvery = every
		}
	}
}

// WithDialer overrides the websocket dialer, used by tests.
func WithDialer(d *websocket.Dialer) ClientOption {
	return func(c *Client) {
		if d != nil {
			c.dialer = d
		}
	}
}

// NewClient prepares a client for the given websocket URL.
func NewClient(url string, log *zap.SugaredLogger, opts ...ClientOption) *Client {
	c := &Client{
		url:    url,
		log:    log,
		dialer: websocket.DefaultDialer,
		msgs:   make(chan Message, messageBuffer),
		done:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Connect dials the service and starts the reader. A status message
// reporting the live channel is delivered before Connect returns.
func (c *Client) Connect(ctx context.Context) error {
	conn, _, err := c.dialer.DialContext(ctx, c.url, nil)
	if err != nil {
		return fmt.Errorf("tokens: dial %s: %w", c.url, err)
	}
	c.mu.Lock()
	c.conn = conn
	c.mu.Unlock()
	c.deliver(statusMessage(true, "connected"))
	go c.readLoop(conn)
	return nil
}

// Messages returns the inbound message channel. It is never closed;
// consumers stop reading when they shut the client down.
func (c *Client) Messages() <-chan Message { return c.msgs }

// RequestOptions sends one option request. The caller enforces the
// single-outstanding-request rule; the client only ships frames.
func (c *Client) RequestOptions(promptState string, desiredCount int) error {
	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()
	if conn == nil {
		return fmt.Errorf("tokens: not connected")
	}
	req := optionRequest{
		Action:       actionRequestOptions,
		PromptState:  promptState,
		DesiredCount: desiredCount,
		Temperature:  c.temperature,
	}
	if err := conn.WriteJSON(req); err != nil {
		return fmt.Errorf("tokens: write request: %w", err)
	}
	return nil
}

// Close tears the connection down and stops any reconnect loop.
func (c *Client) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.done)
		c.mu.Lock()
		if c.conn != nil {
			err = c.conn.Close()
			c.conn = nil
		}
		c.mu.Unlock()
	})
	return err
}

func (c *Client) readLoop(conn *websocket.Conn) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			c.mu.Lock()
			c.conn = nil
			c.mu.Unlock()
			select {
			case <-c.done:
				return
			default:
			}
			c.log.Warnw("option channel closed", "error", err)
			c.deliver(statusMessage(false, err.Error()))
			if c.reconnect {
				c.redial()
			}
			return
		}
		msg, err := Decode(data)
		if err != nil {
			c.log.Warnw("dropping inbound frame", "error", err)
			continue
		}
		if msg.Kind == KindPong {
			continue
		}
		c.deliver(msg)
	}
}

// redial retries the dial on a fixed interval until it succeeds or the
// client is closed, then resumes reading.
func (c *Client) redial() {
	ticker := time.NewTicker(c.retryEvery)
	defer ticker.Stop()
	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
		}
		conn, _, err := c.dialer.Dial(c.url, nil)
		if err != nil {
			c.log.Debugw("redial failed", "error", err)
			continue
		}
		c.mu.Lock()
		c.conn = conn
		c.mu.Unlock()
		c.deliver(statusMessage(true, "reconnected"))
		go c.readLoop(conn)
		return
	}
}

// deliver queues a message, discarding the oldest one if the consumer
// has stalled long enough to fill the buffer.
func (c *Client) deliver(msg Message) {
	for {
		select {
		case c.msgs <- msg:
			return
		default:
			select {
			case <-c.msgs:
			default:
			}
		}
	}
}
