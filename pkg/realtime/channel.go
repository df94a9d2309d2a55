// Package realtime manages the reader's single bidirectional message channel,
// multiplexed across independent logical subscribers (text QnA, voice QnA,
// background job completion). One connection is shared by all conversation
// sessions; frames are correlated to their session by a client-chosen
// conversation id.
package realtime

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"
)

// State is the channel connection state.
type State int32

const (
	Disconnected State = iota
	Connecting
	Connected
	Closing
)

func (s State) String() string {
	switch s {
	case Connecting:
		return "connecting"
	case Connected:
		return "connected"
	case Closing:
		return "closing"
	default:
		return "disconnected"
	}
}

const (
	maxRetries          = 3
	backoffBase         = time.Second
	backoffCap          = 10 * time.Second
	defaultPollInterval = 25 * time.Millisecond
)

// Frame is one wire message. Body stays raw until a subscriber decodes it.
type Frame struct {
	ConnectionID   string          `json:"connectionId,omitempty"`
	Service        string          `json:"service"`
	Event          string          `json:"event"`
	Body           json.RawMessage `json:"body,omitempty"`
	ConversationID string          `json:"conversation_id,omitempty"`
	Timestamp      string          `json:"timestamp,omitempty"`
}

// BodyString decodes the body as a JSON string, falling back to the raw
// bytes for producers that send bare text.
func (f Frame) BodyString() string {
	var s string
	if err := json.Unmarshal(f.Body, &s); err == nil {
		return s
	}
	return string(f.Body)
}

// Handler consumes frames for a subscribed service; it receives the full
// frame so it can filter on event and conversation id itself.
type Handler func(Frame)

// Conn is the minimal websocket surface the channel needs; satisfied by
// gorilla's *websocket.Conn via the default dialer.
type Conn interface {
	ReadMessage() (messageType int, p []byte, err error)
	WriteMessage(messageType int, data []byte) error
	Close() error
}

// Dialer opens a connection to the realtime endpoint.
type Dialer interface {
	Dial(ctx context.Context, url string) (Conn, error)
}

// TokenProvider supplies the auth token appended to the connection URL.
// An empty token aborts the connection attempt silently.
type TokenProvider func(ctx context.Context) (string, error)

type subscription struct {
	id      uint64
	service string
	fn      Handler
}

// Channel owns one connection and its retry/backoff lifecycle.
type Channel struct {
	url    string
	token  TokenProvider
	dialer Dialer
	logger *log.Logger

	pollInterval time.Duration

	mu      sync.Mutex
	state   State
	conn    Conn
	retries int
	closing bool
	nextSub uint64
	subs    []subscription
}

// ChannelOption configures a Channel.
type ChannelOption func(*Channel)

// WithDialer overrides the websocket dialer.
func WithDialer(d Dialer) ChannelOption {
	return func(c *Channel) { c.dialer = d }
}

// WithLogger overrides the destination for channel diagnostics.
func WithLogger(l *log.Logger) ChannelOption {
	return func(c *Channel) { c.logger = l }
}

// WithPollInterval overrides the WaitConnected polling interval.
func WithPollInterval(d time.Duration) ChannelOption {
	return func(c *Channel) { c.pollInterval = d }
}

// NewChannel creates a channel for the given endpoint URL.
func NewChannel(url string, token TokenProvider, opts ...ChannelOption) *Channel {
	c := &Channel{
		url:          url,
		token:        token,
		dialer:       defaultDialer{},
		logger:       log.Default(),
		pollInterval: defaultPollInterval,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// State returns the current connection state.
func (c *Channel) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Connect starts a connection attempt in the background. Repeated calls
// while connecting or connected are no-ops.
func (c *Channel) Connect(ctx context.Context) {
	go c.connect(ctx)
}

func (c *Channel) connect(ctx context.Context) {
	c.mu.Lock()
	if c.state != Disconnected || c.closing {
		c.mu.Unlock()
		return
	}
	c.state = Connecting
	c.mu.Unlock()

	token, err := c.token(ctx)
	if err != nil || token == "" {
		// No credentials: abort without retrying; the host reconnects
		// after sign-in.
		if err != nil {
			c.logger.Printf("realtime: token unavailable: %v", err)
		}
		c.setDisconnected()
		return
	}

	conn, err := c.dialer.Dial(ctx, c.url+"?token="+token)
	if err != nil {
		c.logger.Printf("realtime: dial failed: %v", err)
		c.setDisconnected()
		c.scheduleRetry()
		return
	}

	c.mu.Lock()
	if c.closing {
		c.mu.Unlock()
		conn.Close()
		return
	}
	c.state = Connected
	c.conn = conn
	c.retries = 0
	c.mu.Unlock()

	go c.readLoop(conn)
}

func (c *Channel) setDisconnected() {
	c.mu.Lock()
	c.state = Disconnected
	c.conn = nil
	c.mu.Unlock()
}

func (c *Channel) readLoop(conn Conn) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			c.handleClose(err)
			return
		}

		var frame Frame
		if err := json.Unmarshal(data, &frame); err != nil {
			c.logger.Printf("realtime: bad frame: %v", err)
			continue
		}
		c.dispatch(frame)
	}
}

func (c *Channel) dispatch(frame Frame) {
	c.mu.Lock()
	handlers := make([]Handler, 0, len(c.subs))
	for _, sub := range c.subs {
		if sub.service == frame.Service {
			handlers = append(handlers, sub.fn)
		}
	}
	c.mu.Unlock()

	for _, fn := range handlers {
		fn(frame)
	}
}

func (c *Channel) handleClose(err error) {
	c.mu.Lock()
	wasClosing := c.closing
	c.state = Disconnected
	c.conn = nil
	c.mu.Unlock()

	if wasClosing {
		return
	}
	c.logger.Printf("realtime: connection closed: %v", err)
	c.scheduleRetry()
}

func (c *Channel) scheduleRetry() {
	c.mu.Lock()
	if c.closing || c.retries >= maxRetries {
		c.mu.Unlock()
		return
	}
	delay := backoffDelay(c.retries)
	c.retries++
	attempt := c.retries
	c.mu.Unlock()

	c.logger.Printf("realtime: reconnect attempt %d in %s", attempt, delay)
	time.AfterFunc(delay, func() { c.connect(context.Background()) })
}

func backoffDelay(attempt int) time.Duration {
	d := backoffBase << attempt
	if d > backoffCap {
		d = backoffCap
	}
	return d
}

// Send writes a frame to the connection. Frames are dropped, not queued,
// when the channel is not connected; callers that need delivery await
// WaitConnected first.
func (c *Channel) Send(frame Frame) {
	c.mu.Lock()
	conn := c.conn
	connected := c.state == Connected
	c.mu.Unlock()

	if !connected || conn == nil {
		return
	}

	data, err := json.Marshal(frame)
	if err != nil {
		c.logger.Printf("realtime: marshal frame: %v", err)
		return
	}
	if err := conn.WriteMessage(textMessage, data); err != nil {
		c.logger.Printf("realtime: send failed: %v", err)
	}
}

// Subscribe registers a handler for a service. Multiple handlers per
// service are allowed; the returned function removes only this
// registration.
func (c *Channel) Subscribe(service string, fn Handler) func() {
	c.mu.Lock()
	c.nextSub++
	id := c.nextSub
	c.subs = append(c.subs, subscription{id: id, service: service, fn: fn})
	c.mu.Unlock()

	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		for i, sub := range c.subs {
			if sub.id == id {
				c.subs = append(c.subs[:i], c.subs[i+1:]...)
				return
			}
		}
	}
}

// WaitConnected resolves immediately when connected, otherwise polls the
// connection state until it is. The wait is bounded by the caller's
// context; a permanently-down channel fails the caller instead of hanging
// forever. Concurrent waiters all resolve from the same underlying attempt.
func (c *Channel) WaitConnected(ctx context.Context) error {
	if c.State() == Connected {
		return nil
	}

	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if c.State() == Connected {
				return nil
			}
		}
	}
}

// Close shuts the channel down cleanly; no reconnect is scheduled.
func (c *Channel) Close() {
	c.mu.Lock()
	c.closing = true
	c.state = Closing
	conn := c.conn
	c.conn = nil
	c.mu.Unlock()

	if conn != nil {
		conn.Close()
	}

	c.mu.Lock()
	c.state = Disconnected
	c.mu.Unlock()
}
