package quotes

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/gorilla/websocket"

	"HydroFlow/internal/domain/models"
	drepo "HydroFlow/internal/domain/repository"
	"HydroFlow/pkg/logger"
)

// Client implements a MarketStream backed by a quote WebSocket.
// The channels returned by Read survive reconnects.
type Client struct {
	apiKey         string
	websocketURL   string
	symbols        []string
	reconnectDelay time.Duration
	maxReconnect   time.Duration
	pingInterval   time.Duration
	log            *logger.Logger

	mu          sync.Mutex
	conn        *websocket.Conn
	connected   bool
	reconnected chan struct{}
}

// New creates a new quote MarketStream.
func New(apiKey, websocketURL string, symbols []string, reconnectDelay, maxReconnect, pingInterval time.Duration, log *logger.Logger) drepo.MarketStream {
	if log == nil {
		log = logger.NewNop()
	}
	return &Client{
		apiKey:         apiKey,
		websocketURL:   websocketURL,
		symbols:        symbols,
		reconnectDelay: reconnectDelay,
		maxReconnect:   maxReconnect,
		pingInterval:   pingInterval,
		log:            log,
		reconnected:    make(chan struct{}, 1),
	}
}

// Connect establishes the WebSocket connection.
func (c *Client) Connect(ctx context.Context) error {
	u, err := url.Parse(c.websocketURL)
	if err != nil {
		return fmt.Errorf("parse feed url: %w", err)
	}
	if c.apiKey != "" {
		q := u.Query()
		q.Set("token", c.apiKey)
		u.RawQuery = q.Encode()
	}
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		return fmt.Errorf("quotes connect: %w", err)
	}
	c.mu.Lock()
	c.conn = conn
	c.connected = true
	c.mu.Unlock()
	c.log.Info("quote stream connected", logger.String("url", c.websocketURL))
	return nil
}

// Subscribe subscribes to configured symbols.
func (c *Client) Subscribe(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil || !c.connected {
		return fmt.Errorf("quotes not connected")
	}
	for _, s := range c.symbols {
		msg := map[string]string{"type": "subscribe", "symbol": s}
		if err := c.conn.WriteJSON(msg); err != nil {
			return fmt.Errorf("subscribe %s: %w", s, err)
		}
		c.log.Debug("subscribed", logger.String("symbol", s))
	}
	return nil
}

type wireQuote struct {
	S string  `json:"s"`
	B float64 `json:"b"`
	A float64 `json:"a"`
	T int64   `json:"t"` // ms
}

type wireMessage struct {
	Type string      `json:"type"`
	Data []wireQuote `json:"data"`
}

// decodeQuotes parses one frame. Frames other than quote batches yield nothing.
func decodeQuotes(b []byte) []*models.Tick {
	var m wireMessage
	if err := json.Unmarshal(b, &m); err != nil || m.Type != "quote" {
		return nil
	}
	out := make([]*models.Tick, 0, len(m.Data))
	for _, d := range m.Data {
		out = append(out, &models.Tick{Symbol: d.S, Time: time.UnixMilli(d.T).UTC(), Bid: d.B, Ask: d.A})
	}
	return out
}

// Read streams quotes and errors until ctx is done. After a read error it waits for Reconnect.
func (c *Client) Read(ctx context.Context) (<-chan *models.Tick, <-chan error) {
	ticks := make(chan *models.Tick, 1024)
	errs := make(chan error, 1)

	// ping loop
	go func() {
		ticker := time.NewTicker(c.pingInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				c.mu.Lock()
				if c.conn != nil {
					_ = c.conn.WriteMessage(websocket.PingMessage, nil)
				}
				c.mu.Unlock()
			}
		}
	}()

	// read loop
	go func() {
		defer close(ticks)
		defer close(errs)
		for {
			if ctx.Err() != nil {
				return
			}
			c.mu.Lock()
			conn := c.conn
			c.mu.Unlock()
			if conn == nil {
				if !c.awaitReconnect(ctx) {
					return
				}
				continue
			}
			_, b, err := conn.ReadMessage()
			if err != nil {
				select {
				case errs <- fmt.Errorf("quotes read: %w", err):
				case <-ctx.Done():
					return
				}
				if !c.awaitReconnect(ctx) {
					return
				}
				continue
			}
			for _, t := range decodeQuotes(b) {
				select {
				case ticks <- t:
				default:
					// drop on backpressure
				}
			}
		}
	}()

	return ticks, errs
}

func (c *Client) awaitReconnect(ctx context.Context) bool {
	select {
	case <-ctx.Done():
		return false
	case <-c.reconnected:
		return true
	}
}

// Reconnect closes the connection and dials again with exponential backoff.
func (c *Client) Reconnect(ctx context.Context) error {
	_ = c.Close()

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.reconnectDelay
	b.MaxElapsedTime = c.maxReconnect
	attempt := 0
	op := func() error {
		attempt++
		if err := c.Connect(ctx); err != nil {
			c.log.Warn("reconnect attempt failed", logger.Int("attempt", attempt), logger.Error(err))
			return err
		}
		return c.Subscribe(ctx)
	}
	if err := backoff.Retry(op, backoff.WithContext(b, ctx)); err != nil {
		return fmt.Errorf("quotes reconnect: %w", err)
	}
	select {
	case c.reconnected <- struct{}{}:
	default:
	}
	return nil
}

// Close closes the WS connection.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.connected = false
	if c.conn != nil {
		err := c.conn.Close()
		c.conn = nil
		return err
	}
	return nil
}

// IsConnected indicates status.
func (c *Client) IsConnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connected
}
