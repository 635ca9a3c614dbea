// Package client talks to a twentyfour server over WebSocket. Each call sends
// one request and waits for the reply carrying the same request id.
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"

	"github.com/lox/twentyfour/internal/server"
)

const (
	writeWait  = 10 * time.Second
	pingPeriod = 54 * time.Second
)

// ErrClosed is returned for requests made on, or interrupted by, a closed
// connection.
var ErrClosed = errors.New("client: connection closed")

// ServerError is an error message sent by the server.
type ServerError struct {
	Code    string
	Message string
}

func (e *ServerError) Error() string {
	return e.Code + ": " + e.Message
}

// Client is a connection to a twentyfour server, bound to one game session.
// It is safe for concurrent use.
type Client struct {
	conn   *websocket.Conn
	send   chan *server.Message
	logger *log.Logger

	ctx       context.Context
	cancel    context.CancelFunc
	closeOnce sync.Once

	nextID  atomic.Uint64
	mu      sync.Mutex
	pending map[string]chan *server.Message

	hello   chan server.StateData
	expired chan server.ExpiredData
	session server.StateData
}

// Option configures a Client.
type Option func(*Client)

// WithLogger sets the client logger.
func WithLogger(logger *log.Logger) Option {
	return func(c *Client) {
		c.logger = logger.WithPrefix("client")
	}
}

// WebSocketURL normalises a server address: http(s) schemes become ws(s)
// and an empty path becomes /ws.
func WebSocketURL(serverURL string) (string, error) {
	u, err := url.Parse(serverURL)
	if err != nil {
		return "", fmt.Errorf("invalid server URL: %w", err)
	}

	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	case "ws", "wss":
	default:
		return "", fmt.Errorf("invalid server URL %q: unsupported scheme %q", serverURL, u.Scheme)
	}
	if u.Path == "" || u.Path == "/" {
		u.Path = "/ws"
	}
	return u.String(), nil
}

// Dial connects to the server and waits for it to announce the session.
func Dial(ctx context.Context, serverURL string, opts ...Option) (*Client, error) {
	wsURL, err := WebSocketURL(serverURL)
	if err != nil {
		return nil, err
	}

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to connect: %w", err)
	}

	cctx, cancel := context.WithCancel(context.Background())
	c := &Client{
		conn:    conn,
		send:    make(chan *server.Message, 16),
		logger:  log.NewWithOptions(io.Discard, log.Options{}),
		ctx:     cctx,
		cancel:  cancel,
		pending: make(map[string]chan *server.Message),
		hello:   make(chan server.StateData, 1),
		expired: make(chan server.ExpiredData, 8),
	}
	for _, opt := range opts {
		opt(c)
	}

	go c.readPump()
	go c.writePump()

	select {
	case st := <-c.hello:
		c.session = st
		c.logger.Debug("Connected", "url", wsURL, "session", st.SessionID)
		return c, nil
	case <-ctx.Done():
		c.Close()
		return nil, ctx.Err()
	case <-c.ctx.Done():
		return nil, ErrClosed
	}
}

// SessionID returns the id the server assigned to this connection.
func (c *Client) SessionID() string {
	return c.session.SessionID
}

// Expired delivers a notification whenever a dealt round runs out of time.
func (c *Client) Expired() <-chan server.ExpiredData {
	return c.expired
}

// Close closes the connection. Pending requests fail with ErrClosed.
func (c *Client) Close() {
	c.closeOnce.Do(func() {
		c.cancel()
	})
}

// Deal starts a new round.
func (c *Client) Deal(ctx context.Context) (server.HandData, error) {
	var out server.HandData
	err := c.request(ctx, server.MessageTypeDeal, nil, &out)
	return out, err
}

// Check submits an answer for the current round.
func (c *Client) Check(ctx context.Context, answer string) (server.ResultData, error) {
	var out server.ResultData
	err := c.request(ctx, server.MessageTypeCheck, server.CheckData{Answer: answer}, &out)
	return out, err
}

// Reveal gives up on the current round.
func (c *Client) Reveal(ctx context.Context) (server.SolutionData, error) {
	var out server.SolutionData
	err := c.request(ctx, server.MessageTypeReveal, nil, &out)
	return out, err
}

// Reset clears the session score.
func (c *Client) Reset(ctx context.Context) (server.StateData, error) {
	var out server.StateData
	err := c.request(ctx, server.MessageTypeReset, nil, &out)
	return out, err
}

// Solve asks the server to solve a hand given as card tokens.
func (c *Client) Solve(ctx context.Context, cards []string) (server.SolutionData, error) {
	var out server.SolutionData
	err := c.request(ctx, server.MessageTypeSolve, server.SolveData{Cards: cards}, &out)
	return out, err
}

// Grade asks the server to grade lines as the batch command would.
func (c *Client) Grade(ctx context.Context, lines []string) (server.GradedData, error) {
	var out server.GradedData
	err := c.request(ctx, server.MessageTypeGrade, server.GradeData{Lines: lines}, &out)
	return out, err
}

func (c *Client) request(ctx context.Context, messageType server.MessageType, data, out any) error {
	if c.ctx.Err() != nil {
		return ErrClosed
	}

	msg, err := server.NewMessage(messageType, data)
	if err != nil {
		return err
	}
	msg.RequestID = strconv.FormatUint(c.nextID.Add(1), 10)

	reply := make(chan *server.Message, 1)
	c.mu.Lock()
	c.pending[msg.RequestID] = reply
	c.mu.Unlock()
	defer func() {
		c.mu.Lock()
		delete(c.pending, msg.RequestID)
		c.mu.Unlock()
	}()

	select {
	case c.send <- msg:
	case <-ctx.Done():
		return ctx.Err()
	case <-c.ctx.Done():
		return ErrClosed
	}

	var resp *server.Message
	select {
	case resp = <-reply:
	case <-ctx.Done():
		return ctx.Err()
	case <-c.ctx.Done():
		return ErrClosed
	}

	if resp.Type == server.MessageTypeError {
		var e server.ErrorData
		if err := json.Unmarshal(resp.Data, &e); err != nil {
			return fmt.Errorf("decode error reply: %w", err)
		}
		return &ServerError{Code: e.Code, Message: e.Message}
	}
	if err := json.Unmarshal(resp.Data, out); err != nil {
		return fmt.Errorf("decode %s reply: %w", resp.Type, err)
	}
	return nil
}

func (c *Client) readPump() {
	defer c.Close()

	for {
		var msg server.Message
		if err := c.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				c.logger.Error("WebSocket error", "error", err)
			}
			return
		}
		c.logger.Debug("Received message", "type", msg.Type, "requestId", msg.RequestID)

		if msg.RequestID != "" {
			c.mu.Lock()
			reply, ok := c.pending[msg.RequestID]
			c.mu.Unlock()
			if ok {
				reply <- &msg
			}
			continue
		}

		switch msg.Type {
		case server.MessageTypeState:
			var st server.StateData
			if err := json.Unmarshal(msg.Data, &st); err == nil {
				select {
				case c.hello <- st:
				default:
				}
			}
		case server.MessageTypeExpired:
			var data server.ExpiredData
			if err := json.Unmarshal(msg.Data, &data); err != nil {
				c.logger.Warn("Failed to decode expiry", "error", err)
				continue
			}
			select {
			case c.expired <- data:
			default:
				c.logger.Warn("Dropping expiry notification, nobody is listening")
			}
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case msg := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteJSON(msg); err != nil {
				c.logger.Error("Failed to write message", "error", err)
				c.Close()
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.Close()
				return
			}

		case <-c.ctx.Done():
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}
