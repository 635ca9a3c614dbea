package server

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/lox/twentyfour/internal/batch"
	"github.com/lox/twentyfour/internal/deck"
	"github.com/lox/twentyfour/internal/game"
	"github.com/lox/twentyfour/solver"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 64 * 1024

	// Maximum number of lines accepted by a single grade request
	maxGradeLines = 1000
)

var ErrConnectionClosed = errors.New("connection closed")

// Connection is one WebSocket client playing its own game session.
type Connection struct {
	id        string
	conn      *websocket.Conn
	send      chan *Message
	session   *game.Session
	server    *Server
	logger    *log.Logger
	ctx       context.Context
	cancel    context.CancelFunc
	closeOnce sync.Once
}

func newConnection(s *Server, conn *websocket.Conn) (*Connection, error) {
	id := uuid.NewString()
	logger := s.logger.WithPrefix("conn").With("session", id)

	session, err := game.NewSession(s.dealer, s.store, append([]game.Option{
		game.WithClock(s.clock),
		game.WithLogger(logger),
	}, s.sessionOpts...)...)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(s.ctx)
	c := &Connection{
		id:      id,
		conn:    conn,
		send:    make(chan *Message, 64),
		session: session,
		server:  s,
		logger:  logger,
		ctx:     ctx,
		cancel:  cancel,
	}
	session.OnExpire(c.handleExpire)
	return c, nil
}

// ID returns the session id.
func (c *Connection) ID() string {
	return c.id
}

// Start begins handling the connection and announces the session.
func (c *Connection) Start() {
	go c.writePump()
	go c.readPump()
	c.reply("", MessageTypeState, c.state())
}

// Close stops the session. The write pump then says goodbye to the client
// and closes the socket.
func (c *Connection) Close() {
	c.closeOnce.Do(func() {
		c.cancel()
		c.session.Reset()
	})
}

// Done is closed once the connection is closed.
func (c *Connection) Done() <-chan struct{} {
	return c.ctx.Done()
}

// SendMessage queues msg for the client.
func (c *Connection) SendMessage(msg *Message) error {
	select {
	case <-c.ctx.Done():
		return ErrConnectionClosed
	default:
	}

	select {
	case c.send <- msg:
		return nil
	case <-c.ctx.Done():
		return ErrConnectionClosed
	default:
		c.logger.Warn("Connection send buffer full, closing connection")
		c.Close()
		return ErrConnectionClosed
	}
}

func (c *Connection) readPump() {
	defer c.Close()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		var msg Message
		if err := c.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				c.logger.Error("WebSocket error", "error", err)
			}
			return
		}

		c.handleMessage(&msg)
	}
}

func (c *Connection) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case message := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteJSON(message); err != nil {
				c.logger.Error("Failed to write message", "error", err)
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-c.ctx.Done():
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, ""))
			return
		}
	}
}

func (c *Connection) handleMessage(msg *Message) {
	c.logger.Debug("Received message", "type", msg.Type, "requestId", msg.RequestID)

	switch msg.Type {
	case MessageTypeDeal:
		c.handleDeal(msg.RequestID)

	case MessageTypeCheck:
		var data CheckData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			c.sendError(msg.RequestID, "invalid_message", "Failed to parse check data")
			return
		}
		c.handleCheck(msg.RequestID, data)

	case MessageTypeReveal:
		c.handleReveal(msg.RequestID)

	case MessageTypeReset:
		c.reply(msg.RequestID, MessageTypeState, StateDataFromGame(c.id, c.session.Reset()))

	case MessageTypeSolve:
		var data SolveData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			c.sendError(msg.RequestID, "invalid_message", "Failed to parse solve data")
			return
		}
		c.handleSolve(msg.RequestID, data)

	case MessageTypeGrade:
		var data GradeData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			c.sendError(msg.RequestID, "invalid_message", "Failed to parse grade data")
			return
		}
		c.handleGrade(msg.RequestID, data)

	default:
		c.sendError(msg.RequestID, "unknown_message_type", "Unknown message type: "+msg.Type.String())
	}
}

func (c *Connection) handleDeal(requestID string) {
	st, err := c.session.Start(c.ctx)
	if err != nil {
		c.logger.Error("Failed to deal", "error", err)
		c.sendError(requestID, "deal_failed", err.Error())
		return
	}
	c.server.metrics.deals.Inc()

	c.reply(requestID, MessageTypeHand, HandData{
		Cards: st.Hand.Tokens(),
		State: StateDataFromGame(c.id, st),
	})
}

func (c *Connection) handleCheck(requestID string, data CheckData) {
	res, err := c.session.Check(data.Answer)
	if err != nil {
		c.sendSessionError(requestID, err)
		return
	}
	c.server.metrics.checks.WithLabelValues(res.Verdict.String()).Inc()

	out := ResultData{
		Verdict:      res.Verdict.String(),
		Correct:      res.Correct(),
		Points:       res.Points,
		NewHighScore: res.NewHighScore,
		State:        StateDataFromGame(c.id, res.State),
	}
	if res.Err != nil {
		out.Error = res.Err.Error()
	}
	c.reply(requestID, MessageTypeResult, out)
}

func (c *Connection) handleReveal(requestID string) {
	solution, err := c.session.Reveal()
	if err != nil {
		c.sendSessionError(requestID, err)
		return
	}

	st := c.session.Snapshot()
	c.reply(requestID, MessageTypeSolution, SolutionData{
		Cards:    st.Hand.Tokens(),
		Found:    true,
		Solution: solution,
	})
}

func (c *Connection) handleSolve(requestID string, data SolveData) {
	h, err := deck.ParseHand(strings.Join(data.Cards, " "))
	if err != nil {
		c.server.metrics.solves.WithLabelValues(batch.Invalid.String()).Inc()
		c.sendError(requestID, "invalid_hand", err.Error())
		return
	}

	solution, ok, err := solver.Solve(h.Values(), h.Tokens())
	if err != nil {
		c.server.metrics.solves.WithLabelValues(batch.Invalid.String()).Inc()
		c.sendError(requestID, "invalid_hand", err.Error())
		return
	}

	outcome := batch.Unsolved
	if ok {
		outcome = batch.Solved
	}
	c.server.metrics.solves.WithLabelValues(outcome.String()).Inc()

	c.reply(requestID, MessageTypeSolution, SolutionData{
		Cards:    h.Tokens(),
		Found:    ok,
		Solution: solution,
	})
}

func (c *Connection) handleGrade(requestID string, data GradeData) {
	if len(data.Lines) > maxGradeLines {
		c.sendError(requestID, "too_many_lines", "At most 1000 lines can be graded at once")
		return
	}

	results, err := c.server.grader.GradeLines(c.ctx, data.Lines)
	if err != nil {
		c.sendError(requestID, "grade_failed", err.Error())
		return
	}
	for _, res := range results {
		c.server.metrics.solves.WithLabelValues(res.Status.String()).Inc()
	}

	c.reply(requestID, MessageTypeGraded, GradedDataFromBatch(results))
}

func (c *Connection) handleExpire(st game.State) {
	c.logger.Debug("Round expired", "round", st.Round)
	c.reply("", MessageTypeExpired, ExpiredData{
		Solution: st.Solution,
		State:    StateDataFromGame(c.id, st),
	})
}

func (c *Connection) state() StateData {
	return StateDataFromGame(c.id, c.session.Snapshot())
}

func (c *Connection) sendSessionError(requestID string, err error) {
	switch {
	case errors.Is(err, game.ErrNoHand):
		c.sendError(requestID, "no_hand", "Please deal cards first!")
	case errors.Is(err, game.ErrRoundOver):
		c.sendError(requestID, "round_over", err.Error())
	default:
		c.sendError(requestID, "internal_error", err.Error())
	}
}

func (c *Connection) reply(requestID string, messageType MessageType, data any) {
	msg, err := NewMessage(messageType, data)
	if err != nil {
		c.logger.Error("Failed to create message", "type", messageType, "error", err)
		return
	}
	msg.RequestID = requestID

	if err := c.SendMessage(msg); err != nil {
		c.logger.Debug("Dropped message", "type", messageType, "error", err)
	}
}

func (c *Connection) sendError(requestID, code, message string) {
	c.reply(requestID, MessageTypeError, ErrorData{
		Code:    code,
		Message: message,
	})
}
