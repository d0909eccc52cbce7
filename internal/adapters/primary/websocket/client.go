package websocket

import (
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/gorilla/websocket"
	"github.com/lorrc/conversation-service/internal/core/domain"
	apperrors "github.com/lorrc/conversation-service/internal/core/errors"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Maximum message size allowed from peer.
	maxMessageSize = 1024
)

// ClientConfig holds keep-alive timings for a connection.
type ClientConfig struct {
	// Time allowed to read the next pong message from the peer.
	PongWait time.Duration
	// Send pings to peer with this period. Must be less than PongWait.
	PingInterval time.Duration
}

func (c ClientConfig) withDefaults() ClientConfig {
	if c.PongWait <= 0 {
		c.PongWait = 60 * time.Second
	}
	if c.PingInterval <= 0 || c.PingInterval >= c.PongWait {
		c.PingInterval = (c.PongWait * 9) / 10
	}
	return c
}

// Client is a middleman between the websocket connection and a hub session.
type Client struct {
	conn    *websocket.Conn
	session *Session
	cfg     ClientConfig

	// replies carries PONG and ERROR frames produced by the read side.
	replies chan domain.Signal

	logger *slog.Logger
}

// NewClient opens a hub session for the actor and binds it to the connection.
func NewClient(hub *Hub, conn *websocket.Conn, actor domain.Participant, cfg ClientConfig, logger *slog.Logger) *Client {
	return &Client{
		conn:    conn,
		session: hub.open(actor),
		cfg:     cfg.withDefaults(),
		replies: make(chan domain.Signal, 8),
		logger: logger.With(
			"component", "websocket_client",
			"actor_kind", string(actor.Kind),
			"actor_id", actor.ID.String(),
		),
	}
}

// Start runs the I/O pumps in their own goroutines.
func (c *Client) Start() {
	go c.WritePump()
	go c.ReadPump()
}

// ReadPump pumps commands from the websocket connection to the session.
func (c *Client) ReadPump() {
	defer func() {
		c.session.Close()
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	if err := c.conn.SetReadDeadline(time.Now().Add(c.cfg.PongWait)); err != nil {
		c.logger.Error("failed to set read deadline", "error", err)
		return
	}

	c.conn.SetPongHandler(func(string) error {
		if err := c.conn.SetReadDeadline(time.Now().Add(c.cfg.PongWait)); err != nil {
			c.logger.Error("failed to set read deadline in pong handler", "error", err)
		}
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure, websocket.CloseNormalClosure) {
				c.logger.Warn("websocket read error", "error", err)
			}
			return
		}

		c.handleIncomingMessage(message)
	}
}

// WritePump pumps signals from the session to the websocket connection. It
// exits when the session is torn down, which closes the connection and makes
// the client reconnect.
func (c *Client) WritePump() {
	ticker := time.NewTicker(c.cfg.PingInterval)
	defer func() {
		ticker.Stop()
		c.session.Close()
		_ = c.conn.Close()
	}()

	signals := c.session.Signals()
	for {
		select {
		case signal, ok := <-signals:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				c.logger.Error("failed to set write deadline", "error", err)
				return
			}

			if !ok {
				if err := c.conn.WriteMessage(websocket.CloseMessage, []byte{}); err != nil {
					c.logger.Debug("failed to send close message", "error", err)
				}
				return
			}

			if err := c.writeJSON(signal); err != nil {
				c.logger.Error("failed to write signal", "error", err)
				return
			}

		case reply := <-c.replies:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				c.logger.Error("failed to set write deadline", "error", err)
				return
			}
			if err := c.writeJSON(reply); err != nil {
				c.logger.Error("failed to write reply", "error", err)
				return
			}

		case <-ticker.C:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				c.logger.Error("failed to set write deadline for ping", "error", err)
				return
			}

			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.logger.Debug("failed to send ping", "error", err)
				return
			}
		}
	}
}

func (c *Client) writeJSON(signal domain.Signal) error {
	w, err := c.conn.NextWriter(websocket.TextMessage)
	if err != nil {
		return err
	}

	if err := json.NewEncoder(w).Encode(signal); err != nil {
		_ = w.Close()
		return err
	}

	return w.Close()
}

// --- Incoming Message Handling ---

// Client command types
const (
	CommandSubscribe   = "SUBSCRIBE"
	CommandUnsubscribe = "UNSUBSCRIBE"
	CommandPing        = "PING"
)

// ClientMessage is the structure for messages sent from the client.
type ClientMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// SubscribePayload is the payload for subscribe/unsubscribe messages.
// Topic uses the "kind:scope" form, e.g. "support:<user id>" or "vendor_list".
type SubscribePayload struct {
	Topic string `json:"topic"`
}

func (c *Client) handleIncomingMessage(message []byte) {
	var msg ClientMessage
	if err := json.Unmarshal(message, &msg); err != nil {
		c.logger.Warn("failed to unmarshal client message", "error", err)
		c.reply(domain.Signal{Type: domain.SignalError, Error: "malformed message"})
		return
	}

	switch msg.Type {
	case CommandSubscribe:
		c.handleSubscribe(msg.Payload)

	case CommandUnsubscribe:
		c.handleUnsubscribe(msg.Payload)

	case CommandPing:
		c.reply(domain.Signal{Type: domain.SignalPong})

	default:
		c.logger.Debug("received unknown message type", "type", msg.Type)
	}
}

func (c *Client) parseTopic(payload json.RawMessage) (domain.Topic, bool) {
	var p SubscribePayload
	if err := json.Unmarshal(payload, &p); err != nil {
		c.logger.Warn("failed to unmarshal subscribe payload", "error", err)
		c.reply(domain.Signal{Type: domain.SignalError, Error: "malformed payload"})
		return domain.Topic{}, false
	}

	topic, err := domain.ParseTopic(p.Topic)
	if err != nil {
		c.reply(domain.Signal{Type: domain.SignalError, Topic: p.Topic, Error: "unknown topic"})
		return domain.Topic{}, false
	}
	return topic, true
}

func (c *Client) handleSubscribe(payload json.RawMessage) {
	topic, ok := c.parseTopic(payload)
	if !ok {
		return
	}

	if err := c.session.Subscribe(topic); err != nil {
		reason := "subscription failed"
		if errors.Is(err, apperrors.ErrForbidden) {
			reason = "forbidden"
		}
		c.reply(domain.Signal{Type: domain.SignalError, Topic: topic.String(), Error: reason})
	}
}

func (c *Client) handleUnsubscribe(payload json.RawMessage) {
	topic, ok := c.parseTopic(payload)
	if !ok {
		return
	}
	c.session.Unsubscribe(topic)
}

func (c *Client) reply(signal domain.Signal) {
	if signal.At.IsZero() {
		signal.At = time.Now().UTC()
	}
	select {
	case c.replies <- signal:
	default:
		// Channel full, skip the reply
	}
}
