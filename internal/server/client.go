package server

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/npezzotti/go-interview/internal/types"
	"github.com/rs/zerolog"
)

const (
	writeWait    = 10 * time.Second
	pongWait     = 60 * time.Second
	pingInterval = (pongWait * 9) / 10
	// SDP offers routinely run to several kilobytes.
	maxMessageSize = 64 * 1024
	sendBufferSize = 256
)

// Client is one websocket connection. Fields below send are owned by the
// server event loop.
type Client struct {
	id       string
	conn     *websocket.Conn
	server   *SignalServer
	log      zerolog.Logger
	identity *types.User
	send     chan *ServerMessage
	stop     chan struct{}
	stopOnce sync.Once

	name       string
	documentId string
	chatId     string
}

func (c *Client) Write() {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close()
		c.log.Debug().Msg("write exiting")
	}()

	for {
		select {
		case msg, ok := <-c.send:
			if !ok {
				return
			}

			bytes, err := c.serializeMessage(msg)
			if err != nil {
				c.log.Error().Err(err).Str("event", msg.Event).Msg("failed to serialize message")
				continue
			}

			if !c.sendMessage(websocket.TextMessage, bytes) {
				return
			}
		case <-c.stop:
			c.sendMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, ""))
			return
		case <-ticker.C:
			if !c.sendMessage(websocket.PingMessage, nil) {
				return
			}
		}
	}
}

func (c *Client) Read() {
	defer func() {
		c.conn.Close()
		c.cleanup()
		c.log.Debug().Msg("read exiting")
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(appData string) error { c.conn.SetReadDeadline(time.Now().Add(pongWait)); return nil })
	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure,
				websocket.CloseNormalClosure) {
				c.log.Warn().Err(err).Msg("ws: read")
			}
			break
		}

		var msg ClientMessage
		if err := json.Unmarshal(raw, &msg); err != nil || msg.Event == "" {
			c.log.Debug().Err(err).Msg("dropping malformed frame")
			continue
		}

		msg.client = c
		if !c.server.post(&msg) {
			break
		}
	}
}

func (c *Client) queueMessage(msg *ServerMessage) bool {
	select {
	case c.send <- msg:
	default:
		c.log.Warn().Str("event", msg.Event).Msg("failed to send message to client, channel is full")
		return false
	}

	return true
}

func (c *Client) serializeMessage(msg *ServerMessage) ([]byte, error) {
	return json.Marshal(msg)
}

func (c *Client) sendMessage(msgType int, msg []byte) bool {
	c.conn.SetWriteDeadline(time.Now().Add(writeWait))

	if err := c.conn.WriteMessage(msgType, msg); err != nil {
		if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure,
			websocket.CloseNormalClosure) {
			c.log.Warn().Err(err).Msg("write message")
		}
		return false
	}

	return true
}

func (c *Client) stopClient() {
	c.stopOnce.Do(func() { close(c.stop) })
}

func (c *Client) cleanup() {
	c.server.deregister(c)
	c.stopClient()
}

// displayName resolves the name stamped on relayed messages: the verified
// identity, then the name the client asserted, then the last one it used.
func (c *Client) displayName(asserted string) string {
	if c.identity != nil && c.identity.Username != "" {
		return c.identity.Username
	}
	if asserted != "" {
		c.name = asserted
	}
	return c.name
}
