package app

import (
	"encoding/json"
	"errors"
	"sync"
	"time"

	"realtime_chat_service/internal/chat/domain"
	"realtime_chat_service/pkg/logger"

	"github.com/gofiber/websocket/v2"
	"go.uber.org/zap"
)

const (
	writeWait         = 10 * time.Second
	outboundQueueSize = 256
)

var (
	errClientClosed  = errors.New("websocket client closed")
	errSendQueueFull = errors.New("websocket send queue full")
)

// wsConn write side of *websocket.Conn
type wsConn interface {
	WriteMessage(messageType int, data []byte) error
	WriteControl(messageType int, data []byte, deadline time.Time) error
	SetWriteDeadline(t time.Time) error
	Close() error
}

// wsClient identity captured at handshake.
// All socket writes happen on writeLoop; SendEvent only enqueues.
type wsClient struct {
	conn      wsConn
	userID    string
	sessionID string

	mu     sync.Mutex
	closed bool
	out    chan []byte
	done   chan struct{}
}

func newWSClient(conn wsConn, userID, sessionID string, pingEvery time.Duration) *wsClient {
	c := &wsClient{
		conn:      conn,
		userID:    userID,
		sessionID: sessionID,
		out:       make(chan []byte, outboundQueueSize),
		done:      make(chan struct{}),
	}
	go c.writeLoop(pingEvery)
	return c
}

func (c *wsClient) UserID() string    { return c.userID }
func (c *wsClient) SessionID() string { return c.sessionID }

// SendEvent never blocks; a client that cannot keep up is disconnected
func (c *wsClient) SendEvent(event string, data interface{}) error {
	b, err := json.Marshal(domain.WSResponse{Event: event, Data: data})
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return errClientClosed
	}
	select {
	case c.out <- b:
		return nil
	default:
		logger.Log.Warn("websocket send queue full, disconnecting", zap.String("userID", c.userID))
		c.shutdownLocked()
		_ = c.conn.Close()
		return errSendQueueFull
	}
}

func (c *wsClient) shutdownLocked() {
	if !c.closed {
		c.closed = true
		close(c.out)
	}
}

// close stop accepting events and wait for the writer, after it returns the conn is never touched again
func (c *wsClient) close() {
	c.mu.Lock()
	c.shutdownLocked()
	c.mu.Unlock()
	<-c.done
}

func (c *wsClient) writeLoop(pingEvery time.Duration) {
	defer close(c.done)
	ticker := time.NewTicker(pingEvery)
	defer ticker.Stop()

	for {
		select {
		case b, ok := <-c.out:
			if !ok {
				return
			}
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, b); err != nil {
				logger.Log.Warn("write message error", zap.String("userID", c.userID), zap.Error(err))
				c.abort()
				return
			}
		case <-ticker.C:
			if err := c.conn.WriteControl(websocket.PingMessage, []byte("ping"), time.Now().Add(writeWait)); err != nil {
				logger.Log.Warn("ping failed", zap.String("userID", c.userID), zap.Error(err))
				c.abort()
				return
			}
		}
	}
}

// abort broken socket, unblocks the read loop
func (c *wsClient) abort() {
	c.mu.Lock()
	c.shutdownLocked()
	c.mu.Unlock()
	_ = c.conn.Close()
}
