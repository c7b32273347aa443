package ws

import (
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	// Time allowed to write a message
	writeWait = 10 * time.Second

	// Time allowed to read next pong message
	pongWait = 60 * time.Second

	// Send pings with this period (must be less than pongWait)
	pingPeriod = (pongWait * 9) / 10

	// Max message size
	maxMessageSize = 512 * 1024 // 512 KB

	sendBufferSize = 256
)

// conn is one socket generation. The Client replaces it wholesale on every
// reconnect; a conn is never reopened.
type conn struct {
	ws     *websocket.Conn
	userId string
	send   chan []byte
	done   chan struct{}
	once   sync.Once

	// err is the read error that ended the connection. Written by readPump
	// before it hands the conn to the run loop.
	err error
}

func newConn(c *websocket.Conn, userId string) *conn {
	return &conn{
		ws:     c,
		userId: userId,
		send:   make(chan []byte, sendBufferSize),
		done:   make(chan struct{}),
	}
}

// enqueue hands a frame to writePump. It never blocks: a closed conn or a
// full buffer reports false.
func (cn *conn) enqueue(frame []byte) bool {
	select {
	case <-cn.done:
		return false
	default:
	}

	select {
	case cn.send <- frame:
		return true
	case <-cn.done:
		return false
	default:
		slog.Warn("[CONN] Send buffer full, dropping frame", "user", cn.userId)
		return false
	}
}

func (cn *conn) close() {
	cn.once.Do(func() { close(cn.done) })
}

// readPump pumps frames from the socket to dispatch until the socket fails,
// then reports the conn as lost.
func (cn *conn) readPump(dispatch func([]byte), lost func(*conn)) {
	defer func() {
		cn.close()
		lost(cn)
	}()

	cn.ws.SetReadLimit(maxMessageSize)
	cn.ws.SetReadDeadline(time.Now().Add(pongWait))
	cn.ws.SetPongHandler(func(string) error {
		cn.ws.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := cn.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				slog.Warn("[CONN] Unexpected close", "user", cn.userId, "error", err)
			}
			cn.err = err
			return
		}

		dispatch(message)
	}
}

// writePump pumps queued frames to the socket and keeps it alive with pings.
// It owns all writes to ws.
func (cn *conn) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		cn.ws.Close()
	}()

	for {
		select {
		case message := <-cn.send:
			cn.ws.SetWriteDeadline(time.Now().Add(writeWait))

			w, err := cn.ws.NextWriter(websocket.TextMessage)
			if err != nil {
				slog.Error("[CONN] Failed to get writer", "user", cn.userId, "error", err)
				return
			}
			w.Write(message)

			if err := w.Close(); err != nil {
				slog.Error("[CONN] Failed to close writer", "user", cn.userId, "error", err)
				return
			}

		case <-ticker.C:
			cn.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := cn.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				slog.Error("[CONN] Failed to send ping", "user", cn.userId, "error", err)
				return
			}

		case <-cn.done:
			cn.ws.SetWriteDeadline(time.Now().Add(writeWait))
			cn.ws.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}
