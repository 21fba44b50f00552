package websocket

import (
	"encoding/json"
	"errors"
	"sync"

	"auction-stream/pkg/logger"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// sendBufferSize bounds the per-connection outbound queue. A viewer
// that falls this far behind is treated as dead rather than stalling
// the broadcast.
const sendBufferSize = 256

var (
	errConnClosed     = errors.New("connection closed")
	errSendBufferFull = errors.New("send buffer full")
)

// Connection wraps a gorilla websocket with a stable ID and a bounded
// outbound queue drained by a write pump, so sends never block behind a
// slow receiver.
type Connection struct {
	id   string
	conn *websocket.Conn
	send chan []byte
	done chan struct{}
	once sync.Once
	log  logger.Logger
}

func NewConnection(conn *websocket.Conn, log logger.Logger) *Connection {
	c := &Connection{
		id:   uuid.New().String(),
		conn: conn,
		send: make(chan []byte, sendBufferSize),
		done: make(chan struct{}),
		log:  log,
	}
	go c.writePump()
	return c
}

func (c *Connection) ID() string {
	return c.id
}

// Send enqueues event without blocking. A full buffer or a closed
// connection is reported as an error so the caller treats the
// connection as dead.
func (c *Connection) Send(event interface{}) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}

	select {
	case <-c.done:
		return errConnClosed
	default:
	}

	select {
	case c.send <- payload:
		return nil
	default:
		return errSendBufferFull
	}
}

// ReadMessage blocks until the next inbound payload or a transport
// error.
func (c *Connection) ReadMessage() ([]byte, error) {
	_, data, err := c.conn.ReadMessage()
	return data, err
}

func (c *Connection) Close() error {
	c.once.Do(func() {
		close(c.done)
	})
	return c.conn.Close()
}

func (c *Connection) writePump() {
	for {
		select {
		case <-c.done:
			return
		case payload := <-c.send:
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				c.log.Debug("Write failed, closing connection", "conn_id", c.id, "error", err)
				c.Close()
				return
			}
		}
	}
}
