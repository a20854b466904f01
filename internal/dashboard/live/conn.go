package live

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	writeWait  = 5 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
	sendBuffer = 4
	readLimit  = 1 << 10
)

// Conn is one websocket subscriber. Writes happen only on the write pump so
// the socket never sees concurrent writers.
type Conn struct {
	id      uuid.UUID
	conn    *websocket.Conn
	send    chan []byte
	doneCtx context.Context
	cancel  context.CancelFunc
	once    sync.Once
}

func newConn(ctx context.Context, ws *websocket.Conn) *Conn {
	ctx, cancel := context.WithCancel(ctx)
	return &Conn{
		id:      uuid.New(),
		conn:    ws,
		send:    make(chan []byte, sendBuffer),
		doneCtx: ctx,
		cancel:  cancel,
	}
}

// ID returns the connection id.
func (c *Conn) ID() uuid.UUID {
	return c.id
}

// enqueue never blocks. When the buffer is full the oldest pending message
// is dropped since only the newest snapshot matters.
func (c *Conn) enqueue(msg []byte) {
	select {
	case <-c.doneCtx.Done():
		return
	default:
	}
	for {
		select {
		case c.send <- msg:
			return
		default:
		}
		select {
		case <-c.send:
		default:
		}
	}
}

func (c *Conn) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-c.doneCtx.Done():
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, ""))
			return
		case msg := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				c.cancel()
				return
			}
		case <-ticker.C:
			if err := c.conn.WriteControl(websocket.PingMessage, []byte("ping"), time.Now().Add(writeWait)); err != nil {
				c.cancel()
				return
			}
		}
	}
}

// readPump consumes control frames until the peer goes away. Client
// messages carry no meaning and are discarded.
func (c *Conn) readPump() error {
	c.conn.SetReadLimit(readLimit)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return err
		}
	}
}

// Close stops the pumps and closes the socket. Safe to call more than once.
func (c *Conn) Close() error {
	var err error
	c.once.Do(func() {
		c.cancel()
		err = c.conn.Close()
	})
	return err
}
