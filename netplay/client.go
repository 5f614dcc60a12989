package netplay

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var ErrClosed = errors.New("netplay: client closed")

// Client is one player's connection to a Server.
type Client struct {
	id   uuid.UUID
	conn *websocket.Conn
	log  *zap.Logger

	writeMu sync.Mutex

	messages  chan Message
	closing   chan struct{}
	done      chan struct{}
	closeOnce sync.Once
	closeErr  error
}

// Dial connects to the server at url and joins as id.
func Dial(ctx context.Context, url string, id uuid.UUID, log *zap.Logger) (*Client, error) {
	if log == nil {
		log = zap.NewNop()
	}
	dialer := websocket.Dialer{
		HandshakeTimeout: 10 * time.Second,
		ReadBufferSize:   4096,
		WriteBufferSize:  4096,
	}
	conn, _, err := dialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", url, err)
	}
	conn.SetReadLimit(maxMessageSize)

	c := &Client{
		id:       id,
		conn:     conn,
		log:      log.With(zap.Stringer("client", id)),
		messages: make(chan Message, 256),
		closing:  make(chan struct{}),
		done:     make(chan struct{}),
	}
	if err := c.Send(Join{ClientID: id}); err != nil {
		conn.Close()
		return nil, err
	}
	go c.receive()
	return c, nil
}

func (c *Client) ID() uuid.UUID {
	return c.id
}

// Messages delivers what the server relays, in order. It is closed when
// the connection ends.
func (c *Client) Messages() <-chan Message {
	return c.messages
}

// Send writes one message. It is safe for concurrent use.
func (c *Client) Send(m Message) error {
	data, err := Encode(m)
	if err != nil {
		return err
	}
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	select {
	case <-c.closing:
		return ErrClosed
	default:
	}
	c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		return fmt.Errorf("send %s: %w", m.Kind(), err)
	}
	return nil
}

func (c *Client) receive() {
	defer close(c.done)
	defer close(c.messages)
	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			select {
			case <-c.closing:
			default:
				if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					c.log.Warn("connection lost", zap.Error(err))
				}
			}
			return
		}
		m, err := Decode(data)
		if err != nil {
			c.log.Debug("dropping message", zap.Error(err))
			continue
		}
		select {
		case c.messages <- m:
		case <-c.closing:
			return
		}
	}
}

// Close says goodbye, closes the connection and waits for the receiver to
// stop.
func (c *Client) Close() error {
	c.closeOnce.Do(func() {
		c.writeMu.Lock()
		close(c.closing)
		msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
		c.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
		c.writeMu.Unlock()
		c.closeErr = c.conn.Close()
		<-c.done
	})
	return c.closeErr
}
