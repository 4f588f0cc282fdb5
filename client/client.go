// Package client talks to a relay over its websocket endpoint.
package client

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"sync"
	"time"

	"github.com/google/uuid"
	gorilla "github.com/gorilla/websocket"

	"whisperwall/domain"
	"whisperwall/domain/event"
	"whisperwall/infrastructure/websocket"
)

const writeWait = 10 * time.Second

// Client is one websocket connection to the relay. Server events are
// decoded and published on Events until the connection ends.
type Client struct {
	code   domain.Code
	conn   *gorilla.Conn
	log    *slog.Logger
	events chan event.Outbound

	writeMu   sync.Mutex
	closeOnce sync.Once
	done      chan struct{}
}

// Dial opens the websocket at baseURL ("ws://host:port") with a session token.
func Dial(ctx context.Context, log *slog.Logger, baseURL string, code domain.Code, token string, bufferSize int) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, err
	}
	u.Path = "/ws"
	u.RawQuery = url.Values{"token": {token}}.Encode()

	conn, resp, err := gorilla.DefaultDialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("dial %s: %s: %w", baseURL, resp.Status, err)
		}
		return nil, fmt.Errorf("dial %s: %w", baseURL, err)
	}
	c := &Client{
		code:   code,
		conn:   conn,
		log:    log,
		events: make(chan event.Outbound, bufferSize),
		done:   make(chan struct{}),
	}
	go c.readLoop()
	return c, nil
}

func (c *Client) Code() domain.Code { return c.code }

// Events is closed once the connection ended.
func (c *Client) Events() <-chan event.Outbound {
	return c.events
}

func (c *Client) Join(room domain.ConversationKey) error {
	return c.write(websocket.JoinRoom{Room: room.String()})
}

func (c *Client) Leave(room domain.ConversationKey) error {
	return c.write(websocket.LeaveRoom{Room: room.String()})
}

// Send writes a message to peer in room and returns the id given to it,
// so the caller can render it before the relay answers.
func (c *Client) Send(room domain.ConversationKey, peer domain.Code, text string) (uuid.UUID, error) {
	id := uuid.New()
	err := c.write(websocket.SendMessage{
		ID:   id.String(),
		Text: text,
		Time: time.Now().Format("15:04"),
		From: c.code.String(),
		To:   peer.String(),
		Room: room.String(),
	})
	return id, err
}

func (c *Client) Follow(peer domain.Code) error {
	return c.write(websocket.Follow{Peer: peer.String()})
}

func (c *Client) Unfollow() error {
	return c.write(websocket.Unfollow{})
}

func (c *Client) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.done)
		c.writeMu.Lock()
		_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		_ = c.conn.WriteMessage(gorilla.CloseMessage, gorilla.FormatCloseMessage(gorilla.CloseNormalClosure, ""))
		c.writeMu.Unlock()
		err = c.conn.Close()
	})
	return err
}

func (c *Client) write(frame any) error {
	data, err := websocket.EncodeFrame(frame)
	if err != nil {
		return err
	}
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteMessage(gorilla.TextMessage, data)
}

func (c *Client) readLoop() {
	defer close(c.events)
	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			select {
			case <-c.done:
			default:
				c.log.Warn("Connection lost", "error", err)
			}
			return
		}
		evt, err := websocket.DecodeEvent(data)
		if err != nil {
			c.log.Debug("Skipping server frame", "error", err)
			continue
		}
		select {
		case c.events <- evt:
		case <-c.done:
			return
		}
	}
}
