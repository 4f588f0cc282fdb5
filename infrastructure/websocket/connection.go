package websocket

import (
	"context"
	stderrors "errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	gorilla "github.com/gorilla/websocket"

	"whisperwall/domain"
	"whisperwall/domain/event"
	"whisperwall/errors"
	"whisperwall/services"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10

	// A frame carries at most maxTextRunes characters of text, each of them
	// up to 12 bytes once escaped as a JSON surrogate pair, plus the other fields.
	maxMessageSize = maxTextRunes*12 + 1024
)

// Connection is one websocket as seen by the relay. Outbound events are
// queued on a bounded buffer drained by WritePump; Deliver never blocks and
// drops the event when the buffer is full.
type Connection struct {
	id   string
	code domain.Code
	conn *gorilla.Conn
	send chan event.Outbound
	chat services.IChatService
	log  *slog.Logger

	closeOnce sync.Once
	done      chan struct{}
}

func NewConnection(log *slog.Logger, conn *gorilla.Conn, code domain.Code, chat services.IChatService, bufferSize int) *Connection {
	id := uuid.NewString()
	return &Connection{
		id:   id,
		code: code,
		conn: conn,
		send: make(chan event.Outbound, bufferSize),
		chat: chat,
		log:  log.With("endpoint", id, "code", code),
		done: make(chan struct{}),
	}
}

func (c *Connection) ID() string { return c.id }

func (c *Connection) Code() domain.Code { return c.code }

func (c *Connection) Deliver(evt event.Outbound) bool {
	select {
	case <-c.done:
		return false
	default:
	}
	select {
	case c.send <- evt:
		return true
	default:
		return false
	}
}

func (c *Connection) close() {
	c.closeOnce.Do(func() { close(c.done) })
}

// ReadPump reads frames until the socket fails or closes, then disconnects
// the endpoint from the relay. Frames are handled one at a time, in order.
func (c *Connection) ReadPump(ctx context.Context) {
	defer func() {
		c.close()
		_ = c.conn.Close()
		if err := c.chat.Disconnect(context.WithoutCancel(ctx), c.id); err != nil {
			c.log.Debug("Disconnect not delivered", "error", err)
		}
		c.log.Info("Connection closed")
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if gorilla.IsUnexpectedCloseError(err, gorilla.CloseGoingAway, gorilla.CloseNormalClosure) {
				c.log.Warn("Unexpected close", "error", err)
			}
			return
		}
		frame, err := ParseFrame(data)
		if err != nil {
			c.log.Debug("Rejected frame", "error", err)
			c.Deliver(event.ProtocolError{Reason: err.Error()})
			continue
		}
		if err := c.handle(ctx, frame); err != nil {
			if stderrors.Is(err, errors.ErrRelayStopped) || stderrors.Is(err, context.Canceled) {
				return
			}
			c.log.Debug("Frame failed", "error", err)
			c.Deliver(event.ProtocolError{Reason: err.Error()})
		}
	}
}

func (c *Connection) handle(ctx context.Context, frame any) error {
	switch f := frame.(type) {
	case JoinRoom:
		room, err := domain.ParseConversationKey(f.Room)
		if err != nil {
			return err
		}
		return c.chat.Join(ctx, c.id, room)
	case LeaveRoom:
		room, err := domain.ParseConversationKey(f.Room)
		if err != nil {
			return err
		}
		return c.chat.Leave(ctx, c.id, room)
	case SendMessage:
		cmd, err := c.toCommand(f)
		if err != nil {
			return err
		}
		return c.chat.Send(ctx, c, cmd)
	case Follow:
		peer, err := domain.ParseCode(f.Peer)
		if err != nil {
			return err
		}
		return c.chat.Follow(ctx, c, peer)
	case Unfollow:
		c.chat.Unfollow(c.id)
		return nil
	default:
		return errors.ErrUnknownFrameType
	}
}

func (c *Connection) toCommand(f SendMessage) (domain.SendMessageCommand, error) {
	room, err := domain.ParseConversationKey(f.Room)
	if err != nil {
		return domain.SendMessageCommand{}, err
	}
	to, err := domain.ParseCode(f.To)
	if err != nil {
		return domain.SendMessageCommand{}, err
	}
	id := uuid.New()
	if f.ID != "" {
		if id, err = uuid.Parse(f.ID); err != nil {
			return domain.SendMessageCommand{}, errors.ErrMalformedFrame
		}
	}
	return domain.SendMessageCommand{
		Endpoint:  c.id,
		ID:        id,
		Room:      room,
		Text:      f.Text,
		From:      c.code,
		To:        to,
		Time:      f.Time,
		CreatedAt: time.Now().UTC(),
	}, nil
}

// WritePump writes queued events and keeps the socket alive with pings.
// A write failure closes the socket, which ends ReadPump.
func (c *Connection) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case evt := <-c.send:
			data, err := EncodeEvent(evt)
			if err != nil {
				c.log.Error("Unencodable event", "kind", evt.Kind(), "error", err)
				continue
			}
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(gorilla.TextMessage, data); err != nil {
				c.log.Warn("Write failed", "error", err)
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(gorilla.PingMessage, nil); err != nil {
				c.log.Warn("Ping failed", "error", err)
				return
			}
		case <-c.done:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = c.conn.WriteMessage(gorilla.CloseMessage, gorilla.FormatCloseMessage(gorilla.CloseNormalClosure, ""))
			return
		}
	}
}
