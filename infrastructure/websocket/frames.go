// Package websocket carries the relay over gorilla/websocket: JSON frames
// tagged by "type", one Connection per socket and the upgrade handler.
package websocket

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"whisperwall/domain/event"
	"whisperwall/errors"
)

const (
	JoinRoomType    = "joinRoom"
	LeaveRoomType   = "leaveRoom"
	SendMessageType = "sendMessage"
	FollowType      = "follow"
	UnfollowType    = "unfollow"

	// maxTextRunes bounds SendMessage.Text, counted in characters.
	maxTextRunes = 2000
)

var validate = validator.New()

type envelope struct {
	Type string `json:"type"`
}

type JoinRoom struct {
	Room string `json:"room" validate:"required,max=64"`
}

type LeaveRoom struct {
	Room string `json:"room" validate:"required,max=64"`
}

// SendMessage is a message written by the client. From is accepted for
// compatibility but always replaced by the code of the connection.
// ID is optional: a client doing optimistic echo sends its own.
type SendMessage struct {
	ID   string `json:"id,omitempty" validate:"omitempty,uuid"`
	Text string `json:"text" validate:"required,max=2000"`
	Time string `json:"time" validate:"max=32"`
	From string `json:"from,omitempty" validate:"max=64"`
	To   string `json:"to" validate:"required,len=4,numeric"`
	Room string `json:"room" validate:"required,max=64"`
}

type Follow struct {
	Peer string `json:"peer" validate:"required,len=4,numeric"`
}

type Unfollow struct{}

// ParseFrame decodes and validates one client frame. The returned value is
// one of JoinRoom, LeaveRoom, SendMessage, Follow or Unfollow.
func ParseFrame(data []byte) (any, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", errors.ErrMalformedFrame, err)
	}
	var frame any
	switch env.Type {
	case JoinRoomType:
		frame = &JoinRoom{}
	case LeaveRoomType:
		frame = &LeaveRoom{}
	case SendMessageType:
		frame = &SendMessage{}
	case FollowType:
		frame = &Follow{}
	case UnfollowType:
		return Unfollow{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", errors.ErrUnknownFrameType, env.Type)
	}
	if err := json.Unmarshal(data, frame); err != nil {
		return nil, fmt.Errorf("%w: %v", errors.ErrMalformedFrame, err)
	}
	if err := validate.Struct(frame); err != nil {
		return nil, fmt.Errorf("%w: %v", errors.ErrMalformedFrame, err)
	}
	switch f := frame.(type) {
	case *JoinRoom:
		return *f, nil
	case *LeaveRoom:
		return *f, nil
	case *SendMessage:
		return *f, nil
	default:
		return *frame.(*Follow), nil
	}
}

// EncodeFrame renders a client frame with its type tag.
func EncodeFrame(frame any) ([]byte, error) {
	switch f := frame.(type) {
	case JoinRoom:
		return json.Marshal(struct {
			Type string `json:"type"`
			JoinRoom
		}{JoinRoomType, f})
	case LeaveRoom:
		return json.Marshal(struct {
			Type string `json:"type"`
			LeaveRoom
		}{LeaveRoomType, f})
	case SendMessage:
		return json.Marshal(struct {
			Type string `json:"type"`
			SendMessage
		}{SendMessageType, f})
	case Follow:
		return json.Marshal(struct {
			Type string `json:"type"`
			Follow
		}{FollowType, f})
	case Unfollow:
		return json.Marshal(envelope{Type: UnfollowType})
	default:
		return nil, fmt.Errorf("%w: %T", errors.ErrUnknownFrameType, frame)
	}
}

// serverFrame is the wire form of every event.Outbound.
type serverFrame struct {
	Type   string     `json:"type"`
	ID     *uuid.UUID `json:"id,omitempty"`
	Text   string     `json:"text,omitempty"`
	Time   string     `json:"time,omitempty"`
	From   string     `json:"from,omitempty"`
	To     string     `json:"to,omitempty"`
	FromMe *bool      `json:"fromMe,omitempty"`
	At     *time.Time `json:"at,omitempty"`
	Room   string     `json:"room,omitempty"`
	OK     *bool      `json:"ok,omitempty"`
	Reason string     `json:"reason,omitempty"`
}

// EncodeEvent renders an outbound event as a server frame.
func EncodeEvent(evt event.Outbound) ([]byte, error) {
	frame := serverFrame{Type: evt.Kind()}
	switch e := evt.(type) {
	case event.MessageReceived:
		frame.ID, frame.Text, frame.Time, frame.From = &e.ID, e.Text, e.Time, e.From
	case event.StoredMessage:
		frame.ID, frame.Text, frame.Time, frame.From, frame.To = &e.ID, e.Text, e.Time, e.From, e.To
		frame.FromMe, frame.At = &e.FromMe, &e.At
	case event.SendRejected:
		frame.Room, frame.Reason = e.Room, e.Reason
	case event.DeliveryStatus:
		frame.ID, frame.OK, frame.Reason = &e.ID, &e.OK, e.Reason
	case event.ProtocolError:
		frame.Reason = e.Reason
	default:
		return nil, fmt.Errorf("%w: %T", errors.ErrUnknownFrameType, evt)
	}
	return json.Marshal(frame)
}

// DecodeEvent parses a server frame back into its event.Outbound.
func DecodeEvent(data []byte) (event.Outbound, error) {
	var frame serverFrame
	if err := json.Unmarshal(data, &frame); err != nil {
		return nil, fmt.Errorf("%w: %v", errors.ErrMalformedFrame, err)
	}
	id := uuid.Nil
	if frame.ID != nil {
		id = *frame.ID
	}
	switch frame.Type {
	case event.ReceiveMessageKind:
		return event.MessageReceived{ID: id, Text: frame.Text, Time: frame.Time, From: frame.From}, nil
	case event.StoredMessageKind:
		stored := event.StoredMessage{ID: id, Text: frame.Text, Time: frame.Time, From: frame.From, To: frame.To}
		if frame.FromMe != nil {
			stored.FromMe = *frame.FromMe
		}
		if frame.At != nil {
			stored.At = *frame.At
		}
		return stored, nil
	case event.SendRejectedKind:
		return event.SendRejected{Room: frame.Room, Reason: frame.Reason}, nil
	case event.StatusKind:
		status := event.DeliveryStatus{ID: id, Reason: frame.Reason}
		if frame.OK != nil {
			status.OK = *frame.OK
		}
		return status, nil
	case event.ErrorKind:
		return event.ProtocolError{Reason: frame.Reason}, nil
	default:
		return nil, fmt.Errorf("%w: %q", errors.ErrUnknownFrameType, frame.Type)
	}
}
