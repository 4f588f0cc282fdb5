package domain

import (
	"time"

	"github.com/google/uuid"
)

// Command is a transport event handed to the relay loop.
type Command interface {
	EndpointID() string
}

type JoinRoomCommand struct {
	Endpoint string
	Room     ConversationKey
}

func (c JoinRoomCommand) EndpointID() string { return c.Endpoint }

type LeaveRoomCommand struct {
	Endpoint string
	Room     ConversationKey
}

func (c LeaveRoomCommand) EndpointID() string { return c.Endpoint }

type DisconnectCommand struct {
	Endpoint string
}

func (c DisconnectCommand) EndpointID() string { return c.Endpoint }

type SendMessageCommand struct {
	Endpoint  string
	ID        uuid.UUID
	Room      ConversationKey
	Text      string
	From      Code
	To        Code
	Time      string
	CreatedAt time.Time
}

func (c SendMessageCommand) EndpointID() string { return c.Endpoint }

func (c SendMessageCommand) Message() Message {
	return Message{
		ID:   c.ID,
		Room: c.Room,
		Text: c.Text,
		From: c.From,
		To:   c.To,
		Time: c.Time,
		At:   c.CreatedAt,
	}
}
