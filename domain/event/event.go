// Package event defines what the relay pushes to endpoints and what it
// reports about itself.
package event

import (
	"time"

	"github.com/google/uuid"
)

// Outbound is an event delivered to a live endpoint.
type Outbound interface {
	Kind() string
}

const (
	ReceiveMessageKind = "receiveMessage"
	StoredMessageKind  = "storedMessage"
	SendRejectedKind   = "sendRejected"
	StatusKind         = "status"
	ErrorKind          = "error"
)

// MessageReceived is the live fan-out of a message to the other room members.
type MessageReceived struct {
	ID   uuid.UUID
	Text string
	Time string
	From string
}

func (MessageReceived) Kind() string { return ReceiveMessageKind }

// StoredMessage is an entry observed on the durable store subscription.
// FromMe is computed for the reader and lets the client suppress its own echo.
type StoredMessage struct {
	ID     uuid.UUID
	Text   string
	Time   string
	From   string
	To     string
	FromMe bool
	At     time.Time
}

func (StoredMessage) Kind() string { return StoredMessageKind }

// SendRejected tells a sender its message was not relayed.
type SendRejected struct {
	Room   string
	Reason string
}

func (SendRejected) Kind() string { return SendRejectedKind }

// DeliveryStatus reports the durable write result of a message to its sender.
type DeliveryStatus struct {
	ID     uuid.UUID
	OK     bool
	Reason string
}

func (DeliveryStatus) Kind() string { return StatusKind }

// ProtocolError answers a frame that could not be parsed.
type ProtocolError struct {
	Reason string
}

func (ProtocolError) Kind() string { return ErrorKind }

// Type tags telemetry events.
type Type string

// Event is a telemetry envelope consumed by the telemetry worker handlers.
type Event struct {
	Type      Type
	CreatedAt time.Time
	Payload   any
}

func New(t Type, payload any) Event {
	return Event{Type: t, CreatedAt: time.Now().UTC(), Payload: payload}
}
