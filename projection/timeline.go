// Package projection builds the local conversation timeline of a client.
// It merges the live fan-out with the store subscription: local messages are
// rendered at once, the store echo of a local message is suppressed and any
// id already shown is dropped.
// Does not emit events or interact with UI directly.
package projection

import (
	"time"

	"github.com/google/uuid"

	"whisperwall/domain"
	"whisperwall/domain/event"
)

// DeliveryState follows a local message until the store confirmed it.
type DeliveryState int

const (
	Pending DeliveryState = iota
	Stored
	Failed
)

type Entry struct {
	ID     uuid.UUID
	From   domain.Code
	Text   string
	Time   string
	FromMe bool
	State  DeliveryState
	Reason string
	At     time.Time
}

// Timeline holds a simple local timeline
type Timeline struct {
	Owner    domain.Code
	Messages []Entry
	seen     map[uuid.UUID]int
}

func NewTimeline(owner domain.Code) *Timeline {
	return &Timeline{
		Owner: owner,
		seen:  make(map[uuid.UUID]int),
	}
}

// AddLocal renders a message written by the owner before any server answer.
func (t *Timeline) AddLocal(id uuid.UUID, text, label string) bool {
	return t.add(Entry{
		ID:     id,
		From:   t.Owner,
		Text:   text,
		Time:   label,
		FromMe: true,
		State:  Pending,
		At:     time.Now().UTC(),
	})
}

// Consume applies a server event and reports whether the timeline changed.
func (t *Timeline) Consume(e event.Outbound) bool {
	switch evt := e.(type) {
	case event.MessageReceived:
		return t.add(Entry{
			ID:    evt.ID,
			From:  domain.Code(evt.From),
			Text:  evt.Text,
			Time:  evt.Time,
			State: Stored,
			At:    time.Now().UTC(),
		})
	case event.StoredMessage:
		// Local-origin entries were already rendered by AddLocal.
		if evt.FromMe {
			return false
		}
		return t.add(Entry{
			ID:    evt.ID,
			From:  domain.Code(evt.From),
			Text:  evt.Text,
			Time:  evt.Time,
			State: Stored,
			At:    evt.At,
		})
	case event.DeliveryStatus:
		i, ok := t.seen[evt.ID]
		if !ok {
			return false
		}
		if evt.OK {
			t.Messages[i].State = Stored
		} else {
			t.Messages[i].State = Failed
			t.Messages[i].Reason = evt.Reason
		}
		return true
	}
	return false
}

func (t *Timeline) add(entry Entry) bool {
	if _, ok := t.seen[entry.ID]; ok {
		return false
	}
	t.seen[entry.ID] = len(t.Messages)
	t.Messages = append(t.Messages, entry)
	return true
}
