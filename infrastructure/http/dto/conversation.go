package dto

import (
	"time"

	"github.com/samber/lo"

	"whisperwall/domain/event"
)

type MessageResponse struct {
	ID     string    `json:"id"`
	Text   string    `json:"text"`
	Time   string    `json:"time"`
	From   string    `json:"from"`
	To     string    `json:"to"`
	FromMe bool      `json:"fromMe"`
	At     time.Time `json:"at"`
}

type MessagesResponse struct {
	Messages []MessageResponse `json:"messages"`
	Cursor   *string           `json:"cursor,omitempty"`
}

func ToMessagesResponse(messages []event.StoredMessage, cursor *string) MessagesResponse {
	return MessagesResponse{
		Messages: lo.Map(messages, func(m event.StoredMessage, _ int) MessageResponse {
			return MessageResponse{
				ID:     m.ID.String(),
				Text:   m.Text,
				Time:   m.Time,
				From:   m.From,
				To:     m.To,
				FromMe: m.FromMe,
				At:     m.At,
			}
		}),
		Cursor: cursor,
	}
}
