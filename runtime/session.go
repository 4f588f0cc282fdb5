package runtime

import (
	"whisperwall/contract"
	"whisperwall/domain"
)

// Session tracks the room of one connected endpoint.
// A session is in at most one room: joining another room leaves the current one.
type Session struct {
	endpoint contract.Endpoint
	state    domain.RoomState
	room     domain.ConversationKey
}

func NewSession(endpoint contract.Endpoint) *Session {
	return &Session{endpoint: endpoint, state: domain.Connected}
}

func (s *Session) Endpoint() contract.Endpoint { return s.endpoint }

func (s *Session) State() domain.RoomState { return s.state }

// Room returns the joined room, if any.
func (s *Session) Room() (domain.ConversationKey, bool) {
	if s.state != domain.InRoom {
		return "", false
	}
	return s.room, true
}

// Join enters room. When the session was in another room it is left first
// and returned as left.
func (s *Session) Join(registry *Registry, room domain.ConversationKey) (left domain.ConversationKey, changed bool) {
	switch s.state {
	case domain.Disconnected:
		return "", false
	case domain.InRoom:
		if s.room == room {
			return "", false
		}
		left = s.room
		registry.Leave(s.endpoint.ID(), left)
	}
	registry.Join(s.endpoint, room)
	s.state = domain.InRoom
	s.room = room
	return left, true
}

// Leave exits room. Leaving any room but the joined one is a no-op.
func (s *Session) Leave(registry *Registry, room domain.ConversationKey) bool {
	if s.state != domain.InRoom || s.room != room {
		return false
	}
	registry.Leave(s.endpoint.ID(), room)
	s.state = domain.Connected
	s.room = ""
	return true
}

// Disconnect removes the endpoint from every room. A second call does nothing.
func (s *Session) Disconnect(registry *Registry) []domain.ConversationKey {
	if s.state == domain.Disconnected {
		return nil
	}
	rooms := registry.OnDisconnect(s.endpoint.ID())
	s.state = domain.Disconnected
	s.room = ""
	return rooms
}

// CanSend reports whether a message addressed to room may be relayed.
func (s *Session) CanSend(room domain.ConversationKey) bool {
	joined, ok := s.Room()
	return ok && joined == room
}
