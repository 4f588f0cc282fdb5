package domain

// RoomState is the position of a session in the relay lifecycle.
type RoomState int

const (
	Disconnected RoomState = iota
	Connected
	InRoom
)

func (s RoomState) String() string {
	switch s {
	case Disconnected:
		return "DISCONNECTED"
	case Connected:
		return "CONNECTED"
	case InRoom:
		return "IN_ROOM"
	default:
		return "UNKNOWN"
	}
}
