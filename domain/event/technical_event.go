package event

import (
	"time"

	"github.com/google/uuid"
)

const (
	RestartedAfterPanicType  Type = "WORKER_RESTARTED_AFTER_PANIC"
	ChannelCapacityType      Type = "CHANNEL_CAPACITY"
	PIDTrackerType           Type = "PID_TRACKER"
	EndpointConnectedType    Type = "ENDPOINT_CONNECTED"
	EndpointDisconnectedType Type = "ENDPOINT_DISCONNECTED"
	MessageRelayedType       Type = "MESSAGE_RELAYED"
	DeliveryDroppedType      Type = "DELIVERY_DROPPED"
	SendRejectedType         Type = "SEND_REJECTED"
	StoreWriteFailedType     Type = "STORE_WRITE_FAILED"
)

type WorkerRestartedAfterPanic struct {
	WorkerName string
}

type ChannelCapacity struct {
	ChannelName string
	Capacity    int
	Length      int
}

type ProcessTracker struct {
	PID    int32
	Status string
	Cpu    float64
	Ram    uint64
}

type EndpointConnected struct {
	Endpoint string
	Code     string
}

type EndpointDisconnected struct {
	Endpoint string
	Rooms    int
}

type MessageRelayed struct {
	ID        uuid.UUID
	Room      string
	Delivered int
	At        time.Time
}

type DeliveryDropped struct {
	Endpoint string
	Room     string
}

type RejectedSend struct {
	Endpoint string
	Room     string
}

type StoreWriteFailed struct {
	Conversation string
	Err          error
}
