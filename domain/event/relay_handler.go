package event

import (
	"log/slog"

	"whisperwall/errors"
)

// RelayHandler counts what happens on the relay: connections, relayed
// messages, live deliveries, drops and rejected sends.
// Live deliveries are summed under DeliveriesType.
type RelayHandler struct {
	log     *slog.Logger
	counter *Counter
}

const DeliveriesType Type = "DELIVERIES"

func NewRelayHandler(log *slog.Logger, counter *Counter) *RelayHandler {
	return &RelayHandler{log: log, counter: counter}
}

func (h *RelayHandler) Handle(event Event) {
	switch event.Type {
	case EndpointConnectedType, EndpointDisconnectedType, SendRejectedType:
		h.counter.Increment(event.Type)
	case MessageRelayedType:
		payload, ok := event.Payload.(MessageRelayed)
		if !ok {
			h.log.Error(errors.ErrInvalidPayload.Error())
			return
		}
		h.counter.Increment(MessageRelayedType)
		h.counter.Add(DeliveriesType, uint64(payload.Delivered))
	case DeliveryDroppedType:
		payload, ok := event.Payload.(DeliveryDropped)
		if !ok {
			h.log.Error(errors.ErrInvalidPayload.Error())
			return
		}
		h.counter.Increment(DeliveryDroppedType)
		h.log.Warn("live delivery dropped", "endpoint", payload.Endpoint, "room", payload.Room)
	case StoreWriteFailedType:
		payload, ok := event.Payload.(StoreWriteFailed)
		if !ok {
			h.log.Error(errors.ErrInvalidPayload.Error())
			return
		}
		h.counter.Increment(StoreWriteFailedType)
		h.log.Error("durable append failed", "conversation", payload.Conversation, "error", payload.Err)
	}
}
