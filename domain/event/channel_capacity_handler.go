package event

import (
	"fmt"
	"log/slog"

	"whisperwall/errors"
)

// ChannelCapacityHandler handles events reporting the capacity of channels.
// A relay command channel close to full means transport events are about to block.
type ChannelCapacityHandler struct {
	log                  *slog.Logger
	lowCapacityThreshold int
}

func NewChannelCapacityHandler(log *slog.Logger, lowCapacityThreshold int) *ChannelCapacityHandler {
	return &ChannelCapacityHandler{log: log, lowCapacityThreshold: lowCapacityThreshold}
}

func (h ChannelCapacityHandler) Handle(event Event) {
	if event.Type != ChannelCapacityType {
		return
	}
	payload, ok := event.Payload.(ChannelCapacity)
	if !ok {
		h.log.Error(errors.ErrInvalidPayload.Error())
		return
	}
	h.log.Debug(fmt.Sprintf("Channel %s usage: %d / %d", payload.ChannelName, payload.Length, payload.Capacity))
	if payload.Capacity <= 0 {
		// In case of unbuffered channel
		return
	}
	capacityLeft := payload.Capacity - payload.Length
	if capacityLeft <= h.lowCapacityThreshold {
		h.log.Warn("channel almost full", "channel", payload.ChannelName, "capacity_left", capacityLeft)
	}
}
