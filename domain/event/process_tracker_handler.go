package event

import (
	"fmt"
	"log/slog"

	"whisperwall/errors"
)

type ProcessTrackerHandler struct {
	log *slog.Logger
}

func NewProcessTrackerHandler(log *slog.Logger) *ProcessTrackerHandler {
	return &ProcessTrackerHandler{log: log}
}

func (h ProcessTrackerHandler) Handle(event Event) {
	if event.Type != PIDTrackerType {
		return
	}
	payload, ok := event.Payload.(ProcessTracker)
	if !ok {
		h.log.Error(errors.ErrInvalidPayload.Error())
		return
	}
	h.log.Debug(fmt.Sprintf("[RELAY] PID %d | STATUS %s | CPU %.2f%% | RSS %d bytes",
		payload.PID, payload.Status, payload.Cpu, payload.Ram))
}
