package event

import (
	"log/slog"
	"time"
)

// LatencyHandler measures how long a message waited between its creation
// by the sender's connection and its fan-out.
type LatencyHandler struct {
	log              *slog.Logger
	latencyThreshold time.Duration
}

func NewLatencyHandler(log *slog.Logger, latencyThreshold time.Duration) *LatencyHandler {
	return &LatencyHandler{log: log, latencyThreshold: latencyThreshold}
}

func (h *LatencyHandler) Handle(e Event) {
	payload, ok := e.Payload.(MessageRelayed)
	if !ok || payload.At.IsZero() {
		return
	}
	leadTime := e.CreatedAt.Sub(payload.At)

	h.log.Debug("telemetry: relay latency",
		"room", payload.Room,
		"delivered", payload.Delivered,
		"lead_time_ms", leadTime.Milliseconds(),
	)

	if leadTime > h.latencyThreshold {
		h.log.Warn("high latency detected", "room", payload.Room, "lead_time", leadTime)
	}
}
