package event

import (
	"log/slog"

	"whisperwall/errors"
)

// WorkerRestartedAfterPanicHandler counts worker restarts reported by the Supervisor.
type WorkerRestartedAfterPanicHandler struct {
	log     *slog.Logger
	counter *Counter
}

func NewWorkerRestartedAfterPanicHandler(log *slog.Logger, counter *Counter) *WorkerRestartedAfterPanicHandler {
	return &WorkerRestartedAfterPanicHandler{log: log, counter: counter}
}

func (h *WorkerRestartedAfterPanicHandler) Handle(event Event) {
	if event.Type != RestartedAfterPanicType {
		return
	}
	payload, ok := event.Payload.(WorkerRestartedAfterPanic)
	if !ok {
		h.log.Error(errors.ErrInvalidPayload.Error())
		return
	}
	h.counter.Increment(RestartedAfterPanicType)
	h.log.Warn("worker restarted after panic",
		"worker", payload.WorkerName,
		"total", h.counter.Get(RestartedAfterPanicType))
}
