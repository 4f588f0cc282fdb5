// Package runtime handles the relay loop and the workers running beside it.
// It orchestrates the system without containing business logic or domain rules.
package runtime

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"whisperwall/contract"
	"whisperwall/domain/event"
	"whisperwall/runtime/workers"
)

type Orchestrator struct {
	mu                   sync.Mutex
	log                  *slog.Logger
	supervisor           contract.ISupervisor
	relay                *Relay
	telemetryEvents      chan event.Event
	counter              *event.Counter
	extraWorkers         []contract.Worker
	metricInterval       time.Duration
	latencyThreshold     time.Duration
	lowCapacityThreshold int
}

func NewOrchestrator(log *slog.Logger, supervisor contract.ISupervisor, relay *Relay,
	telemetryEvents chan event.Event, metricInterval, latencyThreshold time.Duration,
	lowCapacityThreshold int) *Orchestrator {
	return &Orchestrator{
		log:                  log,
		supervisor:           supervisor,
		relay:                relay,
		telemetryEvents:      telemetryEvents,
		counter:              event.NewCounter(),
		metricInterval:       metricInterval,
		latencyThreshold:     latencyThreshold,
		lowCapacityThreshold: lowCapacityThreshold,
	}
}

// Add registers workers living beside the relay (health reporter, debug tools).
func (o *Orchestrator) Add(w ...contract.Worker) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.extraWorkers = append(o.extraWorkers, w...)
}

func (o *Orchestrator) Relay() *Relay { return o.relay }

// Counter returns the totals kept by the telemetry handlers.
func (o *Orchestrator) Counter() *event.Counter { return o.counter }

// Start registers the relay and the telemetry workers then blocks on the supervisor.
func (o *Orchestrator) Start(ctx context.Context) {
	telemetryWorker := workers.NewTelemetryWorker(o.log, o.telemetryEvents, o.handlers())
	capacityWorker := workers.NewChannelCapacityWorker(o.log, o.relay.Channels(), o.telemetryEvents, o.metricInterval)
	heartbeatWorker := workers.NewHeartbeatWorker(o.log, o.telemetryEvents, o.metricInterval)

	o.mu.Lock()
	o.supervisor.Add(o.relay, telemetryWorker, capacityWorker, heartbeatWorker)
	o.supervisor.Add(o.extraWorkers...)
	o.mu.Unlock()

	o.log.Info("Starting orchestrator and all supervised workers")
	o.supervisor.Run(ctx)
}

func (o *Orchestrator) handlers() []event.Handler {
	return []event.Handler{
		event.NewRelayHandler(o.log, o.counter),
		event.NewLatencyHandler(o.log, o.latencyThreshold),
		event.NewChannelCapacityHandler(o.log, o.lowCapacityThreshold),
		event.NewWorkerRestartedAfterPanicHandler(o.log, o.counter),
		event.NewProcessTrackerHandler(o.log),
	}
}

// Stop initiates a graceful shutdown: every supervised worker sees its
// context canceled and the relay refuses new commands.
func (o *Orchestrator) Stop() {
	o.log.Info("Requesting orchestrator shutdown")
	o.supervisor.Stop()
}
