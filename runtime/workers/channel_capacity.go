package workers

import (
	"context"
	"log/slog"
	"reflect"
	"time"

	"whisperwall/domain/event"
)

type NamedChannel struct {
	Name    string
	Channel any
}

// ChannelCapacityWorker periodically samples the length and capacity of the
// relay channels. Reading len and cap never blocks the owners of the channels.
// A lost sample is fine, the next tick sends another one.
type ChannelCapacityWorker struct {
	log            *slog.Logger
	channels       []NamedChannel
	telemetryChan  chan event.Event
	metricInterval time.Duration
}

func NewChannelCapacityWorker(log *slog.Logger,
	channels []NamedChannel, telemetryChan chan event.Event,
	metricInterval time.Duration) *ChannelCapacityWorker {
	return &ChannelCapacityWorker{
		log: log, channels: channels,
		telemetryChan:  telemetryChan,
		metricInterval: metricInterval,
	}
}

func (w ChannelCapacityWorker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.metricInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			w.log.Debug("Context done, stopping capacity sampling")
			return nil
		case <-ticker.C:
			for _, nc := range w.channels {
				v := reflect.ValueOf(nc.Channel)
				// Verify if this is a channel
				if v.Kind() != reflect.Chan {
					w.log.Error("Provided object is not a channel", "name", nc.Name)
					continue
				}
				capacity := v.Cap()
				length := v.Len()
				select {
				case <-ctx.Done():
					w.log.Debug("Context done, stopping capacity sampling")
					return nil
				case w.telemetryChan <- toCapacityEvent(nc.Name, capacity, length):
				default:
					w.log.Debug("Observability telemetry event lost")
				}
			}
		}
	}
}

func toCapacityEvent(name string, capacity, length int) event.Event {
	return event.New(event.ChannelCapacityType, event.ChannelCapacity{
		ChannelName: name,
		Capacity:    capacity,
		Length:      length,
	})
}
