package workers

import (
	"context"
	"log/slog"

	"whisperwall/domain/event"
	"whisperwall/errors"
	"whisperwall/repositories"
)

// IndexWorker applies feed changes to the search index, one at a time.
// A failed update is logged and skipped, the feed itself stays the source of truth.
type IndexWorker struct {
	index       repositories.IPostIndex
	indexEvents chan event.Event
	log         *slog.Logger
}

func NewIndexWorker(index repositories.IPostIndex, indexEvents chan event.Event, log *slog.Logger) *IndexWorker {
	return &IndexWorker{index: index, indexEvents: indexEvents, log: log}
}

func (w IndexWorker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			w.log.Debug("Stopping index worker")
			return nil
		case e, ok := <-w.indexEvents:
			if !ok {
				w.log.Debug("Channel is closed")
				return nil
			}
			w.apply(e)
		}
	}
}

func (w IndexWorker) apply(e event.Event) {
	switch evt := e.Payload.(type) {
	case event.PostPublished:
		if err := w.index.Index(evt.Post); err != nil {
			w.log.Error("Indexing failed", "id", evt.Post.ID, "error", err)
			return
		}
		w.log.Debug("Post indexed", "id", evt.Post.ID, "lang", evt.Post.Language)
	case event.PostRemoved:
		if err := w.index.Remove(evt.ID); err != nil {
			w.log.Error("Index removal failed", "id", evt.ID, "error", err)
			return
		}
		w.log.Debug("Post removed from index", "id", evt.ID)
	default:
		w.log.Error(errors.ErrInvalidPayload.Error(), "type", e.Type)
	}
}
