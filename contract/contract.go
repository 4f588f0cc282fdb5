//go:generate go run go.uber.org/mock/mockgen -source=contract.go -destination=../mocks/mock_contract.go -package=mocks
package contract

import (
	"context"
	"reflect"

	"whisperwall/domain"
	"whisperwall/domain/event"
)

type ISupervisor interface {
	Add(worker ...Worker) ISupervisor
	Run(ctx context.Context)
	Start(ctx context.Context, worker Worker)
	Stop()
}

type WorkerName string

// Worker doesn't protect itself
// Can be silly, focused
type Worker interface {
	Run(ctx context.Context) error
}

// GetWorkerName uses reflection to retrieve the type name of the worker.
// This is used for logging and supervision purposes during worker initialization
// or lifecycle events, avoiding the need for manual naming in the Worker interface.
func GetWorkerName(w Worker) string {
	if w == nil {
		return "NilWorker"
	}
	t := reflect.TypeOf(w)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}

// Endpoint is one live connection as seen by the relay.
// Deliver must not block: it reports false when the event was dropped.
type Endpoint interface {
	ID() string
	Code() domain.Code
	Deliver(evt event.Outbound) bool
}

// IRelay is the entry point of transport events.
// Calls made by one connection are processed in the order they were made.
type IRelay interface {
	Connect(ctx context.Context, endpoint Endpoint) error
	Join(ctx context.Context, endpointID string, room domain.ConversationKey) error
	Leave(ctx context.Context, endpointID string, room domain.ConversationKey) error
	Send(ctx context.Context, cmd domain.SendMessageCommand) error
	Disconnect(ctx context.Context, endpointID string) error
}

// ContentValidator decides whether user content may be published.
type ContentValidator interface {
	Validate(content string) domain.Verdict
}
