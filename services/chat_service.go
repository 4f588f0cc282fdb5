//go:generate go run go.uber.org/mock/mockgen -source=chat_service.go -destination=../mocks/mock_chat_service.go -package=mocks
package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/samber/lo"

	"whisperwall/contract"
	"whisperwall/domain"
	"whisperwall/domain/event"
	"whisperwall/errors"
	"whisperwall/repositories"
)

// IChatService is everything a transport needs to chat: the live relay and
// the durable conversation store behind one entry point.
type IChatService interface {
	Connect(ctx context.Context, endpoint contract.Endpoint) error
	Join(ctx context.Context, endpointID string, room domain.ConversationKey) error
	Leave(ctx context.Context, endpointID string, room domain.ConversationKey) error
	Send(ctx context.Context, sender contract.Endpoint, cmd domain.SendMessageCommand) error
	Follow(ctx context.Context, reader contract.Endpoint, peer domain.Code) error
	Unfollow(endpointID string)
	Disconnect(ctx context.Context, endpointID string) error
	History(reader, peer domain.Code, cursor *string) ([]event.StoredMessage, *string, error)
}

type subscription struct {
	conversation domain.ConversationKey
	cancel       context.CancelFunc
}

type ChatService struct {
	log               *slog.Logger
	relay             contract.IRelay
	conversations     repositories.IConversationRepository
	telemetry         chan event.Event
	storeWriteTimeout time.Duration

	mu            sync.Mutex
	subscriptions map[string]*subscription
	writes        sync.WaitGroup
}

func NewChatService(
	log *slog.Logger,
	relay contract.IRelay,
	conversations repositories.IConversationRepository,
	telemetry chan event.Event,
	storeWriteTimeout time.Duration,
) *ChatService {
	return &ChatService{
		log:               log,
		relay:             relay,
		conversations:     conversations,
		telemetry:         telemetry,
		storeWriteTimeout: storeWriteTimeout,
		subscriptions:     make(map[string]*subscription),
	}
}

func (s *ChatService) Connect(ctx context.Context, endpoint contract.Endpoint) error {
	return s.relay.Connect(ctx, endpoint)
}

func (s *ChatService) Join(ctx context.Context, endpointID string, room domain.ConversationKey) error {
	return s.relay.Join(ctx, endpointID, room)
}

func (s *ChatService) Leave(ctx context.Context, endpointID string, room domain.ConversationKey) error {
	return s.relay.Leave(ctx, endpointID, room)
}

// Send hands the message to the relay for the live fan-out and starts the
// durable append in the background. The two paths don't wait for each other:
// the sender learns the outcome of the append through a DeliveryStatus event.
// A send the relay rejects (sender not in the room) is still stored.
func (s *ChatService) Send(ctx context.Context, sender contract.Endpoint, cmd domain.SendMessageCommand) error {
	if err := s.relay.Send(ctx, cmd); err != nil {
		return err
	}
	message := cmd.Message()
	s.writes.Add(1)
	go func() {
		defer s.writes.Done()
		s.persist(context.WithoutCancel(ctx), sender, message)
	}()
	return nil
}

func (s *ChatService) persist(ctx context.Context, sender contract.Endpoint, message domain.Message) {
	ctx, cancel := context.WithTimeout(ctx, s.storeWriteTimeout)
	defer cancel()

	status := event.DeliveryStatus{ID: message.ID, OK: true}
	if err := s.conversations.Append(ctx, toDiskMessage(message)); err != nil {
		s.log.Error("Durable append failed", "id", message.ID, "error", err)
		status = event.DeliveryStatus{ID: message.ID, OK: false, Reason: err.Error()}
		s.publish(event.New(event.StoreWriteFailedType, event.StoreWriteFailed{
			Conversation: message.Conversation().String(),
			Err:          err,
		}))
	}
	if !sender.Deliver(status) {
		s.log.Warn("Status dropped", "endpoint", sender.ID(), "id", message.ID)
	}
}

// Follow subscribes the reader to its conversation with peer: the latest
// entries are replayed, then new ones are delivered as they are appended.
// Follow returns once the subscription is registered. A reader follows one
// conversation at a time, following another one replaces the previous
// subscription. The subscription ends with ctx.
func (s *ChatService) Follow(ctx context.Context, reader contract.Endpoint, peer domain.Code) error {
	if _, err := domain.ParseCode(peer.String()); err != nil {
		return err
	}
	conversation := domain.NewConversationKey(reader.Code(), peer)
	subCtx, cancel := context.WithCancel(ctx)
	sub := &subscription{conversation: conversation, cancel: cancel}

	s.mu.Lock()
	if previous, ok := s.subscriptions[reader.ID()]; ok {
		previous.cancel()
	}
	s.subscriptions[reader.ID()] = sub
	s.mu.Unlock()

	ready := make(chan struct{})
	ended := make(chan struct{})
	go func() {
		defer close(ended)
		defer s.forget(reader.ID(), sub)
		err := s.conversations.Subscribe(subCtx, conversation, func() { close(ready) }, func(message repositories.DiskMessage) error {
			if !reader.Deliver(toStoredMessage(message, reader.Code())) {
				s.log.Warn("Stored message dropped", "endpoint", reader.ID(), "id", message.ID)
			}
			return nil
		})
		if err != nil {
			s.log.Error("Subscription ended", "endpoint", reader.ID(), "conversation", conversation, "error", err)
		}
	}()

	select {
	case <-ready:
		s.log.Debug("Following conversation", "endpoint", reader.ID(), "conversation", conversation)
		return nil
	case <-ended:
		select {
		case <-ready:
			return nil
		default:
		}
		return fmt.Errorf("%w: %s", errors.ErrSubscriptionEnded, conversation)
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *ChatService) Unfollow(endpointID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sub, ok := s.subscriptions[endpointID]; ok {
		sub.cancel()
		delete(s.subscriptions, endpointID)
	}
}

func (s *ChatService) forget(endpointID string, sub *subscription) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sub.cancel()
	if s.subscriptions[endpointID] == sub {
		delete(s.subscriptions, endpointID)
	}
}

// Following returns the conversation currently followed by the endpoint.
func (s *ChatService) Following(endpointID string) (domain.ConversationKey, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sub, ok := s.subscriptions[endpointID]
	if !ok {
		return "", false
	}
	return sub.conversation, true
}

func (s *ChatService) Disconnect(ctx context.Context, endpointID string) error {
	s.Unfollow(endpointID)
	return s.relay.Disconnect(ctx, endpointID)
}

// History reads one page of the conversation between reader and peer, newest first.
func (s *ChatService) History(reader, peer domain.Code, cursor *string) ([]event.StoredMessage, *string, error) {
	if _, err := domain.ParseCode(peer.String()); err != nil {
		return nil, nil, err
	}
	messages, next, err := s.conversations.GetMessages(domain.NewConversationKey(reader, peer), cursor)
	if err != nil {
		return nil, nil, err
	}
	return lo.Map(messages, func(m repositories.DiskMessage, _ int) event.StoredMessage {
		return toStoredMessage(m, reader)
	}), next, nil
}

// Wait blocks until every durable append started by Send has finished.
func (s *ChatService) Wait() {
	s.writes.Wait()
}

func (s *ChatService) publish(evt event.Event) {
	if s.telemetry == nil {
		return
	}
	select {
	case s.telemetry <- evt:
	default:
		s.log.Debug("Telemetry event lost", "type", evt.Type)
	}
}

func toDiskMessage(message domain.Message) repositories.DiskMessage {
	return repositories.DiskMessage{
		ID:           message.ID,
		Conversation: message.Conversation(),
		From:         message.From,
		To:           message.To,
		Text:         message.Text,
		Time:         message.Time,
		At:           message.At,
	}
}

func toStoredMessage(message repositories.DiskMessage, reader domain.Code) event.StoredMessage {
	return event.StoredMessage{
		ID:     message.ID,
		Text:   message.Text,
		Time:   message.Time,
		From:   message.From.String(),
		To:     message.To.String(),
		FromMe: message.From == reader,
		At:     message.At,
	}
}
