package services_test

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"whisperwall/domain"
	"whisperwall/domain/event"
	"whisperwall/errors"
	"whisperwall/mocks"
	"whisperwall/repositories"
	"whisperwall/services"
)

func newSendCommand(endpoint string, from, to domain.Code, text string) domain.SendMessageCommand {
	return domain.SendMessageCommand{
		Endpoint:  endpoint,
		ID:        uuid.New(),
		Room:      domain.NewConversationKey(from, to),
		Text:      text,
		From:      from,
		To:        to,
		Time:      "10:42",
		CreatedAt: time.Now().UTC(),
	}
}

func TestChatService_Send_Relays_And_Persists(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	log := logs.GetLoggerFromLevel(slog.LevelError)
	relay := mocks.NewMockIRelay(ctrl)
	repo := mocks.NewMockIConversationRepository(ctrl)
	sender := mocks.NewMockEndpoint(ctrl)
	svc := services.NewChatService(log, relay, repo, nil, time.Second)
	cmd := newSendCommand("ep-1", "5678", "1234", "hello")

	var stored repositories.DiskMessage
	var status event.Outbound
	relay.EXPECT().Send(gomock.Any(), cmd).Return(nil).Times(1)
	repo.EXPECT().Append(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, m repositories.DiskMessage) error {
		stored = m
		return nil
	}).Times(1)
	sender.EXPECT().Deliver(gomock.Any()).DoAndReturn(func(evt event.Outbound) bool {
		status = evt
		return true
	}).Times(1)

	// When the message is sent
	err := svc.Send(context.Background(), sender, cmd)
	svc.Wait()

	// Then it is persisted under the canonical conversation
	req.NoError(err)
	req.Equal(domain.ConversationKey("1234:5678"), stored.Conversation)
	req.Equal(cmd.ID, stored.ID)
	req.Equal(domain.Code("5678"), stored.From)
	req.Equal("hello", stored.Text)
	// And the sender is told the write succeeded
	req.Equal(event.DeliveryStatus{ID: cmd.ID, OK: true}, status)
}

func TestChatService_Send_Store_Failure_Does_Not_Affect_Relay(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	log := logs.GetLoggerFromLevel(slog.LevelError)
	relay := mocks.NewMockIRelay(ctrl)
	repo := mocks.NewMockIConversationRepository(ctrl)
	sender := mocks.NewMockEndpoint(ctrl)
	telemetry := make(chan event.Event, 10)
	svc := services.NewChatService(log, relay, repo, telemetry, time.Second)
	cmd := newSendCommand("ep-1", "1234", "5678", "hello")

	var status event.Outbound
	relay.EXPECT().Send(gomock.Any(), cmd).Return(nil).Times(1)
	repo.EXPECT().Append(gomock.Any(), gomock.Any()).Return(fmt.Errorf("disk full")).Times(1)
	sender.EXPECT().Deliver(gomock.Any()).DoAndReturn(func(evt event.Outbound) bool {
		status = evt
		return true
	}).Times(1)

	err := svc.Send(context.Background(), sender, cmd)
	svc.Wait()

	// Then the live path succeeded
	req.NoError(err)
	// And the sender is told the durable write failed
	req.Equal(event.DeliveryStatus{ID: cmd.ID, OK: false, Reason: "disk full"}, status)
	// And the failure is reported on telemetry
	req.Len(telemetry, 1)
	evt := <-telemetry
	req.Equal(event.StoreWriteFailedType, evt.Type)
	req.Equal("1234:5678", evt.Payload.(event.StoreWriteFailed).Conversation)
}

func TestChatService_Send_Relay_Stopped(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	log := logs.GetLoggerFromLevel(slog.LevelError)
	relay := mocks.NewMockIRelay(ctrl)
	repo := mocks.NewMockIConversationRepository(ctrl)
	sender := mocks.NewMockEndpoint(ctrl)
	svc := services.NewChatService(log, relay, repo, nil, time.Second)
	cmd := newSendCommand("ep-1", "1234", "5678", "hello")

	relay.EXPECT().Send(gomock.Any(), cmd).Return(errors.ErrRelayStopped)
	repo.EXPECT().Append(gomock.Any(), gomock.Any()).Times(0)

	err := svc.Send(context.Background(), sender, cmd)
	svc.Wait()

	req.ErrorIs(err, errors.ErrRelayStopped)
}

func TestChatService_History_Computes_FromMe_Per_Reader(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	log := logs.GetLoggerFromLevel(slog.LevelError)
	repo := mocks.NewMockIConversationRepository(ctrl)
	svc := services.NewChatService(log, mocks.NewMockIRelay(ctrl), repo, nil, time.Second)
	next := "cursor"

	repo.EXPECT().GetMessages(domain.ConversationKey("1234:5678"), nil).Return([]repositories.DiskMessage{
		{ID: uuid.New(), Conversation: "1234:5678", From: "5678", To: "1234", Text: "hi back"},
		{ID: uuid.New(), Conversation: "1234:5678", From: "1234", To: "5678", Text: "hi"},
	}, &next, nil)

	messages, cursor, err := svc.History("1234", "5678", nil)

	req.NoError(err)
	req.Equal(&next, cursor)
	req.Len(messages, 2)
	req.False(messages[0].FromMe)
	req.True(messages[1].FromMe)
}

func TestChatService_History_Invalid_Peer(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	log := logs.GetLoggerFromLevel(slog.LevelError)
	svc := services.NewChatService(log, mocks.NewMockIRelay(ctrl), mocks.NewMockIConversationRepository(ctrl), nil, time.Second)

	_, _, err := svc.History("1234", "nope", nil)

	req.ErrorIs(err, errors.ErrInvalidCode)
}

func TestChatService_Follow_Delivers_Store_Entries(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	log := logs.GetLoggerFromLevel(slog.LevelError)
	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).WithLoggingLevel(badger.ERROR))
	req.NoError(err)
	t.Cleanup(func() { _ = db.Close() })
	repo := repositories.NewConversationRepository(db, log, nil)
	svc := services.NewChatService(log, mocks.NewMockIRelay(ctrl), repo, nil, time.Second)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var mu sync.Mutex
	var received []event.StoredMessage
	reader := mocks.NewMockEndpoint(ctrl)
	reader.EXPECT().ID().Return("ep-reader").AnyTimes()
	reader.EXPECT().Code().Return(domain.Code("1234")).AnyTimes()
	reader.EXPECT().Deliver(gomock.Any()).DoAndReturn(func(evt event.Outbound) bool {
		mu.Lock()
		defer mu.Unlock()
		received = append(received, evt.(event.StoredMessage))
		return true
	}).AnyTimes()

	// Given the reader follows its conversation with 5678
	req.NoError(svc.Follow(ctx, reader, "5678"))
	conversation, ok := svc.Following("ep-reader")
	req.True(ok)
	req.Equal(domain.ConversationKey("1234:5678"), conversation)

	// When the peer writes to the store right after Follow returned
	req.NoError(repo.Append(context.Background(), repositories.DiskMessage{
		ID:           uuid.New(),
		Conversation: "1234:5678",
		From:         "5678",
		To:           "1234",
		Text:         "are you there?",
		At:           time.Now().UTC(),
	}))
	req.Eventually(func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(received) > 0
	}, 2*time.Second, 10*time.Millisecond)

	// Then the entry reaches the reader, not flagged as its own
	mu.Lock()
	req.Equal("are you there?", received[0].Text)
	req.Equal("5678", received[0].From)
	req.False(received[0].FromMe)
	mu.Unlock()

	// And unfollowing ends the subscription
	svc.Unfollow("ep-reader")
	_, ok = svc.Following("ep-reader")
	req.False(ok)
}

func TestChatService_Follow_Replaces_Previous(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	log := logs.GetLoggerFromLevel(slog.LevelError)
	repo := mocks.NewMockIConversationRepository(ctrl)
	relay := mocks.NewMockIRelay(ctrl)
	svc := services.NewChatService(log, relay, repo, nil, time.Second)
	reader := mocks.NewMockEndpoint(ctrl)
	reader.EXPECT().ID().Return("ep-reader").AnyTimes()
	reader.EXPECT().Code().Return(domain.Code("1234")).AnyTimes()

	ended := make(chan domain.ConversationKey, 2)
	repo.EXPECT().Subscribe(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(
		func(ctx context.Context, conversation domain.ConversationKey, ready func(), _ func(repositories.DiskMessage) error) error {
			ready()
			<-ctx.Done()
			ended <- conversation
			return nil
		}).Times(2)
	relay.EXPECT().Disconnect(gomock.Any(), "ep-reader").Return(nil)

	// Given a reader following 5678
	req.NoError(svc.Follow(context.Background(), reader, "5678"))

	// When it follows 9999
	req.NoError(svc.Follow(context.Background(), reader, "9999"))

	// Then the first subscription ends
	select {
	case conversation := <-ended:
		req.Equal(domain.ConversationKey("1234:5678"), conversation)
	case <-time.After(2 * time.Second):
		req.Fail("first subscription should have ended")
	}
	conversation, ok := svc.Following("ep-reader")
	req.True(ok)
	req.Equal(domain.ConversationKey("1234:9999"), conversation)

	// And disconnecting ends the second one
	req.NoError(svc.Disconnect(context.Background(), "ep-reader"))
	select {
	case conversation := <-ended:
		req.Equal(domain.ConversationKey("1234:9999"), conversation)
	case <-time.After(2 * time.Second):
		req.Fail("second subscription should have ended")
	}
}

func TestChatService_Follow_Replays_Missed_Entries(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	log := logs.GetLoggerFromLevel(slog.LevelError)
	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).WithLoggingLevel(badger.ERROR))
	req.NoError(err)
	t.Cleanup(func() { _ = db.Close() })
	repo := repositories.NewConversationRepository(db, log, nil)
	svc := services.NewChatService(log, mocks.NewMockIRelay(ctrl), repo, nil, time.Second)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Given two entries written while the reader was offline
	at := time.Now().UTC()
	for i, text := range []string{"first", "second"} {
		req.NoError(repo.Append(context.Background(), repositories.DiskMessage{
			ID:           uuid.New(),
			Conversation: "1234:5678",
			From:         "5678",
			To:           "1234",
			Text:         text,
			At:           at.Add(time.Duration(i) * time.Second),
		}))
	}

	var mu sync.Mutex
	var received []string
	reader := mocks.NewMockEndpoint(ctrl)
	reader.EXPECT().ID().Return("ep-reader").AnyTimes()
	reader.EXPECT().Code().Return(domain.Code("1234")).AnyTimes()
	reader.EXPECT().Deliver(gomock.Any()).DoAndReturn(func(evt event.Outbound) bool {
		mu.Lock()
		defer mu.Unlock()
		received = append(received, evt.(event.StoredMessage).Text)
		return true
	}).AnyTimes()

	// When the reader follows the conversation and a third entry is appended
	req.NoError(svc.Follow(ctx, reader, "5678"))
	req.NoError(repo.Append(context.Background(), repositories.DiskMessage{
		ID:           uuid.New(),
		Conversation: "1234:5678",
		From:         "5678",
		To:           "1234",
		Text:         "third",
		At:           at.Add(time.Minute),
	}))

	// Then the missed entries come first, oldest first, each exactly once
	req.Eventually(func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(received) == 3
	}, 2*time.Second, 10*time.Millisecond)
	time.Sleep(50 * time.Millisecond)
	mu.Lock()
	defer mu.Unlock()
	req.Equal([]string{"first", "second", "third"}, received)
}

func TestChatService_Follow_Fails_When_Subscription_Ends_Early(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	log := logs.GetLoggerFromLevel(slog.LevelError)
	repo := mocks.NewMockIConversationRepository(ctrl)
	svc := services.NewChatService(log, mocks.NewMockIRelay(ctrl), repo, nil, time.Second)
	reader := mocks.NewMockEndpoint(ctrl)
	reader.EXPECT().ID().Return("ep-reader").AnyTimes()
	reader.EXPECT().Code().Return(domain.Code("1234")).AnyTimes()
	repo.EXPECT().Subscribe(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(fmt.Errorf("db closed"))

	err := svc.Follow(context.Background(), reader, "5678")

	req.ErrorIs(err, errors.ErrSubscriptionEnded)
	req.Eventually(func() bool {
		_, ok := svc.Following("ep-reader")
		return !ok
	}, time.Second, 10*time.Millisecond)
}
