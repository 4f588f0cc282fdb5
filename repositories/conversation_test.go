package repositories

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"whisperwall/domain"
)

func openBadger(t *testing.T) *badger.DB {
	t.Helper()
	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).WithLoggingLevel(badger.ERROR))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func newDiskMessage(from, to domain.Code, text string, at time.Time) DiskMessage {
	return DiskMessage{
		ID:           uuid.New(),
		Conversation: domain.NewConversationKey(from, to),
		From:         from,
		To:           to,
		Text:         text,
		Time:         at.Format("15:04"),
		At:           at,
	}
}

func Test_Append_Multiple_Messages(t *testing.T) {
	req := require.New(t)
	repository := NewConversationRepository(openBadger(t), slog.Default(), nil)
	at := time.Now().UTC().Round(0)
	diskMessages := []DiskMessage{
		newDiskMessage("1111", "2222", "hey", at),
		newDiskMessage("2222", "1111", "hello you", at.Add(1*time.Minute)),
		newDiskMessage("1111", "2222", "how are you?", at.Add(2*time.Minute)),
	}
	for _, dm := range diskMessages {
		req.NoError(repository.Append(context.Background(), dm))
	}

	fetchedMessages, _, err := repository.GetMessages("1111:2222", nil)

	// Then both directions share one conversation, newest first
	req.NoError(err)
	req.Equal([]DiskMessage{diskMessages[2], diskMessages[1], diskMessages[0]}, fetchedMessages)
}

func Test_Conversations_Are_Isolated(t *testing.T) {
	req := require.New(t)
	repository := NewConversationRepository(openBadger(t), slog.Default(), nil)
	at := time.Now().UTC().Round(0)
	req.NoError(repository.Append(context.Background(), newDiskMessage("1111", "2222", "for 2222", at)))
	req.NoError(repository.Append(context.Background(), newDiskMessage("1111", "3333", "for 3333", at)))

	fetched, _, err := repository.GetMessages("1111:3333", nil)

	req.NoError(err)
	req.Len(fetched, 1)
	req.Equal("for 3333", fetched[0].Text)
}

func Test_GetMessages_Pagination(t *testing.T) {
	req := require.New(t)
	limit := 2
	repository := NewConversationRepository(openBadger(t), slog.Default(), &limit)
	at := time.Now().UTC().Round(0)
	for i := 1; i <= 5; i++ {
		msg := newDiskMessage("1111", "2222", fmt.Sprintf("message %d", i), at.Add(time.Duration(i)*time.Second))
		req.NoError(repository.Append(context.Background(), msg))
	}

	// --- PAGE 1 ---
	page1, cursor1, err := repository.GetMessages("1111:2222", nil)
	req.NoError(err)
	req.Len(page1, 2)
	req.Equal("message 5", page1[0].Text)
	req.Equal("message 4", page1[1].Text)

	// --- PAGE 2 ---
	page2, cursor2, err := repository.GetMessages("1111:2222", cursor1)
	req.NoError(err)
	req.Len(page2, 2)
	req.Equal("message 3", page2[0].Text)
	req.Equal("message 2", page2[1].Text)

	// --- PAGE 3 ---
	page3, _, err := repository.GetMessages("1111:2222", cursor2)
	req.NoError(err)
	req.Len(page3, 1)
	req.Equal("message 1", page3[0].Text)
}

func Test_Append_Canceled_Context(t *testing.T) {
	req := require.New(t)
	repository := NewConversationRepository(openBadger(t), slog.Default(), nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := repository.Append(ctx, newDiskMessage("1111", "2222", "lost", time.Now()))

	req.ErrorIs(err, context.Canceled)
}

func Test_Subscribe_Observes_Appends(t *testing.T) {
	req := require.New(t)
	repository := NewConversationRepository(openBadger(t), slog.Default(), nil)
	ctx, cancel := context.WithCancel(context.Background())

	var mu sync.Mutex
	var observed []DiskMessage
	ready := make(chan struct{})
	done := make(chan error)
	go func() {
		done <- repository.Subscribe(ctx, "1111:2222", func() { close(ready) }, func(message DiskMessage) error {
			mu.Lock()
			defer mu.Unlock()
			observed = append(observed, message)
			return nil
		})
	}()
	<-ready

	// When one message is appended to the followed conversation and one to another
	at := time.Now().UTC().Round(0)
	req.NoError(repository.Append(context.Background(), newDiskMessage("1111", "3333", "elsewhere", at)))
	req.NoError(repository.Append(context.Background(), newDiskMessage("2222", "1111", "hi", at)))

	// Then only the followed conversation is observed, once
	req.Eventually(func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(observed) > 0
	}, 2*time.Second, 10*time.Millisecond)
	time.Sleep(50 * time.Millisecond)
	mu.Lock()
	req.Len(observed, 1)
	req.Equal(domain.ConversationKey("1111:2222"), observed[0].Conversation)
	req.Equal("hi", observed[0].Text)
	mu.Unlock()

	// And the subscription ends cleanly with its context
	cancel()
	select {
	case err := <-done:
		req.NoError(err)
	case <-time.After(2 * time.Second):
		req.Fail("Subscription should have stopped")
	}
}

func Test_Subscribe_Replays_Existing_Messages(t *testing.T) {
	req := require.New(t)
	limit := 2
	repository := NewConversationRepository(openBadger(t), slog.Default(), &limit)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Given three messages already stored
	at := time.Now().UTC().Round(0)
	for i := 1; i <= 3; i++ {
		message := newDiskMessage("1111", "2222", fmt.Sprintf("message %d", i), at.Add(time.Duration(i)*time.Second))
		req.NoError(repository.Append(context.Background(), message))
	}

	var mu sync.Mutex
	var observed []string
	ready := make(chan struct{})
	go func() {
		_ = repository.Subscribe(ctx, "1111:2222", func() { close(ready) }, func(message DiskMessage) error {
			mu.Lock()
			defer mu.Unlock()
			observed = append(observed, message.Text)
			return nil
		})
	}()

	// When a fourth message is appended once the subscription is registered
	<-ready
	req.NoError(repository.Append(context.Background(), newDiskMessage("2222", "1111", "message 4", at.Add(time.Minute))))

	// Then the latest page is replayed oldest first, followed by the new message
	req.Eventually(func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(observed) == 3
	}, 2*time.Second, 10*time.Millisecond)
	time.Sleep(50 * time.Millisecond)
	mu.Lock()
	defer mu.Unlock()
	req.Equal([]string{"message 2", "message 3", "message 4"}, observed)
}

func Test_Decode_Corrupted_Message(t *testing.T) {
	req := require.New(t)

	_, err := decodeDiskMessage([]byte{0xff, 0xff, 0xff})

	req.Error(err)
}
