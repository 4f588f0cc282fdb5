//go:generate go run go.uber.org/mock/mockgen -source=conversation.go -destination=../mocks/mock_conversation_repository.go -package=mocks
package repositories

import (
	"bytes"
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/pb"
	"github.com/google/uuid"

	"whisperwall/domain"
)

const (
	conversationPrefix = "chat:"
	subscriptionPrefix = "sub:"
	subscriptionBuffer = 64
	markerRetry        = 20 * time.Millisecond
)

type IConversationRepository interface {
	Append(ctx context.Context, message DiskMessage) error
	GetMessages(conversation domain.ConversationKey, cursor *string) ([]DiskMessage, *string, error)
	Subscribe(ctx context.Context, conversation domain.ConversationKey, ready func(), fn func(DiskMessage) error) error
}

// ConversationRepository is the durable store of direct messages, one
// partition per unordered pair of codes.
type ConversationRepository struct {
	db            *badger.DB
	log           *slog.Logger
	limitMessages *int
}

func NewConversationRepository(db *badger.DB, log *slog.Logger, limitMessages *int) ConversationRepository {
	return ConversationRepository{db: db, log: log, limitMessages: limitMessages}
}

type DiskMessage struct {
	ID           uuid.UUID
	Conversation domain.ConversationKey
	From         domain.Code
	To           domain.Code
	Text         string
	Time         string
	At           time.Time
}

// Append persists a message in BadgerDB.
// The key is formatted as "chat:{conversation}:{timestamp_padded}:{uuid}" to:
//  1. Ensure chronological sorting using 19-digit zero padding (lexicographical order).
//  2. Prevent data loss by using UUID as a collision disconnector if two messages
//     arrive at the same nanosecond.
func (r ConversationRepository) Append(ctx context.Context, message DiskMessage) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	key := fmt.Sprintf("%s%s:%019d:%s",
		conversationPrefix,
		message.Conversation,
		message.At.UnixNano(),
		message.ID,
	)
	value := encodeDiskMessage(message)
	return r.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), value)
	})
}

// GetMessages retrieves messages of a conversation, newest first, using a reverse prefix scan.
// It stops collecting messages once the configured limitMessages is reached.
// The returned cursor continues strictly after the last returned message.
func (r ConversationRepository) GetMessages(conversation domain.ConversationKey, cursor *string) ([]DiskMessage, *string, error) {
	var byteMessages [][]byte
	var diskMessages []DiskMessage
	var lastKey string
	err := r.db.View(func(txn *badger.Txn) error {
		prefixStr := conversationKeyPrefix(conversation)
		prefix := []byte(prefixStr)
		prefixLen := len(prefixStr)
		options := badger.DefaultIteratorOptions
		options.Reverse = true
		it := txn.NewIterator(options)
		defer it.Close()

		var seekKey []byte
		switch cursor {
		case nil:
			// Let's go past the newest position chat:1111:2222:9999999999999999999
			// Then, we go back and find few messages
			seekKey = append([]byte(prefixStr), []byte("9999999999999999999~")...)
		default:
			seekKey = append([]byte(prefixStr), []byte(*cursor)...)
		}

		it.Seek(seekKey)

		if cursor != nil && it.ValidForPrefix(prefix) && string(it.Item().Key()[prefixLen:]) == *cursor {
			it.Next()
		}

		for ; it.ValidForPrefix(prefix); it.Next() {
			if r.limitMessages != nil && len(byteMessages) == *r.limitMessages {
				r.log.Debug(fmt.Sprintf("Maximum of %d message reached", *r.limitMessages))
				break
			}
			item := it.Item()
			// Memorize cursor part of the actual key
			lastKey = string(item.Key()[prefixLen:])
			value, err := item.ValueCopy(nil)
			if err != nil {
				return err
			}
			byteMessages = append(byteMessages, value)
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	for _, b := range byteMessages {
		message, err := decodeDiskMessage(b)
		if err != nil {
			return nil, nil, err
		}
		diskMessages = append(diskMessages, message)
	}
	return diskMessages, &lastKey, nil
}

// Subscribe replays the latest page of the conversation, oldest first, then
// calls fn for every message appended afterwards until ctx is canceled.
// ready is called once the subscription is registered: no message appended
// after that point is missed, and a message both replayed and observed is
// delivered once. Returning an error from fn ends the subscription.
func (r ConversationRepository) Subscribe(ctx context.Context, conversation domain.ConversationKey, ready func(), fn func(DiskMessage) error) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	prefix := []byte(conversationKeyPrefix(conversation))
	marker := []byte(subscriptionPrefix + uuid.NewString())
	updates := make(chan *pb.KV, subscriptionBuffer)
	ended := make(chan error, 1)
	go func() {
		ended <- r.db.Subscribe(ctx, func(kvs *badger.KVList) error {
			for _, kv := range kvs.Kv {
				select {
				case updates <- kv:
				case <-ctx.Done():
					return ctx.Err()
				}
			}
			return nil
		}, []pb.Match{{Prefix: prefix}, {Prefix: marker}})
	}()

	pending, err := r.awaitRegistration(ctx, marker, updates, ended)
	if err != nil {
		return quiet(err)
	}
	if ready != nil {
		ready()
	}

	replayed, err := r.replay(conversation, fn)
	if err != nil {
		return err
	}
	deliver := func(kv *pb.KV) error {
		if !bytes.HasPrefix(kv.Key, prefix) {
			return nil
		}
		message, err := decodeDiskMessage(kv.Value)
		if err != nil {
			r.log.Error("Skipping undecodable message", "key", string(kv.Key), "error", err)
			return nil
		}
		if _, ok := replayed[message.ID]; ok {
			return nil
		}
		return fn(message)
	}
	for _, kv := range pending {
		if err := deliver(kv); err != nil {
			return err
		}
	}
	for {
		select {
		case kv := <-updates:
			if err := deliver(kv); err != nil {
				return err
			}
		case err := <-ended:
			return quiet(err)
		case <-ctx.Done():
			return nil
		}
	}
}

// awaitRegistration writes a short-lived marker key until the subscription
// observes it. Conversation entries seen meanwhile are returned in order.
func (r ConversationRepository) awaitRegistration(ctx context.Context, marker []byte, updates <-chan *pb.KV, ended <-chan error) ([]*pb.KV, error) {
	var pending []*pb.KV
	defer func() {
		if err := r.db.Update(func(txn *badger.Txn) error { return txn.Delete(marker) }); err != nil {
			r.log.Warn("Subscription marker not deleted", "key", string(marker), "error", err)
		}
	}()
	for {
		err := r.db.Update(func(txn *badger.Txn) error {
			return txn.SetEntry(badger.NewEntry(marker, nil).WithTTL(time.Minute))
		})
		if err != nil {
			return nil, err
		}
		retry := time.After(markerRetry)
	wait:
		for {
			select {
			case kv := <-updates:
				if bytes.Equal(kv.Key, marker) {
					return pending, nil
				}
				pending = append(pending, kv)
			case <-retry:
				break wait
			case err := <-ended:
				return nil, err
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
	}
}

// replay delivers the latest page, oldest first, and returns the ids it delivered.
func (r ConversationRepository) replay(conversation domain.ConversationKey, fn func(DiskMessage) error) (map[uuid.UUID]struct{}, error) {
	messages, _, err := r.GetMessages(conversation, nil)
	if err != nil {
		return nil, err
	}
	replayed := make(map[uuid.UUID]struct{}, len(messages))
	for i := len(messages) - 1; i >= 0; i-- {
		if err := fn(messages[i]); err != nil {
			return nil, err
		}
		replayed[messages[i].ID] = struct{}{}
	}
	return replayed, nil
}

func quiet(err error) error {
	if stderrors.Is(err, context.Canceled) || stderrors.Is(err, context.DeadlineExceeded) {
		return nil
	}
	return err
}

func conversationKeyPrefix(conversation domain.ConversationKey) string {
	return conversationPrefix + conversation.String() + ":"
}

const (
	messageID           = 1
	messageConversation = 2
	messageFrom         = 3
	messageTo           = 4
	messageText         = 5
	messageTime         = 6
	messageAt           = 7
)

func encodeDiskMessage(message DiskMessage) []byte {
	var b []byte
	b = appendString(b, messageID, message.ID.String())
	b = appendString(b, messageConversation, message.Conversation.String())
	b = appendString(b, messageFrom, message.From.String())
	b = appendString(b, messageTo, message.To.String())
	b = appendString(b, messageText, message.Text)
	b = appendString(b, messageTime, message.Time)
	b = appendInt64(b, messageAt, message.At.UnixNano())
	return b
}

func decodeDiskMessage(b []byte) (DiskMessage, error) {
	r, err := parseRecord(b)
	if err != nil {
		return DiskMessage{}, err
	}
	id, err := uuid.Parse(r.str(messageID))
	if err != nil {
		return DiskMessage{}, err
	}
	return DiskMessage{
		ID:           id,
		Conversation: domain.ConversationKey(r.str(messageConversation)),
		From:         domain.Code(r.str(messageFrom)),
		To:           domain.Code(r.str(messageTo)),
		Text:         r.str(messageText),
		Time:         r.str(messageTime),
		At:           time.Unix(0, r.integer(messageAt)).UTC(),
	}, nil
}
