package event

import (
	"github.com/google/uuid"

	"whisperwall/domain"
)

const (
	PostPublishedType Type = "POST_PUBLISHED"
	PostRemovedType   Type = "POST_REMOVED"
)

// PostPublished asks the index worker to (re)index a post.
type PostPublished struct {
	Post domain.Post
}

// PostRemoved asks the index worker to forget a post.
type PostRemoved struct {
	ID uuid.UUID
}
