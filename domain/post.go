package domain

import (
	"time"

	"github.com/google/uuid"
)

// ReportThreshold is the number of distinct reports that removes a post.
const ReportThreshold = 5

type Post struct {
	ID          uuid.UUID
	Content     string
	AuthorCode  Code
	CreatedAt   time.Time
	Likes       int
	LikedBy     []Code
	ReportCount int
	ReportedBy  []Code
	Replies     []Reply
	Language    string
}

type Reply struct {
	ID         uuid.UUID
	PostID     uuid.UUID
	Content    string
	AuthorCode Code
	CreatedAt  time.Time
	Likes      int
	LikedBy    []Code
}

// Hidden reports whether the post reached the report threshold.
func (p Post) Hidden() bool {
	return p.ReportCount >= ReportThreshold
}
