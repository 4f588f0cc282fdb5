//go:generate go run go.uber.org/mock/mockgen -source=feed_service.go -destination=../mocks/mock_feed_service.go -package=mocks
package services

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/abadojack/whatlanggo"
	"github.com/google/uuid"
	"github.com/samber/lo"

	"whisperwall/contract"
	"whisperwall/domain"
	"whisperwall/domain/event"
	"whisperwall/errors"
	"whisperwall/repositories"
)

type IFeedService interface {
	CreatePost(ctx context.Context, author domain.Code, content string) (domain.Post, error)
	ListPosts(ctx context.Context) ([]domain.Post, error)
	LikePost(ctx context.Context, actor domain.Code, postID uuid.UUID) (domain.Post, error)
	ReportPost(ctx context.Context, actor domain.Code, postID uuid.UUID) (ReportResult, error)
	AddReply(ctx context.Context, author domain.Code, postID uuid.UUID, content string) (domain.Reply, error)
	LikeReply(ctx context.Context, actor domain.Code, postID, replyID uuid.UUID) (domain.Reply, error)
	Search(ctx context.Context, terms string, limit int) ([]domain.Post, error)
}

// ReportResult tells whether the report removed the post.
type ReportResult struct {
	Post    domain.Post
	Removed bool
}

type FeedService struct {
	log         *slog.Logger
	validator   contract.ContentValidator
	posts       repositories.IPostRepository
	index       repositories.IPostIndex
	indexEvents chan event.Event
}

// NewFeedService builds the feed. Index updates are sent on indexEvents and
// applied by the index worker, so search results follow the feed with a delay.
func NewFeedService(
	log *slog.Logger,
	validator contract.ContentValidator,
	posts repositories.IPostRepository,
	index repositories.IPostIndex,
	indexEvents chan event.Event,
) *FeedService {
	return &FeedService{
		log:         log,
		validator:   validator,
		posts:       posts,
		index:       index,
		indexEvents: indexEvents,
	}
}

func (s *FeedService) CreatePost(ctx context.Context, author domain.Code, content string) (domain.Post, error) {
	if err := s.check(content); err != nil {
		return domain.Post{}, err
	}
	post := domain.Post{
		ID:         uuid.New(),
		Content:    strings.TrimSpace(content),
		AuthorCode: author,
		CreatedAt:  time.Now().UTC(),
		Language:   whatlanggo.Detect(content).Lang.Iso6391(),
	}
	if err := s.posts.Save(post); err != nil {
		return domain.Post{}, err
	}
	s.log.Debug("Post created", "id", post.ID, "author", author, "lang", post.Language)
	return post, s.notify(ctx, event.New(event.PostPublishedType, event.PostPublished{Post: post}))
}

// ListPosts returns the visible posts, newest first.
func (s *FeedService) ListPosts(_ context.Context) ([]domain.Post, error) {
	posts, err := s.posts.List()
	if err != nil {
		return nil, err
	}
	return lo.Reject(posts, func(p domain.Post, _ int) bool { return p.Hidden() }), nil
}

// LikePost likes the post, or takes the like back when the actor already liked it.
func (s *FeedService) LikePost(_ context.Context, actor domain.Code, postID uuid.UUID) (domain.Post, error) {
	return s.posts.Mutate(postID, func(post *domain.Post) error {
		post.LikedBy = toggle(post.LikedBy, actor)
		post.Likes = len(post.LikedBy)
		return nil
	})
}

// ReportPost records one report per code. The report reaching
// domain.ReportThreshold deletes the post.
func (s *FeedService) ReportPost(ctx context.Context, actor domain.Code, postID uuid.UUID) (ReportResult, error) {
	post, err := s.posts.Mutate(postID, func(post *domain.Post) error {
		if slices.Contains(post.ReportedBy, actor) {
			return errors.ErrAlreadyReported
		}
		post.ReportedBy = append(post.ReportedBy, actor)
		post.ReportCount = len(post.ReportedBy)
		return nil
	})
	if err != nil {
		return ReportResult{}, err
	}
	if !post.Hidden() {
		return ReportResult{Post: post}, nil
	}

	if err := s.posts.Delete(postID); err != nil {
		return ReportResult{}, err
	}
	s.log.Info("Post removed after reports", "id", postID, "reports", post.ReportCount)
	return ReportResult{Post: post, Removed: true}, s.notify(ctx, event.New(event.PostRemovedType, event.PostRemoved{ID: postID}))
}

func (s *FeedService) AddReply(_ context.Context, author domain.Code, postID uuid.UUID, content string) (domain.Reply, error) {
	if err := s.check(content); err != nil {
		return domain.Reply{}, err
	}
	reply := domain.Reply{
		ID:         uuid.New(),
		PostID:     postID,
		Content:    strings.TrimSpace(content),
		AuthorCode: author,
		CreatedAt:  time.Now().UTC(),
	}
	_, err := s.posts.Mutate(postID, func(post *domain.Post) error {
		post.Replies = append(post.Replies, reply)
		return nil
	})
	if err != nil {
		return domain.Reply{}, err
	}
	return reply, nil
}

func (s *FeedService) LikeReply(_ context.Context, actor domain.Code, postID, replyID uuid.UUID) (domain.Reply, error) {
	var liked domain.Reply
	_, err := s.posts.Mutate(postID, func(post *domain.Post) error {
		i := slices.IndexFunc(post.Replies, func(r domain.Reply) bool { return r.ID == replyID })
		if i < 0 {
			return fmt.Errorf("%w: %s", errors.ErrReplyNotFound, replyID)
		}
		reply := &post.Replies[i]
		reply.LikedBy = toggle(reply.LikedBy, actor)
		reply.Likes = len(reply.LikedBy)
		liked = *reply
		return nil
	})
	if err != nil {
		return domain.Reply{}, err
	}
	return liked, nil
}

// Search returns the visible posts matching terms, best match first.
// Posts deleted since they were indexed are skipped.
func (s *FeedService) Search(ctx context.Context, terms string, limit int) ([]domain.Post, error) {
	if strings.TrimSpace(terms) == "" {
		return nil, nil
	}
	ids, err := s.index.Search(ctx, terms, limit)
	if err != nil {
		return nil, err
	}
	var posts []domain.Post
	for _, id := range ids {
		post, err := s.posts.Get(id)
		if stderrors.Is(err, errors.ErrPostNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		if !post.Hidden() {
			posts = append(posts, post)
		}
	}
	return posts, nil
}

func (s *FeedService) check(content string) error {
	verdict := s.validator.Validate(content)
	if !verdict.Valid {
		return fmt.Errorf("%w: %s", errors.ErrContentRejected, verdict.Reason)
	}
	return nil
}

func (s *FeedService) notify(ctx context.Context, evt event.Event) error {
	select {
	case s.indexEvents <- evt:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func toggle(codes []domain.Code, code domain.Code) []domain.Code {
	if slices.Contains(codes, code) {
		return lo.Without(codes, code)
	}
	return append(codes, code)
}
