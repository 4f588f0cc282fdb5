//go:generate go run go.uber.org/mock/mockgen -source=post.go -destination=../mocks/mock_post_repository.go -package=mocks
package repositories

import (
	stderrors "errors"
	"fmt"
	"slices"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/samber/lo"

	"whisperwall/domain"
	"whisperwall/errors"
)

const (
	postPrefix    = "post:"
	conflictRetry = 3
)

type IPostRepository interface {
	Save(post domain.Post) error
	Get(id uuid.UUID) (domain.Post, error)
	List() ([]domain.Post, error)
	Mutate(id uuid.UUID, fn func(post *domain.Post) error) (domain.Post, error)
	Delete(id uuid.UUID) error
}

type PostRepository struct {
	db *badger.DB
}

func NewPostRepository(db *badger.DB) PostRepository {
	return PostRepository{db: db}
}

func (r PostRepository) Save(post domain.Post) error {
	return r.db.Update(func(txn *badger.Txn) error {
		return txn.Set(postKey(post.ID), encodePost(post))
	})
}

func (r PostRepository) Get(id uuid.UUID) (domain.Post, error) {
	var post domain.Post
	err := r.db.View(func(txn *badger.Txn) error {
		var err error
		post, err = getPost(txn, id)
		return err
	})
	return post, err
}

// List returns every post, newest first.
func (r PostRepository) List() ([]domain.Post, error) {
	var posts []domain.Post
	err := r.db.View(func(txn *badger.Txn) error {
		prefix := []byte(postPrefix)
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			err := it.Item().Value(func(val []byte) error {
				post, err := decodePost(val)
				if err != nil {
					return err
				}
				posts = append(posts, post)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	slices.SortStableFunc(posts, func(a, b domain.Post) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	return posts, nil
}

// Mutate applies fn to the stored post inside one transaction. A write
// conflict with a concurrent mutation is retried a few times.
func (r PostRepository) Mutate(id uuid.UUID, fn func(post *domain.Post) error) (domain.Post, error) {
	var post domain.Post
	var err error
	for range conflictRetry {
		err = r.db.Update(func(txn *badger.Txn) error {
			var err error
			post, err = getPost(txn, id)
			if err != nil {
				return err
			}
			if err := fn(&post); err != nil {
				return err
			}
			return txn.Set(postKey(id), encodePost(post))
		})
		if !stderrors.Is(err, badger.ErrConflict) {
			break
		}
	}
	if err != nil {
		return domain.Post{}, err
	}
	return post, nil
}

func (r PostRepository) Delete(id uuid.UUID) error {
	return r.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(postKey(id))
	})
}

func getPost(txn *badger.Txn, id uuid.UUID) (domain.Post, error) {
	item, err := txn.Get(postKey(id))
	if stderrors.Is(err, badger.ErrKeyNotFound) {
		return domain.Post{}, fmt.Errorf("%w: %s", errors.ErrPostNotFound, id)
	}
	if err != nil {
		return domain.Post{}, err
	}
	var post domain.Post
	err = item.Value(func(val []byte) error {
		post, err = decodePost(val)
		return err
	})
	return post, err
}

func postKey(id uuid.UUID) []byte {
	return []byte(postPrefix + id.String())
}

const (
	postID         = 1
	postContent    = 2
	postAuthor     = 3
	postCreatedAt  = 4
	postLikedBy    = 5
	postReportedBy = 6
	postReplies    = 7
	postLanguage   = 8
)

const (
	replyID        = 1
	replyPostID    = 2
	replyContent   = 3
	replyAuthor    = 4
	replyCreatedAt = 5
	replyLikedBy   = 6
)

func encodePost(post domain.Post) []byte {
	var b []byte
	b = appendString(b, postID, post.ID.String())
	b = appendString(b, postContent, post.Content)
	b = appendString(b, postAuthor, post.AuthorCode.String())
	b = appendInt64(b, postCreatedAt, post.CreatedAt.UnixNano())
	b = appendStrings(b, postLikedBy, codesToStrings(post.LikedBy))
	b = appendStrings(b, postReportedBy, codesToStrings(post.ReportedBy))
	for _, reply := range post.Replies {
		b = appendMessage(b, postReplies, encodeReply(reply))
	}
	b = appendString(b, postLanguage, post.Language)
	return b
}

// decodePost derives the counters from the code lists so they can never drift apart.
func decodePost(b []byte) (domain.Post, error) {
	r, err := parseRecord(b)
	if err != nil {
		return domain.Post{}, err
	}
	id, err := uuid.Parse(r.str(postID))
	if err != nil {
		return domain.Post{}, err
	}
	post := domain.Post{
		ID:         id,
		Content:    r.str(postContent),
		AuthorCode: domain.Code(r.str(postAuthor)),
		CreatedAt:  time.Unix(0, r.integer(postCreatedAt)).UTC(),
		LikedBy:    stringsToCodes(r.strs(postLikedBy)),
		ReportedBy: stringsToCodes(r.strs(postReportedBy)),
		Language:   r.str(postLanguage),
	}
	post.Likes = len(post.LikedBy)
	post.ReportCount = len(post.ReportedBy)
	for _, raw := range r.messages(postReplies) {
		reply, err := decodeReply(raw)
		if err != nil {
			return domain.Post{}, err
		}
		post.Replies = append(post.Replies, reply)
	}
	return post, nil
}

func encodeReply(reply domain.Reply) []byte {
	var b []byte
	b = appendString(b, replyID, reply.ID.String())
	b = appendString(b, replyPostID, reply.PostID.String())
	b = appendString(b, replyContent, reply.Content)
	b = appendString(b, replyAuthor, reply.AuthorCode.String())
	b = appendInt64(b, replyCreatedAt, reply.CreatedAt.UnixNano())
	b = appendStrings(b, replyLikedBy, codesToStrings(reply.LikedBy))
	return b
}

func decodeReply(b []byte) (domain.Reply, error) {
	r, err := parseRecord(b)
	if err != nil {
		return domain.Reply{}, err
	}
	id, err := uuid.Parse(r.str(replyID))
	if err != nil {
		return domain.Reply{}, err
	}
	parentID, err := uuid.Parse(r.str(replyPostID))
	if err != nil {
		return domain.Reply{}, err
	}
	reply := domain.Reply{
		ID:         id,
		PostID:     parentID,
		Content:    r.str(replyContent),
		AuthorCode: domain.Code(r.str(replyAuthor)),
		CreatedAt:  time.Unix(0, r.integer(replyCreatedAt)).UTC(),
		LikedBy:    stringsToCodes(r.strs(replyLikedBy)),
	}
	reply.Likes = len(reply.LikedBy)
	return reply, nil
}

func codesToStrings(codes []domain.Code) []string {
	return lo.Map(codes, func(c domain.Code, _ int) string { return c.String() })
}

func stringsToCodes(values []string) []domain.Code {
	if len(values) == 0 {
		return nil
	}
	return lo.Map(values, func(v string, _ int) domain.Code { return domain.Code(v) })
}
