//go:generate go run go.uber.org/mock/mockgen -source=post_index.go -destination=../mocks/mock_post_index.go -package=mocks
package repositories

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/blugelabs/bluge"
	"github.com/google/uuid"

	"whisperwall/domain"
)

const (
	contentField  = "content"
	authorField   = "author"
	languageField = "language"
)

type IPostIndex interface {
	Index(post domain.Post) error
	Remove(id uuid.UUID) error
	Search(ctx context.Context, terms string, limit int) ([]uuid.UUID, error)
}

// PostIndex is the full-text index of post contents, backed by bluge.
type PostIndex struct {
	writer *bluge.Writer
	log    *slog.Logger
}

func NewPostIndex(writer *bluge.Writer, log *slog.Logger) PostIndex {
	return PostIndex{writer: writer, log: log}
}

func (i PostIndex) Index(post domain.Post) error {
	doc := bluge.NewDocument(post.ID.String()).
		AddField(bluge.NewTextField(contentField, post.Content).StoreValue()).
		AddField(bluge.NewKeywordField(authorField, post.AuthorCode.String()).StoreValue()).
		AddField(bluge.NewKeywordField(languageField, post.Language).StoreValue())
	return i.writer.Update(doc.ID(), doc)
}

func (i PostIndex) Remove(id uuid.UUID) error {
	return i.writer.Delete(bluge.Identifier(id.String()))
}

// Search returns the ids of the best matching posts, best match first.
func (i PostIndex) Search(ctx context.Context, terms string, limit int) ([]uuid.UUID, error) {
	reader, err := i.writer.Reader()
	if err != nil {
		return nil, fmt.Errorf("bluge reader: %w", err)
	}
	defer func() {
		if err := reader.Close(); err != nil {
			i.log.Warn("Failed to close bluge reader", "error", err)
		}
	}()

	query := bluge.NewMatchQuery(terms).SetField(contentField)
	request := bluge.NewTopNSearch(limit, query)
	matches, err := reader.Search(ctx, request)
	if err != nil {
		return nil, err
	}

	var ids []uuid.UUID
	match, err := matches.Next()
	for err == nil && match != nil {
		var visitErr error
		err = match.VisitStoredFields(func(field string, value []byte) bool {
			if field != "_id" {
				return true
			}
			id, parseErr := uuid.Parse(string(value))
			if parseErr != nil {
				visitErr = parseErr
				return false
			}
			ids = append(ids, id)
			return false
		})
		if err != nil {
			return nil, err
		}
		if visitErr != nil {
			return nil, visitErr
		}
		match, err = matches.Next()
	}
	if err != nil {
		return nil, err
	}
	return ids, nil
}
