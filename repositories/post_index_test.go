package repositories

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/blugelabs/bluge"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func openBluge(t *testing.T) *bluge.Writer {
	t.Helper()
	writer, err := bluge.OpenWriter(bluge.DefaultConfig(t.TempDir()))
	require.NoError(t, err)
	t.Cleanup(func() { _ = writer.Close() })
	return writer
}

func TestPostIndex_Search(t *testing.T) {
	req := require.New(t)
	index := NewPostIndex(openBluge(t), slog.Default())
	ctx := context.Background()
	at := time.Now().UTC()

	exams := newPost("exams are coming and I cannot sleep", at)
	rain := newPost("the rain makes me calm", at)
	more := newPost("two exams tomorrow", at)
	req.NoError(index.Index(exams))
	req.NoError(index.Index(rain))
	req.NoError(index.Index(more))

	// When searching a word present in two posts
	var ids []uuid.UUID
	req.Eventually(func() bool {
		var err error
		ids, err = index.Search(ctx, "exams", 10)
		return err == nil && len(ids) == 2
	}, 2*time.Second, 20*time.Millisecond)

	// Then only those posts are returned
	req.ElementsMatch([]uuid.UUID{exams.ID, more.ID}, ids)

	// When one of them is removed
	req.NoError(index.Remove(more.ID))

	req.Eventually(func() bool {
		var err error
		ids, err = index.Search(ctx, "exams", 10)
		return err == nil && len(ids) == 1 && ids[0] == exams.ID
	}, 2*time.Second, 20*time.Millisecond)
}

func TestPostIndex_Search_Limit(t *testing.T) {
	req := require.New(t)
	index := NewPostIndex(openBluge(t), slog.Default())
	at := time.Now().UTC()
	for range 5 {
		req.NoError(index.Index(newPost("rainy day again", at)))
	}

	var ids []uuid.UUID
	req.Eventually(func() bool {
		var err error
		ids, err = index.Search(context.Background(), "rainy", 3)
		return err == nil && len(ids) == 3
	}, 2*time.Second, 20*time.Millisecond)
}
