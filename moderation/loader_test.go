package moderation

import (
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/require"

	"whisperwall/errors"
)

func TestKeywordLoader_LoadAll_Embedded(t *testing.T) {
	req := require.New(t)
	loader := NewKeywordLoader(policyFolder)

	data, err := loader.LoadAll(abusiveDir)

	req.NoError(err)
	req.ElementsMatch([]string{"en", "fr"}, data.Languages)
	req.Contains(data.Words, "idiot")
	req.Contains(data.Words, "abruti")
}

func TestKeywordLoader_LoadAll_Deduplicates(t *testing.T) {
	req := require.New(t)
	loader := NewKeywordLoader(fstest.MapFS{
		"words/en.txt":       {Data: []byte("badger\r\nsnake\n\n")},
		"words/fr.txt":       {Data: []byte("badger\nserpent\n")},
		"words/README.md":    {Data: []byte("ignored")},
		"words/nested/x.txt": {Data: []byte("ignored")},
	})

	data, err := loader.LoadAll("words")

	req.NoError(err)
	req.Equal([]string{"en", "fr"}, data.Languages)
	req.Equal([]string{"badger", "snake", "serpent"}, data.Words)
}

func TestKeywordLoader_LoadAll_Empty(t *testing.T) {
	req := require.New(t)
	loader := NewKeywordLoader(fstest.MapFS{"words/en.txt": {Data: []byte("\n")}})

	_, err := loader.LoadAll("words")

	req.ErrorIs(err, errors.ErrEmptyWords)
}
