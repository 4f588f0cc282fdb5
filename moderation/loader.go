package moderation

import (
	"bufio"
	"bytes"
	"embed"
	"fmt"
	"io/fs"
	"path"
	"strings"

	"whisperwall/errors"
)

//go:embed policy/*
var policyFolder embed.FS

// KeywordData carries the result of the loading process including metadata for logging.
type KeywordData struct {
	Words     []string
	Languages []string
}

// KeywordLoader reads keyword lists from a filesystem, one directory per
// category and one file per language (e.g. "abusive/fr.txt").
type KeywordLoader struct {
	fs fs.FS
}

func NewKeywordLoader(f fs.FS) *KeywordLoader {
	return &KeywordLoader{fs: f}
}

// LoadAll parses every .txt file of dir into a unique list of words.
func (l *KeywordLoader) LoadAll(dir string) (*KeywordData, error) {
	entries, err := fs.ReadDir(l.fs, dir)
	if err != nil {
		return nil, err
	}

	var languages []string
	var words []string
	seen := make(map[string]struct{})

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".txt") {
			continue
		}
		languages = append(languages, strings.TrimSuffix(entry.Name(), ".txt"))

		data, err := fs.ReadFile(l.fs, path.Join(dir, entry.Name()))
		if err != nil {
			return nil, err
		}

		// Scanner handles \n and \r\n alike
		scanner := bufio.NewScanner(bytes.NewReader(data))
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if line == "" || strings.HasPrefix(line, "#") {
				continue
			}
			if _, ok := seen[line]; ok {
				continue
			}
			seen[line] = struct{}{}
			words = append(words, line)
		}
		if err := scanner.Err(); err != nil {
			return nil, err
		}
	}

	if len(words) == 0 {
		return nil, fmt.Errorf("%w in %s", errors.ErrEmptyWords, dir)
	}
	return &KeywordData{Words: words, Languages: languages}, nil
}
