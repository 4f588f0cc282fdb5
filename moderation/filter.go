// Package moderation decides whether user content may be published on the wall.
package moderation

import (
	"fmt"
	"io/fs"
	"log/slog"
	"regexp"
	"strings"
	"unicode/utf8"

	"whisperwall/domain"
)

const (
	DefaultMaxContentLength = 500

	ReasonEmpty    = "Post cannot be empty"
	ReasonPhone    = "Phone numbers are not allowed"
	ReasonLink     = "Links and URLs are not allowed"
	ReasonSelfHarm = "Content suggesting self-harm is not allowed. Please seek help from a mental health professional."
	ReasonAbusive  = "Abusive or inappropriate language is not allowed"

	selfHarmDir = "policy/self_harm"
	abusiveDir  = "policy/abusive"
)

var (
	phonePatterns = []*regexp.Regexp{
		regexp.MustCompile(`\b\d{3}[-.]?\d{3}[-.]?\d{4}\b`),
		regexp.MustCompile(`\b\d{10}\b`),
		regexp.MustCompile(`\+\d{1,3}[-.\s]?\d{3,14}`),
	}
	linkPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)https?://\S+`),
		regexp.MustCompile(`(?i)www\.\S+`),
		regexp.MustCompile(`(?i)[a-z0-9-]+\.(com|org|net|edu|gov|co|io|ly|me|tv)\S*`),
	}
)

// ContentFilter validates posts and replies. Validate is pure and safe for concurrent use.
type ContentFilter struct {
	log              *slog.Logger
	maxContentLength int
	selfHarm         *Moderator
	abusive          *Moderator
}

// NewContentFilter builds a filter from the embedded keyword policy.
func NewContentFilter(log *slog.Logger, maxContentLength int) (*ContentFilter, error) {
	return NewContentFilterFromFS(log, policyFolder, maxContentLength)
}

// NewContentFilterFromFS builds a filter from any filesystem laid out like the embedded policy.
func NewContentFilterFromFS(log *slog.Logger, policy fs.FS, maxContentLength int) (*ContentFilter, error) {
	if maxContentLength <= 0 {
		maxContentLength = DefaultMaxContentLength
	}
	loader := NewKeywordLoader(policy)

	selfHarm, err := buildModerator(log, loader, selfHarmDir)
	if err != nil {
		return nil, err
	}
	abusive, err := buildModerator(log, loader, abusiveDir)
	if err != nil {
		return nil, err
	}
	return &ContentFilter{
		log:              log,
		maxContentLength: maxContentLength,
		selfHarm:         selfHarm,
		abusive:          abusive,
	}, nil
}

func buildModerator(log *slog.Logger, loader *KeywordLoader, dir string) (*Moderator, error) {
	data, err := loader.LoadAll(dir)
	if err != nil {
		return nil, err
	}
	log.Info(fmt.Sprintf("%d keyword files loaded [%s]", len(data.Languages), strings.Join(data.Languages, ",")),
		"policy", dir, "words", len(data.Words))
	return NewModerator(data.Words, '*')
}

// Validate applies the rules in order and returns the first failing one.
func (f *ContentFilter) Validate(content string) domain.Verdict {
	if strings.TrimSpace(content) == "" {
		return domain.Rejected(ReasonEmpty)
	}
	if utf8.RuneCountInString(content) > f.maxContentLength {
		return domain.Rejected(fmt.Sprintf("Post must be %d characters or less", f.maxContentLength))
	}
	if matchAny(phonePatterns, content) {
		return domain.Rejected(ReasonPhone)
	}
	if matchAny(linkPatterns, content) {
		return domain.Rejected(ReasonLink)
	}
	if f.selfHarm.Contains(content) {
		return domain.Rejected(ReasonSelfHarm)
	}
	if censored, words := f.abusive.Censor(content); len(words) > 0 {
		f.log.Debug("Abusive content rejected", "content", censored, "words", len(words))
		return domain.Rejected(ReasonAbusive)
	}
	return domain.Accepted()
}

func matchAny(patterns []*regexp.Regexp, content string) bool {
	for _, p := range patterns {
		if p.MatchString(content) {
			return true
		}
	}
	return false
}
